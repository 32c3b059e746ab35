package spira

import (
	"context"
	"sync"
)

// forEach runs fn for indexes 0..n-1 with at most c.concurrency calls in
// flight. Callers store results by index so output order never depends on
// completion order. The first error cancels the remaining calls and is
// returned.
func (c *Client) forEach(ctx context.Context, n int, fn func(ctx context.Context, index int) error) error {
	if n == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, c.concurrency)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(index int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			if err := fn(ctx, index); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
