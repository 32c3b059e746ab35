// Package spira is a client for the SpiraTeam REST API (v5.0).
// It builds credential-scoped requests, fans the "incidents assigned to me"
// query out over every project, and maps the kind-specific JSON records into
// domain types.
package spira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/h0rv/spira/internal/auth"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultAPIPrefix is appended to the base URL. Note that it ends with a slash.
	DefaultAPIPrefix = "/services/v5_0/RestService.svc/"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency bounds parallel per-project requests.
	DefaultConcurrency = 4

	// DefaultPageSize is the number_rows sent with each incident search.
	DefaultPageSize = 1000

	contentTypeJSON = "application/json; charset=utf-8"
)

// IncidentSource selects how assigned incidents are fetched.
type IncidentSource string

const (
	// IncidentSourceSearch runs a search per project (works on every server version).
	IncidentSourceSearch IncidentSource = "search"
	// IncidentSourceAssigned uses the single GET incidents endpoint (SpiraTeam 5.3+).
	IncidentSourceAssigned IncidentSource = "assigned"
)

// Client is a SpiraTeam REST client. It holds no session state; every call
// takes the credentials to use.
type Client struct {
	httpClient     *http.Client
	logger         arbor.ILogger
	limiter        *rate.Limiter
	apiPrefix      string
	concurrency    int
	pageSize       int
	incidentSource IncidentSource
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP timeout. Zero disables it.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less means unlimited.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithAPIPrefix overrides the REST path prefix.
func WithAPIPrefix(prefix string) ClientOption {
	return func(c *Client) {
		if prefix != "" {
			c.apiPrefix = prefix
		}
	}
}

// WithConcurrency bounds parallel per-project requests.
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithPageSize sets the number of rows requested per incident search.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithIncidentSource selects how assigned incidents are fetched.
func WithIncidentSource(source IncidentSource) ClientOption {
	return func(c *Client) {
		if source != "" {
			c.incidentSource = source
		}
	}
}

// NewClient creates a new SpiraTeam client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:         arbor.NewLogger(),
		limiter:        rate.NewLimiter(rate.Inf, 0),
		apiPrefix:      DefaultAPIPrefix,
		concurrency:    DefaultConcurrency,
		pageSize:       DefaultPageSize,
		incidentSource: IncidentSourceSearch,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Logger returns the client's logger.
func (c *Client) Logger() arbor.ILogger {
	return c.logger
}

// param is one extra query parameter. Order is preserved on the wire.
type param struct {
	key   string
	value string
}

// BuildURL composes {baseUrl}{apiPrefix}{resource}?username=..&api-key=..
// followed by the extra parameters in the order given.
func (c *Client) BuildURL(creds auth.Credentials, resource string, params ...param) string {
	var b strings.Builder
	b.WriteString(creds.BaseURL)
	b.WriteString(c.apiPrefix)
	b.WriteString(resource)
	b.WriteString("?username=")
	b.WriteString(url.QueryEscape(creds.Username))
	b.WriteString("&api-key=")
	b.WriteString(url.QueryEscape(creds.APIToken))
	for _, p := range params {
		b.WriteByte('&')
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, rawURL string, out any) error {
	return c.do(ctx, http.MethodGet, rawURL, nil, out)
}

// Post sends body verbatim as JSON and decodes the response into out.
// A nil out discards the response.
func (c *Client) Post(ctx context.Context, rawURL string, body []byte, out any) error {
	return c.do(ctx, http.MethodPost, rawURL, body, out)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, out any) error {
	redacted := redactURL(rawURL)

	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Method: method, URL: redacted, Err: err}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return &TransportError{Method: method, URL: redacted, Err: err}
	}

	req.Header.Set("Accept", contentTypeJSON)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Str("method", method).Str("url", redacted).Err(err).Msg("SpiraTeam request failed")
		return &TransportError{Method: method, URL: redacted, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, URL: redacted, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", redacted).
		Int("status", resp.StatusCode).
		Str("elapsed", time.Since(start).String()).
		Msg("SpiraTeam request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{
			Method:     method,
			URL:        redacted,
			StatusCode: resp.StatusCode,
			Body:       snippet(data),
		}
	}

	// An empty body (e.g. 204) leaves out untouched
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if !json.Valid(data) {
		return &TransportError{
			Method:     method,
			URL:        redacted,
			StatusCode: resp.StatusCode,
			Body:       snippet(data),
			Err:        errInvalidJSON,
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Resource: resourceOf(redacted), Err: err}
	}

	return nil
}

var errInvalidJSON = errors.New("response body is not valid JSON")

// redactURL hides the api-key query parameter.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("api-key") {
		q.Set("api-key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// resourceOf extracts the resource path after the REST service segment.
func resourceOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if i := strings.Index(u.Path, ".svc/"); i >= 0 {
		return u.Path[i+len(".svc/"):]
	}
	return u.Path
}

func snippet(data []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(data))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
