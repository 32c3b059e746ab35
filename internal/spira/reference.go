package spira

import (
	"context"
	"errors"
	"fmt"

	"github.com/h0rv/spira/internal/auth"
	"github.com/h0rv/spira/internal/domain"
)

// fixedPriorities are shared by requirements (importance) and tasks.
var fixedPriorities = []domain.Priority{
	{ID: domain.NoneID, Name: domain.NoneLabel},
	{ID: 1, Name: "1 - Critical"},
	{ID: 2, Name: "2 - High"},
	{ID: 3, Name: "3 - Medium"},
	{ID: 4, Name: "4 - Low"},
}

// GetPriorities returns the selectable priorities for kind, sentinel first.
// Requirements and tasks use a fixed list; incident priorities are
// configured per project and fetched.
func (c *Client) GetPriorities(ctx context.Context, kind domain.Kind, creds auth.Credentials, projectID int) ([]domain.Priority, error) {
	if kind != domain.KindIncident {
		out := make([]domain.Priority, len(fixedPriorities))
		copy(out, fixedPriorities)
		return out, nil
	}

	resource := fmt.Sprintf("projects/%d/incidents/priorities", projectID)

	var records []priorityRecord
	if err := c.Get(ctx, c.BuildURL(creds, resource), &records); err != nil {
		return nil, fmt.Errorf("failed to fetch incident priorities: %w", err)
	}

	out := make([]domain.Priority, 0, len(records)+1)
	out = append(out, domain.Priority{ID: domain.NoneID, Name: domain.NoneLabel})
	for i, r := range records {
		if r.PriorityID == nil {
			return nil, &DecodeError{Resource: resource, Err: fmt.Errorf("record %d without a PriorityId", i)}
		}
		out = append(out, domain.Priority{ID: *r.PriorityID, Name: r.Name})
	}
	return out, nil
}

// GetArtifactTypes returns the project's types for kind. A malformed or
// missing list gives an empty result rather than an error; transport
// failures are still returned.
func (c *Client) GetArtifactTypes(ctx context.Context, kind domain.Kind, creds auth.Credentials, projectID int) ([]domain.ArtifactTypeDescriptor, error) {
	resource := fmt.Sprintf("projects/%d/%s/types", projectID, kind.Resource())

	var records []typeRecord
	if err := c.Get(ctx, c.BuildURL(creds, resource), &records); err != nil {
		if isMalformed(err) {
			c.logger.Warn().Str("resource", resource).Err(err).Msg("Ignoring malformed type list")
			return []domain.ArtifactTypeDescriptor{}, nil
		}
		return nil, fmt.Errorf("failed to fetch %s types: %w", kind, err)
	}

	out := make([]domain.ArtifactTypeDescriptor, 0, len(records))
	for _, r := range records {
		id := r.id(kind)
		if id == nil {
			c.logger.Warn().Str("resource", resource).Msg("Ignoring type list with records missing ids")
			return []domain.ArtifactTypeDescriptor{}, nil
		}
		out = append(out, domain.ArtifactTypeDescriptor{ID: *id, Name: r.Name})
	}
	return out, nil
}

// isMalformed reports errors caused by the body rather than the exchange.
func isMalformed(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) || errors.Is(err, errInvalidJSON)
}
