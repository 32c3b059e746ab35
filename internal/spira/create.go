package spira

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/h0rv/spira/internal/auth"
	"github.com/h0rv/spira/internal/domain"
)

// taskStatusNotStarted is the status every new task is created with.
const taskStatusNotStarted = 1

// CreateBody is the JSON object posted to create an artifact.
type CreateBody map[string]any

// BuildCreateBody assembles the creation payload for kind. Name, the type
// and the description are always present; owner and priority are left out
// when they are domain.NoneID so the server applies its defaults.
func BuildCreateBody(kind domain.Kind, name string, typeID int, description string, ownerID, priorityID int) CreateBody {
	body := CreateBody{
		"Name":        name,
		"Description": description,
	}

	switch kind {
	case domain.KindRequirement:
		body["RequirementTypeId"] = typeID
		if priorityID != domain.NoneID {
			body["ImportanceId"] = priorityID
		}
	case domain.KindTask:
		body["TaskTypeId"] = typeID
		body["TaskStatusId"] = taskStatusNotStarted
		if priorityID != domain.NoneID {
			body["TaskPriorityId"] = priorityID
		}
	case domain.KindIncident:
		body["IncidentTypeId"] = typeID
		if priorityID != domain.NoneID {
			body["PriorityId"] = priorityID
		}
	}

	if ownerID != domain.NoneID {
		body["OwnerId"] = ownerID
	}
	return body
}

// CreateRequirement creates a requirement in projectID and returns its id.
func (c *Client) CreateRequirement(ctx context.Context, creds auth.Credentials, body CreateBody, projectID int) (int, error) {
	return c.create(ctx, creds, domain.KindRequirement, body, projectID)
}

// CreateTask creates a task in projectID and returns its id.
func (c *Client) CreateTask(ctx context.Context, creds auth.Credentials, body CreateBody, projectID int) (int, error) {
	return c.create(ctx, creds, domain.KindTask, body, projectID)
}

// CreateIncident creates an incident in projectID and returns its id.
func (c *Client) CreateIncident(ctx context.Context, creds auth.Credentials, body CreateBody, projectID int) (int, error) {
	return c.create(ctx, creds, domain.KindIncident, body, projectID)
}

// Create dispatches to the kind's creation endpoint.
func (c *Client) Create(ctx context.Context, creds auth.Credentials, kind domain.Kind, body CreateBody, projectID int) (int, error) {
	switch kind {
	case domain.KindRequirement:
		return c.CreateRequirement(ctx, creds, body, projectID)
	case domain.KindTask:
		return c.CreateTask(ctx, creds, body, projectID)
	case domain.KindIncident:
		return c.CreateIncident(ctx, creds, body, projectID)
	}
	return 0, fmt.Errorf("unsupported artifact kind %q", kind)
}

// create posts body once. The returned id is 0 when the server does not
// echo the new artifact back.
func (c *Client) create(ctx context.Context, creds auth.Credentials, kind domain.Kind, body CreateBody, projectID int) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", kind, err)
	}

	resource := fmt.Sprintf("projects/%d/%s", projectID, kind.Resource())

	var created createdRecord
	if err := c.Post(ctx, c.BuildURL(creds, resource), payload, &created); err != nil {
		return 0, fmt.Errorf("failed to create %s in project %d: %w", kind, projectID, err)
	}

	id := created.id(kind)
	c.logger.Info().Str("kind", string(kind)).Int("project_id", projectID).Int("id", id).Msg("Created artifact")
	return id, nil
}
