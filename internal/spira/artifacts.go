package spira

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/h0rv/spira/internal/auth"
	"github.com/h0rv/spira/internal/domain"
)

const (
	// incidentStatusAllOpen is the search value matching every open status.
	incidentStatusAllOpen = -2

	incidentSortField = "Priority"
)

// ListAssignedRequirements returns the requirements assigned to the caller.
func (c *Client) ListAssignedRequirements(ctx context.Context, creds auth.Credentials) ([]domain.Artifact, error) {
	var records []requirementRecord
	if err := c.Get(ctx, c.BuildURL(creds, "requirements"), &records); err != nil {
		return nil, fmt.Errorf("failed to fetch requirements: %w", err)
	}
	return toArtifacts("requirements", records)
}

// ListAssignedTasks returns the tasks assigned to the caller.
func (c *Client) ListAssignedTasks(ctx context.Context, creds auth.Credentials) ([]domain.Artifact, error) {
	var records []taskRecord
	if err := c.Get(ctx, c.BuildURL(creds, "tasks"), &records); err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	return toArtifacts("tasks", records)
}

// ListAssignedIncidents returns the open incidents owned by the caller across
// all of their projects, concatenated in project-list order.
func (c *Client) ListAssignedIncidents(ctx context.Context, creds auth.Credentials) ([]domain.Artifact, error) {
	if c.incidentSource == IncidentSourceAssigned {
		var records []incidentRecord
		if err := c.Get(ctx, c.BuildURL(creds, "incidents"), &records); err != nil {
			return nil, fmt.Errorf("failed to fetch incidents: %w", err)
		}
		return toArtifacts("incidents", records)
	}

	user, err := c.CurrentUser(ctx, creds)
	if err != nil {
		return nil, err
	}
	projects, err := c.ListProjects(ctx, creds)
	if err != nil {
		return nil, err
	}
	return c.searchIncidents(ctx, creds, user.ID, projects)
}

func (c *Client) searchIncidents(ctx context.Context, creds auth.Credentials, userID int, projects []domain.Project) ([]domain.Artifact, error) {
	body, err := json.Marshal([]searchFilter{
		{PropertyName: "OwnerId", IntValue: userID},
		{PropertyName: "IncidentStatusId", IntValue: incidentStatusAllOpen},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode incident search: %w", err)
	}

	perProject := make([][]domain.Artifact, len(projects))
	err = c.forEach(ctx, len(projects), func(ctx context.Context, i int) error {
		resource := fmt.Sprintf("projects/%d/incidents/search", projects[i].ID)
		url := c.BuildURL(creds, resource,
			param{"start_row", "1"},
			param{"number_rows", strconv.Itoa(c.pageSize)},
			param{"sort_by", incidentSortField},
		)

		var records []incidentRecord
		if err := c.Post(ctx, url, body, &records); err != nil {
			return fmt.Errorf("failed to search incidents in project %d: %w", projects[i].ID, err)
		}
		artifacts, err := toArtifacts(resource, records)
		if err != nil {
			return err
		}
		perProject[i] = artifacts
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []domain.Artifact
	for _, artifacts := range perProject {
		out = append(out, artifacts...)
	}
	if out == nil {
		out = []domain.Artifact{}
	}

	c.logger.Debug().Int("projects", len(projects)).Int("incidents", len(out)).Msg("Searched assigned incidents")
	return out, nil
}
