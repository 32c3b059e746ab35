package spira

import (
	"context"
	"fmt"

	"github.com/h0rv/spira/internal/auth"
	"github.com/h0rv/spira/internal/domain"
)

// CurrentUser returns the authenticated user. The server only reports the
// name and id; Username comes from the credentials.
func (c *Client) CurrentUser(ctx context.Context, creds auth.Credentials) (domain.User, error) {
	var rec userRecord
	if err := c.Get(ctx, c.BuildURL(creds, "users"), &rec); err != nil {
		return domain.User{}, fmt.Errorf("failed to fetch current user: %w", err)
	}
	user, err := rec.toUser()
	if err != nil {
		return domain.User{}, &DecodeError{Resource: "users", Err: err}
	}
	user.Username = creds.Username
	user.ProjectRoleID = domain.NoneID
	return user, nil
}

// ListProjects returns the projects the caller is a member of, in server
// order, each with the caller's role resolved.
func (c *Client) ListProjects(ctx context.Context, creds auth.Credentials) ([]domain.Project, error) {
	var records []projectRecord
	if err := c.Get(ctx, c.BuildURL(creds, "projects"), &records); err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	seen := make(map[int]bool, len(records))
	unique := records[:0]
	for i, r := range records {
		if r.ProjectID == nil {
			return nil, &DecodeError{Resource: "projects", Err: fmt.Errorf("record %d: %w", i, errMissingProjectID)}
		}
		if seen[*r.ProjectID] {
			continue
		}
		seen[*r.ProjectID] = true
		unique = append(unique, r)
	}
	records = unique
	if len(records) == 0 {
		return []domain.Project{}, nil
	}

	roles, err := c.GetRoleCapabilities(ctx, creds)
	if err != nil {
		return nil, err
	}

	// Membership is checked per project; self stays nil for non-members.
	selves := make([]*domain.User, len(records))
	err = c.forEach(ctx, len(records), func(ctx context.Context, i int) error {
		users, err := c.fetchProjectUsers(ctx, creds, *records[i].ProjectID)
		if err != nil {
			return err
		}
		if self, ok := findSelf(users, creds.Username); ok {
			selves[i] = &self
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	projects := make([]domain.Project, 0, len(records))
	for i, r := range records {
		if selves[i] == nil {
			continue
		}
		p := domain.Project{ID: *r.ProjectID, Name: r.Name}
		if role, ok := roles[selves[i].ProjectRoleID]; ok {
			p.Role = &role
		}
		projects = append(projects, p)
	}

	c.logger.Debug().Int("projects", len(projects)).Int("visible", len(records)).Msg("Resolved project membership")
	return projects, nil
}

// ListProjectUsers returns the project's users ordered for an owner picker:
// the caller first, then the "-- None --" sentinel, then everyone else in
// server order. Without the caller in the project the sentinel comes first.
func (c *Client) ListProjectUsers(ctx context.Context, creds auth.Credentials, projectID int) ([]domain.User, error) {
	users, err := c.fetchProjectUsers(ctx, creds, projectID)
	if err != nil {
		return nil, err
	}
	return orderUsers(users, creds.Username), nil
}

// GetRoleCapabilities fetches the role table keyed by role id.
func (c *Client) GetRoleCapabilities(ctx context.Context, creds auth.Credentials) (map[int]domain.Role, error) {
	var records []roleRecord
	if err := c.Get(ctx, c.BuildURL(creds, "projects-roles"), &records); err != nil {
		return nil, fmt.Errorf("failed to fetch project roles: %w", err)
	}

	roles := make(map[int]domain.Role, len(records))
	for _, r := range records {
		id, ok := r.roleID()
		if !ok {
			continue
		}
		perms := make([]domain.Permission, len(r.Permissions))
		for i, p := range r.Permissions {
			perms[i] = domain.Permission{
				ProjectRoleID:  p.ProjectRoleID,
				ArtifactTypeID: p.ArtifactTypeID,
				PermissionID:   p.PermissionID,
			}
		}
		roles[id] = domain.RoleFromPermissions(id, perms)
	}
	return roles, nil
}

func (c *Client) fetchProjectUsers(ctx context.Context, creds auth.Credentials, projectID int) ([]domain.User, error) {
	resource := fmt.Sprintf("projects/%d/users", projectID)

	var records []userRecord
	if err := c.Get(ctx, c.BuildURL(creds, resource), &records); err != nil {
		return nil, fmt.Errorf("failed to fetch users of project %d: %w", projectID, err)
	}

	users := make([]domain.User, 0, len(records))
	for i, r := range records {
		u, err := r.toUser()
		if err != nil {
			return nil, &DecodeError{Resource: resource, Err: fmt.Errorf("record %d: %w", i, err)}
		}
		users = append(users, u)
	}
	return users, nil
}

func findSelf(users []domain.User, username string) (domain.User, bool) {
	for _, u := range users {
		if u.Username == username {
			return u, true
		}
	}
	return domain.User{}, false
}

func orderUsers(users []domain.User, username string) []domain.User {
	out := make([]domain.User, 0, len(users)+1)
	self, hasSelf := findSelf(users, username)
	if hasSelf {
		out = append(out, self)
	}
	out = append(out, domain.NoneUser())
	for _, u := range users {
		if hasSelf && u.Username == username {
			continue
		}
		out = append(out, u)
	}
	return out
}
