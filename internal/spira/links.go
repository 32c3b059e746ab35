package spira

import (
	"context"
	"errors"
	"fmt"

	"github.com/h0rv/spira/internal/auth"
	"github.com/h0rv/spira/internal/domain"
	"github.com/pkg/browser"
)

// ErrNoProjects is returned when the user belongs to no project.
var ErrNoProjects = errors.New("you are not a member of any project")

// ArtifactURL returns the web page of an artifact,
// e.g. https://x.test/proj/1/Incident/42.aspx.
func ArtifactURL(baseURL string, a domain.Artifact) string {
	return fmt.Sprintf("%s/%d/%s/%d.aspx", baseURL, a.ProjectID, a.Kind, a.ID)
}

// MyPageURL returns the user's "My Page". The page needs a project id in
// its path, so the first project is used.
func (c *Client) MyPageURL(ctx context.Context, creds auth.Credentials) (string, error) {
	projects, err := c.ListProjects(ctx, creds)
	if err != nil {
		return "", err
	}
	if len(projects) == 0 {
		return "", ErrNoProjects
	}
	return fmt.Sprintf("%s/%d/MyPage.aspx", creds.BaseURL, projects[0].ID), nil
}

// OpenURL opens rawURL in the system browser.
var OpenURL = browser.OpenURL
