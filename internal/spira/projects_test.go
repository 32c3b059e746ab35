package spira

import (
	"context"
	"net/http"
	"testing"

	"github.com/h0rv/spira/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentUser(t *testing.T) {
	f := newFakeSpira(t)
	f.seedWorkspace()

	user, err := f.client().CurrentUser(context.Background(), f.creds())

	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	assert.Equal(t, "Alice Smith", user.FullName)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, domain.NoneID, user.ProjectRoleID)
}

func TestCurrentUser_MissingID(t *testing.T) {
	f := newFakeSpira(t)
	f.set("users", map[string]any{"FullName": "Alice Smith"})

	_, err := f.client().CurrentUser(context.Background(), f.creds())

	var de *DecodeError
	assert.ErrorAs(t, err, &de)
}

func TestListProjectUsers_SelfThenSentinel(t *testing.T) {
	f := newFakeSpira(t)
	f.set("projects/1/users", []map[string]any{
		{"FullName": "Bob Jones", "UserId": 8, "UserName": "bob", "ProjectRoleId": 1},
		{"FullName": "Carol King", "UserId": 9, "UserName": "carol", "ProjectRoleId": 1},
		{"FullName": "Alice Smith", "UserId": 7, "UserName": "alice", "ProjectRoleId": 4},
	})

	users, err := f.client().ListProjectUsers(context.Background(), f.creds(), 1)

	require.NoError(t, err)
	require.Len(t, users, 4)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, domain.NoneID, users[1].ID)
	assert.Equal(t, domain.NoneLabel, users[1].FullName)
	assert.Equal(t, "bob", users[2].Username)
	assert.Equal(t, "carol", users[3].Username)
}

func TestListProjectUsers_SelfAbsent(t *testing.T) {
	f := newFakeSpira(t)
	f.set("projects/1/users", []map[string]any{
		{"FullName": "Bob Jones", "UserId": 8, "UserName": "bob", "ProjectRoleId": 1},
	})

	users, err := f.client().ListProjectUsers(context.Background(), f.creds(), 1)

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, domain.NoneID, users[0].ID)
	assert.Equal(t, "bob", users[1].Username)
}

func TestGetRoleCapabilities(t *testing.T) {
	f := newFakeSpira(t)
	f.seedWorkspace()

	roles, err := f.client().GetRoleCapabilities(context.Background(), f.creds())

	require.NoError(t, err)
	require.Len(t, roles, 2)

	tester := roles[4]
	assert.True(t, tester.CanCreate(domain.KindIncident))
	assert.False(t, tester.CanCreate(domain.KindRequirement))
	assert.False(t, tester.CanCreate(domain.KindTask))

	// Role id taken from the first permission when the role omits it
	manager, ok := roles[1]
	require.True(t, ok)
	assert.Equal(t, []domain.Kind{domain.KindRequirement, domain.KindTask, domain.KindIncident}, manager.Capabilities())
}

func TestListProjects_MembershipAndRoles(t *testing.T) {
	f := newFakeSpira(t)
	f.seedWorkspace()
	f.set("projects", []map[string]any{
		{"ProjectId": 1, "Name": "Alpha"},
		{"ProjectId": 2, "Name": "Beta"},
		{"ProjectId": 3, "Name": "Gamma"},
	})
	// alice is not a member of project 3
	f.set("projects/3/users", []map[string]any{
		{"FullName": "Bob Jones", "UserId": 8, "UserName": "bob", "ProjectRoleId": 1},
	})

	projects, err := f.client().ListProjects(context.Background(), f.creds())

	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, 1, projects[0].ID)
	assert.Equal(t, "Alpha", projects[0].Name)
	require.NotNil(t, projects[0].Role)
	assert.Equal(t, 4, projects[0].Role.ID)
	assert.True(t, projects[0].CanCreate(domain.KindIncident))
	assert.False(t, projects[0].CanCreate(domain.KindTask))

	assert.Equal(t, 2, projects[1].ID)
	assert.True(t, projects[1].CanCreate(domain.KindTask))

	// The role table is fetched once
	assert.Len(t, f.requestsTo(http.MethodGet, "projects-roles"), 1)
}

func TestListProjects_DuplicateProjectListedOnce(t *testing.T) {
	f := newFakeSpira(t)
	f.seedWorkspace()
	f.set("projects", []map[string]any{
		{"ProjectId": 1, "Name": "Alpha"},
		{"ProjectId": 1, "Name": "Alpha"},
	})

	projects, err := f.client().ListProjects(context.Background(), f.creds())

	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, 1, projects[0].ID)
	assert.Len(t, f.requestsTo(http.MethodGet, "projects/1/users"), 1)
}

func TestListProjects_UnknownRoleHasNoCapabilities(t *testing.T) {
	f := newFakeSpira(t)
	f.seedWorkspace()
	f.set("projects/2/users", []map[string]any{
		{"FullName": "Alice Smith", "UserId": 7, "UserName": "alice", "ProjectRoleId": 99},
	})

	projects, err := f.client().ListProjects(context.Background(), f.creds())

	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Nil(t, projects[1].Role)
	for _, k := range domain.Kinds {
		assert.False(t, projects[1].CanCreate(k))
	}
}

func TestListProjects_Empty(t *testing.T) {
	f := newFakeSpira(t)
	f.set("projects", []map[string]any{})

	projects, err := f.client().ListProjects(context.Background(), f.creds())

	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.Empty(t, f.requestsTo(http.MethodGet, "projects-roles"))
}

func TestListProjects_UserFetchFails(t *testing.T) {
	f := newFakeSpira(t)
	f.seedWorkspace()
	f.setStatus("projects/2/users", http.StatusInternalServerError)

	_, err := f.client().ListProjects(context.Background(), f.creds())

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
}
