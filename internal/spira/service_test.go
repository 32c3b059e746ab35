package spira

import (
	"context"
	"net/http"
	"testing"

	"github.com/h0rv/spira/internal/auth"
	"github.com/h0rv/spira/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *fakeSpira, *auth.MemoryStore) {
	t.Helper()
	f := newFakeSpira(t)
	f.seedWorkspace()
	store := auth.NewMemoryStore(f.creds())
	return NewService(f.client(), store), f, store
}

func TestSyncAll(t *testing.T) {
	svc, f, _ := newTestService(t)
	f.set("requirements", []map[string]any{
		{"RequirementId": 12, "ProjectId": 2, "Name": "Login page"},
	})
	f.set("tasks", []map[string]any{
		{"TaskId": 3, "ProjectId": 2, "Name": "Write docs"},
		{"TaskId": 4, "ProjectId": 2, "Name": "Review"},
	})
	f.set("projects/1/incidents/search", []map[string]any{incident(1, 101, "Crash")})
	f.set("projects/2/incidents/search", []map[string]any{})

	result, err := svc.SyncAll(context.Background(), f.creds())

	require.NoError(t, err)
	assert.Len(t, result.Requirements, 1)
	assert.Len(t, result.Tasks, 2)
	assert.Len(t, result.Incidents, 1)
	assert.Equal(t, 4, result.Total())
	assert.Equal(t, result.Tasks, result.ByKind(domain.KindTask))
}

func TestSyncAll_FailsWhenAnyKindFails(t *testing.T) {
	svc, f, _ := newTestService(t)
	f.set("requirements", []map[string]any{})
	f.setStatus("tasks", http.StatusInternalServerError)
	f.set("projects/1/incidents/search", []map[string]any{})
	f.set("projects/2/incidents/search", []map[string]any{})

	result, err := svc.SyncAll(context.Background(), f.creds())

	require.Error(t, err)
	assert.Zero(t, result.Total())
}

func TestCreateArtifact_PermissionDeniedBeforePost(t *testing.T) {
	svc, f, store := newTestService(t)

	// Project 1 role can create incidents only
	_, err := svc.CreateArtifact(context.Background(), f.creds(), domain.KindTask, CreateFields{
		ProjectID:  1,
		Name:       "Not allowed",
		TypeID:     1,
		OwnerID:    domain.NoneID,
		PriorityID: domain.NoneID,
	})

	var pd *PermissionDenied
	require.ErrorAs(t, err, &pd)
	assert.Equal(t, 1, pd.ProjectID)
	assert.Equal(t, domain.KindTask, pd.Kind)
	assert.Zero(t, f.countMethod(http.MethodPost))

	creds, _ := store.Load()
	_, _, ok := creds.LastCreated()
	assert.False(t, ok)
}

func TestCreateArtifact_NonMemberProjectDenied(t *testing.T) {
	svc, f, _ := newTestService(t)

	_, err := svc.CreateArtifact(context.Background(), f.creds(), domain.KindIncident, CreateFields{
		ProjectID: 42, Name: "x", TypeID: 1, OwnerID: -1, PriorityID: -1,
	})

	var pd *PermissionDenied
	assert.ErrorAs(t, err, &pd)
	assert.Zero(t, f.countMethod(http.MethodPost))
}

func TestCreateArtifact_RecordsLastCreated(t *testing.T) {
	svc, f, store := newTestService(t)
	f.set("projects/1/incidents", map[string]any{"IncidentId": 57})

	id, err := svc.CreateArtifact(context.Background(), f.creds(), domain.KindIncident, CreateFields{
		ProjectID:   1,
		Name:        "Crash on save",
		TypeID:      9,
		Description: "Steps to reproduce",
		OwnerID:     7,
		PriorityID:  domain.NoneID,
	})

	require.NoError(t, err)
	assert.Equal(t, 57, id)

	reqs := f.requestsTo(http.MethodPost, "projects/1/incidents")
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"Name":"Crash on save","IncidentTypeId":9,"Description":"Steps to reproduce","OwnerId":7}`, reqs[0].Body)

	creds, err := store.Load()
	require.NoError(t, err)
	kind, projectID, ok := creds.LastCreated()
	require.True(t, ok)
	assert.Equal(t, domain.KindIncident, kind)
	assert.Equal(t, 1, projectID)
}

func TestCreateArtifact_InvalidFields(t *testing.T) {
	svc, f, _ := newTestService(t)

	_, err := svc.CreateArtifact(context.Background(), f.creds(), domain.KindIncident, CreateFields{
		ProjectID: 1, TypeID: 1, OwnerID: -1, PriorityID: -1,
	})
	assert.ErrorIs(t, err, ErrInvalidFields)

	_, err = svc.CreateArtifact(context.Background(), f.creds(), "Epic", CreateFields{
		ProjectID: 1, Name: "x", TypeID: 1, OwnerID: -1, PriorityID: -1,
	})
	assert.ErrorIs(t, err, ErrInvalidFields)
	assert.Zero(t, f.countMethod(http.MethodPost))
}

func TestGetCreationFormData(t *testing.T) {
	svc, f, _ := newTestService(t)
	f.set("projects/1/incidents/types", []map[string]any{{"IncidentTypeId": 9, "Name": "Bug"}})
	f.set("projects/1/incidents/priorities", []map[string]any{{"PriorityId": 10, "Name": "High"}})

	data, err := svc.GetCreationFormData(context.Background(), f.creds(), 1, domain.KindIncident)

	require.NoError(t, err)
	assert.Equal(t, []domain.ArtifactTypeDescriptor{{ID: 9, Name: "Bug"}}, data.Types)
	require.Len(t, data.Priorities, 2)
	assert.Equal(t, domain.NoneID, data.Priorities[0].ID)
	require.Len(t, data.Users, 3)
	assert.Equal(t, "alice", data.Users[0].Username)
	assert.Equal(t, domain.NoneID, data.Users[1].ID)
	assert.Equal(t, "bob", data.Users[2].Username)
}

func TestCreatableProjects(t *testing.T) {
	svc, f, _ := newTestService(t)
	f.set("projects-roles", []map[string]any{
		{"ProjectRoleId": 4, "Permissions": []map[string]any{}},
		{"ProjectRoleId": 1, "Permissions": []map[string]any{
			{"ProjectRoleId": 1, "ArtifactTypeId": 6, "PermissionId": 1},
		}},
	})

	projects, err := svc.CreatableProjects(context.Background(), f.creds())

	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, 2, projects[0].ID)
}

func TestRecordLastOpen(t *testing.T) {
	svc, _, store := newTestService(t)

	svc.RecordLastOpen(domain.ArtifactKey{ProjectID: 1, ID: 42, Kind: domain.KindIncident})

	creds, err := store.Load()
	require.NoError(t, err)
	kind, id, ok := creds.LastOpen()
	require.True(t, ok)
	assert.Equal(t, domain.KindIncident, kind)
	assert.Equal(t, 42, id)
}

func TestRecordLastOpen_NilStore(t *testing.T) {
	svc := NewService(NewClient(), nil)
	assert.NotPanics(t, func() {
		svc.RecordLastOpen(domain.ArtifactKey{ProjectID: 1, ID: 1, Kind: domain.KindTask})
	})
}
