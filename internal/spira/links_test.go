package spira

import (
	"context"
	"testing"

	"github.com/h0rv/spira/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactURL(t *testing.T) {
	a := domain.Artifact{ProjectID: 1, ID: 42, Kind: domain.KindIncident}
	assert.Equal(t, "https://x.test/proj/1/Incident/42.aspx", ArtifactURL("https://x.test/proj", a))

	r := domain.Artifact{ProjectID: 3, ID: 7, Kind: domain.KindRequirement}
	assert.Equal(t, "https://x.test/3/Requirement/7.aspx", ArtifactURL("https://x.test", r))
}

func TestMyPageURL(t *testing.T) {
	f := newFakeSpira(t)
	f.seedWorkspace()

	got, err := f.client().MyPageURL(context.Background(), f.creds())

	require.NoError(t, err)
	assert.Equal(t, f.creds().BaseURL+"/1/MyPage.aspx", got)
}

func TestMyPageURL_NoProjects(t *testing.T) {
	f := newFakeSpira(t)
	f.set("projects", []map[string]any{})

	_, err := f.client().MyPageURL(context.Background(), f.creds())

	assert.ErrorIs(t, err, ErrNoProjects)
}
