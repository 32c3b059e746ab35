package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleFromPermissions_IncidentOnly(t *testing.T) {
	r := RoleFromPermissions(4, []Permission{{ProjectRoleID: 4, ArtifactTypeID: 3, PermissionID: PermissionCreate}})

	assert.Equal(t, 4, r.ID)
	assert.True(t, r.CanCreate(KindIncident))
	assert.False(t, r.CanCreate(KindRequirement))
	assert.False(t, r.CanCreate(KindTask))
}

func TestRoleFromPermissions_IgnoresOtherPermissions(t *testing.T) {
	r := RoleFromPermissions(4, []Permission{
		{ArtifactTypeID: 1, PermissionID: 2}, // modify, not create
		{ArtifactTypeID: 6, PermissionID: 4},
		{ArtifactTypeID: 2, PermissionID: PermissionCreate}, // unsupported type
	})

	assert.Empty(t, r.Capabilities())
}

func TestRole_CapabilitiesDisplayOrder(t *testing.T) {
	r := RoleFromPermissions(1, []Permission{
		{ArtifactTypeID: 3, PermissionID: PermissionCreate},
		{ArtifactTypeID: 6, PermissionID: PermissionCreate},
		{ArtifactTypeID: 1, PermissionID: PermissionCreate},
	})

	assert.Equal(t, []Kind{KindRequirement, KindTask, KindIncident}, r.Capabilities())
}

func TestRole_ZeroValue(t *testing.T) {
	var r Role
	assert.False(t, r.CanCreate(KindTask))
	assert.Empty(t, r.Capabilities())
}
