package domain

// PermissionCreate is the server's permission code for "create".
const PermissionCreate = 1

// Permission is one entry of the server's role/permission matrix.
type Permission struct {
	ProjectRoleID  int
	ArtifactTypeID int
	PermissionID   int
}

// Role is a project role and the artifact kinds it may create.
type Role struct {
	ID        int
	canCreate map[Kind]bool
}

// NewRole creates a role with the given creation capabilities.
func NewRole(id int, creatable ...Kind) Role {
	r := Role{ID: id, canCreate: make(map[Kind]bool, len(creatable))}
	for _, k := range creatable {
		r.canCreate[k] = true
	}
	return r
}

// RoleFromPermissions derives a role's capabilities from its permission records.
// A kind is creatable when a record carries that kind's artifact type id and
// PermissionCreate. Records for unsupported artifact types are ignored.
func RoleFromPermissions(roleID int, perms []Permission) Role {
	r := NewRole(roleID)
	for _, p := range perms {
		if p.PermissionID != PermissionCreate {
			continue
		}
		kind, ok := KindFromArtifactTypeID(p.ArtifactTypeID)
		if !ok {
			continue
		}
		r.canCreate[kind] = true
	}
	return r
}

// CanCreate reports whether the role may create artifacts of the given kind.
func (r Role) CanCreate(kind Kind) bool {
	return r.canCreate[kind]
}

// Capabilities returns the creatable kinds in display order.
func (r Role) Capabilities() []Kind {
	var out []Kind
	for _, k := range Kinds {
		if r.canCreate[k] {
			out = append(out, k)
		}
	}
	return out
}
