// Package domain defines the normalized domain types for SpiraTeam artifacts.
// These types represent the core concepts independent of the REST API's JSON layout.
package domain

import (
	"fmt"
	"strings"
)

// NoneID is the sentinel id for "none/unselected" reference data entries.
const NoneID = -1

// NoneLabel is the display name used for sentinel entries.
const NoneLabel = "-- None --"

// DescriptionDefault is shown in place of a missing description.
const DescriptionDefault = "none"

// Kind identifies one of the three artifact kinds the client works with.
type Kind string

const (
	KindRequirement Kind = "Requirement"
	KindIncident    Kind = "Incident"
	KindTask        Kind = "Task"
)

// Kinds lists all artifact kinds in display order.
var Kinds = []Kind{KindRequirement, KindTask, KindIncident}

// ArtifactTypeID returns the server's artifact type id for the kind.
func (k Kind) ArtifactTypeID() int {
	switch k {
	case KindRequirement:
		return 1
	case KindIncident:
		return 3
	case KindTask:
		return 6
	}
	return 0
}

// Prefix returns the two-letter display prefix (e.g. "IN" for incidents).
func (k Kind) Prefix() string {
	switch k {
	case KindRequirement:
		return "RQ"
	case KindIncident:
		return "IN"
	case KindTask:
		return "TK"
	}
	return ""
}

// Resource returns the REST collection name for the kind.
func (k Kind) Resource() string {
	switch k {
	case KindRequirement:
		return "requirements"
	case KindIncident:
		return "incidents"
	case KindTask:
		return "tasks"
	}
	return ""
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k.ArtifactTypeID() != 0
}

// KindFromArtifactTypeID maps a server artifact type id to a Kind.
// Ids other than 1, 3 and 6 are not supported.
func KindFromArtifactTypeID(id int) (Kind, bool) {
	switch id {
	case 1:
		return KindRequirement, true
	case 3:
		return KindIncident, true
	case 6:
		return KindTask, true
	}
	return "", false
}

// ParseKind accepts a kind name, its plural, or its prefix, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "requirement", "requirements", "rq":
		return KindRequirement, nil
	case "incident", "incidents", "in":
		return KindIncident, nil
	case "task", "tasks", "tk":
		return KindTask, nil
	}
	return "", fmt.Errorf("unknown artifact kind %q", s)
}

// ArtifactKey is the identity of an artifact.
type ArtifactKey struct {
	ProjectID int
	ID        int
	Kind      Kind
}

// String renders the key as a display identifier, e.g. "IN:42".
func (k ArtifactKey) String() string {
	return fmt.Sprintf("%s:%d", k.Kind.Prefix(), k.ID)
}

// Artifact is a requirement, task or incident in normalized form.
// Optional fields are nil when the server omitted them.
type Artifact struct {
	ProjectID    int
	ProjectName  string
	ID           int
	Kind         Kind
	Name         string
	Description  *string
	Status       *string
	TypeName     *string
	PriorityName *string
}

// Key returns the artifact's identity.
func (a Artifact) Key() ArtifactKey {
	return ArtifactKey{ProjectID: a.ProjectID, ID: a.ID, Kind: a.Kind}
}

// Equal reports whether both values refer to the same server artifact.
// Only project id, artifact id and kind take part; a refreshed copy with
// different data is still equal.
func (a Artifact) Equal(other Artifact) bool {
	return a.Key() == other.Key()
}

// DisplayID returns the prefixed identifier, e.g. "RQ:12".
func (a Artifact) DisplayID() string {
	return a.Key().String()
}

// DescriptionOrDefault returns the description, or "none" when it is missing.
// For display only.
func (a Artifact) DescriptionOrDefault() string {
	if a.Description == nil {
		return DescriptionDefault
	}
	return *a.Description
}

// Project represents a SpiraTeam project the current user belongs to.
type Project struct {
	ID   int    // SpiraTeam project id
	Name string // Project name
	Role *Role  // The user's role in this project; nil when unresolved
}

// CanCreate reports whether the user's role in the project allows creating kind.
// A project without a resolved role has no capabilities.
func (p Project) CanCreate(kind Kind) bool {
	if p.Role == nil {
		return false
	}
	return p.Role.CanCreate(kind)
}

// User is a member of a project.
type User struct {
	ID            int
	FullName      string
	Username      string
	ProjectRoleID int
}

// NoneUser is the synthetic "no owner" entry.
func NoneUser() User {
	return User{ID: NoneID, FullName: NoneLabel, ProjectRoleID: NoneID}
}

// Priority is a selectable priority/importance level.
type Priority struct {
	ID   int
	Name string
}

// ArtifactTypeDescriptor is a project-configurable artifact type (e.g. "Bug").
type ArtifactTypeDescriptor struct {
	ID   int
	Name string
}
