package spira

import (
	"errors"
	"fmt"

	"github.com/h0rv/spira/internal/domain"
)

// JSON records as the server sends them. Each endpoint decodes into its own
// record type; ids are pointers so a missing id is detectable.

type commonRecord struct {
	ProjectID   *int    `json:"ProjectId"`
	ProjectName string  `json:"ProjectName"`
	Name        string  `json:"Name"`
	Description *string `json:"Description"`
}

func (r commonRecord) artifact(kind domain.Kind, id *int) (domain.Artifact, error) {
	if r.ProjectID == nil {
		return domain.Artifact{}, errMissingProjectID
	}
	if id == nil {
		return domain.Artifact{}, fmt.Errorf("%s record without an id", kind)
	}
	return domain.Artifact{
		ProjectID:   *r.ProjectID,
		ProjectName: r.ProjectName,
		ID:          *id,
		Kind:        kind,
		Name:        r.Name,
		Description: r.Description,
	}, nil
}

var errMissingProjectID = errors.New("record without a ProjectId")

type requirementRecord struct {
	commonRecord
	RequirementID       *int    `json:"RequirementId"`
	ImportanceName      *string `json:"ImportanceName"`
	StatusName          *string `json:"StatusName"`
	RequirementTypeName *string `json:"RequirementTypeName"`
}

func (r requirementRecord) toArtifact() (domain.Artifact, error) {
	a, err := r.artifact(domain.KindRequirement, r.RequirementID)
	if err != nil {
		return a, err
	}
	a.PriorityName = r.ImportanceName
	a.Status = r.StatusName
	a.TypeName = r.RequirementTypeName
	return a, nil
}

type taskRecord struct {
	commonRecord
	TaskID           *int    `json:"TaskId"`
	TaskPriorityName *string `json:"TaskPriorityName"`
	TaskStatusName   *string `json:"TaskStatusName"`
	TaskTypeName     *string `json:"TaskTypeName"`
}

func (r taskRecord) toArtifact() (domain.Artifact, error) {
	a, err := r.artifact(domain.KindTask, r.TaskID)
	if err != nil {
		return a, err
	}
	a.PriorityName = r.TaskPriorityName
	a.Status = r.TaskStatusName
	a.TypeName = r.TaskTypeName
	return a, nil
}

type incidentRecord struct {
	commonRecord
	IncidentID         *int    `json:"IncidentId"`
	PriorityName       *string `json:"PriorityName"`
	IncidentStatusName *string `json:"IncidentStatusName"`
	IncidentTypeName   *string `json:"IncidentTypeName"`
}

func (r incidentRecord) toArtifact() (domain.Artifact, error) {
	a, err := r.artifact(domain.KindIncident, r.IncidentID)
	if err != nil {
		return a, err
	}
	a.PriorityName = r.PriorityName
	a.Status = r.IncidentStatusName
	a.TypeName = r.IncidentTypeName
	return a, nil
}

type artifactRecord interface {
	toArtifact() (domain.Artifact, error)
}

// toArtifacts maps a decoded list. Any record missing an id fails the whole
// list with a DecodeError.
func toArtifacts[R artifactRecord](resource string, records []R) ([]domain.Artifact, error) {
	out := make([]domain.Artifact, 0, len(records))
	for i, r := range records {
		a, err := r.toArtifact()
		if err != nil {
			return nil, &DecodeError{Resource: resource, Err: fmt.Errorf("record %d: %w", i, err)}
		}
		out = append(out, a)
	}
	return out, nil
}

type projectRecord struct {
	ProjectID *int   `json:"ProjectId"`
	Name      string `json:"Name"`
}

type userRecord struct {
	FullName      string `json:"FullName"`
	UserID        *int   `json:"UserId"`
	UserName      string `json:"UserName"`
	ProjectRoleID *int   `json:"ProjectRoleId"`
}

func (r userRecord) toUser() (domain.User, error) {
	if r.UserID == nil {
		return domain.User{}, errors.New("user record without a UserId")
	}
	u := domain.User{
		ID:            *r.UserID,
		FullName:      r.FullName,
		Username:      r.UserName,
		ProjectRoleID: domain.NoneID,
	}
	if r.ProjectRoleID != nil {
		u.ProjectRoleID = *r.ProjectRoleID
	}
	return u, nil
}

type permissionRecord struct {
	ProjectRoleID  int `json:"ProjectRoleId"`
	ArtifactTypeID int `json:"ArtifactTypeId"`
	PermissionID   int `json:"PermissionId"`
}

type roleRecord struct {
	ProjectRoleID *int               `json:"ProjectRoleId"`
	Name          string             `json:"Name"`
	Permissions   []permissionRecord `json:"Permissions"`
}

// roleID is the top-level id, or the first permission's when the server
// leaves it out.
func (r roleRecord) roleID() (int, bool) {
	if r.ProjectRoleID != nil {
		return *r.ProjectRoleID, true
	}
	if len(r.Permissions) > 0 {
		return r.Permissions[0].ProjectRoleID, true
	}
	return 0, false
}

type priorityRecord struct {
	PriorityID *int   `json:"PriorityId"`
	Name       string `json:"Name"`
}

type typeRecord struct {
	RequirementTypeID *int   `json:"RequirementTypeId"`
	TaskTypeID        *int   `json:"TaskTypeId"`
	IncidentTypeID    *int   `json:"IncidentTypeId"`
	Name              string `json:"Name"`
}

func (r typeRecord) id(kind domain.Kind) *int {
	switch kind {
	case domain.KindRequirement:
		return r.RequirementTypeID
	case domain.KindTask:
		return r.TaskTypeID
	case domain.KindIncident:
		return r.IncidentTypeID
	}
	return nil
}

type createdRecord struct {
	RequirementID *int `json:"RequirementId"`
	TaskID        *int `json:"TaskId"`
	IncidentID    *int `json:"IncidentId"`
}

func (r createdRecord) id(kind domain.Kind) int {
	var id *int
	switch kind {
	case domain.KindRequirement:
		id = r.RequirementID
	case domain.KindTask:
		id = r.TaskID
	case domain.KindIncident:
		id = r.IncidentID
	}
	if id == nil {
		return 0
	}
	return *id
}

type searchFilter struct {
	PropertyName string `json:"PropertyName"`
	IntValue     int    `json:"IntValue"`
}
