package spira

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/h0rv/spira/internal/auth"
	"github.com/h0rv/spira/internal/domain"
	"github.com/ternarybob/arbor"
)

// ErrInvalidFields is returned when creation input fails validation.
var ErrInvalidFields = errors.New("invalid artifact fields")

// SyncResult holds one full refresh of the user's assigned artifacts.
type SyncResult struct {
	Requirements []domain.Artifact
	Tasks        []domain.Artifact
	Incidents    []domain.Artifact
}

// ByKind returns the artifacts of one kind.
func (r SyncResult) ByKind(kind domain.Kind) []domain.Artifact {
	switch kind {
	case domain.KindRequirement:
		return r.Requirements
	case domain.KindTask:
		return r.Tasks
	case domain.KindIncident:
		return r.Incidents
	}
	return nil
}

// Total returns the number of artifacts across all kinds.
func (r SyncResult) Total() int {
	return len(r.Requirements) + len(r.Tasks) + len(r.Incidents)
}

// CreateFields is the user's input for a new artifact.
type CreateFields struct {
	ProjectID   int    `validate:"gt=0"`
	Name        string `validate:"required,max=255"`
	TypeID      int    `validate:"gt=0"`
	Description string
	OwnerID     int `validate:"gte=-1"`
	PriorityID  int `validate:"gte=-1"`
}

// FormData is everything the creation form offers for selection.
type FormData struct {
	Types      []domain.ArtifactTypeDescriptor
	Priorities []domain.Priority
	Users      []domain.User
}

// Service is the surface the TUI and CLI use. Persisted resume state goes
// through the injected credential store.
type Service struct {
	client   *Client
	store    auth.Store
	logger   arbor.ILogger
	validate *validator.Validate
}

// NewService creates a service. store may be nil, in which case resume
// state is not recorded.
func NewService(client *Client, store auth.Store) *Service {
	return &Service{
		client:   client,
		store:    store,
		logger:   client.Logger(),
		validate: validator.New(),
	}
}

// Client returns the underlying REST client.
func (s *Service) Client() *Client {
	return s.client
}

// SyncAll fetches requirements, tasks and incidents concurrently.
func (s *Service) SyncAll(ctx context.Context, creds auth.Credentials) (SyncResult, error) {
	var result SyncResult

	fetchers := []func(ctx context.Context) error{
		func(ctx context.Context) (err error) {
			result.Requirements, err = s.client.ListAssignedRequirements(ctx, creds)
			return err
		},
		func(ctx context.Context) (err error) {
			result.Tasks, err = s.client.ListAssignedTasks(ctx, creds)
			return err
		},
		func(ctx context.Context) (err error) {
			result.Incidents, err = s.client.ListAssignedIncidents(ctx, creds)
			return err
		},
	}

	err := s.client.forEach(ctx, len(fetchers), func(ctx context.Context, i int) error {
		return fetchers[i](ctx)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Sync failed")
		return SyncResult{}, err
	}

	s.logger.Info().
		Int("requirements", len(result.Requirements)).
		Int("tasks", len(result.Tasks)).
		Int("incidents", len(result.Incidents)).
		Msg("Sync complete")
	return result, nil
}

// CreateArtifact checks the caller's role in the project, then creates the
// artifact. A role without the capability yields *PermissionDenied and no
// request is sent. On success the kind and project are remembered.
func (s *Service) CreateArtifact(ctx context.Context, creds auth.Credentials, kind domain.Kind, fields CreateFields) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidFields, kind)
	}
	if err := s.validate.Struct(fields); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFields, err)
	}

	project, err := s.findProject(ctx, creds, fields.ProjectID)
	if err != nil {
		return 0, err
	}
	if !project.CanCreate(kind) {
		return 0, &PermissionDenied{ProjectID: fields.ProjectID, Kind: kind}
	}

	body := BuildCreateBody(kind, fields.Name, fields.TypeID, fields.Description, fields.OwnerID, fields.PriorityID)

	id, err := s.client.Create(ctx, creds, kind, body, fields.ProjectID)
	if err != nil {
		return 0, err
	}

	s.remember(func(c auth.Credentials) auth.Credentials {
		return c.WithLastCreated(kind, fields.ProjectID)
	})
	return id, nil
}

// GetCreationFormData loads types, priorities and users for the form.
func (s *Service) GetCreationFormData(ctx context.Context, creds auth.Credentials, projectID int, kind domain.Kind) (FormData, error) {
	var data FormData

	loaders := []func(ctx context.Context) error{
		func(ctx context.Context) (err error) {
			data.Types, err = s.client.GetArtifactTypes(ctx, kind, creds, projectID)
			return err
		},
		func(ctx context.Context) (err error) {
			data.Priorities, err = s.client.GetPriorities(ctx, kind, creds, projectID)
			return err
		},
		func(ctx context.Context) (err error) {
			data.Users, err = s.client.ListProjectUsers(ctx, creds, projectID)
			return err
		},
	}

	err := s.client.forEach(ctx, len(loaders), func(ctx context.Context, i int) error {
		return loaders[i](ctx)
	})
	if err != nil {
		return FormData{}, err
	}
	return data, nil
}

// CreatableProjects returns the projects in which the caller can create at
// least one kind of artifact.
func (s *Service) CreatableProjects(ctx context.Context, creds auth.Credentials) ([]domain.Project, error) {
	projects, err := s.client.ListProjects(ctx, creds)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		if p.Role != nil && len(p.Role.Capabilities()) > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

// RecordLastOpen persists the artifact the user just opened.
func (s *Service) RecordLastOpen(key domain.ArtifactKey) {
	s.remember(func(c auth.Credentials) auth.Credentials {
		return c.WithLastOpen(key.Kind, key.ID)
	})
}

// remember applies update to the stored credentials. Failures are logged
// only; resume state is best effort.
func (s *Service) remember(update func(auth.Credentials) auth.Credentials) {
	if s.store == nil {
		return
	}
	creds, err := s.store.Load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load credentials for resume state")
		return
	}
	if err := s.store.Save(update(creds)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to save resume state")
	}
}

func (s *Service) findProject(ctx context.Context, creds auth.Credentials, projectID int) (domain.Project, error) {
	projects, err := s.client.ListProjects(ctx, creds)
	if err != nil {
		return domain.Project{}, err
	}
	for _, p := range projects {
		if p.ID == projectID {
			return p, nil
		}
	}
	// Not a member: no role, no capabilities
	return domain.Project{ID: projectID}, nil
}
