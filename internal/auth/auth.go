// Package auth provides SpiraTeam credential management.
// It implements a simple interface with multiple providers following the
// "deep modules" principle - simple interface, complex implementation hidden.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/h0rv/spira/internal/domain"
)

var (
	// ErrNoCredentials indicates that no credentials have been stored yet.
	ErrNoCredentials = errors.New("no credentials stored")
	// ErrInvalidCredentials indicates that stored or supplied credentials fail validation.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Environment variables read by EnvProvider.
const (
	EnvURL      = "SPIRA_URL"
	EnvUsername = "SPIRA_USERNAME"
	EnvToken    = "SPIRA_TOKEN"
)

// Credentials holds the login for one SpiraTeam server plus the small pieces
// of resume state that survive restarts.
type Credentials struct {
	BaseURL  string `toml:"url" validate:"required,http_url,noslash"`
	Username string `toml:"username" validate:"required"`
	APIToken string `toml:"token" validate:"required,braced"`

	// Resume state
	LastOpenArtifactType    domain.Kind `toml:"last_open_artifact_type,omitempty" validate:"omitempty,kind"`
	LastOpenArtifactID      int         `toml:"last_open_artifact_id,omitempty"`
	LastCreatedArtifactType domain.Kind `toml:"last_created_artifact_type,omitempty" validate:"omitempty,kind"`
	LastCreatedProjectID    int         `toml:"last_created_project_id,omitempty"`
}

// New builds normalized credentials from user input.
func New(baseURL, username, token string) Credentials {
	return Normalize(Credentials{
		BaseURL:  baseURL,
		Username: username,
		APIToken: token,
	})
}

// Normalize strips trailing path separators from the base URL and wraps a
// bare token in braces.
func Normalize(c Credentials) Credentials {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Username = strings.TrimSpace(c.Username)
	token := strings.TrimSpace(c.APIToken)
	if token != "" {
		if !strings.HasPrefix(token, "{") {
			token = "{" + token
		}
		if !strings.HasSuffix(token, "}") {
			token = token + "}"
		}
	}
	c.APIToken = token
	return c
}

// Validate checks the credential invariants.
func (c Credentials) Validate() error {
	if err := validate().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, describe(verrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return nil
}

// LastOpen returns the artifact that was open when the user last looked.
func (c Credentials) LastOpen() (domain.Kind, int, bool) {
	if !c.LastOpenArtifactType.Valid() || c.LastOpenArtifactID == 0 {
		return "", 0, false
	}
	return c.LastOpenArtifactType, c.LastOpenArtifactID, true
}

// WithLastOpen returns a copy recording the given artifact as last open.
func (c Credentials) WithLastOpen(kind domain.Kind, artifactID int) Credentials {
	c.LastOpenArtifactType = kind
	c.LastOpenArtifactID = artifactID
	return c
}

// LastCreated returns the kind and project of the last created artifact.
func (c Credentials) LastCreated() (domain.Kind, int, bool) {
	if !c.LastCreatedArtifactType.Valid() || c.LastCreatedProjectID == 0 {
		return "", 0, false
	}
	return c.LastCreatedArtifactType, c.LastCreatedProjectID, true
}

// WithLastCreated returns a copy recording the kind and project of a new artifact.
func (c Credentials) WithLastCreated(kind domain.Kind, projectID int) Credentials {
	c.LastCreatedArtifactType = kind
	c.LastCreatedProjectID = projectID
	return c
}

// SameLogin reports whether both values log in as the same user on the same server.
func (c Credentials) SameLogin(other Credentials) bool {
	return c.BaseURL == other.BaseURL && c.Username == other.Username && c.APIToken == other.APIToken
}

// String hides the token.
func (c Credentials) String() string {
	return fmt.Sprintf("username: %s url: %s token: ****", c.Username, c.BaseURL)
}

var (
	validateOnce  sync.Once
	validatorInst *validator.Validate
)

func validate() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("braced", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return len(s) > 2 && strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")
		})
		_ = v.RegisterValidation("noslash", func(fl validator.FieldLevel) bool {
			return !strings.HasSuffix(fl.Field().String(), "/")
		})
		_ = v.RegisterValidation("kind", func(fl validator.FieldLevel) bool {
			return domain.Kind(fl.Field().String()).Valid()
		})
		validatorInst = v
	})
	return validatorInst
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "http_url":
		return fmt.Sprintf("%s must be an http(s) URL", fe.Field())
	case "noslash":
		return fmt.Sprintf("%s must not end with a '/'", fe.Field())
	case "braced":
		return fmt.Sprintf("%s must include the curly braces", fe.Field())
	case "kind":
		return fmt.Sprintf("%s is not a known artifact kind", fe.Field())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

// Provider is a source of credentials.
type Provider interface {
	Credentials() (Credentials, error)
}

// Store is the read/write accessor the core uses for persisted credentials.
type Store interface {
	Load() (Credentials, error)
	Save(Credentials) error
}

// EnvProvider obtains credentials from SPIRA_URL, SPIRA_USERNAME and SPIRA_TOKEN.
type EnvProvider struct{}

// Credentials reads the environment variables.
// Returns ErrNoCredentials if any of them is unset or empty.
func (e EnvProvider) Credentials() (Credentials, error) {
	url, user, token := os.Getenv(EnvURL), os.Getenv(EnvUsername), os.Getenv(EnvToken)
	if url == "" || user == "" || token == "" {
		return Credentials{}, fmt.Errorf("%w: %s, %s and %s must all be set", ErrNoCredentials, EnvURL, EnvUsername, EnvToken)
	}
	c := New(url, user, token)
	if err := c.Validate(); err != nil {
		return Credentials{}, err
	}
	return c, nil
}

// MemoryStore keeps credentials in memory. Used when credentials come from
// the environment so resume state is not written to disk.
type MemoryStore struct {
	mu    sync.Mutex
	creds *Credentials
}

// NewMemoryStore creates a store seeded with c.
func NewMemoryStore(c Credentials) *MemoryStore {
	return &MemoryStore{creds: &c}
}

// Load returns the stored credentials.
func (m *MemoryStore) Load() (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return Credentials{}, ErrNoCredentials
	}
	return *m.creds, nil
}

// Save replaces the stored credentials.
func (m *MemoryStore) Save(c Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = &c
	return nil
}

// Resolve obtains credentials using the following strategy:
// 1. The credentials file (the persisted login)
// 2. The SPIRA_* environment variables
// 3. A clear, actionable error if both fail
//
// It returns the credentials together with the Store that later writes
// (resume state, re-login) should go to.
func Resolve(file *FileStore) (Credentials, Store, error) {
	c, err := file.Load()
	if err == nil {
		return c, file, nil
	}
	fileErr := err

	c, err = EnvProvider{}.Credentials()
	if err == nil {
		return c, NewMemoryStore(c), nil
	}

	return Credentials{}, nil, fmt.Errorf(
		"%w: credentials file error (%v) and environment not set.\n"+
			"Please either:\n"+
			"  1. Run 'spira login' to store your SpiraTeam login, or\n"+
			"  2. Set %s, %s and %s",
		ErrNoCredentials, fileErr, EnvURL, EnvUsername, EnvToken,
	)
}
