package spira

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/h0rv/spira/internal/domain"
)

// TransportError is a failure to get a usable response: network or TLS
// errors, non-2xx statuses, and bodies that are not JSON at all.
type TransportError struct {
	Method     string
	URL        string // api-key redacted
	StatusCode int    // 0 when no response was received
	Body       string // leading part of the response body, if any
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("spira: %s %s: status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		if e.Body != "" {
			return fmt.Sprintf("spira: %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("spira: %s %s: status %d", e.Method, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("spira: %s %s: %v", e.Method, e.URL, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a JSON response whose shape does not match what the
// endpoint should return.
type DecodeError struct {
	Resource string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("spira: unexpected response from %s: %v", e.Resource, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PermissionDenied is returned before any request is sent when the user's
// role in the project cannot create the requested kind.
type PermissionDenied struct {
	ProjectID int
	Kind      domain.Kind
}

func (e *PermissionDenied) Error() string {
	return fmt.Sprintf("spira: your role in project %d cannot create %s artifacts", e.ProjectID, e.Kind)
}

// IsAuthFailure reports whether err is a 401 or 403 from the server,
// i.e. the stored credentials are likely wrong.
func IsAuthFailure(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.StatusCode == http.StatusUnauthorized || te.StatusCode == http.StatusForbidden
}

// Describe returns a short message suitable for the status line.
func Describe(err error) string {
	var pd *PermissionDenied
	var de *DecodeError
	switch {
	case err == nil:
		return ""
	case IsAuthFailure(err):
		return "Login failed: check your username and RSS token"
	case errors.As(err, &pd):
		return fmt.Sprintf("You cannot create %ss in this project", pd.Kind)
	case errors.As(err, &de):
		return "Unexpected response from SpiraTeam: " + de.Err.Error()
	}
	var te *TransportError
	if errors.As(err, &te) {
		if te.StatusCode != 0 {
			return fmt.Sprintf("SpiraTeam returned HTTP %d", te.StatusCode)
		}
		if te.Err != nil {
			return "Cannot reach SpiraTeam: " + te.Err.Error()
		}
	}
	return err.Error()
}
