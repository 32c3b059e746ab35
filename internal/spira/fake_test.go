package spira

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/h0rv/spira/internal/auth"
	"github.com/ternarybob/arbor"
)

const testBasePath = "/proj"

// recordedRequest captures what the fake server received.
type recordedRequest struct {
	Method      string
	Resource    string
	RawQuery    string
	Accept      string
	ContentType string
	Body        string
}

// fakeSpira is an in-memory SpiraTeam REST service.
// Routes map a resource path (after the API prefix) to a JSON value or a
// raw string; statuses override the response code for a resource.
type fakeSpira struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	routes   map[string]any
	raw      map[string]string
	statuses map[string]int
	requests []recordedRequest
}

func newFakeSpira(t *testing.T) *fakeSpira {
	t.Helper()
	f := &fakeSpira{
		t:        t,
		routes:   map[string]any{},
		raw:      map[string]string{},
		statuses: map[string]int{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSpira) handle(w http.ResponseWriter, r *http.Request) {
	prefix := testBasePath + DefaultAPIPrefix
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.Error(w, "unknown path", http.StatusNotFound)
		return
	}
	resource := strings.TrimPrefix(r.URL.Path, prefix)

	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:      r.Method,
		Resource:    resource,
		RawQuery:    r.URL.RawQuery,
		Accept:      r.Header.Get("Accept"),
		ContentType: r.Header.Get("Content-Type"),
		Body:        string(body),
	})
	status, hasStatus := f.statuses[resource]
	raw, hasRaw := f.raw[resource]
	value, hasRoute := f.routes[resource]
	f.mu.Unlock()

	q := r.URL.Query()
	if q.Get("username") != "alice" || q.Get("api-key") != "{ABC}" {
		http.Error(w, `{"Message":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	if hasStatus {
		w.WriteHeader(status)
		if hasRaw {
			_, _ = io.WriteString(w, raw)
		}
		return
	}
	if hasRaw {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, raw)
		return
	}
	if !hasRoute {
		http.Error(w, fmt.Sprintf("no route for %s %s", r.Method, resource), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		f.t.Errorf("failed to encode fake response: %v", err)
	}
}

func (f *fakeSpira) set(resource string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[resource] = value
}

func (f *fakeSpira) setRaw(resource, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw[resource] = body
}

func (f *fakeSpira) setStatus(resource string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[resource] = status
}

// requestsTo returns the recorded requests for a resource, in arrival order.
func (f *fakeSpira) requestsTo(method, resource string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if r.Method == method && r.Resource == resource {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeSpira) countMethod(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Method == method {
			n++
		}
	}
	return n
}

// creds returns credentials pointing at the fake server.
func (f *fakeSpira) creds() auth.Credentials {
	return auth.New(f.server.URL+testBasePath, "alice", "ABC")
}

func (f *fakeSpira) client(opts ...ClientOption) *Client {
	opts = append([]ClientOption{WithLogger(arbor.NewLogger())}, opts...)
	return NewClient(opts...)
}

// seedWorkspace installs two projects where alice is a member of both:
// project 1 with a role that can create incidents only, project 2 with a
// role that can create everything.
func (f *fakeSpira) seedWorkspace() {
	f.set("users", map[string]any{"FullName": "Alice Smith", "UserId": 7})
	f.set("projects", []map[string]any{
		{"ProjectId": 1, "Name": "Alpha"},
		{"ProjectId": 2, "Name": "Beta"},
	})
	f.set("projects-roles", []map[string]any{
		{
			"ProjectRoleId": 4,
			"Name":          "Tester",
			"Permissions": []map[string]any{
				{"ProjectRoleId": 4, "ArtifactTypeId": 3, "PermissionId": 1},
				{"ProjectRoleId": 4, "ArtifactTypeId": 1, "PermissionId": 4},
			},
		},
		{
			"Name": "Manager",
			"Permissions": []map[string]any{
				{"ProjectRoleId": 1, "ArtifactTypeId": 1, "PermissionId": 1},
				{"ProjectRoleId": 1, "ArtifactTypeId": 3, "PermissionId": 1},
				{"ProjectRoleId": 1, "ArtifactTypeId": 6, "PermissionId": 1},
			},
		},
	})
	f.set("projects/1/users", []map[string]any{
		{"FullName": "Bob Jones", "UserId": 8, "UserName": "bob", "ProjectRoleId": 1},
		{"FullName": "Alice Smith", "UserId": 7, "UserName": "alice", "ProjectRoleId": 4},
	})
	f.set("projects/2/users", []map[string]any{
		{"FullName": "Alice Smith", "UserId": 7, "UserName": "alice", "ProjectRoleId": 1},
	})
}

func incident(projectID, id int, name string) map[string]any {
	return map[string]any{
		"IncidentId":         id,
		"ProjectId":          projectID,
		"ProjectName":        fmt.Sprintf("Project %d", projectID),
		"Name":               name,
		"Description":        "<p>details</p>",
		"PriorityName":       "1 - High",
		"IncidentStatusName": "New",
		"IncidentTypeName":   "Bug",
	}
}
