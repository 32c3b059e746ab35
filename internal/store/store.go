// Package store provides an in-memory state management layer for the user's
// SpiraTeam artifacts. It keys artifacts by identity, keeps one ordered column
// per kind, and reports what changed on every sync following the "deep
// modules" principle - simple interface hiding the diffing and ordering.
package store

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/h0rv/spira/internal/domain"
)

var (
	// ErrArtifactNotFound indicates the requested artifact does not exist.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrProjectNotFound indicates the requested project is not cached.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidKind indicates an unknown artifact kind was provided.
	ErrInvalidKind = errors.New("invalid artifact kind")
)

// SyncDiff describes how a sync changed the store.
type SyncDiff struct {
	Added   []domain.ArtifactKey
	Updated []domain.ArtifactKey // same identity, refreshed data
	Removed []domain.ArtifactKey
}

// Empty reports whether nothing changed.
func (d SyncDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Merge appends other's changes to d.
func (d SyncDiff) Merge(other SyncDiff) SyncDiff {
	return SyncDiff{
		Added:   append(d.Added, other.Added...),
		Updated: append(d.Updated, other.Updated...),
		Removed: append(d.Removed, other.Removed...),
	}
}

// String summarizes the diff for the status line.
func (d SyncDiff) String() string {
	return fmt.Sprintf("%d new, %d updated, %d removed", len(d.Added), len(d.Updated), len(d.Removed))
}

// Store holds the artifacts of the last sync.
type Store struct {
	// Current user's login, for display
	viewer string

	// Artifact storage
	artifacts map[domain.ArtifactKey]domain.Artifact

	// Column mapping: kind -> keys in server order
	columns map[domain.Kind][]domain.ArtifactKey

	// Projects the user belongs to, in server order
	projects []domain.Project

	selected *domain.ArtifactKey
	lastSync time.Time
}

// New creates a new empty Store instance.
func New() *Store {
	return &Store{
		artifacts: make(map[domain.ArtifactKey]domain.Artifact),
		columns:   make(map[domain.Kind][]domain.ArtifactKey),
	}
}

// SetViewer sets the current authenticated user's login.
func (s *Store) SetViewer(username string) {
	s.viewer = username
}

// GetViewer returns the current authenticated user's login.
func (s *Store) GetViewer() string {
	return s.viewer
}

// Replace swaps the artifacts of one kind for a fresh list and reports the
// difference. Identity decides added/removed; a kept identity with
// different data counts as updated. Duplicate identities in the list keep
// the first position and the last data.
func (s *Store) Replace(kind domain.Kind, artifacts []domain.Artifact) (SyncDiff, error) {
	if !kind.Valid() {
		return SyncDiff{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	var diff SyncDiff
	fresh := make(map[domain.ArtifactKey]domain.Artifact, len(artifacts))
	order := make([]domain.ArtifactKey, 0, len(artifacts))

	for _, a := range artifacts {
		if a.Kind != kind {
			return SyncDiff{}, fmt.Errorf("%w: %s in %s column", ErrInvalidKind, a.Kind, kind)
		}
		key := a.Key()
		if _, seen := fresh[key]; !seen {
			order = append(order, key)
		}
		fresh[key] = a
	}

	for _, key := range order {
		old, existed := s.artifacts[key]
		switch {
		case !existed:
			diff.Added = append(diff.Added, key)
		case !reflect.DeepEqual(old, fresh[key]):
			diff.Updated = append(diff.Updated, key)
		}
		s.artifacts[key] = fresh[key]
	}

	for _, key := range s.columns[kind] {
		if _, kept := fresh[key]; !kept {
			diff.Removed = append(diff.Removed, key)
			delete(s.artifacts, key)
		}
	}

	s.columns[kind] = order

	if s.selected != nil {
		if _, ok := s.artifacts[*s.selected]; !ok {
			s.selected = nil
		}
	}

	return diff, nil
}

// ReplaceAll replaces every kind present in byKind and records the sync time.
func (s *Store) ReplaceAll(byKind map[domain.Kind][]domain.Artifact) (SyncDiff, error) {
	var diff SyncDiff
	for _, kind := range domain.Kinds {
		artifacts, ok := byKind[kind]
		if !ok {
			continue
		}
		d, err := s.Replace(kind, artifacts)
		if err != nil {
			return diff, err
		}
		diff = diff.Merge(d)
	}
	s.lastSync = time.Now()
	return diff, nil
}

// Get retrieves an artifact by identity, returning ErrArtifactNotFound if not found.
func (s *Store) Get(key domain.ArtifactKey) (domain.Artifact, error) {
	a, exists := s.artifacts[key]
	if !exists {
		return domain.Artifact{}, ErrArtifactNotFound
	}
	return a, nil
}

// Find returns the first artifact of kind with the given id in column order.
// Used to resume the last open artifact, whose project is not recorded.
func (s *Store) Find(kind domain.Kind, id int) (domain.Artifact, bool) {
	for _, key := range s.columns[kind] {
		if key.ID == id {
			return s.artifacts[key], true
		}
	}
	return domain.Artifact{}, false
}

// Column returns the artifacts of one kind in server order.
func (s *Store) Column(kind domain.Kind) []domain.Artifact {
	keys := s.columns[kind]
	out := make([]domain.Artifact, 0, len(keys))
	for _, key := range keys {
		out = append(out, s.artifacts[key])
	}
	return out
}

// Count returns the number of artifacts of one kind.
func (s *Store) Count(kind domain.Kind) int {
	return len(s.columns[kind])
}

// All returns every artifact, columns in display order.
func (s *Store) All() []domain.Artifact {
	out := make([]domain.Artifact, 0, len(s.artifacts))
	for _, kind := range domain.Kinds {
		out = append(out, s.Column(kind)...)
	}
	return out
}

// Filter returns the artifacts of kind matching query (case-insensitive)
// against display id, name, project, status and type.
// An empty query matches everything.
func (s *Store) Filter(kind domain.Kind, query string) []domain.Artifact {
	query = strings.ToLower(strings.TrimSpace(query))
	column := s.Column(kind)
	if query == "" {
		return column
	}

	out := make([]domain.Artifact, 0, len(column))
	for _, a := range column {
		if matches(a, query) {
			out = append(out, a)
		}
	}
	return out
}

func matches(a domain.Artifact, query string) bool {
	fields := []string{a.DisplayID(), a.Name, a.ProjectName}
	for _, p := range []*string{a.Status, a.TypeName, a.PriorityName} {
		if p != nil {
			fields = append(fields, *p)
		}
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// Select marks an artifact as the selected one.
// Returns ErrArtifactNotFound if the artifact doesn't exist.
func (s *Store) Select(key domain.ArtifactKey) error {
	if _, ok := s.artifacts[key]; !ok {
		return ErrArtifactNotFound
	}
	s.selected = &key
	return nil
}

// Selected returns the selected artifact, if any.
func (s *Store) Selected() (domain.Artifact, bool) {
	if s.selected == nil {
		return domain.Artifact{}, false
	}
	a, ok := s.artifacts[*s.selected]
	return a, ok
}

// ClearSelection deselects the current artifact.
func (s *Store) ClearSelection() {
	s.selected = nil
}

// SetProjects caches the user's projects.
func (s *Store) SetProjects(projects []domain.Project) {
	s.projects = make([]domain.Project, len(projects))
	copy(s.projects, projects)
}

// GetProjects returns a copy of the cached projects.
func (s *Store) GetProjects() []domain.Project {
	out := make([]domain.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// GetProject returns a cached project by id.
func (s *Store) GetProject(id int) (domain.Project, error) {
	for _, p := range s.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Project{}, fmt.Errorf("%w: %d", ErrProjectNotFound, id)
}

// LastSync returns when ReplaceAll last ran; zero before the first sync.
func (s *Store) LastSync() time.Time {
	return s.lastSync
}

// Clear empties the artifacts, preserving viewer and projects.
func (s *Store) Clear() {
	s.artifacts = make(map[domain.ArtifactKey]domain.Artifact)
	s.columns = make(map[domain.Kind][]domain.ArtifactKey)
	s.selected = nil
	s.lastSync = time.Time{}
}

// Reset completely resets the store to initial state.
func (s *Store) Reset() {
	s.viewer = ""
	s.projects = nil
	s.Clear()
}
