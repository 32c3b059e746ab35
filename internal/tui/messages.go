// Package tui provides Bubble Tea models for the interactive TUI.
package tui

import (
	"github.com/h0rv/spira/internal/auth"
	"github.com/h0rv/spira/internal/domain"
	"github.com/h0rv/spira/internal/spira"
)

// LoginSubmittedMsg is emitted when the user submits the login form.
type LoginSubmittedMsg struct {
	Credentials auth.Credentials
}

// ProjectSelectedMsg is emitted when the user selects a project to create in.
type ProjectSelectedMsg struct {
	Project domain.Project
}

// KindSelectedMsg is emitted when the user selects the kind of artifact to create.
type KindSelectedMsg struct {
	Kind domain.Kind
}

// CreateSubmittedMsg is emitted when the creation form is submitted.
type CreateSubmittedMsg struct {
	Kind   domain.Kind
	Fields spira.CreateFields
}

// ErrorMsg is emitted when an error occurs.
type ErrorMsg struct {
	Err error
}

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}
