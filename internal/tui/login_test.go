package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/spira/internal/auth"
	"github.com/h0rv/spira/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeInto(t *testing.T, m LoginModel, s string) LoginModel {
	t.Helper()
	for _, r := range s {
		model, _ := m.Update(keyPress(string(r)))
		m = model.(LoginModel)
	}
	return m
}

func TestLoginModel_FocusesFirstEmptyField(t *testing.T) {
	m := NewLoginModel(auth.Credentials{}, nil)
	assert.Equal(t, loginURL, m.focus)

	m = NewLoginModel(auth.Credentials{BaseURL: "https://demo.spiraservice.net", Username: "fred"}, nil)
	assert.Equal(t, loginToken, m.focus)
}

func TestLoginModel_NormalizesInput(t *testing.T) {
	m := NewLoginModel(auth.Credentials{}, nil)

	m = typeInto(t, m, "https://demo.spiraservice.net/")
	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = model.(LoginModel)
	m = typeInto(t, m, "fred")
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = model.(LoginModel)
	m = typeInto(t, m, "ABC-123")

	creds := m.Credentials()
	assert.Equal(t, "https://demo.spiraservice.net", creds.BaseURL)
	assert.Equal(t, "fred", creds.Username)
	assert.Equal(t, "{ABC-123}", creds.APIToken)
}

func TestLoginModel_SubmitInvalid(t *testing.T) {
	m := NewLoginModel(auth.Credentials{BaseURL: "not a url", Username: "fred", APIToken: "{X}"}, nil)

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = model.(LoginModel)

	assert.Nil(t, cmd)
	assert.False(t, m.verifying)
	assert.NotEmpty(t, m.err)
}

func TestLoginModel_SubmitValid(t *testing.T) {
	m := NewLoginModel(testCredentials(), nil)

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = model.(LoginModel)

	require.NotNil(t, cmd)
	assert.True(t, m.verifying)
	assert.Empty(t, m.err)

	// Input is ignored while the login is checked
	model, _ = m.Update(keyPress("x"))
	m = model.(LoginModel)
	assert.Equal(t, testCredentials().APIToken, m.Credentials().APIToken)

	model, _ = m.Update(loginFailedMsg{err: errors.New("boom")})
	m = model.(LoginModel)
	assert.False(t, m.verifying)
	assert.Equal(t, "boom", m.err)
}

func TestLoginModel_KeepsResumeStateForSameUser(t *testing.T) {
	previous := testCredentials().
		WithLastOpen(domain.KindTask, 21).
		WithLastCreated(domain.KindIncident, 1)

	m := NewLoginModel(previous, nil)
	creds := m.Credentials()

	kind, id, ok := creds.LastOpen()
	require.True(t, ok)
	assert.Equal(t, domain.KindTask, kind)
	assert.Equal(t, 21, id)

	kind, projectID, ok := creds.LastCreated()
	require.True(t, ok)
	assert.Equal(t, domain.KindIncident, kind)
	assert.Equal(t, 1, projectID)
}

func TestLoginModel_DropsResumeStateForOtherUser(t *testing.T) {
	previous := testCredentials().WithLastOpen(domain.KindTask, 21)

	m := NewLoginModel(previous, nil)
	m.inputs[loginUsername].SetValue("wilma")

	_, _, ok := m.Credentials().LastOpen()
	assert.False(t, ok)
}

func TestLoginModel_ShowsReason(t *testing.T) {
	m := NewLoginModel(testCredentials(), errors.New("session expired"))
	assert.Contains(t, m.View(), "session expired")
}

func TestLoginModel_EscQuits(t *testing.T) {
	m := NewLoginModel(auth.Credentials{}, nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, QuitMsg{}, cmd())
}
