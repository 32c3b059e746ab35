package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/spira/internal/domain"
	"github.com/h0rv/spira/internal/spira"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProject() domain.Project {
	role := domain.NewRole(5, domain.KindIncident, domain.KindTask)
	return domain.Project{ID: 1, Name: "Alpha", Role: &role}
}

func testFormData() spira.FormData {
	return spira.FormData{
		Types: []domain.ArtifactTypeDescriptor{
			{ID: 1, Name: "Bug"},
			{ID: 2, Name: "Enhancement"},
		},
		Priorities: []domain.Priority{
			{ID: domain.NoneID, Name: domain.NoneLabel},
			{ID: 1, Name: "1 - Critical"},
			{ID: 2, Name: "2 - High"},
		},
		Users: []domain.User{
			{ID: 7, FullName: "Fred Bloggs", Username: "fred"},
			domain.NoneUser(),
			{ID: 8, FullName: "Wilma Stone", Username: "wilma"},
		},
	}
}

func newTestForm() CreateFormModel {
	return NewCreateFormModel(testProject(), domain.KindIncident, testFormData(), "fred")
}

func formUpdate(t *testing.T, m CreateFormModel, msg tea.Msg) (CreateFormModel, tea.Cmd) {
	t.Helper()
	model, cmd := m.Update(msg)
	form, ok := model.(CreateFormModel)
	require.True(t, ok)
	return form, cmd
}

func TestCreateForm_Defaults(t *testing.T) {
	m := newTestForm()
	m.name.SetValue("Crash on save")

	fields := m.Fields()
	assert.Equal(t, 1, fields.ProjectID)
	assert.Equal(t, "Crash on save", fields.Name)
	assert.Equal(t, 1, fields.TypeID, "first type")
	assert.Equal(t, domain.NoneID, fields.PriorityID, "no priority")
	assert.Equal(t, 7, fields.OwnerID, "the user owns it")
	assert.Empty(t, fields.Description)
}

func TestCreateForm_NameRequired(t *testing.T) {
	m := newTestForm()
	m.name.SetValue("   ")
	m, _ = formUpdate(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, fieldType, m.focus)

	m, _ = formUpdate(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.False(t, m.submitting)
	assert.Equal(t, "Name is required", m.err)
	assert.Equal(t, fieldName, m.focus)
}

func TestCreateForm_NoTypesBlocksCreation(t *testing.T) {
	data := testFormData()
	data.Types = nil
	m := NewCreateFormModel(testProject(), domain.KindIncident, data, "fred")
	m.name.SetValue("Crash on save")

	assert.False(t, m.CanCreate())
	assert.Contains(t, m.View(), "no incident types")

	m, cmd := formUpdate(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.False(t, m.submitting)
	assert.Contains(t, m.err, "Cannot create")
}

func TestCreateForm_Submit(t *testing.T) {
	m := newTestForm()
	m.name.SetValue("Crash on save")
	m.description.SetValue("Steps to reproduce")

	m, cmd := formUpdate(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.True(t, m.submitting)

	// Keys are ignored while submitting
	_, cmd2 := formUpdate(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd2)

	m, _ = formUpdate(t, m, createFailedMsg{err: errors.New("server says no")})
	assert.False(t, m.submitting)
	assert.Equal(t, "server says no", m.err)
}

func TestCreateForm_CycleSelectors(t *testing.T) {
	m := newTestForm()

	// Name -> Type
	m, _ = formUpdate(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, fieldType, m.focus)

	m, _ = formUpdate(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 2, m.Fields().TypeID)

	// Wraps around
	m, _ = formUpdate(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 1, m.Fields().TypeID)

	// Type -> Priority
	m, _ = formUpdate(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, fieldPriority, m.focus)
	m, _ = formUpdate(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 2, m.Fields().PriorityID)

	// Priority -> Owner
	m, _ = formUpdate(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, fieldOwner, m.focus)
	m, _ = formUpdate(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, domain.NoneID, m.Fields().OwnerID)
}

func TestCreateForm_ShiftTabWraps(t *testing.T) {
	m := newTestForm()

	m, _ = formUpdate(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, fieldDescription, m.focus)
}

func TestCreateForm_PickerSelection(t *testing.T) {
	m := newTestForm()
	m.focus = fieldOwner

	m, cmd := formUpdate(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.picker)
	assert.NotNil(t, cmd)

	m, _ = formUpdate(t, m, fieldPickedMsg{field: fieldOwner, index: 2})
	assert.Nil(t, m.picker)
	assert.Equal(t, 8, m.Fields().OwnerID)

	// Open and close without choosing
	m.focus = fieldPriority
	m, _ = formUpdate(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.picker)
	m, _ = formUpdate(t, m, pickerClosedMsg{})
	assert.Nil(t, m.picker)
	assert.Equal(t, domain.NoneID, m.Fields().PriorityID)
}

func TestCreateForm_EscCancels(t *testing.T) {
	m := newTestForm()

	_, cmd := formUpdate(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, cancelCreateMsg{}, cmd())
}

func TestCreateForm_View(t *testing.T) {
	m := newTestForm()
	view := m.View()

	assert.Contains(t, view, "New Incident in Alpha")
	assert.Contains(t, view, "Bug")
	assert.Contains(t, view, domain.NoneLabel)
	assert.Contains(t, view, "Fred Bloggs (fred)")
}
