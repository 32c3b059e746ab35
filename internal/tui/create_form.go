package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/h0rv/spira/internal/domain"
	"github.com/h0rv/spira/internal/spira"
)

// createField identifies a field of the creation form, in focus order.
type createField int

const (
	fieldName createField = iota
	fieldType
	fieldPriority
	fieldOwner
	fieldDescription
	createFieldCount
)

func (f createField) label() string {
	switch f {
	case fieldName:
		return "Name"
	case fieldType:
		return "Type"
	case fieldPriority:
		return "Priority"
	case fieldOwner:
		return "Owner"
	case fieldDescription:
		return "Description"
	}
	return ""
}

func (f createField) isSelector() bool {
	return f == fieldType || f == fieldPriority || f == fieldOwner
}

var selectorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

// CreateFormModel collects the fields of a new artifact. Selectors default
// to the first entry: the first type, no priority, and the user as owner.
type CreateFormModel struct {
	project domain.Project
	kind    domain.Kind
	data    spira.FormData
	self    string

	name        textinput.Model
	description textarea.Model
	selected    map[createField]int

	focus      createField
	picker     tea.Model // Open selector list, nil when closed
	spinner    spinner.Model
	submitting bool
	err        string

	width  int
	height int
}

// NewCreateFormModel creates the form for kind in project.
func NewCreateFormModel(project domain.Project, kind domain.Kind, data spira.FormData, self string) CreateFormModel {
	name := textinput.New()
	name.Placeholder = "Short summary"
	name.CharLimit = 255
	name.Width = 60
	name.Prompt = ""
	name.Focus()

	desc := textarea.New()
	desc.Placeholder = "Optional"
	desc.ShowLineNumbers = false
	desc.CharLimit = 65535
	desc.SetWidth(60)
	desc.SetHeight(6)
	desc.FocusedStyle.CursorLine = lipgloss.NewStyle() // No highlight on cursor line

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return CreateFormModel{
		project:     project,
		kind:        kind,
		data:        data,
		self:        self,
		name:        name,
		description: desc,
		selected:    map[createField]int{fieldType: 0, fieldPriority: 0, fieldOwner: 0},
		spinner:     sp,
	}
}

// Init initializes the model.
func (m CreateFormModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.WindowSize())
}

// Update handles messages.
func (m CreateFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fieldPickedMsg:
		m.selected[msg.field] = msg.index
		m.picker = nil
		return m, nil

	case pickerClosedMsg:
		m.picker = nil
		return m, nil

	case createFailedMsg:
		m.submitting = false
		m.err = spira.Describe(msg.err)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 20
		if w > 100 {
			w = 100
		}
		if w > 20 {
			m.name.Width = w
			m.description.SetWidth(w)
		}
		if m.picker != nil {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}
		return m, nil

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.picker != nil {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKeyPress(msg)
	}

	return m.updateFocused(msg)
}

func (m CreateFormModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.submitting {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		return m, func() tea.Msg { return cancelCreateMsg{} }
	case "ctrl+s":
		return m.submit()
	case "tab":
		cmd := (&m).setFocus(m.focus + 1)
		return m, cmd
	case "shift+tab":
		cmd := (&m).setFocus(m.focus - 1)
		return m, cmd
	}

	if m.focus.isSelector() {
		switch msg.String() {
		case "enter", " ":
			picker := m.openPicker(m.focus)
			m.picker = picker
			return m, picker.Init()
		case "left", "h":
			(&m).cycle(m.focus, -1)
		case "right", "l":
			(&m).cycle(m.focus, 1)
		case "down", "j":
			cmd := (&m).setFocus(m.focus + 1)
			return m, cmd
		case "up", "k":
			cmd := (&m).setFocus(m.focus - 1)
			return m, cmd
		}
		return m, nil
	}

	if m.focus == fieldName && (msg.String() == "enter" || msg.String() == "down") {
		cmd := (&m).setFocus(m.focus + 1)
		return m, cmd
	}

	return m.updateFocused(msg)
}

// updateFocused forwards msg to the focused text input.
func (m CreateFormModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case fieldName:
		m.name, cmd = m.name.Update(msg)
	case fieldDescription:
		m.description, cmd = m.description.Update(msg)
	}
	return m, cmd
}

func (m *CreateFormModel) setFocus(f createField) tea.Cmd {
	if f < 0 {
		f = createFieldCount - 1
	}
	if f >= createFieldCount {
		f = 0
	}

	m.name.Blur()
	m.description.Blur()
	m.focus = f

	switch f {
	case fieldName:
		return m.name.Focus()
	case fieldDescription:
		return m.description.Focus()
	}
	return nil
}

func (m *CreateFormModel) cycle(f createField, delta int) {
	n := m.optionCount(f)
	if n == 0 {
		return
	}
	m.selected[f] = (m.selected[f] + delta + n) % n
}

func (m CreateFormModel) optionCount(f createField) int {
	switch f {
	case fieldType:
		return len(m.data.Types)
	case fieldPriority:
		return len(m.data.Priorities)
	case fieldOwner:
		return len(m.data.Users)
	}
	return 0
}

// openPicker builds the selection list for a selector field.
func (m CreateFormModel) openPicker(f createField) tea.Model {
	onSelect := func(i int) tea.Msg { return fieldPickedMsg{field: f, index: i} }
	onCancel := func() tea.Msg { return pickerClosedMsg{} }

	if f == fieldOwner {
		return NewOwnerPickerModel(m.data.Users, m.self, m.selected[f], onSelect, onCancel)
	}

	var options []pickerOption
	switch f {
	case fieldType:
		for _, t := range m.data.Types {
			options = append(options, pickerOption{id: t.ID, label: t.Name})
		}
	case fieldPriority:
		for _, p := range m.data.Priorities {
			options = append(options, pickerOption{id: p.ID, label: p.Name})
		}
	}
	return NewFieldPickerModel("Select "+f.label(), options, m.selected[f], onSelect, onCancel)
}

// Fields returns the form input as creation fields. Empty selectors map to
// the "none" sentinel.
func (m CreateFormModel) Fields() spira.CreateFields {
	fields := spira.CreateFields{
		ProjectID:   m.project.ID,
		Name:        strings.TrimSpace(m.name.Value()),
		Description: strings.TrimSpace(m.description.Value()),
		OwnerID:     domain.NoneID,
		PriorityID:  domain.NoneID,
	}
	if i := m.selected[fieldType]; i < len(m.data.Types) {
		fields.TypeID = m.data.Types[i].ID
	}
	if i := m.selected[fieldPriority]; i < len(m.data.Priorities) {
		fields.PriorityID = m.data.Priorities[i].ID
	}
	if i := m.selected[fieldOwner]; i < len(m.data.Users) {
		fields.OwnerID = m.data.Users[i].ID
	}
	return fields
}

// CanCreate reports whether the project offers at least one type for the kind.
func (m CreateFormModel) CanCreate() bool {
	return len(m.data.Types) > 0
}

func (m CreateFormModel) submit() (tea.Model, tea.Cmd) {
	if !m.CanCreate() {
		m.err = fmt.Sprintf("Cannot create: project %s defines no %s types", m.project.Name, strings.ToLower(string(m.kind)))
		return m, nil
	}

	fields := m.Fields()
	if fields.Name == "" {
		m.err = "Name is required"
		cmd := (&m).setFocus(fieldName)
		return m, cmd
	}

	m.err = ""
	m.submitting = true
	kind := m.kind
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg { return CreateSubmittedMsg{Kind: kind, Fields: fields} },
	)
}

func (m CreateFormModel) selectorValue(f createField) string {
	i := m.selected[f]
	switch f {
	case fieldType:
		if i < len(m.data.Types) {
			return m.data.Types[i].Name
		}
	case fieldPriority:
		if i < len(m.data.Priorities) {
			return m.data.Priorities[i].Name
		}
	case fieldOwner:
		if i < len(m.data.Users) {
			return ownerLabel(m.data.Users[i])
		}
	}
	return domain.NoneLabel
}

// View renders the form, or the open selector list.
func (m CreateFormModel) View() string {
	if m.picker != nil {
		return m.picker.View()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("New %s in %s", m.kind, m.project.Name)))
	b.WriteString("\n")

	if !m.CanCreate() {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("This project has no %s types, so nothing can be created here.", strings.ToLower(string(m.kind)))))
		b.WriteString("\n\n")
		b.WriteString(HelpStyle.Render("esc: back"))
		return b.String()
	}

	for f := createField(0); f < createFieldCount; f++ {
		label := LabelStyle.Render(f.label())
		if f == m.focus {
			label = FocusedLabelStyle.Render(f.label())
		}
		b.WriteString(label)

		switch {
		case f == fieldName:
			b.WriteString(m.name.View())
		case f == fieldDescription:
			b.WriteString("\n")
			b.WriteString(m.description.View())
		case f.isSelector():
			value := m.selectorValue(f)
			if f == m.focus {
				b.WriteString(SelectedItemStyle.Render("‹ " + value + " ›"))
			} else {
				b.WriteString(selectorStyle.Render("  " + value))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(m.spinner.View() + " Creating...")
	case m.err != "":
		b.WriteString(ErrorStyle.Render(m.err))
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("tab: next field • ←/→ or enter: choose • ctrl+s: create • esc: cancel"))

	return b.String()
}

// Message types for the creation flow
type (
	fieldPickedMsg struct {
		field createField
		index int
	}
	pickerClosedMsg struct{}
	createFailedMsg struct{ err error }
	cancelCreateMsg struct{}
)
