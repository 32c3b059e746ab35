package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/spira/internal/domain"
)

// pickerOption is one selectable value of a form field.
type pickerOption struct {
	id    int
	label string
}

func (o pickerOption) FilterValue() string { return o.label }

// optionDelegate renders one option per line.
type optionDelegate struct{}

func (d optionDelegate) Height() int                             { return 1 }
func (d optionDelegate) Spacing() int                            { return 0 }
func (d optionDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d optionDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	o, ok := item.(pickerOption)
	if !ok {
		return
	}

	if index == m.Index() {
		fmt.Fprint(w, SelectedItemStyle.Render("> "+o.label))
	} else {
		fmt.Fprint(w, NormalItemStyle.Render("  "+o.label))
	}
}

// FieldPickerModel lets the user choose one value for a form field: an
// artifact kind, type or priority. Selection and cancellation are reported
// through the supplied callbacks.
type FieldPickerModel struct {
	list     list.Model
	onSelect func(index int) tea.Msg
	onCancel func() tea.Msg
}

// NewFieldPickerModel creates a picker over options with the cursor on selected.
func NewFieldPickerModel(title string, options []pickerOption, selected int, onSelect func(index int) tea.Msg, onCancel func() tea.Msg) FieldPickerModel {
	items := make([]list.Item, len(options))
	for i, o := range options {
		items[i] = o
	}

	l := list.New(items, optionDelegate{}, 60, 16)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(len(options) > 8)
	l.Styles.Title = TitleStyle
	l.Styles.HelpStyle = HelpStyle
	if selected >= 0 && selected < len(options) {
		l.Select(selected)
	}

	return FieldPickerModel{
		list:     l,
		onSelect: onSelect,
		onCancel: onCancel,
	}
}

// NewKindPickerModel offers the kinds the project's role may create.
func NewKindPickerModel(project domain.Project, preselect domain.Kind) FieldPickerModel {
	var kinds []domain.Kind
	if project.Role != nil {
		kinds = project.Role.Capabilities()
	}

	options := make([]pickerOption, len(kinds))
	selected := 0
	for i, k := range kinds {
		options[i] = pickerOption{id: k.ArtifactTypeID(), label: string(k)}
		if k == preselect {
			selected = i
		}
	}

	return NewFieldPickerModel(
		fmt.Sprintf("New artifact in %s: select a kind", project.Name),
		options,
		selected,
		func(i int) tea.Msg { return KindSelectedMsg{Kind: kinds[i]} },
		func() tea.Msg { return cancelCreateMsg{} },
	)
}

// Init initializes the model.
func (m FieldPickerModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages and updates the model state.
func (m FieldPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		if m.list.SettingFilter() {
			break
		}
		switch msg.String() {
		case "q", "esc":
			return m, m.onCancel
		case "enter":
			if len(m.list.Items()) == 0 {
				return m, nil
			}
			if o, ok := m.list.SelectedItem().(pickerOption); ok {
				index := m.indexOf(o)
				return m, func() tea.Msg { return m.onSelect(index) }
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// indexOf maps a (possibly filtered) selection back to its option index.
func (m FieldPickerModel) indexOf(o pickerOption) int {
	for i, item := range m.list.Items() {
		if item.(pickerOption) == o {
			return i
		}
	}
	return m.list.Index()
}

// View renders the model.
func (m FieldPickerModel) View() string {
	if len(m.list.Items()) == 0 {
		return m.list.Title + "\n\n" + ErrorStyle.Render("Nothing to choose from. Press esc to go back.")
	}
	return m.list.View()
}
