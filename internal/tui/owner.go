package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/h0rv/spira/internal/domain"
)

// ownerItem represents a project member in the list.
type ownerItem struct {
	user domain.User
}

func (i ownerItem) FilterValue() string { return i.user.FullName + " " + i.user.Username }

// ownerLabel renders a user as "Full Name (username)".
func ownerLabel(u domain.User) string {
	if u.ID == domain.NoneID || u.Username == "" {
		return u.FullName
	}
	return fmt.Sprintf("%s (%s)", u.FullName, u.Username)
}

// ownerItemDelegate handles rendering of owner items.
type ownerItemDelegate struct {
	self string // Current user's login
}

func (d ownerItemDelegate) Height() int                             { return 1 }
func (d ownerItemDelegate) Spacing() int                            { return 0 }
func (d ownerItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d ownerItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(ownerItem)
	if !ok {
		return
	}

	str := ownerLabel(i.user)
	if d.self != "" && i.user.Username == d.self {
		str += " - me"
	}

	fn := NormalItemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return SelectedItemStyle.Render("> " + s[0])
		}
	}

	fmt.Fprint(w, fn(str))
}

// OwnerPickerModel lets the user choose the owner of a new artifact.
type OwnerPickerModel struct {
	list     list.Model
	users    []domain.User
	onSelect func(index int) tea.Msg
	onCancel func() tea.Msg
}

// NewOwnerPickerModel creates a new owner picker. users is expected in
// display order (self, none, others).
func NewOwnerPickerModel(users []domain.User, self string, selected int, onSelect func(index int) tea.Msg, onCancel func() tea.Msg) OwnerPickerModel {
	items := make([]list.Item, len(users))
	for i, u := range users {
		items[i] = ownerItem{user: u}
	}

	// Start with a reasonable default - will be resized by WindowSizeMsg
	l := list.New(items, ownerItemDelegate{self: self}, 80, 20)
	l.Title = "Select Owner"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = TitleStyle
	l.Styles.PaginationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	l.Styles.HelpStyle = HelpStyle
	if selected >= 0 && selected < len(users) {
		l.Select(selected)
	}

	return OwnerPickerModel{
		list:     l,
		users:    users,
		onSelect: onSelect,
		onCancel: onCancel,
	}
}

// Init initializes the model.
func (m OwnerPickerModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages.
func (m OwnerPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.SettingFilter() {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(ownerItem); ok {
				index := m.indexOf(item.user.ID)
				return m, func() tea.Msg { return m.onSelect(index) }
			}
		case "q", "esc":
			return m, m.onCancel
		}

	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width - 2)
		m.list.SetHeight(msg.Height - 2)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m OwnerPickerModel) indexOf(userID int) int {
	for i, u := range m.users {
		if u.ID == userID {
			return i
		}
	}
	return 0
}

// View renders the model.
func (m OwnerPickerModel) View() string {
	return m.list.View()
}
