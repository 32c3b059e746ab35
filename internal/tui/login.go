package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/h0rv/spira/internal/auth"
	"github.com/h0rv/spira/internal/spira"
)

// Login form fields in focus order.
const (
	loginURL = iota
	loginUsername
	loginToken
	loginFieldCount
)

var loginLabels = [loginFieldCount]string{"Server URL", "Username", "RSS token"}

// LoginModel asks for the SpiraTeam server, username and API token.
type LoginModel struct {
	inputs    []textinput.Model
	focus     int
	previous  auth.Credentials // Prefilled login; its resume state survives re-login
	spinner   spinner.Model
	verifying bool
	err       string
}

type loginFailedMsg struct{ err error }

// NewLoginModel creates the form, prefilled from previous. reason explains
// why the user is asked to log in again and may be nil.
func NewLoginModel(previous auth.Credentials, reason error) LoginModel {
	inputs := make([]textinput.Model, loginFieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 512
		ti.Width = 50
		inputs[i] = ti
	}

	inputs[loginURL].Placeholder = "https://example.spiraservice.net"
	inputs[loginURL].SetValue(previous.BaseURL)
	inputs[loginUsername].Placeholder = "username"
	inputs[loginUsername].SetValue(previous.Username)
	inputs[loginToken].Placeholder = "{XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX}"
	inputs[loginToken].SetValue(previous.APIToken)
	inputs[loginToken].EchoMode = textinput.EchoPassword
	inputs[loginToken].EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := LoginModel{
		inputs:   inputs,
		previous: previous,
		spinner:  sp,
	}
	if reason != nil {
		m.err = spira.Describe(reason)
	}

	// Start on the first empty field
	for i, in := range inputs {
		if in.Value() == "" {
			m.focus = i
			break
		}
	}
	m.inputs[m.focus].Focus()
	return m
}

// Init initializes the model.
func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginFailedMsg:
		m.verifying = false
		m.err = spira.Describe(msg.err)
		return m, nil

	case spinner.TickMsg:
		if !m.verifying {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.verifying {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "esc":
			return m, func() tea.Msg { return QuitMsg{} }
		case "tab", "down":
			cmd := (&m).setFocus(m.focus + 1)
			return m, cmd
		case "shift+tab", "up":
			cmd := (&m).setFocus(m.focus - 1)
			return m, cmd
		case "enter":
			if m.focus < loginFieldCount-1 {
				cmd := (&m).setFocus(m.focus + 1)
				return m, cmd
			}
			return m.submit()
		case "ctrl+s":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// Credentials returns the normalized form input. Resume state is kept when
// the login targets the same user on the same server.
func (m LoginModel) Credentials() auth.Credentials {
	c := auth.New(
		m.inputs[loginURL].Value(),
		m.inputs[loginUsername].Value(),
		m.inputs[loginToken].Value(),
	)
	if c.BaseURL == m.previous.BaseURL && c.Username == m.previous.Username {
		c.LastOpenArtifactType = m.previous.LastOpenArtifactType
		c.LastOpenArtifactID = m.previous.LastOpenArtifactID
		c.LastCreatedArtifactType = m.previous.LastCreatedArtifactType
		c.LastCreatedProjectID = m.previous.LastCreatedProjectID
	}
	return c
}

func (m LoginModel) submit() (tea.Model, tea.Cmd) {
	creds := m.Credentials()
	if err := creds.Validate(); err != nil {
		m.err = err.Error()
		return m, nil
	}

	m.err = ""
	m.verifying = true
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg { return LoginSubmittedMsg{Credentials: creds} },
	)
}

func (m *LoginModel) setFocus(i int) tea.Cmd {
	if i < 0 {
		i = loginFieldCount - 1
	}
	if i >= loginFieldCount {
		i = 0
	}
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[m.focus].Focus()
}

// View renders the form.
func (m LoginModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Log in to SpiraTeam"))
	b.WriteString("\n")

	for i, in := range m.inputs {
		label := LabelStyle.Render(loginLabels[i])
		if i == m.focus {
			label = FocusedLabelStyle.Render(loginLabels[i])
		}
		b.WriteString(label)
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.verifying:
		b.WriteString(m.spinner.View() + " Checking your login...")
	case m.err != "":
		b.WriteString(ErrorStyle.Render(m.err))
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("tab/↑↓: move • enter: next/submit • esc: quit"))
	b.WriteString("\n")
	b.WriteString(PromptStyle.Render("Your RSS token is under My Profile in SpiraTeam; braces are added if missing."))

	return b.String()
}
