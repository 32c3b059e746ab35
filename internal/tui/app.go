package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/spira/internal/auth"
	"github.com/h0rv/spira/internal/domain"
	"github.com/h0rv/spira/internal/spira"
	"github.com/h0rv/spira/internal/store"
	"github.com/ternarybob/arbor"
)

// AppScreen represents the different screens in the application flow.
type AppScreen int

const (
	ScreenLoading AppScreen = iota
	ScreenLogin
	ScreenBoard
	ScreenDetail
	ScreenProjectPicker
	ScreenKindPicker
	ScreenCreateForm
)

// AppModel is the root Bubble Tea model that manages screen transitions.
// It orchestrates login -> board, board -> detail and the
// project -> kind -> form creation flow.
type AppModel struct {
	// Dependencies
	service   *spira.Service
	store     *store.Store
	credStore auth.Store
	ctx       context.Context
	logger    arbor.ILogger

	// Session
	creds     auth.Credentials
	haveCreds bool

	// Current state
	currentScreen AppScreen
	currentModel  tea.Model
	err           error
	loadingMsg    string

	// Creation flow context
	project *domain.Project

	// Cached models to preserve state across screen transitions
	boardModel *BoardModel
}

// NewAppModel creates the root model. Without stored credentials
// (haveCreds false) the session starts on the login form, prefilled from creds.
func NewAppModel(service *spira.Service, st *store.Store, credStore auth.Store, ctx context.Context, creds auth.Credentials, haveCreds bool, logger arbor.ILogger) AppModel {
	return AppModel{
		service:       service,
		store:         st,
		credStore:     credStore,
		ctx:           ctx,
		logger:        logger,
		creds:         creds,
		haveCreds:     haveCreds,
		currentScreen: ScreenLoading,
		loadingMsg:    "Connecting to SpiraTeam...",
	}
}

// Init initializes the app model.
func (m AppModel) Init() tea.Cmd {
	if m.haveCreds {
		return func() tea.Msg { return boardReadyMsg{} }
	}
	return func() tea.Msg { return reloginMsg{} }
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global quit handler
		if msg.String() == "ctrl+c" && m.currentScreen != ScreenBoard {
			return m, tea.Quit
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case reloginMsg:
		m.logger.Debug().Msg("Showing login form")
		m.currentScreen = ScreenLogin
		login := NewLoginModel(m.creds, msg.err)
		m.currentModel = login
		return m, login.Init()

	case LoginSubmittedMsg:
		// The login form shows its own spinner while this runs
		return m, m.verifyLogin(msg.Credentials)

	case loginVerifiedMsg:
		if m.credStore != nil {
			if err := m.credStore.Save(msg.creds); err != nil {
				m.logger.Warn().Err(err).Msg("Failed to save credentials")
			}
		}
		if !msg.creds.SameLogin(m.creds) {
			m.store.Reset()
		}
		m.creds = msg.creds
		m.haveCreds = true
		m.store.SetViewer(msg.user.Username)
		m.logger.Info().Str("user", msg.user.Username).Msg("Logged in")
		return m.showNewBoard()

	case boardReadyMsg:
		return m.showNewBoard()

	case openDetailMsg:
		// A resume arriving after the user left the board is dropped
		if m.currentScreen != ScreenBoard {
			return m, nil
		}
		key := msg.artifact.Key()
		m.creds = m.creds.WithLastOpen(key.Kind, key.ID)
		m.currentScreen = ScreenDetail
		detail := NewDetailModel(msg.artifact, m.creds.BaseURL)
		m.currentModel = detail
		return m, tea.Batch(detail.Init(), m.recordLastOpen(key))

	case closeDetailMsg:
		return m.showBoard()

	case startCreateMsg:
		m.currentScreen = ScreenLoading
		m.currentModel = nil
		m.loadingMsg = "Loading projects..."
		return m, m.loadCreatableProjects()

	case creatableProjectsMsg:
		preselect := 0
		if _, projectID, ok := m.creds.LastCreated(); ok {
			preselect = projectID
		}
		m.currentScreen = ScreenProjectPicker
		picker := NewProjectPickerModel(msg.projects, preselect)
		m.currentModel = picker
		return m, picker.Init()

	case ProjectSelectedMsg:
		project := msg.Project
		m.project = &project
		var preselect domain.Kind
		if kind, _, ok := m.creds.LastCreated(); ok {
			preselect = kind
		}
		m.currentScreen = ScreenKindPicker
		picker := NewKindPickerModel(project, preselect)
		m.currentModel = picker
		return m, picker.Init()

	case KindSelectedMsg:
		if m.project == nil {
			return m.showBoard()
		}
		m.currentScreen = ScreenLoading
		m.currentModel = nil
		m.loadingMsg = fmt.Sprintf("Loading %s form for %s...", msg.Kind, m.project.Name)
		return m, m.loadFormData(*m.project, msg.Kind)

	case formDataLoadedMsg:
		if m.project == nil {
			return m.showBoard()
		}
		m.currentScreen = ScreenCreateForm
		form := NewCreateFormModel(*m.project, msg.kind, msg.data, m.creds.Username)
		m.currentModel = form
		return m, form.Init()

	case CreateSubmittedMsg:
		return m, m.createArtifact(msg.Kind, msg.Fields)

	case artifactCreatedMsg:
		m.creds = m.creds.WithLastCreated(msg.kind, msg.projectID)
		m.project = nil
		notice := fmt.Sprintf("Created %s:%d", msg.kind.Prefix(), msg.id)
		model, cmd := m.showBoard()
		return model, tea.Batch(cmd, func() tea.Msg { return refreshBoardMsg{notice: notice} })

	case createAbortedMsg:
		m.project = nil
		model, cmd := m.showBoard()
		err := msg.err
		return model, tea.Batch(cmd, func() tea.Msg { return noticeMsg{err: err} })

	case cancelCreateMsg:
		m.project = nil
		return m.showBoard()

	case syncedMsg, refreshBoardMsg:
		// Board results arriving while another screen is shown
		if m.currentScreen != ScreenBoard && m.boardModel != nil {
			updated, cmd := m.boardModel.Update(msg)
			if bm, ok := updated.(BoardModel); ok {
				m.boardModel = &bm
			}
			return m, cmd
		}
	}

	// Delegate to current screen's model
	if m.currentModel != nil {
		var cmd tea.Cmd
		m.currentModel, cmd = m.currentModel.Update(msg)
		// Keep boardModel in sync when on board screen
		if m.currentScreen == ScreenBoard {
			if bm, ok := m.currentModel.(BoardModel); ok {
				m.boardModel = &bm
			}
		}
		return m, cmd
	}

	return m, nil
}

// View renders the current screen.
func (m AppModel) View() string {
	// Show error if present
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}

	// Delegate to current screen
	if m.currentModel != nil {
		return m.currentModel.View()
	}

	// Show loading state
	return m.loadingMsg + "\n\nPress Ctrl+C to quit"
}

// Screen returns the screen currently shown.
func (m AppModel) Screen() AppScreen {
	return m.currentScreen
}

// showNewBoard replaces the board with a fresh one for the current login.
func (m AppModel) showNewBoard() (tea.Model, tea.Cmd) {
	m.currentScreen = ScreenBoard
	board := NewBoardModel(m.store, m.service, m.ctx, m.creds)
	m.boardModel = &board
	m.currentModel = board
	return m, board.Init()
}

// showBoard returns to the cached board, or builds one if there is none.
func (m AppModel) showBoard() (tea.Model, tea.Cmd) {
	if m.boardModel == nil {
		return m.showNewBoard()
	}
	m.currentScreen = ScreenBoard
	m.currentModel = *m.boardModel
	// Request window size to ensure proper rendering
	return m, tea.WindowSize()
}

// verifyLogin checks the credentials against the server.
func (m AppModel) verifyLogin(creds auth.Credentials) tea.Cmd {
	return func() tea.Msg {
		user, err := m.service.Client().CurrentUser(m.ctx, creds)
		if err != nil {
			return loginFailedMsg{err: err}
		}
		return loginVerifiedMsg{creds: creds, user: user}
	}
}

// recordLastOpen persists the opened artifact in the background.
func (m AppModel) recordLastOpen(key domain.ArtifactKey) tea.Cmd {
	return func() tea.Msg {
		m.service.RecordLastOpen(key)
		return nil
	}
}

// loadCreatableProjects lists the projects the user can create in.
func (m AppModel) loadCreatableProjects() tea.Cmd {
	creds := m.creds
	return func() tea.Msg {
		projects, err := m.service.CreatableProjects(m.ctx, creds)
		if err != nil {
			return createAbortedMsg{err: fmt.Errorf("failed to list projects: %w", err)}
		}
		if len(projects) == 0 {
			return createAbortedMsg{err: fmt.Errorf("no project lets you create artifacts")}
		}
		return creatableProjectsMsg{projects: projects}
	}
}

// loadFormData fetches the selectable values of the creation form.
func (m AppModel) loadFormData(project domain.Project, kind domain.Kind) tea.Cmd {
	creds := m.creds
	return func() tea.Msg {
		data, err := m.service.GetCreationFormData(m.ctx, creds, project.ID, kind)
		if err != nil {
			return createAbortedMsg{err: fmt.Errorf("failed to load %s form: %w", kind, err)}
		}
		return formDataLoadedMsg{kind: kind, data: data}
	}
}

// createArtifact sends the new artifact to the server.
func (m AppModel) createArtifact(kind domain.Kind, fields spira.CreateFields) tea.Cmd {
	creds := m.creds
	return func() tea.Msg {
		id, err := m.service.CreateArtifact(m.ctx, creds, kind, fields)
		if err != nil {
			return createFailedMsg{err: err}
		}
		return artifactCreatedMsg{kind: kind, projectID: fields.ProjectID, id: id}
	}
}

type loginVerifiedMsg struct {
	creds auth.Credentials
	user  domain.User
}

type formDataLoadedMsg struct {
	kind domain.Kind
	data spira.FormData
}

type artifactCreatedMsg struct {
	kind      domain.Kind
	projectID int
	id        int
}

// Custom messages for app transitions.
type (
	creatableProjectsMsg struct{ projects []domain.Project }
	createAbortedMsg     struct{ err error }
	boardReadyMsg        struct{}
)
