package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/h0rv/spira/internal/auth"
	"github.com/h0rv/spira/internal/domain"
	"github.com/h0rv/spira/internal/spira"
	"github.com/h0rv/spira/internal/store"
	"github.com/muesli/reflow/truncate"
)

// Layout constants
const (
	minColumnWidth = 24
	maxColumnWidth = 60
	headerLines    = 1  // Single header line with title + status
	pageJumpSize   = 10 // Number of items to jump with Ctrl+D/U
)

// Styles for the board view - base styles without width/height (set dynamically)
var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedCardStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true)
)

// BoardModel shows the user's assigned artifacts in one column per kind.
type BoardModel struct {
	// Dependencies
	store   *store.Store
	service *spira.Service
	ctx     context.Context
	creds   auth.Credentials

	// UI components
	keymap      KeyMap
	help        HelpModel
	spinner     spinner.Model
	filterInput textinput.Model

	// Board state
	columns        []domain.Kind                        // Column kinds in display order
	filtered       map[domain.Kind][]domain.ArtifactKey // Kind -> visible artifacts
	selectedColumn int                                  // Currently selected column
	columnOffset   int                                  // Horizontal scroll offset (first visible column index)
	selectedCard   map[domain.Kind]int                  // Kind -> selected artifact index
	scrollOffset   map[domain.Kind]int                  // Kind -> scroll offset

	// View state
	width         int
	height        int
	showHelp      bool
	filterMode    bool
	filterText    string
	loading       bool
	resumed       bool   // Last open artifact already restored
	pendingNotice string // Shown together with the next sync result
	toast         string
	toastIsError  bool
}

// NewBoardModel creates a new board model
func NewBoardModel(s *store.Store, service *spira.Service, ctx context.Context, creds auth.Credentials) BoardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Prompt = "/ "

	return BoardModel{
		store:        s,
		service:      service,
		ctx:          ctx,
		creds:        creds,
		keymap:       DefaultKeyMap(),
		help:         NewHelpModel(DefaultKeyMap()),
		spinner:      sp,
		filterInput:  ti,
		columns:      []domain.Kind{},
		filtered:     make(map[domain.Kind][]domain.ArtifactKey),
		selectedCard: make(map[domain.Kind]int),
		scrollOffset: make(map[domain.Kind]int),
		loading:      true,
	}
}

// boardInitMsg triggers initial column build
type boardInitMsg struct{}

// Init initializes the board and starts the first sync
func (m BoardModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tea.WindowSize(),
		func() tea.Msg { return boardInitMsg{} },
		m.sync(),
	)
}

// Update handles messages
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardInitMsg:
		(&m).rebuildColumns()
		(&m).applyFilter()
		return m, nil

	case syncedMsg:
		return m.handleSynced(msg)

	case refreshBoardMsg:
		m.pendingNotice = msg.notice
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.sync())

	case noticeMsg:
		if msg.err != nil {
			(&m).setError(msg.err)
		} else {
			(&m).setNotice(msg.text)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleSynced stores a sync result and restores the last open artifact
// after the first successful sync.
func (m BoardModel) handleSynced(msg syncedMsg) (tea.Model, tea.Cmd) {
	m.loading = false

	if msg.err != nil {
		(&m).setError(msg.err)
		if spira.IsAuthFailure(msg.err) {
			err := msg.err
			return m, func() tea.Msg { return reloginMsg{err: err} }
		}
		return m, nil
	}

	first := m.store.LastSync().IsZero()
	diff, err := m.store.ReplaceAll(artifactsByKind(msg.result))
	if err != nil {
		(&m).setError(err)
		return m, nil
	}
	(&m).rebuildColumns()
	(&m).applyFilter()

	notice := "Synced: " + diff.String()
	if first {
		notice = fmt.Sprintf("Loaded %d artifacts", msg.result.Total())
	}
	if m.pendingNotice != "" {
		notice = m.pendingNotice + " | " + notice
		m.pendingNotice = ""
	}
	(&m).setNotice(notice)

	cmd := (&m).resume()
	return m, cmd
}

// handleKeyPress processes keyboard input
func (m BoardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global quit
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	// Filter mode
	if m.filterMode {
		switch msg.String() {
		case "enter":
			m.filterMode = false
			m.filterText = m.filterInput.Value()
			m.filterInput.Blur()
			(&m).applyFilter()
			return m, nil
		case "esc":
			m.filterMode = false
			m.filterInput.SetValue(m.filterText)
			m.filterInput.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			return m, cmd
		}
	}

	// Normal navigation
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "/":
		m.filterMode = true
		cmd := m.filterInput.Focus()
		return m, cmd
	case "esc":
		// Clear an applied filter
		if m.filterText != "" {
			m.filterText = ""
			m.filterInput.SetValue("")
			(&m).applyFilter()
		}
	case "h", "left":
		if m.selectedColumn > 0 {
			m.selectedColumn--
			(&m).adjustColumnScroll()
		}
	case "l", "right":
		if m.selectedColumn < len(m.columns)-1 {
			m.selectedColumn++
			(&m).adjustColumnScroll()
		}
	case "j", "down":
		(&m).moveCardSelection(1)
	case "k", "up":
		(&m).moveCardSelection(-1)
	case "g":
		(&m).jumpToCard(0)
	case "G":
		(&m).jumpToCard(-1)
	case "ctrl+d":
		(&m).moveCardSelection(pageJumpSize)
	case "ctrl+u":
		(&m).moveCardSelection(-pageJumpSize)
	case "o":
		if a, ok := m.getSelectedArtifact(); ok {
			return m, openURL(spira.ArtifactURL(m.creds.BaseURL, a))
		}
	case "p":
		return m, m.openMyPage()
	case "r":
		if !m.loading {
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.sync())
		}
	case "n":
		return m, func() tea.Msg { return startCreateMsg{} }
	case "enter":
		if a, ok := m.getSelectedArtifact(); ok {
			return m, func() tea.Msg { return openDetailMsg{artifact: a} }
		}
	}

	return m, nil
}

// View renders the board - fills entire terminal exactly
func (m BoardModel) View() string {
	// Use sensible defaults if dimensions not yet set
	width := m.width
	height := m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	var sections []string

	// === HEADER (title + status) ===
	sections = append(sections, m.renderHeader(width))

	// === SECOND HEADER LINE (navigation hints + position) ===
	sections = append(sections, m.renderSecondHeader(width))

	// === FILTER INPUT (if active) ===
	if m.filterMode {
		sections = append(sections, m.filterInput.View())
	}

	boardHeight := height - 2 // header + second header
	if m.filterMode {
		boardHeight--
	}
	if boardHeight < 5 {
		boardHeight = 5
	}

	// === MAIN CONTENT ===
	var mainContent string
	if m.showHelp {
		helpLines := strings.Split(m.help.View(width), "\n")
		// Truncate help to fit in available space
		if len(helpLines) > boardHeight {
			helpLines = helpLines[:boardHeight]
		}
		mainContent = strings.Join(helpLines, "\n")
	} else if m.loading && m.store.LastSync().IsZero() {
		loadingMsg := m.spinner.View() + " Syncing with SpiraTeam..."
		mainContent = lipgloss.Place(width, boardHeight, lipgloss.Center, lipgloss.Center, loadingMsg)
	} else if len(m.columns) == 0 {
		emptyMsg := "Nothing to show. Press 'r' to refresh."
		mainContent = lipgloss.Place(width, boardHeight, lipgloss.Center, lipgloss.Center, emptyMsg)
	} else {
		mainContent = m.renderBoard(width, boardHeight)
	}
	sections = append(sections, mainContent)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderSecondHeader renders navigation hints and position info
func (m BoardModel) renderSecondHeader(width int) string {
	left := "h/l:col j/k:artifact enter:view o:open n:new"

	// Right side: toast or position info
	right := ""
	if m.toast != "" {
		if m.toastIsError {
			right = errorStyle.Render(m.toast)
		} else {
			right = SuccessStyle.Render(m.toast)
		}
	} else if len(m.columns) > 0 {
		kind := m.columns[m.selectedColumn]
		keys := m.filtered[kind]

		colPos := fmt.Sprintf("col %d/%d", m.selectedColumn+1, len(m.columns))
		if len(keys) > 0 {
			right = fmt.Sprintf("%s | %d/%d", colPos, m.selectedCard[kind]+1, len(keys))
		} else {
			right = colPos
		}
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return dimStyle.Render(left) + strings.Repeat(" ", padding) + right
}

// renderHeader renders a single header line with title on left and status on right
func (m BoardModel) renderHeader(width int) string {
	title := "SpiraTeam"
	if m.creds.Username != "" {
		title = fmt.Sprintf("SpiraTeam - %s@%s", m.creds.Username, hostOf(m.creds.BaseURL))
	}

	var statusParts []string

	if m.loading {
		statusParts = append(statusParts, m.spinner.View()+"syncing")
	}

	total := 0
	for _, keys := range m.filtered {
		total += len(keys)
	}
	statusParts = append(statusParts, fmt.Sprintf("%d artifacts", total))

	if m.filterText != "" {
		statusParts = append(statusParts, "/"+m.filterText)
	}
	if last := m.store.LastSync(); !last.IsZero() {
		statusParts = append(statusParts, "synced "+last.Format("15:04"))
	}

	statusParts = append(statusParts, "[?]help")

	status := strings.Join(statusParts, " | ")

	padding := width - lipgloss.Width(title) - lipgloss.Width(status) - 2
	if padding < 1 {
		padding = 1
	}

	return titleStyle.Render(title) + strings.Repeat(" ", padding) + dimStyle.Render(status)
}

// renderBoard renders the columns within the given dimensions.
// Columns scroll horizontally (carousel) when the terminal is too narrow.
func (m BoardModel) renderBoard(totalWidth, totalHeight int) string {
	numCols := len(m.columns)
	if numCols == 0 {
		return ""
	}

	// lipgloss Border adds 2 lines (top + bottom) to the content height
	colContentHeight := totalHeight - 2
	if colContentHeight < 3 {
		colContentHeight = 3
	}

	maxVisibleCols := totalWidth / minColumnWidth
	if maxVisibleCols < 1 {
		maxVisibleCols = 1
	}

	visibleCols := maxVisibleCols
	if visibleCols > numCols {
		visibleCols = numCols
	}

	colWidth := totalWidth / visibleCols
	if colWidth > maxColumnWidth {
		colWidth = maxColumnWidth
	}
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	// Content width inside column (2 border + 2 padding)
	innerWidth := colWidth - 4
	if innerWidth < 10 {
		innerWidth = 10
	}

	maxCardLines := colContentHeight - 1
	if maxCardLines < 1 {
		maxCardLines = 1
	}

	startCol := m.columnOffset
	endCol := startCol + visibleCols
	if endCol > numCols {
		endCol = numCols
		startCol = endCol - visibleCols
		if startCol < 0 {
			startCol = 0
		}
	}

	columnViews := make([]string, 0, visibleCols+2)

	if startCol > 0 {
		columnViews = append(columnViews, scrollIndicator("◀", colContentHeight+2))
	}

	for i := startCol; i < endCol; i++ {
		columnViews = append(columnViews, m.renderColumn(m.columns[i], i == m.selectedColumn, colWidth, colContentHeight, innerWidth, maxCardLines, i+1))
	}

	if endCol < numCols {
		columnViews = append(columnViews, scrollIndicator("▶", colContentHeight+2))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

func scrollIndicator(arrow string, height int) string {
	return lipgloss.NewStyle().
		Width(2).
		Height(height).
		Foreground(lipgloss.Color("205")).
		Align(lipgloss.Center, lipgloss.Center).
		Render(arrow)
}

// renderColumn renders a single column with proper sizing.
// innerHeight excludes the border; maxCardLines excludes the header.
func (m BoardModel) renderColumn(kind domain.Kind, selected bool, width, innerHeight, innerWidth, maxCardLines, colNum int) string {
	keys := m.filtered[kind]

	// Header: [N] Incidents (count)
	headerText := truncate.StringWithTail(fmt.Sprintf("[%d] %s (%d)", colNum, columnTitle(kind), len(keys)), uint(innerWidth), "…")

	scrollOffset := m.scrollOffset[kind]
	selectedIdx := m.selectedCard[kind]

	cardSlots := maxCardLines - 1
	if cardSlots < 1 {
		cardSlots = 1
	}

	needUpIndicator := scrollOffset > 0
	needDownIndicator := false

	availableSlots := cardSlots
	if needUpIndicator {
		availableSlots--
	}

	endIdx := scrollOffset + availableSlots
	if endIdx > len(keys) {
		endIdx = len(keys)
	}

	if endIdx < len(keys) {
		needDownIndicator = true
		availableSlots--
		endIdx = scrollOffset + availableSlots
		if endIdx > len(keys) {
			endIdx = len(keys)
		}
	}

	var lines []string
	lines = append(lines, columnHeaderStyle.Render(headerText))

	if needUpIndicator {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↑ %d more", scrollOffset)))
	}

	for i := scrollOffset; i < endIdx; i++ {
		a, err := m.store.Get(keys[i])
		if err != nil {
			continue
		}

		cardText := m.formatCardText(a, innerWidth-3) // 3 for "> " or "  " prefix
		if selected && i == selectedIdx {
			lines = append(lines, selectedCardStyle.Render("> "+cardText))
		} else {
			lines = append(lines, cardStyle.Render("  "+cardText))
		}
	}

	remaining := len(keys) - endIdx
	if needDownIndicator && remaining > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↓ %d more", remaining)))
	}

	if len(keys) == 0 {
		lines = append(lines, dimStyle.Render("(none assigned)"))
	}

	borderColor := lipgloss.Color("240")
	if selected {
		borderColor = lipgloss.Color("205")
	}

	// DO NOT use MaxHeight - it truncates the border!
	colStyle := lipgloss.NewStyle().
		Width(width-2).      // Subtract border width
		Height(innerHeight). // Inner content height (border adds 2 to total)
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor)

	return colStyle.Render(strings.Join(lines, "\n"))
}

// formatCardText formats an artifact for display with max width,
// right-aligning its display id.
func (m BoardModel) formatCardText(a domain.Artifact, maxWidth int) string {
	suffix := a.DisplayID()
	suffixLen := lipgloss.Width(suffix)

	availableForTitle := maxWidth - suffixLen - 1
	if availableForTitle < 5 {
		availableForTitle = 5
	}

	title := truncate.StringWithTail(a.Name, uint(availableForTitle), "…")

	padding := maxWidth - lipgloss.Width(title) - suffixLen
	if padding < 1 {
		padding = 1
	}

	return title + strings.Repeat(" ", padding) + dimStyle.Render(suffix)
}

// rebuildColumns rebuilds the column list. Every kind always has a column.
func (m *BoardModel) rebuildColumns() {
	m.columns = make([]domain.Kind, len(domain.Kinds))
	copy(m.columns, domain.Kinds)

	if m.selectedColumn >= len(m.columns) {
		m.selectedColumn = 0
	}
}

// applyFilter filters each column by the current filter text
func (m *BoardModel) applyFilter() {
	m.filtered = make(map[domain.Kind][]domain.ArtifactKey, len(m.columns))

	for _, kind := range m.columns {
		artifacts := m.store.Filter(kind, m.filterText)
		keys := make([]domain.ArtifactKey, len(artifacts))
		for i, a := range artifacts {
			keys[i] = a.Key()
		}
		m.filtered[kind] = keys
	}

	// Reset scroll offsets and clamp selection when the content changes
	for kind, keys := range m.filtered {
		m.scrollOffset[kind] = 0
		if m.selectedCard[kind] >= len(keys) {
			if len(keys) > 0 {
				m.selectedCard[kind] = len(keys) - 1
			} else {
				m.selectedCard[kind] = 0
			}
		}
		m.adjustScroll(kind)
	}
}

// moveCardSelection moves the selection up or down by delta
func (m *BoardModel) moveCardSelection(delta int) {
	if len(m.columns) == 0 {
		return
	}

	kind := m.columns[m.selectedColumn]
	keys := m.filtered[kind]
	if len(keys) == 0 {
		return
	}

	newIdx := m.selectedCard[kind] + delta
	if newIdx < 0 {
		newIdx = 0
	}
	if newIdx >= len(keys) {
		newIdx = len(keys) - 1
	}

	m.selectedCard[kind] = newIdx
	m.adjustScroll(kind)
}

// jumpToCard jumps to a specific index. Use -1 to jump to the last artifact.
func (m *BoardModel) jumpToCard(idx int) {
	if len(m.columns) == 0 {
		return
	}

	kind := m.columns[m.selectedColumn]
	keys := m.filtered[kind]
	if len(keys) == 0 {
		return
	}

	if idx < 0 || idx >= len(keys) {
		idx = len(keys) - 1
	}

	m.selectedCard[kind] = idx
	m.adjustScroll(kind)
}

// selectArtifact moves the cursor onto key if it is visible.
func (m *BoardModel) selectArtifact(key domain.ArtifactKey) bool {
	for col, kind := range m.columns {
		if kind != key.Kind {
			continue
		}
		for i, k := range m.filtered[kind] {
			if k == key {
				m.selectedColumn = col
				m.selectedCard[kind] = i
				m.adjustScroll(kind)
				m.adjustColumnScroll()
				return true
			}
		}
	}
	return false
}

// adjustScroll ensures the selected artifact is visible
func (m *BoardModel) adjustScroll(kind domain.Kind) {
	selectedIdx := m.selectedCard[kind]
	scrollOffset := m.scrollOffset[kind]

	contentHeight := m.height - headerLines - 2 // 2 for column borders
	if m.filterMode {
		contentHeight--
	}
	visibleCards := contentHeight - 3 // header + potential scroll indicators
	if visibleCards < 3 {
		visibleCards = 3
	}

	if selectedIdx < scrollOffset {
		m.scrollOffset[kind] = selectedIdx
	}
	if selectedIdx >= scrollOffset+visibleCards {
		m.scrollOffset[kind] = selectedIdx - visibleCards + 1
	}
}

// adjustColumnScroll ensures the selected column is visible (horizontal carousel)
func (m *BoardModel) adjustColumnScroll() {
	if len(m.columns) == 0 || m.width == 0 {
		return
	}

	visibleCols := m.width / minColumnWidth
	if visibleCols < 1 {
		visibleCols = 1
	}
	if visibleCols > len(m.columns) {
		visibleCols = len(m.columns)
	}

	if m.selectedColumn < m.columnOffset {
		m.columnOffset = m.selectedColumn
	}
	if m.selectedColumn >= m.columnOffset+visibleCols {
		m.columnOffset = m.selectedColumn - visibleCols + 1
	}
}

// getSelectedArtifact returns the artifact under the cursor
func (m BoardModel) getSelectedArtifact() (domain.Artifact, bool) {
	if len(m.columns) == 0 {
		return domain.Artifact{}, false
	}

	kind := m.columns[m.selectedColumn]
	keys := m.filtered[kind]
	if len(keys) == 0 {
		return domain.Artifact{}, false
	}

	idx := m.selectedCard[kind]
	if idx >= len(keys) {
		idx = 0
	}

	a, err := m.store.Get(keys[idx])
	if err != nil {
		return domain.Artifact{}, false
	}
	return a, true
}

// resume reopens the artifact recorded as last open, once per session.
func (m *BoardModel) resume() tea.Cmd {
	if m.resumed {
		return nil
	}
	m.resumed = true

	kind, id, ok := m.creds.LastOpen()
	if !ok {
		return nil
	}
	a, ok := m.store.Find(kind, id)
	if !ok {
		return nil
	}
	m.selectArtifact(a.Key())
	return func() tea.Msg { return openDetailMsg{artifact: a} }
}

func (m *BoardModel) setNotice(text string) {
	m.toast = text
	m.toastIsError = false
}

func (m *BoardModel) setError(err error) {
	m.toast = spira.Describe(err)
	m.toastIsError = true
}

// sync fetches every assigned artifact
func (m BoardModel) sync() tea.Cmd {
	return func() tea.Msg {
		result, err := m.service.SyncAll(m.ctx, m.creds)
		return syncedMsg{result: result, err: err}
	}
}

// openMyPage opens the user's My Page in the browser
func (m BoardModel) openMyPage() tea.Cmd {
	return func() tea.Msg {
		pageURL, err := m.service.Client().MyPageURL(m.ctx, m.creds)
		if err != nil {
			return noticeMsg{err: err}
		}
		if err := spira.OpenURL(pageURL); err != nil {
			return noticeMsg{err: fmt.Errorf("failed to open browser: %w", err)}
		}
		return nil
	}
}

// openURL opens rawURL in the browser, reporting failures as a notice.
func openURL(rawURL string) tea.Cmd {
	return func() tea.Msg {
		if err := spira.OpenURL(rawURL); err != nil {
			return noticeMsg{err: fmt.Errorf("failed to open browser: %w", err)}
		}
		return nil
	}
}

func artifactsByKind(r spira.SyncResult) map[domain.Kind][]domain.Artifact {
	out := make(map[domain.Kind][]domain.Artifact, len(domain.Kinds))
	for _, kind := range domain.Kinds {
		out[kind] = r.ByKind(kind)
	}
	return out
}

// columnTitle returns the plural column heading, e.g. "Incidents".
func columnTitle(kind domain.Kind) string {
	return string(kind) + "s"
}

func hostOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	return u.Host
}

type syncedMsg struct {
	result spira.SyncResult
	err    error
}

type noticeMsg struct {
	text string
	err  error
}

// Message types
type (
	refreshBoardMsg struct{ notice string }
	openDetailMsg   struct{ artifact domain.Artifact }
	startCreateMsg  struct{}
	reloginMsg      struct{ err error }
)
