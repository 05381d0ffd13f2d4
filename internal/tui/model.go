// Package tui is the terminal front-end: a bubbletea program that drives the
// workspace controller through the library, editor and reader screens.
package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/csheth/paperdesk/internal/workspace"
)

const defaultMarkdownStyle = "dark"

// Config wires the program to the workspace. Controller is required.
type Config struct {
	Controller *workspace.Controller
	// Backend names the AI backend in the status bar.
	Backend string
	Logger  *zap.Logger
	// MarkdownStyle is a glamour style name or JSON style path.
	MarkdownStyle string
}

type model struct {
	config Config
	ctrl   *workspace.Controller
	logger *zap.Logger
	jobs   *jobBus
	active map[jobKind]int

	layout  pageLayout
	spinner spinner.Model
	info    string
	err     string

	lib libraryState
	ed  editorState
	rd  readerState
}

// New builds the root model, starting in the library screen.
func New(cfg Config) tea.Model {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MarkdownStyle == "" {
		cfg.MarkdownStyle = defaultMarkdownStyle
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &model{
		config:  cfg,
		ctrl:    cfg.Controller,
		logger:  logger.Named("tui"),
		jobs:    newJobBus(logger),
		active:  map[jobKind]int{},
		layout:  newPageLayout(),
		spinner: sp,
		lib:     newLibraryState(),
		ed:      newEditorState(),
		rd:      newReaderState(),
	}
	m.applyLayout()
	m.refreshLibrary()
	return m
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.applyLayout()
		return m, nil
	case jobSignalMsg:
		idle := !m.busy()
		m.active[msg.Snapshot.Kind]++
		if idle {
			return m, m.spinner.Tick
		}
		return m, nil
	case jobResultEnvelope:
		if m.active[msg.Snapshot.Kind] > 0 {
			m.active[msg.Snapshot.Kind]--
		}
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if _, ok := m.ctrl.View().(workspace.Reading); ok {
			m.refreshPanel()
		}
		return m, cmd
	case noticeExpiredMsg:
		m.expireNotice(msg)
		return m, nil
	case importResultMsg:
		return m, m.handleImportResult(msg)
	case improveResultMsg:
		return m, m.handleImproveResult(msg)
	case chatResultMsg:
		return m, m.handleChatResult(msg)
	case reviewResultMsg:
		return m, m.handleReviewResult(msg)
	case summaryResultMsg:
		return m, m.handleSummaryResult(msg)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		m.err = ""
		m.info = ""
		switch m.ctrl.View().(type) {
		case workspace.Editing:
			return m, m.updateEditor(msg)
		case workspace.Reading:
			return m, m.updateReader(msg)
		default:
			return m, m.updateLibrary(msg)
		}
	}
	return m, m.updateFocused(msg)
}

// updateFocused forwards non-key messages such as cursor blinks to the
// focused input of the active screen.
func (m *model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.ctrl.View().(type) {
	case workspace.Editing:
		if m.ed.focusTitle {
			m.ed.title, cmd = m.ed.title.Update(msg)
		} else {
			m.ed.body, cmd = m.ed.body.Update(msg)
		}
	case workspace.Reading:
		m.rd.chat, cmd = m.rd.chat.Update(msg)
	default:
		switch m.lib.focus {
		case focusSearch:
			m.lib.search, cmd = m.lib.search.Update(msg)
		case focusImport:
			m.lib.importRef, cmd = m.lib.importRef.Update(msg)
		}
	}
	return cmd
}

// syncView prepares the screen for whatever view the controller is in after
// a transition.
func (m *model) syncView() tea.Cmd {
	switch m.ctrl.View().(type) {
	case workspace.Editing:
		return m.enterEditor(m.ctrl.Editor())
	case workspace.Reading:
		return m.enterReader(m.ctrl.Reader())
	default:
		m.ed = resetEditor(m.ed)
		m.rd = resetReader(m.rd)
		m.refreshLibrary()
		return nil
	}
}

func (m *model) applyLayout() {
	width := m.layout.contentWidth
	m.lib.search.Width = width - 4
	m.lib.importRef.Width = width - 12
	m.ed.title.Width = width - 10
	m.ed.body.SetWidth(width)
	m.ed.body.SetHeight(m.layout.editorHeight)
	m.rd.content.Width = width
	m.rd.content.Height = m.layout.readerHeight
	m.rd.panel.Width = width
	m.rd.panel.Height = m.layout.panelHeight
	m.rd.chat.Width = width - 8
	if _, ok := m.ctrl.View().(workspace.Reading); ok {
		m.renderPaper()
		m.refreshPanel()
	}
}

func (m *model) busy() bool {
	for _, n := range m.active {
		if n > 0 {
			return true
		}
	}
	return false
}

func (m *model) setError(msg string) {
	m.err = msg
	m.info = ""
}

func (m *model) setInfo(msg string) {
	m.info = msg
	m.err = ""
}

func (m *model) quit() tea.Cmd {
	m.jobs.Stop()
	return tea.Quit
}
