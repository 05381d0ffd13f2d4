package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/paperdesk/internal/gateway"
	"github.com/csheth/paperdesk/internal/session"
)

const noticeTTL = 3 * time.Second

var improveKeys = map[string]gateway.Mode{
	"ctrl+g": gateway.ModeGrammar,
	"ctrl+l": gateway.ModeClarity,
	"ctrl+a": gateway.ModeAcademic,
}

type editorState struct {
	session    *session.Editor
	title      textinput.Model
	body       textarea.Model
	focusTitle bool
	improving  bool
	notice     session.Notice
	hasNotice  bool
	noticeSeq  int
}

type noticeExpiredMsg struct {
	seq int
}

func newEditorState() editorState {
	title := textinput.New()
	title.Prompt = "Title › "
	title.Placeholder = "Untitled Draft"
	title.CharLimit = 300

	body := textarea.New()
	body.Placeholder = "Start writing..."
	body.ShowLineNumbers = false
	body.CharLimit = 0
	body.MaxHeight = 0

	return editorState{title: title, body: body}
}

func resetEditor(s editorState) editorState {
	s.session = nil
	s.improving = false
	s.hasNotice = false
	s.title.Blur()
	s.body.Blur()
	return s
}

func (m *model) enterEditor(ed *session.Editor) tea.Cmd {
	m.ed = resetEditor(m.ed)
	if ed == nil {
		return nil
	}
	m.ed.session = ed
	m.ed.title.SetValue(ed.Title())
	m.ed.title.CursorEnd()
	m.ed.body.SetValue(ed.Content())
	m.ed.focusTitle = false
	return m.ed.body.Focus()
}

func (m *model) updateEditor(msg tea.KeyMsg) tea.Cmd {
	ed := m.ed.session
	if ed == nil {
		return nil
	}
	key := msg.String()
	if mode, ok := improveKeys[key]; ok {
		return m.startImprove(mode)
	}
	switch key {
	case "ctrl+s":
		return m.saveDraft()
	case "esc":
		return m.cancelDraft()
	case "tab", "shift+tab":
		return m.toggleEditorFocus()
	}

	// The draft is locked while a rewrite is running.
	if m.ed.improving || ed.Busy() {
		return nil
	}
	var cmd tea.Cmd
	if m.ed.focusTitle {
		m.ed.title, cmd = m.ed.title.Update(msg)
		ed.SetTitle(m.ed.title.Value())
	} else {
		m.ed.body, cmd = m.ed.body.Update(msg)
		ed.SetContent(m.ed.body.Value())
	}
	return cmd
}

func (m *model) toggleEditorFocus() tea.Cmd {
	m.ed.focusTitle = !m.ed.focusTitle
	if m.ed.focusTitle {
		m.ed.body.Blur()
		return m.ed.title.Focus()
	}
	m.ed.title.Blur()
	return m.ed.body.Focus()
}

func (m *model) saveDraft() tea.Cmd {
	saved, err := m.ctrl.Save()
	if err != nil {
		m.setError(err.Error())
		return nil
	}
	cmd := m.syncView()
	m.selectPaper(saved.ID)
	m.setInfo(fmt.Sprintf("Saved %q.", saved.Title))
	return cmd
}

func (m *model) cancelDraft() tea.Cmd {
	dirty := m.ed.session.Dirty()
	if err := m.ctrl.Cancel(); err != nil {
		m.setError(err.Error())
		return nil
	}
	cmd := m.syncView()
	if dirty {
		m.setInfo("Changes discarded.")
	}
	return cmd
}

func (m *model) startImprove(mode gateway.Mode) tea.Cmd {
	if m.ed.improving {
		return m.showNotice(session.Notice{Kind: session.NoticeInfo, Text: "An improvement is already running."})
	}
	m.ed.improving = true
	m.showNotice(session.NoticeWorking)
	return m.jobs.Start(jobKindImprove, improveJob(m.ed.session, mode))
}

func (m *model) handleImproveResult(msg improveResultMsg) tea.Cmd {
	if msg.editor != m.ed.session {
		return nil
	}
	m.ed.improving = false
	switch {
	case errors.Is(msg.err, session.ErrClosed):
		return nil
	case errors.Is(msg.err, session.ErrBusy):
		return m.showNotice(session.Notice{Kind: session.NoticeInfo, Text: "An improvement is already running."})
	case msg.err != nil:
		notice := msg.notice
		if notice.Text == "" {
			notice = session.NoticeFailed
		}
		return m.showNotice(notice)
	}
	m.ed.body.SetValue(msg.editor.Content())
	return m.showNotice(msg.notice)
}

// showNotice displays n and, unless it marks work in progress, schedules it
// to clear after noticeTTL.
func (m *model) showNotice(n session.Notice) tea.Cmd {
	m.ed.noticeSeq++
	m.ed.notice = n
	m.ed.hasNotice = true
	if n == session.NoticeWorking {
		return nil
	}
	seq := m.ed.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

func (m *model) expireNotice(msg noticeExpiredMsg) {
	if msg.seq == m.ed.noticeSeq {
		m.ed.hasNotice = false
	}
}

func (m *model) editorView() string {
	ed := m.ed.session
	if ed == nil {
		return helperStyle.Render("No draft open.")
	}
	heading := subtitleStyle.Render("Editing · " + ed.PaperID())
	if ed.Dirty() {
		heading += " " + helperStyle.Render("(unsaved changes)")
	}
	parts := []string{
		titleStyle.Render("PaperDesk"),
		heading,
		m.ed.title.View(),
		m.ed.body.View(),
	}
	if m.ed.hasNotice {
		parts = append(parts, m.noticeLine(m.ed.notice))
	}
	return joinNonEmpty(parts)
}

func (m *model) noticeLine(n session.Notice) string {
	switch n.Kind {
	case session.NoticeError:
		return errorStyle.Render(n.Text)
	case session.NoticeSuccess:
		return successStyle.Render(n.Text)
	default:
		if m.ed.improving {
			return helperStyle.Render(m.spinner.View() + " " + n.Text)
		}
		return helperStyle.Render(n.Text)
	}
}
