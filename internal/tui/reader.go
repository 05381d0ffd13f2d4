package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"
	"go.uber.org/zap"

	"github.com/csheth/paperdesk/internal/gateway"
	"github.com/csheth/paperdesk/internal/llm"
	"github.com/csheth/paperdesk/internal/papers"
	"github.com/csheth/paperdesk/internal/session"
)

type readerPanel int

const (
	panelChat readerPanel = iota
	panelReview
	panelSummary
)

var panelNames = []string{"Chat", "Review", "Summary"}

type readerState struct {
	session *session.Reader
	paper   papers.Paper
	content viewport.Model
	panel   viewport.Model
	chat    textinput.Model
	mode    readerPanel

	reviewing   bool
	review      *gateway.ReviewResult
	reviewErr   string
	summarizing bool
	summary     string
	summaryErr  string

	renderer      *glamour.TermRenderer
	rendererWidth int
}

func newReaderState() readerState {
	chat := textinput.New()
	chat.Prompt = "Ask › "
	chat.Placeholder = "Ask a question about this paper"
	chat.CharLimit = 2000

	return readerState{
		content: viewport.New(80, 12),
		panel:   viewport.New(80, 6),
		chat:    chat,
	}
}

func resetReader(s readerState) readerState {
	s.session = nil
	s.paper = papers.Paper{}
	s.mode = panelChat
	s.reviewing = false
	s.review = nil
	s.reviewErr = ""
	s.summarizing = false
	s.summary = ""
	s.summaryErr = ""
	s.chat.SetValue("")
	s.chat.Blur()
	s.content.SetContent("")
	s.panel.SetContent("")
	return s
}

func (m *model) enterReader(rd *session.Reader) tea.Cmd {
	m.rd = resetReader(m.rd)
	if rd == nil {
		return nil
	}
	m.rd.session = rd
	m.rd.paper = rd.Paper()
	m.renderPaper()
	m.rd.content.GotoTop()
	m.refreshPanel()
	return m.rd.chat.Focus()
}

func (m *model) updateReader(msg tea.KeyMsg) tea.Cmd {
	rd := m.rd.session
	if rd == nil {
		return nil
	}
	var cmd tea.Cmd
	switch msg.String() {
	case "esc":
		if err := m.ctrl.Back(); err != nil {
			m.setError(err.Error())
			return nil
		}
		return m.syncView()
	case "ctrl+r":
		return m.startReview()
	case "ctrl+u":
		return m.startSummary()
	case "tab":
		m.rd.mode = (m.rd.mode + 1) % readerPanel(len(panelNames))
		m.refreshPanel()
		m.rd.panel.GotoTop()
		return nil
	case "pgup", "pgdown":
		m.rd.content, cmd = m.rd.content.Update(msg)
		return cmd
	case "up", "down":
		m.rd.panel, cmd = m.rd.panel.Update(msg)
		return cmd
	case "enter":
		return m.sendChat()
	}
	m.rd.chat, cmd = m.rd.chat.Update(msg)
	return cmd
}

func (m *model) sendChat() tea.Cmd {
	text := strings.TrimSpace(m.rd.chat.Value())
	if text == "" {
		return nil
	}
	rd := m.rd.session
	pending := rd.SendAsync(text)
	m.rd.chat.SetValue("")
	m.rd.mode = panelChat
	m.refreshPanel()
	m.rd.panel.GotoBottom()
	return m.jobs.Start(jobKindChat, chatJob(rd, pending))
}

func (m *model) handleChatResult(msg chatResultMsg) tea.Cmd {
	if msg.reader != m.rd.session {
		return nil
	}
	if err := msg.result.Err; err != nil && !errors.Is(err, session.ErrClosed) {
		m.setError(fmt.Sprintf("Chat failed: %v", err))
	}
	m.refreshPanel()
	if m.rd.mode == panelChat {
		m.rd.panel.GotoBottom()
	}
	return nil
}

// startReview shows the review panel and requests a review unless one is
// cached. A degraded review is discarded so the request is retried.
func (m *model) startReview() tea.Cmd {
	m.rd.mode = panelReview
	if m.rd.review != nil && m.rd.review.Failed() {
		m.rd.session.ResetReview()
		m.rd.review = nil
	}
	if m.rd.review != nil || m.rd.reviewing {
		m.refreshPanel()
		return nil
	}
	m.rd.reviewing = true
	m.rd.reviewErr = ""
	m.refreshPanel()
	return m.jobs.Start(jobKindReview, reviewJob(m.rd.session))
}

func (m *model) handleReviewResult(msg reviewResultMsg) tea.Cmd {
	if msg.reader != m.rd.session {
		return nil
	}
	m.rd.reviewing = false
	switch {
	case errors.Is(msg.err, session.ErrClosed):
		return nil
	case msg.err != nil:
		m.rd.reviewErr = msg.err.Error()
	default:
		review := msg.review
		m.rd.review = &review
	}
	m.refreshPanel()
	return nil
}

func (m *model) startSummary() tea.Cmd {
	m.rd.mode = panelSummary
	if m.rd.summary != "" || m.rd.summarizing {
		m.refreshPanel()
		return nil
	}
	m.rd.summarizing = true
	m.rd.summaryErr = ""
	m.refreshPanel()
	return m.jobs.Start(jobKindSummary, summaryJob(m.rd.session))
}

func (m *model) handleSummaryResult(msg summaryResultMsg) tea.Cmd {
	if msg.reader != m.rd.session {
		return nil
	}
	m.rd.summarizing = false
	switch {
	case errors.Is(msg.err, session.ErrClosed):
		return nil
	case msg.err != nil:
		m.rd.summaryErr = msg.err.Error()
	default:
		m.rd.summary = msg.summary
	}
	m.refreshPanel()
	return nil
}

// renderPaper renders the abstract and markdown body into the content
// viewport, rebuilding the glamour renderer when the width changes.
func (m *model) renderPaper() {
	width := m.layout.contentWidth
	if m.rd.renderer == nil || m.rd.rendererWidth != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStylePath(m.config.MarkdownStyle),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			m.logger.Warn("markdown renderer unavailable", zap.String("style", m.config.MarkdownStyle), zap.Error(err))
			renderer = nil
		}
		m.rd.renderer = renderer
		m.rd.rendererWidth = width
	}

	cb := &contentBuilder{}
	if abstract := strings.TrimSpace(m.rd.paper.Abstract); abstract != "" {
		cb.Line(sectionHeaderStyle.Render("Abstract"))
		cb.Line(wordwrap.String(abstract, m.wrapWidth(2)))
		cb.WriteRune('\n')
	}
	cb.WriteString(m.renderMarkdown(m.rd.paper.Content))
	m.rd.content.SetContent(cb.String())
}

func (m *model) renderMarkdown(body string) string {
	if m.rd.renderer != nil {
		out, err := m.rd.renderer.Render(body)
		if err == nil {
			return out
		}
		m.logger.Warn("render markdown", zap.String("paper_id", m.rd.paper.ID), zap.Error(err))
	}
	return wordwrap.String(body, m.wrapWidth(0))
}

func (m *model) refreshPanel() {
	if m.rd.session == nil {
		m.rd.panel.SetContent("")
		return
	}
	cb := &contentBuilder{}
	switch m.rd.mode {
	case panelReview:
		m.writeReview(cb)
	case panelSummary:
		m.writeSummary(cb)
	default:
		m.writeTranscript(cb)
	}
	m.rd.panel.SetContent(strings.TrimRight(cb.String(), "\n"))
}

func (m *model) writeTranscript(cb *contentBuilder) {
	transcript := m.rd.session.Transcript()
	if len(transcript) == 0 {
		cb.Line(helperStyle.Render("Ask a question about this paper and press enter."))
		return
	}
	wrap := m.wrapWidth(4)
	for _, msg := range transcript {
		label := "You"
		if msg.Role == llm.RoleModel {
			label = "Assistant"
		}
		cb.Line(helperStyle.Render(fmt.Sprintf("%s · %s", label, msg.Timestamp.Format("15:04"))))
		cb.Line(indentMultiline(wordwrap.String(msg.Text, wrap), "  "))
	}
	if m.rd.session.Pending() > 0 {
		cb.Line(helperStyle.Render(m.spinner.View() + " Assistant is typing…"))
	}
}

func (m *model) writeReview(cb *contentBuilder) {
	switch {
	case m.rd.reviewing:
		cb.Line(helperStyle.Render(m.spinner.View() + " Reviewing the paper…"))
		return
	case m.rd.reviewErr != "":
		cb.Line(errorStyle.Render(m.rd.reviewErr))
		return
	case m.rd.review == nil:
		cb.Line(helperStyle.Render("Press ctrl+r for an AI peer review."))
		return
	}

	review := *m.rd.review
	wrap := m.wrapWidth(4)
	if review.Failed() {
		cb.Line(errorStyle.Render(review.Summary))
	} else {
		cb.Line(scoreStyle.Render(fmt.Sprintf("Score %.1f/10", review.Score)))
		cb.Line(wordwrap.String(review.Summary, wrap))
	}
	writeBullets(cb, "Strengths", review.Strengths, wrap)
	writeBullets(cb, "Weaknesses", review.Weaknesses, wrap)
	if review.Failed() {
		cb.Line(helperStyle.Render("Press ctrl+r to try again."))
	}
}

func writeBullets(cb *contentBuilder, title string, items []string, wrap int) {
	if len(items) == 0 {
		return
	}
	cb.Line(sectionHeaderStyle.Render(title))
	for _, item := range items {
		cb.Line(" • " + wordwrap.String(item, wrap))
	}
}

func (m *model) writeSummary(cb *contentBuilder) {
	switch {
	case m.rd.summarizing:
		cb.Line(helperStyle.Render(m.spinner.View() + " Summarizing…"))
	case m.rd.summaryErr != "":
		cb.Line(errorStyle.Render(m.rd.summaryErr))
	case m.rd.summary == "":
		cb.Line(helperStyle.Render("Press ctrl+u for an AI summary."))
	default:
		cb.Line(wordwrap.String(m.rd.summary, m.wrapWidth(2)))
	}
}

func (m *model) readerView() string {
	p := m.rd.paper
	if m.rd.session == nil {
		return helperStyle.Render("No paper open.")
	}
	tabs := make([]string, len(panelNames))
	for idx, name := range panelNames {
		if readerPanel(idx) == m.rd.mode {
			tabs[idx] = keyStyle.Render(name)
		} else {
			tabs[idx] = keyDescStyle.Render(name)
		}
	}
	return joinNonEmpty([]string{
		subtitleStyle.Render(previewText(p.Title, m.wrapWidth(0))),
		statusBadge(p.Status) + " " + subjectStyle.Render(paperMeta(p)),
		m.rd.content.View(),
		strings.Join(tabs, " "),
		m.rd.panel.View(),
		m.rd.chat.View(),
	})
}
