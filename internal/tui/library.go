package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/paperdesk/internal/papers"
	"github.com/csheth/paperdesk/internal/workspace"
)

type libraryFocus int

const (
	focusList libraryFocus = iota
	focusSearch
	focusImport
)

// Each paper takes a title line and a metadata line.
const libraryRowHeight = 2

type libraryState struct {
	papers    []papers.Paper
	cursor    int
	focus     libraryFocus
	search    textinput.Model
	importRef textinput.Model
}

func newLibraryState() libraryState {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Search titles and abstracts"
	search.CharLimit = 200

	importRef := textinput.New()
	importRef.Prompt = "arXiv › "
	importRef.Placeholder = "2304.03442 or https://arxiv.org/abs/2304.03442"
	importRef.CharLimit = 300

	return libraryState{search: search, importRef: importRef}
}

func (m *model) refreshLibrary() {
	m.lib.papers = m.ctrl.Papers()
	m.clampCursor()
}

func (m *model) clampCursor() {
	if m.lib.cursor >= len(m.lib.papers) {
		m.lib.cursor = len(m.lib.papers) - 1
	}
	if m.lib.cursor < 0 {
		m.lib.cursor = 0
	}
}

func (m *model) selectedPaper() (papers.Paper, bool) {
	if m.lib.cursor < 0 || m.lib.cursor >= len(m.lib.papers) {
		return papers.Paper{}, false
	}
	return m.lib.papers[m.lib.cursor], true
}

func (m *model) selectPaper(id string) {
	for idx, p := range m.lib.papers {
		if p.ID == id {
			m.lib.cursor = idx
			return
		}
	}
}

func (m *model) updateLibrary(msg tea.KeyMsg) tea.Cmd {
	switch m.lib.focus {
	case focusSearch:
		return m.updateLibrarySearch(msg)
	case focusImport:
		return m.updateLibraryImport(msg)
	}

	switch msg.String() {
	case "q":
		return m.quit()
	case "up", "k":
		m.lib.cursor--
		m.clampCursor()
	case "down", "j":
		m.lib.cursor++
		m.clampCursor()
	case "home", "g":
		m.lib.cursor = 0
	case "end", "G":
		m.lib.cursor = len(m.lib.papers) - 1
		m.clampCursor()
	case "/":
		m.lib.focus = focusSearch
		return m.lib.search.Focus()
	case "i":
		m.lib.focus = focusImport
		m.lib.importRef.SetValue("")
		return m.lib.importRef.Focus()
	case "esc":
		if m.lib.search.Value() != "" {
			m.lib.search.SetValue("")
			m.applySearch()
		}
	case "n":
		paper, err := m.ctrl.NewPaper()
		if err != nil {
			m.setError(err.Error())
			return nil
		}
		m.setInfo(fmt.Sprintf("Created draft %s.", paper.ID))
		return m.syncView()
	case "enter":
		paper, ok := m.selectedPaper()
		if !ok {
			return nil
		}
		if _, err := m.ctrl.Open(paper.ID); err != nil {
			m.setError(err.Error())
			return nil
		}
		return m.syncView()
	}
	return nil
}

func (m *model) updateLibrarySearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.lib.focus = focusList
		m.lib.search.Blur()
		return nil
	case "esc":
		m.lib.focus = focusList
		m.lib.search.Blur()
		m.lib.search.SetValue("")
		m.applySearch()
		return nil
	}
	var cmd tea.Cmd
	m.lib.search, cmd = m.lib.search.Update(msg)
	m.applySearch()
	return cmd
}

func (m *model) applySearch() {
	m.lib.papers = m.ctrl.Search(m.lib.search.Value())
	m.lib.cursor = 0
}

func (m *model) updateLibraryImport(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.lib.focus = focusList
		m.lib.importRef.Blur()
		m.lib.importRef.SetValue("")
		return nil
	case "enter":
		ref := strings.TrimSpace(m.lib.importRef.Value())
		if ref == "" {
			return nil
		}
		m.lib.focus = focusList
		m.lib.importRef.Blur()
		m.lib.importRef.SetValue("")
		return m.jobs.Start(jobKindImport, importJob(m.ctrl, ref))
	}
	var cmd tea.Cmd
	m.lib.importRef, cmd = m.lib.importRef.Update(msg)
	return cmd
}

func (m *model) handleImportResult(msg importResultMsg) tea.Cmd {
	if msg.err != nil {
		m.setError(fmt.Sprintf("Import of %s failed: %v", msg.ref, msg.err))
		return nil
	}
	m.setInfo(fmt.Sprintf("Imported %q.", msg.paper.Title))
	if _, ok := m.ctrl.View().(workspace.Library); ok {
		m.refreshLibrary()
		m.selectPaper(msg.paper.ID)
	}
	return nil
}

func (m *model) libraryView() string {
	header := []string{
		titleStyle.Render("PaperDesk"),
		subtitleStyle.Render(m.librarySubtitle()),
	}
	if m.lib.focus == focusSearch || m.lib.search.Value() != "" {
		header = append(header, m.lib.search.View())
	}
	if m.lib.focus == focusImport {
		header = append(header, m.lib.importRef.View())
	}
	return joinNonEmpty(append(header, m.libraryList()))
}

func (m *model) librarySubtitle() string {
	count := len(m.lib.papers)
	noun := "papers"
	if count == 1 {
		noun = "paper"
	}
	if query := m.lib.search.Value(); query != "" {
		return fmt.Sprintf("Library · %d %s matching %q", count, noun, query)
	}
	return fmt.Sprintf("Library · %d %s", count, noun)
}

func (m *model) libraryList() string {
	if len(m.lib.papers) == 0 {
		if query := m.lib.search.Value(); query != "" {
			return helperStyle.Render(fmt.Sprintf("No papers match %q. Press esc to clear the search.", query))
		}
		return helperStyle.Render("The library is empty. Press n to start a draft or i to import from arXiv.")
	}

	visible := m.layout.listHeight / libraryRowHeight
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.lib.cursor >= visible {
		start = m.lib.cursor - visible + 1
	}
	end := start + visible
	if end > len(m.lib.papers) {
		end = len(m.lib.papers)
	}

	cb := &contentBuilder{}
	titleWidth := m.wrapWidth(20)
	for idx := start; idx < end; idx++ {
		p := m.lib.papers[idx]
		marker := "  "
		title := previewText(p.Title, titleWidth)
		if idx == m.lib.cursor {
			marker = "▸ "
			title = currentLineStyle.Render(title)
		}
		cb.Line(marker + statusBadge(p.Status) + " " + title)
		cb.Line("    " + helperStyle.Render(paperMeta(p)))
	}
	if end < len(m.lib.papers) {
		cb.WriteString(helperStyle.Render(fmt.Sprintf("  … %d more", len(m.lib.papers)-end)))
	}
	return strings.TrimRight(cb.String(), "\n")
}

func statusBadge(status papers.Status) string {
	switch status {
	case papers.StatusDraft:
		return draftBadgeStyle.Render(string(status))
	case papers.StatusUnderReview:
		return reviewBadgeStyle.Render(string(status))
	default:
		return publishedBadgeStyle.Render(string(status))
	}
}

func paperMeta(p papers.Paper) string {
	parts := []string{}
	if lead := p.LeadAuthor(); lead.Name != "" {
		author := lead.Name
		if len(p.Authors) > 1 {
			author += " et al."
		}
		parts = append(parts, author)
	}
	if p.PublishDate != "" {
		parts = append(parts, p.PublishDate)
	}
	citations := "citations"
	if p.Citations == 1 {
		citations = "citation"
	}
	parts = append(parts, fmt.Sprintf("%d %s", p.Citations, citations))
	if len(p.Tags) > 0 {
		parts = append(parts, strings.Join(p.Tags, ", "))
	}
	return strings.Join(parts, " · ")
}
