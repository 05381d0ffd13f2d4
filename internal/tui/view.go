package tui

import (
	"fmt"
	"strings"

	"github.com/csheth/paperdesk/internal/workspace"
)

type keyHint struct {
	key  string
	desc string
}

func (m *model) View() string {
	var body string
	switch m.ctrl.View().(type) {
	case workspace.Editing:
		body = m.editorView()
	case workspace.Reading:
		body = m.readerView()
	default:
		body = m.libraryView()
	}
	return joinNonEmpty([]string{body, m.messageLine(), m.footerView()})
}

func (m *model) messageLine() string {
	switch {
	case m.err != "":
		return errorStyle.Render(m.err)
	case m.info != "":
		return helperStyle.Render(m.info)
	case m.active[jobKindImport] > 0:
		return helperStyle.Render(m.spinner.View() + " Importing from arXiv…")
	}
	return ""
}

func (m *model) footerView() string {
	status := fmt.Sprintf("PaperDesk · %s", m.ctrl.View())
	if backend := strings.TrimSpace(m.config.Backend); backend != "" {
		status += " · " + backend
	}
	if m.busy() {
		status += " · working"
	}
	return joinNonEmpty([]string{
		statusBarStyle.Render(status),
		renderKeyHints(m.keyHints()),
	})
}

func (m *model) keyHints() []keyHint {
	switch m.ctrl.View().(type) {
	case workspace.Editing:
		return []keyHint{
			{"ctrl+s", "save"},
			{"esc", "cancel"},
			{"tab", "title/body"},
			{"ctrl+g", "grammar"},
			{"ctrl+l", "clarity"},
			{"ctrl+a", "academic"},
		}
	case workspace.Reading:
		return []keyHint{
			{"enter", "send"},
			{"ctrl+r", "review"},
			{"ctrl+u", "summary"},
			{"tab", "panel"},
			{"pgup/pgdn", "scroll"},
			{"esc", "back"},
		}
	}
	switch m.lib.focus {
	case focusSearch:
		return []keyHint{{"enter", "done"}, {"esc", "clear"}}
	case focusImport:
		return []keyHint{{"enter", "import"}, {"esc", "cancel"}}
	}
	return []keyHint{
		{"↑/↓", "move"},
		{"enter", "open"},
		{"n", "new"},
		{"/", "search"},
		{"i", "import"},
		{"q", "quit"},
	}
}

func renderKeyHints(hints []keyHint) string {
	parts := make([]string, 0, len(hints))
	for _, hint := range hints {
		parts = append(parts, keyStyle.Render(hint.key)+" "+keyDescStyle.Render(hint.desc))
	}
	return strings.Join(parts, "  ")
}
