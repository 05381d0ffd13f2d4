package tui

import (
	"strings"
)

const (
	horizontalPadding = 4
	minContentWidth   = 40
	chromeHeight      = 6
	composerHeight    = 2
	titleFieldHeight  = 2
)

// pageLayout sizes every screen from the terminal dimensions.
type pageLayout struct {
	windowWidth  int
	windowHeight int
	contentWidth int
	listHeight   int
	editorHeight int
	readerHeight int
	panelHeight  int
}

func newPageLayout() pageLayout {
	return pageLayout{
		contentWidth: 80,
		listHeight:   18,
		editorHeight: 16,
		readerHeight: 12,
		panelHeight:  6,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	inner := width - horizontalPadding
	if inner < minContentWidth {
		inner = minContentWidth
	}
	l.contentWidth = inner
	usable := height - chromeHeight
	if usable < 10 {
		usable = 10
	}
	l.listHeight = usable
	l.editorHeight = usable - titleFieldHeight
	l.panelHeight = usable / 3
	if l.panelHeight < 4 {
		l.panelHeight = 4
	}
	l.readerHeight = usable - l.panelHeight - composerHeight
	if l.readerHeight < 4 {
		l.readerHeight = 4
	}
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

// Line writes s followed by a newline.
func (cb *contentBuilder) Line(s string) {
	cb.WriteString(s)
	cb.WriteRune('\n')
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Lines() int {
	return cb.lines
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func previewText(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func (m *model) wrapWidth(padding int) int {
	width := m.layout.contentWidth
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func joinNonEmpty(parts []string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "\n")
}
