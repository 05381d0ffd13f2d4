package tui

import "testing"

func TestPageLayoutUpdate(t *testing.T) {
	cases := []struct {
		name         string
		width        int
		height       int
		contentWidth int
		listHeight   int
		editorHeight int
		readerHeight int
		panelHeight  int
	}{
		{name: "narrow", width: 80, height: 24, contentWidth: 76, listHeight: 18, editorHeight: 16, readerHeight: 10, panelHeight: 6},
		{name: "wide", width: 200, height: 40, contentWidth: 196, listHeight: 34, editorHeight: 32, readerHeight: 21, panelHeight: 11},
		{name: "tiny", width: 30, height: 8, contentWidth: 40, listHeight: 10, editorHeight: 8, readerHeight: 4, panelHeight: 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := newPageLayout()
			layout.Update(tc.width, tc.height)
			if layout.contentWidth != tc.contentWidth {
				t.Fatalf("content width mismatch: got %d want %d", layout.contentWidth, tc.contentWidth)
			}
			if layout.listHeight != tc.listHeight {
				t.Fatalf("list height mismatch: got %d want %d", layout.listHeight, tc.listHeight)
			}
			if layout.editorHeight != tc.editorHeight {
				t.Fatalf("editor height mismatch: got %d want %d", layout.editorHeight, tc.editorHeight)
			}
			if layout.readerHeight != tc.readerHeight {
				t.Fatalf("reader height mismatch: got %d want %d", layout.readerHeight, tc.readerHeight)
			}
			if layout.panelHeight != tc.panelHeight {
				t.Fatalf("panel height mismatch: got %d want %d", layout.panelHeight, tc.panelHeight)
			}
		})
	}
}

func TestPreviewTextCollapsesWhitespace(t *testing.T) {
	if got := previewText("  a\n\nb   c ", 0); got != "a b c" {
		t.Fatalf("previewText = %q", got)
	}
	if got := previewText("abcdefgh", 4); got != "abcd…" {
		t.Fatalf("previewText truncated = %q", got)
	}
}

func TestJoinNonEmptySkipsBlankParts(t *testing.T) {
	if got := joinNonEmpty([]string{"a", "", "  ", "b"}); got != "a\nb" {
		t.Fatalf("joinNonEmpty = %q", got)
	}
}
