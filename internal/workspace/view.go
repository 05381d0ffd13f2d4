package workspace

import "fmt"

// View is the active screen. The set of views is closed: Library, Editing
// and Reading are the only implementations.
type View interface {
	fmt.Stringer
	view()
}

// Library is the paper list.
type Library struct{}

// Editing is the editor over a draft paper.
type Editing struct {
	PaperID string
}

// Reading is the reader over a non-draft paper.
type Reading struct {
	PaperID string
}

func (Library) view() {}
func (Editing) view() {}
func (Reading) view() {}

func (Library) String() string   { return "library" }
func (v Editing) String() string { return "editing(" + v.PaperID + ")" }
func (v Reading) String() string { return "reading(" + v.PaperID + ")" }
