// Package workspace decides which screen is active and owns the session that
// backs it.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/csheth/paperdesk/internal/papers"
	"github.com/csheth/paperdesk/internal/session"
)

var (
	// ErrUnknownPaper is returned when an id is not in the repository.
	ErrUnknownPaper = errors.New("unknown paper")
	// ErrInvalidTransition is returned for an action the current view does not allow.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNoImporter is returned by Import when no importer is configured.
	ErrNoImporter = errors.New("paper import is not configured")
)

// Importer fetches a paper record from an external source.
type Importer interface {
	Import(ctx context.Context, ref string) (papers.Paper, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithUser sets the acting user, who becomes first author of new papers.
func WithUser(user papers.Author) Option {
	return func(c *Controller) { c.user = user }
}

// WithImporter enables Import.
func WithImporter(importer Importer) Option {
	return func(c *Controller) { c.importer = importer }
}

// WithLogger sets the controller logger; sessions inherit it.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSessionOptions passes extra options to every session the controller opens.
func WithSessionOptions(opts ...session.Option) Option {
	return func(c *Controller) { c.sessionOpts = append(c.sessionOpts, opts...) }
}

// Controller is the view state machine:
//
//	Library --NewPaper/Open(draft)--> Editing --Save/Cancel--> Library
//	Library --Open(non-draft)-------> Reading --Back---------> Library
//
// Any other action is rejected with ErrInvalidTransition and changes nothing.
type Controller struct {
	repo        *papers.Repository
	ai          session.Assistant
	importer    Importer
	user        papers.Author
	logger      *zap.Logger
	sessionOpts []session.Option

	mu     sync.Mutex
	view   View
	editor *session.Editor
	reader *session.Reader
	query  string
}

// New returns a controller in the Library view.
func New(repo *papers.Repository, ai session.Assistant, opts ...Option) *Controller {
	c := &Controller{
		repo:   repo,
		ai:     ai,
		user:   papers.DefaultUser,
		logger: zap.NewNop(),
		view:   Library{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// View returns the active view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Editor returns the editing session, or nil outside Editing.
func (c *Controller) Editor() *session.Editor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editor
}

// Reader returns the reading session, or nil outside Reading.
func (c *Controller) Reader() *session.Reader {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reader
}

// User is the acting user.
func (c *Controller) User() papers.Author {
	return c.user
}

// Query is the current library search.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Papers lists the library filtered by the current query.
func (c *Controller) Papers() []papers.Paper {
	return c.repo.Filter(c.Query())
}

// Search stores query and returns the matching papers.
func (c *Controller) Search(query string) []papers.Paper {
	c.mu.Lock()
	c.query = query
	c.mu.Unlock()
	return c.repo.Filter(query)
}

// NewPaper creates a draft authored by the acting user and opens it.
func (c *Controller) NewPaper() (papers.Paper, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireLocked("new paper", Library{}); err != nil {
		return papers.Paper{}, err
	}
	paper := c.repo.Create([]papers.Author{c.user})
	c.openEditorLocked(paper)
	c.logger.Info("paper created", zap.String("paper_id", paper.ID))
	return paper, nil
}

// Open opens a paper from the library: drafts in the editor, anything else in
// the reader.
func (c *Controller) Open(id string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireLocked("open", Library{}); err != nil {
		return c.view, err
	}
	paper, ok := c.repo.Get(id)
	if !ok {
		return c.view, fmt.Errorf("open %q: %w", id, ErrUnknownPaper)
	}
	if paper.IsDraft() {
		c.openEditorLocked(paper)
	} else {
		c.reader = session.NewReader(paper, c.ai, c.sessionOptions()...)
		c.view = Reading{PaperID: paper.ID}
	}
	c.logger.Debug("view changed", zap.Stringer("view", c.view))
	return c.view, nil
}

// Save commits the draft and returns to the library.
func (c *Controller) Save() (papers.Paper, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireLocked("save", Editing{}); err != nil {
		return papers.Paper{}, err
	}
	saved, err := c.editor.Save()
	if err != nil {
		return papers.Paper{}, fmt.Errorf("save %q: %w", c.editor.PaperID(), err)
	}
	c.toLibraryLocked()
	c.logger.Info("paper saved", zap.String("paper_id", saved.ID))
	return saved, nil
}

// Cancel discards the draft and returns to the library.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireLocked("cancel", Editing{}); err != nil {
		return err
	}
	c.toLibraryLocked()
	return nil
}

// Back leaves the reader.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireLocked("back", Reading{}); err != nil {
		return err
	}
	c.toLibraryLocked()
	return nil
}

// Import fetches a paper through the configured importer and adds it to the
// library. It is only allowed from the Library view.
func (c *Controller) Import(ctx context.Context, ref string) (papers.Paper, error) {
	c.mu.Lock()
	err := c.requireLocked("import", Library{})
	c.mu.Unlock()
	if err != nil {
		return papers.Paper{}, err
	}
	if c.importer == nil {
		return papers.Paper{}, ErrNoImporter
	}
	paper, err := c.importer.Import(ctx, ref)
	if err != nil {
		return papers.Paper{}, fmt.Errorf("import %q: %w", ref, err)
	}
	paper = c.repo.Add(paper)
	c.logger.Info("paper imported", zap.String("paper_id", paper.ID), zap.String("ref", ref))
	return paper, nil
}

// Close tears down any open session.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeSessionLocked()
}

func (c *Controller) requireLocked(action string, want View) error {
	var ok bool
	switch want.(type) {
	case Library:
		_, ok = c.view.(Library)
	case Editing:
		_, ok = c.view.(Editing)
	case Reading:
		_, ok = c.view.(Reading)
	}
	if !ok {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, c.view)
	}
	return nil
}

func (c *Controller) openEditorLocked(paper papers.Paper) {
	c.editor = session.NewEditor(paper, c.repo, c.ai, c.sessionOptions()...)
	c.view = Editing{PaperID: paper.ID}
}

func (c *Controller) toLibraryLocked() {
	c.closeSessionLocked()
	c.view = Library{}
	c.logger.Debug("view changed", zap.Stringer("view", c.view))
}

func (c *Controller) closeSessionLocked() {
	if c.editor != nil {
		c.editor.Close()
		c.editor = nil
	}
	if c.reader != nil {
		c.reader.Close()
		c.reader = nil
	}
}

func (c *Controller) sessionOptions() []session.Option {
	return append([]session.Option{session.WithLogger(c.logger)}, c.sessionOpts...)
}
