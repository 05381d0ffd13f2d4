package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/csheth/paperdesk/internal/gateway"
	"github.com/csheth/paperdesk/internal/papers"
)

// NoticeKind classifies an editor notice for display.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeError
)

// Notice is a short user-visible status line.
type Notice struct {
	Kind NoticeKind
	Text string
}

var (
	NoticeWorking  = Notice{Kind: NoticeInfo, Text: "AI is rewriting your text..."}
	NoticeUpdated  = Notice{Kind: NoticeSuccess, Text: "Text updated successfully!"}
	NoticeFailed   = Notice{Kind: NoticeError, Text: "Failed to improve text."}
	NoticeTooLarge = Notice{Kind: NoticeError, Text: "Content too long for full auto-improve. Please select a section."}
)

// Editor is the draft buffer for one paper. Edits stay local until Save.
type Editor struct {
	store  Store
	ai     Assistant
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	paper   papers.Paper
	title   string
	content string
	busy    bool
	closed  bool
}

// NewEditor opens an editing session over p.
func NewEditor(p papers.Paper, store Store, ai Assistant, opts ...Option) *Editor {
	o := buildOptions(opts)
	ctx, cancel := context.WithCancel(context.Background())
	return &Editor{
		store:   store,
		ai:      ai,
		logger:  o.logger.With(zap.String("paper_id", p.ID)),
		ctx:     ctx,
		cancel:  cancel,
		paper:   p.Clone(),
		title:   p.Title,
		content: p.Content,
	}
}

// PaperID identifies the paper being edited.
func (e *Editor) PaperID() string {
	return e.paper.ID
}

func (e *Editor) SetTitle(title string) {
	e.mu.Lock()
	e.title = title
	e.mu.Unlock()
}

func (e *Editor) SetContent(content string) {
	e.mu.Lock()
	e.content = content
	e.mu.Unlock()
}

func (e *Editor) Title() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.title
}

func (e *Editor) Content() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content
}

// Dirty reports whether the draft differs from the paper it was opened with.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.title != e.paper.Title || e.content != e.paper.Content
}

// Busy reports whether an improvement is in flight.
func (e *Editor) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// Draft returns the original paper with the edited title and content.
func (e *Editor) Draft() papers.Paper {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draftLocked()
}

func (e *Editor) draftLocked() papers.Paper {
	draft := e.paper.Clone()
	draft.Title = e.title
	draft.Content = e.content
	return draft
}

// Save writes the draft back to the store.
func (e *Editor) Save() (papers.Paper, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return papers.Paper{}, ErrClosed
	}
	draft := e.draftLocked()
	e.paper = draft.Clone()
	e.mu.Unlock()

	e.store.Update(draft)
	e.logger.Debug("draft saved")
	return draft, nil
}

// Improve rewrites the whole content in the given mode. Only one improvement
// runs at a time. On success the content is replaced with the rewrite, which
// overwrites any edits made while the request was running.
func (e *Editor) Improve(ctx context.Context, mode gateway.Mode) (Notice, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Notice{}, ErrClosed
	}
	if e.busy {
		e.mu.Unlock()
		return Notice{}, ErrBusy
	}
	text := e.content
	limit := e.ai.Limits().ImproveMaxChars
	if n := utf8.RuneCountInString(text); n > limit {
		e.mu.Unlock()
		return NoticeTooLarge, fmt.Errorf("improve: %d characters exceeds %d: %w", n, limit, ErrContentTooLarge)
	}
	e.busy = true
	e.mu.Unlock()

	callCtx, cancel := withSession(ctx, e.ctx)
	defer cancel()
	improved, err := e.ai.ImproveTextResult(callCtx, text, mode)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false
	if e.closed {
		return Notice{}, ErrClosed
	}
	if err != nil {
		e.logger.Warn("improve failed", zap.String("mode", string(mode)), zap.Error(err))
		if errors.Is(err, ErrContentTooLarge) {
			return NoticeTooLarge, err
		}
		return NoticeFailed, err
	}
	e.content = improved
	return NoticeUpdated, nil
}

// Close discards the session. An improvement still running is cancelled and
// its result dropped.
func (e *Editor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancel()
}
