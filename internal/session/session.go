// Package session holds the per-screen state behind the editor and the reader:
// an edit buffer with an AI rewrite guard, and a chat transcript with a cached
// review and summary.
package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/csheth/paperdesk/internal/gateway"
	"github.com/csheth/paperdesk/internal/llm"
	"github.com/csheth/paperdesk/internal/papers"
)

var (
	// ErrBusy is returned when an improvement is already running; the new
	// request is dropped, not queued.
	ErrBusy = errors.New("an improvement is already in progress")
	// ErrClosed is returned once the session has been torn down.
	ErrClosed = errors.New("session closed")
	// ErrBlankMessage rejects chat messages that are empty after trimming.
	ErrBlankMessage = errors.New("message is blank")
	// ErrContentTooLarge is the gateway's size-limit error.
	ErrContentTooLarge = gateway.ErrContentTooLarge
)

// Assistant is the AI surface a session needs. *gateway.Gateway implements it.
type Assistant interface {
	Summarize(ctx context.Context, text string) string
	Review(ctx context.Context, text string) gateway.ReviewResult
	Chat(ctx context.Context, message, paperContent string, history []llm.Turn) string
	ImproveTextResult(ctx context.Context, text string, mode gateway.Mode) (string, error)
	Limits() gateway.Limits
}

// Store receives saved drafts. *papers.Repository implements it.
type Store interface {
	Update(p papers.Paper)
}

type options struct {
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a session.
type Option func(*options)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// withSession returns a context that is cancelled when either ctx or the
// session context is done.
func withSession(ctx, session context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(session, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
