// Package gateway shapes requests to the generative backend and maps every
// failure onto a deterministic, user-presentable fallback.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/csheth/paperdesk/internal/llm"
)

// Limits bounds how much text is sent to the backend and how long a call may take.
type Limits struct {
	ReviewChars     int
	ChatChars       int
	ImproveMaxChars int
	Timeout         time.Duration
}

// DefaultLimits returns the standard context-window and timeout limits.
func DefaultLimits() Limits {
	return Limits{
		ReviewChars:     10000,
		ChatChars:       20000,
		ImproveMaxChars: 5000,
		Timeout:         30 * time.Second,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.ReviewChars <= 0 {
		l.ReviewChars = def.ReviewChars
	}
	if l.ChatChars <= 0 {
		l.ChatChars = def.ChatChars
	}
	if l.ImproveMaxChars <= 0 {
		l.ImproveMaxChars = def.ImproveMaxChars
	}
	if l.Timeout <= 0 {
		l.Timeout = def.Timeout
	}
	return l
}

// Fallback holds the text an operation reports instead of a reply. Empty is
// used when the backend answered with nothing, Failed when the call failed.
type Fallback struct {
	Empty  string
	Failed string
}

// Fallbacks is the per-operation fallback table. Review degrades to
// FailedReview and improve degrades to the original text.
type Fallbacks struct {
	Summary Fallback
	Chat    Fallback
}

// DefaultFallbacks returns the user-facing fallback messages.
func DefaultFallbacks() Fallbacks {
	return Fallbacks{
		Summary: Fallback{
			Empty:  "Could not generate summary.",
			Failed: "Failed to generate summary. Please check your API key.",
		},
		Chat: Fallback{
			Empty:  "I couldn't understand that.",
			Failed: "I'm having trouble connecting to the AI service right now.",
		},
	}
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLimits overrides the default limits. Zero fields keep their defaults.
func WithLimits(l Limits) Option {
	return func(g *Gateway) { g.limits = l.withDefaults() }
}

// WithFallbacks overrides the fallback table.
func WithFallbacks(f Fallbacks) Option {
	return func(g *Gateway) { g.fallbacks = f }
}

// WithLogger sets the logger used to report backend failures.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Gateway is the single point where the application talks to the AI backend.
// It is safe for concurrent use; it holds no per-request state.
type Gateway struct {
	backend   llm.Backend
	limits    Limits
	fallbacks Fallbacks
	logger    *zap.Logger
}

// New builds a Gateway over backend.
func New(backend llm.Backend, opts ...Option) *Gateway {
	g := &Gateway{
		backend:   backend,
		limits:    DefaultLimits(),
		fallbacks: DefaultFallbacks(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Limits returns the limits in effect.
func (g *Gateway) Limits() Limits {
	return g.limits
}

// Backend names the backend, for display.
func (g *Gateway) Backend() string {
	if g.backend == nil {
		return "none"
	}
	return g.backend.Name()
}

// Summarize returns a short abstract-like paragraph for text.
func (g *Gateway) Summarize(ctx context.Context, text string) string {
	reply, err := g.generate(ctx, "summarize", llm.Request{
		System:      summarySystem,
		Turns:       llm.Prompt(buildSummaryPrompt(text)),
		Temperature: llm.Temperature(0.3),
	})
	if err != nil {
		return g.fallbacks.Summary.Failed
	}
	if strings.TrimSpace(reply) == "" {
		return g.fallbacks.Summary.Empty
	}
	return reply
}

// Review critiques the first ReviewChars characters of text. It never fails:
// any error yields FailedReview.
func (g *Gateway) Review(ctx context.Context, text string) ReviewResult {
	result, err := g.ReviewResult(ctx, text)
	if err != nil {
		return FailedReview()
	}
	return result
}

// ReviewResult is Review with the failure reported instead of degraded.
func (g *Gateway) ReviewResult(ctx context.Context, text string) (ReviewResult, error) {
	const op = "review"
	reply, err := g.generate(ctx, op, llm.Request{
		System: reviewSystem,
		Turns:  llm.Prompt(buildReviewPrompt(text, g.limits.ReviewChars)),
		Schema: reviewSchema,
	})
	if err != nil {
		return ReviewResult{}, err
	}
	result, err := parseReview(reply)
	if err != nil {
		err = malformed(op, err)
		g.logger.Warn("ai response rejected", zap.String("op", op), zap.Error(err))
		return ReviewResult{}, err
	}
	return result, nil
}

// Chat answers message about the paper. The conversation is rebuilt from
// history on every call; nothing is retained between calls.
func (g *Gateway) Chat(ctx context.Context, message, paperContent string, history []llm.Turn) string {
	reply, err := g.generate(ctx, "chat", llm.Request{
		Turns: buildChatTurns(message, paperContent, history, g.limits.ChatChars),
	})
	if err != nil {
		return g.fallbacks.Chat.Failed
	}
	if strings.TrimSpace(reply) == "" {
		return g.fallbacks.Chat.Empty
	}
	return reply
}

// ImproveText rewrites text in the given mode, returning text unchanged on
// any failure.
func (g *Gateway) ImproveText(ctx context.Context, text string, mode Mode) string {
	improved, err := g.ImproveTextResult(ctx, text, mode)
	if err != nil {
		return text
	}
	return improved
}

// ImproveTextResult is ImproveText with failures reported. Text longer than
// ImproveMaxChars is rejected with ErrContentTooLarge before any call. A blank
// reply is not an error and yields the original text.
func (g *Gateway) ImproveTextResult(ctx context.Context, text string, mode Mode) (string, error) {
	const op = "improve"
	instruction, ok := improveInstructions[mode]
	if !ok {
		return text, fmt.Errorf("%s: unknown mode %q", op, mode)
	}
	if n := utf8.RuneCountInString(text); n > g.limits.ImproveMaxChars {
		return text, &Error{Op: op, Kind: ErrContentTooLarge, Err: fmt.Errorf("%d characters exceeds %d", n, g.limits.ImproveMaxChars)}
	}
	reply, err := g.generate(ctx, op, llm.Request{
		System: instruction,
		Turns:  llm.Prompt(buildImprovePrompt(text)),
	})
	if err != nil {
		return text, err
	}
	if strings.TrimSpace(reply) == "" {
		return text, nil
	}
	return reply, nil
}

// generate makes exactly one bounded attempt against the backend.
func (g *Gateway) generate(ctx context.Context, op string, req llm.Request) (string, error) {
	if g.backend == nil {
		err := requestFailure(op, errors.New("no backend configured"))
		g.logger.Warn("ai request failed", zap.String("op", op), zap.Error(err))
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, g.limits.Timeout)
	defer cancel()

	start := time.Now()
	reply, err := g.backend.Generate(ctx, req)
	if err != nil {
		err = requestFailure(op, err)
		g.logger.Warn("ai request failed",
			zap.String("op", op),
			zap.String("backend", g.backend.Name()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return "", err
	}
	g.logger.Debug("ai request finished",
		zap.String("op", op),
		zap.String("backend", g.backend.Name()),
		zap.Duration("duration", time.Since(start)),
		zap.Int("reply_chars", utf8.RuneCountInString(reply)),
	)
	return reply, nil
}
