package session

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/csheth/paperdesk/internal/gateway"
	"github.com/csheth/paperdesk/internal/llm"
	"github.com/csheth/paperdesk/internal/papers"
)

// ChatMessage is one entry of a reading-session transcript.
type ChatMessage struct {
	ID        string
	Role      llm.Role
	Text      string
	Timestamp time.Time
}

// ChatResult carries the model reply for one send.
type ChatResult struct {
	Message ChatMessage
	Err     error
}

type chatJob struct {
	user   ChatMessage
	result chan ChatResult
}

const (
	reviewKey  = "review"
	summaryKey = "summary"
)

// Reader is the reading session for one paper: a chat transcript served in
// send order by a single worker, plus a review and a summary that are each
// generated at most once.
type Reader struct {
	paper  papers.Paper
	ai     Assistant
	logger *zap.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wake   chan struct{}
	flight singleflight.Group
	calls  sync.WaitGroup

	mu         sync.Mutex
	entropy    *ulid.MonotonicEntropy
	transcript []ChatMessage
	exchanges  []llm.Turn
	queue      []chatJob
	pending    map[string]struct{}
	review     *gateway.ReviewResult
	reviewGen  uint64
	summary    *string
	closed     bool
}

// NewReader opens a reading session over p and starts its chat worker.
// Close must be called to stop it.
func NewReader(p papers.Paper, ai Assistant, opts ...Option) *Reader {
	o := buildOptions(opts)
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reader{
		paper:   p.Clone(),
		ai:      ai,
		logger:  o.logger.With(zap.String("paper_id", p.ID)),
		now:     o.now,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		wake:    make(chan struct{}, 1),
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		pending: make(map[string]struct{}),
	}
	go r.run()
	return r
}

// Paper returns the paper being read.
func (r *Reader) Paper() papers.Paper {
	return r.paper.Clone()
}

// Send appends text as a user message and waits for the model reply. If ctx
// ends first the send still completes in the background.
func (r *Reader) Send(ctx context.Context, text string) (ChatMessage, error) {
	select {
	case res := <-r.SendAsync(text):
		return res.Message, res.Err
	case <-ctx.Done():
		return ChatMessage{}, ctx.Err()
	}
}

// SendAsync appends text as a user message and queues it. The returned
// channel receives exactly one result.
func (r *Reader) SendAsync(text string) <-chan ChatResult {
	result := make(chan ChatResult, 1)
	if strings.TrimSpace(text) == "" {
		result <- ChatResult{Err: ErrBlankMessage}
		return result
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		result <- ChatResult{Err: ErrClosed}
		return result
	}
	msg := r.appendLocked(llm.RoleUser, text)
	r.pending[msg.ID] = struct{}{}
	r.queue = append(r.queue, chatJob{user: msg, result: result})
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return result
}

// Pending reports how many sends are waiting for a reply.
func (r *Reader) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Transcript returns a copy of the conversation so far.
func (r *Reader) Transcript() []ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ChatMessage(nil), r.transcript...)
}

func (r *Reader) appendLocked(role llm.Role, text string) ChatMessage {
	now := r.now()
	msg := ChatMessage{
		ID:        ulid.MustNew(ulid.Timestamp(now), r.entropy).String(),
		Role:      role,
		Text:      text,
		Timestamp: now,
	}
	r.transcript = append(r.transcript, msg)
	return msg
}

func (r *Reader) run() {
	defer close(r.done)
	for {
		job, ok := r.next()
		if !ok {
			return
		}
		r.serve(job)
	}
}

func (r *Reader) next() (chatJob, bool) {
	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return chatJob{}, false
		}
		if len(r.queue) > 0 {
			job := r.queue[0]
			r.queue = r.queue[1:]
			r.mu.Unlock()
			return job, true
		}
		r.mu.Unlock()

		select {
		case <-r.wake:
		case <-r.ctx.Done():
		}
	}
}

func (r *Reader) serve(job chatJob) {
	r.mu.Lock()
	history := r.historyLocked()
	r.mu.Unlock()

	reply := r.ai.Chat(r.ctx, job.user.Text, r.paper.Content, history)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		job.result <- ChatResult{Err: ErrClosed}
		return
	}
	delete(r.pending, job.user.ID)
	msg := r.appendLocked(llm.RoleModel, reply)
	r.exchanges = append(r.exchanges,
		llm.Turn{Role: llm.RoleUser, Text: job.user.Text},
		llm.Turn{Role: llm.RoleModel, Text: reply},
	)
	r.mu.Unlock()
	job.result <- ChatResult{Message: msg}
}

// historyLocked returns the completed exchanges, each question followed by
// its reply, in send order. The transcript interleaves overlapping sends as
// they happened and is only for display.
func (r *Reader) historyLocked() []llm.Turn {
	return append([]llm.Turn(nil), r.exchanges...)
}

// Review returns the paper review, generating it on first use. Concurrent
// callers share one request and later callers get the cached result, including
// a degraded one, until ResetReview.
func (r *Reader) Review(ctx context.Context) (gateway.ReviewResult, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return gateway.ReviewResult{}, ErrClosed
	}
	if r.review != nil {
		cached := *r.review
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	var gen uint64
	val, err := r.once(ctx, reviewKey, func() (any, bool) {
		gen = r.reviewGen
		if r.review == nil {
			return nil, false
		}
		return *r.review, true
	}, func() any {
		result := r.ai.Review(r.ctx, r.paper.Content)
		if result.Failed() {
			r.logger.Warn("review degraded")
		}
		return result
	}, func(v any) {
		if gen != r.reviewGen {
			return
		}
		result := v.(gateway.ReviewResult)
		r.review = &result
	})
	if err != nil {
		return gateway.ReviewResult{}, err
	}
	return val.(gateway.ReviewResult), nil
}

// Reviewed reports whether a review is cached.
func (r *Reader) Reviewed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.review != nil
}

// ResetReview drops the cached review so the next Review call asks again.
// A review still in flight is returned to its callers but not cached.
func (r *Reader) ResetReview() {
	r.mu.Lock()
	r.review = nil
	r.reviewGen++
	r.mu.Unlock()
	r.flight.Forget(reviewKey)
}

// Summary returns a short summary of the paper, generated on first use and
// cached for the rest of the session.
func (r *Reader) Summary(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrClosed
	}
	if r.summary != nil {
		cached := *r.summary
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	val, err := r.once(ctx, summaryKey, func() (any, bool) {
		if r.summary == nil {
			return nil, false
		}
		return *r.summary, true
	}, func() any {
		return r.ai.Summarize(r.ctx, r.paper.Content)
	}, func(v any) {
		summary := v.(string)
		r.summary = &summary
	})
	if err != nil {
		return "", err
	}
	return val.(string), nil
}

// once runs generate under singleflight and stores its value with keep while
// holding the session lock. cached is rechecked inside the flight because a
// caller can miss the cache just as the previous flight completes. ctx only
// bounds how long this caller waits.
func (r *Reader) once(ctx context.Context, key string, cached func() (any, bool), generate func() any, keep func(any)) (any, error) {
	ch := r.flight.DoChan(key, func() (any, error) {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return nil, ErrClosed
		}
		if val, ok := cached(); ok {
			r.mu.Unlock()
			return val, nil
		}
		r.calls.Add(1)
		r.mu.Unlock()
		defer r.calls.Done()

		val := generate()

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			return nil, ErrClosed
		}
		keep(val)
		return val, nil
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the chat worker and waits for in-flight AI calls to return.
// Their results are discarded and queued sends receive ErrClosed.
func (r *Reader) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	queued := r.queue
	r.queue = nil
	r.mu.Unlock()

	for _, job := range queued {
		job.result <- ChatResult{Err: ErrClosed}
	}
	r.cancel()
	<-r.done
	r.calls.Wait()
}
