package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/paperdesk/internal/llm"
)

type fakeBackend struct {
	mu       sync.Mutex
	reply    string
	err      error
	block    bool
	requests []llm.Request
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	reply, err, block := f.reply, f.err, f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, err
}

func (f *fakeBackend) last(t *testing.T) llm.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "backend was never called")
	return f.requests[len(f.requests)-1]
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func TestSummarizeShapesRequest(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{reply: "A concise summary."}
	gw := New(backend)

	got := gw.Summarize(context.Background(), "paper body")
	assert.Equal(t, "A concise summary.", got)

	req := backend.last(t)
	assert.Equal(t, "You are an expert academic editor.", req.System)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.3, *req.Temperature, 1e-6)
	require.Len(t, req.Turns, 1)
	assert.Equal(t, llm.RoleUser, req.Turns[0].Role)
	assert.True(t, strings.HasSuffix(req.Turns[0].Text, "\n\npaper body"))
	assert.Contains(t, req.Turns[0].Text, "max 150 words")
	assert.Nil(t, req.Schema)
}

func TestSummarizeFallbacks(t *testing.T) {
	t.Parallel()

	empty := New(&fakeBackend{reply: "  "})
	assert.Equal(t, "Could not generate summary.", empty.Summarize(context.Background(), "x"))

	failing := New(&fakeBackend{err: errors.New("401 unauthorized")})
	assert.Equal(t, "Failed to generate summary. Please check your API key.", failing.Summarize(context.Background(), "x"))
}

func TestReviewParsesStructuredReply(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{reply: `{"summary":"Solid.","strengths":["clear"],"weaknesses":["small n"],"score":7.5}`}
	gw := New(backend)

	got := gw.Review(context.Background(), "content")
	want := ReviewResult{Summary: "Solid.", Strengths: []string{"clear"}, Weaknesses: []string{"small n"}, Score: 7.5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("review mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, got.Failed())

	req := backend.last(t)
	assert.Equal(t, "You are a critical academic peer reviewer.", req.System)
	require.NotNil(t, req.Schema)
	assert.ElementsMatch(t, []string{"summary", "strengths", "weaknesses", "score"}, req.Schema.Required)
}

func TestReviewAcceptsFencedJSON(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{reply: "```json\n{\"summary\":\"ok\",\"strengths\":[],\"weaknesses\":[],\"score\":3}\n```"}
	got := New(backend).Review(context.Background(), "content")
	assert.Equal(t, "ok", got.Summary)
	assert.Equal(t, 3.0, got.Score)
}

func TestReviewFailureSentinel(t *testing.T) {
	t.Parallel()

	replies := map[string]string{
		"not json":      "I think the paper is fine.",
		"missing score": `{"summary":"s","strengths":[],"weaknesses":[]}`,
		"wrong type":    `{"summary":"s","strengths":"many","weaknesses":[],"score":5}`,
		"score string":  `{"summary":"s","strengths":[],"weaknesses":[],"score":"8/10"}`,
		"null summary":  `{"summary":null,"strengths":[],"weaknesses":[],"score":5}`,
		"empty":         "",
	}
	want := ReviewResult{
		Summary:    "Error generating review.",
		Strengths:  []string{},
		Weaknesses: []string{"Service unavailable or API Error"},
		Score:      0,
	}
	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := New(&fakeBackend{reply: reply}).Review(context.Background(), "content")
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("sentinel mismatch (-want +got):\n%s", diff)
			}
			assert.True(t, got.Failed())
		})
	}

	got := New(&fakeBackend{err: errors.New("boom")}).Review(context.Background(), "content")
	assert.True(t, got.Failed())
}

func TestReviewResultReportsKind(t *testing.T) {
	t.Parallel()

	_, err := New(&fakeBackend{reply: "nope"}).ReviewResult(context.Background(), "content")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)

	cause := errors.New("connection refused")
	_, err = New(&fakeBackend{err: cause}).ReviewResult(context.Background(), "content")
	assert.ErrorIs(t, err, ErrRequestFailure)
	assert.ErrorIs(t, err, cause)

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "review", gwErr.Op)
}

func TestReviewTruncationBounds(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{reply: "{}"}
	gw := New(backend)

	long := strings.Repeat("é", 12000)
	gw.Review(context.Background(), long)
	prompt := backend.last(t).Turns[0].Text
	body := prompt[strings.Index(prompt, "Paper Text: ")+len("Paper Text: "):]
	require.True(t, strings.HasSuffix(body, " ... [truncated]"))
	paper := strings.TrimSuffix(body, " ... [truncated]")
	assert.Equal(t, 10000, utf8.RuneCountInString(paper))
	assert.True(t, utf8.ValidString(paper))

	short := strings.Repeat("a", 10000)
	gw.Review(context.Background(), short)
	prompt = backend.last(t).Turns[0].Text
	assert.True(t, strings.HasSuffix(prompt, "Paper Text: "+short))
}

func TestChatRebuildsConversation(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{reply: "It uses 4-bit weights."}
	gw := New(backend)
	history := []llm.Turn{
		{Role: llm.RoleUser, Text: "What is this about?"},
		{Role: llm.RoleModel, Text: "Quantization."},
	}

	got := gw.Chat(context.Background(), "Which precision?", "PAPER BODY", history)
	assert.Equal(t, "It uses 4-bit weights.", got)

	turns := backend.last(t).Turns
	require.Len(t, turns, 5)
	assert.Equal(t, llm.RoleUser, turns[0].Role)
	assert.Contains(t, turns[0].Text, "--- PAPER START ---\nPAPER BODY\n--- PAPER END ---")
	assert.True(t, strings.HasSuffix(turns[0].Text, "\n\nHello, I'm ready to ask questions."))
	assert.Equal(t, llm.Turn{Role: llm.RoleModel, Text: "I have read the paper. What would you like to know?"}, turns[1])
	if diff := cmp.Diff(history, turns[2:4]); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, llm.Turn{Role: llm.RoleUser, Text: "Which precision?"}, turns[4])
}

func TestChatTruncatesPaperContent(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{reply: "ok"}
	gw := New(backend)
	content := strings.Repeat("x", 20000) + "TAIL"

	gw.Chat(context.Background(), "q", content, nil)
	first := backend.last(t).Turns[0].Text
	start := strings.Index(first, "--- PAPER START ---\n") + len("--- PAPER START ---\n")
	end := strings.Index(first, "\n--- PAPER END ---")
	assert.Equal(t, 20000, utf8.RuneCountInString(first[start:end]))
	assert.NotContains(t, first, "TAIL")
}

func TestChatFallbacks(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "I couldn't understand that.",
		New(&fakeBackend{reply: ""}).Chat(context.Background(), "q", "c", nil))
	assert.Equal(t, "I'm having trouble connecting to the AI service right now.",
		New(&fakeBackend{err: errors.New("down")}).Chat(context.Background(), "q", "c", nil))
}

func TestImproveTextModes(t *testing.T) {
	t.Parallel()

	want := map[Mode]string{
		ModeGrammar:  "Fix grammar and spelling errors. Maintain the original tone.",
		ModeClarity:  "Rewrite for clarity and conciseness. Make it easier to read.",
		ModeAcademic: "Rewrite using formal academic language suitable for a high-impact journal.",
	}
	for _, mode := range Modes() {
		backend := &fakeBackend{reply: "better text"}
		got := New(backend).ImproveText(context.Background(), "bad text", mode)
		assert.Equal(t, "better text", got)
		req := backend.last(t)
		assert.Equal(t, want[mode], req.System)
		assert.Equal(t, "Rewrite the following text:\n\nbad text", req.Turns[0].Text)
	}
}

func TestImproveTextReturnsOriginalOnFailure(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "keep me", New(&fakeBackend{err: errors.New("x")}).ImproveText(context.Background(), "keep me", ModeGrammar))
	assert.Equal(t, "keep me", New(&fakeBackend{reply: ""}).ImproveText(context.Background(), "keep me", ModeClarity))

	_, err := New(&fakeBackend{err: errors.New("x")}).ImproveTextResult(context.Background(), "keep me", ModeGrammar)
	assert.ErrorIs(t, err, ErrRequestFailure)
}

func TestImproveTextLimit(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{reply: "done"}
	gw := New(backend)

	atLimit := strings.Repeat("ü", 5000)
	got, err := gw.ImproveTextResult(context.Background(), atLimit, ModeGrammar)
	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, 1, backend.calls())

	over := strings.Repeat("ü", 5001)
	got, err = gw.ImproveTextResult(context.Background(), over, ModeGrammar)
	assert.ErrorIs(t, err, ErrContentTooLarge)
	assert.Equal(t, over, got)
	assert.Equal(t, 1, backend.calls(), "oversized text must not reach the backend")
}

func TestTimeoutMapsToRequestFailure(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{block: true}
	gw := New(backend, WithLimits(Limits{Timeout: 20 * time.Millisecond}))

	start := time.Now()
	got := gw.Chat(context.Background(), "q", "c", nil)
	assert.Equal(t, "I'm having trouble connecting to the AI service right now.", got)
	assert.Less(t, time.Since(start), 5*time.Second)

	_, err := gw.ImproveTextResult(context.Background(), "text", ModeGrammar)
	assert.ErrorIs(t, err, ErrRequestFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithLimitsKeepsDefaultsForZeroFields(t *testing.T) {
	t.Parallel()

	gw := New(&fakeBackend{}, WithLimits(Limits{ChatChars: 100}))
	want := DefaultLimits()
	want.ChatChars = 100
	assert.Equal(t, want, gw.Limits())
}

func TestNilBackendFallsBack(t *testing.T) {
	t.Parallel()

	gw := New(nil)
	assert.Equal(t, "none", gw.Backend())
	assert.True(t, gw.Review(context.Background(), "c").Failed())
	assert.Equal(t, "text", gw.ImproveText(context.Background(), "text", ModeAcademic))
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	mode, err := ParseMode(" Academic ")
	require.NoError(t, err)
	assert.Equal(t, ModeAcademic, mode)

	_, err = ParseMode("poetic")
	assert.Error(t, err)
}
