package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/paperdesk/internal/gateway"
	"github.com/csheth/paperdesk/internal/llm"
)

func TestReaderRejectsBlankMessages(t *testing.T) {
	reader := NewReader(testPaper(), newFakeAssistant())
	defer reader.Close()

	_, err := reader.Send(context.Background(), "   \n\t")
	assert.ErrorIs(t, err, ErrBlankMessage)
	assert.Empty(t, reader.Transcript())
}

func TestReaderSendAppendsBothMessages(t *testing.T) {
	reader := NewReader(testPaper(), newFakeAssistant())
	defer reader.Close()

	reply, err := reader.Send(context.Background(), "What is this?")
	require.NoError(t, err)
	assert.Equal(t, llm.RoleModel, reply.Role)
	assert.Equal(t, "reply to What is this?", reply.Text)

	transcript := reader.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, llm.RoleUser, transcript[0].Role)
	assert.Equal(t, "What is this?", transcript[0].Text)
	assert.Equal(t, reply, transcript[1])
	assert.Less(t, transcript[0].ID, transcript[1].ID, "ids increase in send order")
	assert.Zero(t, reader.Pending())
}

func TestReaderChatPreservesSendOrder(t *testing.T) {
	ai := newFakeAssistant()
	ai.gate = make(chan struct{})
	reader := NewReader(testPaper(), ai)
	defer reader.Close()

	a := reader.SendAsync("A")
	b := reader.SendAsync("B")

	transcript := reader.Transcript()
	require.Len(t, transcript, 2, "user messages are appended before any reply")
	assert.Equal(t, "A", transcript[0].Text)
	assert.Equal(t, "B", transcript[1].Text)
	assert.Equal(t, 2, reader.Pending())

	ai.gate <- struct{}{}
	resA := <-a
	require.NoError(t, resA.Err)
	ai.gate <- struct{}{}
	resB := <-b
	require.NoError(t, resB.Err)

	var texts []string
	for _, msg := range reader.Transcript() {
		texts = append(texts, msg.Text)
	}
	want := []string{"A", "B", "reply to A", "reply to B"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Fatalf("transcript mismatch (-want +got):\n%s", diff)
	}

	calls := ai.chatCalls()
	require.Len(t, calls, 2)
	assert.Empty(t, calls[0].history, "queued messages are not history")
	assert.Equal(t, []llm.Turn{
		{Role: llm.RoleUser, Text: "A"},
		{Role: llm.RoleModel, Text: "reply to A"},
	}, calls[1].history)
}

func TestReaderHistoryPairsOverlappingSends(t *testing.T) {
	ai := newFakeAssistant()
	ai.gate = make(chan struct{})
	reader := NewReader(testPaper(), ai)
	defer reader.Close()

	a := reader.SendAsync("A")
	b := reader.SendAsync("B")
	ai.gate <- struct{}{}
	require.NoError(t, (<-a).Err)
	ai.gate <- struct{}{}
	require.NoError(t, (<-b).Err)

	c := reader.SendAsync("C")
	ai.gate <- struct{}{}
	require.NoError(t, (<-c).Err)

	calls := ai.chatCalls()
	require.Len(t, calls, 3)
	want := []llm.Turn{
		{Role: llm.RoleUser, Text: "A"},
		{Role: llm.RoleModel, Text: "reply to A"},
		{Role: llm.RoleUser, Text: "B"},
		{Role: llm.RoleModel, Text: "reply to B"},
	}
	if diff := cmp.Diff(want, calls[2].history); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderReviewIsGeneratedOnce(t *testing.T) {
	ai := newFakeAssistant()
	reader := NewReader(testPaper(), ai)
	defer reader.Close()

	first, err := reader.Review(context.Background())
	require.NoError(t, err)
	second, err := reader.Review(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, ai.reviewCalls.Load())
	assert.True(t, reader.Reviewed())
}

func TestReaderConcurrentReviewsCollapse(t *testing.T) {
	ai := newFakeAssistant()
	ai.gate = make(chan struct{})
	reader := NewReader(testPaper(), ai)
	defer reader.Close()

	const callers = 8
	results := make([]gateway.ReviewResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := reader.Review(context.Background())
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	waitStarted(t, ai, "review")
	// Let the remaining callers join the in-flight request.
	time.Sleep(20 * time.Millisecond)
	close(ai.gate)
	wg.Wait()

	for _, result := range results {
		assert.Equal(t, "good", result.Summary)
	}
	assert.EqualValues(t, 1, ai.reviewCalls.Load())
}

func TestReaderCachesDegradedReviewUntilReset(t *testing.T) {
	ai := newFakeAssistant()
	ai.review = gateway.FailedReview()
	reader := NewReader(testPaper(), ai)
	defer reader.Close()

	first, err := reader.Review(context.Background())
	require.NoError(t, err)
	assert.True(t, first.Failed())

	_, _ = reader.Review(context.Background())
	assert.EqualValues(t, 1, ai.reviewCalls.Load())

	ai.mu.Lock()
	ai.review = gateway.ReviewResult{Summary: "retry", Strengths: []string{}, Weaknesses: []string{}, Score: 6}
	ai.mu.Unlock()
	reader.ResetReview()
	assert.False(t, reader.Reviewed())

	again, err := reader.Review(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "retry", again.Summary)
	assert.EqualValues(t, 2, ai.reviewCalls.Load())
}

func TestReaderResetDuringReviewDropsStaleResult(t *testing.T) {
	ai := newFakeAssistant()
	ai.gate = make(chan struct{})
	reader := NewReader(testPaper(), ai)
	defer reader.Close()

	first := make(chan gateway.ReviewResult, 1)
	go func() {
		result, err := reader.Review(context.Background())
		assert.NoError(t, err)
		first <- result
	}()
	waitStarted(t, ai, "review")

	reader.ResetReview()
	ai.mu.Lock()
	ai.review = gateway.ReviewResult{Summary: "fresh", Strengths: []string{}, Weaknesses: []string{}, Score: 7}
	ai.mu.Unlock()
	close(ai.gate)

	assert.Equal(t, "fresh", (<-first).Summary, "the caller still gets its reply")
	assert.False(t, reader.Reviewed(), "a reply started before the reset is not cached")

	again, err := reader.Review(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", again.Summary)
	assert.EqualValues(t, 2, ai.reviewCalls.Load())
	assert.True(t, reader.Reviewed())
}

func TestReaderSummaryIsCached(t *testing.T) {
	ai := newFakeAssistant()
	reader := NewReader(testPaper(), ai)
	defer reader.Close()

	first, err := reader.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "summary of "+testPaper().Content, first)

	second, err := reader.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, ai.summaryCalls.Load())
}

func TestReaderCloseDiscardsInFlightWork(t *testing.T) {
	ai := newFakeAssistant()
	ai.gate = make(chan struct{})
	reader := NewReader(testPaper(), ai)

	inFlight := reader.SendAsync("first")
	queued := reader.SendAsync("second")
	waitStarted(t, ai, "chat")

	review := make(chan error, 1)
	go func() {
		_, err := reader.Review(context.Background())
		review <- err
	}()
	waitStarted(t, ai, "review")

	reader.Close()

	assert.ErrorIs(t, (<-inFlight).Err, ErrClosed)
	assert.ErrorIs(t, (<-queued).Err, ErrClosed)
	assert.ErrorIs(t, <-review, ErrClosed)
	assert.Len(t, reader.Transcript(), 2, "no model reply lands after teardown")
	assert.False(t, reader.Reviewed())

	_, err := reader.Send(context.Background(), "late")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = reader.Summary(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	reader.Close()
}

func TestReaderSendHonorsCallerContext(t *testing.T) {
	ai := newFakeAssistant()
	ai.gate = make(chan struct{})
	reader := NewReader(testPaper(), ai)
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := reader.Send(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReaderUsesClockForTimestamps(t *testing.T) {
	fixed := time.Date(2024, 10, 12, 9, 0, 0, 0, time.UTC)
	reader := NewReader(testPaper(), newFakeAssistant(), WithClock(func() time.Time { return fixed }))
	defer reader.Close()

	_, err := reader.Send(context.Background(), "hi")
	require.NoError(t, err)
	transcript := reader.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, fixed, transcript[0].Timestamp)
	assert.Less(t, transcript[0].ID, transcript[1].ID, "monotonic ids within one millisecond")
}
