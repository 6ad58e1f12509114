package enricher

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator implements provider.TextGenerator for tests.
type fakeGenerator struct {
	// failFor holds request prompts that should return an error.
	failFor map[string]struct{}
	calls   int32
}

func (f *fakeGenerator) Complete(_ context.Context, _, userPrompt string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if _, ok := f.failFor[userPrompt]; ok {
		return "", fmt.Errorf("upstream error for %q", userPrompt)
	}
	return "summary of " + userPrompt, nil
}

func newRequests(n int) []Request {
	requests := make([]Request, n)
	for i := range requests {
		requests[i] = Request{
			ID:           fmt.Sprintf("req-%d", i),
			SystemPrompt: "system",
			UserPrompt:   fmt.Sprintf("text %d", i),
		}
	}
	return requests
}

func TestPool_EnrichAll_Empty(t *testing.T) {
	gen := &fakeGenerator{}
	pool := NewPool(gen, 2, nil)

	responses, err := pool.EnrichAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, responses)
	assert.Zero(t, atomic.LoadInt32(&gen.calls), "empty batch must not touch the provider")
}

func TestPool_EnrichAll_AllSucceed(t *testing.T) {
	gen := &fakeGenerator{}
	pool := NewPool(gen, 2, nil)

	responses, err := pool.EnrichAll(context.Background(), newRequests(5))
	require.NoError(t, err)
	require.Len(t, responses, 5)

	byID := make(map[string]string)
	for _, r := range responses {
		byID[r.ID] = r.Content
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("summary of text %d", i), byID[fmt.Sprintf("req-%d", i)])
	}
}

func TestPool_FailedRequestYieldsEmptyContent(t *testing.T) {
	gen := &fakeGenerator{failFor: map[string]struct{}{"text 1": {}}}
	pool := NewPool(gen, 2, nil)

	responses, err := pool.EnrichAll(context.Background(), newRequests(3))
	require.NoError(t, err)
	require.Len(t, responses, 3)

	empty := 0
	for _, r := range responses {
		if r.Content == "" {
			empty++
			assert.Equal(t, "req-1", r.ID)
		}
	}
	assert.Equal(t, 1, empty)
}

func TestPool_EmptyPromptSkipsProvider(t *testing.T) {
	gen := &fakeGenerator{}
	pool := NewPool(gen, 2, nil)

	responses, err := pool.EnrichAll(context.Background(), []Request{{ID: "blank"}})
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Empty(t, responses[0].Content)
	assert.Zero(t, atomic.LoadInt32(&gen.calls))
}

func TestPool_CancelledContext(t *testing.T) {
	gen := &fakeGenerator{}
	pool := NewPool(gen, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.EnrichAll(ctx, newRequests(3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_StreamDeliversAllResponses(t *testing.T) {
	gen := &fakeGenerator{}
	pool := NewPool(gen, 4, nil).WithCallTimeout(time.Second)

	seen := make(map[string]bool)
	for resp := range pool.Stream(context.Background(), newRequests(8)) {
		seen[resp.ID] = true
	}
	assert.Len(t, seen, 8)
}

func TestCleanThinkingTags(t *testing.T) {
	assert.Equal(t, "answer", cleanThinkingTags("<think>working it out</think>answer"))
	assert.Equal(t, "a b", cleanThinkingTags("a <think>x</think>b"))
	assert.Equal(t, "plain", cleanThinkingTags("plain"))
	// Unclosed tag drops the marker but keeps the text.
	assert.Equal(t, "partial thought", cleanThinkingTags("<think>partial thought"))
	assert.Equal(t, "one two", cleanThinkingTags("<think>a</think>one <think>b</think>two"))
	// A closing tag with no preceding opening tag is plain content, not a
	// block delimiter; truncated model output must still terminate.
	assert.Equal(t, "</think>xy", cleanThinkingTags("</think>x<think>y"))
}
