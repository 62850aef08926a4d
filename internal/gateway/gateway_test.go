package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"llmadmin/internal/model"
	"llmadmin/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeys map[int]model.APIKey

func (f fakeKeys) FindKey(ctx context.Context, id int) (model.APIKey, bool) {
	key, ok := f[id]
	return key, ok
}

type fakeLimiter struct {
	mu       sync.Mutex
	decision ratelimit.Decision
	calls    int
}

func (f *fakeLimiter) TryConsume(ctx context.Context, keyID int, quota int) ratelimit.Decision {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.decision
}

type fakeLedger struct {
	mu        sync.Mutex
	events    []model.UsageEvent
	lastUsed  map[int]time.Time
	appendErr error
	markErr   error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{lastUsed: make(map[int]time.Time)}
}

func (f *fakeLedger) Append(ctx context.Context, ev model.UsageEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeLedger) MarkKeyUsed(ctx context.Context, keyID int, t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.lastUsed[keyID] = t
	return nil
}

type fakeBackend struct {
	result model.GenerationResult
	err    error
	calls  int
}

func (f *fakeBackend) Generate(ctx context.Context, req model.GenerationRequest) (model.GenerationResult, error) {
	f.calls++
	if f.err != nil {
		return model.GenerationResult{}, f.err
	}
	return f.result, nil
}

func activeKey() model.APIKey {
	return model.APIKey{ID: 1, UserID: 7, Name: "test", Key: "sk_test", RateLimit: 10, IsActive: true}
}

func okResult() model.GenerationResult {
	return model.GenerationResult{
		Text:             "// mock",
		Model:            "qwen-32b-coder",
		FinishReason:     "stop",
		PromptTokens:     4,
		CompletionTokens: 512,
	}
}

func okRequest() model.GenerationRequest {
	return model.GenerationRequest{Prompt: "reverse a string"}
}

func allow() ratelimit.Decision {
	return ratelimit.Decision{Allowed: true, Count: 1, Remaining: 9}
}

func deny() ratelimit.Decision {
	return ratelimit.Decision{Allowed: false, Count: 11, RetryAfter: ratelimit.Window}
}

func TestGenerate_KeyNotFound(t *testing.T) {
	limiter := &fakeLimiter{decision: allow()}
	ledger := newFakeLedger()
	g := New(fakeKeys{}, limiter, ledger, &fakeBackend{result: okResult()})

	_, err := g.Generate(context.Background(), 99, okRequest())

	require.ErrorIs(t, err, ErrKeyNotFound)
	assert.Zero(t, limiter.calls, "missing key must not consume quota")
	assert.Empty(t, ledger.events, "missing key must not produce usage")
}

func TestGenerate_InactiveKey(t *testing.T) {
	key := activeKey()
	key.IsActive = false
	limiter := &fakeLimiter{decision: allow()}
	ledger := newFakeLedger()
	g := New(fakeKeys{1: key}, limiter, ledger, &fakeBackend{result: okResult()})

	_, err := g.Generate(context.Background(), 1, okRequest())

	require.ErrorIs(t, err, ErrKeyInactive)
	assert.Zero(t, limiter.calls, "inactive key must never reach the limiter")
	assert.Empty(t, ledger.events)
	assert.Empty(t, ledger.lastUsed)
}

func TestGenerate_RateLimited(t *testing.T) {
	limiter := &fakeLimiter{decision: deny()}
	ledger := newFakeLedger()
	backend := &fakeBackend{result: okResult()}
	g := New(fakeKeys{1: activeKey()}, limiter, ledger, backend)

	_, err := g.Generate(context.Background(), 1, okRequest())

	var rle *RateLimitedError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, ratelimit.Window, rle.RetryAfter)
	assert.Zero(t, backend.calls, "denied request must not reach the backend")
	assert.Empty(t, ledger.events)
}

func TestGenerate_Success(t *testing.T) {
	limiter := &fakeLimiter{decision: allow()}
	ledger := newFakeLedger()
	g := New(fakeKeys{1: activeKey()}, limiter, ledger, &fakeBackend{result: okResult()})

	start := time.Now()
	resp, err := g.Generate(context.Background(), 1, okRequest())

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, strings.HasPrefix(resp.ID, "gen_"))
	assert.Equal(t, "text_completion", resp.Object)
	assert.Equal(t, "qwen-32b-coder", resp.Model)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.Equal(t, 4+512, resp.Usage.TotalTokens)

	require.Len(t, ledger.events, 1, "exactly one usage event per completed generation")
	ev := ledger.events[0]
	assert.Equal(t, 1, ev.APIKeyID)
	assert.Equal(t, 7, ev.UserID)
	assert.Equal(t, resp.Usage.TotalTokens, ev.Tokens)
	assert.Equal(t, "generate", ev.Endpoint)

	lastUsed, ok := ledger.lastUsed[1]
	require.True(t, ok, "last_used must be updated on success")
	assert.False(t, lastUsed.Before(start))
}

func TestGenerate_LedgerFailureStillResponds(t *testing.T) {
	ledger := newFakeLedger()
	ledger.appendErr = errors.New("storage down")
	ledger.markErr = errors.New("storage down")
	g := New(fakeKeys{1: activeKey()}, &fakeLimiter{decision: allow()}, ledger, &fakeBackend{result: okResult()})

	resp, err := g.Generate(context.Background(), 1, okRequest())

	require.NoError(t, err, "bookkeeping failure must not fail the request")
	require.NotNil(t, resp)
	assert.Equal(t, 4+512, resp.Usage.TotalTokens)
}

func TestGenerate_BackendFailureSpendsQuota(t *testing.T) {
	limiter := &fakeLimiter{decision: allow()}
	ledger := newFakeLedger()
	backend := &fakeBackend{err: errors.New("inference exploded")}
	g := New(fakeKeys{1: activeKey()}, limiter, ledger, backend)

	_, err := g.Generate(context.Background(), 1, okRequest())

	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 1, limiter.calls, "the quota slot stays spent on backend failure")
	assert.Empty(t, ledger.events, "failed generation produces no usage event")
}

func TestGenerate_ValidationBeforeLimiter(t *testing.T) {
	tooMany := model.MaxTokensCeiling + 1
	tests := []struct {
		name string
		req  model.GenerationRequest
	}{
		{"empty prompt", model.GenerationRequest{}},
		{"max_tokens over ceiling", model.GenerationRequest{Prompt: "hi", MaxTokens: &tooMany}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := &fakeLimiter{decision: allow()}
			ledger := newFakeLedger()
			g := New(fakeKeys{1: activeKey()}, limiter, ledger, &fakeBackend{result: okResult()})

			_, err := g.Generate(context.Background(), 1, tt.req)

			require.ErrorIs(t, err, ErrInvalidRequest)
			assert.Zero(t, limiter.calls, "invalid input must be rejected before the limiter")
			assert.Empty(t, ledger.events)
		})
	}
}
