package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"llmadmin/internal/gateway"
	"llmadmin/internal/model"
	"llmadmin/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubKeys map[int]model.APIKey

func (s stubKeys) FindKey(ctx context.Context, id int) (model.APIKey, bool) {
	key, ok := s[id]
	return key, ok
}

type stubLimiter struct {
	mu       sync.Mutex
	decision ratelimit.Decision
	calls    int
}

func (s *stubLimiter) TryConsume(ctx context.Context, keyID int, quota int) ratelimit.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.decision
}

type stubLedger struct{}

func (stubLedger) Append(ctx context.Context, ev model.UsageEvent) error { return nil }
func (stubLedger) MarkKeyUsed(ctx context.Context, keyID int, t time.Time) error {
	return nil
}

type stubBackend struct{}

func (stubBackend) Generate(ctx context.Context, req model.GenerationRequest) (model.GenerationResult, error) {
	return model.GenerationResult{
		Text:             "// mock",
		Model:            "qwen-32b-coder",
		FinishReason:     "stop",
		PromptTokens:     4,
		CompletionTokens: 512,
	}, nil
}

func newGenerateRouter(t *testing.T, limiter *stubLimiter, keys stubKeys) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gateway.SetDefault(gateway.New(keys, limiter, stubLedger{}, stubBackend{}))
	r := gin.New()
	r.POST("/api/v1/llm/generate", generateText)
	return r
}

func postGenerate(r *gin.Engine, keyID string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/llm/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if keyID != "" {
		req.Header.Set("X-Api-Key-Id", keyID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func testKey() model.APIKey {
	return model.APIKey{ID: 1, UserID: 7, Name: "test", Key: "sk_test", RateLimit: 10, IsActive: true}
}

func TestGenerate_MissingKeyHeader(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: true}}
	r := newGenerateRouter(t, limiter, stubKeys{1: testKey()})

	w := postGenerate(r, "", `{"prompt":"hi"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, limiter.calls)
}

func TestGenerate_NonNumericKeyHeader(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: true}}
	r := newGenerateRouter(t, limiter, stubKeys{1: testKey()})

	w := postGenerate(r, "abc", `{"prompt":"hi"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, limiter.calls)
}

func TestGenerate_UnknownKey(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: true}}
	r := newGenerateRouter(t, limiter, stubKeys{})

	w := postGenerate(r, "99", `{"prompt":"hi"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, limiter.calls)
}

func TestGenerate_InactiveKey(t *testing.T) {
	key := testKey()
	key.IsActive = false
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: true}}
	r := newGenerateRouter(t, limiter, stubKeys{1: key})

	w := postGenerate(r, "1", `{"prompt":"hi"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, limiter.calls)
}

func TestGenerate_InvalidParamsRejectedBeforeLimiter(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty prompt", `{"prompt":""}`},
		{"max_tokens over ceiling", `{"prompt":"hi","max_tokens":4097}`},
		{"max_tokens zero", `{"prompt":"hi","max_tokens":0}`},
		{"temperature out of range", `{"prompt":"hi","temperature":1.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: true}}
			r := newGenerateRouter(t, limiter, stubKeys{1: testKey()})

			w := postGenerate(r, "1", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Zero(t, limiter.calls, "invalid parameters must not spend quota")
		})
	}
}

func TestGenerate_RateLimited(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: false, Count: 11, RetryAfter: ratelimit.Window}}
	r := newGenerateRouter(t, limiter, stubKeys{1: testKey()})

	w := postGenerate(r, "1", `{"prompt":"hi"}`)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var body struct {
		Code       int    `json:"code"`
		Message    string `json:"message"`
		RetryAfter int    `json:"retry_after"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusTooManyRequests, body.Code)
	assert.Equal(t, 60, body.RetryAfter)
}

func TestGenerate_Success(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: true, Count: 1, Remaining: 9}}
	r := newGenerateRouter(t, limiter, stubKeys{1: testKey()})

	w := postGenerate(r, "1", `{"prompt":"reverse a string"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var body model.GenerationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body.ID, "gen_"))
	assert.Equal(t, "text_completion", body.Object)
	assert.Equal(t, "qwen-32b-coder", body.Model)
	require.Len(t, body.Choices, 1)
	assert.Equal(t, "stop", body.Choices[0].FinishReason)
	assert.Equal(t, 516, body.Usage.TotalTokens)
	assert.Equal(t, 1, limiter.calls)
}
