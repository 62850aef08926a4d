// Package gateway runs the admission-controlled generation pipeline:
// validate the key, consume one quota unit, call the backend, record usage.
package gateway

import (
	"context"
	"fmt"
	"time"

	"llmadmin/internal/llm"
	"llmadmin/internal/model"
	"llmadmin/internal/ratelimit"
	"llmadmin/internal/utils/log"

	"github.com/google/uuid"
)

// KeyDirectory resolves an API key identifier to its configuration.
type KeyDirectory interface {
	FindKey(ctx context.Context, id int) (model.APIKey, bool)
}

// UsageLedger persists usage bookkeeping. Both operations are best-effort
// from the caller's point of view: failures are logged, never surfaced.
type UsageLedger interface {
	Append(ctx context.Context, ev model.UsageEvent) error
	MarkKeyUsed(ctx context.Context, keyID int, t time.Time) error
}

type Gateway struct {
	keys    KeyDirectory
	limiter ratelimit.Limiter
	ledger  UsageLedger
	backend llm.Backend
}

func New(keys KeyDirectory, limiter ratelimit.Limiter, ledger UsageLedger, backend llm.Backend) *Gateway {
	return &Gateway{
		keys:    keys,
		limiter: limiter,
		ledger:  ledger,
		backend: backend,
	}
}

// Generate runs one request through the pipeline.
//
// A quota unit is spent as soon as admission succeeds and is never refunded,
// even when the backend call then fails. Refunding failed attempts would make
// throughput depend on backend health; the slot-is-spent rule keeps the
// admission rate predictable.
func (g *Gateway) Generate(ctx context.Context, keyID int, req model.GenerationRequest) (*model.GenerationResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	key, ok := g.keys.FindKey(ctx, keyID)
	if !ok {
		return nil, ErrKeyNotFound
	}
	if !key.IsActive {
		return nil, ErrKeyInactive
	}

	d := g.limiter.TryConsume(ctx, key.ID, key.RateLimit)
	if !d.Allowed {
		return nil, &RateLimitedError{RetryAfter: d.RetryAfter}
	}
	if d.FailedOpen {
		log.Warnf("admitting key %d without quota enforcement: counter store unavailable", key.ID)
	}

	// No limiter state is held here; the backend call is the long pole and
	// must not serialize other keys' admissions.
	result, err := g.backend.Generate(ctx, req)
	if err != nil {
		return nil, &BackendError{Err: err}
	}

	now := time.Now()
	resp := &model.GenerationResponse{
		ID:      "gen_" + uuid.NewString(),
		Object:  "text_completion",
		Created: now.Unix(),
		Model:   result.Model,
		Choices: []model.GenerationChoice{
			{Text: result.Text, Index: 0, FinishReason: result.FinishReason},
		},
		Usage: model.TokenUsage{
			PromptTokens:     result.PromptTokens,
			CompletionTokens: result.CompletionTokens,
			TotalTokens:      result.PromptTokens + result.CompletionTokens,
		},
	}

	// Bookkeeping survives a caller disconnect: once generated, the usage
	// is real and must be recorded even if the request context is gone.
	bgCtx := context.WithoutCancel(ctx)
	if err := g.ledger.MarkKeyUsed(bgCtx, key.ID, now); err != nil {
		log.Warnf("failed to update last_used for key %d: %v", key.ID, err)
	}
	ev := model.UsageEvent{
		APIKeyID: key.ID,
		UserID:   key.UserID,
		Tokens:   resp.Usage.TotalTokens,
		Endpoint: "generate",
		Time:     now.Unix(),
	}
	if err := g.ledger.Append(bgCtx, ev); err != nil {
		log.Warnf("failed to record usage for key %d: %v", key.ID, err)
	}

	return resp, nil
}
