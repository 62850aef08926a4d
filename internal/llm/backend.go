package llm

import (
	"context"
	"fmt"
	"time"

	"llmadmin/internal/model"
)

// Backend produces a completion for a normalized generation request.
type Backend interface {
	Generate(ctx context.Context, req model.GenerationRequest) (model.GenerationResult, error)
}

// MockBackend stands in for a real inference service. It echoes the prompt
// into a canned completion and reports estimated token usage. When
// TokensPerSecond is positive it sleeps proportionally to the completion
// size to simulate inference latency, honoring context cancellation.
type MockBackend struct {
	ModelName       string
	TokensPerSecond int
	Estimator       TokenEstimator
}

func NewMockBackend(modelName string, tokensPerSecond int, est TokenEstimator) *MockBackend {
	if est == nil {
		est = HeuristicEstimator{}
	}
	return &MockBackend{
		ModelName:       modelName,
		TokensPerSecond: tokensPerSecond,
		Estimator:       est,
	}
}

func (b *MockBackend) Generate(ctx context.Context, req model.GenerationRequest) (model.GenerationResult, error) {
	promptTokens := b.Estimator.PromptTokens(req.Prompt)
	completionTokens := b.Estimator.CompletionTokens(*req.MaxTokens)

	if b.TokensPerSecond > 0 {
		delay := time.Duration(completionTokens) * time.Second / time.Duration(b.TokensPerSecond)
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return model.GenerationResult{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return model.GenerationResult{}, err
	}

	text := fmt.Sprintf("// Here's a function to %s\n\nfunction example() {\n  console.log(\"This is a mock response\");\n  return true;\n}", req.Prompt)

	return model.GenerationResult{
		Text:             text,
		Model:            b.ModelName,
		FinishReason:     "stop",
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}
