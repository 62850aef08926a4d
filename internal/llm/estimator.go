package llm

import (
	"github.com/tiktoken-go/tokenizer/codec"
)

// TokenEstimator prices a generation before a real tokenizer sees any text.
// Implementations are swappable; the gateway never depends on a concrete one.
type TokenEstimator interface {
	PromptTokens(prompt string) int
	CompletionTokens(maxTokens int) int
}

// HeuristicEstimator approximates token counts without tokenizing:
// roughly four characters per prompt token, and half of the requested
// maximum as completion usage. Both are placeholders, not exact counts.
type HeuristicEstimator struct{}

func (HeuristicEstimator) PromptTokens(prompt string) int {
	return (len(prompt) + 3) / 4
}

func (HeuristicEstimator) CompletionTokens(maxTokens int) int {
	return (maxTokens + 1) / 2
}

// TiktokenEstimator counts prompt tokens with a real BPE codec. Completion
// usage is still the half-of-maximum heuristic since no completion text
// exists at estimation time.
type TiktokenEstimator struct{}

func (TiktokenEstimator) PromptTokens(prompt string) int {
	enc := codec.NewO200kBase()
	tc, err := enc.Count(prompt)
	if err != nil {
		return HeuristicEstimator{}.PromptTokens(prompt)
	}
	return tc
}

func (TiktokenEstimator) CompletionTokens(maxTokens int) int {
	return HeuristicEstimator{}.CompletionTokens(maxTokens)
}

func NewEstimator(name string) TokenEstimator {
	switch name {
	case "tiktoken":
		return TiktokenEstimator{}
	default:
		return HeuristicEstimator{}
	}
}
