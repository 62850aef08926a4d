package llm

import "testing"

func TestHeuristicEstimator_PromptTokens(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		expected int
	}{
		{"one char", "a", 1},
		{"exactly four chars", "abcd", 1},
		{"five chars rounds up", "abcde", 2},
		{"eight chars", "abcdefgh", 2},
		{"nine chars rounds up", "abcdefghi", 3},
	}

	est := HeuristicEstimator{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := est.PromptTokens(tt.prompt); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestHeuristicEstimator_CompletionTokens(t *testing.T) {
	tests := []struct {
		name      string
		maxTokens int
		expected  int
	}{
		{"minimum", 1, 1},
		{"even", 2, 1},
		{"odd rounds up", 3, 2},
		{"default", 1024, 512},
		{"maximum", 4096, 2048},
	}

	est := HeuristicEstimator{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := est.CompletionTokens(tt.maxTokens); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestNewEstimator(t *testing.T) {
	if _, ok := NewEstimator("heuristic").(HeuristicEstimator); !ok {
		t.Error("expected heuristic estimator")
	}
	if _, ok := NewEstimator("").(HeuristicEstimator); !ok {
		t.Error("unknown name should fall back to heuristic")
	}
	if _, ok := NewEstimator("tiktoken").(TiktokenEstimator); !ok {
		t.Error("expected tiktoken estimator")
	}
}
