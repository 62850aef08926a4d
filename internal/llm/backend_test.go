package llm

import (
	"context"
	"strings"
	"testing"

	"llmadmin/internal/model"
)

func normalized(prompt string, maxTokens int) model.GenerationRequest {
	req := model.GenerationRequest{Prompt: prompt, MaxTokens: &maxTokens}
	if err := req.Normalize(); err != nil {
		panic(err)
	}
	return req
}

func TestMockBackend_Generate(t *testing.T) {
	b := NewMockBackend("qwen-32b-coder", 0, nil)

	result, err := b.Generate(context.Background(), normalized("reverse a string", 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Model != "qwen-32b-coder" {
		t.Errorf("expected model qwen-32b-coder, got %s", result.Model)
	}
	if result.FinishReason != "stop" {
		t.Errorf("expected finish reason stop, got %s", result.FinishReason)
	}
	if !strings.Contains(result.Text, "reverse a string") {
		t.Errorf("completion should echo the prompt, got %q", result.Text)
	}
	// "reverse a string" is 16 chars -> 4 prompt tokens; 100 max -> 50.
	if result.PromptTokens != 4 {
		t.Errorf("expected 4 prompt tokens, got %d", result.PromptTokens)
	}
	if result.CompletionTokens != 50 {
		t.Errorf("expected 50 completion tokens, got %d", result.CompletionTokens)
	}
}

func TestMockBackend_CancelledContext(t *testing.T) {
	// One token per second makes the simulated latency long enough that a
	// cancelled context must win.
	b := NewMockBackend("qwen-32b-coder", 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Generate(ctx, normalized("anything", 4096))
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMockBackend_InstantWithoutSimulatedLatency(t *testing.T) {
	b := NewMockBackend("qwen-32b-coder", 0, nil)

	if _, err := b.Generate(context.Background(), normalized("hi", 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
