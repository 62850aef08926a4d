package model

import "fmt"

const (
	MaxTokensCeiling   = 4096
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.7
	DefaultTopP        = 1.0
)

// GenerationRequest carries the inbound parameters of one generation call.
// Optional fields are pointers so that "absent" and "zero" stay distinguishable
// until Normalize fills in defaults.
type GenerationRequest struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   *int     `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
	TopP        *float64 `json:"top_p"`
	Stop        []string `json:"stop"`
}

// Normalize validates ranges and applies defaults in place.
func (r *GenerationRequest) Normalize() error {
	if r.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	if r.MaxTokens == nil {
		v := DefaultMaxTokens
		r.MaxTokens = &v
	} else if *r.MaxTokens < 1 || *r.MaxTokens > MaxTokensCeiling {
		return fmt.Errorf("max_tokens must be between 1 and %d", MaxTokensCeiling)
	}
	if r.Temperature == nil {
		v := DefaultTemperature
		r.Temperature = &v
	} else if *r.Temperature < 0 || *r.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1")
	}
	if r.TopP == nil {
		v := DefaultTopP
		r.TopP = &v
	} else if *r.TopP < 0 || *r.TopP > 1 {
		return fmt.Errorf("top_p must be between 0 and 1")
	}
	return nil
}

// GenerationResult is what the backend returns before the gateway wraps it.
type GenerationResult struct {
	Text             string
	Model            string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

type GenerationChoice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type GenerationResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []GenerationChoice `json:"choices"`
	Usage   TokenUsage         `json:"usage"`
}
