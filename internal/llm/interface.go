package llm

import (
	"context"
	"errors"
)

// Request is one prompt submitted to a language model
type Request struct {
	SystemPrompt string
	Prompt       string
	Temperature  float64
	MaxTokens    int
}

// Response is the text a language model answered with
type Response struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// CompleterInterface defines the contract for language model providers
type CompleterInterface interface {
	GetName() string
	IsEnabled() bool
	Complete(ctx context.Context, req Request) (*Response, error)
}

var (
	// ErrTimeout is returned when the call did not finish before its deadline
	ErrTimeout = errors.New("language model call timed out")
	// ErrRateLimited is returned when the provider answered 429
	ErrRateLimited = errors.New("language model rate limit exceeded")
	// ErrEmptyResponse is returned when the provider answered without any text
	ErrEmptyResponse = errors.New("language model returned no text")
	// ErrNotConfigured is returned when the provider has no credentials
	ErrNotConfigured = errors.New("language model provider not configured")
)
