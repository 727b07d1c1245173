// Package llm provides the OpenAI-compatible client used by the column
// description augmenter, plus the bounded worker pool and circuit breaker
// shared with the analysis pipeline.
package llm

import "context"

// DescriptionClient is the interface for chat-completion calls.
// Use this interface for dependency injection to enable mocking in tests.
type DescriptionClient interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure Client implements DescriptionClient at compile time.
var _ DescriptionClient = (*Client)(nil)
