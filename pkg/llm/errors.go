package llm

import (
	"fmt"
	"strings"
)

// Error represents a structured LLM error with classification.
type Error struct {
	Message    string // Human-readable message
	Retryable  bool   // Whether the operation can be retried
	Cause      error  // Underlying error
	StatusCode int    // HTTP status code if applicable
	Model      string // Model name if known
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether retrying the call could succeed.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}
