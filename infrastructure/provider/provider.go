// Package provider implements LLM provider clients for enrichment and
// embedding generation.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured indicates no provider endpoint is configured.
var ErrNotConfigured = errors.New("provider endpoint not configured")

// TextGenerator produces completion text from a prompt pair.
type TextGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Embedder converts text into embedding vectors, one per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Error wraps a provider failure with the operation that caused it.
type Error struct {
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

// NewError creates a provider Error.
func NewError(operation string, statusCode int, message string, err error) *Error {
	return &Error{Operation: operation, StatusCode: statusCode, Message: message, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s failed (status %d): %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error { return e.Err }
