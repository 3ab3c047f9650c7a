package compaction

import (
	"errors"
	"fmt"
)

// Sentinel errors for optimization operations.
var (
	// ErrInvalidConfig indicates invalid optimizer configuration.
	ErrInvalidConfig = errors.New("invalid optimizer configuration")

	// ErrEmptyPrompt indicates the assembled summarization prompt was empty.
	ErrEmptyPrompt = errors.New("empty summarization prompt")

	// ErrPromptTooLarge indicates the assembled prompt exceeded the hard ceiling.
	ErrPromptTooLarge = errors.New("summarization prompt exceeds size ceiling")

	// ErrSummarizationFailed indicates the summarization capability errored.
	ErrSummarizationFailed = errors.New("summarization failed")

	// ErrMissingToolCallID indicates a tool part with no resolvable identity.
	ErrMissingToolCallID = errors.New("tool part has no tool call id")

	// ErrStorageError indicates a persistence operation failed.
	ErrStorageError = errors.New("storage operation failed")
)

// OptimizeError provides structured error context for optimization operations.
type OptimizeError struct {
	// Op is the operation that failed (e.g., "Optimize", "GroupToolCalls").
	Op string

	// ChatID is the chat identifier if applicable.
	ChatID string

	// Err is the underlying error.
	Err error

	// Context holds additional key-value pairs for diagnostics.
	Context map[string]any
}

// Error returns a formatted error message.
func (e *OptimizeError) Error() string {
	msg := fmt.Sprintf("optimization %s failed", e.Op)
	if e.ChatID != "" {
		msg += fmt.Sprintf(" for chat %s", e.ChatID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *OptimizeError) Unwrap() error {
	return e.Err
}

// NewOptimizeError creates a new OptimizeError with the given operation and
// underlying error.
func NewOptimizeError(op string, err error) *OptimizeError {
	return &OptimizeError{
		Op:      op,
		Err:     err,
		Context: make(map[string]any),
	}
}

// WithChat sets the chat ID on the error and returns the error for chaining.
func (e *OptimizeError) WithChat(chatID string) *OptimizeError {
	e.ChatID = chatID
	return e
}

// WithContext adds a key-value pair to the error context and returns the
// error for chaining.
func (e *OptimizeError) WithContext(key string, value any) *OptimizeError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WrapError wraps an error with operation context. If err is nil, returns nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewOptimizeError(op, err)
}
