package casechat

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfig is returned when the client configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrChatNotFound is returned when a chat does not exist
	ErrChatNotFound = errors.New("chat not found")

	// ErrOptimizationFailed is returned when history optimization fails
	ErrOptimizationFailed = errors.New("history optimization failed")

	// ErrStorageError is returned when a storage operation failed
	ErrStorageError = errors.New("storage operation failed")

	// ErrClientClosed is returned when using a closed client
	ErrClientClosed = errors.New("client is closed")
)

// ClientError provides structured error information for client operations.
type ClientError struct {
	// Op is the operation that failed
	Op string

	// ChatID is the affected chat, if any
	ChatID string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *ClientError) Error() string {
	if e.ChatID != "" {
		return fmt.Sprintf("casechat: %s: chat %s: %v", e.Op, e.ChatID, e.Err)
	}
	return fmt.Sprintf("casechat: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *ClientError) Unwrap() error {
	return e.Err
}

func clientError(op, chatID string, err error) *ClientError {
	return &ClientError{Op: op, ChatID: chatID, Err: err}
}
