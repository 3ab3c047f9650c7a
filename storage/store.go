package storage

import (
	"context"
	"time"

	"github.com/relaydesk/casechat/types"
)

// Store defines the chat persistence interface for the platform.
type Store interface {
	// Chat operations
	CreateChat(ctx context.Context, caseID string, metadata map[string]any) (string, error)
	GetChat(ctx context.Context, chatID string) (*Chat, error)
	SetChatTitle(ctx context.Context, chatID, title string) error

	// Message operations
	SaveMessage(ctx context.Context, msg *types.Message) error
	GetMessages(ctx context.Context, chatID string) ([]*types.Message, error)
	// ReplaceMessages swaps the stored thread for the given sequence in a
	// single transaction.
	ReplaceMessages(ctx context.Context, chatID string, messages []*types.Message) error

	// Optimization operations
	SaveOptimizationEvent(ctx context.Context, event *OptimizationEvent) error

	// RecordToolCall durably records a summarized tool call, resolving the
	// tool id from its name. Not guaranteed idempotent; callers must
	// tolerate duplicate records on retry.
	RecordToolCall(ctx context.Context, toolName, messageID, providerCallID string,
		request, response []*types.ToolPart) (string, error)
}

// Chat represents a case-bound conversation thread.
type Chat struct {
	ID        string         `json:"id"`
	CaseID    string         `json:"case_id"`
	Title     string         `json:"title"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// OptimizationEvent records one history optimization for audit and
// operational visibility.
type OptimizationEvent struct {
	ID                  string    `json:"id"`
	ChatID              string    `json:"chat_id"`
	CutoffIndex         int       `json:"cutoff_index"`
	ToolCallsSummarized int       `json:"tool_calls_summarized"`
	MessagesBefore      int       `json:"messages_before"`
	MessagesAfter       int       `json:"messages_after"`
	CharsBefore         int       `json:"chars_before"`
	CharsAfter          int       `json:"chars_after"`
	CacheHits           int       `json:"cache_hits"`
	CacheMisses         int       `json:"cache_misses"`
	DurationMS          int64     `json:"duration_ms"`
	CreatedAt           time.Time `json:"created_at"`
}
