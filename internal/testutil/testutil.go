// Package testutil provides test utilities for casechat
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaydesk/casechat/types"
)

// TestDB wraps a PostgreSQL connection pool for testing
type TestDB struct {
	Pool *pgxpool.Pool
}

// NewTestDB creates a test database connection from DATABASE_URL env var
// Returns nil if DATABASE_URL is not set (for unit tests)
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("Failed to ping database: %v", err)
	}

	return &TestDB{Pool: pool}
}

// Close closes the database connection
func (db *TestDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// CleanTables truncates all tables for test isolation
func (db *TestDB) CleanTables(ctx context.Context) error {
	tables := []string{
		"casechat_optimization_events",
		"casechat_tool_calls",
		"casechat_tools",
		"casechat_messages",
		"casechat_chats",
	}

	for _, table := range tables {
		_, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}

	return nil
}

// SetupTestChat creates a test chat and returns its ID
func (db *TestDB) SetupTestChat(ctx context.Context, t *testing.T) string {
	t.Helper()

	var chatID string
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO casechat_chats (id, case_id, title, metadata, created_at, updated_at)
		VALUES (gen_random_uuid(), 'test-case', '', '{}', NOW(), NOW())
		RETURNING id
	`).Scan(&chatID)

	if err != nil {
		t.Fatalf("Failed to create test chat: %v", err)
	}

	return chatID
}

// UserMsg builds a user message with a single text part.
func UserMsg(text string) *types.Message {
	return types.NewUserMessage("test-chat", text)
}

// AssistantText builds an assistant message with a single text part.
func AssistantText(text string) *types.Message {
	return types.NewAssistantMessage("test-chat", []types.Part{&types.TextPart{Text: text}})
}

// AssistantParts builds an assistant message with the given parts.
func AssistantParts(parts ...types.Part) *types.Message {
	return types.NewAssistantMessage("test-chat", parts)
}

// ToolRequest builds an input-available tool part.
func ToolRequest(id, name string, input any) *types.ToolPart {
	raw, _ := json.Marshal(input)
	return &types.ToolPart{
		ToolCallID: id,
		ToolName:   name,
		State:      types.ToolStateInputAvailable,
		Input:      raw,
	}
}

// ToolResult builds an output-available tool part.
func ToolResult(id, name string, output any) *types.ToolPart {
	raw, _ := json.Marshal(output)
	return &types.ToolPart{
		ToolCallID: id,
		ToolName:   name,
		State:      types.ToolStateOutputAvailable,
		Output:     raw,
	}
}

// ToolError builds an output-error tool part.
func ToolError(id, name, errText string) *types.ToolPart {
	return &types.ToolPart{
		ToolCallID: id,
		ToolName:   name,
		State:      types.ToolStateOutputError,
		ErrorText:  errText,
	}
}
