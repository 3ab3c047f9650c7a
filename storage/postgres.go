package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tidwall/gjson"

	"github.com/relaydesk/casechat/types"
)

// txContextKey is the context key for storing pgx.Tx
type txContextKey struct{}

// WithTx returns a new context with the given transaction
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext retrieves the transaction from context, or nil if not present
func TxFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// querier is a common interface for pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using PostgreSQL with pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// getQuerier returns the transaction from context if present, otherwise the pool
func (s *PostgresStore) getQuerier(ctx context.Context) querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

// CreateChat creates a new chat thread bound to a case.
func (s *PostgresStore) CreateChat(ctx context.Context, caseID string, metadata map[string]any) (string, error) {
	if caseID == "" {
		return "", fmt.Errorf("case_id is required")
	}

	chatID := uuid.New().String()

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO casechat_chats (id, case_id, title, metadata, created_at, updated_at)
		VALUES ($1, $2, '', $3, NOW(), NOW())
	`

	_, err = s.getQuerier(ctx).Exec(ctx, query, chatID, caseID, metadataJSON)
	if err != nil {
		return "", fmt.Errorf("failed to create chat: %w", err)
	}

	return chatID, nil
}

// GetChat retrieves a chat by ID.
func (s *PostgresStore) GetChat(ctx context.Context, chatID string) (*Chat, error) {
	query := `
		SELECT id, case_id, title, metadata, created_at, updated_at
		FROM casechat_chats
		WHERE id = $1
	`

	var chat Chat
	var metadataJSON []byte

	err := s.getQuerier(ctx).QueryRow(ctx, query, chatID).Scan(
		&chat.ID,
		&chat.CaseID,
		&chat.Title,
		&metadataJSON,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("chat not found: %s", chatID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	if err := json.Unmarshal(metadataJSON, &chat.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &chat, nil
}

// SetChatTitle updates the chat title.
func (s *PostgresStore) SetChatTitle(ctx context.Context, chatID, title string) error {
	query := `
		UPDATE casechat_chats SET title = $2, updated_at = NOW() WHERE id = $1
	`

	tag, err := s.getQuerier(ctx).Exec(ctx, query, chatID, title)
	if err != nil {
		return fmt.Errorf("failed to set chat title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chat not found: %s", chatID)
	}
	return nil
}

// SaveMessage appends a message to its chat.
func (s *PostgresStore) SaveMessage(ctx context.Context, msg *types.Message) error {
	partsJSON, err := encodeParts(msg.Parts)
	if err != nil {
		return fmt.Errorf("failed to marshal parts: %w", err)
	}

	query := `
		INSERT INTO casechat_messages (id, chat_id, role, parts, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = s.getQuerier(ctx).Exec(ctx, query, msg.ID, msg.ChatID, string(msg.Role), partsJSON, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// GetMessages retrieves the chat's messages in chronological order.
func (s *PostgresStore) GetMessages(ctx context.Context, chatID string) ([]*types.Message, error) {
	query := `
		SELECT id, chat_id, role, parts, created_at
		FROM casechat_messages
		WHERE chat_id = $1
		ORDER BY created_at, id
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []*types.Message
	for rows.Next() {
		var msg types.Message
		var role string
		var partsJSON []byte

		if err := rows.Scan(&msg.ID, &msg.ChatID, &role, &partsJSON, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.Role = types.Role(role)
		msg.Parts = decodeParts(partsJSON)
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

// ReplaceMessages swaps the stored thread for the given sequence in a
// single transaction.
func (s *PostgresStore) ReplaceMessages(ctx context.Context, chatID string, messages []*types.Message) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM casechat_messages WHERE chat_id = $1`, chatID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	txCtx := WithTx(ctx, tx)
	for _, msg := range messages {
		if msg.ChatID == "" {
			msg.ChatID = chatID
		}
		if err := s.SaveMessage(txCtx, msg); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// SaveOptimizationEvent records one optimization run.
func (s *PostgresStore) SaveOptimizationEvent(ctx context.Context, event *OptimizationEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	query := `
		INSERT INTO casechat_optimization_events
			(id, chat_id, cutoff_index, tool_calls_summarized,
			 messages_before, messages_after, chars_before, chars_after,
			 cache_hits, cache_misses, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	`

	_, err := s.getQuerier(ctx).Exec(ctx, query,
		event.ID,
		event.ChatID,
		event.CutoffIndex,
		event.ToolCallsSummarized,
		event.MessagesBefore,
		event.MessagesAfter,
		event.CharsBefore,
		event.CharsAfter,
		event.CacheHits,
		event.CacheMisses,
		event.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to save optimization event: %w", err)
	}
	return nil
}

// RecordToolCall durably records a summarized tool call. The tool id is
// resolved from the tool name, registering the tool on first sight. The
// write is transactional per record; separate records do not coordinate.
func (s *PostgresStore) RecordToolCall(ctx context.Context, toolName, messageID, providerCallID string,
	request, response []*types.ToolPart) (string, error) {

	if toolName == "" {
		return "", fmt.Errorf("tool name is required")
	}

	requestJSON, err := encodeToolParts(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request parts: %w", err)
	}
	responseJSON, err := encodeToolParts(response)
	if err != nil {
		return "", fmt.Errorf("failed to marshal response parts: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var toolID string
	err = tx.QueryRow(ctx, `
		INSERT INTO casechat_tools (id, name, created_at)
		VALUES (gen_random_uuid(), $1, NOW())
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, toolName).Scan(&toolID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve tool %q: %w", toolName, err)
	}

	recordID := uuid.New().String()
	_, err = tx.Exec(ctx, `
		INSERT INTO casechat_tool_calls
			(id, tool_id, message_id, provider_call_id, request, response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, recordID, toolID, messageID, providerCallID, requestJSON, responseJSON)
	if err != nil {
		return "", fmt.Errorf("failed to record tool call: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return recordID, nil
}

// partRow is the JSONB wire shape of a part. Reads go back through the
// normalization boundary, so writes only need to produce shapes it accepts.
type partRow struct {
	Type       string          `json:"type"`
	Text       string          `json:"text,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	State      string          `json:"state,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	ErrorText  string          `json:"errorText,omitempty"`
}

func encodeParts(parts []types.Part) ([]byte, error) {
	rows := make([]partRow, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case *types.TextPart:
			rows = append(rows, partRow{Type: "text", Text: p.Text})
		case *types.ToolPart:
			rows = append(rows, partRow{
				Type:       "tool-" + p.ToolName,
				ToolCallID: p.ToolCallID,
				ToolName:   p.ToolName,
				State:      string(p.State),
				Input:      p.Input,
				Output:     p.Output,
				ErrorText:  p.ErrorText,
			})
		default:
			return nil, fmt.Errorf("unknown part type %T", part)
		}
	}
	return json.Marshal(rows)
}

func encodeToolParts(parts []*types.ToolPart) ([]byte, error) {
	generic := make([]types.Part, len(parts))
	for i, p := range parts {
		generic[i] = p
	}
	return encodeParts(generic)
}

func decodeParts(raw []byte) []types.Part {
	var parts []types.Part
	for _, item := range gjson.ParseBytes(raw).Array() {
		parts = append(parts, types.NormalizePart(item))
	}
	return parts
}
