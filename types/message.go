package types

import (
	"time"

	"github.com/google/uuid"
)

// Role represents the message role
type Role string

const (
	// RoleUser represents a user message
	RoleUser Role = "user"

	// RoleAssistant represents an assistant message
	RoleAssistant Role = "assistant"

	// RoleSystem represents a system message
	RoleSystem Role = "system"

	// RoleTool represents a tool-result message
	RoleTool Role = "tool"
)

// Message represents one conversation turn authored by a single role.
// A message owns an ordered sequence of parts; the optimizer never mutates
// a caller-supplied message in place, it produces a rewritten copy.
type Message struct {
	ID        string    `json:"id,omitempty"`
	ChatID    string    `json:"chat_id,omitempty"`
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(chatID string, role Role, parts []Part) *Message {
	return &Message{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		Role:      role,
		Parts:     parts,
		CreatedAt: time.Now(),
	}
}

// NewUserMessage creates a new user message with text content.
func NewUserMessage(chatID, text string) *Message {
	return NewMessage(chatID, RoleUser, []Part{&TextPart{Text: text}})
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(chatID string, parts []Part) *Message {
	return NewMessage(chatID, RoleAssistant, parts)
}

// CloneShallow returns a copy of the message with its own parts slice.
// The parts themselves are shared; callers replacing parts must not
// mutate the shared ones.
func (m *Message) CloneShallow() *Message {
	clone := *m
	clone.Parts = make([]Part, len(m.Parts))
	copy(clone.Parts, m.Parts)
	return &clone
}

// CharCount returns the approximate character size of the message.
func (m *Message) CharCount() int {
	total := 0
	for _, p := range m.Parts {
		total += PartChars(p)
	}
	return total
}

// CharCountAll sums CharCount across messages.
func CharCountAll(messages []*Message) int {
	total := 0
	for _, m := range messages {
		total += m.CharCount()
	}
	return total
}
