package casechat

import (
	"github.com/relaydesk/casechat/types"
)

// Re-exported message constructors so most callers only import the root
// package.

// NewUserMessage creates a user message with a single text part.
func NewUserMessage(chatID, text string) *types.Message {
	return types.NewUserMessage(chatID, text)
}

// NewAssistantMessage creates an assistant message with the given parts.
func NewAssistantMessage(chatID string, parts ...types.Part) *types.Message {
	return types.NewAssistantMessage(chatID, parts)
}

// NormalizeMessage parses a raw provider message into the platform
// shape. It never fails; unknown structures degrade to text parts.
func NormalizeMessage(raw []byte) *types.Message {
	return types.NormalizeMessage(raw)
}
