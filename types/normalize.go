package types

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// NormalizeMessage converts a loosely shaped message payload into the
// closed part vocabulary. Callers feed it whatever the transport handed
// them: content may live under "parts" or a legacy "content" list, tool
// parts may carry their name inline or encoded in the type tag.
//
// Normalization is total: it never fails and never panics. A part that
// does not carry both a type and a recognizable tool state is passed
// through as text, so downstream processing always has a safe fallback.
func NormalizeMessage(raw []byte) *Message {
	doc := gjson.ParseBytes(raw)

	msg := &Message{
		ID:   doc.Get("id").String(),
		Role: normalizeRole(doc.Get("role").String()),
	}

	list := doc.Get("parts")
	if !list.IsArray() {
		list = doc.Get("content")
	}

	if !list.IsArray() {
		// Bare string content, the oldest compatibility shape.
		if content := doc.Get("content"); content.Type == gjson.String {
			msg.Parts = []Part{&TextPart{Text: content.String()}}
		}
		return msg
	}

	for _, item := range list.Array() {
		msg.Parts = append(msg.Parts, NormalizePart(item))
	}
	return msg
}

// NormalizePart classifies a single content element. A part qualifies as
// a tool part iff it carries both a type and a state belonging to the
// four-value state enum; anything else becomes a text part, verbatim.
func NormalizePart(item gjson.Result) Part {
	typ := item.Get("type").String()
	state := ToolState(item.Get("state").String())

	if typ == "" || !state.Valid() {
		if text := item.Get("text"); text.Exists() {
			return &TextPart{Text: text.String()}
		}
		// Unrecognized shape: preserve the raw JSON untouched.
		return &TextPart{Text: item.Raw}
	}

	part := &ToolPart{
		ToolCallID: item.Get("toolCallId").String(),
		ToolName:   item.Get("toolName").String(),
		State:      state,
		ErrorText:  item.Get("errorText").String(),
	}
	if part.ToolCallID == "" {
		part.ToolCallID = item.Get("id").String()
	}
	if part.ToolName == "" {
		part.ToolName = strings.TrimPrefix(typ, "tool-")
	}
	if input := item.Get("input"); input.Exists() {
		part.Input = json.RawMessage(input.Raw)
	}
	if output := item.Get("output"); output.Exists() {
		part.Output = json.RawMessage(output.Raw)
	}
	return part
}

func normalizeRole(role string) Role {
	switch Role(role) {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return Role(role)
	default:
		return RoleUser
	}
}
