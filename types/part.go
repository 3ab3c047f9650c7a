package types

import "encoding/json"

// Part represents one atomic content unit within a message. Concrete part
// types implement the unexported isPart marker, keeping the set closed so
// the optimizer can match exhaustively.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string `json:"text"`
}

func (*TextPart) isPart() {}

// ToolPart is one fragment of a tool invocation: either the request side
// (input states) or the response side (output states). Parts sharing a
// ToolCallID across message boundaries refer to the same logical call.
type ToolPart struct {
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	State      ToolState       `json:"state"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	ErrorText  string          `json:"errorText,omitempty"`
}

func (*ToolPart) isPart() {}

// ToolState is the lifecycle state of a tool invocation fragment.
type ToolState string

const (
	// ToolStateInputStreaming is a partial request still being streamed.
	ToolStateInputStreaming ToolState = "input-streaming"

	// ToolStateInputAvailable is a settled request.
	ToolStateInputAvailable ToolState = "input-available"

	// ToolStateOutputAvailable is a settled successful response.
	ToolStateOutputAvailable ToolState = "output-available"

	// ToolStateOutputError is a settled failed response.
	ToolStateOutputError ToolState = "output-error"
)

// Valid reports whether s is one of the four known states.
func (s ToolState) Valid() bool {
	switch s {
	case ToolStateInputStreaming, ToolStateInputAvailable,
		ToolStateOutputAvailable, ToolStateOutputError:
		return true
	}
	return false
}

// IsInput reports whether s belongs to the input (request) family.
func (s ToolState) IsInput() bool {
	return s == ToolStateInputStreaming || s == ToolStateInputAvailable
}

// IsOutput reports whether s belongs to the output (response) family.
func (s ToolState) IsOutput() bool {
	return s == ToolStateOutputAvailable || s == ToolStateOutputError
}

// PartChars returns the approximate character size of a part. It is the
// unit the optimizer uses for size metrics; no tokenizer is involved.
func PartChars(p Part) int {
	switch v := p.(type) {
	case *TextPart:
		return len(v.Text)
	case *ToolPart:
		return len(v.ToolName) + len(v.Input) + len(v.Output) + len(v.ErrorText)
	default:
		return 0
	}
}
