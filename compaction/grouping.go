package compaction

import (
	"github.com/relaydesk/casechat/types"
)

// ToolCallRecord accumulates everything known about one tool invocation
// discovered during the backward scan: the request and response parts, the
// placeholder text part spliced into the rewritten message, and the id of
// the durable record once persisted.
//
// The placeholder is shared by reference with the rewritten message, so
// writing its text after the scan updates the output sequence in place.
// A record is only ever mutated by the single task that resolves it.
type ToolCallRecord struct {
	// ToolCallID is the stable identifier shared by all parts of the call.
	ToolCallID string

	// MessageID is the id of the message owning the first-seen part.
	MessageID string

	// ToolRequest holds the request-side parts, most recent first.
	ToolRequest []*types.ToolPart

	// ToolResult holds the response-side parts, most recent first.
	ToolResult []*types.ToolPart

	// Placeholder is the text part standing in for the request. Its text
	// is filled in once a summary resolves.
	Placeholder *types.TextPart

	// PersistedID is set once the call is durably recorded.
	PersistedID string

	// msgIndex is the index (within the pre-cutoff prefix) of the message
	// owning the first-seen part, used to locate grounding text.
	msgIndex int

	// adjacentText is assistant reasoning text adjacent to the request,
	// captured when the placeholder is spliced in.
	adjacentText string
}

// ToolNames returns the distinct tool names seen across the record's
// request and response parts, in encounter order.
func (r *ToolCallRecord) ToolNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range r.ToolResult {
		if p.ToolName != "" && !seen[p.ToolName] {
			seen[p.ToolName] = true
			names = append(names, p.ToolName)
		}
	}
	for _, p := range r.ToolRequest {
		if p.ToolName != "" && !seen[p.ToolName] {
			seen[p.ToolName] = true
			names = append(names, p.ToolName)
		}
	}
	return names
}

// grouping is the output of the tool-call grouping engine: a rewritten
// copy of the pre-cutoff messages and the dictionary of calls eligible
// for summarization.
type grouping struct {
	messages []*types.Message
	records  map[string]*ToolCallRecord

	// order lists record ids in discovery order so downstream iteration
	// stays deterministic.
	order []string
}

// groupToolCalls partitions the messages strictly before the cutoff into
// a tool-call dictionary and a placeholder-bearing message sequence.
//
// Messages are scanned last-to-first, and parts within each message
// last-to-first, so the most recent occurrence of a call is always seen
// before its older fragments. A message is only replaced in the output if
// one of its parts was rewritten; untouched messages reuse the original
// reference.
func groupToolCalls(prefix []*types.Message, preserved map[string]bool, logger Logger) *grouping {
	g := &grouping{
		messages: make([]*types.Message, len(prefix)),
		records:  make(map[string]*ToolCallRecord),
	}
	if preserved == nil {
		preserved = make(map[string]bool)
	}

	for i := len(prefix) - 1; i >= 0; i-- {
		msg := prefix[i]
		rebuilt := make([]types.Part, 0, len(msg.Parts))
		dirty := false
		spliced := make(map[string]bool)

		for j := len(msg.Parts) - 1; j >= 0; j-- {
			part := msg.Parts[j]

			tp, ok := part.(*types.ToolPart)
			if !ok || tp.ToolCallID == "" || preserved[tp.ToolCallID] {
				rebuilt = append(rebuilt, part)
				continue
			}

			rec, tracked := g.records[tp.ToolCallID]
			switch {
			case !tracked && tp.State.IsOutput():
				rec = &ToolCallRecord{
					ToolCallID:  tp.ToolCallID,
					MessageID:   msg.ID,
					Placeholder: &types.TextPart{},
					msgIndex:    i,
				}
				rec.ToolResult = append(rec.ToolResult, tp)
				g.records[tp.ToolCallID] = rec
				g.order = append(g.order, tp.ToolCallID)
				rebuilt = append(rebuilt, part)

			case !tracked && tp.State.IsInput():
				// The call never resolved before the cutoff. Summarizing a
				// call with an unknown outcome could fabricate information,
				// so preserve it for the rest of this scan.
				preserved[tp.ToolCallID] = true
				rebuilt = append(rebuilt, part)

			case !tracked:
				logger.Warn("tool part with unclassifiable state preserved",
					"tool_call_id", tp.ToolCallID, "state", string(tp.State))
				rebuilt = append(rebuilt, part)

			case tp.State == types.ToolStateInputAvailable:
				rec.ToolRequest = append(rec.ToolRequest, tp)
				if !spliced[tp.ToolCallID] {
					spliced[tp.ToolCallID] = true
					rec.adjacentText = assistantText(msg)
					rebuilt = append(rebuilt, rec.Placeholder)
				}
				dirty = true

			case tp.State == types.ToolStateInputStreaming:
				// Superseded by the settled request; dropped.
				dirty = true

			case tp.State.IsOutput():
				// A call should not normally settle twice, but if it does,
				// keep all the evidence.
				rec.ToolResult = append(rec.ToolResult, tp)
				rebuilt = append(rebuilt, part)

			default:
				logger.Warn("tool part with unclassifiable state preserved",
					"tool_call_id", tp.ToolCallID, "state", string(tp.State))
				rebuilt = append(rebuilt, part)
			}
		}

		if !dirty {
			g.messages[i] = msg
			continue
		}

		reverse(rebuilt)
		out := *msg
		out.Parts = rebuilt
		g.messages[i] = &out
	}

	return g
}

// assistantText joins the text parts of a message, used as reasoning
// context adjacent to a tool request.
func assistantText(msg *types.Message) string {
	var text string
	for _, part := range msg.Parts {
		if tp, ok := part.(*types.TextPart); ok && tp.Text != "" {
			if text != "" {
				text += "\n"
			}
			text += tp.Text
		}
	}
	return text
}

func reverse(parts []types.Part) {
	for l, r := 0, len(parts)-1; l < r; l, r = l+1, r-1 {
		parts[l], parts[r] = parts[r], parts[l]
	}
}
