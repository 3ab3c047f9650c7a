package compaction

import (
	"github.com/relaydesk/casechat/types"
)

// findCutoff scans the message sequence backward and locates the boundary
// that keeps the most recent interaction window untouched. The cutoff is
// the index of the (window-1)th user message counting from the end; every
// message at or after it is preserved verbatim.
//
// A cutoff of 0 means the thread does not yet contain `window` completed
// user turns and the optimizer must not touch it.
func findCutoff(messages []*types.Message, window int) (int, map[string]bool) {
	cutoff := 0
	candidate := -1
	seen := 0

	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != types.RoleUser {
			continue
		}
		seen++
		if seen == window-1 {
			candidate = i
		}
		if seen == window {
			cutoff = candidate
			break
		}
	}

	if cutoff <= 0 {
		return 0, nil
	}

	preserved := make(map[string]bool)
	for i := cutoff; i < len(messages); i++ {
		collectToolIDs(messages[i], preserved)
	}
	return cutoff, preserved
}

// collectToolIDs adds every well-formed tool invocation referenced by the
// message to the set. Parts with a tool call id but a missing or malformed
// state contribute nothing; they are not rejected elsewhere either.
func collectToolIDs(msg *types.Message, ids map[string]bool) {
	for _, part := range msg.Parts {
		tp, ok := part.(*types.ToolPart)
		if !ok || tp.ToolCallID == "" || !tp.State.Valid() {
			continue
		}
		ids[tp.ToolCallID] = true
	}
}
