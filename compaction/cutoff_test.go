package compaction

import (
	"testing"

	"github.com/relaydesk/casechat/internal/testutil"
	"github.com/relaydesk/casechat/types"
)

func TestFindCutoff_TooFewUserTurns(t *testing.T) {
	tests := []struct {
		name     string
		messages []*types.Message
	}{
		{"empty thread", nil},
		{"single user turn", []*types.Message{
			testutil.UserMsg("hello"),
			testutil.AssistantText("hi"),
		}},
		{"assistant only", []*types.Message{
			testutil.AssistantText("hi"),
			testutil.AssistantText("still here"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cutoff, preserved := findCutoff(tt.messages, 2)
			if cutoff != 0 {
				t.Errorf("cutoff = %d, want 0", cutoff)
			}
			if preserved != nil {
				t.Errorf("preserved = %v, want nil", preserved)
			}
		})
	}
}

func TestFindCutoff_LastUserTurnBoundary(t *testing.T) {
	messages := []*types.Message{
		testutil.UserMsg("first question"),  // 0
		testutil.AssistantText("answer"),    // 1
		testutil.UserMsg("second question"), // 2
		testutil.AssistantText("answer"),    // 3
		testutil.UserMsg("third question"),  // 4
		testutil.AssistantText("answer"),    // 5
	}

	cutoff, _ := findCutoff(messages, 2)
	if cutoff != 4 {
		t.Errorf("cutoff = %d, want 4 (last user turn boundary)", cutoff)
	}
}

func TestFindCutoff_WiderWindow(t *testing.T) {
	messages := []*types.Message{
		testutil.UserMsg("q1"),           // 0
		testutil.AssistantText("a1"),     // 1
		testutil.UserMsg("q2"),           // 2
		testutil.AssistantText("a2"),     // 3
		testutil.UserMsg("q3"),           // 4
		testutil.AssistantText("a3"),     // 5
		testutil.UserMsg("q4"),           // 6
		testutil.AssistantText("so far"), // 7
	}

	cutoff, _ := findCutoff(messages, 3)
	if cutoff != 4 {
		t.Errorf("cutoff = %d, want 4", cutoff)
	}
}

func TestFindCutoff_ExactlyWindowTurns(t *testing.T) {
	// With exactly two user turns, the boundary sits at the last user
	// message and only the first exchange is eligible for rewriting.
	messages := []*types.Message{
		testutil.UserMsg("q1"),
		testutil.AssistantText("a1"),
		testutil.UserMsg("q2"),
		testutil.AssistantText("a2"),
	}

	cutoff, _ := findCutoff(messages, 2)
	if cutoff != 2 {
		t.Errorf("cutoff = %d, want 2", cutoff)
	}
}

func TestFindCutoff_PreservedToolIDs(t *testing.T) {
	messages := []*types.Message{
		testutil.UserMsg("q1"), // 0
		testutil.AssistantParts( // 1
			testutil.ToolRequest("old-call", "search", map[string]any{"q": "x"}),
			testutil.ToolResult("old-call", "search", "found"),
		),
		testutil.UserMsg("q2"), // 2
		testutil.AssistantText("a2"), // 3
		testutil.UserMsg("q3"), // 4 <- cutoff
		testutil.AssistantParts( // 5
			testutil.ToolRequest("recent-call", "lookup", nil),
			testutil.ToolResult("recent-call", "lookup", "data"),
		),
	}

	cutoff, preserved := findCutoff(messages, 2)
	if cutoff != 4 {
		t.Fatalf("cutoff = %d, want 4", cutoff)
	}
	if !preserved["recent-call"] {
		t.Error("recent-call should be preserved, it lives in the window")
	}
	if preserved["old-call"] {
		t.Error("old-call should not be preserved, it lives before the cutoff")
	}
}

func TestFindCutoff_MalformedToolPartsContributeNoIDs(t *testing.T) {
	messages := []*types.Message{
		testutil.UserMsg("q1"),
		testutil.AssistantText("a1"),
		testutil.UserMsg("q2"),
		testutil.AssistantParts(
			&types.ToolPart{ToolCallID: "bad-state", ToolName: "x", State: types.ToolState("done")},
			&types.ToolPart{ToolName: "anonymous", State: types.ToolStateOutputAvailable},
		),
	}

	cutoff, preserved := findCutoff(messages, 2)
	if cutoff != 2 {
		t.Fatalf("cutoff = %d, want 2", cutoff)
	}
	if len(preserved) != 0 {
		t.Errorf("preserved = %v, want empty", preserved)
	}
}
