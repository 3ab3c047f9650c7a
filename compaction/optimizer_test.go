package compaction

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/relaydesk/casechat/internal/testutil"
	"github.com/relaydesk/casechat/types"
)

// countingSummarizer is safe for the optimizer's concurrent fan-out.
type countingSummarizer struct {
	mu      sync.Mutex
	calls   int
	summary Summary
	err     error
}

func (c *countingSummarizer) Summarize(_ context.Context, _ string) (*Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	s := c.summary
	return &s, nil
}

func (c *countingSummarizer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// threadWithOldToolCall builds the canonical optimizable shape: an old
// exchange with a completed tool call, then a fresh interaction window.
func threadWithOldToolCall() []*types.Message {
	return []*types.Message{
		testutil.UserMsg("find the smith filing"),
		testutil.AssistantParts(
			&types.TextPart{Text: "Searching the case index."},
			testutil.ToolRequest("call-1", "search_cases", map[string]any{"q": "smith"}),
		),
		testutil.AssistantParts(testutil.ToolResult("call-1", "search_cases", map[string]any{"hits": 3})),
		testutil.AssistantText("I found three filings."),
		testutil.UserMsg("open the first one"),
		testutil.AssistantText("Here it is."),
	}
}

func TestOptimize_ShortThreadUntouched(t *testing.T) {
	s := &countingSummarizer{summary: Summary{SummaryText: "ignored"}}
	o := New(s, nil, nil, nil)

	messages := []*types.Message{
		testutil.UserMsg("hello"),
		testutil.AssistantText("hi"),
	}

	optimized, result, err := o.Optimize(context.Background(), messages)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if result.Optimized {
		t.Error("short thread reported as optimized")
	}
	if len(optimized) != len(messages) {
		t.Fatalf("len = %d, want %d", len(optimized), len(messages))
	}
	for i := range messages {
		if optimized[i] != messages[i] {
			t.Errorf("message %d replaced on a no-op", i)
		}
	}
	if s.count() != 0 {
		t.Errorf("summarizer invoked %d times on a no-op", s.count())
	}
}

func TestOptimize_RewritesOldToolCall(t *testing.T) {
	s := &countingSummarizer{summary: Summary{
		SummaryText: "Searched cases for smith and found three filings.",
		ShortTitle:  "Smith filings",
	}}
	o := New(s, nil, nil, nil)

	messages := threadWithOldToolCall()
	optimized, result, err := o.Optimize(context.Background(), messages)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if !result.Optimized {
		t.Fatal("thread not optimized")
	}
	if result.CutoffIndex != 4 {
		t.Errorf("CutoffIndex = %d, want 4", result.CutoffIndex)
	}
	if result.ToolCallsSummarized != 1 {
		t.Errorf("ToolCallsSummarized = %d, want 1", result.ToolCallsSummarized)
	}
	if result.ShortTitle != "Smith filings" {
		t.Errorf("ShortTitle = %q", result.ShortTitle)
	}
	if len(optimized) != len(messages) {
		t.Fatalf("message count changed: %d -> %d", len(messages), len(optimized))
	}

	// The tool request is now a summary text part.
	parts := optimized[1].Parts
	if len(parts) != 2 {
		t.Fatalf("rewritten parts = %d, want 2", len(parts))
	}
	text, ok := parts[1].(*types.TextPart)
	if !ok {
		t.Fatalf("part is %T, want summary text", parts[1])
	}
	if text.Text != "Searched cases for smith and found three filings." {
		t.Errorf("summary = %q", text.Text)
	}

	// The tool-result message is left untouched.
	if optimized[2] != messages[2] {
		t.Error("result-only message replaced")
	}

	// The interaction window is untouched, reference and all.
	for i := result.CutoffIndex; i < len(messages); i++ {
		if optimized[i] != messages[i] {
			t.Errorf("window message %d replaced", i)
		}
	}

	// Outcome reporting.
	if len(result.Summaries) != 1 {
		t.Fatalf("Summaries = %d entries", len(result.Summaries))
	}
	outcome := result.Summaries[0]
	if outcome.ToolCallID != "call-1" || outcome.FromCache {
		t.Errorf("outcome = %+v", outcome)
	}
	if result.CacheMisses != 1 || result.CacheHits != 0 {
		t.Errorf("cache hits/misses = %d/%d", result.CacheHits, result.CacheMisses)
	}
}

func TestOptimize_InputNeverMutated(t *testing.T) {
	s := &countingSummarizer{summary: Summary{SummaryText: "summary"}}
	o := New(s, nil, nil, nil)

	messages := threadWithOldToolCall()
	originalParts := messages[1].Parts

	if _, _, err := o.Optimize(context.Background(), messages); err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if len(messages[1].Parts) != 2 {
		t.Fatal("input message part count changed")
	}
	for i := range originalParts {
		if messages[1].Parts[i] != originalParts[i] {
			t.Errorf("input part %d replaced in place", i)
		}
	}
	if _, ok := messages[1].Parts[1].(*types.ToolPart); !ok {
		t.Error("input tool part no longer a tool part")
	}
}

func TestOptimize_SecondRunHitsCache(t *testing.T) {
	s := &countingSummarizer{summary: Summary{SummaryText: "summary", ShortTitle: "title"}}
	o := New(s, nil, nil, nil)

	if _, _, err := o.Optimize(context.Background(), threadWithOldToolCall()); err != nil {
		t.Fatalf("first Optimize: %v", err)
	}
	_, result, err := o.Optimize(context.Background(), threadWithOldToolCall())
	if err != nil {
		t.Fatalf("second Optimize: %v", err)
	}

	if s.count() != 1 {
		t.Errorf("summarizer calls = %d, want 1 (second run cached)", s.count())
	}
	if result.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", result.CacheHits)
	}
	if result.ShortTitle != "" {
		t.Errorf("ShortTitle = %q, cache hits produce no title", result.ShortTitle)
	}
	if len(result.Summaries) != 1 || !result.Summaries[0].FromCache {
		t.Errorf("Summaries = %+v", result.Summaries)
	}
}

func TestOptimize_SummarizerFailureFallsBack(t *testing.T) {
	s := &countingSummarizer{err: errors.New("model down")}
	o := New(s, nil, nil, nil)

	optimized, result, err := o.Optimize(context.Background(), threadWithOldToolCall())
	if err != nil {
		t.Fatalf("Optimize should not fail on summarizer errors: %v", err)
	}
	if !result.Optimized {
		t.Fatal("thread not optimized")
	}

	text, ok := optimized[1].Parts[1].(*types.TextPart)
	if !ok {
		t.Fatalf("part is %T", optimized[1].Parts[1])
	}
	if !strings.HasPrefix(text.Text, "Tool execution completed:") {
		t.Errorf("placeholder = %q, want fallback", text.Text)
	}
}

func TestOptimize_NoToolCallsInPrefix(t *testing.T) {
	s := &countingSummarizer{summary: Summary{SummaryText: "ignored"}}
	o := New(s, nil, nil, nil)

	messages := []*types.Message{
		testutil.UserMsg("q1"),
		testutil.AssistantText("a1"),
		testutil.UserMsg("q2"),
		testutil.AssistantText("a2"),
		testutil.UserMsg("q3"),
		testutil.AssistantText("a3"),
	}

	optimized, result, err := o.Optimize(context.Background(), messages)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if result.Optimized {
		t.Error("nothing to rewrite, Optimized should be false")
	}
	for i := range messages {
		if optimized[i] != messages[i] {
			t.Errorf("message %d replaced", i)
		}
	}
	if s.count() != 0 {
		t.Errorf("summarizer calls = %d", s.count())
	}
}

func TestOptimize_RecentToolCallPreserved(t *testing.T) {
	s := &countingSummarizer{summary: Summary{SummaryText: "summary"}}
	o := New(s, nil, nil, nil)

	// The tool call lives in the interaction window; nothing to do.
	messages := []*types.Message{
		testutil.UserMsg("q1"),
		testutil.AssistantText("a1"),
		testutil.UserMsg("q2"),
		testutil.AssistantParts(
			testutil.ToolRequest("recent", "lookup", nil),
			testutil.ToolResult("recent", "lookup", "data"),
		),
	}

	optimized, result, err := o.Optimize(context.Background(), messages)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if result.ToolCallsSummarized != 0 {
		t.Errorf("ToolCallsSummarized = %d, want 0", result.ToolCallsSummarized)
	}
	if optimized[3] != messages[3] {
		t.Error("window message with tool call replaced")
	}
}

func TestOptimize_ManyCallsAllResolved(t *testing.T) {
	s := &countingSummarizer{summary: Summary{SummaryText: "resolved"}}
	o := New(s, nil, &Config{MaxConcurrent: 3}, nil)

	var messages []*types.Message
	messages = append(messages, testutil.UserMsg("do several things"))
	for i := 0; i < 9; i++ {
		id := string(rune('a' + i))
		messages = append(messages,
			testutil.AssistantParts(testutil.ToolRequest(id, "tool_"+id, map[string]any{"n": i})),
			testutil.AssistantParts(testutil.ToolResult(id, "tool_"+id, i)),
		)
	}
	messages = append(messages,
		testutil.UserMsg("thanks"),
		testutil.AssistantText("done"),
	)

	optimized, result, err := o.Optimize(context.Background(), messages)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if result.ToolCallsSummarized != 9 {
		t.Fatalf("ToolCallsSummarized = %d, want 9", result.ToolCallsSummarized)
	}
	if s.count() != 9 {
		t.Errorf("summarizer calls = %d, want 9 (distinct content per call)", s.count())
	}
	if len(result.Summaries) != 9 {
		t.Errorf("Summaries = %d entries", len(result.Summaries))
	}

	// Every placeholder resolved before Optimize returned.
	for i, msg := range optimized[:result.CutoffIndex] {
		for _, part := range msg.Parts {
			if text, ok := part.(*types.TextPart); ok && i > 0 {
				if text.Text == "" {
					t.Errorf("message %d carries an unresolved placeholder", i)
				}
			}
		}
	}
}

func TestOptimize_CharReductionReported(t *testing.T) {
	big := strings.Repeat("payload ", 500)
	s := &countingSummarizer{summary: Summary{SummaryText: "short summary"}}
	o := New(s, nil, nil, nil)

	messages := []*types.Message{
		testutil.UserMsg("fetch the archive"),
		testutil.AssistantParts(testutil.ToolRequest("big", "fetch_archive", map[string]any{"blob": big})),
		testutil.AssistantParts(testutil.ToolResult("big", "fetch_archive", big)),
		testutil.UserMsg("now what"),
		testutil.AssistantText("done"),
	}

	_, result, err := o.Optimize(context.Background(), messages)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if result.CharsAfter >= result.CharsBefore {
		t.Errorf("chars did not shrink: %d -> %d", result.CharsBefore, result.CharsAfter)
	}
	if ratio := result.CharReductionRatio(); ratio >= 1 {
		t.Errorf("CharReductionRatio = %f", ratio)
	}
}

func TestResult_RatiosOnZeroCounts(t *testing.T) {
	var r Result
	if r.MessageReductionRatio() != 1 {
		t.Errorf("MessageReductionRatio = %f", r.MessageReductionRatio())
	}
	if r.CharReductionRatio() != 1 {
		t.Errorf("CharReductionRatio = %f", r.CharReductionRatio())
	}
}
