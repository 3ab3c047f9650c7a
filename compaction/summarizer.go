package compaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/relaydesk/casechat/types"
)

// Summary is the structured output of the summarization capability.
type Summary struct {
	// SummaryText is a short human-readable description of what the tool
	// call accomplished.
	SummaryText string `json:"summaryText"`

	// ShortTitle is a few-word label suitable for a chat title.
	ShortTitle string `json:"shortTitle"`
}

// Summarizer is the external text-generation capability the optimizer
// depends on. Implementations may expose a determinism knob; the
// optimizer treats the capability as opaque.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (*Summary, error)
}

// ToolCallRecorder durably records a summarized tool call. Idempotency is
// not guaranteed; callers must tolerate duplicate records on retry.
type ToolCallRecorder interface {
	RecordToolCall(ctx context.Context, toolName, messageID, providerCallID string,
		request, response []*types.ToolPart) (string, error)
}

// generator resolves one record's placeholder to its final summary text.
// Resolutions for distinct records run independently and concurrently;
// each record is only ever written by its own resolution.
type generator struct {
	summarizer Summarizer
	cache      SummaryCache
	recorder   ToolCallRecorder
	metrics    Metrics
	logger     Logger
	config     *Config
}

// resolve fills rec.Placeholder.Text, using the cache when possible and
// degrading to a deterministic fallback on any failure. It reports
// whether the summary came from the cache and the short title produced by
// a fresh generation, if any. A single record's failure never aborts the
// batch.
func (g *generator) resolve(ctx context.Context, rec *ToolCallRecord, grounding string) (cacheHit bool, shortTitle string) {
	start := time.Now()
	defer func() {
		g.metrics.ObserveSummaryDuration(time.Since(start))
	}()

	// Durable recording is a best-effort side channel: its failure is
	// surfaced to the error log but never blocks summary resolution.
	g.record(ctx, rec)

	hash := contentHash(rec)
	if cached, ok := g.cache.Get(hash); ok {
		g.metrics.IncCacheHits(1)
		rec.Placeholder.Text = cached
		return true, ""
	}
	g.metrics.IncCacheMisses(1)

	summary, err := g.generate(ctx, rec, grounding)
	if err != nil {
		g.logger.Warn("summary generation failed, using fallback",
			"tool_call_id", rec.ToolCallID, "error", err)
		fallback := fallbackSummary(rec)
		// Cache the fallback too: retrying a call doomed to fail the same
		// way wastes a generation.
		g.cache.Add(hash, fallback)
		rec.Placeholder.Text = fallback
		return false, ""
	}

	text := clip(summary.SummaryText, g.config.SummaryMaxChars)
	g.cache.Add(hash, text)
	rec.Placeholder.Text = text
	return false, summary.ShortTitle
}

// generate assembles the bounded prompt and invokes the summarization
// capability.
func (g *generator) generate(ctx context.Context, rec *ToolCallRecord, grounding string) (*Summary, error) {
	prompt, err := buildPrompt(rec, grounding, g.config.PromptMaxChars)
	if err != nil {
		return nil, err
	}

	summary, err := g.summarizer.Summarize(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
	}
	if summary == nil || summary.SummaryText == "" {
		return nil, fmt.Errorf("%w: empty response", ErrSummarizationFailed)
	}
	return summary, nil
}

func (g *generator) record(ctx context.Context, rec *ToolCallRecord) {
	if g.recorder == nil {
		return
	}

	names := rec.ToolNames()
	toolName := ""
	if len(names) > 0 {
		toolName = names[0]
	}

	id, err := g.recorder.RecordToolCall(ctx, toolName, rec.MessageID,
		rec.ToolCallID, rec.ToolRequest, rec.ToolResult)
	if err != nil {
		g.logger.Error("failed to record tool call",
			"tool_call_id", rec.ToolCallID, "tool", toolName, "error", err)
		return
	}
	rec.PersistedID = id
}

// buildPrompt assembles the summarization prompt: tool names and
// arguments, result payloads, and up to GroundingChars of surrounding
// conversation. Empty or oversized prompts fail fast rather than being
// silently truncated.
func buildPrompt(rec *ToolCallRecord, grounding string, maxChars int) (string, error) {
	var b strings.Builder

	for _, p := range rec.ToolRequest {
		fmt.Fprintf(&b, "Tool call: %s\n", p.ToolName)
		if len(p.Input) > 0 {
			fmt.Fprintf(&b, "Arguments: %s\n", string(p.Input))
		}
	}
	for _, p := range rec.ToolResult {
		if len(rec.ToolRequest) == 0 {
			fmt.Fprintf(&b, "Tool call: %s\n", p.ToolName)
		}
		if p.State == types.ToolStateOutputError {
			fmt.Fprintf(&b, "Result (error): %s\n", p.ErrorText)
		} else if len(p.Output) > 0 {
			fmt.Fprintf(&b, "Result: %s\n", string(p.Output))
		}
	}

	if grounding != "" {
		fmt.Fprintf(&b, "\nConversation context:\n%s\n", grounding)
	}

	prompt := b.String()
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if len(prompt) > maxChars {
		return "", fmt.Errorf("%w: %d chars, ceiling %d", ErrPromptTooLarge, len(prompt), maxChars)
	}
	return prompt, nil
}

// fallbackSummary is the deterministic text used when generation fails.
// It lists the tool names involved and nothing else.
func fallbackSummary(rec *ToolCallRecord) string {
	names := rec.ToolNames()
	if len(names) == 0 {
		names = []string{"unknown"}
	}
	return fmt.Sprintf("Tool execution completed: %s. Data processed successfully.",
		strings.Join(names, ", "))
}

// groundingText collects up to max characters of the nearest user message
// preceding the record, plus assistant reasoning adjacent to the request.
func groundingText(prefix []*types.Message, rec *ToolCallRecord, max int) string {
	var userText string
	for i := rec.msgIndex; i >= 0 && userText == ""; i-- {
		if prefix[i].Role != types.RoleUser {
			continue
		}
		for _, part := range prefix[i].Parts {
			if tp, ok := part.(*types.TextPart); ok && tp.Text != "" {
				userText = clip(tp.Text, max)
				break
			}
		}
	}

	switch {
	case userText != "" && rec.adjacentText != "":
		return "User: " + userText + "\nAssistant: " + rec.adjacentText
	case userText != "":
		return "User: " + userText
	case rec.adjacentText != "":
		return "Assistant: " + rec.adjacentText
	default:
		return ""
	}
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
