package hooks

import (
	"context"
	"log"

	"github.com/relaydesk/casechat/compaction"
	"github.com/relaydesk/casechat/types"
)

// LoggingHooks provides built-in logging hooks for observability
type LoggingHooks struct {
	logger *log.Logger
}

// NewLoggingHooks creates logging hooks with the provided logger
func NewLoggingHooks(logger *log.Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// DefaultLoggingHooks creates logging hooks with the default logger
func DefaultLoggingHooks() *LoggingHooks {
	return &LoggingHooks{logger: log.Default()}
}

// BeforeOptimization logs the thread size going in
func (h *LoggingHooks) BeforeOptimization(ctx context.Context, chatID string, messages []*types.Message) error {
	h.logger.Printf("[casechat] Optimizing chat %s (%d messages)", chatID, len(messages))
	return nil
}

// AfterOptimization logs the reduction achieved
func (h *LoggingHooks) AfterOptimization(ctx context.Context, chatID string, result *compaction.Result) error {
	if !result.Optimized {
		h.logger.Printf("[casechat] Chat %s left unchanged", chatID)
		return nil
	}
	h.logger.Printf("[casechat] Chat %s: %d -> %d chars, %d tool calls summarized (%d cached)",
		chatID, result.CharsBefore, result.CharsAfter,
		result.ToolCallsSummarized, result.CacheHits)
	return nil
}

// SummaryGenerated logs each resolved summary
func (h *LoggingHooks) SummaryGenerated(ctx context.Context, toolCallID, summaryText string, fromCache bool) error {
	preview := summaryText
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	h.logger.Printf("[casechat] Summary for %s (cached=%t): %s", toolCallID, fromCache, preview)
	return nil
}

// Register attaches all logging hooks to a registry
func (h *LoggingHooks) Register(r *Registry) {
	r.OnBeforeOptimization(h.BeforeOptimization)
	r.OnAfterOptimization(h.AfterOptimization)
	r.OnSummaryGenerated(h.SummaryGenerated)
}
