package casechat

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/relaydesk/casechat/compaction"
	"github.com/relaydesk/casechat/hooks"
	"github.com/relaydesk/casechat/storage"
	"github.com/relaydesk/casechat/types"
)

// Version is the current casechat version
const Version = "1.0.0"

// Client ties chat persistence and history optimization together. It
// owns a store, a summarizer and an optimizer, and exposes the
// chat-level operations the case-management platform calls.
//
// A Client is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	store      storage.Store
	summarizer compaction.Summarizer
	cache      compaction.SummaryCache
	optimizer  *compaction.Optimizer
	hooks      *hooks.Registry
	metrics    compaction.Metrics
	logger     compaction.Logger
}

// NewClient creates a casechat client.
//
// Example:
//
//	client, err := casechat.NewClient(&casechat.ClientConfig{
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	    Pool:   pool,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, _, err := client.OptimizeChat(ctx, chatID)
func NewClient(config *ClientConfig, opts ...Option) (*Client, error) {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.Compaction == nil {
		config.Compaction = compaction.DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	c := &Client{config: config}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.store == nil {
		if config.Pool == nil {
			return nil, fmt.Errorf("%w: either Pool or WithStore is required", ErrInvalidConfig)
		}
		c.store = storage.NewPostgresStore(config.Pool)
	}

	if c.summarizer == nil {
		anthropicClient := config.Client
		if anthropicClient == nil {
			ac := anthropic.NewClient(option.WithAPIKey(config.APIKey))
			anthropicClient = &ac
		}
		c.summarizer = compaction.NewAnthropicSummarizer(
			anthropicClient,
			config.Compaction.SummarizerModel,
			config.Compaction.SummarizerMaxTokens,
			config.Compaction.Temperature,
		)
	}

	if c.cache == nil {
		cache, err := compaction.NewLRUSummaryCache(config.Compaction.CacheCapacity)
		if err != nil {
			return nil, err
		}
		c.cache = cache
	}

	if c.hooks == nil {
		c.hooks = hooks.NewRegistry()
	}

	c.optimizer = compaction.New(c.summarizer, c.cache, config.Compaction, c.logger).
		WithRecorder(c.store)
	if c.metrics != nil {
		c.optimizer.WithMetrics(c.metrics)
	}

	return c, nil
}

// Store returns the underlying chat store.
func (c *Client) Store() storage.Store { return c.store }

// Hooks returns the hook registry for callers to register observers on.
func (c *Client) Hooks() *hooks.Registry { return c.hooks }

// Optimizer returns the underlying history optimizer for direct use on
// in-memory threads.
func (c *Client) Optimizer() *compaction.Optimizer { return c.optimizer }

// CacheStats reports summary cache statistics.
func (c *Client) CacheStats() compaction.CacheStats { return c.cache.Stats() }

// CreateChat creates a chat bound to a case and returns its id.
func (c *Client) CreateChat(ctx context.Context, caseID string, metadata map[string]any) (string, error) {
	id, err := c.store.CreateChat(ctx, caseID, metadata)
	if err != nil {
		return "", clientError("create_chat", "", err)
	}
	return id, nil
}

// Chat loads a chat by id.
func (c *Client) Chat(ctx context.Context, chatID string) (*storage.Chat, error) {
	chat, err := c.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, clientError("get_chat", chatID, err)
	}
	return chat, nil
}

// Messages loads the full persisted thread for a chat, oldest first.
func (c *Client) Messages(ctx context.Context, chatID string) ([]*types.Message, error) {
	messages, err := c.store.GetMessages(ctx, chatID)
	if err != nil {
		return nil, clientError("get_messages", chatID, err)
	}
	return messages, nil
}

// Append persists one message at the end of its chat's thread.
func (c *Client) Append(ctx context.Context, msg *types.Message) error {
	if msg.ChatID == "" {
		return clientError("append", "", fmt.Errorf("%w: message has no chat id", ErrInvalidConfig))
	}
	if err := c.store.SaveMessage(ctx, msg); err != nil {
		return clientError("append", msg.ChatID, err)
	}
	return nil
}

// OptimizeChat loads a chat's thread, optimizes it, and persists the
// rewritten thread when anything changed. When the chat has no title yet
// and a summary produced a short title, the chat is titled from it.
//
// The persisted thread and the optimization result are returned. A
// thread too short to optimize returns unchanged with a zero result.
func (c *Client) OptimizeChat(ctx context.Context, chatID string) ([]*types.Message, *compaction.Result, error) {
	chat, err := c.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, nil, clientError("optimize_chat", chatID, err)
	}

	messages, err := c.store.GetMessages(ctx, chatID)
	if err != nil {
		return nil, nil, clientError("optimize_chat", chatID, err)
	}

	if err := c.hooks.TriggerBeforeOptimization(ctx, chatID, messages); err != nil {
		return nil, nil, clientError("optimize_chat", chatID, err)
	}

	optimized, result, err := c.optimizer.Optimize(ctx, messages)
	if err != nil {
		return nil, nil, clientError("optimize_chat", chatID, err)
	}

	if result.Optimized {
		if err := c.store.ReplaceMessages(ctx, chatID, optimized); err != nil {
			return nil, nil, clientError("optimize_chat", chatID, err)
		}

		event := &storage.OptimizationEvent{
			ChatID:              chatID,
			CutoffIndex:         result.CutoffIndex,
			ToolCallsSummarized: result.ToolCallsSummarized,
			MessagesBefore:      result.MessagesBefore,
			MessagesAfter:       result.MessagesAfter,
			CharsBefore:         result.CharsBefore,
			CharsAfter:          result.CharsAfter,
			CacheHits:           result.CacheHits,
			CacheMisses:         result.CacheMisses,
			DurationMS:          result.Duration.Milliseconds(),
		}
		if err := c.store.SaveOptimizationEvent(ctx, event); err != nil {
			// The thread rewrite already landed; losing the audit row is
			// not worth failing the call over.
			if c.logger != nil {
				c.logger.Warn("failed to save optimization event", "chat_id", chatID, "error", err)
			}
		}
	}

	if c.config.AutoTitle && chat.Title == "" && result.ShortTitle != "" {
		if err := c.store.SetChatTitle(ctx, chatID, result.ShortTitle); err != nil {
			if c.logger != nil {
				c.logger.Warn("failed to set chat title", "chat_id", chatID, "error", err)
			}
		}
	}

	for _, s := range result.Summaries {
		if err := c.hooks.TriggerSummaryGenerated(ctx, s.ToolCallID, s.SummaryText, s.FromCache); err != nil {
			return optimized, result, clientError("optimize_chat", chatID, err)
		}
	}
	if err := c.hooks.TriggerAfterOptimization(ctx, chatID, result); err != nil {
		return optimized, result, clientError("optimize_chat", chatID, err)
	}

	return optimized, result, nil
}
