package casechat

import (
	"github.com/relaydesk/casechat/compaction"
	"github.com/relaydesk/casechat/hooks"
	"github.com/relaydesk/casechat/storage"
)

// Option is a functional option for configuring a Client
type Option func(*Client) error

// WithStore replaces the default Postgres-backed store. Useful for tests
// and alternative persistence backends.
func WithStore(store storage.Store) Option {
	return func(c *Client) error {
		c.store = store
		return nil
	}
}

// WithSummarizer replaces the default Anthropic summarizer.
func WithSummarizer(s compaction.Summarizer) Option {
	return func(c *Client) error {
		c.summarizer = s
		return nil
	}
}

// WithCache injects a shared summary cache. Multiple clients can share
// one cache to deduplicate summaries across processes of the same role.
func WithCache(cache compaction.SummaryCache) Option {
	return func(c *Client) error {
		c.cache = cache
		return nil
	}
}

// WithLogger sets the structured logger used by the client and the
// optimizer it builds.
func WithLogger(logger compaction.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m compaction.Metrics) Option {
	return func(c *Client) error {
		c.metrics = m
		return nil
	}
}

// WithHooks sets the hook registry invoked around optimizations.
func WithHooks(registry *hooks.Registry) Option {
	return func(c *Client) error {
		c.hooks = registry
		return nil
	}
}
