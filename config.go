package casechat

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaydesk/casechat/compaction"
)

// ClientConfig holds configuration for the Client.
type ClientConfig struct {
	// APIKey is the Anthropic API key (required if Client is not provided)
	APIKey string

	// Client is an existing Anthropic client (optional, takes precedence over APIKey)
	Client *anthropic.Client

	// Pool is the Postgres connection pool used for chat persistence.
	// Required unless a Store is supplied via WithStore.
	Pool *pgxpool.Pool

	// Compaction configures the history optimizer. Zero values are
	// filled with defaults.
	Compaction *compaction.Config

	// AutoTitle enables setting a chat title from the first generated
	// short title when the chat has none.
	AutoTitle bool
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Compaction: compaction.DefaultConfig(),
		AutoTitle:  true,
	}
}

func (c *ClientConfig) validate() error {
	if c.Client == nil && c.APIKey == "" {
		return fmt.Errorf("%w: either APIKey or Client is required", ErrInvalidConfig)
	}
	if c.Compaction != nil {
		c.Compaction.ApplyDefaults()
		if err := c.Compaction.Validate(); err != nil {
			return err
		}
	}
	return nil
}
