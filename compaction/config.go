package compaction

import (
	"fmt"
)

// Default configuration values.
const (
	DefaultPreservedUserTurns  = 2     // optimize only threads with two completed user turns
	DefaultSummaryMaxChars     = 300   // summaries are clipped to this length
	DefaultPromptMaxChars      = 50000 // hard ceiling; larger prompts fail fast
	DefaultGroundingChars      = 200   // conversational grounding snippet size
	DefaultCacheCapacity       = 1024  // LRU entries
	DefaultMaxConcurrent       = 4     // concurrent summary resolutions
	DefaultSummarizerModel     = "claude-3-5-haiku-20241022"
	DefaultSummarizerMaxTokens = 1024
)

// Config holds optimizer configuration.
type Config struct {
	// PreservedUserTurns is the size of the recent interaction window. The
	// optimizer never touches the thread unless at least this many user
	// messages exist, and the window's turns stay verbatim.
	// Default: 2
	PreservedUserTurns int

	// SummaryMaxChars is the maximum length of a resolved summary string.
	// Default: 300
	SummaryMaxChars int

	// PromptMaxChars is the hard ceiling for an assembled summarization
	// prompt. Prompts beyond it fail fast and fall back; this is a sanity
	// guard against pathological inputs, not a soft truncation.
	// Default: 50000
	PromptMaxChars int

	// GroundingChars is how much of the nearest preceding user message is
	// included in the prompt as conversational grounding.
	// Default: 200
	GroundingChars int

	// CacheCapacity is the summary cache's LRU capacity, used when the
	// caller does not inject a cache of its own.
	// Default: 1024
	CacheCapacity int

	// MaxConcurrent bounds how many summary resolutions run at once within
	// a single optimization call.
	// Default: 4
	MaxConcurrent int

	// SummarizerModel is the model used by the Anthropic summarizer.
	// Default: "claude-3-5-haiku-20241022"
	SummarizerModel string

	// SummarizerMaxTokens is the response budget for the summarizer.
	// Default: 1024
	SummarizerMaxTokens int

	// Temperature is the determinism knob passed to the summarizer.
	// Zero keeps summaries as deterministic as the model allows.
	Temperature float64
}

// DefaultConfig returns a Config with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		PreservedUserTurns:  DefaultPreservedUserTurns,
		SummaryMaxChars:     DefaultSummaryMaxChars,
		PromptMaxChars:      DefaultPromptMaxChars,
		GroundingChars:      DefaultGroundingChars,
		CacheCapacity:       DefaultCacheCapacity,
		MaxConcurrent:       DefaultMaxConcurrent,
		SummarizerModel:     DefaultSummarizerModel,
		SummarizerMaxTokens: DefaultSummarizerMaxTokens,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.PreservedUserTurns < 2 {
		return fmt.Errorf("%w: preserved_user_turns must be at least 2, got %d",
			ErrInvalidConfig, c.PreservedUserTurns)
	}

	if c.SummaryMaxChars <= 0 {
		return fmt.Errorf("%w: summary_max_chars must be positive, got %d",
			ErrInvalidConfig, c.SummaryMaxChars)
	}

	if c.PromptMaxChars <= 0 {
		return fmt.Errorf("%w: prompt_max_chars must be positive, got %d",
			ErrInvalidConfig, c.PromptMaxChars)
	}

	if c.GroundingChars < 0 {
		return fmt.Errorf("%w: grounding_chars must be non-negative, got %d",
			ErrInvalidConfig, c.GroundingChars)
	}

	if c.CacheCapacity <= 0 {
		return fmt.Errorf("%w: cache_capacity must be positive, got %d",
			ErrInvalidConfig, c.CacheCapacity)
	}

	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("%w: max_concurrent must be positive, got %d",
			ErrInvalidConfig, c.MaxConcurrent)
	}

	if c.SummarizerModel == "" {
		return fmt.Errorf("%w: summarizer_model is required", ErrInvalidConfig)
	}

	if c.SummarizerMaxTokens <= 0 {
		return fmt.Errorf("%w: summarizer_max_tokens must be positive, got %d",
			ErrInvalidConfig, c.SummarizerMaxTokens)
	}

	return nil
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.PreservedUserTurns == 0 {
		c.PreservedUserTurns = DefaultPreservedUserTurns
	}
	if c.SummaryMaxChars == 0 {
		c.SummaryMaxChars = DefaultSummaryMaxChars
	}
	if c.PromptMaxChars == 0 {
		c.PromptMaxChars = DefaultPromptMaxChars
	}
	if c.GroundingChars == 0 {
		c.GroundingChars = DefaultGroundingChars
	}
	if c.CacheCapacity == 0 {
		c.CacheCapacity = DefaultCacheCapacity
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.SummarizerModel == "" {
		c.SummarizerModel = DefaultSummarizerModel
	}
	if c.SummarizerMaxTokens == 0 {
		c.SummarizerMaxTokens = DefaultSummarizerMaxTokens
	}
}
