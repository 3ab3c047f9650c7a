package compaction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relaydesk/casechat/types"
)

// Result contains the outcome of one optimization call. All figures are
// observational; callers must not let them affect control flow.
type Result struct {
	// Optimized indicates whether the thread was rewritten at all.
	Optimized bool

	// CutoffIndex is the boundary between the processed prefix and the
	// preserved suffix.
	CutoffIndex int

	// ToolCallsSummarized is the number of distinct calls resolved.
	ToolCallsSummarized int

	// MessagesBefore and MessagesAfter are message counts.
	MessagesBefore int
	MessagesAfter  int

	// CharsBefore and CharsAfter are approximate character sizes.
	CharsBefore int
	CharsAfter  int

	// CacheHits and CacheMisses count summary cache lookups in this call.
	CacheHits   int
	CacheMisses int

	// ShortTitle is the first title produced by a fresh summary, if any.
	ShortTitle string

	// Summaries describes each resolved record, in completion order.
	Summaries []SummaryOutcome

	// Duration is how long the optimization took.
	Duration time.Duration
}

// SummaryOutcome describes one resolved tool-call summary.
type SummaryOutcome struct {
	ToolCallID  string
	SummaryText string
	FromCache   bool
}

// MessageReductionRatio returns messages-after over messages-before.
func (r *Result) MessageReductionRatio() float64 {
	if r.MessagesBefore == 0 {
		return 1
	}
	return float64(r.MessagesAfter) / float64(r.MessagesBefore)
}

// CharReductionRatio returns chars-after over chars-before.
func (r *Result) CharReductionRatio() float64 {
	if r.CharsBefore == 0 {
		return 1
	}
	return float64(r.CharsAfter) / float64(r.CharsBefore)
}

// Optimizer rewrites long chat threads: completed tool-call sequences in
// the older portion of the thread are replaced with short generated
// summaries, keeping the recent interaction window untouched.
//
// The Optimizer is safe for concurrent use; separate calls are
// independent aside from the shared summary cache.
type Optimizer struct {
	config     *Config
	summarizer Summarizer
	cache      SummaryCache
	recorder   ToolCallRecorder
	metrics    Metrics
	logger     Logger
}

// New creates an Optimizer. If config is nil, defaults are used; if cache
// is nil, a bounded LRU cache with the configured capacity is created.
func New(summarizer Summarizer, cache SummaryCache, config *Config, logger Logger) *Optimizer {
	if config == nil {
		config = DefaultConfig()
	} else {
		config.ApplyDefaults()
	}
	if logger == nil {
		logger = noopLogger{}
	}
	if cache == nil {
		cache, _ = NewLRUSummaryCache(config.CacheCapacity)
	}

	return &Optimizer{
		config:     config,
		summarizer: summarizer,
		cache:      cache,
		metrics:    NoopMetrics{},
		logger:     logger,
	}
}

// WithRecorder sets the durable tool-call recorder and returns the
// optimizer for chaining.
func (o *Optimizer) WithRecorder(r ToolCallRecorder) *Optimizer {
	o.recorder = r
	return o
}

// WithMetrics sets the metrics sink and returns the optimizer for chaining.
func (o *Optimizer) WithMetrics(m Metrics) *Optimizer {
	if m != nil {
		o.metrics = m
	}
	return o
}

// Config returns the optimizer's configuration.
func (o *Optimizer) Config() *Config {
	return o.config
}

// Cache returns the summary cache, for operational visibility.
func (o *Optimizer) Cache() SummaryCache {
	return o.cache
}

// Optimize produces a rewritten copy of the message sequence. The input
// slice is never mutated. If the thread does not yet contain the
// preserved window's worth of user turns, the input is returned unchanged.
//
// On a structural failure the original sequence should be used as-is by
// the caller; the returned error carries diagnostic context.
func (o *Optimizer) Optimize(ctx context.Context, messages []*types.Message) ([]*types.Message, *Result, error) {
	scope := o.beginScope()
	defer scope.release()

	cutoff, preserved := findCutoff(messages, o.config.PreservedUserTurns)
	if cutoff == 0 {
		o.logger.Debug("optimization skipped, interaction window covers thread",
			"messages", len(messages))
		return messages, &Result{
			MessagesBefore: len(messages),
			MessagesAfter:  len(messages),
			Duration:       scope.elapsed(),
		}, nil
	}

	grouped, err := o.groupSafe(messages[:cutoff], preserved)
	if err != nil {
		return nil, nil, NewOptimizeError("GroupToolCalls", err).
			WithContext("cutoff_index", cutoff).
			WithContext("preserved_ids", len(preserved)).
			WithContext("messages", len(messages))
	}

	o.logger.Debug("grouping complete",
		"cutoff_index", cutoff,
		"tool_calls", len(grouped.records),
		"preserved_ids", len(preserved),
	)

	gen := &generator{
		summarizer: o.summarizer,
		cache:      o.cache,
		recorder:   o.recorder,
		metrics:    o.metrics,
		logger:     o.logger,
		config:     o.config,
	}

	var (
		mu       sync.Mutex
		hits     int
		misses   int
		title    string
		outcomes = make([]SummaryOutcome, 0, len(grouped.order))
	)

	// Fan out per distinct tool call. Each resolution catches its own
	// failure and falls back, so one record never cancels its siblings.
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(o.config.MaxConcurrent)
	for _, id := range grouped.order {
		rec := grouped.records[id]
		grounding := groundingText(messages[:cutoff], rec, o.config.GroundingChars)
		group.Go(func() error {
			hit, shortTitle := gen.resolve(gctx, rec, grounding)
			mu.Lock()
			if hit {
				hits++
			} else {
				misses++
			}
			if title == "" && shortTitle != "" {
				title = shortTitle
			}
			outcomes = append(outcomes, SummaryOutcome{
				ToolCallID:  rec.ToolCallID,
				SummaryText: rec.Placeholder.Text,
				FromCache:   hit,
			})
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	optimized := make([]*types.Message, 0, len(messages))
	optimized = append(optimized, grouped.messages...)
	optimized = append(optimized, messages[cutoff:]...)

	result := &Result{
		Optimized:           len(grouped.records) > 0,
		CutoffIndex:         cutoff,
		ToolCallsSummarized: len(grouped.records),
		MessagesBefore:      len(messages),
		MessagesAfter:       len(optimized),
		CharsBefore:         types.CharCountAll(messages),
		CharsAfter:          types.CharCountAll(optimized),
		CacheHits:           hits,
		CacheMisses:         misses,
		ShortTitle:          title,
		Summaries:           outcomes,
		Duration:            scope.elapsed(),
	}

	o.metrics.IncOptimizations()
	o.metrics.IncToolSummaries(result.ToolCallsSummarized)
	o.metrics.ObserveMessageReduction(result.MessageReductionRatio())
	o.metrics.ObserveCharReduction(result.CharReductionRatio())

	o.logger.Info("optimization complete",
		"cutoff_index", result.CutoffIndex,
		"tool_calls_summarized", result.ToolCallsSummarized,
		"chars_before", result.CharsBefore,
		"chars_after", result.CharsAfter,
		"cache_hits", result.CacheHits,
		"cache_misses", result.CacheMisses,
		"duration_ms", result.Duration.Milliseconds(),
	)

	return optimized, result, nil
}

// groupSafe runs the grouping engine, converting a genuinely unexpected
// structural panic into an error instead of failing the caller's request.
func (o *Optimizer) groupSafe(prefix []*types.Message, preserved map[string]bool) (g *grouping, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("grouping panic: %v", r)
		}
	}()
	return groupToolCalls(prefix, preserved, o.logger), nil
}

// scope is the per-call optimization context. Its release runs on every
// exit path, success or failure.
type optScope struct {
	o     *Optimizer
	start time.Time
}

func (o *Optimizer) beginScope() *optScope {
	return &optScope{o: o, start: time.Now()}
}

func (s *optScope) elapsed() time.Duration {
	return time.Since(s.start)
}

func (s *optScope) release() {
	s.o.metrics.ObserveOptimizationDuration(s.elapsed())
}
