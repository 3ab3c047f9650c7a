package compaction

import "time"

// Metrics is the sink for optimization observability. Calls are
// fire-and-forget: implementations must not block, and their failures
// must never surface as optimization failures.
type Metrics interface {
	// IncOptimizations counts one completed optimization call.
	IncOptimizations()

	// IncToolSummaries counts resolved tool-call summaries.
	IncToolSummaries(n int)

	// IncCacheHits counts summary cache hits.
	IncCacheHits(n int)

	// IncCacheMisses counts summary cache misses.
	IncCacheMisses(n int)

	// ObserveMessageReduction records the message-count reduction ratio.
	ObserveMessageReduction(ratio float64)

	// ObserveCharReduction records the character-count reduction ratio.
	ObserveCharReduction(ratio float64)

	// ObserveOptimizationDuration records the wall time of one call.
	ObserveOptimizationDuration(d time.Duration)

	// ObserveSummaryDuration records the wall time of one summary resolution.
	ObserveSummaryDuration(d time.Duration)
}

// NoopMetrics is a no-op implementation of Metrics.
type NoopMetrics struct{}

func (NoopMetrics) IncOptimizations()                         {}
func (NoopMetrics) IncToolSummaries(int)                      {}
func (NoopMetrics) IncCacheHits(int)                          {}
func (NoopMetrics) IncCacheMisses(int)                        {}
func (NoopMetrics) ObserveMessageReduction(float64)           {}
func (NoopMetrics) ObserveCharReduction(float64)              {}
func (NoopMetrics) ObserveOptimizationDuration(time.Duration) {}
func (NoopMetrics) ObserveSummaryDuration(time.Duration)      {}

// Logger interface for optimizer logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a no-op implementation of Logger.
type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}
