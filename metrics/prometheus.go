// Package metrics provides a Prometheus implementation of the
// optimization metrics sink. All emission is fire-and-forget; nothing in
// this package can fail an optimization.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements compaction.Metrics on a Prometheus registry.
type Prometheus struct {
	optimizations prometheus.Counter
	toolSummaries prometheus.Counter
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter

	messageReduction prometheus.Histogram
	charReduction    prometheus.Histogram
	optimizeDuration prometheus.Histogram
	summaryDuration  prometheus.Histogram
}

// NewPrometheus creates the metric set and registers it with the given
// registerer. Pass prometheus.DefaultRegisterer for the default registry.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	m := &Prometheus{
		optimizations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "casechat_optimizations_total",
			Help: "Completed history optimization calls.",
		}),
		toolSummaries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "casechat_tool_summaries_total",
			Help: "Tool-call summaries resolved.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "casechat_cache_hits_total",
			Help: "Summary cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "casechat_cache_misses_total",
			Help: "Summary cache misses.",
		}),
		messageReduction: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "casechat_message_reduction_ratio",
			Help:    "Messages after optimization over messages before.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		charReduction: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "casechat_character_reduction_ratio",
			Help:    "Characters after optimization over characters before.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		optimizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "casechat_optimization_duration_ms",
			Help:    "Wall time of one optimization call in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		summaryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "casechat_summary_generation_duration_ms",
			Help:    "Wall time of one summary resolution in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.optimizations, m.toolSummaries, m.cacheHits, m.cacheMisses,
			m.messageReduction, m.charReduction, m.optimizeDuration, m.summaryDuration,
		)
	}
	return m
}

func (m *Prometheus) IncOptimizations() { m.optimizations.Inc() }

func (m *Prometheus) IncToolSummaries(n int) { m.toolSummaries.Add(float64(n)) }

func (m *Prometheus) IncCacheHits(n int) { m.cacheHits.Add(float64(n)) }

func (m *Prometheus) IncCacheMisses(n int) { m.cacheMisses.Add(float64(n)) }

func (m *Prometheus) ObserveMessageReduction(ratio float64) { m.messageReduction.Observe(ratio) }

func (m *Prometheus) ObserveCharReduction(ratio float64) { m.charReduction.Observe(ratio) }

func (m *Prometheus) ObserveOptimizationDuration(d time.Duration) {
	m.optimizeDuration.Observe(float64(d.Milliseconds()))
}

func (m *Prometheus) ObserveSummaryDuration(d time.Duration) {
	m.summaryDuration.Observe(float64(d.Milliseconds()))
}
