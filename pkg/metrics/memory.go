package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// initMemoryMetrics initializes memory domain metrics.
func (m *Manager) initMemoryMetrics(cfg Config) {
	m.memorySaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_saves_total",
			Help: "Total number of save operations by outcome",
		},
		[]string{"outcome"},
	)

	m.memorySearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_searches_total",
			Help: "Total number of search operations by retrieval mode",
		},
		[]string{"mode"},
	)

	m.searchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memory_search_duration_seconds",
			Help:    "Search duration in seconds by retrieval mode",
			Buckets: cfg.SearchDurationBuckets,
		},
		[]string{"mode"},
	)

	m.reembedScanned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "memory_reembed_scanned_total",
			Help: "Total number of records scanned by re-embedding passes",
		},
	)

	m.reembedRepaired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "memory_reembed_repaired_total",
			Help: "Total number of records re-embedded after a dimension mismatch",
		},
	)

	m.embeddingBatch = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_batch_size",
			Help:    "Number of texts per flushed embedding batch",
			Buckets: cfg.EmbeddingBatchBuckets,
		},
	)

	m.registry.MustRegister(m.memorySaves)
	m.registry.MustRegister(m.memorySearches)
	m.registry.MustRegister(m.searchDuration)
	m.registry.MustRegister(m.reembedScanned)
	m.registry.MustRegister(m.reembedRepaired)
	m.registry.MustRegister(m.embeddingBatch)
}

// RecordSave records a save operation outcome ("saved" or "duplicate").
func (m *Manager) RecordSave(outcome string) {
	if !m.enabled {
		return
	}
	m.memorySaves.WithLabelValues(outcome).Inc()
}

// RecordSearch records a search in the given retrieval mode ("hybrid",
// "lexical", or "semantic") together with its duration.
func (m *Manager) RecordSearch(mode string, seconds float64) {
	if !m.enabled {
		return
	}
	m.memorySearches.WithLabelValues(mode).Inc()
	m.searchDuration.WithLabelValues(mode).Observe(seconds)
}

// RecordEmbeddingBatch records the size of one flushed embedding batch.
func (m *Manager) RecordEmbeddingBatch(size int) {
	if !m.enabled {
		return
	}
	m.embeddingBatch.Observe(float64(size))
}

// RecordReembed records the result of a re-embedding pass.
func (m *Manager) RecordReembed(scanned, reembedded int) {
	if !m.enabled {
		return
	}
	m.reembedScanned.Add(float64(scanned))
	m.reembedRepaired.Add(float64(reembedded))
}
