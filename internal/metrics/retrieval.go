package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "peruna"

// Retrieval Prometheus metrics.
var (
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Retrieval searches by backend and outcome (hit, empty, degraded)",
		},
		[]string{"backend", "outcome"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Retrieval search duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"backend"},
	)

	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Documents returned per search after thresholding",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		},
		[]string{"backend"},
	)

	StoreDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_documents",
			Help:      "Documents held by the in-memory store after initialization",
		},
	)

	ChatRepliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_replies_total",
			Help:      "Chat replies by kind (greeting, query, detail, category, fallback)",
		},
		[]string{"kind"},
	)
)

var registerOnce sync.Once

// Register registers every peruna collector with the default registry. Safe to call repeatedly.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			SearchTotal,
			SearchDuration,
			SearchResults,
			StoreDocuments,
			ChatRepliesTotal,
		)
	})
}
