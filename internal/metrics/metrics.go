package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels collection runs that persisted their records.
	OutcomeSuccess = "success"
	// OutcomeError labels failed collection runs.
	OutcomeError = "error"

	// CacheHit labels correlation cache lookups served from memory.
	CacheHit = "hit"
	// CacheMiss labels lookups that fell through to the store.
	CacheMiss = "miss"
)

var (
	collectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copilot",
			Name:      "collections_total",
			Help:      "Total number of collection runs, partitioned by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	collectionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "copilot",
			Name:      "collection_seconds",
			Help:      "Collection run latency in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copilot",
			Name:      "signal_cache_lookups_total",
			Help:      "Correlation signal cache lookups, partitioned by result.",
		},
		[]string{"result"},
	)

	incidentsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "copilot",
			Name:      "incidents_created_total",
			Help:      "Incidents created by alert aggregation.",
		},
	)

	providerRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copilot",
			Name:      "provider_retries_total",
			Help:      "Vendor call retries, partitioned by operation.",
		},
		[]string{"op"},
	)
)

// Register attaches the copilot collectors to the supplied Prometheus
// registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		collectionsTotal,
		collectionDurationSeconds,
		cacheLookupsTotal,
		incidentsCreatedTotal,
		providerRetriesTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveCollection records a collection run's duration and outcome.
func ObserveCollection(provider string, duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	collectionsTotal.WithLabelValues(provider, label).Inc()
	if duration < 0 {
		duration = 0
	}
	collectionDurationSeconds.Observe(duration.Seconds())
}

// ObserveCacheLookup counts a signal cache hit or miss.
func ObserveCacheLookup(result string) {
	if result != CacheHit {
		result = CacheMiss
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// IncidentCreated counts one aggregated incident.
func IncidentCreated() {
	incidentsCreatedTotal.Inc()
}

// RetryObserved counts one vendor call retry.
func RetryObserved(op string) {
	providerRetriesTotal.WithLabelValues(op).Inc()
}
