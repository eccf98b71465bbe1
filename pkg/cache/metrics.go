package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// hits tracks cache hits by provider and match kind (exact, similar).
	hits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aicache_hits_total",
			Help: "Total number of AI cache hits",
		},
		[]string{"provider", "kind"},
	)

	misses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aicache_misses_total",
			Help: "Total number of AI cache misses",
		},
		[]string{"provider"},
	)

	evictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aicache_evictions_total",
			Help: "Total number of entries evicted to keep a provider under its size cap",
		},
		[]string{"provider"},
	)

	expirations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aicache_expired_total",
			Help: "Total number of entries purged after exceeding max age",
		},
		[]string{"provider"},
	)

	persistErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aicache_persist_errors_total",
			Help: "Total number of snapshot load/save failures",
		},
		[]string{"operation"},
	)

	costSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aicache_cost_saved_dollars_total",
			Help: "Estimated dollars saved by serving answers from cache",
		},
		[]string{"provider"},
	)
)
