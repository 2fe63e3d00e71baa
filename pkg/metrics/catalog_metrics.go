package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Cache reads served without touching the database.",
	}, []string{"shape"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Cache reads that fell through to the database.",
	}, []string{"shape"})

	CacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_invalidations_total",
		Help: "Tenant-wide cache invalidations caused by structural mutations.",
	})

	CacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_errors_total",
		Help: "Cache backend failures degraded to misses or dropped writes.",
	})

	StructuralMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_structural_mutations_total",
		Help: "Committed category tree mutations by operation.",
	}, []string{"operation"})

	WriteConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_write_conflicts_total",
		Help: "Mutations rejected by constraints or lock contention.",
	}, []string{"reason"})
)
