package kvstore

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvstore_operations_total",
			Help: "Total number of key-value store operations",
		},
		[]string{"backend", "op", "outcome"},
	)

	versionConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvstore_version_conflicts_total",
			Help: "Total number of optimistic-concurrency conflicts (lost-update races caught)",
		},
		[]string{"backend"},
	)
)

// observe records one store operation for the given backend.
func observe(backend, op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrVersionConflict):
		outcome = "conflict"
		versionConflicts.WithLabelValues(backend).Inc()
	default:
		outcome = "error"
	}
	storeOperations.WithLabelValues(backend, op, outcome).Inc()
}
