// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics records reconciliation outcomes as Prometheus metrics.
// dplink is a short-lived command, so metrics are written to a node_exporter
// textfile rather than served.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"grimm.is/dplink/internal/errors"
)

const namespace = "dplink"

// Registry holds the dplink collectors.
type Registry struct {
	reg *prometheus.Registry

	operations   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	vethCreated  prometheus.Counter
	staleRemoved prometheus.Counter
	lastSuccess  *prometheus.GaugeVec
}

// NewRegistry creates a registry with all collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operations attempted, by operation and result (ok or error kind).",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall time of each operation.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		vethCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "veth_pairs_created_total",
			Help:      "Veth pairs created for dataplanes.",
		}),
		staleRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_veth_removed_total",
			Help:      "Veth pairs left by interrupted passes that were deleted.",
		}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful connect per dataplane.",
		}, []string{"dataplane"}),
	}
	r.reg.MustRegister(r.operations, r.duration, r.vethCreated, r.staleRemoved, r.lastSuccess)
	return r
}

// Observe records one operation that started at start and ended with err.
func (r *Registry) Observe(operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = errors.GetKind(err).String()
	}
	r.operations.WithLabelValues(operation, result).Inc()
	r.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// VethCreated counts a new pair.
func (r *Registry) VethCreated() { r.vethCreated.Inc() }

// StaleRemoved counts a deleted leftover pair.
func (r *Registry) StaleRemoved() { r.staleRemoved.Inc() }

// Connected stamps a successful connect of dataplane.
func (r *Registry) Connected(dataplane string, at time.Time) {
	r.lastSuccess.WithLabelValues(dataplane).Set(float64(at.Unix()))
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// WriteTextfile atomically writes all metrics in text exposition format.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "failed to write metrics to %s", path)
	}
	return nil
}
