// Package metrics defines the Prometheus collectors exported by slugkeeper.
// Collectors are registered on an explicit registerer rather than the
// process-wide default so tests and embedders control their lifetime.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for Assignments.
const (
	OutcomeAssigned  = "assigned"
	OutcomeUnchanged = "unchanged"
	OutcomeConflict  = "conflict"
	OutcomeError     = "error"
)

// TierNotFound labels a resolution that matched no tier.
const TierNotFound = "not_found"

// Metrics holds the service collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Assignments     *prometheus.CounterVec
	ConflictRetries *prometheus.CounterVec
	Resolutions     *prometheus.CounterVec
	Reclaims        *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slugkeeper",
			Name:      "assignments_total",
			Help:      "Slug assignments by subject type and outcome",
		}, []string{"type", "outcome"}),
		ConflictRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slugkeeper",
			Name:      "conflict_retries_total",
			Help:      "Assignments retried after a unique constraint rejected the resolved slug",
		}, []string{"type"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slugkeeper",
			Name:      "resolutions_total",
			Help:      "Token resolutions by subject type and matching tier",
		}, []string{"type", "tier"}),
		Reclaims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slugkeeper",
			Name:      "reclaimed_slugs_total",
			Help:      "Retired slug rows removed so another subject could take the slug",
		}, []string{"type"}),
	}
	reg.MustRegister(m.Assignments, m.ConflictRetries, m.Resolutions, m.Reclaims)
	return m
}

func (m *Metrics) Assignment(subjectType, outcome string) {
	if m == nil {
		return
	}
	m.Assignments.WithLabelValues(subjectType, outcome).Inc()
}

func (m *Metrics) ConflictRetry(subjectType string) {
	if m == nil {
		return
	}
	m.ConflictRetries.WithLabelValues(subjectType).Inc()
}

func (m *Metrics) Resolution(subjectType, tier string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(subjectType, tier).Inc()
}

func (m *Metrics) Reclaim(subjectType string, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.Reclaims.WithLabelValues(subjectType).Add(float64(n))
}
