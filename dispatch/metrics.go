package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch outcome labels.
const (
	outcomeMatched          = "matched"
	outcomeNotFound         = "not_found"
	outcomeMethodNotAllowed = "method_not_allowed"
	outcomeOptions          = "options"
	outcomeRedirect         = "redirect"
	outcomeFallback         = "fallback"
)

// Metrics holds the Prometheus instruments for dispatch outcomes. Each
// dispatcher owns its own Metrics value registered against a caller
// supplied registerer; there is no process-wide metrics state.
type Metrics struct {
	outcomes *prometheus.CounterVec
}

// NewMetrics creates the dispatch metrics and registers them with reg.
// A nil registerer leaves the instruments unregistered, which is useful
// in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "strada",
				Subsystem: "dispatch",
				Name:      "requests_total",
				Help:      "Total number of dispatched requests by outcome",
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.outcomes)
	}
	return m
}

// observe records one dispatch outcome. Safe to call on a nil receiver
// so the dispatcher hot path needs no metrics check.
func (m *Metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}
