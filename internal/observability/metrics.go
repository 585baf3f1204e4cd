// Package observability groups the Prometheus instruments used by switchboard.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups all Prometheus instruments used by the daemon. A nil
// *Metrics is valid and records nothing, so tests can skip registration
// against the global registry.
type Metrics struct {
	ActiveSessions   prometheus.Gauge
	InboundEvents    *prometheus.CounterVec
	DroppedEvents    *prometheus.CounterVec
	OutboundFailures *prometheus.CounterVec
}

// NewMetrics registers and returns the daemon's instruments. Call once per
// process.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live sessions in the store.",
		}),
		InboundEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_events_total",
			Help:      "Inbound events by channel and kind.",
		}, []string{"channel", "kind"}),
		DroppedEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Silently dropped events by reason.",
		}, []string{"reason"}),
		OutboundFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_failures_total",
			Help:      "Outbound notification delivery failures by channel.",
		}, []string{"channel"}),
	}
}

// IncInbound counts one inbound event.
func (m *Metrics) IncInbound(channel, kind string) {
	if m == nil {
		return
	}
	m.InboundEvents.WithLabelValues(channel, kind).Inc()
}

// IncDropped counts one dropped event.
func (m *Metrics) IncDropped(reason string) {
	if m == nil {
		return
	}
	m.DroppedEvents.WithLabelValues(reason).Inc()
}

// IncOutboundFailure counts one failed outbound delivery.
func (m *Metrics) IncOutboundFailure(channel string) {
	if m == nil {
		return
	}
	m.OutboundFailures.WithLabelValues(channel).Inc()
}

// SetActiveSessions records the live session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
