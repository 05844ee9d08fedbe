// Package metrics exposes the Prometheus instruments for the messaging core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "zapleads"

// Metrics holds the service instruments. All methods are nil-safe so wiring
// stays optional in tests and tools.
type Metrics struct {
	webhookEvents   *prometheus.CounterVec
	webhookLatency  prometheus.Histogram
	outboundSends   *prometheus.CounterVec
	dispatchRuns    prometheus.Counter
	dispatchLeads   *prometheus.CounterVec
	replyGeneration *prometheus.CounterVec
}

// New registers the instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Inbound WhatsApp webhook events by outcome.",
		}, []string{"outcome"}),
		webhookLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "handle_seconds",
			Help:      "Time spent handling an inbound webhook event.",
			Buckets:   prometheus.DefBuckets,
		}),
		outboundSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messaging",
			Name:      "outbound_sends_total",
			Help:      "Outbound WhatsApp sends by result.",
		}, []string{"result"}),
		dispatchRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "runs_total",
			Help:      "Dispatch batch runs started.",
		}),
		dispatchLeads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "leads_total",
			Help:      "Leads processed by dispatch runs, by final state.",
		}, []string{"state"}),
		replyGeneration: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reply",
			Name:      "generations_total",
			Help:      "Reply generations by source (ai or fallback).",
		}, []string{"source"}),
	}
	reg.MustRegister(
		m.webhookEvents,
		m.webhookLatency,
		m.outboundSends,
		m.dispatchRuns,
		m.dispatchLeads,
		m.replyGeneration,
	)
	return m
}

// ObserveWebhook records one handled webhook event.
func (m *Metrics) ObserveWebhook(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(outcome).Inc()
	m.webhookLatency.Observe(elapsed.Seconds())
}

// IncOutboundSend counts one outbound send attempt result.
func (m *Metrics) IncOutboundSend(result string) {
	if m == nil {
		return
	}
	m.outboundSends.WithLabelValues(result).Inc()
}

// IncDispatchRun counts one dispatch batch run.
func (m *Metrics) IncDispatchRun() {
	if m == nil {
		return
	}
	m.dispatchRuns.Inc()
}

// IncDispatchLead counts one lead reaching a final dispatch state.
func (m *Metrics) IncDispatchLead(state string) {
	if m == nil {
		return
	}
	m.dispatchLeads.WithLabelValues(state).Inc()
}

// IncReplyGeneration counts one generated reply by source.
func (m *Metrics) IncReplyGeneration(source string) {
	if m == nil {
		return
	}
	m.replyGeneration.WithLabelValues(source).Inc()
}
