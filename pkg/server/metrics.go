package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// serverMetrics are the host-level Prometheus collectors. All methods are
// nil-safe so the hot path never branches on whether metrics are enabled.
type serverMetrics struct {
	sessionsActive   prometheus.Gauge
	sessionsDetached prometheus.Gauge
	sessionsTotal    prometheus.Counter
	resumesTotal     prometheus.Counter
	eventsReceived   prometheus.Counter
	eventsProcessed  prometheus.Counter
	eventsDropped    prometheus.Counter
	eventErrors      prometheus.Counter
	viewsSent        prometheus.Counter
	viewBytes        prometheus.Counter
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "relight",
			Subsystem: "server",
			Name:      "sessions_active",
			Help:      "Number of sessions with a live connection",
		}),
		sessionsDetached: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "relight",
			Subsystem: "server",
			Name:      "sessions_detached",
			Help:      "Number of detached sessions awaiting resume",
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "relight",
			Subsystem: "server",
			Name:      "sessions_total",
			Help:      "Total sessions created",
		}),
		resumesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "relight",
			Subsystem: "server",
			Name:      "resumes_total",
			Help:      "Total sessions resumed after a disconnect",
		}),
		eventsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "relight",
			Subsystem: "server",
			Name:      "events_received_total",
			Help:      "Total events accepted off the wire",
		}),
		eventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "relight",
			Subsystem: "server",
			Name:      "events_processed_total",
			Help:      "Total events handled without error",
		}),
		eventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "relight",
			Subsystem: "server",
			Name:      "events_dropped_total",
			Help:      "Total events dropped due to a full queue",
		}),
		eventErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "relight",
			Subsystem: "server",
			Name:      "event_errors_total",
			Help:      "Total events that ended in an error",
		}),
		viewsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "relight",
			Subsystem: "server",
			Name:      "views_sent_total",
			Help:      "Total view frames sent to clients",
		}),
		viewBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "relight",
			Subsystem: "server",
			Name:      "view_bytes_total",
			Help:      "Total view payload bytes sent to clients",
		}),
	}
}

func (m *serverMetrics) sessionCreated() {
	if m != nil {
		m.sessionsTotal.Inc()
		m.sessionsActive.Inc()
	}
}

// sessionResumed records a warm resume. wasDetached guards the gauges: a
// second hello racing a live connection resumes a session that was never
// detached, and moving the gauges then would drive sessions_detached
// negative.
func (m *serverMetrics) sessionResumed(wasDetached bool) {
	if m == nil {
		return
	}
	m.resumesTotal.Inc()
	if wasDetached {
		m.sessionsActive.Inc()
		m.sessionsDetached.Dec()
	}
}

// sessionRebuilt records a cold resume. The old live object's gauge state
// was settled when it was closed or reconciled away; the rebuilt session
// only adds to the active count.
func (m *serverMetrics) sessionRebuilt() {
	if m != nil {
		m.resumesTotal.Inc()
		m.sessionsActive.Inc()
	}
}

func (m *serverMetrics) sessionDetached() {
	if m != nil {
		m.sessionsActive.Dec()
		m.sessionsDetached.Inc()
	}
}

func (m *serverMetrics) sessionClosed(wasDetached bool) {
	if m == nil {
		return
	}
	if wasDetached {
		m.sessionsDetached.Dec()
	} else {
		m.sessionsActive.Dec()
	}
}

func (m *serverMetrics) eventReceived() {
	if m != nil {
		m.eventsReceived.Inc()
	}
}

func (m *serverMetrics) eventProcessed() {
	if m != nil {
		m.eventsProcessed.Inc()
	}
}

func (m *serverMetrics) eventDropped() {
	if m != nil {
		m.eventsDropped.Inc()
	}
}

func (m *serverMetrics) eventError() {
	if m != nil {
		m.eventErrors.Inc()
	}
}

func (m *serverMetrics) viewSent(bytes int) {
	if m != nil {
		m.viewsSent.Inc()
		m.viewBytes.Add(float64(bytes))
	}
}
