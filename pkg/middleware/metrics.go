package middleware

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/relight-dev/relight/pkg/server"
)

// MetricsConfig configures the Prometheus event middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "relight").
	Namespace string

	// Subsystem is the metrics subsystem (default: "events").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for event duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registerer to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus event middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets for event duration.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registerer.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "relight",
		Subsystem: "events",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

type eventMetrics struct {
	handled  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

func newEventMetrics(config MetricsConfig) *eventMetrics {
	factory := promauto.With(config.Registry)

	return &eventMetrics{
		handled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "handled_total",
			Help:        "Total events dispatched, by event name and status",
			ConstLabels: config.ConstLabels,
		}, []string{"event", "status"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "duration_seconds",
			Help:        "Event handler duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"event"}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total handler errors, by event name and error type",
			ConstLabels: config.ConstLabels,
		}, []string{"event", "error_type"}),
	}
}

// Prometheus returns middleware that records a counter, a duration
// histogram, and an error counter per event name.
//
// Example:
//
//	srv.Use(middleware.Prometheus(
//	    middleware.WithNamespace("myapp"),
//	))
func Prometheus(opts ...MetricsOption) server.Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	m := newEventMetrics(config)

	return func(ctx *server.Ctx, next func() error) error {
		start := time.Now()
		err := next()
		m.duration.WithLabelValues(ctx.EventName()).Observe(time.Since(start).Seconds())

		status := "success"
		if err != nil {
			status = "error"
			m.errors.WithLabelValues(ctx.EventName(), errorType(err)).Inc()
		}
		m.handled.WithLabelValues(ctx.EventName(), status).Inc()
		return err
	}
}

// errorType buckets errors into a bounded label set so error messages
// never become high-cardinality labels.
func errorType(err error) string {
	var pe *server.HandlerPanicError
	switch {
	case errors.Is(err, server.ErrHandlerNotFound):
		return "not_found"
	case errors.Is(err, server.ErrQueueFull):
		return "queue_full"
	case errors.Is(err, server.ErrSessionClosed):
		return "session_closed"
	case errors.As(err, &pe):
		return "panic"
	default:
		return "handler"
	}
}
