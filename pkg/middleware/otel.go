package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/relight-dev/relight/pkg/server"
)

const defaultTracerName = "relight"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "relight").
	TracerName string

	// Filter determines which events to trace. Return true to trace the
	// event. If nil, all events are traced.
	Filter func(ctx *server.Ctx) bool

	// AttributeExtractor extracts custom attributes from the dispatch.
	// Called for each traced event.
	AttributeExtractor func(ctx *server.Ctx) []attribute.KeyValue

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithEventFilter sets a filter deciding which events to trace.
func WithEventFilter(filter func(ctx *server.Ctx) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ctx *server.Ctx) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OpenTelemetry returns middleware that starts a span per dispatched
// event and threads the span context into ctx.StdContext() so handlers
// propagate it to downstream calls.
//
// The tracer comes from the global provider; configure it in main()
// before starting the server:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	srv.Use(middleware.OpenTelemetry())
func OpenTelemetry(opts ...OTelOption) server.Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return func(ctx *server.Ctx, next func() error) error {
		if config.Filter != nil && !config.Filter(ctx) {
			return next()
		}

		attrs := []attribute.KeyValue{
			attribute.String("relight.event", ctx.EventName()),
			attribute.String("relight.session_id", ctx.SessionID()),
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(ctx)...)
		}

		spanCtx, span := config.tracer.Start(
			ctx.StdContext(),
			"relight.event "+ctx.EventName(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		ctx.SetValue(spanContextKey{}, spanCtx)
		ctx.WithStdContext(spanCtx)

		err := next()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	}
}

type spanContextKey struct{}

// SpanFromContext retrieves the current trace span from the dispatch,
// or nil when the OpenTelemetry middleware is not installed.
func SpanFromContext(ctx *server.Ctx) trace.Span {
	if spanCtx, ok := ctx.Value(spanContextKey{}).(context.Context); ok {
		return trace.SpanFromContext(spanCtx)
	}
	return nil
}

// TraceContext returns the trace-carrying context for propagation to
// external services, falling back to the dispatch context.
func TraceContext(ctx *server.Ctx) context.Context {
	if spanCtx, ok := ctx.Value(spanContextKey{}).(context.Context); ok {
		return spanCtx
	}
	return ctx.StdContext()
}
