// Package middleware provides optional event middleware for the server:
// Prometheus metrics, OpenTelemetry tracing, and structured event logging.
//
// Middleware is registered with Server.Use and wraps every dispatched
// event, including nested Ctx.Dispatch calls.
package middleware
