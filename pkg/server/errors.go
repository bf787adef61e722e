package server

import "errors"

var (
	// ErrSessionClosed is returned when dispatching to a closed session.
	ErrSessionClosed = errors.New("server: session closed")

	// ErrQueueFull is returned when a session's event queue overflows.
	// The client is sending faster than handlers can drain.
	ErrQueueFull = errors.New("server: event queue full")

	// ErrHandlerNotFound is returned when no handler matches an event name.
	ErrHandlerNotFound = errors.New("server: no handler for event")

	// ErrMaxSessionsReached is returned when the global session cap is hit.
	ErrMaxSessionsReached = errors.New("server: maximum session count reached")

	// ErrServerClosed is returned by Run after a graceful shutdown.
	ErrServerClosed = errors.New("server: closed")
)

// HandlerPanicError wraps a recovered handler panic so middleware and
// clients see an error instead of a dead connection.
type HandlerPanicError struct {
	Event string
	Value any
}

func (e *HandlerPanicError) Error() string {
	return "server: handler panic in " + e.Event
}
