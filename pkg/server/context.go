package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/relight-dev/relight/pkg/protocol"
)

// Ctx carries one event through the middleware chain and its handler.
// It is valid only for the duration of the dispatch.
type Ctx struct {
	sess  *Session
	event *protocol.Event
	std   context.Context

	// Scratch values for middleware, e.g. trace span contexts.
	// Not persisted; use Session().Set for session state.
	values map[any]any

	logger *slog.Logger
}

// NewCtx builds a detached dispatch context, for testing handlers and
// middleware outside a running server. Session() is nil and Dispatch is
// unavailable on a detached context.
func NewCtx(event *protocol.Event) *Ctx {
	return &Ctx{
		event:  event,
		std:    context.Background(),
		logger: slog.Default().With("event", event.Name),
	}
}

// Session returns the session this event belongs to.
func (c *Ctx) Session() *Session {
	return c.sess
}

// SessionID returns the session identifier, or "" on a detached context.
func (c *Ctx) SessionID() string {
	if c.sess == nil {
		return ""
	}
	return c.sess.ID
}

// Event returns the raw protocol event being handled.
func (c *Ctx) Event() *protocol.Event {
	return c.event
}

// EventName returns the event's handler name.
func (c *Ctx) EventName() string {
	return c.event.Name
}

// Args returns the raw JSON argument payload.
func (c *Ctx) Args() []byte {
	return c.event.Args
}

// BindArgs unmarshals the event's JSON arguments into v.
// An empty payload leaves v untouched.
func (c *Ctx) BindArgs(v any) error {
	if len(c.event.Args) == 0 {
		return nil
	}
	return json.Unmarshal(c.event.Args, v)
}

// StdContext returns the context.Context for downstream calls. It is
// canceled when the session closes.
func (c *Ctx) StdContext() context.Context {
	return c.std
}

// WithStdContext replaces the context seen by later middleware and the
// handler. Used to thread trace contexts through the chain.
func (c *Ctx) WithStdContext(ctx context.Context) {
	c.std = ctx
}

// SetValue stores a scratch value on the dispatch.
func (c *Ctx) SetValue(key, value any) {
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = value
}

// Value returns a scratch value set by earlier middleware, or nil.
func (c *Ctx) Value(key any) any {
	return c.values[key]
}

// Logger returns a logger scoped to the session and event.
func (c *Ctx) Logger() *slog.Logger {
	return c.logger
}

// Dispatch synchronously invokes another named handler within the same
// batch. State updates from the nested handler coalesce into the flush
// that follows the outer dispatch.
func (c *Ctx) Dispatch(name string, args any) error {
	var payload []byte
	if args != nil {
		var err error
		payload, err = json.Marshal(args)
		if err != nil {
			return err
		}
	}
	return c.sess.invoke(&protocol.Event{Name: name, Args: payload}, c.std)
}
