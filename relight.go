// Package relight provides the public API for the relight runtime.
//
// This is the recommended import for most applications:
//
//	import "github.com/relight-dev/relight"
//
// Usage:
//
//	count, setCount := relight.UseState(0)
//	relight.UseEffect(func() relight.Cleanup { ... }, relight.Deps{count})
//	relight.UseHandler("increment", func(ctx *relight.Ctx) error { ... })
package relight

import (
	"github.com/relight-dev/relight/pkg/hooks"
	"github.com/relight-dev/relight/pkg/server"
)

// =============================================================================
// Components and roots (re-export from pkg/hooks)
// =============================================================================

// Component is the interface for renderable components.
type Component = hooks.Component

// Func wraps a render function as a Component.
type Func = hooks.Func

// Root hosts one mounted component tree.
type Root = hooks.Root

// RootOption configures a Root.
type RootOption = hooks.RootOption

// NewRoot creates a root for the given component.
var NewRoot = hooks.NewRoot

// WithOnCommit registers a callback invoked with each committed view.
var WithOnCommit = hooks.WithOnCommit

// WithScheduler sets the wakeup function called when work is pending.
var WithScheduler = hooks.WithScheduler

// WithRenderBudget caps render passes per flush.
var WithRenderBudget = hooks.WithRenderBudget

// Root lifecycle errors.
var (
	ErrRenderStorm   = hooks.ErrRenderStorm
	ErrNotMounted    = hooks.ErrNotMounted
	ErrRootUnmounted = hooks.ErrRootUnmounted
)

// =============================================================================
// Hooks (re-export from pkg/hooks)
// =============================================================================

// Deps is a dependency list for UseEffect, UseMemo, and UseCallback.
// A nil Deps means "every commit"; an empty Deps{} means "once".
type Deps = hooks.Deps

// Cleanup tears down an effect before it re-runs or when its component
// unmounts.
type Cleanup = hooks.Cleanup

// EffectFunc is an effect body; its returned Cleanup may be nil.
type EffectFunc = hooks.EffectFunc

// Ref is a mutable slot that persists across renders without causing
// re-renders on write.
type Ref[T any] = hooks.Ref[T]

// Reducer computes the next state from the current state and an action.
type Reducer[S, A any] = hooks.Reducer[S, A]

// Context carries a value to descendant components without prop
// threading.
type Context[T any] = hooks.Context[T]

// UseState returns the state value and a setter for the current slot.
func UseState[T any](initial T) (T, func(T)) {
	return hooks.UseState(initial)
}

// UseStateFunc is UseState with an updater-style setter.
func UseStateFunc[T any](initial T) (T, func(func(T) T)) {
	return hooks.UseStateFunc(initial)
}

// UseEffect runs setup after commit whenever deps change.
var UseEffect = hooks.UseEffect

// OnUnmount registers fn to run when the component unmounts.
var OnUnmount = hooks.OnUnmount

// UseMemo returns a value recomputed only when deps change.
func UseMemo[T any](compute func() T, deps Deps) T {
	return hooks.UseMemo(compute, deps)
}

// UseCallback returns a function whose identity is stable while deps
// are unchanged.
func UseCallback[F any](fn F, deps Deps) F {
	return hooks.UseCallback(fn, deps)
}

// UseRef returns a stable mutable reference.
func UseRef[T any](initial T) *Ref[T] {
	return hooks.UseRef(initial)
}

// UseReducer returns the reducer state and a synchronous dispatch.
func UseReducer[S, A any](reducer Reducer[S, A], initial S) (S, func(A)) {
	return hooks.UseReducer(reducer, initial)
}

// NewContext creates a typed context with a default value.
func NewContext[T any](name string, def T) *Context[T] {
	return hooks.NewContextNamed(name, def)
}

// UseContext reads the nearest provided value for c.
func UseContext[T any](c *Context[T]) T {
	return hooks.UseContext(c)
}

// UseComponent mounts a child component in a hook slot.
var UseComponent = hooks.UseComponent

// Batch coalesces state updates from fn into one re-render.
var Batch = hooks.Batch

// =============================================================================
// Server (re-export from pkg/server)
// =============================================================================

// Server hosts component sessions over WebSocket.
type Server = server.Server

// Config configures a Server.
type Config = server.Config

// Ctx carries one event through middleware and its handler.
type Ctx = server.Ctx

// HandlerFunc processes one client event.
type HandlerFunc = server.HandlerFunc

// Middleware wraps event dispatch.
type Middleware = server.Middleware

// Session is the server-side state of one connected client.
type Session = server.Session

// NewServer creates a server from config.
var NewServer = server.New

// DefaultConfig returns a Config with production defaults.
var DefaultConfig = server.DefaultConfig

// UseSession returns the Session hosting the current component tree.
var UseSession = server.UseSession

// UseHandler registers a named event handler owned by the current
// component.
var UseHandler = server.UseHandler
