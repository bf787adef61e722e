package server

import (
	"net/http"
	"time"

	"github.com/relight-dev/relight/pkg/session"
)

// Config configures a Server.
type Config struct {
	// Address is the listen address. Default: ":8080".
	Address string

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	// Default: 4096 each.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the Origin header on upgrade. The default
	// accepts same-origin requests only (gorilla's default).
	CheckOrigin func(r *http.Request) bool

	// MaxMessageSize caps inbound WebSocket messages. Default: 64KB.
	MaxMessageSize int64

	// HandshakeTimeout bounds the wait for the client Hello.
	// Default: 10s.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds individual frame writes. Default: 10s.
	WriteTimeout time.Duration

	// PingInterval is how often the server pings idle connections.
	// Default: 30s.
	PingInterval time.Duration

	// PongTimeout is how long to wait for a pong before dropping the
	// connection. Default: 60s.
	PongTimeout time.Duration

	// EventQueueSize is the per-session event buffer. Default: 64.
	EventQueueSize int

	// MaxSessions caps concurrent sessions. Zero means unlimited.
	MaxSessions int

	// RenderBudget caps render passes per flush. Zero uses the hooks
	// package default.
	RenderBudget int

	// Store persists detached sessions. Nil keeps them in memory only.
	Store session.Store

	// Manager configures detached-session limits and eviction.
	Manager session.ManagerConfig

	// EnableMetrics mounts a Prometheus /metrics endpoint and registers
	// the server collectors.
	EnableMetrics bool

	// ShutdownTimeout bounds graceful shutdown. Default: 15s.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout, ReadTimeout, and IdleTimeout are passed to the
	// underlying http.Server.
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	IdleTimeout       time.Duration

	// TrustedProxies lists CIDRs whose X-Forwarded-For headers are
	// honored when deriving the client IP.
	TrustedProxies []string
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		MaxMessageSize:    64 * 1024,
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
		PingInterval:      30 * time.Second,
		PongTimeout:       60 * time.Second,
		EventQueueSize:    64,
		Manager:           session.DefaultManagerConfig(),
		ShutdownTimeout:   15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = d.ReadBufferSize
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = d.WriteBufferSize
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PingInterval == 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PongTimeout == 0 {
		c.PongTimeout = d.PongTimeout
	}
	if c.EventQueueSize == 0 {
		c.EventQueueSize = d.EventQueueSize
	}
	if c.Manager.ResumeWindow == 0 {
		c.Manager = d.Manager
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	return c
}
