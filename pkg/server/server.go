package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relight-dev/relight/pkg/hooks"
	"github.com/relight-dev/relight/pkg/protocol"
	"github.com/relight-dev/relight/pkg/session"
)

// Server hosts component sessions over WebSocket.
type Server struct {
	config   *Config
	sessions *SessionManager
	registry *registry

	rootComp func() hooks.Component

	middleware []Middleware

	upgrader websocket.Upgrader
	proxies  *proxyMatcher

	metrics    *serverMetrics
	metricsReg *prometheus.Registry

	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a server from config. Unset fields get defaults.
func New(config *Config) *Server {
	config = config.withDefaults()
	logger := slog.Default().With("component", "server")

	s := &Server{
		config:   config,
		registry: newRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		proxies: newProxyMatcher(config.TrustedProxies, logger),
		logger:  logger,
	}

	if config.EnableMetrics {
		s.metricsReg = prometheus.NewRegistry()
		s.metrics = newServerMetrics(s.metricsReg)
	}

	s.sessions = newSessionManager(s, config.Store, config.Manager, logger)
	return s
}

// SetRoot sets the factory producing the root component for each session.
func (s *Server) SetRoot(factory func() hooks.Component) {
	s.rootComp = factory
}

// Handle registers a server-wide event handler. Handlers registered by
// components via UseHandler shadow these within their session.
func (s *Server) Handle(name string, h HandlerFunc) {
	s.registry.register(name, h)
}

// Use appends event middleware. Middleware runs in registration order
// around every dispatched event.
func (s *Server) Use(mw Middleware) {
	s.middleware = append(s.middleware, mw)
}

// Sessions exposes the session manager, mainly for stats endpoints.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Router builds the HTTP routing tree:
//
//	GET /live     WebSocket endpoint
//	GET /healthz  liveness probe
//	GET /metrics  Prometheus scrape endpoint (when enabled)
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/live", s.handleLive)
	r.Get("/healthz", s.handleHealthz)

	if s.metricsReg != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metricsReg, promhttp.HandlerOpts{}))
	}
	return r
}

// Run serves until ctx is canceled or a SIGINT/SIGTERM arrives, then
// shuts down gracefully: the listener closes, every session detaches,
// and all snapshots are persisted.
func (s *Server) Run(ctx context.Context) error {
	if s.rootComp == nil {
		return errors.New("server: no root component configured")
	}

	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.Router(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	case sig := <-stop:
		s.logger.Info("shutdown signal", "signal", sig.String())
	}

	return s.Shutdown()
}

// Shutdown stops the listener and persists all sessions.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	var httpErr error
	if s.httpServer != nil {
		httpErr = s.httpServer.Shutdown(ctx)
	}

	if err := s.sessions.shutdown(ctx); err != nil {
		s.logger.Warn("session shutdown incomplete", "error", err)
		if httpErr == nil {
			httpErr = err
		}
	}

	s.logger.Info("server stopped")
	if httpErr != nil {
		return httpErr
	}
	return ErrServerClosed
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleLive upgrades the connection and performs the Hello/Welcome
// handshake, creating or resuming a session.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if s.rootComp == nil {
		http.Error(w, "no root component", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", "error", err)
		return
	}

	conn.SetReadLimit(s.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.config.HandshakeTimeout))

	_, msg, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}

	frame, err := protocol.DecodeFrame(msg)
	if err != nil || frame.Type != protocol.FrameHello {
		s.rejectHandshake(conn, protocol.ErrInvalidFrame, "expected hello frame")
		return
	}
	hello, err := protocol.DecodeHello(frame.Payload)
	if err != nil {
		s.rejectHandshake(conn, protocol.ErrInvalidFrame, "malformed hello")
		return
	}
	if hello.Version != protocol.ProtocolVersion {
		s.rejectHandshake(conn, protocol.ErrInvalidFrame, "unsupported protocol version")
		return
	}

	ip := s.clientIP(r)

	var (
		sess    *Session
		resumed bool
	)
	if hello.SessionID != "" {
		sess, _, err = s.sessions.resume(hello.SessionID, ip)
		switch {
		case err == nil:
			resumed = true
		case errors.Is(err, session.ErrSessionExpired), errors.Is(err, session.ErrSessionNotFound):
			// Fall through to a fresh session.
			sess = nil
		default:
			s.rejectHandshake(conn, protocol.ErrSessionExpired, err.Error())
			return
		}
	}

	if sess == nil {
		if err := s.sessions.mgr.CheckIPLimit(ip); err != nil {
			s.rejectHandshake(conn, protocol.ErrRateLimited, err.Error())
			return
		}
		sess, err = s.sessions.create(ip)
		if err != nil {
			code := protocol.ErrServerError
			if errors.Is(err, ErrMaxSessionsReached) || errors.Is(err, session.ErrTooManySessionsFromIP) {
				code = protocol.ErrRateLimited
			}
			s.rejectHandshake(conn, code, err.Error())
			return
		}
	}

	welcome := protocol.EncodeWelcome(&protocol.Welcome{SessionID: sess.ID, Resumed: resumed})
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage,
		protocol.NewFrame(protocol.FrameHello, welcome).Encode()); err != nil {
		conn.Close()
		return
	}

	if resumed {
		// The hello's last applied sequence decides whether the client
		// needs the view resent or already holds it.
		sess.prepareResend(hello.LastSeq)
	}

	sess.attach(conn)

	// Wake the run loop so a client that needs the view gets it now.
	sess.scheduleWake()

	s.logger.Info("session attached",
		"session_id", sess.ID,
		"resumed", resumed,
		"ip", ip)
}

// rejectHandshake reports a fatal handshake error and closes the socket.
func (s *Server) rejectHandshake(conn *websocket.Conn, code protocol.ErrorCode, msg string) {
	payload := protocol.EncodeErrorMessage(&protocol.ErrorMessage{
		Code:    code,
		Message: msg,
		Fatal:   true,
	})
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	conn.WriteMessage(websocket.BinaryMessage, protocol.NewFrame(protocol.FrameError, payload).Encode())
	conn.Close()
}
