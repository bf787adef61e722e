package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relight-dev/relight/pkg/hooks"
	"github.com/relight-dev/relight/pkg/protocol"
	"github.com/relight-dev/relight/pkg/session"
)

// sessionCtx exposes the owning Session to components during render.
var sessionCtx = hooks.NewContextNamed[*Session]("relight.session", nil)

// UseSession returns the Session hosting the current component tree, or
// nil when the tree is mounted outside a server (e.g. in unit tests).
func UseSession() *Session {
	return hooks.UseContext(sessionCtx)
}

// UseHandler registers a named event handler owned by the current
// component. The handler is re-registered with a fresh closure on every
// render and removed when the component unmounts, so it always sees the
// component's latest state.
func UseHandler(name string, fn HandlerFunc) {
	sess := UseSession()
	if sess == nil {
		return
	}
	sess.handlers.register(name, fn)
	hooks.OnUnmount(func() {
		sess.handlers.unregister(name)
	})
}

// sessionRoot wraps the application component to provide the session
// context above it.
type sessionRoot struct {
	sess *Session
	comp hooks.Component
}

func (r *sessionRoot) Render() any {
	sessionCtx.Provide(r.sess)
	return hooks.UseComponent(r.comp)
}

// Session is the server-side state of one client: a mounted component
// tree, its key/value store, and the connection (when attached).
type Session struct {
	// ID is the unique session identifier.
	ID string

	// CreatedAt is when the session was established.
	CreatedAt time.Time

	srv  *Server
	root *hooks.Root

	// handlers registered by components via UseHandler. Checked before
	// the server-level registry.
	handlers *registry

	// Key/value store persisted across detach/resume. Values are kept
	// JSON-encoded so snapshots are cheap and symmetric.
	valuesMu sync.RWMutex
	values   map[string]json.RawMessage

	// Connection state. conn is nil while detached.
	connMu sync.Mutex
	conn   *websocket.Conn

	events chan *protocol.Event
	wake   chan struct{}

	viewSeq  uint64
	lastView []byte
	lastAck  uint64

	ctx    context.Context
	cancel context.CancelFunc

	runOnce sync.Once

	mu       sync.Mutex
	closed   bool
	detached bool

	lastActive time.Time

	logger *slog.Logger
}

func newSession(srv *Server, id string, comp hooks.Component) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		srv:       srv,
		handlers:  newRegistry(),
		values:    make(map[string]json.RawMessage),
		events:    make(chan *protocol.Event, srv.config.EventQueueSize),
		wake:      make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
		logger:    srv.logger.With("session_id", id),
	}

	s.root = hooks.NewRoot(
		&sessionRoot{sess: s, comp: comp},
		hooks.WithScheduler(s.scheduleWake),
		hooks.WithRenderBudget(srv.config.RenderBudget),
	)
	return s
}

// Set stores a JSON-encoded value in the session. Values survive
// detach/resume cycles, including cold resumes from a store.
func (s *Session) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.valuesMu.Lock()
	s.values[key] = data
	s.valuesMu.Unlock()
	return nil
}

// Get unmarshals the value stored under key into v. The bool reports
// whether the key existed.
func (s *Session) Get(key string, v any) (bool, error) {
	s.valuesMu.RLock()
	data, ok := s.values[key]
	s.valuesMu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, v)
}

// Delete removes a stored value.
func (s *Session) Delete(key string) {
	s.valuesMu.Lock()
	delete(s.values, key)
	s.valuesMu.Unlock()
}

// Context returns a context canceled when the session closes.
func (s *Session) Context() context.Context {
	return s.ctx
}

// LastActive returns the time of the last handled event.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// IsClosed reports whether the session has been closed.
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) isDetached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detached
}

func (s *Session) isCurrentConn(conn *websocket.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.conn == conn
}

// scheduleWake nudges the run loop after out-of-band state updates,
// e.g. a timer goroutine calling a state setter.
func (s *Session) scheduleWake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// mount renders the tree for the first time and sends the initial view.
func (s *Session) mount() error {
	if _, err := s.root.Mount(); err != nil {
		return err
	}
	return s.sendView()
}

// attach binds a connection and starts the read and run loops.
func (s *Session) attach(conn *websocket.Conn) {
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.mu.Lock()
	s.detached = false
	s.lastActive = time.Now()
	s.mu.Unlock()

	conn.SetReadLimit(s.srv.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.srv.config.PongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.srv.config.PongTimeout))
		return nil
	})

	go s.readLoop(conn)
	go s.pingLoop(conn)
	s.runOnce.Do(func() {
		go s.runLoop()
	})
}

// readLoop decodes frames off the wire until the connection drops.
// The deferred detach is skipped when a newer connection has already
// replaced this one, e.g. a resume racing a dropped socket.
func (s *Session) readLoop(conn *websocket.Conn) {
	defer func() {
		if s.isCurrentConn(conn) {
			s.srv.sessions.detach(s)
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read loop ended", "error", err)
			}
			return
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.sendError(protocol.ErrInvalidFrame, "malformed frame", true)
			return
		}

		switch frame.Type {
		case protocol.FrameEvent:
			ev, err := protocol.DecodeEvent(frame.Payload)
			if err != nil {
				s.sendError(protocol.ErrInvalidEvent, "malformed event", false)
				continue
			}
			select {
			case s.events <- ev:
				s.srv.metrics.eventReceived()
			default:
				s.srv.metrics.eventDropped()
				s.sendError(protocol.ErrRateLimited, ErrQueueFull.Error(), false)
			}

		case protocol.FrameAck:
			if ack, err := protocol.DecodeAck(frame.Payload); err == nil {
				s.mu.Lock()
				if ack.LastSeq > s.lastAck {
					s.lastAck = ack.LastSeq
				}
				s.mu.Unlock()
			}

		case protocol.FrameControl:
			ct, _, err := protocol.DecodeControl(frame.Payload)
			if err != nil {
				continue
			}
			switch ct {
			case protocol.ControlPing:
				s.sendFrame(protocol.NewFrame(protocol.FrameControl,
					protocol.EncodeControl(protocol.ControlPong, nil)))
			case protocol.ControlResync:
				s.mu.Lock()
				s.lastView = nil // force a resend on the next flush
				s.mu.Unlock()
				s.scheduleWake()
			case protocol.ControlClose:
				s.srv.sessions.close(s.ID)
				return
			}

		default:
			s.sendError(protocol.ErrInvalidFrame, "unexpected frame type", false)
		}
	}
}

// runLoop serializes event handling and flushes for one session.
func (s *Session) runLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case ev := <-s.events:
			s.handleEvent(ev)
			s.flushAndSend()
		case <-s.wake:
			s.flushAndSend()
		}
	}
}

// pingLoop keeps the connection alive with WebSocket-level pings.
func (s *Session) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(s.srv.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != conn {
				s.connMu.Unlock()
				return
			}
			conn.SetWriteDeadline(time.Now().Add(s.srv.config.WriteTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			s.connMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// handleEvent runs the middleware chain and handler for one event.
// State updates batch into the flush that follows.
func (s *Session) handleEvent(ev *protocol.Event) {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
	s.srv.sessions.touch(s.ID)

	var err error
	hooks.Batch(func() {
		err = s.invoke(ev, s.ctx)
	})

	if err != nil {
		s.srv.metrics.eventError()
		switch err {
		case ErrHandlerNotFound:
			s.sendError(protocol.ErrHandlerNotFound, "no handler named "+ev.Name, false)
		default:
			if _, ok := err.(*HandlerPanicError); ok {
				s.sendError(protocol.ErrHandlerPanic, err.Error(), false)
			} else {
				s.sendError(protocol.ErrServerError, err.Error(), false)
			}
		}
		return
	}
	s.srv.metrics.eventProcessed()
}

// invoke looks up and runs a handler through the middleware chain.
// Also used for nested Ctx.Dispatch calls.
func (s *Session) invoke(ev *protocol.Event, std context.Context) (err error) {
	handler, ok := s.handlers.lookup(ev.Name)
	if !ok {
		handler, ok = s.srv.registry.lookup(ev.Name)
	}
	if !ok {
		return ErrHandlerNotFound
	}

	ctx := &Ctx{
		sess:   s,
		event:  ev,
		std:    std,
		logger: s.logger.With("event", ev.Name),
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic", "event", ev.Name, "panic", r)
			err = &HandlerPanicError{Event: ev.Name, Value: r}
		}
	}()

	return chain(s.srv.middleware, ctx, func() error {
		return handler(ctx)
	})
}

// flushAndSend runs pending renders and ships the view if it changed.
func (s *Session) flushAndSend() {
	if !s.root.HasPendingWork() && s.lastViewSent() {
		return
	}

	_, err := s.root.Flush()
	if err == hooks.ErrRenderStorm {
		s.logger.Warn("render storm", "budget_exceeded", true)
		s.sendError(protocol.ErrRenderStorm, "render budget exceeded", false)
	} else if err != nil {
		return
	}

	if err := s.sendView(); err != nil {
		s.logger.Debug("view send failed", "error", err)
	}
}

func (s *Session) lastViewSent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastView != nil
}

// sendView encodes and sends the committed view when it differs from the
// last one sent. While detached nothing is sent and nothing is recorded,
// so the resumed connection gets the full view.
func (s *Session) sendView() error {
	s.connMu.Lock()
	attached := s.conn != nil
	s.connMu.Unlock()
	if !attached {
		return nil
	}

	data, err := json.Marshal(s.root.View())
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.lastView != nil && string(s.lastView) == string(data) {
		s.mu.Unlock()
		return nil
	}
	s.viewSeq++
	seq := s.viewSeq
	s.lastView = data
	ack := s.lastAck
	s.mu.Unlock()

	payload := protocol.EncodeView(&protocol.View{Seq: seq, Data: data})
	if err := s.sendFrame(protocol.NewFrame(protocol.FrameView, payload)); err != nil {
		return err
	}
	s.srv.metrics.viewSent(len(payload))

	// Only clients that ack at all are judged on lag.
	if ack > 0 && seq > ack+viewAckLag {
		s.logger.Warn("client lagging behind view stream",
			"sent_seq", seq,
			"acked_seq", ack)
	}
	return nil
}

// viewAckLag is how many unacknowledged views an acking client may fall
// behind before the session logs it.
const viewAckLag = 32

// sendError sends an error frame. Fatal errors close the connection.
func (s *Session) sendError(code protocol.ErrorCode, msg string, fatal bool) {
	payload := protocol.EncodeErrorMessage(&protocol.ErrorMessage{
		Code:    code,
		Message: msg,
		Fatal:   fatal,
	})
	s.sendFrame(protocol.NewFrame(protocol.FrameError, payload))
	if fatal {
		s.srv.sessions.detach(s)
	}
}

func (s *Session) sendFrame(f *protocol.Frame) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return ErrSessionClosed
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.srv.config.WriteTimeout))
	return s.conn.WriteMessage(websocket.BinaryMessage, f.Encode())
}

// snapshot captures the persistable session state.
func (s *Session) snapshot() ([]byte, error) {
	s.valuesMu.RLock()
	values := make(map[string]json.RawMessage, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	s.valuesMu.RUnlock()

	s.mu.Lock()
	snap := &session.Snapshot{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		LastActive: s.lastActive,
		Values:     values,
		View:       s.lastView,
		ViewSeq:    s.viewSeq,
	}
	s.mu.Unlock()

	return session.EncodeSnapshot(snap)
}

// restore seeds the session from a decoded snapshot before mounting.
func (s *Session) restore(snap *session.Snapshot) {
	s.CreatedAt = snap.CreatedAt

	s.valuesMu.Lock()
	for k, v := range snap.Values {
		s.values[k] = v
	}
	s.valuesMu.Unlock()

	s.mu.Lock()
	// Resume the sequence past the snapshot so the client never sees a
	// duplicate or regressing view number.
	s.viewSeq = snap.ViewSeq
	s.mu.Unlock()
}

// detachConn drops the connection, leaving the tree mounted for resume.
// lastView is kept so a resuming client that already holds the latest
// view can skip the resend (see prepareResend).
func (s *Session) detachConn() {
	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	s.connMu.Unlock()

	s.mu.Lock()
	s.detached = true
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// prepareResend decides whether the post-handshake flush must resend the
// view to a resuming client. A client whose hello carries the latest
// view sequence is only sent a view when the tree drifted while it was
// away; anything else forces a resend. Called before attach, so no send
// can race the decision.
func (s *Session) prepareResend(clientSeq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if clientSeq > s.lastAck {
		s.lastAck = clientSeq
	}
	if clientSeq == 0 || clientSeq != s.viewSeq || s.lastView == nil {
		s.lastView = nil
		return
	}
	// Flushes while detached commit to the tree without sending, so the
	// committed view can be newer than the last one sent.
	data, err := json.Marshal(s.root.View())
	if err != nil || string(data) != string(s.lastView) {
		s.lastView = nil
	}
}

// AckedSeq returns the highest view sequence the client has confirmed,
// from ack frames or the hello of its latest resume.
func (s *Session) AckedSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAck
}

// close tears the session down permanently.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.detachConn()
	s.root.Unmount()

	s.logger.Debug("session closed")
}
