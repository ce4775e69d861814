// Package gateway maintains the persistent Concord gateway connection: the
// handshake state machine, heartbeating, reconnection with backoff, and
// delivery of dispatched events to application callbacks.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/concordhq/concord-go/pkg/events"
	"github.com/concordhq/concord-go/pkg/protocol"
	"github.com/concordhq/concord-go/pkg/rest"
	"github.com/concordhq/concord-go/pkg/state"
	"github.com/concordhq/concord-go/pkg/token"
	"github.com/concordhq/concord-go/pkg/types"
)

const (
	// maxFrameSize caps a single gateway frame (1 MB). The server closes
	// oversized payloads with ErrReadLimit on the gorilla side.
	maxFrameSize = 1 << 20

	writeTimeout = 10 * time.Second
	dialTimeout  = 30 * time.Second

	// identifyEvery spaces IDENTIFY handshakes; the platform rejects bursts
	// of fresh sessions from one token.
	identifyEvery = 5 * time.Second
)

// ErrSessionClosed is returned by Start after Stop, or when the server
// closed the connection with a code that forbids reconnecting.
var ErrSessionClosed = errors.New("gateway: session closed")

var errReconnectRequested = errors.New("gateway: server requested reconnect")

// Config assembles a Session. Token and Handler are required.
type Config struct {
	Token   token.Provider
	Handler events.Handler

	// Intents defaults to protocol.IntentsDefault when zero.
	Intents protocol.Intents

	// ShardID / ShardCount select this connection's shard. ShardCount 0
	// means unsharded.
	ShardID    int
	ShardCount int

	// Rest overrides the REST client built from Token. Tests point this at
	// a local server.
	Rest *rest.Client

	// State, when set, is kept up to date from the dispatch path.
	State *state.Cache

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Properties defaults to this library's identification.
	Properties protocol.Properties
}

// Session owns one logical gateway connection across its physical socket
// generations. All reconnection is handled internally: application code
// only sees delivered events and Error callbacks.
type Session struct {
	cfg     Config
	rest    *rest.Client
	router  *events.Router
	log     *slog.Logger
	backoff *backoff

	identifyLimiter *rate.Limiter

	mu         sync.Mutex
	phase      Phase
	sessionID  string
	reconnect  bool
	gatewayURL string
	self       *types.User
	hb         *heartbeat

	seq atomic.Int64

	connMu sync.Mutex
	conn   *websocket.Conn

	// writeMu serializes every socket write: the read loop's replies and
	// the heartbeat task share one write side.
	writeMu sync.Mutex

	dispatch *dispatcher
	ectx     *events.Context

	stop     chan struct{}
	stopOnce sync.Once
}

// New validates cfg and builds a Session. The connection is not opened
// until Start.
func New(cfg Config) (*Session, error) {
	if cfg.Token == nil {
		return nil, fmt.Errorf("gateway: %w", token.ErrEmptyToken)
	}
	if cfg.Handler == nil {
		return nil, errors.New("gateway: nil event handler")
	}
	if cfg.ShardCount > 0 && (cfg.ShardID < 0 || cfg.ShardID >= cfg.ShardCount) {
		return nil, fmt.Errorf("gateway: shard %d out of range for count %d", cfg.ShardID, cfg.ShardCount)
	}
	if cfg.Intents == 0 {
		cfg.Intents = protocol.IntentsDefault
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Rest == nil {
		cfg.Rest = rest.New(cfg.Token, rest.WithLogger(cfg.Logger))
	}
	if cfg.Properties == (protocol.Properties{}) {
		cfg.Properties = protocol.Properties{
			OS:         runtime.GOOS,
			ClientName: "concord-go",
			Device:     "concord-go",
		}
	}

	s := &Session{
		cfg:             cfg,
		rest:            cfg.Rest,
		router:          events.NewRouter(cfg.Logger),
		log:             cfg.Logger,
		backoff:         newBackoff(backoffBase, backoffMax),
		identifyLimiter: rate.NewLimiter(rate.Every(identifyEvery), 1),
		phase:           PhaseDisconnected,
		reconnect:       true,
		stop:            make(chan struct{}),
	}
	s.ectx = &events.Context{Rest: s.rest}
	s.dispatch = newDispatcher(cfg.Handler, s.ectx, cfg.State, cfg.Logger)
	return s, nil
}

// Start runs the connection supervisor: it dials, authenticates, and keeps
// reconnecting with capped backoff until Stop is called, ctx is cancelled,
// or the server closes with a non-resumable code. It blocks for the life of
// the session.
func (s *Session) Start(ctx context.Context) error {
	go s.dispatch.run()
	defer s.dispatch.close()
	defer s.setPhase(PhaseDisconnected)

	var lastErr error
	for {
		select {
		case <-s.stop:
			return ErrSessionClosed
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := s.attempt(ctx)
		if err != nil && !errors.Is(err, errReconnectRequested) && !errors.Is(err, ErrSessionClosed) {
			lastErr = err
		}

		if !s.canReconnect() {
			s.log.Info("gateway: reconnection disabled, stopping", "error", lastErr)
			if lastErr != nil {
				s.dispatch.push(events.NewConnectionError(lastErr))
				return lastErr
			}
			return ErrSessionClosed
		}

		wait := s.backoff.next()
		s.log.Info("gateway: reconnecting", "wait", wait, "consecutive_failures", s.backoff.failures)
		select {
		case <-time.After(wait):
		case <-s.stop:
			return ErrSessionClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop disables reconnection and tears down the current socket. The
// heartbeat task is stopped before the socket is dropped; Start returns
// once the read loop unwinds.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.setPhase(PhaseClosing)
		s.mu.Lock()
		s.reconnect = false
		hb := s.hb
		s.mu.Unlock()
		close(s.stop)
		if hb != nil {
			hb.halt()
		}
		s.closeConn()
	})
}

// attempt runs one socket generation: bootstrap, dial, handshake, read loop.
func (s *Session) attempt(ctx context.Context) error {
	// Per-attempt state: a fresh generation never inherits heartbeat
	// counters or phase from the previous socket.
	s.stopHeartbeat()
	s.setPhase(PhaseConnecting)

	log := s.log.With("conn_id", uuid.NewString())

	gwURL, err := s.bootstrap(ctx)
	if err != nil {
		log.Warn("gateway: bootstrap failed", "error", err)
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, gwURL, nil)
	if err != nil {
		log.Warn("gateway: dial failed", "url", gwURL, "error", err)
		return fmt.Errorf("dial %s: %w", gwURL, err)
	}
	conn.SetReadLimit(maxFrameSize)

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.setPhase(PhaseAwaitingHello)
	log.Info("gateway: connected", "url", gwURL, "resuming", s.SessionID() != "")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.readLoop(gctx, log, conn)
	})
	g.Go(func() error {
		// Drop the socket when the read loop ends or the caller cancels, so
		// the blocking read always unwinds. Stop has its own teardown that
		// halts the heartbeat before touching the socket.
		<-gctx.Done()
		s.closeConn()
		return nil
	})
	err = g.Wait()

	s.stopHeartbeat()
	s.connMu.Lock()
	s.conn = nil
	s.connMu.Unlock()

	if err != nil {
		s.classifyExit(log, err)
	}
	return err
}

// bootstrap performs the per-attempt REST calls: gateway URL always, bot
// identity once. Failures are fatal to the attempt and retried by the
// supervisor.
func (s *Session) bootstrap(ctx context.Context) (string, error) {
	info, err := s.rest.GatewayBot(ctx)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.gatewayURL = info.URL
	haveSelf := s.self != nil
	s.mu.Unlock()

	if !haveSelf {
		self, err := s.rest.CurrentUser(ctx)
		if err != nil {
			return "", fmt.Errorf("fetch identity: %w", err)
		}
		s.mu.Lock()
		s.self = self
		s.mu.Unlock()
		s.ectx.Self = self
	}
	return info.URL, nil
}

// readLoop owns the inbound side of one socket generation. It always
// returns a non-nil error describing why the generation ended.
func (s *Session) readLoop(ctx context.Context, log *slog.Logger, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stop:
				return ErrSessionClosed
			default:
			}
			return fmt.Errorf("read: %w", err)
		}

		var frame protocol.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			// A malformed frame is dropped; the stream itself is fine.
			log.Warn("gateway: dropping malformed frame", "error", err)
			continue
		}

		if err := s.handleFrame(ctx, log, &frame); err != nil {
			return err
		}
	}
}

func (s *Session) handleFrame(ctx context.Context, log *slog.Logger, f *protocol.Frame) error {
	switch f.Op {
	case protocol.OpHello:
		return s.handleHello(ctx, log, f)

	case protocol.OpHeartbeat:
		// Server-requested beat: reply out of band, independent of cadence.
		frame, err := protocol.NewHeartbeat(s.Sequence())
		if err != nil {
			return fmt.Errorf("encode heartbeat: %w", err)
		}
		if err := s.writeFrame(frame); err != nil {
			return fmt.Errorf("heartbeat reply: %w", err)
		}

	case protocol.OpHeartbeatACK:
		s.mu.Lock()
		hb := s.hb
		s.mu.Unlock()
		if hb != nil {
			hb.recordAck(time.Now())
			log.Debug("gateway: heartbeat ack", "latency", hb.lastLatency())
		}

	case protocol.OpReconnect:
		log.Info("gateway: server requested reconnect")
		return errReconnectRequested

	case protocol.OpInvalidSession:
		return s.handleInvalidSession(log, f)

	case protocol.OpDispatch:
		s.trackSequence(f.S)
		s.handleDispatch(log, f)

	default:
		log.Debug("gateway: ignoring unknown opcode", "op", f.Op)
	}
	return nil
}

// handleHello answers the server's HELLO with IDENTIFY or RESUME. No
// heartbeat is sent before this completes; the task starts on READY or
// RESUMED.
func (s *Session) handleHello(ctx context.Context, log *slog.Logger, f *protocol.Frame) error {
	var hello protocol.Hello
	if err := json.Unmarshal(f.D, &hello); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}
	if hello.HeartbeatInterval <= 0 {
		return fmt.Errorf("hello: invalid heartbeat interval %d", hello.HeartbeatInterval)
	}
	interval := time.Duration(hello.HeartbeatInterval) * time.Millisecond

	// A repeated HELLO on the same socket must not leave two senders
	// running; halt the previous task before installing the new one.
	s.stopHeartbeat()

	s.mu.Lock()
	s.hb = newHeartbeat(interval)
	sessionID := s.sessionID
	s.mu.Unlock()

	s.setPhase(PhaseAuthenticating)

	var frame *protocol.Frame
	var err error
	if sessionID != "" {
		log.Info("gateway: resuming session", "session_id", sessionID, "seq", s.Sequence())
		frame, err = protocol.NewResume(protocol.Resume{
			Token:     s.cfg.Token.Authorization(),
			SessionID: sessionID,
			Seq:       s.Sequence(),
		})
	} else {
		if werr := s.identifyLimiter.Wait(ctx); werr != nil {
			return werr
		}
		log.Info("gateway: identifying", "intents", s.cfg.Intents, "shard", s.shard())
		frame, err = protocol.NewIdentify(protocol.Identify{
			Token:      s.cfg.Token.Authorization(),
			Intents:    s.cfg.Intents,
			Shard:      s.shard(),
			Properties: s.cfg.Properties,
		})
	}
	if err != nil {
		return fmt.Errorf("encode handshake: %w", err)
	}
	if err := s.writeFrame(frame); err != nil {
		return fmt.Errorf("handshake write: %w", err)
	}
	return nil
}

func (s *Session) handleInvalidSession(log *slog.Logger, f *protocol.Frame) error {
	var resumable bool
	if len(f.D) > 0 {
		if err := json.Unmarshal(f.D, &resumable); err != nil {
			// An undecodable payload is treated as not resumable below.
			log.Warn("gateway: malformed invalid-session payload", "error", err)
		}
	}
	if resumable {
		log.Warn("gateway: session invalidated, resume still possible")
		return errors.New("gateway: invalid session (resumable)")
	}
	log.Warn("gateway: session invalidated, not resumable")
	s.clearSession()
	s.disableReconnect()
	return errors.New("gateway: invalid session (not resumable)")
}

func (s *Session) handleDispatch(log *slog.Logger, f *protocol.Frame) {
	switch f.T {
	case "READY":
		var ready protocol.Ready
		if err := json.Unmarshal(f.D, &ready); err != nil {
			log.Error("gateway: decode ready", "error", err)
			return
		}
		s.mu.Lock()
		s.sessionID = ready.SessionID
		s.mu.Unlock()
		s.sessionEstablished(log, "session_id", ready.SessionID)

	case "RESUMED":
		s.sessionEstablished(log, "session_id", s.SessionID())
	}

	ev, ok := s.router.Parse(f.T, f.D)
	if !ok {
		if !s.router.Known(f.T) {
			s.dispatch.push(events.NewUnknown(f.T, f.D))
		}
		// Known tag with a malformed payload was already logged and dropped.
		return
	}
	s.dispatch.push(ev)
}

// sessionEstablished moves the attempt into Ready: backoff resets and this
// generation's heartbeat task starts. The CAS guards against a duplicate
// READY starting a second sender.
func (s *Session) sessionEstablished(log *slog.Logger, attrs ...any) {
	s.setPhase(PhaseReady)
	s.backoff.reset()

	s.mu.Lock()
	hb := s.hb
	s.mu.Unlock()
	if hb != nil && hb.started.CompareAndSwap(false, true) {
		log.Info("gateway: session established", append(attrs, "heartbeat_interval", hb.interval)...)
		go s.runHeartbeat(hb)
	}
}

// classifyExit applies the close-code table to the error that ended the
// generation and updates session/reconnect state accordingly.
func (s *Session) classifyExit(log *slog.Logger, err error) {
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		// Transport errors and server RECONNECT keep the session for a
		// resume attempt.
		log.Warn("gateway: connection ended", "error", err)
		return
	}

	action := protocol.ClassifyClose(closeErr.Code)
	log.Warn("gateway: closed by server",
		"code", closeErr.Code, "reason", closeErr.Text, "action", action.String())

	switch action {
	case protocol.ActionReidentify:
		// Auth failure: retry from scratch with a fresh IDENTIFY.
		s.clearSession()
	case protocol.ActionStop:
		s.clearSession()
		s.disableReconnect()
	}
}

// --- socket writes ---

// writeFrame serializes a frame onto the shared write side. Used by the
// read loop and handshake; the heartbeat task uses TryLock instead.
func (s *Session) writeFrame(f *protocol.Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.writeFrameLocked(f)
}

// writeFrameLocked performs the write. Callers must hold writeMu.
func (s *Session) writeFrameLocked(f *protocol.Frame) error {
	s.connMu.Lock()
	conn := s.conn
	s.connMu.Unlock()
	if conn == nil {
		return errors.New("gateway: connection closed")
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(f)
}

func (s *Session) closeConn() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
}

// --- session state ---

func (s *Session) trackSequence(seq int64) {
	if seq == 0 {
		return
	}
	for {
		cur := s.seq.Load()
		if seq <= cur {
			return
		}
		if s.seq.CompareAndSwap(cur, seq) {
			return
		}
	}
}

func (s *Session) clearSession() {
	s.mu.Lock()
	s.sessionID = ""
	s.mu.Unlock()
	s.seq.Store(0)
}

func (s *Session) disableReconnect() {
	s.mu.Lock()
	s.reconnect = false
	s.mu.Unlock()
}

func (s *Session) canReconnect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnect
}

func (s *Session) stopHeartbeat() {
	s.mu.Lock()
	hb := s.hb
	s.hb = nil
	s.mu.Unlock()
	if hb != nil {
		hb.halt()
	}
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	prev := s.phase
	s.phase = p
	s.mu.Unlock()
	if prev != p {
		s.log.Debug("gateway: phase", "from", prev.String(), "to", p.String())
	}
}

func (s *Session) shard() *[2]int {
	if s.cfg.ShardCount <= 0 {
		return nil
	}
	return &[2]int{s.cfg.ShardID, s.cfg.ShardCount}
}

// --- accessors ---

// Phase returns the current connection phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// SessionID returns the resumable session ID, or "" outside a session.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Sequence returns the highest dispatch sequence observed.
func (s *Session) Sequence() int64 { return s.seq.Load() }

// Latency returns the most recent heartbeat round-trip time, or 0 before
// the first acknowledged beat of the current generation.
func (s *Session) Latency() time.Duration {
	s.mu.Lock()
	hb := s.hb
	s.mu.Unlock()
	if hb == nil {
		return 0
	}
	return hb.lastLatency()
}

// Self returns the bot identity fetched at bootstrap, or nil before the
// first successful attempt.
func (s *Session) Self() *types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self
}
