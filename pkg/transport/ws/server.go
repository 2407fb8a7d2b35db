// Package ws serves the embedded renderer over a websocket.
//
// A renderer connects, sends a hello frame carrying its protocol version,
// and receives a welcome frame with its session id. After that documents
// flow to the renderer as event frames and renderer events flow back the
// same way.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/mod/semver"

	"github.com/go-drift/evolve/pkg/bridge"
	evolveerrors "github.com/go-drift/evolve/pkg/errors"
)

// ProtocolVersion is the wire protocol spoken by this server. Renderers with
// the same major version and an equal or newer minor version are accepted.
const ProtocolVersion = "v1.0.0"

// Frame types.
const (
	FrameHello   = "hello"
	FrameWelcome = "welcome"
	FrameEvent   = "event"
	FrameError   = "error"
)

// Frame is the websocket envelope.
type Frame struct {
	Type    string          `json:"type"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Version string          `json:"version,omitempty"`
	Session string          `json:"session,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ErrIncompatible is returned to renderers whose protocol version is not
// accepted.
var ErrIncompatible = errors.New("incompatible protocol version")

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
)

// Server is an http.Handler that accepts renderer connections and a
// bridge.Transport that broadcasts to them.
type Server struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	receiver bridge.Receiver
	sessions map[string]*session
	onJoin   func(id string)
}

type session struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithCheckOrigin replaces the origin check. The default accepts every
// origin, since the renderer is a local process.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(s *Server) { s.upgrader.CheckOrigin = fn }
}

// WithJoinHook is called with the session id after each handshake.
func WithJoinHook(fn func(id string)) Option {
	return func(s *Server) { s.onJoin = fn }
}

// NewServer creates a server delivering inbound events to r. r may be nil
// and set later with SetReceiver.
func NewServer(r bridge.Receiver, opts ...Option) *Server {
	s := &Server{
		logger:   slog.Default(),
		receiver: r,
		sessions: make(map[string]*session),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(*http.Request) bool { return true },
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetReceiver sets where inbound renderer events go.
func (s *Server) SetReceiver(r bridge.Receiver) {
	s.mu.Lock()
	s.receiver = r
	s.mu.Unlock()
}

// Sessions returns the ids of the connected renderers.
func (s *Server) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Compatible reports whether a renderer speaking version can connect.
func Compatible(version string) bool {
	if !semver.IsValid(version) {
		return false
	}
	return semver.Major(version) == semver.Major(ProtocolVersion) &&
		semver.Compare(version, ProtocolVersion) >= 0
}

// ServeHTTP upgrades the connection, runs the handshake and reads renderer
// events until the connection closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer conn.Close()

	sess, err := s.handshake(conn)
	if err != nil {
		s.logger.Warn("renderer handshake failed", "error", err)
		return
	}
	defer s.remove(sess.id)

	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			s.logger.Info("renderer disconnected", "session", sess.id, "error", err.Error())
			return
		}
		if f.Type != FrameEvent || f.Event == "" {
			s.logger.Debug("ignoring frame", "session", sess.id, "type", f.Type)
			continue
		}
		s.mu.RLock()
		recv := s.receiver
		s.mu.RUnlock()
		if recv != nil {
			recv.HandleMessage(f.Event, f.Payload)
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) (*session, error) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	var hello Frame
	if err := conn.ReadJSON(&hello); err != nil {
		return nil, err
	}
	_ = conn.SetReadDeadline(time.Time{})

	if hello.Type != FrameHello {
		err := fmt.Errorf("expected %s frame, got %q", FrameHello, hello.Type)
		_ = conn.WriteJSON(Frame{Type: FrameError, Error: err.Error()})
		return nil, err
	}
	if !Compatible(hello.Version) {
		err := fmt.Errorf("%w: renderer %q, server %s", ErrIncompatible, hello.Version, ProtocolVersion)
		_ = conn.WriteJSON(Frame{Type: FrameError, Version: ProtocolVersion, Error: err.Error()})
		return nil, err
	}

	// The welcome frame goes out before any broadcast reaches the session.
	sess := &session{id: uuid.New().String(), conn: conn}
	sess.writeMu.Lock()
	s.mu.Lock()
	s.sessions[sess.id] = sess
	onJoin := s.onJoin
	s.mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := conn.WriteJSON(Frame{Type: FrameWelcome, Version: ProtocolVersion, Session: sess.id})
	sess.writeMu.Unlock()
	if err != nil {
		s.remove(sess.id)
		return nil, err
	}

	s.logger.Info("renderer connected", "session", sess.id, "version", hello.Version)
	if onJoin != nil {
		onJoin(sess.id)
	}
	return sess, nil
}

func (s *Server) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (sess *session) write(ctx context.Context, f Frame) error {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = sess.conn.SetWriteDeadline(deadline)
	return sess.conn.WriteJSON(f)
}

// Send broadcasts an event frame to every connected renderer. With no
// renderer connected the message is dropped; the renderer receives the full
// tree after its ClientReady. Sessions that fail to write are closed.
func (s *Server) Send(ctx context.Context, event string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	f := Frame{Type: FrameEvent, Event: event}
	if len(payload) > 0 {
		f.Payload = payload
	}
	var errs []error
	for _, sess := range sessions {
		if err := sess.write(ctx, f); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", sess.id, err))
			s.remove(sess.id)
			sess.conn.Close()
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		evolveerrors.Report(evolveerrors.New("ws.Send", evolveerrors.KindTransport, err))
		return err
	}
	return nil
}

// Close disconnects every renderer.
func (s *Server) Close() error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.writeMu.Lock()
		_ = sess.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server closing"),
			time.Now().Add(time.Second))
		sess.writeMu.Unlock()
		sess.conn.Close()
	}
	return nil
}
