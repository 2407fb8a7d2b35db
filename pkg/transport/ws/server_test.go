package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) HandleMessage(event string, payload []byte) {
	r.mu.Lock()
	r.events = append(r.events, event+" "+string(payload))
	r.mu.Unlock()
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func connect(t *testing.T, srv *httptest.Server, version string) (*websocket.Conn, Frame) {
	t.Helper()
	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(Frame{Type: FrameHello, Version: version}))
	var reply Frame
	require.NoError(t, conn.ReadJSON(&reply))
	return conn, reply
}

func TestCompatible(t *testing.T) {
	assert.True(t, Compatible("v1.0.0"))
	assert.True(t, Compatible("v1.3.2"))
	assert.False(t, Compatible("v0.9.0"))
	assert.False(t, Compatible("v2.0.0"))
	assert.False(t, Compatible("1.0.0"))
	assert.False(t, Compatible(""))
}

func TestHandshakeAndEvents(t *testing.T) {
	rec := &recorder{}
	joined := make(chan string, 1)
	s := NewServer(rec, WithJoinHook(func(id string) { joined <- id }))
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn, welcome := connect(t, srv, "v1.2.0")
	assert.Equal(t, FrameWelcome, welcome.Type)
	assert.Equal(t, ProtocolVersion, welcome.Version)
	require.NotEmpty(t, welcome.Session)
	assert.Equal(t, welcome.Session, <-joined)
	assert.Equal(t, []string{welcome.Session}, s.Sessions())

	require.NoError(t, conn.WriteJSON(Frame{Type: FrameEvent, Event: "Button/4/Selection", Payload: []byte(`{"x":1}`)}))
	require.NoError(t, conn.WriteJSON(Frame{Type: "noise"}))
	require.NoError(t, conn.WriteJSON(Frame{Type: FrameEvent, Event: "Shell/1/ClientReady"}))
	require.Eventually(t, func() bool { return len(rec.Events()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{`Button/4/Selection {"x":1}`, "Shell/1/ClientReady "}, rec.Events())

	require.NoError(t, s.Send(context.Background(), "Shell/1", []byte(`{"id":1,"kind":"Shell"}`)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, FrameEvent, f.Type)
	assert.Equal(t, "Shell/1", f.Event)
	assert.JSONEq(t, `{"id":1,"kind":"Shell"}`, string(f.Payload))
}

func TestHandshakeRejectsIncompatibleRenderer(t *testing.T) {
	s := NewServer(nil)
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn, reply := connect(t, srv, "v2.0.0")
	assert.Equal(t, FrameError, reply.Type)
	assert.Contains(t, reply.Error, ErrIncompatible.Error())
	assert.Empty(t, s.Sessions())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "server closes the connection")
}

func TestHandshakeRequiresHello(t *testing.T) {
	s := NewServer(nil)
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(Frame{Type: FrameEvent, Event: "Shell/1"}))
	var reply Frame
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, FrameError, reply.Type)
}

func TestSendWithoutSessionsIsDropped(t *testing.T) {
	s := NewServer(nil)
	assert.NoError(t, s.Send(context.Background(), "Shell/1", nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, "Shell/1", nil), context.Canceled)
}

func TestCloseDisconnectsRenderers(t *testing.T) {
	s := NewServer(nil)
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn, _ := connect(t, srv, ProtocolVersion)
	require.Eventually(t, func() bool { return len(s.Sessions()) == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, s.Close())
	assert.Empty(t, s.Sessions())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
