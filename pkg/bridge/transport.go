package bridge

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/go-drift/evolve/pkg/platform"
)

// Transport delivers serialized documents and flags to the renderer.
type Transport interface {
	Send(ctx context.Context, event string, payload []byte) error
}

// Receiver accepts inbound renderer events. *Bridge implements it.
type Receiver interface {
	HandleMessage(event string, payload []byte)
}

// Message is one recorded send.
type Message struct {
	Event   string
	Payload []byte
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// MemoryTransport records every send. It is used by tests and by the demo
// command.
type MemoryTransport struct {
	mu       sync.Mutex
	messages []Message
	// Err, when set, is returned from every Send.
	Err error
}

// NewMemoryTransport creates an empty recording transport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{}
}

// Send records the message.
func (t *MemoryTransport) Send(ctx context.Context, event string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return t.Err
	}
	t.messages = append(t.messages, Message{Event: event, Payload: slices.Clone(payload)})
	return nil
}

// Messages returns a copy of the recorded messages.
func (t *MemoryTransport) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.messages)
}

// Events returns the recorded event names in send order.
func (t *MemoryTransport) Events() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	events := make([]string, len(t.messages))
	for i, m := range t.messages {
		events[i] = m.Event
	}
	return events
}

// Reset clears the recorded messages.
func (t *MemoryTransport) Reset() {
	t.mu.Lock()
	t.messages = nil
	t.mu.Unlock()
}

// RendererChannel is the platform channel used by ChannelTransport.
const RendererChannel = "evolve/renderer"

// ChannelTransport sends over a platform MethodChannel, for hosts where the
// renderer is linked into the process behind a NativeBridge.
//
// Outbound messages invoke method "send" with {"event", "payload"}. The
// native side delivers renderer events by calling method "event" with the
// same shape.
type ChannelTransport struct {
	channel *platform.MethodChannel
}

// NewChannelTransport registers the renderer channel and routes inbound
// "event" calls to r. Only one transport holds RendererChannel at a time;
// a second fails with platform.ErrChannelInUse until the first is closed.
func NewChannelTransport(r Receiver) (*ChannelTransport, error) {
	ch, err := platform.NewMethodChannel(RendererChannel)
	if err != nil {
		return nil, err
	}
	ch.SetHandler(func(method string, args any) (any, error) {
		if method != "event" {
			return nil, platform.ErrMethodNotFound
		}
		m, _ := args.(map[string]any)
		event, _ := m["event"].(string)
		if event == "" {
			return nil, platform.NewChannelError("bad_event", "missing event name")
		}
		var payload []byte
		if raw, ok := m["payload"]; ok && raw != nil {
			b, err := json.Marshal(raw)
			if err != nil {
				return nil, err
			}
			payload = b
		}
		if r != nil {
			r.HandleMessage(event, payload)
		}
		return nil, nil
	})
	return &ChannelTransport{channel: ch}, nil
}

// Close releases RendererChannel.
func (t *ChannelTransport) Close() {
	t.channel.Close()
}

// Send implements Transport.
func (t *ChannelTransport) Send(ctx context.Context, event string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var raw json.RawMessage
	if len(payload) > 0 {
		raw = payload
	}
	_, err := t.channel.Invoke("send", map[string]any{
		"event":   event,
		"payload": raw,
	})
	return err
}
