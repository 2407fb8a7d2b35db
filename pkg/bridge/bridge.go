package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-drift/evolve/pkg/config"
	evolveerrors "github.com/go-drift/evolve/pkg/errors"
)

// ClientReady is the event type the renderer sends once it can accept
// documents, either bare or as "Kind/id/ClientReady".
const ClientReady = "ClientReady"

// Handler receives an inbound renderer event.
type Handler func(Event)

// Bridge runs the flush cycle and routes inbound renderer events.
type Bridge struct {
	tracker  *Tracker
	logger   *slog.Logger
	dispatch func(func())
	roots    func() []Node
	gated    bool

	mu        sync.RWMutex
	transport Transport
	flags     config.Flags
	ready     bool
	handlers  map[string][]*handlerEntry
}

type handlerEntry struct {
	fn Handler
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// WithDispatcher sets the function used to run inbound handlers on the UI
// goroutine. Without one, handlers run on the caller of HandleMessage.
func WithDispatcher(fn func(func())) Option {
	return func(b *Bridge) { b.dispatch = fn }
}

// WithRoots supplies the live embedded roots re-marked dirty on ClientReady.
func WithRoots(fn func() []Node) Option {
	return func(b *Bridge) { b.roots = fn }
}

// WithFlags sets the feature flags pushed on ClientReady.
func WithFlags(f config.Flags) Option {
	return func(b *Bridge) { b.flags = f.Clone() }
}

// WaitForClientReady holds flushes until the renderer reports ready. Dirty
// nodes accumulate in the meantime.
func WaitForClientReady() Option {
	return func(b *Bridge) { b.gated = true }
}

// New creates a bridge sending over transport. transport may be nil and
// attached later with SetTransport.
func New(transport Transport, opts ...Option) *Bridge {
	b := &Bridge{
		tracker:   NewTracker(),
		logger:    slog.Default(),
		transport: transport,
		handlers:  make(map[string][]*handlerEntry),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Tracker returns the dirty tracker.
func (b *Bridge) Tracker() *Tracker {
	return b.tracker
}

// MarkDirty marks n for the next flush.
func (b *Bridge) MarkDirty(n Node) {
	b.tracker.MarkDirty(n)
}

// SetTransport replaces the transport.
func (b *Bridge) SetTransport(t Transport) {
	b.mu.Lock()
	b.transport = t
	b.mu.Unlock()
}

// SetRoots replaces the roots provider.
func (b *Bridge) SetRoots(fn func() []Node) {
	b.mu.Lock()
	b.roots = fn
	b.mu.Unlock()
}

// SetFlags replaces the feature flags. They take effect on the next
// ClientReady.
func (b *Bridge) SetFlags(f config.Flags) {
	b.mu.Lock()
	b.flags = f.Clone()
	b.mu.Unlock()
}

// Flags returns the current feature flags.
func (b *Bridge) Flags() config.Flags {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.flags.Clone()
}

// Ready reports whether the renderer has sent ClientReady.
func (b *Bridge) Ready() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ready
}

// Flush sends one document per dirty root. The dirty set is taken and
// cleared first, so marks made while sending land in the next flush.
// Failures on one root do not stop the others; all are returned joined.
// It reports how many documents were sent.
func (b *Bridge) Flush(ctx context.Context) (int, error) {
	b.mu.RLock()
	transport := b.transport
	held := b.gated && !b.ready
	b.mu.RUnlock()

	if held || b.tracker.Len() == 0 {
		return 0, nil
	}
	if transport == nil {
		return 0, evolveerrors.Errorf("bridge.Flush", evolveerrors.KindTransport, "no transport attached")
	}

	start := time.Now()
	dirty := b.tracker.SnapshotAndClear()
	roots := FilterDirtyAncestors(dirty)
	nodesCoalesced.Add(float64(len(dirty) - len(roots)))

	var errs []error
	sent := 0
	for _, n := range roots {
		// Serialize reports a root disposed after the snapshot as KindDisposed.
		doc, err := Serialize(n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		payload, err := json.Marshal(doc)
		if err != nil {
			errs = append(errs, evolveerrors.NewWidget("bridge.Flush", evolveerrors.KindUnknown, NodeEvent(n), err))
			continue
		}
		event := NodeEvent(n)
		if err := transport.Send(ctx, event, payload); err != nil {
			errs = append(errs, evolveerrors.NewWidget("bridge.Flush", evolveerrors.KindTransport, event, err))
			continue
		}
		sent++
	}

	documentsSent.Add(float64(sent))
	flushDuration.Observe(time.Since(start).Seconds())
	if len(errs) > 0 {
		flushTotal.WithLabelValues("error").Inc()
	} else {
		flushTotal.WithLabelValues("ok").Inc()
	}
	b.logger.Debug("flush", "dirty", len(dirty), "roots", len(roots), "sent", sent)
	return sent, errors.Join(errs...)
}

// On registers a handler for an exact event name ("Button/12/Selection").
// The returned function removes it.
func (b *Bridge) On(event string, h Handler) (remove func()) {
	entry := &handlerEntry{fn: h}
	b.mu.Lock()
	b.handlers[event] = append(b.handlers[event], entry)
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.handlers[event]
		for i, e := range list {
			if e == entry {
				b.handlers[event] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(b.handlers[event]) == 0 {
			delete(b.handlers, event)
		}
	}
}

// HandleMessage accepts an inbound renderer event from a transport. Work is
// handed to the dispatcher so handlers run on the UI goroutine.
func (b *Bridge) HandleMessage(event string, payload []byte) {
	ev, _ := ParseEvent(event)
	ev.Payload = payload
	if ev.Type == "" && event == ClientReady {
		ev.Type = ClientReady
	}
	label := ev.Type
	if label == "" {
		label = "other"
	}
	inboundEvents.WithLabelValues(label).Inc()

	run := func() {
		defer evolveerrors.Recover("bridge.HandleMessage")
		b.deliver(ev)
	}
	if b.dispatch != nil {
		b.dispatch(run)
		return
	}
	run()
}

func (b *Bridge) deliver(ev Event) {
	if ev.Type == ClientReady || strings.HasSuffix(ev.Name, "/"+ClientReady) {
		b.clientReady()
	}
	b.mu.RLock()
	entries := append([]*handlerEntry(nil), b.handlers[ev.Name]...)
	b.mu.RUnlock()
	for _, e := range entries {
		e.fn(ev)
	}
}

// clientReady sends the feature flags and re-marks every live root so the
// renderer receives a full tree.
func (b *Bridge) clientReady() {
	b.mu.Lock()
	first := !b.ready
	b.ready = true
	transport := b.transport
	flags := b.flags.Clone()
	roots := b.roots
	b.mu.Unlock()

	if transport != nil {
		payload, err := json.Marshal(flags)
		if err == nil {
			err = transport.Send(context.Background(), config.FlagsEvent, payload)
		}
		if err != nil {
			evolveerrors.Report(evolveerrors.New("bridge.ClientReady", evolveerrors.KindTransport, err))
		}
	}
	if roots != nil {
		for _, n := range roots() {
			if !n.IsDisposed() {
				b.tracker.MarkDirty(n)
			}
		}
	}
	b.logger.Info("renderer ready", "first", first, "dirty", b.tracker.Len())
}
