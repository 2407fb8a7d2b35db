// Package widgets is the public widget API. Every *Widget delegates to
// exactly one Backend, native or embedded, chosen by the Display's
// config.Registry when the widget is created and fixed for its lifetime.
//
// A Display owns one widget tree, one registry and one bridge. All widget
// mutation happens on the goroutine that created the Display; other
// goroutines hand work over with AsyncExec or SyncExec.
package widgets

import (
	"context"
	"log/slog"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-drift/evolve/pkg/bridge"
	"github.com/go-drift/evolve/pkg/config"
	evolveerrors "github.com/go-drift/evolve/pkg/errors"
	"github.com/go-drift/evolve/pkg/platform"
)

// NativeChannel prefixes the platform channel each display's native
// backends talk over. The full name, NativeChannel + "/" + sequence, is
// sent with every "create" call so the toolkit host can route events back.
const NativeChannel = "evolve/native"

var (
	displaySeq atomic.Int64
	// dispatchOwner is the live display registered as platform dispatcher.
	dispatchOwner atomic.Pointer[Display]
)

// Display is the context object for one widget tree.
type Display struct {
	registry *config.Registry
	bridge   *bridge.Bridge
	native   *platform.MethodChannel
	logger   *slog.Logger
	owner    int64
	// dispatch is set when the display registered itself as the platform
	// dispatcher; native events then travel through platform.Dispatch.
	dispatch bool

	nextID  atomic.Int64
	widgets map[int64]*Widget
	roots   []*Widget

	queueMu sync.Mutex
	queue   []func()
	wake    chan struct{}

	disposed atomic.Bool
}

// DisplayOption configures a Display.
type DisplayOption func(*displayOptions)

type displayOptions struct {
	registry         *config.Registry
	transport        bridge.Transport
	bridgeOpts       []bridge.Option
	logger           *slog.Logger
	platformDispatch bool
}

// WithRegistry uses r instead of a fresh registry.
func WithRegistry(r *config.Registry) DisplayOption {
	return func(o *displayOptions) { o.registry = r }
}

// WithTransport sets the transport the bridge flushes to.
func WithTransport(t bridge.Transport) DisplayOption {
	return func(o *displayOptions) { o.transport = t }
}

// WithBridgeOptions passes extra options to the bridge.
func WithBridgeOptions(opts ...bridge.Option) DisplayOption {
	return func(o *displayOptions) { o.bridgeOpts = append(o.bridgeOpts, opts...) }
}

// WithLogger sets the logger used by the display and its bridge.
func WithLogger(l *slog.Logger) DisplayOption {
	return func(o *displayOptions) { o.logger = l }
}

// WithPlatformDispatch registers the display's AsyncExec as the platform
// dispatch function, so native callbacks land on the UI goroutine. Only one
// live display may hold the registration; it is released by Dispose.
func WithPlatformDispatch() DisplayOption {
	return func(o *displayOptions) { o.platformDispatch = true }
}

// NewDisplay creates a display owned by the calling goroutine.
func NewDisplay(opts ...DisplayOption) (*Display, error) {
	const op = "widgets.NewDisplay"
	o := displayOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = config.NewRegistry()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	d := &Display{
		registry: o.registry,
		logger:   o.logger,
		owner:    goroutineID(),
		dispatch: o.platformDispatch,
		widgets:  make(map[int64]*Widget),
		wake:     make(chan struct{}, 1),
	}
	bridgeOpts := append([]bridge.Option{
		bridge.WithLogger(o.logger),
		bridge.WithDispatcher(d.AsyncExec),
		bridge.WithRoots(d.embeddedRoots),
	}, o.bridgeOpts...)
	d.bridge = bridge.New(o.transport, bridgeOpts...)
	d.bridge.Tracker().OnNeedsFlush = d.signal

	if o.platformDispatch {
		if !dispatchOwner.CompareAndSwap(nil, d) {
			return nil, evolveerrors.Errorf(op, evolveerrors.KindInvalidArgument,
				"platform dispatch is held by another display")
		}
		platform.RegisterDispatch(d.AsyncExec)
	}

	native, err := platform.NewMethodChannel(NativeChannel + "/" + strconv.FormatInt(displaySeq.Add(1), 10))
	if err != nil {
		d.releaseDispatch()
		return nil, evolveerrors.New(op, evolveerrors.KindTransport, err)
	}
	d.native = native
	d.native.SetHandler(d.handleNativeCall)
	return d, nil
}

// NativeChannel returns the name of the display's native channel.
func (d *Display) NativeChannel() string {
	return d.native.Name()
}

func (d *Display) releaseDispatch() {
	if d.dispatch && dispatchOwner.CompareAndSwap(d, nil) {
		platform.RegisterDispatch(nil)
	}
}

// Registry returns the display's capability registry.
func (d *Display) Registry() *config.Registry {
	return d.registry
}

// Bridge returns the display's embedded-renderer bridge.
func (d *Display) Bridge() *bridge.Bridge {
	return d.bridge
}

// Logger returns the display's logger.
func (d *Display) Logger() *slog.Logger {
	return d.logger
}

// IsUIThread reports whether the caller is the display's owning goroutine.
func (d *Display) IsUIThread() bool {
	return goroutineID() == d.owner
}

// CheckThread returns a wrong-thread error off the UI goroutine.
func (d *Display) CheckThread() error {
	if !d.IsUIThread() {
		return evolveerrors.New("widgets.CheckThread", evolveerrors.KindWrongThread, nil)
	}
	return nil
}

// AsyncExec queues fn to run on the UI goroutine and returns immediately.
// It is safe to call from any goroutine.
func (d *Display) AsyncExec(fn func()) {
	if fn == nil {
		return
	}
	d.queueMu.Lock()
	d.queue = append(d.queue, fn)
	d.queueMu.Unlock()
	d.signal()
}

// SyncExec runs fn on the UI goroutine and waits for it. Called on the UI
// goroutine it runs fn directly. It returns ctx.Err() if ctx ends first;
// fn may still run later in that case.
func (d *Display) SyncExec(ctx context.Context, fn func()) error {
	if d.IsUIThread() {
		fn()
		return nil
	}
	done := make(chan struct{})
	d.AsyncExec(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadAndDispatch runs at most one queued runnable. It reports whether one
// ran. Off the UI goroutine it does nothing and returns false.
func (d *Display) ReadAndDispatch() bool {
	if !d.IsUIThread() {
		return false
	}
	d.queueMu.Lock()
	if len(d.queue) == 0 {
		d.queueMu.Unlock()
		return false
	}
	fn := d.queue[0]
	d.queue = d.queue[1:]
	d.queueMu.Unlock()
	d.run(fn)
	return true
}

// RunPending drains the queue, including runnables queued while draining,
// and reports how many ran.
func (d *Display) RunPending() (int, error) {
	if err := d.CheckThread(); err != nil {
		return 0, err
	}
	ran := 0
	for {
		d.queueMu.Lock()
		pending := d.queue
		d.queue = nil
		d.queueMu.Unlock()
		if len(pending) == 0 {
			return ran, nil
		}
		for _, fn := range pending {
			d.run(fn)
			ran++
		}
	}
}

func (d *Display) run(fn func()) {
	defer evolveerrors.Recover("widgets.RunPending")
	fn()
}

func (d *Display) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Wake returns a channel that receives when runnables are queued or the
// tracker goes from clean to dirty.
func (d *Display) Wake() <-chan struct{} {
	return d.wake
}

// Flush sends dirty embedded state to the renderer.
func (d *Display) Flush(ctx context.Context) (int, error) {
	if err := d.CheckThread(); err != nil {
		return 0, err
	}
	return d.bridge.Flush(ctx)
}

// Run is the UI loop: it drains queued runnables and flushes until ctx is
// done. It must be called on the UI goroutine.
func (d *Display) Run(ctx context.Context) error {
	if err := d.CheckThread(); err != nil {
		return err
	}
	for {
		if _, err := d.RunPending(); err != nil {
			return err
		}
		if _, err := d.bridge.Flush(ctx); err != nil {
			d.logger.Warn("flush failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.wake:
		}
	}
}

// Roots returns the top-level widgets in creation order.
func (d *Display) Roots() []*Widget {
	return slices.Clone(d.roots)
}

// Find returns the live widget with the given id.
func (d *Display) Find(id int64) (*Widget, bool) {
	w, ok := d.widgets[id]
	return w, ok
}

// Len returns the number of live widgets.
func (d *Display) Len() int {
	return len(d.widgets)
}

// Dispose disposes every root. The display cannot be used afterwards.
func (d *Display) Dispose() error {
	if err := d.CheckThread(); err != nil {
		return err
	}
	for _, w := range slices.Clone(d.roots) {
		if err := w.Dispose(); err != nil {
			return err
		}
	}
	d.native.Close()
	d.releaseDispatch()
	d.disposed.Store(true)
	return nil
}

// IsDisposed reports whether Dispose has been called.
func (d *Display) IsDisposed() bool {
	return d.disposed.Load()
}

func (d *Display) register(w *Widget) {
	d.widgets[w.id] = w
	if w.parent == nil {
		d.roots = append(d.roots, w)
	}
}

func (d *Display) unregister(w *Widget) {
	delete(d.widgets, w.id)
	if i := slices.Index(d.roots, w); i >= 0 {
		d.roots = slices.Delete(d.roots, i, i+1)
	}
}

// embeddedRoots returns every embedded widget whose parent is not embedded.
// These are the documents the renderer needs after ClientReady.
func (d *Display) embeddedRoots() []bridge.Node {
	var out []bridge.Node
	var walk func(w *Widget)
	walk = func(w *Widget) {
		if eb, ok := w.backend.(*EmbeddedBackend); ok && eb.ParentNode() == nil {
			out = append(out, eb)
		}
		for _, c := range w.children {
			walk(c)
		}
	}
	for _, r := range d.roots {
		walk(r)
	}
	return out
}

// handleNativeCall receives events from the native toolkit:
// method "event" with {"id", "type", "payload"}.
func (d *Display) handleNativeCall(method string, args any) (any, error) {
	if method != "event" {
		return nil, platform.ErrMethodNotFound
	}
	m, _ := args.(map[string]any)
	idValue, _ := m["id"].(float64)
	eventType, _ := m["type"].(string)
	if eventType == "" {
		return nil, platform.NewChannelError("bad_event", "missing event type")
	}
	payload, _ := platform.DefaultCodec.Encode(m["payload"])
	id := int64(idValue)
	deliver := func() {
		if w, ok := d.Find(id); ok {
			w.Notify(eventType, payload)
		}
	}
	if d.dispatch && platform.Dispatch(deliver) {
		return nil, nil
	}
	d.AsyncExec(deliver)
	return nil, nil
}

// goroutineID parses the current goroutine's id from its stack header
// ("goroutine 18 [running]:").
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	id, _ := strconv.ParseInt(s, 10, 64)
	return id
}
