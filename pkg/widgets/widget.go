package widgets

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/go-drift/evolve/pkg/bridge"
	"github.com/go-drift/evolve/pkg/config"
	evolveerrors "github.com/go-drift/evolve/pkg/errors"
	"github.com/go-drift/evolve/pkg/graphics"
)

// Widget is the public handle for one widget. Its backend is chosen when
// the widget is created and never changes.
type Widget struct {
	display *Display
	class   *Class
	id      int64
	style   Style
	path    string
	backend Backend

	parent   *Widget
	children []*Widget
	disposed bool

	listeners map[string][]*listenerEntry
}

// Event is delivered to listeners.
type Event struct {
	Type    string
	Widget  *Widget
	Payload []byte
}

// Listener handles a widget event.
type Listener func(Event)

type listenerEntry struct {
	fn     Listener
	remove func()
}

// ID returns the widget's unique id within its display.
func (w *Widget) ID() int64 { return w.id }

// Class returns the widget's class.
func (w *Widget) Class() *Class { return w.class }

// Style returns the construction style bits.
func (w *Widget) Style() Style { return w.style }

// Path returns the instance path the widget was created at.
func (w *Widget) Path() string { return w.path }

// Display returns the owning display.
func (w *Widget) Display() *Display { return w.display }

// Backend returns the widget's backend.
func (w *Widget) Backend() Backend { return w.backend }

// Variant returns the backend variant.
func (w *Widget) Variant() config.Variant { return w.backend.Variant() }

// Parent returns the parent, or nil for a root.
func (w *Widget) Parent() *Widget { return w.parent }

// Children returns a copy of the child list.
func (w *Widget) Children() []*Widget { return slices.Clone(w.children) }

// IsDisposed reports whether Dispose has run.
func (w *Widget) IsDisposed() bool { return w.disposed }

// String returns the widget's event name, "Kind/id".
func (w *Widget) String() string {
	return bridge.EventName(w.class.name, w.id)
}

func (w *Widget) check(op string) error {
	if w == nil {
		return evolveerrors.New(op, evolveerrors.KindInvalidArgument, nil)
	}
	if w.disposed {
		return evolveerrors.NewWidget(op, evolveerrors.KindDisposed, w.String(), nil)
	}
	if err := w.display.CheckThread(); err != nil {
		return evolveerrors.NewWidget(op, evolveerrors.KindWrongThread, w.String(), evolveerrors.ErrWrongThread)
	}
	return nil
}

// disposedArgument is the error for a disposed widget passed as an argument.
// It is an invalid argument that also matches ErrDisposed.
func disposedArgument(op string, arg *Widget) error {
	return evolveerrors.NewWidget(op, evolveerrors.KindInvalidArgument, arg.String(),
		fmt.Errorf("%w: %w", evolveerrors.ErrInvalidArgument, evolveerrors.ErrDisposed))
}

// Get returns a property value. Unknown properties are unsupported.
func (w *Widget) Get(name string) (any, error) {
	const op = "widgets.Get"
	if err := w.check(op); err != nil {
		return nil, err
	}
	if _, ok := w.class.Property(name); !ok {
		return nil, evolveerrors.Errorf(op, evolveerrors.KindUnsupported, "%s has no property %q", w.class.name, name)
	}
	return w.backend.Value(name), nil
}

// Set assigns a property. The value's type must match the property's
// declared type; nil clears pointer and slice properties to their default.
// Embedded widgets are marked dirty only when the value actually changes.
func (w *Widget) Set(name string, value any) error {
	const op = "widgets.Set"
	if err := w.check(op); err != nil {
		return err
	}
	prop, ok := w.class.Property(name)
	if !ok {
		return evolveerrors.Errorf(op, evolveerrors.KindUnsupported, "%s has no property %q", w.class.name, name)
	}
	if value == nil {
		switch prop.valueType().Kind() {
		case reflect.Pointer, reflect.Slice:
			value = prop.Default
		default:
			return evolveerrors.Errorf(op, evolveerrors.KindInvalidArgument, "%s.%s cannot be nil", w.class.name, name)
		}
	} else if reflect.TypeOf(value) != prop.valueType() {
		return evolveerrors.Errorf(op, evolveerrors.KindInvalidArgument,
			"%s.%s wants %s, got %T", w.class.name, name, prop.valueType(), value)
	}
	base := w.base()
	if !base.store(name, value) {
		return nil
	}
	w.backend.propertyChanged(name, value)
	return nil
}

func (w *Widget) base() *baseBackend {
	switch b := w.backend.(type) {
	case *NativeBackend:
		return &b.baseBackend
	case *EmbeddedBackend:
		return &b.baseBackend
	}
	panic("widgets: unknown backend")
}

func (w *Widget) value(name string) any {
	if w == nil || w.backend == nil {
		return nil
	}
	return w.backend.Value(name)
}

// Typed accessors. Getters return the zero value on a disposed widget or a
// class without the property; setters return the same errors as Set.

func (w *Widget) SetText(s string) error { return w.Set("text", s) }
func (w *Widget) Text() string          { s, _ := w.value("text").(string); return s }

func (w *Widget) SetEnabled(b bool) error { return w.Set("enabled", b) }
func (w *Widget) Enabled() bool           { b, _ := w.value("enabled").(bool); return b }

func (w *Widget) SetVisible(b bool) error { return w.Set("visible", b) }
func (w *Widget) Visible() bool           { b, _ := w.value("visible").(bool); return b }

func (w *Widget) SetToolTipText(s string) error { return w.Set("toolTipText", s) }

// SetBackground sets the background color; nil restores the default.
func (w *Widget) SetBackground(c *graphics.Color) error { return w.Set("background", copyColor(c)) }

// Background returns the background color, or nil for the default.
func (w *Widget) Background() *graphics.Color {
	c, _ := w.value("background").(*graphics.Color)
	return copyColor(c)
}

// SetForeground sets the foreground color; nil restores the default.
func (w *Widget) SetForeground(c *graphics.Color) error { return w.Set("foreground", copyColor(c)) }

func (w *Widget) SetBounds(r graphics.Rectangle) error { return w.Set("bounds", r) }
func (w *Widget) Bounds() graphics.Rectangle {
	r, _ := w.value("bounds").(graphics.Rectangle)
	return r
}

// SetFont sets the font; nil restores the default.
func (w *Widget) SetFont(f *graphics.FontData) error {
	if f != nil {
		cp := *f
		f = &cp
	}
	return w.Set("font", f)
}

// SetSelected sets a Button's selection state.
func (w *Widget) SetSelected(b bool) error { return w.Set("selection", b) }
func (w *Widget) Selected() bool           { b, _ := w.value("selection").(bool); return b }

func (w *Widget) SetGrayed(b bool) error           { return w.Set("grayed", b) }
func (w *Widget) SetAlignment(a Alignment) error   { return w.Set("alignment", a) }
func (w *Widget) SetMessage(s string) error        { return w.Set("message", s) }
func (w *Widget) SetEditable(b bool) error         { return w.Set("editable", b) }
func (w *Widget) SetTextLimit(n int) error         { return w.Set("textLimit", n) }
func (w *Widget) SetShowClose(b bool) error        { return w.Set("showClose", b) }
func (w *Widget) SetSelectionIndex(i int) error    { return w.Set("selectionIndex", i) }
func (w *Widget) SetMinimum(n int) error           { return w.Set("minimum", n) }
func (w *Widget) SetMaximum(n int) error           { return w.Set("maximum", n) }
func (w *Widget) SetItems(items []string) error    { return w.Set("items", slices.Clone(items)) }
func (w *Widget) SelectionIndex() int              { i, _ := w.value("selectionIndex").(int); return i }
func (w *Widget) Items() []string                  { s, _ := w.value("items").([]string); return slices.Clone(s) }

// SetProgress sets a ProgressBar's selection value.
func (w *Widget) SetProgress(n int) error { return w.Set("selection", n) }

func copyColor(c *graphics.Color) *graphics.Color {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// AddListener registers l for events of eventType ("Selection", "Dispose").
// Embedded widgets also receive the matching renderer event
// ("Button/12/Selection"). The returned function removes the listener.
func (w *Widget) AddListener(eventType string, l Listener) (remove func(), err error) {
	const op = "widgets.AddListener"
	if err := w.check(op); err != nil {
		return nil, err
	}
	if l == nil || eventType == "" {
		return nil, evolveerrors.New(op, evolveerrors.KindInvalidArgument, nil)
	}
	entry := &listenerEntry{fn: l}
	if eb, ok := w.backend.(*EmbeddedBackend); ok {
		entry.remove = eb.bridge.On(bridge.NodeEvent(eb, eventType), func(ev bridge.Event) {
			w.deliver(eventType, ev.Payload, entry)
		})
	}
	if w.listeners == nil {
		w.listeners = make(map[string][]*listenerEntry)
	}
	w.listeners[eventType] = append(w.listeners[eventType], entry)
	return func() { w.removeListener(eventType, entry) }, nil
}

func (w *Widget) removeListener(eventType string, entry *listenerEntry) {
	list := w.listeners[eventType]
	if i := slices.Index(list, entry); i >= 0 {
		w.listeners[eventType] = slices.Delete(list, i, i+1)
	}
	if entry.remove != nil {
		entry.remove()
		entry.remove = nil
	}
}

// Notify delivers an event to the widget's listeners on the calling
// goroutine. It is a no-op on a disposed widget.
func (w *Widget) Notify(eventType string, payload []byte) {
	if w.disposed {
		return
	}
	for _, entry := range slices.Clone(w.listeners[eventType]) {
		entry.fn(Event{Type: eventType, Widget: w, Payload: payload})
	}
}

func (w *Widget) deliver(eventType string, payload []byte, entry *listenerEntry) {
	if w.disposed {
		return
	}
	entry.fn(Event{Type: eventType, Widget: w, Payload: payload})
}

// Description is a read-only view of a widget subtree.
type Description struct {
	ID       int64          `json:"id"`
	Class    string         `json:"class"`
	Variant  string         `json:"variant"`
	Path     string         `json:"path"`
	Props    map[string]any `json:"props,omitempty"`
	Children []Description  `json:"children,omitempty"`
}

// Describe captures w and its subtree. Only non-default properties are
// included. It must be called on the UI goroutine.
func Describe(w *Widget) Description {
	d := Description{
		ID:      w.id,
		Class:   w.class.name,
		Variant: w.Variant().String(),
		Path:    w.path,
	}
	for _, p := range w.class.Schema() {
		v := w.backend.Value(p.Name)
		if bridge.Equal(v, p.Default) {
			continue
		}
		if d.Props == nil {
			d.Props = make(map[string]any)
		}
		d.Props[p.Name] = v
	}
	for _, c := range w.children {
		d.Children = append(d.Children, Describe(c))
	}
	return d
}
