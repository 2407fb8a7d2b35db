package widgets

import (
	"errors"

	"github.com/go-drift/evolve/pkg/bridge"
	"github.com/go-drift/evolve/pkg/config"
	evolveerrors "github.com/go-drift/evolve/pkg/errors"
	"github.com/go-drift/evolve/pkg/platform"
)

// Backend is the implementation a Widget delegates to. There are two
// variants, *NativeBackend and *EmbeddedBackend; the set is closed.
type Backend interface {
	// Variant reports which implementation this is.
	Variant() config.Variant
	// Widget returns the owning handle.
	Widget() *Widget
	// Value returns the current value of a schema property, or its default.
	Value(name string) any

	created()
	propertyChanged(name string, value any)
	childrenChanged()
	reparented(oldParent, newParent *Widget)
	disposed()
}

// baseBackend holds the property values shared by both variants.
type baseBackend struct {
	handle *Widget
	values map[string]any
}

func (b *baseBackend) Widget() *Widget { return b.handle }

func (b *baseBackend) Value(name string) any {
	if v, ok := b.values[name]; ok {
		return v
	}
	if p, ok := b.handle.class.Property(name); ok {
		return p.Default
	}
	return nil
}

// store records value and reports whether it differs from the previous one.
func (b *baseBackend) store(name string, value any) bool {
	if bridge.Equal(b.Value(name), value) {
		return false
	}
	if b.values == nil {
		b.values = make(map[string]any)
	}
	b.values[name] = value
	return true
}

// NativeBackend forwards every operation to the native toolkit over the
// native platform channel.
type NativeBackend struct {
	baseBackend
	channel *platform.MethodChannel
}

func (b *NativeBackend) Variant() config.Variant { return config.Native }

func (b *NativeBackend) invoke(method string, args map[string]any) {
	args["id"] = b.handle.id
	if _, err := b.channel.Invoke(method, args); err != nil {
		if errors.Is(err, platform.ErrPlatformUnavailable) {
			b.handle.display.logger.Debug("native call dropped", "method", method, "widget", b.handle.String())
			return
		}
		evolveerrors.Report(evolveerrors.NewWidget("widgets.native."+method, evolveerrors.KindTransport, b.handle.String(), err))
	}
}

func (b *NativeBackend) created() {
	var parent int64
	if p := b.handle.parent; p != nil {
		parent = p.id
	}
	b.invoke("create", map[string]any{
		"class":   b.handle.class.name,
		"parent":  parent,
		"style":   int(b.handle.style),
		"path":    b.handle.path,
		"channel": b.channel.Name(),
	})
}

func (b *NativeBackend) propertyChanged(name string, value any) {
	b.invoke("set", map[string]any{"property": name, "value": value})
}

func (b *NativeBackend) childrenChanged() {
	ids := make([]int64, len(b.handle.children))
	for i, c := range b.handle.children {
		ids[i] = c.id
	}
	b.invoke("order", map[string]any{"children": ids})
}

func (b *NativeBackend) reparented(_, newParent *Widget) {
	b.invoke("reparent", map[string]any{"parent": newParent.id})
}

func (b *NativeBackend) disposed() {
	b.invoke("dispose", map[string]any{})
}

// EmbeddedBackend keeps state in process and reports changes to the
// display's bridge. It is the bridge.Node for its widget.
type EmbeddedBackend struct {
	baseBackend
	bridge *bridge.Bridge
}

var _ bridge.Node = (*EmbeddedBackend)(nil)

func (b *EmbeddedBackend) Variant() config.Variant { return config.Embedded }

func (b *EmbeddedBackend) NodeID() int64 { return b.handle.id }

func (b *EmbeddedBackend) Kind() string { return b.handle.class.name }

// ParentNode returns the parent's embedded backend. A widget whose parent
// is native is an embedded root.
func (b *EmbeddedBackend) ParentNode() bridge.Node {
	if p := b.handle.parent; p != nil {
		if eb, ok := p.backend.(*EmbeddedBackend); ok {
			return eb
		}
	}
	return nil
}

func (b *EmbeddedBackend) IsComposite() bool { return b.handle.class.composite }

// ChildNodes returns the embedded children in list order. Native children
// of an embedded composite are not part of its document.
func (b *EmbeddedBackend) ChildNodes() []bridge.Node {
	var out []bridge.Node
	for _, c := range b.handle.children {
		if eb, ok := c.backend.(*EmbeddedBackend); ok {
			out = append(out, eb)
		}
	}
	return out
}

func (b *EmbeddedBackend) Fields() []bridge.Field {
	schema := b.handle.class.Schema()
	fields := make([]bridge.Field, len(schema))
	for i, p := range schema {
		fields[i] = bridge.Field{Name: p.Name, Value: b.Value(p.Name), Default: p.Default}
	}
	return fields
}

func (b *EmbeddedBackend) IsDisposed() bool { return b.handle.disposed }

func (b *EmbeddedBackend) created() {
	b.bridge.MarkDirty(b)
	markDirty(b.handle.parent)
}

func (b *EmbeddedBackend) propertyChanged(string, any) {
	b.bridge.MarkDirty(b)
}

func (b *EmbeddedBackend) childrenChanged() {
	b.bridge.MarkDirty(b)
}

func (b *EmbeddedBackend) reparented(oldParent, newParent *Widget) {
	b.bridge.MarkDirty(b)
}

func (b *EmbeddedBackend) disposed() {
	b.bridge.Tracker().ClearDirty(b)
}

// markDirty marks w's node dirty when w is embedded. Native widgets have
// nothing to flush.
func markDirty(w *Widget) {
	if w == nil || w.disposed {
		return
	}
	if eb, ok := w.backend.(*EmbeddedBackend); ok {
		eb.bridge.MarkDirty(eb)
	}
}
