package widgets

import (
	"github.com/go-drift/evolve/pkg/config"
	evolveerrors "github.com/go-drift/evolve/pkg/errors"
)

// Create makes a widget of class inside parent. The display's registry
// picks the backend; the widget is appended to parent's children and, when
// embedded, marked dirty together with its parent.
//
// Errors: nil parent or abstract class (invalid argument), disposed parent
// (invalid argument, also matching ErrDisposed), non-composite parent or a parent of the wrong class (invalid
// argument), class with no implementation on the resolved backend
// (unsupported).
func Create(class *Class, parent *Widget, style Style) (*Widget, error) {
	const op = "widgets.Create"
	if parent == nil {
		return nil, evolveerrors.Errorf(op, evolveerrors.KindInvalidArgument, "parent is nil")
	}
	if parent.disposed {
		return nil, disposedArgument(op, parent)
	}
	if err := parent.check(op); err != nil {
		return nil, err
	}
	if !parent.class.composite {
		return nil, evolveerrors.Errorf(op, evolveerrors.KindInvalidArgument, "%s cannot hold children", parent)
	}
	return parent.display.create(op, class, parent, style)
}

// NewShell creates a top-level shell.
func (d *Display) NewShell(style Style) (*Widget, error) {
	const op = "widgets.NewShell"
	if err := d.CheckThread(); err != nil {
		return nil, err
	}
	if d.IsDisposed() {
		return nil, evolveerrors.New(op, evolveerrors.KindDisposed, nil)
	}
	return d.create(op, ShellClass, nil, style)
}

func (d *Display) create(op string, class *Class, parent *Widget, style Style) (*Widget, error) {
	if class == nil {
		return nil, evolveerrors.Errorf(op, evolveerrors.KindInvalidArgument, "class is nil")
	}
	if class.abstract {
		return nil, evolveerrors.Errorf(op, evolveerrors.KindInvalidArgument, "%s is abstract", class.name)
	}
	if class.parent != nil && (parent == nil || !parent.class.Extends(class.parent)) {
		return nil, evolveerrors.Errorf(op, evolveerrors.KindInvalidArgument, "%s needs a %s parent", class.name, class.parent.name)
	}

	ctx := config.Context{}
	if parent != nil {
		ctx.Path = config.InstancePath(parent.path, class.name, len(parent.children))
		ctx.HasParent = true
		ctx.ParentVariant = parent.Variant()
	} else {
		ctx.Path = config.InstancePath("", class.name, -1)
	}
	variant := d.registry.ResolveFor(class, ctx)
	if !class.Supports(variant) {
		return nil, evolveerrors.Errorf(op, evolveerrors.KindUnsupported, "%s has no %s implementation", class.name, variant)
	}

	w := &Widget{
		display: d,
		class:   class,
		id:      d.nextID.Add(1),
		style:   style,
		path:    ctx.Path,
		parent:  parent,
	}
	switch variant {
	case config.Embedded:
		w.backend = &EmbeddedBackend{baseBackend: baseBackend{handle: w}, bridge: d.bridge}
	default:
		w.backend = &NativeBackend{baseBackend: baseBackend{handle: w}, channel: d.native}
	}
	if parent != nil {
		parent.children = append(parent.children, w)
	}
	d.register(w)
	w.backend.created()

	d.logger.Debug("widget created", "widget", w.String(), "variant", variant.String(), "path", w.path)
	return w, nil
}
