package widgets

import (
	"slices"

	evolveerrors "github.com/go-drift/evolve/pkg/errors"
)

// SetParent moves w, with its subtree, to the end of newParent's children.
// The old parent's remaining children keep their order. w, the old parent
// and the new parent are marked dirty. On error the tree is unchanged.
//
// Moving to the current parent is a no-op.
func (w *Widget) SetParent(newParent *Widget) error {
	const op = "widgets.SetParent"
	if err := w.check(op); err != nil {
		return err
	}
	if newParent == nil {
		return evolveerrors.NewWidget(op, evolveerrors.KindInvalidArgument, w.String(), nil)
	}
	if newParent.disposed {
		return disposedArgument(op, newParent)
	}
	if newParent.display != w.display {
		return evolveerrors.Errorf(op, evolveerrors.KindInvalidArgument, "%s belongs to another display", newParent)
	}
	if w.parent == nil {
		return evolveerrors.Errorf(op, evolveerrors.KindInvalidArgument, "%s is a root", w)
	}
	if newParent == w.parent {
		return nil
	}
	for p := newParent; p != nil; p = p.parent {
		if p == w {
			return evolveerrors.NewWidget(op, evolveerrors.KindCycle, w.String(), nil)
		}
	}
	if !newParent.class.composite {
		return evolveerrors.Errorf(op, evolveerrors.KindInvalidArgument, "%s cannot hold children", newParent)
	}
	if w.class.parent != nil && !newParent.class.Extends(w.class.parent) {
		return evolveerrors.Errorf(op, evolveerrors.KindInvalidArgument, "%s needs a %s parent", w.class.name, w.class.parent.name)
	}

	oldParent := w.parent
	oldParent.children = slices.DeleteFunc(oldParent.children, func(c *Widget) bool { return c == w })
	newParent.children = append(newParent.children, w)
	w.parent = newParent

	w.backend.reparented(oldParent, newParent)
	markDirty(oldParent)
	markDirty(newParent)
	return nil
}

// MoveAbove moves w in front of sibling in its parent's child list. A nil
// sibling moves w to the front.
func (w *Widget) MoveAbove(sibling *Widget) error {
	return w.reorder("widgets.MoveAbove", sibling, true)
}

// MoveBelow moves w behind sibling in its parent's child list. A nil
// sibling moves w to the back.
func (w *Widget) MoveBelow(sibling *Widget) error {
	return w.reorder("widgets.MoveBelow", sibling, false)
}

func (w *Widget) reorder(op string, sibling *Widget, above bool) error {
	if err := w.check(op); err != nil {
		return err
	}
	parent := w.parent
	if parent == nil {
		return evolveerrors.Errorf(op, evolveerrors.KindInvalidArgument, "%s is a root", w)
	}
	if sibling != nil {
		if sibling.disposed {
			return disposedArgument(op, sibling)
		}
		if sibling.parent != parent {
			return evolveerrors.Errorf(op, evolveerrors.KindInvalidArgument, "%s is not a sibling of %s", sibling, w)
		}
		if sibling == w {
			return nil
		}
	}

	before := slices.Clone(parent.children)
	children := slices.DeleteFunc(parent.children, func(c *Widget) bool { return c == w })
	var at int
	switch {
	case sibling == nil && above:
		at = 0
	case sibling == nil:
		at = len(children)
	default:
		at = slices.Index(children, sibling)
		if !above {
			at++
		}
	}
	parent.children = slices.Insert(children, at, w)
	if slices.Equal(before, parent.children) {
		return nil
	}
	parent.backend.childrenChanged()
	return nil
}

// Dispose releases w and its subtree. Each widget's "Dispose" listeners run
// before its children are released; each is then dropped from the dirty set
// and its native peer, if any, is destroyed. w is removed from its parent's
// list and the parent is marked dirty. Disposing twice does nothing.
func (w *Widget) Dispose() error {
	const op = "widgets.Dispose"
	if w == nil {
		return evolveerrors.New(op, evolveerrors.KindInvalidArgument, nil)
	}
	if w.disposed {
		return nil
	}
	if err := w.display.CheckThread(); err != nil {
		return err
	}
	parent := w.parent
	w.release()
	if parent != nil {
		parent.children = slices.DeleteFunc(parent.children, func(c *Widget) bool { return c == w })
		markDirty(parent)
	}
	return nil
}

func (w *Widget) release() {
	w.Notify("Dispose", nil)
	for _, c := range slices.Clone(w.children) {
		c.release()
	}
	w.children = nil
	w.backend.disposed()
	for _, entries := range w.listeners {
		for _, e := range entries {
			if e.remove != nil {
				e.remove()
			}
		}
	}
	w.listeners = nil
	w.display.unregister(w)
	w.disposed = true
	w.parent = nil
}
