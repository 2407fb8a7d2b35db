// Package bridge moves widget state from the embedded backend to the
// external renderer.
//
// Mutations mark nodes dirty on a Tracker. A flush takes a snapshot of the
// dirty set, drops every node that has a dirty ancestor (the ancestor's
// document already contains it), serializes what remains as one Document per
// root and hands each to a Transport under the node's event name. Inbound
// renderer events travel the other way through Bridge.HandleMessage.
package bridge

import (
	"reflect"
	"strconv"
	"strings"
)

// Node is the view of an embedded widget the bridge needs.
//
// ParentNode must return a literal nil at the root, never a typed nil.
type Node interface {
	NodeID() int64
	// Kind is the runtime class simple name ("Button").
	Kind() string
	ParentNode() Node
	// IsComposite reports whether the node carries a children list.
	IsComposite() bool
	// ChildNodes returns children in list order.
	ChildNodes() []Node
	// Fields lists declared properties in schema order.
	Fields() []Field
	IsDisposed() bool
}

// Field is one declared property with its current and documented default
// value.
type Field struct {
	Name    string
	Value   any
	Default any
}

// IsDefault reports whether the field holds its documented default.
func (f Field) IsDefault() bool {
	return Equal(f.Value, f.Default)
}

// Equal compares property values. Nil pointers, nil slices and empty slices
// all compare equal to an untyped nil; everything else compares deeply, so
// two *Color values with the same channels are equal.
func Equal(a, b any) bool {
	an, bn := isEmpty(a), isEmpty(b)
	if an || bn {
		return an && bn
	}
	return reflect.DeepEqual(a, b)
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice:
		return rv.Len() == 0
	}
	return false
}

// EventName builds the renderer event name for a node: "Kind/id", with any
// extra parts appended ("Button/12/Selection").
func EventName(kind string, id int64, parts ...string) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteByte('/')
	b.WriteString(strconv.FormatInt(id, 10))
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(p)
	}
	return b.String()
}

// NodeEvent returns EventName for n.
func NodeEvent(n Node, parts ...string) string {
	return EventName(n.Kind(), n.NodeID(), parts...)
}

// Event is a decoded inbound event name plus payload.
type Event struct {
	Name    string
	Kind    string
	ID      int64
	Type    string
	Payload []byte
}

// ParseEvent splits "Kind/id[/Type...]". ok is false when the name does not
// address a node.
func ParseEvent(name string) (ev Event, ok bool) {
	parts := strings.SplitN(name, "/", 3)
	if len(parts) < 2 || parts[0] == "" {
		return Event{Name: name}, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Event{Name: name}, false
	}
	ev = Event{Name: name, Kind: parts[0], ID: id}
	if len(parts) == 3 {
		ev.Type = parts[2]
	}
	return ev, true
}
