package widgets

import (
	"reflect"
	"slices"

	"github.com/go-drift/evolve/pkg/config"
	"github.com/go-drift/evolve/pkg/graphics"
)

// Property is one entry of a class schema: a serialized name and the
// documented default. The default's dynamic type is the property's type;
// pointer properties use a typed nil.
type Property struct {
	Name    string
	Default any
}

func (p Property) valueType() reflect.Type {
	return reflect.TypeOf(p.Default)
}

// Class describes a widget class: its place in the lineage, which backends
// implement it, and its property schema.
type Class struct {
	name       string
	super      *Class
	abstract   bool
	composite  bool
	embeddable bool
	native     bool
	embedded   bool
	// parent, when set, is the class every parent must be (or extend).
	parent *Class
	props  []Property
}

// Name returns the class simple name.
func (c *Class) Name() string { return c.name }

// Super returns the enclosing class, or nil for Widget.
func (c *Class) Super() config.Class {
	if c.super == nil {
		return nil
	}
	return c.super
}

// Embeddable reports whether ModeEmbedded switches the class to the
// embedded backend.
func (c *Class) Embeddable() bool { return c.embeddable }

// IsComposite reports whether instances hold children.
func (c *Class) IsComposite() bool { return c.composite }

// IsAbstract reports whether the class cannot be instantiated.
func (c *Class) IsAbstract() bool { return c.abstract }

// Supports reports whether the class has an implementation on v.
func (c *Class) Supports(v config.Variant) bool {
	if v == config.Embedded {
		return c.embedded
	}
	return c.native
}

// Extends reports whether c is other or a subclass of it.
func (c *Class) Extends(other *Class) bool {
	for cls := c; cls != nil; cls = cls.super {
		if cls == other {
			return true
		}
	}
	return false
}

// Schema returns the full property schema, inherited properties first.
func (c *Class) Schema() []Property {
	if c.super == nil {
		return slices.Clone(c.props)
	}
	schema := c.super.Schema()
	for _, p := range c.props {
		if i := slices.IndexFunc(schema, func(q Property) bool { return q.Name == p.Name }); i >= 0 {
			schema[i] = p
			continue
		}
		schema = append(schema, p)
	}
	return schema
}

// Property looks up a property by name, including inherited ones.
func (c *Class) Property(name string) (Property, bool) {
	for cls := c; cls != nil; cls = cls.super {
		for _, p := range cls.props {
			if p.Name == name {
				return p, true
			}
		}
	}
	return Property{}, false
}

func (c *Class) String() string { return c.name }

// Alignment is a text or image alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignCenter:
		return "CENTER"
	case AlignRight:
		return "RIGHT"
	default:
		return "LEFT"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Alignment) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Style is a bitmask of construction-time style bits.
type Style int

const StyleNone Style = 0

const (
	StyleBorder Style = 1 << iota
	StylePush
	StyleCheck
	StyleRadio
	StyleToggle
	StyleReadOnly
	StyleMulti
	StyleWrap
	StyleClose
	StyleHorizontal
	StyleVertical
)

// Has reports whether all bits of s2 are set.
func (s Style) Has(s2 Style) bool { return s&s2 == s2 }

var controlProps = []Property{
	{Name: "text", Default: ""},
	{Name: "enabled", Default: true},
	{Name: "visible", Default: true},
	{Name: "toolTipText", Default: ""},
	{Name: "background", Default: (*graphics.Color)(nil)},
	{Name: "foreground", Default: (*graphics.Color)(nil)},
	{Name: "bounds", Default: graphics.Rectangle{}},
	{Name: "font", Default: (*graphics.FontData)(nil)},
}

// Widget classes.
var (
	WidgetClass     = &Class{name: "Widget", abstract: true, native: true, embedded: true}
	ControlClass    = &Class{name: "Control", super: WidgetClass, abstract: true, native: true, embedded: true, props: controlProps}
	ScrollableClass = &Class{name: "Scrollable", super: ControlClass, abstract: true, native: true, embedded: true}

	CompositeClass  = &Class{name: "Composite", super: ScrollableClass, composite: true, embeddable: true, native: true, embedded: true}
	ShellClass      = &Class{name: "Shell", super: CompositeClass, composite: true, embeddable: true, native: true, embedded: true}
	GroupClass      = &Class{name: "Group", super: CompositeClass, composite: true, embeddable: true, native: true, embedded: true}
	CanvasClass     = &Class{name: "Canvas", super: CompositeClass, composite: true, embeddable: true, native: true, embedded: true}
	CTabFolderClass = &Class{name: "CTabFolder", super: CompositeClass, composite: true, embeddable: true, native: true, embedded: true,
		props: []Property{{Name: "selectionIndex", Default: -1}}}
	ToolBarClass = &Class{name: "ToolBar", super: CompositeClass, composite: true, embeddable: true, native: true, embedded: true}

	ButtonClass = &Class{name: "Button", super: ControlClass, embeddable: true, native: true, embedded: true,
		props: []Property{
			{Name: "selection", Default: false},
			{Name: "grayed", Default: false},
			{Name: "alignment", Default: AlignLeft},
		}}
	LabelClass       = &Class{name: "Label", super: ControlClass, embeddable: true, native: true, embedded: true}
	CLabelClass      = &Class{name: "CLabel", super: ControlClass, embeddable: true, native: true, embedded: true}
	LinkClass        = &Class{name: "Link", super: ControlClass, embeddable: true, native: true, embedded: true}
	SashClass        = &Class{name: "Sash", super: ControlClass, embeddable: true, native: true, embedded: true}
	ProgressBarClass = &Class{name: "ProgressBar", super: ControlClass, embeddable: true, native: true, embedded: true,
		props: []Property{
			{Name: "minimum", Default: 0},
			{Name: "maximum", Default: 100},
			{Name: "selection", Default: 0},
		}}
	BrowserClass = &Class{name: "Browser", super: ControlClass, native: true}

	TextClass = &Class{name: "Text", super: ScrollableClass, embeddable: true, native: true, embedded: true,
		props: []Property{
			{Name: "message", Default: ""},
			{Name: "editable", Default: true},
			{Name: "textLimit", Default: -1},
		}}
	ComboClass = &Class{name: "Combo", super: ScrollableClass, embeddable: true, native: true, embedded: true,
		props: []Property{
			{Name: "items", Default: []string{}},
			{Name: "selectionIndex", Default: -1},
		}}

	CTabItemClass = &Class{name: "CTabItem", super: WidgetClass, embeddable: true, native: true, embedded: true, parent: CTabFolderClass,
		props: []Property{
			{Name: "text", Default: ""},
			{Name: "showClose", Default: false},
		}}
	ToolItemClass = &Class{name: "ToolItem", super: WidgetClass, embeddable: true, native: true, embedded: true, parent: ToolBarClass,
		props: []Property{
			{Name: "text", Default: ""},
			{Name: "enabled", Default: true},
		}}
)

var classes = []*Class{
	WidgetClass, ControlClass, ScrollableClass,
	CompositeClass, ShellClass, GroupClass, CanvasClass, CTabFolderClass, ToolBarClass,
	ButtonClass, LabelClass, CLabelClass, LinkClass, SashClass, ProgressBarClass, BrowserClass,
	TextClass, ComboClass,
	CTabItemClass, ToolItemClass,
}

// Classes returns every known class.
func Classes() []*Class {
	return slices.Clone(classes)
}

// LookupClass finds a class by simple name.
func LookupClass(name string) (*Class, bool) {
	for _, c := range classes {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}
