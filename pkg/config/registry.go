// Package config decides which backend variant a widget class is bound to.
//
// A Registry holds the process-wide default mode, per-class overrides,
// per-instance overrides keyed by widget path, and dependency groups of
// classes that must switch together. Resolution happens once, when a widget
// is constructed; changing the registry afterwards never migrates widgets
// that already exist.
//
// Precedence, highest first:
//
//  1. force-native switch
//  2. instance override for the widget's path
//  3. class override on the nearest class in the lineage
//  4. an embedded override on another member of the class's dependency group
//  5. ModeForceEmbedded
//  6. parent inheritance (embedded parent, embeddable class)
//  7. ModeEmbedded for embeddable classes
//  8. Native
package config

import (
	"maps"
	"slices"
	"sync"
)

// Class is the view of a widget class the registry needs.
type Class interface {
	// Name is the class simple name ("Button").
	Name() string
	// Super returns the enclosing class, or nil at the root of the lineage.
	Super() Class
	// Embeddable reports whether the class is switched to the embedded
	// backend under ModeEmbedded.
	Embeddable() bool
}

// Context carries per-instance information for ResolveFor.
type Context struct {
	// Path is the widget's instance path (see InstancePath).
	Path string
	// HasParent is true when the widget is created inside a parent.
	HasParent bool
	// ParentVariant is the variant the parent was bound to.
	ParentVariant Variant
}

// DefaultGroups lists the classes that must be switched together.
var DefaultGroups = [][]string{
	{"TabFolder", "TabItem"},
	{"CTabFolder", "CTabItem", "CTabFolderLayout", "CTabFolderRenderer"},
	{"Table", "TableColumn", "TableItem"},
	{"Tree", "TreeColumn", "TreeItem"},
	{"ToolBar", "ToolItem"},
	{"CoolBar", "CoolItem"},
	{"Menu", "MenuItem"},
	{"ExpandBar", "ExpandItem"},
	{"StyledText", "StyledTextRenderer"},
}

// Registry is the capability table consulted at widget construction.
// The zero value is not usable; call NewRegistry.
type Registry struct {
	mu sync.RWMutex

	mode          Mode
	forceNative   bool
	inheritParent bool

	classOverrides    map[string]Variant
	instanceOverrides map[string]Variant
	groups            map[string][]string
}

// NewRegistry returns a registry in its reset state: ModeNative, parent
// inheritance enabled, DefaultGroups installed, no overrides.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset restores the registry to the state NewRegistry returns.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = ModeNative
	r.forceNative = false
	r.inheritParent = true
	r.classOverrides = make(map[string]Variant)
	r.instanceOverrides = make(map[string]Variant)
	r.groups = make(map[string][]string)
	for _, g := range DefaultGroups {
		r.addGroupLocked(g)
	}
}

// Replace installs src's whole state in r in one step, so a concurrent
// ResolveFor sees either the old state or the new one. src is unchanged.
func (r *Registry) Replace(src *Registry) {
	if r == src {
		return
	}
	src.mu.RLock()
	mode, force, inherit := src.mode, src.forceNative, src.inheritParent
	classes := maps.Clone(src.classOverrides)
	instances := maps.Clone(src.instanceOverrides)
	// Group slices are never mutated after addGroupLocked, so sharing them is safe.
	groups := maps.Clone(src.groups)
	src.mu.RUnlock()

	r.mu.Lock()
	r.mode, r.forceNative, r.inheritParent = mode, force, inherit
	r.classOverrides = classes
	r.instanceOverrides = instances
	r.groups = groups
	r.mu.Unlock()
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	c := &Registry{}
	c.Replace(r)
	return c
}

// SetDefault sets the process-wide default mode.
func (r *Registry) SetDefault(mode Mode) {
	r.mu.Lock()
	r.mode = mode
	r.mu.Unlock()
}

// Default returns the process-wide default mode.
func (r *Registry) Default() Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

// SetForceNative makes every resolution return Native while enabled.
func (r *Registry) SetForceNative(force bool) {
	r.mu.Lock()
	r.forceNative = force
	r.mu.Unlock()
}

// SetInheritParent toggles parent inheritance.
func (r *Registry) SetInheritParent(inherit bool) {
	r.mu.Lock()
	r.inheritParent = inherit
	r.mu.Unlock()
}

// SetClassOverride binds a class (and, by nearest-enclosing match, its
// subclasses without their own override) to a variant.
func (r *Registry) SetClassOverride(class string, v Variant) {
	r.mu.Lock()
	r.classOverrides[class] = v
	r.mu.Unlock()
}

// ClearClassOverride removes a class override.
func (r *Registry) ClearClassOverride(class string) {
	r.mu.Lock()
	delete(r.classOverrides, class)
	r.mu.Unlock()
}

// ClassOverride returns the explicit override for class, if any.
func (r *Registry) ClassOverride(class string) (Variant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.classOverrides[class]
	return v, ok
}

// SetInstanceOverride binds the widget created at path to a variant.
func (r *Registry) SetInstanceOverride(path string, v Variant) {
	r.mu.Lock()
	r.instanceOverrides[path] = v
	r.mu.Unlock()
}

// ClearInstanceOverride removes an instance override.
func (r *Registry) ClearInstanceOverride(path string) {
	r.mu.Lock()
	delete(r.instanceOverrides, path)
	r.mu.Unlock()
}

// AddDependencyGroup declares classes that must switch together. A class
// belongs to at most one group; adding it again moves it.
func (r *Registry) AddDependencyGroup(classes ...string) {
	r.mu.Lock()
	r.addGroupLocked(classes)
	r.mu.Unlock()
}

func (r *Registry) addGroupLocked(classes []string) {
	group := slices.Clone(classes)
	for _, name := range group {
		r.groups[name] = group
	}
}

// DependencyGroup returns the group class belongs to, or nil.
func (r *Registry) DependencyGroup(class string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.groups[class])
}

// Resolve returns the variant for a class with no instance context.
func (r *Registry) Resolve(c Class) Variant {
	return r.ResolveFor(c, Context{})
}

// ResolveFor returns the variant for a class created in the given context.
// It never fails: an unknown class falls through to the default.
func (r *Registry) ResolveFor(c Class, ctx Context) Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.forceNative {
		return Native
	}
	if ctx.Path != "" {
		if v, ok := r.instanceOverrides[ctx.Path]; ok {
			return v
		}
	}
	if c == nil {
		return r.defaultForLocked(false)
	}
	for cls := c; cls != nil; cls = cls.Super() {
		if v, ok := r.classOverrides[cls.Name()]; ok {
			return v
		}
	}
	for _, member := range r.groups[c.Name()] {
		if v, ok := r.classOverrides[member]; ok && v == Embedded {
			return Embedded
		}
	}
	if r.mode == ModeForceEmbedded {
		return Embedded
	}
	if r.inheritParent && ctx.HasParent && ctx.ParentVariant == Embedded && c.Embeddable() {
		return Embedded
	}
	return r.defaultForLocked(c.Embeddable())
}

func (r *Registry) defaultForLocked(embeddable bool) Variant {
	switch r.mode {
	case ModeForceEmbedded:
		return Embedded
	case ModeEmbedded:
		if embeddable {
			return Embedded
		}
	}
	return Native
}

// Settings is a point-in-time copy of the registry state.
type Settings struct {
	Default           Mode               `json:"default" yaml:"default" toml:"default"`
	ForceNative       bool               `json:"forceNative" yaml:"forceNative" toml:"forceNative"`
	InheritParent     bool               `json:"inheritParent" yaml:"inheritParent" toml:"inheritParent"`
	ClassOverrides    map[string]Variant `json:"classes" yaml:"classes" toml:"classes"`
	InstanceOverrides map[string]Variant `json:"instances" yaml:"instances" toml:"instances"`
}

// Snapshot copies the registry state.
func (r *Registry) Snapshot() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Settings{
		Default:           r.mode,
		ForceNative:       r.forceNative,
		InheritParent:     r.inheritParent,
		ClassOverrides:    maps.Clone(r.classOverrides),
		InstanceOverrides: maps.Clone(r.instanceOverrides),
	}
}
