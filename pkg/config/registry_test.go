package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClass struct {
	name       string
	super      *testClass
	embeddable bool
}

func (c *testClass) Name() string     { return c.name }
func (c *testClass) Embeddable() bool { return c.embeddable }
func (c *testClass) Super() Class {
	if c.super == nil {
		return nil
	}
	return c.super
}

var (
	widgetClass     = &testClass{name: "Widget"}
	controlClass    = &testClass{name: "Control", super: widgetClass}
	scrollableClass = &testClass{name: "Scrollable", super: controlClass}
	compositeClass  = &testClass{name: "Composite", super: scrollableClass, embeddable: true}
	buttonClass     = &testClass{name: "Button", super: controlClass, embeddable: true}
	browserClass    = &testClass{name: "Browser", super: controlClass}
	tabFolderClass  = &testClass{name: "CTabFolder", super: compositeClass, embeddable: true}
	tabItemClass    = &testClass{name: "CTabItem", super: widgetClass, embeddable: true}
)

func TestResolveDefaults(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, ModeNative, r.Default())
	assert.Equal(t, Native, r.Resolve(buttonClass))
	assert.Equal(t, Native, r.Resolve(nil))
}

func TestResolveModes(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		class Class
		want  Variant
	}{
		{"native mode embeddable", ModeNative, buttonClass, Native},
		{"embedded mode embeddable", ModeEmbedded, buttonClass, Embedded},
		{"embedded mode not embeddable", ModeEmbedded, browserClass, Native},
		{"force embedded not embeddable", ModeForceEmbedded, browserClass, Embedded},
		{"force embedded unknown class", ModeForceEmbedded, nil, Embedded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			r.SetDefault(tt.mode)
			assert.Equal(t, tt.want, r.Resolve(tt.class))
		})
	}
}

func TestClassOverridePrecedenceAndRevert(t *testing.T) {
	r := NewRegistry()
	r.SetClassOverride("Button", Embedded)
	assert.Equal(t, Embedded, r.Resolve(buttonClass))

	r.ClearClassOverride("Button")
	assert.Equal(t, Native, r.Resolve(buttonClass))

	r.SetDefault(ModeEmbedded)
	r.SetClassOverride("Button", Native)
	assert.Equal(t, Native, r.Resolve(buttonClass))
}

func TestClassOverrideNearestEnclosing(t *testing.T) {
	r := NewRegistry()
	r.SetClassOverride("Control", Embedded)
	assert.Equal(t, Embedded, r.Resolve(buttonClass), "inherits Control override")

	r.SetClassOverride("Button", Native)
	assert.Equal(t, Native, r.Resolve(buttonClass), "own override is nearer")
	assert.Equal(t, Embedded, r.Resolve(scrollableClass))
	assert.Equal(t, Native, r.Resolve(widgetClass), "overrides never apply upward")
}

func TestInstanceOverride(t *testing.T) {
	r := NewRegistry()
	r.SetClassOverride("Button", Embedded)
	r.SetInstanceOverride("/Shell/-1/Button/0", Native)

	assert.Equal(t, Native, r.ResolveFor(buttonClass, Context{Path: "/Shell/-1/Button/0"}))
	assert.Equal(t, Embedded, r.ResolveFor(buttonClass, Context{Path: "/Shell/-1/Button/1"}))

	r.ClearInstanceOverride("/Shell/-1/Button/0")
	assert.Equal(t, Embedded, r.ResolveFor(buttonClass, Context{Path: "/Shell/-1/Button/0"}))
}

func TestForceNativeWins(t *testing.T) {
	r := NewRegistry()
	r.SetDefault(ModeForceEmbedded)
	r.SetClassOverride("Button", Embedded)
	r.SetInstanceOverride("/b", Embedded)
	r.SetForceNative(true)

	assert.Equal(t, Native, r.ResolveFor(buttonClass, Context{Path: "/b"}))

	r.SetForceNative(false)
	assert.Equal(t, Embedded, r.ResolveFor(buttonClass, Context{Path: "/b"}))
}

func TestDependencyGroup(t *testing.T) {
	r := NewRegistry()
	assert.Contains(t, r.DependencyGroup("CTabItem"), "CTabFolder")

	r.SetClassOverride("CTabFolder", Embedded)
	assert.Equal(t, Embedded, r.Resolve(tabItemClass), "group member follows")

	r.SetClassOverride("CTabItem", Native)
	assert.Equal(t, Native, r.Resolve(tabItemClass), "explicit member override wins")

	r.AddDependencyGroup("Button", "Label")
	r.SetClassOverride("Label", Embedded)
	assert.Equal(t, Embedded, r.Resolve(buttonClass))
	assert.Nil(t, r.DependencyGroup("Sash"))
}

func TestParentInheritance(t *testing.T) {
	r := NewRegistry()
	ctx := Context{HasParent: true, ParentVariant: Embedded}

	assert.Equal(t, Embedded, r.ResolveFor(buttonClass, ctx))
	assert.Equal(t, Native, r.ResolveFor(browserClass, ctx), "not embeddable")
	assert.Equal(t, Native, r.ResolveFor(buttonClass, Context{HasParent: true, ParentVariant: Native}))

	r.SetClassOverride("Button", Native)
	assert.Equal(t, Native, r.ResolveFor(buttonClass, ctx), "override beats inheritance")

	r.ClearClassOverride("Button")
	r.SetInheritParent(false)
	assert.Equal(t, Native, r.ResolveFor(buttonClass, ctx))
}

func TestResetAndSnapshot(t *testing.T) {
	r := NewRegistry()
	r.SetDefault(ModeEmbedded)
	r.SetForceNative(true)
	r.SetClassOverride("Button", Embedded)
	r.SetInstanceOverride("/x", Native)

	s := r.Snapshot()
	assert.Equal(t, ModeEmbedded, s.Default)
	assert.True(t, s.ForceNative)
	assert.Equal(t, Embedded, s.ClassOverrides["Button"])
	assert.Equal(t, Native, s.InstanceOverrides["/x"])

	s.ClassOverrides["Label"] = Embedded
	_, ok := r.ClassOverride("Label")
	assert.False(t, ok, "snapshot is a copy")

	r.Reset()
	s = r.Snapshot()
	assert.Equal(t, ModeNative, s.Default)
	assert.False(t, s.ForceNative)
	assert.True(t, s.InheritParent)
	assert.Empty(t, s.ClassOverrides)
	assert.Empty(t, s.InstanceOverrides)
}

func TestInstancePath(t *testing.T) {
	root := InstancePath("", "Shell", -1)
	assert.Equal(t, "/Shell/-1", root)
	assert.Equal(t, "/Shell/-1/Composite/1", InstancePath(root, "Composite", 1))
}

func TestParseVariantAndMode(t *testing.T) {
	v, err := ParseVariant("Equo")
	require.NoError(t, err)
	assert.Equal(t, Embedded, v)

	_, err = ParseVariant("qt")
	assert.Error(t, err)

	m, err := ParseMode("force-embedded")
	require.NoError(t, err)
	assert.Equal(t, ModeForceEmbedded, m)
	assert.Equal(t, "force_embedded", m.String())

	var decoded Variant
	require.NoError(t, decoded.UnmarshalText([]byte("embedded")))
	assert.Equal(t, Embedded, decoded)
	text, err := decoded.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "embedded", string(text))
}

func TestReplaceAndClone(t *testing.T) {
	src := NewRegistry()
	src.SetDefault(ModeEmbedded)
	src.SetClassOverride("Button", Native)
	src.SetInstanceOverride("/Shell/Button", Embedded)
	src.AddDependencyGroup("Spinner", "SpinnerItem")

	c := src.Clone()
	assert.Equal(t, src.Snapshot(), c.Snapshot())
	c.SetClassOverride("Label", Embedded)
	_, ok := src.ClassOverride("Label")
	assert.False(t, ok, "clone is independent")

	dst := NewRegistry()
	dst.SetForceNative(true)
	dst.Replace(src)
	assert.Equal(t, src.Snapshot(), dst.Snapshot())
	assert.Equal(t, []string{"Spinner", "SpinnerItem"}, dst.DependencyGroup("SpinnerItem"))

	dst.Replace(dst)
	assert.Equal(t, src.Snapshot(), dst.Snapshot())
}
