package config

import "maps"

// FlagsEvent is the event name used to push Flags to the renderer.
const FlagsEvent = "evolve.properties"

// Flags are renderer feature flags sent once the renderer reports ready.
type Flags struct {
	// UseNativeFonts makes the renderer size text with the toolkit's fonts
	// instead of its theme fonts.
	UseNativeFonts bool `json:"useNativeFonts,omitempty" yaml:"useNativeFonts,omitempty" toml:"useNativeFonts,omitempty"`
	// Theme selects a renderer theme ("light", "dark"); empty follows the OS.
	Theme string `json:"theme,omitempty" yaml:"theme,omitempty" toml:"theme,omitempty" validate:"omitempty,oneof=light dark system"`
	// Debug enables renderer-side debug overlays.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty" toml:"debug,omitempty"`
	// Extra carries free-form flags passed through untouched.
	Extra map[string]string `json:"extra,omitempty" yaml:"extra,omitempty" toml:"extra,omitempty"`
}

// Clone returns a deep copy.
func (f Flags) Clone() Flags {
	f.Extra = maps.Clone(f.Extra)
	return f
}
