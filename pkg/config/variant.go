package config

import (
	"fmt"
	"strings"
)

// Variant identifies the backend implementation a widget is bound to.
type Variant int

const (
	// Native binds the widget to the platform toolkit (GTK, Cocoa, Win32).
	Native Variant = iota
	// Embedded binds the widget to the external embedded renderer.
	Embedded
)

func (v Variant) String() string {
	switch v {
	case Native:
		return "native"
	case Embedded:
		return "embedded"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant parses "native" or "embedded". Legacy backend names such as
// "eclipse" and "equo" are accepted as aliases.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "native", "eclipse", "swt":
		return Native, nil
	case "embedded", "equo", "flutter":
		return Embedded, nil
	}
	return Native, fmt.Errorf("config: unknown backend variant %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Mode is the process-wide default policy.
type Mode int

const (
	// ModeNative resolves every class to Native unless overridden.
	ModeNative Mode = iota
	// ModeEmbedded resolves embeddable classes to Embedded and the rest to Native.
	ModeEmbedded
	// ModeForceEmbedded resolves every class to Embedded unless overridden.
	ModeForceEmbedded
)

func (m Mode) String() string {
	switch m {
	case ModeNative:
		return "native"
	case ModeEmbedded:
		return "embedded"
	case ModeForceEmbedded:
		return "force_embedded"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a Mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "native", "eclipse":
		return ModeNative, nil
	case "embedded", "equo":
		return ModeEmbedded, nil
	case "force_embedded", "force-embedded", "force_equo":
		return ModeForceEmbedded, nil
	}
	return ModeNative, fmt.Errorf("config: unknown mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
