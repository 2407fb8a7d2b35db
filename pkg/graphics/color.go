package graphics

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Color is an 8-bit-per-channel RGBA color. It serializes as an object with
// named channels rather than a packed integer.
type Color struct {
	Red   uint8 `json:"red"`
	Green uint8 `json:"green"`
	Blue  uint8 `json:"blue"`
	Alpha uint8 `json:"alpha"`
}

// RGB constructs an opaque Color.
func RGB(r, g, b uint8) Color {
	return Color{Red: r, Green: g, Blue: b, Alpha: 0xFF}
}

// RGBA constructs a Color with explicit alpha.
func RGBA(r, g, b, a uint8) Color {
	return Color{Red: r, Green: g, Blue: b, Alpha: a}
}

// Hex returns the color as #rrggbb, or #rrggbbaa when not fully opaque.
func (c Color) Hex() string {
	if c.Alpha == 0xFF {
		return fmt.Sprintf("#%02x%02x%02x", c.Red, c.Green, c.Blue)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.Red, c.Green, c.Blue, c.Alpha)
}

func (c Color) String() string {
	return c.Hex()
}

// ParseColor accepts an SVG/CSS color name ("steelblue"), #rgb, #rrggbb or #rrggbbaa.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Color{}, fmt.Errorf("graphics: empty color")
	}
	if !strings.HasPrefix(s, "#") {
		named, ok := colornames.Map[s]
		if !ok {
			return Color{}, fmt.Errorf("graphics: unknown color name %q", s)
		}
		return RGBA(named.R, named.G, named.B, named.A), nil
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return Color{}, fmt.Errorf("graphics: malformed color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("graphics: malformed color %q: %w", s, err)
	}
	return RGBA(uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// Common colors.
var (
	ColorTransparent = RGBA(0, 0, 0, 0)
	ColorBlack       = RGB(0, 0, 0)
	ColorWhite       = RGB(0xFF, 0xFF, 0xFF)
	ColorRed         = RGB(0xFF, 0, 0)
	ColorGreen       = RGB(0, 0xFF, 0)
	ColorBlue        = RGB(0, 0, 0xFF)
)
