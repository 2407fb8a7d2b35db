package graphics

import (
	"fmt"
	"strconv"
	"strings"
)

// FontStyle is a bitmask of font style flags.
type FontStyle int

const (
	FontNormal FontStyle = 0
	FontBold   FontStyle = 1 << 0
	FontItalic FontStyle = 1 << 1
)

// FontData describes a font by family, point height and style.
type FontData struct {
	Name   string    `json:"name"`
	Height float64   `json:"height"`
	Style  FontStyle `json:"style"`
}

func (f FontData) String() string {
	return fmt.Sprintf("%s|%g|%d", f.Name, f.Height, f.Style)
}

// ParseFont reads "name,height[,bold][,italic]", for example "Sans,10,bold".
func ParseFont(s string) (FontData, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return FontData{}, fmt.Errorf("invalid font %q: want name,height[,bold][,italic]", s)
	}
	f := FontData{Name: strings.TrimSpace(parts[0])}
	if f.Name == "" {
		return FontData{}, fmt.Errorf("invalid font %q: empty name", s)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || h <= 0 {
		return FontData{}, fmt.Errorf("invalid font %q: bad height", s)
	}
	f.Height = h
	for _, style := range parts[2:] {
		switch strings.ToLower(strings.TrimSpace(style)) {
		case "bold":
			f.Style |= FontBold
		case "italic":
			f.Style |= FontItalic
		case "normal", "":
		default:
			return FontData{}, fmt.Errorf("invalid font %q: unknown style %q", s, style)
		}
	}
	return f, nil
}
