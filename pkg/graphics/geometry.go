// Package graphics holds the value types carried by widget properties:
// colors, rectangles and font descriptors.
package graphics

import (
	"fmt"
	"strconv"
	"strings"
)

// Rectangle is an integer-pixel rectangle anchored at its top-left corner.
type Rectangle struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsEmpty reports whether the rectangle has no area.
func (r Rectangle) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rectangle) String() string {
	return fmt.Sprintf("Rectangle {%d, %d, %d, %d}", r.X, r.Y, r.Width, r.Height)
}

// ParseRectangle reads "x,y,width,height". Empty rectangles are rejected.
func ParseRectangle(s string) (Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Rectangle{}, fmt.Errorf("invalid rectangle %q: want x,y,width,height", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Rectangle{}, fmt.Errorf("invalid rectangle %q: %w", s, err)
		}
		v[i] = n
	}
	r := Rectangle{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if r.IsEmpty() {
		return Rectangle{}, fmt.Errorf("invalid rectangle %q: no area", s)
	}
	return r, nil
}
