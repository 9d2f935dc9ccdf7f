package board

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

const (
	MinWidth = 1
	MaxWidth = 20

	// GlowRadius is the halo radius applied to every stroke. The halo takes
	// the stroke color, so each palette entry glows in its own hue.
	GlowRadius = 10

	DefaultColor      = "#00f3ff"
	DefaultWidth      = 2
	DefaultBackground = "#000000"
)

// Swatch is one selectable palette entry.
type Swatch struct {
	Name string
	Hex  string
}

// Palette is the fixed set of colors offered by the toolbar.
var Palette = [5]Swatch{
	{Name: "cyan", Hex: "#00f3ff"},
	{Name: "purple", Hex: "#bc13fe"},
	{Name: "green", Hex: "#0aff68"},
	{Name: "pink", Hex: "#ff0055"},
	{Name: "white", Hex: "#ffffff"},
}

// Tool is the user-selected drawing state.
type Tool struct {
	Color string
	Width int
}

// DefaultTool returns the tool selected when the board mounts.
func DefaultTool() Tool {
	return Tool{Color: DefaultColor, Width: DefaultWidth}
}

// ClampWidth forces w into the slider range.
func ClampWidth(w int) int {
	if w < MinWidth {
		return MinWidth
	}
	if w > MaxWidth {
		return MaxWidth
	}
	return w
}

// ParseColor parses "#rgb" or "#rrggbb" into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #rgb or #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// mustColor parses a compile-time constant color.
func mustColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
