package decterm

import "image/color"

// DefaultPalette is the standard 256-color palette: 16 named colors (0-15),
// 216 color cube (16-231), 24 grayscale (232-255).
var DefaultPalette = [256]color.RGBA{
	// Standard colors (0-7)
	{0, 0, 0, 255},       // Black
	{205, 49, 49, 255},   // Red
	{13, 188, 121, 255},  // Green
	{229, 229, 16, 255},  // Yellow
	{36, 114, 200, 255},  // Blue
	{188, 63, 188, 255},  // Magenta
	{17, 168, 205, 255},  // Cyan
	{229, 229, 229, 255}, // White

	// Bright colors (8-15)
	{102, 102, 102, 255}, // Bright Black
	{241, 76, 76, 255},   // Bright Red
	{35, 209, 139, 255},  // Bright Green
	{245, 245, 67, 255},  // Bright Yellow
	{59, 142, 234, 255},  // Bright Blue
	{214, 112, 214, 255}, // Bright Magenta
	{41, 184, 219, 255},  // Bright Cyan
	{255, 255, 255, 255}, // Bright White

	// 216 colors (16-231) and grayscale (232-255) are generated in init.
}

func init() {
	// Generate 216 color cube (16-231)
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				DefaultPalette[i] = color.RGBA{
					R: uint8(r * 51),
					G: uint8(g * 51),
					B: uint8(b * 51),
					A: 255,
				}
				i++
			}
		}
	}

	// Generate grayscale (232-255)
	for j := 0; j < 24; j++ {
		gray := uint8(8 + j*10)
		DefaultPalette[232+j] = color.RGBA{gray, gray, gray, 255}
	}
}

// DefaultForeground is the default text color (light gray).
var DefaultForeground = color.RGBA{229, 229, 229, 255}

// DefaultBackground is the default background color (black).
var DefaultBackground = color.RGBA{0, 0, 0, 255}

// DefaultCursorColor is the default cursor rendering color (light gray).
var DefaultCursorColor = color.RGBA{229, 229, 229, 255}

// Named color indices for semantic colors (used with NamedColor).
const (
	NamedColorForeground  = 256 // Default foreground text color (OSC 10)
	NamedColorBackground  = 257 // Default background color (OSC 11)
	NamedColorCursor      = 258 // Cursor color (OSC 12)
	NamedColorMouseFg     = 259 // Mouse pointer foreground (OSC 13)
	NamedColorMouseBg     = 260 // Mouse pointer background (OSC 14)
	NamedColorHighlightBg = 261 // Selection background (OSC 17)
	NamedColorHighlightFg = 262 // Selection foreground (OSC 19)
)

// IndexedColor references a color by palette index (0-255).
// Resolution to actual RGBA happens at render time using the palette.
type IndexedColor struct {
	Index int
}

// RGBA implements color.Color, returning a placeholder (actual resolution
// happens at render time).
func (c *IndexedColor) RGBA() (r, g, b, a uint32) {
	return 0, 0, 0, 0xffff
}

// NamedColor references a color by semantic name (foreground, background,
// cursor, etc.). Resolution to actual RGBA happens at render time.
type NamedColor struct {
	Name int
}

// RGBA implements color.Color, returning a placeholder (actual resolution
// happens at render time).
func (c *NamedColor) RGBA() (r, g, b, a uint32) {
	return 0, 0, 0, 0xffff
}

// sameColor compares two color references structurally.
func sameColor(a, b color.Color) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case *IndexedColor:
		bv, ok := b.(*IndexedColor)
		return ok && av.Index == bv.Index
	case *NamedColor:
		bv, ok := b.(*NamedColor)
		return ok && av.Name == bv.Name
	case color.RGBA:
		bv, ok := b.(color.RGBA)
		return ok && av == bv
	default:
		return a == b
	}
}

// ResolveColor converts a color reference to concrete RGBA using the given
// palette overrides. If c is nil, returns the default foreground or
// background based on fg.
func ResolveColor(c color.Color, overrides map[int]color.Color, fg bool) color.RGBA {
	if c == nil {
		if fg {
			return DefaultForeground
		}
		return DefaultBackground
	}

	switch v := c.(type) {
	case color.RGBA:
		return v
	case *IndexedColor:
		if o, ok := overrides[v.Index]; ok {
			return ResolveColor(o, nil, fg)
		}
		if v.Index >= 0 && v.Index < 256 {
			return DefaultPalette[v.Index]
		}
		if fg {
			return DefaultForeground
		}
		return DefaultBackground
	case *NamedColor:
		if o, ok := overrides[v.Name]; ok {
			return ResolveColor(o, nil, fg)
		}
		return resolveNamedColor(v.Name, fg)
	default:
		r, g, b, a := c.RGBA()
		return color.RGBA{
			R: uint8(r >> 8),
			G: uint8(g >> 8),
			B: uint8(b >> 8),
			A: uint8(a >> 8),
		}
	}
}

// resolveNamedColor resolves a named color index to RGBA.
func resolveNamedColor(name int, fg bool) color.RGBA {
	switch {
	case name >= 0 && name < 256:
		return DefaultPalette[name]
	case name == NamedColorForeground, name == NamedColorHighlightFg:
		return DefaultForeground
	case name == NamedColorBackground, name == NamedColorHighlightBg:
		return DefaultBackground
	case name == NamedColorCursor:
		return DefaultCursorColor
	default:
		if fg {
			return DefaultForeground
		}
		return DefaultBackground
	}
}

// parseXColor parses the color specifications accepted by the dynamic-color
// OSC controls: "rgb:RR/GG/BB" (1-4 hex digits per channel) and "#RRGGBB".
// Returns false for anything else.
func parseXColor(spec string) (color.RGBA, bool) {
	hexVal := func(s string) (uint8, bool) {
		if len(s) == 0 || len(s) > 4 {
			return 0, false
		}
		var v uint32
		for i := 0; i < len(s); i++ {
			d := s[i]
			switch {
			case d >= '0' && d <= '9':
				v = v<<4 | uint32(d-'0')
			case d >= 'a' && d <= 'f':
				v = v<<4 | uint32(d-'a'+10)
			case d >= 'A' && d <= 'F':
				v = v<<4 | uint32(d-'A'+10)
			default:
				return 0, false
			}
		}
		// Scale to 8 bits regardless of input width.
		bits := uint(4 * len(s))
		return uint8(v * 255 / ((1 << bits) - 1)), true
	}

	if len(spec) > 4 && spec[:4] == "rgb:" {
		rest := spec[4:]
		var parts []string
		start := 0
		for i := 0; i <= len(rest); i++ {
			if i == len(rest) || rest[i] == '/' {
				parts = append(parts, rest[start:i])
				start = i + 1
			}
		}
		if len(parts) != 3 {
			return color.RGBA{}, false
		}
		r, ok1 := hexVal(parts[0])
		g, ok2 := hexVal(parts[1])
		b, ok3 := hexVal(parts[2])
		if !ok1 || !ok2 || !ok3 {
			return color.RGBA{}, false
		}
		return color.RGBA{r, g, b, 255}, true
	}

	if len(spec) == 7 && spec[0] == '#' {
		r, ok1 := hexVal(spec[1:3])
		g, ok2 := hexVal(spec[3:5])
		b, ok3 := hexVal(spec[5:7])
		if !ok1 || !ok2 || !ok3 {
			return color.RGBA{}, false
		}
		return color.RGBA{r, g, b, 255}, true
	}

	return color.RGBA{}, false
}
