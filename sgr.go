package decterm

import "image/color"

// applySGR walks an SGR parameter list and folds each rendition into the
// cell template. Both the semicolon forms (38;5;n / 38;2;r;g;b) and the
// colon forms (38:5:n / 38:2:cs:r:g:b / 38:2:r:g:b) of the extended color
// selectors are accepted. A malformed extended selector leaves the color
// unchanged. In the semicolon form, a truncated selector or an unknown mode
// also ends the walk, since the remaining parameters cannot be
// re-synchronized; out-of-range values skip only the selector.
func (t *Terminal) applySGR(params []Param) {
	if len(params) == 0 {
		params = []Param{{Value: -1}}
	}

	for i := 0; i < len(params); i++ {
		p := params[i].Value
		if p < 0 {
			p = 0
		}

		switch p {
		case 0:
			t.template = NewCellTemplate()
		case 1:
			t.template.SetFlag(CellFlagBold)
		case 2:
			t.template.SetFlag(CellFlagFaint)
		case 3:
			t.template.SetFlag(CellFlagItalic)
		case 4:
			t.template.SetFlag(CellFlagUnderline)
			t.template.ClearFlag(CellFlagDoubleUnderline)
		case 5, 6:
			t.template.SetFlag(CellFlagBlink)
		case 7:
			t.template.SetFlag(CellFlagInverse)
		case 8:
			t.template.SetFlag(CellFlagInvisible)
		case 9:
			t.template.SetFlag(CellFlagStrikeout)
		case 21:
			t.template.SetFlag(CellFlagDoubleUnderline)
			t.template.ClearFlag(CellFlagUnderline)
		case 22:
			t.template.ClearFlag(CellFlagBold | CellFlagFaint)
		case 23:
			t.template.ClearFlag(CellFlagItalic)
		case 24:
			t.template.ClearFlag(CellFlagUnderline | CellFlagDoubleUnderline)
		case 25:
			t.template.ClearFlag(CellFlagBlink)
		case 27:
			t.template.ClearFlag(CellFlagInverse)
		case 28:
			t.template.ClearFlag(CellFlagInvisible)
		case 29:
			t.template.ClearFlag(CellFlagStrikeout)
		case 38, 48:
			if sub := params[i].Sub; len(sub) > 0 {
				// Colon form: self-delimiting, so an invalid selector
				// only skips itself.
				if c, ok := colorFromList(sub); ok {
					if p == 38 {
						t.template.Fg = c
					} else {
						t.template.Bg = c
					}
				}
				continue
			}
			c, consumed, ok := extendedColor(params, i)
			if !ok {
				if consumed == 0 {
					// Truncated semicolon form cannot be re-synchronized:
					// stop the walk.
					return
				}
				// Out-of-range values reject the segment but leave the
				// rest of the parameter list intact.
				i += consumed
				continue
			}
			if p == 38 {
				t.template.Fg = c
			} else {
				t.template.Bg = c
			}
			i += consumed
		case 39:
			t.template.Fg = &NamedColor{Name: NamedColorForeground}
		case 49:
			t.template.Bg = &NamedColor{Name: NamedColorBackground}
		default:
			switch {
			case p >= 30 && p <= 37:
				t.template.Fg = &IndexedColor{Index: p - 30}
			case p >= 40 && p <= 47:
				t.template.Bg = &IndexedColor{Index: p - 40}
			case p >= 90 && p <= 97:
				t.template.Fg = &IndexedColor{Index: p - 90 + 8}
			case p >= 100 && p <= 107:
				t.template.Bg = &IndexedColor{Index: p - 100 + 8}
			}
		}
	}
}

// extendedColor decodes the semicolon-form 38/48 color selector starting at
// params[i]: the mode and channels arrive as separate parameters. Returns
// the color, how many further parameters were consumed, and validity.
func extendedColor(params []Param, i int) (color.Color, int, bool) {
	rest := make([]int, 0, 5)
	for j := i + 1; j < len(params) && len(rest) < 5; j++ {
		rest = append(rest, params[j].Value)
	}
	if len(rest) == 0 {
		return nil, 0, false
	}
	switch rest[0] {
	case 5:
		if len(rest) < 2 {
			return nil, 0, false
		}
		c, ok := colorFromList(rest[:2])
		return c, 2, ok
	case 2:
		if len(rest) < 4 {
			return nil, 0, false
		}
		// The semicolon form never carries a color-space id.
		c, ok := colorFromList(rest[:4])
		return c, 4, ok
	default:
		return nil, 0, false
	}
}

// colorFromList decodes an extended color from a flat list: {5, n} for
// indexed, {2, r, g, b} or {2, cs, r, g, b} for direct RGB (the color-space
// id is ignored). Out-of-range channels reject the whole selector.
func colorFromList(vals []int) (color.Color, bool) {
	if len(vals) == 0 {
		return nil, false
	}
	switch vals[0] {
	case 5:
		if len(vals) < 2 {
			return nil, false
		}
		n := vals[1]
		if n < 0 || n > 255 {
			return nil, false
		}
		return &IndexedColor{Index: n}, true
	case 2:
		var r, g, b int
		switch len(vals) {
		case 4:
			r, g, b = vals[1], vals[2], vals[3]
		case 5:
			// First value is the color-space id; ignored.
			r, g, b = vals[2], vals[3], vals[4]
		default:
			return nil, false
		}
		if r < 0 || r > 255 || g < 0 || g > 255 || b < 0 || b > 255 {
			return nil, false
		}
		return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}, true
	default:
		return nil, false
	}
}
