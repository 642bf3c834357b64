package decterm

import (
	"fmt"
	"image/color"
)

// SnapshotDetail specifies the level of detail in a snapshot.
type SnapshotDetail string

const (
	// SnapshotDetailText returns plain text only.
	SnapshotDetailText SnapshotDetail = "text"
	// SnapshotDetailStyled returns text with style segments per line.
	SnapshotDetailStyled SnapshotDetail = "styled"
)

// Snapshot represents a complete terminal screen capture, suitable for
// serialization or HTML rendering.
type Snapshot struct {
	Size   SnapshotSize   `json:"size"`
	Cursor SnapshotCursor `json:"cursor"`
	Lines  []SnapshotLine `json:"lines"`
}

// SnapshotSize holds terminal dimensions.
type SnapshotSize struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// SnapshotCursor holds cursor state.
type SnapshotCursor struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Visible bool   `json:"visible"`
	Style   string `json:"style"`
}

// SnapshotLine represents a single line in the snapshot.
type SnapshotLine struct {
	Text     string            `json:"text"`
	Wrapped  bool              `json:"wrapped,omitempty"`
	Segments []SnapshotSegment `json:"segments,omitempty"`
}

// SnapshotSegment represents a run of equally styled text within a line.
type SnapshotSegment struct {
	Text  string        `json:"text"`
	Fg    string        `json:"fg,omitempty"`
	Bg    string        `json:"bg,omitempty"`
	Attrs SnapshotAttrs `json:"attrs,omitempty"`
}

// SnapshotAttrs lists the rendition attributes of a segment.
type SnapshotAttrs struct {
	Bold            bool `json:"bold,omitempty"`
	Faint           bool `json:"faint,omitempty"`
	Italic          bool `json:"italic,omitempty"`
	Underline       bool `json:"underline,omitempty"`
	DoubleUnderline bool `json:"double_underline,omitempty"`
	Blink           bool `json:"blink,omitempty"`
	Inverse         bool `json:"inverse,omitempty"`
	Invisible       bool `json:"invisible,omitempty"`
	Strikeout       bool `json:"strikeout,omitempty"`
}

func cursorStyleName(s CursorStyle) string {
	switch s {
	case CursorStyleSteadyBlock:
		return "steady-block"
	case CursorStyleBlinkingUnderline:
		return "blinking-underline"
	case CursorStyleSteadyUnderline:
		return "steady-underline"
	case CursorStyleBlinkingBar:
		return "blinking-bar"
	case CursorStyleSteadyBar:
		return "steady-bar"
	default:
		return "blinking-block"
	}
}

// colorString renders a color reference as a stable string for snapshots:
// "" for defaults, "N" for palette indices, "#rrggbb" for direct RGB.
func colorString(c color.Color) string {
	switch v := c.(type) {
	case nil:
		return ""
	case *NamedColor:
		return ""
	case *IndexedColor:
		return fmt.Sprintf("%d", v.Index)
	case color.RGBA:
		return fmt.Sprintf("#%02x%02x%02x", v.R, v.G, v.B)
	default:
		return ""
	}
}

func snapshotAttrs(f CellFlags) SnapshotAttrs {
	return SnapshotAttrs{
		Bold:            f&CellFlagBold != 0,
		Faint:           f&CellFlagFaint != 0,
		Italic:          f&CellFlagItalic != 0,
		Underline:       f&CellFlagUnderline != 0,
		DoubleUnderline: f&CellFlagDoubleUnderline != 0,
		Blink:           f&CellFlagBlink != 0,
		Inverse:         f&CellFlagInverse != 0,
		Invisible:       f&CellFlagInvisible != 0,
		Strikeout:       f&CellFlagStrikeout != 0,
	}
}

// styleAttrMask covers the flags that split styled segments.
const styleAttrMask = CellFlagBold | CellFlagFaint | CellFlagItalic |
	CellFlagUnderline | CellFlagDoubleUnderline | CellFlagBlink |
	CellFlagInverse | CellFlagInvisible | CellFlagStrikeout

// Snapshot captures the visible screen at the requested detail level.
func (t *Terminal) Snapshot(detail SnapshotDetail) *Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := &Snapshot{
		Size: SnapshotSize{Rows: t.rows, Cols: t.cols},
		Cursor: SnapshotCursor{
			Row:     t.cursor.Row,
			Col:     t.cursor.Col,
			Visible: t.modes.Get(ModeDECTCEM, true),
			Style:   cursorStyleName(t.cursor.Style),
		},
	}

	for row := 0; row < t.rows; row++ {
		line := t.active.Line(row)
		sl := SnapshotLine{
			Text:    lineText(line),
			Wrapped: line.Wrapped,
		}
		if detail == SnapshotDetailStyled {
			sl.Segments = styledSegments(line)
		}
		snap.Lines = append(snap.Lines, sl)
	}
	return snap
}

// styledSegments groups a line into runs of identical style.
func styledSegments(line *Line) []SnapshotSegment {
	var segs []SnapshotSegment
	var cur *SnapshotSegment
	var curFlags CellFlags
	var curFg, curBg color.Color

	for col := 0; col < len(line.Cells); col++ {
		c := &line.Cells[col]
		if c.IsWideSpacer() {
			continue
		}
		ch := c.Char
		if ch == 0 {
			ch = ' '
		}

		flags := c.Flags & styleAttrMask
		if cur == nil || flags != curFlags || !sameColor(c.Fg, curFg) || !sameColor(c.Bg, curBg) {
			segs = append(segs, SnapshotSegment{
				Fg:    colorString(c.Fg),
				Bg:    colorString(c.Bg),
				Attrs: snapshotAttrs(c.Flags),
			})
			cur = &segs[len(segs)-1]
			curFlags = flags
			curFg = c.Fg
			curBg = c.Bg
		}
		cur.Text += string(ch)
		for _, m := range c.Combining {
			cur.Text += string(m)
		}
	}
	return segs
}
