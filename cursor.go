package decterm

// CursorStyle determines how the cursor is rendered (DECSCUSR).
type CursorStyle int

const (
	CursorStyleBlinkingBlock CursorStyle = iota
	CursorStyleSteadyBlock
	CursorStyleBlinkingUnderline
	CursorStyleSteadyUnderline
	CursorStyleBlinkingBar
	CursorStyleSteadyBar
)

// Cursor tracks the current position and rendering style (0-based
// coordinates). WrapPending is set after a glyph is written in the last
// writable column; the next printable performs the deferred wrap.
type Cursor struct {
	Row         int
	Col         int
	Style       CursorStyle
	Visible     bool
	WrapPending bool
}

// NewCursor creates a cursor at (0, 0) with blinking block style, visible.
func NewCursor() *Cursor {
	return &Cursor{
		Style:   CursorStyleBlinkingBlock,
		Visible: true,
	}
}

// SavedCursor stores the state captured by DECSC for restoration by DECRC:
// position, cell attributes, charset state, origin mode, selective-erase
// attribute, and the deferred-wrap bit. One record exists per buffer.
type SavedCursor struct {
	Row         int
	Col         int
	Attrs       CellTemplate
	OriginMode  bool
	WrapPending bool
	Charsets    CharsetState
}

// CellTemplate defines default attributes applied to newly written
// characters. Modified by SGR escape sequences.
type CellTemplate struct {
	Cell
}

// NewCellTemplate creates a template with default attributes (default colors, no flags).
func NewCellTemplate() CellTemplate {
	return CellTemplate{
		Cell: NewCell(),
	}
}

// clamp ensures the value is within the given range.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
