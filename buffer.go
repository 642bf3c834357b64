package decterm

import (
	"errors"
	"image/color"
)

// ErrBufferAlloc is returned when a resize cannot allocate the new grid; the
// caller keeps the prior geometry.
var ErrBufferAlloc = errors.New("decterm: buffer allocation failed")

// eraseMode selects which protection regime an erase honors.
type eraseMode int

const (
	// eraseHard clears unconditionally (DECALN, RIS, buffer switch).
	eraseHard eraseMode = iota
	// erasePlain is ED/EL/ECH: cells guarded by SPA are skipped.
	erasePlain
	// eraseSelective is DECSED/DECSEL/DECSERA: cells protected by DECSCA
	// are skipped.
	eraseSelective
)

// Buffer stores a 2D grid of lines and tracks the region mutated since the
// renderer last drained it. The primary screen attaches a ScrollbackProvider;
// the alternate screen uses NoopScrollback.
type Buffer struct {
	rows       int
	cols       int
	lines      []Line
	tabStop    []bool
	scrollback ScrollbackProvider

	dirty    Rect
	hasDirty bool

	// onMutate is invoked with every mutated rectangle; the selection
	// module registers here to invalidate overlapping selections.
	onMutate func(Rect)
}

// NewBuffer creates a buffer with the given dimensions and no scrollback.
func NewBuffer(rows, cols int) *Buffer {
	return NewBufferWithStorage(rows, cols, NoopScrollback{})
}

// NewBufferWithStorage creates a buffer with custom scrollback storage.
// Tab stops are initialized every 8 columns.
func NewBufferWithStorage(rows, cols int, storage ScrollbackProvider) *Buffer {
	b := &Buffer{
		rows:       rows,
		cols:       cols,
		lines:      make([]Line, rows),
		tabStop:    make([]bool, cols),
		scrollback: storage,
	}

	for i := range b.lines {
		b.lines[i] = NewLine(cols)
	}

	for i := 0; i < cols; i += 8 {
		b.tabStop[i] = true
	}

	return b
}

// Rows returns the buffer height in character rows.
func (b *Buffer) Rows() int {
	return b.rows
}

// Cols returns the buffer width in character columns.
func (b *Buffer) Cols() int {
	return b.cols
}

// Cell returns a pointer to the cell at (row, col).
// Returns nil if coordinates are out of bounds.
func (b *Buffer) Cell(row, col int) *Cell {
	if row < 0 || row >= b.rows || col < 0 || col >= len(b.lines[row].Cells) {
		return nil
	}
	return &b.lines[row].Cells[col]
}

// Line returns a pointer to the line at row, or nil if out of bounds.
// Renderers read lines through this accessor.
func (b *Buffer) Line(row int) *Line {
	if row < 0 || row >= b.rows {
		return nil
	}
	return &b.lines[row]
}

// SetMutateHook registers the callback invoked with each mutated rectangle.
func (b *Buffer) SetMutateHook(hook func(Rect)) {
	b.onMutate = hook
}

// markDirty widens the dirty rectangle and notifies the mutation hook.
func (b *Buffer) markDirty(r Rect) {
	if r.Empty() {
		return
	}
	if b.hasDirty {
		b.dirty = b.dirty.Union(r)
	} else {
		b.dirty = r
		b.hasDirty = true
	}
	if b.onMutate != nil {
		b.onMutate(r)
	}
}

// HasDirty returns true if anything was mutated since the last ClearDirty.
func (b *Buffer) HasDirty() bool {
	return b.hasDirty
}

// DirtyRect returns the bounding rectangle of all mutations since the last
// ClearDirty. The second result is false when nothing is dirty.
func (b *Buffer) DirtyRect() (Rect, bool) {
	return b.dirty, b.hasDirty
}

// ClearDirty resets the dirty tracking state.
func (b *Buffer) ClearDirty() {
	b.dirty = Rect{}
	b.hasDirty = false
}

// MarkAllDirty marks the whole screen dirty (palette changes, DECSCNM).
func (b *Buffer) MarkAllDirty() {
	b.markDirty(Rect{Top: 0, Left: 0, Bottom: b.rows - 1, Right: b.cols - 1})
}

// erasable reports whether the cell may be cleared under the given regime.
func erasable(c *Cell, mode eraseMode) bool {
	switch mode {
	case erasePlain:
		return !c.HasFlag(CellFlagGuarded)
	case eraseSelective:
		return !c.HasFlag(CellFlagProtected)
	default:
		return true
	}
}

// ClearRegion blanks cells in [startCol, endCol) of row, honoring the erase
// regime and carrying bg into the cleared cells. Wide characters split by
// the region edges lose their other half as well.
func (b *Buffer) ClearRegion(row, startCol, endCol int, bg color.Color, mode eraseMode) {
	if row < 0 || row >= b.rows {
		return
	}
	if startCol < 0 {
		startCol = 0
	}
	if endCol > b.cols {
		endCol = b.cols
	}
	if startCol >= endCol {
		return
	}

	b.splitWideAt(row, startCol)
	b.splitWideAt(row, endCol)

	line := &b.lines[row]
	for col := startCol; col < endCol && col < len(line.Cells); col++ {
		if erasable(&line.Cells[col], mode) {
			line.Cells[col].Erase(bg)
		}
	}
	b.markDirty(Rect{Top: row, Left: startCol, Bottom: row, Right: endCol - 1})
}

// ClearLineFull blanks an entire row. Hard and plain erases also reset its
// double-size code and wrapped flag; a selective erase leaves both.
func (b *Buffer) ClearLineFull(row int, bg color.Color, mode eraseMode) {
	if row < 0 || row >= b.rows {
		return
	}
	b.ClearRegion(row, 0, b.cols, bg, mode)
	if mode == eraseHard || mode == erasePlain {
		b.lines[row].Size = LineSizeSingle
		b.lines[row].Wrapped = false
	}
}

// splitWideAt blanks both halves of a wide character when col falls on its
// right (spacer) half, so edits never leave an orphaned half.
func (b *Buffer) splitWideAt(row, col int) {
	if col <= 0 || col >= b.cols || row < 0 || row >= b.rows {
		return
	}
	line := &b.lines[row]
	if col < len(line.Cells) && line.Cells[col].IsWideSpacer() {
		line.Cells[col-1].Reset()
		line.Cells[col].Reset()
		b.markDirty(Rect{Top: row, Left: col - 1, Bottom: row, Right: col})
	}
}

// blankLine produces a fresh line carrying the given background.
func blankLine(cols int, bg color.Color) Line {
	l := Line{Cells: make([]Cell, cols)}
	for i := range l.Cells {
		l.Cells[i] = NewCell()
		if bg != nil {
			l.Cells[i].Bg = bg
		}
	}
	return l
}

// ScrollUp shifts lines up by n within rows [top, bottom) and columns
// [left, right]. With full-width margins and top == 0, toScrollback routes
// the departing lines into the scrollback provider. Vacated rows are
// blanked with bg.
func (b *Buffer) ScrollUp(top, bottom, left, right, n int, bg color.Color, toScrollback bool) {
	if n <= 0 || top >= bottom {
		return
	}
	if top < 0 {
		top = 0
	}
	if bottom > b.rows {
		bottom = b.rows
	}
	if n > bottom-top {
		n = bottom - top
	}
	fullWidth := left <= 0 && right >= b.cols-1

	if fullWidth {
		if toScrollback && top == 0 && b.scrollback.MaxLines() > 0 {
			for i := 0; i < n; i++ {
				b.scrollback.Push(b.lines[i].Copy())
			}
		}
		for row := top; row < bottom-n; row++ {
			b.lines[row] = b.lines[row+n]
		}
		for row := bottom - n; row < bottom; row++ {
			b.lines[row] = blankLine(b.cols, bg)
		}
		b.markDirty(Rect{Top: top, Left: 0, Bottom: bottom - 1, Right: b.cols - 1})
		return
	}

	// Partial-width scroll: move cells inside the margin rectangle only.
	if left < 0 {
		left = 0
	}
	if right >= b.cols {
		right = b.cols - 1
	}
	for row := top; row < bottom-n; row++ {
		src := b.lines[row+n].Cells
		dst := b.lines[row].Cells
		for col := left; col <= right; col++ {
			dst[col] = src[col].Copy()
		}
	}
	for row := bottom - n; row < bottom; row++ {
		for col := left; col <= right; col++ {
			b.lines[row].Cells[col].Erase(bg)
		}
	}
	b.markDirty(Rect{Top: top, Left: left, Bottom: bottom - 1, Right: right})
}

// ScrollDown shifts lines down by n within rows [top, bottom) and columns
// [left, right]. Vacated top rows are blanked with bg.
func (b *Buffer) ScrollDown(top, bottom, left, right, n int, bg color.Color) {
	if n <= 0 || top >= bottom {
		return
	}
	if top < 0 {
		top = 0
	}
	if bottom > b.rows {
		bottom = b.rows
	}
	if n > bottom-top {
		n = bottom - top
	}
	fullWidth := left <= 0 && right >= b.cols-1

	if fullWidth {
		for row := bottom - 1; row >= top+n; row-- {
			b.lines[row] = b.lines[row-n]
		}
		for row := top; row < top+n; row++ {
			b.lines[row] = blankLine(b.cols, bg)
		}
		b.markDirty(Rect{Top: top, Left: 0, Bottom: bottom - 1, Right: b.cols - 1})
		return
	}

	if left < 0 {
		left = 0
	}
	if right >= b.cols {
		right = b.cols - 1
	}
	for row := bottom - 1; row >= top+n; row-- {
		src := b.lines[row-n].Cells
		dst := b.lines[row].Cells
		for col := left; col <= right; col++ {
			dst[col] = src[col].Copy()
		}
	}
	for row := top; row < top+n; row++ {
		for col := left; col <= right; col++ {
			b.lines[row].Cells[col].Erase(bg)
		}
	}
	b.markDirty(Rect{Top: top, Left: left, Bottom: bottom - 1, Right: right})
}

// ScrollLeft shifts the margin rectangle left by n columns (SL / DECDC),
// blanking the vacated right columns with bg.
func (b *Buffer) ScrollLeft(top, bottom, left, right, n int, bg color.Color) {
	if n <= 0 || left > right {
		return
	}
	if n > right-left+1 {
		n = right - left + 1
	}
	for row := top; row < bottom && row < b.rows; row++ {
		cells := b.lines[row].Cells
		for col := left; col <= right-n; col++ {
			cells[col] = cells[col+n].Copy()
		}
		for col := right - n + 1; col <= right; col++ {
			cells[col].Erase(bg)
		}
	}
	b.markDirty(Rect{Top: top, Left: left, Bottom: bottom - 1, Right: right})
}

// ScrollRight shifts the margin rectangle right by n columns (SR / DECIC),
// blanking the vacated left columns with bg.
func (b *Buffer) ScrollRight(top, bottom, left, right, n int, bg color.Color) {
	if n <= 0 || left > right {
		return
	}
	if n > right-left+1 {
		n = right - left + 1
	}
	for row := top; row < bottom && row < b.rows; row++ {
		cells := b.lines[row].Cells
		for col := right; col >= left+n; col-- {
			cells[col] = cells[col-n].Copy()
		}
		for col := left; col < left+n; col++ {
			cells[col].Erase(bg)
		}
	}
	b.markDirty(Rect{Top: top, Left: left, Bottom: bottom - 1, Right: right})
}

// InsertBlanks inserts n blank cells at (row, col), shifting cells right
// within [col, right]. Characters pushed past right fall off.
func (b *Buffer) InsertBlanks(row, col, n, right int, bg color.Color) {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols || n <= 0 {
		return
	}
	if right >= b.cols {
		right = b.cols - 1
	}
	if col > right {
		return
	}
	if n > right-col+1 {
		n = right - col + 1
	}

	b.splitWideAt(row, col)
	b.splitWideAt(row, right+1)

	cells := b.lines[row].Cells
	for c := right; c >= col+n; c-- {
		cells[c] = cells[c-n].Copy()
	}
	for c := col; c < col+n; c++ {
		cells[c].Erase(bg)
	}
	b.markDirty(Rect{Top: row, Left: col, Bottom: row, Right: right})
}

// DeleteChars removes n cells at (row, col), shifting the remainder of
// [col, right] left and blanking the tail with bg.
func (b *Buffer) DeleteChars(row, col, n, right int, bg color.Color) {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols || n <= 0 {
		return
	}
	if right >= b.cols {
		right = b.cols - 1
	}
	if col > right {
		return
	}
	if n > right-col+1 {
		n = right - col + 1
	}

	b.splitWideAt(row, col)
	b.splitWideAt(row, right+1)

	cells := b.lines[row].Cells
	for c := col; c <= right-n; c++ {
		cells[c] = cells[c+n].Copy()
	}
	for c := right - n + 1; c <= right; c++ {
		cells[c].Erase(bg)
	}
	b.markDirty(Rect{Top: row, Left: col, Bottom: row, Right: right})
}

// Resize changes buffer dimensions, preserving existing content at the
// top-left. Returns ErrBufferAlloc and leaves the buffer untouched when rows
// or cols is not positive.
func (b *Buffer) Resize(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return ErrBufferAlloc
	}

	newLines := make([]Line, rows)
	for i := range newLines {
		newLines[i] = NewLine(cols)
		if i < b.rows {
			src := &b.lines[i]
			ncopy := len(src.Cells)
			if ncopy > cols {
				ncopy = cols
			}
			for j := 0; j < ncopy; j++ {
				newLines[i].Cells[j] = src.Cells[j].Copy()
			}
			newLines[i].Size = src.Size
			newLines[i].Wrapped = src.Wrapped
		}
	}

	newTabStop := make([]bool, cols)
	copy(newTabStop, b.tabStop)
	for i := len(b.tabStop); i < cols; i++ {
		newTabStop[i] = i%8 == 0
	}

	b.lines = newLines
	b.tabStop = newTabStop
	b.rows = rows
	b.cols = cols
	b.MarkAllDirty()
	return nil
}

// PushTopToScrollback moves the top n visible rows into scrollback and
// shifts the remainder up (used when shrinking the primary screen).
func (b *Buffer) PushTopToScrollback(n int) {
	if n <= 0 {
		return
	}
	b.ScrollUp(0, b.rows, 0, b.cols-1, n, nil, true)
}

// --- Tab stops ---

// SetTabStop enables a tab stop at the specified column.
func (b *Buffer) SetTabStop(col int) {
	if col >= 0 && col < b.cols {
		b.tabStop[col] = true
	}
}

// ClearTabStop disables the tab stop at the specified column.
func (b *Buffer) ClearTabStop(col int) {
	if col >= 0 && col < b.cols {
		b.tabStop[col] = false
	}
}

// ClearAllTabStops disables all tab stops.
func (b *Buffer) ClearAllTabStops() {
	for i := range b.tabStop {
		b.tabStop[i] = false
	}
}

// ResetTabStops restores the default stop every 8 columns.
func (b *Buffer) ResetTabStops() {
	for i := range b.tabStop {
		b.tabStop[i] = i%8 == 0
	}
}

// NextTabStop returns the column of the next enabled tab stop after col,
// clamped to limit.
func (b *Buffer) NextTabStop(col, limit int) int {
	if limit >= b.cols {
		limit = b.cols - 1
	}
	for c := col + 1; c <= limit; c++ {
		if b.tabStop[c] {
			return c
		}
	}
	return limit
}

// PrevTabStop returns the column of the previous enabled tab stop before
// col, clamped to limit on the left.
func (b *Buffer) PrevTabStop(col, limit int) int {
	if limit < 0 {
		limit = 0
	}
	for c := col - 1; c >= limit; c-- {
		if b.tabStop[c] {
			return c
		}
	}
	return limit
}

// --- Whole-screen fills ---

// AlignmentFill floods every cell with the given glyph (DECALN pattern).
func (b *Buffer) AlignmentFill(ch rune) {
	for row := range b.lines {
		line := &b.lines[row]
		line.Size = LineSizeSingle
		line.Wrapped = false
		for col := range line.Cells {
			line.Cells[col].Reset()
			line.Cells[col].Char = ch
			line.Cells[col].SetFlag(CellFlagDrawn)
		}
	}
	b.MarkAllDirty()
}

// ClearAll hard-resets every cell, carrying bg into the cleared cells.
func (b *Buffer) ClearAll(bg color.Color) {
	for row := range b.lines {
		b.ClearLineFull(row, bg, eraseHard)
	}
}

// --- Scrollback plumbing ---

// ScrollbackLen returns the number of lines stored in scrollback.
func (b *Buffer) ScrollbackLen() int {
	return b.scrollback.Len()
}

// ScrollbackLine returns a line from scrollback, where 0 is the oldest line.
func (b *Buffer) ScrollbackLine(index int) Line {
	return b.scrollback.Line(index)
}

// ClearScrollback removes all stored scrollback lines (ED 3).
func (b *Buffer) ClearScrollback() {
	b.scrollback.Clear()
}

// SetMaxScrollback sets the maximum number of scrollback lines to retain.
func (b *Buffer) SetMaxScrollback(max int) {
	b.scrollback.SetMaxLines(max)
}

// MaxScrollback returns the current maximum scrollback capacity.
func (b *Buffer) MaxScrollback() int {
	return b.scrollback.MaxLines()
}

// Scrollback returns the storage implementation.
func (b *Buffer) Scrollback() ScrollbackProvider {
	return b.scrollback
}

// SetScrollback replaces the scrollback storage implementation.
func (b *Buffer) SetScrollback(storage ScrollbackProvider) {
	if storage == nil {
		storage = NoopScrollback{}
	}
	b.scrollback = storage
}

// LineContent returns the text content of a line, trimming trailing
// never-drawn cells. Wide character spacers are skipped.
func (b *Buffer) LineContent(row int) string {
	if row < 0 || row >= b.rows {
		return ""
	}
	return lineText(&b.lines[row])
}

// lineText extracts printable text from a line, skipping spacers and
// trimming the trailing not-drawn run.
func lineText(line *Line) string {
	last := -1
	for col := len(line.Cells) - 1; col >= 0; col-- {
		c := &line.Cells[col]
		if c.IsDrawn() && !c.IsWideSpacer() {
			last = col
			break
		}
	}
	if last < 0 {
		return ""
	}

	runes := make([]rune, 0, last+1)
	for col := 0; col <= last; col++ {
		c := &line.Cells[col]
		if c.IsWideSpacer() {
			continue
		}
		if c.Char == 0 {
			runes = append(runes, ' ')
		} else {
			runes = append(runes, c.Char)
		}
		runes = append(runes, c.Combining...)
	}
	return string(runes)
}
