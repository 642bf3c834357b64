package decterm

import "fmt"

// Rectangular area operations (DECCRA, DECFRA, DECERA, DECSERA, DECCARA,
// DECRARA, DECRQCRA). These are VT level 4 features; below that level the
// sequences are ignored. Coordinates on the wire are 1-based and honor
// origin mode.

// rectFromParams decodes the four rectangle parameters starting at params[i]
// (top;left;bottom;right), applying origin offsets, clamping to the screen,
// and defaulting missing edges to the full screen.
func (t *Terminal) rectFromParams(seq *CSISequence, i int) (Rect, bool) {
	top := seq.Param(i, 1) - 1
	left := seq.Param(i+1, 1) - 1
	bottom := seq.Param(i+2, t.rows) - 1
	right := seq.Param(i+3, t.cols) - 1

	if t.originMode() {
		top += t.scrollTop
		bottom += t.scrollTop
		left += t.writeLeft()
		right += t.writeLeft()
	}

	top = clamp(top, 0, t.rows-1)
	bottom = clamp(bottom, 0, t.rows-1)
	left = clamp(left, 0, t.cols-1)
	right = clamp(right, 0, t.cols-1)

	r := Rect{Top: top, Left: left, Bottom: bottom, Right: right}
	return r, !r.Empty()
}

// fillRect is DECFRA: CSI Pch;Pt;Pl;Pb;Pr $ x. Fills the rectangle with the
// given character carrying the current SGR attributes.
func (t *Terminal) fillRect(seq *CSISequence) {
	if t.level < 4 {
		return
	}
	ch := rune(seq.Param(0, 0))
	// Only printable characters are legal fills.
	if !(ch >= 0x20 && ch <= 0x7E) && !(ch >= 0xA0 && ch <= 0xFF) {
		return
	}
	r, ok := t.rectFromParams(seq, 1)
	if !ok {
		return
	}

	for row := r.Top; row <= r.Bottom; row++ {
		t.active.splitWideAt(row, r.Left)
		t.active.splitWideAt(row, r.Right+1)
		for col := r.Left; col <= r.Right; col++ {
			cell := t.active.Cell(row, col)
			if cell == nil {
				continue
			}
			cell.Char = ch
			cell.Combining = nil
			cell.Fg = t.template.Fg
			cell.Bg = t.template.Bg
			cell.Flags = t.template.Flags | CellFlagDrawn
			cell.ClearFlag(CellFlagWideChar | CellFlagWideCharSpacer)
		}
	}
	t.active.markDirty(r)
}

// eraseRect is DECERA ($ z) and DECSERA ($ {): blank the rectangle, the
// selective form skipping DECSCA-protected cells.
func (t *Terminal) eraseRect(seq *CSISequence, em eraseMode) {
	if t.level < 4 {
		return
	}
	r, ok := t.rectFromParams(seq, 0)
	if !ok {
		return
	}
	for row := r.Top; row <= r.Bottom; row++ {
		t.active.ClearRegion(row, r.Left, r.Right+1, t.template.Bg, em)
	}
}

// copyRect is DECCRA ($ v): copy a source rectangle to a destination corner.
// Pages are accepted and ignored (a single page is emulated). The copy is
// performed through a snapshot, so overlapping regions behave as an atomic
// move and copying a rectangle onto itself is a no-op.
func (t *Terminal) copyRect(seq *CSISequence) {
	if t.level < 4 {
		return
	}
	src, ok := t.rectFromParams(seq, 0)
	if !ok {
		return
	}
	// Params: Pts;Pls;Pbs;Prs;Pps;Ptd;Pld;Ppd
	dstTop := seq.Param(5, 1) - 1
	dstLeft := seq.Param(6, 1) - 1
	if t.originMode() {
		dstTop += t.scrollTop
		dstLeft += t.writeLeft()
	}
	if dstTop < 0 || dstLeft < 0 || dstTop >= t.rows || dstLeft >= t.cols {
		return
	}

	height := src.Bottom - src.Top + 1
	width := src.Right - src.Left + 1

	snapshot := make([][]Cell, height)
	for i := 0; i < height; i++ {
		snapshot[i] = make([]Cell, width)
		for j := 0; j < width; j++ {
			if cell := t.active.Cell(src.Top+i, src.Left+j); cell != nil {
				snapshot[i][j] = cell.Copy()
			}
		}
	}

	for i := 0; i < height; i++ {
		row := dstTop + i
		if row >= t.rows {
			break
		}
		for j := 0; j < width; j++ {
			col := dstLeft + j
			if col >= t.cols {
				break
			}
			if cell := t.active.Cell(row, col); cell != nil {
				*cell = snapshot[i][j].Copy()
			}
		}
	}
	t.active.markDirty(Rect{
		Top: dstTop, Left: dstLeft,
		Bottom: clamp(dstTop+height-1, 0, t.rows-1),
		Right:  clamp(dstLeft+width-1, 0, t.cols-1),
	})
}

// rectAttrFlags maps the SGR subset DECCARA/DECRARA operate on.
func rectAttrFlags(p int) (CellFlags, bool) {
	switch p {
	case 1:
		return CellFlagBold, true
	case 4:
		return CellFlagUnderline, true
	case 5:
		return CellFlagBlink, true
	case 7:
		return CellFlagInverse, true
	}
	return 0, false
}

// changeRectAttrs is DECCARA ($ r, set/clear) and DECRARA ($ t, reverse).
// The attribute parameters follow the rectangle; only bold, underline,
// blink and inverse participate. DECSACE selects whether the change covers
// the exact rectangle or the stream between its corners.
func (t *Terminal) changeRectAttrs(seq *CSISequence, reverse bool) {
	if t.level < 4 {
		return
	}
	r, ok := t.rectFromParams(seq, 0)
	if !ok {
		return
	}

	var setMask, clearMask CellFlags
	var reverseMask CellFlags
	all := false
	for i := 4; i < len(seq.Params); i++ {
		p := seq.Params[i].Value
		if p <= 0 {
			all = true
			continue
		}
		if flag, ok := rectAttrFlags(p); ok {
			if reverse {
				reverseMask |= flag
			} else {
				setMask |= flag
			}
			continue
		}
		switch p {
		case 22:
			clearMask |= CellFlagBold
		case 24:
			clearMask |= CellFlagUnderline
		case 25:
			clearMask |= CellFlagBlink
		case 27:
			clearMask |= CellFlagInverse
		}
	}
	if all && !reverse {
		clearMask |= CellFlagBold | CellFlagUnderline | CellFlagBlink | CellFlagInverse
	}
	if all && reverse {
		reverseMask |= CellFlagBold | CellFlagUnderline | CellFlagBlink | CellFlagInverse
	}

	t.forEachRectCell(r, func(cell *Cell) {
		cell.Flags |= setMask
		cell.Flags &^= clearMask
		cell.Flags ^= reverseMask
	})
	t.active.markDirty(r)
}

// forEachRectCell visits the cells DECSACE selects: the exact rectangle, or
// the reading-order stream between the two corners.
func (t *Terminal) forEachRectCell(r Rect, f func(*Cell)) {
	if t.rectExtent {
		for row := r.Top; row <= r.Bottom; row++ {
			for col := r.Left; col <= r.Right; col++ {
				if cell := t.active.Cell(row, col); cell != nil {
					f(cell)
				}
			}
		}
		return
	}
	for row := r.Top; row <= r.Bottom; row++ {
		start, end := 0, t.cols-1
		if row == r.Top {
			start = r.Left
		}
		if row == r.Bottom {
			end = r.Right
		}
		for col := start; col <= end; col++ {
			if cell := t.active.Cell(row, col); cell != nil {
				f(cell)
			}
		}
	}
}

// checksumRect is DECRQCRA (* y): report a 16-bit negated checksum of the
// rectangle. The sum covers each cell's codepoint plus attribute weights, so
// two successive queries over unchanged cells always agree.
func (t *Terminal) checksumRect(seq *CSISequence) {
	if t.level < 4 {
		return
	}
	id := seq.Param(0, 0)
	// Param 1 is the page; a single page is emulated.
	r, ok := t.rectFromParams(seq, 2)
	if !ok {
		t.reply(fmt.Sprintf("\x1bP%d!~0000\x1b\\", id))
		return
	}

	var sum uint16
	for row := r.Top; row <= r.Bottom; row++ {
		for col := r.Left; col <= r.Right; col++ {
			cell := t.active.Cell(row, col)
			if cell == nil || cell.IsWideSpacer() {
				continue
			}
			ch := cell.Char
			if !cell.IsDrawn() {
				ch = ' '
			}
			sum += uint16(ch & 0xFFFF)
			if cell.HasFlag(CellFlagUnderline) {
				sum += 0x10
			}
			if cell.HasFlag(CellFlagInverse) {
				sum += 0x20
			}
			if cell.HasFlag(CellFlagBlink) {
				sum += 0x40
			}
			if cell.HasFlag(CellFlagBold) {
				sum += 0x80
			}
		}
	}
	t.reply(fmt.Sprintf("\x1bP%d!~%04X\x1b\\", id, -sum&0xFFFF))
}
