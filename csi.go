package decterm

import "fmt"

// csiDispatch routes a completed control sequence to its handler.
// Unknown or malformed sequences are discarded silently: the byte stream is
// hostile input and must never take the emulator down.
func (t *Terminal) csiDispatch(seq *CSISequence) {
	if t.hooks.Csi != nil {
		t.hooks.Csi(seq, t.csiPerform)
		return
	}
	t.csiPerform(seq)
}

func (t *Terminal) csiPerform(seq *CSISequence) {
	// Colon subparameters are only meaningful to SGR; any other final byte
	// receiving them discards the whole sequence.
	if seq.HasSub && seq.Final != 'm' {
		return
	}

	if len(seq.Inters) > 0 {
		t.csiIntermediateDispatch(seq)
		return
	}

	switch seq.Private {
	case '?':
		t.csiPrivateDispatch(seq)
		return
	case '>':
		if seq.Final == 'c' {
			t.replyDA2()
		}
		return
	case '=':
		if seq.Final == 'c' {
			// DECRPTUI: terminal unit ID, all zeros.
			t.reply("\x1bP!|00000000\x1b\\")
		}
		return
	case '<':
		return
	}

	switch seq.Final {
	case '@': // ICH
		t.insertChars(max1(seq.Param(0, 1)))
	case 'A': // CUU
		t.moveRel(-max1(seq.Param(0, 1)), 0)
	case 'B': // CUD
		t.moveRel(max1(seq.Param(0, 1)), 0)
	case 'C': // CUF
		t.moveRel(0, max1(seq.Param(0, 1)))
	case 'D': // CUB
		t.moveRel(0, -max1(seq.Param(0, 1)))
	case 'E': // CNL
		t.moveRel(max1(seq.Param(0, 1)), 0)
		t.carriageReturn()
	case 'F': // CPL
		t.moveRel(-max1(seq.Param(0, 1)), 0)
		t.carriageReturn()
	case 'G': // CHA
		t.cursorToCol(seq.Param(0, 1) - 1)
	case 'H', 'f': // CUP, HVP
		t.moveTo(seq.Param(0, 1)-1, seq.Param(1, 1)-1)
	case 'I': // CHT
		for i := max1(seq.Param(0, 1)); i > 0; i-- {
			t.horizontalTab()
		}
	case 'J': // ED
		t.eraseInDisplay(seq.Param(0, 0), erasePlain)
	case 'K': // EL
		t.eraseInLine(seq.Param(0, 0), erasePlain)
	case 'L': // IL
		t.insertLines(max1(seq.Param(0, 1)))
	case 'M': // DL
		t.deleteLines(max1(seq.Param(0, 1)))
	case 'P': // DCH
		t.deleteChars(max1(seq.Param(0, 1)))
	case 'S': // SU
		t.scrollUp(max1(seq.Param(0, 1)))
	case 'T': // SD
		t.scrollDown(max1(seq.Param(0, 1)))
	case 'X': // ECH
		t.eraseChars(max1(seq.Param(0, 1)))
	case 'Z': // CBT
		for i := max1(seq.Param(0, 1)); i > 0; i-- {
			t.cursor.Col = t.active.PrevTabStop(t.cursor.Col, t.writeLeft())
		}
		t.cursor.WrapPending = false
	case '`': // HPA
		t.cursorToCol(seq.Param(0, 1) - 1)
	case 'a': // HPR
		t.moveRel(0, max1(seq.Param(0, 1)))
	case 'b': // REP
		t.repeatLast(max1(seq.Param(0, 1)))
	case 'c': // DA1
		if seq.Param(0, 0) == 0 {
			t.replyDA1()
		}
	case 'd': // VPA
		t.cursorToRow(seq.Param(0, 1) - 1)
	case 'e': // VPR
		t.moveRel(max1(seq.Param(0, 1)), 0)
	case 'g': // TBC
		switch seq.Param(0, 0) {
		case 0:
			t.active.ClearTabStop(t.cursor.Col)
		case 3:
			t.active.ClearAllTabStops()
		}
	case 'h': // SM
		for _, p := range seq.Params {
			t.setAnsiMode(p.Value, true)
		}
	case 'l': // RM
		for _, p := range seq.Params {
			t.setAnsiMode(p.Value, false)
		}
	case 'm': // SGR
		t.applySGR(seq.Params)
	case 'n': // DSR
		t.deviceStatus(seq.Param(0, 0), false)
	case 'r': // DECSTBM
		t.setScrollRegion(seq.Param(0, 1), seq.Param(1, t.rows))
	case 's': // DECSLRM when DECLRMM is set, SCOSC otherwise
		if t.lrActive() {
			t.setHorizMargins(seq.Param(0, 1), seq.Param(1, t.cols))
		} else {
			t.saveCursor()
		}
	case 't': // window ops / DECSLPP
		t.windowOp(seq)
	case 'u': // SCORC
		t.restoreCursor()
	case 'x': // DECREQTPARM
		sol := seq.Param(0, 0)
		if sol == 0 || sol == 1 {
			t.reply(fmt.Sprintf("\x1b[%d;1;1;128;128;1;0x", sol+2))
		}
	}
}

// csiPrivateDispatch handles the '?'-prefixed controls.
func (t *Terminal) csiPrivateDispatch(seq *CSISequence) {
	switch seq.Final {
	case 'h': // DECSET
		for _, p := range seq.Params {
			t.setDecMode(p.Value, true)
		}
	case 'l': // DECRST
		for _, p := range seq.Params {
			t.setDecMode(p.Value, false)
		}
	case 'J': // DECSED
		t.eraseInDisplay(seq.Param(0, 0), eraseSelective)
	case 'K': // DECSEL
		t.eraseInLine(seq.Param(0, 0), eraseSelective)
	case 'n': // DSR, DEC variants
		t.deviceStatus(seq.Param(0, 0), true)
	case 's': // XTSAVE
		for _, p := range seq.Params {
			t.modes.Save(p.Value)
		}
	case 'r': // XTRESTORE
		for _, p := range seq.Params {
			if on, ok := t.modes.Restore(p.Value); ok {
				t.setDecMode(p.Value, on)
			}
		}
	}
}

// csiIntermediateDispatch handles sequences carrying intermediate bytes.
func (t *Terminal) csiIntermediateDispatch(seq *CSISequence) {
	switch seq.Intermediate() {
	case ' ':
		switch seq.Final {
		case 'q': // DECSCUSR
			t.setCursorStyle(seq.Param(0, 0))
		case '@': // SL
			t.active.ScrollLeft(t.scrollTop, t.scrollBottom, t.writeLeft(), t.writeRight(),
				max1(seq.Param(0, 1)), t.template.Bg)
		case 'A': // SR
			t.active.ScrollRight(t.scrollTop, t.scrollBottom, t.writeLeft(), t.writeRight(),
				max1(seq.Param(0, 1)), t.template.Bg)
		}
	case '!':
		if seq.Final == 'p' { // DECSTR
			t.softReset()
		}
	case '"':
		switch seq.Final {
		case 'p': // DECSCL
			t.setConformance(seq.Param(0, 0), seq.Param(1, 0))
		case 'q': // DECSCA
			switch seq.Param(0, 0) {
			case 1:
				t.template.SetFlag(CellFlagProtected)
			default:
				t.template.ClearFlag(CellFlagProtected)
			}
		}
	case '$':
		switch seq.Final {
		case 'p': // DECRQM
			t.reportMode(seq.Param(0, 0), seq.Private == '?')
		case 'r': // DECCARA
			t.changeRectAttrs(seq, false)
		case 't': // DECRARA
			t.changeRectAttrs(seq, true)
		case 'v': // DECCRA
			t.copyRect(seq)
		case 'w': // DECRQCRA, '?'-prefixed variant
			if seq.Private == '?' {
				t.checksumRect(seq)
			}
		case 'x': // DECFRA
			t.fillRect(seq)
		case 'z': // DECERA
			t.eraseRect(seq, erasePlain)
		case '{': // DECSERA
			t.eraseRect(seq, eraseSelective)
		}
	case '*':
		switch seq.Final {
		case 'x': // DECSACE
			t.rectExtent = seq.Param(0, 0) == 2
		case 'y': // DECRQCRA
			t.checksumRect(seq)
		}
	case '\'':
		switch seq.Final {
		case 'w': // DECEFR: locator filter rectangle; no locator device
		case 'z': // DECELR: enable locator; no locator device
		case '{': // DECSLE: locator events; no locator device
		case '|': // DECRQLP: report no locator
			t.reply("\x1b[0&w")
		}
	}
}

// max1 clamps a count parameter to at least 1.
func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// cursorToCol is CHA/HPA: absolute column on the current row.
func (t *Terminal) cursorToCol(col int) {
	if t.originMode() {
		col += t.writeLeft()
		col = clamp(col, t.writeLeft(), t.writeRight())
	} else {
		col = clamp(col, 0, t.cols-1)
	}
	t.cursor.Col = col
	t.cursor.WrapPending = false
}

// cursorToRow is VPA: absolute row on the current column.
func (t *Terminal) cursorToRow(row int) {
	if t.originMode() {
		row += t.scrollTop
		row = clamp(row, t.scrollTop, t.scrollBottom-1)
	} else {
		row = clamp(row, 0, t.rows-1)
	}
	t.cursor.Row = row
	t.cursor.WrapPending = false
}

// --- Erase operations ---

func (t *Terminal) eraseInDisplay(mode int, em eraseMode) {
	bg := t.template.Bg
	switch mode {
	case 0: // below
		t.active.ClearRegion(t.cursor.Row, t.cursor.Col, t.cols, bg, em)
		for row := t.cursor.Row + 1; row < t.rows; row++ {
			t.active.ClearLineFull(row, bg, em)
		}
	case 1: // above
		for row := 0; row < t.cursor.Row; row++ {
			t.active.ClearLineFull(row, bg, em)
		}
		t.active.ClearRegion(t.cursor.Row, 0, t.cursor.Col+1, bg, em)
	case 2: // all
		for row := 0; row < t.rows; row++ {
			t.active.ClearLineFull(row, bg, em)
		}
	case 3: // saved lines
		if t.active == t.primary {
			t.primary.ClearScrollback()
		}
	}
}

func (t *Terminal) eraseInLine(mode int, em eraseMode) {
	bg := t.template.Bg
	switch mode {
	case 0: // right
		t.active.ClearRegion(t.cursor.Row, t.cursor.Col, t.cols, bg, em)
	case 1: // left
		t.active.ClearRegion(t.cursor.Row, 0, t.cursor.Col+1, bg, em)
	case 2: // all
		t.active.ClearRegion(t.cursor.Row, 0, t.cols, bg, em)
	}
}

// eraseChars is ECH: blank n cells at the cursor without moving it.
func (t *Terminal) eraseChars(n int) {
	end := t.cursor.Col + n
	if end > t.cols {
		end = t.cols
	}
	t.active.ClearRegion(t.cursor.Row, t.cursor.Col, end, t.template.Bg, erasePlain)
}

// --- Insert/delete ---

func (t *Terminal) insertChars(n int) {
	if t.cursor.Col < t.writeLeft() || t.cursor.Col > t.writeRight() {
		return
	}
	t.active.InsertBlanks(t.cursor.Row, t.cursor.Col, n, t.writeRight(), t.template.Bg)
	t.cursor.WrapPending = false
}

func (t *Terminal) deleteChars(n int) {
	if t.cursor.Col < t.writeLeft() || t.cursor.Col > t.writeRight() {
		return
	}
	t.active.DeleteChars(t.cursor.Row, t.cursor.Col, n, t.writeRight(), t.template.Bg)
	t.cursor.WrapPending = false
}

func (t *Terminal) insertLines(n int) {
	if !t.inMargins() {
		return
	}
	t.active.ScrollDown(t.cursor.Row, t.scrollBottom, t.writeLeft(), t.writeRight(), n, t.template.Bg)
	t.cursor.Col = t.writeLeft()
	t.cursor.WrapPending = false
}

func (t *Terminal) deleteLines(n int) {
	if !t.inMargins() {
		return
	}
	t.active.ScrollUp(t.cursor.Row, t.scrollBottom, t.writeLeft(), t.writeRight(), n, t.template.Bg, false)
	t.cursor.Col = t.writeLeft()
	t.cursor.WrapPending = false
}

// --- Margins ---

// setScrollRegion is DECSTBM (1-based, inclusive). A region must span at
// least two rows to take effect; the cursor then homes.
func (t *Terminal) setScrollRegion(top, bottom int) {
	top--
	if bottom > t.rows {
		bottom = t.rows
	}
	if top < 0 {
		top = 0
	}
	if bottom-top < 2 {
		return
	}
	t.scrollTop = top
	t.scrollBottom = bottom
	t.moveTo(0, 0)
}

// setHorizMargins is DECSLRM (1-based, inclusive), honored while DECLRMM
// is set. Margins must differ; the cursor then homes.
func (t *Terminal) setHorizMargins(left, right int) {
	left--
	right--
	if right >= t.cols {
		right = t.cols - 1
	}
	if left < 0 {
		left = 0
	}
	if right-left < 1 {
		return
	}
	t.leftMargin = left
	t.rightMargin = right
	t.moveTo(0, 0)
}

// --- Modes ---

func (t *Terminal) setAnsiMode(code int, on bool) {
	if !t.modes.Set(code, false, on) {
		return
	}
	// IRM, KAM, SRM and LNM need no immediate side effects here: IRM and
	// LNM are consulted on the write path, SRM by the pty echo tap.
}

func (t *Terminal) setDecMode(code int, on bool) {
	switch code {
	case ModeDECANM:
		t.modes.Set(code, true, on)
		t.parser.SetVT52(!on)
		return
	case ModeAltBuffer: // 47: plain switch
		t.modes.Set(code, true, on)
		t.switchBuffer(on, false)
		return
	case ModeAltBufferBis: // 1047: clear alternate on entry
		t.modes.Set(code, true, on)
		t.switchBuffer(on, on)
		return
	case ModeSaveCursor: // 1048: save/restore cursor only
		t.modes.Set(code, true, on)
		if on {
			t.saveCursor()
		} else {
			t.restoreCursor()
		}
		return
	case ModeAltScreen: // 1049: save cursor, switch, clear
		if on == (t.active == t.alternate) {
			// Re-asserting the current buffer is a no-op.
			t.modes.Set(code, true, on)
			return
		}
		t.modes.Set(code, true, on)
		if on {
			t.saveCursor()
			t.switchBuffer(true, true)
		} else {
			t.switchBuffer(false, false)
			t.restoreCursor()
		}
		return
	}

	if !t.modes.Set(code, true, on) {
		return
	}

	switch code {
	case ModeDECCOLM:
		cols := 80
		if on {
			cols = 132
		}
		if !t.modes.Get(ModeDECNCSM, true) {
			t.active.ClearAll(t.template.Bg)
		}
		t.scrollTop = 0
		t.scrollBottom = t.rows
		_ = t.resizeLocked(t.rows, cols)
		t.moveTo(0, 0)
	case ModeDECOM:
		t.moveTo(0, 0)
	case ModeDECSCNM:
		t.active.MarkAllDirty()
	case ModeDECAWM:
		if !on {
			t.cursor.WrapPending = false
		}
	case ModeDECLRMM:
		if on {
			if t.scrollTop == 0 && t.scrollBottom == t.rows {
				t.leftMargin = 0
				t.rightMargin = t.cols - 1
			}
		} else {
			t.leftMargin = 0
			t.rightMargin = t.cols - 1
		}
	}
}

// reportMode replies to DECRQM: CSI Ps; Pm $ y.
func (t *Terminal) reportMode(code int, private bool) {
	val := t.modes.Report(code, private)
	if private {
		t.reply(fmt.Sprintf("\x1b[?%d;%d$y", code, val))
	} else {
		t.reply(fmt.Sprintf("\x1b[%d;%d$y", code, val))
	}
}

// --- Device reports ---

// replyDA1 answers the primary device attributes query for the current
// conformance level with the feature set: 132 columns, printer, selective
// erase, UDK, NRCS, technical characters, windowing, horizontal scroll,
// ANSI color, text locator.
func (t *Terminal) replyDA1() {
	if t.level <= 1 {
		t.reply("\x1b[?1;2c")
		return
	}
	t.reply(fmt.Sprintf("\x1b[?%d;1;2;6;8;9;15;18;21;22;29c", 60+t.level))
}

func (t *Terminal) replyDA2() {
	t.reply("\x1b[>41;330;0c")
}

func (t *Terminal) deviceStatus(n int, private bool) {
	if !private {
		switch n {
		case 5: // operating status: OK
			t.reply("\x1b[0n")
		case 6: // CPR
			row, col := t.cursor.Row, t.cursor.Col
			if t.originMode() {
				row -= t.scrollTop
				col -= t.writeLeft()
			}
			t.reply(fmt.Sprintf("\x1b[%d;%dR", row+1, col+1))
		}
		return
	}

	switch n {
	case 6: // DECXCPR: adds the page number
		row, col := t.cursor.Row, t.cursor.Col
		if t.originMode() {
			row -= t.scrollTop
			col -= t.writeLeft()
		}
		t.reply(fmt.Sprintf("\x1b[?%d;%d;1R", row+1, col+1))
	case 15: // printer: none attached
		t.reply("\x1b[?13n")
	case 25: // UDK: unlocked
		t.reply("\x1b[?20n")
	case 26: // keyboard: North American, ready
		t.reply("\x1b[?27;1;0;0n")
	case 53, 55: // locator: none
		t.reply("\x1b[?53n")
	case 56: // locator type: none
		t.reply("\x1b[?57;0n")
	case 62: // macro space
		t.reply("\x1b[0*{")
	case 63: // memory checksum (DECCKSR)
		t.reply("\x1bP0!~0000\x1b\\")
	case 75: // data integrity: ready, no errors
		t.reply("\x1b[?70n")
	case 85: // multi-session: not configured
		t.reply("\x1b[?83n")
	}
}

// setConformance is DECSCL: switch the operating level (61-65) and the
// C1 transmission mode. Changing level performs a soft reset.
func (t *Terminal) setConformance(level, c1 int) {
	if level < 61 || level > 65 {
		return
	}
	t.softReset()
	t.parser.ResetState()
	t.level = level - 60
	// Second parameter: 0 or 2 selects 8-bit responses, 1 selects 7-bit.
	t.eightBitReply = t.level >= 2 && c1 != 1
}

func (t *Terminal) setCursorStyle(n int) {
	switch n {
	case 0, 1:
		t.cursor.Style = CursorStyleBlinkingBlock
	case 2:
		t.cursor.Style = CursorStyleSteadyBlock
	case 3:
		t.cursor.Style = CursorStyleBlinkingUnderline
	case 4:
		t.cursor.Style = CursorStyleSteadyUnderline
	case 5:
		t.cursor.Style = CursorStyleBlinkingBar
	case 6:
		t.cursor.Style = CursorStyleSteadyBar
	}
}

// --- Window operations (CSI t) ---

// windowOp handles the xterm window manipulation set. The text-area size
// report (18) and the title stack push/pop (22/23) are always honored; every
// other operation, including the screen-size report (19) and DECSLPP, is
// gated behind the allow-window-ops policy. With no window system attached, movement and stacking requests are accepted and
// ignored; size reports answer from the cell grid with a nominal 10x20
// pixel cell.
func (t *Terminal) windowOp(seq *CSISequence) {
	op := seq.Param(0, 0)

	// DECSLPP: any value >= 24 sets the number of lines.
	if op >= 24 {
		if t.allowWindowOps {
			_ = t.resizeLocked(op, t.cols)
		}
		return
	}

	switch op {
	case 18: // text area size in characters
		t.reply(fmt.Sprintf("\x1b[8;%d;%dt", t.rows, t.cols))
		return
	case 22: // push title
		t.titleStack = append(t.titleStack, titleEntry{title: t.title, icon: t.iconTitle})
		return
	case 23: // pop title
		if n := len(t.titleStack); n > 0 {
			e := t.titleStack[n-1]
			t.titleStack = t.titleStack[:n-1]
			t.title = e.title
			t.iconTitle = e.icon
			t.titleProvider.SetTitle(t.title)
			t.titleProvider.SetIconTitle(t.iconTitle)
		}
		return
	}

	if !t.allowWindowOps {
		return
	}

	switch op {
	case 1, 2, 3, 5, 6, 7, 9, 10: // de/iconify, raise, lower, refresh, ...
		// Accepted; no window system to act on.
	case 4: // resize in pixels
		h, w := seq.Param(1, 0), seq.Param(2, 0)
		if h > 0 && w > 0 {
			_ = t.resizeLocked(h/20, w/10)
		}
	case 8: // resize in characters
		rows, cols := seq.Param(1, t.rows), seq.Param(2, t.cols)
		if rows > 0 && cols > 0 {
			_ = t.resizeLocked(rows, cols)
		}
	case 11: // window state
		t.reply("\x1b[1t")
	case 13: // window position
		t.reply("\x1b[3;0;0t")
	case 14: // text area size in pixels
		t.reply(fmt.Sprintf("\x1b[4;%d;%dt", t.rows*20, t.cols*10))
	case 16: // cell size in pixels
		t.reply("\x1b[6;20;10t")
	case 19: // screen size in characters
		t.reply(fmt.Sprintf("\x1b[9;%d;%dt", t.rows, t.cols))
	case 20: // icon label
		t.reply("\x1b]L" + t.iconTitle + "\x1b\\")
	case 21: // window title
		t.reply("\x1b]l" + t.title + "\x1b\\")
	}
}
