package decterm

// escDispatch routes a completed escape sequence.
func (t *Terminal) escDispatch(inters []byte, final byte) {
	if t.hooks.Esc != nil {
		t.hooks.Esc(inters, final, t.escPerform)
		return
	}
	t.escPerform(inters, final)
}

func (t *Terminal) escPerform(inters []byte, final byte) {
	if len(inters) == 0 {
		switch final {
		case '7': // DECSC
			t.saveCursor()
		case '8': // DECRC
			t.restoreCursor()
		case '=': // DECKPAM
			t.modes.Set(ModeDECNKM, true, true)
		case '>': // DECKPNM
			t.modes.Set(ModeDECNKM, true, false)
		case 'c': // RIS
			t.fullReset()
		case 'D': // IND
			t.index(1)
		case 'E': // NEL
			t.index(1)
			t.carriageReturn()
		case 'F': // cursor to lower left (hpLowerleftBugCompat)
			t.cursor.Row = t.rows - 1
			t.cursor.Col = 0
			t.cursor.WrapPending = false
		case 'H': // HTS
			t.active.SetTabStop(t.cursor.Col)
		case 'M': // RI
			t.reverseIndex(1)
		case 'N': // SS2
			t.charsets.SingleShift(ShiftG2)
		case 'O': // SS3
			t.charsets.SingleShift(ShiftG3)
		case 'V': // SPA
			t.template.SetFlag(CellFlagGuarded)
		case 'W': // EPA
			t.template.ClearFlag(CellFlagGuarded)
		case 'Z': // DECID
			t.replyDA1()
		case 'n': // LS2
			t.charsets.LockShift(2)
		case 'o': // LS3
			t.charsets.LockShift(3)
		case '|': // LS3R
			t.charsets.LockShiftRight(3)
		case '}': // LS2R
			t.charsets.LockShiftRight(2)
		case '~': // LS1R
			t.charsets.LockShiftRight(1)
		}
		return
	}

	switch inters[0] {
	case '#':
		t.escHashDispatch(final)
	case '%':
		switch final {
		case 'G':
			t.parser.SetUTF8(true)
		case '@':
			t.parser.SetUTF8(false)
		}
	case ' ':
		switch final {
		case 'F': // S7C1T: 7-bit control responses
			t.eightBitReply = false
		case 'G': // S8C1T: 8-bit control responses
			if t.level >= 2 {
				t.eightBitReply = true
			}
		}
	}
}

// escHashDispatch handles the ESC # line attribute controls.
func (t *Terminal) escHashDispatch(final byte) {
	switch final {
	case '3': // DECDHL top half
		t.setLineSize(LineSizeTopHalf)
	case '4': // DECDHL bottom half
		t.setLineSize(LineSizeBottomHalf)
	case '5': // DECSWL
		t.setLineSize(LineSizeSingle)
	case '6': // DECDWL
		t.setLineSize(LineSizeDoubleWide)
	case '8': // DECALN
		t.scrollTop = 0
		t.scrollBottom = t.rows
		t.leftMargin = 0
		t.rightMargin = t.cols - 1
		t.active.AlignmentFill('E')
		t.cursor.Row = 0
		t.cursor.Col = 0
		t.cursor.WrapPending = false
	}
}

func (t *Terminal) setLineSize(size LineSize) {
	line := t.active.Line(t.cursor.Row)
	if line == nil || line.Size == size {
		return
	}
	line.Size = size
	t.active.markDirty(Rect{Top: t.cursor.Row, Left: 0, Bottom: t.cursor.Row, Right: t.cols - 1})
}

// scsDispatch designates a charset slot from a completed SCS sequence.
func (t *Terminal) scsDispatch(slot int, percent, is96 bool, final byte) {
	t.charsets.Designate(slot, final, percent, is96, t.modes.Get(ModeDECNRCM, true) || t.level >= 3)
}

// stringDispatch hands a completed SOS/PM/APC payload to its provider.
func (t *Terminal) stringDispatch(kind byte, data []byte) {
	switch kind {
	case 'X':
		t.sosProvider.Receive(data)
	case '^':
		t.pmProvider.Receive(data)
	case '_':
		t.apcProvider.Receive(data)
	}
}

// vt52Dispatch handles VT52-mode escapes while DECANM is reset.
func (t *Terminal) vt52Dispatch(final byte, row, col byte) {
	switch final {
	case 'A':
		t.moveRel(-1, 0)
	case 'B':
		t.moveRel(1, 0)
	case 'C':
		t.moveRel(0, 1)
	case 'D':
		t.moveRel(0, -1)
	case 'F': // enter graphics mode
		t.charsets.G[0] = CharsetDECSpecial
	case 'G': // exit graphics mode
		t.charsets.G[0] = CharsetASCII
	case 'H':
		t.moveTo(0, 0)
	case 'I': // reverse line feed
		t.reverseIndex(1)
	case 'J':
		t.eraseInDisplay(0, erasePlain)
	case 'K':
		t.eraseInLine(0, erasePlain)
	case 'Y': // direct cursor address, offset from 0x20
		t.moveTo(int(row)-0x20, int(col)-0x20)
	case 'Z': // identify: VT52 with no printer
		t.reply("\x1b/Z")
	case '=':
		t.modes.Set(ModeDECNKM, true, true)
	case '>':
		t.modes.Set(ModeDECNKM, true, false)
	case '<': // exit VT52, return to ANSI operation
		t.modes.Set(ModeDECANM, true, true)
		t.parser.SetVT52(false)
	}
}
