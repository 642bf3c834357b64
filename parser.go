package decterm

import "unicode/utf8"

// maxParams is the CSI/DCS parameter limit; further parameters are dropped.
const maxParams = 16

// maxParamValue caps each numeric parameter.
const maxParamValue = 65535

// maxStringLen bounds OSC/DCS/SOS/PM/APC payload accumulation. Bytes beyond
// the bound are discarded until the terminator, leaving state unchanged.
const maxStringLen = 1 << 20

// Param is one CSI parameter with optional colon-separated subparameters.
// A Value of -1 means the parameter was omitted.
type Param struct {
	Value int
	Sub   []int
}

// CSISequence carries a parsed control sequence to the dispatcher.
type CSISequence struct {
	// Private is the parameter-intro byte ('?', '>', '=') or 0.
	Private byte
	// Inters holds intermediate bytes (0x20-0x2F) in arrival order.
	Inters []byte
	// Params holds the collected parameters.
	Params []Param
	// Final is the terminating byte (0x40-0x7E).
	Final byte
	// HasSub is set when any parameter carried colon subparameters.
	HasSub bool
}

// Param returns the i-th parameter value, or def when omitted or absent.
func (s *CSISequence) Param(i, def int) int {
	if i >= len(s.Params) || s.Params[i].Value < 0 {
		return def
	}
	return s.Params[i].Value
}

// Intermediate returns the single intermediate byte, or 0 when there are
// none or several.
func (s *CSISequence) Intermediate() byte {
	if len(s.Inters) == 1 {
		return s.Inters[0]
	}
	return 0
}

// performer receives the parser's decoded actions. *Terminal implements it;
// tests substitute a recorder. The methods run synchronously from Parse
// under the terminal's lock.
type performer interface {
	// print draws one decoded graphic codepoint at the cursor.
	print(r rune)
	// execute runs a C0 or C1 control.
	execute(b byte)
	// escDispatch handles a completed escape sequence.
	escDispatch(inters []byte, final byte)
	// csiDispatch handles a completed control sequence.
	csiDispatch(seq *CSISequence)
	// oscDispatch handles a completed operating system command.
	oscDispatch(payload []byte, bel bool)
	// dcsDispatch handles a completed device control string.
	dcsDispatch(seq *CSISequence, data []byte)
	// stringDispatch handles a completed SOS ('X'), PM ('^') or APC ('_') string.
	stringDispatch(kind byte, data []byte)
	// scsDispatch designates a charset slot from an SCS sequence.
	scsDispatch(slot int, percent, is96 bool, final byte)
	// vt52Dispatch handles a VT52-mode escape; row/col are only meaningful
	// for the 'Y' direct-address form.
	vt52Dispatch(final byte, row, col byte)
}

type parserState int

const (
	stateGround parserState = iota
	stateEscape
	stateEscIntermediate
	stateCSIEntry
	stateCSIParam
	stateCSIIntermediate
	stateCSIIgnore
	stateDCSEntry
	stateDCSParam
	stateDCSIntermediate
	stateDCSPassthrough
	stateDCSIgnore
	stateOSCString
	stateSosPmApcString
	stateSCSSelect
	stateVT52Escape
	stateVT52Row
	stateVT52Col
)

// Parser is the byte-level state machine. It decodes UTF-8 (when enabled),
// recognizes C0/C1 controls and ESC/CSI/DCS/OSC/SOS/PM/APC sequences, and
// hands completed actions to its performer. It never blocks and never fails:
// malformed input is discarded and the machine returns to ground.
type Parser struct {
	perf performer

	state parserState

	// CSI/DCS collection
	private   byte
	inters    []byte
	params    []Param
	curVal    int
	curHasVal bool
	curSub    []int
	inSub     bool
	hasSub    bool
	trailSep  bool

	// String collection
	strBuf  []byte
	strKind byte // 'X', '^', '_' while in SOS/PM/APC
	strOver bool
	oscEsc  bool // saw ESC inside a string state, expecting ST
	dcsSeq  *CSISequence

	// SCS collection
	scsSlot    int
	scsIs96    bool
	scsPercent bool

	// VT52 direct addressing
	vt52Row byte

	// UTF-8 assembly
	utf8Buf  [utf8.UTFMax]byte
	utf8Len  int
	utf8Need int

	// Modes and compatibility switches
	utf8Mode bool
	vt52Mode bool
	// c1Printable treats 0x80-0x9F as printable instead of C1 controls.
	c1Printable bool
	// brokenLinuxOSC terminates the Linux palette OSC ("P nrrggbb") after a
	// fixed payload and resets on "R", for clients that never send ST.
	brokenLinuxOSC bool
	// brokenStringTerm aborts OSC/DCS strings on any C0 control, for legacy
	// applications that end strings with a bare CR or LF.
	brokenStringTerm bool
}

// NewParser creates a parser in ground state feeding the given performer.
// UTF-8 decoding starts enabled.
func NewParser(p performer) *Parser {
	return &Parser{
		perf:     p,
		utf8Mode: true,
	}
}

// ResetState returns the machine to ground and drops any partial sequence.
// Used by RIS and DECSCL.
func (p *Parser) ResetState() {
	p.state = stateGround
	p.utf8Need = 0
	p.utf8Len = 0
	p.strBuf = nil
	p.strOver = false
	p.oscEsc = false
	p.dcsSeq = nil
	p.clearSequence()
}

// InGround reports whether the machine is in ground with no pending string
// state (used to defer whole-screen repaints).
func (p *Parser) InGround() bool {
	return p.state == stateGround && p.utf8Need == 0
}

// SetUTF8 switches UTF-8 decoding (ESC % G / ESC % @).
func (p *Parser) SetUTF8(on bool) {
	p.utf8Mode = on
	p.utf8Need = 0
	p.utf8Len = 0
}

// UTF8 reports whether UTF-8 decoding is active.
func (p *Parser) UTF8() bool {
	return p.utf8Mode
}

// SetVT52 switches VT52 mode (DECANM).
func (p *Parser) SetVT52(on bool) {
	p.vt52Mode = on
	p.state = stateGround
}

// SetC1Printable treats 0x80-0x9F as printable text instead of C1 controls.
func (p *Parser) SetC1Printable(on bool) {
	p.c1Printable = on
}

// SetBrokenLinuxOSC enables early termination of Linux palette OSCs.
func (p *Parser) SetBrokenLinuxOSC(on bool) {
	p.brokenLinuxOSC = on
}

// SetBrokenStringTerm makes any C0 control terminate OSC/DCS strings.
func (p *Parser) SetBrokenStringTerm(on bool) {
	p.brokenStringTerm = on
}

// Parse consumes a chunk of host output. Sequences may span chunk
// boundaries; parsing is byte-for-byte identical however the input is split.
func (p *Parser) Parse(data []byte) {
	for _, b := range data {
		p.advance(b)
	}
}

func (p *Parser) clearSequence() {
	p.private = 0
	p.inters = p.inters[:0]
	p.params = p.params[:0]
	p.curVal = 0
	p.curHasVal = false
	p.curSub = nil
	p.inSub = false
	p.hasSub = false
	p.trailSep = false
}

func (p *Parser) advance(b byte) {
	// UTF-8 assembly runs below the state machine: continuation bytes
	// complete a pending codepoint, which is then delivered as a whole.
	if p.utf8Need > 0 {
		if b&0xC0 == 0x80 {
			p.utf8Buf[p.utf8Len] = b
			p.utf8Len++
			p.utf8Need--
			if p.utf8Need == 0 {
				r, _ := utf8.DecodeRune(p.utf8Buf[:p.utf8Len])
				p.utf8Len = 0
				p.advanceRune(r)
			}
			return
		}
		// Truncated sequence: emit a replacement and reprocess the byte.
		p.utf8Need = 0
		p.utf8Len = 0
		p.advanceRune(utf8.RuneError)
	}

	if p.utf8Mode && b >= 0xC2 && b <= 0xF4 {
		p.utf8Buf[0] = b
		p.utf8Len = 1
		switch {
		case b >= 0xF0:
			p.utf8Need = 3
		case b >= 0xE0:
			p.utf8Need = 2
		default:
			p.utf8Need = 1
		}
		return
	}
	if p.utf8Mode && b >= 0x80 && b < 0xC2 {
		// Stray continuation or overlong start byte.
		p.advanceRune(utf8.RuneError)
		return
	}

	p.advanceRune(rune(b))
}

// advanceRune drives the state machine with one decoded codepoint.
// Codepoints above 0xFF only occur in UTF-8 mode.
func (p *Parser) advanceRune(r rune) {
	// CAN and SUB abort any sequence in progress from every state.
	if r == 0x18 || r == 0x1A {
		if r == 0x1A {
			p.perf.execute(0x1A)
		}
		p.state = stateGround
		p.dcsSeq = nil
		p.strBuf = nil
		return
	}

	// C1 controls act from any state in 8-bit operation.
	if r >= 0x80 && r <= 0x9F && !p.c1Printable {
		p.executeC1(byte(r))
		return
	}

	switch p.state {
	case stateGround:
		p.ground(r)
	case stateEscape:
		p.escape(r)
	case stateEscIntermediate:
		p.escIntermediate(r)
	case stateCSIEntry, stateCSIParam:
		p.csiParam(r)
	case stateCSIIntermediate:
		p.csiIntermediate(r)
	case stateCSIIgnore:
		p.csiIgnore(r)
	case stateDCSEntry, stateDCSParam:
		p.dcsParam(r)
	case stateDCSIntermediate:
		p.dcsIntermediate(r)
	case stateDCSPassthrough:
		p.dcsPassthrough(r)
	case stateDCSIgnore:
		p.stringIgnore(r)
	case stateOSCString:
		p.oscString(r)
	case stateSosPmApcString:
		p.sosPmApcString(r)
	case stateSCSSelect:
		p.scsSelect(r)
	case stateVT52Escape:
		p.vt52Escape(r)
	case stateVT52Row:
		p.vt52Row = byte(r)
		p.state = stateVT52Col
	case stateVT52Col:
		row := p.vt52Row
		p.state = stateGround
		p.perf.vt52Dispatch('Y', row, byte(r))
	}
}

func (p *Parser) executeC1(b byte) {
	switch b {
	case 0x90: // DCS
		p.state = stateDCSEntry
		p.clearSequence()
	case 0x9B: // CSI
		p.state = stateCSIEntry
		p.clearSequence()
	case 0x9D: // OSC
		p.state = stateOSCString
		p.strBuf = p.strBuf[:0]
		p.strOver = false
		p.oscEsc = false
	case 0x98, 0x9E, 0x9F: // SOS, PM, APC
		p.state = stateSosPmApcString
		switch b {
		case 0x98:
			p.strKind = 'X'
		case 0x9E:
			p.strKind = '^'
		default:
			p.strKind = '_'
		}
		p.strBuf = p.strBuf[:0]
		p.strOver = false
		p.oscEsc = false
	case 0x9C: // ST terminates string states; stray ST is ignored
		p.terminateString(false)
	default:
		p.state = stateGround
		p.perf.execute(b)
	}
}

func (p *Parser) ground(r rune) {
	switch {
	case r == 0x1B:
		if p.vt52Mode {
			p.state = stateVT52Escape
		} else {
			p.state = stateEscape
			p.clearSequence()
		}
	case r < 0x20 || r == 0x7F:
		p.perf.execute(byte(r))
	default:
		p.perf.print(r)
	}
}

func (p *Parser) escape(r rune) {
	switch {
	case r < 0x20 || r == 0x7F:
		// Controls execute without leaving the escape state.
		p.perf.execute(byte(r))
	case r >= 0x20 && r <= 0x2F:
		// Intermediates: the charset designators get their own state so a
		// following '%' prefix can be collected.
		switch byte(r) {
		case '(', ')', '*', '+':
			p.scsSlot = int(r - '(')
			p.scsIs96 = false
			p.scsPercent = false
			p.state = stateSCSSelect
		case '-', '.', '/':
			p.scsSlot = int(r-'-') + 1
			p.scsIs96 = true
			p.scsPercent = false
			p.state = stateSCSSelect
		default:
			p.inters = append(p.inters, byte(r))
			p.state = stateEscIntermediate
		}
	case r == '[':
		p.state = stateCSIEntry
		p.clearSequence()
	case r == ']':
		p.state = stateOSCString
		p.strBuf = p.strBuf[:0]
		p.strOver = false
		p.oscEsc = false
	case r == 'P':
		p.state = stateDCSEntry
		p.clearSequence()
	case r == 'X', r == '^', r == '_':
		p.state = stateSosPmApcString
		p.strKind = byte(r)
		p.strBuf = p.strBuf[:0]
		p.strOver = false
		p.oscEsc = false
	case r >= 0x30 && r <= 0x7E:
		p.state = stateGround
		p.perf.escDispatch(nil, byte(r))
	default:
		p.state = stateGround
	}
}

func (p *Parser) escIntermediate(r rune) {
	switch {
	case r < 0x20 || r == 0x7F:
		p.perf.execute(byte(r))
	case r >= 0x20 && r <= 0x2F:
		p.inters = append(p.inters, byte(r))
	case r >= 0x30 && r <= 0x7E:
		inters := append([]byte(nil), p.inters...)
		p.state = stateGround
		p.perf.escDispatch(inters, byte(r))
	default:
		p.state = stateGround
	}
}

func (p *Parser) scsSelect(r rune) {
	switch {
	case r == '%' && !p.scsPercent:
		p.scsPercent = true
	case r >= 0x30 && r <= 0x7E:
		slot, percent, is96 := p.scsSlot, p.scsPercent, p.scsIs96
		p.state = stateGround
		p.perf.scsDispatch(slot, percent, is96, byte(r))
	case r < 0x20:
		p.perf.execute(byte(r))
	default:
		p.state = stateGround
	}
}

// pushParam finishes the parameter (or subparameter) under construction.
func (p *Parser) pushParam() {
	val := -1
	if p.curHasVal {
		val = p.curVal
	}
	if p.inSub {
		p.curSub = append(p.curSub, val)
		return
	}
	if len(p.params) < maxParams {
		p.params = append(p.params, Param{Value: val})
	}
	p.curVal = 0
	p.curHasVal = false
}

// endParam closes the current parameter including any subparameter tail.
func (p *Parser) endParam() {
	if p.inSub {
		val := -1
		if p.curHasVal {
			val = p.curVal
		}
		p.curSub = append(p.curSub, val)
		if len(p.params) > 0 {
			p.params[len(p.params)-1].Sub = p.curSub
		}
		p.curSub = nil
		p.inSub = false
	} else {
		p.pushParam()
	}
	p.curVal = 0
	p.curHasVal = false
}

func (p *Parser) paramByte(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		if p.curVal < maxParamValue {
			p.curVal = p.curVal*10 + int(r-'0')
			if p.curVal > maxParamValue {
				p.curVal = maxParamValue
			}
		}
		p.curHasVal = true
		p.trailSep = false
		return true
	case r == ';':
		p.endParam()
		p.trailSep = true
		return true
	case r == ':':
		p.hasSub = true
		p.trailSep = false
		if !p.inSub {
			// The parameter so far becomes the head of a subparameter list.
			p.pushParam()
			p.inSub = true
			p.curSub = nil
		} else {
			val := -1
			if p.curHasVal {
				val = p.curVal
			}
			p.curSub = append(p.curSub, val)
			p.curVal = 0
			p.curHasVal = false
		}
		return true
	}
	return false
}

func (p *Parser) finishParams() {
	if p.curHasVal || p.inSub || p.trailSep || len(p.params) == 0 {
		p.endParam()
	}
	p.trailSep = false
}

func (p *Parser) csiParam(r rune) {
	switch {
	case r == 0x1B:
		p.state = stateEscape
		p.clearSequence()
	case r < 0x20 || r == 0x7F:
		p.perf.execute(byte(r))
	case p.paramByte(r):
		p.state = stateCSIParam
	case r >= '<' && r <= '?':
		// Private parameter intro is only valid before any parameter.
		if p.state == stateCSIEntry && p.private == 0 {
			p.private = byte(r)
			p.state = stateCSIParam
		} else {
			p.state = stateCSIIgnore
		}
	case r >= 0x20 && r <= 0x2F:
		p.inters = append(p.inters, byte(r))
		p.state = stateCSIIntermediate
	case r >= 0x40 && r <= 0x7E:
		p.dispatchCSI(byte(r))
	default:
		p.state = stateCSIIgnore
	}
}

func (p *Parser) csiIntermediate(r rune) {
	switch {
	case r == 0x1B:
		p.state = stateEscape
		p.clearSequence()
	case r < 0x20 || r == 0x7F:
		p.perf.execute(byte(r))
	case r >= 0x20 && r <= 0x2F:
		p.inters = append(p.inters, byte(r))
	case r >= 0x40 && r <= 0x7E:
		p.dispatchCSI(byte(r))
	default:
		p.state = stateCSIIgnore
	}
}

func (p *Parser) csiIgnore(r rune) {
	switch {
	case r == 0x1B:
		p.state = stateEscape
		p.clearSequence()
	case r < 0x20 || r == 0x7F:
		p.perf.execute(byte(r))
	case r >= 0x40 && r <= 0x7E:
		p.state = stateGround
	}
}

func (p *Parser) dispatchCSI(final byte) {
	p.finishParams()
	seq := &CSISequence{
		Private: p.private,
		Inters:  append([]byte(nil), p.inters...),
		Params:  append([]Param(nil), p.params...),
		Final:   final,
		HasSub:  p.hasSub,
	}
	p.state = stateGround
	p.perf.csiDispatch(seq)
}

func (p *Parser) dcsParam(r rune) {
	switch {
	case r == 0x1B:
		p.state = stateEscape
		p.clearSequence()
	case r < 0x20 || r == 0x7F:
		// Controls inside the DCS header are ignored.
	case p.paramByte(r):
		p.state = stateDCSParam
	case r >= '<' && r <= '?':
		if p.state == stateDCSEntry && p.private == 0 {
			p.private = byte(r)
			p.state = stateDCSParam
		} else {
			p.state = stateDCSIgnore
		}
	case r >= 0x20 && r <= 0x2F:
		p.inters = append(p.inters, byte(r))
		p.state = stateDCSIntermediate
	case r >= 0x40 && r <= 0x7E:
		p.hookDCS(byte(r))
	default:
		p.state = stateDCSIgnore
	}
}

func (p *Parser) dcsIntermediate(r rune) {
	switch {
	case r == 0x1B:
		p.state = stateEscape
		p.clearSequence()
	case r < 0x20 || r == 0x7F:
	case r >= 0x20 && r <= 0x2F:
		p.inters = append(p.inters, byte(r))
	case r >= 0x40 && r <= 0x7E:
		p.hookDCS(byte(r))
	default:
		p.state = stateDCSIgnore
	}
}

func (p *Parser) hookDCS(final byte) {
	p.finishParams()
	p.dcsSeq = &CSISequence{
		Private: p.private,
		Inters:  append([]byte(nil), p.inters...),
		Params:  append([]Param(nil), p.params...),
		Final:   final,
		HasSub:  p.hasSub,
	}
	p.strBuf = p.strBuf[:0]
	p.strOver = false
	p.oscEsc = false
	p.state = stateDCSPassthrough
}

func (p *Parser) dcsPassthrough(r rune) {
	if p.oscEsc {
		p.oscEsc = false
		if r == '\\' {
			p.terminateString(false)
			return
		}
		// Not a terminator: the ESC aborts the string.
		p.dcsSeq = nil
		p.state = stateGround
		p.advanceRune(r)
		return
	}
	switch {
	case r == 0x1B:
		p.oscEsc = true
	case r < 0x20 && p.brokenStringTerm:
		p.dcsSeq = nil
		p.state = stateGround
		p.advanceRune(r)
	default:
		p.accumulate(r)
	}
}

func (p *Parser) stringIgnore(r rune) {
	if p.oscEsc {
		p.oscEsc = false
		if r == '\\' {
			p.state = stateGround
		}
		return
	}
	if r == 0x1B {
		p.oscEsc = true
	}
}

// accumulate appends one codepoint to the string buffer, folding multi-byte
// codepoints to '?' (string payloads are byte-oriented) and dropping data
// past the size bound.
func (p *Parser) accumulate(r rune) {
	if p.strOver {
		return
	}
	if len(p.strBuf) >= maxStringLen {
		p.strOver = true
		return
	}
	if r > 0xFF {
		p.strBuf = append(p.strBuf, '?')
		return
	}
	p.strBuf = append(p.strBuf, byte(r))
}

func (p *Parser) oscString(r rune) {
	if p.oscEsc {
		p.oscEsc = false
		if r == '\\' {
			p.terminateString(false)
			return
		}
		p.state = stateGround
		p.advanceRune(r)
		return
	}
	switch {
	case r == 0x07:
		p.terminateString(true)
	case r == 0x1B:
		p.oscEsc = true
	case r < 0x20:
		if p.brokenStringTerm {
			p.state = stateGround
			p.advanceRune(r)
		}
		// Other C0 controls inside OSC are dropped.
	default:
		p.accumulate(r)
		p.checkBrokenLinuxOSC()
	}
}

// checkBrokenLinuxOSC ends the Linux console palette sequences that are sent
// without a terminator: OSC P nrrggbb (7 payload bytes after 'P') and OSC R.
func (p *Parser) checkBrokenLinuxOSC() {
	if !p.brokenLinuxOSC || len(p.strBuf) == 0 {
		return
	}
	switch p.strBuf[0] {
	case 'P':
		if len(p.strBuf) == 8 {
			p.terminateString(false)
		}
	case 'R':
		p.terminateString(false)
	}
}

func (p *Parser) sosPmApcString(r rune) {
	if p.oscEsc {
		p.oscEsc = false
		if r == '\\' {
			p.terminateString(false)
			return
		}
		p.state = stateGround
		p.advanceRune(r)
		return
	}
	switch {
	case r == 0x1B:
		p.oscEsc = true
	case r < 0x20:
		// Controls are dropped inside SOS/PM/APC.
	default:
		p.accumulate(r)
	}
}

// terminateString dispatches the string state in progress, if any.
func (p *Parser) terminateString(bel bool) {
	switch p.state {
	case stateOSCString:
		payload := append([]byte(nil), p.strBuf...)
		p.strBuf = p.strBuf[:0]
		p.state = stateGround
		p.perf.oscDispatch(payload, bel)
	case stateDCSPassthrough:
		seq := p.dcsSeq
		payload := append([]byte(nil), p.strBuf...)
		p.strBuf = p.strBuf[:0]
		p.dcsSeq = nil
		p.state = stateGround
		if seq != nil {
			p.perf.dcsDispatch(seq, payload)
		}
	case stateSosPmApcString:
		kind := p.strKind
		payload := append([]byte(nil), p.strBuf...)
		p.strBuf = p.strBuf[:0]
		p.state = stateGround
		p.perf.stringDispatch(kind, payload)
	case stateDCSIgnore:
		p.state = stateGround
	}
}

func (p *Parser) vt52Escape(r rune) {
	switch byte(r) {
	case 'Y':
		p.state = stateVT52Row
	case 'A', 'B', 'C', 'D', 'F', 'G', 'H', 'I', 'J', 'K', 'Z', '=', '>', '<':
		p.state = stateGround
		p.perf.vt52Dispatch(byte(r), 0, 0)
	default:
		p.state = stateGround
	}
}
