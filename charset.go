package decterm

// Charset selects the character encoding variant a G-slot is designated with.
type Charset int

const (
	CharsetASCII Charset = iota
	CharsetDECSpecial
	CharsetDECSupplemental
	CharsetDECTechnical
	CharsetBritish
	CharsetDutch
	CharsetFinnish
	CharsetFrench
	CharsetFrenchCanadian
	CharsetGerman
	CharsetItalian
	CharsetNorwegianDanish
	CharsetSpanish
	CharsetSwedish
	CharsetSwiss
	CharsetLatin1
)

// SingleShift identifies a pending SS2/SS3 single-shift latch.
type SingleShift int

const (
	ShiftNone SingleShift = iota
	ShiftG2
	ShiftG3
)

// CharsetState holds the four designated graphic sets, the GL/GR selectors,
// and the single-shift latch. The zero value is not ready; use NewCharsetState.
type CharsetState struct {
	G  [4]Charset
	GL int
	GR int
	SS SingleShift
}

// NewCharsetState returns the power-on state: all slots ASCII, GL=G0, GR=G2.
func NewCharsetState() CharsetState {
	return CharsetState{GL: 0, GR: 2}
}

// Reset restores the power-on designations and selectors.
func (cs *CharsetState) Reset() {
	*cs = NewCharsetState()
}

// Designate assigns a charset to slot (0-3) from an SCS final byte. The
// percent flag marks the '%'-prefixed variants (ESC ( % 5 etc.); is96 marks
// the 96-character designators (ESC - . /). Unknown finals leave the slot
// unchanged. NRCS designators are only honored when nrcs is set; the terminal
// sets it under DECNRCM or at conformance level 3 and above.
func (cs *CharsetState) Designate(slot int, final byte, percent, is96, nrcs bool) {
	if slot < 0 || slot > 3 {
		return
	}
	var set Charset
	switch {
	case is96:
		switch final {
		case 'A':
			set = CharsetLatin1
		default:
			return
		}
	case percent:
		switch final {
		case '5':
			set = CharsetDECSupplemental
		case '6':
			if !nrcs {
				return
			}
			set = CharsetFrenchCanadian // ESC ( % 6, VT510 Portuguese slot reuses the table shape
		default:
			return
		}
	default:
		switch final {
		case 'B':
			set = CharsetASCII
		case '0':
			set = CharsetDECSpecial
		case '<':
			set = CharsetDECSupplemental
		case '>':
			set = CharsetDECTechnical
		case 'A':
			set = CharsetBritish
		case '4':
			set = CharsetDutch
		case 'C', '5':
			set = CharsetFinnish
		case 'R', 'f':
			set = CharsetFrench
		case 'Q', '9':
			set = CharsetFrenchCanadian
		case 'K':
			set = CharsetGerman
		case 'Y':
			set = CharsetItalian
		case 'E', '6':
			set = CharsetNorwegianDanish
		case 'Z':
			set = CharsetSpanish
		case 'H', '7':
			set = CharsetSwedish
		case '=':
			set = CharsetSwiss
		default:
			return
		}
		if set >= CharsetBritish && set <= CharsetSwiss && !nrcs && set != CharsetBritish {
			// National sets other than UK require nrcs.
			return
		}
	}
	cs.G[slot] = set
}

// LockShift selects which slot GL maps to (LS0-LS3).
func (cs *CharsetState) LockShift(slot int) {
	if slot >= 0 && slot <= 3 {
		cs.GL = slot
	}
}

// LockShiftRight selects which slot GR maps to (LS1R-LS3R).
func (cs *CharsetState) LockShiftRight(slot int) {
	if slot >= 1 && slot <= 3 {
		cs.GR = slot
	}
}

// SingleShift arms the SS2/SS3 latch: the next graphic character consults
// the given slot, after which the latch clears.
func (cs *CharsetState) SingleShift(shift SingleShift) {
	cs.SS = shift
}

// Translate maps an incoming codepoint through the GL/GR/SS rules. Codes
// 0x20-0x7E consult GL, 0xA0-0xFF consult GR; a pending single shift
// overrides for exactly one character. Codepoints above 0xFF (UTF-8 input)
// bypass the tables.
func (cs *CharsetState) Translate(r rune) rune {
	if r > 0xFF {
		return r
	}

	slot := -1
	switch {
	case r >= 0x20 && r <= 0x7E:
		slot = cs.GL
	case r >= 0xA0:
		slot = cs.GR
	}
	if cs.SS != ShiftNone && r >= 0x20 {
		if cs.SS == ShiftG2 {
			slot = 2
		} else {
			slot = 3
		}
		cs.SS = ShiftNone
	}
	if slot < 0 {
		return r
	}

	// GR translation indexes the same 94/96 table as GL.
	idx := r & 0x7F
	return translateCharset(cs.G[slot], idx)
}

func translateCharset(set Charset, r rune) rune {
	switch set {
	case CharsetASCII, CharsetLatin1:
		return r
	case CharsetDECSpecial:
		if sub, ok := decSpecialGraphics[r]; ok {
			return sub
		}
		return r
	case CharsetDECSupplemental:
		// DEC Supplemental tracks Latin-1's upper half.
		if r >= 0x20 && r <= 0x7F {
			return r + 0x80
		}
		return r
	case CharsetDECTechnical:
		if sub, ok := decTechnical[r]; ok {
			return sub
		}
		return r
	default:
		if repl, ok := nrcsTables[set]; ok {
			if sub, ok := repl[r]; ok {
				return sub
			}
		}
		return r
	}
}

// decSpecialGraphics maps the DEC Special Graphics (line drawing) set,
// designated with ESC ( 0.
var decSpecialGraphics = map[rune]rune{
	'`': '◆', 'a': '▒', 'b': '␉', 'c': '␌', 'd': '␍',
	'e': '␊', 'f': '°', 'g': '±', 'h': '␤', 'i': '␋',
	'j': '┘', 'k': '┐', 'l': '┌', 'm': '└', 'n': '┼',
	'o': '⎺', 'p': '⎻', 'q': '─', 'r': '⎼', 's': '⎽',
	't': '├', 'u': '┤', 'v': '┴', 'w': '┬', 'x': '│',
	'y': '≤', 'z': '≥', '{': 'π', '|': '≠', '}': '£',
	'~': '·', '_': ' ',
}

// decTechnical covers the commonly exercised rows of the DEC Technical set.
var decTechnical = map[rune]rune{
	'<': '≤', '=': '≠', '>': '≥', '?': '∫',
	'@': '∴', 'G': '∇', 'H': 'Φ', 'I': 'Γ',
	'J': '∼', 'K': '≃', 'L': 'Θ', 'M': '×',
	'V': 'Σ', 'W': '§', '\\': '⇔', ']': '↑',
	'^': '↓', 'h': 'λ', 'p': 'π', 's': 'σ',
	't': 'τ', 'w': 'φ', 'y': 'ψ', 'z': 'ω',
}

// nrcsTables holds the 7-bit national replacement character sets. Only the
// positions that differ from ASCII are listed.
var nrcsTables = map[Charset]map[rune]rune{
	CharsetBritish: {'#': '£'},
	CharsetDutch: {
		'#': '£', '@': '¾', '[': 'ĳ', '\\': '½', ']': '|',
		'{': '¨', '|': 'ƒ', '}': '¼', '~': '´',
	},
	CharsetFinnish: {
		'[': 'Ä', '\\': 'Ö', ']': 'Å', '^': 'Ü',
		'`': 'é', '{': 'ä', '|': 'ö', '}': 'å', '~': 'ü',
	},
	CharsetFrench: {
		'#': '£', '@': 'à', '[': '°', '\\': 'ç', ']': '§',
		'{': 'é', '|': 'ù', '}': 'è', '~': '¨',
	},
	CharsetFrenchCanadian: {
		'@': 'à', '[': 'â', '\\': 'ç', ']': 'ê', '^': 'î',
		'`': 'ô', '{': 'é', '|': 'ù', '}': 'è', '~': 'û',
	},
	CharsetGerman: {
		'@': '§', '[': 'Ä', '\\': 'Ö', ']': 'Ü',
		'{': 'ä', '|': 'ö', '}': 'ü', '~': 'ß',
	},
	CharsetItalian: {
		'#': '£', '@': '§', '[': '°', '\\': 'ç', ']': 'é',
		'`': 'ù', '{': 'à', '|': 'ò', '}': 'è', '~': 'ì',
	},
	CharsetNorwegianDanish: {
		'@': 'Ä', '[': 'Æ', '\\': 'Ø', ']': 'Å', '^': 'Ü',
		'`': 'ä', '{': 'æ', '|': 'ø', '}': 'å', '~': 'ü',
	},
	CharsetSpanish: {
		'#': '£', '@': '§', '[': '¡', '\\': 'Ñ', ']': '¿',
		'{': '°', '|': 'ñ', '}': 'ç',
	},
	CharsetSwedish: {
		'@': 'É', '[': 'Ä', '\\': 'Ö', ']': 'Å', '^': 'Ü',
		'`': 'é', '{': 'ä', '|': 'ö', '}': 'å', '~': 'ü',
	},
	CharsetSwiss: {
		'#': 'ù', '@': 'à', '[': 'é', '\\': 'ç', ']': 'ê',
		'^': 'î', '_': 'è', '`': 'ô', '{': 'ä', '|': 'ö',
		'}': 'ü', '~': 'û',
	},
}
