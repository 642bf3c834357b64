package decterm

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// dcsDispatch routes a completed device control string. The Sixel and ReGIS
// entry points ('q' after numeric params, 'p') are recognized and their
// payloads consumed; pixel rendering is a display concern outside this core.
func (t *Terminal) dcsDispatch(seq *CSISequence, data []byte) {
	if t.hooks.Dcs != nil {
		t.hooks.Dcs(seq, data, t.dcsPerform)
		return
	}
	t.dcsPerform(seq, data)
}

func (t *Terminal) dcsPerform(seq *CSISequence, data []byte) {
	switch seq.Intermediate() {
	case '+':
		switch seq.Final {
		case 'q': // XTGETTCAP
			t.termcapQuery(data)
		}
		return
	case '$':
		switch seq.Final {
		case 'q': // DECRQSS
			t.requestSelection(string(data))
		}
		return
	}

	switch seq.Final {
	case 'q', 'p':
		// Sixel / ReGIS data: admitted through the parser, not rendered.
	}
}

// termcapNames answers the honored XTGETTCAP keys.
var termcapNames = map[string]string{
	"TN":     "xterm-256color",
	"name":   "xterm-256color",
	"Co":     "256",
	"colors": "256",
	"RGB":    "8/8/8",
}

// termcapQuery handles DCS + q: semicolon-separated hex-encoded capability
// names. Each known name answers DCS 1 + r name=value ST; unknown names
// answer DCS 0 + r name= ST.
func (t *Terminal) termcapQuery(data []byte) {
	for _, hexName := range strings.Split(string(data), ";") {
		raw, err := hex.DecodeString(hexName)
		if err != nil {
			continue
		}
		value, ok := termcapNames[string(raw)]
		if !ok {
			t.reply(fmt.Sprintf("\x1bP0+r%s=\x1b\\", hexName))
			continue
		}
		t.reply(fmt.Sprintf("\x1bP1+r%s=%s\x1b\\",
			hexName, hex.EncodeToString([]byte(value))))
	}
}

// requestSelection handles DECRQSS: report the current value of a settable
// control function. Valid requests answer DCS 1 $ r <value><request> ST.
func (t *Terminal) requestSelection(req string) {
	var value string
	switch req {
	case "m": // SGR
		value = t.sgrString()
	case "r": // DECSTBM
		value = fmt.Sprintf("%d;%d", t.scrollTop+1, t.scrollBottom)
	case "s": // DECSLRM
		value = fmt.Sprintf("%d;%d", t.leftMargin+1, t.rightMargin+1)
	case "\"p": // DECSCL
		c1 := 1
		if t.eightBitReply {
			c1 = 0
		}
		value = fmt.Sprintf("%d;%d", t.level+60, c1)
	case "\"q": // DECSCA
		if t.template.HasFlag(CellFlagProtected) {
			value = "1"
		} else {
			value = "0"
		}
	case " q": // DECSCUSR
		value = fmt.Sprintf("%d", int(t.cursor.Style)+1)
	default:
		t.reply("\x1bP0$r\x1b\\")
		return
	}
	t.reply("\x1bP1$r" + value + req + "\x1b\\")
}

// sgrString renders the current template as an SGR parameter list.
func (t *Terminal) sgrString() string {
	parts := []string{"0"}
	add := func(flag CellFlags, code string) {
		if t.template.HasFlag(flag) {
			parts = append(parts, code)
		}
	}
	add(CellFlagBold, "1")
	add(CellFlagFaint, "2")
	add(CellFlagItalic, "3")
	add(CellFlagUnderline, "4")
	add(CellFlagBlink, "5")
	add(CellFlagInverse, "7")
	add(CellFlagInvisible, "8")
	add(CellFlagStrikeout, "9")
	add(CellFlagDoubleUnderline, "21")

	if c, ok := t.template.Fg.(*IndexedColor); ok {
		switch {
		case c.Index < 8:
			parts = append(parts, fmt.Sprintf("%d", 30+c.Index))
		case c.Index < 16:
			parts = append(parts, fmt.Sprintf("%d", 90+c.Index-8))
		default:
			parts = append(parts, fmt.Sprintf("38;5;%d", c.Index))
		}
	}
	if c, ok := t.template.Bg.(*IndexedColor); ok {
		switch {
		case c.Index < 8:
			parts = append(parts, fmt.Sprintf("%d", 40+c.Index))
		case c.Index < 16:
			parts = append(parts, fmt.Sprintf("%d", 100+c.Index-8))
		default:
			parts = append(parts, fmt.Sprintf("48;5;%d", c.Index))
		}
	}
	return strings.Join(parts, ";")
}
