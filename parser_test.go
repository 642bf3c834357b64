package decterm

import (
	"fmt"
	"testing"
)

// recorder captures parser actions for inspection.
type recorder struct {
	events []string
}

func (r *recorder) log(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) print(ch rune)               { r.log("print %q", ch) }
func (r *recorder) execute(b byte)              { r.log("exec %02x", b) }
func (r *recorder) escDispatch(in []byte, f byte) {
	r.log("esc %q %c", in, f)
}
func (r *recorder) csiDispatch(seq *CSISequence) {
	r.log("csi %c%v%s %c", seq.Private, paramValues(seq), string(seq.Inters), seq.Final)
}
func (r *recorder) oscDispatch(payload []byte, bel bool) {
	r.log("osc %q bel=%v", payload, bel)
}
func (r *recorder) dcsDispatch(seq *CSISequence, data []byte) {
	r.log("dcs %s%c %q", string(seq.Inters), seq.Final, data)
}
func (r *recorder) stringDispatch(kind byte, data []byte) {
	r.log("str %c %q", kind, data)
}
func (r *recorder) scsDispatch(slot int, percent, is96 bool, final byte) {
	r.log("scs %d %v %v %c", slot, percent, is96, final)
}
func (r *recorder) vt52Dispatch(final byte, row, col byte) {
	r.log("vt52 %c %d %d", final, row, col)
}

func paramValues(seq *CSISequence) []int {
	vals := make([]int, len(seq.Params))
	for i, p := range seq.Params {
		vals[i] = p.Value
	}
	return vals
}

func parseAll(input string) *recorder {
	rec := &recorder{}
	p := NewParser(rec)
	p.Parse([]byte(input))
	return rec
}

func TestParserPrintGround(t *testing.T) {
	rec := parseAll("AB")

	if len(rec.events) != 2 || rec.events[0] != `print 'A'` || rec.events[1] != `print 'B'` {
		t.Errorf("unexpected events: %v", rec.events)
	}
}

func TestParserCSIParams(t *testing.T) {
	rec := parseAll("\x1b[1;22;333H")

	want := "csi \x00[1 22 333] H"
	if len(rec.events) != 1 || rec.events[0] != want {
		t.Errorf("expected %q, got %v", want, rec.events)
	}
}

func TestParserCSIDefaultParams(t *testing.T) {
	rec := parseAll("\x1b[H")

	if len(rec.events) != 1 || rec.events[0] != "csi \x00[-1] H" {
		t.Errorf("unexpected events: %v", rec.events)
	}
}

func TestParserCSITrailingSeparator(t *testing.T) {
	rec := parseAll("\x1b[5;m")

	if len(rec.events) != 1 || rec.events[0] != "csi \x00[5 -1] m" {
		t.Errorf("trailing separator should yield an omitted parameter: %v", rec.events)
	}
}

func TestParserCSIPrivatePrefix(t *testing.T) {
	rec := parseAll("\x1b[?25h")

	if len(rec.events) != 1 || rec.events[0] != "csi ?[25] h" {
		t.Errorf("unexpected events: %v", rec.events)
	}
}

func TestParserCSIIntermediates(t *testing.T) {
	rec := parseAll("\x1b[2$x")

	if len(rec.events) != 1 || rec.events[0] != "csi \x00[2]$ x" {
		t.Errorf("unexpected events: %v", rec.events)
	}
}

func TestParserSubparams(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec)

	var got *CSISequence
	tp := &capturePerformer{recorder: rec, onCSI: func(seq *CSISequence) { got = seq }}
	p = NewParser(tp)
	p.Parse([]byte("\x1b[38:2:1:2:3m"))

	if got == nil {
		t.Fatal("no CSI dispatched")
	}
	if !got.HasSub {
		t.Error("expected HasSub")
	}
	if len(got.Params) != 1 || got.Params[0].Value != 38 {
		t.Fatalf("unexpected params: %+v", got.Params)
	}
	want := []int{2, 1, 2, 3}
	if len(got.Params[0].Sub) != len(want) {
		t.Fatalf("unexpected subparams: %v", got.Params[0].Sub)
	}
	for i, v := range want {
		if got.Params[0].Sub[i] != v {
			t.Errorf("sub[%d] = %d, want %d", i, got.Params[0].Sub[i], v)
		}
	}
}

// capturePerformer overrides selected recorder callbacks.
type capturePerformer struct {
	*recorder
	onCSI func(*CSISequence)
}

func (c *capturePerformer) csiDispatch(seq *CSISequence) {
	if c.onCSI != nil {
		c.onCSI(seq)
		return
	}
	c.recorder.csiDispatch(seq)
}

func TestParserParamCap(t *testing.T) {
	rec := &recorder{}
	var got *CSISequence
	p := NewParser(&capturePerformer{recorder: rec, onCSI: func(seq *CSISequence) { got = seq }})
	p.Parse([]byte("\x1b[99999m"))

	if got == nil {
		t.Fatal("no CSI dispatched")
	}
	if got.Params[0].Value != 65535 {
		t.Errorf("expected cap at 65535, got %d", got.Params[0].Value)
	}
}

func TestParserCANAborts(t *testing.T) {
	rec := parseAll("\x1b[12\x18X")

	if len(rec.events) != 1 || rec.events[0] != `print 'X'` {
		t.Errorf("CAN should abort the sequence: %v", rec.events)
	}
}

func TestParserESCRestartsSequence(t *testing.T) {
	rec := parseAll("\x1b[12\x1b[3m")

	if len(rec.events) != 1 || rec.events[0] != "csi \x00[3] m" {
		t.Errorf("ESC inside CSI should restart: %v", rec.events)
	}
}

func TestParserControlsExecuteInsideCSI(t *testing.T) {
	rec := parseAll("\x1b[2\x08J")

	if len(rec.events) != 2 {
		t.Fatalf("expected control + dispatch, got %v", rec.events)
	}
	if rec.events[0] != "exec 08" {
		t.Errorf("expected BS executed mid-sequence, got %v", rec.events[0])
	}
}

func TestParserOSCBELvsST(t *testing.T) {
	bel := parseAll("\x1b]0;hello\x07")
	st := parseAll("\x1b]0;hello\x1b\\")

	if len(bel.events) != 1 || bel.events[0] != `osc "0;hello" bel=true` {
		t.Errorf("BEL: %v", bel.events)
	}
	if len(st.events) != 1 || st.events[0] != `osc "0;hello" bel=false` {
		t.Errorf("ST: %v", st.events)
	}
}

func TestParserOSCFoldsWideRunes(t *testing.T) {
	rec := parseAll("\x1b]2;日\x07")

	if len(rec.events) != 1 || rec.events[0] != `osc "2;?" bel=true` {
		t.Errorf("codepoints above 0xFF should fold to '?': %v", rec.events)
	}
}

func TestParserDCSPassthrough(t *testing.T) {
	rec := parseAll("\x1bP1+q544e\x1b\\")

	if len(rec.events) != 1 || rec.events[0] != `dcs +q "544e"` {
		t.Errorf("unexpected events: %v", rec.events)
	}
}

func TestParserSosPmApc(t *testing.T) {
	rec := parseAll("\x1b_payload\x1b\\\x1b^pm\x1b\\\x1bXsos\x1b\\")

	want := []string{`str _ "payload"`, `str ^ "pm"`, `str X "sos"`}
	if len(rec.events) != 3 {
		t.Fatalf("expected 3 strings, got %v", rec.events)
	}
	for i, w := range want {
		if rec.events[i] != w {
			t.Errorf("event %d = %q, want %q", i, rec.events[i], w)
		}
	}
}

func TestParserC1Controls(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec)
	p.SetUTF8(false)
	p.Parse([]byte{0x9B, '5', 'A'})

	if len(rec.events) != 1 || rec.events[0] != "csi \x00[5] A" {
		t.Errorf("8-bit CSI should work: %v", rec.events)
	}
}

func TestParserC1InUTF8Mode(t *testing.T) {
	// In UTF-8 mode a C1 arrives as its two-byte encoding.
	rec := parseAll("\xc2\x9b" + "3C")

	if len(rec.events) != 1 || rec.events[0] != "csi \x00[3] C" {
		t.Errorf("UTF-8 encoded CSI should work: %v", rec.events)
	}
}

func TestParserUTF8Decoding(t *testing.T) {
	rec := parseAll("héllo")

	if len(rec.events) != 5 {
		t.Fatalf("expected 5 prints, got %v", rec.events)
	}
	if rec.events[1] != `print 'é'` {
		t.Errorf("expected é, got %v", rec.events[1])
	}
}

func TestParserUTF8AcrossChunks(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec)
	p.Parse([]byte{0xE4, 0xB8})
	p.Parse([]byte{0xAD})

	if len(rec.events) != 1 || rec.events[0] != `print '中'` {
		t.Errorf("split UTF-8 sequence should decode: %v", rec.events)
	}
}

func TestParserStreamable(t *testing.T) {
	input := "A\x1b[1;31mB\x1b]0;t\x07\x1bP+q41\x1b\\C"

	whole := parseAll(input)
	split := &recorder{}
	p := NewParser(split)
	for i := 0; i < len(input); i++ {
		p.Parse([]byte{input[i]})
	}

	if len(whole.events) != len(split.events) {
		t.Fatalf("byte-at-a-time differs: %v vs %v", whole.events, split.events)
	}
	for i := range whole.events {
		if whole.events[i] != split.events[i] {
			t.Errorf("event %d: %q vs %q", i, whole.events[i], split.events[i])
		}
	}
}

func TestParserReturnsToGround(t *testing.T) {
	p := NewParser(&recorder{})

	inputs := []string{
		"\x1b[1;2H",
		"\x1b]0;x\x07",
		"\x1bP0q\x1b\\",
		"\x1b(B",
		"\x1b#8",
		"plain",
	}
	for _, in := range inputs {
		p.Parse([]byte(in))
		if !p.InGround() {
			t.Errorf("parser not in ground after %q", in)
		}
	}
}

func TestParserSCSSelection(t *testing.T) {
	rec := parseAll("\x1b(0\x1b)B\x1b(%5\x1b-A")

	want := []string{
		"scs 0 false false 0",
		"scs 1 false false B",
		"scs 0 true false 5",
		"scs 1 false true A",
	}
	if len(rec.events) != len(want) {
		t.Fatalf("unexpected events: %v", rec.events)
	}
	for i, w := range want {
		if rec.events[i] != w {
			t.Errorf("event %d = %q, want %q", i, rec.events[i], w)
		}
	}
}

func TestParserVT52(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec)
	p.SetVT52(true)
	p.Parse([]byte("\x1bA\x1bY %x"))

	if len(rec.events) != 3 {
		t.Fatalf("unexpected events: %v", rec.events)
	}
	if rec.events[0] != "vt52 A 0 0" {
		t.Errorf("expected cursor up, got %v", rec.events[0])
	}
	if rec.events[1] != fmt.Sprintf("vt52 Y %d %d", ' ', '%') {
		t.Errorf("expected direct address, got %v", rec.events[1])
	}
	if rec.events[2] != `print 'x'` {
		t.Errorf("expected print after address, got %v", rec.events[2])
	}
}

func TestParserBrokenLinuxOSC(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec)
	p.SetBrokenLinuxOSC(true)
	p.Parse([]byte("\x1b]P1ff0000X"))

	if len(rec.events) != 2 {
		t.Fatalf("palette OSC should self-terminate: %v", rec.events)
	}
	if rec.events[0] != `osc "P1ff0000" bel=false` {
		t.Errorf("unexpected payload: %v", rec.events[0])
	}
	if rec.events[1] != `print 'X'` {
		t.Errorf("following byte should print: %v", rec.events[1])
	}
}

func TestParserBrokenStringTerm(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec)
	p.SetBrokenStringTerm(true)
	p.Parse([]byte("\x1b]0;title\rX"))

	// The CR aborts the OSC; no osc event is dispatched.
	for _, e := range rec.events {
		if e == `osc "0;title" bel=false` {
			t.Error("aborted OSC should not dispatch")
		}
	}
	if rec.events[len(rec.events)-1] != `print 'X'` {
		t.Errorf("expected print after abort: %v", rec.events)
	}
}
