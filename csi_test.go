package decterm

import (
	"bytes"
	"strings"
	"testing"
)

func TestEraseDisplayBelow(t *testing.T) {
	term := New(WithSize(3, 5))

	term.WriteString("aaaaa\r\nbbbbb\r\nccccc")
	term.WriteString("\x1b[2;3H\x1b[J")

	if got := term.LineContent(0); got != "aaaaa" {
		t.Errorf("row 0 = %q", got)
	}
	if got := term.LineContent(1); got != "bb" {
		t.Errorf("row 1 = %q, want 'bb'", got)
	}
	if got := term.LineContent(2); got != "" {
		t.Errorf("row 2 = %q, want empty", got)
	}
}

func TestEraseDisplayAbove(t *testing.T) {
	term := New(WithSize(3, 5))

	term.WriteString("aaaaa\r\nbbbbb\r\nccccc")
	term.WriteString("\x1b[2;3H\x1b[1J")

	if got := term.LineContent(0); got != "" {
		t.Errorf("row 0 = %q, want empty", got)
	}
	if got := term.LineContent(1); got != "   bb" {
		t.Errorf("row 1 = %q", got)
	}
	if got := term.LineContent(2); got != "ccccc" {
		t.Errorf("row 2 = %q", got)
	}
}

func TestEraseLineVariants(t *testing.T) {
	term := New(WithSize(3, 5))

	term.WriteString("abcde\x1b[1;3H\x1b[K")
	if got := term.LineContent(0); got != "ab" {
		t.Errorf("EL right = %q", got)
	}

	term.WriteString("\x1b[2Habcde\x1b[2;3H\x1b[1K")
	if got := term.LineContent(1); got != "   de" {
		t.Errorf("EL left = %q", got)
	}

	term.WriteString("\x1b[3Habcde\x1b[3;3H\x1b[2K")
	if got := term.LineContent(2); got != "" {
		t.Errorf("EL all = %q", got)
	}
}

func TestEraseScrollback(t *testing.T) {
	term := New(WithSize(2, 5), WithScrollback(NewMemoryScrollback(10)))

	term.WriteString("a\r\nb\r\nc")
	if term.ScrollbackLen() == 0 {
		t.Fatal("setup should create scrollback")
	}

	term.WriteString("\x1b[3J")

	if term.ScrollbackLen() != 0 {
		t.Errorf("ED 3 should clear scrollback, got %d", term.ScrollbackLen())
	}
	if got := term.LineContent(1); got != "c" {
		t.Errorf("ED 3 must not touch the screen, row 1 = %q", got)
	}
}

func TestSelectiveEraseSkipsProtected(t *testing.T) {
	term := New(WithSize(2, 10))

	term.WriteString("ab\x1b[1\"qCD\x1b[\"qef")
	term.WriteString("\x1b[1;1H\x1b[?2K") // DECSEL entire line

	if got := term.LineContent(0); got != "  CD" {
		t.Errorf("selective erase should keep protected cells, got %q", got)
	}

	term.WriteString("\x1b[2K") // plain EL erases everything
	if got := term.LineContent(0); got != "" {
		t.Errorf("plain erase ignores DECSCA, got %q", got)
	}
}

func TestSPAGuardsAgainstPlainErase(t *testing.T) {
	term := New(WithSize(2, 10))

	term.WriteString("ab\x1bVCD\x1bWef") // SPA..EPA around CD
	term.WriteString("\x1b[1;1H\x1b[2K")

	if got := term.LineContent(0); got != "  CD" {
		t.Errorf("plain erase should keep ISO-guarded cells, got %q", got)
	}
}

func TestEraseCharsKeepsCursor(t *testing.T) {
	term := New(WithSize(2, 10))

	term.WriteString("abcdef\x1b[1;2H\x1b[3X")

	if got := term.LineContent(0); got != "a   ef" {
		t.Errorf("ECH result = %q", got)
	}
	row, col := term.CursorPos()
	if row != 0 || col != 1 {
		t.Errorf("ECH must not move the cursor, got (%d, %d)", row, col)
	}
}

// Scenario: ICH inside left/right margins shifts only between the margins.
func TestICHInsideMargins(t *testing.T) {
	term := New(WithSize(5, 10))

	term.WriteString("0123456789")
	term.WriteString("\x1b[?69h")  // DECLRMM
	term.WriteString("\x1b[3;7s")  // left 2, right 6 (0-based)
	term.WriteString("\x1b[1;4H")  // cursor col 3
	term.WriteString("\x1b[2@")

	if got := term.LineContent(0); got != "012  34789" {
		t.Errorf("ICH within margins = %q", got)
	}
}

func TestICHOutsideMarginsIgnored(t *testing.T) {
	term := New(WithSize(5, 10))

	term.WriteString("0123456789")
	term.WriteString("\x1b[?69h\x1b[3;7s")
	term.WriteString("\x1b[1;9H") // col 8, outside right margin
	term.WriteString("\x1b[2@")

	if got := term.LineContent(0); got != "0123456789" {
		t.Errorf("ICH outside margins should be ignored, got %q", got)
	}
}

func TestILDLInsideRegion(t *testing.T) {
	term := New(WithSize(4, 5))

	term.WriteString("a\r\nb\r\nc\r\nd")
	term.WriteString("\x1b[2;2H\x1b[L") // insert line at row 1

	if term.LineContent(1) != "" || term.LineContent(2) != "b" {
		t.Errorf("IL result rows: %q / %q", term.LineContent(1), term.LineContent(2))
	}

	term.WriteString("\x1b[2;2H\x1b[M") // delete it again
	if term.LineContent(1) != "b" || term.LineContent(2) != "c" {
		t.Errorf("DL result rows: %q / %q", term.LineContent(1), term.LineContent(2))
	}
}

func TestILOutsideRegionIgnored(t *testing.T) {
	term := New(WithSize(4, 5))

	term.WriteString("a\r\nb\r\nc\r\nd")
	term.WriteString("\x1b[1;2r")   // region rows 0..1
	term.WriteString("\x1b[3;1H\x1b[L")

	if term.LineContent(2) != "c" || term.LineContent(3) != "d" {
		t.Errorf("IL outside the region must not scroll: %q / %q",
			term.LineContent(2), term.LineContent(3))
	}
}

func TestSUAndSD(t *testing.T) {
	term := New(WithSize(3, 5))

	term.WriteString("a\r\nb\r\nc")
	term.WriteString("\x1b[1S")

	if term.LineContent(0) != "b" {
		t.Errorf("SU row 0 = %q", term.LineContent(0))
	}

	term.WriteString("\x1b[1T")
	if term.LineContent(0) != "" || term.LineContent(1) != "b" {
		t.Errorf("SD rows = %q / %q", term.LineContent(0), term.LineContent(1))
	}
}

func TestDECSLRMRequiresMode(t *testing.T) {
	term := New(WithSize(5, 10))

	// Without DECLRMM, CSI s is save-cursor.
	term.WriteString("\x1b[3;3H\x1b[s\x1b[1;1H\x1b[u")
	row, col := term.CursorPos()
	if row != 2 || col != 2 {
		t.Errorf("SCOSC/SCORC should work without DECLRMM, got (%d, %d)", row, col)
	}

	left, right := term.Margins()
	if left != 0 || right != 9 {
		t.Errorf("margins should be untouched, got %d..%d", left, right)
	}
}

func TestDECSLRMHomesCursor(t *testing.T) {
	term := New(WithSize(5, 10))

	term.WriteString("\x1b[3;3H\x1b[?69h\x1b[2;8s")

	left, right := term.Margins()
	if left != 1 || right != 7 {
		t.Errorf("margins = %d..%d, want 1..7", left, right)
	}
	row, col := term.CursorPos()
	if row != 0 || col != 0 {
		t.Errorf("DECSLRM should home, got (%d, %d)", row, col)
	}
}

func TestDisablingDECLRMMClearsMargins(t *testing.T) {
	term := New(WithSize(5, 10))

	term.WriteString("\x1b[?69h\x1b[3;7s\x1b[?69l")

	left, right := term.Margins()
	if left != 0 || right != 9 {
		t.Errorf("margins should clear, got %d..%d", left, right)
	}
}

func TestDA1Reply(t *testing.T) {
	var buf bytes.Buffer
	term := New(WithSize(5, 10), WithResponse(&buf))

	term.WriteString("\x1b[c")

	got := buf.String()
	if !strings.HasPrefix(got, "\x1b[?64;") || !strings.HasSuffix(got, "c") {
		t.Errorf("DA1 = %q", got)
	}
	for _, feature := range []string{";1;", ";6;", ";15;", ";18;", ";21;", ";22;"} {
		if !strings.Contains(got, feature) {
			t.Errorf("DA1 %q missing feature %q", got, feature)
		}
	}
}

func TestDA2AndDECRPTUI(t *testing.T) {
	var buf bytes.Buffer
	term := New(WithSize(5, 10), WithResponse(&buf))

	term.WriteString("\x1b[>c")
	if got := buf.String(); got != "\x1b[>41;330;0c" {
		t.Errorf("DA2 = %q", got)
	}

	buf.Reset()
	term.WriteString("\x1b[=c")
	if got := buf.String(); got != "\x1bP!|00000000\x1b\\" {
		t.Errorf("DECRPTUI = %q", got)
	}
}

func TestDSRVariants(t *testing.T) {
	var buf bytes.Buffer
	term := New(WithSize(5, 10), WithResponse(&buf))

	term.WriteString("\x1b[5n")
	if got := buf.String(); got != "\x1b[0n" {
		t.Errorf("DSR 5 = %q", got)
	}

	buf.Reset()
	term.WriteString("\x1b[3;4H\x1b[6n")
	if got := buf.String(); got != "\x1b[3;4R" {
		t.Errorf("CPR = %q", got)
	}

	buf.Reset()
	term.WriteString("\x1b[?6n")
	if got := buf.String(); got != "\x1b[?3;4;1R" {
		t.Errorf("DECXCPR = %q", got)
	}

	buf.Reset()
	term.WriteString("\x1b[?15n")
	if got := buf.String(); got != "\x1b[?13n" {
		t.Errorf("printer status = %q", got)
	}

	buf.Reset()
	term.WriteString("\x1b[?26n")
	if got := buf.String(); got != "\x1b[?27;1;0;0n" {
		t.Errorf("keyboard status = %q", got)
	}
}

func TestCPRHonorsOriginMode(t *testing.T) {
	var buf bytes.Buffer
	term := New(WithSize(10, 10), WithResponse(&buf))

	term.WriteString("\x1b[3;6r\x1b[?6h\x1b[2;2H\x1b[6n")

	if got := buf.String(); got != "\x1b[2;2R" {
		t.Errorf("origin-mode CPR = %q", got)
	}
}

func TestDECRQM(t *testing.T) {
	var buf bytes.Buffer
	term := New(WithSize(5, 10), WithResponse(&buf))

	term.WriteString("\x1b[?7$p")
	if got := buf.String(); got != "\x1b[?7;1$y" {
		t.Errorf("DECRQM DECAWM = %q", got)
	}

	buf.Reset()
	term.WriteString("\x1b[4$p")
	if got := buf.String(); got != "\x1b[4;2$y" {
		t.Errorf("DECRQM IRM = %q", got)
	}

	buf.Reset()
	term.WriteString("\x1b[?9999$p")
	if got := buf.String(); got != "\x1b[?9999;0$y" {
		t.Errorf("DECRQM unknown = %q", got)
	}
}

func TestDECSTRSoftReset(t *testing.T) {
	term := New(WithSize(5, 10))

	term.WriteString("hello\x1b[1;31m\x1b[2;4r\x1b[?6h\x1b[?25l")
	term.WriteString("\x1b[!p")

	if term.PrivateMode(ModeDECOM) {
		t.Error("DECSTR resets origin mode")
	}
	if !term.PrivateMode(ModeDECTCEM) {
		t.Error("DECSTR re-enables the cursor")
	}
	top, bottom := term.ScrollRegion()
	if top != 0 || bottom != 5 {
		t.Errorf("DECSTR resets margins, got %d..%d", top, bottom)
	}
	if got := term.LineContent(0); got != "hello" {
		t.Errorf("DECSTR must not clear the screen, got %q", got)
	}
}

func TestDECSCLPerformsReset(t *testing.T) {
	term := New(WithSize(5, 10))

	term.WriteString("\x1b[?6h\x1b[62;1\"p")

	if term.PrivateMode(ModeDECOM) {
		t.Error("DECSCL should soft-reset")
	}

	var buf bytes.Buffer
	term.SetResponse(&buf)
	term.WriteString("\x1b[c")
	if !strings.HasPrefix(buf.String(), "\x1b[?62;") {
		t.Errorf("DA1 should report level 2, got %q", buf.String())
	}
}

func TestRectOpsIgnoredBelowLevel4(t *testing.T) {
	term := New(WithSize(5, 10))

	term.WriteString("\x1b[61\"p") // drop to VT100
	term.WriteString("\x1b[69;1;1;5;10$x")

	if got := term.LineContent(0); got != "" {
		t.Errorf("DECFRA must be ignored at level 1, got %q", got)
	}
}

func TestWindowOpsGated(t *testing.T) {
	var buf bytes.Buffer
	term := New(WithSize(5, 10), WithResponse(&buf))

	term.WriteString("\x1b[11t")
	if buf.String() != "" {
		t.Errorf("window state report should be refused by default, got %q", buf.String())
	}

	// Report 18 is always answered.
	term.WriteString("\x1b[18t")
	if got := buf.String(); got != "\x1b[8;5;10t" {
		t.Errorf("size report = %q", got)
	}
}

func TestWindowOpsAllowed(t *testing.T) {
	var buf bytes.Buffer
	term := New(WithSize(5, 10), WithResponse(&buf), WithWindowOps())

	term.WriteString("\x1b[11t")
	if got := buf.String(); got != "\x1b[1t" {
		t.Errorf("window state = %q", got)
	}

	term.WriteString("\x1b[8;10;20t")
	if term.Rows() != 10 || term.Cols() != 20 {
		t.Errorf("resize op should apply, got %dx%d", term.Rows(), term.Cols())
	}

	term.WriteString("\x1b[30t") // DECSLPP
	if term.Rows() != 30 {
		t.Errorf("DECSLPP should set rows, got %d", term.Rows())
	}
}

func TestTitleStack(t *testing.T) {
	term := New(WithSize(5, 10))

	term.WriteString("\x1b]2;first\x07\x1b[22t\x1b]2;second\x07")
	if term.Title() != "second" {
		t.Fatalf("title = %q", term.Title())
	}
	term.WriteString("\x1b[23t")
	if term.Title() != "first" {
		t.Errorf("popped title = %q", term.Title())
	}
}

func TestDECREQTPARM(t *testing.T) {
	var buf bytes.Buffer
	term := New(WithSize(5, 10), WithResponse(&buf))

	term.WriteString("\x1b[x")
	if got := buf.String(); got != "\x1b[2;1;1;128;128;1;0x" {
		t.Errorf("DECREQTPARM = %q", got)
	}
}

func TestDECSCUSR(t *testing.T) {
	term := New(WithSize(5, 10))

	term.WriteString("\x1b[4 q")
	if term.CursorStyle() != CursorStyleSteadyUnderline {
		t.Errorf("style = %v", term.CursorStyle())
	}
	term.WriteString("\x1b[ q")
	if term.CursorStyle() != CursorStyleBlinkingBlock {
		t.Errorf("default style = %v", term.CursorStyle())
	}
}

func TestUnknownSequencesIgnored(t *testing.T) {
	term := New(WithSize(5, 10))

	// A grab bag of unknown/hostile input must not disturb state or panic.
	term.WriteString("\x1b[99§z\x1b[?77h\x1b[1;2;3~\x1bQ\x1b[>5;2m")
	term.WriteString("ok")

	if got := term.LineContent(0); got != "ok" {
		t.Errorf("terminal should survive junk, got %q", got)
	}
}

func TestSLShiftsInsideMargins(t *testing.T) {
	term := New(WithSize(2, 10))

	term.WriteString("0123456789\x1b[2 @")

	if got := term.LineContent(0); got != "23456789" {
		t.Errorf("SL result = %q", got)
	}
}
