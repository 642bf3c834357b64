package decterm

import "testing"

func TestSelectionBasics(t *testing.T) {
	term := New(WithSize(5, 10))
	term.WriteString("hello\r\nworld")

	term.SetSelection(Position{Row: 0, Col: 0}, Position{Row: 1, Col: 4}, SelectionStream)

	if !term.IsSelected(0, 3) || !term.IsSelected(1, 0) {
		t.Error("cells inside the stream should be selected")
	}
	if term.IsSelected(2, 0) {
		t.Error("cells past the end should not be selected")
	}
	if got := term.SelectedText(); got != "hello\nworld" {
		t.Errorf("selected text = %q", got)
	}
}

func TestSelectionNormalizesOrder(t *testing.T) {
	term := New(WithSize(5, 10))
	term.WriteString("ab")

	term.SetSelection(Position{Row: 0, Col: 1}, Position{Row: 0, Col: 0}, SelectionStream)

	sel := term.Selection()
	if sel.Start.Col != 0 || sel.End.Col != 1 {
		t.Errorf("selection should normalize, got %+v", sel)
	}
}

func TestSelectionSkipsTrailingNotDrawn(t *testing.T) {
	term := New(WithSize(5, 10))
	term.WriteString("ab")

	term.SetSelection(Position{Row: 0, Col: 0}, Position{Row: 0, Col: 9}, SelectionStream)

	if got := term.SelectedText(); got != "ab" {
		t.Errorf("trailing never-drawn cells must be skipped, got %q", got)
	}
}

func TestSelectionUnwrapsWrappedLines(t *testing.T) {
	term := New(WithSize(5, 10))
	term.WriteString("ABCDEFGHIJK") // wraps onto row 1

	term.SetSelection(Position{Row: 0, Col: 0}, Position{Row: 1, Col: 9}, SelectionStream)

	if got := term.SelectedText(); got != "ABCDEFGHIJK" {
		t.Errorf("wrapped rows join without a newline, got %q", got)
	}
}

func TestSelectionBlockMode(t *testing.T) {
	term := New(WithSize(5, 10))
	term.WriteString("abcde\r\nfghij\r\nklmno")

	term.SetSelection(Position{Row: 0, Col: 1}, Position{Row: 2, Col: 3}, SelectionBlock)

	if got := term.SelectedText(); got != "bcd\nghi\nlmn" {
		t.Errorf("block selection = %q", got)
	}
	if term.IsSelected(1, 0) {
		t.Error("block selection excludes columns outside the rect")
	}
}

func TestSelectionLinesMode(t *testing.T) {
	term := New(WithSize(5, 10))
	term.WriteString("abc\r\ndef")

	term.SetSelection(Position{Row: 0, Col: 2}, Position{Row: 1, Col: 0}, SelectionLines)

	if got := term.SelectedText(); got != "abc\ndef" {
		t.Errorf("linewise selection = %q", got)
	}
	if !term.IsSelected(0, 9) {
		t.Error("linewise selection covers whole rows")
	}
}

func TestSelectionReleasedByOverlappingWrite(t *testing.T) {
	term := New(WithSize(5, 10))
	term.WriteString("hello")
	term.SetSelection(Position{Row: 0, Col: 0}, Position{Row: 0, Col: 4}, SelectionStream)

	released := false
	term.OnSelectionRelease(func() { released = true })

	term.WriteString("\x1b[1;2HX")

	if term.Selection().Active {
		t.Error("overlapping mutation should release the selection")
	}
	if !released {
		t.Error("release callback should fire")
	}
}

func TestSelectionSurvivesDisjointWrite(t *testing.T) {
	term := New(WithSize(5, 10))
	term.WriteString("hello")
	term.SetSelection(Position{Row: 0, Col: 0}, Position{Row: 0, Col: 4}, SelectionStream)

	term.WriteString("\x1b[4;1HX")

	if !term.Selection().Active {
		t.Error("disjoint mutation must keep the selection")
	}
}

func TestBlockSelectionSurvivesSameRowDisjointColumns(t *testing.T) {
	term := New(WithSize(5, 10))
	term.WriteString("abcdefghij")
	term.SetSelection(Position{Row: 0, Col: 0}, Position{Row: 0, Col: 2}, SelectionBlock)

	term.WriteString("\x1b[1;9HX")

	if !term.Selection().Active {
		t.Error("block selection should survive a write outside its columns")
	}
}

func TestSelectionWideSpacersCollapse(t *testing.T) {
	term := New(WithSize(5, 10))
	term.WriteString("a中b")

	term.SetSelection(Position{Row: 0, Col: 0}, Position{Row: 0, Col: 9}, SelectionStream)

	if got := term.SelectedText(); got != "a中b" {
		t.Errorf("spacer cells must not duplicate, got %q", got)
	}
}
