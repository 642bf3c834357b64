package decterm

import "testing"

func TestCellFlags(t *testing.T) {
	c := NewCell()

	c.SetFlag(CellFlagBold)
	if !c.HasFlag(CellFlagBold) {
		t.Error("expected bold flag")
	}

	c.ClearFlag(CellFlagBold)
	if c.HasFlag(CellFlagBold) {
		t.Error("expected bold flag cleared")
	}
}

func TestCellReset(t *testing.T) {
	c := NewCell()
	c.Char = 'A'
	c.Combining = []rune{0x301}
	c.SetFlag(CellFlagBold | CellFlagDrawn)

	c.Reset()

	if c.Char != ' ' || c.Combining != nil || c.Flags != 0 {
		t.Errorf("reset left state: %+v", c)
	}
}

func TestCellEraseKeepsBackground(t *testing.T) {
	c := NewCell()
	c.Char = 'A'
	c.SetFlag(CellFlagDrawn)
	bg := &IndexedColor{Index: 4}

	c.Erase(bg)

	if c.Char != ' ' || c.IsDrawn() {
		t.Error("erase should blank and clear drawn")
	}
	if got, ok := c.Bg.(*IndexedColor); !ok || got.Index != 4 {
		t.Errorf("erase should carry the background, got %v", c.Bg)
	}
}

func TestCellCombiningLimit(t *testing.T) {
	c := NewCell()

	for i := 0; i < 10; i++ {
		c.AppendCombining(rune(0x300+i), 3)
	}

	if len(c.Combining) != 3 {
		t.Errorf("expected 3 marks, got %d", len(c.Combining))
	}
}

func TestCellCopyIsDeep(t *testing.T) {
	c := NewCell()
	c.AppendCombining(0x301, 2)

	dup := c.Copy()
	dup.Combining[0] = 0x302

	if c.Combining[0] != 0x301 {
		t.Error("copy must not share combining storage")
	}
}

func TestLineClear(t *testing.T) {
	l := NewLine(4)
	l.Cells[0].Char = 'x'
	l.Size = LineSizeDoubleWide
	l.Wrapped = true

	l.Clear()

	if l.Cells[0].Char != ' ' || l.Size != LineSizeSingle || l.Wrapped {
		t.Errorf("clear left state: %+v", l)
	}
}

func TestLineHasBlink(t *testing.T) {
	l := NewLine(4)
	if l.HasBlink() {
		t.Error("fresh line should not blink")
	}
	l.Cells[2].SetFlag(CellFlagBlink)
	if !l.HasBlink() {
		t.Error("line with a blinking cell should report it")
	}
}

func TestRectHelpers(t *testing.T) {
	a := Rect{Top: 1, Left: 1, Bottom: 3, Right: 3}
	b := Rect{Top: 3, Left: 3, Bottom: 5, Right: 5}
	c := Rect{Top: 4, Left: 0, Bottom: 4, Right: 2}

	if !a.Intersects(b) {
		t.Error("corner-touching rects intersect")
	}
	if a.Intersects(c) {
		t.Error("disjoint rects must not intersect")
	}

	u := a.Union(b)
	if u.Top != 1 || u.Left != 1 || u.Bottom != 5 || u.Right != 5 {
		t.Errorf("union = %+v", u)
	}

	if !a.Contains(2, 2) || a.Contains(0, 2) {
		t.Error("contains is inclusive of edges only")
	}

	var empty Rect
	empty.Bottom = -1
	if !empty.Empty() {
		t.Error("inverted rect is empty")
	}
}

func TestPositionOrdering(t *testing.T) {
	a := Position{Row: 1, Col: 5}
	b := Position{Row: 2, Col: 0}

	if !a.Before(b) || b.Before(a) {
		t.Error("row ordering wrong")
	}
	if !a.Equal(Position{Row: 1, Col: 5}) {
		t.Error("equal positions should compare equal")
	}
}
