package decterm

import "testing"

func pushLine(s *MemoryScrollback, ch rune) {
	l := NewLine(4)
	l.Cells[0].Char = ch
	s.Push(l)
}

func TestMemoryScrollbackPushAndLine(t *testing.T) {
	s := NewMemoryScrollback(3)

	pushLine(s, 'a')
	pushLine(s, 'b')

	if s.Len() != 2 {
		t.Fatalf("len = %d", s.Len())
	}
	if s.Line(0).Cells[0].Char != 'a' {
		t.Error("index 0 should be the oldest line")
	}
	if s.Line(1).Cells[0].Char != 'b' {
		t.Error("index 1 should be the newer line")
	}
	if s.Line(2).Cells != nil {
		t.Error("out of range returns a zero line")
	}
}

func TestMemoryScrollbackEvictsOldest(t *testing.T) {
	s := NewMemoryScrollback(3)

	for _, ch := range "abcde" {
		pushLine(s, ch)
	}

	if s.Len() != 3 {
		t.Fatalf("len = %d, want capacity 3", s.Len())
	}
	want := []rune{'c', 'd', 'e'}
	for i, ch := range want {
		if got := s.Line(i).Cells[0].Char; got != ch {
			t.Errorf("line %d = %q, want %q", i, got, ch)
		}
	}
}

func TestMemoryScrollbackShrink(t *testing.T) {
	s := NewMemoryScrollback(5)
	for _, ch := range "abcde" {
		pushLine(s, ch)
	}

	s.SetMaxLines(2)

	if s.Len() != 2 || s.MaxLines() != 2 {
		t.Fatalf("len/max = %d/%d", s.Len(), s.MaxLines())
	}
	if s.Line(0).Cells[0].Char != 'd' || s.Line(1).Cells[0].Char != 'e' {
		t.Error("shrink should keep the newest lines")
	}

	// Ring still behaves after shrink.
	pushLine(s, 'f')
	if s.Line(1).Cells[0].Char != 'f' {
		t.Errorf("push after shrink broken: %q", s.Line(1).Cells[0].Char)
	}
}

func TestMemoryScrollbackClear(t *testing.T) {
	s := NewMemoryScrollback(3)
	pushLine(s, 'a')

	s.Clear()

	if s.Len() != 0 {
		t.Errorf("len after clear = %d", s.Len())
	}
}

func TestMemoryScrollbackZeroCapacity(t *testing.T) {
	s := NewMemoryScrollback(0)
	pushLine(s, 'a')

	if s.Len() != 0 {
		t.Error("zero-capacity scrollback stores nothing")
	}
}
