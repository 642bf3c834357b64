package decterm

import (
	"encoding/json"
	"testing"
)

func TestSnapshotText(t *testing.T) {
	term := New(WithSize(3, 10))
	term.WriteString("hello\r\nworld")

	snap := term.Snapshot(SnapshotDetailText)

	if snap.Size.Rows != 3 || snap.Size.Cols != 10 {
		t.Errorf("size = %+v", snap.Size)
	}
	if snap.Cursor.Row != 1 || snap.Cursor.Col != 5 || !snap.Cursor.Visible {
		t.Errorf("cursor = %+v", snap.Cursor)
	}
	if len(snap.Lines) != 3 {
		t.Fatalf("lines = %d", len(snap.Lines))
	}
	if snap.Lines[0].Text != "hello" || snap.Lines[1].Text != "world" {
		t.Errorf("texts = %q / %q", snap.Lines[0].Text, snap.Lines[1].Text)
	}
	if snap.Lines[0].Segments != nil {
		t.Error("text detail should omit segments")
	}
}

func TestSnapshotStyledSegments(t *testing.T) {
	term := New(WithSize(2, 10))
	term.WriteString("ab\x1b[1;31mcd\x1b[0mef")

	snap := term.Snapshot(SnapshotDetailStyled)

	segs := snap.Lines[0].Segments
	if len(segs) < 3 {
		t.Fatalf("expected 3+ segments, got %+v", segs)
	}
	if segs[0].Text != "ab" || segs[0].Attrs.Bold {
		t.Errorf("segment 0 = %+v", segs[0])
	}
	if segs[1].Text != "cd" || !segs[1].Attrs.Bold || segs[1].Fg != "1" {
		t.Errorf("segment 1 = %+v", segs[1])
	}
	if segs[2].Text[:2] != "ef" || segs[2].Attrs.Bold {
		t.Errorf("segment 2 = %+v", segs[2])
	}
}

func TestSnapshotMarshals(t *testing.T) {
	term := New(WithSize(2, 5))
	term.WriteString("hi")

	data, err := json.Marshal(term.Snapshot(SnapshotDetailStyled))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(data) == 0 {
		t.Error("empty payload")
	}
}

func TestSnapshotWrappedFlag(t *testing.T) {
	term := New(WithSize(3, 5))
	term.WriteString("abcdefg")

	snap := term.Snapshot(SnapshotDetailText)
	if !snap.Lines[0].Wrapped {
		t.Error("row 0 should be marked wrapped")
	}
	if snap.Lines[1].Wrapped {
		t.Error("row 1 is not wrapped")
	}
}

func TestScreenshotDimensions(t *testing.T) {
	term := New(WithSize(3, 10))
	term.WriteString("hi")

	img := term.Screenshot()

	if img.Bounds().Dx() != 10*7 {
		t.Errorf("width = %d, want %d", img.Bounds().Dx(), 70)
	}
	if img.Bounds().Dy()%3 != 0 {
		t.Errorf("height %d should be a multiple of the row count", img.Bounds().Dy())
	}
}

func TestScreenshotHonorsCellOverride(t *testing.T) {
	term := New(WithSize(2, 4))

	img := term.ScreenshotWithConfig(&ScreenshotConfig{CellWidth: 5, CellHeight: 9})

	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 18 {
		t.Errorf("bounds = %v", img.Bounds())
	}
}
