package termio

import "testing"

func TestNewScreen(t *testing.T) {
	s := NewScreen(10, 40)

	if s.Rows() != 10 || s.Cols() != 40 {
		t.Errorf("expected 10x40, got %dx%d", s.Rows(), s.Cols())
	}
	if !s.Cursor().Visible {
		t.Error("cursor should start visible")
	}
	top, bottom := s.ScrollRegion()
	if top != 0 || bottom != 10 {
		t.Errorf("expected full scroll region, got [%d, %d)", top, bottom)
	}
}

func TestScreenSetCell(t *testing.T) {
	s := NewScreen(5, 10)

	cell := NewCell()
	cell.Char = 'x'
	s.SetCell(2, 3, cell)

	got := s.Cell(2, 3)
	if got.Char != 'x' {
		t.Errorf("expected 'x', got %q", got.Char)
	}
	if !got.IsDirty() {
		t.Error("SetCell should mark the cell dirty")
	}
	if !s.HasDirty() {
		t.Error("screen should report dirty cells")
	}

	// Out of bounds is a no-op.
	s.SetCell(-1, 0, cell)
	s.SetCell(0, 99, cell)
	if s.Cell(99, 0) != nil {
		t.Error("out-of-bounds Cell should return nil")
	}
}

func TestScreenCursorClamping(t *testing.T) {
	s := NewScreen(5, 10)

	s.SetCursor(100, 100)
	cur := s.Cursor()
	if cur.Row != 4 || cur.Col != 9 {
		t.Errorf("expected cursor clamped to (4, 9), got (%d, %d)", cur.Row, cur.Col)
	}

	s.SetCursor(-5, -5)
	cur = s.Cursor()
	if cur.Row != 0 || cur.Col != 0 {
		t.Errorf("expected cursor clamped to (0, 0), got (%d, %d)", cur.Row, cur.Col)
	}
}

func TestScreenSaveRestoreCursor(t *testing.T) {
	s := NewScreen(5, 10)

	s.SetCursor(2, 3)
	s.SaveCursor()
	s.SetCursor(4, 8)
	s.RestoreCursor()

	cur := s.Cursor()
	if cur.Row != 2 || cur.Col != 3 {
		t.Errorf("expected cursor restored to (2, 3), got (%d, %d)", cur.Row, cur.Col)
	}
}

func TestScreenRestoreWithoutSave(t *testing.T) {
	s := NewScreen(5, 10)
	s.SetCursor(3, 3)
	s.RestoreCursor()

	cur := s.Cursor()
	if cur.Row != 3 || cur.Col != 3 {
		t.Error("restore without a prior save should not move the cursor")
	}
}

func TestScreenScrollRegionValidation(t *testing.T) {
	s := NewScreen(10, 40)

	s.SetScrollRegion(2, 8)
	top, bottom := s.ScrollRegion()
	if top != 2 || bottom != 8 {
		t.Errorf("expected [2, 8), got [%d, %d)", top, bottom)
	}

	// Inverted region resets to the full screen.
	s.SetScrollRegion(8, 2)
	top, bottom = s.ScrollRegion()
	if top != 0 || bottom != 10 {
		t.Errorf("inverted region should reset to full, got [%d, %d)", top, bottom)
	}
}

func TestScreenScrollUp(t *testing.T) {
	s := NewScreen(3, 10)
	s.PutText(0, 0, "one", NewCell())
	s.PutText(1, 0, "two", NewCell())
	s.PutText(2, 0, "three", NewCell())

	s.ScrollUp(0, 3, 1)

	if s.LineContent(0) != "two" {
		t.Errorf("expected 'two', got %q", s.LineContent(0))
	}
	if s.LineContent(1) != "three" {
		t.Errorf("expected 'three', got %q", s.LineContent(1))
	}
	if s.LineContent(2) != "" {
		t.Errorf("expected cleared bottom row, got %q", s.LineContent(2))
	}
}

func TestScreenScrollDown(t *testing.T) {
	s := NewScreen(3, 10)
	s.PutText(0, 0, "one", NewCell())
	s.PutText(1, 0, "two", NewCell())

	s.ScrollDown(0, 3, 1)

	if s.LineContent(0) != "" {
		t.Errorf("expected cleared top row, got %q", s.LineContent(0))
	}
	if s.LineContent(1) != "one" {
		t.Errorf("expected 'one', got %q", s.LineContent(1))
	}
	if s.LineContent(2) != "two" {
		t.Errorf("expected 'two', got %q", s.LineContent(2))
	}
}

func TestScreenScrollUpIntoScrollback(t *testing.T) {
	sb := NewMemoryScrollback(10)
	s := NewScreenWithScrollback(3, 10, sb)
	s.PutText(0, 0, "oldest", NewCell())

	s.ScrollUp(0, 3, 1)

	if sb.Len() != 1 {
		t.Fatalf("expected 1 scrollback line, got %d", sb.Len())
	}
	line := sb.Line(0)
	if line[0].Char != 'o' {
		t.Errorf("expected scrollback to hold the evicted row, got %q", line[0].Char)
	}
}

func TestScreenScrollRegionDoesNotFeedScrollback(t *testing.T) {
	sb := NewMemoryScrollback(10)
	s := NewScreenWithScrollback(5, 10, sb)

	// Region not anchored at the screen top.
	s.ScrollUp(1, 4, 1)

	if sb.Len() != 0 {
		t.Errorf("region scroll should not feed scrollback, got %d lines", sb.Len())
	}
}

func TestScrollbackCapacity(t *testing.T) {
	sb := NewMemoryScrollback(2)
	s := NewScreenWithScrollback(1, 5, sb)

	for _, text := range []string{"a", "b", "c"} {
		s.PutText(0, 0, text, NewCell())
		s.ScrollUp(0, 1, 1)
	}

	if sb.Len() != 2 {
		t.Fatalf("expected capacity 2, got %d", sb.Len())
	}
	if sb.Line(0)[0].Char != 'b' {
		t.Errorf("oldest retained line should be 'b', got %q", sb.Line(0)[0].Char)
	}
	if sb.Line(1)[0].Char != 'c' {
		t.Errorf("newest line should be 'c', got %q", sb.Line(1)[0].Char)
	}
}

func TestScreenInsertDeleteLines(t *testing.T) {
	s := NewScreen(4, 10)
	s.PutText(0, 0, "one", NewCell())
	s.PutText(1, 0, "two", NewCell())
	s.PutText(2, 0, "three", NewCell())

	s.InsertLines(1, 1)
	if s.LineContent(1) != "" || s.LineContent(2) != "two" {
		t.Errorf("insert: got %q / %q", s.LineContent(1), s.LineContent(2))
	}

	s.DeleteLines(1, 1)
	if s.LineContent(1) != "two" || s.LineContent(2) != "three" {
		t.Errorf("delete: got %q / %q", s.LineContent(1), s.LineContent(2))
	}
}

func TestScreenInsertBlanks(t *testing.T) {
	s := NewScreen(1, 10)
	s.PutText(0, 0, "abcde", NewCell())

	s.InsertBlanks(0, 1, 2)

	if s.LineContent(0) != "a  bcde" {
		t.Errorf("expected 'a  bcde', got %q", s.LineContent(0))
	}
}

func TestScreenDeleteChars(t *testing.T) {
	s := NewScreen(1, 10)
	s.PutText(0, 0, "abcde", NewCell())

	s.DeleteChars(0, 1, 2)

	if s.LineContent(0) != "ade" {
		t.Errorf("expected 'ade', got %q", s.LineContent(0))
	}
}

func TestScreenResizePreservesContent(t *testing.T) {
	s := NewScreen(4, 10)
	s.PutText(0, 0, "keep", NewCell())
	s.SetCursor(3, 9)
	s.SetScrollRegion(1, 3)
	s.ClearAllDirty()

	s.Resize(2, 6)

	if s.Rows() != 2 || s.Cols() != 6 {
		t.Fatalf("expected 2x6, got %dx%d", s.Rows(), s.Cols())
	}
	if s.LineContent(0) != "keep" {
		t.Errorf("expected preserved content, got %q", s.LineContent(0))
	}
	cur := s.Cursor()
	if cur.Row != 1 || cur.Col != 5 {
		t.Errorf("expected clamped cursor (1, 5), got (%d, %d)", cur.Row, cur.Col)
	}
	top, bottom := s.ScrollRegion()
	if top != 0 || bottom != 2 {
		t.Errorf("expected reset scroll region, got [%d, %d)", top, bottom)
	}
	if !s.HasDirty() {
		t.Error("resize should mark everything dirty")
	}
}

func TestScreenDirtyLifecycle(t *testing.T) {
	s := NewScreen(2, 4)
	s.ClearAllDirty()

	if s.HasDirty() {
		t.Error("expected clean screen")
	}

	s.MarkDirty(1, 2)
	positions := s.DirtyCells()
	if len(positions) != 1 || positions[0] != (Position{Row: 1, Col: 2}) {
		t.Errorf("expected single dirty cell at (1, 2), got %v", positions)
	}

	s.ClearAllDirty()
	if s.HasDirty() || len(s.DirtyCells()) != 0 {
		t.Error("expected no dirty cells after clear")
	}
}

func TestScreenLineContent(t *testing.T) {
	s := NewScreen(2, 10)
	s.PutText(0, 0, "hi", NewCell())

	if s.LineContent(0) != "hi" {
		t.Errorf("expected 'hi', got %q", s.LineContent(0))
	}
	if s.LineContent(1) != "" {
		t.Errorf("expected empty line, got %q", s.LineContent(1))
	}
	if s.LineContent(99) != "" {
		t.Error("out-of-range row should be empty")
	}
}

func TestScreenLineContentWideChars(t *testing.T) {
	s := NewScreen(1, 10)
	s.PutText(0, 0, "a世b", NewCell())

	if s.LineContent(0) != "a世b" {
		t.Errorf("expected wide char preserved without spacer, got %q", s.LineContent(0))
	}
	if !s.Cell(0, 1).IsWide() {
		t.Error("expected wide flag on the character cell")
	}
	if !s.Cell(0, 2).IsWideSpacer() {
		t.Error("expected spacer flag on the following cell")
	}
}

func TestScreenPutTextStopsAtEdge(t *testing.T) {
	s := NewScreen(1, 4)
	s.PutText(0, 0, "abc世", NewCell())

	// The wide char needs cols 3-4 but only col 3 exists.
	if s.LineContent(0) != "abc" {
		t.Errorf("expected truncated text 'abc', got %q", s.LineContent(0))
	}
}

func TestScreenViewport(t *testing.T) {
	sb := NewMemoryScrollback(10)
	s := NewScreenWithScrollback(2, 5, sb)

	for _, text := range []string{"a", "b", "c"} {
		s.PutText(0, 0, text, NewCell())
		s.ScrollUp(0, 2, 1)
	}
	s.PutText(0, 0, "live", NewCell())

	s.ScrollView(1)
	if s.ViewOffset() != 1 {
		t.Fatalf("expected offset 1, got %d", s.ViewOffset())
	}

	// One scrollback row in view, then the first live row.
	if s.ViewLine(0)[0].Char != 'c' {
		t.Errorf("expected newest scrollback row, got %q", s.ViewLine(0)[0].Char)
	}
	if s.ViewLine(1)[0].Char != 'l' {
		t.Errorf("expected first live row, got %q", s.ViewLine(1)[0].Char)
	}

	// Offset clamps to available history.
	s.ScrollView(100)
	if s.ViewOffset() != 3 {
		t.Errorf("expected offset clamped to 3, got %d", s.ViewOffset())
	}

	s.ResetView()
	if s.ViewOffset() != 0 {
		t.Error("expected offset 0 after reset")
	}
	if s.ViewLine(0)[0].Char != 'l' {
		t.Error("expected live content after reset")
	}
}
