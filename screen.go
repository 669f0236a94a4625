package termio

import "strings"

// Position identifies a cell location in the screen grid (0-based).
type Position struct {
	Row int
	Col int
}

// Cursor tracks the current write position and visibility (0-based coordinates).
type Cursor struct {
	Row     int
	Col     int
	Visible bool
}

// Screen is a 2D grid of cells plus cursor, scroll region, current write
// attributes, and a bounded scrollback log. It is the shared data model of
// the whole package: the output parser mutates one Screen per child process,
// UI composition mutates the top-level Screen, and the diff encoder reads a
// Screen to produce output.
//
// A Screen is owned by exactly one writer; it performs no locking itself.
type Screen struct {
	rows  int
	cols  int
	cells [][]Cell

	cursor Cursor
	saved  *Position

	// Scroll region [top, bottom), half-open like a slice.
	top    int
	bottom int

	// Attributes applied to the next written character (SGR state).
	template Cell

	scrollback ScrollbackProvider
	viewOffset int

	hasDirty bool
}

// NewScreen creates a screen with the given dimensions and no scrollback.
func NewScreen(rows, cols int) *Screen {
	return NewScreenWithScrollback(rows, cols, NoopScrollback{})
}

// NewScreenWithScrollback creates a screen with custom scrollback storage.
func NewScreenWithScrollback(rows, cols int, storage ScrollbackProvider) *Screen {
	if rows <= 0 {
		rows = 1
	}
	if cols <= 0 {
		cols = 1
	}
	s := &Screen{
		rows:       rows,
		cols:       cols,
		cells:      make([][]Cell, rows),
		cursor:     Cursor{Visible: true},
		bottom:     rows,
		template:   NewCell(),
		scrollback: storage,
	}

	for i := range s.cells {
		s.cells[i] = make([]Cell, cols)
		for j := range s.cells[i] {
			s.cells[i][j] = NewCell()
		}
	}

	return s
}

// Rows returns the screen height in character rows.
func (s *Screen) Rows() int {
	return s.rows
}

// Cols returns the screen width in character columns.
func (s *Screen) Cols() int {
	return s.cols
}

// Cell returns a pointer to the cell at (row, col).
// Returns nil if coordinates are out of bounds.
func (s *Screen) Cell(row, col int) *Cell {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return nil
	}
	return &s.cells[row][col]
}

// SetCell replaces the cell at (row, col) and marks it dirty.
// Does nothing if coordinates are out of bounds.
func (s *Screen) SetCell(row, col int, cell Cell) {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return
	}
	cell.MarkDirty()
	s.cells[row][col] = cell
	s.hasDirty = true
}

// MarkDirty marks the cell at (row, col) as modified.
func (s *Screen) MarkDirty(row, col int) {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return
	}
	s.cells[row][col].MarkDirty()
	s.hasDirty = true
}

// MarkAllDirty marks every cell as modified, forcing the next flush to
// rewrite the whole screen.
func (s *Screen) MarkAllDirty() {
	for row := range s.cells {
		for col := range s.cells[row] {
			s.cells[row][col].MarkDirty()
		}
	}
	s.hasDirty = true
}

// HasDirty returns true if any cell was modified since the last ClearAllDirty.
func (s *Screen) HasDirty() bool {
	return s.hasDirty
}

// DirtyCells returns positions of all modified cells in row-major order.
func (s *Screen) DirtyCells() []Position {
	var positions []Position
	for row := range s.cells {
		for col := range s.cells[row] {
			if s.cells[row][col].IsDirty() {
				positions = append(positions, Position{Row: row, Col: col})
			}
		}
	}
	return positions
}

// ClearAllDirty resets the dirty state of all cells.
func (s *Screen) ClearAllDirty() {
	for row := range s.cells {
		for col := range s.cells[row] {
			s.cells[row][col].ClearDirty()
		}
	}
	s.hasDirty = false
}

// Cursor returns the current cursor state.
func (s *Screen) Cursor() Cursor {
	return s.cursor
}

// SetCursor moves the cursor, clamping to the grid bounds.
func (s *Screen) SetCursor(row, col int) {
	s.cursor.Row = clamp(row, 0, s.rows-1)
	s.cursor.Col = clamp(col, 0, s.cols-1)
}

// SetCursorVisible toggles cursor visibility.
func (s *Screen) SetCursorVisible(visible bool) {
	s.cursor.Visible = visible
}

// SaveCursor records the current cursor position (position only, not attributes).
func (s *Screen) SaveCursor() {
	s.saved = &Position{Row: s.cursor.Row, Col: s.cursor.Col}
}

// RestoreCursor moves the cursor back to the last saved position.
// Does nothing if no position was saved.
func (s *Screen) RestoreCursor() {
	if s.saved == nil {
		return
	}
	s.SetCursor(s.saved.Row, s.saved.Col)
}

// ScrollRegion returns the current scroll region as [top, bottom) rows.
func (s *Screen) ScrollRegion() (top, bottom int) {
	return s.top, s.bottom
}

// SetScrollRegion sets the scroll region to [top, bottom) rows, clamped to
// the grid. An inverted or degenerate region resets to the full screen.
func (s *Screen) SetScrollRegion(top, bottom int) {
	if top < 0 {
		top = 0
	}
	if bottom > s.rows {
		bottom = s.rows
	}
	if top >= bottom {
		top = 0
		bottom = s.rows
	}
	s.top = top
	s.bottom = bottom
}

// Template returns the attributes applied to the next written character.
func (s *Screen) Template() Cell {
	return s.template
}

// SetTemplate replaces the attributes applied to the next written character.
func (s *Screen) SetTemplate(tmpl Cell) {
	s.template = tmpl
}

// ClearRow resets all cells in the row to default state and marks them dirty.
func (s *Screen) ClearRow(row int) {
	if row < 0 || row >= s.rows {
		return
	}
	for col := range s.cells[row] {
		s.cells[row][col].Reset()
		s.cells[row][col].MarkDirty()
	}
	s.hasDirty = true
}

// ClearRowRange resets cells in the row from startCol (inclusive) to endCol (exclusive).
func (s *Screen) ClearRowRange(row, startCol, endCol int) {
	if row < 0 || row >= s.rows {
		return
	}
	if startCol < 0 {
		startCol = 0
	}
	if endCol > s.cols {
		endCol = s.cols
	}
	for col := startCol; col < endCol; col++ {
		s.cells[row][col].Reset()
		s.cells[row][col].MarkDirty()
	}
	s.hasDirty = true
}

// ClearAll resets every cell in the grid to default state.
func (s *Screen) ClearAll() {
	for row := range s.cells {
		s.ClearRow(row)
	}
}

// ScrollUp shifts rows up by n positions within [top, bottom).
// Rows scrolled off a region starting at the screen top are pushed to
// scrollback. Vacated bottom rows are cleared and marked dirty.
func (s *Screen) ScrollUp(top, bottom, n int) {
	if n <= 0 || top >= bottom {
		return
	}
	if top < 0 {
		top = 0
	}
	if bottom > s.rows {
		bottom = s.rows
	}
	if n > bottom-top {
		n = bottom - top
	}

	if s.scrollback != nil && s.scrollback.MaxLines() > 0 && top == 0 {
		for i := 0; i < n; i++ {
			s.scrollback.Push(s.cells[i])
		}
	}

	for row := top; row < bottom-n; row++ {
		s.cells[row] = s.cells[row+n]
		for col := range s.cells[row] {
			s.cells[row][col].MarkDirty()
		}
	}

	for row := bottom - n; row < bottom; row++ {
		s.cells[row] = make([]Cell, s.cols)
		for col := range s.cells[row] {
			s.cells[row][col] = NewCell()
			s.cells[row][col].MarkDirty()
		}
	}
	s.hasDirty = true
}

// ScrollDown shifts rows down by n positions within [top, bottom).
// Vacated top rows are cleared and marked dirty.
func (s *Screen) ScrollDown(top, bottom, n int) {
	if n <= 0 || top >= bottom {
		return
	}
	if top < 0 {
		top = 0
	}
	if bottom > s.rows {
		bottom = s.rows
	}
	if n > bottom-top {
		n = bottom - top
	}

	for row := bottom - 1; row >= top+n; row-- {
		s.cells[row] = s.cells[row-n]
		for col := range s.cells[row] {
			s.cells[row][col].MarkDirty()
		}
	}

	for row := top; row < top+n; row++ {
		s.cells[row] = make([]Cell, s.cols)
		for col := range s.cells[row] {
			s.cells[row][col] = NewCell()
			s.cells[row][col].MarkDirty()
		}
	}
	s.hasDirty = true
}

// InsertLines inserts n blank rows at row, shifting rows below it down
// within the scroll region.
func (s *Screen) InsertLines(row, n int) {
	if row < s.top || row >= s.bottom || n <= 0 {
		return
	}
	s.ScrollDown(row, s.bottom, n)
}

// DeleteLines removes n rows at row, shifting rows below it up within the
// scroll region.
func (s *Screen) DeleteLines(row, n int) {
	if row < s.top || row >= s.bottom || n <= 0 {
		return
	}
	s.ScrollUp(row, s.bottom, n)
}

// InsertBlanks inserts n blank cells at (row, col), shifting existing
// characters right. Characters pushed past the right edge are lost.
func (s *Screen) InsertBlanks(row, col, n int) {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols || n <= 0 {
		return
	}

	for c := s.cols - 1; c >= col+n; c-- {
		s.cells[row][c] = s.cells[row][c-n]
		s.cells[row][c].MarkDirty()
	}

	for c := col; c < col+n && c < s.cols; c++ {
		s.cells[row][c].Reset()
		s.cells[row][c].MarkDirty()
	}
	s.hasDirty = true
}

// DeleteChars removes n characters at (row, col), shifting the remainder of
// the row left and clearing the vacated cells at the end.
func (s *Screen) DeleteChars(row, col, n int) {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols || n <= 0 {
		return
	}
	if n > s.cols-col {
		n = s.cols - col
	}

	for c := col; c < s.cols-n; c++ {
		s.cells[row][c] = s.cells[row][c+n]
		s.cells[row][c].MarkDirty()
	}

	for c := s.cols - n; c < s.cols; c++ {
		s.cells[row][c].Reset()
		s.cells[row][c].MarkDirty()
	}
	s.hasDirty = true
}

// Resize changes the grid dimensions, preserving existing cells where
// possible. Content is kept at the top-left; the cursor is clamped and the
// scroll region reset. Every cell is marked dirty.
func (s *Screen) Resize(rows, cols int) {
	if rows <= 0 || cols <= 0 {
		return
	}

	newCells := make([][]Cell, rows)
	for i := range newCells {
		newCells[i] = make([]Cell, cols)
		for j := range newCells[i] {
			if i < s.rows && j < s.cols {
				newCells[i][j] = s.cells[i][j]
			} else {
				newCells[i][j] = NewCell()
			}
			newCells[i][j].MarkDirty()
		}
	}

	s.cells = newCells
	s.rows = rows
	s.cols = cols
	s.hasDirty = true

	s.cursor.Row = clamp(s.cursor.Row, 0, rows-1)
	s.cursor.Col = clamp(s.cursor.Col, 0, cols-1)
	s.top = 0
	s.bottom = rows
}

// --- Scrollback and viewport ---

// ScrollbackLen returns the number of rows stored in scrollback.
func (s *Screen) ScrollbackLen() int {
	if s.scrollback == nil {
		return 0
	}
	return s.scrollback.Len()
}

// ScrollbackLine returns a row from scrollback, where 0 is the oldest row.
func (s *Screen) ScrollbackLine(index int) []Cell {
	if s.scrollback == nil {
		return nil
	}
	return s.scrollback.Line(index)
}

// ViewOffset returns how many scrollback rows are currently scrolled into view.
func (s *Screen) ViewOffset() int {
	return s.viewOffset
}

// ScrollView adjusts the viewport offset by delta rows (positive scrolls
// back in history), clamped to the available scrollback.
func (s *Screen) ScrollView(delta int) {
	s.viewOffset = clamp(s.viewOffset+delta, 0, s.ScrollbackLen())
}

// ResetView returns the viewport to the live screen.
func (s *Screen) ResetView() {
	s.viewOffset = 0
}

// ViewLine returns the row shown at viewport position row, accounting for
// the current scrollback offset. Returns nil if out of range.
func (s *Screen) ViewLine(row int) []Cell {
	if row < 0 || row >= s.rows {
		return nil
	}
	if s.viewOffset > 0 {
		idx := s.ScrollbackLen() - s.viewOffset + row
		if idx < s.ScrollbackLen() {
			return s.ScrollbackLine(idx)
		}
		row = idx - s.ScrollbackLen()
		if row >= s.rows {
			return nil
		}
	}
	return s.cells[row]
}

// --- Text extraction ---

// LineContent returns the text content of a row, trimming trailing spaces.
// Wide character spacers are skipped.
func (s *Screen) LineContent(row int) string {
	if row < 0 || row >= s.rows {
		return ""
	}

	lastNonSpace := -1
	for col := s.cols - 1; col >= 0; col-- {
		cell := &s.cells[row][col]
		if cell.Char != ' ' && cell.Char != 0 && !cell.IsWideSpacer() {
			lastNonSpace = col
			break
		}
	}

	if lastNonSpace < 0 {
		return ""
	}

	runes := make([]rune, 0, lastNonSpace+1)
	for col := 0; col <= lastNonSpace; col++ {
		cell := &s.cells[row][col]
		if cell.IsWideSpacer() {
			continue
		}
		if cell.Char == 0 {
			runes = append(runes, ' ')
		} else {
			runes = append(runes, cell.Char)
		}
	}

	return string(runes)
}

// String returns the visible text of the whole screen, one line per row,
// with trailing blank lines removed.
func (s *Screen) String() string {
	lines := make([]string, s.rows)
	last := -1
	for row := 0; row < s.rows; row++ {
		lines[row] = s.LineContent(row)
		if lines[row] != "" {
			last = row
		}
	}
	return strings.Join(lines[:last+1], "\n")
}

// PutText writes a string at (row, col) using the given template attributes,
// used by UI composition to build the top-level screen. Wide characters
// occupy two columns with a spacer cell. Writing stops at the right edge.
func (s *Screen) PutText(row, col int, text string, tmpl Cell) {
	for _, r := range text {
		w := runeWidth(r)
		if w == 0 {
			continue
		}
		if col+w > s.cols {
			break
		}

		cell := tmpl
		cell.Char = r
		cell.ClearFlag(CellFlagWideChar | CellFlagWideCharSpacer)
		if w == 2 {
			cell.SetFlag(CellFlagWideChar)
		}
		s.SetCell(row, col, cell)

		if w == 2 {
			spacer := tmpl
			spacer.Char = 0
			spacer.ClearFlag(CellFlagWideChar)
			spacer.SetFlag(CellFlagWideCharSpacer)
			s.SetCell(row, col+1, spacer)
		}
		col += w
	}
}

// clamp ensures the value is within the given range.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
