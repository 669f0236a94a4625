package termio

// ScrollbackProvider stores rows scrolled off the top of the primary screen.
// Implementations can use in-memory storage, disk, database, etc.
type ScrollbackProvider interface {
	// Push appends a row to scrollback. Oldest rows should be removed if
	// MaxLines is exceeded.
	Push(line []Cell)
	// Len returns the current number of stored rows.
	Len() int
	// Line returns the row at index, where 0 is the oldest row. Returns nil
	// if out of range.
	Line(index int) []Cell
	// Clear removes all stored rows.
	Clear()
	// MaxLines returns the current maximum capacity.
	MaxLines() int
}

// NoopScrollback discards all scrollback rows (used by the alternate screen,
// which has no scrollback).
type NoopScrollback struct{}

func (NoopScrollback) Push(line []Cell)      {}
func (NoopScrollback) Len() int              { return 0 }
func (NoopScrollback) Line(index int) []Cell { return nil }
func (NoopScrollback) Clear()                {}
func (NoopScrollback) MaxLines() int         { return 0 }

// MemoryScrollback stores scrollback rows in memory with a fixed limit.
// When the limit is reached, the oldest rows are dropped to make room.
type MemoryScrollback struct {
	lines    [][]Cell
	maxLines int
}

// NewMemoryScrollback creates an in-memory scrollback buffer with the given
// capacity. A capacity of 0 disables storage entirely.
func NewMemoryScrollback(maxLines int) *MemoryScrollback {
	return &MemoryScrollback{
		lines:    make([][]Cell, 0),
		maxLines: maxLines,
	}
}

// Push appends a row to scrollback, dropping the oldest rows when over capacity.
func (m *MemoryScrollback) Push(line []Cell) {
	if m.maxLines <= 0 {
		return
	}

	// Copy to protect against later grid mutation
	lineCopy := make([]Cell, len(line))
	copy(lineCopy, line)

	m.lines = append(m.lines, lineCopy)

	if len(m.lines) > m.maxLines {
		excess := len(m.lines) - m.maxLines
		m.lines = m.lines[excess:]
	}
}

// Len returns the current number of stored rows.
func (m *MemoryScrollback) Len() int {
	return len(m.lines)
}

// Line returns the row at index, where 0 is the oldest row.
// Returns nil if index is out of range.
func (m *MemoryScrollback) Line(index int) []Cell {
	if index < 0 || index >= len(m.lines) {
		return nil
	}
	return m.lines[index]
}

// Clear removes all stored rows.
func (m *MemoryScrollback) Clear() {
	m.lines = m.lines[:0]
}

// MaxLines returns the maximum capacity.
func (m *MemoryScrollback) MaxLines() int {
	return m.maxLines
}

var _ ScrollbackProvider = NoopScrollback{}
var _ ScrollbackProvider = (*MemoryScrollback)(nil)
