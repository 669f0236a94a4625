package termio

import (
	"bufio"
	"image/color"
	"io"
	"strconv"
)

// Encoder turns a mutated Screen into the minimal ANSI byte stream that
// reproduces it on a real terminal. Only cells marked dirty since the last
// flush are visited, in row-major order; cursor repositioning and SGR
// transitions are emitted only when required.
//
// The encoder assumes single-writer access to the Screen it reads;
// composition of multiple panes into the top-level Screen happens before
// Flush runs, never concurrently with it.
type Encoder struct {
	w *bufio.Writer

	// Tracked terminal state. cursorValid is false when the terminal's
	// actual cursor position is unknown (startup, after non-ASCII output).
	cursorX     int
	cursorY     int
	cursorValid bool

	// Last style actually written, for SGR coalescing.
	lastFg    color.Color
	lastBg    color.Color
	lastFlags CellFlags
	lastValid bool
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w: bufio.NewWriterSize(w, 32*1024),
	}
}

// Reset invalidates all tracked terminal state, forcing the next flush to
// reposition and restyle from scratch. Used after a resize or screen-mode
// change, together with Screen.MarkAllDirty.
func (e *Encoder) Reset() {
	e.cursorValid = false
	e.lastValid = false
}

// FullRedraw marks every cell of the screen dirty and resets the tracked
// terminal state, so the next Flush repaints everything.
func (e *Encoder) FullRedraw(s *Screen) {
	s.MarkAllDirty()
	e.Reset()
}

// Flush writes the dirty cells of s to the terminal and clears the dirty
// flags. When nothing is dirty, no bytes are written at all.
func (e *Encoder) Flush(s *Screen) error {
	if !s.HasDirty() {
		return nil
	}

	rows, cols := s.Rows(), s.Cols()

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			cell := s.Cell(y, x)
			if !cell.IsDirty() {
				continue
			}

			if cell.IsWideSpacer() {
				// The preceding wide character already painted both terminal
				// columns; only render stale placeholders as spaces.
				if x > 0 {
					if prev := s.Cell(y, x-1); prev != nil && prev.IsWide() {
						continue
					}
				}
			}

			// Reposition defensively around non-ASCII output; terminals vary
			// in how they account for multi-byte and width-ambiguous glyphs.
			if cell.Char >= 0x80 {
				e.cursorValid = false
			}
			e.moveTo(x, y)
			e.writeStyle(cell)
			e.writeChar(cell)
		}
	}

	// Park the terminal cursor where the screen says it should be.
	cur := s.Cursor()
	e.writeCursorPos(cur.Col, cur.Row)
	e.cursorX, e.cursorY, e.cursorValid = cur.Col, cur.Row, true
	if cur.Visible {
		e.w.WriteString("\x1b[?25h")
	} else {
		e.w.WriteString("\x1b[?25l")
	}

	s.ClearAllDirty()
	return e.w.Flush()
}

// moveTo emits a cursor-repositioning sequence unless the terminal cursor
// is already known to sit at (x, y).
func (e *Encoder) moveTo(x, y int) {
	if e.cursorValid && x == e.cursorX && y == e.cursorY {
		return
	}
	e.writeCursorPos(x, y)
	e.cursorX, e.cursorY = x, y
	e.cursorValid = true
}

func (e *Encoder) writeCursorPos(x, y int) {
	e.w.WriteString("\x1b[")
	e.w.WriteString(strconv.Itoa(y + 1))
	e.w.WriteByte(';')
	e.w.WriteString(strconv.Itoa(x + 1))
	e.w.WriteByte('H')
}

// writeStyle emits one combined SGR sequence when the cell's style differs
// from the last cell actually written. Default (nil) colors reset rather
// than re-specify all channels: the sequence always begins with 0.
func (e *Encoder) writeStyle(cell *Cell) {
	flags := cell.Flags & styleFlags
	if e.lastValid && cell.Fg == e.lastFg && cell.Bg == e.lastBg && flags == e.lastFlags {
		return
	}

	e.w.WriteString("\x1b[0")
	if flags&CellFlagBold != 0 {
		e.w.WriteString(";1")
	}
	if flags&CellFlagDim != 0 {
		e.w.WriteString(";2")
	}
	if flags&CellFlagItalic != 0 {
		e.w.WriteString(";3")
	}
	if flags&CellFlagUnderline != 0 {
		e.w.WriteString(";4")
	}
	if flags&CellFlagInverse != 0 {
		e.w.WriteString(";7")
	}
	if cell.Fg != nil {
		r, g, b := splitRGB(cell.Fg)
		e.writeRGB(38, r, g, b)
	}
	if cell.Bg != nil {
		r, g, b := splitRGB(cell.Bg)
		e.writeRGB(48, r, g, b)
	}
	e.w.WriteByte('m')

	e.lastFg = cell.Fg
	e.lastBg = cell.Bg
	e.lastFlags = flags
	e.lastValid = true
}

func (e *Encoder) writeRGB(channel int, r, g, b uint8) {
	e.w.WriteByte(';')
	e.w.WriteString(strconv.Itoa(channel))
	e.w.WriteString(";2;")
	e.w.WriteString(strconv.Itoa(int(r)))
	e.w.WriteByte(';')
	e.w.WriteString(strconv.Itoa(int(g)))
	e.w.WriteByte(';')
	e.w.WriteString(strconv.Itoa(int(b)))
}

// writeChar writes the cell's character. ASCII output advances the tracked
// column; anything above the ASCII range invalidates the tracked cursor
// instead.
func (e *Encoder) writeChar(cell *Cell) {
	r := cell.Char
	if r == 0 {
		r = ' '
	}

	if r < 0x80 {
		e.w.WriteByte(byte(r))
		e.cursorX++
		return
	}

	e.w.WriteRune(r)
	e.cursorValid = false
}
