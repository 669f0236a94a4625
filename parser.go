package termio

import (
	"fmt"
	"image/color"
	"io"
	"strings"
	"sync"
	"unicode/utf8"
)

// parserState identifies the escape-sequence parser state.
type parserState int

const (
	stateNormal parserState = iota
	stateEscape
	stateCSI
	stateOSC
	stateCharset
)

const (
	// maxCSIParams bounds parameter accumulation so a hostile stream cannot
	// grow the parser state without limit.
	maxCSIParams = 32
	// maxOSCLen bounds the OSC payload buffer.
	maxOSCLen = 4096

	// DefaultRows is the default number of terminal rows.
	DefaultRows = 24
	// DefaultCols is the default number of terminal columns.
	DefaultCols = 80
)

// TitleHandler receives window title changes (OSC 0/1/2).
type TitleHandler func(title string)

// NotificationHandler receives application notification messages
// (OSC 99, body part only).
type NotificationHandler func(message string)

// Terminal parses a child process's ANSI/VT100 byte stream and maintains a
// structured Screen. It implements [io.Writer]; arbitrary chunking is
// tolerated, including chunk boundaries inside escape sequences or inside
// multi-byte UTF-8 characters.
//
// Malformed or unrecognized sequences are consumed and discarded; the parser
// always makes forward progress and never returns a protocol error.
//
// Terminal maintains two screens: primary (with scrollback) and alternate
// (no scrollback, used by full-screen applications). All methods are safe
// for concurrent use.
type Terminal struct {
	mu sync.Mutex

	rows int
	cols int

	primary   *Screen
	alternate *Screen
	screen    *Screen // active

	// Parser state, retained across Write calls.
	state        parserState
	params       []int
	currentParam int
	private      bool
	csiIgnore    bool
	oscBuf       []byte
	oscEsc       bool
	utf8Buf      []byte

	response io.Writer
	title    TitleHandler
	notify   NotificationHandler

	scrollbackStorage ScrollbackProvider
}

// TerminalOption configures a Terminal during construction.
type TerminalOption func(*Terminal)

// WithSize sets the terminal dimensions.
// Values <= 0 are replaced with defaults (24x80).
func WithSize(rows, cols int) TerminalOption {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}

	return func(t *Terminal) {
		t.rows = rows
		t.cols = cols
	}
}

// WithScrollback sets the storage for rows scrolled off the primary screen.
// Defaults to no scrollback.
func WithScrollback(storage ScrollbackProvider) TerminalOption {
	return func(t *Terminal) {
		t.scrollbackStorage = storage
	}
}

// WithResponse sets the writer for terminal responses (cursor position
// reports, device attributes). Typically the pty input. If nil, responses
// are discarded.
func WithResponse(w io.Writer) TerminalOption {
	return func(t *Terminal) {
		t.response = w
	}
}

// WithTitleHandler sets the handler for window title changes (OSC 0/1/2).
// The title is surfaced via the callback, not stored on the Screen.
func WithTitleHandler(h TitleHandler) TerminalOption {
	return func(t *Terminal) {
		t.title = h
	}
}

// WithNotificationHandler sets the handler for application notifications
// (OSC 99). Only the body part of a notification yields a callback.
func WithNotificationHandler(h NotificationHandler) TerminalOption {
	return func(t *Terminal) {
		t.notify = h
	}
}

// New creates a terminal parser with the given options.
// Defaults to 24x80 with cursor visible and no scrollback.
func New(opts ...TerminalOption) *Terminal {
	t := &Terminal{
		rows:   DefaultRows,
		cols:   DefaultCols,
		params: make([]int, 0, maxCSIParams),
		oscBuf: make([]byte, 0, 128),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.scrollbackStorage == nil {
		t.scrollbackStorage = NoopScrollback{}
	}
	t.primary = NewScreenWithScrollback(t.rows, t.cols, t.scrollbackStorage)
	t.alternate = NewScreen(t.rows, t.cols)
	t.screen = t.primary

	return t
}

// Screen returns the active screen (primary or alternate). The returned
// Screen is mutated by subsequent Write calls; callers must not read it
// concurrently with writes.
func (t *Terminal) Screen() *Screen {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen
}

// Primary returns the primary screen.
func (t *Terminal) Primary() *Screen {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.primary
}

// IsAlternateScreen returns true if the alternate screen is active.
func (t *Terminal) IsAlternateScreen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen == t.alternate
}

// Rows returns the terminal height in character rows.
func (t *Terminal) Rows() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rows
}

// Cols returns the terminal width in character columns.
func (t *Terminal) Cols() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols
}

// Resize changes the terminal dimensions, resizing both screens and
// clamping the cursor. Invalid dimensions (<= 0) are ignored. Each Write
// call completes fully before a resize can be observed.
func (t *Terminal) Resize(rows, cols int) {
	if rows <= 0 || cols <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows = rows
	t.cols = cols
	t.primary.Resize(rows, cols)
	t.alternate.Resize(rows, cols)
}

// Write processes raw bytes from the child process, parsing ANSI escape
// sequences and updating the active screen. Implements io.Writer and never
// returns an error: terminal protocols have no error channel, so malformed
// input is consumed and discarded.
func (t *Terminal) Write(data []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, b := range data {
		t.processByte(b)
	}
	return len(data), nil
}

// WriteString is a convenience method that converts the string to bytes and
// calls Write.
func (t *Terminal) WriteString(s string) (int, error) {
	return t.Write([]byte(s))
}

func (t *Terminal) processByte(b byte) {
	switch t.state {
	case stateNormal:
		t.processNormal(b)
	case stateEscape:
		t.processEscape(b)
	case stateCSI:
		t.processCSI(b)
	case stateOSC:
		t.processOSC(b)
	case stateCharset:
		// Character-set designation byte, accepted and ignored.
		t.state = stateNormal
	}
}

func (t *Terminal) processNormal(b byte) {
	if b == 0x1b {
		t.utf8Buf = t.utf8Buf[:0]
		t.state = stateEscape
		return
	}

	if b < 0x20 {
		t.utf8Buf = t.utf8Buf[:0]
		switch b {
		case 0x07: // BEL
		case 0x08: // BS
			if t.screen.cursor.Col > 0 {
				t.screen.cursor.Col--
			}
		case 0x09: // TAB: advance to the next multiple-of-8 column
			col := (t.screen.cursor.Col/8 + 1) * 8
			if col > t.cols-1 {
				col = t.cols - 1
			}
			t.screen.cursor.Col = col
		case 0x0a, 0x0b, 0x0c: // LF (VT and FF behave the same)
			t.lineFeed()
		case 0x0d: // CR
			t.screen.cursor.Col = 0
		}
		return
	}

	// Printable: decode UTF-8 incrementally so a chunk boundary inside a
	// multi-byte character is tolerated.
	if len(t.utf8Buf) == 0 && b < utf8.RuneSelf {
		t.writeRune(rune(b))
		return
	}

	t.utf8Buf = append(t.utf8Buf, b)
	if !utf8.FullRune(t.utf8Buf) {
		if len(t.utf8Buf) >= utf8.UTFMax {
			t.utf8Buf = t.utf8Buf[:0]
		}
		return
	}
	r, _ := utf8.DecodeRune(t.utf8Buf)
	t.utf8Buf = t.utf8Buf[:0]
	if r != utf8.RuneError {
		t.writeRune(r)
	}
}

// writeRune places a character at the cursor using the current template
// attributes and advances the cursor by the character's display width.
// Wide characters also write an empty spacer cell in the next column.
func (t *Terminal) writeRune(r rune) {
	s := t.screen
	width := runeWidth(r)
	if width == 0 {
		return
	}

	// Wrap when the character does not fit on the current row.
	if s.cursor.Col+width > t.cols {
		s.cursor.Col = 0
		t.lineFeed()
	}

	cell := s.template
	cell.Char = r
	cell.ClearFlag(CellFlagWideChar | CellFlagWideCharSpacer)
	if width == 2 {
		cell.SetFlag(CellFlagWideChar)
	}
	s.SetCell(s.cursor.Row, s.cursor.Col, cell)
	s.cursor.Col++

	if width == 2 && s.cursor.Col < t.cols {
		spacer := s.template
		spacer.Char = 0
		spacer.ClearFlag(CellFlagWideChar)
		spacer.SetFlag(CellFlagWideCharSpacer)
		s.SetCell(s.cursor.Row, s.cursor.Col, spacer)
		s.cursor.Col++
	}

	// The cursor may now rest one past the last column; the next printable
	// character performs the deferred wrap.
}

// lineFeed moves the cursor down one row, scrolling the region when the
// cursor sits at the region bottom. Rows evicted from a region starting at
// the screen top are pushed into scrollback.
func (t *Terminal) lineFeed() {
	s := t.screen
	if s.cursor.Row+1 >= s.bottom {
		s.ScrollUp(s.top, s.bottom, 1)
		s.cursor.Row = s.bottom - 1
	} else {
		s.cursor.Row++
	}
}

// reverseIndex moves the cursor up one row, scrolling the region down when
// the cursor sits at the region top.
func (t *Terminal) reverseIndex() {
	s := t.screen
	if s.cursor.Row <= s.top {
		s.ScrollDown(s.top, s.bottom, 1)
		s.cursor.Row = s.top
	} else {
		s.cursor.Row--
	}
}

// fullReset clears the screen, homes the cursor, and clears all attributes.
func (t *Terminal) fullReset() {
	s := t.screen
	s.ClearAll()
	s.SetCursor(0, 0)
	s.SetCursorVisible(true)
	s.SetScrollRegion(0, t.rows)
	s.template = NewCell()
}

func (t *Terminal) processEscape(b byte) {
	switch b {
	case '[':
		t.state = stateCSI
		t.params = t.params[:0]
		t.currentParam = 0
		t.private = false
		t.csiIgnore = false
	case ']':
		t.state = stateOSC
		t.oscBuf = t.oscBuf[:0]
		t.oscEsc = false
	case '(', ')':
		t.state = stateCharset
	case '7':
		t.screen.SaveCursor()
		t.state = stateNormal
	case '8':
		t.screen.RestoreCursor()
		t.state = stateNormal
	case 'M':
		t.reverseIndex()
		t.state = stateNormal
	case 'c':
		t.fullReset()
		t.state = stateNormal
	default:
		// Unrecognized escape: consumed and discarded.
		t.state = stateNormal
	}
}

func (t *Terminal) processCSI(b byte) {
	switch {
	case b >= '0' && b <= '9':
		t.currentParam = t.currentParam*10 + int(b-'0')
		if t.currentParam > 1<<20 {
			t.currentParam = 1 << 20
		}
	case b == ';':
		if len(t.params) < maxCSIParams {
			t.params = append(t.params, t.currentParam)
		}
		t.currentParam = 0
	case b == '?':
		t.private = true
	case b == '>' || b == '!' || b == '"' || b == ' ' || b == ':':
		// Private markers and intermediates make the whole sequence
		// uninterpretable here; consume it without dispatching.
		t.csiIgnore = true
	case b >= 0x40 && b <= 0x7e:
		if len(t.params) < maxCSIParams {
			t.params = append(t.params, t.currentParam)
		}
		if !t.csiIgnore {
			t.dispatchCSI(b)
		}
		t.state = stateNormal
	default:
		// Malformed: discard the sequence and resume.
		t.state = stateNormal
	}
}

// param returns the i-th CSI parameter, substituting def when the parameter
// is absent or zero.
func (t *Terminal) param(i, def int) int {
	if i >= len(t.params) || t.params[i] == 0 {
		return def
	}
	return t.params[i]
}

func (t *Terminal) dispatchCSI(final byte) {
	s := t.screen

	if t.private && (final == 'h' || final == 'l') {
		t.setPrivateModes(final == 'h')
		return
	}

	switch final {
	case 'A':
		s.SetCursor(s.cursor.Row-t.param(0, 1), s.cursor.Col)
	case 'B':
		s.SetCursor(s.cursor.Row+t.param(0, 1), s.cursor.Col)
	case 'C':
		s.SetCursor(s.cursor.Row, s.cursor.Col+t.param(0, 1))
	case 'D':
		s.SetCursor(s.cursor.Row, s.cursor.Col-t.param(0, 1))
	case 'E':
		s.SetCursor(s.cursor.Row+t.param(0, 1), 0)
	case 'F':
		s.SetCursor(s.cursor.Row-t.param(0, 1), 0)
	case 'G':
		s.SetCursor(s.cursor.Row, t.param(0, 1)-1)
	case 'H', 'f':
		s.SetCursor(t.param(0, 1)-1, t.param(1, 1)-1)
	case 'd':
		s.SetCursor(t.param(0, 1)-1, s.cursor.Col)
	case 'J':
		t.eraseDisplay(t.param(0, 0))
	case 'K':
		t.eraseLine(t.param(0, 0))
	case 'L':
		s.InsertLines(s.cursor.Row, t.param(0, 1))
	case 'M':
		s.DeleteLines(s.cursor.Row, t.param(0, 1))
	case '@':
		s.InsertBlanks(s.cursor.Row, s.cursor.Col, t.param(0, 1))
	case 'P':
		s.DeleteChars(s.cursor.Row, s.cursor.Col, t.param(0, 1))
	case 'X':
		s.ClearRowRange(s.cursor.Row, s.cursor.Col, s.cursor.Col+t.param(0, 1))
	case 'S':
		s.ScrollUp(s.top, s.bottom, t.param(0, 1))
	case 'T':
		s.ScrollDown(s.top, s.bottom, t.param(0, 1))
	case 'm':
		t.selectGraphicRendition()
	case 'r':
		s.SetScrollRegion(t.param(0, 1)-1, t.param(1, t.rows))
		s.SetCursor(0, 0)
	case 's':
		s.SaveCursor()
	case 'u':
		s.RestoreCursor()
	case 'n':
		t.deviceStatus(t.param(0, 0))
	case 'c':
		// Device attributes: report a VT102-class terminal.
		t.writeResponse("\x1b[?6c")
	}
	// Unrecognized finals are consumed and discarded.
}

// eraseDisplay implements CSI J: 0=cursor to end, 1=start to cursor, 2=all.
// Mode 3 additionally clears scrollback.
func (t *Terminal) eraseDisplay(mode int) {
	s := t.screen
	switch mode {
	case 0:
		s.ClearRowRange(s.cursor.Row, s.cursor.Col, t.cols)
		for row := s.cursor.Row + 1; row < t.rows; row++ {
			s.ClearRow(row)
		}
	case 1:
		for row := 0; row < s.cursor.Row; row++ {
			s.ClearRow(row)
		}
		s.ClearRowRange(s.cursor.Row, 0, s.cursor.Col+1)
	case 2:
		s.ClearAll()
	case 3:
		s.ClearAll()
		if s.scrollback != nil {
			s.scrollback.Clear()
		}
	}
}

// eraseLine implements CSI K: 0=cursor to end, 1=start to cursor, 2=whole line.
func (t *Terminal) eraseLine(mode int) {
	s := t.screen
	switch mode {
	case 0:
		s.ClearRowRange(s.cursor.Row, s.cursor.Col, t.cols)
	case 1:
		s.ClearRowRange(s.cursor.Row, 0, s.cursor.Col+1)
	case 2:
		s.ClearRow(s.cursor.Row)
	}
}

// setPrivateModes handles CSI ? h/l. Only cursor visibility (25) and the
// alternate-screen family (47/1047/1048/1049) are meaningful; everything
// else is accepted and ignored.
func (t *Terminal) setPrivateModes(set bool) {
	for _, p := range t.params {
		switch p {
		case 25:
			t.screen.SetCursorVisible(set)
		case 47, 1047:
			if set {
				t.enterAlternate(false)
			} else {
				t.exitAlternate(false)
			}
		case 1048:
			if set {
				t.screen.SaveCursor()
			} else {
				t.screen.RestoreCursor()
			}
		case 1049:
			if set {
				t.enterAlternate(true)
			} else {
				t.exitAlternate(true)
			}
		}
	}
}

// enterAlternate switches to the alternate screen. With saveCursor (1049),
// the primary cursor is saved first and the alternate screen cleared.
func (t *Terminal) enterAlternate(saveCursor bool) {
	if t.screen == t.alternate {
		return
	}
	if saveCursor {
		t.primary.SaveCursor()
	}
	t.screen = t.alternate
	if saveCursor {
		t.screen.ClearAll()
		t.screen.SetCursor(0, 0)
	}
	t.screen.MarkAllDirty()
}

// exitAlternate switches back to the primary screen. With restoreCursor
// (1049), the saved primary cursor position is restored.
func (t *Terminal) exitAlternate(restoreCursor bool) {
	if t.screen == t.primary {
		return
	}
	t.screen = t.primary
	if restoreCursor {
		t.screen.RestoreCursor()
	}
	t.screen.MarkAllDirty()
}

// deviceStatus implements CSI n device status reports, written back to the
// child through the response writer.
func (t *Terminal) deviceStatus(n int) {
	switch n {
	case 5:
		t.writeResponse("\x1b[0n")
	case 6:
		t.writeResponse(fmt.Sprintf("\x1b[%d;%dR", t.screen.cursor.Row+1, t.screen.cursor.Col+1))
	}
}

func (t *Terminal) writeResponse(s string) {
	if t.response != nil {
		t.response.Write([]byte(s))
	}
}

// selectGraphicRendition implements CSI m. Parameters are walked left to
// right; legacy palette and 256-color indices are normalized to RGB so no
// cell ever stores a palette index.
func (t *Terminal) selectGraphicRendition() {
	tmpl := &t.screen.template

	for i := 0; i < len(t.params); i++ {
		p := t.params[i]
		switch {
		case p == 0:
			*tmpl = NewCell()
		case p == 1:
			tmpl.SetFlag(CellFlagBold)
		case p == 2:
			tmpl.SetFlag(CellFlagDim)
		case p == 3:
			tmpl.SetFlag(CellFlagItalic)
		case p == 4:
			tmpl.SetFlag(CellFlagUnderline)
		case p == 7:
			tmpl.SetFlag(CellFlagInverse)
		case p == 22:
			tmpl.ClearFlag(CellFlagBold | CellFlagDim)
		case p == 23:
			tmpl.ClearFlag(CellFlagItalic)
		case p == 24:
			tmpl.ClearFlag(CellFlagUnderline)
		case p == 27:
			tmpl.ClearFlag(CellFlagInverse)
		case p >= 30 && p <= 37:
			tmpl.Fg = AnsiPalette[p-30]
		case p >= 90 && p <= 97:
			tmpl.Fg = AnsiPalette[p-90+8]
		case p == 38:
			tmpl.Fg, i = t.extendedColor(i)
		case p == 39:
			tmpl.Fg = nil
		case p >= 40 && p <= 47:
			tmpl.Bg = AnsiPalette[p-40]
		case p >= 100 && p <= 107:
			tmpl.Bg = AnsiPalette[p-100+8]
		case p == 48:
			tmpl.Bg, i = t.extendedColor(i)
		case p == 49:
			tmpl.Bg = nil
		}
	}
}

// extendedColor resolves a 38/48 extended-color introducer starting at
// params[i]. It returns the color and the index of the last parameter
// consumed. Missing trailing parameters default to 0.
func (t *Terminal) extendedColor(i int) (c color.Color, last int) {
	next := func(j int) int {
		if j < len(t.params) {
			return t.params[j]
		}
		return 0
	}

	switch next(i + 1) {
	case 5:
		return Color256(next(i + 2)), i + 2
	case 2:
		return rgb(uint8(next(i+2)), uint8(next(i+3)), uint8(next(i+4))), i + 4
	default:
		// Unknown color space: consume the introducer only.
		return nil, i + 1
	}
}

func (t *Terminal) processOSC(b byte) {
	// Terminated by BEL or ESC \ (ST).
	if t.oscEsc {
		t.oscEsc = false
		if b == '\\' {
			t.dispatchOSC()
			t.state = stateNormal
			return
		}
		// Stray ESC inside OSC: discard the sequence.
		t.state = stateEscape
		t.processEscape(b)
		return
	}

	switch b {
	case 0x07:
		t.dispatchOSC()
		t.state = stateNormal
	case 0x1b:
		t.oscEsc = true
	default:
		if len(t.oscBuf) < maxOSCLen {
			t.oscBuf = append(t.oscBuf, b)
		}
	}
}

// dispatchOSC interprets an accumulated OSC payload of the form
// "<code>;<rest>". Codes 0/1/2 change the window title; code 99 is the
// application-notification channel. Unknown codes are discarded.
func (t *Terminal) dispatchOSC() {
	payload := string(t.oscBuf)
	t.oscBuf = t.oscBuf[:0]

	code := payload
	rest := ""
	if idx := strings.IndexByte(payload, ';'); idx >= 0 {
		code = payload[:idx]
		rest = payload[idx+1:]
	}

	switch code {
	case "0", "1", "2":
		if t.title != nil {
			t.title(rest)
		}
	case "99":
		t.dispatchNotification(rest)
	}
}

// dispatchNotification handles the OSC 99 sub-format
// "i=<id>:p=<part>;<message>". Only the p=body part yields a callback;
// other parts are silently ignored.
func (t *Terminal) dispatchNotification(rest string) {
	if t.notify == nil {
		return
	}

	meta := rest
	message := ""
	if idx := strings.IndexByte(rest, ';'); idx >= 0 {
		meta = rest[:idx]
		message = rest[idx+1:]
	}

	part := ""
	for len(meta) > 0 {
		kv := meta
		if idx := strings.IndexByte(meta, ':'); idx >= 0 {
			kv = meta[:idx]
			meta = meta[idx+1:]
		} else {
			meta = ""
		}
		if len(kv) >= 2 && kv[0] == 'p' && kv[1] == '=' {
			part = kv[2:]
		}
	}

	if part == "body" {
		t.notify(message)
	}
}

