package termio

import (
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

// KeyHandler receives decoded keyboard events.
type KeyHandler func(KeyEvent)

// MouseHandler receives decoded mouse events.
type MouseHandler func(MouseEvent)

// defaultEscTimeout is how long a lone trailing ESC byte is held before it
// resolves to a bare Escape key press.
const defaultEscTimeout = 50 * time.Millisecond

// maxPendingSequence bounds how long an unterminated escape sequence may
// grow before it is discarded wholesale.
const maxPendingSequence = 64

// InputDecoder consumes the host terminal's raw-mode byte stream and emits
// structured key and mouse events. It implements [io.Writer] so a read loop
// can copy the tty into it directly.
//
// Multi-byte sequences may be split across reads; the unconsumed tail is
// buffered between calls. A lone trailing ESC is resolved by a short
// cancellable timer so that genuine Escape presses are not permanently
// swallowed, while ESC-prefixed sequences arriving promptly never emit a
// spurious Escape.
type InputDecoder struct {
	mu sync.Mutex

	buf     []byte
	keyFn   KeyHandler
	mouseFn MouseHandler

	clicks clickTracker

	escTimer   *time.Timer
	escTimeout time.Duration
	escGen     int

	closed bool
	now    func() time.Time
}

// DecoderOption configures an InputDecoder during construction.
type DecoderOption func(*InputDecoder)

// WithKeyHandler sets the callback for decoded keyboard events.
func WithKeyHandler(h KeyHandler) DecoderOption {
	return func(d *InputDecoder) {
		d.keyFn = h
	}
}

// WithMouseHandler sets the callback for decoded mouse events.
func WithMouseHandler(h MouseHandler) DecoderOption {
	return func(d *InputDecoder) {
		d.mouseFn = h
	}
}

// WithEscapeTimeout overrides how long a lone ESC is held before resolving
// to a bare Escape key.
func WithEscapeTimeout(timeout time.Duration) DecoderOption {
	return func(d *InputDecoder) {
		if timeout > 0 {
			d.escTimeout = timeout
		}
	}
}

// SetKeyHandler replaces the callback for decoded keyboard events.
func (d *InputDecoder) SetKeyHandler(h KeyHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keyFn = h
}

// SetMouseHandler replaces the callback for decoded mouse events.
func (d *InputDecoder) SetMouseHandler(h MouseHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mouseFn = h
}

// NewInputDecoder creates a decoder with the given options.
func NewInputDecoder(opts ...DecoderOption) *InputDecoder {
	d := &InputDecoder{
		escTimeout: defaultEscTimeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Write feeds raw bytes from the host terminal into the decoder, emitting
// zero or more events via the configured handlers. Implements io.Writer and
// never returns an error; malformed sequences are consumed and discarded.
func (d *InputDecoder) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return len(p), nil
	}

	// New bytes cancel any pending Escape resolution.
	d.cancelEscTimerLocked()

	d.buf = append(d.buf, p...)
	d.drainLocked()

	if len(d.buf) == 1 && d.buf[0] == 0x1b {
		d.armEscTimerLocked()
	}
	return len(p), nil
}

// Close shuts the decoder down, cancelling any pending Escape timer so no
// stray event is emitted after teardown.
func (d *InputDecoder) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.cancelEscTimerLocked()
	d.buf = nil
}

func (d *InputDecoder) armEscTimerLocked() {
	d.escGen++
	gen := d.escGen
	d.escTimer = time.AfterFunc(d.escTimeout, func() {
		d.resolveEscTimeout(gen)
	})
}

func (d *InputDecoder) cancelEscTimerLocked() {
	d.escGen++
	if d.escTimer != nil {
		d.escTimer.Stop()
		d.escTimer = nil
	}
}

// resolveEscTimeout fires when no byte followed a lone ESC within the
// timeout: the ESC was a genuine Escape key press.
func (d *InputDecoder) resolveEscTimeout(gen int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || gen != d.escGen {
		return
	}
	if len(d.buf) == 1 && d.buf[0] == 0x1b {
		d.buf = d.buf[:0]
		d.emitKey(KeyEvent{Key: KeyEscape})
	}
}

func (d *InputDecoder) emitKey(ev KeyEvent) {
	if d.keyFn != nil {
		d.keyFn(ev)
	}
}

func (d *InputDecoder) emitMouse(ev MouseEvent) {
	if d.mouseFn != nil {
		d.mouseFn(ev)
	}
}

// drainLocked decodes events from the buffer head until the buffer is empty
// or holds an incomplete sequence.
func (d *InputDecoder) drainLocked() {
	for len(d.buf) > 0 {
		n, wait := d.decodeHead()
		if wait {
			return
		}
		if n <= 0 {
			n = 1
		}
		d.buf = d.buf[n:]
	}
	d.buf = nil
}

// decodeHead decodes one event (or discards one malformed sequence) from
// the buffer head. It returns the number of bytes consumed, or wait=true if
// the head is an incomplete sequence and more bytes are needed.
//
// Decode priority: SGR mouse, X10 mouse, CSI-u keyboard, named escape
// sequences, Alt+printable, lone ESC.
func (d *InputDecoder) decodeHead() (n int, wait bool) {
	if d.buf[0] != 0x1b {
		return d.decodePlain()
	}

	if n, ok, wait := d.trySGRMouse(); ok || wait {
		return n, wait
	}
	if n, ok, wait := d.tryX10Mouse(); ok || wait {
		return n, wait
	}
	if n, ok, wait := d.tryCSIU(); ok || wait {
		return n, wait
	}

	if ev, n, ok := lookupSequence(d.buf); ok {
		d.emitKey(ev)
		return n, false
	}
	if isSequencePrefix(d.buf) {
		return 0, true
	}

	// Alt+key: ESC followed by one printable byte that isn't a sequence
	// introducer.
	if len(d.buf) >= 2 && d.buf[1] != '[' && d.buf[1] != 'O' {
		if b := d.buf[1]; b >= 0x20 && b != 0x7f {
			r, size := utf8.DecodeRune(d.buf[1:])
			if r == utf8.RuneError && !utf8.FullRune(d.buf[1:]) && len(d.buf) < 1+utf8.UTFMax {
				return 0, true
			}
			if r != utf8.RuneError {
				d.emitKey(KeyEvent{
					Key:   string(unicode.ToLower(r)),
					Alt:   true,
					Shift: unicode.ToLower(r) != r,
				})
				return 1 + size, false
			}
			return 2, false
		}
		// ESC followed by a non-printable byte: treat the ESC as a bare
		// Escape press and reprocess the rest.
		d.emitKey(KeyEvent{Key: KeyEscape})
		return 1, false
	}

	// Unknown CSI/SS3 sequence: consume through its final byte and discard.
	if len(d.buf) >= 2 && d.buf[1] == '[' {
		for i := 2; i < len(d.buf); i++ {
			if d.buf[i] >= 0x40 && d.buf[i] <= 0x7e {
				return i + 1, false
			}
		}
		if len(d.buf) > maxPendingSequence {
			return len(d.buf), false
		}
		return 0, true
	}
	if len(d.buf) >= 2 && d.buf[1] == 'O' {
		if len(d.buf) >= 3 {
			return 3, false
		}
		return 0, true
	}

	// Lone trailing ESC: held for the timeout (armed by the caller).
	return 0, true
}

// decodePlain handles a non-escape byte at the buffer head: control codes
// and printable characters.
func (d *InputDecoder) decodePlain() (n int, wait bool) {
	b := d.buf[0]

	switch {
	case b == 8 || b == 0x7f:
		d.emitKey(KeyEvent{Key: KeyBackspace})
		return 1, false
	case b == 9:
		d.emitKey(KeyEvent{Key: KeyTab})
		return 1, false
	case b == 10 || b == 13:
		d.emitKey(KeyEvent{Key: KeyEnter})
		return 1, false
	case b >= 1 && b <= 26:
		d.emitKey(KeyEvent{Key: string(rune(b + 96)), Ctrl: true})
		return 1, false
	case b < 0x20:
		// Remaining control bytes carry no event.
		return 1, false
	}

	r, size := utf8.DecodeRune(d.buf)
	if r == utf8.RuneError {
		if !utf8.FullRune(d.buf) && len(d.buf) < utf8.UTFMax {
			return 0, true
		}
		return 1, false
	}

	d.emitKey(KeyEvent{
		Key:   string(r),
		Shift: unicode.ToLower(r) != r,
	})
	return size, false
}

// trySGRMouse decodes the SGR mouse report ESC [ < Cb ; Cx ; Cy (M|m).
// A buffer holding a short prefix of the pattern waits for more bytes.
func (d *InputDecoder) trySGRMouse() (n int, ok, wait bool) {
	const prefix = "\x1b[<"
	buf := d.buf

	for i := 0; i < len(prefix); i++ {
		if i >= len(buf) {
			return 0, false, true
		}
		if buf[i] != prefix[i] {
			return 0, false, false
		}
	}

	params := [3]int{}
	idx := 0
	for i := len(prefix); i < len(buf); i++ {
		b := buf[i]
		switch {
		case b >= '0' && b <= '9':
			params[idx] = params[idx]*10 + int(b-'0')
		case b == ';':
			idx++
			if idx > 2 {
				return 0, false, false
			}
		case b == 'M' || b == 'm':
			if idx != 2 {
				return 0, false, false
			}
			d.emitMouse(d.decodeMouseReport(
				params[0], params[1]-1, params[2]-1,
				b == 'm', true,
			))
			return i + 1, true, false
		default:
			return 0, false, false
		}
		if i-len(prefix) > 16 {
			return 0, false, false
		}
	}
	return 0, false, true
}

// tryX10Mouse decodes the legacy X10 report ESC [ M followed by exactly
// three bytes, each offset by 32.
func (d *InputDecoder) tryX10Mouse() (n int, ok, wait bool) {
	const prefix = "\x1b[M"
	buf := d.buf

	for i := 0; i < len(prefix); i++ {
		if i >= len(buf) {
			return 0, false, true
		}
		if buf[i] != prefix[i] {
			return 0, false, false
		}
	}

	if len(buf) < 6 {
		return 0, false, true
	}

	cb := int(buf[3]) - 32
	x := int(buf[4]) - 32 - 1
	y := int(buf[5]) - 32 - 1

	// X10 encodes release as button number 3 with no button identity.
	release := cb&0x03 == 3 && cb&0x40 == 0
	d.emitMouse(d.decodeMouseReport(cb, x, y, release, false))
	return 6, true, false
}

// tryCSIU decodes the CSI-u keyboard protocol
// ESC [ <keycode> (;<modifiers>)? (:<eventType>)? u.
func (d *InputDecoder) tryCSIU() (n int, ok, wait bool) {
	buf := d.buf
	if len(buf) < 2 || buf[1] != '[' {
		return 0, false, false
	}

	keycode, modifiers, eventType := 0, 1, 1
	field := 0 // 0=keycode, 1=modifiers, 2=eventType
	sawDigit := false

	for i := 2; i < len(buf); i++ {
		b := buf[i]
		switch {
		case b >= '0' && b <= '9':
			sawDigit = true
			switch field {
			case 0:
				keycode = keycode*10 + int(b-'0')
			case 1:
				modifiers = modifiers*10 + int(b-'0')
			case 2:
				eventType = eventType*10 + int(b-'0')
			}
		case b == ';' && field == 0:
			field = 1
			modifiers = 0
		case b == ':' && field == 1:
			field = 2
			eventType = 0
		case b == 'u':
			if !sawDigit {
				return 0, false, false
			}
			// Key release events are consumed and dropped.
			if eventType != 3 {
				d.emitKey(csiUKey(keycode, modifiers))
			}
			return i + 1, true, false
		default:
			return 0, false, false
		}
		if i > 24 {
			return 0, false, false
		}
	}

	if !sawDigit {
		// Bare "ESC [" could still become any CSI sequence.
		return 0, false, len(buf) == 2
	}
	return 0, false, true
}

// csiUKey builds a key event from a CSI-u keycode and its one-based
// modifier mask (bit0=shift, bit1=alt, bit2=ctrl, bit3=meta).
func csiUKey(keycode, modifiers int) KeyEvent {
	mods := modifiers - 1
	if mods < 0 {
		mods = 0
	}
	ev := KeyEvent{
		Shift: mods&1 != 0,
		Alt:   mods&2 != 0,
		Ctrl:  mods&4 != 0,
		Meta:  mods&8 != 0,
	}

	switch keycode {
	case 9:
		ev.Key = KeyTab
	case 13:
		ev.Key = KeyEnter
	case 27:
		ev.Key = KeyEscape
	case 8, 127:
		ev.Key = KeyBackspace
	default:
		ev.Key = string(rune(keycode))
	}
	return ev
}

// decodeMouseReport interprets the shared button bitfield of SGR and X10
// reports: bits 0-1 button number, 0x04 shift, 0x08 alt, 0x10 ctrl,
// 0x20 motion, 0x40 wheel.
func (d *InputDecoder) decodeMouseReport(cb, x, y int, release, sgr bool) MouseEvent {
	buttonNum := cb & 0x03
	motion := cb&0x20 != 0
	wheel := cb&0x40 != 0

	ev := MouseEvent{
		X:     x,
		Y:     y,
		Shift: cb&0x04 != 0,
		Alt:   cb&0x08 != 0,
		Ctrl:  cb&0x10 != 0,
	}

	switch {
	case wheel:
		ev.Type = MouseScroll
		if buttonNum == 0 {
			ev.ScrollDirection = -1
		} else {
			ev.ScrollDirection = 1
		}
	case motion:
		ev.Button = mouseButton(buttonNum)
		if ev.Button == MouseButtonNone || (sgr && release) {
			ev.Type = MouseMove
		} else {
			ev.Type = MouseDrag
		}
	case release:
		ev.Type = MouseRelease
		if sgr {
			ev.Button = mouseButton(buttonNum)
		}
	default:
		ev.Type = MousePress
		ev.Button = mouseButton(buttonNum)
		if ev.Button == MouseButtonLeft {
			ev.ClickCount = d.clicks.record(x, y, d.now())
		}
	}
	return ev
}

// mouseButton maps a wire button number to a button identity.
// Number 3 means "no button" (X10 release marker, motion without buttons).
func mouseButton(n int) MouseButton {
	switch n {
	case 0:
		return MouseButtonLeft
	case 1:
		return MouseButtonMiddle
	case 2:
		return MouseButtonRight
	default:
		return MouseButtonNone
	}
}
