package termio

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Session owns the host terminal for the lifetime of a full-screen program.
// Begin switches the controlling tty to raw mode, enters the alternate
// screen and enables mouse reporting; End restores everything in reverse
// order. In between, bytes read from the tty go through the session's
// input decoder and screen updates go out through its encoder.
type Session struct {
	mu sync.Mutex

	in  *os.File
	out io.Writer

	decoder *InputDecoder
	encoder *Encoder

	rawState *term.State
	active   bool

	enableKittyKeys bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionInput sets the tty the session reads from and puts into raw
// mode. Defaults to os.Stdin.
func WithSessionInput(f *os.File) SessionOption {
	return func(s *Session) {
		s.in = f
	}
}

// WithSessionOutput sets the writer the session paints to. Defaults to
// os.Stdout.
func WithSessionOutput(w io.Writer) SessionOption {
	return func(s *Session) {
		s.out = w
	}
}

// WithKittyKeyboard enables the progressive keyboard enhancement request
// on Begin, so terminals that support it report keys in the unambiguous
// CSI-u form.
func WithKittyKeyboard() SessionOption {
	return func(s *Session) {
		s.enableKittyKeys = true
	}
}

// NewSession creates a session reading from in and writing to out. Decoder
// options configure the key and mouse handlers invoked as input arrives.
func NewSession(opts []SessionOption, decoderOpts ...DecoderOption) *Session {
	s := &Session{
		in:  os.Stdin,
		out: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.decoder = NewInputDecoder(decoderOpts...)
	s.encoder = NewEncoder(s.out)
	return s
}

// Decoder returns the session's input decoder.
func (s *Session) Decoder() *InputDecoder {
	return s.decoder
}

// Encoder returns the session's screen encoder.
func (s *Session) Encoder() *Encoder {
	return s.encoder
}

// Size returns the current dimensions of the session's tty.
func (s *Session) Size() (rows, cols int, err error) {
	cols, rows, err = term.GetSize(int(s.in.Fd()))
	return rows, cols, err
}

// Begin puts the tty into raw mode and prepares the host terminal: enter
// the alternate screen, hide the cursor, clear, and enable SGR mouse
// reporting for presses and drags.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return fmt.Errorf("session already active")
	}

	state, err := term.MakeRaw(int(s.in.Fd()))
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	s.rawState = state

	io.WriteString(s.out, "\x1b[?1049h")
	io.WriteString(s.out, "\x1b[?25l")
	io.WriteString(s.out, "\x1b[2J\x1b[H")
	io.WriteString(s.out, "\x1b[?1000h\x1b[?1002h\x1b[?1006h")
	if s.enableKittyKeys {
		io.WriteString(s.out, "\x1b[>1u")
	}

	s.active = true
	return nil
}

// End restores the host terminal: disable mouse reporting, leave the
// alternate screen, show the cursor, and return the tty to cooked mode.
// Safe to call more than once.
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}
	s.active = false

	if s.enableKittyKeys {
		io.WriteString(s.out, "\x1b[<u")
	}
	io.WriteString(s.out, "\x1b[?1006l\x1b[?1002l\x1b[?1000l")
	io.WriteString(s.out, "\x1b[?25h")
	io.WriteString(s.out, "\x1b[?1049l")

	s.decoder.Close()

	if s.rawState != nil {
		if err := term.Restore(int(s.in.Fd()), s.rawState); err != nil {
			return fmt.Errorf("restore tty: %w", err)
		}
		s.rawState = nil
	}
	return nil
}

// Feed passes raw tty bytes to the input decoder. Callers typically run a
// read loop on the session tty and feed each chunk here.
func (s *Session) Feed(p []byte) {
	s.decoder.Write(p)
}

// Run reads from the session tty until it fails or the session ends,
// feeding every chunk to the input decoder. It blocks; run it from a
// goroutine when the caller needs to keep working.
func (s *Session) Run() error {
	buf := make([]byte, 4096)
	for {
		n, err := s.in.Read(buf)
		if n > 0 {
			s.decoder.Write(buf[:n])
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// Redraw resizes the screen to the given dimensions and repaints it in
// full. Call it from a SIGWINCH handler with the new tty size.
func (s *Session) Redraw(screen *Screen, rows, cols int) error {
	screen.Resize(rows, cols)
	s.encoder.FullRedraw(screen)
	return s.encoder.Flush(screen)
}
