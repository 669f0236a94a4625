package termio

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

// ChildShell runs a command on a pseudo-terminal and streams its output
// into a Terminal. Keystrokes go the other way: encode them with EncodeKey
// and hand the bytes to Write.
type ChildShell struct {
	mu sync.Mutex

	cmd  *exec.Cmd
	ptmx *os.File
	term *Terminal

	onExit func(error)
	done   chan struct{}
	closed bool
}

// ChildOption configures a ChildShell before it starts.
type ChildOption func(*ChildShell)

// WithExitHandler sets a callback invoked once, after the child process
// exits and its output has been fully drained into the terminal. The error
// is the wait result, nil on clean exit.
func WithExitHandler(fn func(error)) ChildOption {
	return func(c *ChildShell) {
		c.onExit = fn
	}
}

// StartChildShell starts the command on a new pty sized to match term and
// begins pumping its output into term. The command's environment gets
// TERM=xterm-256color unless it already sets one.
func StartChildShell(term *Terminal, name string, args []string, opts ...ChildOption) (*ChildShell, error) {
	c := &ChildShell{
		term: term,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(term.Rows()),
		Cols: uint16(term.Cols()),
	})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	c.cmd = cmd
	c.ptmx = ptmx

	go c.pump()
	return c, nil
}

// pump copies pty output into the terminal until the child closes its end,
// then reaps the process and fires the exit handler.
func (c *ChildShell) pump() {
	buf := make([]byte, 32*1024)
	for {
		n, err := c.ptmx.Read(buf)
		if n > 0 {
			c.term.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}

	werr := c.cmd.Wait()
	close(c.done)
	if c.onExit != nil {
		c.onExit(werr)
	}
}

// Write sends bytes to the child's stdin.
func (c *ChildShell) Write(p []byte) (int, error) {
	return c.ptmx.Write(p)
}

// SendKey encodes a key event and writes it to the child's stdin.
func (c *ChildShell) SendKey(ev KeyEvent) error {
	seq := EncodeKey(ev)
	if len(seq) == 0 {
		return nil
	}
	_, err := c.ptmx.Write(seq)
	return err
}

// Resize changes both the pty window size and the terminal dimensions.
func (c *ChildShell) Resize(rows, cols int) error {
	c.term.Resize(rows, cols)
	return pty.Setsize(c.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}

// Terminal returns the terminal the child's output feeds.
func (c *ChildShell) Terminal() *Terminal {
	return c.term
}

// Done returns a channel closed after the child exits and its output has
// been drained.
func (c *ChildShell) Done() <-chan struct{} {
	return c.done
}

// Close terminates the child process and releases the pty. It does not
// wait for the exit handler.
func (c *ChildShell) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}
	return c.ptmx.Close()
}

var _ io.Writer = (*ChildShell)(nil)
