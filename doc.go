// Package termio is a bidirectional terminal I/O protocol engine for
// terminal-based applications that both host an interactive UI and embed
// child shells.
//
// The package has three symmetric halves built on one data model (a grid of
// [Cell] values with cursor, colors, and style attributes):
//
//   - [Terminal]: a VT100-class escape-sequence parser that consumes a child
//     process's raw byte stream and maintains a structured [Screen]
//   - [InputDecoder]: a decoder that consumes the host terminal's raw input
//     byte stream and produces structured [KeyEvent] and [MouseEvent] values
//   - [Encoder]: a diff encoder that turns a mutated [Screen] back into the
//     minimal ANSI byte stream that reproduces it on a real terminal
//
// # Quick Start
//
// Feed child-process output into a Terminal and inspect the screen:
//
//	term := termio.New(termio.WithSize(24, 80))
//	term.WriteString("\x1b[32mok\x1b[0m")
//	fmt.Println(term.Screen().LineContent(0)) // "ok"
//
// Terminal implements [io.Writer], so a command's output can be piped in
// directly:
//
//	cmd := exec.Command("ls", "--color")
//	cmd.Stdout = term
//	cmd.Run()
//
// # Dual Buffers
//
// Terminal maintains a primary screen (with optional scrollback) and an
// alternate screen (no scrollback) used by full-screen applications.
// Applications switch between them via CSI ?1049h/l and friends.
//
// # Host Input
//
// InputDecoder turns the controlling terminal's raw-mode byte stream into
// events. Multi-byte sequences split across reads are buffered, a lone ESC
// is resolved by a short cancellable timer, and left-button presses carry a
// click count for double/triple-click handling:
//
//	dec := termio.NewInputDecoder(
//	    termio.WithKeyHandler(func(k termio.KeyEvent) { ... }),
//	    termio.WithMouseHandler(func(m termio.MouseEvent) { ... }),
//	)
//	io.Copy(dec, tty)
//
// # Rendering
//
// Encoder walks only cells marked dirty since the last flush and emits
// cursor moves and SGR transitions only when required:
//
//	enc := termio.NewEncoder(os.Stdout)
//	enc.Flush(screen)
//
// # Sessions and Child Shells
//
// [Session] brackets a host terminal for interactive use (raw mode,
// alternate screen, mouse reporting) with guaranteed symmetric teardown,
// and [ChildShell] spawns a shell on a pty whose output feeds a Terminal.
package termio
