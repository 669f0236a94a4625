package termio

import (
	"sync"
	"testing"
	"time"
)

// eventRecorder collects decoded events under a lock, since escape timeout
// resolution delivers from a timer goroutine.
type eventRecorder struct {
	mu    sync.Mutex
	keys  []KeyEvent
	mouse []MouseEvent
}

func (r *eventRecorder) key(ev KeyEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, ev)
}

func (r *eventRecorder) mouseEv(ev MouseEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mouse = append(r.mouse, ev)
}

func (r *eventRecorder) keyEvents() []KeyEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]KeyEvent(nil), r.keys...)
}

func (r *eventRecorder) mouseEvents() []MouseEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MouseEvent(nil), r.mouse...)
}

func newTestDecoder(opts ...DecoderOption) (*InputDecoder, *eventRecorder) {
	rec := &eventRecorder{}
	opts = append([]DecoderOption{
		WithKeyHandler(rec.key),
		WithMouseHandler(rec.mouseEv),
		// Long timeout so sequence tests never race the escape timer.
		WithEscapeTimeout(time.Hour),
	}, opts...)
	return NewInputDecoder(opts...), rec
}

func TestDecodePrintable(t *testing.T) {
	d, rec := newTestDecoder()

	d.Write([]byte("aA"))

	keys := rec.keyEvents()
	if len(keys) != 2 {
		t.Fatalf("expected 2 events, got %d", len(keys))
	}
	if keys[0].Key != "a" || keys[0].Shift {
		t.Errorf("expected plain 'a', got %+v", keys[0])
	}
	if keys[1].Key != "A" || !keys[1].Shift {
		t.Errorf("expected shifted 'A', got %+v", keys[1])
	}
}

func TestDecodeUTF8(t *testing.T) {
	d, rec := newTestDecoder()

	// Split across writes.
	d.Write([]byte{0xc3})
	d.Write([]byte{0xa9})

	keys := rec.keyEvents()
	if len(keys) != 1 || keys[0].Key != "é" {
		t.Fatalf("expected 'é', got %v", keys)
	}
}

func TestDecodeControlKeys(t *testing.T) {
	d, rec := newTestDecoder()

	d.Write([]byte{0x01, 0x1a, '\r', '\t', 0x7f})

	keys := rec.keyEvents()
	if len(keys) != 5 {
		t.Fatalf("expected 5 events, got %d", len(keys))
	}
	if keys[0].Key != "a" || !keys[0].Ctrl {
		t.Errorf("expected Ctrl+a, got %+v", keys[0])
	}
	if keys[1].Key != "z" || !keys[1].Ctrl {
		t.Errorf("expected Ctrl+z, got %+v", keys[1])
	}
	if keys[2].Key != KeyEnter {
		t.Errorf("expected enter, got %+v", keys[2])
	}
	if keys[3].Key != KeyTab {
		t.Errorf("expected tab, got %+v", keys[3])
	}
	if keys[4].Key != KeyBackspace {
		t.Errorf("expected backspace, got %+v", keys[4])
	}
}

func TestDecodeNamedSequences(t *testing.T) {
	tests := []struct {
		input string
		want  KeyEvent
	}{
		{"\x1b[A", KeyEvent{Key: KeyUp}},
		{"\x1bOB", KeyEvent{Key: KeyDown}},
		{"\x1b[H", KeyEvent{Key: KeyHome}},
		{"\x1b[3~", KeyEvent{Key: KeyDelete}},
		{"\x1b[5~", KeyEvent{Key: KeyPageUp}},
		{"\x1b[Z", KeyEvent{Key: KeyTab, Shift: true}},
		{"\x1bOP", KeyEvent{Key: "f1"}},
		{"\x1b[15~", KeyEvent{Key: "f5"}},
		{"\x1b[24~", KeyEvent{Key: "f12"}},
		{"\x1b[1;5C", KeyEvent{Key: KeyRight, Ctrl: true}},
		{"\x1b[1;4A", KeyEvent{Key: KeyUp, Shift: true, Alt: true}},
	}

	for _, tt := range tests {
		d, rec := newTestDecoder()
		d.Write([]byte(tt.input))

		keys := rec.keyEvents()
		if len(keys) != 1 || keys[0] != tt.want {
			t.Errorf("%q: expected %+v, got %v", tt.input, tt.want, keys)
		}
	}
}

func TestDecodeSequenceSplitAcrossWrites(t *testing.T) {
	d, rec := newTestDecoder()

	d.Write([]byte("\x1b["))
	if len(rec.keyEvents()) != 0 {
		t.Fatal("incomplete sequence should not emit events")
	}

	d.Write([]byte("A"))

	keys := rec.keyEvents()
	if len(keys) != 1 || keys[0].Key != KeyUp {
		t.Fatalf("expected up after completion, got %v", keys)
	}
}

func TestDecodeAltKey(t *testing.T) {
	d, rec := newTestDecoder()

	d.Write([]byte("\x1bx\x1bX"))

	keys := rec.keyEvents()
	if len(keys) != 2 {
		t.Fatalf("expected 2 events, got %d", len(keys))
	}
	if keys[0] != (KeyEvent{Key: "x", Alt: true}) {
		t.Errorf("expected Alt+x, got %+v", keys[0])
	}
	if keys[1] != (KeyEvent{Key: "x", Alt: true, Shift: true}) {
		t.Errorf("expected Alt+Shift+x, got %+v", keys[1])
	}
}

func TestDecodeLoneEscapeTimeout(t *testing.T) {
	rec := &eventRecorder{}
	d := NewInputDecoder(
		WithKeyHandler(rec.key),
		WithEscapeTimeout(10*time.Millisecond),
	)

	d.Write([]byte{0x1b})

	time.Sleep(100 * time.Millisecond)

	keys := rec.keyEvents()
	if len(keys) != 1 || keys[0].Key != KeyEscape {
		t.Fatalf("expected exactly one escape, got %v", keys)
	}
}

func TestDecodeEscapeSequenceNoSpuriousEscape(t *testing.T) {
	d, rec := newTestDecoder()

	d.Write([]byte{0x1b})
	d.Write([]byte("[A"))

	keys := rec.keyEvents()
	if len(keys) != 1 || keys[0].Key != KeyUp {
		t.Fatalf("expected only up, got %v", keys)
	}
}

func TestDecodeCloseCancelsEscape(t *testing.T) {
	rec := &eventRecorder{}
	d := NewInputDecoder(
		WithKeyHandler(rec.key),
		WithEscapeTimeout(10*time.Millisecond),
	)

	d.Write([]byte{0x1b})
	d.Close()

	time.Sleep(50 * time.Millisecond)

	if len(rec.keyEvents()) != 0 {
		t.Error("closed decoder should not emit the pending escape")
	}
}

func TestDecodeUnknownCSIDiscarded(t *testing.T) {
	d, rec := newTestDecoder()

	d.Write([]byte("\x1b[?2004hok"))

	keys := rec.keyEvents()
	if len(keys) != 2 || keys[0].Key != "o" || keys[1].Key != "k" {
		t.Fatalf("expected decoder to recover after unknown CSI, got %v", keys)
	}
}

func TestDecodeCSIU(t *testing.T) {
	tests := []struct {
		input string
		want  KeyEvent
	}{
		{"\x1b[97u", KeyEvent{Key: "a"}},
		{"\x1b[97;2u", KeyEvent{Key: "a", Shift: true}},
		{"\x1b[13;5u", KeyEvent{Key: KeyEnter, Ctrl: true}},
		{"\x1b[27;1u", KeyEvent{Key: KeyEscape}},
		{"\x1b[127;3u", KeyEvent{Key: KeyBackspace, Alt: true}},
		{"\x1b[9;9u", KeyEvent{Key: KeyTab, Meta: true}},
	}

	for _, tt := range tests {
		d, rec := newTestDecoder()
		d.Write([]byte(tt.input))

		keys := rec.keyEvents()
		if len(keys) != 1 || keys[0] != tt.want {
			t.Errorf("%q: expected %+v, got %v", tt.input, tt.want, keys)
		}
	}
}

func TestDecodeCSIUReleaseDropped(t *testing.T) {
	d, rec := newTestDecoder()

	d.Write([]byte("\x1b[97;1:3u"))

	if len(rec.keyEvents()) != 0 {
		t.Errorf("release events should be dropped, got %v", rec.keyEvents())
	}
}

func TestDecodeSGRMousePress(t *testing.T) {
	d, rec := newTestDecoder()

	d.Write([]byte("\x1b[<0;5;3M"))

	mouse := rec.mouseEvents()
	if len(mouse) != 1 {
		t.Fatalf("expected 1 event, got %d", len(mouse))
	}
	ev := mouse[0]
	if ev.Type != MousePress || ev.Button != MouseButtonLeft {
		t.Errorf("expected left press, got %+v", ev)
	}
	if ev.X != 4 || ev.Y != 2 {
		t.Errorf("expected 0-indexed (4, 2), got (%d, %d)", ev.X, ev.Y)
	}
	if ev.ClickCount != 1 {
		t.Errorf("expected click count 1, got %d", ev.ClickCount)
	}
}

func TestDecodeSGRMouseRelease(t *testing.T) {
	d, rec := newTestDecoder()

	d.Write([]byte("\x1b[<0;5;3m"))

	mouse := rec.mouseEvents()
	if len(mouse) != 1 {
		t.Fatalf("expected 1 event, got %d", len(mouse))
	}
	if mouse[0].Type != MouseRelease || mouse[0].Button != MouseButtonLeft {
		t.Errorf("expected left release with button identity, got %+v", mouse[0])
	}
}

func TestDecodeSGRMouseModifiers(t *testing.T) {
	d, rec := newTestDecoder()

	// Button 2 (right) + shift (4) + ctrl (16) = 22.
	d.Write([]byte("\x1b[<22;1;1M"))

	mouse := rec.mouseEvents()
	if len(mouse) != 1 {
		t.Fatalf("expected 1 event, got %d", len(mouse))
	}
	ev := mouse[0]
	if ev.Button != MouseButtonRight || !ev.Shift || !ev.Ctrl || ev.Alt {
		t.Errorf("expected shift+ctrl right press, got %+v", ev)
	}
}

func TestDecodeSGRMouseWheel(t *testing.T) {
	d, rec := newTestDecoder()

	d.Write([]byte("\x1b[<64;10;5M"))
	d.Write([]byte("\x1b[<65;10;5M"))

	mouse := rec.mouseEvents()
	if len(mouse) != 2 {
		t.Fatalf("expected 2 events, got %d", len(mouse))
	}
	if mouse[0].Type != MouseScroll || mouse[0].ScrollDirection != -1 {
		t.Errorf("expected scroll up, got %+v", mouse[0])
	}
	if mouse[1].Type != MouseScroll || mouse[1].ScrollDirection != 1 {
		t.Errorf("expected scroll down, got %+v", mouse[1])
	}
}

func TestDecodeSGRMouseDragAndMove(t *testing.T) {
	d, rec := newTestDecoder()

	d.Write([]byte("\x1b[<32;2;2M")) // motion with left held
	d.Write([]byte("\x1b[<35;3;3M")) // motion with no button

	mouse := rec.mouseEvents()
	if len(mouse) != 2 {
		t.Fatalf("expected 2 events, got %d", len(mouse))
	}
	if mouse[0].Type != MouseDrag || mouse[0].Button != MouseButtonLeft {
		t.Errorf("expected left drag, got %+v", mouse[0])
	}
	if mouse[1].Type != MouseMove {
		t.Errorf("expected move, got %+v", mouse[1])
	}
}

func TestDecodeSGRMouseSplitAcrossWrites(t *testing.T) {
	d, rec := newTestDecoder()

	d.Write([]byte("\x1b[<0;5"))
	if len(rec.mouseEvents()) != 0 {
		t.Fatal("incomplete report should not emit events")
	}

	d.Write([]byte(";3M"))

	mouse := rec.mouseEvents()
	if len(mouse) != 1 || mouse[0].Type != MousePress {
		t.Fatalf("expected press after completion, got %v", mouse)
	}
}

func TestDecodeX10Mouse(t *testing.T) {
	d, rec := newTestDecoder()

	// Press left at wire (5, 3), then the X10 release marker.
	d.Write([]byte{0x1b, '[', 'M', 32 + 0, 32 + 5, 32 + 3})
	d.Write([]byte{0x1b, '[', 'M', 32 + 3, 32 + 5, 32 + 3})

	mouse := rec.mouseEvents()
	if len(mouse) != 2 {
		t.Fatalf("expected 2 events, got %d", len(mouse))
	}
	if mouse[0].Type != MousePress || mouse[0].Button != MouseButtonLeft {
		t.Errorf("expected left press, got %+v", mouse[0])
	}
	if mouse[0].X != 4 || mouse[0].Y != 2 {
		t.Errorf("expected (4, 2), got (%d, %d)", mouse[0].X, mouse[0].Y)
	}
	// X10 cannot say which button was released.
	if mouse[1].Type != MouseRelease || mouse[1].Button != MouseButtonNone {
		t.Errorf("expected anonymous release, got %+v", mouse[1])
	}
}

func TestDecodeClickCounting(t *testing.T) {
	d, rec := newTestDecoder()

	now := time.Now()
	d.now = func() time.Time { return now }

	press := []byte("\x1b[<0;5;3M")
	d.Write(press)
	d.Write(press)
	d.Write(press)
	d.Write(press) // cycles back to 1

	mouse := rec.mouseEvents()
	if len(mouse) != 4 {
		t.Fatalf("expected 4 events, got %d", len(mouse))
	}
	wantCounts := []int{1, 2, 3, 1}
	for i, want := range wantCounts {
		if mouse[i].ClickCount != want {
			t.Errorf("press %d: expected count %d, got %d", i, want, mouse[i].ClickCount)
		}
	}
}

func TestDecodeClickCountResets(t *testing.T) {
	d, rec := newTestDecoder()

	now := time.Now()
	d.now = func() time.Time { return now }

	d.Write([]byte("\x1b[<0;5;3M"))

	// Too far away for a double click.
	d.Write([]byte("\x1b[<0;50;10M"))

	// Back at the original spot, but too late.
	now = now.Add(time.Second)
	d.Write([]byte("\x1b[<0;50;10M"))

	mouse := rec.mouseEvents()
	if len(mouse) != 3 {
		t.Fatalf("expected 3 events, got %d", len(mouse))
	}
	for i, ev := range mouse {
		if ev.ClickCount != 1 {
			t.Errorf("press %d: expected count 1, got %d", i, ev.ClickCount)
		}
	}
}
