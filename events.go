package termio

// KeyEvent is a normalized keyboard event produced by the input decoder.
// Key is either a single printable character ("a", "A", "€") or a named key
// ("up", "enter", "f5"). Events are value types, produced and consumed once.
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
}

// Named keys emitted by the input decoder.
const (
	KeyUp        = "up"
	KeyDown      = "down"
	KeyLeft      = "left"
	KeyRight     = "right"
	KeyHome      = "home"
	KeyEnd       = "end"
	KeyPageUp    = "pageup"
	KeyPageDown  = "pagedown"
	KeyInsert    = "insert"
	KeyDelete    = "delete"
	KeyEnter     = "enter"
	KeyTab       = "tab"
	KeyEscape    = "escape"
	KeyBackspace = "backspace"
)

// MouseEventType classifies a mouse event.
type MouseEventType uint8

const (
	MousePress MouseEventType = iota
	MouseRelease
	MouseMove
	MouseDrag
	MouseScroll
)

// String returns a string representation of the event type.
func (t MouseEventType) String() string {
	switch t {
	case MousePress:
		return "press"
	case MouseRelease:
		return "release"
	case MouseMove:
		return "move"
	case MouseDrag:
		return "drag"
	case MouseScroll:
		return "scroll"
	default:
		return "unknown"
	}
}

// MouseButton identifies the button involved in a mouse event.
type MouseButton uint8

const (
	MouseButtonNone MouseButton = iota
	MouseButtonLeft
	MouseButtonMiddle
	MouseButtonRight
)

// String returns a string representation of the button.
func (b MouseButton) String() string {
	switch b {
	case MouseButtonLeft:
		return "left"
	case MouseButtonMiddle:
		return "middle"
	case MouseButtonRight:
		return "right"
	default:
		return "none"
	}
}

// MouseEvent is a decoded mouse report. Coordinates are 0-indexed
// (converted from the 1-indexed wire format). ScrollDirection is -1 for
// scroll up and +1 for scroll down, set only for MouseScroll events.
// ClickCount carries the click multiplicity (1, 2, or 3) for left-button
// presses; double/triple-click consumers use it for word/line selection.
type MouseEvent struct {
	Type            MouseEventType
	Button          MouseButton
	X               int
	Y               int
	Ctrl            bool
	Alt             bool
	Shift           bool
	ScrollDirection int
	ClickCount      int
}
