package termio

import "strconv"

// EncodeKey converts a key event into the byte sequence a terminal would
// send for it, suitable for writing to a child program's stdin. Unknown
// named keys encode to nil.
func EncodeKey(ev KeyEvent) []byte {
	if seq, ok := encodeNamedKey(ev); ok {
		return seq
	}

	// Printable character, possibly with modifiers.
	runes := []rune(ev.Key)
	if len(runes) != 1 {
		return nil
	}
	r := runes[0]

	if ev.Ctrl && r >= 'a' && r <= 'z' {
		b := []byte{byte(r) - 'a' + 1}
		if ev.Alt {
			return append([]byte{0x1b}, b...)
		}
		return b
	}

	out := []byte(ev.Key)
	if ev.Alt {
		return append([]byte{0x1b}, out...)
	}
	return out
}

// csiModifier returns the xterm modifier parameter (1 + bitmask) for the
// event, or 1 when no modifiers are held.
func csiModifier(ev KeyEvent) int {
	m := 0
	if ev.Shift {
		m |= 1
	}
	if ev.Alt {
		m |= 2
	}
	if ev.Ctrl {
		m |= 4
	}
	return m + 1
}

// cursorKeyFinals maps named cursor keys to their CSI final byte.
var cursorKeyFinals = map[string]byte{
	KeyUp:    'A',
	KeyDown:  'B',
	KeyRight: 'C',
	KeyLeft:  'D',
	KeyHome:  'H',
	KeyEnd:   'F',
}

// tildeKeyCodes maps named keys to their CSI <code> ~ parameter.
var tildeKeyCodes = map[string]int{
	KeyInsert:   2,
	KeyDelete:   3,
	KeyPageUp:   5,
	KeyPageDown: 6,
	"f5":        15,
	"f6":        17,
	"f7":        18,
	"f8":        19,
	"f9":        20,
	"f10":       21,
	"f11":       23,
	"f12":       24,
}

// ss3KeyFinals maps F1-F4 to their SS3 final byte.
var ss3KeyFinals = map[string]byte{
	"f1": 'P',
	"f2": 'Q',
	"f3": 'R',
	"f4": 'S',
}

func encodeNamedKey(ev KeyEvent) ([]byte, bool) {
	mod := csiModifier(ev)

	if final, ok := cursorKeyFinals[ev.Key]; ok {
		if mod > 1 {
			return []byte("\x1b[1;" + strconv.Itoa(mod) + string(rune(final))), true
		}
		return []byte{0x1b, '[', final}, true
	}

	if code, ok := tildeKeyCodes[ev.Key]; ok {
		if mod > 1 {
			return []byte("\x1b[" + strconv.Itoa(code) + ";" + strconv.Itoa(mod) + "~"), true
		}
		return []byte("\x1b[" + strconv.Itoa(code) + "~"), true
	}

	if final, ok := ss3KeyFinals[ev.Key]; ok {
		if mod > 1 {
			return []byte("\x1b[1;" + strconv.Itoa(mod) + string(rune(final))), true
		}
		return []byte{0x1b, 'O', final}, true
	}

	switch ev.Key {
	case KeyEnter:
		return []byte{'\r'}, true
	case KeyTab:
		if ev.Shift {
			return []byte("\x1b[Z"), true
		}
		return []byte{'\t'}, true
	case KeyBackspace:
		if ev.Alt {
			return []byte{0x1b, 0x7f}, true
		}
		return []byte{0x7f}, true
	case KeyEscape:
		return []byte{0x1b}, true
	}

	return nil, false
}
