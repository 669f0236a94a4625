package termio

// namedSequences maps fixed host-terminal escape sequences to key events.
// Matching is longest-sequence-first against the head of the input buffer;
// sequencePrefixes records every proper prefix so the decoder can tell an
// incomplete sequence from an unknown one.
var namedSequences = map[string]KeyEvent{
	// Arrows (CSI and SS3 forms)
	"\x1b[A": {Key: KeyUp},
	"\x1b[B": {Key: KeyDown},
	"\x1b[C": {Key: KeyRight},
	"\x1b[D": {Key: KeyLeft},
	"\x1bOA": {Key: KeyUp},
	"\x1bOB": {Key: KeyDown},
	"\x1bOC": {Key: KeyRight},
	"\x1bOD": {Key: KeyLeft},

	// Home / End
	"\x1b[H":  {Key: KeyHome},
	"\x1b[F":  {Key: KeyEnd},
	"\x1bOH":  {Key: KeyHome},
	"\x1bOF":  {Key: KeyEnd},
	"\x1b[1~": {Key: KeyHome},
	"\x1b[4~": {Key: KeyEnd},

	// Editing / paging
	"\x1b[2~": {Key: KeyInsert},
	"\x1b[3~": {Key: KeyDelete},
	"\x1b[5~": {Key: KeyPageUp},
	"\x1b[6~": {Key: KeyPageDown},

	// Shift+Tab
	"\x1b[Z": {Key: KeyTab, Shift: true},

	// Function keys (SS3 and CSI forms)
	"\x1bOP":   {Key: "f1"},
	"\x1bOQ":   {Key: "f2"},
	"\x1bOR":   {Key: "f3"},
	"\x1bOS":   {Key: "f4"},
	"\x1b[11~": {Key: "f1"},
	"\x1b[12~": {Key: "f2"},
	"\x1b[13~": {Key: "f3"},
	"\x1b[14~": {Key: "f4"},
	"\x1b[15~": {Key: "f5"},
	"\x1b[17~": {Key: "f6"},
	"\x1b[18~": {Key: "f7"},
	"\x1b[19~": {Key: "f8"},
	"\x1b[20~": {Key: "f9"},
	"\x1b[21~": {Key: "f10"},
	"\x1b[23~": {Key: "f11"},
	"\x1b[24~": {Key: "f12"},
}

var (
	sequencePrefixes map[string]bool
	maxSequenceLen   int
)

func init() {
	// Modified arrows and Home/End: CSI 1 ; <1+mods> <final>, where mods is
	// the xterm bitmask (1=shift, 2=alt, 4=ctrl).
	finals := map[byte]string{
		'A': KeyUp, 'B': KeyDown, 'C': KeyRight, 'D': KeyLeft,
		'H': KeyHome, 'F': KeyEnd,
	}
	for mods := 1; mods <= 7; mods++ {
		for final, name := range finals {
			seq := "\x1b[1;" + string(rune('1'+mods)) + string(rune(final))
			namedSequences[seq] = KeyEvent{
				Key:   name,
				Shift: mods&1 != 0,
				Alt:   mods&2 != 0,
				Ctrl:  mods&4 != 0,
			}
		}
	}

	sequencePrefixes = make(map[string]bool)
	for seq := range namedSequences {
		if len(seq) > maxSequenceLen {
			maxSequenceLen = len(seq)
		}
		for i := 1; i < len(seq); i++ {
			sequencePrefixes[seq[:i]] = true
		}
	}
}

// lookupSequence finds the longest named sequence at the head of buf.
// It returns the matched event and its length, or ok=false if no sequence
// matches.
func lookupSequence(buf []byte) (ev KeyEvent, n int, ok bool) {
	limit := maxSequenceLen
	if len(buf) < limit {
		limit = len(buf)
	}
	for l := limit; l >= 2; l-- {
		if ev, found := namedSequences[string(buf[:l])]; found {
			return ev, l, true
		}
	}
	return KeyEvent{}, 0, false
}

// isSequencePrefix reports whether buf is a proper prefix of at least one
// named sequence, meaning the decoder should wait for more bytes.
func isSequencePrefix(buf []byte) bool {
	return sequencePrefixes[string(buf)]
}
