package termio

import "time"

const (
	// clickWindow is the maximum interval between presses that still count
	// as one multi-click sequence.
	clickWindow = 400 * time.Millisecond
	// clickDistance is the maximum Manhattan distance in cells between
	// presses of one multi-click sequence.
	clickDistance = 2
)

// clickTracker tracks left-button press patterns for double/triple click
// detection. The count cycles 1 -> 2 -> 3 -> 1.
type clickTracker struct {
	lastX     int
	lastY     int
	lastTime  time.Time
	lastCount int
}

// record registers a press at (x, y) and returns the click count.
func (t *clickTracker) record(x, y int, now time.Time) int {
	if t.isPartOfSequence(x, y, now) {
		t.lastCount++
		if t.lastCount > 3 {
			t.lastCount = 1
		}
	} else {
		t.lastCount = 1
	}

	t.lastX = x
	t.lastY = y
	t.lastTime = now

	return t.lastCount
}

// isPartOfSequence reports whether a press at (x, y) continues the current
// click sequence.
func (t *clickTracker) isPartOfSequence(x, y int, now time.Time) bool {
	if t.lastCount == 0 || t.lastTime.IsZero() {
		return false
	}

	elapsed := now.Sub(t.lastTime)
	if elapsed < 0 || elapsed > clickWindow {
		return false
	}

	return abs(x-t.lastX)+abs(y-t.lastY) <= clickDistance
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
