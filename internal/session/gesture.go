package session

import (
	"math"
	"time"
)

// Direction is the committed swipe outcome.
type Direction string

const (
	DirectionNone  Direction = ""      // below threshold, snap back
	DirectionLeft  Direction = "left"  // dislike
	DirectionRight Direction = "right" // like
	DirectionUp    Direction = "up"    // watched intent
)

const (
	// CommitThreshold is the drag distance in px past which a release commits.
	CommitThreshold = 100.0
	// CommitAnimation is how long the card fly-off runs; new gestures are
	// rejected while it is in flight regardless of network state.
	CommitAnimation = 400 * time.Millisecond
)

// Classify maps a release offset to a direction. Horizontal wins ties; a
// vertical commit requires the horizontal component to stay under threshold.
func Classify(dx, dy float64) Direction {
	if math.Abs(dx) > CommitThreshold && math.Abs(dx) >= math.Abs(dy) {
		if dx > 0 {
			return DirectionRight
		}
		return DirectionLeft
	}
	if dy < -CommitThreshold && math.Abs(dx) < CommitThreshold {
		return DirectionUp
	}
	return DirectionNone
}

// Rotation is the cosmetic card tilt for a horizontal drag, in degrees.
func Rotation(dx float64) float64 {
	return dx / 20
}

// GestureEngine serializes commits: while a commit animation is in flight it
// rejects new releases, which is what stops a fast re-swipe from double
// committing. Button-triggered commits go through Commit too, so both paths
// share the lockout.
type GestureEngine struct {
	clock     Clock
	busyUntil time.Time
}

func NewGestureEngine(clock Clock) *GestureEngine {
	if clock == nil {
		clock = SystemClock
	}
	return &GestureEngine{clock: clock}
}

// Release classifies a gesture release. accepted=false means the engine is
// mid-animation and the input was dropped.
func (e *GestureEngine) Release(dx, dy float64) (dir Direction, accepted bool) {
	if e.clock.Now().Before(e.busyUntil) {
		return DirectionNone, false
	}
	dir = Classify(dx, dy)
	if dir != DirectionNone {
		e.busyUntil = e.clock.Now().Add(CommitAnimation)
	}
	return dir, true
}

// Commit is the button path: no offset to classify, but the same animation
// lockout applies.
func (e *GestureEngine) Commit(dir Direction) bool {
	if dir == DirectionNone {
		return false
	}
	if e.clock.Now().Before(e.busyUntil) {
		return false
	}
	e.busyUntil = e.clock.Now().Add(CommitAnimation)
	return true
}
