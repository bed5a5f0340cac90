package ui

import (
	"github.com/spaghettifunk/anima-scenes/engine/math"
)

const DefaultSmoothingSpeed float64 = 0.5

// ProgressSource is anything that reports load progress, typically the
// group orchestrator.
type ProgressSource interface {
	IsBusy() bool
	Progress() float64
}

// ProgressSmoother eases a displayed value toward a raw progress target.
// The step shrinks as the gap closes, so large jumps are absorbed quickly
// and small ones drift in. Not safe for concurrent use; drive it from the
// frame loop.
type ProgressSmoother struct {
	/** @brief Multiplier applied to the gap on every advance. */
	Speed float64

	follower float64
}

func NewProgressSmoother() *ProgressSmoother {
	return &ProgressSmoother{Speed: DefaultSmoothingSpeed}
}

// Advance moves the follower toward target and returns it. elapsedSeconds is
// the frame delta. The step factor is capped at 1 so the follower never
// overshoots.
func (s *ProgressSmoother) Advance(target, elapsedSeconds, speed float64) float64 {
	factor := elapsedSeconds * math.Abs(target-s.follower) * speed
	s.follower = math.Lerp(s.follower, target, factor)
	return s.follower
}

// Follow advances toward source's progress while it is busy and holds the
// current value otherwise.
func (s *ProgressSmoother) Follow(source ProgressSource, elapsedSeconds float64) float64 {
	if source == nil || !source.IsBusy() {
		return s.follower
	}
	return s.Advance(source.Progress(), elapsedSeconds, s.Speed)
}

func (s *ProgressSmoother) Value() float64 {
	return s.follower
}

// Reset puts the follower back to zero, used when a new load starts.
func (s *ProgressSmoother) Reset() {
	s.follower = 0
}
