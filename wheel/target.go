package wheel

import (
	"math/rand/v2"
	"sync"
)

// FullSpinSource decides how many extra whole turns a spin makes before
// landing. The count is presentation only; any non-negative value lands on
// the same segment.
type FullSpinSource interface {
	FullSpins() int
}

// FixedSpins always returns the same number of turns.
type FixedSpins int

// FullSpins implements FullSpinSource.
func (f FixedSpins) FullSpins() int { return int(f) }

// RandomSpins draws a uniform number of turns in [Min, Max].
type RandomSpins struct {
	Min int
	Max int

	mu sync.Mutex
	r  *rand.Rand // nil uses the global source
}

// DefaultSpins returns the 5 to 7 turn source used by the kiosk.
func DefaultSpins() *RandomSpins {
	return &RandomSpins{Min: 5, Max: 7}
}

// NewSeededSpins returns a reproducible source, for replaying a session.
func NewSeededSpins(seed uint64, lo, hi int) *RandomSpins {
	return &RandomSpins{
		Min: lo,
		Max: hi,
		r:   rand.New(rand.NewPCG(seed, 0)),
	}
}

// FullSpins implements FullSpinSource.
func (s *RandomSpins) FullSpins() int {
	lo, hi := s.Min, s.Max
	if hi < lo {
		hi = lo
	}
	n := hi - lo + 1
	if s.r == nil {
		return lo + rand.IntN(n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.r.IntN(n)
}

// TargetRotation returns the unwrapped rotation that brings the middle of
// segment index under the pointer, starting from current and turning
// forward only.
//
// The wheel's current orientation is part of the offset: a point at wheel
// angle a is drawn at a+current, so the segment needs
// PointerAngle-mid-current more degrees (mod 360) to reach the pointer.
func TargetRotation(current float64, index, total, fullSpins int) (float64, error) {
	arc, err := Resolve(index, total)
	if err != nil {
		return 0, err
	}
	if fullSpins < 0 {
		return 0, ErrInvalidFullSpins
	}
	needed := Normalize(PointerAngle - arc.Mid - current)
	return current + float64(fullSpins)*360 + needed, nil
}
