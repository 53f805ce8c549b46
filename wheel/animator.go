package wheel

import (
	"math"
	"time"
)

// DefaultDuration is the length of one spin animation.
const DefaultDuration = 5000 * time.Millisecond

// Config holds spin animation settings.
type Config struct {
	Duration  time.Duration `yaml:"duration"`   // default 5s
	MinSpins  int           `yaml:"min_spins"`  // default 5
	MaxSpins  int           `yaml:"max_spins"`  // default 7
	FrameRate int           `yaml:"frame_rate"` // frames per second, default 30
}

// WithDefaults fills in zero values.
func (c Config) WithDefaults() Config {
	if c.Duration <= 0 {
		c.Duration = DefaultDuration
	}
	if c.MinSpins <= 0 && c.MaxSpins <= 0 {
		c.MinSpins, c.MaxSpins = 5, 7
	}
	if c.MaxSpins < c.MinSpins {
		c.MaxSpins = c.MinSpins
	}
	if c.FrameRate <= 0 {
		c.FrameRate = 30
	}
	return c
}

// FrameInterval returns the delay between two frames.
func (c Config) FrameInterval() time.Duration {
	c = c.WithDefaults()
	return time.Second / time.Duration(c.FrameRate)
}

// Spins returns a random full spin source for the configured range.
func (c Config) Spins() FullSpinSource {
	c = c.WithDefaults()
	return &RandomSpins{Min: c.MinSpins, Max: c.MaxSpins}
}

// EaseOutCubic decelerates towards the end: 1 - (1-p)^3.
func EaseOutCubic(p float64) float64 {
	p = math.Max(0, math.Min(1, p))
	q := 1 - p
	return 1 - q*q*q
}

// Token identifies one spin. Frames carrying an older token are ignored.
type Token uint64

// Spin is the state of one in-flight spin. It is discarded when the spin
// completes or is cancelled.
type Spin struct {
	Token     Token
	Index     int
	Total     int
	FullSpins int
	From      float64 // unwrapped rotation when the spin started
	To        float64 // unwrapped target rotation
	StartedAt time.Time
	Duration  time.Duration
}

// Frame is one animation sample. Done marks the terminal frame, which
// Frame returns exactly once per completed spin.
type Frame struct {
	Rotation float64 // unwrapped, used for interpolation
	Display  float64 // Rotation mod 360, for the rendering surface
	Done     bool
}

// Animator drives the rotation of one wheel. It keeps the wheel's
// orientation across spins and runs at most one spin at a time.
//
// Animator is not safe for concurrent use.
type Animator struct {
	duration time.Duration
	spins    FullSpinSource

	rotation float64
	gen      Token
	cur      *Spin
}

// NewAnimator creates an animator. A nil spins source uses DefaultSpins.
func NewAnimator(duration time.Duration, spins FullSpinSource) *Animator {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if spins == nil {
		spins = DefaultSpins()
	}
	return &Animator{duration: duration, spins: spins}
}

// Start begins a spin that lands on segment index of a total segment
// wheel. Nothing changes if it returns an error.
func (a *Animator) Start(total, index int, now time.Time) (Spin, error) {
	if a.cur != nil {
		return Spin{}, ErrBusy
	}
	full := a.spins.FullSpins()
	to, err := TargetRotation(a.rotation, index, total, full)
	if err != nil {
		return Spin{}, err
	}

	a.gen++
	a.cur = &Spin{
		Token:     a.gen,
		Index:     index,
		Total:     total,
		FullSpins: full,
		From:      a.rotation,
		To:        to,
		StartedAt: now,
		Duration:  a.duration,
	}
	return *a.cur, nil
}

// Frame samples the spin identified by tok at time now. It returns false
// for a token that is not the running spin, in which case the caller must
// stop scheduling frames for it.
//
// Once the duration has elapsed Frame returns the target orientation with
// Done set and forgets the spin. The caller renders that frame and then
// reports the completion; a cancelled spin never produces a Done frame.
func (a *Animator) Frame(tok Token, now time.Time) (Frame, bool) {
	s := a.cur
	if s == nil || s.Token != tok {
		return Frame{}, false
	}

	elapsed := now.Sub(s.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= s.Duration {
		a.rotation = s.To
		a.cur = nil
		return Frame{Rotation: s.To, Display: Normalize(s.To), Done: true}, true
	}

	p := float64(elapsed) / float64(s.Duration)
	rot := s.From + (s.To-s.From)*EaseOutCubic(p)
	a.rotation = rot
	return Frame{Rotation: rot, Display: Normalize(rot)}, true
}

// Cancel abandons the running spin. The wheel stays where the last frame
// left it and no completion is reported.
func (a *Animator) Cancel() bool {
	if a.cur == nil {
		return false
	}
	a.cur = nil
	return true
}

// Spinning reports whether a spin is in flight.
func (a *Animator) Spinning() bool {
	return a.cur != nil
}

// Current returns a copy of the running spin.
func (a *Animator) Current() (Spin, bool) {
	if a.cur == nil {
		return Spin{}, false
	}
	return *a.cur, true
}

// Rotation returns the unwrapped orientation of the wheel.
func (a *Animator) Rotation() float64 {
	return a.rotation
}

// Display returns the orientation of the wheel in [0, 360).
func (a *Animator) Display() float64 {
	return Normalize(a.rotation)
}
