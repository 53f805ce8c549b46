package dispenser

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Servo releases one ticket per open/close sweep of a gate servo.
type Servo struct {
	mu       sync.Mutex
	hw       output
	openPos  int
	closePos int
	hold     time.Duration
	gap      time.Duration
	sleep    func(time.Duration)
}

func newServo(hw output, cfg Config) *Servo {
	s := &Servo{
		hw:       hw,
		openPos:  cfg.ServoOpen,
		closePos: cfg.ServoClose,
		hold:     cfg.Pulse,
		gap:      cfg.Gap,
		sleep:    time.Sleep,
	}
	// Start in closed position
	s.hw.Pwm0Set(uint32(s.closePos))
	return s
}

// Dispense implements Dispenser.Dispense.
func (s *Servo) Dispense(n int) error {
	if n < 0 {
		return ErrNegativeCount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Debugf("Dispenser: servo releasing %d tickets", n)
	for i := 0; i < n; i++ {
		s.moveFromTo(s.closePos, s.openPos)
		s.sleep(s.hold)
		s.moveFromTo(s.openPos, s.closePos)
		s.sleep(s.gap)
	}
	return nil
}

// Release implements Dispenser.Release.
func (s *Servo) Release() error {
	return s.hw.Close()
}

func (s *Servo) moveFromTo(from, to int) {
	inc := 1
	if to < from {
		inc = -1
	}
	for i := from; i != to; i += inc {
		s.hw.Pwm0Set(uint32(i))
		s.sleep(2 * time.Millisecond)
	}
	s.hw.Pwm0Set(uint32(to))
}
