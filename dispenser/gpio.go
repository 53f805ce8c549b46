package dispenser

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Pulse drives a dispenser that releases one ticket per GPIO pulse.
type Pulse struct {
	mu         sync.Mutex
	hw         output
	pin        uint8
	activeHigh bool
	pulse      time.Duration
	gap        time.Duration
	sleep      func(time.Duration)
}

func newPulse(hw output, pin uint8, activeHigh bool, cfg Config) *Pulse {
	p := &Pulse{
		hw:         hw,
		pin:        pin,
		activeHigh: activeHigh,
		pulse:      cfg.Pulse,
		gap:        cfg.Gap,
		sleep:      time.Sleep,
	}
	// Start inactive
	p.set(false)
	return p
}

func (p *Pulse) set(active bool) {
	if active == p.activeHigh {
		p.hw.PinSet(p.pin)
	} else {
		p.hw.PinClear(p.pin)
	}
}

// Dispense implements Dispenser.Dispense.
func (p *Pulse) Dispense(n int) error {
	if n < 0 {
		return ErrNegativeCount
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	log.Debugf("Dispenser: pulsing pin %d for %d tickets", p.pin, n)
	for i := 0; i < n; i++ {
		p.set(true)
		p.sleep(p.pulse)
		p.set(false)
		p.sleep(p.gap)
	}
	return nil
}

// Release implements Dispenser.Release.
func (p *Pulse) Release() error {
	p.set(false)
	return p.hw.Close()
}
