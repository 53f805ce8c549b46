//go:build linux

package rotary

import (
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"
)

// Rotary handles a rotary encoder input device.
type Rotary struct {
	dtLine  *gpiocdev.Line
	clkLine *gpiocdev.Line
	btnLine *gpiocdev.Line

	mu       sync.Mutex
	quad     quadrature
	press    pressTimer
	pos      int64
	handlers Handlers
}

// New creates a new rotary encoder handler.
// Returns nil if config has no pins specified (CLKPin and DTPin both 0).
func New(cfg Config, handlers Handlers) (*Rotary, error) {
	// If no pins configured, return nil (rotary disabled)
	if cfg.CLKPin == 0 && cfg.DTPin == 0 {
		return nil, nil
	}

	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}
	if cfg.LongPress <= 0 {
		cfg.LongPress = time.Second
	}

	debounceRotary := 250 * time.Microsecond
	debounceButton := 2 * time.Millisecond

	r := &Rotary{
		handlers: handlers,
		press:    pressTimer{long: cfg.LongPress},
	}

	var err error

	// Request DT line
	r.dtLine, err = gpiocdev.RequestLine(cfg.Chip, cfg.DTPin,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debounceRotary),
		gpiocdev.WithEventHandler(r.handleEvent))
	if err != nil {
		return nil, err
	}

	// Request CLK line
	r.clkLine, err = gpiocdev.RequestLine(cfg.Chip, cfg.CLKPin,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debounceRotary),
		gpiocdev.WithEventHandler(r.handleEvent))
	if err != nil {
		r.dtLine.Close()
		return nil, err
	}

	// Request button line if specified
	if cfg.ButtonPin > 0 {
		r.btnLine, err = gpiocdev.RequestLine(cfg.Chip, cfg.ButtonPin,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithDebounce(debounceButton),
			gpiocdev.WithEventHandler(r.handleButton))
		if err != nil {
			r.dtLine.Close()
			r.clkLine.Close()
			return nil, err
		}
	}

	log.Printf("Rotary: encoder on %s (CLK=%d, DT=%d, BTN=%d)", cfg.Chip, cfg.CLKPin, cfg.DTPin, cfg.ButtonPin)
	return r, nil
}

func edgeLevel(evt gpiocdev.LineEvent) (int, bool) {
	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		return 1, true
	case gpiocdev.LineEventFallingEdge:
		return 0, true
	}
	return 0, false
}

func (r *Rotary) handleEvent(evt gpiocdev.LineEvent) {
	level, ok := edgeLevel(evt)
	if !ok {
		return
	}

	r.mu.Lock()
	delta := 0
	switch evt.Offset {
	case r.clkLine.Offset():
		delta = r.quad.clk(level)
	case r.dtLine.Offset():
		r.quad.dt(level)
	}
	r.mu.Unlock()

	if delta == 0 {
		return
	}
	atomic.AddInt64(&r.pos, int64(delta))
	log.Debugf("Rotary: step %d", delta)
	if r.handlers.OnTurn != nil {
		r.handlers.OnTurn(delta)
	}
}

func (r *Rotary) handleButton(evt gpiocdev.LineEvent) {
	level, ok := edgeLevel(evt)
	if !ok {
		return
	}

	r.mu.Lock()
	kind := r.press.edge(level, evt.Timestamp)
	r.mu.Unlock()

	switch kind {
	case "press":
		log.Debugf("Rotary: button pressed")
		if r.handlers.OnPress != nil {
			r.handlers.OnPress()
		}
	case "long":
		log.Debugf("Rotary: button held")
		if r.handlers.OnLongPress != nil {
			r.handlers.OnLongPress()
		}
	}
}

// Position returns the current encoder position.
func (r *Rotary) Position() int64 {
	return atomic.LoadInt64(&r.pos)
}

// Release releases GPIO resources.
func (r *Rotary) Release() error {
	if r.dtLine != nil {
		r.dtLine.Close()
	}
	if r.clkLine != nil {
		r.clkLine.Close()
	}
	if r.btnLine != nil {
		r.btnLine.Close()
	}
	return nil
}
