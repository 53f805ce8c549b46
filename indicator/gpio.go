package indicator

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// pins is the part of govattu.Vattu used once the pins are outputs.
type pins interface {
	PinSet(pin uint8)
	PinClear(pin uint8)
	Close() error
}

// GPIO implements Indicator using discrete GPIO LED pins.
type GPIO struct {
	hw        pins
	greenPin  *uint8
	yellowPin *uint8
	redPin    *uint8
}

// NewGPIO creates a new GPIO-based indicator.
func NewGPIO(greenPin, yellowPin, redPin *uint8) (*GPIO, error) {
	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	// Initialize all pins as outputs
	for _, p := range []*uint8{greenPin, yellowPin, redPin} {
		if p != nil {
			hw.PinMode(*p, govattu.ALToutput)
		}
	}
	return newGPIO(hw, greenPin, yellowPin, redPin), nil
}

func newGPIO(hw pins, greenPin, yellowPin, redPin *uint8) *GPIO {
	g := &GPIO{
		hw:        hw,
		greenPin:  greenPin,
		yellowPin: yellowPin,
		redPin:    redPin,
	}
	g.allOff()
	return g
}

// Idle implements Indicator.Idle.
func (g *GPIO) Idle() {
	g.show(g.greenPin)
}

// Spinning implements Indicator.Spinning.
func (g *GPIO) Spinning() {
	g.show(g.yellowPin)
}

// Awarded implements Indicator.Awarded.
func (g *GPIO) Awarded(info *PrizeInfo) {
	if info.Won() {
		g.show(g.greenPin, g.yellowPin)
		return
	}
	g.show(g.yellowPin)
}

// Failed implements Indicator.Failed.
func (g *GPIO) Failed() {
	g.show(g.redPin)
}

// Connected implements Indicator.Connected.
func (g *GPIO) Connected() {}

// ConnectionLost implements Indicator.ConnectionLost.
func (g *GPIO) ConnectionLost() {
	g.show(g.yellowPin, g.redPin)
}

// Shutdown implements Indicator.Shutdown.
func (g *GPIO) Shutdown() {
	g.allOff()
}

// Release implements Indicator.Release.
func (g *GPIO) Release() error {
	g.allOff()
	return g.hw.Close()
}

// show lights exactly the given pins.
func (g *GPIO) show(on ...*uint8) {
	g.allOff()
	for _, p := range on {
		if p != nil {
			g.hw.PinSet(*p)
		}
	}
}

func (g *GPIO) allOff() {
	for _, p := range []*uint8{g.greenPin, g.yellowPin, g.redPin} {
		if p != nil {
			g.hw.PinClear(*p)
		}
	}
}
