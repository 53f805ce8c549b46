// Package dispenser drives the ticket dispenser that pays out prizes.
package dispenser

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hjkoskel/govattu"
)

// ErrNegativeCount is returned when asked to dispense fewer than zero tickets.
var ErrNegativeCount = errors.New("dispenser: negative ticket count")

// Dispenser pays out tickets.
type Dispenser interface {
	// Dispense releases n tickets and returns when the last one is out.
	Dispense(n int) error

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for dispenser implementations.
type Config struct {
	Type           string        `yaml:"type"`             // "servo", "gpio_high", "gpio_low", "none"
	Pin            *int          `yaml:"pin"`              // GPIO pin number
	ServoOpen      int           `yaml:"servo_open"`       // PWM value for open position
	ServoClose     int           `yaml:"servo_close"`      // PWM value for closed position
	Pulse          time.Duration `yaml:"pulse"`            // active time per ticket, default 100ms
	Gap            time.Duration `yaml:"gap"`              // pause between tickets, default 150ms
	TicketsPerUnit float64       `yaml:"tickets_per_unit"` // tickets per unit of prize amount
	MaxTickets     int           `yaml:"max_tickets"`      // cap per prize, default 200
}

func (c Config) withDefaults() Config {
	if c.Pulse <= 0 {
		c.Pulse = 100 * time.Millisecond
	}
	if c.Gap <= 0 {
		c.Gap = 150 * time.Millisecond
	}
	if c.MaxTickets <= 0 {
		c.MaxTickets = 200
	}
	return c
}

// Tickets returns how many tickets a prize of amount is worth. Zero when
// no rate is configured.
func (c Config) Tickets(amount float64) int {
	c = c.withDefaults()
	if c.TicketsPerUnit <= 0 || amount <= 0 {
		return 0
	}
	n := int(math.Round(amount * c.TicketsPerUnit))
	if n > c.MaxTickets {
		n = c.MaxTickets
	}
	return n
}

// output is the part of govattu.Vattu used once a pin is set up.
type output interface {
	PinSet(pin uint8)
	PinClear(pin uint8)
	Pwm0Set(r uint32)
	Close() error
}

// New creates a Dispenser based on the provided configuration.
func New(cfg Config) (Dispenser, error) {
	cfg = cfg.withDefaults()
	if cfg.Pin == nil {
		return &Noop{}, nil
	}

	switch cfg.Type {
	case "servo", "gpio_high", "gpio_low":
	default:
		return &Noop{}, nil
	}

	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	pin := uint8(*cfg.Pin)
	if cfg.Type == "servo" {
		hw.PinMode(pin, govattu.ALT5) // ALT5 for PWM0
		hw.PwmSetMode(true, true, false, false)
		hw.PwmSetClock(19)
		hw.Pwm0SetRange(20000)
		return newServo(hw, cfg), nil
	}

	hw.PinMode(pin, govattu.ALToutput)
	return newPulse(hw, pin, cfg.Type == "gpio_high", cfg), nil
}
