// Package button watches the arcade spin button.
package button

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/warthog618/gpio"
)

// Config holds configuration for the spin button.
type Config struct {
	Pin      *int          `yaml:"pin"`      // BCM pin number, nil = no button
	LEDPin   *int          `yaml:"led_pin"`  // lamp inside the button
	Debounce time.Duration `yaml:"debounce"` // default 50ms
	Cooldown time.Duration `yaml:"cooldown"` // minimum time between presses, default 1s
}

// Button watches an active low push button with an optional lamp.
type Button struct {
	pin     *gpio.Pin
	led     *gpio.Pin
	gate    *debouncer
	onPress func()
}

// New opens the GPIO and starts watching the button. It returns nil when no
// pin is configured.
func New(cfg Config, onPress func()) (*Button, error) {
	if cfg.Pin == nil {
		return nil, nil
	}

	if err := gpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	b := &Button{
		pin:     gpio.NewPin(*cfg.Pin),
		gate:    newDebouncer(cfg.Debounce, cfg.Cooldown),
		onPress: onPress,
	}
	b.pin.Input()
	b.pin.PullUp()

	if cfg.LEDPin != nil {
		b.led = gpio.NewPin(*cfg.LEDPin)
		b.led.Output()
		b.led.Low()
	}

	if err := b.pin.Watch(gpio.EdgeFalling, b.handle); err != nil {
		gpio.Close()
		return nil, fmt.Errorf("watch pin %d: %w", *cfg.Pin, err)
	}

	log.Printf("Button: watching pin %d", *cfg.Pin)
	return b, nil
}

func (b *Button) handle(pin *gpio.Pin) {
	if !b.gate.accept(time.Now()) {
		return
	}
	log.Debugf("Button: pressed")
	if b.onPress != nil {
		b.onPress()
	}
}

// SetLamp switches the lamp inside the button.
func (b *Button) SetLamp(on bool) {
	if b == nil || b.led == nil {
		return
	}
	if on {
		b.led.High()
	} else {
		b.led.Low()
	}
}

// Release stops watching and closes the GPIO.
func (b *Button) Release() error {
	if b == nil {
		return nil
	}
	b.pin.Unwatch()
	b.SetLamp(false)
	return gpio.Close()
}

// debouncer drops edges that follow an accepted one too closely.
type debouncer struct {
	mu       sync.Mutex
	window   time.Duration
	last     time.Time
	accepted bool
}

func newDebouncer(debounce, cooldown time.Duration) *debouncer {
	if debounce <= 0 {
		debounce = 50 * time.Millisecond
	}
	if cooldown <= 0 {
		cooldown = time.Second
	}
	window := cooldown
	if debounce > window {
		window = debounce
	}
	return &debouncer{window: window}
}

func (d *debouncer) accept(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.accepted && now.Sub(d.last) < d.window {
		return false
	}
	d.last = now
	d.accepted = true
	return true
}
