package rotary

import "time"

// Config holds configuration for a rotary encoder.
type Config struct {
	Chip      string        `yaml:"chip"`
	CLKPin    int           `yaml:"clk_pin"`
	DTPin     int           `yaml:"dt_pin"`
	ButtonPin int           `yaml:"button_pin"`
	LongPress time.Duration `yaml:"long_press"` // default 1s
}

// Handlers holds callback functions for rotary events.
type Handlers struct {
	OnTurn      func(delta int) // Called with +1 (CW) or -1 (CCW)
	OnPress     func()          // Called when the button is released
	OnLongPress func()          // Called instead of OnPress after a long hold
}

// quadrature decodes encoder steps from CLK and DT edges.
type quadrature struct {
	lastCLK int
	lastDT  int
}

// clk records a CLK edge and returns the step it completes, if any.
// Direction is decided on the CLK rising edge.
func (q *quadrature) clk(level int) int {
	q.lastCLK = level
	if level != 1 {
		return 0
	}
	if q.lastDT == 0 {
		return 1
	}
	return -1
}

// dt records a DT edge.
func (q *quadrature) dt(level int) {
	q.lastDT = level
}

// pressTimer tells short from long presses of an active low button.
type pressTimer struct {
	long      time.Duration
	pressed   bool
	pressedAt time.Duration
}

// edge records a button edge at timestamp ts. It returns "press" or
// "long" on release, "" otherwise.
func (p *pressTimer) edge(level int, ts time.Duration) string {
	if level == 0 {
		p.pressed = true
		p.pressedAt = ts
		return ""
	}
	if !p.pressed {
		return ""
	}
	p.pressed = false
	if ts-p.pressedAt >= p.long {
		return "long"
	}
	return "press"
}
