package dispenser

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutput struct {
	ops    []string
	closed bool
}

func (f *fakeOutput) PinSet(pin uint8)   { f.ops = append(f.ops, fmt.Sprintf("set %d", pin)) }
func (f *fakeOutput) PinClear(pin uint8) { f.ops = append(f.ops, fmt.Sprintf("clear %d", pin)) }
func (f *fakeOutput) Pwm0Set(r uint32)   { f.ops = append(f.ops, fmt.Sprintf("pwm %d", r)) }
func (f *fakeOutput) Close() error {
	f.closed = true
	return nil
}

func noSleep(time.Duration) {}

func TestPulseDispense(t *testing.T) {
	hw := &fakeOutput{}
	p := newPulse(hw, 17, true, Config{}.withDefaults())
	p.sleep = noSleep

	require.NoError(t, p.Dispense(2))
	assert.Equal(t, []string{"clear 17", "set 17", "clear 17", "set 17", "clear 17"}, hw.ops)

	assert.ErrorIs(t, p.Dispense(-1), ErrNegativeCount)
	require.NoError(t, p.Release())
	assert.True(t, hw.closed)
}

func TestPulseActiveLow(t *testing.T) {
	hw := &fakeOutput{}
	p := newPulse(hw, 4, false, Config{}.withDefaults())
	p.sleep = noSleep

	require.NoError(t, p.Dispense(1))
	assert.Equal(t, []string{"set 4", "clear 4", "set 4"}, hw.ops)
}

func TestServoDispense(t *testing.T) {
	hw := &fakeOutput{}
	s := newServo(hw, Config{ServoOpen: 1003, ServoClose: 1000}.withDefaults())
	s.sleep = noSleep

	require.NoError(t, s.Dispense(1))
	assert.Equal(t, []string{
		"pwm 1000",
		"pwm 1000", "pwm 1001", "pwm 1002", "pwm 1003",
		"pwm 1003", "pwm 1002", "pwm 1001", "pwm 1000",
	}, hw.ops)
}

func TestTickets(t *testing.T) {
	cfg := Config{TicketsPerUnit: 2, MaxTickets: 30}
	assert.Equal(t, 0, Config{}.Tickets(10))
	assert.Equal(t, 21, cfg.Tickets(10.5))
	assert.Equal(t, 30, cfg.Tickets(100))
	assert.Equal(t, 0, cfg.Tickets(-3))
}

func TestNewWithoutPinIsNoop(t *testing.T) {
	d, err := New(Config{Type: "servo"})
	require.NoError(t, err)
	assert.IsType(t, &Noop{}, d)
	assert.NoError(t, d.Dispense(3))
}
