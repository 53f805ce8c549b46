package rotary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuadratureDirection(t *testing.T) {
	var q quadrature

	// DT low when CLK rises: clockwise.
	q.dt(0)
	assert.Equal(t, 0, q.clk(0))
	assert.Equal(t, 1, q.clk(1))

	// DT high when CLK rises: counter-clockwise.
	q.dt(1)
	assert.Equal(t, 0, q.clk(0))
	assert.Equal(t, -1, q.clk(1))
}

func TestPressTimer(t *testing.T) {
	p := pressTimer{long: time.Second}

	// Release without a press is ignored.
	assert.Equal(t, "", p.edge(1, 0))

	assert.Equal(t, "", p.edge(0, 10*time.Millisecond))
	assert.Equal(t, "press", p.edge(1, 200*time.Millisecond))

	assert.Equal(t, "", p.edge(0, 2*time.Second))
	assert.Equal(t, "long", p.edge(1, 3500*time.Millisecond))
}

func TestNewDisabled(t *testing.T) {
	r, err := New(Config{}, Handlers{})
	assert.NoError(t, err)
	assert.Nil(t, r)
}
