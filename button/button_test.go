package button

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer(t *testing.T) {
	d := newDebouncer(20*time.Millisecond, 500*time.Millisecond)
	t0 := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, d.accept(t0))
	assert.False(t, d.accept(t0.Add(5*time.Millisecond)))
	assert.False(t, d.accept(t0.Add(499*time.Millisecond)))
	assert.True(t, d.accept(t0.Add(500*time.Millisecond)))
}

func TestDebouncerDefaults(t *testing.T) {
	d := newDebouncer(0, 0)
	assert.Equal(t, time.Second, d.window)

	d = newDebouncer(2*time.Second, 0)
	assert.Equal(t, 2*time.Second, d.window)
}

func TestNewWithoutPin(t *testing.T) {
	b, err := New(Config{}, func() {})
	require.NoError(t, err)
	assert.Nil(t, b)

	// Nil buttons are safe to use.
	b.SetLamp(true)
	assert.NoError(t, b.Release())
}
