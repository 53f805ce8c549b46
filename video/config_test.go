package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRGB565(t *testing.T) {
	assert.Equal(t, uint16(0xF800), rgb565(255, 0, 0))
	assert.Equal(t, uint16(0x07E0), rgb565(0, 255, 0))
	assert.Equal(t, uint16(0x001F), rgb565(0, 0, 255))
	assert.Equal(t, uint16(0xFFFF), rgb565(255, 255, 255))
	assert.Equal(t, uint16(0), rgb565(7, 3, 7))
}

func TestRotatePoint(t *testing.T) {
	// 4x2 panel
	const w, h = 4, 2
	tests := []struct {
		rotation int
		x, y     int
		fx, fy   int
	}{
		{0, 1, 1, 1, 1},
		{180, 0, 0, 3, 1},
		{90, 0, 0, 3, 0},
		{90, 1, 3, 0, 1},
		{270, 0, 0, 0, 1},
		{270, 1, 3, 3, 0},
	}
	for _, tt := range tests {
		fx, fy := rotatePoint(tt.x, tt.y, w, h, tt.rotation)
		assert.Equal(t, tt.fx, fx, "rotation %d (%d,%d)", tt.rotation, tt.x, tt.y)
		assert.Equal(t, tt.fy, fy, "rotation %d (%d,%d)", tt.rotation, tt.x, tt.y)
	}

	cw, ch := canvasSize(w, h, 90)
	assert.Equal(t, 2, cw)
	assert.Equal(t, 4, ch)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Rotation: 270}.validate())
	assert.ErrorIs(t, Config{Rotation: 45}.validate(), ErrBadRotation)
	assert.Equal(t, "/dev/fb0", Config{}.withDefaults().Device)
}
