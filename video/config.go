package video

import "fmt"

// Config holds video display configuration.
type Config struct {
	Device   string `yaml:"device"`   // default /dev/fb0
	Rotation int    `yaml:"rotation"` // 0, 90, 180, or 270 degrees
}

func (c Config) withDefaults() Config {
	if c.Device == "" {
		c.Device = "/dev/fb0"
	}
	return c
}

func (c Config) validate() error {
	switch c.Rotation {
	case 0, 90, 180, 270:
		return nil
	}
	return fmt.Errorf("%w: %d", ErrBadRotation, c.Rotation)
}

// canvasSize returns the drawing size for a framebuffer of fbW x fbH.
func canvasSize(fbW, fbH, rotation int) (w, h int) {
	if rotation == 90 || rotation == 270 {
		return fbH, fbW
	}
	return fbW, fbH
}

// rotatePoint maps a canvas pixel to framebuffer coordinates. The canvas
// is turned clockwise by rotation degrees on the panel.
func rotatePoint(x, y, fbW, fbH, rotation int) (fx, fy int) {
	switch rotation {
	case 90:
		return fbW - 1 - y, x
	case 180:
		return fbW - 1 - x, fbH - 1 - y
	case 270:
		return y, fbH - 1 - x
	}
	return x, y
}

// rgb565 packs 8 bit channels into a 16 bit pixel.
func rgb565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}
