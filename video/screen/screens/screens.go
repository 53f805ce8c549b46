// Package screens holds the kiosk's screens: the wheel itself, the prize
// and error screens, and the connection lost and shutdown screens.
package screens

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"golang.org/x/image/draw"

	"gowheel/campaign"
	"gowheel/outcome"
	"gowheel/video/screen"
	"gowheel/wheel"
)

// Config holds screen settings.
type Config struct {
	Title        string        `yaml:"title"`         // shown above the wheel, default "Spin to Win!"
	Prompt       string        `yaml:"prompt"`        // shown below the wheel at rest
	Logo         string        `yaml:"logo"`          // PNG or JPEG shown on the prize screen
	Font         string        `yaml:"font"`          // TrueType font path
	SettleDelay  time.Duration `yaml:"settle_delay"`  // pause on the winning segment, default 1.5s
	PrizeTimeout time.Duration `yaml:"prize_timeout"` // default 20s
	ErrorTimeout time.Duration `yaml:"error_timeout"` // default 6s
}

func (c Config) withDefaults() Config {
	if c.Title == "" {
		c.Title = "Spin to Win!"
	}
	if c.Prompt == "" {
		c.Prompt = "Tap card or press to spin"
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 1500 * time.Millisecond
	}
	if c.PrizeTimeout <= 0 {
		c.PrizeTimeout = 20 * time.Second
	}
	if c.ErrorTimeout <= 0 {
		c.ErrorTimeout = 6 * time.Second
	}
	return c
}

// Set is the full collection of registered screens.
type Set struct {
	Wheel          *WheelScreen
	Prize          *PrizeScreen
	SpinError      *SpinErrorScreen
	ConnectionLost *ConnectionLostScreen
	Shutdown       *ShutdownScreen
}

// Register creates every screen and registers it with mgr.
func Register(mgr *screen.Manager, cfg Config, spin wheel.Config) (*Set, error) {
	cfg = cfg.withDefaults()
	mgr.SetFontPath(cfg.Font)

	var logo image.Image
	if cfg.Logo != "" {
		var err error
		logo, err = LoadLogo(cfg.Logo, mgr.Height()/5)
		if err != nil {
			return nil, err
		}
	}

	set := &Set{
		Wheel:          NewWheelScreen(cfg, spin),
		Prize:          NewPrizeScreen(cfg, logo),
		SpinError:      NewSpinErrorScreen(cfg),
		ConnectionLost: NewConnectionLostScreen(),
		Shutdown:       NewShutdownScreen(),
	}
	mgr.Register(screen.ScreenWheel, set.Wheel)
	mgr.Register(screen.ScreenPrize, set.Prize)
	mgr.Register(screen.ScreenSpinError, set.SpinError)
	mgr.Register(screen.ScreenConnectionLost, set.ConnectionLost)
	mgr.Register(screen.ScreenShutdown, set.Shutdown)
	return set, nil
}

// LoadLogo reads an image and scales it to maxHeight pixels high.
func LoadLogo(path string, maxHeight int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open logo: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	return scaleToHeight(src, maxHeight), nil
}

func scaleToHeight(src image.Image, h int) image.Image {
	b := src.Bounds()
	if h <= 0 || b.Dy() <= h {
		return src
	}
	w := b.Dx() * h / b.Dy()
	if w < 1 {
		w = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// FailureMessage is the short text shown to the customer for err.
func FailureMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, outcome.ErrNotEligible):
		return "No spins left on this card"
	case errors.Is(err, outcome.ErrRateLimited):
		return "Please wait a moment"
	case errors.Is(err, outcome.ErrNotConfigured),
		errors.Is(err, campaign.ErrNotConfigured),
		errors.Is(err, wheel.ErrNoSegments),
		errors.Is(err, wheel.ErrSegmentOutOfRange),
		errors.Is(err, wheel.ErrInvalidFullSpins):
		return "Wheel is out of order"
	}
	return "Something went wrong, please try again"
}
