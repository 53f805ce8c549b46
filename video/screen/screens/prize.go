package screens

import (
	"fmt"
	"image"
	"math"

	"gowheel/video/screen"
)

// PrizeScreen shows what the customer won.
type PrizeScreen struct {
	cfg       Config
	logo      image.Image
	onDismiss func(screen.Prize)

	mgr       *screen.Manager
	prize     screen.Prize
	timeoutID screen.TimerID
}

// NewPrizeScreen creates the prize screen. logo may be nil.
func NewPrizeScreen(cfg Config, logo image.Image) *PrizeScreen {
	return &PrizeScreen{cfg: cfg.withDefaults(), logo: logo}
}

// SetDismissHandler sets the function called whenever the prize screen is
// left: by a press, by timeout or by a switch to another screen. It runs
// from Exit with the manager locked and must not call into the manager.
func (s *PrizeScreen) SetDismissHandler(fn func(screen.Prize)) {
	s.onDismiss = fn
}

func (s *PrizeScreen) Init(mgr *screen.Manager) {
	s.mgr = mgr
	s.prize, _ = mgr.Prize()

	s.timeoutID = mgr.SetTimeout(s.cfg.PrizeTimeout, func(scr screen.Screen) {
		s.dismiss()
	})
}

func (s *PrizeScreen) Update() {
	h := float64(s.mgr.Height())
	s.mgr.FillBackground(0.55, 0.1, 0.45)

	y := h * 0.12
	if s.logo != nil {
		b := s.logo.Bounds()
		s.mgr.DC().DrawImageAnchored(s.logo, s.mgr.Width()/2, int(y)+b.Dy()/2, 0.5, 0.5)
		y += float64(b.Dy()) + 10
	}

	s.mgr.SetFontSize(int(math.Max(24, h/10)))
	s.mgr.DrawCentered("You won!", y+h*0.05, 1, 1, 1)

	if s.prize.Label != "" {
		s.mgr.SetFontSize(int(math.Max(20, h/8)))
		s.mgr.DrawCentered(s.prize.Label, y+h*0.2, 1, 0.85, 0.3)
	}

	s.mgr.SetFontSize(int(math.Max(14, h/20)))
	line := y + h*0.35
	if s.prize.Result.Amount > 0 {
		s.mgr.DrawCentered(fmt.Sprintf("Value: %s", formatAmount(s.prize.Result.Amount)), line, 0.95, 0.95, 0.95)
		line += h * 0.07
	}
	if s.prize.Result.Barcode != "" {
		s.mgr.DrawCentered(fmt.Sprintf("Code: %s", s.prize.Result.Barcode), line, 0.95, 0.95, 0.95)
		line += h * 0.07
	}
	if !s.prize.Result.ExpiresAt.IsZero() {
		s.mgr.DrawCentered("Valid until "+s.prize.Result.ExpiresAt.Local().Format("Jan 2, 15:04"), line, 0.85, 0.85, 0.85)
	}

	s.mgr.SetFontSize(int(math.Max(12, h/24)))
	s.mgr.DrawCentered("Press button to continue", h-h*0.06, 0.8, 0.8, 0.8)

	s.mgr.Flush()
}

func (s *PrizeScreen) HandleEvent(event screen.Event) bool {
	switch event.Type {
	case screen.EventRotaryPress, screen.EventRotaryLongPress, screen.EventButton, screen.EventRFID:
		if s.timeoutID != 0 {
			s.mgr.ClearTimeout(s.timeoutID)
		}
		s.dismiss()
		return true
	}
	return false
}

func (s *PrizeScreen) dismiss() {
	s.timeoutID = 0
	s.mgr.ClearPrize()
	s.mgr.Goto(screen.ScreenWheel)
}

func (s *PrizeScreen) Exit() {
	s.timeoutID = 0
	if s.onDismiss != nil {
		s.onDismiss(s.prize)
	}
}

func (s *PrizeScreen) Name() string {
	return "Prize"
}

// formatAmount drops the decimals of whole amounts.
func formatAmount(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
