package screens

import (
	"gowheel/video/screen"
)

// SpinErrorScreen tells the customer the spin did not happen.
type SpinErrorScreen struct {
	cfg       Config
	mgr       *screen.Manager
	message   string
	timeoutID screen.TimerID
}

// NewSpinErrorScreen creates the error screen.
func NewSpinErrorScreen(cfg Config) *SpinErrorScreen {
	return &SpinErrorScreen{cfg: cfg.withDefaults()}
}

func (s *SpinErrorScreen) Init(mgr *screen.Manager) {
	s.mgr = mgr
	s.message = mgr.Failure()

	s.timeoutID = mgr.SetTimeout(s.cfg.ErrorTimeout, func(scr screen.Screen) {
		mgr.Goto(screen.ScreenWheel)
	})
}

func (s *SpinErrorScreen) Update() {
	s.mgr.FillBackground(0.7, 0, 0) // Red background

	s.mgr.SetFontSize(48)
	s.mgr.DrawCentered("Sorry!", float64(s.mgr.Height()/2)-40, 1, 1, 1)

	if s.message != "" {
		s.mgr.SetFontSize(28)
		s.mgr.DrawCentered(s.message, float64(s.mgr.Height()/2)+20, 1, 1, 0)
	}

	s.mgr.Flush()
}

func (s *SpinErrorScreen) HandleEvent(event screen.Event) bool {
	if event.Type == screen.EventRotaryPress || event.Type == screen.EventButton {
		s.mgr.Goto(screen.ScreenWheel)
		return true
	}
	return false
}

func (s *SpinErrorScreen) Exit() {
	s.timeoutID = 0
}

func (s *SpinErrorScreen) Name() string {
	return "SpinError"
}
