package screens

import "gowheel/video/screen"

// ConnectionLostScreen is shown until the kiosk first reaches the broker.
type ConnectionLostScreen struct {
	mgr *screen.Manager
}

// NewConnectionLostScreen creates a new connection lost screen.
func NewConnectionLostScreen() *ConnectionLostScreen {
	return &ConnectionLostScreen{}
}

func (s *ConnectionLostScreen) Init(mgr *screen.Manager) {
	s.mgr = mgr
}

func (s *ConnectionLostScreen) Update() {
	s.mgr.FillBackground(0.5, 0.3, 0) // Orange-ish
	s.mgr.SetFontSize(48)
	s.mgr.DrawCentered("Connecting...", float64(s.mgr.Height()/2)-20, 1, 1, 1)
	s.mgr.SetFontSize(24)
	s.mgr.DrawCentered("The wheel will be back shortly", float64(s.mgr.Height()/2)+30, 0.9, 0.9, 0.9)
	s.mgr.Flush()
}

func (s *ConnectionLostScreen) HandleEvent(event screen.Event) bool {
	if event.Type == screen.EventMQTTConnected {
		s.mgr.Goto(screen.ScreenWheel)
		return true
	}
	return false
}

func (s *ConnectionLostScreen) Exit() {
}

func (s *ConnectionLostScreen) Name() string {
	return "ConnectionLost"
}
