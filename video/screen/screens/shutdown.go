package screens

import "gowheel/video/screen"

// ShutdownScreen blanks the display and ignores all input.
type ShutdownScreen struct {
	mgr *screen.Manager
}

// NewShutdownScreen creates a new shutdown screen.
func NewShutdownScreen() *ShutdownScreen {
	return &ShutdownScreen{}
}

func (s *ShutdownScreen) Init(mgr *screen.Manager) {
	s.mgr = mgr
}

func (s *ShutdownScreen) Update() {
	s.mgr.FillBackground(0, 0, 0)
	s.mgr.Flush()
}

// HandleEvent swallows everything so no spin starts while shutting down.
func (s *ShutdownScreen) HandleEvent(event screen.Event) bool {
	return true
}

func (s *ShutdownScreen) Exit() {
}

func (s *ShutdownScreen) Name() string {
	return "Shutdown"
}
