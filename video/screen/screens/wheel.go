package screens

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"gowheel/video/screen"
	"gowheel/wheel"
)

// WheelHandlers are called as a spin progresses. They run inside screen
// callbacks, so none of them may call into the manager. OnAbandon and
// OnPrizeSkipped may also run from Exit.
//
// OnPrizeSkipped reports a completed spin whose prize screen never came
// up because the wheel was left while it settled.
type WheelHandlers struct {
	OnStart        func(data screen.SpinData, spin wheel.Spin)
	OnComplete     func(data screen.SpinData)
	OnAbandon      func(data screen.SpinData)
	OnPrizeSkipped func(data screen.SpinData)
	OnError        func(data screen.SpinData, err error)
}

// WheelScreen shows the prize wheel and animates spins.
//
// mu guards the animator and the spin state. It is never held while
// calling the manager.
type WheelScreen struct {
	cfg      Config
	spinCfg  wheel.Config
	handlers WheelHandlers
	now      func() time.Time

	mu           sync.Mutex
	mgr          *screen.Manager
	anim         *wheel.Animator
	segments     []wheel.Segment   // segments drawn at rest
	active       *screen.SpinData  // spin being animated
	settling     *screen.SpinData  // landed, prize screen not shown yet
	lastWin      string            // label of the last winning segment
	requesting   bool              // waiting for the outcome service
	frameTimerID screen.TimerID
}

// NewWheelScreen creates the wheel screen.
func NewWheelScreen(cfg Config, spinCfg wheel.Config) *WheelScreen {
	spinCfg = spinCfg.WithDefaults()
	return &WheelScreen{
		cfg:     cfg.withDefaults(),
		spinCfg: spinCfg,
		now:     time.Now,
		anim:    wheel.NewAnimator(spinCfg.Duration, spinCfg.Spins()),
	}
}

// SetHandlers sets the spin callbacks. Call before the first spin.
func (s *WheelScreen) SetHandlers(h WheelHandlers) {
	s.handlers = h
}

// SetSegments replaces the segments drawn at rest. A running spin keeps
// the segments it started with.
func (s *WheelScreen) SetSegments(segs []wheel.Segment) {
	s.mu.Lock()
	s.segments = append([]wheel.Segment(nil), segs...)
	s.mu.Unlock()
}

// Settling reports whether a landed spin is waiting for its prize screen.
func (s *WheelScreen) Settling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settling != nil
}

// Spinning reports whether an animation is running.
func (s *WheelScreen) Spinning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anim.Spinning()
}

// Rotation returns the wheel orientation in [0, 360).
func (s *WheelScreen) Rotation() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anim.Display()
}

func (s *WheelScreen) Init(mgr *screen.Manager) {
	s.mu.Lock()
	s.mgr = mgr
	s.mu.Unlock()
}

func (s *WheelScreen) Update() {
	s.mu.Lock()
	segs := s.drawnSegmentsLocked()
	rot := s.anim.Display()
	status := s.statusLocked()
	s.mu.Unlock()

	s.mgr.FillBackground(bg())
	s.mgr.SetFontSize(bandHeight(s.mgr.Height()) * 2 / 3)
	s.mgr.DrawCentered(s.cfg.Title, float64(bandHeight(s.mgr.Height()))/2, 1, 1, 1)

	s.drawWheelArea(segs, rot)
	s.drawStatusBand(status)
	s.drawConnection()
	s.mgr.Flush()
}

func (s *WheelScreen) HandleEvent(event screen.Event) bool {
	switch event.Type {
	case screen.EventCampaignUpdated:
		data := event.Campaign()
		if data == nil {
			return false
		}
		s.SetSegments(data.Campaign.Segments)
		if s.isCurrent() && !s.Spinning() {
			s.Update()
		}
		return true

	case screen.EventSpinRequested:
		s.mu.Lock()
		if s.anim.Spinning() || s.settling != nil {
			s.mu.Unlock()
			return false
		}
		s.requesting = true
		s.mu.Unlock()
		s.refreshStatus()
		return true

	case screen.EventSpinResult:
		data := event.Spin()
		if data == nil {
			return false
		}
		s.startSpin(*data)
		return true

	case screen.EventSpinFailed:
		msg := "Something went wrong, please try again"
		if f := event.Failure(); f != nil {
			if f.Message != "" {
				msg = f.Message
			} else if f.Err != nil {
				msg = FailureMessage(f.Err)
			}
		}
		s.mu.Lock()
		s.requesting = false
		s.mu.Unlock()
		s.mgr.SetFailure(msg)
		s.mgr.Goto(screen.ScreenSpinError)
		return true

	case screen.EventCancel:
		return s.cancel()

	case screen.EventMQTTConnected, screen.EventMQTTDisconnected:
		if s.isCurrent() {
			s.drawConnection()
			x, y, w, h := s.connectionRect()
			s.mgr.FlushRect(x, y, w, h)
		}
		return true
	}
	return false
}

func (s *WheelScreen) Exit() {
	s.mu.Lock()
	data := s.cancelLocked()
	landed := s.settling
	s.settling = nil
	s.requesting = false
	s.mu.Unlock()

	if data != nil {
		log.Printf("Wheel: spin for %s abandoned on exit", describe(*data))
		if h := s.handlers.OnAbandon; h != nil {
			h(*data)
		}
	}
	if landed != nil {
		log.Printf("Wheel: left before the prize for %s was shown", describe(*landed))
		if h := s.handlers.OnPrizeSkipped; h != nil {
			h(*landed)
		}
	}
}

func (s *WheelScreen) Name() string {
	return "Wheel"
}

func (s *WheelScreen) startSpin(data screen.SpinData) {
	segs := data.Campaign.Segments

	s.mu.Lock()
	var (
		spin wheel.Spin
		err  error
	)
	if s.settling != nil {
		err = wheel.ErrBusy
	} else {
		spin, err = s.anim.Start(len(segs), data.Result.SegmentIndex, s.now())
	}
	if err == nil {
		s.active = &data
		s.requesting = false
	}
	s.mu.Unlock()

	switch {
	case errors.Is(err, wheel.ErrBusy):
		log.Debugf("Wheel: spin for %s ignored, wheel is busy", describe(data))
		return
	case err != nil:
		log.WithFields(log.Fields{
			"segment":  data.Result.SegmentIndex,
			"segments": len(segs),
			"campaign": data.Campaign.Version,
		}).Errorf("Wheel: cannot start spin: %v", err)
		s.mu.Lock()
		s.requesting = false
		s.mu.Unlock()
		if h := s.handlers.OnError; h != nil {
			h(data, err)
		}
		s.mgr.SetFailure(FailureMessage(err))
		s.mgr.Goto(screen.ScreenSpinError)
		return
	}

	log.WithFields(log.Fields{
		"token":      spin.Token,
		"segment":    spin.Index,
		"segments":   spin.Total,
		"full_spins": spin.FullSpins,
		"target":     spin.To,
		"source":     data.Source,
	}).Info("Wheel: spin started")

	if h := s.handlers.OnStart; h != nil {
		h(data, spin)
	}
	s.refreshStatus()
	s.scheduleFrame(spin.Token)
}

func (s *WheelScreen) scheduleFrame(tok wheel.Token) {
	id := s.mgr.SetTimeout(s.spinCfg.FrameInterval(), func(screen.Screen) {
		s.frame(tok)
	})

	s.mu.Lock()
	if cur, ok := s.anim.Current(); ok && cur.Token == tok {
		s.frameTimerID = id
	}
	s.mu.Unlock()
}

// frame draws one animation frame of spin tok and schedules the next.
func (s *WheelScreen) frame(tok wheel.Token) {
	s.mu.Lock()
	f, ok := s.anim.Frame(tok, s.now())
	if !ok {
		// Cancelled or superseded.
		s.mu.Unlock()
		return
	}
	data := s.active
	segs := data.Campaign.Segments
	if f.Done {
		s.active = nil
		s.settling = data
		s.frameTimerID = 0
		if i := data.Result.SegmentIndex; i < len(segs) {
			s.lastWin = segs[i].Label
		}
	}
	s.mu.Unlock()

	s.drawWheelArea(segs, f.Display)
	x, y, w, h := newWheelGeometry(s.mgr.Width(), s.mgr.Height()).bounds()
	s.mgr.FlushRect(x, y, w, h)

	// The terminal frame is on screen before anyone hears about the win.
	if f.Done {
		s.complete(*data)
		return
	}
	s.scheduleFrame(tok)
}

func (s *WheelScreen) complete(data screen.SpinData) {
	label := ""
	if i := data.Result.SegmentIndex; i < len(data.Campaign.Segments) {
		label = data.Campaign.Segments[i].Label
	}
	log.WithFields(log.Fields{
		"segment":  data.Result.SegmentIndex,
		"label":    label,
		"amount":   data.Result.Amount,
		"customer": data.Customer,
	}).Info("Wheel: landed")

	s.refreshStatus()
	s.mgr.SetPrize(screen.Prize{Result: data.Result, Label: label, Customer: data.Customer})
	if h := s.handlers.OnComplete; h != nil {
		h(data)
	}
	s.mgr.SetTimeout(s.cfg.SettleDelay, func(screen.Screen) {
		s.mu.Lock()
		pending := s.settling != nil
		s.settling = nil
		s.mu.Unlock()
		if pending {
			s.mgr.Goto(screen.ScreenPrize)
		}
	})
}

// cancel stops the running spin, if any, leaving the wheel where it is.
func (s *WheelScreen) cancel() bool {
	s.mu.Lock()
	id := s.frameTimerID
	data := s.cancelLocked()
	wasRequesting := s.requesting
	s.requesting = false
	s.mu.Unlock()

	if id != 0 {
		s.mgr.ClearTimeout(id)
	}
	if data != nil {
		log.Printf("Wheel: spin for %s cancelled", describe(*data))
		if h := s.handlers.OnAbandon; h != nil {
			h(*data)
		}
	}
	if data == nil && !wasRequesting {
		return false
	}
	if s.isCurrent() {
		s.Update()
	}
	return true
}

func (s *WheelScreen) cancelLocked() *screen.SpinData {
	if !s.anim.Cancel() {
		return nil
	}
	data := s.active
	s.active = nil
	s.frameTimerID = 0
	return data
}

func (s *WheelScreen) isCurrent() bool {
	s.mu.Lock()
	mgr := s.mgr
	s.mu.Unlock()
	return mgr != nil && mgr.Current() == s
}

func (s *WheelScreen) drawnSegmentsLocked() []wheel.Segment {
	if s.active != nil {
		return s.active.Campaign.Segments
	}
	return s.segments
}

func (s *WheelScreen) statusLocked() string {
	switch {
	case s.requesting:
		return "Good luck!"
	case s.anim.Spinning():
		return ""
	case len(s.segments) == 0:
		return "Wheel is out of order"
	case s.lastWin != "":
		return fmt.Sprintf("Last win: %s", s.lastWin)
	}
	return s.cfg.Prompt
}

func (s *WheelScreen) drawWheelArea(segs []wheel.Segment, rotation float64) {
	g := newWheelGeometry(s.mgr.Width(), s.mgr.Height())
	x, y, w, h := g.bounds()
	r, gr, b := bg()
	s.mgr.FillRect(x, y, w, h, r, gr, b)

	s.mgr.SetFontSize(labelFontSize(g.r, len(segs)))
	dc := s.mgr.DC()
	drawWheel(dc, g, segs, rotation)
	drawPointer(dc, g)
}

func (s *WheelScreen) drawStatusBand(text string) {
	band := bandHeight(s.mgr.Height())
	y := s.mgr.Height() - band
	r, g, b := bg()
	s.mgr.FillRect(0, y, s.mgr.Width(), band, r, g, b)
	if text != "" {
		s.mgr.SetFontSize(band / 2)
		s.mgr.DrawCentered(text, float64(y)+float64(band)/2, 1, 0.85, 0.3)
	}
}

func (s *WheelScreen) refreshStatus() {
	if !s.isCurrent() {
		return
	}
	s.mu.Lock()
	status := s.statusLocked()
	s.mu.Unlock()

	s.drawStatusBand(status)
	band := bandHeight(s.mgr.Height())
	s.mgr.FlushRect(0, s.mgr.Height()-band, s.mgr.Width(), band)
}

// connectionRect is the corner dot showing the broker connection.
func (s *WheelScreen) connectionRect() (x, y, w, h int) {
	return s.mgr.Width() - 20, 4, 16, 16
}

func (s *WheelScreen) drawConnection() {
	x, y, w, h := s.connectionRect()
	r, g, b := bg()
	s.mgr.FillRect(x, y, w, h, r, g, b)
	dc := s.mgr.DC()
	if s.mgr.IsMQTTConnected() {
		dc.SetRGB(0.2, 0.8, 0.2)
	} else {
		dc.SetRGB(0.9, 0.2, 0.2)
	}
	dc.DrawCircle(float64(x+w/2), float64(y+h/2), float64(w)/2-2)
	dc.Fill()
}

func bg() (r, g, b float64) {
	return float64(colorBackground.R) / 255, float64(colorBackground.G) / 255, float64(colorBackground.B) / 255
}

func labelFontSize(radius float64, n int) int {
	size := int(radius / 9)
	if n > 12 {
		size = size * 12 / n
	}
	if size < 8 {
		size = 8
	}
	return size
}

func describe(d screen.SpinData) string {
	if d.Customer != "" {
		return fmt.Sprintf("%s %s", d.Source, d.Customer)
	}
	return d.Source
}
