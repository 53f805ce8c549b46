package screen

import (
	"sync"
	"time"

	"github.com/fogleman/gg"
	log "github.com/sirupsen/logrus"

	"gowheel/outcome"
)

// DefaultFontPath is the TrueType font used for all screen text.
const DefaultFontPath = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"

// TimerID uniquely identifies a timer.
type TimerID uint64

// TimerCallback is called when a timer fires.
// The screen parameter is the screen that was current when the timer was set.
type TimerCallback func(screen Screen)

// screenTimer holds timer state.
type screenTimer struct {
	id       TimerID
	timer    *time.Timer
	screen   Screen
	callback TimerCallback
}

// Prize is the award shown after a spin completes.
type Prize struct {
	Result   outcome.Result
	Label    string // label of the winning segment
	Customer string
}

// Manager manages screen state and transitions.
//
// # Draw lock
//
// Every screen callback (Init, Update, HandleEvent, timer callbacks) runs
// with the draw lock held, so only one of them touches dc at a time. The
// entry points SwitchTo, SendEvent, Broadcast, Update and SetMQTTConnected
// take it, as does every timer before it runs its callback. Code already
// inside a callback switches screens with Goto, which does not.
//
// # Mutex (mu) Usage
//
// The mutex protects: current, screens, timers, nextTimerID, mqttConnected,
// prize, failure. It is always taken after the draw lock.
//
// IMPORTANT: Exit() is called from the switch while mu is held; Init(),
// Update() and HandleEvent() are called after releasing it.
//
// Rules for Screen implementations:
//   - NEVER call Manager methods that lock from Exit() - causes deadlock
//   - NEVER call Manager methods that lock while holding a screen's own
//     mutex; a switch holds mu while waiting for Exit to take it
//   - NEVER call SwitchTo, SendEvent, Broadcast, Update or SetMQTTConnected
//     from a callback; use Goto to change screens
//   - The manager clears all timers for a screen BEFORE calling Exit()
//   - To stop a recurring timer, just set your timerID field to 0 in Exit()
//   - Timer callbacks check if timer still exists before running user callback
//
// Rules for timer callbacks:
//   - Callbacks run with mu RELEASED (safe to call SetTimeout, etc.)
//   - A timer cleared while its callback waits for the draw lock does not run
//
// Thread safety:
//   - SetTimeout, ClearTimeout, SwitchTo, SendEvent are safe to call from any goroutine
//   - Drawing methods (DC, Flush, FlushRect, etc.) are NOT locked themselves;
//     only the current screen should draw, and only from its callbacks
type Manager struct {
	draw          sync.Mutex
	mu            sync.Mutex
	current       Screen
	screens       map[ScreenID]Screen
	dc            *gg.Context
	width, height int
	fontPath      string
	updateFn      func()               // Called after drawing to flush full framebuffer
	updateRectFn  func(x, y, w, h int) // Called to flush a rectangle only

	// Timer management
	nextTimerID TimerID
	timers      map[TimerID]*screenTimer

	// App-level state that persists across screen switches
	mqttConnected bool
	prize         *Prize
	failure       string
}

// NewManager creates a new screen manager drawing on dc.
func NewManager(dc *gg.Context, width, height int, updateFn func()) *Manager {
	return &Manager{
		dc:       dc,
		width:    width,
		height:   height,
		fontPath: DefaultFontPath,
		updateFn: updateFn,
		screens:  make(map[ScreenID]Screen),
		timers:   make(map[TimerID]*screenTimer),
	}
}

// SetUpdateRectFn sets the function for partial screen updates.
func (m *Manager) SetUpdateRectFn(fn func(x, y, w, h int)) {
	m.updateRectFn = fn
}

// SetFontPath overrides the font used by SetFontSize.
func (m *Manager) SetFontPath(path string) {
	if path != "" {
		m.fontPath = path
	}
}

// Register registers a screen with the manager.
func (m *Manager) Register(id ScreenID, screen Screen) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.screens[id] = screen
}

// Screen returns the screen registered under id.
func (m *Manager) Screen(id ScreenID) Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screens[id]
}

// SwitchTo transitions to a new screen.
func (m *Manager) SwitchTo(id ScreenID) {
	m.draw.Lock()
	defer m.draw.Unlock()
	m.switchTo(id)
}

// Goto transitions to a new screen from inside a screen or timer callback,
// where the draw lock is already held.
func (m *Manager) Goto(id ScreenID) {
	m.switchTo(id)
}

func (m *Manager) switchTo(id ScreenID) {
	m.mu.Lock()

	screen, ok := m.screens[id]
	if !ok {
		m.mu.Unlock()
		log.Printf("Screen: unknown screen ID %d", id)
		return
	}

	if m.current != nil {
		// Clear all timers for the exiting screen
		m.clearTimersForScreenLocked(m.current)
		m.current.Exit()
	}

	m.current = screen
	m.mu.Unlock()

	log.Debugf("Screen: switched to %s", screen.Name())

	// Call Init and Update outside the lock to allow SetTimeout to work
	screen.Init(m)

	// Check if we're still the current screen after Init (Init might have switched)
	m.mu.Lock()
	stillCurrent := (m.current == screen)
	m.mu.Unlock()

	if stillCurrent {
		screen.Update()
	}
}

// Current returns the current screen, or nil if none.
func (m *Manager) Current() Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// SendEvent sends an event to the current screen.
func (m *Manager) SendEvent(event Event) bool {
	m.draw.Lock()
	defer m.draw.Unlock()

	m.mu.Lock()
	current := m.current
	m.mu.Unlock()

	if current == nil {
		return false
	}
	// HandleEvent runs outside mu so it can set timers and call Goto
	return current.HandleEvent(event)
}

// Broadcast delivers an event to every registered screen, current or not.
// Used for state that screens keep while inactive, like the segment list.
func (m *Manager) Broadcast(event Event) {
	m.draw.Lock()
	defer m.draw.Unlock()

	m.mu.Lock()
	all := make([]Screen, 0, len(m.screens))
	for _, s := range m.screens {
		all = append(all, s)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.HandleEvent(event)
	}
}

// Update forces a redraw of the current screen.
func (m *Manager) Update() {
	m.draw.Lock()
	defer m.draw.Unlock()

	m.mu.Lock()
	current := m.current
	m.mu.Unlock()

	if current != nil {
		current.Update()
	}
}

// DC returns the drawing context for screens to use.
func (m *Manager) DC() *gg.Context {
	return m.dc
}

// Width returns the screen width.
func (m *Manager) Width() int {
	return m.width
}

// Height returns the screen height.
func (m *Manager) Height() int {
	return m.height
}

// Flush flushes the drawing to the framebuffer.
func (m *Manager) Flush() {
	if m.updateFn != nil {
		m.updateFn()
	}
}

// FlushRect flushes only a rectangle of the screen to the framebuffer.
// Falls back to full flush if partial update is not supported.
func (m *Manager) FlushRect(x, y, w, h int) {
	if m.updateRectFn != nil {
		m.updateRectFn(x, y, w, h)
	} else if m.updateFn != nil {
		m.updateFn()
	}
}

// FillRect fills a rectangle with a solid color.
func (m *Manager) FillRect(x, y, w, h int, r, g, b float64) {
	m.dc.SetRGB(r, g, b)
	m.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	m.dc.Fill()
}

// SetFontSize loads a font at the specified size.
func (m *Manager) SetFontSize(size int) {
	if err := m.dc.LoadFontFace(m.fontPath, float64(size)); err != nil {
		log.Debugf("Screen: failed to load font: %v", err)
	}
}

// DrawCentered draws centered text at the given y position.
func (m *Manager) DrawCentered(text string, y float64, r, g, b float64) {
	m.dc.SetRGB(r, g, b)
	m.dc.DrawStringAnchored(text, float64(m.width/2), y, 0.5, 0.5)
}

// FillBackground fills the screen with a solid color.
func (m *Manager) FillBackground(r, g, b float64) {
	m.dc.SetRGB(r, g, b)
	m.dc.DrawRectangle(0, 0, float64(m.width), float64(m.height))
	m.dc.Fill()
}

// SetMQTTConnected updates the MQTT connection state.
// This is called by the app framework and persists across screen switches.
// If the current screen is showing, it also sends an event to update the display.
func (m *Manager) SetMQTTConnected(connected bool) {
	m.draw.Lock()
	defer m.draw.Unlock()

	m.mu.Lock()
	m.mqttConnected = connected
	current := m.current
	m.mu.Unlock()

	if current != nil {
		eventType := EventMQTTDisconnected
		if connected {
			eventType = EventMQTTConnected
		}
		current.HandleEvent(Event{Type: eventType})
	}
}

// IsMQTTConnected returns the current MQTT connection state.
func (m *Manager) IsMQTTConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mqttConnected
}

// SetPrize stores the award for the prize screen.
func (m *Manager) SetPrize(p Prize) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prize = &p
}

// Prize returns the stored award, if any.
func (m *Manager) Prize() (Prize, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prize == nil {
		return Prize{}, false
	}
	return *m.prize, true
}

// ClearPrize forgets the stored award.
func (m *Manager) ClearPrize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prize = nil
}

// SetFailure stores the message for the error screen.
func (m *Manager) SetFailure(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = msg
}

// Failure returns the stored error message.
func (m *Manager) Failure() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failure
}

// SetTimeout sets a one-shot timer that calls the callback after the duration.
// The callback receives the screen that was current when the timer was set.
// Returns a TimerID that can be used to cancel the timer.
func (m *Manager) SetTimeout(d time.Duration, callback TimerCallback) TimerID {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextTimerID++
	id := m.nextTimerID
	screen := m.current

	st := &screenTimer{
		id:       id,
		screen:   screen,
		callback: callback,
	}

	// Registered before the timer can fire; AfterFunc callbacks need m.mu.
	m.timers[id] = st
	st.timer = time.AfterFunc(d, func() {
		m.draw.Lock()
		defer m.draw.Unlock()

		m.mu.Lock()
		// Check if timer still exists (wasn't cleared)
		if _, exists := m.timers[id]; !exists {
			m.mu.Unlock()
			return
		}
		delete(m.timers, id)
		m.mu.Unlock()

		// Call callback outside of mu, still holding the draw lock
		if callback != nil {
			callback(screen)
		}
	})

	return id
}

// ClearTimeout cancels a specific timer by ID.
// Returns true if the timer was found and cancelled.
func (m *Manager) ClearTimeout(id TimerID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, exists := m.timers[id]
	if !exists {
		return false
	}

	st.timer.Stop()
	delete(m.timers, id)
	return true
}

// ClearAllTimeouts cancels all timers for the current screen.
func (m *Manager) ClearAllTimeouts() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.clearTimersForScreenLocked(m.current)
	}
}

// PendingTimers returns the number of armed timers.
func (m *Manager) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// clearTimersForScreenLocked clears all timers associated with a screen.
// Must be called with m.mu held.
func (m *Manager) clearTimersForScreenLocked(screen Screen) {
	for id, st := range m.timers {
		if st.screen == screen {
			st.timer.Stop()
			delete(m.timers, id)
		}
	}
}
