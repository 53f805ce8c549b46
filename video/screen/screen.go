package screen

import (
	"gowheel/campaign"
	"gowheel/outcome"
)

// Event types that screens can receive
type EventType int

const (
	EventRFID             EventType = iota // Customer card read
	EventRotaryTurn                        // Rotary encoder turned
	EventRotaryPress                       // Rotary button pressed
	EventRotaryLongPress                   // Rotary button held for >1s
	EventButton                            // Arcade spin button pressed
	EventMQTTConnected                     // MQTT broker connected/reconnected
	EventMQTTDisconnected                  // MQTT broker disconnected
	EventSpinRequested                     // Spin accepted, waiting for the outcome service
	EventSpinResult                        // Outcome received, start the animation
	EventSpinFailed                        // Outcome request failed
	EventCampaignUpdated                   // Segment list reloaded
	EventCancel                            // Abandon whatever the screen is doing
)

// RotaryID identifies a specific rotary encoder
type RotaryID int

const (
	RotaryMain RotaryID = iota // Main/default rotary encoder
	RotaryAux                  // Auxiliary rotary encoder
)

// Event is the base event structure. Type-specific data is in the Data field.
type Event struct {
	Type EventType
	Data any // Type-specific event data (RFIDData, SpinData, FailureData, ...)
}

// RFIDData contains data for EventRFID.
type RFIDData struct {
	TagID uint64
}

// RotaryData contains data for rotary encoder events.
type RotaryData struct {
	ID    RotaryID // Which rotary encoder
	Delta int      // +1 for CW, -1 for CCW (for turn events)
}

// SpinData contains data for EventSpinResult. Campaign is the segment list
// captured when the spin was requested; the animation must use it even if
// the campaign has been reloaded since.
type SpinData struct {
	Result   outcome.Result
	Campaign campaign.Snapshot
	Customer string
	Source   string
}

// FailureData contains data for EventSpinFailed.
type FailureData struct {
	Err     error
	Message string // short text for the customer
}

// CampaignData contains data for EventCampaignUpdated.
type CampaignData struct {
	Campaign campaign.Snapshot
}

// RFID returns the RFIDData from the event, or nil if not an RFID event.
func (e Event) RFID() *RFIDData {
	if data, ok := e.Data.(RFIDData); ok {
		return &data
	}
	return nil
}

// Rotary returns the RotaryData from the event, or nil if not a rotary event.
func (e Event) Rotary() *RotaryData {
	if data, ok := e.Data.(RotaryData); ok {
		return &data
	}
	return nil
}

// Spin returns the SpinData from the event, or nil.
func (e Event) Spin() *SpinData {
	if data, ok := e.Data.(SpinData); ok {
		return &data
	}
	return nil
}

// Failure returns the FailureData from the event, or nil.
func (e Event) Failure() *FailureData {
	if data, ok := e.Data.(FailureData); ok {
		return &data
	}
	return nil
}

// Campaign returns the CampaignData from the event, or nil.
func (e Event) Campaign() *CampaignData {
	if data, ok := e.Data.(CampaignData); ok {
		return &data
	}
	return nil
}

// Screen is the interface that all screens must implement.
type Screen interface {
	// Init is called when entering this screen.
	// The manager is provided so screens can switch to other screens.
	Init(mgr *Manager)

	// Update redraws the screen. Called after Init and whenever
	// the screen needs to refresh its display.
	Update()

	// HandleEvent processes an input event.
	// Returns true if the event was handled.
	HandleEvent(event Event) bool

	// Exit is called when leaving this screen.
	// Use for cleanup of screen-specific resources.
	Exit()

	// Name returns the screen name for debugging/logging.
	Name() string
}

// ScreenID identifies a screen type.
type ScreenID int

const (
	ScreenWheel ScreenID = iota
	ScreenPrize
	ScreenSpinError
	ScreenConnectionLost
	ScreenShutdown
)

// ParseScreenID maps a screen name, as used on the event pipe, to its ID.
func ParseScreenID(name string) (ScreenID, bool) {
	switch name {
	case "wheel", "idle":
		return ScreenWheel, true
	case "prize":
		return ScreenPrize, true
	case "error":
		return ScreenSpinError, true
	case "connection_lost", "offline":
		return ScreenConnectionLost, true
	case "shutdown":
		return ScreenShutdown, true
	}
	return 0, false
}
