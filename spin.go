package main

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"gowheel/campaign"
	"gowheel/eventpipe"
	"gowheel/indicator"
	"gowheel/metrics"
	"gowheel/outcome"
	"gowheel/reader"
	"gowheel/video/screen"
	"gowheel/video/screen/screens"
	"gowheel/voucher"
	"gowheel/wheel"
)

// How long the indicator shows a result when no screen takes it back to idle.
const (
	failedHold  = 3 * time.Second
	awardedHold = 5 * time.Second
)

type spinService interface {
	Spin(ctx context.Context, req outcome.Request) (outcome.Result, error)
}

type statusPublisher interface {
	PublishJSON(topic string, v any) error
}

// SpinStatus is published on the spin status topic after every spin.
type SpinStatus struct {
	Status       string     `json:"status"` // "won", "failed" or "cancelled"
	Source       string     `json:"source"`
	Customer     string     `json:"customer,omitempty"`
	Campaign     int64      `json:"campaign_version"`
	SegmentIndex int        `json:"segment_index"`
	Label        string     `json:"label,omitempty"`
	Amount       float64    `json:"amount"`
	Barcode      string     `json:"barcode,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// attachScreens hooks the spin lifecycle into the wheel and prize screens.
func (app *App) attachScreens(mgr *screen.Manager, set *screens.Set) {
	app.mgr = mgr
	app.screens = set
	set.Wheel.SetHandlers(screens.WheelHandlers{
		OnComplete: func(data screen.SpinData) {
			app.awarding.Store(true)
			app.onSpinComplete(data)
		},
		OnAbandon:      app.onSpinAbandon,
		OnPrizeSkipped: app.onPrizeSkipped,
		OnError:        app.onSpinError,
	})
	set.Prize.SetDismissHandler(func(screen.Prize) {
		app.indicator.Idle()
		app.releaseAward()
	})
	set.Wheel.SetSegments(app.campaign.Snapshot().Segments)
}

// triggerSpin is the single entry point for every spin source. It returns
// false when a spin is already in progress.
func (app *App) triggerSpin(source, customer string) bool {
	snap, ok := app.beginSpin(source)
	if !ok {
		return false
	}

	log.WithFields(log.Fields{
		"source":   source,
		"customer": customer,
		"campaign": snap.Version,
		"segments": len(snap.Segments),
	}).Info("Spin: requested")

	if app.mgr != nil {
		app.mgr.SendEvent(screen.Event{Type: screen.EventSpinRequested})
	}
	go app.requestOutcome(source, customer, snap)
	return true
}

// beginSpin takes the spin gate and shows the wheel.
func (app *App) beginSpin(source string) (campaign.Snapshot, bool) {
	if !app.busy.CompareAndSwap(false, true) {
		log.Debugf("Spin: %s trigger dropped, spin in progress", source)
		metrics.SpinRejected("busy")
		return campaign.Snapshot{}, false
	}
	metrics.SpinRequested(source)
	app.indicator.Spinning()

	if app.mgr != nil && app.mgr.Current() != screen.Screen(app.screens.Wheel) {
		app.mgr.SwitchTo(screen.ScreenWheel)
	}
	return app.campaign.Snapshot(), true
}

func (app *App) requestOutcome(source, customer string, snap campaign.Snapshot) {
	data := screen.SpinData{Campaign: snap, Customer: customer, Source: source}
	if len(snap.Segments) == 0 {
		app.spinFailed(data, wheel.ErrNoSegments)
		return
	}

	start := time.Now()
	res, err := app.outcome.Spin(app.ctx, outcome.Request{
		KioskID:         app.cfg.ClientID,
		Customer:        customer,
		Source:          source,
		CampaignVersion: snap.Version,
	})
	metrics.RecordOutcome(time.Since(start), err == nil)
	if err != nil {
		app.spinFailed(data, err)
		return
	}

	data.Result = res
	app.playSpin(data)
}

// playSpin hands a decided spin to the wheel. Without a display the spin
// completes at once.
func (app *App) playSpin(data screen.SpinData) {
	if app.mgr == nil {
		if _, err := wheel.Resolve(data.Result.SegmentIndex, len(data.Campaign.Segments)); err != nil {
			app.onSpinError(data, err)
			return
		}
		app.onSpinComplete(data)
		app.idleAfter(awardedHold)
		app.finishSpin()
		return
	}

	if !app.mgr.SendEvent(screen.Event{Type: screen.EventSpinResult, Data: data}) {
		log.Printf("Spin: result for segment %d not shown, wheel not active", data.Result.SegmentIndex)
		app.onSpinAbandon(data)
	}
}

// spinFailed reports a spin that never reached the wheel.
func (app *App) spinFailed(data screen.SpinData, err error) {
	if app.mgr != nil {
		app.mgr.SendEvent(screen.Event{
			Type: screen.EventSpinFailed,
			Data: screen.FailureData{Err: err, Message: screens.FailureMessage(err)},
		})
	}
	app.onSpinError(data, err)
}

func (app *App) onSpinError(data screen.SpinData, err error) {
	kind := errorKind(err)
	metrics.SpinError(kind)
	log.WithFields(log.Fields{
		"source":   data.Source,
		"customer": data.Customer,
		"kind":     kind,
	}).Warnf("Spin: failed: %v", err)

	status := app.spinStatus("failed", data)
	status.Error = err.Error()
	app.publishStatus(status)

	app.indicator.Failed()
	app.idleAfter(failedHold)
	app.finishSpin()
}

// onSpinAbandon may run from a screen's Exit with the manager locked, so it
// must not call into the manager.
func (app *App) onSpinAbandon(data screen.SpinData) {
	metrics.SpinCancelled()
	log.WithFields(log.Fields{
		"source":   data.Source,
		"customer": data.Customer,
		"segment":  data.Result.SegmentIndex,
	}).Warn("Spin: abandoned")

	app.publishStatus(app.spinStatus("cancelled", data))
	app.indicator.Idle()
	app.finishSpin()
}

func (app *App) onSpinComplete(data screen.SpinData) {
	status := app.spinStatus("won", data)
	metrics.SpinCompleted(data.Result.Amount)
	log.WithFields(log.Fields{
		"source":   data.Source,
		"customer": data.Customer,
		"segment":  data.Result.SegmentIndex,
		"label":    status.Label,
		"amount":   data.Result.Amount,
	}).Info("Spin: complete")

	app.indicator.Awarded(&indicator.PrizeInfo{Label: status.Label, Amount: data.Result.Amount})
	go app.fulfil(data, status)
}

// fulfil publishes the result and hands out the prize.
func (app *App) fulfil(data screen.SpinData, status SpinStatus) {
	app.publishStatus(status)

	err := app.printer.Print(voucher.Voucher{
		Label:     status.Label,
		Amount:    data.Result.Amount,
		Barcode:   data.Result.Barcode,
		Customer:  data.Customer,
		ExpiresAt: data.Result.ExpiresAt,
	})
	if err != nil {
		log.Printf("Voucher: %v", err)
	}

	if n := app.cfg.Dispenser.Tickets(data.Result.Amount); n > 0 {
		log.Printf("Dispenser: %d tickets for %s", n, status.Label)
		if err := app.dispenser.Dispense(n); err != nil {
			log.Printf("Dispenser: %v", err)
		}
	}
}

func (app *App) spinStatus(state string, data screen.SpinData) SpinStatus {
	s := SpinStatus{
		Status:       state,
		Source:       data.Source,
		Customer:     data.Customer,
		Campaign:     data.Campaign.Version,
		SegmentIndex: data.Result.SegmentIndex,
		Amount:       data.Result.Amount,
		Barcode:      data.Result.Barcode,
	}
	if i := data.Result.SegmentIndex; i >= 0 && i < len(data.Campaign.Segments) {
		s.Label = data.Campaign.Segments[i].Label
	}
	if !data.Result.ExpiresAt.IsZero() {
		exp := data.Result.ExpiresAt
		s.ExpiresAt = &exp
	}
	return s
}

func (app *App) publishStatus(s SpinStatus) {
	if app.status == nil {
		return
	}
	if err := app.status.PublishJSON(app.topics.SpinStatus(), s); err != nil {
		log.Printf("MQTT: %v", err)
	}
}

func (app *App) finishSpin() {
	app.busy.Store(false)
}

// onPrizeSkipped runs from the wheel's Exit when the screen changed before
// the prize came up. The prize is already paid out; only the gate is left.
func (app *App) onPrizeSkipped(data screen.SpinData) {
	log.WithFields(log.Fields{
		"source":   data.Source,
		"customer": data.Customer,
		"segment":  data.Result.SegmentIndex,
	}).Info("Spin: prize screen skipped")
	app.idleAfter(awardedHold)
	app.releaseAward()
}

// releaseAward opens the gate held by a landed spin. Only the first caller
// for each win gets through, so a prize screen brought up later by hand
// cannot release a newer spin.
func (app *App) releaseAward() {
	if app.awarding.CompareAndSwap(true, false) {
		app.finishSpin()
	}
}

// idleAfter returns the indicator to idle unless another spin started.
func (app *App) idleAfter(d time.Duration) {
	time.AfterFunc(d, func() {
		if !app.busy.Load() {
			app.indicator.Idle()
		}
	})
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, outcome.ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, outcome.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, outcome.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, wheel.ErrNoSegments),
		errors.Is(err, wheel.ErrSegmentOutOfRange),
		errors.Is(err, wheel.ErrInvalidFullSpins):
		return "wheel"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "outcome"
}

// routeInput gives the current screen the first look at an input event.
// Unhandled card reads start a spin; button and rotary presses do too when
// anonymous spins are allowed.
func (app *App) routeInput(evt screen.Event, source string) {
	if app.mgr != nil && app.mgr.SendEvent(evt) {
		return
	}

	switch evt.Type {
	case screen.EventRFID:
		if data := evt.RFID(); data != nil {
			app.triggerSpin(source, reader.CustomerID(data.TagID))
		}

	case screen.EventButton, screen.EventRotaryPress:
		if !app.cfg.AllowAnonymous {
			log.Debugf("Spin: anonymous %s press ignored", source)
			metrics.SpinRejected("anonymous")
			return
		}
		app.triggerSpin(source, "")

	case screen.EventRotaryLongPress:
		// Operator abort.
		if app.mgr != nil {
			app.mgr.SendEvent(screen.Event{Type: screen.EventCancel})
		}
	}
}

// playLocal runs a spin with a result given on the event pipe, without
// asking the outcome service.
func (app *App) playLocal(cmd eventpipe.ResultCommand) bool {
	snap, ok := app.beginSpin("pipe")
	if !ok {
		return false
	}
	log.Printf("Spin: local result, segment %d", cmd.SegmentIndex)
	app.playSpin(screen.SpinData{
		Result:   outcome.Result{SegmentIndex: cmd.SegmentIndex, Amount: cmd.Amount},
		Campaign: snap,
		Source:   "pipe",
	})
	return true
}

func (app *App) handlePipe(cmd eventpipe.Command) {
	switch {
	case cmd.Event != nil:
		app.routeInput(*cmd.Event, "pipe")
	case cmd.Spin != nil:
		app.triggerSpin("pipe", cmd.Spin.Customer)
	case cmd.Result != nil:
		app.playLocal(*cmd.Result)
	case cmd.Screen != nil:
		if app.mgr == nil {
			log.Printf("Eventpipe: no display")
			return
		}
		app.mgr.SwitchTo(*cmd.Screen)
	}
}
