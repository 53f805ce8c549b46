package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"gowheel/metrics"
)

// remoteSpinWindow is how far a remote spin timestamp may be from now.
const remoteSpinWindow = 5 * time.Minute

var (
	// ErrRemoteSpinDisabled is returned when no remote spin secret is set.
	ErrRemoteSpinDisabled = errors.New("remote spin disabled")

	// ErrBadSignature is returned when a remote spin signature does not match.
	ErrBadSignature = errors.New("signature verification failed")

	// ErrStaleRequest is returned when a remote spin timestamp is out of range.
	ErrStaleRequest = errors.New("remote spin timestamp out of range")
)

// RemoteSpinRequest starts a spin from the back office.
type RemoteSpinRequest struct {
	Customer  string `json:"customer"`
	Timestamp uint64 `json:"timestamp"`
	Signature string `json:"signature"`
}

// signRemoteSpin returns the HMAC-SHA256 of customer and the big endian
// timestamp, hex and base64 encoded.
func signRemoteSpin(base64Secret, customer string, ts uint64) (string, string, error) {
	secret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return "", "", fmt.Errorf("invalid base64 secret: %w", err)
	}
	if len(secret) == 0 {
		return "", "", fmt.Errorf("secret cannot be empty")
	}

	msg := make([]byte, 0, len(customer)+8)
	msg = append(msg, []byte(customer)...)

	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], ts)
	msg = append(msg, tsBuf[:]...)

	mac := hmac.New(sha256.New, secret)
	mac.Write(msg)
	sum := mac.Sum(nil)

	return hex.EncodeToString(sum), base64.StdEncoding.EncodeToString(sum), nil
}

// verifyRemoteSpin checks the signature, accepting hex or base64, and the
// timestamp window.
func verifyRemoteSpin(base64Secret string, req RemoteSpinRequest, now time.Time) error {
	if base64Secret == "" {
		return ErrRemoteSpinDisabled
	}
	sigHex, sigBase64, err := signRemoteSpin(base64Secret, req.Customer, req.Timestamp)
	if err != nil {
		return err
	}

	matched := false
	if decoded, err := hex.DecodeString(req.Signature); err == nil {
		expected, _ := hex.DecodeString(sigHex)
		matched = subtle.ConstantTimeCompare(decoded, expected) == 1
	}
	if !matched {
		if decoded, err := base64.StdEncoding.DecodeString(req.Signature); err == nil {
			expected, _ := base64.StdEncoding.DecodeString(sigBase64)
			matched = subtle.ConstantTimeCompare(decoded, expected) == 1
		}
	}
	if !matched {
		return ErrBadSignature
	}

	ts := time.Unix(int64(req.Timestamp), 0)
	if now.Before(ts.Add(-remoteSpinWindow)) || now.After(ts.Add(remoteSpinWindow)) {
		return ErrStaleRequest
	}
	return nil
}

func (app *App) onMQTTConnect() {
	topics := app.mqtt.Topics()
	for _, topic := range []string{topics.CampaignUpdate(), topics.RemoteSpin()} {
		if err := app.mqtt.Subscribe(topic); err != nil {
			log.Printf("MQTT: subscribe error: %v", err)
		}
	}

	app.indicator.Connected()
	if !app.busy.Load() {
		app.indicator.Idle()
	}
	if app.mgr != nil {
		app.mgr.SetMQTTConnected(true)
	}
}

func (app *App) onMQTTDisconnect() {
	app.indicator.ConnectionLost()
	if app.mgr != nil {
		app.mgr.SetMQTTConnected(false)
	}
}

func (app *App) onMQTTMessage(topic string, payload []byte) {
	topics := app.mqtt.Topics()
	switch topic {
	case topics.CampaignUpdate():
		log.Println("MQTT: campaign update requested")
		go app.refreshCampaign("mqtt")

	case topics.RemoteSpin():
		app.handleRemoteSpin(payload, time.Now())

	default:
		log.Debugf("MQTT: ignoring message on %s", topic)
	}
}

func (app *App) handleRemoteSpin(payload []byte, now time.Time) bool {
	var req RemoteSpinRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("Remote: decode spin request: %v", err)
		metrics.SpinRejected("signature")
		return false
	}

	if err := verifyRemoteSpin(app.cfg.RemoteSpinSecret, req, now); err != nil {
		log.Printf("Remote: spin for %q refused: %v", req.Customer, err)
		metrics.SpinRejected("signature")
		return false
	}

	log.Printf("Remote: spin request for %q", req.Customer)
	return app.triggerSpin("remote", req.Customer)
}
