package main

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = base64.StdEncoding.EncodeToString([]byte("prize-wheel-secret"))

func signedRequest(t *testing.T, customer string, ts time.Time, useBase64 bool) RemoteSpinRequest {
	t.Helper()
	sigHex, sigB64, err := signRemoteSpin(testSecret, customer, uint64(ts.Unix()))
	require.NoError(t, err)
	sig := sigHex
	if useBase64 {
		sig = sigB64
	}
	return RemoteSpinRequest{Customer: customer, Timestamp: uint64(ts.Unix()), Signature: sig}
}

func TestVerifyRemoteSpin(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)

	assert.NoError(t, verifyRemoteSpin(testSecret, signedRequest(t, "4711", now, false), now))
	assert.NoError(t, verifyRemoteSpin(testSecret, signedRequest(t, "4711", now, true), now))
	assert.NoError(t, verifyRemoteSpin(testSecret, signedRequest(t, "4711", now.Add(-4*time.Minute), false), now))

	req := signedRequest(t, "4711", now, false)
	req.Customer = "4712"
	assert.ErrorIs(t, verifyRemoteSpin(testSecret, req, now), ErrBadSignature)

	req = signedRequest(t, "4711", now, false)
	req.Signature = "not a signature"
	assert.ErrorIs(t, verifyRemoteSpin(testSecret, req, now), ErrBadSignature)

	assert.ErrorIs(t, verifyRemoteSpin(testSecret, signedRequest(t, "4711", now.Add(-6*time.Minute), false), now), ErrStaleRequest)
	assert.ErrorIs(t, verifyRemoteSpin(testSecret, signedRequest(t, "4711", now.Add(6*time.Minute), false), now), ErrStaleRequest)

	assert.ErrorIs(t, verifyRemoteSpin("", req, now), ErrRemoteSpinDisabled)
}

func TestSignRemoteSpinRejectsBadSecret(t *testing.T) {
	_, _, err := signRemoteSpin("%%%", "4711", 1)
	assert.Error(t, err)
	_, _, err = signRemoteSpin("", "4711", 1)
	assert.Error(t, err)
}

func TestHandleRemoteSpin(t *testing.T) {
	app, pub, svc := newTestApp(t, false)
	app.cfg.RemoteSpinSecret = testSecret
	now := time.Now()

	payload, err := json.Marshal(signedRequest(t, "4711", now, true))
	require.NoError(t, err)
	require.True(t, app.handleRemoteSpin(payload, now))

	st := pub.waitFor(t, "won")
	assert.Equal(t, "remote", st.Source)
	assert.Equal(t, "4711", st.Customer)
	assert.Equal(t, "4711", svc.lastRequest().Customer)

	bad := signedRequest(t, "4711", now, true)
	bad.Customer = "9999"
	payload, err = json.Marshal(bad)
	require.NoError(t, err)
	assert.False(t, app.handleRemoteSpin(payload, now))

	assert.False(t, app.handleRemoteSpin([]byte("{"), now))
}
