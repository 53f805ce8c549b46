package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gowheel.cfg")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
client_id: kiosk-7
allow_anonymous: true
remote_spin_secret: c2VjcmV0
mqtt:
  host: broker.local
  port: 8883
campaign:
  url: https://api.example.com
  cache_file: /var/lib/gowheel/campaign.yaml
outcome:
  url: https://api.example.com
  timeout: 4s
spin:
  duration: 3s
  min_spins: 2
  max_spins: 3
screens:
  prize_timeout: 30s
dispenser:
  type: servo
  pin: 18
  tickets_per_unit: 2
reader:
  type: keyboard
  device: /dev/input/event0
  format: 10h
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "kiosk-7", cfg.ClientID)
	assert.True(t, cfg.AllowAnonymous)
	assert.Equal(t, "broker.local", cfg.MQTT.Host)
	assert.Equal(t, "arcade", cfg.MQTT.TopicRoot)
	assert.Equal(t, 4*time.Second, cfg.Outcome.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Spin.Duration)
	assert.Equal(t, 2, cfg.Spin.MinSpins)
	assert.Equal(t, 30, cfg.Spin.FrameRate)
	assert.Equal(t, 30*time.Second, cfg.Screens.PrizeTimeout)
	require.NotNil(t, cfg.Dispenser.Pin)
	assert.Equal(t, 18, *cfg.Dispenser.Pin)
	assert.Equal(t, "10h", cfg.Reader.Format)

	// defaults
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "@every 2m", cfg.PingSchedule)
	assert.Equal(t, "@every 15m", cfg.Campaign.Refresh)
}

func TestLoadConfigRequiresClientID(t *testing.T) {
	_, err := loadConfig(writeConfig(t, "mqtt:\n  host: x\n"))
	assert.ErrorIs(t, err, ErrNoClientID)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.cfg"))
	assert.Error(t, err)

	_, err = loadConfig(writeConfig(t, "client_id: [unterminated\n"))
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	require.NoError(t, setupLogging("debug"))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.Error(t, setupLogging("chatty"))
}
