package main

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"gowheel/button"
	"gowheel/campaign"
	"gowheel/dispenser"
	"gowheel/eventpipe"
	"gowheel/indicator"
	"gowheel/metrics"
	"gowheel/mqtt"
	"gowheel/outcome"
	"gowheel/reader"
	"gowheel/rotary"
	"gowheel/video"
	"gowheel/video/screen/screens"
	"gowheel/voucher"
	"gowheel/wheel"
)

// ErrNoClientID is returned for a config file without client_id.
var ErrNoClientID = errors.New("client_id missing in config file")

// Config is the main configuration structure for the kiosk.
type Config struct {
	// MQTT connection settings
	MQTT mqtt.Config `yaml:"mqtt"`

	// Campaign segment list source
	Campaign campaign.Config `yaml:"campaign"`

	// Outcome service
	Outcome outcome.Config `yaml:"outcome"`

	// Input devices
	Reader    reader.Config    `yaml:"reader"`
	Rotary    rotary.Config    `yaml:"rotary"`
	Button    button.Config    `yaml:"button"`
	EventPipe eventpipe.Config `yaml:"event_pipe"`

	// Prize fulfilment
	Dispenser dispenser.Config `yaml:"dispenser"`
	Voucher   voucher.Config   `yaml:"voucher"`
	Indicator indicator.Config `yaml:"indicator"`

	// Display
	Video   video.Config   `yaml:"video"`
	Screens screens.Config `yaml:"screens"`
	Spin    wheel.Config   `yaml:"spin"`

	Metrics metrics.Config `yaml:"metrics"`

	// General settings
	ClientID         string `yaml:"client_id"`
	VideoEnabled     bool   `yaml:"video_enabled"`
	AllowAnonymous   bool   `yaml:"allow_anonymous"`    // button and rotary may start spins without a card
	RemoteSpinSecret string `yaml:"remote_spin_secret"` // base64 HMAC key, empty disables remote spins
	LogLevel         string `yaml:"log_level"`          // default "info"
	PingSchedule     string `yaml:"ping_schedule"`      // default "@every 2m"
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.PingSchedule == "" {
		c.PingSchedule = "@every 2m"
	}
	if c.Campaign.Refresh == "" {
		c.Campaign.Refresh = "@every 15m"
	}
	if c.MQTT.TopicRoot == "" {
		c.MQTT.TopicRoot = "arcade"
	}
	c.Spin = c.Spin.WithDefaults()
}

// loadConfig reads and validates the YAML config file.
func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.ClientID == "" {
		return nil, ErrNoClientID
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// setupLogging configures logrus from the config.
func setupLogging(level string) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	log.SetLevel(lvl)
	return nil
}
