package reader

import (
	"context"
	"errors"
	"strconv"
)

// ErrBadFrame is returned by the frame decoders for corrupt input.
var ErrBadFrame = errors.New("reader: bad frame")

// TagReader is the interface for all tag/card reader implementations.
// Implementations should block until a tag is read or context is cancelled.
type TagReader interface {
	// Read blocks until a tag is read or context is cancelled.
	// Returns the tag ID (as uint64) or an error.
	// A return of (0, nil) indicates no tag was read (e.g., timeout).
	Read(ctx context.Context) (uint64, error)

	// Close releases any resources held by the reader.
	Close() error
}

// Config holds common configuration for reader implementations.
type Config struct {
	Type   string `yaml:"type"`   // "wiegand", "keyboard", "serial", "none"
	Device string `yaml:"device"` // e.g., "/dev/serial0", "/dev/input/event0"
	Baud   int    `yaml:"baud"`   // baud rate for serial devices
	Format string `yaml:"format"` // keyboard readers: "10h", "8d", ...
}

// New creates a TagReader based on the provided configuration. It returns
// nil when no reader is configured.
func New(cfg Config) (TagReader, error) {
	switch cfg.Type {
	case "none":
		return nil, nil
	case "wiegand":
		return NewWiegand(cfg.Device, cfg.Baud)
	case "keyboard", "10h-kbd":
		return NewKeyboard(cfg.Device, cfg.Format)
	case "serial":
		return NewSerial(cfg.Device, cfg.Baud)
	}
	if cfg.Device == "" {
		return nil, nil
	}
	// Default to serial for backwards compatibility
	return NewSerial(cfg.Device, cfg.Baud)
}

// CustomerID turns a tag number into the customer id sent to the outcome
// service.
func CustomerID(tag uint64) string {
	return strconv.FormatUint(tag, 10)
}
