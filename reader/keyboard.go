package reader

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kenshaw/evdev"
	log "github.com/sirupsen/logrus"
)

// Keyboard implements TagReader for USB keyboard-style RFID readers
// that output digits followed by Enter.
type Keyboard struct {
	device *evdev.Evdev
	format keyboardFormat
}

// keyboardFormat is a parsed format string like "10h".
type keyboardFormat struct {
	name      string
	numDigits int  // expected number of digits (0 = any)
	isHex     bool // true for hex input, false for decimal
}

// parseKeyboardFormat parses "10h" (10 hex digits), "10d" (10 decimal),
// "8h", ... An empty format means "10h".
func parseKeyboardFormat(format string) (keyboardFormat, error) {
	if format == "" {
		format = "10h"
	}
	format = strings.ToLower(format)

	f := keyboardFormat{name: format, isHex: true}
	digits := format
	switch {
	case strings.HasSuffix(format, "h"):
		digits = strings.TrimSuffix(format, "h")
	case strings.HasSuffix(format, "d"):
		f.isHex = false
		digits = strings.TrimSuffix(format, "d")
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return keyboardFormat{}, fmt.Errorf("parse keyboard format %q: not a digit count", format)
	}
	f.numDigits = n
	return f, nil
}

// decode parses one line typed by the reader.
func (f keyboardFormat) decode(line string) (uint64, error) {
	if f.numDigits > 0 && len(line) != f.numDigits {
		return 0, fmt.Errorf("%w: expected %d digits, got %d (%q)", ErrBadFrame, f.numDigits, len(line), line)
	}
	base := 10
	if f.isHex {
		base = 16
	}
	number, err := strconv.ParseUint(line, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: line %q (base %d): %v", ErrBadFrame, line, base, err)
	}
	return number & 0xffffffff, nil
}

// NewKeyboard creates a new keyboard reader on the specified input device.
func NewKeyboard(device string, format string) (*Keyboard, error) {
	f, err := parseKeyboardFormat(format)
	if err != nil {
		return nil, err
	}

	dev, err := evdev.OpenFile(device)
	if err != nil {
		return nil, fmt.Errorf("open evdev %s: %w", device, err)
	}

	log.Printf("Reader: keyboard device %s (vendor 0x%04x, product 0x%04x), format %s",
		dev.Name(), dev.ID().Vendor, dev.ID().Product, f.name)

	return &Keyboard{device: dev, format: f}, nil
}

// Read implements TagReader.Read for keyboard readers.
// Reads digits until Enter is pressed, then parses according to configured format.
func (k *Keyboard) Read(ctx context.Context) (uint64, error) {
	ch := k.device.Poll(ctx)
	var strbuf string

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case event := <-ch:
			if event == nil {
				return 0, fmt.Errorf("keyboard device closed")
			}

			switch event.Type.(type) {
			case evdev.KeyType:
				if event.Value != 1 {
					continue
				}

				if event.Type == evdev.KeyEnter {
					if strbuf == "" {
						continue
					}
					number, err := k.format.decode(strbuf)
					strbuf = ""
					if err != nil {
						log.Printf("Reader: bad badge: %v", err)
						continue
					}
					log.Debugf("Reader: keyboard %s badge %d", k.format.name, number)
					return number, nil
				}

				strbuf += evdev.KeyType(event.Code).String()
			}
		}
	}
}

// Close implements TagReader.Close.
func (k *Keyboard) Close() error {
	if k.device == nil {
		return nil
	}
	return k.device.Close()
}
