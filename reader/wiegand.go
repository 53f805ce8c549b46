package reader

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

const (
	stx = 0x02
	etx = 0x03
)

// Wiegand implements TagReader for Wiegand-to-serial RFID converters that
// send the card as hex digits between STX and ETX.
type Wiegand struct {
	port serial.Port
}

// NewWiegand creates a new Wiegand reader on the specified serial port.
func NewWiegand(device string, baud int) (*Wiegand, error) {
	if baud == 0 {
		baud = 9600
	}

	mode := &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}

	_ = p.SetReadTimeout(50 * time.Millisecond)

	log.Printf("Reader: wiegand %s at %d baud", device, baud)
	w := &Wiegand{port: p}
	w.flush()
	return w, nil
}

// Read implements TagReader.Read for Wiegand readers.
func (w *Wiegand) Read(ctx context.Context) (uint64, error) {
	if w.port == nil {
		return 0, errors.New("port not initialized")
	}

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		tag, err := w.readFrame()
		if err != nil {
			if errors.Is(err, ErrBadFrame) {
				log.Debugf("Reader: %v", err)
				continue
			}
			return 0, err
		}
		if tag != 0 {
			return tag, nil
		}
		// No data, brief sleep before retry
		time.Sleep(100 * time.Millisecond)
	}
}

// readFrame attempts to read a single card frame.
func (w *Wiegand) readFrame() (uint64, error) {
	first := make([]byte, 1)
	n, err := w.port.Read(first)
	if err != nil {
		return 0, fmt.Errorf("read STX: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	if first[0] != stx {
		w.flush()
		return 0, nil
	}

	var body strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := w.port.Read(buf)
		if err != nil {
			return 0, fmt.Errorf("read body: %w", err)
		}
		if n == 0 {
			w.flush()
			return 0, nil
		}
		if buf[0] == etx {
			break
		}
		body.WriteByte(buf[0])
	}

	return decodeWiegandID(body.String())
}

// decodeWiegandID parses the hex body of a frame. The body is left padded
// to 10 digits; the card number is the last 6.
func decodeWiegandID(id string) (uint64, error) {
	if len(id) == 0 || len(id) > 10 {
		return 0, fmt.Errorf("%w: body length %d", ErrBadFrame, len(id))
	}
	id = strings.Repeat("0", 10-len(id)) + id
	cardHex := id[4:10]
	if _, err := strconv.ParseUint(id[:4], 16, 16); err != nil {
		return 0, fmt.Errorf("%w: facility %q", ErrBadFrame, id[:4])
	}
	cardInt, err := strconv.ParseUint(cardHex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: card hex %q", ErrBadFrame, cardHex)
	}
	return cardInt, nil
}

// Close implements TagReader.Close.
func (w *Wiegand) Close() error {
	if w.port == nil {
		return nil
	}
	return w.port.Close()
}

func (w *Wiegand) flush() {
	if w.port == nil {
		return
	}
	_ = w.port.SetReadTimeout(10 * time.Millisecond)
	defer func() {
		_ = w.port.SetReadTimeout(50 * time.Millisecond)
	}()

	tmp := make([]byte, 64)
	for {
		n, err := w.port.Read(tmp)
		if err != nil || n == 0 {
			return
		}
	}
}
