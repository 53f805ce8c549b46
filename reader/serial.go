package reader

import (
	"bytes"
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

// Serial implements TagReader for serial RFID readers using a custom protocol.
// Protocol: [0x02][0x09][data...][checksum][0x03]
type Serial struct {
	port   *serial.Port
	device string
}

// NewSerial creates a new serial RFID reader.
func NewSerial(device string, baud int) (*Serial, error) {
	if baud == 0 {
		baud = 115200
	}
	c := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: time.Second,
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}

	log.Printf("Reader: serial %s at %d baud", device, baud)
	return &Serial{port: port, device: device}, nil
}

// Read implements TagReader.Read for serial readers.
func (s *Serial) Read(ctx context.Context) (uint64, error) {
	buff := make([]byte, 9)
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		n, err := s.port.Read(buff)
		if err == nil && n == len(buff) {
			tag, err := decodeSerialFrame(buff)
			if err != nil {
				log.Debugf("Reader: %v", err)
			} else {
				return tag, nil
			}
		}
		// Timeout or partial read, try again
		time.Sleep(100 * time.Millisecond)
	}
}

// decodeSerialFrame checks a 9 byte frame and returns the tag number.
func decodeSerialFrame(buff []byte) (uint64, error) {
	if len(buff) != 9 {
		return 0, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(buff))
	}
	if !bytes.Equal(buff[0:2], []byte{0x02, 0x09}) {
		return 0, fmt.Errorf("%w: bad preamble % x", ErrBadFrame, buff[0:2])
	}
	if buff[8] != 0x03 {
		return 0, fmt.Errorf("%w: bad terminator %#x", ErrBadFrame, buff[8])
	}

	data := buff[1:7]
	xor := data[0]
	for i := 1; i < len(data); i++ {
		xor ^= data[i]
	}
	if xor != buff[7] {
		return 0, fmt.Errorf("%w: checksum %#x, want %#x", ErrBadFrame, buff[7], xor)
	}

	return uint64(data[2])<<24 | uint64(data[3])<<16 | uint64(data[4])<<8 | uint64(data[5]), nil
}

// Close implements TagReader.Close.
func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
