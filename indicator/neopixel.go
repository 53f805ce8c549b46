package indicator

import (
	"fmt"
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Neopixel command strings for the external neopixel tool.
const (
	neoConnectionLost = "@2 !150000 001010"
	neoNormalIdle     = "@3 !150000 400000"
	neoSpinning       = "@4 !20000 ff8000 ffff00"
	neoBigWin         = "@1 !50000 00ff00 ffff00"
	neoNoWin          = "@1 !100000 404040"
	neoFailed         = "@2 !10000 ff"
	neoTerminated     = "@0 010101"
)

// Neopixel implements Indicator using an external neopixel tool via named pipe.
type Neopixel struct {
	mu         sync.Mutex
	pipe       io.WriteCloser
	idleString string
}

// NewNeopixel creates a new Neopixel indicator.
func NewNeopixel(pipePath string) (*Neopixel, error) {
	f, err := os.OpenFile(pipePath, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open neopixel pipe %s: %w", pipePath, err)
	}
	return newNeopixel(f), nil
}

func newNeopixel(w io.WriteCloser) *Neopixel {
	return &Neopixel{
		pipe:       w,
		idleString: neoConnectionLost, // Start with connection lost until connected
	}
}

// Idle implements Indicator.Idle.
func (n *Neopixel) Idle() {
	n.mu.Lock()
	s := n.idleString
	n.mu.Unlock()
	n.write(s)
}

// Spinning implements Indicator.Spinning.
func (n *Neopixel) Spinning() {
	n.write(neoSpinning)
}

// Awarded implements Indicator.Awarded.
func (n *Neopixel) Awarded(info *PrizeInfo) {
	if info.Won() {
		n.write(neoBigWin)
		return
	}
	n.write(neoNoWin)
}

// Failed implements Indicator.Failed.
func (n *Neopixel) Failed() {
	n.write(neoFailed)
}

// Connected implements Indicator.Connected.
func (n *Neopixel) Connected() {
	n.mu.Lock()
	n.idleString = neoNormalIdle
	n.mu.Unlock()
}

// ConnectionLost implements Indicator.ConnectionLost.
func (n *Neopixel) ConnectionLost() {
	n.mu.Lock()
	n.idleString = neoConnectionLost
	n.mu.Unlock()
	n.write(neoConnectionLost)
}

// Shutdown implements Indicator.Shutdown.
func (n *Neopixel) Shutdown() {
	n.write(neoTerminated)
}

// Release implements Indicator.Release.
func (n *Neopixel) Release() error {
	if n.pipe == nil {
		return nil
	}
	return n.pipe.Close()
}

func (n *Neopixel) write(s string) {
	if n.pipe == nil {
		return
	}
	if _, err := n.pipe.Write([]byte(s)); err != nil {
		log.Debugf("Indicator: neopixel write: %v", err)
	}
}
