package eventpipe

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"gowheel/video/screen"
)

// Config holds configuration for the event pipe.
type Config struct {
	Path string `yaml:"path"` // Path to named pipe (e.g., "/tmp/gowheel-events")
}

// Command is one parsed pipe line. Exactly one field is set.
type Command struct {
	Event  *screen.Event    // routed like hardware input
	Spin   *SpinCommand     // ask the outcome service for a spin
	Result *ResultCommand   // play a spin locally, skipping the outcome service
	Screen *screen.ScreenID // jump to a screen
}

// SpinCommand is "spin [customer]".
type SpinCommand struct {
	Customer string
}

// ResultCommand is "result <segment> [amount]".
type ResultCommand struct {
	SegmentIndex int
	Amount       float64
}

// Handler is called when a command is received from the pipe.
type Handler func(Command)

// EventPipe listens for commands on a named pipe.
type EventPipe struct {
	path    string
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new EventPipe. Returns nil if path is empty.
func New(cfg Config, handler Handler) (*EventPipe, error) {
	if cfg.Path == "" {
		return nil, nil
	}

	// Remove existing pipe if it exists
	os.Remove(cfg.Path)

	// Create the named pipe
	if err := syscall.Mkfifo(cfg.Path, 0666); err != nil {
		return nil, fmt.Errorf("create named pipe %s: %w", cfg.Path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	ep := &EventPipe{
		path:    cfg.Path,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
	}

	return ep, nil
}

// Start begins listening for commands on the pipe.
// This should be called as a goroutine.
func (ep *EventPipe) Start() {
	log.Printf("Eventpipe: listening on %s", ep.path)

	for {
		select {
		case <-ep.ctx.Done():
			return
		default:
		}

		// Open blocks until a writer connects
		file, err := os.OpenFile(ep.path, os.O_RDONLY, 0)
		if err != nil {
			if ep.ctx.Err() != nil {
				return
			}
			log.Printf("Eventpipe: open error: %v", err)
			continue
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			select {
			case <-ep.ctx.Done():
				file.Close()
				return
			default:
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			cmd, err := parseLine(line)
			if err != nil {
				log.Printf("Eventpipe: parse error: %v", err)
				continue
			}

			if ep.handler != nil {
				ep.handler(cmd)
			}
		}

		file.Close()
		// Writer closed the pipe, loop back to wait for next writer
	}
}

// Close stops the event pipe listener and removes the pipe.
func (ep *EventPipe) Close() error {
	ep.cancel()
	return os.Remove(ep.path)
}

func eventCommand(e screen.Event) Command {
	return Command{Event: &e}
}

// parseLine parses a command line into a Command.
// Command format:
//
//	rfid <tagid>                    - Raw RFID swipe
//	tag <tagid>                     - Alias for rfid
//	rotary <delta>                  - Rotary turn (+1 or -1)
//	rotary press|long               - Rotary button press
//	button                          - Arcade spin button
//	cancel                          - Abandon the running spin
//	spin [customer]                 - Request a spin from the outcome service
//	result <segment> [amount]       - Play a spin locally
//	screen <name>                   - Switch to screen (wheel, prize, error, ...)
func parseLine(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "rfid", "tag":
		if len(parts) < 2 {
			return Command{}, fmt.Errorf("rfid requires tag ID")
		}
		tagID, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			// Try hex
			tagID, err = strconv.ParseUint(parts[1], 16, 64)
			if err != nil {
				return Command{}, fmt.Errorf("invalid tag ID: %s", parts[1])
			}
		}
		return eventCommand(screen.Event{
			Type: screen.EventRFID,
			Data: screen.RFIDData{TagID: tagID},
		}), nil

	case "rotary":
		if len(parts) < 2 {
			return Command{}, fmt.Errorf("rotary requires delta, 'press' or 'long'")
		}
		switch strings.ToLower(parts[1]) {
		case "press":
			return eventCommand(screen.Event{
				Type: screen.EventRotaryPress,
				Data: screen.RotaryData{ID: screen.RotaryMain},
			}), nil
		case "long":
			return eventCommand(screen.Event{
				Type: screen.EventRotaryLongPress,
				Data: screen.RotaryData{ID: screen.RotaryMain},
			}), nil
		}
		delta, err := strconv.Atoi(parts[1])
		if err != nil {
			return Command{}, fmt.Errorf("invalid rotary delta: %s", parts[1])
		}
		return eventCommand(screen.Event{
			Type: screen.EventRotaryTurn,
			Data: screen.RotaryData{ID: screen.RotaryMain, Delta: delta},
		}), nil

	case "button":
		return eventCommand(screen.Event{Type: screen.EventButton}), nil

	case "cancel":
		return eventCommand(screen.Event{Type: screen.EventCancel}), nil

	case "spin":
		sc := &SpinCommand{}
		if len(parts) > 1 {
			sc.Customer = parts[1]
		}
		return Command{Spin: sc}, nil

	case "result":
		if len(parts) < 2 {
			return Command{}, fmt.Errorf("result requires segment index")
		}
		idx, err := strconv.Atoi(parts[1])
		if err != nil {
			return Command{}, fmt.Errorf("invalid segment index: %s", parts[1])
		}
		rc := &ResultCommand{SegmentIndex: idx}
		if len(parts) > 2 {
			rc.Amount, err = strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return Command{}, fmt.Errorf("invalid amount: %s", parts[2])
			}
		}
		return Command{Result: rc}, nil

	case "screen":
		if len(parts) < 2 {
			return Command{}, fmt.Errorf("screen requires a name")
		}
		id, ok := screen.ParseScreenID(strings.ToLower(parts[1]))
		if !ok {
			return Command{}, fmt.Errorf("unknown screen: %s", parts[1])
		}
		return Command{Screen: &id}, nil

	default:
		return Command{}, fmt.Errorf("unknown command: %s", cmd)
	}
}
