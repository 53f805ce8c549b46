package eventpipe

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gowheel/video/screen"
)

func TestParseLineEvents(t *testing.T) {
	tests := []struct {
		line string
		typ  screen.EventType
	}{
		{"rfid 1234", screen.EventRFID},
		{"TAG 00ff", screen.EventRFID},
		{"rotary -1", screen.EventRotaryTurn},
		{"rotary press", screen.EventRotaryPress},
		{"rotary long", screen.EventRotaryLongPress},
		{"button", screen.EventButton},
		{"cancel", screen.EventCancel},
	}
	for _, tt := range tests {
		cmd, err := parseLine(tt.line)
		require.NoError(t, err, tt.line)
		require.NotNil(t, cmd.Event, tt.line)
		assert.Equal(t, tt.typ, cmd.Event.Type, tt.line)
	}

	cmd, err := parseLine("tag 00ff")
	require.NoError(t, err)
	assert.Equal(t, uint64(255), cmd.Event.RFID().TagID)

	cmd, err = parseLine("rotary -1")
	require.NoError(t, err)
	assert.Equal(t, -1, cmd.Event.Rotary().Delta)
}

func TestParseLineSpinAndResult(t *testing.T) {
	cmd, err := parseLine("spin 555")
	require.NoError(t, err)
	require.NotNil(t, cmd.Spin)
	assert.Equal(t, "555", cmd.Spin.Customer)
	assert.Nil(t, cmd.Event)

	cmd, err = parseLine("spin")
	require.NoError(t, err)
	assert.Equal(t, "", cmd.Spin.Customer)

	cmd, err = parseLine("result 3 12.5")
	require.NoError(t, err)
	require.NotNil(t, cmd.Result)
	assert.Equal(t, 3, cmd.Result.SegmentIndex)
	assert.Equal(t, 12.5, cmd.Result.Amount)

	cmd, err = parseLine("screen prize")
	require.NoError(t, err)
	require.NotNil(t, cmd.Screen)
	assert.Equal(t, screen.ScreenPrize, *cmd.Screen)
}

func TestParseLineErrors(t *testing.T) {
	for _, line := range []string{
		"", "rfid", "rfid xyz!", "rotary", "rotary up",
		"result", "result two", "result 1 lots", "screen", "screen vending", "open",
	} {
		_, err := parseLine(line)
		assert.Error(t, err, line)
	}
}

func TestPipeDeliversCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events")
	got := make(chan Command, 4)
	ep, err := New(Config{Path: path}, func(c Command) { got <- c })
	require.NoError(t, err)
	go ep.Start()
	defer ep.Close()

	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = w.WriteString("# comment\nbogus\nresult 2\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	select {
	case c := <-got:
		require.NotNil(t, c.Result)
		assert.Equal(t, 2, c.Result.SegmentIndex)
	case <-time.After(2 * time.Second):
		t.Fatal("no command received")
	}
}

func TestNewWithoutPath(t *testing.T) {
	ep, err := New(Config{}, nil)
	assert.NoError(t, err)
	assert.Nil(t, ep)
}
