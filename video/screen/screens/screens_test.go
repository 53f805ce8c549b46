package screens

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gowheel/campaign"
	"gowheel/outcome"
	"gowheel/video/screen"
	"gowheel/wheel"
)

var testColors = []string{"#ff0000", "#00ff00", "#0000ff", "#ffff00", "#ff00ff", "#00ffff"}

func testSegments(n int) []wheel.Segment {
	segs := make([]wheel.Segment, n)
	for i := range segs {
		segs[i] = wheel.Segment{
			Order: i,
			Label: string(rune('A' + i)),
			Color: testColors[i%len(testColors)],
		}
	}
	return segs
}

func spinData(segs []wheel.Segment, index int) screen.SpinData {
	return screen.SpinData{
		Result:   outcome.Result{SegmentIndex: index, Amount: 5},
		Campaign: campaign.Snapshot{Name: "test", Version: 1, Segments: segs},
		Source:   "button",
	}
}

func fastSpin() wheel.Config {
	return wheel.Config{Duration: 60 * time.Millisecond, MinSpins: 2, MaxSpins: 2, FrameRate: 100}
}

func slowSpin() wheel.Config {
	return wheel.Config{Duration: time.Hour, MinSpins: 5, MaxSpins: 5, FrameRate: 50}
}

func newTestScreens(t *testing.T, cfg Config, spin wheel.Config) (*screen.Manager, *Set, *gg.Context) {
	t.Helper()
	dc := gg.NewContext(320, 240)
	mgr := screen.NewManager(dc, 320, 240, nil)
	set, err := Register(mgr, cfg, spin)
	require.NoError(t, err)
	return mgr, set, dc
}

func TestWheelLandsOnResult(t *testing.T) {
	mgr, set, dc := newTestScreens(t, Config{SettleDelay: time.Hour}, fastSpin())
	segs := testSegments(6)
	set.Wheel.SetSegments(segs)

	done := make(chan screen.SpinData, 2)
	set.Wheel.SetHandlers(WheelHandlers{
		OnComplete: func(d screen.SpinData) { done <- d },
	})
	mgr.SwitchTo(screen.ScreenWheel)

	require.True(t, mgr.SendEvent(screen.Event{Type: screen.EventSpinResult, Data: spinData(segs, 3)}))
	assert.True(t, set.Wheel.Spinning())

	select {
	case d := <-done:
		assert.Equal(t, 3, d.Result.SegmentIndex)
	case <-time.After(2 * time.Second):
		t.Fatal("spin did not complete")
	}

	assert.False(t, set.Wheel.Spinning())
	idx, err := wheel.SegmentAt(set.Wheel.Rotation(), len(segs))
	require.NoError(t, err)
	assert.Equal(t, 3, idx)

	// The wedge under the pointer has the winning color.
	g := newWheelGeometry(320, 240)
	assert.Equal(t, color.RGBA{255, 255, 0, 255}, dc.Image().At(int(g.cx), int(g.cy-0.75*g.r)))

	p, ok := mgr.Prize()
	require.True(t, ok)
	assert.Equal(t, "D", p.Label)

	select {
	case <-done:
		t.Fatal("completion reported twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWheelCarriesRotationAcrossSpins(t *testing.T) {
	mgr, set, _ := newTestScreens(t, Config{SettleDelay: time.Hour}, fastSpin())
	segs := testSegments(5)

	done := make(chan screen.SpinData, 1)
	set.Wheel.SetHandlers(WheelHandlers{OnComplete: func(d screen.SpinData) { done <- d }})
	mgr.SwitchTo(screen.ScreenWheel)

	for _, want := range []int{1, 4, 0} {
		mgr.SendEvent(screen.Event{Type: screen.EventSpinResult, Data: spinData(segs, want)})
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("spin to %d did not complete", want)
		}
		idx, err := wheel.SegmentAt(set.Wheel.Rotation(), len(segs))
		require.NoError(t, err)
		assert.Equal(t, want, idx)
	}
}

func TestWheelSwitchesToPrizeAndBack(t *testing.T) {
	mgr, set, _ := newTestScreens(t, Config{SettleDelay: 10 * time.Millisecond}, fastSpin())
	segs := testSegments(4)
	dismissed := make(chan screen.Prize, 1)
	set.Prize.SetDismissHandler(func(p screen.Prize) { dismissed <- p })
	mgr.SwitchTo(screen.ScreenWheel)

	mgr.SendEvent(screen.Event{Type: screen.EventSpinResult, Data: spinData(segs, 2)})
	require.Eventually(t, func() bool { return mgr.Current() == set.Prize }, 2*time.Second, 5*time.Millisecond)

	require.True(t, mgr.SendEvent(screen.Event{Type: screen.EventButton}))
	p := <-dismissed
	assert.Equal(t, "C", p.Label)
	assert.Same(t, set.Wheel, mgr.Current())
	_, ok := mgr.Prize()
	assert.False(t, ok)
}

func TestWheelLeftWhileSettling(t *testing.T) {
	mgr, set, _ := newTestScreens(t, Config{SettleDelay: time.Hour}, fastSpin())
	segs := testSegments(4)

	done := make(chan screen.SpinData, 1)
	skipped := make(chan screen.SpinData, 2)
	set.Wheel.SetHandlers(WheelHandlers{
		OnComplete:     func(d screen.SpinData) { done <- d },
		OnAbandon:      func(screen.SpinData) { t.Error("a landed spin is not abandoned") },
		OnPrizeSkipped: func(d screen.SpinData) { skipped <- d },
	})
	mgr.SwitchTo(screen.ScreenWheel)

	mgr.SendEvent(screen.Event{Type: screen.EventSpinResult, Data: spinData(segs, 1)})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("spin did not complete")
	}
	require.True(t, set.Wheel.Settling())

	// No new spin while the prize is pending.
	assert.False(t, mgr.SendEvent(screen.Event{Type: screen.EventSpinRequested}))
	mgr.SendEvent(screen.Event{Type: screen.EventSpinResult, Data: spinData(segs, 2)})
	assert.False(t, set.Wheel.Spinning())

	mgr.SwitchTo(screen.ScreenShutdown)
	select {
	case d := <-skipped:
		assert.Equal(t, 1, d.Result.SegmentIndex)
	case <-time.After(time.Second):
		t.Fatal("skipped prize not reported")
	}
	assert.False(t, set.Wheel.Settling())

	// Coming back and leaving again reports nothing.
	mgr.SwitchTo(screen.ScreenWheel)
	mgr.SwitchTo(screen.ScreenShutdown)
	assert.Empty(t, skipped)
}

func TestWheelSettledPrizeIsNotSkipped(t *testing.T) {
	mgr, set, _ := newTestScreens(t, Config{SettleDelay: 10 * time.Millisecond, PrizeTimeout: time.Hour}, fastSpin())
	segs := testSegments(4)
	set.Wheel.SetHandlers(WheelHandlers{
		OnPrizeSkipped: func(screen.SpinData) { t.Error("prize was shown") },
	})
	mgr.SwitchTo(screen.ScreenWheel)

	mgr.SendEvent(screen.Event{Type: screen.EventSpinResult, Data: spinData(segs, 0)})
	require.Eventually(t, func() bool { return mgr.Current() == set.Prize }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, set.Wheel.Settling())
}

func TestWheelDrawsOneAtATime(t *testing.T) {
	mgr, set, _ := newTestScreens(t, Config{}, wheel.Config{Duration: time.Hour, MinSpins: 5, MaxSpins: 5, FrameRate: 200})
	segs := testSegments(6)
	set.Wheel.SetSegments(segs)
	mgr.SwitchTo(screen.ScreenWheel)

	mgr.SendEvent(screen.Event{Type: screen.EventSpinResult, Data: spinData(segs, 2)})

	// Frame timers keep drawing while other goroutines poke the screen.
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				mgr.SetMQTTConnected((i+g)%2 == 0)
				mgr.Update()
				mgr.Broadcast(screen.Event{
					Type: screen.EventCampaignUpdated,
					Data: screen.CampaignData{Campaign: campaign.Snapshot{Version: int64(i), Segments: segs}},
				})
				time.Sleep(time.Millisecond)
			}
		}(g)
	}
	wg.Wait()

	assert.True(t, set.Wheel.Spinning())
	require.True(t, mgr.SendEvent(screen.Event{Type: screen.EventCancel}))
	assert.Eventually(t, func() bool { return mgr.PendingTimers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestWheelIgnoresResultWhileSpinning(t *testing.T) {
	mgr, set, _ := newTestScreens(t, Config{}, slowSpin())
	segs := testSegments(6)

	abandoned := make(chan screen.SpinData, 2)
	set.Wheel.SetHandlers(WheelHandlers{
		OnComplete: func(screen.SpinData) { t.Error("unexpected completion") },
		OnAbandon:  func(d screen.SpinData) { abandoned <- d },
	})
	mgr.SwitchTo(screen.ScreenWheel)

	mgr.SendEvent(screen.Event{Type: screen.EventSpinResult, Data: spinData(segs, 1)})
	mgr.SendEvent(screen.Event{Type: screen.EventSpinResult, Data: spinData(segs, 4)})

	set.Wheel.mu.Lock()
	cur, ok := set.Wheel.anim.Current()
	set.Wheel.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, 1, cur.Index)

	// Leaving the screen abandons the spin.
	mgr.SwitchTo(screen.ScreenShutdown)
	select {
	case d := <-abandoned:
		assert.Equal(t, 1, d.Result.SegmentIndex)
	case <-time.After(time.Second):
		t.Fatal("spin not abandoned")
	}
	assert.False(t, set.Wheel.Spinning())
	// A frame already in flight may re-arm once; it finds the spin gone.
	assert.Eventually(t, func() bool { return mgr.PendingTimers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestWheelKeepsSnapshotDuringReload(t *testing.T) {
	mgr, set, _ := newTestScreens(t, Config{}, slowSpin())
	segs := testSegments(6)
	set.Wheel.SetHandlers(WheelHandlers{})
	mgr.SwitchTo(screen.ScreenWheel)

	mgr.SendEvent(screen.Event{Type: screen.EventSpinResult, Data: spinData(segs, 5)})
	mgr.Broadcast(screen.Event{
		Type: screen.EventCampaignUpdated,
		Data: screen.CampaignData{Campaign: campaign.Snapshot{Version: 2, Segments: testSegments(3)}},
	})

	set.Wheel.mu.Lock()
	assert.Len(t, set.Wheel.segments, 3)
	assert.Len(t, set.Wheel.drawnSegmentsLocked(), 6)
	set.Wheel.mu.Unlock()

	// Cancel leaves the wheel where it was.
	require.Eventually(t, func() bool { return set.Wheel.Rotation() != 0 }, time.Second, 5*time.Millisecond)
	require.True(t, mgr.SendEvent(screen.Event{Type: screen.EventCancel}))
	rot := set.Wheel.Rotation()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, rot, set.Wheel.Rotation())
	assert.False(t, set.Wheel.Spinning())

	set.Wheel.mu.Lock()
	assert.Len(t, set.Wheel.drawnSegmentsLocked(), 3)
	set.Wheel.mu.Unlock()

	// Nothing left to cancel.
	assert.False(t, mgr.SendEvent(screen.Event{Type: screen.EventCancel}))
}

func TestWheelBadResultShowsError(t *testing.T) {
	mgr, set, _ := newTestScreens(t, Config{}, fastSpin())
	segs := testSegments(4)

	var gotErr error
	set.Wheel.SetHandlers(WheelHandlers{
		OnError: func(_ screen.SpinData, err error) { gotErr = err },
	})
	mgr.SwitchTo(screen.ScreenWheel)

	mgr.SendEvent(screen.Event{Type: screen.EventSpinResult, Data: spinData(segs, 7)})
	assert.ErrorIs(t, gotErr, wheel.ErrSegmentOutOfRange)
	assert.Same(t, set.SpinError, mgr.Current())
	assert.Equal(t, "Wheel is out of order", mgr.Failure())
	assert.False(t, set.Wheel.Spinning())

	mgr.SwitchTo(screen.ScreenWheel)
	mgr.SendEvent(screen.Event{Type: screen.EventSpinResult, Data: spinData(nil, 0)})
	assert.ErrorIs(t, gotErr, wheel.ErrNoSegments)
}

func TestWheelRequestThenFailure(t *testing.T) {
	mgr, set, _ := newTestScreens(t, Config{}, fastSpin())
	set.Wheel.SetSegments(testSegments(4))
	mgr.SwitchTo(screen.ScreenWheel)

	require.True(t, mgr.SendEvent(screen.Event{Type: screen.EventSpinRequested}))
	set.Wheel.mu.Lock()
	assert.Equal(t, "Good luck!", set.Wheel.statusLocked())
	set.Wheel.mu.Unlock()

	mgr.SendEvent(screen.Event{
		Type: screen.EventSpinFailed,
		Data: screen.FailureData{Err: fmt.Errorf("spin: %w", outcome.ErrNotEligible)},
	})
	assert.Same(t, set.SpinError, mgr.Current())
	assert.Equal(t, "No spins left on this card", mgr.Failure())

	set.Wheel.mu.Lock()
	assert.False(t, set.Wheel.requesting)
	set.Wheel.mu.Unlock()

	// A press returns to the wheel.
	mgr.SendEvent(screen.Event{Type: screen.EventButton})
	assert.Same(t, set.Wheel, mgr.Current())
}

func TestConnectionLostWaitsForBroker(t *testing.T) {
	mgr, set, _ := newTestScreens(t, Config{}, fastSpin())
	mgr.SwitchTo(screen.ScreenConnectionLost)

	mgr.SetMQTTConnected(true)
	assert.Same(t, set.Wheel, mgr.Current())
}

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{outcome.ErrNotEligible, "No spins left on this card"},
		{fmt.Errorf("x: %w", outcome.ErrRateLimited), "Please wait a moment"},
		{wheel.ErrNoSegments, "Wheel is out of order"},
		{campaign.ErrNotConfigured, "Wheel is out of order"},
		{errors.New("connection refused"), "Something went wrong, please try again"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FailureMessage(tt.err))
	}
}

func TestSegmentColors(t *testing.T) {
	g := newWheelGeometry(320, 240)
	at := func(dc *gg.Context) color.Color {
		// Straight up from the hub, inside the single wedge.
		return dc.Image().At(int(g.cx), int(g.cy-0.75*g.r))
	}

	tests := []struct {
		color string
		want  color.RGBA
	}{
		{"#FFcc00", color.RGBA{255, 204, 0, 255}},
		{"102030", color.RGBA{16, 32, 48, 255}},
		{"#0f0", color.RGBA{0, 255, 0, 255}},
		{"", palette[0]},
	}
	for _, tt := range tests {
		dc := gg.NewContext(320, 240)
		drawWheel(dc, g, []wheel.Segment{{Label: "A", Color: tt.color}}, 0)
		assert.Equal(t, tt.want, at(dc), "color %q", tt.color)
	}

	// Segments without a color fall back to the palette, and the last one
	// never repeats the first.
	assert.Equal(t, palette[2], paletteColor(2, 6))
	n := len(palette) + 1
	assert.NotEqual(t, paletteColor(0, n), paletteColor(n-1, n))
}

func TestLoadLogoScales(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 400, 200))))
	require.NoError(t, f.Close())

	img, err := LoadLogo(path, 50)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	_, err = LoadLogo(filepath.Join(t.TempDir(), "missing.png"), 50)
	assert.Error(t, err)
}
