//go:build screen

package video

import (
	"encoding/binary"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/d21d3q/framebuffer"
	"github.com/fogleman/gg"
	log "github.com/sirupsen/logrus"

	"gowheel/video/screen"
)

// ScreenSupported returns whether screen support is compiled in.
func ScreenSupported() bool {
	return true
}

// Display owns the framebuffer and the screen manager drawing on it.
type Display struct {
	cfg             Config
	mu              sync.Mutex // serializes blits
	pixBuffer       []byte
	backBuffer      []byte
	rgbaImage       *image.RGBA
	fbWidth         int
	fbHeight        int
	width           int // canvas size, after rotation
	height          int
	lineLengthBytes int
	mgr             *screen.Manager
}

// New opens the framebuffer and creates the screen manager.
func New(cfg Config) (*Display, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	fb, err := framebuffer.OpenFrameBuffer(cfg.Device, os.O_RDWR)
	if err != nil {
		return nil, fmt.Errorf("open framebuffer: %w", err)
	}
	varInfo, err := fb.VarScreenInfo()
	if err != nil {
		return nil, fmt.Errorf("get variable screen info: %w", err)
	}
	fixedInfo, err := fb.FixScreenInfo()
	if err != nil {
		return nil, fmt.Errorf("get fixed screen info: %w", err)
	}
	if varInfo.BitsPerPixel != 16 {
		return nil, fmt.Errorf("%w: %d bpp", ErrUnsupportedDepth, varInfo.BitsPerPixel)
	}

	d := &Display{cfg: cfg}
	d.pixBuffer, err = fb.Pixels()
	if err != nil {
		return nil, fmt.Errorf("get pixel data: %w", err)
	}

	d.fbWidth = int(varInfo.XRes)
	d.fbHeight = int(varInfo.YRes)
	d.lineLengthBytes = int(fixedInfo.LineLength)
	d.backBuffer = make([]byte, d.fbHeight*d.lineLengthBytes)
	d.width, d.height = canvasSize(d.fbWidth, d.fbHeight, cfg.Rotation)

	log.Printf("Video: framebuffer %s %dx%d, %d bpp, stride %d bytes, rotation %d",
		cfg.Device, d.fbWidth, d.fbHeight, varInfo.BitsPerPixel, d.lineLengthBytes, cfg.Rotation)

	d.rgbaImage = image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	dc := gg.NewContextForRGBA(d.rgbaImage)
	d.mgr = screen.NewManager(dc, d.width, d.height, d.update)
	d.mgr.SetUpdateRectFn(d.updateRect)

	d.clear()
	return d, nil
}

func (d *Display) clear() {
	for i := range d.pixBuffer {
		d.pixBuffer[i] = 0
	}
}

func (d *Display) update() {
	d.updateRect(0, 0, d.width, d.height)
}

// updateRect converts a canvas rectangle to RGB565 and copies the touched
// framebuffer rows.
func (d *Display) updateRect(x, y, w, h int) {
	r := image.Rect(x, y, x+w, y+h).Intersect(d.rgbaImage.Bounds())
	if r.Empty() {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	minRow, maxRow := d.fbHeight, -1
	for cy := r.Min.Y; cy < r.Max.Y; cy++ {
		for cx := r.Min.X; cx < r.Max.X; cx++ {
			fx, fy := rotatePoint(cx, cy, d.fbWidth, d.fbHeight, d.cfg.Rotation)
			fbIdx := fy*d.lineLengthBytes + fx*2
			if fbIdx < 0 || fbIdx+1 >= len(d.backBuffer) {
				continue
			}
			c := d.rgbaImage.RGBAAt(cx, cy)
			binary.LittleEndian.PutUint16(d.backBuffer[fbIdx:], rgb565(c.R, c.G, c.B))
			if fy < minRow {
				minRow = fy
			}
			if fy > maxRow {
				maxRow = fy
			}
		}
	}
	if maxRow < minRow {
		return
	}
	start := minRow * d.lineLengthBytes
	end := (maxRow + 1) * d.lineLengthBytes
	if end > len(d.pixBuffer) {
		end = len(d.pixBuffer)
	}
	copy(d.pixBuffer[start:end], d.backBuffer[start:end])
}

// Manager returns the screen manager.
func (d *Display) Manager() *screen.Manager {
	return d.mgr
}

// SendEvent forwards an event to the current screen.
func (d *Display) SendEvent(event screen.Event) bool {
	return d.mgr.SendEvent(event)
}

// SetMQTTConnected forwards the broker state to the screens.
func (d *Display) SetMQTTConnected(connected bool) {
	d.mgr.SetMQTTConnected(connected)
}

// Width returns the canvas width.
func (d *Display) Width() int {
	return d.width
}

// Height returns the canvas height.
func (d *Display) Height() int {
	return d.height
}

// Release blanks the display.
func (d *Display) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clear()
	return nil
}
