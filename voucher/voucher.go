// Package voucher prints prize vouchers on a Dymo label printer.
package voucher

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/fogleman/gg"
	log "github.com/sirupsen/logrus"
)

// ErrLabelTooWide is returned when the label does not fit the print head.
var ErrLabelTooWide = errors.New("voucher: label wider than print head")

// Config holds label printer settings.
type Config struct {
	Enabled      bool   `yaml:"enabled"`
	Device       string `yaml:"device"`         // default /dev/usb/lp0
	Font         string `yaml:"font"`           // TTF, default Ubuntu-R.ttf
	Template     string `yaml:"template"`       // optional PNG drawn at the left edge
	BytesPerLine int    `yaml:"bytes_per_line"` // print head width in bytes, default 38
	Length       int    `yaml:"length"`         // label length in dots, default 960
	ValidDays    int    `yaml:"valid_days"`     // used when the result has no expiry, default 30
}

func (c Config) withDefaults() Config {
	if c.Device == "" {
		c.Device = "/dev/usb/lp0"
	}
	if c.Font == "" {
		c.Font = "Ubuntu-R.ttf"
	}
	if c.BytesPerLine <= 0 {
		c.BytesPerLine = 38
	}
	if c.Length <= 0 {
		c.Length = 960
	}
	if c.ValidDays <= 0 {
		c.ValidDays = 30
	}
	return c
}

// Voucher is the content of one label.
type Voucher struct {
	Label     string
	Amount    float64
	Barcode   string
	Customer  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Printer renders and prints vouchers.
type Printer struct {
	cfg Config
}

// New returns a printer, or nil when printing is disabled.
func New(cfg Config) *Printer {
	if !cfg.Enabled {
		return nil
	}
	cfg = cfg.withDefaults()
	log.Printf("Voucher: printing to %s (%d bytes/line, %d dots)", cfg.Device, cfg.BytesPerLine, cfg.Length)
	return &Printer{cfg: cfg}
}

// Print renders v and sends it to the printer. A nil printer does nothing.
func (p *Printer) Print(v Voucher) error {
	if p == nil {
		return nil
	}
	dc := p.Render(v)

	f, err := os.OpenFile(p.cfg.Device, os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open printer: %w", err)
	}
	defer f.Close()

	if err := encodeRaster(f, dc.Image(), p.cfg.BytesPerLine); err != nil {
		return fmt.Errorf("print voucher: %w", err)
	}
	return nil
}

// Render draws the label. It is laid out sideways: the label runs along
// the x axis and the print head covers the y axis.
func (p *Printer) Render(v Voucher) *gg.Context {
	width := p.cfg.Length
	height := p.cfg.BytesPerLine * 8
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	offset := 0.0
	if p.cfg.Template != "" {
		if im, err := gg.LoadPNG(p.cfg.Template); err == nil {
			dc.DrawImage(im, 0, 0)
			offset = 100
		} else {
			log.Printf("Voucher: template %s: %v", p.cfg.Template, err)
		}
	}

	issued := v.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	expires := v.ExpiresAt
	if expires.IsZero() {
		expires = issued.AddDate(0, 0, p.cfg.ValidDays)
	}

	cx := float64(width/2) + offset/2
	h := float64(height)

	p.font(dc, 72)
	dc.DrawStringAnchored(v.Label, cx, h*0.25, 0.5, 0.5)

	p.font(dc, 48)
	if v.Amount > 0 {
		dc.DrawStringAnchored(fmt.Sprintf("%.2f", v.Amount), cx, h*0.48, 0.5, 0.5)
	}

	p.font(dc, 32)
	if v.Barcode != "" {
		dc.DrawStringAnchored(v.Barcode, cx, h*0.66, 0.5, 0.5)
	}

	p.font(dc, 22)
	dc.DrawStringAnchored(fmt.Sprintf("Valid until %s", expires.Format("Mon, 02-Jan-06")), cx, h*0.80, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("Issued %s", issued.Format("02-Jan-2006 15:04")), cx, h*0.90, 0.5, 0.5)

	dc.SetLineWidth(2)
	dc.DrawRectangle(10, 10, float64(width-20), h-20)
	dc.Stroke()
	return dc
}

// font loads the configured face. Without it the built-in face is kept.
func (p *Printer) font(dc *gg.Context, points float64) {
	if err := dc.LoadFontFace(p.cfg.Font, points); err != nil {
		log.Debugf("Voucher: font %s: %v", p.cfg.Font, err)
	}
}

// encodeRaster writes img in the Dymo raster protocol: the head width and
// label length, then one 0x16 line per image column with the column's
// pixels packed bottom up, then a form feed.
func encodeRaster(w io.Writer, img image.Image, bpl int) error {
	b := img.Bounds()
	if b.Dy() > bpl*8 {
		return fmt.Errorf("%w: %d dots, head has %d", ErrLabelTooWide, b.Dy(), bpl*8)
	}
	lines := b.Dx()

	bw := bufio.NewWriter(w)
	bw.Write([]byte{27, 'D', byte(bpl)})
	bw.Write([]byte{27, 'L', byte(lines >> 8 & 0xff), byte(lines & 0xff)})

	row := make([]byte, bpl)
	for x := b.Min.X; x < b.Max.X; x++ {
		for j := range row {
			var data byte
			for i := 0; i < 8; i++ {
				y := b.Max.Y - 1 - j*8 - i
				if y < b.Min.Y {
					break
				}
				r, _, _, _ := img.At(x, y).RGBA()
				if r <= 0x8000 {
					data |= 1 << i
				}
			}
			row[j] = data
		}
		bw.WriteByte(0x16)
		bw.Write(row)
	}
	bw.Write([]byte{27, 'E'})
	return bw.Flush()
}
