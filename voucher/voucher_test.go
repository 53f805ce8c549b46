package voucher

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRaster(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, color.White)
		}
	}
	img.Set(0, 15, color.Black) // bottom pixel of the first column
	img.Set(2, 0, color.Black)  // top pixel of the last column

	var buf bytes.Buffer
	require.NoError(t, encodeRaster(&buf, img, 2))

	want := []byte{
		27, 'D', 2,
		27, 'L', 0, 3,
		0x16, 0x01, 0x00,
		0x16, 0x00, 0x00,
		0x16, 0x00, 0x80,
		27, 'E',
	}
	assert.Equal(t, want, buf.Bytes())
}

func TestEncodeRasterRejectsTallImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 24))
	err := encodeRaster(&bytes.Buffer{}, img, 2)
	assert.ErrorIs(t, err, ErrLabelTooWide)
}

func TestNewDisabled(t *testing.T) {
	p := New(Config{})
	assert.Nil(t, p)
	assert.NoError(t, p.Print(Voucher{Label: "Free Coffee"}))
}

func TestPrintWritesLabel(t *testing.T) {
	dev := filepath.Join(t.TempDir(), "lp0")
	require.NoError(t, os.WriteFile(dev, nil, 0644))

	p := New(Config{
		Enabled:      true,
		Device:       dev,
		Font:         filepath.Join(t.TempDir(), "missing.ttf"),
		BytesPerLine: 4,
		Length:       200,
	})
	require.NotNil(t, p)

	err := p.Print(Voucher{
		Label:    "Free Coffee",
		Amount:   2.5,
		Barcode:  "A1B2C3",
		IssuedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(dev)
	require.NoError(t, err)
	require.Len(t, data, 3+4+200*(1+4)+2)
	assert.Equal(t, []byte{27, 'D', 4, 27, 'L', 0, 200}, data[:7])
	assert.Equal(t, []byte{27, 'E'}, data[len(data)-2:])

	// the border is black on every line
	col := data[7+10*5 : 7+11*5]
	assert.Equal(t, byte(0x16), col[0])
	assert.NotEqual(t, []byte{0, 0, 0, 0}, col[1:])
}

func TestPrintMissingDevice(t *testing.T) {
	p := New(Config{Enabled: true, Device: filepath.Join(t.TempDir(), "nope", "lp0")})
	assert.Error(t, p.Print(Voucher{Label: "x"}))
}
