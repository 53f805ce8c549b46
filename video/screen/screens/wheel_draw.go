package screens

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"gowheel/wheel"
)

var (
	colorBackground = color.RGBA{20, 24, 48, 255}
	colorOutline    = color.RGBA{32, 34, 37, 255}
	colorHub        = color.RGBA{230, 190, 60, 255}
	colorPointer    = color.RGBA{237, 66, 69, 255}
	colorEmpty      = color.RGBA{79, 84, 92, 255}
)

// palette colors segments that do not carry their own color.
var palette = []color.RGBA{
	{231, 76, 60, 255},
	{241, 196, 15, 255},
	{46, 204, 113, 255},
	{52, 152, 219, 255},
	{155, 89, 182, 255},
	{230, 126, 34, 255},
	{26, 188, 156, 255},
	{236, 64, 122, 255},
}

// wheelGeometry places the wheel on the screen.
type wheelGeometry struct {
	cx, cy, r float64
	margin    float64
}

func newWheelGeometry(width, height int) wheelGeometry {
	band := bandHeight(height)
	area := float64(height - 2*band)
	margin := 8.0
	r := math.Min(float64(width), area)/2 - margin
	if r < 10 {
		r = 10
	}
	return wheelGeometry{
		cx:     float64(width) / 2,
		cy:     float64(band) + area/2,
		r:      r,
		margin: margin,
	}
}

// bandHeight is the height of the title and status bands.
func bandHeight(height int) int {
	b := height / 8
	if b < 24 {
		b = 24
	}
	return b
}

// bounds returns the square redrawn on every animation frame.
func (g wheelGeometry) bounds() (x, y, w, h int) {
	side := 2 * (g.r + g.margin)
	return int(g.cx - g.r - g.margin), int(g.cy - g.r - g.margin), int(math.Ceil(side)), int(math.Ceil(side))
}

// setSegmentColor picks the fill of segment i of n. Segments without a
// color of their own take one from the palette.
func setSegmentColor(dc *gg.Context, seg wheel.Segment, i, n int) {
	if seg.Color != "" {
		dc.SetHexColor(seg.Color)
		return
	}
	dc.SetColor(paletteColor(i, n))
}

func paletteColor(i, n int) color.RGBA {
	c := palette[i%len(palette)]
	// Avoid the first and last segment sharing a color.
	if n > 1 && i == n-1 && n%len(palette) == 1 {
		c = palette[(i+1)%len(palette)]
	}
	return c
}

// drawWheel draws segs rotated clockwise by rotation degrees. The caller
// sets the label font.
func drawWheel(dc *gg.Context, g wheelGeometry, segs []wheel.Segment, rotation float64) {
	inner := g.r * 0.95

	dc.SetColor(colorOutline)
	dc.DrawCircle(g.cx, g.cy, g.r)
	dc.Fill()

	arcs, err := wheel.Layout(segs)
	if err != nil {
		dc.SetColor(colorEmpty)
		dc.DrawCircle(g.cx, g.cy, inner)
		dc.Fill()
		drawHub(dc, g)
		return
	}

	for i, a := range arcs {
		start := gg.Radians(a.Start + rotation)
		end := gg.Radians(a.End + rotation)

		dc.NewSubPath()
		dc.MoveTo(g.cx, g.cy)
		dc.DrawArc(g.cx, g.cy, inner, start, end)
		dc.ClosePath()
		setSegmentColor(dc, segs[i], i, len(segs))
		dc.Fill()
	}

	if len(arcs) > 1 {
		dc.SetLineWidth(2)
		dc.SetColor(colorOutline)
		for _, a := range arcs {
			t := gg.Radians(a.Start + rotation)
			dc.MoveTo(g.cx, g.cy)
			dc.LineTo(g.cx+math.Cos(t)*inner, g.cy+math.Sin(t)*inner)
			dc.Stroke()
		}
	}

	for i, a := range arcs {
		mid := wheel.Normalize(a.Mid + rotation)
		t := gg.Radians(mid)
		lx := g.cx + math.Cos(t)*inner*0.6
		ly := g.cy + math.Sin(t)*inner*0.6

		dc.Push()
		dc.Translate(lx, ly)
		dc.Rotate(t)
		// Keep text upright on the left half.
		if mid > 90 && mid < 270 {
			dc.Rotate(math.Pi)
		}
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(segs[i].Label, 1, 1, 0.5, 0.5)
		dc.SetColor(color.White)
		dc.DrawStringAnchored(segs[i].Label, 0, 0, 0.5, 0.5)
		dc.Pop()
	}

	drawHub(dc, g)
}

func drawHub(dc *gg.Context, g wheelGeometry) {
	hub := g.r * 0.15
	dc.SetColor(colorHub)
	dc.DrawCircle(g.cx, g.cy, hub)
	dc.Fill()
	dc.SetLineWidth(2)
	dc.SetColor(colorOutline)
	dc.DrawCircle(g.cx, g.cy, hub)
	dc.Stroke()
}

// drawPointer draws the fixed pointer at the top of the wheel, tip inwards.
func drawPointer(dc *gg.Context, g wheelGeometry) {
	size := math.Max(12, g.r*0.16)
	tipY := g.cy - g.r + size*0.6
	baseY := g.cy - g.r - g.margin + 1

	dc.NewSubPath()
	dc.MoveTo(g.cx, tipY)
	dc.LineTo(g.cx-size/2, baseY)
	dc.LineTo(g.cx+size/2, baseY)
	dc.ClosePath()
	dc.SetColor(colorPointer)
	dc.FillPreserve()
	dc.SetLineWidth(2)
	dc.SetColor(colorOutline)
	dc.Stroke()
}
