// Package wheel holds the prize wheel geometry and the spin animation.
//
// Angles are in degrees. 0 is 3 o'clock and positive angles turn clockwise,
// which matches gg and any other y-down drawing surface. Segment 0 starts
// at 12 o'clock (-90) and segments follow clockwise. The pointer is fixed
// at 12 o'clock.
package wheel

import "math"

// PointerAngle is the fixed position of the pointer.
const PointerAngle = -90.0

// Segment is one prize wedge of the wheel.
type Segment struct {
	Order int    `yaml:"order"` // zero based position on the wheel
	Label string `yaml:"label"`
	Color string `yaml:"color"` // hex, optional
}

// Arc is the angular position of a segment before any wheel rotation.
type Arc struct {
	Start float64
	End   float64
	Mid   float64
}

// Span returns the width of one segment on a wheel of total segments.
func Span(total int) float64 {
	if total <= 0 {
		return 0
	}
	return 360 / float64(total)
}

// Resolve returns the arc of the segment at order on a wheel of total
// uniform segments.
func Resolve(order, total int) (Arc, error) {
	if total <= 0 {
		return Arc{}, ErrNoSegments
	}
	if order < 0 || order >= total {
		return Arc{}, ErrSegmentOutOfRange
	}
	span := Span(total)
	start := float64(order)*span + PointerAngle
	return Arc{
		Start: start,
		End:   start + span,
		Mid:   start + span/2,
	}, nil
}

// Layout resolves every segment in list order. The list must already be
// sorted; Layout does not look at Segment.Order.
func Layout(segments []Segment) ([]Arc, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}
	arcs := make([]Arc, len(segments))
	for i := range segments {
		arc, err := Resolve(i, len(segments))
		if err != nil {
			return nil, err
		}
		arcs[i] = arc
	}
	return arcs, nil
}

// Normalize maps any angle into [0, 360).
func Normalize(deg float64) float64 {
	n := math.Mod(deg, 360)
	if n < 0 {
		n += 360
	}
	// math.Mod(-1e-15, 360) + 360 rounds to exactly 360
	if n >= 360 {
		n -= 360
	}
	return n
}

// SegmentAt returns the index of the segment under the pointer for a wheel
// rotated by rotation degrees.
func SegmentAt(rotation float64, total int) (int, error) {
	if total <= 0 {
		return 0, ErrNoSegments
	}
	// The pointer sees wheel angle PointerAngle-rotation; segment 0 starts
	// at PointerAngle, so the offset into the wheel is just -rotation.
	rel := Normalize(-rotation)
	idx := int(rel / Span(total))
	if idx >= total {
		idx = total - 1
	}
	return idx, nil
}
