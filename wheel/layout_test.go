package wheel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func TestLayoutPartitionsCircle(t *testing.T) {
	for total := 1; total <= 37; total++ {
		t.Run(fmt.Sprintf("%d segments", total), func(t *testing.T) {
			arcs, err := Layout(make([]Segment, total))
			require.NoError(t, err)
			require.Len(t, arcs, total)

			sum := 0.0
			for i, arc := range arcs {
				sum += arc.End - arc.Start
				if i > 0 {
					assert.InDelta(t, arcs[i-1].End, arc.Start, epsilon, "gap before segment %d", i)
				}
			}
			assert.InDelta(t, 360, sum, epsilon)
			assert.InDelta(t, PointerAngle, arcs[0].Start, epsilon)
			assert.InDelta(t, PointerAngle+360, arcs[total-1].End, epsilon)
		})
	}
}

func TestResolveMidAngles(t *testing.T) {
	arc, err := Resolve(0, 4)
	require.NoError(t, err)
	assert.InDelta(t, -45, arc.Mid, epsilon)

	arc, err = Resolve(2, 4)
	require.NoError(t, err)
	assert.InDelta(t, 135, arc.Mid, epsilon)
	assert.InDelta(t, 90, arc.Start, epsilon)
	assert.InDelta(t, 180, arc.End, epsilon)

	arc, err = Resolve(3, 6)
	require.NoError(t, err)
	assert.InDelta(t, 120, arc.Mid, epsilon)
}

func TestResolveRejectsBadInput(t *testing.T) {
	_, err := Resolve(0, 0)
	assert.ErrorIs(t, err, ErrNoSegments)

	_, err = Resolve(0, -3)
	assert.ErrorIs(t, err, ErrNoSegments)

	_, err = Resolve(4, 4)
	assert.ErrorIs(t, err, ErrSegmentOutOfRange)

	_, err = Resolve(-1, 4)
	assert.ErrorIs(t, err, ErrSegmentOutOfRange)

	_, err = Layout(nil)
	assert.ErrorIs(t, err, ErrNoSegments)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{-210, 150},
		{725, 5},
		{-720, 0},
		{359.5, 359.5},
		{-1e-15, 0},
	}
	for _, tt := range tests {
		got := Normalize(tt.in)
		assert.InDelta(t, tt.want, got, epsilon, "Normalize(%v)", tt.in)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.Less(t, got, 360.0)
	}
}

func TestSegmentAt(t *testing.T) {
	idx, err := SegmentAt(0, 6)
	require.NoError(t, err)
	assert.Equal(t, 0, idx, "unrotated wheel has segment 0 starting under the pointer")

	idx, err = SegmentAt(1950, 6)
	require.NoError(t, err)
	assert.Equal(t, 3, idx)

	_, err = SegmentAt(10, 0)
	assert.ErrorIs(t, err, ErrNoSegments)
}
