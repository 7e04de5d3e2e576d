package emath

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rampGrid(w, h int) FloatGrid {
	fg := NewFloatGrid(w, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			fg.Set(x, y, float64(x*10+y))
		}
	}
	return fg
}

func TestGaussianKernel(t *testing.T) {
	assert.Equal(t, []float64{1}, GaussianKernel(0))
	assert.Equal(t, []float64{1}, GaussianKernel(-3))

	k := GaussianKernel(1.5)
	require.Len(t, k, 11)
	sum := 0.0
	for i := range k {
		sum += k[i]
		assert.InDelta(t, k[i], k[len(k)-1-i], 1e-15, "kernel should be symmetric")
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestGaussianBlurZeroIsIdentity(t *testing.T) {
	fg := rampGrid(7, 5)
	out := fg.GaussianBlur(0)
	assert.Equal(t, fg.Values(), out.Values())

	// And it must not alias the input
	out.Set(0, 0, -1)
	assert.Equal(t, 0.0, fg.Get(0, 0))
}

func TestGaussianBlurEdges(t *testing.T) {
	// A flat grid stays flat; clamped edges mean no darkening at the border
	fg := NewFloatGrid(6, 4)
	for i := range fg.values {
		fg.values[i] = 200
	}
	out := fg.GaussianBlur(2.5)
	for _, v := range out.Values() {
		assert.InDelta(t, 200.0, v, 1e-9)
	}
}

func TestGaussianBlurSmooths(t *testing.T) {
	fg := NewFloatGrid(9, 9)
	fg.Set(4, 4, 100)
	out := fg.GaussianBlur(1)

	assert.Less(t, out.Get(4, 4), 100.0)
	assert.Greater(t, out.Get(3, 4), 0.0)
	assert.InDelta(t, out.Get(3, 4), out.Get(5, 4), 1e-12)
	assert.InDelta(t, out.Get(4, 3), out.Get(4, 5), 1e-12)

	total := 0.0
	for _, v := range out.Values() {
		total += v
	}
	assert.InDelta(t, 100.0, total, 1e-6, "energy is preserved away from edges")
}

func TestAbsDiffAndMinMax(t *testing.T) {
	a := rampGrid(3, 2)
	b := NewFloatGrid(3, 2)
	b.Set(2, 1, 100)

	d, err := AbsDiff(a, b)
	require.NoError(t, err)
	assert.Equal(t, 100.0-21.0, d.Get(2, 1))
	assert.Equal(t, 10.0, d.Get(1, 0))

	min, max := d.MinMax()
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 79.0, max)

	_, err = AbsDiff(a, NewFloatGrid(2, 3))
	assert.Error(t, err)

	empty := FloatGrid{}
	min, max = empty.MinMax()
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 0.0, max)
	assert.Equal(t, 0, empty.Dy())
}

func TestKeepMax(t *testing.T) {
	a := rampGrid(3, 2)
	b := NewFloatGrid(3, 2)
	b.Set(0, 0, 50)

	require.NoError(t, a.KeepMax(b))
	assert.Equal(t, 50.0, a.Get(0, 0))
	assert.Equal(t, 21.0, a.Get(2, 1), "larger cell kept")

	assert.Error(t, a.KeepMax(NewFloatGrid(1, 1)))
}

func TestRound(t *testing.T) {
	fg := NewFloatGrid(3, 1)
	fg.Set(0, 0, 1.4999999)
	fg.Set(1, 0, 2.5000001)
	fg.Set(2, 0, 254.9999999999)
	fg.Round()
	assert.Equal(t, []float64{1, 3, 255}, fg.Values())
}

func TestToImg(t *testing.T) {
	fg := rampGrid(64, 48)
	filename := filepath.Join(t.TempDir(), "grid.png")
	require.NoError(t, fg.ToImg("ramp", filename))
	assert.FileExists(t, filename)

	flat := NewFloatGrid(16, 16)
	require.NoError(t, flat.ToImg("flat", filepath.Join(t.TempDir(), "flat.png")))

	assert.Contains(t, fg.Stats(), "fg[64x48")
}
