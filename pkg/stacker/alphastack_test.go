package stacker

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abworrall/stereo-stacker/pkg/emath"
)

func contrastOf(w, h int, vals map[image.Point]float64) *ContrastMap {
	g := emath.NewFloatGrid(w, h)
	max := 0.0
	for pt, v := range vals {
		g.Set(pt.X, pt.Y, v)
		if v > max {
			max = v
		}
	}
	return &ContrastMap{Channels: []emath.FloatGrid{g}, Max: max}
}

func TestNormalizedContrastAlpha(t *testing.T) {
	src := noisyRGBA(4, 1, 5)

	t.Run("featureless map is transparent", func(t *testing.T) {
		out := NormalizedContrastAlpha(src, contrastOf(4, 1, nil), 32)
		for x := 0; x < 4; x++ {
			assert.Equal(t, uint8(0), out.NRGBAAt(x, 0).A)
		}
	})

	t.Run("threshold scaling", func(t *testing.T) {
		cm := contrastOf(4, 1, map[image.Point]float64{{0, 0}: 255, {1, 0}: 1, {2, 0}: 2})
		out := NormalizedContrastAlpha(src, cm, 32)

		assert.Equal(t, uint8(255), out.NRGBAAt(0, 0).A)
		assert.Equal(t, uint8(0), out.NRGBAAt(1, 0).A, "contrast of 1 is noise")
		assert.Equal(t, uint8(15), out.NRGBAAt(2, 0).A)
		assert.Equal(t, uint8(0), out.NRGBAAt(3, 0).A)

		// Color comes from the source, unpremultiplied
		s := src.RGBAAt(2, 0)
		o := out.NRGBAAt(2, 0)
		assert.Equal(t, []uint8{s.R, s.G, s.B}, []uint8{o.R, o.G, o.B})
	})

	t.Run("zero threshold", func(t *testing.T) {
		cm := contrastOf(4, 1, map[image.Point]float64{{0, 0}: 255, {1, 0}: 2})
		out := NormalizedContrastAlpha(src, cm, 0)
		assert.Equal(t, uint8(255), out.NRGBAAt(1, 0).A)
	})
}

func TestLayerShift(t *testing.T) {
	assert.Equal(t, -5, LayerShift(10, -0.5, 0, 2))
	assert.Equal(t, 0, LayerShift(10, -0.5, 1, 2))
	assert.Equal(t, 0, LayerShift(0, -0.5, 1, 2))
	assert.Equal(t, 0, LayerShift(10, 0, 0, 0))
}

func TestDrawAlphaStack(t *testing.T) {
	base := noisyRGBA(6, 3, 1)
	clear := image.NewNRGBA(base.Bounds())
	dst := image.NewRGBA(base.Bounds())

	DrawAlphaStack(dst, 0, 0, []image.Image{base, clear})
	assert.Equal(t, base.Pix, dst.Pix)

	// Shifted right by 2: the first two columns are left black
	DrawAlphaStack(dst, 4, 0.5, []image.Image{base, clear})
	assert.Equal(t, color.RGBA{0, 0, 0, 0xFF}, dst.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 0, 0xFF}, dst.RGBAAt(1, 1))
	assert.Equal(t, base.RGBAAt(0, 2), dst.RGBAAt(2, 2))
}

func TestAlphaDepthLayer(t *testing.T) {
	alpha := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	alpha.SetNRGBA(0, 0, color.NRGBA{9, 9, 9, 40})

	l := AlphaDepthLayer(alpha, 1, 3, 1.0)
	assert.Equal(t, color.NRGBA{127, 127, 127, 40}, l.NRGBAAt(0, 0))
	assert.Equal(t, uint8(0), l.NRGBAAt(1, 0).A)

	l0 := AlphaDepthLayer(alpha, 0, 3, 1.0)
	assert.Equal(t, color.NRGBA{0, 0, 0, 0xFF}, l0.NRGBAAt(1, 0), "the first layer is opaque")

	single := AlphaDepthLayer(alpha, 0, 1, 1.0)
	assert.Equal(t, uint8(255), single.NRGBAAt(0, 0).R)
}
