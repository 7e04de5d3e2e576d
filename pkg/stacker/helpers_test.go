package stacker

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abworrall/stereo-stacker/pkg/emath"
)

func solidRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// noisyRGBA is deterministic, but has plenty of texture.
func noisyRGBA(w, h int, seed int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*73 + y*151 + seed*37) % 256)
			img.SetRGBA(x, y, color.RGBA{v, 255 - v, v / 2, 0xFF})
		}
	}
	return img
}

// checkerHalf puts a 4px checkerboard over the columns [x1,x2), and
// mid gray everywhere else.
func checkerHalf(w, h, x1, x2 int) *image.RGBA {
	img := solidRGBA(w, h, color.RGBA{128, 128, 128, 0xFF})
	for y := 0; y < h; y++ {
		for x := x1; x < x2; x++ {
			v := uint8(1)
			if (x/4+y/4)%2 == 0 {
				v = 255
			}
			img.SetRGBA(x, y, color.RGBA{v, v, v, 0xFF})
		}
	}
	return img
}

func stackOf(t *testing.T, imgs ...*image.RGBA) ImageSet {
	t.Helper()
	is := ImageSet{}
	for i, img := range imgs {
		require.NoError(t, is.Add(NewStackImage(string(rune('a'+i))+".png", img), false))
	}
	return is
}

// testConfig has sigmas that come out at 0 and 4 pixels on a 64px wide image.
func testConfig() Config {
	cfg := NewConfig()
	cfg.Settings.Stacking.SigmaA = 0
	cfg.Settings.Stacking.SigmaB = 4 * emath.StdWidth / 64
	return cfg
}
