package stacker

import (
	"image"
	"math"

	"github.com/abworrall/stereo-stacker/pkg/emath"
)

// Rec.709 luma weights, as used by a CSS grayscale() filter.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// A ContrastMap is a per-pixel sharpness estimate for one image: the
// absolute difference of two gaussian blurs (a DoG band-pass). It has
// one plane in luma mode, or three (R,G,B) in per-channel mode. Values
// are whole numbers in [0,255].
type ContrastMap struct {
	Channels []emath.FloatGrid
	Max      float64 // Largest value over all planes; 0 for a featureless image
}

func (cm *ContrastMap) NumChannels() int { return len(cm.Channels) }

// At returns the contrast for output channel k (0=R, 1=G, 2=B). A
// single-plane map gives the same value for every channel.
func (cm *ContrastMap) At(x, y, k int) float64 {
	if len(cm.Channels) == 1 {
		k = 0
	}
	return cm.Channels[k].Get(x, y)
}

// ImagePlanes splits an image into float planes: luma only, or R,G,B.
func ImagePlanes(img *image.RGBA, perChannel bool) []emath.FloatGrid {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	n := 1
	if perChannel {
		n = 3
	}
	planes := make([]emath.FloatGrid, n)
	for i := range planes {
		planes[i] = emath.NewFloatGrid(w, h)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x+img.Rect.Min.X, y+img.Rect.Min.Y)
			r, g, b := float64(img.Pix[i+0]), float64(img.Pix[i+1]), float64(img.Pix[i+2])
			if perChannel {
				planes[0].Set(x, y, r)
				planes[1].Set(x, y, g)
				planes[2].Set(x, y, b)
			} else {
				planes[0].Set(x, y, lumaR*r+lumaG*g+lumaB*b)
			}
		}
	}
	return planes
}

// BuildContrastMap computes |blur(p, SigmaA) - blur(p, SigmaB)| for
// each plane p. The sigmas are in pixels of this image. Both blurs are
// rounded to 8-bit precision before differencing, so a uniform image
// gives an exact zero map.
//
// With more than one level, the difference is also taken at doubled
// sigmas (x2, x4, ...), and each pixel keeps its largest response.
// This picks up coarse detail that the finest band can't see.
func BuildContrastMap(img *image.RGBA, k ContrastKey) *ContrastMap {
	cm := &ContrastMap{}

	for _, plane := range ImagePlanes(img, k.PerChannel) {
		band := dogBand(plane, k.SigmaA, k.SigmaB)
		for l := 1; l < k.NumLevels(); l++ {
			scale := math.Pow(2, float64(l))
			band.KeepMax(dogBand(plane, k.SigmaA*scale, k.SigmaB*scale)) // same plane, same size
		}

		if _, max := band.MinMax(); max > cm.Max {
			cm.Max = max
		}
		cm.Channels = append(cm.Channels, band)
	}

	return cm
}

func dogBand(plane emath.FloatGrid, sigmaA, sigmaB float64) emath.FloatGrid {
	a := plane.GaussianBlur(sigmaA)
	b := plane.GaussianBlur(sigmaB)
	a.Round()
	b.Round()

	diff, _ := emath.AbsDiff(a, b) // same source plane, so never a size mismatch
	return diff
}

// ContrastKey maps the nominal (StdWidth) sigmas onto this image's width.
func (si *StackImage) ContrastKey(cfg Config) ContrastKey {
	s := cfg.Settings.Stacking
	return ContrastKey{
		SigmaA:     emath.ToStdSize(s.SigmaA, si.Dx()),
		SigmaB:     emath.ToStdSize(s.SigmaB, si.Dx()),
		PerChannel: cfg.PerChannel(),
		Levels:     cfg.NumContrastLevels(),
	}
}

// ContrastMap returns the (cached) contrast map for the given key.
func (si *StackImage) ContrastMap(k ContrastKey) *ContrastMap {
	if cm := si.cachedContrast(k); cm != nil {
		return cm
	}
	cm := BuildContrastMap(si.RGBA, k)
	si.storeContrast(k, cm)
	return cm
}
