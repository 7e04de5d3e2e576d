package stacker

import (
	"fmt"
	"image"
	"image/color"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/abworrall/stereo-stacker/pkg/emath"
)

// BuildDepthMap renders a depth field as a gray image: each value is
// scaled by the field's maximum, gamma corrected, and then the whole
// map is blurred by smoothRadius (in StdWidth pixels) to hide the
// steps between layers. A field whose maximum is zero (every pixel
// picked the first layer) renders all black.
func BuildDepthMap(f FusionDepthField, gamma, smoothRadius float64, blur Blurrer) *image.RGBA {
	w, h := f.Depth.Dx(), f.Depth.Dy()
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := 0.0
			if f.MaximumDepth > 0 {
				d = f.Depth.Get(x, y) / f.MaximumDepth
			}
			v := emath.ClampToByte(math.Trunc(emath.GammaCorrect(d, gamma, 1.0) * 255))
			img.SetRGBA(x, y, color.RGBA{v, v, v, 0xFF})
		}
	}

	return blur(img, emath.ToStdSize(smoothRadius, w))
}

// NormalizeDepthMap stretches the red channel to fill [0,255], and
// writes it to all three channels. If the map is flat there is no range
// to stretch; the result is all zero, and ErrDegenerateNormalization is
// returned alongside it.
func NormalizeDepthMap(src image.Image) (*image.RGBA, error) {
	in := ToRGBA(src)
	b := in.Bounds()
	out := image.NewRGBA(b)

	min, max := 255.0, 0.0
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r := float64(in.RGBAAt(x, y).R)
			min = math.Min(min, r)
			max = math.Max(max, r)
		}
	}

	var err error
	if max <= min {
		err = fmt.Errorf("depth map is flat (all %.0f): %w", max, ErrDegenerateNormalization)
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := uint8(0)
			if err == nil {
				r := float64(in.RGBAAt(x, y).R)
				v = emath.ClampToByte(math.Trunc((r - min) * 255 / (max - min)))
			}
			out.SetRGBA(x, y, color.RGBA{v, v, v, 0xFF})
		}
	}

	return out, err
}

// AlphaStackDepthMap builds a depth map without a per-pixel depth
// field: each image's alpha layer is recolored to a gray level for its
// place in the stack, and the layers are stacked face-on.
func AlphaStackDepthMap(images ImageSet, k AlphaKey, s AnaglyphSettings, blur Blurrer) *image.RGBA {
	n := len(images)
	layers := make([]image.Image, n)
	for i := range images {
		layers[i] = AlphaDepthLayer(images[i].AlphaLayer(k), i, n, s.DepthGamma)
	}

	w := images.Bounds().Dx()
	dst := image.NewRGBA(image.Rect(0, 0, w, images.Bounds().Dy()))
	DrawAlphaStack(dst, 0, 0, layers)

	return blur(dst, emath.ToStdSize(s.DepthSmooth, w))
}

// normalizeOrWarn is NormalizeDepthMap for callers that are happy with
// the zero fallback.
func normalizeOrWarn(what string, img image.Image) *image.RGBA {
	out, err := NormalizeDepthMap(img)
	if err != nil {
		log.Warnf("%s: %v", what, err)
	}
	return out
}
