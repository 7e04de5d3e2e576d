package stacker

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/abworrall/stereo-stacker/pkg/emath"
)

// Displacement is how far (in pixels) to look sideways for a pixel at
// the given depth (0-255), for an eye at position eye. scalePx is the
// full parallax in pixels, i.e. DepthScale already mapped onto the
// image width.
func Displacement(depth uint8, eye, scalePx, depthOffset float64) float64 {
	return eye * scalePx * (float64(depth)/255.0 + depthOffset)
}

// SynthesizeEye renders the composite as seen from one eye, by
// shifting each pixel sideways according to its depth. The source
// column is truncated toward zero. Pixels whose source falls outside
// the image are left as transparent holes.
//
// eye is -1 or +1 for a stereo pair; the animation passes fractions.
func SynthesizeEye(composite, depth *image.RGBA, eye float64, s AnaglyphSettings) *image.RGBA {
	b := composite.Bounds()
	w, h := b.Dx(), b.Dy()
	scalePx := emath.ToStdSize(s.DepthScale, w)
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := depth.RGBAAt(x, y).R
			sx := int(float64(x) + Displacement(d, eye, scalePx, s.DepthOffset))
			if sx < 0 || sx >= w {
				continue
			}
			c := composite.RGBAAt(sx, y)
			out.SetRGBA(x, y, color.RGBA{c.R, c.G, c.B, 0xFF})
		}
	}
	return out
}

// AlphaStackEye renders an eye in alpha-stack mode, where the layers
// themselves slide past each other.
func AlphaStackEye(layers []image.Image, bounds image.Rectangle, eye float64, s AnaglyphSettings) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	DrawAlphaStack(out, AlphaStackShift(eye, s, bounds.Dx()), s.DepthOffset, layers)
	return out
}

// SideBySide puts the two views next to each other, left view on the left.
func SideBySide(left, right image.Image) *image.RGBA {
	lb, rb := left.Bounds(), right.Bounds()
	h := lb.Dy()
	if rb.Dy() > h {
		h = rb.Dy()
	}
	out := image.NewRGBA(image.Rect(0, 0, lb.Dx()+rb.Dx(), h))
	draw.Draw(out, image.Rect(0, 0, lb.Dx(), lb.Dy()), left, lb.Min, draw.Src)
	draw.Draw(out, image.Rect(lb.Dx(), 0, lb.Dx()+rb.Dx(), rb.Dy()), right, rb.Min, draw.Src)
	return out
}
