package stacker

import (
	"image"
	"image/color"
	"math"

	"github.com/abworrall/stereo-stacker/pkg/emath"
)

// ComposeAnaglyph mixes a stereo pair down to one image for red-cyan
// glasses. The red filter sits over the left eye, so the LeftMatrix
// picks what the left eye should see out of the right-eye view, and
// vice versa; the eyes' views are swapped on the way in. Each side is
// gamma corrected separately, then the two are summed, rounded and
// clamped.
func ComposeAnaglyph(leftEye, rightEye *image.RGBA, s AnaglyphSettings) *image.RGBA {
	b := leftEye.Bounds().Intersect(rightEye.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	lm, rm := s.LeftMatrix.Mat3(), s.RightMatrix.Mat3()

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			l := anaglyphSide(rightEye.RGBAAt(x+b.Min.X, y+b.Min.Y), lm, s.LeftGamma)
			r := anaglyphSide(leftEye.RGBAAt(x+b.Min.X, y+b.Min.Y), rm, s.RightGamma)

			out.SetRGBA(x, y, color.RGBA{
				emath.ClampToByte(math.Round(l[0] + r[0])),
				emath.ClampToByte(math.Round(l[1] + r[1])),
				emath.ClampToByte(math.Round(l[2] + r[2])),
				0xFF,
			})
		}
	}
	return out
}

func anaglyphSide(c color.RGBA, m emath.Mat3, gamma float64) emath.Vec3 {
	v := m.Apply(emath.Vec3{float64(c.R), float64(c.G), float64(c.B)})
	for k := range v {
		v[k] = emath.GammaCorrect(v[k], gamma, 255)
	}
	return v
}
