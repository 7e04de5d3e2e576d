package emath

import "math"

// Some functions that only operate on basic types, that are useful

// StdWidth is the image width that nominal pixel radii are specified
// against.
const StdWidth = 1920.0

// ToStdSize rescales a radius given for a StdWidth-wide image, to an
// image that is `width` pixels wide.
func ToStdSize(size float64, width int) float64 {
	return size * float64(width) / StdWidth
}

// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/ - "linear RGB to sRGB"
// f is assumed to be in the range [0,1]
func GammaExpand_F64(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}

// GammaCorrect maps v in [0,scale] through pow(v/scale, 1/gamma) and
// back up to [0,scale]. Negative input is floored at zero, so the
// result is never NaN.
func GammaCorrect(v, gamma, scale float64) float64 {
	if v <= 0 || scale == 0 {
		return 0
	}
	return math.Pow(v/scale, 1/gamma) * scale
}

func Clamp(min, max, v float64) float64 {
	return math.Min(math.Max(min, v), max)
}

// ClampToByte rounds down into [0,255]; NaN maps to 0.
func ClampToByte(v float64) uint8 {
	if !(v > 0) {
		return 0
	} else if v >= 255 {
		return 255
	}
	return uint8(v)
}
