package stacker

import (
	"image"
	"math"

	"github.com/nfnt/resize"
)

const AnimationFPS = 30

// AnimationOffsets are the eye positions for one loop of the parallax
// wobble: a sine sweep, one cycle per 1/speed seconds, with an
// amplitude of strength percent of the full stereo separation.
func AnimationOffsets(a AnimationSettings) []float64 {
	speed := a.Speed
	if speed <= 0 {
		speed = 1
	}
	duration := AnimationFPS / speed
	n := int(duration)
	if n < 1 {
		n = 1
	}

	offsets := make([]float64, n)
	for f := range offsets {
		t := float64(f) / duration
		offsets[f] = math.Sin(2*math.Pi*t) * a.Strength / 100
	}
	return offsets
}

// A FrameRenderer draws the view from one eye position.
type FrameRenderer func(offset float64) *image.RGBA

// RenderAnimation renders one frame per offset, downscaling to maxWidth
// (if non-zero and smaller than the frame).
func RenderAnimation(a AnimationSettings, maxWidth int, render FrameRenderer) []*image.RGBA {
	offsets := AnimationOffsets(a)
	frames := make([]*image.RGBA, len(offsets))
	for i, off := range offsets {
		frames[i] = shrinkFrame(render(off), maxWidth)
	}
	return frames
}

func shrinkFrame(img *image.RGBA, maxWidth int) *image.RGBA {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return ToRGBA(resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3))
}
