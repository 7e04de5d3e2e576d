package stacker

import "github.com/abworrall/stereo-stacker/pkg/emath"

// A FusionDepthField records, for each pixel of the composite, which
// layer (or mean of layers) it was taken from.
type FusionDepthField struct {
	Depth        emath.FloatGrid
	MaximumDepth float64
}

func NewFusionDepthField(w, h int) FusionDepthField {
	return FusionDepthField{Depth: emath.NewFloatGrid(w, h)}
}

func (f *FusionDepthField) AddDepth(x, y int, d float64) {
	f.Depth.Set(x, y, d)
	if d > f.MaximumDepth {
		f.MaximumDepth = d
	}
}
