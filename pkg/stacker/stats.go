package stacker

import (
	"fmt"

	"github.com/codahale/hdrhistogram"
	"github.com/skypies/util/histogram"
)

// ContrastPercentiles summarizes how much detail an image has; a
// frame that is blurry everywhere shows up with a low p99.
func ContrastPercentiles(cm *ContrastMap) string {
	h := hdrhistogram.New(0, 256, 3)
	for _, ch := range cm.Channels {
		for _, v := range ch.Values() {
			h.RecordValue(int64(v))
		}
	}
	return fmt.Sprintf("contrast[n=%d, mean %.2f, p50 %d, p90 %d, p99 %d, max %d]",
		h.TotalCount(), h.Mean(), h.ValueAtQuantile(50), h.ValueAtQuantile(90), h.ValueAtQuantile(99), h.Max())
}

// LayerUsage counts how many pixels picked each layer of the stack,
// one bucket per layer (stacks deeper than 256 share the last bucket).
func LayerUsage(f FusionDepthField) histogram.Histogram {
	h := histogram.Histogram{NumBuckets: 256, ValMin: 0, ValMax: 256}
	for _, d := range f.Depth.Values() {
		h.Add(histogram.ScalarVal(int(d + 0.5)))
	}
	return h
}
