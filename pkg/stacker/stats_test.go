package stacker

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerUsageSplitFocus(t *testing.T) {
	w, h := 64, 16
	_, field, err := Composite(context.Background(), testConfig(), stackOf(t, checkerHalf(w, h, 0, w/2), checkerHalf(w, h, w/2, w)))
	require.NoError(t, err)

	usage := LayerUsage(*field)
	require.Len(t, usage.Vals, w*h)

	counts := map[int]int{}
	for _, v := range usage.Vals {
		counts[int(v)]++
	}
	assert.Len(t, counts, 2, "only layers 0 and 1")
	assert.InDelta(t, w*h/2, counts[0], float64(w*h)/4)
	assert.InDelta(t, w*h/2, counts[1], float64(w*h)/4)

	stats, ok := usage.Stats()
	require.True(t, ok)
	assert.Equal(t, w*h, stats.N)
	assert.InDelta(t, 0.5, stats.Mean, 0.25)
	assert.NotEmpty(t, usage.String())
}

func TestContrastPercentiles(t *testing.T) {
	flat := BuildContrastMap(solidRGBA(8, 8, color.RGBA{50, 50, 50, 0xFF}), ContrastKey{SigmaA: 0, SigmaB: 2})
	assert.Contains(t, ContrastPercentiles(flat), "contrast[n=64, mean 0.00,")

	textured := BuildContrastMap(checkerHalf(32, 8, 0, 32), ContrastKey{SigmaA: 0, SigmaB: 2})
	assert.Contains(t, ContrastPercentiles(textured), "n=256,")
	assert.NotContains(t, ContrastPercentiles(textured), "max 0]")
}
