package emath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToStdSize(t *testing.T) {
	assert.Equal(t, 45.0, ToStdSize(45, 1920))
	assert.Equal(t, 22.5, ToStdSize(45, 960))
	assert.Equal(t, 0.0, ToStdSize(0, 4000))
}

func TestGammaCorrect(t *testing.T) {
	tests := []struct {
		name            string
		v, gamma, scale float64
		want            float64
	}{
		{"unity gamma", 128, 1, 255, 128},
		{"top of range", 255, 0.1, 255, 255},
		{"zero", 0, 0.1, 255, 0},
		{"negative floors", -5, 2, 255, 0},
		{"unit scale", 0.25, 2, 1, 0.5},
		{"zero scale", 10, 2, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GammaCorrect(tc.v, tc.gamma, tc.scale)
			assert.InDelta(t, tc.want, got, 1e-9)
			assert.False(t, math.IsNaN(got))
		})
	}
}

func TestClampToByte(t *testing.T) {
	assert.Equal(t, uint8(0), ClampToByte(-3))
	assert.Equal(t, uint8(0), ClampToByte(math.NaN()))
	assert.Equal(t, uint8(254), ClampToByte(254.9))
	assert.Equal(t, uint8(255), ClampToByte(1e9))
	assert.Equal(t, uint8(255), ClampToByte(math.Inf(1)))
	assert.Equal(t, 2.0, Clamp(0, 2, 7))
	assert.Equal(t, 0.1, Clamp(0.1, 3, 0.01))
}
