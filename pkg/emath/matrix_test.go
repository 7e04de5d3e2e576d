package emath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMat3Apply(t *testing.T) {
	m := Mat3{
		0.7, 0.3, 0,
		0, 0, 0,
		0, 0, 1,
	}
	out := m.Apply(Vec3{100, 200, 50})
	assert.InDelta(t, 130.0, out[0], 1e-9)
	assert.Equal(t, 0.0, out[1])
	assert.Equal(t, 50.0, out[2])

	assert.Equal(t, Vec3{1, 2, 3}, Identity3().Apply(Vec3{1, 2, 3}))
	assert.Equal(t, m, Identity3().Mult(m))
	assert.Equal(t, m, m.Mult(Identity3()))
}

func TestMat3Rows(t *testing.T) {
	rows := [3][3]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	m := Mat3FromRows(rows)
	assert.Equal(t, 6.0, m.At(1, 2))
	assert.Equal(t, rows, m.Rows())

	m.Set(2, 0, 0.5)
	assert.Equal(t, 0.5, m.Rows()[2][0])
}

func TestMat3ClampCells(t *testing.T) {
	m := Mat3{-1, 0.5, 3, 2, 2.0001, 0, 0, 0, 0}
	c := m.ClampCells(0, 2)
	assert.Equal(t, Mat3{0, 0.5, 2, 2, 2, 0, 0, 0, 0}, c)
	assert.Equal(t, -1.0, m[0], "receiver is a copy")

	assert.True(t, c.ApproxEqual(Mat3{0, 0.5004, 2, 2, 2, 0, 0, 0, 0}, 0.001))
	assert.False(t, c.ApproxEqual(Mat3{0, 0.502, 2, 2, 2, 0, 0, 0, 0}, 0.001))
}

func TestVec3Bounds(t *testing.T) {
	v := Vec3{-2, 128, 300}
	v.FloorAt(0)
	v.CeilingAt(255)
	assert.Equal(t, Vec3{0, 128, 255}, v)
}
