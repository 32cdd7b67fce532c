package geometry

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolygonArea(t *testing.T) {
	tests := []struct {
		name    string
		polygon []image.Point
		want    float64
	}{
		{"square", []image.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, 100},
		{"clockwise square", []image.Point{{0, 0}, {0, 10}, {10, 10}, {10, 0}}, 100},
		{"triangle", []image.Point{{0, 0}, {4, 0}, {0, 3}}, 6},
		{"degenerate", []image.Point{{0, 0}, {4, 0}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PolygonArea(tt.polygon), 1e-9)
		})
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []image.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

	assert.True(t, PointInPolygon(Point2D{X: 5, Y: 5}, square))
	assert.False(t, PointInPolygon(Point2D{X: 15, Y: 5}, square))
	assert.False(t, PointInPolygon(Point2D{X: 5, Y: 5}, square[:2]))
}

func TestBoundingBoxInt(t *testing.T) {
	box := BoundingBoxInt([]image.Point{{3, 7}, {10, 2}, {5, 9}})
	assert.Equal(t, RectInt{X: 3, Y: 2, Width: 8, Height: 8}, box)
	assert.Equal(t, RectInt{}, BoundingBoxInt(nil))
}

func TestRectIntWithin(t *testing.T) {
	r := RectInt{X: 80, Y: 80, Width: 20, Height: 20}
	assert.True(t, r.Within(100, 100))
	assert.False(t, r.Within(99, 100))

	r.X = -1
	assert.False(t, r.Within(100, 100))
}

func TestRotatedExtent(t *testing.T) {
	r := RectInt{X: 0, Y: 0, Width: 10, Height: 10}
	got := RotatedExtent(r, r.Center())
	assert.InDelta(t, 5*math.Sqrt2, got, 1e-9)
}
