package geometry

import (
	"image"
	"math"
)

// PolygonArea returns the area enclosed by a simple polygon using the
// shoelace formula. Vertex order does not matter.
func PolygonArea(polygon []image.Point) float64 {
	n := len(polygon)
	if n < 3 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += float64(polygon[i].X)*float64(polygon[j].Y) - float64(polygon[j].X)*float64(polygon[i].Y)
	}
	return math.Abs(sum) / 2
}

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point2D, polygon []image.Point) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		xi, yi := float64(polygon[i].X), float64(polygon[i].Y)
		xj, yj := float64(polygon[j].X), float64(polygon[j].Y)

		// Check if ray from p going right intersects edge i-j
		if ((yi > p.Y) != (yj > p.Y)) &&
			(p.X < (xj-xi)*(p.Y-yi)/(yj-yi)+xi) {
			inside = !inside
		}
	}

	return inside
}

// RotatedExtent returns the half-extent needed to hold r after rotating it by
// any angle about pivot: the largest distance from pivot to a corner of r.
func RotatedExtent(r RectInt, pivot Point2D) float64 {
	corners := []Point2D{
		{X: float64(r.X), Y: float64(r.Y)},
		{X: float64(r.X + r.Width), Y: float64(r.Y)},
		{X: float64(r.X), Y: float64(r.Y + r.Height)},
		{X: float64(r.X + r.Width), Y: float64(r.Y + r.Height)},
	}
	var extent float64
	for _, c := range corners {
		extent = math.Max(extent, pivot.Distance(c))
	}
	return extent
}
