// Package seed provides the seed record model produced by the grain-analysis
// tool and the area filter that separates real seeds from artifacts.
package seed

import (
	"image"

	"seed-synth/pkg/geometry"
)

// MarkerFlag marks contour points belonging to the reference subset.
const MarkerFlag = 3

// ContourPoint is one boundary point of a seed contour.
type ContourPoint struct {
	X    int32 `json:"x"`
	Y    int32 `json:"y"`
	Flag int32 `json:"flag"`
}

// Record represents one detected object decoded from a seed file.
type Record struct {
	Aux          [6][2]int32      `json:"aux"`          // Auxiliary header pairs, unused downstream
	Centroid     geometry.Point2D `json:"centroid"`     // Center of mass in image coordinates
	Intersection geometry.Point2D `json:"intersection"` // Where the contour meets the reference axis
	Length       float64          `json:"length"`
	Width        float64          `json:"width"`
	Area         float64          `json:"area"`
	Perimeter    float64          `json:"perimeter"`
	Circularity  float64          `json:"circularity"`
	Reserved     [3]float64       `json:"-"` // Trailing doubles of the attribute block
	Contour      []ContourPoint   `json:"contour"`
}

// Polygon returns the (x, y) columns of the contour, ignoring flags.
func (r Record) Polygon() []image.Point {
	pts := make([]image.Point, len(r.Contour))
	for i, p := range r.Contour {
		pts[i] = image.Point{X: int(p.X), Y: int(p.Y)}
	}
	return pts
}

// MarkerPoints returns the contour points flagged as the reference subset.
func (r Record) MarkerPoints() []image.Point {
	var pts []image.Point
	for _, p := range r.Contour {
		if p.Flag == MarkerFlag {
			pts = append(pts, image.Point{X: int(p.X), Y: int(p.Y)})
		}
	}
	return pts
}

// Bounds returns the pixel bounding box of the contour.
func (r Record) Bounds() geometry.RectInt {
	return geometry.BoundingBoxInt(r.Polygon())
}
