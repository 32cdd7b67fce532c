// Package mask rasterizes seed contours into binary occupancy masks.
package mask

import (
	"fmt"
	"image"
	"image/color"

	"seed-synth/internal/seed"

	"gocv.io/x/gocv"
)

// Foreground is the mask value of seed pixels; background pixels are 0.
const Foreground = 255

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Params controls the dilated mask used for background reconstruction.
type Params struct {
	// DilationKernel is the side of the square structuring element.
	DilationKernel int `yaml:"dilation_kernel" json:"dilation_kernel"`
}

// DefaultParams returns a 50x50 dilation, wide enough to swallow seed halos.
func DefaultParams() Params {
	return Params{DilationKernel: 50}
}

// Validate checks the kernel size.
func (p Params) Validate() error {
	if p.DilationKernel < 1 {
		return fmt.Errorf("dilation kernel must be at least 1, got %d", p.DilationKernel)
	}
	return nil
}

// Result holds the seed mask and its dilated copy. Both are 8-bit single
// channel mats the size of the source image.
type Result struct {
	Mask    gocv.Mat
	Dilated gocv.Mat
}

// Close releases both mats.
func (r *Result) Close() {
	r.Mask.Close()
	r.Dilated.Close()
}

// Build paints every record's contour polygon into a width x height mask and
// dilates a copy of it once with a square kernel.
func Build(width, height int, records []seed.Record, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	m, err := Fill(width, height, records)
	if err != nil {
		return nil, err
	}

	dilated := gocv.NewMat()
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: params.DilationKernel, Y: params.DilationKernel})
	defer kernel.Close()
	gocv.Dilate(m, &dilated, kernel)

	return &Result{Mask: m, Dilated: dilated}, nil
}

// Fill returns a mask with each contour polygon filled with Foreground.
// Contour vertices are painted explicitly as well, so anti-aliased edge
// coordinates never leave gaps. Overlapping seeds simply paint the same pixels.
func Fill(width, height int, records []seed.Record) (gocv.Mat, error) {
	if width <= 0 || height <= 0 {
		return gocv.NewMat(), fmt.Errorf("invalid mask size %dx%d", width, height)
	}

	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC1)

	for i, r := range records {
		poly := r.Polygon()
		if len(poly) < 3 {
			m.Close()
			return gocv.NewMat(), fmt.Errorf("seed %d: contour has %d points, need at least 3", i, len(poly))
		}

		for _, p := range poly {
			if p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height {
				m.SetUCharAt(p.Y, p.X, Foreground)
			}
		}

		pv := gocv.NewPointsVectorFromPoints([][]image.Point{poly})
		gocv.FillPoly(&m, pv, white)
		pv.Close()
	}

	return m, nil
}

// CountForeground returns the number of non-zero pixels in m.
func CountForeground(m gocv.Mat) int {
	return gocv.CountNonZero(m)
}
