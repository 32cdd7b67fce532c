package compose

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"seed-synth/pkg/geometry"

	"gocv.io/x/gocv"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	zero  = gocv.NewScalar(0, 0, 0, 0)
)

// Patch is one seed cut out of the original image. The canvas is square and
// centred on the seed centroid, and large enough that rotating about the
// centroid never pushes seed pixels off it.
type Patch struct {
	Image      gocv.Mat          // Seed pixels, zero elsewhere
	Mask       gocv.Mat          // 255 on seed pixels
	Source     geometry.RectInt  // Bounding box in the original image
	Centroid   geometry.PointInt // Centroid in original image coordinates
	Degenerate bool              // Mask had zero area; Centroid is the box center
}

// Close releases the patch mats.
func (p *Patch) Close() {
	p.Image.Close()
	p.Mask.Close()
}

// Pivot returns the centroid in canvas coordinates.
func (p *Patch) Pivot() image.Point {
	return image.Point{X: p.Mask.Cols() / 2, Y: p.Mask.Rows() / 2}
}

// ExtractPatches cuts one patch per connected foreground blob of mask out of
// original. Only external boundaries are used, so holes inside a seed are
// filled.
func ExtractPatches(original, mask gocv.Mat) ([]Patch, error) {
	if original.Empty() {
		return nil, fmt.Errorf("empty image")
	}
	if mask.Channels() != 1 {
		return nil, fmt.Errorf("mask must be single channel, got %d channels", mask.Channels())
	}
	if mask.Rows() != original.Rows() || mask.Cols() != original.Cols() {
		return nil, fmt.Errorf("mask size %dx%d does not match image size %dx%d",
			mask.Cols(), mask.Rows(), original.Cols(), original.Rows())
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	patches := make([]Patch, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		patches = append(patches, extractPatch(original, contours, i))
	}
	return patches, nil
}

func extractPatch(original gocv.Mat, contours gocv.PointsVector, idx int) Patch {
	rows, cols := original.Rows(), original.Cols()

	component := gocv.NewMatWithSizeFromScalar(zero, rows, cols, gocv.MatTypeCV8UC1)
	defer component.Close()
	gocv.DrawContours(&component, contours, idx, white, -1)

	box := gocv.BoundingRect(contours.At(idx))
	centroid, degenerate := centroidOf(component, box)

	extent := int(math.Ceil(geometry.RotatedExtent(geometry.RectFromImage(box), centroid.ToFloat()))) + 1
	side := 2*extent + 1
	window := image.Rect(centroid.X-extent, centroid.Y-extent, centroid.X+extent+1, centroid.Y+extent+1)
	src := window.Intersect(image.Rect(0, 0, cols, rows))
	dst := src.Sub(window.Min)

	p := Patch{
		Image:      gocv.NewMatWithSizeFromScalar(zero, side, side, original.Type()),
		Mask:       gocv.NewMatWithSizeFromScalar(zero, side, side, gocv.MatTypeCV8UC1),
		Source:     geometry.RectFromImage(box),
		Centroid:   centroid,
		Degenerate: degenerate,
	}

	srcImg := original.Region(src)
	defer srcImg.Close()
	srcMask := component.Region(src)
	defer srcMask.Close()
	dstImg := p.Image.Region(dst)
	defer dstImg.Close()
	dstMask := p.Mask.Region(dst)
	defer dstMask.Close()

	srcImg.CopyToWithMask(&dstImg, srcMask)
	srcMask.CopyTo(&dstMask)

	return p
}

// centroidOf returns the centroid of the foreground inside box from image
// moments, or the box center when the box holds no foreground.
func centroidOf(m gocv.Mat, box image.Rectangle) (geometry.PointInt, bool) {
	region := m.Region(box)
	defer region.Close()

	moments := gocv.Moments(region, true)
	m00 := moments["m00"]
	if m00 == 0 {
		return geometry.PointInt{X: box.Min.X + box.Dx()/2, Y: box.Min.Y + box.Dy()/2}, true
	}
	return geometry.PointInt{
		X: box.Min.X + int(moments["m10"]/m00),
		Y: box.Min.Y + int(moments["m01"]/m00),
	}, false
}

// Rotated is a patch after rotation, trimmed to the tight box of its mask.
type Rotated struct {
	Image  gocv.Mat
	Mask   gocv.Mat
	Pixels int // Foreground pixel count
}

// Close releases the rotated mats.
func (r *Rotated) Close() {
	r.Image.Close()
	r.Mask.Close()
}

// Rotate turns the patch by angle degrees (counter-clockwise, OpenCV
// convention) about its centroid. Seed pixels are interpolated bilinearly;
// the mask uses nearest neighbour so it stays binary. It returns false when
// no foreground survives.
func (p *Patch) Rotate(angle float64) (Rotated, bool) {
	size := image.Point{X: p.Mask.Cols(), Y: p.Mask.Rows()}
	rot := gocv.GetRotationMatrix2D(p.Pivot(), angle, 1.0)
	defer rot.Close()

	img := gocv.NewMat()
	defer img.Close()
	gocv.WarpAffineWithParams(p.Image, &img, rot, size, gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{})

	m := gocv.NewMat()
	defer m.Close()
	gocv.WarpAffineWithParams(p.Mask, &m, rot, size, gocv.InterpolationNearestNeighbor, gocv.BorderConstant, color.RGBA{})

	tight, ok := nonZeroBounds(m)
	if !ok {
		return Rotated{}, false
	}

	imgROI := img.Region(tight)
	defer imgROI.Close()
	maskROI := m.Region(tight)
	defer maskROI.Close()

	return Rotated{
		Image:  imgROI.Clone(),
		Mask:   maskROI.Clone(),
		Pixels: gocv.CountNonZero(maskROI),
	}, true
}

// nonZeroBounds returns the smallest rectangle holding every non-zero pixel
// of a continuous single-channel mat.
func nonZeroBounds(m gocv.Mat) (image.Rectangle, bool) {
	rows, cols := m.Rows(), m.Cols()
	data := m.ToBytes()

	minX, minY, maxX, maxY := cols, rows, -1, -1
	for y := 0; y < rows; y++ {
		row := data[y*cols : (y+1)*cols]
		for x, v := range row {
			if v == 0 {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}
