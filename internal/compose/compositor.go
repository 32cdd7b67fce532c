// Package compose synthesizes training images by pasting seeds cut from an
// original image onto a clean background at random positions and rotations.
package compose

import (
	"fmt"
	"image"
	"math/rand"

	"seed-synth/pkg/geometry"

	"gocv.io/x/gocv"
)

// Placement describes where one seed ended up. Placements are the labels of
// the synthetic image.
type Placement struct {
	Seed       int               `json:"seed"`
	Source     geometry.RectInt  `json:"source"`   // Bounding box in the original image
	Centroid   geometry.PointInt `json:"centroid"` // Rotation pivot in the original image
	Angle      float64           `json:"angle"`    // Degrees, counter-clockwise
	Bounds     geometry.RectInt  `json:"bounds"`   // Placed box on the background
	Pixels     int               `json:"pixels"`
	Overlap    float64           `json:"overlap"` // Share of pixels that covered earlier seeds
	Attempts   int               `json:"attempts"`
	Degenerate bool              `json:"degenerate,omitempty"`
	Skipped    bool              `json:"skipped,omitempty"` // Nothing left to paste after rotation
}

// Result holds a synthetic image and the union of all placed seed masks.
type Result struct {
	Image      gocv.Mat
	Mask       gocv.Mat
	Placements []Placement
}

// Close releases the result mats.
func (r *Result) Close() {
	r.Image.Close()
	r.Mask.Close()
}

// Compositor places seeds using an injected random source, so a fixed seed
// reproduces the same image.
type Compositor struct {
	params Params
	rng    *rand.Rand
}

// New creates a Compositor. Params are validated on use.
func New(params Params, rng *rand.Rand) *Compositor {
	return &Compositor{params: params, rng: rng}
}

// Composite extracts every seed blob of mask from original and pastes each,
// rotated and offset at random, onto a copy of background. Later seeds
// overwrite earlier ones where they overlap; the overlap limit in Params
// bounds how much. background is not modified.
func (c *Compositor) Composite(background, original, mask gocv.Mat) (*Result, error) {
	if err := c.params.Validate(); err != nil {
		return nil, err
	}
	if background.Empty() {
		return nil, fmt.Errorf("empty background")
	}
	if background.Type() != original.Type() {
		return nil, fmt.Errorf("background type %v does not match image type %v", background.Type(), original.Type())
	}

	patches, err := ExtractPatches(original, mask)
	if err != nil {
		return nil, err
	}
	defer func() {
		for i := range patches {
			patches[i].Close()
		}
	}()

	return c.CompositePatches(background, patches)
}

// CompositePatches pastes already extracted patches onto a copy of background.
func (c *Compositor) CompositePatches(background gocv.Mat, patches []Patch) (*Result, error) {
	res := &Result{
		Image: background.Clone(),
		Mask:  gocv.NewMatWithSizeFromScalar(zero, background.Rows(), background.Cols(), gocv.MatTypeCV8UC1),
	}

	for i := range patches {
		pl, err := c.place(res, i, &patches[i])
		if err != nil {
			res.Close()
			return nil, err
		}
		res.Placements = append(res.Placements, pl)
	}
	return res, nil
}

func (c *Compositor) place(res *Result, idx int, p *Patch) (Placement, error) {
	angle := c.rng.Float64() * 360
	pl := Placement{
		Seed:       idx,
		Source:     p.Source,
		Centroid:   p.Centroid,
		Angle:      angle,
		Degenerate: p.Degenerate,
	}

	rot, ok := p.Rotate(angle)
	if !ok {
		pl.Skipped = true
		return pl, nil
	}
	defer rot.Close()

	w, h := rot.Mask.Cols(), rot.Mask.Rows()
	canvasW, canvasH := res.Image.Cols(), res.Image.Rows()
	margin := c.params.BorderMargin
	maxX, maxY := canvasW-w-margin, canvasH-h-margin

	perr := &PlacementError{
		Seed:         idx,
		Width:        w,
		Height:       h,
		CanvasWidth:  canvasW,
		CanvasHeight: canvasH,
		Margin:       margin,
	}
	if maxX < margin || maxY < margin {
		return pl, perr
	}

	for attempt := 1; attempt <= c.params.MaxAttempts; attempt++ {
		x := margin + c.rng.Intn(maxX-margin+1)
		y := margin + c.rng.Intn(maxY-margin+1)
		rect := image.Rect(x, y, x+w, y+h)

		overlap := overlapFraction(res.Mask, rect, &rot)
		if c.params.overlapEnforced() && overlap > c.params.MaxOverlapFraction {
			continue
		}

		paste(res, rect, &rot)
		pl.Bounds = geometry.RectFromImage(rect)
		pl.Pixels = rot.Pixels
		pl.Overlap = overlap
		pl.Attempts = attempt
		return pl, nil
	}

	perr.Attempts = c.params.MaxAttempts
	perr.MaxOverlap = c.params.MaxOverlapFraction
	return pl, perr
}

// overlapFraction returns the share of rot's foreground that falls on
// foreground of occupied inside rect.
func overlapFraction(occupied gocv.Mat, rect image.Rectangle, rot *Rotated) float64 {
	if rot.Pixels == 0 {
		return 0
	}

	region := occupied.Region(rect)
	defer region.Close()

	both := gocv.NewMat()
	defer both.Close()
	gocv.BitwiseAnd(region, rot.Mask, &both)

	return float64(gocv.CountNonZero(both)) / float64(rot.Pixels)
}

// paste copies seed pixels where the rotated mask is set and adds the mask
// to the combined mask.
func paste(res *Result, rect image.Rectangle, rot *Rotated) {
	dst := res.Image.Region(rect)
	defer dst.Close()
	rot.Image.CopyToWithMask(&dst, rot.Mask)

	combined := res.Mask.Region(rect)
	defer combined.Close()
	gocv.BitwiseOr(combined, rot.Mask, &combined)
}
