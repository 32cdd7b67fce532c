package compose

import (
	"errors"
	"fmt"
)

// ErrPlacementInfeasible is matched by every PlacementError.
var ErrPlacementInfeasible = errors.New("placement infeasible")

// PlacementError reports a seed that could not be placed on the background.
type PlacementError struct {
	Seed          int // Index of the seed component
	Width, Height int // Rotated seed size
	CanvasWidth   int
	CanvasHeight  int
	Margin        int
	Attempts      int     // Offsets tried; 0 when the seed cannot fit at all
	MaxOverlap    float64 // Overlap limit in force when attempts were exhausted
}

func (e *PlacementError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("seed %d (%dx%d) does not fit on %dx%d background with margin %d",
			e.Seed, e.Width, e.Height, e.CanvasWidth, e.CanvasHeight, e.Margin)
	}
	return fmt.Sprintf("seed %d (%dx%d) overlaps placed seeds by more than %.2f after %d attempts on %dx%d background",
		e.Seed, e.Width, e.Height, e.MaxOverlap, e.Attempts, e.CanvasWidth, e.CanvasHeight)
}

func (e *PlacementError) Is(target error) bool {
	return target == ErrPlacementInfeasible
}
