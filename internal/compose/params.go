package compose

import "fmt"

// Params holds placement constraints.
type Params struct {
	// MaxOverlapFraction is the largest share of a seed's pixels that may
	// land on seeds already placed. Values >= 1 disable the check.
	MaxOverlapFraction float64 `yaml:"max_overlap_fraction" json:"max_overlap_fraction"`
	// BorderMargin keeps placed seeds this many pixels away from the edges.
	BorderMargin int `yaml:"border_margin" json:"border_margin"`
	// MaxAttempts bounds the number of random offsets tried per seed.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
}

// DefaultParams returns the placement constraints used for training data.
func DefaultParams() Params {
	return Params{
		MaxOverlapFraction: 0.1,
		BorderMargin:       0,
		MaxAttempts:        100,
	}
}

// WithOverlap returns a copy of params with a custom overlap limit.
func (p Params) WithOverlap(fraction float64) Params {
	p.MaxOverlapFraction = fraction
	return p
}

// WithBorderMargin returns a copy of params with a custom border margin.
func (p Params) WithBorderMargin(margin int) Params {
	p.BorderMargin = margin
	return p
}

// Validate checks the constraint ranges.
func (p Params) Validate() error {
	if p.MaxOverlapFraction < 0 {
		return fmt.Errorf("max overlap fraction must be non-negative, got %g", p.MaxOverlapFraction)
	}
	if p.BorderMargin < 0 {
		return fmt.Errorf("border margin must be non-negative, got %d", p.BorderMargin)
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	return nil
}

func (p Params) overlapEnforced() bool {
	return p.MaxOverlapFraction < 1
}
