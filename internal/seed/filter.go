package seed

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// FilterParams holds the area bounds used to reject detector artifacts.
// Real seeds fall strictly between MinArea and MaxArea; ruler markings are
// larger and specks are smaller. The bounds depend on the camera setup.
type FilterParams struct {
	MinArea float64 `yaml:"min_area" json:"min_area"`
	MaxArea float64 `yaml:"max_area" json:"max_area"`
}

// DefaultFilterParams returns the bounds tuned for the reference camera setup,
// where seed areas are roughly 2000-5000 px.
func DefaultFilterParams() FilterParams {
	return FilterParams{
		MinArea: 200,
		MaxArea: 100000,
	}
}

// WithAreaRange returns a copy of params with custom area bounds.
func (p FilterParams) WithAreaRange(minArea, maxArea float64) FilterParams {
	p.MinArea = minArea
	p.MaxArea = maxArea
	return p
}

// Validate checks that the bounds describe a non-empty open interval.
func (p FilterParams) Validate() error {
	if p.MinArea < 0 {
		return fmt.Errorf("min area must be non-negative, got %g", p.MinArea)
	}
	if p.MaxArea <= p.MinArea {
		return fmt.Errorf("max area %g must exceed min area %g", p.MaxArea, p.MinArea)
	}
	return nil
}

// Accept reports whether a record's area lies strictly inside the bounds.
func (p FilterParams) Accept(r Record) bool {
	return r.Area > p.MinArea && r.Area < p.MaxArea
}

// Filter returns the records accepted by params, preserving input order.
func Filter(records []Record, params FilterParams) []Record {
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if params.Accept(r) {
			kept = append(kept, r)
		}
	}
	return kept
}

// AreaSummary describes the area distribution of a set of records.
type AreaSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Summarize computes area statistics. The zero summary is returned for no records.
func Summarize(records []Record) AreaSummary {
	if len(records) == 0 {
		return AreaSummary{}
	}

	areas := make([]float64, len(records))
	for i, r := range records {
		areas[i] = r.Area
	}
	sort.Float64s(areas)

	return AreaSummary{
		Count:  len(areas),
		Min:    areas[0],
		Max:    areas[len(areas)-1],
		Mean:   stat.Mean(areas, nil),
		Median: median(areas),
	}
}

// median of sorted values, averaging the middle pair for even counts.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
