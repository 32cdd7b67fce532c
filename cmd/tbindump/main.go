// Command tbindump decodes a seed file and prints its records.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"seed-synth/internal/seed"
	"seed-synth/internal/tbin"
)

func main() {
	path := flag.String("f", "", "Path to .tbin seed file")
	minArea := flag.Float64("min-area", 0, "Only show records with area above this (0 = no limit)")
	maxArea := flag.Float64("max-area", 0, "Only show records with area below this (0 = no limit)")
	points := flag.Bool("points", false, "Print contour points")
	flag.Parse()

	if *path == "" {
		fmt.Println("Usage: tbindump -f <seeds.tbin> [-min-area 200] [-max-area 100000] [-points]")
		os.Exit(1)
	}

	buf, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read seed file: %v\n", err)
		os.Exit(1)
	}

	r, err := tbin.NewReader(buf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded %s: %d bytes\n\n", *path, len(buf))
	fmt.Printf("%-6s %8s %10s %10s %10s %10s %8s %7s %8s  %s\n",
		"#", "Offset", "CX", "CY", "Area", "Length", "Circ", "Points", "Markers", "Box")

	var records []seed.Record
	for {
		offset := r.Offset()
		rec, err := r.Next()
		if errors.Is(err, tbin.ErrEndOfStream) {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nStopped at record %d: %v\n", len(records), err)
			os.Exit(1)
		}
		records = append(records, rec)

		if !inRange(rec.Area, *minArea, *maxArea) {
			continue
		}
		box := rec.Bounds()
		fmt.Printf("%-6d %8d %10.1f %10.1f %10.1f %10.1f %8.3f %7d %8d  %dx%d+%d+%d\n",
			len(records)-1, offset, rec.Centroid.X, rec.Centroid.Y,
			rec.Area, rec.Length, rec.Circularity, len(rec.Contour), len(rec.MarkerPoints()),
			box.Width, box.Height, box.X, box.Y)

		if *points {
			for _, p := range rec.Contour {
				fmt.Printf("         (%d, %d) flag=%d\n", p.X, p.Y, p.Flag)
			}
		}
	}

	sum := seed.Summarize(records)
	fmt.Printf("\n%d records\n", sum.Count)
	if sum.Count > 0 {
		fmt.Printf("Area: min %.1f  median %.1f  mean %.1f  max %.1f\n", sum.Min, sum.Median, sum.Mean, sum.Max)
	}

	def := seed.DefaultFilterParams()
	kept := seed.Filter(records, def)
	fmt.Printf("Default filter (%.0f, %.0f) keeps %d\n", def.MinArea, def.MaxArea, len(kept))
}

// inRange applies the display bounds; a zero bound is unset.
func inRange(area, minArea, maxArea float64) bool {
	return (minArea == 0 || area > minArea) && (maxArea == 0 || area < maxArea)
}
