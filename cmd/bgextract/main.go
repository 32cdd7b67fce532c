// Command bgextract builds the seed masks for an image and removes the seeds
// by inpainting, writing the clean background without synthesizing samples.
package main

import (
	"flag"
	"fmt"
	"os"

	"seed-synth/internal/config"
	"seed-synth/internal/logging"
	"seed-synth/internal/synth"
)

func main() {
	fs := flag.NewFlagSet("bgextract", flag.ExitOnError)
	flags := config.BindFlags(fs)
	fs.Parse(os.Args[1:])

	// Shares SEEDSYNTH_* overrides with seedsynth.
	if err := flags.ApplyEnv("SEEDSYNTH", os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read environment: %v\n", err)
		os.Exit(1)
	}

	cfg, err := flags.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if cfg.SeedFile == "" || cfg.Image == "" {
		fmt.Println("Usage: bgextract -seeds <file.tbin> -image <photo> [-out dir] [-dilation 50] [-inpaint-radius 30] [-inpaint-method telea|ns]")
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	m, err := synth.New(cfg, logger).RunBackground()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Background extraction failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Kept %d of %d seeds\n", m.Records.Kept, m.Records.Decoded)
	fmt.Printf("Wrote %s, %s and %s to %s\n", m.Background, m.Mask, m.DilatedMask, cfg.OutputDir)
}
