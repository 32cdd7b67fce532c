// Package config holds the settings of a synthesis run and loads them from
// YAML files and command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"seed-synth/internal/background"
	"seed-synth/internal/compose"
	"seed-synth/internal/mask"
	"seed-synth/internal/seed"
	"seed-synth/internal/tbin"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface of the pipeline.
type Config struct {
	// Inputs
	SeedFile        string `yaml:"seed_file"`
	Image           string `yaml:"image"`
	BackgroundImage string `yaml:"background_image"` // Skip inpainting and use this image

	// Outputs
	OutputDir string `yaml:"output_dir"`
	Count     int    `yaml:"count"` // Synthetic images per run

	// Seed for rotation and placement; 0 picks one and logs it
	Seed int64 `yaml:"seed"`

	MaxPointCount int `yaml:"max_point_count"`

	Filter  seed.FilterParams `yaml:"filter"`
	Mask    mask.Params       `yaml:"mask"`
	Inpaint background.Params `yaml:"inpaint"`
	Compose compose.Params    `yaml:"compose"`
	Log     Log               `yaml:"log"`
}

// Log configures logging output.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		OutputDir:     "out",
		Count:         1,
		MaxPointCount: tbin.DefaultMaxPointCount,
		Filter:        seed.DefaultFilterParams(),
		Mask:          mask.DefaultParams(),
		Inpaint:       background.DefaultParams(),
		Compose:       compose.DefaultParams(),
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section. It does not touch the filesystem.
func (c Config) Validate() error {
	if c.SeedFile == "" {
		return fmt.Errorf("seed file is required")
	}
	if c.Image == "" {
		return fmt.Errorf("image is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.Count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", c.Count)
	}
	if c.MaxPointCount < 3 {
		return fmt.Errorf("max point count must be at least 3, got %d", c.MaxPointCount)
	}
	if err := c.Filter.Validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if err := c.Mask.Validate(); err != nil {
		return fmt.Errorf("mask: %w", err)
	}
	if c.BackgroundImage == "" {
		if err := c.Inpaint.Validate(); err != nil {
			return fmt.Errorf("inpaint: %w", err)
		}
	}
	if err := c.Compose.Validate(); err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	return nil
}

// Marshal encodes the configuration as YAML, e.g. to record a run.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
