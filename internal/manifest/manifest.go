// Package manifest provides the run manifest: a JSON record of the inputs,
// parameters and labelled outputs of one synthesis run.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"seed-synth/internal/background"
	"seed-synth/internal/compose"
	"seed-synth/internal/mask"
	"seed-synth/internal/seed"
)

// FileName is the manifest name inside an output directory.
const FileName = "manifest.json"

// CurrentVersion is the manifest schema version.
const CurrentVersion = 1

// File represents a run manifest (manifest.json).
type File struct {
	Version int       `json:"version"`
	Tool    string    `json:"tool"`
	Created time.Time `json:"created"`
	Seed    int64     `json:"seed,omitempty"` // Zero when no samples were drawn

	// Input paths (relative to the manifest)
	SeedFile        string `json:"seed_file"`
	Image           string `json:"image"`
	BackgroundImage string `json:"background_image,omitempty"`

	// Output paths (relative to the manifest)
	Config      string `json:"config"` // Resolved configuration, reusable with -config
	Background  string `json:"background,omitempty"`
	Mask        string `json:"mask"`
	DilatedMask string `json:"dilated_mask"`

	Records Records `json:"records"`
	Params  Params  `json:"params"`

	Samples []Sample `json:"samples"`
}

// Records summarizes decoding and filtering.
type Records struct {
	Decoded      int              `json:"decoded"`
	Kept         int              `json:"kept"`
	DecodedAreas seed.AreaSummary `json:"decoded_areas"`
	KeptAreas    seed.AreaSummary `json:"kept_areas"`
}

// Params records the parameters a run used.
type Params struct {
	Filter  seed.FilterParams  `json:"filter"`
	Mask    mask.Params        `json:"mask"`
	Inpaint *background.Params `json:"inpaint,omitempty"`
	Compose compose.Params     `json:"compose"`
}

// Sample is one synthetic image and its labels.
type Sample struct {
	ID         string              `json:"id"`
	Image      string              `json:"image"`
	Mask       string              `json:"mask"`
	Placements []compose.Placement `json:"placements"`
}

// New creates an empty manifest.
func New(tool string, seed int64) *File {
	return &File{
		Version: CurrentVersion,
		Tool:    tool,
		Created: time.Now().UTC(),
		Seed:    seed,
	}
}

// Load loads a manifest from a file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m File
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Version > CurrentVersion {
		return nil, fmt.Errorf("manifest version %d is newer than supported %d", m.Version, CurrentVersion)
	}

	return &m, nil
}

// Save replaces the manifest at path atomically.
func (m *File) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0644)
}

// AddSample appends a sample.
func (m *File) AddSample(s Sample) {
	m.Samples = append(m.Samples, s)
}

// Placed returns the number of seeds pasted across all samples.
func (m *File) Placed() int {
	n := 0
	for _, s := range m.Samples {
		for _, p := range s.Placements {
			if !p.Skipped {
				n++
			}
		}
	}
	return n
}

// SetInputs records the input paths relative to the manifest directory, so
// the output directory can be moved together with its inputs.
func (m *File) SetInputs(manifestDir, seedFile, image, backgroundImage string) {
	m.SeedFile = Rel(manifestDir, seedFile)
	m.Image = Rel(manifestDir, image)
	if backgroundImage != "" {
		m.BackgroundImage = Rel(manifestDir, backgroundImage)
	}
}

// Rel returns path relative to the manifest directory, or path unchanged
// when no relative form exists. Relative arguments are resolved against the
// working directory first.
func Rel(manifestDir, path string) string {
	base, err := filepath.Abs(manifestDir)
	if err != nil {
		return path
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return path
	}
	return rel
}
