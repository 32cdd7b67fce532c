// Package synth runs the synthesis pipeline: decode seeds, filter them,
// rasterize masks, obtain a clean background and composite labelled
// training images.
package synth

import (
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"seed-synth/internal/background"
	"seed-synth/internal/compose"
	"seed-synth/internal/config"
	seedimage "seed-synth/internal/image"
	"seed-synth/internal/manifest"
	"seed-synth/internal/mask"
	"seed-synth/internal/seed"
	"seed-synth/internal/tbin"
	"seed-synth/internal/version"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Output file names inside the output directory.
const (
	BackgroundFile  = "background.jpg"
	MaskFile        = "mask.png"
	DilatedMaskFile = "dilated_mask.png"
	ConfigFile      = "config.yaml"
)

// Pipeline runs one configured synthesis.
type Pipeline struct {
	cfg       config.Config
	log       *log.Logger
	inpainter background.Inpainter
	save      func(img image.Image, path string) error
}

// New creates a pipeline. A nil logger uses the standard logger.
func New(cfg config.Config, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Pipeline{cfg: cfg, log: logger, save: seedimage.Save}
}

// WithInpainter replaces the inpainting method named in the config.
func (p *Pipeline) WithInpainter(in background.Inpainter) *Pipeline {
	p.inpainter = in
	return p
}

// scene is everything derived from the inputs before compositing.
type scene struct {
	original   gocv.Mat
	masks      *mask.Result
	background gocv.Mat
	extracted  bool
	records    manifest.Records
}

func (s *scene) Close() {
	s.original.Close()
	if s.masks != nil {
		s.masks.Close()
	}
	s.background.Close()
}

// sample is a composited image held in memory until everything succeeded.
type sample struct {
	id         string
	image      image.Image
	mask       image.Image
	placements []compose.Placement
}

// Run synthesizes cfg.Count images and writes them with their masks, the
// scene masks, the extracted background and the manifest. Nothing is written
// unless every stage succeeds.
func (p *Pipeline) Run() (*manifest.File, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	rngSeed := p.cfg.Seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))
	p.log.WithField("seed", rngSeed).Info("Starting synthesis")

	sc, err := p.prepare()
	if err != nil {
		return nil, err
	}
	defer sc.Close()

	samples, err := p.synthesize(sc, rng)
	if err != nil {
		return nil, err
	}

	m := p.newManifest(rngSeed, sc)
	if err := p.write(m, sc, samples); err != nil {
		return nil, err
	}
	return m, nil
}

// RunBackground runs only the stages up to the background and writes the
// scene masks, the background and a manifest without samples. The background
// is always inpainted, and the manifest carries no seed since nothing random
// was drawn.
func (p *Pipeline) RunBackground() (*manifest.File, error) {
	bp := *p
	bp.cfg.Count = 1
	bp.cfg.BackgroundImage = ""
	if err := bp.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	sc, err := bp.prepare()
	if err != nil {
		return nil, err
	}
	defer sc.Close()

	m := bp.newManifest(0, sc)
	if err := bp.write(m, sc, nil); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *Pipeline) prepare() (*scene, error) {
	cfg := p.cfg

	records, err := tbin.ReadFileLimit(cfg.SeedFile, cfg.MaxPointCount)
	if err != nil {
		return nil, err
	}
	decoded := seed.Summarize(records)
	p.log.WithFields(log.Fields{
		"file":        cfg.SeedFile,
		"records":     decoded.Count,
		"area_min":    decoded.Min,
		"area_median": decoded.Median,
		"area_max":    decoded.Max,
	}).Info("Decoded seed file")

	kept := seed.Filter(records, cfg.Filter)
	keptSummary := seed.Summarize(kept)
	p.log.WithFields(log.Fields{
		"kept":     len(kept),
		"dropped":  len(records) - len(kept),
		"min_area": cfg.Filter.MinArea,
		"max_area": cfg.Filter.MaxArea,
	}).Info("Filtered seeds")
	if len(kept) == 0 {
		p.log.Warn("No seeds left after filtering; samples will contain only the background")
	}

	sc := &scene{
		background: gocv.NewMat(),
		records: manifest.Records{
			Decoded:      len(records),
			Kept:         len(kept),
			DecodedAreas: decoded,
			KeptAreas:    keptSummary,
		},
	}

	sc.original, err = seedimage.LoadMat(cfg.Image)
	if err != nil {
		sc.Close()
		return nil, fmt.Errorf("failed to load image %s: %w", cfg.Image, err)
	}

	sc.masks, err = mask.Build(sc.original.Cols(), sc.original.Rows(), kept, cfg.Mask)
	if err != nil {
		sc.Close()
		return nil, fmt.Errorf("failed to build masks: %w", err)
	}
	p.log.WithFields(log.Fields{
		"width":   sc.original.Cols(),
		"height":  sc.original.Rows(),
		"pixels":  mask.CountForeground(sc.masks.Mask),
		"dilated": mask.CountForeground(sc.masks.Dilated),
		"kernel":  cfg.Mask.DilationKernel,
	}).Info("Built seed masks")

	bg, err := p.background(sc)
	if err != nil {
		bg.Close()
		sc.Close()
		return nil, err
	}
	sc.background.Close()
	sc.background = bg

	return sc, nil
}

func (p *Pipeline) background(sc *scene) (gocv.Mat, error) {
	cfg := p.cfg

	if cfg.BackgroundImage != "" {
		bg, err := seedimage.LoadMat(cfg.BackgroundImage)
		if err != nil {
			return bg, fmt.Errorf("failed to load background %s: %w", cfg.BackgroundImage, err)
		}
		p.log.WithField("file", cfg.BackgroundImage).Info("Loaded background")
		return bg, nil
	}

	in := p.inpainter
	if in == nil {
		var err error
		in, err = cfg.Inpaint.Inpainter()
		if err != nil {
			return gocv.NewMat(), err
		}
	}

	start := time.Now()
	bg, err := background.Extract(sc.original, sc.masks.Dilated, cfg.Inpaint.Radius, in)
	if err != nil {
		return bg, fmt.Errorf("failed to extract background: %w", err)
	}
	sc.extracted = true
	p.log.WithFields(log.Fields{
		"method":   cfg.Inpaint.Method,
		"radius":   cfg.Inpaint.Radius,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("Extracted background")
	return bg, nil
}

func (p *Pipeline) synthesize(sc *scene, rng *rand.Rand) ([]sample, error) {
	patches, err := compose.ExtractPatches(sc.original, sc.masks.Mask)
	if err != nil {
		return nil, fmt.Errorf("failed to extract seeds: %w", err)
	}
	defer func() {
		for i := range patches {
			patches[i].Close()
		}
	}()

	comp := compose.New(p.cfg.Compose, rng)
	samples := make([]sample, 0, p.cfg.Count)
	for i := 0; i < p.cfg.Count; i++ {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, err
		}

		s, err := composite(comp, sc.background, patches, id.String())
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i+1, err)
		}

		p.log.WithFields(log.Fields{
			"id":     s.id,
			"seeds":  len(s.placements),
			"sample": i + 1,
			"of":     p.cfg.Count,
		}).Debug("Composited sample")
		samples = append(samples, s)
	}
	return samples, nil
}

func composite(comp *compose.Compositor, bg gocv.Mat, patches []compose.Patch, id string) (sample, error) {
	res, err := comp.CompositePatches(bg, patches)
	if err != nil {
		return sample{}, err
	}
	defer res.Close()

	img, err := seedimage.FromMat(res.Image)
	if err != nil {
		return sample{}, err
	}
	m, err := seedimage.FromMat(res.Mask)
	if err != nil {
		return sample{}, err
	}
	return sample{id: id, image: img, mask: m, placements: res.Placements}, nil
}

func (p *Pipeline) newManifest(rngSeed int64, sc *scene) *manifest.File {
	cfg := p.cfg

	m := manifest.New(version.String(), rngSeed)
	m.SetInputs(cfg.OutputDir, cfg.SeedFile, cfg.Image, cfg.BackgroundImage)
	m.Config = ConfigFile
	m.Mask = MaskFile
	m.DilatedMask = DilatedMaskFile
	m.Records = sc.records
	m.Params = manifest.Params{
		Filter:  cfg.Filter,
		Mask:    cfg.Mask,
		Compose: cfg.Compose,
	}
	if sc.extracted {
		m.Background = BackgroundFile
		inpaint := cfg.Inpaint
		m.Params.Inpaint = &inpaint
	}
	return m
}

// write stages every output in a temporary sibling of the output directory
// and then moves the files into place, manifest last. A failure while
// staging leaves the output directory untouched; a manifest in the output
// directory means the run completed.
func (p *Pipeline) write(m *manifest.File, sc *scene, samples []sample) error {
	dir := filepath.Clean(p.cfg.OutputDir)
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	stage, err := os.MkdirTemp(parent, ".seedsynth-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stage)

	files, err := p.stage(stage, m, sc, samples)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, name := range files {
		if err := os.Rename(filepath.Join(stage, name), filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("failed to move %s into place: %w", name, err)
		}
	}

	p.log.WithFields(log.Fields{
		"dir":     dir,
		"samples": len(samples),
		"placed":  m.Placed(),
	}).Info("Wrote outputs")
	return nil
}

// stage writes all outputs into dir and returns their names, manifest last.
func (p *Pipeline) stage(dir string, m *manifest.File, sc *scene, samples []sample) ([]string, error) {
	var files []string

	if err := seedimage.SaveMat(sc.masks.Mask, filepath.Join(dir, MaskFile)); err != nil {
		return nil, err
	}
	if err := seedimage.SaveMat(sc.masks.Dilated, filepath.Join(dir, DilatedMaskFile)); err != nil {
		return nil, err
	}
	files = append(files, MaskFile, DilatedMaskFile)

	if sc.extracted {
		if err := seedimage.SaveMat(sc.background, filepath.Join(dir, BackgroundFile)); err != nil {
			return nil, err
		}
		files = append(files, BackgroundFile)
	}

	for _, s := range samples {
		imgName := s.id + ".jpg"
		maskName := s.id + "_mask.png"
		if err := p.save(s.image, filepath.Join(dir, imgName)); err != nil {
			return nil, err
		}
		if err := p.save(s.mask, filepath.Join(dir, maskName)); err != nil {
			return nil, err
		}
		files = append(files, imgName, maskName)
		m.AddSample(manifest.Sample{
			ID:         s.id,
			Image:      imgName,
			Mask:       maskName,
			Placements: s.placements,
		})
	}

	cfg := p.cfg
	if m.Seed != 0 {
		cfg.Seed = m.Seed
	}
	data, err := cfg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := renameio.WriteFile(filepath.Join(dir, ConfigFile), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write config: %w", err)
	}
	files = append(files, ConfigFile)

	if err := m.Save(filepath.Join(dir, manifest.FileName)); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	return append(files, manifest.FileName), nil
}
