package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/sfomuseum/go-flags/flagset"
)

// Flags binds command-line flags to a configuration overlay. Only flags that
// were actually set override values from the config file.
type Flags struct {
	fs         *flag.FlagSet
	overlay    Config
	configPath string
	setters    map[string]func(dst, src *Config)
}

// BindFlags registers the pipeline flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{
		fs:      fs,
		overlay: Default(),
		setters: make(map[string]func(dst, src *Config)),
	}
	o := &f.overlay

	fs.StringVar(&f.configPath, "config", "", "Path to YAML config file")

	f.str("seeds", &o.SeedFile, "Path to .tbin seed file", func(d, s *Config) { d.SeedFile = s.SeedFile })
	f.str("image", &o.Image, "Path to original image", func(d, s *Config) { d.Image = s.Image })
	f.str("background", &o.BackgroundImage, "Use this background image instead of inpainting",
		func(d, s *Config) { d.BackgroundImage = s.BackgroundImage })
	f.str("out", &o.OutputDir, "Output directory", func(d, s *Config) { d.OutputDir = s.OutputDir })
	f.integer("count", &o.Count, "Number of synthetic images", func(d, s *Config) { d.Count = s.Count })
	f.setters["seed"] = func(d, s *Config) { d.Seed = s.Seed }
	fs.Int64Var(&o.Seed, "seed", o.Seed, "Random seed (0 = pick one)")
	f.integer("max-points", &o.MaxPointCount, "Largest contour point count accepted per record",
		func(d, s *Config) { d.MaxPointCount = s.MaxPointCount })

	f.float("min-area", &o.Filter.MinArea, "Smallest seed area kept (exclusive)",
		func(d, s *Config) { d.Filter.MinArea = s.Filter.MinArea })
	f.float("max-area", &o.Filter.MaxArea, "Largest seed area kept (exclusive)",
		func(d, s *Config) { d.Filter.MaxArea = s.Filter.MaxArea })
	f.integer("dilation", &o.Mask.DilationKernel, "Dilation kernel size in pixels",
		func(d, s *Config) { d.Mask.DilationKernel = s.Mask.DilationKernel })
	f.float("inpaint-radius", &o.Inpaint.Radius, "Inpainting radius in pixels",
		func(d, s *Config) { d.Inpaint.Radius = s.Inpaint.Radius })
	f.str("inpaint-method", &o.Inpaint.Method, "Inpainting method: telea or ns",
		func(d, s *Config) { d.Inpaint.Method = s.Inpaint.Method })
	f.float("max-overlap", &o.Compose.MaxOverlapFraction, "Largest overlap fraction with placed seeds (>=1 disables)",
		func(d, s *Config) { d.Compose.MaxOverlapFraction = s.Compose.MaxOverlapFraction })
	f.integer("border", &o.Compose.BorderMargin, "Border margin in pixels",
		func(d, s *Config) { d.Compose.BorderMargin = s.Compose.BorderMargin })
	f.integer("attempts", &o.Compose.MaxAttempts, "Placement attempts per seed",
		func(d, s *Config) { d.Compose.MaxAttempts = s.Compose.MaxAttempts })

	f.str("log-level", &o.Log.Level, "Log level", func(d, s *Config) { d.Log.Level = s.Log.Level })
	f.str("log-format", &o.Log.Format, "Log format: text or json", func(d, s *Config) { d.Log.Format = s.Log.Format })

	return f
}

func (f *Flags) str(name string, p *string, usage string, set func(d, s *Config)) {
	f.fs.StringVar(p, name, *p, usage)
	f.setters[name] = set
}

func (f *Flags) integer(name string, p *int, usage string, set func(d, s *Config)) {
	f.fs.IntVar(p, name, *p, usage)
	f.setters[name] = set
}

func (f *Flags) float(name string, p *float64, usage string, set func(d, s *Config)) {
	f.fs.Float64Var(p, name, *p, usage)
	f.setters[name] = set
}

// ApplyEnv sets every flag that has a matching environment variable, named
// PREFIX_FLAG_NAME (e.g. SEEDSYNTH_MAX_OVERLAP). Env values take precedence
// over the command line. Unparseable values are reported, not skipped.
// Call it after the flag set has been parsed and before Resolve.
func (f *Flags) ApplyEnv(prefix string, lookup func(string) (string, bool)) error {
	var errs []error
	f.fs.VisitAll(func(fl *flag.Flag) {
		name := flagset.FlagNameToEnvVar(prefix, fl.Name)
		value, ok := lookup(name)
		if !ok {
			return
		}
		if err := f.fs.Set(fl.Name, value); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", name, value, err))
		}
	})
	return errors.Join(errs...)
}

// Resolve loads the config file, if any, and applies the flags that were set.
// Call it after the flag set has been parsed.
func (f *Flags) Resolve() (Config, error) {
	cfg := Default()
	if f.configPath != "" {
		loaded, err := Load(f.configPath)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	f.fs.Visit(func(fl *flag.Flag) {
		if set, ok := f.setters[fl.Name]; ok {
			set(&cfg, &f.overlay)
		}
	})
	return cfg, nil
}
