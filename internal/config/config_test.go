package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/sfomuseum/go-flags/flagset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Default()
	cfg.SeedFile = "seeds.tbin"
	cfg.Image = "seeds.jpg"
	return cfg
}

func TestDefaultsMatchReferenceSetup(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 200.0, cfg.Filter.MinArea)
	assert.Equal(t, 100000.0, cfg.Filter.MaxArea)
	assert.Equal(t, 50, cfg.Mask.DilationKernel)
	assert.Equal(t, 30.0, cfg.Inpaint.Radius)
	assert.Equal(t, "telea", cfg.Inpaint.Method)
	assert.Equal(t, 0.1, cfg.Compose.MaxOverlapFraction)
	assert.Equal(t, 1, cfg.Count)

	assert.Error(t, cfg.Validate(), "inputs are required")
	assert.NoError(t, validConfig().Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
seed_file: a.tbin
image: a.jpg
seed: 42
filter:
  min_area: 1000
compose:
  border_margin: 100
`))
	require.NoError(t, err)

	assert.Equal(t, "a.tbin", cfg.SeedFile)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 1000.0, cfg.Filter.MinArea)
	assert.Equal(t, 100000.0, cfg.Filter.MaxArea)
	assert.Equal(t, 100, cfg.Compose.BorderMargin)
	assert.Equal(t, 100, cfg.Compose.MaxAttempts)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("filter:\n  min_aera: 10\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"count", func(c *Config) { c.Count = 0 }},
		{"area bounds", func(c *Config) { c.Filter.MaxArea = c.Filter.MinArea }},
		{"kernel", func(c *Config) { c.Mask.DilationKernel = 0 }},
		{"radius", func(c *Config) { c.Inpaint.Radius = -1 }},
		{"method", func(c *Config) { c.Inpaint.Method = "fancy" }},
		{"overlap", func(c *Config) { c.Compose.MaxOverlapFraction = -0.5 }},
		{"attempts", func(c *Config) { c.Compose.MaxAttempts = 0 }},
		{"output", func(c *Config) { c.OutputDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateSkipsInpaintWithBackgroundImage(t *testing.T) {
	cfg := validConfig()
	cfg.Inpaint.Radius = 0
	cfg.BackgroundImage = "background.jpg"
	assert.NoError(t, cfg.Validate())
}

func TestFlagsOverrideFileOnlyWhenSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("count: 5\nfilter:\n  min_area: 500\n"), 0o644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-config", path, "-max-area", "9000", "-seeds", "x.tbin"}))

	cfg, err := f.Resolve()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Count)
	assert.Equal(t, 500.0, cfg.Filter.MinArea)
	assert.Equal(t, 9000.0, cfg.Filter.MaxArea)
	assert.Equal(t, "x.tbin", cfg.SeedFile)
	assert.Equal(t, 50, cfg.Mask.DilationKernel)
}

func TestEnvOverridesFlagsOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("count: 5\nseed: 11\nfilter:\n  min_area: 500\n"), 0o644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-config", path, "-count", "3", "-max-area", "9000"}))

	env := map[string]string{
		flagset.FlagNameToEnvVar("SEEDSYNTH", "count"):       "9",
		flagset.FlagNameToEnvVar("SEEDSYNTH", "max-overlap"): "0.25",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
	require.NoError(t, f.ApplyEnv("SEEDSYNTH", lookup))

	cfg, err := f.Resolve()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Count, "env beats flag and file")
	assert.Equal(t, 9000.0, cfg.Filter.MaxArea, "flag beats file")
	assert.Equal(t, 500.0, cfg.Filter.MinArea, "file beats default")
	assert.Equal(t, int64(11), cfg.Seed)
	assert.Equal(t, 0.25, cfg.Compose.MaxOverlapFraction)
}

func TestApplyEnvReportsBadValues(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := BindFlags(fs)
	require.NoError(t, fs.Parse(nil))

	countVar := flagset.FlagNameToEnvVar("SEEDSYNTH", "count")
	lookup := func(name string) (string, bool) {
		if name == countVar {
			return "abc", true
		}
		return "", false
	}

	err := f.ApplyEnv("SEEDSYNTH", lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), countVar)
}

func TestFlagsMissingConfigFile(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-config", filepath.Join(t.TempDir(), "nope.yaml")}))

	_, err := f.Resolve()
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := validConfig()
	cfg.Seed = 7

	data, err := cfg.Marshal()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
