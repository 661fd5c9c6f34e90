package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "wilson", cfg.Action)
	assert.Equal(t, "cg", cfg.Solver.Method)
	assert.Positive(t, cfg.Solver.Tolerance)
	assert.Equal(t, [4]complex128{-1, 1, 1, 1}, cfg.Phases())
	require.NoError(t, cfg.Validate())
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("wilson", "free")
	require.NotNil(t, cfg)
	assert.Equal(t, 1.0, cfg.Mass)
	assert.Equal(t, 2, cfg.Lattice.Spatial)

	cfg.Mass = 7
	assert.Equal(t, 1.0, GetPreset("wilson", "free").Mass, "presets must be returned as copies")
}

func TestGetPreset_NotFound(t *testing.T) {
	assert.Nil(t, GetPreset("wilson", "nonexistent"))
	assert.Nil(t, GetPreset("staggered", "free"))
}

func TestListPresets(t *testing.T) {
	assert.Equal(t, []string{"free", "hot", "smeared"}, ListPresets("wilson"))
	assert.Nil(t, ListPresets("staggered"))
	assert.Equal(t, []string{"dwf", "hamber_wu", "naik", "wilson"}, ListActions())
}

func TestPresetsAreValid(t *testing.T) {
	for action, presets := range Presets {
		for name, cfg := range presets {
			assert.NoError(t, cfg.Validate(), "%s/%s", action, name)
			assert.Equal(t, action, cfg.Action, "%s/%s", action, name)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero extent", func(c *Config) { c.Lattice.Spatial = 0 }},
		{"bad start", func(c *Config) { c.Lattice.Start = "warm" }},
		{"short boundary", func(c *Config) { c.Boundary = []float64{1} }},
		{"short source", func(c *Config) { c.Source = []int{0, 0} }},
		{"two momentum components", func(c *Config) { c.Momentum = []int{1, 0} }},
		{"negative smearing", func(c *Config) { c.Smearing.Sink.Count = -2 }},
		{"dwf without slices", func(c *Config) { c.Action = "dwf"; c.DWF.Ls = 0 }},
		{"zero tolerance", func(c *Config) { c.Solver.Tolerance = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestUnknownSolverIsNotAValidationError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver.Method = "minres"
	assert.NoError(t, cfg.Validate())
}

func TestPhases(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Boundary = []float64{1, 0, 0.5, 2}
	p := cfg.Phases()

	assert.Equal(t, complex128(-1), p[0])
	assert.Equal(t, complex128(1), p[1])
	assert.InDelta(t, 0, real(p[2]), 1e-15)
	assert.InDelta(t, 1, imag(p[2]), 1e-15)
	assert.InDelta(t, 1, real(p[3]), 1e-15)
}

func TestMomentumVector(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, [3]int{}, cfg.MomentumVector())

	cfg.Momentum = []int{1, 0, -1}
	assert.Equal(t, [3]int{1, 0, -1}, cfg.MomentumVector())

	cfg.Momentum = nil
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, [3]int{}, cfg.MomentumVector())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("dwf", "shamir")
	cfg.Source = []int{1, 0, 1, 0}

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("action: naik\nmass: 0.3\nsolver:\n  method: gmres\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "naik", cfg.Action)
	assert.Equal(t, 0.3, cfg.Mass)
	assert.Equal(t, "gmres", cfg.Solver.Method)
	assert.Equal(t, DefaultTolerance, cfg.Solver.Tolerance)
	assert.Equal(t, DefaultSpatial, cfg.Lattice.Spatial)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mass: [1, 2\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}
