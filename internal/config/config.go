package config

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAction        = "wilson"
	DefaultMass          = 0.5
	DefaultSpatial       = 4
	DefaultTemporal      = 8
	DefaultM5            = 1.8
	DefaultLs            = 8
	DefaultMethod        = "cg"
	DefaultTolerance     = 1e-8
	DefaultMaxIterations = 1000
	DefaultRestart       = 20
	DefaultStoutRho      = 0.1
	DefaultJacobiKappa   = 0.25
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Action    string         `yaml:"action"`
	Mass      float64        `yaml:"mass"`
	Lattice   LatticeConfig  `yaml:"lattice"`
	DWF       DWFConfig      `yaml:"dwf"`
	Boundary  []float64      `yaml:"boundary_phases"`
	Source    []int          `yaml:"source"`
	Momentum  []int          `yaml:"momentum"`
	Smearing  SmearingConfig `yaml:"smearing"`
	Solver    SolverConfig   `yaml:"solver"`
	Verbosity int            `yaml:"verbosity"`
}

type LatticeConfig struct {
	Spatial  int    `yaml:"spatial"`
	Temporal int    `yaml:"temporal"`
	Start    string `yaml:"start"`
	Seed     int64  `yaml:"seed"`
}

type DWFConfig struct {
	M5     float64 `yaml:"m5"`
	Ls     int     `yaml:"ls"`
	Kernel string  `yaml:"kernel"`
}

type SmearingBlock struct {
	Count     int     `yaml:"count"`
	Parameter float64 `yaml:"parameter"`
}

type SmearingConfig struct {
	Links  SmearingBlock `yaml:"links"`
	Source SmearingBlock `yaml:"source"`
	Sink   SmearingBlock `yaml:"sink"`
}

type SolverConfig struct {
	Method        string  `yaml:"method"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	Precondition  bool    `yaml:"precondition"`
	Restart       int     `yaml:"restart"`
}

func DefaultConfig() *Config {
	return &Config{
		Action: DefaultAction,
		Mass:   DefaultMass,
		Lattice: LatticeConfig{
			Spatial:  DefaultSpatial,
			Temporal: DefaultTemporal,
			Start:    "cold",
		},
		DWF: DWFConfig{
			M5:     DefaultM5,
			Ls:     DefaultLs,
			Kernel: "wilson",
		},
		Boundary: []float64{1, 0, 0, 0},
		Source:   []int{0, 0, 0, 0},
		Momentum: []int{0, 0, 0},
		Smearing: SmearingConfig{
			Links:  SmearingBlock{Parameter: DefaultStoutRho},
			Source: SmearingBlock{Parameter: DefaultJacobiKappa},
			Sink:   SmearingBlock{Parameter: DefaultJacobiKappa},
		},
		Solver: SolverConfig{
			Method:        DefaultMethod,
			Tolerance:     DefaultTolerance,
			MaxIterations: DefaultMaxIterations,
			Restart:       DefaultRestart,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Boundary = append([]float64(nil), c.Boundary...)
	cp.Source = append([]int(nil), c.Source...)
	cp.Momentum = append([]int(nil), c.Momentum...)
	return &cp
}

// Validate checks extents, smearing counts and vector lengths. Solver and
// action names are resolved later so that an unknown solver can fall back
// to CG.
func (c *Config) Validate() error {
	switch {
	case c.Lattice.Spatial < 1 || c.Lattice.Temporal < 1:
		return fmt.Errorf("%w: lattice extents must be positive", ErrInvalidConfig)
	case c.Lattice.Start != "cold" && c.Lattice.Start != "hot":
		return fmt.Errorf("%w: start must be cold or hot, got %q", ErrInvalidConfig, c.Lattice.Start)
	case len(c.Boundary) != 4:
		return fmt.Errorf("%w: boundary_phases needs 4 entries, got %d", ErrInvalidConfig, len(c.Boundary))
	case len(c.Source) != 4:
		return fmt.Errorf("%w: source needs 4 coordinates, got %d", ErrInvalidConfig, len(c.Source))
	case len(c.Momentum) != 0 && len(c.Momentum) != 3:
		return fmt.Errorf("%w: momentum needs 3 components, got %d", ErrInvalidConfig, len(c.Momentum))
	case c.Smearing.Links.Count < 0 || c.Smearing.Source.Count < 0 || c.Smearing.Sink.Count < 0:
		return fmt.Errorf("%w: smearing counts must not be negative", ErrInvalidConfig)
	case c.Action == "dwf" && c.DWF.Ls < 1:
		return fmt.Errorf("%w: dwf.ls must be positive", ErrInvalidConfig)
	case c.Solver.Tolerance <= 0:
		return fmt.Errorf("%w: solver tolerance must be positive", ErrInvalidConfig)
	}
	return nil
}

// Phases converts boundary_phases, given in units of pi, to complex phases.
// Missing entries are periodic.
func (c *Config) Phases() [4]complex128 {
	p := [4]complex128{1, 1, 1, 1}
	for mu := 0; mu < len(c.Boundary) && mu < 4; mu++ {
		switch theta := c.Boundary[mu]; theta {
		case 0:
		case 1:
			p[mu] = -1
		default:
			p[mu] = cmplx.Exp(complex(0, math.Pi*theta))
		}
	}
	return p
}

// Site returns the source coordinates (t, x, y, z).
func (c *Config) Site() [4]int {
	var s [4]int
	copy(s[:], c.Source)
	return s
}

// MomentumVector returns the sink momentum in units of 2 pi / L. A missing
// momentum is zero.
func (c *Config) MomentumVector() [3]int {
	var n [3]int
	copy(n[:], c.Momentum)
	return n
}
