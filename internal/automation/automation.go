package automation

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/qcdsim/internal/analysis"
	"github.com/san-kum/qcdsim/internal/config"
	"github.com/san-kum/qcdsim/internal/experiment"
	"github.com/san-kum/qcdsim/internal/optim"
)

// Scenario is a scripted sequence of propagator runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset ("action/name") or the defaults and
// overlays the fields given under config.
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	Config yaml.Node `yaml:"config"`
}

// Resolve builds the configuration of a step.
func (s *ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		action, name, ok := strings.Cut(s.Preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset %q must be action/name", s.Preset)
		}
		cfg = config.GetPreset(action, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if !s.Config.IsZero() {
		if err := s.Config.Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	return cfg, nil
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// StepResult is a finished scenario step.
type StepResult struct {
	Name       string
	Experiment *experiment.Experiment
	Outcome    *experiment.Outcome
}

// RunScenario executes the steps in order, stopping at the first failure.
// Progress lines go to out.
func RunScenario(ctx context.Context, scenario *Scenario, out io.Writer) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		name := step.Name
		if name == "" {
			name = cfg.Action
		}
		fmt.Fprintf(out, "Running step %d/%d: %s\n", i+1, len(scenario.Steps), name)

		exp := experiment.New(cfg)
		exp.SetOutput(out)
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		for _, w := range exp.Warnings() {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}

		outcome, err := exp.Run()
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, StepResult{Name: name, Experiment: exp, Outcome: outcome})
	}
	return results, nil
}

// ParameterSweep runs full propagators across a range of one parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult summarises one point of a sweep. PionMass is the effective
// mass of the zero-momentum pseudoscalar correlator between t=0 and t=1.
type SweepResult struct {
	ParamValue float64
	Iterations int
	Converged  bool
	PionMass   float64
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, out io.Writer) ([]SweepResult, error) {
	set, ok := optim.Parameters[sweep.ParamName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", optim.ErrUnknownParameter, sweep.ParamName)
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		cfg.Momentum = []int{0, 0, 0}
		set(cfg, paramVal)

		exp := experiment.New(cfg)
		if err := exp.Setup(); err != nil {
			return results, err
		}
		outcome, err := exp.Run()
		if err != nil {
			return results, err
		}

		r := SweepResult{
			ParamValue: paramVal,
			Iterations: outcome.Result.TotalIterations(),
			Converged:  outcome.Result.Converged(),
			PionMass:   math.NaN(),
		}
		for _, c := range outcome.Correlators {
			if c.Name == analysis.Pion().Name {
				if m := analysis.EffectiveMass(c.Correlator); len(m) > 0 {
					r.PionMass = m[0]
				}
			}
		}
		results = append(results, r)

		fmt.Fprintf(out, "Sweep %d/%d: %s=%.4f\n", i+1, sweep.NumSteps, sweep.ParamName, paramVal)
	}
	return results, nil
}
