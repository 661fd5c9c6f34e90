package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/qcdsim/internal/config"
	"github.com/san-kum/qcdsim/internal/experiment"
	"github.com/san-kum/qcdsim/internal/solvers"
)

var ErrUnknownParameter = errors.New("optim: unknown parameter")

// Setter applies one swept value to a configuration.
type Setter func(cfg *config.Config, v float64)

// Parameters are the configuration entries a search can sweep.
var Parameters = map[string]Setter{
	"mass":         func(c *config.Config, v float64) { c.Mass = v },
	"restart":      func(c *config.Config, v float64) { c.Solver.Restart = int(v) },
	"precondition": func(c *config.Config, v float64) { c.Solver.Precondition = v != 0 },
	"tolerance":    func(c *config.Config, v float64) { c.Solver.Tolerance = v },
	"m5":           func(c *config.Config, v float64) { c.DWF.M5 = v },
	"ls":           func(c *config.Config, v float64) { c.DWF.Ls = int(v) },
	"source_kappa": func(c *config.Config, v float64) { c.Smearing.Source.Parameter = v },
}

// Objective scores a single inversion; lower is better.
type Objective func(res *solvers.Result) float64

var Objectives = map[string]Objective{
	"iterations": func(r *solvers.Result) float64 { return float64(r.Iterations) },
	"elapsed":    func(r *solvers.Result) float64 { return r.Elapsed.Seconds() },
	"residual":   func(r *solvers.Result) float64 { return r.Residual },
}

func ParameterNames() []string {
	names := make([]string, 0, len(Parameters))
	for n := range Parameters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Trial is one evaluated grid point. Trials that fail or do not converge
// score +Inf.
type Trial struct {
	Params    map[string]float64
	Value     float64
	Converged bool
	Err       error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for _, p := range params {
		if _, ok := Parameters[p]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, p)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search inverts the spin 0, colour 0 point source at every grid point and
// returns the best trial together with all trials in grid order.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, objective string) (Trial, []Trial, error) {
	score, ok := Objectives[objective]
	if !ok {
		return Trial{}, nil, fmt.Errorf("optim: unknown objective %q", objective)
	}

	var trials []Trial
	if err := g.searchRecursive(ctx, 0, map[string]float64{}, base, score, &trials); err != nil {
		return Trial{}, trials, err
	}

	best := Trial{Value: math.Inf(1)}
	for _, t := range trials {
		if t.Value < best.Value || best.Params == nil {
			best = t
		}
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	score Objective,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		*trials = append(*trials, evaluate(current, base, score))
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val

		if err := g.searchRecursive(ctx, depth+1, next, base, score, trials); err != nil {
			return err
		}
	}
	return nil
}

func evaluate(params map[string]float64, base *config.Config, score Objective) Trial {
	cfg := base.Clone()
	for name, v := range params {
		Parameters[name](cfg, v)
	}
	t := Trial{Params: params, Value: math.Inf(1)}

	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		t.Err = err
		return t
	}
	res, err := exp.Invert(0, 0)
	if err != nil {
		t.Err = err
		return t
	}
	t.Converged = res.Converged
	if res.Converged {
		t.Value = score(res)
	}
	return t
}
