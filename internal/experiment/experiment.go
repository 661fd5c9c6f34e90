package experiment

import (
	"fmt"
	"io"
	"time"

	"github.com/san-kum/qcdsim/internal/analysis"
	"github.com/san-kum/qcdsim/internal/config"
	"github.com/san-kum/qcdsim/internal/dirac"
	"github.com/san-kum/qcdsim/internal/lattice"
	"github.com/san-kum/qcdsim/internal/metrics"
	"github.com/san-kum/qcdsim/internal/propagator"
	"github.com/san-kum/qcdsim/internal/solvers"
	"github.com/san-kum/qcdsim/internal/storage"
)

// Experiment is a configured propagator run: a lattice built from the
// configuration, the resolved action and solver, and the metrics collected
// while inverting.
type Experiment struct {
	cfg      *config.Config
	registry *Registry
	lattice  *lattice.Lattice
	action   Action
	method   solvers.Method
	metrics  metrics.Set
	observer solvers.Observer
	output   io.Writer
	warnings []string
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		metrics:  metrics.Default(),
	}
}

// Setup validates the configuration, resolves names and builds the lattice.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	action, err := e.registry.GetAction(e.cfg.Action)
	if err != nil {
		return err
	}
	e.action = action

	method, fellBack := e.registry.GetSolver(e.cfg.Solver.Method)
	if fellBack {
		e.warnings = append(e.warnings,
			fmt.Sprintf("unknown solver %q, falling back to %s", e.cfg.Solver.Method, method))
	}
	e.method = method

	l := e.cfg.Lattice
	if l.Start == "hot" {
		e.lattice, err = lattice.NewHot(l.Spatial, l.Temporal, l.Seed)
	} else {
		e.lattice, err = lattice.New(l.Spatial, l.Temporal)
	}
	return err
}

func (e *Experiment) Config() *config.Config         { return e.cfg }
func (e *Experiment) Lattice() *lattice.Lattice      { return e.lattice }
func (e *Experiment) Method() solvers.Method         { return e.method }
func (e *Experiment) Warnings() []string             { return e.warnings }
func (e *Experiment) Metrics() metrics.Set           { return e.metrics }
func (e *Experiment) SetOutput(w io.Writer)          { e.output = w }
func (e *Experiment) SetObserver(o solvers.Observer) { e.observer = o }

func (e *Experiment) BoundaryConditions() dirac.BoundaryConditions {
	return dirac.BoundaryConditions(e.cfg.Phases())
}

// Params translates the configuration into pipeline parameters.
func (e *Experiment) Params() propagator.Params {
	c := e.cfg
	p := propagator.DefaultParams()
	p.Site = c.Site()
	p.LinkSmearing = propagator.Smearing{Count: c.Smearing.Links.Count, Parameter: c.Smearing.Links.Parameter}
	p.SourceSmearing = propagator.Smearing{Count: c.Smearing.Source.Count, Parameter: c.Smearing.Source.Parameter}
	p.SinkSmearing = propagator.Smearing{Count: c.Smearing.Sink.Count, Parameter: c.Smearing.Sink.Parameter}
	p.Method = e.method
	p.Solver = solvers.Params{
		Tolerance:     c.Solver.Tolerance,
		MaxIterations: c.Solver.MaxIterations,
		Precondition:  c.Solver.Precondition,
		Restart:       c.Solver.Restart,
		Observer:      e.observers(),
	}
	p.BoundaryConditions = e.BoundaryConditions()
	p.Verbosity = c.Verbosity
	p.Output = e.output
	return p
}

func (e *Experiment) observers() solvers.Observer {
	if e.observer == nil {
		return e.metrics
	}
	user := e.observer
	return solvers.ObserverFunc(func(iter int, residual float64) {
		e.metrics.OnIteration(iter, residual)
		user.OnIteration(iter, residual)
	})
}

// Outcome is a finished propagator run.
type Outcome struct {
	Result     *propagator.Result
	TimeSlices []float64
	Plaquette  float64
	Metrics    map[string]float64
	// Correlators holds the 16 meson channels at the configured momentum.
	Correlators []analysis.Channel
}

func (e *Experiment) Run() (*Outcome, error) {
	if e.lattice == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	e.metrics.Reset()

	res, err := e.action.Compute(e.cfg, e.lattice, e.Params())
	if err != nil {
		return nil, err
	}
	channels, err := analysis.Spectrum(res.Propagator, e.lattice, e.cfg.MomentumVector())
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Result:      res,
		TimeSlices:  res.Propagator.TimeSliceNorms(e.lattice),
		Plaquette:   e.lattice.Plaquette(),
		Metrics:     e.metrics.Values(),
		Correlators: channels,
	}, nil
}

// Invert solves for a single point source at the configured site without
// any smearing.
func (e *Experiment) Invert(spin, colour int) (*solvers.Result, error) {
	if e.lattice == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	p := e.Params()
	op, err := e.action.Build(e.cfg, p.BoundaryConditions, e.lattice)
	if err != nil {
		return nil, err
	}
	src, err := propagator.MakeSource(e.lattice, p.Site, spin, colour, nil)
	if err != nil {
		return nil, err
	}
	_, res, err := propagator.InvertDiracOperator(e.action.Source(op, src), op, p)
	return res, err
}

// BenchResult compares one solver configuration on a common source.
type BenchResult struct {
	Method       solvers.Method
	Precondition bool
	Result       *solvers.Result
	Err          error
}

// Bench inverts the spin 0, colour 0 source with every solver, with and
// without preconditioning.
func (e *Experiment) Bench() ([]BenchResult, error) {
	if e.lattice == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	saved := e.method
	savedPre := e.cfg.Solver.Precondition
	defer func() {
		e.method = saved
		e.cfg.Solver.Precondition = savedPre
	}()

	var out []BenchResult
	for _, m := range solvers.Methods() {
		for _, pre := range []bool{false, true} {
			e.method = m
			e.cfg.Solver.Precondition = pre
			res, err := e.Invert(0, 0)
			out = append(out, BenchResult{Method: m, Precondition: pre, Result: res, Err: err})
		}
	}
	return out, nil
}

// Record converts an outcome into its stored form.
func (e *Experiment) Record(o *Outcome) *storage.Run {
	run := &storage.Run{
		Meta: storage.RunMetadata{
			Action:    e.cfg.Action,
			Config:    e.cfg,
			Plaquette: o.Plaquette,
			Metrics:   o.Metrics,
		},
		TimeSlices: o.TimeSlices,
	}
	for _, inv := range o.Result.Inversions {
		run.Meta.Inversions = append(run.Meta.Inversions, storage.InversionRecord{
			Spin:       inv.Spin,
			Colour:     inv.Colour,
			Method:     inv.Method.String(),
			Residual:   inv.Residual,
			Iterations: inv.Iterations,
			ElapsedMS:  float64(inv.Elapsed) / float64(time.Millisecond),
			Converged:  inv.Converged,
		})
		run.Residuals = append(run.Residuals, inv.History)
	}
	for _, c := range o.Correlators {
		run.Correlators = append(run.Correlators, storage.Correlator{Name: c.Name, Values: c.Correlator})
	}
	return run
}
