package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/qcdsim/internal/config"
	"github.com/san-kum/qcdsim/internal/dirac"
	"github.com/san-kum/qcdsim/internal/linop"
	"github.com/san-kum/qcdsim/internal/propagator"
	"github.com/san-kum/qcdsim/internal/solvers"
)

// Action knows how to build a fermion action's operator and how to run the
// propagator pipeline for it.
type Action struct {
	Name string
	// Build returns the operator whose inverse the solvers compute.
	Build func(cfg *config.Config, bcs dirac.BoundaryConditions, links dirac.Links) (linop.Operator, error)
	// Compute runs the full propagator pipeline.
	Compute func(cfg *config.Config, lat propagator.Gauge, p propagator.Params) (*propagator.Result, error)
	// Source lifts a 4D source into the operator's domain.
	Source func(op linop.Operator, src linop.Field) linop.Field
}

type Registry struct {
	actions map[string]Action
	solvers map[string]solvers.Method
}

func stencilAction(kind dirac.Kind) Action {
	return Action{
		Name: kind.String(),
		Build: func(cfg *config.Config, bcs dirac.BoundaryConditions, links dirac.Links) (linop.Operator, error) {
			return dirac.New(kind, cfg.Mass, bcs, links)
		},
		Compute: func(cfg *config.Config, lat propagator.Gauge, p propagator.Params) (*propagator.Result, error) {
			op, err := dirac.New(kind, cfg.Mass, p.BoundaryConditions, lat)
			if err != nil {
				return nil, err
			}
			return propagator.Compute(op, lat, p)
		},
		Source: func(_ linop.Operator, src linop.Field) linop.Field { return src },
	}
}

func buildDWF(cfg *config.Config, bcs dirac.BoundaryConditions, links dirac.Links) (*dirac.DWF, error) {
	kernel, err := dirac.ParseKind(cfg.DWF.Kernel)
	if err != nil {
		return nil, err
	}
	return dirac.NewDWF(cfg.Mass, cfg.DWF.M5, cfg.DWF.Ls, kernel, bcs, links)
}

func dwfAction() Action {
	return Action{
		Name: "dwf",
		Build: func(cfg *config.Config, bcs dirac.BoundaryConditions, links dirac.Links) (linop.Operator, error) {
			return buildDWF(cfg, bcs, links)
		},
		Compute: func(cfg *config.Config, lat propagator.Gauge, p propagator.Params) (*propagator.Result, error) {
			kernel, err := dirac.ParseKind(cfg.DWF.Kernel)
			if err != nil {
				return nil, err
			}
			return propagator.ComputeDWF(cfg.Mass, cfg.DWF.M5, cfg.DWF.Ls, kernel, lat, p)
		},
		Source: func(op linop.Operator, src linop.Field) linop.Field {
			return propagator.WallSource(op.(*dirac.DWF), src)
		},
	}
}

func NewRegistry() *Registry {
	r := &Registry{
		actions: make(map[string]Action),
		solvers: make(map[string]solvers.Method),
	}

	for _, kind := range []dirac.Kind{dirac.Wilson, dirac.HamberWu, dirac.Naik} {
		r.actions[kind.String()] = stencilAction(kind)
	}
	r.actions["dwf"] = dwfAction()

	for _, m := range solvers.Methods() {
		r.solvers[m.String()] = m
	}
	return r
}

func (r *Registry) GetAction(name string) (Action, error) {
	a, ok := r.actions[name]
	if !ok {
		return Action{}, fmt.Errorf("%w: unknown action %q", linop.ErrInvalidParameter, name)
	}
	return a, nil
}

// GetSolver resolves a solver name. Unknown names resolve to CG with
// fellBack set.
func (r *Registry) GetSolver(name string) (m solvers.Method, fellBack bool) {
	m, err := solvers.ParseMethod(name)
	if err != nil {
		return solvers.CG, true
	}
	return m, false
}

func (r *Registry) ListActions() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListSolvers() []string {
	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
