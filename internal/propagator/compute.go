package propagator

import (
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/qcdsim/internal/dirac"
	"github.com/san-kum/qcdsim/internal/lattice"
	"github.com/san-kum/qcdsim/internal/linop"
	"github.com/san-kum/qcdsim/internal/smearing"
	"github.com/san-kum/qcdsim/internal/solvers"
)

// Gauge is the lattice service a propagator run needs: link access for the
// operators plus in-place smearing with snapshot and restore.
type Gauge interface {
	dirac.Links
	Slicer
	SiteIndex(coords [4]int) int
	SmearLinks(time, nSmears int, rho float64)
	Snapshot() lattice.GaugeField
	Restore(field lattice.GaugeField) error
}

// solveFunc inverts the Dirac operator on a 4D source and returns a 4D
// solution.
type solveFunc func(src linop.Field) (linop.Field, *solvers.Result, error)

// MakeSource returns a point source at site/spin/colour with smear applied.
// A nil smear leaves the point source as is.
func MakeSource(lat Gauge, site [4]int, spin, colour int, smear linop.Operator) (linop.Field, error) {
	if spin < 0 || spin >= linop.NumSpins || colour < 0 || colour >= linop.NumColours {
		return nil, fmt.Errorf("%w: spin %d colour %d", linop.ErrInvalidParameter, spin, colour)
	}
	src := linop.PointSource(linop.SpinColour*lat.NumSites(), lat.SiteIndex(site), spin, colour)
	if smear == nil {
		return src, nil
	}
	return smear.Apply(src)
}

// Compute runs the propagator pipeline for a 4D Dirac operator built
// against lat. Link smearing is visible to op because operators read links
// when applied.
func Compute(op linop.Operator, lat Gauge, p Params) (*Result, error) {
	if op.Size() != linop.SpinColour*lat.NumSites() {
		return nil, fmt.Errorf("%w: operator size %d on a lattice of %d sites",
			linop.ErrSizeMismatch, op.Size(), lat.NumSites())
	}
	return run(lat, p, func(src linop.Field) (linop.Field, *solvers.Result, error) {
		return invert(src, op, p)
	})
}

func run(lat Gauge, p Params, solve solveFunc) (_ *Result, err error) {
	start := time.Now()
	out := p.out()

	if p.LinkSmearing.Count > 0 {
		snapshot := lat.Snapshot()
		defer func() {
			err = errors.Join(err, lat.Restore(snapshot))
		}()
		for t := 0; t < lat.TemporalExtent(); t++ {
			lat.SmearLinks(t, p.LinkSmearing.Count, p.LinkSmearing.Parameter)
		}
	}

	source, err := smearing.NewJacobi(p.SourceSmearing.Count, p.SourceSmearing.Parameter, p.BoundaryConditions, lat)
	if err != nil {
		return nil, err
	}
	sink, err := smearing.NewJacobi(p.SinkSmearing.Count, p.SinkSmearing.Parameter, p.BoundaryConditions, lat)
	if err != nil {
		return nil, err
	}

	if !p.Method.Valid() && p.Verbosity > 0 {
		fmt.Fprintf(out, "  warning: unknown solver %s, falling back to %s\n", p.Method, solvers.CG)
	}

	res := &Result{
		Propagator: New(lat.NumSites()),
		Inversions: make([]Inversion, 0, linop.SpinColour),
	}

	for spin := 0; spin < linop.NumSpins; spin++ {
		for colour := 0; colour < linop.NumColours; colour++ {
			if p.Verbosity > 0 {
				fmt.Fprintf(out, "  Inverting for spin %d and colour %d...\n", spin, colour)
			}

			src, err := MakeSource(lat, p.Site, spin, colour, source)
			if err != nil {
				return nil, err
			}
			sol, stats, err := solve(src)
			if err != nil {
				return nil, fmt.Errorf("spin %d colour %d: %w", spin, colour, err)
			}
			sol, err = sink.Apply(sol)
			if err != nil {
				return nil, err
			}

			res.Propagator.setColumn(Column(spin, colour), sol)
			res.Inversions = append(res.Inversions, Inversion{
				Spin:       spin,
				Colour:     colour,
				Method:     stats.Method,
				Residual:   stats.Residual,
				Iterations: stats.Iterations,
				Elapsed:    stats.Elapsed,
				Converged:  stats.Converged,
				History:    stats.History,
			})
		}
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

// generate builds an operator, reporting it at verbosity > 0.
func generate[T linop.Operator](p Params, build func() (T, error)) (T, error) {
	if p.Verbosity > 0 {
		fmt.Fprint(p.out(), "  Generating Dirac matrix...")
	}
	op, err := build()
	if err == nil && p.Verbosity > 0 {
		fmt.Fprintln(p.out(), " Done!")
	}
	return op, err
}

func stencil(p Params, kind dirac.Kind, mass float64, lat dirac.Links) (*dirac.Stencil, error) {
	return generate(p, func() (*dirac.Stencil, error) {
		return dirac.New(kind, mass, p.BoundaryConditions, lat)
	})
}

func computeStencil(kind dirac.Kind, mass float64, lat Gauge, p Params) (*Result, error) {
	op, err := stencil(p, kind, mass, lat)
	if err != nil {
		return nil, err
	}
	return Compute(op, lat, p)
}

func ComputeWilson(mass float64, lat Gauge, p Params) (*Result, error) {
	return computeStencil(dirac.Wilson, mass, lat, p)
}

func ComputeHamberWu(mass float64, lat Gauge, p Params) (*Result, error) {
	return computeStencil(dirac.HamberWu, mass, lat, p)
}

func ComputeNaik(mass float64, lat Gauge, p Params) (*Result, error) {
	return computeStencil(dirac.Naik, mass, lat, p)
}

// ComputeDWF computes the 4D propagator of the domain-wall quark. Each
// source is placed on the walls (P+ on slice 0, P- on slice Ls-1) and the
// 4D solution is read back as P- psi_0 + P+ psi_{Ls-1}.
func ComputeDWF(mass, m5 float64, ls int, kernel dirac.Kind, lat Gauge, p Params) (*Result, error) {
	op, err := generate(p, func() (*dirac.DWF, error) {
		return dirac.NewDWF(mass, m5, ls, kernel, p.BoundaryConditions, lat)
	})
	if err != nil {
		return nil, err
	}
	return run(lat, p, func(src linop.Field) (linop.Field, *solvers.Result, error) {
		sol5, stats, err := invert(WallSource(op, src), op, p)
		if err != nil {
			return nil, nil, err
		}
		return WallProject(op, sol5), stats, nil
	})
}

// WallSource lifts a 4D source onto the domain walls of op.
func WallSource(op *dirac.DWF, src linop.Field) linop.Field {
	n4 := op.Kernel().Size()
	eta := linop.NewField(op.Size())
	dirac.ApplySpin(eta[:n4], src, dirac.ProjectPlus)
	dirac.ApplySpin(eta[(op.Ls()-1)*n4:], src, dirac.ProjectMinus)
	return eta
}

// WallProject extracts the 4D quark field from a 5D solution.
func WallProject(op *dirac.DWF, psi linop.Field) linop.Field {
	n4 := op.Kernel().Size()
	q := linop.NewField(n4)
	dirac.ApplySpin(q, psi[:n4], dirac.ProjectMinus)
	tail := linop.NewField(n4)
	dirac.ApplySpin(tail, psi[(op.Ls()-1)*n4:], dirac.ProjectPlus)
	q.Axpy(1, tail)
	return q
}
