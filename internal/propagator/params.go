package propagator

import (
	"io"
	"os"
	"time"

	"github.com/san-kum/qcdsim/internal/dirac"
	"github.com/san-kum/qcdsim/internal/solvers"
)

// Smearing is a smearing count and its parameter (rho for stout link
// smearing, kappa for Jacobi smearing).
type Smearing struct {
	Count     int
	Parameter float64
}

type Params struct {
	// Site is the source position (t, x, y, z).
	Site [4]int

	LinkSmearing   Smearing
	SourceSmearing Smearing
	SinkSmearing   Smearing

	Method             solvers.Method
	Solver             solvers.Params
	BoundaryConditions dirac.BoundaryConditions

	// Verbosity 0 is silent, 1 reports every inversion, 2 also every
	// solver iteration.
	Verbosity int
	// Output receives progress text; nil means stdout.
	Output io.Writer
}

func DefaultParams() Params {
	return Params{
		Method:             solvers.CG,
		Solver:             solvers.DefaultParams(),
		BoundaryConditions: dirac.DefaultBoundaryConditions(),
	}
}

func (p Params) out() io.Writer {
	if p.Output == nil {
		return os.Stdout
	}
	return p.Output
}

// Inversion summarises one of the twelve solves of a run.
type Inversion struct {
	Spin       int
	Colour     int
	Method     solvers.Method
	Residual   float64
	Iterations int
	Elapsed    time.Duration
	Converged  bool
	History    []float64
}

// Result is a propagator together with the statistics of its inversions.
type Result struct {
	Propagator Propagator
	Inversions []Inversion
	Elapsed    time.Duration
}

// Converged reports whether every inversion reached its tolerance.
func (r *Result) Converged() bool {
	for _, inv := range r.Inversions {
		if !inv.Converged {
			return false
		}
	}
	return true
}

// TotalIterations sums solver iterations over all inversions.
func (r *Result) TotalIterations() int {
	n := 0
	for _, inv := range r.Inversions {
		n += inv.Iterations
	}
	return n
}
