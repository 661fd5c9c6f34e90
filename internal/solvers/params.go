package solvers

import (
	"time"

	"github.com/san-kum/qcdsim/internal/linop"
)

// Params controls a single inversion.
type Params struct {
	// Tolerance is the target relative residual |r| / |b|.
	Tolerance float64
	// MaxIterations bounds the total number of iterations.
	MaxIterations int
	// Precondition solves the even-odd reduced system when the operator
	// has one and scales by the diagonal otherwise.
	Precondition bool
	// Restart is the GMRES subspace dimension.
	Restart int
	// Observer, if set, is notified after every iteration.
	Observer Observer
}

func DefaultParams() Params {
	return Params{
		Tolerance:     1e-8,
		MaxIterations: 1000,
		Restart:       20,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Tolerance <= 0 {
		p.Tolerance = d.Tolerance
	}
	if p.MaxIterations <= 0 {
		p.MaxIterations = d.MaxIterations
	}
	if p.Restart <= 0 {
		p.Restart = d.Restart
	}
	return p
}

// Result is the outcome of an inversion. Converged is false when the
// iteration budget ran out first; Solution then holds the best iterate.
type Result struct {
	Method     Method
	Solution   linop.Field
	Residual   float64
	Iterations int
	Elapsed    time.Duration
	Converged  bool
	History    []float64

	// FellBack is set when an unknown method was replaced by CG.
	FellBack bool
	// Preconditioning is what was applied to the system. Residual and
	// History refer to the system the method iterated on.
	Preconditioning Preconditioning
	// MaxBasis is the largest number of Krylov vectors GMRES held at once.
	MaxBasis int
}

// Err returns linop.ErrNotConverged for results that missed the tolerance.
func (r *Result) Err() error {
	if r.Converged {
		return nil
	}
	return linop.ErrNotConverged
}

// Observer receives the relative residual after each iteration.
type Observer interface {
	OnIteration(iter int, residual float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(iter int, residual float64)

func (f ObserverFunc) OnIteration(iter int, residual float64) { f(iter, residual) }

// record appends to the history and notifies the observer.
func (r *Result) record(p Params, residual float64) {
	r.Iterations++
	r.Residual = residual
	r.History = append(r.History, residual)
	if p.Observer != nil {
		p.Observer.OnIteration(r.Iterations, residual)
	}
}
