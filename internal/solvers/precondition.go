package solvers

import (
	"math/cmplx"
	"time"

	"github.com/san-kum/qcdsim/internal/linop"
)

// Preconditioned is the left-preconditioned operator M^-1 D, where M is the
// diagonal of D. Operators that do not expose a diagonal get M = 1. The
// diagonal of every operator in this module is a constant, so this only
// rescales the system.
type Preconditioned struct {
	op  linop.Operator
	inv complex128
}

// NewPreconditioned wraps op in its diagonal (Jacobi) preconditioner.
func NewPreconditioned(op linop.Operator) *Preconditioned {
	inv := complex(1, 0)
	if d, ok := op.(linop.Diagonal); ok {
		if diag := d.Diagonal(); diag != 0 {
			inv = 1 / diag
		}
	}
	return &Preconditioned{op: op, inv: inv}
}

func (p *Preconditioned) Size() int { return p.op.Size() }

// Inverse returns the constant 1/M.
func (p *Preconditioned) Inverse() complex128 { return p.inv }

// Diagonal of M^-1 D is one by construction.
func (p *Preconditioned) Diagonal() complex128 { return 1 }

// Source returns M^-1 b as a new field.
func (p *Preconditioned) Source(b linop.Field) linop.Field {
	s := b.Clone()
	s.Scale(p.inv)
	return s
}

func (p *Preconditioned) Apply(psi linop.Field) (linop.Field, error) {
	eta, err := p.op.Apply(psi)
	if err != nil {
		return nil, err
	}
	eta.Scale(p.inv)
	return eta, nil
}

func (p *Preconditioned) ApplyHermitian(psi linop.Field) (linop.Field, error) {
	eta, err := p.op.ApplyHermitian(psi)
	if err != nil {
		return nil, err
	}
	eta.Scale(cmplx.Conj(p.inv))
	return eta, nil
}

func (p *Preconditioned) MakeHermitian(psi linop.Field) (linop.Field, error) {
	eta, err := p.op.MakeHermitian(psi)
	if err != nil {
		return nil, err
	}
	a := cmplx.Abs(p.inv)
	eta.Scale(complex(a*a, 0))
	return eta, nil
}

// Preconditioning names what prepare did to a system.
type Preconditioning int

const (
	// NoPreconditioning solves D x = b as given.
	NoPreconditioning Preconditioning = iota
	// EvenOddPreconditioning solves the Schur complement on odd sites and
	// reconstructs the even ones.
	EvenOddPreconditioning
	// DiagonalPreconditioning scales by the constant diagonal. It is the
	// fallback for operators without an even-odd decomposition and does not
	// change the Krylov iterates.
	DiagonalPreconditioning
)

func (p Preconditioning) String() string {
	switch p {
	case EvenOddPreconditioning:
		return "even-odd"
	case DiagonalPreconditioning:
		return "diagonal"
	default:
		return "none"
	}
}

// system is the linear system a solver actually iterates on.
type system struct {
	op    linop.Operator
	b     linop.Field
	kind  Preconditioning
	solve func(x linop.Field) (linop.Field, error)
}

func identity(x linop.Field) (linop.Field, error) { return x, nil }

// prepare validates the input and applies preconditioning when requested:
// even-odd reduction when op supports it, diagonal scaling otherwise. The
// returned rhs is always a fresh copy.
func prepare(op linop.Operator, rhs linop.Field, p Params) (*system, error) {
	if err := linop.CheckSize(op, rhs); err != nil {
		return nil, err
	}
	if !p.Precondition {
		return &system{op: op, b: rhs.Clone(), solve: identity}, nil
	}
	if r, ok := op.(linop.Reducer); ok {
		if eo, ok := r.EvenOdd(); ok {
			b, err := eo.Source(rhs)
			if err != nil {
				return nil, err
			}
			return &system{
				op:   eo,
				b:    b,
				kind: EvenOddPreconditioning,
				solve: func(x linop.Field) (linop.Field, error) {
					return eo.Reconstruct(rhs, x)
				},
			}, nil
		}
	}
	pc := NewPreconditioned(op)
	return &system{op: pc, b: pc.Source(rhs), kind: DiagonalPreconditioning, solve: identity}, nil
}

// iterator runs a Krylov method on a prepared system, accumulating into
// res.Solution.
type iterator func(op linop.Operator, b linop.Field, p Params, res *Result) error

// run times an inversion and maps the solution of the prepared system back
// to the full one.
func run(m Method, op linop.Operator, rhs linop.Field, p Params, iterate iterator) (*Result, error) {
	start := time.Now()
	p = p.withDefaults()

	sys, err := prepare(op, rhs, p)
	if err != nil {
		return nil, err
	}

	res := &Result{Method: m, Solution: linop.NewField(len(sys.b)), Preconditioning: sys.kind}
	if err := iterate(sys.op, sys.b, p, res); err != nil {
		return nil, err
	}
	if res.Solution, err = sys.solve(res.Solution); err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(start)
	return res, nil
}
