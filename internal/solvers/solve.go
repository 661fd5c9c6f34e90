package solvers

import (
	"github.com/san-kum/qcdsim/internal/linop"
)

// Solver inverts an operator against a right-hand side.
type Solver interface {
	Method() Method
	Solve(op linop.Operator, rhs linop.Field, p Params) (*Result, error)
}

// New returns the solver for m. Unknown methods get CG.
func New(m Method) Solver {
	switch m {
	case BiCGStab:
		return NewBiCGStab()
	case GMRES:
		return NewGMRES()
	default:
		return NewCG()
	}
}

// Solve inverts op against rhs with the requested method. An unknown method
// is not an error: CG is used instead and the result has FellBack set so
// the caller can warn about it.
func Solve(m Method, op linop.Operator, rhs linop.Field, p Params) (*Result, error) {
	res, err := New(m).Solve(op, rhs, p)
	if err != nil {
		return nil, err
	}
	res.FellBack = !m.Valid()
	return res, nil
}
