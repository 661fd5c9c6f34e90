package solvers

import (
	"github.com/san-kum/qcdsim/internal/linop"
)

// ConjugateGradient solves D x = b through the normal equations
// D^dag D x = D^dag b. The reported residual is that of the normal
// equations.
type ConjugateGradient struct{}

func NewCG() *ConjugateGradient { return &ConjugateGradient{} }

func (*ConjugateGradient) Method() Method { return CG }

func (s *ConjugateGradient) Solve(op linop.Operator, rhs linop.Field, p Params) (*Result, error) {
	return run(CG, op, rhs, p, s.iterate)
}

func (*ConjugateGradient) iterate(op linop.Operator, b linop.Field, p Params, res *Result) error {
	r, err := op.ApplyHermitian(b)
	if err != nil {
		return err
	}
	norm0 := r.Norm()
	if norm0 == 0 {
		res.Converged = true
		return nil
	}

	x := res.Solution
	dir := r.Clone()
	rr := r.Dot(r)

	for res.Iterations < p.MaxIterations {
		ap, err := op.MakeHermitian(dir)
		if err != nil {
			return err
		}
		pap := dir.Dot(ap)
		if vanishes(pap, dir.Norm()*ap.Norm()) {
			return breakdown(CG, res.Iterations+1, "<p, D^dag D p>", pap)
		}

		alpha := rr / pap
		x.Axpy(alpha, dir)
		r.Axpy(-alpha, ap)

		rrNew := r.Dot(r)
		res.record(p, r.Norm()/norm0)
		if res.Residual <= p.Tolerance {
			res.Converged = true
			break
		}

		beta := rrNew / rr
		rr = rrNew
		dir.Scale(beta)
		dir.Axpy(1, r)
	}
	return nil
}
