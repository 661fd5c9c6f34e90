package solvers

import (
	"github.com/san-kum/qcdsim/internal/linop"
)

// Stabilised solves D x = b directly with BiCGStab. It fails with
// linop.ErrBreakdown when one of its denominators vanishes.
type Stabilised struct{}

func NewBiCGStab() *Stabilised { return &Stabilised{} }

func (*Stabilised) Method() Method { return BiCGStab }

func (s *Stabilised) Solve(op linop.Operator, rhs linop.Field, p Params) (*Result, error) {
	return run(BiCGStab, op, rhs, p, s.iterate)
}

func (*Stabilised) iterate(op linop.Operator, b linop.Field, p Params, res *Result) error {
	bnorm := b.Norm()
	if bnorm == 0 {
		res.Converged = true
		return nil
	}

	x := res.Solution
	r := b.Clone()
	rhat := b.Clone()
	dir := linop.NewField(len(b))
	v := linop.NewField(len(b))

	rho, alpha, omega := complex(1, 0), complex(1, 0), complex(1, 0)

	for res.Iterations < p.MaxIterations {
		iter := res.Iterations + 1

		rhoNew := rhat.Dot(r)
		if vanishes(rhoNew, rhat.Norm()*r.Norm()) {
			return breakdown(BiCGStab, iter, "rho", rhoNew)
		}

		beta := (rhoNew / rho) * (alpha / omega)
		rho = rhoNew

		// p = r + beta (p - omega v)
		dir.Axpy(-omega, v)
		dir.Scale(beta)
		dir.Axpy(1, r)

		var err error
		v, err = op.Apply(dir)
		if err != nil {
			return err
		}
		rv := rhat.Dot(v)
		if vanishes(rv, rhat.Norm()*v.Norm()) {
			return breakdown(BiCGStab, iter, "<rhat, v>", rv)
		}
		alpha = rho / rv

		sv := r.Clone()
		sv.Axpy(-alpha, v)
		if sNorm := sv.Norm() / bnorm; sNorm <= p.Tolerance {
			x.Axpy(alpha, dir)
			r = sv
			res.record(p, sNorm)
			res.Converged = true
			break
		}

		t, err := op.Apply(sv)
		if err != nil {
			return err
		}
		tt := t.Dot(t)
		if vanishes(tt, 0) {
			return breakdown(BiCGStab, iter, "<t, t>", tt)
		}
		omega = t.Dot(sv) / tt

		x.Axpy(alpha, dir)
		x.Axpy(omega, sv)

		r = sv
		r.Axpy(-omega, t)

		res.record(p, r.Norm()/bnorm)
		if res.Residual <= p.Tolerance {
			res.Converged = true
			break
		}
		if vanishes(omega, 0) {
			return breakdown(BiCGStab, iter, "omega", omega)
		}
	}
	return nil
}
