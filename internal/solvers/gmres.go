package solvers

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/qcdsim/internal/linop"
)

// Restarted is GMRES(k). Each cycle holds at most Params.Restart basis
// vectors: the Arnoldi vector produced by the last step of a cycle only
// contributes its norm and is never stored.
type Restarted struct{}

func NewGMRES() *Restarted { return &Restarted{} }

func (*Restarted) Method() Method { return GMRES }

func (s *Restarted) Solve(op linop.Operator, rhs linop.Field, p Params) (*Result, error) {
	return run(GMRES, op, rhs, p, s.iterate)
}

func (*Restarted) iterate(op linop.Operator, b linop.Field, p Params, res *Result) error {
	bnorm := b.Norm()
	if bnorm == 0 {
		res.Converged = true
		return nil
	}

	m := p.Restart
	x := res.Solution
	h := make([][]complex128, m+1)
	for i := range h {
		h[i] = make([]complex128, m)
	}
	cs := make([]float64, m)
	sn := make([]complex128, m)
	g := make([]complex128, m+1)
	basis := make([]linop.Field, 0, m)

	for res.Iterations < p.MaxIterations {
		ax, err := op.Apply(x)
		if err != nil {
			return err
		}
		r := b.Clone()
		r.Axpy(-1, ax)
		beta := r.Norm()
		if beta/bnorm <= p.Tolerance {
			res.Residual = beta / bnorm
			res.Converged = true
			break
		}

		r.Scale(complex(1/beta, 0))
		basis = append(basis[:0], r)
		for i := range g {
			g[i] = 0
		}
		g[0] = complex(beta, 0)

		k := 0
		for k < m && res.Iterations < p.MaxIterations {
			w, err := op.Apply(basis[k])
			if err != nil {
				return err
			}
			for i := 0; i <= k; i++ {
				h[i][k] = basis[i].Dot(w)
				w.Axpy(-h[i][k], basis[i])
			}
			wnorm := w.Norm()
			h[k+1][k] = complex(wnorm, 0)

			for i := 0; i < k; i++ {
				rotate(cs[i], sn[i], &h[i][k], &h[i+1][k])
			}
			cs[k], sn[k] = givens(h[k][k], h[k+1][k])
			rotate(cs[k], sn[k], &h[k][k], &h[k+1][k])
			rotate(cs[k], sn[k], &g[k], &g[k+1])

			k++
			res.record(p, cmplx.Abs(g[k])/bnorm)
			if res.Residual <= p.Tolerance || wnorm == 0 {
				break
			}
			if k < m {
				w.Scale(complex(1/wnorm, 0))
				basis = append(basis, w)
			}
		}
		if len(basis) > res.MaxBasis {
			res.MaxBasis = len(basis)
		}

		y, err := backSubstitute(h, g, k, res.Iterations)
		if err != nil {
			return err
		}
		for i := 0; i < k; i++ {
			x.Axpy(y[i], basis[i])
		}

		if res.Residual <= p.Tolerance {
			res.Converged = true
			break
		}
	}
	return nil
}

// givens returns the rotation that zeroes b against a:
// [c s; -conj(s) c] (a, b) = (r, 0).
func givens(a, b complex128) (float64, complex128) {
	if b == 0 {
		return 1, 0
	}
	if a == 0 {
		return 0, 1
	}
	absA := cmplx.Abs(a)
	norm := math.Hypot(absA, cmplx.Abs(b))
	return absA / norm, (a / complex(absA, 0)) * cmplx.Conj(b) / complex(norm, 0)
}

func rotate(c float64, s complex128, x, y *complex128) {
	cx := complex(c, 0)
	x0 := *x
	*x = cx*x0 + s*(*y)
	*y = -cmplx.Conj(s)*x0 + cx*(*y)
}

// backSubstitute solves the k x k upper triangular system H y = g. iter is
// the solver iteration reported on breakdown.
func backSubstitute(h [][]complex128, g []complex128, k, iter int) ([]complex128, error) {
	y := make([]complex128, k)
	for i := k - 1; i >= 0; i-- {
		sum := g[i]
		for j := i + 1; j < k; j++ {
			sum -= h[i][j] * y[j]
		}
		if h[i][i] == 0 {
			return nil, breakdown(GMRES, iter, "Hessenberg diagonal", 0)
		}
		y[i] = sum / h[i][i]
	}
	return y, nil
}
