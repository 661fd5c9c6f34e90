package solvers

import (
	"github.com/samber/oops"

	"github.com/san-kum/qcdsim/internal/linop"
)

// CodeBreakdown tags breakdown errors for oops consumers.
const CodeBreakdown = "solver.breakdown"

// breakdownEps is the relative size below which a Krylov denominator is
// treated as zero.
const breakdownEps = 1e-30

func breakdown(m Method, iter int, quantity string, value complex128) error {
	return oops.
		Code(CodeBreakdown).
		In("solvers").
		With("method", m.String(), "iteration", iter, "quantity", quantity, "value", value).
		Wrapf(linop.ErrBreakdown, "%s: %s vanished at iteration %d", m, quantity, iter)
}

func vanishes(v complex128, scale float64) bool {
	return real(v)*real(v)+imag(v)*imag(v) <= breakdownEps*breakdownEps*scale*scale
}
