package propagator

import (
	"fmt"

	"github.com/san-kum/qcdsim/internal/dirac"
	"github.com/san-kum/qcdsim/internal/linop"
	"github.com/san-kum/qcdsim/internal/solvers"
)

// InvertDiracOperator solves op psi = eta with the method and solver
// parameters in p. No smearing is applied.
func InvertDiracOperator(eta linop.Field, op linop.Operator, p Params) (linop.Field, *solvers.Result, error) {
	if !p.Method.Valid() && p.Verbosity > 0 {
		fmt.Fprintf(p.out(), "  warning: unknown solver %s, falling back to %s\n", p.Method, solvers.CG)
	}
	return invert(eta, op, p)
}

func invert(eta linop.Field, op linop.Operator, p Params) (linop.Field, *solvers.Result, error) {
	out := p.out()
	sp := p.Solver
	if p.Verbosity > 1 {
		user := sp.Observer
		sp.Observer = solvers.ObserverFunc(func(iter int, residual float64) {
			fmt.Fprintf(out, "    iteration %4d  residual %.3e\n", iter, residual)
			if user != nil {
				user.OnIteration(iter, residual)
			}
		})
	}

	res, err := solvers.Solve(p.Method, op, eta, sp)
	if err != nil {
		return nil, nil, err
	}
	if p.Verbosity > 0 {
		status := "converged"
		if !res.Converged {
			status = "not converged"
		}
		fmt.Fprintf(out, "  -> %s %s: residual %.3e in %d iterations (%s)\n",
			res.Method, status, res.Residual, res.Iterations, res.Elapsed)
	}
	return res.Solution, res, nil
}

func invertStencil(eta linop.Field, kind dirac.Kind, mass float64, lat dirac.Links, p Params) (linop.Field, *solvers.Result, error) {
	op, err := stencil(p, kind, mass, lat)
	if err != nil {
		return nil, nil, err
	}
	return InvertDiracOperator(eta, op, p)
}

func InvertWilson(eta linop.Field, mass float64, lat dirac.Links, p Params) (linop.Field, *solvers.Result, error) {
	return invertStencil(eta, dirac.Wilson, mass, lat, p)
}

func InvertHamberWu(eta linop.Field, mass float64, lat dirac.Links, p Params) (linop.Field, *solvers.Result, error) {
	return invertStencil(eta, dirac.HamberWu, mass, lat, p)
}

func InvertNaik(eta linop.Field, mass float64, lat dirac.Links, p Params) (linop.Field, *solvers.Result, error) {
	return invertStencil(eta, dirac.Naik, mass, lat, p)
}

// InvertDWF solves the 5D domain-wall system; eta must span all Ls slices.
func InvertDWF(eta linop.Field, mass, m5 float64, ls int, kernel dirac.Kind, lat dirac.Links, p Params) (linop.Field, *solvers.Result, error) {
	op, err := generate(p, func() (*dirac.DWF, error) {
		return dirac.NewDWF(mass, m5, ls, kernel, p.BoundaryConditions, lat)
	})
	if err != nil {
		return nil, nil, err
	}
	return InvertDiracOperator(eta, op, p)
}
