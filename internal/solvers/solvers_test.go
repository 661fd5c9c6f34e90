package solvers_test

import (
	"math/cmplx"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/oops"

	"github.com/san-kum/qcdsim/internal/dirac"
	"github.com/san-kum/qcdsim/internal/lattice"
	"github.com/san-kum/qcdsim/internal/linop"
	"github.com/san-kum/qcdsim/internal/solvers"
)

func randomField(rng *rand.Rand, n int) linop.Field {
	f := linop.NewField(n)
	for i := range f {
		f[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	return f
}

func trueResidual(op linop.Operator, x, b linop.Field) float64 {
	ax, err := op.Apply(x)
	Expect(err).NotTo(HaveOccurred())
	return b.Sub(ax).Norm() / b.Norm()
}

// swap exchanges the two components of a 2-vector; BiCGStab breaks down on
// it immediately because <b, A b> = 0 for b = (1, 0).
func swap() linop.Operator {
	return &linop.Ops{
		N: 2,
		MatVec: func(dst, src linop.Field) {
			dst[0], dst[1] = src[1], src[0]
		},
	}
}

var _ = Describe("Krylov solvers", func() {
	var (
		rng    *rand.Rand
		lat    *lattice.Lattice
		wilson *dirac.Stencil
	)

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(42))
		var err error
		lat, err = lattice.NewHot(2, 2, 7)
		Expect(err).NotTo(HaveOccurred())
		wilson = dirac.NewWilson(1.0, dirac.DefaultBoundaryConditions(), lat)
	})

	for _, m := range solvers.Methods() {
		method := m

		Context("with "+method.String(), func() {
			It("inverts a scaled identity in at most two iterations", func() {
				c := complex(2.5, 0.5)
				op := linop.Scaled{N: 24, C: c}
				b := randomField(rng, op.N)

				res, err := solvers.Solve(method, op, b, solvers.DefaultParams())
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Converged).To(BeTrue())
				Expect(res.Iterations).To(BeNumerically("<=", 2))
				Expect(res.Method).To(Equal(method))

				for i := range b {
					Expect(cmplx.Abs(res.Solution[i] - b[i]/c)).To(BeNumerically("<", 1e-10))
				}
			})

			It("returns the zero solution for a zero source", func() {
				res, err := solvers.Solve(method, wilson, linop.NewField(wilson.Size()), solvers.DefaultParams())
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Converged).To(BeTrue())
				Expect(res.Iterations).To(BeZero())
				Expect(res.Solution.IsZero()).To(BeTrue())
			})

			It("solves the Wilson system on a hot lattice", func() {
				b := randomField(rng, wilson.Size())
				orig := b.Clone()

				res, err := solvers.Solve(method, wilson, b, solvers.Params{Tolerance: 1e-10, MaxIterations: 500})
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Converged).To(BeTrue())
				Expect(res.Err()).To(Succeed())
				Expect(trueResidual(wilson, res.Solution, b)).To(BeNumerically("<", 1e-7))
				Expect(res.History).To(HaveLen(res.Iterations))

				Expect(b).To(Equal(orig), "the source must not be modified")
			})

			It("agrees with and without preconditioning", func() {
				b := randomField(rng, wilson.Size())
				p := solvers.Params{Tolerance: 1e-10, MaxIterations: 500}

				plain, err := solvers.Solve(method, wilson, b, p)
				Expect(err).NotTo(HaveOccurred())

				p.Precondition = true
				pre, err := solvers.Solve(method, wilson, b, p)
				Expect(err).NotTo(HaveOccurred())
				Expect(pre.Converged).To(BeTrue())

				diff := plain.Solution.Sub(pre.Solution).Norm() / plain.Solution.Norm()
				Expect(diff).To(BeNumerically("<", 1e-7))
			})

			It("reports non-convergence as data", func() {
				b := randomField(rng, wilson.Size())
				res, err := solvers.Solve(method, wilson, b, solvers.Params{Tolerance: 1e-14, MaxIterations: 2})
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Converged).To(BeFalse())
				Expect(res.Iterations).To(Equal(2))
				Expect(res.Err()).To(MatchError(linop.ErrNotConverged))
			})

			It("notifies the observer once per iteration", func() {
				var seen []float64
				p := solvers.DefaultParams()
				p.Observer = solvers.ObserverFunc(func(iter int, residual float64) {
					Expect(iter).To(Equal(len(seen) + 1))
					seen = append(seen, residual)
				})

				res, err := solvers.Solve(method, wilson, randomField(rng, wilson.Size()), p)
				Expect(err).NotTo(HaveOccurred())
				Expect(seen).To(Equal(res.History))
			})

			It("rejects a source of the wrong size", func() {
				_, err := solvers.Solve(method, wilson, linop.NewField(7), solvers.DefaultParams())
				Expect(err).To(MatchError(linop.ErrSizeMismatch))
			})
		})
	}

	Describe("GMRES restarts", func() {
		It("never holds more basis vectors than the restart length", func() {
			for _, k := range []int{1, 3, 5} {
				b := randomField(rng, wilson.Size())
				res, err := solvers.Solve(solvers.GMRES, wilson, b, solvers.Params{
					Tolerance:     1e-10,
					MaxIterations: 60,
					Restart:       k,
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Iterations).To(BeNumerically(">", k))
				Expect(res.MaxBasis).To(BeNumerically("<=", k))
				Expect(res.MaxBasis).To(BeNumerically(">=", 1))
			}
		})
	})

	Describe("even-odd preconditioning", func() {
		var light *dirac.Stencil

		BeforeEach(func() {
			light = dirac.NewWilson(0.05, dirac.DefaultBoundaryConditions(), lat)
		})

		for _, m := range solvers.Methods() {
			method := m

			It("reduces the Wilson system for "+method.String(), func() {
				b := randomField(rng, light.Size())
				p := solvers.Params{Tolerance: 1e-10, MaxIterations: 1000, Restart: 10}

				plain, err := solvers.Solve(method, light, b, p)
				Expect(err).NotTo(HaveOccurred())
				Expect(plain.Converged).To(BeTrue())
				Expect(plain.Preconditioning).To(Equal(solvers.NoPreconditioning))

				p.Precondition = true
				pre, err := solvers.Solve(method, light, b, p)
				Expect(err).NotTo(HaveOccurred())
				Expect(pre.Converged).To(BeTrue())
				Expect(pre.Preconditioning).To(Equal(solvers.EvenOddPreconditioning))
				Expect(pre.Solution).To(HaveLen(light.Size()))
				Expect(pre.Iterations).To(BeNumerically("<", plain.Iterations))

				Expect(trueResidual(light, pre.Solution, b)).To(BeNumerically("<", 1e-7))
				diff := plain.Solution.Sub(pre.Solution).Norm() / plain.Solution.Norm()
				Expect(diff).To(BeNumerically("<", 1e-6))
			})
		}

		It("reconstructs the even sites for a source on one parity", func() {
			b := linop.PointSource(light.Size(), 0, 2, 1)
			res, err := solvers.Solve(solvers.CG, light, b, solvers.Params{Tolerance: 1e-10, Precondition: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Preconditioning).To(Equal(solvers.EvenOddPreconditioning))
			Expect(trueResidual(light, res.Solution, b)).To(BeNumerically("<", 1e-7))
		})

		It("falls back to diagonal scaling for Hamber-Wu", func() {
			hw := dirac.NewHamberWu(0.5, dirac.DefaultBoundaryConditions(), lat)
			b := randomField(rng, hw.Size())
			res, err := solvers.Solve(solvers.BiCGStab, hw, b, solvers.Params{Tolerance: 1e-10, Precondition: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(res.Preconditioning).To(Equal(solvers.DiagonalPreconditioning))
			Expect(trueResidual(hw, res.Solution, b)).To(BeNumerically("<", 1e-7))
		})

		It("falls back to diagonal scaling for domain-wall fermions", func() {
			dwf, err := dirac.NewDWF(0.2, 1.5, 2, dirac.Wilson, dirac.DefaultBoundaryConditions(), lat)
			Expect(err).NotTo(HaveOccurred())
			b := randomField(rng, dwf.Size())
			res, err := solvers.Solve(solvers.GMRES, dwf, b, solvers.Params{Tolerance: 1e-8, MaxIterations: 2000, Precondition: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Preconditioning).To(Equal(solvers.DiagonalPreconditioning))
			Expect(res.Solution).To(HaveLen(dwf.Size()))
		})
	})

	Describe("GMRES breakdown", func() {
		It("reports the solver iteration, not the Hessenberg row", func() {
			op := linop.Scaled{N: 4, C: 0}
			res, err := solvers.Solve(solvers.GMRES, op, linop.Field{1, 0, 0, 0}, solvers.DefaultParams())
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(linop.ErrBreakdown))
			Expect(err.Error()).To(ContainSubstring("at iteration 1"))

			oopsErr, ok := oops.AsOops(err)
			Expect(ok).To(BeTrue())
			Expect(oopsErr.Code()).To(Equal(solvers.CodeBreakdown))
		})
	})

	Describe("BiCGStab breakdown", func() {
		It("fails with a structured breakdown error", func() {
			b := linop.Field{1, 0}
			res, err := solvers.Solve(solvers.BiCGStab, swap(), b, solvers.DefaultParams())
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(linop.ErrBreakdown))

			oopsErr, ok := oops.AsOops(err)
			Expect(ok).To(BeTrue())
			Expect(oopsErr.Code()).To(Equal(solvers.CodeBreakdown))
		})

		It("does not affect CG on the same system", func() {
			b := linop.Field{1, 0}
			res, err := solvers.Solve(solvers.CG, swap(), b, solvers.DefaultParams())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(cmplx.Abs(res.Solution[1] - 1)).To(BeNumerically("<", 1e-12))
		})
	})

	Describe("method selection", func() {
		It("falls back to CG for unknown methods", func() {
			op := linop.Scaled{N: 4, C: 2}
			res, err := solvers.Solve(solvers.Method(99), op, linop.Field{1, 2, 3, 4}, solvers.DefaultParams())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.FellBack).To(BeTrue())
			Expect(res.Method).To(Equal(solvers.CG))
		})

		DescribeTable("ParseMethod",
			func(name string, want solvers.Method, ok bool) {
				got, err := solvers.ParseMethod(name)
				if !ok {
					Expect(err).To(MatchError(linop.ErrInvalidParameter))
					return
				}
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			},
			Entry("cg", "cg", solvers.CG, true),
			Entry("upper case", "BiCGStab", solvers.BiCGStab, true),
			Entry("padded", " gmres ", solvers.GMRES, true),
			Entry("unknown", "minres", solvers.Method(0), false),
		)
	})
})
