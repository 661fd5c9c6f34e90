package propagator_test

import (
	"bytes"
	"errors"
	"math"
	"math/cmplx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/qcdsim/internal/dirac"
	"github.com/san-kum/qcdsim/internal/lattice"
	"github.com/san-kum/qcdsim/internal/linop"
	"github.com/san-kum/qcdsim/internal/propagator"
	"github.com/san-kum/qcdsim/internal/solvers"
)

func manhattan(lat *lattice.Lattice, a, b [4]int) int {
	d := 0
	for mu := 0; mu < 4; mu++ {
		ext := lat.Extent(mu)
		diff := (a[mu] - b[mu] + ext) % ext
		if ext-diff < diff {
			diff = ext - diff
		}
		d += diff
	}
	return d
}

func sameLinks(a, b lattice.GaugeField) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var errBoom = errors.New("boom")

// failingAt wraps an operator and fails the adjoint application that starts
// inversion number n (counting from 1). CG applies the adjoint exactly once
// per inversion on a Scaled operator.
type failingAt struct {
	linop.Scaled
	n, calls int
}

func (f *failingAt) ApplyHermitian(psi linop.Field) (linop.Field, error) {
	f.calls++
	if f.calls == f.n {
		return nil, errBoom
	}
	return f.Scaled.ApplyHermitian(psi)
}

func (f *failingAt) MakeHermitian(psi linop.Field) (linop.Field, error) {
	eta, err := f.Scaled.Apply(psi)
	if err != nil {
		return nil, err
	}
	return f.Scaled.ApplyHermitian(eta)
}

var _ = Describe("Propagator pipeline", func() {
	var params propagator.Params

	BeforeEach(func() {
		params = propagator.DefaultParams()
		params.Solver.Tolerance = 1e-6
		params.Solver.MaxIterations = 500
	})

	Describe("free Wilson propagator on a 2^4 lattice", func() {
		var (
			lat *lattice.Lattice
			res *propagator.Result
		)

		BeforeEach(func() {
			var err error
			lat, err = lattice.New(2, 2)
			Expect(err).NotTo(HaveOccurred())

			res, err = propagator.ComputeWilson(1.0, lat, params)
			Expect(err).NotTo(HaveOccurred())
		})

		It("converges every inversion within the iteration bound", func() {
			Expect(res.Inversions).To(HaveLen(linop.SpinColour))
			for _, inv := range res.Inversions {
				Expect(inv.Converged).To(BeTrue())
				Expect(inv.Iterations).To(BeNumerically("<", 200))
				Expect(inv.Residual).To(BeNumerically("<=", 1e-6))
				Expect(inv.Method).To(Equal(solvers.CG))
			}
			Expect(res.Converged()).To(BeTrue())
			Expect(res.TotalIterations()).To(BeNumerically(">", 0))
		})

		It("inverts in spin-major order", func() {
			for i, inv := range res.Inversions {
				Expect(propagator.Column(inv.Spin, inv.Colour)).To(Equal(i))
			}
		})

		It("is diagonally dominant at the source", func() {
			src := res.Propagator[lat.SiteIndex(params.Site)]
			for i := 0; i < linop.SpinColour; i++ {
				off := 0.0
				for j := 0; j < linop.SpinColour; j++ {
					if j != i {
						off += cmplx.Abs(src[i][j])
					}
				}
				Expect(cmplx.Abs(src[i][i])).To(BeNumerically(">", off))
			}
		})

		It("decays with distance from the source", func() {
			var shells [5]float64
			var counts [5]int
			for site := range res.Propagator {
				d := manhattan(lat, lat.Coords(site), params.Site)
				shells[d] += res.Propagator[site].Norm()
				counts[d]++
			}
			for d := 1; d < len(shells); d++ {
				Expect(shells[d] / float64(counts[d])).To(BeNumerically("<", shells[d-1]/float64(counts[d-1])))
			}
		})

		It("splits its norm over time slices", func() {
			norms := res.Propagator.TimeSliceNorms(lat)
			Expect(norms).To(HaveLen(2))

			total := 0.0
			for site := range res.Propagator {
				n := res.Propagator[site].Norm()
				total += n * n
			}
			Expect(norms[0] + norms[1]).To(BeNumerically("~", total, 1e-12))
			Expect(norms[0]).To(BeNumerically(">", norms[1]))
		})
	})

	It("scatters solutions into the matching columns", func() {
		lat, _ := lattice.New(2, 2)
		params.Site = [4]int{1, 0, 1, 0}
		op := linop.Scaled{N: linop.SpinColour * lat.NumSites(), C: 2}

		res, err := propagator.Compute(op, lat, params)
		Expect(err).NotTo(HaveOccurred())

		src := lat.SiteIndex(params.Site)
		for site := range res.Propagator {
			for row := 0; row < linop.SpinColour; row++ {
				for col := 0; col < linop.SpinColour; col++ {
					want := complex128(0)
					if site == src && row == col {
						want = 0.5
					}
					Expect(cmplx.Abs(res.Propagator.At(site, row, col) - want)).To(BeNumerically("<", 1e-9))
				}
			}
		}
	})

	It("rejects an operator that does not match the lattice", func() {
		lat, _ := lattice.New(2, 2)
		_, err := propagator.Compute(linop.Scaled{N: 5, C: 1}, lat, params)
		Expect(err).To(MatchError(linop.ErrSizeMismatch))
	})

	Describe("gauge link smearing", func() {
		var (
			lat    *lattice.Lattice
			before lattice.GaugeField
		)

		BeforeEach(func() {
			var err error
			lat, err = lattice.NewHot(2, 2, 11)
			Expect(err).NotTo(HaveOccurred())
			before = lat.Snapshot()
			params.LinkSmearing = propagator.Smearing{Count: 2, Parameter: 0.1}
		})

		It("restores the links bit for bit after a run", func() {
			_, err := propagator.ComputeHamberWu(0.8, lat, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(sameLinks(lat.Snapshot(), before)).To(BeTrue())
		})

		It("restores the links when the run fails", func() {
			params.SinkSmearing = propagator.Smearing{Count: -1}
			_, err := propagator.ComputeWilson(0.8, lat, params)
			Expect(err).To(MatchError(linop.ErrInvalidParameter))
			Expect(sameLinks(lat.Snapshot(), before)).To(BeTrue())
		})

		It("restores the links when an inversion fails mid-run", func() {
			op := &failingAt{Scaled: linop.Scaled{N: linop.SpinColour * lat.NumSites(), C: 2}, n: 11}
			_, err := propagator.Compute(op, lat, params)
			Expect(err).To(MatchError(errBoom))
			Expect(err.Error()).To(ContainSubstring("spin 3 colour 1"))
			Expect(op.calls).To(Equal(11))
			Expect(sameLinks(lat.Snapshot(), before)).To(BeTrue())
		})

		It("inverts on the smeared field", func() {
			smeared, err := propagator.ComputeWilson(0.8, lat, params)
			Expect(err).NotTo(HaveOccurred())

			params.LinkSmearing = propagator.Smearing{}
			plain, err := propagator.ComputeWilson(0.8, lat, params)
			Expect(err).NotTo(HaveOccurred())

			src := lat.SiteIndex(params.Site)
			Expect(smeared.Propagator[src]).NotTo(Equal(plain.Propagator[src]))
		})
	})

	It("smears sources and sinks with Jacobi smearing", func() {
		lat, _ := lattice.New(4, 2)
		params.SourceSmearing = propagator.Smearing{Count: 2, Parameter: 0.2}
		params.SinkSmearing = propagator.Smearing{Count: 2, Parameter: 0.2}

		res, err := propagator.ComputeNaik(0.5, lat, params)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Converged()).To(BeTrue())

		norms := res.Propagator.TimeSliceNorms(lat)
		for _, n := range norms {
			Expect(math.IsNaN(n)).To(BeFalse())
			Expect(n).To(BeNumerically(">", 0))
		}
	})

	It("computes a domain-wall propagator", func() {
		lat, _ := lattice.New(2, 2)
		params.Solver = solvers.Params{Tolerance: 1e-8, MaxIterations: 2000}

		res, err := propagator.ComputeDWF(0.1, 1.8, 4, dirac.Wilson, lat, params)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Converged()).To(BeTrue())
		Expect(res.Propagator).To(HaveLen(lat.NumSites()))
		Expect(res.Propagator[lat.SiteIndex(params.Site)].Norm()).To(BeNumerically(">", 0))
	})

	Describe("direct inversion", func() {
		DescribeTable("solves a single source",
			func(invert func(linop.Field, float64, dirac.Links, propagator.Params) (linop.Field, *solvers.Result, error), kind dirac.Kind, precondition bool) {
				lat, _ := lattice.NewHot(2, 2, 3)
				eta := linop.PointSource(linop.SpinColour*lat.NumSites(), 0, 1, 2)
				params.Method = solvers.BiCGStab
				params.Solver.Tolerance = 1e-10
				params.Solver.Precondition = precondition

				psi, res, err := invert(eta, 0.5, lat, params)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Converged).To(BeTrue())

				op, err := dirac.New(kind, 0.5, params.BoundaryConditions, lat)
				Expect(err).NotTo(HaveOccurred())
				back, err := op.Apply(psi)
				Expect(err).NotTo(HaveOccurred())
				Expect(back.Sub(eta).Norm()).To(BeNumerically("<", 1e-8))
			},
			Entry("wilson", propagator.InvertWilson, dirac.Wilson, false),
			Entry("wilson even-odd", propagator.InvertWilson, dirac.Wilson, true),
			Entry("hamber-wu", propagator.InvertHamberWu, dirac.HamberWu, false),
			Entry("naik", propagator.InvertNaik, dirac.Naik, false),
			Entry("naik even-odd", propagator.InvertNaik, dirac.Naik, true),
		)

		It("solves the five dimensional domain-wall system", func() {
			lat, _ := lattice.New(2, 2)
			op, err := dirac.NewDWF(0.2, 1.5, 3, dirac.HamberWu, params.BoundaryConditions, lat)
			Expect(err).NotTo(HaveOccurred())
			eta := propagator.WallSource(op, linop.PointSource(op.Kernel().Size(), 0, 0, 0))

			params.Solver.MaxIterations = 2000
			psi, res, err := propagator.InvertDWF(eta, 0.2, 1.5, 3, dirac.HamberWu, lat, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(psi).To(HaveLen(op.Size()))
		})
	})

	Describe("verbosity", func() {
		var (
			lat *lattice.Lattice
			buf *bytes.Buffer
		)

		BeforeEach(func() {
			lat, _ = lattice.New(2, 2)
			buf = &bytes.Buffer{}
			params.Output = buf
		})

		It("stays silent at level 0", func() {
			_, err := propagator.ComputeWilson(1, lat, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.Len()).To(BeZero())
		})

		It("reports every inversion at level 1", func() {
			params.Verbosity = 1
			_, err := propagator.ComputeWilson(1, lat, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(HavePrefix("  Generating Dirac matrix... Done!\n"))
			Expect(buf.String()).To(ContainSubstring("Inverting for spin 3 and colour 2"))
			Expect(buf.String()).To(ContainSubstring("cg converged"))
			Expect(buf.String()).NotTo(ContainSubstring("iteration "))
		})

		It("announces the domain-wall operator at level 1", func() {
			params.Verbosity = 1
			params.Solver.MaxIterations = 2000
			_, err := propagator.ComputeDWF(0.2, 1.5, 2, dirac.Wilson, lat, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(HavePrefix("  Generating Dirac matrix... Done!\n"))
		})

		It("reports solver iterations at level 2", func() {
			params.Verbosity = 2
			_, err := propagator.ComputeWilson(1, lat, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("iteration    1"))
		})

		It("warns when an unknown solver falls back to CG", func() {
			params.Verbosity = 1
			params.Method = solvers.Method(9)
			res, err := propagator.ComputeWilson(1, lat, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("falling back to cg"))
			Expect(res.Inversions[0].Method).To(Equal(solvers.CG))
		})
	})
})
