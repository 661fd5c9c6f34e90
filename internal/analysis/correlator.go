package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/dsputils"
	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/qcdsim/internal/dirac"
	"github.com/san-kum/qcdsim/internal/linop"
	"github.com/san-kum/qcdsim/internal/propagator"
)

var ErrGeometry = errors.New("analysis: propagator does not match lattice")

// Geometry is the view of the lattice the correlators need.
type Geometry interface {
	NumSites() int
	SpatialExtent() int
	TemporalExtent() int
	Coords(site int) [4]int
}

// SiteCorrelator is SitePairCorrelator with both quark lines taken from s.
func SiteCorrelator(s *propagator.SiteMatrix, gamma dirac.SpinMatrix) float64 {
	return SitePairCorrelator(s, s, gamma)
}

// SitePairCorrelator returns
//
//	Re sum (G g5)_ij conj(S1)_{jl,ab} (g5 G)_lm S2_{im,ab}
//
// for one site, where S_{jl,ab} is the sink spin j, source spin l element of
// the colour block (a, b). S1 and S2 may belong to different quarks.
func SitePairCorrelator(s1, s2 *propagator.SiteMatrix, gamma dirac.SpinMatrix) float64 {
	left := gamma.Mul(dirac.Gamma5)
	right := dirac.Gamma5.Mul(gamma)

	var sum complex128
	for a := 0; a < linop.NumColours; a++ {
		for b := 0; b < linop.NumColours; b++ {
			at := func(s *propagator.SiteMatrix, spin1, spin2 int) complex128 {
				return s[a+linop.NumColours*spin1][b+linop.NumColours*spin2]
			}
			for i := 0; i < linop.NumSpins; i++ {
				for l := 0; l < linop.NumSpins; l++ {
					var x, y complex128
					for j := 0; j < linop.NumSpins; j++ {
						if left[i][j] != 0 {
							v := at(s1, j, l)
							x += left[i][j] * complex(real(v), -imag(v))
						}
					}
					for m := 0; m < linop.NumSpins; m++ {
						if right[l][m] != 0 {
							y += right[l][m] * at(s2, i, m)
						}
					}
					sum += x * y
				}
			}
		}
	}
	return real(sum)
}

// Meson is MesonPair for a meson of two degenerate quarks.
func Meson(prop propagator.Propagator, lat Geometry, in Interpolator, n [3]int) ([]float64, error) {
	return MesonPair(prop, prop, lat, in, n)
}

// MesonPair returns the correlator of one interpolator built from the
// quark propagators prop1 and prop2, projected onto spatial momentum
// 2 pi n / L:
//
//	C(t) = Re sum_x exp(i p.x) C(t, x)
func MesonPair(prop1, prop2 propagator.Propagator, lat Geometry, in Interpolator, n [3]int) ([]float64, error) {
	slices, err := positionSpace(prop1, prop2, lat, in)
	if err != nil {
		return nil, err
	}
	L := lat.SpatialExtent()
	out := make([]float64, len(slices))
	for t, values := range slices {
		out[t] = real(ProjectMomentum(values, L, n))
	}
	return out, nil
}

// Channel is the correlator of one interpolator.
type Channel struct {
	Name       string
	Correlator []float64
}

// Spectrum returns the correlators of all 16 interpolators.
func Spectrum(prop propagator.Propagator, lat Geometry, n [3]int) ([]Channel, error) {
	return SpectrumPair(prop, prop, lat, n)
}

// SpectrumPair returns the 16 correlators of the meson made of the quarks
// behind prop1 and prop2.
func SpectrumPair(prop1, prop2 propagator.Propagator, lat Geometry, n [3]int) ([]Channel, error) {
	ins := Interpolators()
	out := make([]Channel, 0, len(ins))
	for _, in := range ins {
		c, err := MesonPair(prop1, prop2, lat, in, n)
		if err != nil {
			return nil, err
		}
		out = append(out, Channel{Name: in.Name, Correlator: c})
	}
	return out, nil
}

// positionSpace returns C(t, x) per time slice, with x flattened as
// z + L*(y + L*x).
func positionSpace(prop1, prop2 propagator.Propagator, lat Geometry, in Interpolator) ([][]complex128, error) {
	for _, prop := range []propagator.Propagator{prop1, prop2} {
		if len(prop) != lat.NumSites() {
			return nil, fmt.Errorf("%w: %d sites, lattice has %d", ErrGeometry, len(prop), lat.NumSites())
		}
	}
	L := lat.SpatialExtent()
	slices := make([][]complex128, lat.TemporalExtent())
	for t := range slices {
		slices[t] = make([]complex128, L*L*L)
	}
	for site := range prop1 {
		c := lat.Coords(site)
		slices[c[0]][c[3]+L*(c[2]+L*c[1])] = complex(SitePairCorrelator(&prop1[site], &prop2[site], in.Gamma), 0)
	}
	return slices, nil
}

// ProjectMomentum returns sum_x exp(i 2 pi n.x / L) f(x) for f laid out as
// z + L*(y + L*x).
func ProjectMomentum(f []complex128, L int, n [3]int) complex128 {
	m := fft.FFTN(dsputils.MakeMatrix(f, []int{L, L, L}))
	// The transform carries exp(-i k.x), so momentum n sits at k = -n.
	k := make([]int, 3)
	for i := range k {
		k[i] = ((-n[i])%L + L) % L
	}
	return m.Value(k)
}

// EffectiveMass returns log(C(t)/C(t+1)) for each adjacent pair of time
// slices, NaN where the ratio is not positive.
func EffectiveMass(c []float64) []float64 {
	if len(c) < 2 {
		return nil
	}
	out := make([]float64, len(c)-1)
	for t := range out {
		r := c[t] / c[t+1]
		if !(r > 0) || math.IsInf(r, 0) {
			out[t] = math.NaN()
			continue
		}
		out[t] = math.Log(r)
	}
	return out
}
