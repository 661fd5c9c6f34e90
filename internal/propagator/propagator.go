package propagator

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/qcdsim/internal/linop"
)

// SiteMatrix is the propagator at one site; rows and columns are indexed by
// colour + 3*spin.
type SiteMatrix [linop.SpinColour][linop.SpinColour]complex128

// Norm returns the Frobenius norm.
func (m *SiteMatrix) Norm() float64 {
	var sum float64
	for i := range m {
		for j := range m[i] {
			a := cmplx.Abs(m[i][j])
			sum += a * a
		}
	}
	return math.Sqrt(sum)
}

// Propagator holds one SiteMatrix per lattice site.
type Propagator []SiteMatrix

func New(nSites int) Propagator {
	return make(Propagator, nSites)
}

// Column returns the flat column index for a source spin and colour.
func Column(spin, colour int) int {
	return colour + linop.NumColours*spin
}

func (p Propagator) At(site, row, col int) complex128 {
	return p[site][row][col]
}

// setColumn scatters a solution field into column col of every site.
func (p Propagator) setColumn(col int, solution linop.Field) {
	for site := range p {
		base := site * linop.SpinColour
		for row := 0; row < linop.SpinColour; row++ {
			p[site][row][col] = solution[base+row]
		}
	}
}

// Slicer maps sites to time slices.
type Slicer interface {
	TemporalExtent() int
	Coords(site int) [4]int
}

// TimeSliceNorms returns sum |S(x)|^2 over the sites of each time slice.
func (p Propagator) TimeSliceNorms(lat Slicer) []float64 {
	norms := make([]float64, lat.TemporalExtent())
	for site := range p {
		n := p[site].Norm()
		norms[lat.Coords(site)[0]] += n * n
	}
	return norms
}
