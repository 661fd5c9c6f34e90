package lattice

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/qcdsim/internal/parallel"
	"github.com/san-kum/qcdsim/internal/su3"
)

// Dims is the number of spacetime dimensions. Direction 0 is time.
const Dims = 4

// GaugeField holds one link matrix per site and direction, ordered by
// LinkIndex.
type GaugeField []su3.Matrix

// Clone returns an independent copy of the field.
func (g GaugeField) Clone() GaugeField {
	c := make(GaugeField, len(g))
	copy(c, g)
	return c
}

// Lattice is a periodic T x L^3 lattice carrying a gauge field.
// It is not safe for concurrent mutation.
type Lattice struct {
	spatialExtent  int
	temporalExtent int
	nSites         int
	links          GaugeField
}

// New returns a lattice with every link set to the identity (cold start).
func New(spatialExtent, temporalExtent int) (*Lattice, error) {
	if spatialExtent < 1 || temporalExtent < 1 {
		return nil, fmt.Errorf("%w: L=%d T=%d", ErrBadExtent, spatialExtent, temporalExtent)
	}

	nSites := temporalExtent * spatialExtent * spatialExtent * spatialExtent
	l := &Lattice{
		spatialExtent:  spatialExtent,
		temporalExtent: temporalExtent,
		nSites:         nSites,
		links:          make(GaugeField, Dims*nSites),
	}
	for i := range l.links {
		l.links[i] = su3.Identity()
	}
	return l, nil
}

// NewHot returns a lattice with independent random SU(3) links.
func NewHot(spatialExtent, temporalExtent int, seed int64) (*Lattice, error) {
	l, err := New(spatialExtent, temporalExtent)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	for i := range l.links {
		l.links[i] = su3.Random(rng)
	}
	return l, nil
}

func (l *Lattice) SpatialExtent() int  { return l.spatialExtent }
func (l *Lattice) TemporalExtent() int { return l.temporalExtent }
func (l *Lattice) NumSites() int       { return l.nSites }
func (l *Lattice) NumLinks() int       { return len(l.links) }

// Extent returns the number of sites along direction mu.
func (l *Lattice) Extent(mu int) int {
	if mu == 0 {
		return l.temporalExtent
	}
	return l.spatialExtent
}

// LinkIndex maps site coordinates (t, x, y, z) and a direction to a flat
// link index. Coordinates must already lie inside the lattice.
func LinkIndex(coords [Dims]int, mu, spatialExtent int) int {
	L := spatialExtent
	return mu + Dims*(coords[3]+L*(coords[2]+L*(coords[1]+L*coords[0])))
}

// SiteIndex returns the linear site index, wrapping coordinates periodically.
func (l *Lattice) SiteIndex(coords [Dims]int) int {
	for mu := 0; mu < Dims; mu++ {
		coords[mu] = mod(coords[mu], l.Extent(mu))
	}
	return LinkIndex(coords, 0, l.spatialExtent) / Dims
}

// Coords is the inverse of SiteIndex.
func (l *Lattice) Coords(site int) [Dims]int {
	L := l.spatialExtent
	var c [Dims]int
	c[3] = site % L
	site /= L
	c[2] = site % L
	site /= L
	c[1] = site % L
	c[0] = site / L
	return c
}

// Shift returns the site reached by moving hops steps along mu (negative
// hops move backwards) together with the signed number of times the move
// wrapped around the lattice boundary.
func (l *Lattice) Shift(site, mu, hops int) (int, int) {
	c := l.Coords(site)
	ext := l.Extent(mu)
	n := c[mu] + hops
	wraps := floorDiv(n, ext)
	c[mu] = n - wraps*ext
	return LinkIndex(c, 0, l.spatialExtent) / Dims, wraps
}

func (l *Lattice) Link(site, mu int) su3.Matrix {
	return l.links[Dims*site+mu]
}

// LinkDagger returns the hermitian conjugate of Link(site, mu).
func (l *Lattice) LinkDagger(site, mu int) su3.Matrix {
	return l.links[Dims*site+mu].Dagger()
}

func (l *Lattice) SetLink(site, mu int, m su3.Matrix) {
	l.links[Dims*site+mu] = m
}

// Snapshot returns a value copy of the full link collection.
func (l *Lattice) Snapshot() GaugeField {
	return l.links.Clone()
}

// SetLinks replaces the full link collection with a copy of field.
func (l *Lattice) SetLinks(field GaugeField) error {
	if len(field) != len(l.links) {
		return fmt.Errorf("%w: got %d links, want %d", ErrSizeMismatch, len(field), len(l.links))
	}
	copy(l.links, field)
	return nil
}

// Restore is SetLinks for a field previously taken with Snapshot.
func (l *Lattice) Restore(field GaugeField) error {
	return l.SetLinks(field)
}

// Plaquette returns the average plaquette Re Tr(U_mu nu)/3 over all sites
// and planes.
func (l *Lattice) Plaquette() float64 {
	sum := 0.0
	for site := 0; site < l.nSites; site++ {
		for mu := 0; mu < Dims; mu++ {
			for nu := mu + 1; nu < Dims; nu++ {
				sum += real(l.plaquette(site, mu, nu).Trace()) / su3.N
			}
		}
	}
	return sum / float64(l.nSites*6)
}

func (l *Lattice) plaquette(site, mu, nu int) su3.Matrix {
	xmu, _ := l.Shift(site, mu, 1)
	xnu, _ := l.Shift(site, nu, 1)
	return l.Link(site, mu).
		Mul(l.Link(xmu, nu)).
		Mul(l.Link(xnu, mu).Dagger()).
		Mul(l.Link(site, nu).Dagger())
}

// staples returns the sum of the staples around the link (site, mu) in the
// planes spanned by mu and each direction in dirs.
func (l *Lattice) staples(site, mu int, dirs []int) su3.Matrix {
	var sum su3.Matrix
	xmu, _ := l.Shift(site, mu, 1)
	for _, nu := range dirs {
		if nu == mu {
			continue
		}
		xnu, _ := l.Shift(site, nu, 1)
		upper := l.Link(site, nu).Mul(l.Link(xnu, mu)).Mul(l.Link(xmu, nu).Dagger())

		xmnu, _ := l.Shift(site, nu, -1)
		xmnuPmu, _ := l.Shift(xmnu, mu, 1)
		lower := l.Link(xmnu, nu).Dagger().Mul(l.Link(xmnu, mu)).Mul(l.Link(xmnuPmu, nu))

		sum = sum.Add(upper).Add(lower)
	}
	return sum
}

var spatialDirs = []int{1, 2, 3}

// SmearLinks applies nSmears stout smearing steps with parameter rho to the
// spatial links of the given time slice, in place.
func (l *Lattice) SmearLinks(time, nSmears int, rho float64) {
	if nSmears <= 0 {
		return
	}
	time = mod(time, l.temporalExtent)
	sliceSites := l.spatialExtent * l.spatialExtent * l.spatialExtent
	offset := time * sliceSites
	smeared := make([]su3.Matrix, sliceSites*len(spatialDirs))

	for n := 0; n < nSmears; n++ {
		parallel.For(sliceSites, 64, func(start, end int) {
			for i := start; i < end; i++ {
				site := offset + i
				for j, mu := range spatialDirs {
					smeared[i*len(spatialDirs)+j] = l.stoutLink(site, mu, rho)
				}
			}
		})

		for i := 0; i < sliceSites; i++ {
			for j, mu := range spatialDirs {
				l.SetLink(offset+i, mu, smeared[i*len(spatialDirs)+j])
			}
		}
	}
}

func (l *Lattice) stoutLink(site, mu int, rho float64) su3.Matrix {
	u := l.Link(site, mu)
	c := l.staples(site, mu, spatialDirs).Scale(complex(rho, 0))
	omega := c.Mul(u.Dagger())

	// Q = i/2 (Omega^dag - Omega) - i/6 Tr(Omega^dag - Omega)
	diff := omega.Dagger().Sub(omega)
	q := diff.Scale(0.5i)
	tr := diff.Trace() * complex(0, 1.0/6.0)
	for i := 0; i < su3.N; i++ {
		q[i][i] -= tr
	}

	return su3.Reunitarize(su3.Exp(q.Scale(1i)).Mul(u))
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

func floorDiv(a, n int) int {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}
