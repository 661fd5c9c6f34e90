package dirac

import (
	"github.com/san-kum/qcdsim/internal/linop"
	"github.com/san-kum/qcdsim/internal/parallel"
	"github.com/san-kum/qcdsim/internal/su3"
)

// Links is the view of the gauge field the operators need. An operator keeps
// a non-owning reference to it and must not outlive it.
type Links interface {
	NumSites() int
	Link(site, mu int) su3.Matrix
	Shift(site, mu, hops int) (int, int)
}

const minSitesPerWorker = 16

// term is one hopping contribution of a stencil: the forward hop carries
// spin structure (alpha + beta*gamma_mu), the backward hop
// (alpha - beta*gamma_mu), which keeps the operator gamma5-hermitian.
type term struct {
	hops        int
	alpha, beta float64
}

type neighbour struct {
	site  int
	phase complex128
}

// Stencil is a gamma5-hermitian 4D Dirac operator
//
//	D psi(x) = (m + d0) psi(x)
//	         + sum_{terms,mu} (a + b g_mu) W_mu(x,k) psi(x+k mu)
//	         +                (a - b g_mu) W_mu(x-k mu,k)^dag psi(x-k mu)
//
// where W is the product of k consecutive links.
type Stencil struct {
	kind    Kind
	links   Links
	mass    float64
	diag    float64
	terms   []term
	bcs     BoundaryConditions
	nSites  int
	fwdSpin [][4]SpinMatrix
	bwdSpin [][4]SpinMatrix
	fwd     [][]neighbour
	bwd     [][]neighbour
}

func newStencil(kind Kind, mass, d0 float64, terms []term, bcs BoundaryConditions, links Links) *Stencil {
	n := links.NumSites()
	s := &Stencil{
		kind:    kind,
		links:   links,
		mass:    mass,
		diag:    mass + d0,
		terms:   terms,
		bcs:     bcs,
		nSites:  n,
		fwdSpin: make([][4]SpinMatrix, len(terms)),
		bwdSpin: make([][4]SpinMatrix, len(terms)),
		fwd:     make([][]neighbour, len(terms)),
		bwd:     make([][]neighbour, len(terms)),
	}

	for i, t := range terms {
		for mu := 0; mu < 4; mu++ {
			s.fwdSpin[i][mu] = Gammas[mu].Combine(complex(t.alpha, 0), complex(t.beta, 0))
			s.bwdSpin[i][mu] = Gammas[mu].Combine(complex(t.alpha, 0), complex(-t.beta, 0))
		}

		s.fwd[i] = make([]neighbour, 4*n)
		s.bwd[i] = make([]neighbour, 4*n)
		for site := 0; site < n; site++ {
			for mu := 0; mu < 4; mu++ {
				y, wraps := links.Shift(site, mu, t.hops)
				s.fwd[i][4*site+mu] = neighbour{site: y, phase: bcs.Phase(mu, wraps)}
				y, wraps = links.Shift(site, mu, -t.hops)
				s.bwd[i][4*site+mu] = neighbour{site: y, phase: bcs.Phase(mu, wraps)}
			}
		}
	}
	return s
}

// NewWilson returns the Wilson operator (r = 1).
func NewWilson(mass float64, bcs BoundaryConditions, links Links) *Stencil {
	return newStencil(Wilson, mass, 4, []term{
		{hops: 1, alpha: -0.5, beta: 0.5},
	}, bcs, links)
}

// NewHamberWu returns the Hamber-Wu operator: derivative and Wilson term
// are both improved with next-nearest-neighbour couplings.
func NewHamberWu(mass float64, bcs BoundaryConditions, links Links) *Stencil {
	return newStencil(HamberWu, mass, 5, []term{
		{hops: 1, alpha: -2.0 / 3.0, beta: 2.0 / 3.0},
		{hops: 2, alpha: 1.0 / 24.0, beta: -1.0 / 12.0},
	}, bcs, links)
}

// NewNaik returns the Wilson operator with the Naik three-hop improvement of
// the derivative.
func NewNaik(mass float64, bcs BoundaryConditions, links Links) *Stencil {
	return newStencil(Naik, mass, 4, []term{
		{hops: 1, alpha: -0.5, beta: 9.0 / 16.0},
		{hops: 3, alpha: 0, beta: -1.0 / 48.0},
	}, bcs, links)
}

func (s *Stencil) Kind() Kind                             { return s.kind }
func (s *Stencil) Mass() float64                          { return s.mass }
func (s *Stencil) BoundaryConditions() BoundaryConditions { return s.bcs }
func (s *Stencil) Size() int                              { return linop.SpinColour * s.nSites }

// Diagonal returns the coefficient of the site-local term.
func (s *Stencil) Diagonal() complex128 { return complex(s.diag, 0) }

func (s *Stencil) Apply(psi linop.Field) (linop.Field, error) {
	if err := linop.CheckSize(s, psi); err != nil {
		return nil, err
	}
	eta := linop.NewField(len(psi))
	s.apply(eta, psi)
	return eta, nil
}

// ApplyHermitian returns gamma5 D gamma5 psi = D^dag psi.
func (s *Stencil) ApplyHermitian(psi linop.Field) (linop.Field, error) {
	if err := linop.CheckSize(s, psi); err != nil {
		return nil, err
	}
	chi := ApplyGamma5(psi)
	eta := linop.NewField(len(psi))
	s.apply(eta, chi)
	ApplySpin(chi, eta, Gamma5)
	return chi, nil
}

func (s *Stencil) MakeHermitian(psi linop.Field) (linop.Field, error) {
	eta, err := s.Apply(psi)
	if err != nil {
		return nil, err
	}
	return s.ApplyHermitian(eta)
}

func (s *Stencil) apply(eta, psi linop.Field) {
	diag := complex(s.diag, 0)
	parallel.For(s.nSites, minSitesPerWorker, func(start, end int) {
		for x := start; x < end; x++ {
			s.applySite(eta, psi, x, diag)
		}
	})
}

// hopping writes the off-diagonal part of D psi into eta on the given sites
// only. Other sites of eta are left untouched.
func (s *Stencil) hopping(eta, psi linop.Field, sites []int) {
	parallel.For(len(sites), minSitesPerWorker, func(start, end int) {
		for i := start; i < end; i++ {
			s.applySite(eta, psi, sites[i], 0)
		}
	})
}

func (s *Stencil) applySite(eta, psi linop.Field, x int, diag complex128) {
	base := linop.SpinColour * x
	out := eta[base : base+linop.SpinColour]
	for i := range out {
		out[i] = diag * psi[base+i]
	}

	for ti, t := range s.terms {
		for mu := 0; mu < 4; mu++ {
			f := s.fwd[ti][4*x+mu]
			chi := s.transportForward(x, mu, t.hops, f, psi)
			accumulate(out, &s.fwdSpin[ti][mu], &chi)

			b := s.bwd[ti][4*x+mu]
			chi = s.transportBackward(b.site, mu, t.hops, b, psi)
			accumulate(out, &s.bwdSpin[ti][mu], &chi)
		}
	}
}

type spinor [linop.NumSpins]su3.Vector

func loadSpinor(psi linop.Field, site int) spinor {
	var sp spinor
	base := linop.SpinColour * site
	for s := 0; s < linop.NumSpins; s++ {
		for c := 0; c < linop.NumColours; c++ {
			sp[s][c] = psi[base+c+linop.NumColours*s]
		}
	}
	return sp
}

// transportForward returns W_mu(x,k) psi(x + k mu) times the boundary phase.
func (s *Stencil) transportForward(x, mu, hops int, n neighbour, psi linop.Field) spinor {
	sp := loadSpinor(psi, n.site)
	w := s.links.Link(x, mu)
	y := x
	for k := 1; k < hops; k++ {
		y, _ = s.links.Shift(y, mu, 1)
		w = w.Mul(s.links.Link(y, mu))
	}
	for i := range sp {
		sp[i] = w.MulVec(sp[i]).Scale(n.phase)
	}
	return sp
}

// transportBackward returns W_mu(y,k)^dag psi(y) times the boundary phase,
// where y = x - k mu.
func (s *Stencil) transportBackward(y, mu, hops int, n neighbour, psi linop.Field) spinor {
	sp := loadSpinor(psi, y)
	for k := 0; k < hops; k++ {
		u := s.links.Link(y, mu)
		for i := range sp {
			sp[i] = u.DaggerMulVec(sp[i])
		}
		y, _ = s.links.Shift(y, mu, 1)
	}
	for i := range sp {
		sp[i] = sp[i].Scale(n.phase)
	}
	return sp
}

// accumulate adds m*chi to the site spinor stored in out.
func accumulate(out linop.Field, m *SpinMatrix, chi *spinor) {
	for s := 0; s < linop.NumSpins; s++ {
		for t := 0; t < linop.NumSpins; t++ {
			c := m[s][t]
			if c == 0 {
				continue
			}
			for col := 0; col < linop.NumColours; col++ {
				out[col+linop.NumColours*s] += c * chi[t][col]
			}
		}
	}
}
