package smearing

import (
	"fmt"

	"github.com/san-kum/qcdsim/internal/dirac"
	"github.com/san-kum/qcdsim/internal/linop"
	"github.com/san-kum/qcdsim/internal/parallel"
	"github.com/san-kum/qcdsim/internal/su3"
)

var spatialDirs = [3]int{1, 2, 3}

type hop struct {
	fwd, bwd           int
	fwdPhase, bwdPhase complex128
}

// Jacobi is the gauge-covariant Jacobi smearing operator
//
//	S = sum_{n=0}^{N} (kappa H)^n
//
// where H hops one site along each spatial direction and is diagonal in
// spin. It never mixes time slices.
type Jacobi struct {
	nSmears int
	kappa   float64
	links   dirac.Links
	nSites  int
	hops    [][3]hop
}

// NewJacobi returns the smearing operator. nSmears = 0 gives the identity.
func NewJacobi(nSmears int, kappa float64, bcs dirac.BoundaryConditions, links dirac.Links) (*Jacobi, error) {
	if nSmears < 0 {
		return nil, fmt.Errorf("%w: negative smearing count %d", linop.ErrInvalidParameter, nSmears)
	}
	n := links.NumSites()
	j := &Jacobi{
		nSmears: nSmears,
		kappa:   kappa,
		links:   links,
		nSites:  n,
		hops:    make([][3]hop, n),
	}
	for site := 0; site < n; site++ {
		for i, mu := range spatialDirs {
			f, fw := links.Shift(site, mu, 1)
			b, bw := links.Shift(site, mu, -1)
			j.hops[site][i] = hop{
				fwd:      f,
				bwd:      b,
				fwdPhase: bcs.Phase(mu, fw),
				bwdPhase: bcs.Phase(mu, bw),
			}
		}
	}
	return j, nil
}

func (j *Jacobi) Size() int        { return linop.SpinColour * j.nSites }
func (j *Jacobi) IsIdentity() bool { return j.nSmears == 0 }

func (j *Jacobi) Apply(psi linop.Field) (linop.Field, error) {
	if err := linop.CheckSize(j, psi); err != nil {
		return nil, err
	}
	out := psi.Clone()
	if j.nSmears == 0 {
		return out, nil
	}

	term := psi.Clone()
	next := linop.NewField(len(psi))
	for n := 0; n < j.nSmears; n++ {
		j.hopping(next, term)
		next.Scale(complex(j.kappa, 0))
		out.Axpy(1, next)
		term, next = next, term
	}
	return out, nil
}

// ApplyHermitian is Apply: H is hermitian and kappa is real.
func (j *Jacobi) ApplyHermitian(psi linop.Field) (linop.Field, error) {
	return j.Apply(psi)
}

func (j *Jacobi) MakeHermitian(psi linop.Field) (linop.Field, error) {
	eta, err := j.Apply(psi)
	if err != nil {
		return nil, err
	}
	return j.Apply(eta)
}

// hopping writes H psi into eta.
func (j *Jacobi) hopping(eta, psi linop.Field) {
	parallel.For(j.nSites, 16, func(start, end int) {
		for x := start; x < end; x++ {
			base := linop.SpinColour * x
			var acc [linop.SpinColour]complex128
			for i, mu := range spatialDirs {
				h := j.hops[x][i]
				u := j.links.Link(x, mu)
				ub := j.links.Link(h.bwd, mu)
				for s := 0; s < linop.NumSpins; s++ {
					f := colourVector(psi, h.fwd, s)
					b := colourVector(psi, h.bwd, s)
					fv := u.MulVec(f).Scale(h.fwdPhase)
					bv := ub.DaggerMulVec(b).Scale(h.bwdPhase)
					for c := 0; c < linop.NumColours; c++ {
						acc[c+linop.NumColours*s] += fv[c] + bv[c]
					}
				}
			}
			copy(eta[base:base+linop.SpinColour], acc[:])
		}
	})
}

func colourVector(psi linop.Field, site, spin int) su3.Vector {
	i := linop.Index(site, spin, 0)
	return su3.Vector{psi[i], psi[i+1], psi[i+2]}
}
