package dirac

import (
	"fmt"

	"github.com/san-kum/qcdsim/internal/linop"
)

// EvenOdd is the Schur complement of a stencil on its odd sites. Writing
// D = d + H with H the hopping part, the odd-site system is
//
//	(1 - H_oe H_eo / d^2) x_o = (b_o - H_oe b_e / d) / d
//
// and the even sites follow from x_e = (b_e - H_eo x_o) / d. It exists only
// when H connects opposite parities, i.e. every term hops an odd number of
// sites and the lattice is bipartite (all extents even).
type EvenOdd struct {
	s    *Stencil
	diag complex128
	even []int
	odd  []int
}

// NewEvenOdd decomposes s. It fails with linop.ErrInvalidParameter when s
// has an even-hop term, a zero diagonal, or lives on a lattice with an odd
// extent.
func NewEvenOdd(s *Stencil) (*EvenOdd, error) {
	for _, t := range s.terms {
		if t.hops%2 == 0 {
			return nil, fmt.Errorf("%w: %s has a %d-hop term", linop.ErrInvalidParameter, s.kind, t.hops)
		}
	}
	if s.diag == 0 {
		return nil, fmt.Errorf("%w: zero diagonal", linop.ErrInvalidParameter)
	}
	even, odd, ok := checkerboard(s.links)
	if !ok {
		return nil, fmt.Errorf("%w: lattice is not bipartite", linop.ErrInvalidParameter)
	}
	return &EvenOdd{s: s, diag: complex(s.diag, 0), even: even, odd: odd}, nil
}

// EvenOdd returns the reduced system of s when it has one.
func (s *Stencil) EvenOdd() (linop.Reduced, bool) {
	eo, err := NewEvenOdd(s)
	if err != nil {
		return nil, false
	}
	return eo, true
}

// checkerboard colours the sites by walking nearest-neighbour links from
// site 0. ok is false if two neighbours end up with the same colour.
func checkerboard(links Links) (even, odd []int, ok bool) {
	n := links.NumSites()
	colour := make([]int8, n)
	for i := range colour {
		colour[i] = -1
	}
	colour[0] = 0
	queue := []int{0}
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		for mu := 0; mu < 4; mu++ {
			for _, dir := range [2]int{1, -1} {
				y, _ := links.Shift(x, mu, dir)
				switch colour[y] {
				case -1:
					colour[y] = 1 - colour[x]
					queue = append(queue, y)
				case colour[x]:
					return nil, nil, false
				}
			}
		}
	}
	for x, c := range colour {
		if c == 0 {
			even = append(even, x)
		} else {
			odd = append(odd, x)
		}
	}
	return even, odd, true
}

func (e *EvenOdd) Stencil() *Stencil { return e.s }
func (e *EvenOdd) Size() int         { return linop.SpinColour * len(e.odd) }

// gather copies the spinors of sites from full into a compact field.
func gather(full linop.Field, sites []int) linop.Field {
	out := linop.NewField(linop.SpinColour * len(sites))
	for i, x := range sites {
		copy(out[linop.SpinColour*i:linop.SpinColour*(i+1)], full[linop.SpinColour*x:linop.SpinColour*(x+1)])
	}
	return out
}

// scatter copies a compact field into the spinors of sites in full.
func scatter(full, compact linop.Field, sites []int) {
	for i, x := range sites {
		copy(full[linop.SpinColour*x:linop.SpinColour*(x+1)], compact[linop.SpinColour*i:linop.SpinColour*(i+1)])
	}
}

func (e *EvenOdd) Apply(psi linop.Field) (linop.Field, error) {
	if err := linop.CheckSize(e, psi); err != nil {
		return nil, err
	}
	full := linop.NewField(e.s.Size())
	scatter(full, psi, e.odd)
	tmp := linop.NewField(e.s.Size())
	e.s.hopping(tmp, full, e.even)
	e.s.hopping(full, tmp, e.odd)

	eta := gather(full, e.odd)
	eta.Scale(-1 / (e.diag * e.diag))
	eta.Axpy(1, psi)
	return eta, nil
}

// ApplyHermitian returns gamma5 A gamma5 psi, which is A^dag psi because
// the diagonal is real and H is gamma5-hermitian.
func (e *EvenOdd) ApplyHermitian(psi linop.Field) (linop.Field, error) {
	if err := linop.CheckSize(e, psi); err != nil {
		return nil, err
	}
	eta, err := e.Apply(ApplyGamma5(psi))
	if err != nil {
		return nil, err
	}
	return ApplyGamma5(eta), nil
}

func (e *EvenOdd) MakeHermitian(psi linop.Field) (linop.Field, error) {
	eta, err := e.Apply(psi)
	if err != nil {
		return nil, err
	}
	return e.ApplyHermitian(eta)
}

// Source returns (b_o - H_oe b_e / d) / d.
func (e *EvenOdd) Source(rhs linop.Field) (linop.Field, error) {
	if err := linop.CheckSize(e.s, rhs); err != nil {
		return nil, err
	}
	tmp := linop.NewField(e.s.Size())
	e.s.hopping(tmp, rhs, e.odd)

	src := gather(rhs, e.odd)
	src.Axpy(-1/e.diag, gather(tmp, e.odd))
	src.Scale(1 / e.diag)
	return src, nil
}

// Reconstruct returns the full solution with x on the odd sites and
// (b_e - H_eo x) / d on the even ones.
func (e *EvenOdd) Reconstruct(rhs, x linop.Field) (linop.Field, error) {
	if err := linop.CheckSize(e.s, rhs); err != nil {
		return nil, err
	}
	if err := linop.CheckSize(e, x); err != nil {
		return nil, err
	}
	sol := linop.NewField(e.s.Size())
	scatter(sol, x, e.odd)
	tmp := linop.NewField(e.s.Size())
	e.s.hopping(tmp, sol, e.even)

	xe := gather(rhs, e.even)
	xe.Axpy(-1, gather(tmp, e.even))
	xe.Scale(1 / e.diag)
	scatter(sol, xe, e.even)
	return sol, nil
}
