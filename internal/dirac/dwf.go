package dirac

import (
	"fmt"

	"github.com/san-kum/qcdsim/internal/linop"
)

// DWF is the Shamir domain-wall operator. The 4D kernel is built with mass
// -M5 and replicated over Ls slices of the fifth dimension:
//
//	(D psi)_s = (K + 1) psi_s - P- psi_{s+1} - P+ psi_{s-1}
//
// with the couplings across the walls replaced by +mass P- psi_0 (at
// s = Ls-1) and +mass P+ psi_{Ls-1} (at s = 0).
type DWF struct {
	kernel *Stencil
	mass   float64
	m5     float64
	ls     int
	size4  int
}

func NewDWF(mass, m5 float64, ls int, kernel Kind, bcs BoundaryConditions, links Links) (*DWF, error) {
	if ls < 1 {
		return nil, fmt.Errorf("%w: Ls must be positive, got %d", linop.ErrInvalidParameter, ls)
	}
	k, err := New(kernel, -m5, bcs, links)
	if err != nil {
		return nil, err
	}
	return &DWF{
		kernel: k,
		mass:   mass,
		m5:     m5,
		ls:     ls,
		size4:  k.Size(),
	}, nil
}

func (d *DWF) Ls() int              { return d.ls }
func (d *DWF) Mass() float64        { return d.mass }
func (d *DWF) M5() float64          { return d.m5 }
func (d *DWF) Kernel() *Stencil     { return d.kernel }
func (d *DWF) Size() int            { return d.ls * d.size4 }
func (d *DWF) Diagonal() complex128 { return d.kernel.Diagonal() + 1 }

func (d *DWF) Apply(psi linop.Field) (linop.Field, error) {
	return d.apply(psi, false)
}

// ApplyHermitian returns D^dag psi: the kernel is replaced by its adjoint
// and the chiral projectors swap roles.
func (d *DWF) ApplyHermitian(psi linop.Field) (linop.Field, error) {
	return d.apply(psi, true)
}

func (d *DWF) MakeHermitian(psi linop.Field) (linop.Field, error) {
	eta, err := d.Apply(psi)
	if err != nil {
		return nil, err
	}
	return d.ApplyHermitian(eta)
}

func (d *DWF) slice(f linop.Field, s int) linop.Field {
	return f[s*d.size4 : (s+1)*d.size4]
}

func (d *DWF) apply(psi linop.Field, dagger bool) (linop.Field, error) {
	if err := linop.CheckSize(d, psi); err != nil {
		return nil, err
	}

	up, down := ProjectMinus, ProjectPlus
	kernel := d.kernel.Apply
	if dagger {
		up, down = ProjectPlus, ProjectMinus
		kernel = d.kernel.ApplyHermitian
	}

	eta := linop.NewField(len(psi))
	chi := linop.NewField(d.size4)
	mass := complex(d.mass, 0)

	for s := 0; s < d.ls; s++ {
		out := d.slice(eta, s)
		k, err := kernel(d.slice(psi, s))
		if err != nil {
			return nil, err
		}
		out.CopyFrom(k)
		out.Axpy(1, d.slice(psi, s))

		if s+1 < d.ls {
			ApplySpin(chi, d.slice(psi, s+1), up)
			out.Axpy(-1, chi)
		} else {
			ApplySpin(chi, d.slice(psi, 0), up)
			out.Axpy(mass, chi)
		}

		if s > 0 {
			ApplySpin(chi, d.slice(psi, s-1), down)
			out.Axpy(-1, chi)
		} else {
			ApplySpin(chi, d.slice(psi, d.ls-1), down)
			out.Axpy(mass, chi)
		}
	}
	return eta, nil
}
