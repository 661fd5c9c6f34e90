package linop

import (
	"fmt"
	"math/cmplx"
)

// Operator is a linear map on fields of a fixed size. Implementations must
// not mutate their input or the gauge field they reference.
type Operator interface {
	// Size is the length of fields the operator accepts.
	Size() int
	// Apply returns D psi.
	Apply(psi Field) (Field, error)
	// ApplyHermitian returns D^dag psi.
	ApplyHermitian(psi Field) (Field, error)
	// MakeHermitian returns D^dag D psi, which is hermitian and positive
	// semi-definite for every D.
	MakeHermitian(psi Field) (Field, error)
}

// Diagonal is implemented by operators with a constant diagonal. The solvers
// scale by it when no even-odd decomposition is available.
type Diagonal interface {
	Diagonal() complex128
}

// Reduced is the Schur complement of an operator on part of its unknowns.
// Solving it and reconstructing gives the solution of the full system.
type Reduced interface {
	Operator
	// Source maps a right-hand side of the full system to the reduced one.
	Source(rhs Field) (Field, error)
	// Reconstruct returns the full solution for rhs given the reduced
	// solution x.
	Reconstruct(rhs, x Field) (Field, error)
}

// Reducer is implemented by operators that may admit an even-odd
// decomposition. ok is false when this instance does not.
type Reducer interface {
	EvenOdd() (r Reduced, ok bool)
}

// CheckSize returns ErrSizeMismatch when psi does not fit op.
func CheckSize(op Operator, psi Field) error {
	if len(psi) != op.Size() {
		return fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(psi), op.Size())
	}
	return nil
}

// Ops adapts a pair of matrix-vector closures to Operator.
type Ops struct {
	N       int
	MatVec  func(dst, src Field)
	AdjVec  func(dst, src Field)
	DiagVal complex128
}

func (o *Ops) Size() int { return o.N }

func (o *Ops) Apply(psi Field) (Field, error) {
	if err := CheckSize(o, psi); err != nil {
		return nil, err
	}
	dst := NewField(o.N)
	o.MatVec(dst, psi)
	return dst, nil
}

func (o *Ops) ApplyHermitian(psi Field) (Field, error) {
	if err := CheckSize(o, psi); err != nil {
		return nil, err
	}
	dst := NewField(o.N)
	if o.AdjVec == nil {
		o.MatVec(dst, psi)
	} else {
		o.AdjVec(dst, psi)
	}
	return dst, nil
}

func (o *Ops) MakeHermitian(psi Field) (Field, error) {
	eta, err := o.Apply(psi)
	if err != nil {
		return nil, err
	}
	return o.ApplyHermitian(eta)
}

func (o *Ops) Diagonal() complex128 { return o.DiagVal }

// Scaled is c times the identity on fields of length N.
type Scaled struct {
	N int
	C complex128
}

func (s Scaled) Size() int { return s.N }

func (s Scaled) scale(psi Field, c complex128) (Field, error) {
	if err := CheckSize(s, psi); err != nil {
		return nil, err
	}
	eta := psi.Clone()
	eta.Scale(c)
	return eta, nil
}

func (s Scaled) Apply(psi Field) (Field, error) { return s.scale(psi, s.C) }

func (s Scaled) ApplyHermitian(psi Field) (Field, error) {
	return s.scale(psi, cmplx.Conj(s.C))
}

func (s Scaled) MakeHermitian(psi Field) (Field, error) {
	a := cmplx.Abs(s.C)
	return s.scale(psi, complex(a*a, 0))
}

func (s Scaled) Diagonal() complex128 { return s.C }
