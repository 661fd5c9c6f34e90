package linop

import (
	"gonum.org/v1/gonum/blas/cblas128"
)

const (
	NumSpins   = 4
	NumColours = 3
	SpinColour = NumSpins * NumColours
)

// Index returns the position of (site, spin, colour) in a 4D field.
func Index(site, spin, colour int) int {
	return colour + NumColours*(spin+NumSpins*site)
}

// Field is a flat vector of complex amplitudes.
type Field []complex128

func NewField(n int) Field {
	return make(Field, n)
}

func (f Field) Clone() Field {
	c := make(Field, len(f))
	copy(c, f)
	return c
}

func (f Field) vec() cblas128.Vector {
	return cblas128.Vector{N: len(f), Inc: 1, Data: f}
}

// Dot returns the inner product <f, g> conjugating f.
func (f Field) Dot(g Field) complex128 {
	if len(f) == 0 {
		return 0
	}
	return cblas128.Dotc(f.vec(), g.vec())
}

func (f Field) Norm() float64 {
	if len(f) == 0 {
		return 0
	}
	return cblas128.Nrm2(f.vec())
}

// Axpy performs f += alpha*x in place.
func (f Field) Axpy(alpha complex128, x Field) {
	if len(f) == 0 {
		return
	}
	cblas128.Axpy(alpha, x.vec(), f.vec())
}

// Scale performs f *= alpha in place.
func (f Field) Scale(alpha complex128) {
	if len(f) == 0 {
		return
	}
	cblas128.Scal(alpha, f.vec())
}

// CopyFrom overwrites f with src.
func (f Field) CopyFrom(src Field) {
	if len(f) == 0 {
		return
	}
	cblas128.Copy(src.vec(), f.vec())
}

func (f Field) Zero() {
	for i := range f {
		f[i] = 0
	}
}

// Sub returns f - g as a new field.
func (f Field) Sub(g Field) Field {
	r := f.Clone()
	r.Axpy(-1, g)
	return r
}

// IsZero reports whether every amplitude is exactly zero.
func (f Field) IsZero() bool {
	for _, v := range f {
		if v != 0 {
			return false
		}
	}
	return true
}

// PointSource returns a 4D field of length n with unit amplitude at
// (site, spin, colour) and zero elsewhere.
func PointSource(n, site, spin, colour int) Field {
	f := NewField(n)
	f[Index(site, spin, colour)] = 1
	return f
}
