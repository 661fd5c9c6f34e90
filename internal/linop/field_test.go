package linop

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
)

func TestIndexLayout(t *testing.T) {
	tests := []struct {
		site, spin, colour int
		want               int
	}{
		{0, 0, 0, 0},
		{0, 0, 2, 2},
		{0, 1, 0, 3},
		{0, 3, 2, 11},
		{1, 0, 0, 12},
		{5, 2, 1, 5*12 + 7},
	}
	for _, tt := range tests {
		if got := Index(tt.site, tt.spin, tt.colour); got != tt.want {
			t.Errorf("Index(%d,%d,%d) = %d, want %d", tt.site, tt.spin, tt.colour, got, tt.want)
		}
	}
}

func TestFieldArithmetic(t *testing.T) {
	a := Field{1, 1i, 0}
	b := Field{2, 0, 3 - 1i}

	if got := a.Dot(b); got != 2 {
		t.Errorf("Dot = %v, want 2", got)
	}
	if got := b.Dot(a); got != 2 {
		t.Errorf("Dot = %v, want 2", got)
	}
	if got := (Field{3, 4i}).Norm(); math.Abs(got-5) > 1e-14 {
		t.Errorf("Norm = %v, want 5", got)
	}

	c := a.Clone()
	c.Axpy(2i, b)
	want := Field{1 + 4i, 1i, 2 + 6i}
	for i := range c {
		if cmplx.Abs(c[i]-want[i]) > 1e-14 {
			t.Errorf("Axpy[%d] = %v, want %v", i, c[i], want[i])
		}
	}
	if a[0] != 1 {
		t.Error("Clone shares storage with original")
	}

	d := b.Sub(b)
	if !d.IsZero() {
		t.Errorf("b - b = %v", d)
	}
}

func TestPointSource(t *testing.T) {
	f := PointSource(2*SpinColour, 1, 2, 1)
	if f.Norm() != 1 {
		t.Errorf("norm = %v", f.Norm())
	}
	if f[Index(1, 2, 1)] != 1 {
		t.Error("unit amplitude at wrong index")
	}
}

func TestScaledOperator(t *testing.T) {
	op := Scaled{N: 3, C: 2i}
	psi := Field{1, 2, 3}

	eta, err := op.Apply(psi)
	if err != nil {
		t.Fatal(err)
	}
	if eta[1] != 4i {
		t.Errorf("Apply = %v", eta)
	}

	eta, _ = op.ApplyHermitian(psi)
	if eta[1] != -4i {
		t.Errorf("ApplyHermitian = %v", eta)
	}

	eta, _ = op.MakeHermitian(psi)
	if cmplx.Abs(eta[2]-12) > 1e-14 {
		t.Errorf("MakeHermitian = %v", eta)
	}

	if _, err := op.Apply(Field{1}); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("expected ErrSizeMismatch, got %v", err)
	}
}

func TestOpsFallsBackToMatVecForAdjoint(t *testing.T) {
	op := &Ops{N: 2, MatVec: func(dst, src Field) {
		dst[0] = 2 * src[0]
		dst[1] = 3 * src[1]
	}}
	eta, err := op.MakeHermitian(Field{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if eta[0] != 4 || eta[1] != 9 {
		t.Errorf("MakeHermitian = %v", eta)
	}
}
