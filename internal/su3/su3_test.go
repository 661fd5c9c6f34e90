package su3

import (
	"math/cmplx"
	"math/rand"
	"testing"
)

func TestIdentityIsUnitary(t *testing.T) {
	if !Identity().IsUnitary(1e-14) {
		t.Error("identity should be unitary")
	}
}

func TestRandomIsSU3(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		m := Random(rng)
		if !m.IsUnitary(1e-12) {
			t.Fatalf("random matrix %d not in SU(3): det=%v", i, m.Det())
		}
	}
}

func TestDaggerMulVec(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	m := Random(rng)
	v := Vector{1 + 2i, -0.5i, 3}

	got := m.DaggerMulVec(v)
	want := m.Dagger().MulVec(v)
	for i := range got {
		if cmplx.Abs(got[i]-want[i]) > 1e-14 {
			t.Errorf("component %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestExpOfZero(t *testing.T) {
	if !Exp(Zero()).Equal(Identity(), 1e-15) {
		t.Error("exp(0) should be the identity")
	}
}

func TestExpAntiHermitianIsUnitary(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	tests := []struct {
		name  string
		scale float64
	}{
		{"small", 0.1},
		{"unit", 1},
		{"large", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h Matrix
			for i := 0; i < N; i++ {
				for j := i; j < N; j++ {
					z := complex(rng.NormFloat64(), rng.NormFloat64()) * complex(tt.scale, 0)
					if i == j {
						z = complex(real(z), 0)
					}
					h[i][j] = z
					h[j][i] = cmplx.Conj(z)
				}
			}
			tr := h.Trace() / 3
			for i := 0; i < N; i++ {
				h[i][i] -= tr
			}

			u := Exp(h.Scale(1i))
			if !u.IsUnitary(1e-10) {
				t.Errorf("exp(iH) not unitary, det=%v", u.Det())
			}
		})
	}
}

func TestReunitarizeRestoresPerturbedMatrix(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	m := Random(rng)
	m[0][1] += 1e-3
	m[2][2] -= 2e-3i

	r := Reunitarize(m)
	if !r.IsUnitary(1e-12) {
		t.Error("reunitarized matrix not in SU(3)")
	}
	if !r.Equal(m, 1e-2) {
		t.Error("reunitarize moved matrix too far")
	}
}
