package dirac

import (
	"github.com/san-kum/qcdsim/internal/linop"
)

// SpinMatrix acts on the four spin components of a site.
type SpinMatrix [linop.NumSpins][linop.NumSpins]complex128

// Euclidean gamma matrices in the chiral basis; index 0 is time.
var Gammas = [4]SpinMatrix{
	{
		{0, 0, 1, 0},
		{0, 0, 0, 1},
		{1, 0, 0, 0},
		{0, 1, 0, 0},
	},
	{
		{0, 0, 0, -1i},
		{0, 0, -1i, 0},
		{0, 1i, 0, 0},
		{1i, 0, 0, 0},
	},
	{
		{0, 0, 0, -1},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{-1, 0, 0, 0},
	},
	{
		{0, 0, -1i, 0},
		{0, 0, 0, 1i},
		{1i, 0, 0, 0},
		{0, -1i, 0, 0},
	},
}

// Gamma5 is gamma0 gamma1 gamma2 gamma3; hermitian and squares to one.
var Gamma5 = Gammas[0].Mul(Gammas[1]).Mul(Gammas[2]).Mul(Gammas[3])

func SpinIdentity() SpinMatrix {
	var m SpinMatrix
	for i := range m {
		m[i][i] = 1
	}
	return m
}

func (m SpinMatrix) Mul(o SpinMatrix) SpinMatrix {
	var r SpinMatrix
	for i := range r {
		for j := range r {
			var s complex128
			for k := range r {
				s += m[i][k] * o[k][j]
			}
			r[i][j] = s
		}
	}
	return r
}

// Combine returns a*1 + b*m.
func (m SpinMatrix) Combine(a, b complex128) SpinMatrix {
	var r SpinMatrix
	for i := range r {
		for j := range r {
			r[i][j] = b * m[i][j]
		}
		r[i][i] += a
	}
	return r
}

// ApplySpin multiplies every site spinor of psi by m, writing into dst.
// dst must be at least as long as psi.
func ApplySpin(dst, psi linop.Field, m SpinMatrix) {
	for base := 0; base < len(psi); base += linop.SpinColour {
		for s := 0; s < linop.NumSpins; s++ {
			for c := 0; c < linop.NumColours; c++ {
				var v complex128
				for t := 0; t < linop.NumSpins; t++ {
					if m[s][t] != 0 {
						v += m[s][t] * psi[base+c+linop.NumColours*t]
					}
				}
				dst[base+c+linop.NumColours*s] = v
			}
		}
	}
}

// ApplyGamma5 returns gamma5 psi.
func ApplyGamma5(psi linop.Field) linop.Field {
	eta := linop.NewField(len(psi))
	ApplySpin(eta, psi, Gamma5)
	return eta
}

var (
	// ProjectPlus is (1 + gamma5)/2.
	ProjectPlus = Gamma5.Combine(0.5, 0.5)
	// ProjectMinus is (1 - gamma5)/2.
	ProjectMinus = Gamma5.Combine(0.5, -0.5)
)
