package su3

import (
	"math"
	"math/cmplx"
	"math/rand"
)

// N is the number of colours.
const N = 3

// Matrix is a 3x3 complex colour matrix stored row-major.
type Matrix [N][N]complex128

// Vector is a colour vector.
type Vector [N]complex128

func Zero() Matrix { return Matrix{} }

func Identity() Matrix {
	var m Matrix
	for i := 0; i < N; i++ {
		m[i][i] = 1
	}
	return m
}

func (m Matrix) Mul(o Matrix) Matrix {
	var r Matrix
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			var s complex128
			for k := 0; k < N; k++ {
				s += m[i][k] * o[k][j]
			}
			r[i][j] = s
		}
	}
	return r
}

// MulVec returns m·v.
func (m Matrix) MulVec(v Vector) Vector {
	return Vector{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// DaggerMulVec returns m†·v without forming m†.
func (m Matrix) DaggerMulVec(v Vector) Vector {
	return Vector{
		cmplx.Conj(m[0][0])*v[0] + cmplx.Conj(m[1][0])*v[1] + cmplx.Conj(m[2][0])*v[2],
		cmplx.Conj(m[0][1])*v[0] + cmplx.Conj(m[1][1])*v[1] + cmplx.Conj(m[2][1])*v[2],
		cmplx.Conj(m[0][2])*v[0] + cmplx.Conj(m[1][2])*v[1] + cmplx.Conj(m[2][2])*v[2],
	}
}

func (m Matrix) Dagger() Matrix {
	var r Matrix
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			r[i][j] = cmplx.Conj(m[j][i])
		}
	}
	return r
}

func (m Matrix) Add(o Matrix) Matrix {
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			m[i][j] += o[i][j]
		}
	}
	return m
}

func (m Matrix) Sub(o Matrix) Matrix {
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			m[i][j] -= o[i][j]
		}
	}
	return m
}

func (m Matrix) Scale(c complex128) Matrix {
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			m[i][j] *= c
		}
	}
	return m
}

func (m Matrix) Trace() complex128 {
	return m[0][0] + m[1][1] + m[2][2]
}

// Det returns the determinant.
func (m Matrix) Det() complex128 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Norm returns the Frobenius norm.
func (m Matrix) Norm() float64 {
	s := 0.0
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			a := cmplx.Abs(m[i][j])
			s += a * a
		}
	}
	return math.Sqrt(s)
}

// Equal reports whether m and o agree element-wise within tol.
func (m Matrix) Equal(o Matrix, tol float64) bool {
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			if cmplx.Abs(m[i][j]-o[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

// IsUnitary reports whether m†m = 1 and det m = 1 within tol.
func (m Matrix) IsUnitary(tol float64) bool {
	if !m.Dagger().Mul(m).Equal(Identity(), tol) {
		return false
	}
	return cmplx.Abs(m.Det()-1) <= tol
}

const expTerms = 12

// Exp returns the matrix exponential using scaling and squaring around a
// truncated Taylor series.
func Exp(a Matrix) Matrix {
	squarings := 0
	for n := a.Norm(); n > 0.5; n /= 2 {
		squarings++
	}
	a = a.Scale(complex(math.Ldexp(1, -squarings), 0))

	result := Identity()
	term := Identity()
	for k := 1; k <= expTerms; k++ {
		term = term.Mul(a).Scale(complex(1/float64(k), 0))
		result = result.Add(term)
	}
	for ; squarings > 0; squarings-- {
		result = result.Mul(result)
	}
	return result
}

// Reunitarize projects m back onto SU(3): the first two rows are
// orthonormalised and the third is their conjugate cross product.
func Reunitarize(m Matrix) Matrix {
	r0 := normalize(m[0])
	r1 := m[1]
	p := dotc(r0, r1)
	for j := 0; j < N; j++ {
		r1[j] -= p * r0[j]
	}
	r1 = normalize(r1)

	r2 := Vector{
		cmplx.Conj(r0[1]*r1[2] - r0[2]*r1[1]),
		cmplx.Conj(r0[2]*r1[0] - r0[0]*r1[2]),
		cmplx.Conj(r0[0]*r1[1] - r0[1]*r1[0]),
	}
	return Matrix{r0, r1, r2}
}

// Random draws an SU(3) matrix from gaussian entries followed by
// reunitarization.
func Random(rng *rand.Rand) Matrix {
	var m Matrix
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			m[i][j] = complex(rng.NormFloat64(), rng.NormFloat64())
		}
	}
	return Reunitarize(m)
}

func dotc(a, b Vector) complex128 {
	return cmplx.Conj(a[0])*b[0] + cmplx.Conj(a[1])*b[1] + cmplx.Conj(a[2])*b[2]
}

func normalize(v Vector) Vector {
	n := math.Sqrt(real(dotc(v, v)))
	if n == 0 {
		return v
	}
	inv := complex(1/n, 0)
	return Vector{v[0] * inv, v[1] * inv, v[2] * inv}
}

func (v Vector) Add(o Vector) Vector {
	return Vector{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vector) Scale(c complex128) Vector {
	return Vector{v[0] * c, v[1] * c, v[2] * c}
}
