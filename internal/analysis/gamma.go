package analysis

import "github.com/san-kum/qcdsim/internal/dirac"

// Interpolator is a named meson interpolating operator.
type Interpolator struct {
	Name  string
	Gamma dirac.SpinMatrix
}

var gammaNames = [4]string{"g0", "g1", "g2", "g3"}

// Interpolators returns the 16 independent products of gamma matrices:
// scalar, vector, axial vector, pseudoscalar and tensor.
func Interpolators() []Interpolator {
	out := make([]Interpolator, 0, 16)
	out = append(out, Interpolator{Name: "1", Gamma: dirac.SpinIdentity()})
	for mu, g := range dirac.Gammas {
		out = append(out, Interpolator{Name: gammaNames[mu], Gamma: g})
	}
	for mu, g := range dirac.Gammas {
		out = append(out, Interpolator{Name: gammaNames[mu] + "g5", Gamma: g.Mul(dirac.Gamma5)})
	}
	out = append(out, Pion())
	for mu := 0; mu < 4; mu++ {
		for nu := mu + 1; nu < 4; nu++ {
			out = append(out, Interpolator{
				Name:  gammaNames[mu] + gammaNames[nu],
				Gamma: dirac.Gammas[mu].Mul(dirac.Gammas[nu]),
			})
		}
	}
	return out
}

// Pion is the pseudoscalar interpolator gamma5.
func Pion() Interpolator {
	return Interpolator{Name: "g5", Gamma: dirac.Gamma5}
}

// Lookup returns the interpolator with the given name.
func Lookup(name string) (Interpolator, bool) {
	for _, in := range Interpolators() {
		if in.Name == name {
			return in, true
		}
	}
	return Interpolator{}, false
}
