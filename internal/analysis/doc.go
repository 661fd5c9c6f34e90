// Package analysis turns quark propagators into hadron observables.
//
//   - [Interpolators]: the 16 meson interpolating operators
//   - [SitePairCorrelator]: the spin and colour trace at one site
//   - [MesonPair], [SpectrumPair]: momentum-projected time-slice correlators
//   - [Meson], [Spectrum]: the same for two degenerate quarks
//   - [EffectiveMass]: log ratio of adjacent time slices
//
// # Pion
//
// For the pseudoscalar channel the site correlator reduces to |S(x)|^2,
// so its zero-momentum correlator equals the time-slice norms of the
// propagator:
//
//	c, err := analysis.Meson(prop, lat, analysis.Pion(), [3]int{})
package analysis
