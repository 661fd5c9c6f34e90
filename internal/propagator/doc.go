// Package propagator computes point-to-all quark propagators.
//
// A propagator run optionally stout-smears the gauge field, builds twelve
// (optionally Jacobi-smeared) point sources, inverts the Dirac operator on
// each and assembles the 12x12 spin-colour matrix at every site. The gauge
// field is restored before any entry point returns, on success and on
// failure alike.
//
// Runs against one lattice must be serialised by the caller.
package propagator
