// Package linop provides the primitives shared by every fermion operator and
// solver:
//
//   - [Field]: flat complex spin-colour vector over the lattice
//   - [Operator]: the apply / applyHermitian / makeHermitian capability
//   - [Ops]: closure-backed operator for ad hoc matrices
//   - [Scaled]: c times the identity
//
// # Layout
//
// A 4D field stores 12 amplitudes per site, indexed by [Index]:
// colour + 3*(spin + 4*site). Five-dimensional fields concatenate Ls such
// slices.
//
// # Thread Safety
//
// Operators are pure functions of their input and the gauge field they
// reference; concurrent Apply calls are safe as long as nobody mutates that
// gauge field meanwhile.
package linop
