// Package lattice holds the gauge field of a periodic four-dimensional
// lattice and the services the fermion operators consume:
//
//   - [LinkIndex]: bijective (site, direction) -> link index mapping
//   - [Lattice.Link]: link matrix access
//   - [Lattice.Shift]: neighbour lookup with boundary-crossing count
//   - [Lattice.SmearLinks]: in-place stout smearing of one time slice
//   - [Lattice.Snapshot] / [Lattice.Restore]: value copies of the field
//
// Direction 0 is time; directions 1-3 are spatial.
package lattice
