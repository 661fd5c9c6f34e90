package dirac

// BoundaryConditions holds the phase picked up by the stencil each time it
// wraps across the lattice edge, one entry per direction.
type BoundaryConditions [4]complex128

// DefaultBoundaryConditions is anti-periodic in time, periodic in space.
func DefaultBoundaryConditions() BoundaryConditions {
	return BoundaryConditions{-1, 1, 1, 1}
}

// Periodic returns unit phases in every direction.
func Periodic() BoundaryConditions {
	return BoundaryConditions{1, 1, 1, 1}
}

// Phase returns the accumulated phase for a signed number of wraps along mu.
func (b BoundaryConditions) Phase(mu, wraps int) complex128 {
	p := complex(1, 0)
	for ; wraps > 0; wraps-- {
		p *= b[mu]
	}
	for ; wraps < 0; wraps++ {
		p /= b[mu]
	}
	return p
}
