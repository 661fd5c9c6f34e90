package lattice

import "errors"

var (
	// ErrBadExtent indicates a non-positive lattice extent.
	ErrBadExtent = errors.New("lattice: extent must be positive")

	// ErrSizeMismatch indicates a gauge field of the wrong length.
	ErrSizeMismatch = errors.New("lattice: gauge field size mismatch")
)
