package linop

import "errors"

// Domain errors for operator and solver operations.
var (
	// ErrSizeMismatch indicates a field whose length differs from the operator domain.
	ErrSizeMismatch = errors.New("linop: field size does not match operator")

	// ErrBreakdown indicates a vanishing denominator inside a Krylov iteration.
	ErrBreakdown = errors.New("linop: solver breakdown (near-zero denominator)")

	// ErrNotConverged marks a solve that exhausted its iteration budget.
	// Solvers report it through their result, never as a returned error.
	ErrNotConverged = errors.New("linop: tolerance not reached within iteration budget")

	// ErrInvalidParameter indicates an unrecognised or out-of-range parameter.
	ErrInvalidParameter = errors.New("linop: invalid parameter")
)
