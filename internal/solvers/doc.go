// Package solvers implements the Krylov methods used to invert Dirac
// operators: conjugate gradient on the normal equations, BiCGStab and
// restarted GMRES.
//
// Every solver sees the operator only through linop.Operator. Failing to
// reach the tolerance is reported in the Result, never as an error; an
// error means the iteration broke down or the input was malformed.
package solvers
