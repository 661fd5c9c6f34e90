// Package viz renders propagator runs in the terminal.
//
//   - [Monitor]: Bubble Tea model following the 12 inversions of a run
//   - [ResidualPlot], [DecayPlot]: asciigraph plots of solver histories and
//     time-slice norms
//   - [Canvas]: Braille pixel canvas, exportable as SVG
//   - Theme selection with 3 built-in colour schemes
//
// # Key Bindings
//
//	T     - Cycle colour themes
//	?     - Show help
//	Enter - Exit once the run is done
//	Q     - Quit
package viz
