package metrics

import "math"

// ConvergenceRate is the mean number of decimal digits of residual gained
// per iteration, log10(r_{k-1}/r_k) averaged over all iterations after the
// first of each inversion.
type ConvergenceRate struct {
	name  string
	prev  float64
	sum   float64
	steps int
}

func NewConvergenceRate() *ConvergenceRate {
	return &ConvergenceRate{name: "convergence_rate"}
}

func (m *ConvergenceRate) Name() string { return m.name }

func (m *ConvergenceRate) Observe(iter int, residual float64) {
	if iter > 1 && m.prev > 0 && residual > 0 {
		m.sum += math.Log10(m.prev / residual)
		m.steps++
	}
	m.prev = residual
}

func (m *ConvergenceRate) Value() float64 {
	if m.steps == 0 {
		return 0
	}
	return m.sum / float64(m.steps)
}

func (m *ConvergenceRate) Reset() {
	m.prev = 0
	m.sum = 0
	m.steps = 0
}
