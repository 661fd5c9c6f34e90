package metrics

import "math"

// FinalResidual is the worst final residual over all inversions seen.
type FinalResidual struct {
	name    string
	worst   float64
	current float64
	active  bool
}

func NewFinalResidual() *FinalResidual {
	return &FinalResidual{name: "final_residual"}
}

func (m *FinalResidual) Name() string { return m.name }

func (m *FinalResidual) Observe(iter int, residual float64) {
	if iter == 1 && m.active {
		m.worst = math.Max(m.worst, m.current)
	}
	m.current = residual
	m.active = true
}

func (m *FinalResidual) Value() float64 {
	if !m.active {
		return 0
	}
	return math.Max(m.worst, m.current)
}

func (m *FinalResidual) Reset() {
	m.worst = 0
	m.current = 0
	m.active = false
}
