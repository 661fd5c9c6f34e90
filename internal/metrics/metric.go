package metrics

import "sort"

// Metric accumulates a statistic over solver iterations. iter restarts at 1
// for every new inversion.
type Metric interface {
	Name() string
	Observe(iter int, residual float64)
	Value() float64
	Reset()
}

// Set fans solver iterations out to several metrics. It satisfies
// solvers.Observer.
type Set []Metric

func Default() Set {
	return Set{
		NewIterations(),
		NewFinalResidual(),
		NewConvergenceRate(),
	}
}

func (s Set) OnIteration(iter int, residual float64) {
	for _, m := range s {
		m.Observe(iter, residual)
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for _, m := range s {
		names = append(names, m.Name())
	}
	sort.Strings(names)
	return names
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}
