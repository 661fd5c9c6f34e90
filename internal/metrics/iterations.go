package metrics

type Iterations struct {
	name  string
	count int
}

func NewIterations() *Iterations {
	return &Iterations{name: "iterations"}
}

func (m *Iterations) Name() string { return m.name }

func (m *Iterations) Observe(iter int, residual float64) {
	m.count++
}

func (m *Iterations) Value() float64 { return float64(m.count) }

func (m *Iterations) Reset() { m.count = 0 }
