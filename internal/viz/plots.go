package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/qcdsim/internal/analysis"
)

const (
	plotHeight = 10
	plotWidth  = 80
)

// Log10Series maps values to log10, replacing non positive entries with the
// smallest positive log in the series so the plot stays continuous.
func Log10Series(values []float64) []float64 {
	floor := math.Inf(1)
	for _, v := range values {
		if v > 0 {
			floor = min(floor, math.Log10(v))
		}
	}
	if math.IsInf(floor, 1) {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		if v > 0 {
			out[i] = math.Log10(v)
		} else {
			out[i] = floor
		}
	}
	return out
}

// ResidualPlot draws log10 of a solver residual history.
func ResidualPlot(history []float64, caption string) string {
	data := Log10Series(history)
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	)
}

// DecayPlot draws log10 of the propagator time-slice norms, the shape from
// which the ground-state mass is read off.
func DecayPlot(timeSlices []float64) string {
	data := Log10Series(timeSlices)
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("log10 sum_x |S(x,t)|^2"),
	)
}

// EffectiveMassTable formats the effective mass one line per time slice.
func EffectiveMassTable(timeSlices []float64) string {
	var s string
	for t, m := range analysis.EffectiveMass(timeSlices) {
		s += fmt.Sprintf("  t=%-3d m_eff=%8.4f\n", t, m)
	}
	return s
}
