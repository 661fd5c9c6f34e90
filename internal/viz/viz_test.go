package viz

import (
	"errors"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/qcdsim/internal/propagator"
)

func TestLog10Series(t *testing.T) {
	got := Log10Series([]float64{100, 0, 1e-3})
	want := []float64{2, -3, -3}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
	if Log10Series([]float64{0, -1}) != nil {
		t.Error("expected nil for series without positive values")
	}
}

func TestPlotsRender(t *testing.T) {
	if ResidualPlot(nil, "x") != "" {
		t.Error("empty history should render nothing")
	}
	out := ResidualPlot([]float64{1, 0.1, 0.01, 1e-4}, "cg")
	if !strings.Contains(out, "cg") {
		t.Error("missing caption")
	}
	if DecayPlot([]float64{4, 2, 1, 2}) == "" {
		t.Error("decay plot empty")
	}
	if got := EffectiveMassTable([]float64{4, 2, 1}); strings.Count(got, "\n") != 2 {
		t.Errorf("unexpected table %q", got)
	}
}

func TestCanvasPlotSeries(t *testing.T) {
	c := NewCanvas(10, 4)
	c.PlotSeries([]float64{1, 0.1, 0.01}, true)

	if !c.IsSet(0, 0) {
		t.Error("largest value should sit at the top left")
	}
	if !c.IsSet(19, 15) {
		t.Error("smallest value should sit at the bottom right")
	}
	if c.IsSet(19, 0) {
		t.Error("unexpected pixel at top right")
	}

	svg := c.SVG(2)
	if !strings.HasPrefix(svg, "<?xml") || !strings.Contains(svg, "<circle") {
		t.Error("svg missing content")
	}
	c.Clear()
	if strings.Contains(c.SVG(2), "<circle") {
		t.Error("cleared canvas should have no dots")
	}
}

func TestMonitorTracksInversions(t *testing.T) {
	var m tea.Model = NewMonitor("wilson", 12, ThemeMinimal)
	for _, msg := range []IterationMsg{
		{1, 0.5}, {2, 0.1}, {3, 1e-9},
		{1, 0.4}, {2, 1e-9},
	} {
		m, _ = m.Update(msg)
	}

	mon := m.(Monitor)
	if mon.Inversion() != 2 {
		t.Errorf("inversion = %d, want 2", mon.Inversion())
	}
	if mon.Iteration() != 2 || mon.Residual() != 1e-9 {
		t.Errorf("iteration %d residual %v", mon.Iteration(), mon.Residual())
	}
	if len(mon.Finals()) != 1 || mon.Finals()[0] != 1e-9 {
		t.Errorf("finals = %v", mon.Finals())
	}
	if len(mon.History()) != 2 {
		t.Errorf("history = %v", mon.History())
	}
	if !strings.Contains(mon.View(), "2/12") {
		t.Error("progress missing from view")
	}
}

func TestMonitorDone(t *testing.T) {
	var m tea.Model = NewMonitor("wilson", 12, ThemeMinimal)
	res := &propagator.Result{Inversions: make([]propagator.Inversion, 12)}
	for i := range res.Inversions {
		res.Inversions[i].Converged = true
		res.Inversions[i].Residual = 1e-10
	}
	m, _ = m.Update(DoneMsg{Result: res, TimeSlices: []float64{1, 0.5, 0.25, 0.5}})

	mon := m.(Monitor)
	if !mon.Done() || mon.Inversion() != 12 || len(mon.Finals()) != 12 {
		t.Fatalf("unexpected state: done=%v inversion=%d", mon.Done(), mon.Inversion())
	}
	if !strings.Contains(mon.View(), "converged") {
		t.Error("view should report convergence")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Error("enter should quit once done")
	}
}

func TestMonitorError(t *testing.T) {
	var m tea.Model = NewMonitor("dwf", 12, ThemeMinimal)
	m, _ = m.Update(DoneMsg{Err: errors.New("boom")})
	mon := m.(Monitor)
	if mon.Err() == nil || !strings.Contains(mon.View(), "boom") {
		t.Error("error not surfaced")
	}
}

func TestThemeCycle(t *testing.T) {
	var m tea.Model = NewMonitor("x", 1, ThemeCyberpunk)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	if got := m.(Monitor).Theme().Name; got != ThemeRetroGreen.Name {
		t.Errorf("theme = %s", got)
	}
	if GetTheme("nope").Name != ThemeCyberpunk.Name {
		t.Error("unknown theme should fall back")
	}
	if ThemeMinimal.Next().Name != ThemeCyberpunk.Name {
		t.Error("cycle should wrap")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names mismatch")
	}
}

func TestSparklineAndProgress(t *testing.T) {
	if SparklineChart(nil, 4) != "────" {
		t.Error("empty sparkline")
	}
	if s := SparklineChart([]float64{1, 2, 3}, 3); s == "" {
		t.Error("sparkline empty")
	}
	if strings.Count(ProgressBar(2, 5), "█") != 5 {
		t.Error("progress bar not clamped")
	}
}
