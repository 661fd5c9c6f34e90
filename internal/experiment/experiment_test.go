package experiment

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/qcdsim/internal/config"
	"github.com/san-kum/qcdsim/internal/linop"
	"github.com/san-kum/qcdsim/internal/solvers"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	want := []string{"dwf", "hamber_wu", "naik", "wilson"}
	got := r.ListActions()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("actions = %v, want %v", got, want)
	}
	if got := r.ListSolvers(); strings.Join(got, ",") != "bicgstab,cg,gmres" {
		t.Errorf("solvers = %v", got)
	}

	if _, err := r.GetAction("staggered"); !errors.Is(err, linop.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}

	tests := []struct {
		name     string
		want     solvers.Method
		fellBack bool
	}{
		{"cg", solvers.CG, false},
		{"GMRES", solvers.GMRES, false},
		{"bicgstab", solvers.BiCGStab, false},
		{"minres", solvers.CG, true},
	}
	for _, tt := range tests {
		m, fb := r.GetSolver(tt.name)
		if m != tt.want || fb != tt.fellBack {
			t.Errorf("GetSolver(%q) = %v, %v", tt.name, m, fb)
		}
	}
}

func setup(t *testing.T, cfg *config.Config) *Experiment {
	t.Helper()
	e := New(cfg)
	if err := e.Setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	return e
}

func TestRunFreeWilson(t *testing.T) {
	e := setup(t, config.GetPreset("wilson", "free"))

	out, err := e.Run()
	if err != nil {
		t.Fatal(err)
	}
	if !out.Result.Converged() {
		t.Error("expected every inversion to converge")
	}
	if len(out.TimeSlices) != 2 {
		t.Errorf("expected 2 time slices, got %d", len(out.TimeSlices))
	}
	if out.Plaquette != 1 {
		t.Errorf("cold plaquette = %f", out.Plaquette)
	}
	if got := int(out.Metrics["iterations"]); got != out.Result.TotalIterations() {
		t.Errorf("iterations metric = %d, want %d", got, out.Result.TotalIterations())
	}

	if len(out.Correlators) != 16 {
		t.Fatalf("expected 16 channels, got %d", len(out.Correlators))
	}
	for _, c := range out.Correlators {
		if c.Name != "g5" {
			continue
		}
		for i, v := range c.Correlator {
			if d := v - out.TimeSlices[i]; d > 1e-9*v || d < -1e-9*v {
				t.Errorf("pion correlator at t=%d is %v, time-slice norm %v", i, v, out.TimeSlices[i])
			}
		}
	}

	run := e.Record(out)
	if len(run.Correlators) != 16 {
		t.Errorf("record has %d correlators", len(run.Correlators))
	}
	if len(run.Meta.Inversions) != linop.SpinColour || len(run.Residuals) != linop.SpinColour {
		t.Errorf("record has %d inversions, %d histories", len(run.Meta.Inversions), len(run.Residuals))
	}
	if run.Meta.Action != "wilson" {
		t.Errorf("action = %s", run.Meta.Action)
	}
}

func TestRunBeforeSetup(t *testing.T) {
	if _, err := New(config.DefaultConfig()).Run(); err == nil {
		t.Error("expected error when running before setup")
	}
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Lattice.Spatial = 0
	if err := New(cfg).Setup(); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestUnknownSolverFallsBack(t *testing.T) {
	cfg := config.GetPreset("wilson", "free")
	cfg.Solver.Method = "minres"
	e := setup(t, cfg)

	if e.Method() != solvers.CG {
		t.Errorf("method = %v, want cg", e.Method())
	}
	if len(e.Warnings()) != 1 {
		t.Errorf("expected one warning, got %v", e.Warnings())
	}

	res, err := e.Invert(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged || res.Method != solvers.CG {
		t.Errorf("inversion: converged=%v method=%v", res.Converged, res.Method)
	}
}

func TestInvertDomainWall(t *testing.T) {
	cfg := config.GetPreset("dwf", "shamir")
	cfg.Lattice.Temporal = 2
	cfg.DWF.Ls = 4
	e := setup(t, cfg)

	res, err := e.Invert(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged {
		t.Errorf("dwf inversion did not converge, residual %e", res.Residual)
	}
	if want := cfg.DWF.Ls * linop.SpinColour * e.Lattice().NumSites(); len(res.Solution) != want {
		t.Errorf("solution size %d, want %d", len(res.Solution), want)
	}
}

func TestBenchCoversEverySolver(t *testing.T) {
	cfg := config.GetPreset("wilson", "free")
	e := setup(t, cfg)

	results, err := e.Bench()
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2*len(solvers.Methods()) {
		t.Fatalf("expected %d results, got %d", 2*len(solvers.Methods()), len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("%s (precondition=%v): %v", r.Method, r.Precondition, r.Err)
			continue
		}
		if !r.Result.Converged {
			t.Errorf("%s (precondition=%v) did not converge", r.Method, r.Precondition)
		}
		want := solvers.NoPreconditioning
		if r.Precondition {
			want = solvers.EvenOddPreconditioning
		}
		if r.Result.Preconditioning != want {
			t.Errorf("%s (precondition=%v) used %s", r.Method, r.Precondition, r.Result.Preconditioning)
		}
	}
	if e.Method() != solvers.CG || cfg.Solver.Precondition {
		t.Error("bench must restore the configured solver")
	}
}
