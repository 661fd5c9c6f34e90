package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/qcdsim/internal/analysis"
	"github.com/san-kum/qcdsim/internal/automation"
	"github.com/san-kum/qcdsim/internal/config"
	"github.com/san-kum/qcdsim/internal/experiment"
	"github.com/san-kum/qcdsim/internal/linop"
	"github.com/san-kum/qcdsim/internal/optim"
	"github.com/san-kum/qcdsim/internal/propagator"
	"github.com/san-kum/qcdsim/internal/solvers"
	"github.com/san-kum/qcdsim/internal/storage"
	"github.com/san-kum/qcdsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string

	mass      float64
	spatial   int
	temporal  int
	start     string
	seed      int64
	boundary  []float64
	site      []int
	momentum  []int
	m5        float64
	ls        int
	kernel    string
	method    string
	tolerance float64
	maxIter   int
	restart   int
	precond   bool
	verbosity int

	linkSmears   int
	linkRho      float64
	sourceSmears int
	sinkSmears   int
	jacobiKappa  float64

	spin      int
	colour    int
	inversion int
	svgPath   string
	outPath   string
	themeName string
	sweeps    []string
	objective string
	sweepName string
	sweepMin  float64
	sweepMax  float64
	numSteps  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "qcdsim",
		Short: "lattice QCD quark propagator lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".qcdsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [action]",
		Short: "compute a quark propagator and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPropagator,
	}
	addConfigFlags(runCmd)

	invertCmd := &cobra.Command{
		Use:   "invert [action]",
		Short: "solve for a single unsmeared point source",
		Args:  cobra.MaximumNArgs(1),
		RunE:  invertSource,
	}
	addConfigFlags(invertCmd)
	invertCmd.Flags().IntVar(&spin, "spin", 0, "source spin (0-3)")
	invertCmd.Flags().IntVar(&colour, "colour", 0, "source colour (0-2)")

	benchCmd := &cobra.Command{
		Use:   "bench [action]",
		Short: "compare solvers with and without preconditioning",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchSolvers,
	}
	addConfigFlags(benchCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune [action]",
		Short: "grid search solver parameters on a single inversion",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneSolver,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&sweeps, "sweep", nil, "parameter=v1,v2,... ("+strings.Join(optim.ParameterNames(), ", ")+")")
	tuneCmd.Flags().StringVar(&objective, "objective", "iterations", "quantity to minimise (iterations, elapsed, residual)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [action]",
		Short: "run propagators across a parameter range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepName, "param", "mass", "parameter to sweep ("+strings.Join(optim.ParameterNames(), ", ")+")")
	sweepCmd.Flags().Float64Var(&sweepMin, "from", 0.1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "to", 1.0, "last value")
	sweepCmd.Flags().IntVar(&numSteps, "steps", 5, "number of points")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of propagators and store each run",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	liveCmd := &cobra.Command{
		Use:   "live [action]",
		Short: "compute a propagator with a live solver monitor",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().StringVar(&themeName, "theme", viz.ThemeCyberpunk.Name, "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "summarise a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot time-slice decay and residual histories",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&inversion, "inversion", -1, "plot only this inversion (0-11)")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the decay curve as SVG")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [action]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if preset != "" {
				p := config.GetPreset(cfg.Action, preset)
				if p == nil {
					return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Action))
				}
				cfg = p
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "start from a wilson preset")

	rootCmd.AddCommand(runCmd, invertCmd, benchCmd, tuneCmd, sweepCmd, scenarioCmd, liveCmd, listCmd, showCmd, plotCmd, exportJSONCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")

	f.Float64Var(&mass, "mass", config.DefaultMass, "bare quark mass")
	f.IntVar(&spatial, "spatial", config.DefaultSpatial, "spatial extent")
	f.IntVar(&temporal, "temporal", config.DefaultTemporal, "temporal extent")
	f.StringVar(&start, "start", "cold", "gauge start (cold, hot)")
	f.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed for hot starts")
	f.Float64SliceVar(&boundary, "boundary", []float64{1, 0, 0, 0}, "boundary phases per direction in units of pi")
	f.IntSliceVar(&site, "site", []int{0, 0, 0, 0}, "source site (t,x,y,z)")
	f.IntSliceVar(&momentum, "momentum", []int{0, 0, 0}, "sink momentum in units of 2pi/L")

	f.Float64Var(&m5, "m5", config.DefaultM5, "domain-wall height")
	f.IntVar(&ls, "ls", config.DefaultLs, "fifth-dimension extent")
	f.StringVar(&kernel, "kernel", "wilson", "domain-wall kernel")

	f.StringVar(&method, "solver", config.DefaultMethod, "solver ("+strings.Join(experiment.NewRegistry().ListSolvers(), ", ")+")")
	f.Float64Var(&tolerance, "tol", config.DefaultTolerance, "relative residual tolerance")
	f.IntVar(&maxIter, "max-iter", config.DefaultMaxIterations, "iteration limit")
	f.IntVar(&restart, "restart", config.DefaultRestart, "gmres restart length")
	f.BoolVar(&precond, "precondition", false, "even-odd precondition (diagonal scaling where unavailable)")
	f.CountVarP(&verbosity, "verbose", "v", "verbosity (-v per inversion, -vv per iteration)")

	f.IntVar(&linkSmears, "link-smears", 0, "stout smearing steps on the gauge links")
	f.Float64Var(&linkRho, "link-rho", config.DefaultStoutRho, "stout smearing parameter")
	f.IntVar(&sourceSmears, "source-smears", 0, "jacobi smearing steps at the source")
	f.IntVar(&sinkSmears, "sink-smears", 0, "jacobi smearing steps at the sink")
	f.Float64Var(&jacobiKappa, "jacobi-kappa", config.DefaultJacobiKappa, "jacobi smearing parameter")
}

// buildConfig layers preset, config file and explicitly set flags, in that
// order.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Action = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Action, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Action))
		}
		cfg = p
	}

	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 && c.Action != args[0] {
			return nil, fmt.Errorf("config file action %q does not match %q", c.Action, args[0])
		}
		cfg = c
	}

	f := cmd.Flags()
	if f.Changed("mass") {
		cfg.Mass = mass
	}
	if f.Changed("spatial") {
		cfg.Lattice.Spatial = spatial
	}
	if f.Changed("temporal") {
		cfg.Lattice.Temporal = temporal
	}
	if f.Changed("start") {
		cfg.Lattice.Start = start
	}
	if f.Changed("seed") || cfg.Lattice.Seed == 0 {
		cfg.Lattice.Seed = seed
	}
	if f.Changed("boundary") {
		cfg.Boundary = boundary
	}
	if f.Changed("site") {
		cfg.Source = site
	}
	if f.Changed("momentum") {
		cfg.Momentum = momentum
	}
	if f.Changed("m5") {
		cfg.DWF.M5 = m5
	}
	if f.Changed("ls") {
		cfg.DWF.Ls = ls
	}
	if f.Changed("kernel") {
		cfg.DWF.Kernel = kernel
	}
	if f.Changed("solver") {
		cfg.Solver.Method = method
	}
	if f.Changed("tol") {
		cfg.Solver.Tolerance = tolerance
	}
	if f.Changed("max-iter") {
		cfg.Solver.MaxIterations = maxIter
	}
	if f.Changed("restart") {
		cfg.Solver.Restart = restart
	}
	if f.Changed("precondition") {
		cfg.Solver.Precondition = precond
	}
	if f.Changed("verbose") {
		cfg.Verbosity = verbosity
	}
	if f.Changed("link-smears") {
		cfg.Smearing.Links.Count = linkSmears
	}
	if f.Changed("link-rho") {
		cfg.Smearing.Links.Parameter = linkRho
	}
	if f.Changed("source-smears") {
		cfg.Smearing.Source.Count = sourceSmears
	}
	if f.Changed("sink-smears") {
		cfg.Smearing.Sink.Count = sinkSmears
	}
	if f.Changed("jacobi-kappa") {
		cfg.Smearing.Source.Parameter = jacobiKappa
		cfg.Smearing.Sink.Parameter = jacobiKappa
	}
	return cfg, nil
}

func setup(cmd *cobra.Command, args []string) (*experiment.Experiment, error) {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	for _, w := range exp.Warnings() {
		fmt.Fprintln(os.Stderr, viz.Warning(w))
	}
	return exp, nil
}

func describe(exp *experiment.Experiment) {
	cfg := exp.Config()
	l := exp.Lattice()
	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("%s propagator", cfg.Action)))
	fmt.Println(viz.Field("Lattice", fmt.Sprintf("%d^3 x %d (%s)", l.SpatialExtent(), l.TemporalExtent(), cfg.Lattice.Start)))
	fmt.Println(viz.Field("Mass", fmt.Sprintf("%g", cfg.Mass)))
	if cfg.Action == "dwf" {
		fmt.Println(viz.Field("DWF", fmt.Sprintf("M5=%g Ls=%d kernel=%s", cfg.DWF.M5, cfg.DWF.Ls, cfg.DWF.Kernel)))
	}
	pre := ""
	if cfg.Solver.Precondition {
		pre = " (preconditioned)"
	}
	fmt.Println(viz.Field("Solver", exp.Method().String()+pre))
	fmt.Println(viz.Field("Plaquette", fmt.Sprintf("%.6f", l.Plaquette())))
	fmt.Println()
}

func runPropagator(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	describe(exp)
	outcome, err := exp.Run()
	if err != nil {
		return err
	}

	runID, err := st.Save(exp.Record(outcome))
	if err != nil {
		return err
	}

	printOutcome(outcome)
	fmt.Println(viz.Field("Run ID", runID))
	return nil
}

func printOutcome(o *experiment.Outcome) {
	res := o.Result
	fmt.Println(viz.Field("Status", viz.Status(res.Converged())))
	fmt.Println(viz.Field("Iterations", fmt.Sprintf("%d", res.TotalIterations())))
	fmt.Println(viz.Field("Elapsed", res.Elapsed.Round(time.Millisecond).String()))
	for _, name := range sortedKeys(o.Metrics) {
		fmt.Println(viz.Field(name, fmt.Sprintf("%.6g", o.Metrics[name])))
	}
	fmt.Println()
	fmt.Println(viz.DecayPlot(o.TimeSlices))
	fmt.Println()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func invertSource(cmd *cobra.Command, args []string) error {
	if spin < 0 || spin >= linop.NumSpins || colour < 0 || colour >= linop.NumColours {
		return fmt.Errorf("spin must be in [0,%d) and colour in [0,%d)", linop.NumSpins, linop.NumColours)
	}
	exp, err := setup(cmd, args)
	if err != nil {
		return err
	}
	describe(exp)

	res, err := exp.Invert(spin, colour)
	if err != nil {
		return err
	}
	fmt.Println(viz.Field("Status", viz.Status(res.Converged)))
	fmt.Println(viz.Field("Residual", fmt.Sprintf("%.3e", res.Residual)))
	fmt.Println(viz.Field("Iterations", fmt.Sprintf("%d", res.Iterations)))
	if res.MaxBasis > 0 {
		fmt.Println(viz.Field("Max basis", fmt.Sprintf("%d", res.MaxBasis)))
	}
	fmt.Println()
	fmt.Println(viz.ResidualPlot(res.History, fmt.Sprintf("%s spin %d colour %d", res.Method, spin, colour)))
	return nil
}

func benchSolvers(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd, args)
	if err != nil {
		return err
	}
	describe(exp)

	results, err := exp.Bench()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tPRECOND\tITERS\tRESIDUAL\tTIME\tSTATUS")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t%v\n", r.Method, r.Err)
			continue
		}
		status := "converged"
		if !r.Result.Converged {
			status = "not converged"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.3e\t%v\t%s\n",
			r.Method, r.Result.Preconditioning, r.Result.Iterations, r.Result.Residual,
			r.Result.Elapsed.Round(time.Microsecond), status)
	}
	return w.Flush()
}

func parseSweeps(args []string) ([]string, [][]float64, error) {
	var names []string
	var ranges [][]float64
	for _, arg := range args {
		name, list, ok := strings.Cut(arg, "=")
		if !ok || list == "" {
			return nil, nil, fmt.Errorf("invalid sweep %q, want name=v1,v2", arg)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("sweep %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func tuneSolver(cmd *cobra.Command, args []string) error {
	if len(sweeps) == 0 {
		return fmt.Errorf("at least one --sweep is required")
	}
	names, ranges, err := parseSweeps(sweeps)
	if err != nil {
		return err
	}
	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.Verbosity = 0

	best, trials, err := search.Search(context.Background(), cfg, objective)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(objective)+"\tSTATUS")
	for _, t := range trials {
		row := make([]string, 0, len(names)+2)
		for _, n := range names {
			row = append(row, strconv.FormatFloat(t.Params[n], 'g', -1, 64))
		}
		status := "converged"
		switch {
		case t.Err != nil:
			status = t.Err.Error()
		case !t.Converged:
			status = "not converged"
		}
		row = append(row, fmt.Sprintf("%.4g", t.Value), status)
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best.Params == nil || best.Err != nil || !best.Converged {
		fmt.Println(viz.Warning("no grid point converged"))
		return nil
	}
	var parts []string
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s=%g", n, best.Params[n]))
	}
	fmt.Println()
	fmt.Println(viz.Field("Best", strings.Join(parts, " ")))
	fmt.Println(viz.Field(objective, fmt.Sprintf("%.4g", best.Value)))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.Verbosity = 0

	sweep := &automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepName,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  numSteps,
	}
	results, err := automation.RunSweep(context.Background(), sweep, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tITERS\tPION M_EFF\tSTATUS\n", strings.ToUpper(sweepName))
	for _, r := range results {
		status := "converged"
		if !r.Converged {
			status = "not converged"
		}
		fmt.Fprintf(w, "%.4f\t%d\t%.4f\t%s\n", r.ParamValue, r.Iterations, r.PionMass, status)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	if sc.Name != "" {
		fmt.Println(viz.HeaderStyle.Render(sc.Name))
		if sc.Description != "" {
			fmt.Println(viz.Subtle.Render(sc.Description))
		}
	}

	results, err := automation.RunScenario(context.Background(), sc, os.Stdout)
	for _, r := range results {
		runID, serr := st.Save(r.Experiment.Record(r.Outcome))
		if serr != nil {
			return serr
		}
		fmt.Println(viz.Field(r.Name, runID+" "+viz.Status(r.Outcome.Result.Converged())))
	}
	return err
}

func runLive(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd, args)
	if err != nil {
		return err
	}
	// Verbose output would corrupt the monitor.
	exp.Config().Verbosity = 0

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	var outcome *experiment.Outcome
	title := fmt.Sprintf("%s / %s", exp.Config().Action, exp.Method())
	err = viz.RunMonitor(title, linop.SpinColour, viz.GetTheme(themeName),
		func(obs solvers.Observer) (*propagator.Result, []float64, error) {
			exp.SetObserver(obs)
			o, err := exp.Run()
			if err != nil {
				return nil, nil, err
			}
			outcome = o
			return o.Result, o.TimeSlices, nil
		})
	if err != nil {
		return err
	}
	if outcome == nil {
		return nil
	}

	runID, err := st.Save(exp.Record(outcome))
	if err != nil {
		return err
	}
	fmt.Println(viz.Field("Run ID", runID))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACTION\tTIME\tLATTICE\tMASS\tSOLVER\tPLAQUETTE")
	for _, run := range runs {
		lat, m, solver := "-", "-", "-"
		if c := run.Config; c != nil {
			lat = fmt.Sprintf("%d^3x%d", c.Lattice.Spatial, c.Lattice.Temporal)
			m = fmt.Sprintf("%g", c.Mass)
			solver = c.Solver.Method
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.4f\n",
			run.ID,
			run.Action,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			lat, m, solver,
			run.Plaquette,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	slices, err := st.LoadTimeSlices(args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.HeaderStyle.Render(meta.ID))
	fmt.Println(viz.Field("Action", meta.Action))
	fmt.Println(viz.Field("Timestamp", meta.Timestamp.Format(time.RFC3339)))
	fmt.Println(viz.Field("Plaquette", fmt.Sprintf("%.6f", meta.Plaquette)))
	for _, name := range sortedKeys(meta.Metrics) {
		fmt.Println(viz.Field(name, fmt.Sprintf("%.6g", meta.Metrics[name])))
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SPIN\tCOLOUR\tSOLVER\tITERS\tRESIDUAL\tTIME\tSTATUS")
	for _, inv := range meta.Inversions {
		status := "converged"
		if !inv.Converged {
			status = "not converged"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%.3e\t%.2fms\t%s\n",
			inv.Spin, inv.Colour, inv.Method, inv.Iterations, inv.Residual, inv.ElapsedMS, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	correlators, err := st.LoadCorrelators(args[0])
	if err != nil {
		return err
	}
	if len(correlators) > 0 {
		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CHANNEL\tC(0)\tC(1)\tM_EFF(0)")
		for _, c := range correlators {
			c0, c1, meff := "-", "-", "-"
			if len(c.Values) > 0 {
				c0 = fmt.Sprintf("%.4e", c.Values[0])
			}
			if len(c.Values) > 1 {
				c1 = fmt.Sprintf("%.4e", c.Values[1])
				meff = fmt.Sprintf("%.4f", analysis.EffectiveMass(c.Values)[0])
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, c0, c1, meff)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Println("effective mass:")
	fmt.Print(viz.EffectiveMassTable(slices))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	slices, err := st.LoadTimeSlices(runID)
	if err != nil {
		return err
	}
	residuals, err := st.LoadResiduals(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("action: %s\n\n", meta.Action)

	if inversion < 0 {
		if graph := viz.DecayPlot(slices); graph != "" {
			fmt.Println(graph)
			fmt.Println()
		}
	}

	for i, hist := range residuals {
		if inversion >= 0 && i != inversion {
			continue
		}
		caption := fmt.Sprintf("inversion %d (spin %d, colour %d)", i, i/linop.NumColours, i%linop.NumColours)
		if graph := viz.ResidualPlot(hist, caption); graph != "" {
			fmt.Println(graph)
			fmt.Println()
		}
	}

	if inversion >= len(residuals) {
		return fmt.Errorf("inversion %d out of range (%d stored)", inversion, len(residuals))
	}

	if svgPath != "" {
		canvas := viz.NewCanvas(40, 10)
		canvas.PlotSeries(slices, true)
		if err := os.WriteFile(svgPath, []byte(canvas.SVG(4)), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outPath != "" {
		if err := st.ExportJSONFile(outPath, args[0]); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", outPath)
		return nil
	}
	return st.ExportJSON(os.Stdout, args[0])
}

func listPresets(cmd *cobra.Command, args []string) error {
	actions := config.ListActions()
	if len(args) > 0 {
		actions = []string{args[0]}
	}
	for _, a := range actions {
		presets := config.ListPresets(a)
		if len(presets) == 0 {
			fmt.Printf("no presets for action: %s\n", a)
			continue
		}
		fmt.Printf("presets for %s:\n", a)
		for _, p := range presets {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}
