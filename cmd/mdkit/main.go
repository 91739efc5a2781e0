package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/mdkit/internal/analysis"
	"github.com/san-kum/mdkit/internal/backend"
	"github.com/san-kum/mdkit/internal/config"
	"github.com/san-kum/mdkit/internal/simulation"
	"github.com/san-kum/mdkit/internal/storage"
	"github.com/san-kum/mdkit/internal/system"
	"github.com/san-kum/mdkit/internal/trajectory"
)

var (
	dataDir     string
	configFile  string
	particles   int
	density     float64
	temperature float64
	dt          float64
	delta       float64
	steps       int
	seed        int64
	thermostat  float64
	trajEvery   int
	thermoEvery int
	plotColumn  string
	plotOut     string
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mdkit",
		Short: "particle simulation toolkit",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mdkit", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a simulation (lj or walk)",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().IntVar(&particles, "particles", config.DefaultParticles, "number of particles")
	runCmd.Flags().Float64Var(&density, "density", config.DefaultDensity, "number density")
	runCmd.Flags().Float64Var(&temperature, "temperature", config.DefaultTemperature, "initial temperature")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (lj)")
	runCmd.Flags().Float64Var(&delta, "delta", config.DefaultDelta, "displacement width (walk)")
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time)")
	runCmd.Flags().Float64Var(&thermostat, "thermostat", 0, "thermostat target temperature (lj, 0 = off)")
	runCmd.Flags().IntVar(&trajEvery, "trajectory-interval", 100, "steps between trajectory frames (0 = off)")
	runCmd.Flags().IntVar(&thermoEvery, "thermo-interval", 10, "steps between thermo samples (0 = off)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	infoCmd := &cobra.Command{
		Use:   "info [run_id]",
		Short: "show run metadata and trajectory frames",
		Args:  cobra.ExactArgs(1),
		RunE:  infoRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a thermo column",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotColumn, "column", "temperature", "column to plot (temperature or energy)")
	plotCmd.Flags().StringVar(&plotOut, "out", "", "write a PNG instead of drawing in the terminal")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	rootCmd.AddCommand(runCmd, listCmd, infoCmd, plotCmd, exportCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildConfig layers flags over the config file (if any): only flags
// the user actually set override file values.
func buildConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}
	cfg.Model = model
	set := cmd.Flags().Changed
	if set("particles") {
		cfg.Particles = particles
	}
	if set("density") {
		cfg.Density = density
	}
	if set("temperature") {
		cfg.Temperature = temperature
	}
	if set("dt") {
		cfg.Dt = dt
	}
	if set("delta") {
		cfg.Delta = delta
	}
	if set("steps") {
		cfg.Steps = steps
	}
	if set("seed") {
		cfg.Seed = seed
	}
	if set("thermostat") {
		cfg.Thermostat = thermostat
	}
	if set("trajectory-interval") {
		cfg.TrajectoryInterval = trajEvery
	}
	if set("thermo-interval") {
		cfg.ThermoInterval = thermoEvery
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return cfg, cfg.Check()
}

func buildBackend(cfg *config.Config, sys *system.System) (simulation.Backend, error) {
	switch cfg.Model {
	case "lj":
		if cfg.Thermostat > 0 {
			sys.Thermostat = &system.Thermostat{Temperature: cfg.Thermostat}
		}
		return backend.NewLennardJones(sys, cfg.Dt)
	case "walk":
		return backend.NewRandomWalk(sys, cfg.Delta, cfg.Seed), nil
	}
	return nil, fmt.Errorf("unknown model %q", cfg.Model)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	sys, err := backend.LatticeConfiguration(cfg.Particles, cfg.Density, cfg.Temperature, cfg.Seed)
	if err != nil {
		return err
	}
	b, err := buildBackend(cfg, sys)
	if err != nil {
		return err
	}

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	run, err := store.Begin(cfg.Model)
	if err != nil {
		return err
	}

	runner := simulation.New(b)

	var tw *trajectory.Writer
	if cfg.TrajectoryInterval > 0 {
		tw, err = trajectory.OpenWriter(run.TrajectoryPath(), cfg.Fields...)
		if err != nil {
			return err
		}
		defer tw.Close()
		runner.Add(simulation.WriteTrajectory(tw), cfg.TrajectoryInterval)
	}
	if cfg.ThermoInterval > 0 {
		runner.Add(func(r *simulation.Runner) error {
			s := r.System()
			return run.AppendThermo(r.CurrentStep(), s.Temperature(), s.KineticEnergy())
		}, cfg.ThermoInterval)
	}

	msd := analysis.NewMSD(sys)
	if cfg.ThermoInterval > 0 {
		runner.Add(msd.Observer(), cfg.ThermoInterval)
	}

	start := time.Now()
	if err := runner.Run(cfg.Steps); err != nil {
		return err
	}

	rho, _ := sys.Density()
	meta := storage.RunMetadata{
		Model:       cfg.Model,
		Seed:        cfg.Seed,
		Dt:          cfg.Dt,
		Particles:   len(sys.Particle),
		Density:     rho,
		Temperature: sys.Temperature(),
		Steps:       cfg.Steps,
		FinalStep:   runner.CurrentStep(),
		WallTime:    time.Since(start).Seconds(),
		Termination: runner.Termination(),
	}
	if err := run.Finish(meta); err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("run " + run.ID()))
	fmt.Printf("%s %d steps, %d particles, T=%.3g\n",
		okStyle.Render("done:"), runner.CurrentStep(), len(sys.Particle), sys.Temperature())
	fmt.Println(dimStyle.Render(runner.Termination()))
	if len(msd.Data) > 0 {
		last := msd.Steps()[len(msd.Steps())-1]
		fmt.Printf("msd(%d) = %.4g\n", last, msd.Data[last])
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println(dimStyle.Render("no runs yet"))
		return nil
	}

	fmt.Println(titleStyle.Render("runs"))
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tPARTICLES\tSTEPS\tT\tWHEN")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.3g\t%s\n",
			r.ID, r.Model, r.Particles, r.FinalStep, r.Temperature,
			r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func infoRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("run " + meta.ID))
	fmt.Printf("model: %s\nparticles: %d\ndensity: %.4g\ntemperature: %.4g\n",
		meta.Model, meta.Particles, meta.Density, meta.Temperature)
	fmt.Printf("steps: %d (final %d)\nwall time: %.3gs\ntermination: %s\n",
		meta.Steps, meta.FinalStep, meta.WallTime, meta.Termination)

	r, err := trajectory.OpenReader(store.TrajectoryPath(args[0]))
	if err != nil {
		fmt.Println(dimStyle.Render("no trajectory"))
		return nil
	}
	defer r.Close()
	fmt.Printf("trajectory: %d frames, steps %v\n", r.Len(), r.Steps())
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	steps, temps, kes, err := store.LoadThermo(args[0])
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("run %s has no thermo samples", args[0])
	}

	var series []float64
	switch plotColumn {
	case "temperature":
		series = temps
	case "energy":
		series = kes
	default:
		return fmt.Errorf("unknown column %q (temperature or energy)", plotColumn)
	}

	if plotOut != "" {
		return writePlot(plotOut, args[0], plotColumn, steps, series)
	}

	fmt.Println(titleStyle.Render(args[0] + ": " + plotColumn))
	fmt.Println(asciigraph.Plot(series,
		asciigraph.Height(15),
		asciigraph.Caption(fmt.Sprintf("steps %d..%d", steps[0], steps[len(steps)-1]))))
	return nil
}

func writePlot(path, runID, column string, steps []int, series []float64) error {
	p := plot.New()
	p.Title.Text = runID
	p.X.Label.Text = "step"
	p.Y.Label.Text = column

	pts := make(plotter.XYs, len(series))
	for i := range series {
		pts[i].X = float64(steps[i])
		pts[i].Y = series[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)
	p.Add(plotter.NewGrid())
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func exportRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	steps, temps, kes, err := store.LoadThermo(args[0])
	if err != nil {
		return err
	}

	out := struct {
		storage.RunMetadata
		ThermoSteps []int     `json:"thermo_steps"`
		Temperature []float64 `json:"temperature_series"`
		Kinetic     []float64 `json:"kinetic_energy_series"`
	}{*meta, steps, temps, kes}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
