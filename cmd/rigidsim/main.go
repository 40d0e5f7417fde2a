package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/rigidsim/internal/automation"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/export"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/storage"
	"github.com/san-kum/rigidsim/internal/viz"
	"github.com/san-kum/rigidsim/internal/world"
)

var (
	dataDir    string
	logLevel   string
	configFile string

	dt          float64
	duration    float64
	iterations  int
	noWarmStart bool
	gravityY    float64
	recordEvery int
	cullBelow   float64

	// plot / export-svg
	plotBody int
	svgOut   string
	svgWorld bool
	svgSize  int

	// sweep / montecarlo
	param        string
	paramMin     float64
	paramMax     float64
	paramSteps   int
	trials       int
	perturbation float64
	seed         int64
	tolerance    float64
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

var logger = log.New(os.Stderr)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rigidsim",
		Short: "2d rigid body physics sandbox",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{
				Level:           level,
				Prefix:          "rigidsim",
				ReportTimestamp: true,
				TimeFormat:      time.Kitchen,
			})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rigidsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [scene[/variant]]",
		Short: "run a scene headless and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().IntVar(&recordEvery, "record-every", 1, "keep one frame every n steps")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot body positions of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotBody, "body", 0, "body id to plot (0 plots the first few)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run frames to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export body trajectories or the final world to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().BoolVar(&svgWorld, "world", false, "draw the final world instead of trajectories")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 640, "image width in pixels")

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list scenes and their variants",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenes := config.Scenes()
			if len(args) > 0 {
				scenes = []string{args[0]}
			}
			for _, s := range scenes {
				variants := config.ListPresets(s)
				if len(variants) == 0 {
					fmt.Printf("no presets for scene: %s\n", s)
					continue
				}
				fmt.Println(titleStyle.Render(s))
				for _, v := range variants {
					fmt.Printf("  %s/%s\n", s, v)
				}
			}
			return nil
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench [scene[/variant]]",
		Short: "measure stepping speed",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	addSceneFlags(benchCmd)

	liveCmd := &cobra.Command{
		Use:   "live [scene[/variant]]",
		Short: "run a scene with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)

	scriptCmd := &cobra.Command{
		Use:   "script [scenario.yaml]",
		Short: "run a scripted scenario and store the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene[/variant]]",
		Short: "sweep one parameter over a range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&param, "param", automation.ParamIterations, "parameter (iterations, friction, gravity, mass)")
	sweepCmd.Flags().Float64Var(&paramMin, "min", 1, "lowest value")
	sweepCmd.Flags().Float64Var(&paramMax, "max", 10, "highest value")
	sweepCmd.Flags().IntVar(&paramSteps, "steps", 10, "number of values")

	mcCmd := &cobra.Command{
		Use:   "montecarlo [scene[/variant]]",
		Short: "perturb initial positions and count stable runs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addSceneFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	mcCmd.Flags().Float64Var(&perturbation, "perturb", 1, "maximum position offset")
	mcCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	mcCmd.Flags().Float64Var(&tolerance, "tolerance", metrics.DefaultPenetrationTolerance, "penetration above which a run is unstable")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, exportSVGCmd,
		presetsCmd, benchCmd, liveCmd, scriptCmd, sweepCmd, mcCmd, worldCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().IntVar(&iterations, "iterations", config.DefaultIterations, "solver iterations")
	cmd.Flags().BoolVar(&noWarmStart, "no-warm-start", false, "disable warm starting")
	cmd.Flags().Float64Var(&gravityY, "gravity", config.DefaultGravityY, "downward gravity")
	cmd.Flags().Float64Var(&cullBelow, "cull-below", 0, "remove bodies falling past this y (0 disables)")
}

// loadConfig resolves the scene from --config, a preset name or the
// default stack. Flags override the loaded values only when set.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case len(args) > 0:
		cfg = config.Named(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown scene: %s (available: %v)", args[0], config.Scenes())
		}
		cfg.Scene = args[0]
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if flags.Changed("no-warm-start") {
		cfg.WarmStarting = !noWarmStart
	}
	if flags.Changed("gravity") {
		cfg.Gravity.Y = gravityY
	}
	if flags.Changed("cull-below") {
		cfg.CullBelow = cullBelow
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	w, _, err := cfg.Build()
	if err != nil {
		return err
	}

	s := sim.New(w)
	s.SetLogger(logger)
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}

	fmt.Printf("running %s (%d bodies)...\n", cfg.Scene, w.Len())
	start := time.Now()

	result, err := s.Run(cmd.Context(), sim.Config{
		Dt:           cfg.Dt,
		Duration:     cfg.Duration,
		CullBelow:    cfg.CullBelow,
		CullInterval: world.CullInterval,
		RecordEvery:  recordEvery,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := runStore().Save(sceneName(cfg), cfg.Dt, cfg.Duration, w, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	printResult(runID, result)
	return nil
}

func runStore() *storage.Store {
	return storage.New(filepath.Join(dataDir, "runs"))
}

func worldStore() *storage.WorldStore {
	return storage.NewWorldStore(filepath.Join(dataDir, "worlds"))
}

// sceneName turns a scene reference into something usable in a run id.
func sceneName(cfg *config.Config) string {
	if cfg.Scene == "" {
		return "custom"
	}
	return strings.ReplaceAll(cfg.Scene, "/", "-")
}

func printResult(runID string, result *sim.Result) {
	fmt.Printf("%s %s\n", labelStyle.Render("run id:"), runID)
	fmt.Printf("%s %d\n", labelStyle.Render("steps:"), result.StepsTaken)
	if len(result.Culled) > 0 {
		fmt.Printf("%s %d\n", labelStyle.Render("culled:"), len(result.Culled))
	}
	fmt.Println("\n" + titleStyle.Render("metrics"))
	for _, m := range metrics.Standard() {
		if v, ok := result.Metrics[m.Name()]; ok {
			fmt.Printf("  %-16s %.6f\n", m.Name(), v)
		}
	}
	for _, e := range result.Errors {
		fmt.Println(errorStyle.Render("  " + e.Error()))
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := runStore().List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tDURATION\tDT\tSTEPS\tBODIES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
			run.Bodies,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := runStore()
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(frames))

	var ids []world.BodyID
	if plotBody > 0 {
		ids = []world.BodyID{world.BodyID(plotBody)}
	} else {
		maxPlots := 4
		for _, b := range frames[0].Bodies {
			if len(ids) == maxPlots {
				break
			}
			ids = append(ids, b.ID)
		}
	}

	for _, id := range ids {
		// y grows downward, so plot height above the start to read naturally
		var xs, ys []float64
		for _, f := range frames {
			if b, ok := f.Find(id); ok {
				xs = append(xs, b.X)
				ys = append(ys, -b.Y)
			}
		}
		if len(ys) == 0 {
			fmt.Printf("body %d not found\n", id)
			continue
		}

		graph := asciigraph.PlotMany([][]float64{xs, ys},
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Yellow),
			asciigraph.SeriesLegends("x", "height"),
			asciigraph.Caption(fmt.Sprintf("body %d", id)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := runStore().Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := runStore()
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	data := export.NewExportData(meta.Scene, meta.Dt, meta.Duration, meta.Steps, frames, meta.Metrics)
	return export.WriteJSON(os.Stdout, data)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := runStore()
	height := svgSize * 3 / 4

	var svg string
	if svgWorld {
		w, err := st.LoadWorld(runID)
		if err != nil {
			return err
		}
		svg = export.WorldToSVG(w, svgSize, height)
	} else {
		frames, err := st.LoadFrames(runID)
		if err != nil {
			return err
		}
		svg = export.TrajectoryToSVG(frames, svgSize, height)
	}
	if svg == "" {
		return fmt.Errorf("run %s: nothing to draw", runID)
	}

	if svgOut == "" {
		_, err := fmt.Println(svg)
		return err
	}
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	logger.Info("wrote svg", "path", svgOut)
	return nil
}

func benchScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	durations := []float64{1.0, 5.0, 10.0}
	iters := []int{1, 5, 10, 20}

	fmt.Printf("benchmarking %s (dt=%.4f)\n\n", cfg.Scene, cfg.Dt)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tITERATIONS\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range durations {
		for _, n := range iters {
			run := cfg.Clone()
			run.Iterations = n
			wld, _, err := run.Build()
			if err != nil {
				return err
			}

			s := sim.New(wld)
			start := time.Now()
			result, err := s.Run(cmd.Context(), sim.Config{Dt: run.Dt, Duration: dur, RecordEvery: int(dur / run.Dt)})
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			stepsPerSec := float64(result.StepsTaken) / elapsed.Seconds()
			fmt.Fprintf(w, "%.1fs\t%d\t%d\t%v\t%.0f\n",
				dur, n, result.StepsTaken, elapsed, stepsPerSec)
		}
	}

	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && configFile == "" {
		return viz.RunInteractive()
	}
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	return viz.RunLive(cfg.Scene, viz.BuilderFor(cfg), viz.SimConfig(cfg))
}

func runScript(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	s, tl, cfg, err := automation.Setup(scenario)
	if err != nil {
		return err
	}
	s.SetLogger(logger)
	logger.Info("running scenario", "name", scenario.Name, "events", len(scenario.Events))

	result, err := s.Run(cmd.Context(), viz.SimConfig(cfg))
	if err != nil {
		return err
	}
	if err := tl.Err(); err != nil {
		logger.Warn("scenario events failed", "err", err)
	}

	name := scenario.Name
	if name == "" {
		name = sceneName(cfg)
	}
	runID, err := runStore().Save(name, cfg.Dt, cfg.Duration, s.World(), result)
	if err != nil {
		return err
	}
	printResult(runID, result)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Config:    cfg,
		ParamName: param,
		ParamMin:  paramMin,
		ParamMax:  paramMax,
		NumSteps:  paramSteps,
	})
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("sweep %s on %s", param, cfg.Scene)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tMEAN ENERGY\tMAX PENETRATION\tSTABILITY\tUNSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%.4f\t%.4f\t%.4f\t%v\n",
			r.ParamValue, r.MeanEnergy, r.MaxPenetration, r.Stability, r.Unstable)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Config:       cfg,
		Perturbation: perturbation,
		NumTrials:    trials,
		Seed:         seed,
		Tolerance:    tolerance,
	})
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Println(titleStyle.Render(fmt.Sprintf("monte carlo on %s (seed %d)", cfg.Scene, seed)))
	fmt.Printf("%s %d\n", labelStyle.Render("stable:"), stable)
	fmt.Printf("%s %d\n", labelStyle.Render("unstable:"), unstable)

	pens := make([]float64, len(results))
	for i, r := range results {
		pens[i] = r.MaxPenetration
	}
	if len(pens) > 1 {
		fmt.Println(asciigraph.Plot(pens,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("max penetration per trial"),
		))
	}
	return nil
}

func worldCommand() *cobra.Command {
	worldCmd := &cobra.Command{
		Use:   "world",
		Short: "save and inspect worlds in the scene format",
	}

	saveCmd := &cobra.Command{
		Use:   "save [scene[/variant]]",
		Short: "build a scene, optionally run it, and save the world",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			w, _, err := cfg.Build()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("time") {
				if _, err := sim.New(w).Run(cmd.Context(), viz.SimConfig(cfg)); err != nil {
					return err
				}
			}
			id, err := worldStore().Save(w)
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
	addSceneFlags(saveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved worlds",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := worldStore().List()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("no worlds found")
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "print a saved world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := worldStore().Load(args[0], world.DefaultGravity)
			if err != nil {
				return err
			}
			return scene.Encode(os.Stdout, w)
		},
	}

	runCmd := &cobra.Command{
		Use:   "run [id]",
		Short: "continue a saved world for --time seconds and save it back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []world.Option{world.WithIterations(iterations), world.WithWarmStarting(!noWarmStart)}
			w, err := worldStore().Load(args[0], geom.V(0, gravityY), opts...)
			if err != nil {
				return err
			}
			result, err := sim.New(w).Run(cmd.Context(), sim.Config{Dt: dt, Duration: duration})
			if err != nil {
				return err
			}
			logger.Info("stepped world", "id", args[0], "steps", result.StepsTaken)
			return worldStore().Put(args[0], w)
		},
	}
	addSceneFlags(runCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "delete a saved world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return worldStore().Delete(args[0])
		},
	}

	worldCmd.AddCommand(saveCmd, listCmd, showCmd, runCmd, deleteCmd)
	return worldCmd
}
