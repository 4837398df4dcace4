package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/ballsim/internal/analysis"
	"github.com/san-kum/ballsim/internal/automation"
	"github.com/san-kum/ballsim/internal/config"
	"github.com/san-kum/ballsim/internal/export"
	"github.com/san-kum/ballsim/internal/gui"
	"github.com/san-kum/ballsim/internal/metrics"
	"github.com/san-kum/ballsim/internal/storage"
	"github.com/san-kum/ballsim/internal/viz"
	"github.com/san-kum/ballsim/internal/world"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	balls      int
	workers    int
	steps      int
	seed       int64
	backend    string
	response   string
	// run
	runName     string
	exportEvery int
	noSave      bool
	// bench
	sweep []int
	// live
	stepsPerFrame int
	theme         string
	view          string
	limit         int
	// snapshot
	frameIndex int
	outFile    string
	imageSize  int
)

// main registers the commands and launches the interactive viewer when no
// subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:           "ballsim",
		Short:         "parallel 3D ball collision simulator",
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				logrus.Fatalf("invalid log level %q: %v", logLevel, err)
			}
			logrus.SetLevel(level)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return gui.Run(cfg, logrus.WithField("cmd", "gui"), true)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".ballsim", "data directory")
	pf.StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.IntVar(&balls, "balls", config.DefaultBalls, "number of balls")
	pf.IntVar(&workers, "workers", 0, "worker goroutines (0 = one per CPU)")
	pf.IntVar(&steps, "steps", config.DefaultSteps, "steps to simulate")
	pf.Int64Var(&seed, "seed", config.DefaultSeed, "random seed for initial velocities")
	pf.StringVar(&backend, "backend", "cpu", "compute backend (cpu, opengl)")
	pf.StringVar(&response, "response", config.ResponseFull, "collision response (full, positional, analytic)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation and store the result",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&runName, "name", "run", "run name prefix")
	runCmd.Flags().IntVar(&exportEvery, "export-every", 0, "store positions every n steps (0 = first and last only)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure step throughput across worker counts",
		Args:  cobra.NoArgs,
		RunE:  benchWorkers,
	}
	benchCmd.Flags().IntSliceVar(&sweep, "sweep", nil, "worker counts to measure (default powers of two up to the CPU count)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot height profile of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of the mean height",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "render a stored frame as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotRun,
	}
	snapshotCmd.Flags().IntVar(&frameIndex, "frame", -1, "frame index, negative counts from the end")
	snapshotCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	snapshotCmd.Flags().StringVar(&view, "view", "orbit", "projection (side, top, orbit)")
	snapshotCmd.Flags().IntVar(&imageSize, "size", 800, "image size in pixels")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live terminal visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	liveCmd.Flags().IntVar(&stepsPerFrame, "spf", 4, "steps per frame")
	liveCmd.Flags().StringVar(&theme, "theme", "default", "color theme")
	liveCmd.Flags().StringVar(&view, "view", "side", "projection (side, top, orbit)")
	liveCmd.Flags().IntVar(&limit, "limit", 0, "stop after this many steps (0 = no limit)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("presets:")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-8s %6d balls  half extent %.1f\n", name, cfg.Balls, cfg.HalfExtent)
			}
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run simulation in the 3D viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return gui.Run(cfg, logrus.WithField("cmd", "gui"), false)
		},
	}

	rootCmd.AddCommand(runCmd, benchCmd, listCmd, plotCmd, analyzeCmd, exportCmd, snapshotCmd, liveCmd, presetsCmd, configCmd, scenarioCmd, guiCmd)

	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

// loadConfig resolves the configuration from --config, then --preset, then the
// defaults. Flags given on the command line override all of them.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	case preset != "":
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("balls") {
		cfg.Balls = balls
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("steps") {
		cfg.Run.Steps = steps
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("response") {
		cfg.Response = response
	}
	if flags.Changed("export-every") {
		cfg.Run.ExportEvery = exportEvery
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logrus.WithField("cmd", "run")

	w, err := world.New(cfg, world.WithLogger(log))
	if err != nil {
		return err
	}
	defer w.Close()

	runner := world.NewRunner(w)
	lo, hi := w.Bounds()
	ms := metrics.Defaults(cfg.Gravity, lo, cfg.Diameter(), lo, hi)
	for _, m := range ms {
		runner.AddMetric(m)
	}
	runner.ObserveEvery(cfg.Run.ExportEvery)

	var rec *storage.Recorder
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		rec, err = st.Create(storage.RunMetadata{
			Name:    runName,
			Backend: w.Backend().Name(),
			Config:  *cfg,
		})
		if err != nil {
			return err
		}
		runner.AddObserver(world.ObserverFunc(func(cur *world.World) error {
			return rec.Frame(cur.Time(), cur.Positions())
		}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.WithFields(logrus.Fields{
		"steps":   cfg.Run.Steps,
		"workers": cfg.WorkerCount(),
	}).Info("running simulation")

	result, runErr := runner.Run(ctx, cfg.Run.Steps)
	if rec != nil && result != nil {
		if err := rec.Finish(result.Steps, result.SimTime, result.Elapsed, result.Metrics); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return runErr
	}

	log.Infof("completed %d steps in %v (%.0f steps/s)", result.Steps, result.Elapsed.Round(time.Millisecond), result.StepsPerSecond)
	if rec != nil {
		fmt.Printf("run id: %s\n", rec.ID())
	}
	fmt.Println("\nmetrics:")
	for _, m := range ms {
		fmt.Printf("  %s: %.6f\n", m.Name(), result.Metrics[m.Name()])
	}
	return nil
}

func benchWorkers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	counts := sweep
	if len(counts) == 0 {
		for n := 1; n <= runtime.NumCPU(); n *= 2 {
			counts = append(counts, n)
		}
	}

	fmt.Printf("benchmarking %d balls for %d steps\n\n", cfg.Balls, cfg.Run.Steps)
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WORKERS\tTIME\tSTEPS/SEC\tSPEEDUP")

	var base float64
	for _, n := range counts {
		c := *cfg
		c.Workers = n
		if err := c.Validate(); err != nil {
			return err
		}

		w, err := world.New(&c, world.WithLogger(logrus.WithField("workers", n)))
		if err != nil {
			return err
		}
		start := time.Now()
		for i := 0; i < c.Run.Steps; i++ {
			w.Step()
		}
		elapsed := time.Since(start)
		w.Close()

		rate := float64(c.Run.Steps) / elapsed.Seconds()
		if base == 0 {
			base = rate
		}
		fmt.Fprintf(tw, "%d\t%v\t%.0f\t%.2fx\n", n, elapsed.Round(time.Millisecond), rate, rate/base)
	}

	return tw.Flush()
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

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tBALLS\tSTEPS\tSIM TIME\tSTEPS/SEC\tBACKEND")

	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2fs\t%.0f\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Config.Balls,
			run.Steps,
			run.SimTime,
			run.StepsPerSecond,
			run.Backend,
		)
	}

	return tw.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) < 2 {
		return fmt.Errorf("run %s has %d frames, need at least 2 to plot", runID, len(frames))
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("balls: %d\n", meta.Config.Balls)
	fmt.Printf("frames: %d\n\n", len(frames))

	mean, top := analysis.HeightProfile(positions(frames))

	for _, series := range []struct {
		data    []float64
		caption string
	}{
		{mean, "mean height"},
		{top, "max height"},
	} {
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func positions(frames []storage.Frame) [][]mgl64.Vec3 {
	pos := make([][]mgl64.Vec3, len(frames))
	for i, f := range frames {
		pos[i] = f.Pos
	}
	return pos
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) < 4 {
		return fmt.Errorf("run %s has %d frames, record with --export-every to analyze", runID, len(frames))
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("frames: %d\n\n", len(frames))

	mean, _ := analysis.HeightProfile(positions(frames))
	ps := analysis.PowerSpectrum(mean)
	plotData := ps[:max(2, len(ps)/4)]

	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (mean height)"),
	)
	fmt.Println(graph)
	fmt.Println()

	interval := frames[1].Time - frames[0].Time
	freq, _ := analysis.DominantFrequency(mean, interval)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outFile != "" {
		if err := st.ExportJSON(outFile, args[0]); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", args[0], outFile)
		return nil
	}
	return st.Export(os.Stdout, args[0])
}

func snapshotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frame, err := st.LoadFrame(runID, frameIndex)
	if err != nil {
		return err
	}

	v, err := viz.ParseView(view)
	if err != nil {
		return err
	}
	cam := viz.NewCamera()
	cam.View = v

	var out io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	return export.FrameSVG(out, frame.Pos, meta.Config.HalfExtent, meta.Config.Radius, cam, imageSize)
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := &automation.Runner{Store: st, Log: logrus.WithField("scenario", scenario.Name)}
	results, err := runner.Run(ctx, scenario)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tSEED\tSTEPS\tSTEPS/SEC\tSTABLE\tRUN ID\tERROR")
	for _, r := range results {
		var n int
		var rate float64
		if r.Result != nil {
			n, rate = r.Result.Steps, r.Result.StepsPerSecond
		}
		errText := "-"
		if r.Err != nil {
			errText = r.Err.Error()
		}
		runID := r.RunID
		if runID == "" {
			runID = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.0f\t%v\t%s\t%s\n", r.Step, r.Seed, n, rate, r.Stable, runID, errText)
	}
	if ferr := tw.Flush(); ferr != nil {
		return ferr
	}

	stable, unstable := automation.Stats(results)
	fmt.Printf("\n%d stable, %d unstable\n", stable, unstable)
	return err
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	v, err := viz.ParseView(view)
	if err != nil {
		return err
	}

	// the alt screen owns the terminal until the program exits
	logrus.SetOutput(io.Discard)
	defer logrus.SetOutput(os.Stderr)

	w, err := world.New(cfg, world.WithLogger(logrus.WithField("cmd", "live")))
	if err != nil {
		return err
	}
	defer w.Close()

	return viz.Run(w, viz.Options{
		StepsPerFrame: stepsPerFrame,
		Limit:         limit,
		Theme:         theme,
		View:          v,
	})
}
