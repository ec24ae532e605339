package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/breathsim/internal/analysis"
	"github.com/san-kum/breathsim/internal/audio"
	"github.com/san-kum/breathsim/internal/config"
	"github.com/san-kum/breathsim/internal/export"
	"github.com/san-kum/breathsim/internal/gui"
	"github.com/san-kum/breathsim/internal/logging"
	"github.com/san-kum/breathsim/internal/metrics"
	"github.com/san-kum/breathsim/internal/sim"
	"github.com/san-kum/breathsim/internal/storage"
	"github.com/san-kum/breathsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	verbose    bool
	logFile    string
	seed       int64
	preset     string
	// Live sessions
	paused bool
	menu   bool
	watch  bool
	// Traces
	every   int
	jsonOut string
	column  string
	// Exports
	atMs         float64
	traceOut     string
	frameOut     string
	wavOut       string
	wavSeconds   float64
	noiseSeconds float64
	svgOut       string
	cycles       int

	log = zap.NewNop()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Flags with different defaults per
// command are bound to separate variables; fps, duration and audio are read
// from the running command's own flag set by loadConfig.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "breathsim",
		Short: "guided breathing with procedural audio",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			live := cmd.Name() == "tui" || cmd.Name() == "gui" || cmd.Name() == "breathsim"
			l, err := logging.New(logging.Options{Verbose: verbose, File: logFile, Quiet: live})
			if err != nil {
				return err
			}
			log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = log.Sync()
		},
		RunE: runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".breathsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "breathing preset")
	rootCmd.Flags().Bool("audio", false, "enable audio")
	rootCmd.Flags().BoolVar(&paused, "paused", false, "start paused")
	rootCmd.Flags().BoolVar(&menu, "menu", false, "start at the preset menu")
	rootCmd.Flags().BoolVar(&watch, "watch", true, "reload the config file on change")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "breathe in the terminal",
		RunE:  runTUI,
	}
	tuiCmd.Flags().Bool("audio", false, "enable audio")
	tuiCmd.Flags().BoolVar(&paused, "paused", false, "start paused")
	tuiCmd.Flags().BoolVar(&menu, "menu", false, "start at the preset menu")
	tuiCmd.Flags().BoolVar(&watch, "watch", true, "reload the config file on change")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "breathe in a window",
		RunE:  runGUI,
	}
	guiCmd.Flags().Bool("audio", false, "enable audio")
	guiCmd.Flags().BoolVar(&watch, "watch", true, "reload the config file on change")

	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "record a headless session",
		RunE:  runTrace,
	}
	traceCmd.Flags().Float64("fps", config.DefaultFPS, "frames per simulated second")
	traceCmd.Flags().Float64("duration", config.DefaultSeconds, "seconds to simulate")
	traceCmd.Flags().IntVar(&every, "every", 6, "keep every nth frame")
	traceCmd.Flags().StringVar(&jsonOut, "json", "", "also write the trace as JSON to this file")

	batchCmd := &cobra.Command{
		Use:   "batch [preset...]",
		Short: "compare presets headlessly",
		RunE:  runBatch,
	}
	batchCmd.Flags().Float64("fps", config.DefaultFPS, "frames per simulated second")
	batchCmd.Flags().Float64("duration", config.DefaultSeconds, "seconds to simulate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded traces",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a trace column",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "expansion", "expansion, radius, progress or particles")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a trace as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&traceOut, "out", "o", "", "output file (default stdout)")

	portraitCmd := &cobra.Command{
		Use:   "portrait",
		Short: "breath expansion against its rate",
		RunE:  portrait,
	}
	portraitCmd.Flags().IntVar(&cycles, "cycles", 1, "cycles to trace")
	portraitCmd.Flags().StringVar(&svgOut, "svg", "", "write an SVG to this file")

	svgCmd := &cobra.Command{
		Use:   "export-svg",
		Short: "render one frame as SVG",
		RunE:  exportSVG,
	}
	svgCmd.Flags().Float64Var(&atMs, "at", 0, "session time in milliseconds")
	svgCmd.Flags().StringVarP(&frameOut, "out", "o", "", "output file (default stdout)")

	renderAudioCmd := &cobra.Command{
		Use:   "render-audio",
		Short: "render the session soundtrack to WAV",
		RunE:  renderAudio,
	}
	renderAudioCmd.Flags().Float64("fps", config.DefaultFPS, "frames per simulated second")
	renderAudioCmd.Flags().Float64Var(&wavSeconds, "duration", 30, "seconds to render")
	renderAudioCmd.Flags().StringVarP(&wavOut, "out", "o", "breath.wav", "output file")
	renderAudioCmd.Flags().BoolVar(&withMusic, "music", false, "mix in the selected track")

	noiseCmd := &cobra.Command{
		Use:   "noise",
		Short: "analyse the breath noise source",
		RunE:  analyseNoise,
	}
	noiseCmd.Flags().Float64Var(&noiseSeconds, "duration", audio.NoiseSeconds, "seconds of noise")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list breathing presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPATTERN\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p, _ := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%g-%g-%g-%g\t%s\n", name, p.Inhale, p.HoldFull, p.Exhale, p.HoldEmpty, p.Description)
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration files",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "breathsim.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	})

	rootCmd.AddCommand(tuiCmd, guiCmd, traceCmd, batchCmd, listCmd, plotCmd, exportCmd, portraitCmd, svgCmd, renderAudioCmd, noiseCmd, presetsCmd, configCmd)
	rootCmd.AddCommand(automationCommands()...)
	return rootCmd
}

// loadConfig reads the config file, then applies the preset and any
// flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, fmt.Errorf("%w %q (available: %v)", err, preset, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("audio") {
		cfg.Audio.Enabled, _ = flags.GetBool("audio")
	}
	if flags.Changed("fps") {
		cfg.FPS, _ = flags.GetFloat64("fps")
	}
	if flags.Changed("duration") || cfg.Duration == 0 {
		if v, err := flags.GetFloat64("duration"); err == nil {
			cfg.Duration = v
		}
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Debug("config loaded", zap.String("path", configFile), zap.String("preset", preset), zap.Int64("seed", cfg.Seed))
	return cfg, nil
}

func newEngine(cfg *config.Config) *audio.Engine {
	return audio.New(audio.Options{
		Logger: log,
		Tracks: cfg.TrackSources(),
		Rand:   rand.New(rand.NewSource(cfg.Seed)),
	})
}

// watchConfig starts a watcher on the config file when one is in use.
func watchConfig(ctx context.Context, eg *errgroup.Group) (<-chan *config.Config, error) {
	if configFile == "" || !watch {
		return nil, nil
	}
	w, err := config.NewWatcher(configFile, log)
	if err != nil {
		return nil, err
	}
	eg.Go(func() error { return w.Run(ctx) })
	return w.Updates(), nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	engine := newEngine(cfg)
	defer engine.Close()

	opts := viz.Options{
		Config: cfg,
		Audio:  engine,
		Logger: log,
		Rand:   rand.New(rand.NewSource(cfg.Seed)),
		Preset: preset,
		Paused: paused,
	}
	var prog *tea.Program
	if menu {
		prog = viz.NewProgram(viz.NewApp(opts))
	} else {
		m, err := viz.NewModel(opts)
		if err != nil {
			return err
		}
		prog = viz.NewProgram(m)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)
	updates, err := watchConfig(ctx, eg)
	if err != nil {
		return err
	}
	if updates != nil {
		eg.Go(func() error {
			for c := range updates {
				prog.Send(viz.ConfigMsg{Config: c})
			}
			return nil
		})
	}
	eg.Go(func() error {
		defer cancel()
		_, err := prog.Run()
		return err
	})
	return eg.Wait()
}

// runGUI keeps raylib on the main goroutine; only the watcher runs aside.
func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	engine := newEngine(cfg)
	defer engine.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	eg, ctx := errgroup.WithContext(ctx)
	updates, err := watchConfig(ctx, eg)
	if err != nil {
		cancel()
		return err
	}

	runErr := gui.Run(gui.Options{
		Config:  cfg,
		Audio:   engine,
		Logger:  log,
		Rand:    rand.New(rand.NewSource(cfg.Seed)),
		Preset:  preset,
		Updates: updates,
	})
	cancel()
	if err := eg.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func newHeadless(cfg *config.Config) (*sim.Loop, error) {
	return sim.New(cfg.Settings(), sim.Options{
		Rand:   rand.New(rand.NewSource(cfg.Seed)),
		Logger: log,
		Width:  cfg.Width,
		Height: cfg.Height,
	})
}

func simDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func defaultMetrics() []sim.Metric {
	ms := metrics.Default()
	out := make([]sim.Metric, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}

func runTrace(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	l, err := newHeadless(cfg)
	if err != nil {
		return err
	}
	r := sim.NewRunner()
	for _, m := range defaultMetrics() {
		r.AddMetric(m)
	}
	rec := storage.NewRecorder(every)
	r.AddObserver(rec)

	fmt.Printf("tracing %s for %gs at %g fps...\n", pattern(cfg), cfg.Duration, cfg.FPS)
	start := time.Now()

	result, err := r.Run(cmd.Context(), l, sim.RunConfig{FPS: cfg.FPS, Duration: simDuration(cfg.Duration)})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	meta := storage.RunMetadata{
		Preset:      preset,
		Seed:        cfg.Seed,
		FPS:         cfg.FPS,
		Duration:    cfg.Duration,
		Durations:   cfg.CycleDurations(),
		Frames:      result.Frames,
		Transitions: result.Transitions,
		Cycles:      result.Cycles,
		Metrics:     result.Metrics,
	}
	runID, err := st.Save(meta, rec.Samples())
	if err != nil {
		return err
	}
	meta.ID = runID
	log.Info("trace saved", zap.String("id", runID), zap.Int("frames", result.Frames), zap.Duration("took", elapsed))

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d  transitions: %d  cycles: %d\n", result.Frames, result.Transitions, result.Cycles)
	printMetrics(result.Metrics)

	if jsonOut != "" {
		f, err := os.Create(jsonOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := storage.ExportJSON(f, meta, rec.Samples()); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", jsonOut)
	}
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func pattern(cfg *config.Config) string {
	p := fmt.Sprintf("%g-%g-%g-%g", cfg.Inhale, cfg.HoldFull, cfg.Exhale, cfg.HoldEmpty)
	if preset != "" {
		p = preset + " " + p
	}
	return p
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	names := args
	if len(names) == 0 {
		names = config.ListPresets()
	}

	jobs := make([]sim.Job, 0, len(names))
	for _, name := range names {
		c := cfg.Clone()
		if err := c.ApplyPreset(name); err != nil {
			return fmt.Errorf("%w %q", err, name)
		}
		jobs = append(jobs, sim.Job{Name: name, Settings: c.Settings(), Seed: cfg.Seed})
	}

	b := &sim.Batch{Width: cfg.Width, Height: cfg.Height, Metrics: defaultMetrics}
	start := time.Now()
	results, err := b.Run(cmd.Context(), jobs, sim.RunConfig{FPS: cfg.FPS, Duration: simDuration(cfg.Duration)})
	if err != nil {
		return err
	}
	log.Info("batch finished", zap.Int("jobs", len(jobs)), zap.Duration("took", time.Since(start)))

	var keys []string
	for k := range results[0].Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PRESET\tCYCLES\tTRANSITIONS\t%s\n", strings.ToUpper(strings.Join(keys, "\t")))
	for i, res := range results {
		row := make([]string, len(keys))
		for j, k := range keys {
			row[j] = fmt.Sprintf("%.3f", res.Metrics[k])
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", jobs[i].Name, res.Cycles, res.Transitions, strings.Join(row, "\t"))
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tPRESET\tPATTERN (ms)\tDURATION\tFRAMES\tTIMESTAMP")
	for _, r := range runs {
		d := r.Durations
		fmt.Fprintf(w, "%s\t%s\t%g-%g-%g-%g\t%gs\t%d\t%s\n",
			r.ID, r.Preset, d.Inhale, d.HoldFull, d.Exhale, d.HoldEmpty,
			r.Duration, r.Frames, r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

var columns = map[string]func(storage.Sample) float64{
	"expansion": func(s storage.Sample) float64 { return s.Expansion },
	"radius":    func(s storage.Sample) float64 { return s.Radius },
	"progress":  func(s storage.Sample) float64 { return s.Progress },
	"particles": func(s storage.Sample) float64 { return float64(s.Particles) },
}

func plotRun(cmd *cobra.Command, args []string) error {
	pick, ok := columns[column]
	if !ok {
		return fmt.Errorf("unknown column %q", column)
	}
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("run %s has no samples", meta.ID)
	}

	data := storage.Column(samples, pick)
	graph := asciigraph.Plot(data,
		asciigraph.Height(15),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("%s over %gs", column, meta.Duration)),
	)
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}

	out := os.Stdout
	if traceOut != "" {
		f, err := os.Create(traceOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return storage.ExportJSON(out, *meta, samples)
}

func portrait(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	d := cfg.CycleDurations()
	p, err := analysis.GeneratePortrait(d, 1000/cfg.FPS, d.Length()*float64(max(cycles, 1)))
	if err != nil {
		return err
	}
	fmt.Printf("%s  expansion (x) vs rate per second (y)\n", pattern(cfg))
	fmt.Println(analysis.PortraitToASCII(p, 60, 20))

	if svgOut != "" {
		svg := export.PortraitToSVG(p, 600, 600, cfg.Theme.InhaleColor)
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	l, err := newHeadless(cfg)
	if err != nil {
		return err
	}
	if atMs > 0 {
		r := sim.NewRunner()
		rc := sim.RunConfig{FPS: cfg.FPS, Duration: time.Duration(atMs * float64(time.Millisecond))}
		if _, err := r.Run(cmd.Context(), l, rc); err != nil {
			return err
		}
	}

	svg := export.FrameToSVG(l.LastFrame())
	if frameOut == "" {
		fmt.Print(svg)
		return nil
	}
	return os.WriteFile(frameOut, []byte(svg), 0644)
}
