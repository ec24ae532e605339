package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/breathsim/internal/automation"
	"github.com/san-kum/breathsim/internal/config"
	"github.com/san-kum/breathsim/internal/storage"
)

var (
	sweepStage string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	trials     int
)

func automationCommands() []*cobra.Command {
	scriptCmd := &cobra.Command{
		Use:   "script [scenario.yaml]",
		Short: "run a scripted sequence of sessions",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one stage duration",
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepStage, "stage", "exhale", "inhale, hold_full, exhale or hold_empty")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 2, "first value in seconds")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 8, "last value in seconds")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 7, "number of points")
	sweepCmd.Flags().Float64("duration", config.DefaultSeconds, "seconds to simulate")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "repeat a session across particle seeds",
		RunE:  runMonteCarlo,
	}
	mcCmd.Flags().IntVar(&trials, "trials", 16, "number of trials")
	mcCmd.Flags().Float64("duration", config.DefaultSeconds, "seconds to simulate")

	return []*cobra.Command{scriptCmd, sweepCmd, mcCmd}
}

func runScript(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	r := &automation.Runner{Base: cfg, Store: st, Log: log}
	fmt.Printf("running scenario %s (%d steps)\n", sc.Name, len(sc.Steps))
	results, err := r.RunScenario(cmd.Context(), sc)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tPRESET\tFRAMES\tCYCLES\tRUN ID")
	for i, res := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", i+1, res.Step.Preset, res.Result.Frames, res.Result.Cycles, res.RunID)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	r := &automation.Runner{Base: cfg, Log: log}
	res, err := r.RunSweep(cmd.Context(), automation.ParameterSweep{
		Stage:    sweepStage,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tCYCLES\tSHARE\tEXPANSION\tDENSITY\n", sweepStage)
	for _, p := range res {
		m := p.Result.Metrics
		fmt.Fprintf(w, "%g\t%d\t%.3f\t%.3f\t%.1f\n", p.Value, p.Result.Cycles, m["share_"+stageKey(sweepStage)], m["expansion"], m["particle_density"])
	}
	return w.Flush()
}

// stageKey maps config field names to stage names.
func stageKey(field string) string {
	switch field {
	case "hold_full":
		return "holdFull"
	case "hold_empty":
		return "holdEmpty"
	}
	return field
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	r := &automation.Runner{Base: cfg, Log: log}
	res, err := r.RunMonteCarlo(cmd.Context(), automation.MonteCarloConfig{NumTrials: trials, Seed: cfg.Seed})
	if err != nil {
		return err
	}

	fmt.Printf("%d trials of %s, seeds from %d\n\n", trials, pattern(cfg), cfg.Seed)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV\tMIN\tMAX")
	for _, m := range res {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\n", m.Metric, m.Mean, m.StdDev, m.Min, m.Max)
	}
	return w.Flush()
}
