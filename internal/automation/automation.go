package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/breathsim/internal/config"
	"github.com/san-kum/breathsim/internal/metrics"
	"github.com/san-kum/breathsim/internal/sim"
	"github.com/san-kum/breathsim/internal/storage"
)

var ErrEmptyScenario = errors.New("automation: scenario has no steps")

// Scenario is a scripted sequence of headless sessions.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one session. Nil stage fields keep the preset or base
// configuration value, so an explicit 0 removes a stage. Durations are
// seconds.
type ScenarioStep struct {
	Preset    string   `yaml:"preset"`
	Inhale    *float64 `yaml:"inhale"`
	HoldFull  *float64 `yaml:"hold_full"`
	Exhale    *float64 `yaml:"exhale"`
	HoldEmpty *float64 `yaml:"hold_empty"`
	Counter   string   `yaml:"counter"`
	Duration  float64  `yaml:"duration"`
	FPS       float64  `yaml:"fps"`
	Seed      int64    `yaml:"seed"`
	Every     int      `yaml:"every"`
	Save      bool     `yaml:"save"`
}

// Seconds returns a stage override for a ScenarioStep.
func Seconds(v float64) *float64 { return &v }

// StepResult pairs a step with its run. RunID is set for saved steps.
type StepResult struct {
	Step   ScenarioStep
	RunID  string
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, ErrEmptyScenario
	}
	return &scenario, nil
}

// Apply layers the step over base and validates the result.
func (s ScenarioStep) Apply(base *config.Config) (*config.Config, error) {
	cfg := base.Clone()
	if s.Preset != "" {
		if err := cfg.ApplyPreset(s.Preset); err != nil {
			return nil, fmt.Errorf("%w %q", err, s.Preset)
		}
	}
	for dst, v := range map[*float64]*float64{
		&cfg.Inhale:    s.Inhale,
		&cfg.HoldFull:  s.HoldFull,
		&cfg.Exhale:    s.Exhale,
		&cfg.HoldEmpty: s.HoldEmpty,
	} {
		if v != nil {
			*dst = *v
		}
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.FPS > 0 {
		cfg.FPS = s.FPS
	}
	if s.Counter != "" {
		cfg.Counter = s.Counter
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Runner executes scenarios. Store may be nil when no step saves.
type Runner struct {
	Base  *config.Config
	Store *storage.Store
	Log   *zap.Logger
}

func (r *Runner) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

// RunScenario executes all steps in order. On failure the results of the
// completed steps are returned with the error.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		r.log().Info("scenario step", zap.String("scenario", scenario.Name), zap.Int("step", i+1), zap.String("preset", step.Preset))

		cfg, err := step.Apply(r.Base)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		res, samples, err := runOne(ctx, cfg, step.Every)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Step: step, Result: res}
		if step.Save {
			if r.Store == nil {
				return results, fmt.Errorf("step %d: no store to save to", i+1)
			}
			sr.RunID, err = r.Store.Save(storage.RunMetadata{
				Preset:      step.Preset,
				Seed:        cfg.Seed,
				FPS:         cfg.FPS,
				Duration:    cfg.Duration,
				Durations:   cfg.CycleDurations(),
				Frames:      res.Frames,
				Transitions: res.Transitions,
				Cycles:      res.Cycles,
				Metrics:     res.Metrics,
			}, samples)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

func defaultMetrics() []sim.Metric {
	ms := metrics.Default()
	out := make([]sim.Metric, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}

func runConfig(cfg *config.Config) sim.RunConfig {
	return sim.RunConfig{FPS: cfg.FPS, Duration: time.Duration(cfg.Duration * float64(time.Second))}
}

func newRand(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

func runOne(ctx context.Context, cfg *config.Config, every int) (*sim.Result, []storage.Sample, error) {
	l, err := sim.New(cfg.Settings(), sim.Options{
		Rand:   newRand(cfg.Seed),
		Width:  cfg.Width,
		Height: cfg.Height,
	})
	if err != nil {
		return nil, nil, err
	}
	r := sim.NewRunner()
	for _, m := range defaultMetrics() {
		r.AddMetric(m)
	}
	rec := storage.NewRecorder(max(every, 1))
	r.AddObserver(rec)

	res, err := r.Run(ctx, l, runConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	return res, rec.Samples(), nil
}

// ParameterSweep varies one stage duration across a range.
type ParameterSweep struct {
	// Stage is inhale, hold_full, exhale or hold_empty.
	Stage    string
	Min, Max float64
	NumSteps int
}

// SweepResult holds one sweep point.
type SweepResult struct {
	Value  float64
	Result *sim.Result
}

func stageField(cfg *config.Config, stage string) (*float64, error) {
	switch stage {
	case "inhale":
		return &cfg.Inhale, nil
	case "hold_full":
		return &cfg.HoldFull, nil
	case "exhale":
		return &cfg.Exhale, nil
	case "hold_empty":
		return &cfg.HoldEmpty, nil
	}
	return nil, fmt.Errorf("unknown stage %q", stage)
}

// RunSweep executes the sweep points concurrently with a sim.Batch.
func (r *Runner) RunSweep(ctx context.Context, sweep ParameterSweep) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step")
	}
	step := 0.0
	if sweep.NumSteps > 1 {
		step = (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)
	}

	jobs := make([]sim.Job, 0, sweep.NumSteps)
	values := make([]float64, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		v := sweep.Min + float64(i)*step
		cfg := r.Base.Clone()
		field, err := stageField(cfg, sweep.Stage)
		if err != nil {
			return nil, err
		}
		*field = v
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Stage, v, err)
		}
		jobs = append(jobs, sim.Job{Name: fmt.Sprintf("%s=%g", sweep.Stage, v), Settings: cfg.Settings(), Seed: cfg.Seed})
		values = append(values, v)
	}

	b := &sim.Batch{Width: r.Base.Width, Height: r.Base.Height, Metrics: defaultMetrics}
	res, err := b.Run(ctx, jobs, runConfig(r.Base))
	if err != nil {
		return nil, err
	}
	r.log().Info("sweep finished", zap.String("stage", sweep.Stage), zap.Int("points", len(res)))

	out := make([]SweepResult, len(res))
	for i := range res {
		out[i] = SweepResult{Value: values[i], Result: res[i]}
	}
	return out, nil
}

// MonteCarloConfig repeats the base session with different particle seeds.
type MonteCarloConfig struct {
	NumTrials int
	Seed      int64
}

// MonteCarloResult summarises one metric across trials.
type MonteCarloResult struct {
	Metric string
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// RunMonteCarlo executes NumTrials runs seeded Seed, Seed+1, ... and
// summarises every metric.
func (r *Runner) RunMonteCarlo(ctx context.Context, mc MonteCarloConfig) ([]MonteCarloResult, error) {
	if mc.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial")
	}
	jobs := make([]sim.Job, mc.NumTrials)
	for i := range jobs {
		jobs[i] = sim.Job{Name: fmt.Sprintf("trial-%d", i), Settings: r.Base.Settings(), Seed: mc.Seed + int64(i)}
	}

	b := &sim.Batch{Width: r.Base.Width, Height: r.Base.Height, Metrics: defaultMetrics}
	res, err := b.Run(ctx, jobs, runConfig(r.Base))
	if err != nil {
		return nil, err
	}

	var out []MonteCarloResult
	for _, m := range defaultMetrics() {
		vals := make([]float64, len(res))
		for i, rr := range res {
			vals[i] = rr.Metrics[m.Name()]
		}
		mean, std := stat.MeanStdDev(vals, nil)
		if len(vals) < 2 {
			std = 0
		}
		lo, hi := vals[0], vals[0]
		for _, v := range vals {
			lo, hi = min(lo, v), max(hi, v)
		}
		out = append(out, MonteCarloResult{Metric: m.Name(), Mean: mean, StdDev: std, Min: lo, Max: hi})
	}
	return out, nil
}
