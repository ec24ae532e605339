package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/breathsim/internal/render"
)

// Runner drives a loop headlessly at a fixed frame rate with synthetic
// time, feeding every frame to its metrics and observers.
type Runner struct {
	metrics   []Metric
	observers []Observer
}

func NewRunner() *Runner {
	return &Runner{
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Run starts l, fires cfg.FPS frames per simulated second for cfg.Duration
// and stops it. l must be built on a PumpScheduler. On cancellation the
// partial result is returned with the context error.
func (r *Runner) Run(ctx context.Context, l *Loop, cfg RunConfig) (*Result, error) {
	if err := validateRun(cfg); err != nil {
		return nil, err
	}
	pump, ok := l.sched.(*PumpScheduler)
	if !ok {
		return nil, ErrNotHeadless
	}
	if l.running {
		return nil, ErrRunning
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	steps := int(cfg.Duration.Seconds() * cfg.FPS)
	dt := time.Duration(float64(time.Second) / cfg.FPS)
	result := &Result{Metrics: make(map[string]float64)}

	n := len(l.observers)
	l.AddObserver(ObserverFunc(func(f render.Frame) {
		for _, m := range r.metrics {
			m.Observe(f)
		}
		for _, o := range r.observers {
			o.OnFrame(f)
		}
	}))
	defer func() { l.observers = l.observers[:n] }()

	framesBefore, transitionsBefore := l.frames, l.transitions
	t0 := time.Unix(0, 0)
	l.StartAt(t0)

	var err error
	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
		default:
		}
		if err != nil {
			break
		}
		pump.Fire(t0.Add(time.Duration(i) * dt))
	}
	l.Stop()

	result.Frames = l.frames - framesBefore
	result.Transitions = l.transitions - transitionsBefore
	result.Elapsed = l.elapsed
	if length := l.settings.Durations.Length(); length > 0 {
		result.Cycles = int(math.Floor(l.elapsed / length))
	}
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, err
}

func validateRun(cfg RunConfig) error {
	if cfg.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %f", cfg.FPS)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", cfg.Duration)
	}
	return nil
}
