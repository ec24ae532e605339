package sim

import (
	"errors"
	"time"

	"github.com/san-kum/breathsim/internal/cycle"
	"github.com/san-kum/breathsim/internal/particles"
	"github.com/san-kum/breathsim/internal/render"
)

var (
	ErrNotHeadless = errors.New("sim: loop is not driven by a pump scheduler")
	ErrRunning     = errors.New("sim: loop already running")
)

// FrameHandle identifies a pending frame request.
type FrameHandle uint64

// FrameScheduler is the host's "next frame" primitive.
type FrameScheduler interface {
	RequestFrame(fn func(now time.Time)) FrameHandle
	CancelFrame(h FrameHandle)
}

// Clock supplies the current time when the loop starts.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// AudioDriver is the loop's view of the audio engine.
type AudioDriver interface {
	Update(stage cycle.Stage, progress float64)
	Ping(stage cycle.Stage)
	Resume() error
	Suspend() error
}

// Observer sees every ticked frame. Redraws while stopped are not observed.
type Observer interface {
	OnFrame(f render.Frame)
}

type ObserverFunc func(f render.Frame)

func (fn ObserverFunc) OnFrame(f render.Frame) { fn(f) }

// Metric summarises a run.
type Metric interface {
	Name() string
	Observe(f render.Frame)
	Value() float64
	Reset()
}

// Settings is the visual configuration the loop reads every tick.
type Settings struct {
	Durations cycle.Durations
	Particles particles.Config
	Theme     render.Theme
	Mode      cycle.CounterMode
}

func DefaultSettings() Settings {
	return Settings{
		Durations: cycle.Durations{Inhale: 4000, HoldFull: 4000, Exhale: 4000, HoldEmpty: 4000},
		Particles: particles.DefaultConfig(),
		Theme:     render.DefaultTheme(),
		Mode:      cycle.CounterTimer,
	}
}

// RunConfig controls a headless run.
type RunConfig struct {
	FPS      float64
	Duration time.Duration
}

// Result summarises a headless run.
type Result struct {
	Frames      int
	Elapsed     float64
	Transitions int
	Cycles      int
	Metrics     map[string]float64
}
