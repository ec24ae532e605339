package sim

import (
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/breathsim/internal/cycle"
	"github.com/san-kum/breathsim/internal/particles"
	"github.com/san-kum/breathsim/internal/render"
)

// Options wire a Loop to its host.
type Options struct {
	Scheduler FrameScheduler
	Clock     Clock
	Audio     AudioDriver
	Surface   render.Surface
	Rand      *rand.Rand
	Logger    *zap.Logger
	Width     float64
	Height    float64
}

// Loop drives the breathing pipeline one frame at a time: cycle state,
// particles, audio, then drawing. It is single threaded; hosts call its
// methods from the goroutine that pumps the scheduler.
type Loop struct {
	sched   FrameScheduler
	clock   Clock
	audio   AudioDriver
	surface render.Surface
	log     *zap.Logger

	field     *particles.Field
	coord     *render.Coordinator
	observers []Observer

	settings      Settings
	width, height float64

	running     bool
	handle      FrameHandle
	lastTick    time.Time
	elapsed     float64
	prevStage   cycle.Stage
	havePrev    bool
	transitions int
	frames      int
	lastFrame   render.Frame
	degenerate  bool
}

// New creates a stopped loop and draws its first frame.
func New(s Settings, opts Options) (*Loop, error) {
	if err := validate(s); err != nil {
		return nil, err
	}
	coord, err := render.NewCoordinator(s.Theme)
	if err != nil {
		return nil, err
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewPumpScheduler()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	l := &Loop{
		sched:    opts.Scheduler,
		clock:    opts.Clock,
		audio:    opts.Audio,
		surface:  opts.Surface,
		log:      opts.Logger.Named("loop"),
		field:    particles.New(opts.Rand),
		coord:    coord,
		settings: s,
		width:    opts.Width,
		height:   opts.Height,
	}
	l.redraw()
	return l, nil
}

func validate(s Settings) error {
	for _, st := range cycle.Stages {
		if s.Durations.Of(st) < 0 {
			return cycle.ErrNegativeDuration
		}
	}
	return nil
}

func (l *Loop) AddObserver(o Observer) { l.observers = append(l.observers, o) }

func (l *Loop) Running() bool           { return l.running }
func (l *Loop) Elapsed() float64        { return l.elapsed }
func (l *Loop) LastFrame() render.Frame { return l.lastFrame }
func (l *Loop) Settings() Settings      { return l.settings }
func (l *Loop) Transitions() int        { return l.transitions }
func (l *Loop) Frames() int             { return l.frames }

// Particles returns a copy of the live particles.
func (l *Loop) Particles() []particles.Particle { return l.field.Snapshot() }

// Start begins ticking from the clock's current time.
func (l *Loop) Start() { l.StartAt(l.clock.Now()) }

// StartAt begins ticking with now as the previous tick time.
func (l *Loop) StartAt(now time.Time) {
	if l.running {
		return
	}
	l.running = true
	l.lastTick = now
	l.havePrev = false
	if l.audio != nil {
		if err := l.audio.Resume(); err != nil {
			l.log.Debug("audio not resumed", zap.Error(err))
		}
	}
	l.handle = l.sched.RequestFrame(l.tick)
	l.log.Debug("started", zap.Float64("elapsed_ms", l.elapsed))
}

// Stop cancels the pending frame, suspends audio and redraws once with the
// frozen elapsed time.
func (l *Loop) Stop() {
	if !l.running {
		return
	}
	l.running = false
	l.sched.CancelFrame(l.handle)
	if l.audio != nil {
		if err := l.audio.Suspend(); err != nil {
			l.log.Debug("audio not suspended", zap.Error(err))
		}
	}
	l.redraw()
	l.log.Debug("stopped", zap.Float64("elapsed_ms", l.elapsed))
}

// Toggle flips between running and stopped.
func (l *Loop) Toggle() {
	if l.running {
		l.Stop()
	} else {
		l.Start()
	}
}

// SetConfig replaces the settings. A stopped loop redraws immediately.
func (l *Loop) SetConfig(s Settings) error {
	if err := validate(s); err != nil {
		return err
	}
	if err := l.coord.SetTheme(s.Theme); err != nil {
		return err
	}
	l.settings = s
	l.degenerate = false
	if !l.running {
		l.redraw()
	}
	return nil
}

// Resize changes the surface size. A stopped loop redraws immediately.
func (l *Loop) Resize(width, height float64) {
	l.width, l.height = width, height
	if !l.running {
		l.redraw()
	}
}

// Restart rewinds to the start of the cycle and clears the particles.
func (l *Loop) Restart() {
	l.elapsed = 0
	l.field.Reset()
	l.havePrev = false
	l.coord.Invalidate()
	if !l.running {
		l.redraw()
	}
}

func (l *Loop) tick(now time.Time) {
	if !l.running {
		return
	}
	delta := float64(now.Sub(l.lastTick)) / float64(time.Millisecond)
	if delta < 0 {
		delta = 0
	}
	l.lastTick = now
	l.elapsed += delta

	st := l.compute()
	l.field.Tick(st.Stage, l.minDim(), l.settings.Particles)

	if l.havePrev && st.Stage != l.prevStage {
		l.transitions++
		if l.audio != nil {
			l.audio.Ping(st.Stage)
		}
	}
	l.prevStage, l.havePrev = st.Stage, true

	if l.audio != nil {
		l.audio.Update(st.Stage, st.Progress)
	}

	f := l.draw(st)
	l.frames++
	for _, o := range l.observers {
		o.OnFrame(f)
	}

	l.handle = l.sched.RequestFrame(l.tick)
}

func (l *Loop) redraw() {
	l.draw(l.compute())
}

func (l *Loop) compute() cycle.State {
	st, err := cycle.Compute(l.elapsed, l.settings.Durations)
	if err != nil {
		if !l.degenerate {
			l.log.Warn("degenerate cycle, holding", zap.Error(err))
			l.degenerate = true
		}
		return cycle.Fallback()
	}
	return st
}

func (l *Loop) draw(st cycle.State) render.Frame {
	f := l.coord.Render(render.Input{
		Width:        l.width,
		Height:       l.height,
		State:        st,
		Durations:    l.settings.Durations,
		Elapsed:      l.elapsed,
		Mode:         l.settings.Mode,
		Particles:    l.field.Snapshot(),
		ParticleSize: l.settings.Particles.Size,
	})
	l.lastFrame = f
	if l.surface != nil {
		l.surface.Draw(f)
	}
	return f
}

func (l *Loop) minDim() float64 { return math.Min(l.width, l.height) }
