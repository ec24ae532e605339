package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"go.uber.org/zap"

	"github.com/san-kum/breathsim/internal/cycle"
)

// Config is the externally supplied audio configuration. The engine only
// reads it; current signal values live in the graph.
type Config struct {
	Enabled      bool
	MasterVolume float64
	Muted        bool
	TrackVolume  float64
	BreathVolume float64
	PingVolume   float64
	TrackID      string
}

func DefaultConfig() Config {
	return Config{
		MasterVolume: 0.5,
		TrackVolume:  0.7,
		BreathVolume: 1.5,
		PingVolume:   1.0,
	}
}

// Options configure an Engine.
type Options struct {
	Logger *zap.Logger
	// Tracks maps track ids to file paths or http(s) URLs.
	Tracks map[string]string
	Rand   *rand.Rand
	Client *http.Client
	// Sink opens the output device. Nil means OpenPortAudio for New.
	Sink SinkFactory
}

// Stats is a snapshot of engine counters.
type Stats struct {
	PingsPlayed  uint64
	PingsDropped uint64
	Clock        time.Duration
	Track        string
	Available    bool
}

// Engine owns the single audio graph of a breathing session and translates
// stage updates into parameter automation.
type Engine struct {
	log     *zap.Logger
	tracks  map[string]string
	client  *http.Client
	rng     *rand.Rand
	factory SinkFactory

	once  sync.Once
	graph *Graph

	mu          sync.Mutex
	cfg         Config
	applied     bool
	running     bool
	active      bool
	sink        Sink
	unavailable bool

	gen     atomic.Uint64
	dropped atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	loads  sync.WaitGroup
	closed atomic.Bool
}

// New creates an engine that plays through an output device.
func New(opts Options) *Engine {
	if opts.Sink == nil {
		opts.Sink = OpenPortAudio
	}
	return newEngine(opts)
}

// NewOffline creates an engine with no device. Callers pull frames with
// Render while it is resumed.
func NewOffline(opts Options) *Engine {
	opts.Sink = nil
	return newEngine(opts)
}

func newEngine(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		log:     log.Named("audio"),
		tracks:  opts.Tracks,
		client:  client,
		rng:     rng,
		factory: opts.Sink,
		cfg:     DefaultConfig(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Graph returns the engine's graph, building it on first use.
func (e *Engine) Graph() *Graph {
	e.once.Do(func() {
		noise := PinkNoise(e.rng, int(SampleRate), NoiseSeconds)
		e.mu.Lock()
		master := e.masterTarget()
		track := e.cfg.TrackVolume
		e.mu.Unlock()
		e.graph = NewGraph(noise, master, track)
	})
	return e.graph
}

// masterTarget requires e.mu.
func (e *Engine) masterTarget() float64 {
	if e.cfg.Muted {
		return 0
	}
	return e.cfg.MasterVolume
}

// Apply diffs c against the last applied configuration and issues the
// corresponding setter calls.
func (e *Engine) Apply(c Config) error {
	e.Graph()
	e.mu.Lock()
	prev, first := e.cfg, !e.applied
	e.applied = true
	e.mu.Unlock()

	if first || c.MasterVolume != prev.MasterVolume {
		e.SetVolume(c.MasterVolume)
	}
	if first || c.Muted != prev.Muted {
		e.SetMute(c.Muted)
	}
	if first || c.TrackVolume != prev.TrackVolume {
		e.SetTrackVolume(c.TrackVolume)
	}
	if first || c.BreathVolume != prev.BreathVolume {
		e.SetBreathVolume(c.BreathVolume)
	}
	if first || c.PingVolume != prev.PingVolume {
		e.SetPingVolume(c.PingVolume)
	}

	var err error
	if first || c.Enabled != prev.Enabled {
		e.mu.Lock()
		e.cfg.Enabled = c.Enabled
		err = e.syncLocked()
		e.mu.Unlock()
	}
	if c.TrackID != prev.TrackID {
		e.mu.Lock()
		e.cfg.TrackID = c.TrackID
		e.mu.Unlock()
		e.RequestTrack(c.TrackID)
	}
	return err
}

// Config returns the last applied configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

func (e *Engine) SetVolume(v float64) {
	g := e.Graph()
	e.mu.Lock()
	e.cfg.MasterVolume = v
	g.MasterGain.SetTarget(e.masterTarget(), TauVolume)
	e.mu.Unlock()
}

func (e *Engine) SetMute(muted bool) {
	g := e.Graph()
	e.mu.Lock()
	e.cfg.Muted = muted
	g.MasterGain.SetTarget(e.masterTarget(), TauVolume)
	e.mu.Unlock()
}

func (e *Engine) SetTrackVolume(v float64) {
	g := e.Graph()
	e.mu.Lock()
	e.cfg.TrackVolume = v
	g.TrackGain.SetTarget(v, TauVolume)
	e.mu.Unlock()
}

// SetBreathVolume scales the breath swell from the next Update on.
func (e *Engine) SetBreathVolume(v float64) {
	e.mu.Lock()
	e.cfg.BreathVolume = v
	e.mu.Unlock()
}

// SetPingVolume scales cues fired after the call.
func (e *Engine) SetPingVolume(v float64) {
	e.mu.Lock()
	e.cfg.PingVolume = v
	e.mu.Unlock()
}

// Swell returns the breath noise gain and bandpass centre for a stage.
func Swell(stage cycle.Stage, progress, scalar float64) (gain, freq float64) {
	switch stage {
	case cycle.Inhale:
		s := math.Sin(progress * math.Pi / 2)
		return 0.15 * s * s * scalar, 400 + progress*300
	case cycle.Exhale:
		s := math.Sin((1 - progress) * math.Pi / 2)
		return 0.12 * s * s * scalar, 500 - progress*100
	}
	return 0, BreathBaseFreq
}

// Cutoff returns the track lowpass target for a stage.
func Cutoff(stage cycle.Stage) float64 {
	switch stage {
	case cycle.Exhale:
		return CutoffExhale
	case cycle.HoldEmpty:
		return CutoffHoldEmpty
	}
	return CutoffOpen
}

// Update retargets the tone filter and breath swell for the current frame.
func (e *Engine) Update(stage cycle.Stage, progress float64) {
	g := e.Graph()
	e.mu.Lock()
	scalar := e.cfg.BreathVolume
	e.mu.Unlock()

	g.Cutoff.SetTarget(Cutoff(stage), TauTone)
	gain, freq := Swell(stage, progress, scalar)
	g.BreathGain.SetTarget(gain, TauBreath)
	g.BreathFreq.SetTarget(freq, TauBreath)
}

// Ping fires the transition cue for entering stage. Cues are dropped while
// the graph is not running or when the render side is behind.
func (e *Engine) Ping(stage cycle.Stage) {
	g := e.Graph()
	e.mu.Lock()
	active := e.active
	peak := PingGain(stage, e.cfg.PingVolume, e.cfg.MasterVolume)
	e.mu.Unlock()

	if !active || peak <= 0 {
		return
	}
	if !g.enqueue(newPingVoice(PingFrequency(stage), peak)) {
		e.dropped.Add(1)
	}
}

// LoadTrack fetches, decodes and swaps in a track. A load overtaken by a
// newer request returns ErrStaleLoad and leaves the newer track in place.
// Any other failure keeps the previous track playing.
func (e *Engine) LoadTrack(ctx context.Context, id string) error {
	gen := e.gen.Add(1)
	g := e.Graph()

	if id == "" {
		return e.install(gen, id, nil)
	}
	location, ok := e.tracks[id]
	if !ok {
		return &AssetError{TrackID: id, Wrapped: ErrUnknownTrack}
	}

	data, err := fetch(ctx, e.client, location)
	if err != nil {
		return &AssetError{TrackID: id, Wrapped: err}
	}
	if e.gen.Load() != gen {
		return fmt.Errorf("track %q: %w", id, ErrStaleLoad)
	}
	s, err := decode(location, data)
	if err != nil {
		return &AssetError{TrackID: id, Wrapped: err}
	}
	if err := e.install(gen, id, s); err != nil {
		return err
	}
	e.log.Info("track loaded", zap.String("track", id), zap.Duration("clock", g.Clock()))
	return nil
}

func (e *Engine) install(gen uint64, id string, s beep.Streamer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen.Load() != gen {
		return fmt.Errorf("track %q: %w", id, ErrStaleLoad)
	}
	e.graph.SetTrack(id, s)
	return nil
}

// RequestTrack loads id in the background. Close waits for it.
func (e *Engine) RequestTrack(id string) {
	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		return
	}
	e.loads.Add(1)
	e.mu.Unlock()
	go func() {
		defer e.loads.Done()
		err := e.LoadTrack(e.ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, ErrStaleLoad):
			e.log.Debug("discarded stale track load", zap.String("track", id))
		default:
			e.log.Warn("track load failed", zap.String("track", id), zap.Error(err))
		}
	}()
}

// Resume starts the graph clock. Without an output device the engine stays
// silent and returns ErrAudioUnavailable; visuals are unaffected.
func (e *Engine) Resume() error {
	e.Graph()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = true
	return e.syncLocked()
}

// Suspend freezes the graph clock.
func (e *Engine) Suspend() error {
	e.Graph()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	return e.syncLocked()
}

// syncLocked starts or stops the time source to match running && enabled.
// The graph must already exist.
func (e *Engine) syncLocked() error {
	g := e.graph

	want := e.running && e.cfg.Enabled && !e.closed.Load()
	if want == e.active {
		return nil
	}

	if !want {
		e.active = false
		if e.sink != nil {
			if err := e.sink.Stop(); err != nil {
				e.log.Warn("stopping output", zap.Error(err))
			}
			return nil
		}
		g.Suspend()
		return nil
	}

	if e.factory == nil {
		g.Resume()
		e.active = true
		return nil
	}
	if e.unavailable {
		return ErrAudioUnavailable
	}
	if e.sink == nil {
		sink, err := e.factory(g)
		if err != nil {
			e.unavailable = true
			e.log.Warn("audio output unavailable, continuing silent", zap.Error(err))
			if !errors.Is(err, ErrAudioUnavailable) {
				err = fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
			}
			return err
		}
		e.sink = sink
	}
	if err := e.sink.Start(); err != nil {
		e.log.Warn("starting output", zap.Error(err))
		return err
	}
	e.active = true
	return nil
}

// Render pulls frames from the graph. Offline engines only.
func (e *Engine) Render(out [][2]float64) {
	e.Graph().Render(out)
}

// Stats reports cue counters and the graph clock.
func (e *Engine) Stats() Stats {
	g := e.Graph()
	e.mu.Lock()
	available := !e.unavailable
	e.mu.Unlock()
	return Stats{
		PingsPlayed:  g.PingsStarted(),
		PingsDropped: e.dropped.Load() + g.PingsDiscarded(),
		Clock:        g.Clock(),
		Track:        g.TrackID(),
		Available:    available,
	}
}

// Close cancels pending loads, waits for them and releases the device.
func (e *Engine) Close() error {
	e.Graph()
	e.mu.Lock()
	if !e.closed.CompareAndSwap(false, true) {
		e.mu.Unlock()
		return ErrClosed
	}
	e.mu.Unlock()
	e.cancel()
	e.loads.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	err := e.syncLocked()
	if e.sink != nil {
		if cerr := e.sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
		e.sink = nil
	}
	return err
}
