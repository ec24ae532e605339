package audio

import (
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
)

const (
	SampleRate      = beep.SampleRate(44100)
	FramesPerBuffer = 1024

	pingQueueSize = 16
)

// Resting values of the graph parameters.
const (
	CutoffOpen      = 20000.0
	CutoffExhale    = 8000.0
	CutoffHoldEmpty = 6000.0
	BreathBaseFreq  = 400.0
)

// gainNode multiplies its source by a per-sample parameter.
type gainNode struct {
	src  beep.Streamer
	gain *Param
}

func (g *gainNode) Stream(samples [][2]float64) (int, bool) {
	fill(g.src, samples)
	for i := range samples {
		v := g.gain.Next()
		samples[i][0] *= v
		samples[i][1] *= v
	}
	return len(samples), true
}

func (g *gainNode) Err() error { return nil }

// filterNode runs a biquad whose centre follows freq, refreshed once per Quantum.
type filterNode struct {
	src   beep.Streamer
	freq  *Param
	bq    *biquad
	phase int
}

func (f *filterNode) Stream(samples [][2]float64) (int, bool) {
	fill(f.src, samples)
	for i := range samples {
		if f.phase == 0 {
			f.bq.set(f.freq.Advance(Quantum))
		}
		f.phase = (f.phase + 1) % Quantum
		samples[i][0] = f.bq.process(0, samples[i][0])
		samples[i][1] = f.bq.process(1, samples[i][1])
	}
	return len(samples), true
}

func (f *filterNode) Err() error { return nil }

// sustain keeps a finite source in the mix by padding it with silence.
type sustain struct{ src beep.Streamer }

func (s sustain) Stream(samples [][2]float64) (int, bool) {
	fill(s.src, samples)
	return len(samples), true
}

func (s sustain) Err() error { return nil }

type trackEntry struct {
	id string
	s  beep.Streamer
}

// trackSlot plays whichever track was last swapped in.
type trackSlot struct {
	next atomic.Pointer[trackEntry]
	cur  *trackEntry
}

func (t *trackSlot) Stream(samples [][2]float64) (int, bool) {
	if e := t.next.Load(); e != t.cur {
		t.cur = e
	}
	if t.cur == nil || t.cur.s == nil {
		clear(samples)
		return len(samples), true
	}
	fill(t.cur.s, samples)
	return len(samples), true
}

func (t *trackSlot) Err() error { return nil }

// fill streams src into samples and zeroes whatever it did not produce.
func fill(src beep.Streamer, samples [][2]float64) {
	n, _ := src.Stream(samples)
	if n < 0 {
		n = 0
	}
	clear(samples[n:])
}

// Graph is the audio processing graph:
//
//	track  -> lowpass  -> trackGain  \
//	noise  -> bandpass -> breathGain  +-> mix -> masterGain
//	pings  ---------------------------/
//
// Render is called from the output callback; everything else only writes
// parameter targets or queues voices.
type Graph struct {
	rate int

	MasterGain *Param
	TrackGain  *Param
	BreathGain *Param
	Cutoff     *Param
	BreathFreq *Param

	track  *trackSlot
	pings  *beep.Mixer
	master beep.Streamer
	queue  chan *pingVoice

	frames    atomic.Uint64
	suspended atomic.Bool
	started   atomic.Uint64
	discarded atomic.Uint64
}

// NewGraph builds a suspended graph over the given breath noise buffer.
func NewGraph(noise []float64, master, track float64) *Graph {
	rate := int(SampleRate)
	g := &Graph{
		rate:       rate,
		MasterGain: NewParam(rate, master),
		TrackGain:  NewParam(rate, track),
		BreathGain: NewParam(rate, 0),
		Cutoff:     NewParam(rate, CutoffOpen),
		BreathFreq: NewParam(rate, BreathBaseFreq),
		track:      &trackSlot{},
		pings:      &beep.Mixer{},
		queue:      make(chan *pingVoice, pingQueueSize),
	}
	g.suspended.Store(true)

	trackBranch := &gainNode{
		src: &filterNode{
			src:  g.track,
			freq: g.Cutoff,
			bq:   newBiquad(lowpass, QLowpass, rate, CutoffOpen),
		},
		gain: g.TrackGain,
	}
	breathBranch := &gainNode{
		src: &filterNode{
			src:  &noiseLoop{buf: noise},
			freq: g.BreathFreq,
			bq:   newBiquad(bandpass, QBandpass, rate, BreathBaseFreq),
		},
		gain: g.BreathGain,
	}

	mix := &beep.Mixer{}
	mix.Add(trackBranch, breathBranch, sustain{g.pings})
	g.master = &gainNode{src: mix, gain: g.MasterGain}
	return g
}

// Render fills out with the next frames. While suspended it writes silence
// and the clock stands still.
func (g *Graph) Render(out [][2]float64) {
	if g.suspended.Load() {
		clear(out)
		return
	}
	g.drainPings()
	fill(g.master, out)
	g.frames.Add(uint64(len(out)))
}

// Stream lets the graph feed beep consumers such as wav.Encode.
func (g *Graph) Stream(samples [][2]float64) (int, bool) {
	g.Render(samples)
	return len(samples), true
}

func (g *Graph) Err() error { return nil }

func (g *Graph) drainPings() {
	for {
		select {
		case v := <-g.queue:
			g.pings.Add(v)
			g.started.Add(1)
		default:
			return
		}
	}
}

// enqueue hands a voice to the render side without blocking.
func (g *Graph) enqueue(v *pingVoice) bool {
	select {
	case g.queue <- v:
		return true
	default:
		return false
	}
}

// SetTrack swaps the playing track. A nil streamer silences the slot.
func (g *Graph) SetTrack(id string, s beep.Streamer) {
	g.track.next.Store(&trackEntry{id: id, s: s})
}

// TrackID returns the id of the most recently swapped in track.
func (g *Graph) TrackID() string {
	if e := g.track.next.Load(); e != nil {
		return e.id
	}
	return ""
}

// Suspend stops the clock and discards voices that have not reached the
// ping bus yet. Their transition is over by the time the graph runs again.
func (g *Graph) Suspend() {
	g.suspended.Store(true)
	for {
		select {
		case <-g.queue:
			g.discarded.Add(1)
		default:
			return
		}
	}
}

func (g *Graph) Resume() { g.suspended.Store(false) }

func (g *Graph) Suspended() bool { return g.suspended.Load() }

// Frames is the graph clock in frames rendered while running.
func (g *Graph) Frames() uint64 { return g.frames.Load() }

// Clock is the graph clock as a duration.
func (g *Graph) Clock() time.Duration {
	return SampleRate.D(int(g.frames.Load()))
}

// ActivePings is the number of voices on the ping bus. Render side only.
func (g *Graph) ActivePings() int { return g.pings.Len() }

// PingsStarted counts voices moved from the queue onto the ping bus.
func (g *Graph) PingsStarted() uint64 { return g.started.Load() }

// PingsDiscarded counts queued voices thrown away by Suspend.
func (g *Graph) PingsDiscarded() uint64 { return g.discarded.Load() }
