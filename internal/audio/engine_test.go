package audio

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"go.uber.org/goleak"

	"github.com/san-kum/breathsim/internal/cycle"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func enabledConfig() Config {
	c := DefaultConfig()
	c.Enabled = true
	return c
}

func newOffline(t *testing.T, tracks map[string]string) *Engine {
	t.Helper()
	e := NewOffline(Options{Tracks: tracks, Rand: rand.New(rand.NewSource(1))})
	if err := e.Apply(enabledConfig()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := e.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func render(e *Engine, frames int) [][2]float64 {
	out := make([][2]float64, frames)
	for i := 0; i < frames; i += FramesPerBuffer {
		end := min(i+FramesPerBuffer, frames)
		e.Render(out[i:end])
	}
	return out
}

func peak(buf [][2]float64) float64 {
	m := 0.0
	for _, f := range buf {
		m = math.Max(m, math.Max(math.Abs(f[0]), math.Abs(f[1])))
	}
	return m
}

// writeTone encodes a short stereo sine as WAV at the given rate.
func writeTone(t *testing.T, path string, rate beep.SampleRate) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	pos := 0
	tone := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := 0.5 * math.Sin(2*math.Pi*220*float64(pos)/float64(rate))
			samples[i][0], samples[i][1] = v, v
			pos++
		}
		return len(samples), true
	})
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, beep.Take(rate.N(500*time.Millisecond), tone), format); err != nil {
		t.Fatal(err)
	}
}

func TestSuspendFreezesClock(t *testing.T) {
	e := newOffline(t, nil)
	e.Update(cycle.Inhale, 0.8)

	render(e, 4096)
	before := e.Stats().Clock
	if before != SampleRate.D(4096) {
		t.Fatalf("expected clock %v, got %v", SampleRate.D(4096), before)
	}

	if err := e.Suspend(); err != nil {
		t.Fatal(err)
	}
	out := render(e, 4096)
	if e.Stats().Clock != before {
		t.Errorf("clock advanced while suspended: %v", e.Stats().Clock)
	}
	if peak(out) != 0 {
		t.Error("expected silence while suspended")
	}

	if err := e.Resume(); err != nil {
		t.Fatal(err)
	}
	render(e, 1024)
	if e.Stats().Clock != SampleRate.D(5120) {
		t.Errorf("expected clock to resume from %v, got %v", before, e.Stats().Clock)
	}
}

func TestDisabledEngineStaysSuspended(t *testing.T) {
	e := NewOffline(Options{})
	defer e.Close()

	if err := e.Resume(); err != nil {
		t.Fatal(err)
	}
	render(e, 1024)
	if e.Stats().Clock != 0 {
		t.Error("disabled engine should not run its clock")
	}

	if err := e.Apply(enabledConfig()); err != nil {
		t.Fatal(err)
	}
	render(e, 1024)
	if e.Stats().Clock == 0 {
		t.Error("enabling a resumed engine should start the clock")
	}
}

func TestPingTeardown(t *testing.T) {
	e := newOffline(t, nil)
	g := e.Graph()

	e.Ping(cycle.Inhale)
	out := render(e, SampleRate.N(PingAttack))
	if g.ActivePings() != 1 {
		t.Fatalf("expected 1 active ping, got %d", g.ActivePings())
	}
	if peak(out) == 0 {
		t.Error("expected the cue to be audible")
	}

	render(e, SampleRate.N(PingDecay)+FramesPerBuffer)
	if g.ActivePings() != 0 {
		t.Errorf("expected finished ping to be removed, %d left", g.ActivePings())
	}
	if s := e.Stats(); s.PingsPlayed != 1 || s.PingsDropped != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestPingQueueDropsWhenFull(t *testing.T) {
	e := newOffline(t, nil)
	for i := 0; i < pingQueueSize+4; i++ {
		e.Ping(cycle.Exhale)
	}
	if d := e.Stats().PingsDropped; d != 4 {
		t.Errorf("expected 4 dropped, got %d", d)
	}
	render(e, 128)
	if p := e.Stats().PingsPlayed; p != pingQueueSize {
		t.Errorf("expected %d played, got %d", pingQueueSize, p)
	}
}

func TestPingIgnoredWhileSuspended(t *testing.T) {
	e := newOffline(t, nil)
	e.Suspend()
	e.Ping(cycle.HoldFull)
	e.Resume()
	render(e, 128)
	if e.Stats().PingsPlayed != 0 {
		t.Error("cues fired while suspended should not play later")
	}
}

func TestQueuedPingDiscardedOnSuspend(t *testing.T) {
	e := newOffline(t, nil)
	e.Ping(cycle.Exhale)
	if err := e.Suspend(); err != nil {
		t.Fatal(err)
	}
	if err := e.Resume(); err != nil {
		t.Fatal(err)
	}

	out := render(e, SampleRate.N(PingAttack))
	if peak(out) != 0 || e.Graph().ActivePings() != 0 {
		t.Error("a cue queued before the pause should not sound after resume")
	}
	if s := e.Stats(); s.PingsPlayed != 0 || s.PingsDropped != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestPingShape(t *testing.T) {
	if PingFrequency(cycle.Inhale) != 880 || PingFrequency(cycle.Exhale) != 330 ||
		PingFrequency(cycle.HoldFull) != 554 || PingFrequency(cycle.HoldEmpty) != 554 ||
		PingFrequency(cycle.Stage(9)) != 440 {
		t.Error("unexpected cue frequencies")
	}
	if g := PingGain(cycle.Exhale, 1, 0.5); math.Abs(g-0.3) > 1e-12 {
		t.Errorf("expected doubled exhale peak 0.3, got %f", g)
	}
	if g := PingGain(cycle.Inhale, 0.5, 1); math.Abs(g-0.15) > 1e-12 {
		t.Errorf("expected peak 0.15, got %f", g)
	}

	v := newPingVoice(440, 0.3)
	if v.envelope(0) != 0 {
		t.Error("attack should start from silence")
	}
	if math.Abs(v.envelope(v.attack)-0.3) > 1e-9 {
		t.Errorf("expected peak at end of attack, got %f", v.envelope(v.attack))
	}
	if math.Abs(v.envelope(v.length)-PingFloor) > 1e-9 {
		t.Errorf("expected decay to %.3f, got %f", PingFloor, v.envelope(v.length))
	}
}

func TestUpdateTargets(t *testing.T) {
	e := newOffline(t, nil)
	g := e.Graph()

	e.Update(cycle.Inhale, 1)
	if got := g.BreathGain.Target(); math.Abs(got-0.15*1.5) > 1e-12 {
		t.Errorf("expected inhale swell %.3f, got %.3f", 0.15*1.5, got)
	}
	if got := g.BreathFreq.Target(); got != 700 {
		t.Errorf("expected 700 Hz, got %.1f", got)
	}
	if g.Cutoff.Target() != CutoffOpen {
		t.Errorf("expected open cutoff, got %.0f", g.Cutoff.Target())
	}

	e.Update(cycle.Exhale, 0)
	if math.Abs(g.BreathGain.Target()-0.12*1.5) > 1e-12 || g.BreathFreq.Target() != 500 {
		t.Errorf("unexpected exhale targets %.3f %.1f", g.BreathGain.Target(), g.BreathFreq.Target())
	}
	if g.Cutoff.Target() != CutoffExhale {
		t.Errorf("expected exhale cutoff, got %.0f", g.Cutoff.Target())
	}

	e.Update(cycle.HoldEmpty, 0.5)
	if g.BreathGain.Target() != 0 || g.Cutoff.Target() != CutoffHoldEmpty {
		t.Errorf("unexpected hold targets %.3f %.0f", g.BreathGain.Target(), g.Cutoff.Target())
	}

	e.SetBreathVolume(0)
	e.Update(cycle.Inhale, 0.5)
	if g.BreathGain.Target() != 0 {
		t.Error("breath scalar should scale the swell")
	}
}

func TestMuteRampIsContinuous(t *testing.T) {
	e := newOffline(t, nil)
	g := e.Graph()

	e.SetMute(true)
	maxStep := 0.5 * (1 - math.Exp(-1/(TauVolume*float64(SampleRate))))
	prev := g.MasterGain.Value()
	frame := make([][2]float64, 1)
	for i := 0; i < SampleRate.N(500*time.Millisecond); i++ {
		e.Render(frame)
		v := g.MasterGain.Value()
		if math.Abs(v-prev) > maxStep+1e-12 {
			t.Fatalf("frame %d: gain jumped by %.6f", i, math.Abs(v-prev))
		}
		prev = v
	}
	if prev > 0.5*math.Exp(-4) {
		t.Errorf("expected gain near 0 after 5 tau, got %.4f", prev)
	}

	e.SetMute(false)
	e.SetVolume(0.8)
	if g.MasterGain.Target() != 0.8 {
		t.Errorf("expected target 0.8, got %f", g.MasterGain.Target())
	}
}

func TestLoadTrackResamples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	writeTone(t, path, 22050)

	e := newOffline(t, map[string]string{"tone": path})
	if err := e.LoadTrack(context.Background(), "tone"); err != nil {
		t.Fatal(err)
	}
	if e.Stats().Track != "tone" {
		t.Errorf("expected tone to be playing, got %q", e.Stats().Track)
	}
	if p := peak(render(e, 8192)); p < 0.01 {
		t.Errorf("expected track output, peak %.4f", p)
	}
}

func TestDecodeFailureKeepsPreviousTrack(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.wav")
	writeTone(t, good, 44100)
	bad := filepath.Join(dir, "bad.wav")
	if err := os.WriteFile(bad, []byte("definitely not riff"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := newOffline(t, map[string]string{"good": good, "bad": bad, "odd": filepath.Join(dir, "x.ogg")})
	if err := e.LoadTrack(context.Background(), "good"); err != nil {
		t.Fatal(err)
	}

	err := e.LoadTrack(context.Background(), "bad")
	if !errors.Is(err, ErrAssetDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	var ae *AssetError
	if !errors.As(err, &ae) || ae.TrackID != "bad" {
		t.Errorf("expected AssetError for bad, got %v", err)
	}
	if e.Stats().Track != "good" {
		t.Errorf("previous track should keep playing, got %q", e.Stats().Track)
	}

	if err := e.LoadTrack(context.Background(), "missing"); !errors.Is(err, ErrUnknownTrack) {
		t.Errorf("expected unknown track, got %v", err)
	}
	if err := e.LoadTrack(context.Background(), "odd"); !errors.Is(err, ErrAssetFetch) {
		t.Errorf("expected fetch error, got %v", err)
	}
}

func TestStaleLoadDiscarded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	writeTone(t, path, 44100)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow.wav" {
			once.Do(func() { close(entered) })
			<-release
		}
		w.Write(data)
	}))
	defer srv.Close()

	e := NewOffline(Options{
		Client: srv.Client(),
		Tracks: map[string]string{"slow": srv.URL + "/slow.wav", "fast": srv.URL + "/fast.wav"},
	})
	defer e.Close()

	errc := make(chan error, 1)
	go func() { errc <- e.LoadTrack(context.Background(), "slow") }()
	<-entered

	if err := e.LoadTrack(context.Background(), "fast"); err != nil {
		t.Fatal(err)
	}
	close(release)

	if err := <-errc; !errors.Is(err, ErrStaleLoad) {
		t.Errorf("expected stale load, got %v", err)
	}
	if e.Stats().Track != "fast" {
		t.Errorf("newer track should win, got %q", e.Stats().Track)
	}
}

func TestApplyRequestsTrack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	writeTone(t, path, 44100)

	e := NewOffline(Options{Tracks: map[string]string{"tone": path}})
	c := enabledConfig()
	c.TrackID = "tone"
	if err := e.Apply(c); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if e.Stats().Track != "tone" {
		t.Errorf("expected background load to finish before close, got %q", e.Stats().Track)
	}
	if !errors.Is(e.Close(), ErrClosed) {
		t.Error("second close should report ErrClosed")
	}
}

type fakeSink struct {
	g                     *Graph
	starts, stops, closes int
}

func (s *fakeSink) Start() error { s.starts++; s.g.Resume(); return nil }
func (s *fakeSink) Stop() error  { s.stops++; s.g.Suspend(); return nil }
func (s *fakeSink) Close() error { s.closes++; return nil }

func TestSinkLifecycle(t *testing.T) {
	var sink *fakeSink
	e := New(Options{Sink: func(g *Graph) (Sink, error) {
		sink = &fakeSink{g: g}
		return sink, nil
	}})

	e.Apply(enabledConfig())
	if err := e.Resume(); err != nil {
		t.Fatal(err)
	}
	if sink == nil || sink.starts != 1 || e.Graph().Suspended() {
		t.Fatal("expected sink to start")
	}
	e.Suspend()
	e.Resume()
	if sink.starts != 2 || sink.stops != 1 {
		t.Errorf("unexpected sink calls %+v", sink)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if sink.stops != 2 || sink.closes != 1 {
		t.Errorf("expected close to stop and release the sink, got %+v", sink)
	}
}

func TestUnavailableDeviceRunsSilent(t *testing.T) {
	opens := 0
	e := New(Options{Sink: func(g *Graph) (Sink, error) {
		opens++
		return nil, errors.New("no device")
	}})
	defer e.Close()

	e.Apply(enabledConfig())
	if err := e.Resume(); !errors.Is(err, ErrAudioUnavailable) {
		t.Fatalf("expected ErrAudioUnavailable, got %v", err)
	}
	e.Update(cycle.Inhale, 0.5)
	e.Ping(cycle.Inhale)
	e.Suspend()
	if err := e.Resume(); !errors.Is(err, ErrAudioUnavailable) {
		t.Errorf("expected ErrAudioUnavailable again, got %v", err)
	}
	if opens != 1 {
		t.Errorf("device should be probed once, opened %d times", opens)
	}
	if e.Stats().Available {
		t.Error("expected stats to report unavailable")
	}
}
