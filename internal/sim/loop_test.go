package sim

import (
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/breathsim/internal/cycle"
	"github.com/san-kum/breathsim/internal/render"
)

type audioCall struct {
	kind  string
	stage cycle.Stage
}

type fakeAudio struct {
	calls    []audioCall
	updates  int
	resumed  int
	suspends int
}

func (a *fakeAudio) Update(s cycle.Stage, p float64) { a.updates++ }
func (a *fakeAudio) Ping(s cycle.Stage)              { a.calls = append(a.calls, audioCall{"ping", s}) }
func (a *fakeAudio) Resume() error                   { a.resumed++; return nil }
func (a *fakeAudio) Suspend() error                  { a.suspends++; return nil }

type countingSurface struct {
	frames []render.Frame
}

func (s *countingSurface) Draw(f render.Frame) { s.frames = append(s.frames, f) }

var _ = Describe("Loop", func() {
	var (
		pump    *PumpScheduler
		audio   *fakeAudio
		surface *countingSurface
		loop    *Loop
		t0      time.Time
	)

	fireAt := func(ms float64) {
		pump.Fire(t0.Add(time.Duration(ms * float64(time.Millisecond))))
	}

	BeforeEach(func() {
		pump = NewPumpScheduler()
		audio = &fakeAudio{}
		surface = &countingSurface{}
		t0 = time.Unix(100, 0)

		var err error
		loop, err = New(DefaultSettings(), Options{
			Scheduler: pump,
			Audio:     audio,
			Surface:   surface,
			Rand:      rand.New(rand.NewSource(1)),
			Width:     800,
			Height:    600,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("draws an initial frame while stopped", func() {
		Expect(surface.frames).To(HaveLen(1))
		Expect(loop.Running()).To(BeFalse())
		Expect(loop.LastFrame().State.Stage).To(Equal(cycle.Inhale))
		Expect(pump.Pending()).To(BeZero())
	})

	Describe("running", func() {
		BeforeEach(func() {
			loop.StartAt(t0)
		})

		It("resumes audio and requests a frame", func() {
			Expect(audio.resumed).To(Equal(1))
			Expect(pump.Pending()).To(Equal(1))
		})

		It("accumulates wall clock deltas", func() {
			fireAt(16)
			fireAt(40)
			Expect(loop.Elapsed()).To(BeNumerically("~", 40, 1e-9))
			Expect(audio.updates).To(Equal(2))
			Expect(loop.Frames()).To(Equal(2))
		})

		It("pings on stage changes but not on the first tick", func() {
			fireAt(4100) // first tick already lands in holdFull
			Expect(audio.calls).To(BeEmpty())

			fireAt(8100)
			Expect(audio.calls).To(Equal([]audioCall{{"ping", cycle.Exhale}}))
			Expect(loop.Transitions()).To(Equal(1))
		})

		It("keeps the particle field moving", func() {
			for ms := 16.0; ms < 2000; ms += 16 {
				fireAt(ms)
			}
			Expect(loop.Particles()).NotTo(BeEmpty())
		})

		It("notifies observers on ticks only", func() {
			seen := 0
			loop.AddObserver(ObserverFunc(func(render.Frame) { seen++ }))
			fireAt(16)
			loop.Stop()
			Expect(seen).To(Equal(1))
		})
	})

	Describe("stopping", func() {
		BeforeEach(func() {
			loop.StartAt(t0)
			for ms := 16.0; ms <= 5000; ms += 16 {
				fireAt(ms)
			}
		})

		It("cancels the pending frame and suspends audio", func() {
			loop.Stop()
			Expect(pump.Pending()).To(BeZero())
			Expect(audio.suspends).To(Equal(1))

			frozen := loop.Elapsed()
			fireAt(9000)
			Expect(loop.Elapsed()).To(Equal(frozen))
		})

		It("redraws once with a state equal to a fresh computation", func() {
			before := len(surface.frames)
			updates := audio.updates
			particles := loop.Particles()

			loop.Stop()
			Expect(surface.frames).To(HaveLen(before + 1))
			Expect(audio.updates).To(Equal(updates))
			Expect(loop.Particles()).To(Equal(particles))

			want, err := cycle.Compute(loop.Elapsed(), loop.Settings().Durations)
			Expect(err).NotTo(HaveOccurred())
			Expect(loop.LastFrame().State).To(Equal(want))
		})

		It("does not count paused time after a restart", func() {
			loop.Stop()
			frozen := loop.Elapsed()
			pings := len(audio.calls)

			loop.StartAt(t0.Add(60 * time.Second))
			pump.Fire(t0.Add(60*time.Second + 20*time.Millisecond))
			Expect(loop.Elapsed()).To(BeNumerically("~", frozen+20, 1e-6))
			Expect(audio.calls).To(HaveLen(pings), "first tick after start never pings")
		})

		It("ignores a second stop", func() {
			loop.Stop()
			n := len(surface.frames)
			loop.Stop()
			Expect(surface.frames).To(HaveLen(n))
			Expect(audio.suspends).To(Equal(1))
		})
	})

	Describe("configuration", func() {
		It("redraws when changed while stopped", func() {
			s := DefaultSettings()
			s.Durations = cycle.Durations{Inhale: 0, HoldFull: 1000, Exhale: 1000, HoldEmpty: 0}
			Expect(loop.SetConfig(s)).To(Succeed())
			Expect(surface.frames).To(HaveLen(2))
			Expect(loop.LastFrame().State.Stage).To(Equal(cycle.HoldFull))
		})

		It("waits for the next tick when running", func() {
			loop.StartAt(t0)
			s := DefaultSettings()
			s.Mode = cycle.CounterOff
			Expect(loop.SetConfig(s)).To(Succeed())
			Expect(surface.frames).To(HaveLen(1))

			fireAt(16)
			Expect(loop.LastFrame().Counter.Visible).To(BeFalse())
		})

		It("rejects negative durations and keeps the old settings", func() {
			s := DefaultSettings()
			s.Durations.Exhale = -1
			Expect(loop.SetConfig(s)).To(MatchError(cycle.ErrNegativeDuration))
			Expect(loop.Settings()).To(Equal(DefaultSettings()))
		})

		It("rejects an invalid theme", func() {
			s := DefaultSettings()
			s.Theme.BackgroundColor = "nope"
			Expect(loop.SetConfig(s)).To(MatchError(render.ErrInvalidColor))
		})

		It("holds on a degenerate cycle without failing", func() {
			s := DefaultSettings()
			s.Durations = cycle.Durations{}
			Expect(loop.SetConfig(s)).To(Succeed())

			loop.StartAt(t0)
			fireAt(16)
			fireAt(32)
			Expect(loop.LastFrame().State).To(Equal(cycle.Fallback()))
			Expect(loop.LastFrame().Counter.Value).To(Equal("0"))
		})

		It("redraws on resize while stopped", func() {
			loop.Resize(300, 300)
			Expect(surface.frames).To(HaveLen(2))
			Expect(loop.LastFrame().Scale).To(BeNumerically("~", 0.5, 1e-12))
		})
	})

	Describe("restart", func() {
		It("rewinds elapsed time and clears particles", func() {
			loop.StartAt(t0)
			for ms := 16.0; ms <= 9000; ms += 16 {
				fireAt(ms)
			}
			Expect(loop.Particles()).NotTo(BeEmpty())

			loop.Restart()
			Expect(loop.Elapsed()).To(BeZero())
			Expect(loop.Particles()).To(BeEmpty())
			Expect(loop.Running()).To(BeTrue())

			fireAt(9016)
			Expect(loop.LastFrame().State.Stage).To(Equal(cycle.Inhale))
			Expect(loop.LastFrame().Phase.Changed).To(BeTrue())
		})
	})
})
