package audio

import (
	"math"
	"time"

	"github.com/san-kum/breathsim/internal/cycle"
)

const (
	PingAttack = 10 * time.Millisecond
	PingDecay  = 600 * time.Millisecond
	PingPeak   = 0.3
	PingFloor  = 0.001
)

// PingFrequency is the cue pitch for entering stage.
func PingFrequency(s cycle.Stage) float64 {
	switch s {
	case cycle.Inhale:
		return 880
	case cycle.Exhale:
		return 330
	case cycle.HoldFull, cycle.HoldEmpty:
		return 554
	}
	return 440
}

// PingGain is the envelope peak for a cue entering stage.
func PingGain(s cycle.Stage, pingScalar, masterVolume float64) float64 {
	g := PingPeak * pingScalar * masterVolume
	if s == cycle.Exhale {
		g *= 2
	}
	return g
}

// pingVoice is a one-shot enveloped sine. It reports exhaustion to the
// ping bus once the decay completes, which drops it from the mix.
type pingVoice struct {
	freq   float64
	peak   float64
	rate   float64
	pos    int
	attack int
	length int
}

func newPingVoice(freq, peak float64) *pingVoice {
	attack := SampleRate.N(PingAttack)
	return &pingVoice{
		freq:   freq,
		peak:   peak,
		rate:   float64(SampleRate),
		attack: attack,
		length: attack + SampleRate.N(PingDecay),
	}
}

func (v *pingVoice) envelope(i int) float64 {
	if i < v.attack {
		return v.peak * float64(i) / float64(v.attack)
	}
	t := float64(i-v.attack) / float64(v.length-v.attack)
	return v.peak * math.Pow(PingFloor/v.peak, t)
}

func (v *pingVoice) Stream(samples [][2]float64) (int, bool) {
	if v.pos >= v.length {
		return 0, false
	}
	n := 0
	for i := range samples {
		if v.pos >= v.length {
			break
		}
		s := math.Sin(2*math.Pi*v.freq*float64(v.pos)/v.rate) * v.envelope(v.pos)
		samples[i][0], samples[i][1] = s, s
		v.pos++
		n++
	}
	return n, true
}

func (v *pingVoice) Err() error { return nil }
