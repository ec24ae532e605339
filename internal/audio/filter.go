package audio

import "math"

// Quantum is the number of frames between filter coefficient updates.
const Quantum = 128

const (
	QLowpass  = math.Sqrt2 / 2
	QBandpass = 1.0
)

type filterKind int

const (
	lowpass filterKind = iota
	bandpass
)

// biquad is an RBJ cookbook section in direct form I, one state per channel.
type biquad struct {
	kind filterKind
	q    float64
	rate float64

	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     [2]float64
}

func newBiquad(kind filterKind, q float64, rate int, freq float64) *biquad {
	f := &biquad{kind: kind, q: q, rate: float64(rate)}
	f.set(freq)
	return f
}

func (f *biquad) set(freq float64) {
	nyq := f.rate / 2
	freq = math.Max(10, math.Min(freq, nyq*0.99))

	w0 := 2 * math.Pi * freq / f.rate
	cos, sin := math.Cos(w0), math.Sin(w0)
	alpha := sin / (2 * f.q)
	a0 := 1 + alpha

	switch f.kind {
	case bandpass:
		f.b0 = alpha / a0
		f.b1 = 0
		f.b2 = -alpha / a0
	default:
		f.b0 = (1 - cos) / 2 / a0
		f.b1 = (1 - cos) / a0
		f.b2 = (1 - cos) / 2 / a0
	}
	f.a1 = -2 * cos / a0
	f.a2 = (1 - alpha) / a0
}

func (f *biquad) process(ch int, x float64) float64 {
	y := f.b0*x + f.b1*f.x1[ch] + f.b2*f.x2[ch] - f.a1*f.y1[ch] - f.a2*f.y2[ch]
	f.x2[ch], f.x1[ch] = f.x1[ch], x
	f.y2[ch], f.y1[ch] = f.y1[ch], y
	return y
}
