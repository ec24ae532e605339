package audio

import "math/rand"

// NoiseSeconds is the length of the looped breath noise buffer.
const NoiseSeconds = 4.0

// PinkNoise fills a mono buffer with approximately 1/f noise using Paul
// Kellet's refined filter bank over uniform white noise.
func PinkNoise(rng *rand.Rand, sampleRate int, seconds float64) []float64 {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	n := int(float64(sampleRate) * seconds)
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)

	var b0, b1, b2, b3, b4, b5, b6 float64
	for i := range out {
		w := rng.Float64()*2 - 1
		b0 = 0.99886*b0 + w*0.0555179
		b1 = 0.99332*b1 + w*0.0750759
		b2 = 0.96900*b2 + w*0.1538520
		b3 = 0.86650*b3 + w*0.3104856
		b4 = 0.55000*b4 + w*0.5329522
		b5 = -0.7616*b5 - w*0.0168980
		out[i] = (b0 + b1 + b2 + b3 + b4 + b5 + b6 + w*0.5362) * 0.11
		b6 = w * 0.115926
	}
	return out
}

// noiseLoop plays a mono buffer on both channels forever.
type noiseLoop struct {
	buf []float64
	pos int
}

func (l *noiseLoop) Stream(samples [][2]float64) (int, bool) {
	if len(l.buf) == 0 {
		clear(samples)
		return len(samples), true
	}
	for i := range samples {
		v := l.buf[l.pos]
		samples[i][0], samples[i][1] = v, v
		l.pos++
		if l.pos == len(l.buf) {
			l.pos = 0
		}
	}
	return len(samples), true
}

func (l *noiseLoop) Err() error { return nil }
