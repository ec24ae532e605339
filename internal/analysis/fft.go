package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/stat"
)

// Spectrum is a one-sided power spectrum.
type Spectrum struct {
	Freqs []float64
	Power []float64
}

// Welch averages Hann-windowed periodograms over segments of the given
// length with 50% overlap.
func Welch(data []float64, sampleRate float64, segment int) Spectrum {
	if segment < 2 || len(data) < segment {
		return Spectrum{}
	}

	win := window.Hann(segment)
	norm := 0.0
	for _, w := range win {
		norm += w * w
	}

	bins := segment/2 + 1
	power := make([]float64, bins)
	buf := make([]float64, segment)
	count := 0

	for start := 0; start+segment <= len(data); start += segment / 2 {
		for i := range buf {
			buf[i] = data[start+i] * win[i]
		}
		for k, c := range fft.FFTReal(buf)[:bins] {
			m := cmplx.Abs(c)
			power[k] += m * m
		}
		count++
	}

	freqs := make([]float64, bins)
	for k := range power {
		power[k] /= float64(count) * norm * sampleRate
		freqs[k] = float64(k) * sampleRate / float64(segment)
	}
	return Spectrum{Freqs: freqs, Power: power}
}

// PowerSpectrum is the magnitude spectrum of a single frame.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	bins := fft.FFTReal(data)
	ps := make([]float64, len(bins)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(bins[i])
	}
	return ps
}

// SpectralSlope fits power in dB against log2 frequency between lo and hi
// and returns the slope in dB per octave with the fit's R².
func SpectralSlope(s Spectrum, lo, hi float64) (slope, r2 float64) {
	var xs, ys []float64
	for i, f := range s.Freqs {
		if f < lo || f > hi || s.Power[i] <= 0 {
			continue
		}
		xs = append(xs, math.Log2(f))
		ys = append(ys, 10*math.Log10(s.Power[i]))
	}
	if len(xs) < 2 {
		return math.NaN(), 0
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta, stat.RSquared(xs, ys, nil, alpha, beta)
}

// DCBias is the mean of the signal.
func DCBias(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// RMS is the root mean square of the signal.
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(data)))
}
