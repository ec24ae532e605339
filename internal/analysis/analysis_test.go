package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/breathsim/internal/cycle"
)

func TestWelchSinePeak(t *testing.T) {
	const rate = 8000.0
	data := make([]float64, 8192)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * 1000 * float64(i) / rate)
	}

	psd := Welch(data, rate, 1024)
	if len(psd.Power) != 513 {
		t.Fatalf("expected 513 bins, got %d", len(psd.Power))
	}

	peak := 0
	for k := range psd.Power {
		if psd.Power[k] > psd.Power[peak] {
			peak = k
		}
	}
	if math.Abs(psd.Freqs[peak]-1000) > rate/1024 {
		t.Errorf("expected peak near 1000 Hz, got %.1f", psd.Freqs[peak])
	}
}

func TestWelchShortInput(t *testing.T) {
	psd := Welch(make([]float64, 10), 44100, 1024)
	if len(psd.Power) != 0 {
		t.Error("expected empty spectrum for short input")
	}
}

func TestSpectralSlopePowerLaw(t *testing.T) {
	var s Spectrum
	for f := 10.0; f <= 10000; f += 10 {
		s.Freqs = append(s.Freqs, f)
		s.Power = append(s.Power, 1/f) // 1/f is -3.01 dB per octave
	}

	slope, r2 := SpectralSlope(s, 100, 5000)
	want := -10 * math.Log10(2)
	if math.Abs(slope-want) > 1e-6 {
		t.Errorf("expected slope %.3f, got %.3f", want, slope)
	}
	if r2 < 0.999 {
		t.Errorf("expected near perfect fit, got R²=%.4f", r2)
	}
}

func TestSpectralSlopeEmptyBand(t *testing.T) {
	slope, _ := SpectralSlope(Spectrum{Freqs: []float64{1, 2}, Power: []float64{1, 1}}, 100, 200)
	if !math.IsNaN(slope) {
		t.Errorf("expected NaN, got %f", slope)
	}
}

func TestDCBiasAndRMS(t *testing.T) {
	data := []float64{1, -1, 1, -1, 0.5, 0.5}
	if got := DCBias(data); math.Abs(got-1.0/6) > 1e-12 {
		t.Errorf("expected mean 1/6, got %f", got)
	}
	if got := RMS([]float64{3, -3, 3, -3}); math.Abs(got-3) > 1e-12 {
		t.Errorf("expected rms 3, got %f", got)
	}
	if DCBias(nil) != 0 || RMS(nil) != 0 {
		t.Error("expected zero for empty input")
	}
}

func TestGeneratePortraitBox(t *testing.T) {
	d := cycle.Durations{Inhale: 4000, HoldFull: 4000, Exhale: 4000, HoldEmpty: 4000}
	p, err := GeneratePortrait(d, 10, 16000)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Points) != 1600 {
		t.Errorf("expected 1600 points, got %d", len(p.Points))
	}

	rising, falling := false, false
	for _, pt := range p.Points {
		if pt.X < -1e-9 || pt.X > 1+1e-9 {
			t.Fatalf("expansion %.3f out of range", pt.X)
		}
		if pt.Y > 0.01 {
			rising = true
		}
		if pt.Y < -0.01 {
			falling = true
		}
	}
	if !rising || !falling {
		t.Error("expected both inhale and exhale in the portrait")
	}

	art := PortraitToASCII(p, 40, 12)
	if strings.Count(art, "\n") != 12 || !strings.Contains(art, "•") {
		t.Errorf("unexpected plot:\n%s", art)
	}
}

func TestGeneratePortraitDegenerate(t *testing.T) {
	if _, err := GeneratePortrait(cycle.Durations{}, 10, 1000); err == nil {
		t.Error("expected error for degenerate cycle")
	}
}
