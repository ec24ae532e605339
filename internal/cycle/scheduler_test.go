package cycle

import (
	"errors"
	"math"
	"testing"
)

var box = Durations{Inhale: 4000, HoldFull: 2000, Exhale: 4000, HoldEmpty: 2000}

func TestComputeFixedPoints(t *testing.T) {
	tests := []struct {
		elapsed  float64
		stage    Stage
		progress float64
	}{
		{0, Inhale, 0},
		{4000, HoldFull, 0},
		{5000, HoldFull, 0.5},
		{6000, Exhale, 0},
		{10000, HoldEmpty, 0},
		{11999, HoldEmpty, 0.9995},
		{12000, Inhale, 0},
	}

	for _, tt := range tests {
		st, err := Compute(tt.elapsed, box)
		if err != nil {
			t.Fatalf("elapsed %.0f: unexpected error %v", tt.elapsed, err)
		}
		if st.Stage != tt.stage {
			t.Errorf("elapsed %.0f: expected stage %s, got %s", tt.elapsed, tt.stage, st.Stage)
		}
		if math.Abs(st.Progress-tt.progress) > 1e-9 {
			t.Errorf("elapsed %.0f: expected progress %.4f, got %.4f", tt.elapsed, tt.progress, st.Progress)
		}
	}
}

func TestComputeProgressBounds(t *testing.T) {
	durations := []Durations{
		box,
		{Inhale: 4000, HoldFull: 7000, Exhale: 8000},
		{Inhale: 1, Exhale: 1},
		{HoldEmpty: 300},
		{Inhale: 5500, Exhale: 5500},
	}

	for _, d := range durations {
		for elapsed := 0.0; elapsed < 3*d.Length(); elapsed += d.Length() / 97 {
			st, err := Compute(elapsed, d)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if st.Progress < 0 || st.Progress > 1 {
				t.Fatalf("progress %.6f out of range at %.2f for %+v", st.Progress, elapsed, d)
			}
			if st.CycleElapsed < 0 || st.CycleElapsed >= d.Length() {
				t.Fatalf("cycle elapsed %.2f out of range for %+v", st.CycleElapsed, d)
			}
			if d.Of(st.Stage) <= 0 {
				t.Fatalf("reported zero-length stage %s at %.2f", st.Stage, elapsed)
			}
		}
	}
}

func TestComputePeriodic(t *testing.T) {
	for _, elapsed := range []float64{0, 1, 1999.5, 4000, 7333, 11999} {
		base, _ := Compute(elapsed, box)
		for k := 1; k <= 50; k++ {
			st, _ := Compute(elapsed+float64(k)*box.Length(), box)
			if st.Stage != base.Stage || math.Abs(st.Progress-base.Progress) > 1e-6 {
				t.Fatalf("elapsed %.1f k=%d: expected %+v, got %+v", elapsed, k, base, st)
			}
		}
	}
}

func TestComputeEasing(t *testing.T) {
	st, _ := Compute(1000, box)
	if st.Linear != 0.25 {
		t.Errorf("expected linear 0.25, got %f", st.Linear)
	}
	if st.Progress != EaseQuadInOut(0.25) {
		t.Errorf("inhale progress should be eased, got %f", st.Progress)
	}

	hold, _ := Compute(4500, box)
	if hold.Progress != hold.Linear {
		t.Errorf("hold progress should be linear, got %f vs %f", hold.Progress, hold.Linear)
	}
}

func TestComputeZeroLengthStages(t *testing.T) {
	d := Durations{Inhale: 4000, Exhale: 4000}

	st, _ := Compute(4000, d)
	if st.Stage != Exhale {
		t.Errorf("expected hold-full to be skipped, got %s", st.Stage)
	}
	st, _ = Compute(7999.999, d)
	if st.Stage != Exhale {
		t.Errorf("expected exhale at end of cycle, got %s", st.Stage)
	}
}

func TestComputeDegenerate(t *testing.T) {
	st, err := Compute(1234, Durations{})
	if !errors.Is(err, ErrDegenerateCycle) {
		t.Fatalf("expected ErrDegenerateCycle, got %v", err)
	}
	if st != Fallback() {
		t.Errorf("expected fallback state, got %+v", st)
	}
	if st.Stage != HoldEmpty || st.Progress != 0 {
		t.Errorf("fallback should be hold-empty at 0, got %+v", st)
	}
}

func TestComputeNegativeElapsed(t *testing.T) {
	st, err := Compute(-1000, box)
	if err != nil {
		t.Fatal(err)
	}
	if st.Stage != HoldEmpty || math.Abs(st.Linear-0.5) > 1e-9 {
		t.Errorf("expected hold-empty half way, got %+v", st)
	}
}

func TestEaseQuadInOut(t *testing.T) {
	if EaseQuadInOut(0) != 0 || EaseQuadInOut(1) != 1 || EaseQuadInOut(0.5) != 0.5 {
		t.Error("ease endpoints or midpoint wrong")
	}
	for x := 0.0; x <= 0.5; x += 0.01 {
		if math.Abs(EaseQuadInOut(x)+EaseQuadInOut(1-x)-1) > 1e-12 {
			t.Fatalf("ease not symmetric at %f", x)
		}
	}
}

func TestDisplayText(t *testing.T) {
	at := func(elapsed float64) State {
		st, _ := Compute(elapsed, box)
		return st
	}

	tests := []struct {
		name    string
		mode    CounterMode
		elapsed float64
		want    string
	}{
		{"breaths at cycle end", CounterBreaths, 12000, "1"},
		{"breaths just before", CounterBreaths, 11999, "0"},
		{"breaths several", CounterBreaths, 12000*3 + 5, "3"},
		{"timer start of inhale", CounterTimer, 0, "4"},
		{"timer mid inhale", CounterTimer, 1500, "3"},
		{"timer hold", CounterTimer, 4001, "2"},
		{"timer last ms", CounterTimer, 11999, "1"},
		{"off", CounterOff, 500, ""},
	}

	for _, tt := range tests {
		got := DisplayText(tt.mode, at(tt.elapsed), box, tt.elapsed)
		if got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestDisplayTextDegenerate(t *testing.T) {
	if got := DisplayText(CounterBreaths, Fallback(), Durations{}, 5000); got != "0" {
		t.Errorf("expected 0, got %q", got)
	}
	if got := DisplayText(CounterTimer, Fallback(), Durations{}, 5000); got != "0" {
		t.Errorf("expected 0, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	if err := box.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Durations{}).Validate(); !errors.Is(err, ErrDegenerateCycle) {
		t.Errorf("expected degenerate error, got %v", err)
	}
	if err := (Durations{Inhale: -1, Exhale: 10}).Validate(); !errors.Is(err, ErrNegativeDuration) {
		t.Errorf("expected negative duration error, got %v", err)
	}
}

func TestStageLabels(t *testing.T) {
	if HoldFull.Label() != "Hold" || HoldEmpty.Label() != "Hold" {
		t.Error("holds should both read Hold")
	}
	if Inhale.Label() != "Inhale" || Exhale.Label() != "Exhale" {
		t.Error("unexpected breathing labels")
	}
	if ParseCounterMode("bogus") != CounterTimer {
		t.Error("unknown counter mode should fall back to timer")
	}
}

func TestExpansion(t *testing.T) {
	tests := []struct {
		st   State
		want float64
	}{
		{State{Stage: Inhale, Progress: 0.25}, 0.25},
		{State{Stage: HoldFull, Progress: 0.5}, 1},
		{State{Stage: Exhale, Progress: 0.25}, 0.75},
		{State{Stage: HoldEmpty, Progress: 0.9}, 0},
		{Fallback(), 0},
	}
	for _, tt := range tests {
		if got := tt.st.Expansion(); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%v: expected %.2f, got %.2f", tt.st.Stage, tt.want, got)
		}
	}
}
