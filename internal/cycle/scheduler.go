package cycle

import (
	"math"
	"strconv"
)

// State is the derived position inside the cycle for one tick.
type State struct {
	Stage Stage
	// Progress is the intra-stage progress in [0,1], eased for inhale and exhale.
	Progress float64
	// Linear is the raw, uneased intra-stage progress.
	Linear       float64
	CycleElapsed float64
	TimeInStage  float64
}

// CounterMode selects what the HUD counter shows.
type CounterMode string

const (
	CounterTimer   CounterMode = "timer"
	CounterBreaths CounterMode = "breaths"
	CounterOff     CounterMode = "off"
)

// ParseCounterMode returns the mode for s, falling back to timer.
func ParseCounterMode(s string) CounterMode {
	switch CounterMode(s) {
	case CounterBreaths:
		return CounterBreaths
	case CounterOff:
		return CounterOff
	default:
		return CounterTimer
	}
}

// Next cycles timer → breaths → off → timer.
func (m CounterMode) Next() CounterMode {
	switch m {
	case CounterTimer:
		return CounterBreaths
	case CounterBreaths:
		return CounterOff
	default:
		return CounterTimer
	}
}

// Fallback is the state used while the cycle is degenerate.
func Fallback() State {
	return State{Stage: HoldEmpty}
}

// EaseQuadInOut is the symmetric quadratic ease-in-out curve.
func EaseQuadInOut(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 2 * t * t
	}
	u := -2*t + 2
	return 1 - u*u/2
}

// Compute maps elapsed milliseconds onto the cycle.
func Compute(elapsedMs float64, d Durations) (State, error) {
	length := d.Length()
	if length <= 0 {
		return Fallback(), ErrDegenerateCycle
	}

	t := math.Mod(elapsedMs, length)
	if t < 0 {
		t += length
	}
	if t >= length {
		t = 0
	}

	st := State{CycleElapsed: t}
	remaining := t
	found := false
	for _, s := range Stages {
		dur := d.Of(s)
		// zero-length stages are instantaneous and never reported
		if dur <= 0 {
			continue
		}
		if remaining < dur {
			st.Stage = s
			st.TimeInStage = remaining
			st.Linear = clamp01(remaining / dur)
			found = true
			break
		}
		remaining -= dur
	}
	if !found {
		// float rounding put t on the closing boundary
		s := lastNonEmpty(d)
		st.Stage = s
		st.TimeInStage = d.Of(s)
		st.Linear = 1
	}

	st.Progress = st.Linear
	if st.Stage == Inhale || st.Stage == Exhale {
		st.Progress = EaseQuadInOut(st.Linear)
	}
	return st, nil
}

// DisplayText renders the HUD counter for mode.
//
// Timer mode shows whole seconds remaining in the current stage, rounded up.
// Breaths mode shows the number of completed cycles.
func DisplayText(mode CounterMode, st State, d Durations, elapsedMs float64) string {
	length := d.Length()
	switch mode {
	case CounterTimer:
		if length <= 0 {
			return "0"
		}
		remaining := d.Of(st.Stage) - st.TimeInStage
		if remaining < 0 {
			remaining = 0
		}
		return strconv.Itoa(int(math.Ceil(remaining / 1000)))
	case CounterBreaths:
		if length <= 0 || elapsedMs < 0 {
			return "0"
		}
		return strconv.Itoa(int(math.Floor(elapsedMs / length)))
	default:
		return ""
	}
}

func lastNonEmpty(d Durations) Stage {
	for i := len(Stages) - 1; i >= 0; i-- {
		if d.Of(Stages[i]) > 0 {
			return Stages[i]
		}
	}
	return HoldEmpty
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Expansion is how full the breath is: rising through inhale, 1 while
// holding full, falling through exhale and 0 while holding empty.
func (s State) Expansion() float64 {
	switch s.Stage {
	case Inhale:
		return s.Progress
	case HoldFull:
		return 1
	case Exhale:
		return 1 - s.Progress
	}
	return 0
}
