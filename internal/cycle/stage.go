package cycle

// Stage is one phase of the breathing cycle.
type Stage int

const (
	Inhale Stage = iota
	HoldFull
	Exhale
	HoldEmpty
)

// Stages lists the stages in the order they are consumed.
var Stages = [...]Stage{Inhale, HoldFull, Exhale, HoldEmpty}

func (s Stage) String() string {
	switch s {
	case Inhale:
		return "inhale"
	case HoldFull:
		return "holdFull"
	case Exhale:
		return "exhale"
	case HoldEmpty:
		return "holdEmpty"
	default:
		return "unknown"
	}
}

// Label is the phase name shown to the user. Both holds read "Hold".
func (s Stage) Label() string {
	switch s {
	case Inhale:
		return "Inhale"
	case Exhale:
		return "Exhale"
	default:
		return "Hold"
	}
}

// IsHold reports whether s is one of the two hold stages.
func (s Stage) IsHold() bool { return s == HoldFull || s == HoldEmpty }

// Durations holds the stage lengths in milliseconds.
type Durations struct {
	Inhale    float64
	HoldFull  float64
	Exhale    float64
	HoldEmpty float64
}

// Length is the cycle length in milliseconds.
func (d Durations) Length() float64 {
	return d.Inhale + d.HoldFull + d.Exhale + d.HoldEmpty
}

// Of returns the duration of stage s.
func (d Durations) Of(s Stage) float64 {
	switch s {
	case Inhale:
		return d.Inhale
	case HoldFull:
		return d.HoldFull
	case Exhale:
		return d.Exhale
	default:
		return d.HoldEmpty
	}
}

// Validate checks that no duration is negative and the cycle is not empty.
func (d Durations) Validate() error {
	for _, s := range Stages {
		if d.Of(s) < 0 {
			return ErrNegativeDuration
		}
	}
	if d.Length() == 0 {
		return ErrDegenerateCycle
	}
	return nil
}
