// Package cycle maps elapsed time onto the four-stage breathing cycle.
//
// Everything here is a pure function of elapsed milliseconds and the configured
// stage durations:
//
//   - [Durations]: inhale, hold-full, exhale and hold-empty lengths in milliseconds
//   - [Compute]: elapsed time to [State] (stage, eased progress, cycle-relative time)
//   - [DisplayText]: counter string for the HUD in timer or breaths mode
//
// # Example
//
//	d := cycle.Durations{Inhale: 4000, HoldFull: 2000, Exhale: 4000, HoldEmpty: 2000}
//	st, err := cycle.Compute(elapsed, d)
//	if errors.Is(err, cycle.ErrDegenerateCycle) {
//	    st = cycle.Fallback()
//	}
//
// Nothing is accumulated between calls, so there is no drift: the only state a
// caller keeps is the total elapsed time.
package cycle
