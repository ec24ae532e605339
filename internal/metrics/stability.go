package metrics

import (
	"math"

	"github.com/san-kum/breathsim/internal/render"
)

// DefaultJump is the largest per-frame radius change, in reference pixels,
// that still reads as smooth motion at 60 fps.
const DefaultJump = 3.0

// Stability is the fraction of frames whose contour radius moved less than
// threshold reference pixels since the previous frame.
type Stability struct {
	name       string
	threshold  float64
	last       float64
	started    bool
	maxJump    float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f render.Frame) {
	if f.Scale <= 0 {
		return
	}
	r := f.Radius / f.Scale
	if s.started {
		jump := math.Abs(r - s.last)
		s.maxJump = math.Max(s.maxJump, jump)
		if jump > s.threshold {
			s.violations++
		}
		s.samples++
	}
	s.last, s.started = r, true
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

// MaxJump is the largest frame to frame radius change seen.
func (s *Stability) MaxJump() float64 { return s.maxJump }

func (s *Stability) Reset() {
	s.last = 0
	s.started = false
	s.maxJump = 0
	s.violations = 0
	s.samples = 0
}
