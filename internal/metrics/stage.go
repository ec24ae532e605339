package metrics

import (
	"github.com/san-kum/breathsim/internal/cycle"
	"github.com/san-kum/breathsim/internal/render"
)

// StageShare is the fraction of frames spent in one stage.
type StageShare struct {
	name    string
	stage   cycle.Stage
	hits    int
	samples int
}

func NewStageShare(s cycle.Stage) *StageShare {
	return &StageShare{
		name:  "share_" + s.String(),
		stage: s,
	}
}

func (c *StageShare) Name() string {
	return c.name
}

func (c *StageShare) Observe(f render.Frame) {
	if f.State.Stage == c.stage {
		c.hits++
	}
	c.samples++
}

func (c *StageShare) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.hits) / float64(c.samples)
}

func (c *StageShare) Reset() {
	c.hits = 0
	c.samples = 0
}

// Expansion is the mean breath expansion over all frames.
type Expansion struct {
	name    string
	sum     float64
	samples int
}

func NewExpansion() *Expansion {
	return &Expansion{name: "expansion"}
}

func (e *Expansion) Name() string { return e.name }

func (e *Expansion) Observe(f render.Frame) {
	e.sum += f.State.Expansion()
	e.samples++
}

func (e *Expansion) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *Expansion) Reset() {
	e.sum = 0
	e.samples = 0
}

// Metric matches the headless runner's metric hook.
type Metric interface {
	Name() string
	Observe(f render.Frame)
	Value() float64
	Reset()
}

// Default is the metric set recorded with traces.
func Default() []Metric {
	return []Metric{
		NewParticleDensity(),
		NewParticleEnergy(),
		NewStability(DefaultJump),
		NewExpansion(),
		NewStageShare(cycle.Inhale),
		NewStageShare(cycle.HoldFull),
		NewStageShare(cycle.Exhale),
		NewStageShare(cycle.HoldEmpty),
	}
}
