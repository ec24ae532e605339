package audio

import (
	"math"
	"sync/atomic"
)

// Time constants for parameter automation, in seconds.
const (
	TauVolume = 0.1
	TauBreath = 0.3
	TauTone   = 0.5
)

type paramTarget struct {
	value float64
	tau   float64
}

// Param approaches its target exponentially, like a Web Audio
// setTargetAtTime automation. Targets may be set from any goroutine; the
// current value belongs to the render side.
type Param struct {
	rate   float64
	target atomic.Pointer[paramTarget]

	value float64
	tau   float64
	coef  float64
}

// NewParam creates a parameter resting at initial.
func NewParam(rate int, initial float64) *Param {
	p := &Param{rate: float64(rate), value: initial}
	p.target.Store(&paramTarget{value: initial})
	return p
}

// SetTarget starts an approach to v with time constant tau. tau <= 0 jumps.
func (p *Param) SetTarget(v, tau float64) {
	p.target.Store(&paramTarget{value: v, tau: tau})
}

// Target returns the most recently requested value.
func (p *Param) Target() float64 { return p.target.Load().value }

// Value returns the current value. Render side only.
func (p *Param) Value() float64 { return p.value }

// Next advances one sample and returns the new value.
func (p *Param) Next() float64 {
	t := p.target.Load()
	if t.tau <= 0 {
		p.value = t.value
		return p.value
	}
	if t.tau != p.tau {
		p.tau = t.tau
		p.coef = 1 - math.Exp(-1/(t.tau*p.rate))
	}
	p.value += (t.value - p.value) * p.coef
	return p.value
}

// Advance moves n samples at once, exact for a constant target.
func (p *Param) Advance(n int) float64 {
	t := p.target.Load()
	if t.tau <= 0 || n <= 0 {
		if n > 0 {
			p.value = t.value
		}
		return p.value
	}
	k := 1 - math.Exp(-float64(n)/(t.tau*p.rate))
	p.value += (t.value - p.value) * k
	return p.value
}
