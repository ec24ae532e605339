package metrics

import (
	"github.com/san-kum/breathsim/internal/render"
)

// ParticleDensity is the mean number of particles per frame.
type ParticleDensity struct {
	name    string
	total   int
	peak    int
	samples int
}

func NewParticleDensity() *ParticleDensity {
	return &ParticleDensity{name: "particle_density"}
}

func (d *ParticleDensity) Name() string { return d.name }

func (d *ParticleDensity) Observe(f render.Frame) {
	n := len(f.Particles)
	d.total += n
	d.peak = max(d.peak, n)
	d.samples++
}

func (d *ParticleDensity) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	return float64(d.total) / float64(d.samples)
}

// Peak is the largest particle count seen.
func (d *ParticleDensity) Peak() int { return d.peak }

func (d *ParticleDensity) Reset() {
	d.total = 0
	d.peak = 0
	d.samples = 0
}

// ParticleEnergy is the mean kinetic energy per particle in reference
// pixels per tick, recovered from the trail segments.
type ParticleEnergy struct {
	name    string
	trail   float64
	sum     float64
	samples int
}

func NewParticleEnergy() *ParticleEnergy {
	return &ParticleEnergy{name: "particle_energy", trail: render.TrailLength}
}

func (e *ParticleEnergy) Name() string { return e.name }

func (e *ParticleEnergy) Observe(f render.Frame) {
	if f.Scale <= 0 {
		return
	}
	for _, s := range f.Particles {
		v := s.From.Dist(s.To) / e.trail / f.Scale
		e.sum += 0.5 * v * v
		e.samples++
	}
}

func (e *ParticleEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *ParticleEnergy) Reset() {
	e.sum = 0
	e.samples = 0
}
