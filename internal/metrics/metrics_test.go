package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/breathsim/internal/cycle"
	"github.com/san-kum/breathsim/internal/render"
)

func TestParticleDensity(t *testing.T) {
	m := NewParticleDensity()
	m.Observe(render.Frame{Particles: make([]render.Segment, 4)})
	m.Observe(render.Frame{Particles: make([]render.Segment, 2)})

	if m.Value() != 3 {
		t.Errorf("expected mean 3, got %f", m.Value())
	}
	if m.Peak() != 4 {
		t.Errorf("expected peak 4, got %d", m.Peak())
	}

	m.Reset()
	if m.Value() != 0 || m.Peak() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestParticleEnergy(t *testing.T) {
	m := NewParticleEnergy()
	// speed 2 at scale 1 leaves a trail of 6
	seg := render.Segment{From: render.Point{X: 0, Y: 0}, To: render.Point{X: 6, Y: 0}}
	m.Observe(render.Frame{Scale: 1, Particles: []render.Segment{seg}})

	if math.Abs(m.Value()-2) > 1e-12 {
		t.Errorf("expected energy 2, got %f", m.Value())
	}

	// same physical speed on a surface twice as large
	m.Reset()
	seg.To.X = 12
	m.Observe(render.Frame{Scale: 2, Particles: []render.Segment{seg}})
	if math.Abs(m.Value()-2) > 1e-12 {
		t.Errorf("expected scale independent energy 2, got %f", m.Value())
	}
}

func TestStability(t *testing.T) {
	m := NewStability(1)
	for _, r := range []float64{120, 120.5, 121, 125, 125.2} {
		m.Observe(render.Frame{Scale: 1, Radius: r})
	}
	if math.Abs(m.Value()-0.75) > 1e-12 {
		t.Errorf("expected 0.75, got %f", m.Value())
	}
	if math.Abs(m.MaxJump()-4) > 1e-12 {
		t.Errorf("expected max jump 4, got %f", m.MaxJump())
	}

	m.Reset()
	if m.Value() != 1 {
		t.Error("expected 1 with no samples")
	}
}

func TestStageShareAndExpansion(t *testing.T) {
	share := NewStageShare(cycle.Exhale)
	exp := NewExpansion()
	frames := []render.Frame{
		{State: cycle.State{Stage: cycle.Inhale, Progress: 0.5}},
		{State: cycle.State{Stage: cycle.HoldFull}},
		{State: cycle.State{Stage: cycle.Exhale, Progress: 0.5}},
		{State: cycle.State{Stage: cycle.HoldEmpty}},
	}
	for _, f := range frames {
		share.Observe(f)
		exp.Observe(f)
	}

	if share.Name() != "share_exhale" || share.Value() != 0.25 {
		t.Errorf("unexpected share %s=%f", share.Name(), share.Value())
	}
	if math.Abs(exp.Value()-0.5) > 1e-12 {
		t.Errorf("expected mean expansion 0.5, got %f", exp.Value())
	}
}

func TestDefaultNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Default() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 8 {
		t.Errorf("expected 8 metrics, got %d", len(seen))
	}
}
