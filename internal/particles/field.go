package particles

import (
	"math"
	"math/rand"

	"github.com/san-kum/breathsim/internal/cycle"
)

// Emission and motion constants, as fractions of the viewport's smaller side
// where noted.
const (
	FramesPerSecond = 60.0

	InhaleSpawnMin  = 0.55
	InhaleSpawnMax  = 0.65
	ExhaleSpawn     = 0.1
	OuterCull       = 0.65
	CenterCull      = 20.0
	ExhaleSpeed     = 3.0
	Attraction      = 0.02
	HoldDamping     = 0.95
	HoldJitter      = 0.05
	InhaleDecay     = 0.5
	ExhaleDecay     = 1.0
	HoldDecay       = 0.25
	InhaleFadeIn    = 0.02
	HoldFadeOut     = 0.005
	HoldOpacityMin  = 0.1
	DefaultSize     = 5.0
	DefaultLifetime = 400.0
	DefaultCount    = 50.0
)

// Particle is a single point of the field, positioned relative to the centre.
type Particle struct {
	ID      uint64
	X, Y    float64
	VX, VY  float64
	Life    float64
	MaxLife float64
	Opacity float64
}

// Dist is the distance from the centre.
func (p Particle) Dist() float64 { return math.Hypot(p.X, p.Y) }

// Config controls emission. Count is the steady-state emission rate in
// particles per second of assumed frame time.
type Config struct {
	Size     float64
	Lifetime float64
	Count    float64
}

func DefaultConfig() Config {
	return Config{Size: DefaultSize, Lifetime: DefaultLifetime, Count: DefaultCount}
}

// Field owns the particle set. It is not safe for concurrent use.
type Field struct {
	rng       *rand.Rand
	particles []Particle
	nextID    uint64
	emitted   uint64
	culled    uint64
}

// New creates an empty field drawing randomness from rng.
func New(rng *rand.Rand) *Field {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Field{
		rng:       rng,
		particles: make([]Particle, 0, 256),
	}
}

// Tick emits, advances and culls particles for one frame.
func (f *Field) Tick(stage cycle.Stage, minDim float64, cfg Config) {
	f.emit(stage, minDim, cfg)

	alive := f.particles[:0]
	for _, p := range f.particles {
		f.advance(&p, stage)
		if f.dead(p, stage, minDim) {
			f.culled++
			continue
		}
		alive = append(alive, p)
	}
	f.particles = alive
}

func (f *Field) emit(stage cycle.Stage, minDim float64, cfg Config) {
	if stage.IsHold() || cfg.Count <= 0 {
		return
	}

	n := f.emissionCount(cfg.Count / FramesPerSecond)
	for i := 0; i < n; i++ {
		angle := f.rng.Float64() * 2 * math.Pi
		cos, sin := math.Cos(angle), math.Sin(angle)

		p := Particle{
			ID:      f.nextID,
			Life:    cfg.Lifetime,
			MaxLife: cfg.Lifetime,
		}
		f.nextID++

		switch stage {
		case cycle.Inhale:
			r := minDim * (InhaleSpawnMin + f.rng.Float64()*(InhaleSpawnMax-InhaleSpawnMin))
			p.X, p.Y = cos*r, sin*r
		case cycle.Exhale:
			r := minDim * ExhaleSpawn
			p.X, p.Y = cos*r, sin*r
			p.VX, p.VY = cos*ExhaleSpeed, sin*ExhaleSpeed
			p.Opacity = 1
		}

		f.particles = append(f.particles, p)
		f.emitted++
	}
}

// emissionCount rounds target stochastically so the expected value is exact.
func (f *Field) emissionCount(target float64) int {
	whole := math.Floor(target)
	n := int(whole)
	if f.rng.Float64() < target-whole {
		n++
	}
	return n
}

func (f *Field) advance(p *Particle, stage cycle.Stage) {
	switch stage {
	case cycle.Inhale:
		p.VX, p.VY = -p.X*Attraction, -p.Y*Attraction
		p.X += p.VX
		p.Y += p.VY
		p.Life -= InhaleDecay
		p.Opacity = math.Min(1, p.Opacity+InhaleFadeIn)
	case cycle.Exhale:
		p.X += p.VX
		p.Y += p.VY
		p.Life -= ExhaleDecay
		if p.MaxLife > 0 {
			p.Opacity = math.Max(0, p.Life/p.MaxLife)
		}
	default:
		p.VX = p.VX*HoldDamping + (f.rng.Float64()*2-1)*HoldJitter
		p.VY = p.VY*HoldDamping + (f.rng.Float64()*2-1)*HoldJitter
		p.X += p.VX
		p.Y += p.VY
		p.Life -= HoldDecay
		p.Opacity = math.Max(HoldOpacityMin, p.Opacity-HoldFadeOut)
	}
}

func (f *Field) dead(p Particle, stage cycle.Stage, minDim float64) bool {
	if p.Life <= 0 {
		return true
	}
	d := p.Dist()
	if stage == cycle.Inhale && d < CenterCull {
		return true
	}
	return d > OuterCull*minDim
}

// Snapshot returns a copy of the live particles for rendering.
func (f *Field) Snapshot() []Particle {
	out := make([]Particle, len(f.particles))
	copy(out, f.particles)
	return out
}

func (f *Field) Len() int { return len(f.particles) }

// Reset drops every particle. IDs keep increasing.
func (f *Field) Reset() { f.particles = f.particles[:0] }

// Stats returns lifetime emitted and culled counts.
func (f *Field) Stats() (emitted, culled uint64) { return f.emitted, f.culled }
