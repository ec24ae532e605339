package render

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/breathsim/internal/cycle"
	"github.com/san-kum/breathsim/internal/particles"
)

// Layout at the 600 pixel reference size.
const (
	ReferenceSize  = 600.0
	BaseRadius     = 120.0
	Growth         = 60.0
	RingOffset     = 100.0
	RingWidth      = 4.0
	RingTrackAlpha = 0.15
	BlobPoints     = 20
	NoiseSpeed     = 0.002
	NoiseAmplitude = 15.0
	PulseSpeed     = 0.005
	PulseAmplitude = 2.0
	TrailLength    = 3.0
)

// Surface draws frames. Implementations must not retain the frame's slices.
type Surface interface {
	Draw(Frame)
}

// Frame is everything drawn for one tick.
type Frame struct {
	Width, Height float64
	Center        Point
	Scale         float64
	Background    colorful.Color

	Blob      Path
	BlobFill  colorful.Color
	Radius    float64
	Ring      Ring
	Particles []Segment
	Phase     Text
	Counter   Text

	State   cycle.State
	Elapsed float64
}

// Input is what the coordinator needs for one frame.
type Input struct {
	Width, Height float64
	State         cycle.State
	Durations     cycle.Durations
	Elapsed       float64
	Mode          cycle.CounterMode
	Particles     []particles.Particle
	ParticleSize  float64
}

// Coordinator builds frames and remembers the HUD strings of the previous
// one. It is not safe for concurrent use.
type Coordinator struct {
	palette Palette

	drawn       bool
	lastPhase   string
	lastCounter string
}

func NewCoordinator(t Theme) (*Coordinator, error) {
	p, err := t.Parse()
	if err != nil {
		return nil, err
	}
	return &Coordinator{palette: p}, nil
}

// SetTheme swaps colours from the next frame on. An invalid theme is
// rejected and the current one kept.
func (c *Coordinator) SetTheme(t Theme) error {
	p, err := t.Parse()
	if err != nil {
		return err
	}
	c.palette = p
	return nil
}

func (c *Coordinator) Palette() Palette { return c.palette }

// Invalidate marks both HUD texts as changed on the next frame.
func (c *Coordinator) Invalidate() { c.drawn = false }

// Render computes the frame for in.
func (c *Coordinator) Render(in Input) Frame {
	minDim := math.Min(in.Width, in.Height)
	scale := math.Max(0, minDim/ReferenceSize)
	center := Point{in.Width / 2, in.Height / 2}
	st := in.State
	k := st.Expansion()

	radius := (BaseRadius + k*Growth) * scale

	f := Frame{
		Width:      in.Width,
		Height:     in.Height,
		Center:     center,
		Scale:      scale,
		Background: c.palette.Background,
		Blob:       Contour(center, radius, scale, st.Stage, in.Elapsed),
		BlobFill:   c.palette.Fill(k),
		Radius:     radius,
		Ring: Ring{
			Center:     center,
			Radius:     (BaseRadius + RingOffset) * scale,
			Width:      RingWidth * scale,
			EndAngle:   st.Progress * 2 * math.Pi,
			Track:      c.palette.Fill(k),
			TrackAlpha: RingTrackAlpha,
			Color:      c.palette.Fill(k),
		},
		State:   st,
		Elapsed: in.Elapsed,
	}

	text := c.palette.Text(k)
	f.Particles = make([]Segment, 0, len(in.Particles))
	for _, p := range in.Particles {
		pos := center.Add(Point{p.X, p.Y})
		f.Particles = append(f.Particles, Segment{
			From:    pos,
			To:      pos.Sub(Point{p.VX, p.VY}.Scale(TrailLength)),
			Width:   in.ParticleSize,
			Opacity: p.Opacity,
			Color:   text,
		})
	}

	phase := st.Stage.Label()
	counter := cycle.DisplayText(in.Mode, st, in.Durations, in.Elapsed)
	f.Phase = Text{Value: phase, Visible: true, Changed: !c.drawn || phase != c.lastPhase, Color: text}
	f.Counter = Text{
		Value:   counter,
		Visible: in.Mode != cycle.CounterOff,
		Changed: !c.drawn || counter != c.lastCounter,
		Color:   text,
	}
	c.drawn, c.lastPhase, c.lastCounter = true, phase, counter

	return f
}

// Contour is the breathing outline: BlobPoints radial samples perturbed by
// a slow sine field, with a small pulse while holding.
func Contour(center Point, radius, scale float64, stage cycle.Stage, elapsed float64) Path {
	t := elapsed * NoiseSpeed
	pulse := 0.0
	if stage.IsHold() {
		pulse = math.Sin(elapsed*PulseSpeed) * PulseAmplitude * scale
	}

	pts := make([]Point, BlobPoints)
	step := 2 * math.Pi / BlobPoints
	for i := range pts {
		fi := float64(i)
		noise := math.Sin(fi*0.5+t) * math.Cos(fi*0.3-t*0.5) * NoiseAmplitude * scale
		pts[i] = polar(center, radius+noise+pulse, fi*step)
	}
	return ClosedBSpline(pts)
}
