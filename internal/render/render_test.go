package render

import (
	"math"
	"testing"

	"github.com/san-kum/breathsim/internal/cycle"
	"github.com/san-kum/breathsim/internal/particles"
)

var box = cycle.Durations{Inhale: 4000, HoldFull: 4000, Exhale: 4000, HoldEmpty: 4000}

func newCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(DefaultTheme())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func input(elapsed float64, mode cycle.CounterMode) Input {
	st, _ := cycle.Compute(elapsed, box)
	return Input{Width: 800, Height: 600, State: st, Durations: box, Elapsed: elapsed, Mode: mode, ParticleSize: 5}
}

func TestClosedBSplineIsClosedAndContinuous(t *testing.T) {
	var pts []Point
	for i := 0; i < 8; i++ {
		a := float64(i) * math.Pi / 4
		pts = append(pts, Point{100 * math.Cos(a), 100 * math.Sin(a)})
	}
	path := ClosedBSpline(pts)
	if len(path.Segments) != 8 {
		t.Fatalf("expected 8 segments, got %d", len(path.Segments))
	}

	last := path.Segments[len(path.Segments)-1].To
	if last.Dist(path.Start) > 1e-9 {
		t.Errorf("path not closed: start %v end %v", path.Start, last)
	}

	// tangent continuity at every joint
	prevC2 := last.Sub(path.Segments[len(path.Segments)-1].C2)
	for i, s := range path.Segments {
		out := s.C1.Sub(startOf(path, i))
		if math.Abs(out.X-prevC2.X) > 1e-9 || math.Abs(out.Y-prevC2.Y) > 1e-9 {
			t.Errorf("segment %d: tangent break", i)
		}
		prevC2 = s.To.Sub(s.C2)
	}
}

func startOf(p Path, i int) Point {
	if i == 0 {
		return p.Start
	}
	return p.Segments[i-1].To
}

func TestFlattenStaysInsideHull(t *testing.T) {
	center := Point{300, 300}
	path := Contour(center, 150, 1, cycle.Inhale, 1234)
	pts := path.Flatten(8)
	if len(pts) != 1+BlobPoints*8 {
		t.Fatalf("expected %d points, got %d", 1+BlobPoints*8, len(pts))
	}
	if pts[0].Dist(pts[len(pts)-1]) > 1e-9 {
		t.Error("flattened path should end where it starts")
	}
	for _, p := range pts {
		d := p.Dist(center)
		if d > 150+NoiseAmplitude+1e-9 || d < (150-NoiseAmplitude)*0.95 {
			t.Fatalf("point at radius %.2f outside contour band", d)
		}
	}
}

func pathDiff(a, b Path) float64 {
	d := a.Start.Dist(b.Start)
	for i := range a.Segments {
		sa, sb := a.Segments[i], b.Segments[i]
		d = math.Max(d, math.Max(sa.C1.Dist(sb.C1), math.Max(sa.C2.Dist(sb.C2), sa.To.Dist(sb.To))))
	}
	return d
}

func TestContourPulseOnlyOnHolds(t *testing.T) {
	center := Point{300, 300}
	const r, elapsed = 150.0, 300.0
	pulse := PulseAmplitude * math.Sin(elapsed*PulseSpeed)
	if math.Abs(pulse) < 1 {
		t.Fatalf("pick an elapsed time with a visible pulse, got %v", pulse)
	}

	inhale := Contour(center, r, 1, cycle.Inhale, elapsed)
	if d := pathDiff(inhale, Contour(center, r, 1, cycle.Exhale, elapsed)); d > 1e-9 {
		t.Errorf("inhale and exhale contours differ by %v", d)
	}

	for _, s := range []cycle.Stage{cycle.HoldFull, cycle.HoldEmpty} {
		hold := Contour(center, r, 1, s, elapsed)
		if pathDiff(hold, inhale) < 1 {
			t.Errorf("%v: expected the pulse to move the contour", s)
		}
		// the pulse is a uniform radial offset
		if d := pathDiff(hold, Contour(center, r+pulse, 1, cycle.Inhale, elapsed)); d > 1e-9 {
			t.Errorf("%v: contour is not the base contour grown by %v (off by %v)", s, pulse, d)
		}
	}

	if d := pathDiff(Contour(center, r, 1, cycle.HoldFull, 0), Contour(center, r, 1, cycle.Inhale, 0)); d > 1e-9 {
		t.Errorf("pulse should be zero at elapsed 0, off by %v", d)
	}
}

func TestRenderGeometryScales(t *testing.T) {
	c := newCoordinator(t)

	// holdFull at 6000ms: fully expanded
	f := c.Render(input(6000, cycle.CounterTimer))
	if f.Scale != 1 {
		t.Errorf("expected scale 1 for 600px, got %.3f", f.Scale)
	}
	if f.Center != (Point{400, 300}) {
		t.Errorf("unexpected centre %v", f.Center)
	}
	if f.Radius != BaseRadius+Growth {
		t.Errorf("expected radius %.0f, got %.2f", BaseRadius+Growth, f.Radius)
	}
	if f.Ring.Radius != BaseRadius+RingOffset || f.Ring.Width != RingWidth {
		t.Errorf("unexpected ring %+v", f.Ring)
	}

	in := input(6000, cycle.CounterTimer)
	in.Width, in.Height = 1200, 1500
	big := c.Render(in)
	if big.Scale != 2 || big.Radius != 2*(BaseRadius+Growth) {
		t.Errorf("expected doubled geometry, got scale %.2f radius %.2f", big.Scale, big.Radius)
	}
}

func TestRingSweep(t *testing.T) {
	c := newCoordinator(t)
	f := c.Render(input(2000, cycle.CounterTimer))

	want := f.State.Progress * 2 * math.Pi
	if math.Abs(f.Ring.EndAngle-want) > 1e-12 {
		t.Errorf("expected end angle %.3f, got %.3f", want, f.Ring.EndAngle)
	}
	arc := f.Ring.Arc(16)
	top := Point{f.Center.X, f.Center.Y - f.Ring.Radius}
	if arc[0].Dist(top) > 1e-9 {
		t.Errorf("arc should start at twelve o'clock, got %v", arc[0])
	}
	for _, p := range arc {
		if math.Abs(p.Dist(f.Center)-f.Ring.Radius) > 1e-9 {
			t.Fatal("arc point off the ring")
		}
	}
}

func TestColourFollowsExpansion(t *testing.T) {
	c := newCoordinator(t)
	pal := c.Palette()

	empty := c.Render(input(14000, cycle.CounterTimer)) // holdEmpty
	if empty.BlobFill.Hex() != pal.Exhale.Hex() {
		t.Errorf("expected exhale colour, got %s", empty.BlobFill.Hex())
	}
	full := c.Render(input(6000, cycle.CounterTimer)) // holdFull
	if full.BlobFill.Hex() != pal.Inhale.Hex() || full.Phase.Color.Hex() != pal.InhaleText.Hex() {
		t.Errorf("expected inhale colours, got %s %s", full.BlobFill.Hex(), full.Phase.Color.Hex())
	}
}

func TestHUDChangedOnlyOnNewText(t *testing.T) {
	c := newCoordinator(t)

	f := c.Render(input(100, cycle.CounterTimer))
	if !f.Phase.Changed || !f.Counter.Changed {
		t.Fatal("first frame should mark both texts changed")
	}
	if f.Phase.Value != "Inhale" || f.Counter.Value != "4" {
		t.Errorf("unexpected HUD %q %q", f.Phase.Value, f.Counter.Value)
	}

	f = c.Render(input(200, cycle.CounterTimer))
	if f.Phase.Changed || f.Counter.Changed {
		t.Error("unchanged text should not be marked changed")
	}

	f = c.Render(input(1100, cycle.CounterTimer))
	if f.Phase.Changed || !f.Counter.Changed || f.Counter.Value != "3" {
		t.Errorf("expected only the counter to change, got %+v %+v", f.Phase, f.Counter)
	}

	f = c.Render(input(4100, cycle.CounterTimer))
	if !f.Phase.Changed || f.Phase.Value != "Hold" {
		t.Errorf("expected phase change to Hold, got %+v", f.Phase)
	}

	c.Invalidate()
	f = c.Render(input(4200, cycle.CounterTimer))
	if !f.Phase.Changed || !f.Counter.Changed {
		t.Error("invalidate should force both texts")
	}

	f = c.Render(input(4300, cycle.CounterOff))
	if f.Counter.Visible || f.Counter.Value != "" {
		t.Errorf("counter should be hidden in off mode, got %+v", f.Counter)
	}
}

func TestParticleSegments(t *testing.T) {
	c := newCoordinator(t)
	in := input(9000, cycle.CounterTimer)
	in.Particles = []particles.Particle{{ID: 1, X: 10, Y: -20, VX: 1, VY: 2, Opacity: 0.5}}

	f := c.Render(in)
	if len(f.Particles) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(f.Particles))
	}
	s := f.Particles[0]
	if s.From != (Point{410, 280}) || s.To != (Point{407, 274}) {
		t.Errorf("unexpected segment %v -> %v", s.From, s.To)
	}
	if s.Width != 5 || s.Opacity != 0.5 {
		t.Errorf("unexpected style %+v", s)
	}
}

func TestThemeValidation(t *testing.T) {
	bad := DefaultTheme()
	bad.ExhaleColor = "navy"
	if _, err := NewCoordinator(bad); err == nil {
		t.Error("expected invalid colour error")
	}

	c := newCoordinator(t)
	if err := c.SetTheme(bad); err == nil {
		t.Error("expected SetTheme to reject invalid colour")
	}
	if c.Palette().Exhale.Hex() != "#1e3a8a" {
		t.Error("rejected theme should leave palette unchanged")
	}
}

func TestDegenerateStateRenders(t *testing.T) {
	c := newCoordinator(t)
	f := c.Render(Input{Width: 300, Height: 300, State: cycle.Fallback(), Mode: cycle.CounterBreaths})
	if f.Counter.Value != "0" || f.Phase.Value != "Hold" {
		t.Errorf("unexpected HUD %q %q", f.Phase.Value, f.Counter.Value)
	}
	if len(f.Blob.Segments) != BlobPoints {
		t.Errorf("expected %d segments, got %d", BlobPoints, len(f.Blob.Segments))
	}
}
