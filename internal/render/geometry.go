package render

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

type Point struct{ X, Y float64 }

func (p Point) Add(q Point) Point     { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }
func (p Point) Dist(q Point) float64  { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// polar places a point at radius r and angle radians clockwise from twelve o'clock.
func polar(c Point, r, angle float64) Point {
	return Point{c.X + r*math.Sin(angle), c.Y - r*math.Cos(angle)}
}

// CubicSegment continues a path from its previous end point.
type CubicSegment struct {
	C1, C2, To Point
}

// Path is a closed outline made of cubic Bézier segments.
type Path struct {
	Start    Point
	Segments []CubicSegment
}

// ClosedBSpline converts control points of a closed uniform cubic B-spline
// into Bézier segments, one per control point.
func ClosedBSpline(pts []Point) Path {
	n := len(pts)
	if n < 3 {
		var p Path
		if n > 0 {
			p.Start = pts[0]
		}
		return p
	}

	at := func(i int) Point { return pts[((i%n)+n)%n] }
	path := Path{Segments: make([]CubicSegment, 0, n)}
	for i := 0; i < n; i++ {
		p0, p1, p2, p3 := at(i-1), at(i), at(i+1), at(i+2)
		b0 := p0.Add(p1.Scale(4)).Add(p2).Scale(1.0 / 6)
		if i == 0 {
			path.Start = b0
		}
		path.Segments = append(path.Segments, CubicSegment{
			C1: p1.Scale(2).Add(p2).Scale(1.0 / 3),
			C2: p1.Add(p2.Scale(2)).Scale(1.0 / 3),
			To: p1.Add(p2.Scale(4)).Add(p3).Scale(1.0 / 6),
		})
	}
	return path
}

// Flatten samples each segment at steps evenly spaced parameters. The result
// starts and ends at Start.
func (p Path) Flatten(steps int) []Point {
	if steps < 1 {
		steps = 1
	}
	out := make([]Point, 0, 1+len(p.Segments)*steps)
	out = append(out, p.Start)
	from := p.Start
	for _, s := range p.Segments {
		for k := 1; k <= steps; k++ {
			out = append(out, s.eval(from, float64(k)/float64(steps)))
		}
		from = s.To
	}
	return out
}

func (s CubicSegment) eval(from Point, t float64) Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*from.X + b*s.C1.X + c*s.C2.X + d*s.To.X,
		Y: a*from.Y + b*s.C1.Y + c*s.C2.Y + d*s.To.Y,
	}
}

// Ring is the stage progress indicator: a faint full circle with an arc
// swept clockwise from twelve o'clock.
type Ring struct {
	Center     Point
	Radius     float64
	Width      float64
	EndAngle   float64
	Track      colorful.Color
	TrackAlpha float64
	Color      colorful.Color
}

// PointAt is the position on the ring at angle radians from twelve o'clock.
func (r Ring) PointAt(angle float64) Point { return polar(r.Center, r.Radius, angle) }

// Arc flattens the swept part of the ring.
func (r Ring) Arc(steps int) []Point {
	if steps < 1 {
		steps = 1
	}
	out := make([]Point, steps+1)
	for i := range out {
		out[i] = r.PointAt(r.EndAngle * float64(i) / float64(steps))
	}
	return out
}

// Segment is a particle drawn as a short trail.
type Segment struct {
	From, To Point
	Width    float64
	Opacity  float64
	Color    colorful.Color
}

// Text is a HUD string. Changed is set only on frames where Value differs
// from the previous frame.
type Text struct {
	Value   string
	Visible bool
	Changed bool
	Color   colorful.Color
}
