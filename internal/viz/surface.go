package viz

import (
	"math"

	"github.com/san-kum/breathsim/internal/render"
)

// Flattening resolution for canvas drawing.
const (
	curveSteps = 6
	arcSteps   = 96
	fillStep   = 2
	dimOpacity = 0.35
)

// Surface draws frames onto a braille canvas. Frame coordinates are canvas
// sub-pixels, so hosts size the loop with Canvas.Pixels.
type Surface struct {
	canvas *Canvas
	last   render.Frame
	drawn  int
}

func NewSurface(cols, rows int) *Surface {
	return &Surface{canvas: NewCanvas(cols, rows)}
}

func (s *Surface) Canvas() *Canvas { return s.canvas }

// Resize replaces the canvas. The next Draw fills it.
func (s *Surface) Resize(cols, rows int) { s.canvas = NewCanvas(cols, rows) }

// Frame is the most recently drawn frame.
func (s *Surface) Frame() render.Frame { return s.last }

// Draws counts Draw calls.
func (s *Surface) Draws() int { return s.drawn }

func (s *Surface) Draw(f render.Frame) {
	c := s.canvas
	c.Clear()

	// ring track is dotted, the swept arc solid
	c.SetPen(f.Ring.Track.Hex())
	track := f.Ring
	track.EndAngle = 2 * math.Pi
	for i, p := range track.Arc(arcSteps) {
		if i%3 == 0 {
			c.Set(round(p.X), round(p.Y))
		}
	}
	if f.Ring.EndAngle > 0 {
		c.SetPen(f.Ring.Color.Hex())
		xs, ys := split(f.Ring.Arc(arcSteps))
		c.DrawPolyline(xs, ys)
	}

	if len(f.Blob.Segments) > 0 {
		c.SetPen(f.BlobFill.Hex())
		xs, ys := split(f.Blob.Flatten(curveSteps))
		c.FillPolygon(xs, ys, fillStep)
		c.DrawPolyline(xs, ys)
	}

	for _, seg := range f.Particles {
		if seg.Opacity <= 0 {
			continue
		}
		c.SetPen(seg.Color.Hex())
		if seg.Opacity < dimOpacity {
			c.Set(round(seg.From.X), round(seg.From.Y))
			continue
		}
		c.DrawLine(round(seg.From.X), round(seg.From.Y), round(seg.To.X), round(seg.To.Y))
	}
	c.SetPen("")

	s.last = f
	s.drawn++
}

func split(pts []render.Point) (xs, ys []float64) {
	xs = make([]float64, len(pts))
	ys = make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}
