package gui

import (
	"math"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/breathsim/internal/render"
)

// Text placement relative to the blob centre at the 600px reference size.
const (
	curveSteps      = 12
	ringSegments    = 96
	phaseFontSize   = 13
	phaseOffset     = -40
	counterFontSize = 64
	counterOffset   = 24
)

// Surface keeps the latest frame until the window paints it. The loop
// draws from inside the frame pump, so painting happens between
// BeginDrawing and EndDrawing in Paint.
type Surface struct {
	frame render.Frame
	drawn int
}

func (s *Surface) Draw(f render.Frame) {
	s.frame = f
	s.drawn++
}

func (s *Surface) Frame() render.Frame { return s.frame }

func toColor(c colorful.Color, alpha float64) rl.Color {
	r, g, b := c.RGB255()
	return rl.NewColor(r, g, b, uint8(math.Round(clamp01(alpha)*255)))
}

func clamp01(v float64) float64 { return math.Max(0, math.Min(1, v)) }

func vec(p render.Point) rl.Vector2 { return rl.NewVector2(float32(p.X), float32(p.Y)) }

// Paint draws the current frame with the given font.
func (s *Surface) Paint(font rl.Font) {
	f := s.frame
	rl.ClearBackground(toColor(f.Background, 1))
	if f.Width <= 0 || f.Height <= 0 {
		return
	}
	paintRing(f.Ring)
	paintBlob(f.Blob, f.Center, f.BlobFill)
	paintParticles(f.Particles)
	paintText(font, f)
}

// Raylib angles run clockwise from three o'clock in screen space; ring
// angles run clockwise from twelve.
func paintRing(r render.Ring) {
	inner := float32(r.Radius - r.Width/2)
	outer := float32(r.Radius + r.Width/2)
	c := vec(r.Center)
	rl.DrawRing(c, inner, outer, 0, 360, ringSegments, toColor(r.Track, r.TrackAlpha))
	if r.EndAngle <= 0 {
		return
	}
	end := float32(r.EndAngle*180/math.Pi) - 90
	rl.DrawRing(c, inner, outer, -90, end, ringSegments, toColor(r.Color, 1))
}

func paintBlob(p render.Path, center render.Point, fill colorful.Color) {
	if len(p.Segments) == 0 {
		return
	}
	pts := p.Flatten(curveSteps)
	col := toColor(fill, 1)
	c := vec(center)
	ccw := signedArea(pts) < 0
	for i := range pts {
		a, b := vec(pts[i]), vec(pts[(i+1)%len(pts)])
		if ccw {
			rl.DrawTriangle(c, a, b, col)
		} else {
			rl.DrawTriangle(c, b, a, col)
		}
	}
	outline := make([]rl.Vector2, len(pts)+1)
	for i, q := range pts {
		outline[i] = vec(q)
	}
	outline[len(pts)] = outline[0]
	rl.DrawLineStrip(outline, col)
}

// signedArea is positive for clockwise winding in screen coordinates.
func signedArea(pts []render.Point) float64 {
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return a / 2
}

func paintParticles(segs []render.Segment) {
	for _, seg := range segs {
		if seg.Opacity <= 0 {
			continue
		}
		rl.DrawLineEx(vec(seg.From), vec(seg.To), float32(math.Max(seg.Width, 1)), toColor(seg.Color, seg.Opacity))
	}
}

func paintText(font rl.Font, f render.Frame) {
	if f.Phase.Visible {
		size := float32(phaseFontSize * f.Scale)
		centred(font, strings.ToUpper(f.Phase.Value), f.Center.X, f.Center.Y+phaseOffset*f.Scale, size, toColor(f.Phase.Color, 1))
	}
	if f.Counter.Visible && f.Counter.Value != "" {
		size := float32(counterFontSize * f.Scale)
		centred(font, f.Counter.Value, f.Center.X, f.Center.Y+counterOffset*f.Scale, size, toColor(f.Counter.Color, 1))
	}
}

func centred(font rl.Font, text string, x, y float64, size float32, col rl.Color) {
	m := rl.MeasureTextEx(font, text, size, 1)
	pos := rl.NewVector2(float32(x)-m.X/2, float32(y)-m.Y/2)
	rl.DrawTextEx(font, text, pos, size, 1, col)
}
