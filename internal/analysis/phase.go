package analysis

import (
	"strings"

	"github.com/san-kum/breathsim/internal/cycle"
)

// Point is one sample of a portrait.
type Point struct{ X, Y float64 }

// Portrait traces breath expansion (X) against its rate of change per
// second (Y). A box cycle draws a closed loop with flat edges for the holds.
type Portrait struct {
	Points []Point
}

// GeneratePortrait samples the cycle every dtMs for durationMs.
func GeneratePortrait(d cycle.Durations, dtMs, durationMs float64) (*Portrait, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Length() <= 0 {
		return nil, cycle.ErrDegenerateCycle
	}
	if dtMs <= 0 {
		dtMs = 1000.0 / 60
	}

	n := int(durationMs/dtMs + 1e-9)
	portrait := &Portrait{Points: make([]Point, 0, n)}

	prev, err := cycle.Compute(0, d)
	if err != nil {
		return nil, err
	}
	for i := 1; i <= n; i++ {
		st, err := cycle.Compute(float64(i)*dtMs, d)
		if err != nil {
			return nil, err
		}
		x := st.Expansion()
		portrait.Points = append(portrait.Points, Point{
			X: x,
			Y: (x - prev.Expansion()) / (dtMs / 1000),
		})
		prev = st
	}
	return portrait, nil
}

// Bounds returns the extent of the portrait with 10% padding on each side.
// A flat axis is widened to unit range.
func (p *Portrait) Bounds() (lo, hi Point) {
	lo, hi = p.Points[0], p.Points[0]
	for _, pt := range p.Points[1:] {
		lo = Point{min(lo.X, pt.X), min(lo.Y, pt.Y)}
		hi = Point{max(hi.X, pt.X), max(hi.Y, pt.Y)}
	}
	pad := func(a, b float64) (float64, float64) {
		if b == a {
			a, b = a-0.5, b+0.5
		}
		m := (b - a) * 0.1
		return a - m, b + m
	}
	lo.X, hi.X = pad(lo.X, hi.X)
	lo.Y, hi.Y = pad(lo.Y, hi.Y)
	return lo, hi
}

// PortraitToASCII plots a portrait as text. The zero rate line is drawn
// when it falls inside the plot.
func PortraitToASCII(portrait *Portrait, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}
	lo, hi := portrait.Bounds()
	cell := func(pt Point) (row, col int) {
		col = int((pt.X - lo.X) / (hi.X - lo.X) * float64(width-1))
		row = height - 1 - int((pt.Y-lo.Y)/(hi.Y-lo.Y)*float64(height-1))
		return row, col
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	if lo.Y <= 0 && hi.Y >= 0 {
		row, _ := cell(Point{})
		for c := range grid[row] {
			grid[row][c] = '─'
		}
	}
	for _, pt := range portrait.Points {
		if r, c := cell(pt); r >= 0 && r < height && c >= 0 && c < width {
			grid[r][c] = '•'
		}
	}

	var sb strings.Builder
	for _, line := range grid {
		sb.WriteString(string(line))
		sb.WriteByte('\n')
	}
	return sb.String()
}
