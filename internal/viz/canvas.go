package viz

import (
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a braille pixel grid with one colour per cell. The last colour
// written to a cell wins.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Colors        [][]string
	pen           string
}

func NewCanvas(w, h int) *Canvas {
	w, h = max(w, 1), max(h, 1)
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Colors: make([][]string, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Colors[i] = make([]string, w)
	}
	c.Clear()
	return c
}

// Pixels is the canvas size in sub-pixels.
func (c *Canvas) Pixels() (w, h int) { return c.Width * 2, c.Height * 4 }

// SetPen selects the colour for subsequent drawing. Empty means default.
func (c *Canvas) SetPen(hex string) { c.pen = hex }

// Set sets a pixel at (x, y) in sub-pixel coordinates.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	if c.pen != "" {
		c.Colors[row][col] = c.pen
	}
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Colors[i][j] = ""
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawPolyline joins consecutive points.
func (c *Canvas) DrawPolyline(xs, ys []float64) {
	for i := 1; i < len(xs) && i < len(ys); i++ {
		c.DrawLine(round(xs[i-1]), round(ys[i-1]), round(xs[i]), round(ys[i]))
	}
}

// FillPolygon fills a closed polygon with an even-odd scanline, setting
// every step-th pixel on every step-th row.
func (c *Canvas) FillPolygon(xs, ys []float64, step int) {
	n := min(len(xs), len(ys))
	if n < 3 {
		return
	}
	step = max(step, 1)

	minY, maxY := ys[0], ys[0]
	for _, y := range ys[:n] {
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	_, ph := c.Pixels()
	y0, y1 := max(int(math.Ceil(minY)), 0), min(int(math.Floor(maxY)), ph-1)

	var cross []float64
	for y := y0; y <= y1; y += step {
		fy := float64(y)
		cross = cross[:0]
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			a, b := ys[i], ys[j]
			if (a <= fy && b > fy) || (b <= fy && a > fy) {
				cross = append(cross, xs[i]+(fy-a)/(b-a)*(xs[j]-xs[i]))
			}
		}
		sort.Float64s(cross)
		for k := 0; k+1 < len(cross); k += 2 {
			for x := int(math.Ceil(cross[k])); float64(x) <= cross[k+1]; x++ {
				if x%step == 0 {
					c.Set(x, y)
				}
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.Colors[i][j] == c.Colors[i][start] {
				continue
			}
			run := string(row[start:j])
			if hex := c.Colors[i][start]; hex != "" {
				run = lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(run)
			}
			b.WriteString(run)
			start = j
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Plain returns the grid without colour codes.
func (c *Canvas) Plain() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func round(v float64) int { return int(math.Round(v)) }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
