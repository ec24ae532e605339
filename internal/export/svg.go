package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/breathsim/internal/analysis"
	"github.com/san-kum/breathsim/internal/render"
)

// HUD layout at the reference size.
const (
	PhaseFontSize   = 13.0
	PhaseOffset     = -40.0
	CounterFontSize = 64.0
	CounterOffset   = 24.0
	ArcEpsilon      = 1e-6
)

// FrameToSVG draws one frame as a standalone SVG document.
func FrameToSVG(f render.Frame) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, f.Width, f.Height, f.Width, f.Height, f.Background.Hex())

	writeRing(&sb, f.Ring)

	if len(f.Blob.Segments) > 0 {
		fmt.Fprintf(&sb, `<path fill="%s" d="%s"/>
`, f.BlobFill.Hex(), PathData(f.Blob))
	}

	if len(f.Particles) > 0 {
		sb.WriteString(`<g stroke-linecap="round">
`)
		for _, s := range f.Particles {
			fmt.Fprintf(&sb, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.2f" stroke-opacity="%.3f"/>
`, s.From.X, s.From.Y, s.To.X, s.To.Y, s.Color.Hex(), s.Width, s.Opacity)
		}
		sb.WriteString("</g>\n")
	}

	writeText(&sb, f, f.Phase, PhaseOffset, PhaseFontSize, true)
	if f.Counter.Visible {
		writeText(&sb, f, f.Counter, CounterOffset, CounterFontSize, false)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// PathData renders a closed cubic path as SVG path data.
func PathData(p render.Path) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "M%.2f,%.2f", p.Start.X, p.Start.Y)
	for _, s := range p.Segments {
		fmt.Fprintf(&sb, " C%.2f,%.2f %.2f,%.2f %.2f,%.2f", s.C1.X, s.C1.Y, s.C2.X, s.C2.Y, s.To.X, s.To.Y)
	}
	sb.WriteString(" Z")
	return sb.String()
}

func writeRing(sb *strings.Builder, r render.Ring) {
	fmt.Fprintf(sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="%s" stroke-opacity="%.2f" stroke-width="%.2f"/>
`, r.Center.X, r.Center.Y, r.Radius, r.Track.Hex(), r.TrackAlpha, r.Width)

	switch {
	case r.EndAngle <= ArcEpsilon:
	case r.EndAngle >= 2*math.Pi-ArcEpsilon:
		fmt.Fprintf(sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="%s" stroke-width="%.2f"/>
`, r.Center.X, r.Center.Y, r.Radius, r.Color.Hex(), r.Width)
	default:
		start, end := r.PointAt(0), r.PointAt(r.EndAngle)
		large := 0
		if r.EndAngle > math.Pi {
			large = 1
		}
		fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="%.2f" stroke-linecap="round" d="M%.2f,%.2f A%.2f,%.2f 0 %d 1 %.2f,%.2f"/>
`, r.Color.Hex(), r.Width, start.X, start.Y, r.Radius, r.Radius, large, end.X, end.Y)
	}
}

func writeText(sb *strings.Builder, f render.Frame, t render.Text, offset, size float64, upper bool) {
	if !t.Visible || t.Value == "" {
		return
	}
	v := t.Value
	if upper {
		v = strings.ToUpper(v)
	}
	fmt.Fprintf(sb, `<text x="%.2f" y="%.2f" fill="%s" font-family="Inter, sans-serif" font-size="%.1f" text-anchor="middle" dominant-baseline="middle">%s</text>
`, f.Center.X, f.Center.Y+offset*f.Scale, t.Color.Hex(), size*f.Scale, escape(v))
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return xmlEscaper.Replace(s) }

// PortraitToSVG plots a phase portrait as a polyline.
func PortraitToSVG(p *analysis.Portrait, width, height int, strokeColor string) string {
	if p == nil || len(p.Points) < 2 {
		return ""
	}
	lo, hi := p.Bounds()
	minX, minY := lo.X, lo.Y
	rangeX, rangeY := hi.X-lo.X, hi.Y-lo.Y

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i, pt := range p.Points {
		x := (pt.X - minX) / rangeX * float64(width)
		y := float64(height) - (pt.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
