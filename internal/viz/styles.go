package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Night palette matching the default breathing theme.
var (
	GlassPanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2a3550")).
			Padding(1, 2)

	Subtle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5b6b8c"))

	StatusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7dd3fc"))
	StatusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fbbf24"))
	StatusMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171"))

	MetricValue = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#93c5fd"))
	MetricLabel = lipgloss.NewStyle().Width(10).Foreground(lipgloss.Color("#94a3b8"))

	KeyHint = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#5b6b8c"))

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#e0f2fe")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#2a3550"))
)

// GradientText colours each rune of text along a blend from start to end.
func GradientText(text, start, end string) string {
	if len(text) == 0 {
		return ""
	}
	a, errA := colorful.Hex(start)
	b, errB := colorful.Hex(end)
	if errA != nil || errB != nil {
		return text
	}

	runes := []rune(text)
	last := max(len(runes)-1, 1)
	var sb strings.Builder
	for i, r := range runes {
		hex := a.BlendRgb(b, float64(i)/float64(last)).Hex()
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(string(r)))
	}
	return sb.String()
}

// ProgressBar renders a bar filled to percent in colour hex.
func ProgressBar(percent float64, width int, hex string) string {
	filled := int(percent * float64(width))
	filled = min(max(filled, 0), width)

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	return style.Render(strings.Repeat("█", filled)) + Subtle.Render(strings.Repeat("░", width-filled))
}

// SparklineChart renders the last width values as a sparkline in [lo, hi].
func SparklineChart(values []float64, width int, lo, hi float64, hex string) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	values = values[max(len(values)-width, 0):]

	line := make([]rune, len(values))
	top := len(sparkLevels) - 1
	for i, v := range values {
		line[i] = sparkLevels[min(max(int((v-lo)/span*float64(top)), 0), top)]
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(string(line))
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Separator is a rule with a small circle in the middle.
func Separator(width int) string {
	half := max(width/2-2, 0)
	return Subtle.Render(strings.Repeat("─", half) + " ○ " + strings.Repeat("─", max(width-half-3, 0)))
}
