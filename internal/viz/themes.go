package viz

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/breathsim/internal/render"
)

// Theme pairs the breathing colours with the TUI chrome.
type Theme struct {
	Name   string
	Breath render.Theme
	Muted  lipgloss.Color
	Border lipgloss.Color
}

// Primary is the inhale colour, used for highlights.
func (t Theme) Primary() lipgloss.Color { return lipgloss.Color(t.Breath.InhaleColor) }

// Secondary is the exhale text colour.
func (t Theme) Secondary() lipgloss.Color { return lipgloss.Color(t.Breath.ExhaleTextColor) }

// Available themes
var (
	ThemeOcean = Theme{
		Name:   "ocean",
		Breath: render.DefaultTheme(),
		Muted:  lipgloss.Color("#4488aa"),
		Border: lipgloss.Color("#2a3550"),
	}

	ThemeSunset = Theme{
		Name: "sunset",
		Breath: render.Theme{
			InhaleColor:     "#ff9f6b",
			ExhaleColor:     "#7a2e4a",
			InhaleTextColor: "#fff5f5",
			ExhaleTextColor: "#feca57",
			BackgroundColor: "#2d1b2e",
		},
		Muted:  lipgloss.Color("#8b6b8c"),
		Border: lipgloss.Color("#4a2f4b"),
	}

	ThemeForest = Theme{
		Name: "forest",
		Breath: render.Theme{
			InhaleColor:     "#86efac",
			ExhaleColor:     "#14532d",
			InhaleTextColor: "#f0fdf4",
			ExhaleTextColor: "#bbf7d0",
			BackgroundColor: "#0b1a12",
		},
		Muted:  lipgloss.Color("#4d7c5f"),
		Border: lipgloss.Color("#1f3b2a"),
	}

	ThemeMinimal = Theme{
		Name: "minimal",
		Breath: render.Theme{
			InhaleColor:     "#ffffff",
			ExhaleColor:     "#555555",
			InhaleTextColor: "#ffffff",
			ExhaleTextColor: "#cccccc",
			BackgroundColor: "#000000",
		},
		Muted:  lipgloss.Color("#888888"),
		Border: lipgloss.Color("#333333"),
	}

	// All available themes
	Themes = []Theme{
		ThemeOcean,
		ThemeSunset,
		ThemeForest,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name, or a custom theme wrapping the
// configured colours when no built-in theme matches.
func GetTheme(name string, fallback render.Theme) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	custom := ThemeOcean
	custom.Name = "custom"
	custom.Breath = fallback
	return custom
}

// NextTheme cycles through the built-in themes.
func NextTheme(current string) Theme {
	for i, t := range Themes {
		if t.Name == current {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
