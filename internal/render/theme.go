package render

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

var ErrInvalidColor = errors.New("render: invalid colour")

// Theme holds hex colours as they appear in configuration.
type Theme struct {
	InhaleColor     string `yaml:"inhale_color" json:"inhale_color"`
	ExhaleColor     string `yaml:"exhale_color" json:"exhale_color"`
	InhaleTextColor string `yaml:"inhale_text_color" json:"inhale_text_color"`
	ExhaleTextColor string `yaml:"exhale_text_color" json:"exhale_text_color"`
	BackgroundColor string `yaml:"background_color" json:"background_color"`
}

func DefaultTheme() Theme {
	return Theme{
		InhaleColor:     "#60a5fa",
		ExhaleColor:     "#1e3a8a",
		InhaleTextColor: "#ffffff",
		ExhaleTextColor: "#e0f2fe",
		BackgroundColor: "#1a1e2e",
	}
}

// Palette is a parsed Theme.
type Palette struct {
	Inhale, Exhale         colorful.Color
	InhaleText, ExhaleText colorful.Color
	Background             colorful.Color
}

// Parse validates every colour of t.
func (t Theme) Parse() (Palette, error) {
	var p Palette
	fields := []struct {
		name string
		hex  string
		dst  *colorful.Color
	}{
		{"inhale_color", t.InhaleColor, &p.Inhale},
		{"exhale_color", t.ExhaleColor, &p.Exhale},
		{"inhale_text_color", t.InhaleTextColor, &p.InhaleText},
		{"exhale_text_color", t.ExhaleTextColor, &p.ExhaleText},
		{"background_color", t.BackgroundColor, &p.Background},
	}
	for _, f := range fields {
		c, err := colorful.Hex(f.hex)
		if err != nil {
			return Palette{}, fmt.Errorf("%w: %s %q", ErrInvalidColor, f.name, f.hex)
		}
		*f.dst = c
	}
	return p, nil
}

// Fill is the contour colour at colour progress k (0 exhale, 1 inhale).
func (p Palette) Fill(k float64) colorful.Color {
	return p.Exhale.BlendRgb(p.Inhale, clamp01(k))
}

// Text is the HUD colour at colour progress k.
func (p Palette) Text(k float64) colorful.Color {
	return p.ExhaleText.BlendRgb(p.InhaleText, clamp01(k))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
