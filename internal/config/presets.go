package config

import (
	"fmt"
	"sort"
)

// Preset is a named breathing pattern in seconds.
type Preset struct {
	Description string
	Inhale      float64
	HoldFull    float64
	Exhale      float64
	HoldEmpty   float64
}

var Presets = map[string]Preset{
	"box": {
		Description: "equal four second sides",
		Inhale:      4,
		HoldFull:    4,
		Exhale:      4,
		HoldEmpty:   4,
	},
	"relax": {
		Description: "4-7-8 for winding down",
		Inhale:      4,
		HoldFull:    7,
		Exhale:      8,
		HoldEmpty:   0,
	},
	"coherent": {
		Description: "about five and a half breaths a minute",
		Inhale:      5.5,
		HoldFull:    0,
		Exhale:      5.5,
		HoldEmpty:   0,
	},
	"calm": {
		Description: "short holds between even breaths",
		Inhale:      4,
		HoldFull:    2,
		Exhale:      4,
		HoldEmpty:   2,
	},
}

func GetPreset(name string) (Preset, bool) {
	p, ok := Presets[name]
	return p, ok
}

// ListPresets returns preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset overwrites the stage durations of c.
func (c *Config) ApplyPreset(name string) error {
	p, ok := Presets[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	c.Inhale, c.HoldFull, c.Exhale, c.HoldEmpty = p.Inhale, p.HoldFull, p.Exhale, p.HoldEmpty
	return nil
}

// NextPreset returns the preset after current in sorted order, wrapping.
func NextPreset(current string) string {
	names := ListPresets()
	for i, n := range names {
		if n == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}
