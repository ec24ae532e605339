package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/breathsim/internal/audio"
	"github.com/san-kum/breathsim/internal/cycle"
	"github.com/san-kum/breathsim/internal/particles"
	"github.com/san-kum/breathsim/internal/render"
	"github.com/san-kum/breathsim/internal/sim"
)

const (
	DefaultStage   = 4.0
	DefaultFPS     = 60.0
	DefaultSize    = 600.0
	DefaultSeconds = 60.0
	MaxStage       = 10.0
	MaxBreathGain  = 5.0
	MaxPingGain    = 3.0
)

var (
	ErrInvalidConfig = errors.New("config: invalid")
	ErrUnknownPreset = errors.New("config: unknown preset")
)

// Config is the on-disk session configuration. Stage durations are seconds.
type Config struct {
	Inhale    float64         `yaml:"inhale"`
	HoldFull  float64         `yaml:"hold_full"`
	Exhale    float64         `yaml:"exhale"`
	HoldEmpty float64         `yaml:"hold_empty"`
	Counter   string          `yaml:"counter"`
	Particles ParticlesConfig `yaml:"particles"`
	Theme     render.Theme    `yaml:"theme"`
	Audio     AudioConfig     `yaml:"audio"`
	AssetsDir string          `yaml:"assets_dir"`
	Tracks    []Track         `yaml:"tracks"`
	Seed      int64           `yaml:"seed"`
	FPS       float64         `yaml:"fps"`
	Duration  float64         `yaml:"duration"`
	Width     float64         `yaml:"width"`
	Height    float64         `yaml:"height"`
}

type ParticlesConfig struct {
	Size     float64 `yaml:"size"`
	Lifetime float64 `yaml:"lifetime"`
	Count    float64 `yaml:"count"`
}

type AudioConfig struct {
	Enabled      bool    `yaml:"enabled"`
	MasterVolume float64 `yaml:"master_volume"`
	Muted        bool    `yaml:"muted"`
	TrackVolume  float64 `yaml:"track_volume"`
	BreathVolume float64 `yaml:"breath_volume"`
	PingVolume   float64 `yaml:"ping_volume"`
	Track        string  `yaml:"track"`
}

// Track is one entry of the background music catalog. Source is a path,
// relative to AssetsDir unless absolute, or an http(s) URL.
type Track struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
}

func DefaultTracks() []Track {
	return []Track{
		{ID: "meditation", Name: "Short Meditation (3m)", Source: "meditation_music.mp3"},
		{ID: "focus", Name: "Deep Focus (Ambient)", Source: "music_2.mp3"},
		{ID: "flute", Name: "Spiritual Flute Music", Source: "music_3.mp3"},
	}
}

func DefaultConfig() *Config {
	a := audio.DefaultConfig()
	p := particles.DefaultConfig()
	return &Config{
		Inhale:    DefaultStage,
		HoldFull:  DefaultStage,
		Exhale:    DefaultStage,
		HoldEmpty: DefaultStage,
		Counter:   string(cycle.CounterTimer),
		Particles: ParticlesConfig{Size: p.Size, Lifetime: p.Lifetime, Count: p.Count},
		Theme:     render.DefaultTheme(),
		Audio: AudioConfig{
			MasterVolume: a.MasterVolume,
			TrackVolume:  a.TrackVolume,
			BreathVolume: a.BreathVolume,
			PingVolume:   a.PingVolume,
			Track:        "meditation",
		},
		AssetsDir: "audio",
		Tracks:    DefaultTracks(),
		FPS:       DefaultFPS,
		Duration:  DefaultSeconds,
		Width:     DefaultSize,
		Height:    DefaultSize,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	stages := []struct {
		name string
		v    float64
	}{
		{"inhale", c.Inhale},
		{"hold_full", c.HoldFull},
		{"exhale", c.Exhale},
		{"hold_empty", c.HoldEmpty},
	}
	for _, s := range stages {
		if s.v < 0 || s.v > MaxStage {
			return fmt.Errorf("%w: %s must be within [0, %g] seconds, got %g", ErrInvalidConfig, s.name, MaxStage, s.v)
		}
	}
	if c.Particles.Size < 0 || c.Particles.Lifetime < 0 || c.Particles.Count < 0 {
		return fmt.Errorf("%w: particle settings must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Theme.Parse(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	a := c.Audio
	if a.MasterVolume < 0 || a.MasterVolume > 1 || a.TrackVolume < 0 || a.TrackVolume > 1 {
		return fmt.Errorf("%w: volumes must be within [0, 1]", ErrInvalidConfig)
	}
	if a.BreathVolume < 0 || a.BreathVolume > MaxBreathGain {
		return fmt.Errorf("%w: breath_volume must be within [0, %g]", ErrInvalidConfig, MaxBreathGain)
	}
	if a.PingVolume < 0 || a.PingVolume > MaxPingGain {
		return fmt.Errorf("%w: ping_volume must be within [0, %g]", ErrInvalidConfig, MaxPingGain)
	}

	seen := make(map[string]bool, len(c.Tracks))
	for _, t := range c.Tracks {
		if t.ID == "" || t.Source == "" {
			return fmt.Errorf("%w: track needs id and source", ErrInvalidConfig)
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: duplicate track %q", ErrInvalidConfig, t.ID)
		}
		seen[t.ID] = true
	}
	if a.Track != "" && !seen[a.Track] {
		return fmt.Errorf("%w: unknown track %q", ErrInvalidConfig, a.Track)
	}

	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %g", ErrInvalidConfig, c.FPS)
	}
	if c.Duration < 0 || c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: duration and size must not be negative", ErrInvalidConfig)
	}
	return nil
}

// CycleDurations converts stage seconds to milliseconds.
func (c *Config) CycleDurations() cycle.Durations {
	return cycle.Durations{
		Inhale:    c.Inhale * 1000,
		HoldFull:  c.HoldFull * 1000,
		Exhale:    c.Exhale * 1000,
		HoldEmpty: c.HoldEmpty * 1000,
	}
}

func (c *Config) CounterMode() cycle.CounterMode { return cycle.ParseCounterMode(c.Counter) }

func (c *Config) Settings() sim.Settings {
	return sim.Settings{
		Durations: c.CycleDurations(),
		Particles: particles.Config{
			Size:     c.Particles.Size,
			Lifetime: c.Particles.Lifetime,
			Count:    c.Particles.Count,
		},
		Theme: c.Theme,
		Mode:  c.CounterMode(),
	}
}

func (c *Config) AudioConfig() audio.Config {
	return audio.Config{
		Enabled:      c.Audio.Enabled,
		MasterVolume: c.Audio.MasterVolume,
		Muted:        c.Audio.Muted,
		TrackVolume:  c.Audio.TrackVolume,
		BreathVolume: c.Audio.BreathVolume,
		PingVolume:   c.Audio.PingVolume,
		TrackID:      c.Audio.Track,
	}
}

// TrackSources maps track ids to loadable locations.
func (c *Config) TrackSources() map[string]string {
	out := make(map[string]string, len(c.Tracks))
	for _, t := range c.Tracks {
		out[t.ID] = c.resolve(t.Source)
	}
	return out
}

func (c *Config) resolve(source string) string {
	if c.AssetsDir == "" || filepath.IsAbs(source) || isURL(source) {
		return source
	}
	return filepath.Join(c.AssetsDir, source)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// TrackIndex returns the catalog position of id, or -1.
func (c *Config) TrackIndex(id string) int {
	for i, t := range c.Tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// NextTrack cycles to the catalog entry after the current one.
func (c *Config) NextTrack() string {
	if len(c.Tracks) == 0 {
		return ""
	}
	i := c.TrackIndex(c.Audio.Track)
	return c.Tracks[(i+1)%len(c.Tracks)].ID
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Tracks = append([]Track(nil), c.Tracks...)
	return &out
}
