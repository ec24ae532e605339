package gui

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/san-kum/breathsim/internal/config"
	"github.com/san-kum/breathsim/internal/sim"
	"github.com/san-kum/breathsim/internal/viz"
)

// Chrome colours for the menu and HUD.
var (
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(90, 90, 90, 255)
	ColError   = rl.NewColor(255, 80, 80, 255)
)

const (
	windowSize = 720
	stageStep  = 0.5
	volumeStep = 0.05
)

var stageNames = []string{"inhale", "hold_full", "exhale", "hold_empty"}

type Options struct {
	Config *config.Config
	Audio  viz.Audio
	Logger *zap.Logger
	Rand   *rand.Rand
	// Preset skips the menu and starts that pattern.
	Preset string
	// Updates delivers reloaded configuration files.
	Updates <-chan *config.Config
}

// App is the windowed host: a preset menu, a stage editor and the live
// breathing view.
type App struct {
	cfg    *config.Config
	audio  viz.Audio
	log    *zap.Logger
	reload <-chan *config.Config

	loop    *sim.Loop
	pump    *sim.PumpScheduler
	surface *Surface
	font    rl.Font
	theme   viz.Theme

	InMenu   bool
	InConfig bool
	Presets  []string
	Selected int
	ParamSel int
	preset   string
	status   string
	quit     bool
}

func initWindow() {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(windowSize, windowSize, "breathsim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

func loadFont() rl.Font {
	font := rl.LoadFontEx("/usr/share/fonts/liberation/LiberationMono-Regular.ttf", 64, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

// NewApp needs an open window.
func NewApp(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		cfg:     cfg.Clone(),
		audio:   opts.Audio,
		log:     log.Named("gui"),
		reload:  opts.Updates,
		pump:    sim.NewPumpScheduler(),
		surface: &Surface{},
		font:    loadFont(),
		InMenu:  opts.Preset == "",
		Presets: append([]string{"custom"}, config.ListPresets()...),
		preset:  opts.Preset,
	}
	a.theme = viz.GetTheme("", a.cfg.Theme)
	for _, t := range viz.Themes {
		if t.Breath == a.cfg.Theme {
			a.theme = t
		}
	}
	if opts.Preset != "" {
		if err := a.cfg.ApplyPreset(opts.Preset); err != nil {
			return nil, err
		}
	}

	loop, err := sim.New(a.cfg.Settings(), sim.Options{
		Scheduler: a.pump,
		Audio:     opts.Audio,
		Surface:   a.surface,
		Rand:      opts.Rand,
		Logger:    log,
		Width:     float64(rl.GetScreenWidth()),
		Height:    float64(rl.GetScreenHeight()),
	})
	if err != nil {
		return nil, err
	}
	a.loop = loop
	a.applyAudio()
	if !a.InMenu {
		a.loop.Start()
	}
	return a, nil
}

// Run opens the window and blocks until it is closed.
func Run(opts Options) error {
	initWindow()
	defer rl.CloseWindow()
	app, err := NewApp(opts)
	if err != nil {
		return err
	}
	defer app.loop.Stop()
	app.RunLoop()
	return nil
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() && !a.quit {
		select {
		case cfg, ok := <-a.reload:
			if ok {
				a.applyConfig(cfg)
			} else {
				a.reload = nil
			}
		default:
		}
		a.Update()
		a.pump.Fire(time.Now())
		a.Draw()
	}
}

func (a *App) Update() {
	if rl.IsWindowResized() {
		a.loop.Resize(float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight()))
	}
	if rl.IsKeyPressed(rl.KeyQ) {
		a.quit = true
		return
	}

	if a.InMenu {
		a.updateMenu()
		return
	}
	if a.InConfig {
		a.updateConfig()
		return
	}
	a.updateSession()
}

func (a *App) updateMenu() {
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.Selected = (a.Selected + 1) % len(a.Presets)
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.Selected = (a.Selected - 1 + len(a.Presets)) % len(a.Presets)
	}
	if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
		a.preset = ""
		if name := a.Presets[a.Selected]; name != "custom" {
			a.cfg.ApplyPreset(name)
			a.preset = name
		}
		a.InMenu, a.InConfig, a.ParamSel = false, true, 0
	}
}

func (a *App) updateConfig() {
	if rl.IsKeyPressed(rl.KeyEscape) {
		a.InMenu, a.InConfig = true, false
		return
	}
	if rl.IsKeyPressed(rl.KeyEnter) {
		a.InConfig = false
		a.applySettings()
		a.loop.Restart()
		a.loop.Start()
		return
	}
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.ParamSel = (a.ParamSel + 1) % len(stageNames)
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.ParamSel = (a.ParamSel - 1 + len(stageNames)) % len(stageNames)
	}
	step := stageStep
	if rl.IsKeyDown(rl.KeyLeftShift) {
		step = 2 * stageStep
	}
	if rl.IsKeyPressed(rl.KeyRight) || rl.IsKeyPressed(rl.KeyL) {
		a.setStage(a.ParamSel, *a.stage(a.ParamSel)+step)
	}
	if rl.IsKeyPressed(rl.KeyLeft) || rl.IsKeyPressed(rl.KeyH) {
		a.setStage(a.ParamSel, *a.stage(a.ParamSel)-step)
	}
}

func (a *App) stage(i int) *float64 {
	switch i {
	case 0:
		return &a.cfg.Inhale
	case 1:
		return &a.cfg.HoldFull
	case 2:
		return &a.cfg.Exhale
	default:
		return &a.cfg.HoldEmpty
	}
}

func (a *App) setStage(i int, v float64) {
	lo := 0.0
	if i == 0 || i == 2 {
		lo = stageStep
	}
	*a.stage(i) = math.Min(config.MaxStage, math.Max(lo, v))
}

func (a *App) updateSession() {
	switch {
	case rl.IsKeyPressed(rl.KeyEscape):
		a.loop.Stop()
		a.InMenu = true
	case rl.IsKeyPressed(rl.KeySpace):
		a.loop.Toggle()
	case rl.IsKeyPressed(rl.KeyR):
		a.loop.Restart()
	case rl.IsKeyPressed(rl.KeyM):
		a.cfg.Audio.Muted = !a.cfg.Audio.Muted
		a.applyAudio()
	case rl.IsKeyPressed(rl.KeyA):
		a.cfg.Audio.Enabled = !a.cfg.Audio.Enabled
		a.applyAudio()
	case rl.IsKeyPressed(rl.KeyEqual), rl.IsKeyPressed(rl.KeyKpAdd):
		a.cfg.Audio.MasterVolume = math.Min(1, a.cfg.Audio.MasterVolume+volumeStep)
		a.applyAudio()
	case rl.IsKeyPressed(rl.KeyMinus), rl.IsKeyPressed(rl.KeyKpSubtract):
		a.cfg.Audio.MasterVolume = math.Max(0, a.cfg.Audio.MasterVolume-volumeStep)
		a.applyAudio()
	case rl.IsKeyPressed(rl.KeyK):
		a.cfg.Audio.Track = a.cfg.NextTrack()
		a.applyAudio()
	case rl.IsKeyPressed(rl.KeyC):
		a.cfg.Counter = string(a.cfg.CounterMode().Next())
		a.applySettings()
	case rl.IsKeyPressed(rl.KeyN):
		a.preset = config.NextPreset(a.preset)
		if err := a.cfg.ApplyPreset(a.preset); err == nil {
			a.applySettings()
		}
	case rl.IsKeyPressed(rl.KeyT):
		a.theme = viz.NextTheme(a.theme.Name)
		a.cfg.Theme = a.theme.Breath
		a.applySettings()
	}
}

func (a *App) applySettings() {
	if err := a.loop.SetConfig(a.cfg.Settings()); err != nil {
		a.status = err.Error()
		a.log.Warn("settings rejected", zap.Error(err))
		return
	}
	a.status = ""
}

func (a *App) applyAudio() {
	if a.audio == nil {
		return
	}
	if err := a.audio.Apply(a.cfg.AudioConfig()); err != nil {
		a.status = err.Error()
		a.log.Debug("audio apply", zap.Error(err))
		return
	}
	a.status = ""
}

func (a *App) applyConfig(cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		a.status = err.Error()
		a.log.Warn("config rejected", zap.Error(err))
		return
	}
	a.cfg = cfg.Clone()
	a.preset = ""
	a.applySettings()
	a.applyAudio()
	a.log.Info("config applied")
}

func (a *App) Draw() {
	rl.BeginDrawing()
	switch {
	case a.InMenu:
		rl.ClearBackground(toColor(a.surface.Frame().Background, 1))
		a.drawMenu()
	case a.InConfig:
		rl.ClearBackground(toColor(a.surface.Frame().Background, 1))
		a.drawConfig()
	default:
		a.surface.Paint(a.font)
		a.DrawHUD()
	}
	rl.EndDrawing()
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

func (a *App) DrawHUD() {
	h := rl.GetScreenHeight()
	a.drawText("breathsim", 20, 20, 20, ColSelect)

	status, col := "BREATHING", ColSelect
	if !a.loop.Running() {
		status, col = "PAUSED", ColTextDim
	}
	a.drawText(status, 20, 46, 14, col)

	p := fmt.Sprintf("%g-%g-%g-%g", a.cfg.Inhale, a.cfg.HoldFull, a.cfg.Exhale, a.cfg.HoldEmpty)
	if a.preset != "" {
		p += " " + a.preset
	}
	a.drawText(p, 20, 66, 14, ColText)
	a.drawText(a.audioLine(), 20, 84, 14, ColText)
	if a.status != "" {
		a.drawText(a.status, 20, 102, 14, ColError)
	}

	a.drawText("[SPACE] PAUSE  [R] RESTART  [N] PRESET  [T] THEME  [C] COUNTER", 20, h-44, 12, ColTextDim)
	a.drawText("[A] AUDIO  [M] MUTE  [+/-] VOLUME  [K] TRACK  [ESC] MENU  [Q] QUIT", 20, h-26, 12, ColTextDim)
}

func (a *App) audioLine() string {
	if a.audio == nil || !a.cfg.Audio.Enabled {
		return "audio off"
	}
	st := a.audio.Stats()
	if !st.Available {
		return "no output device"
	}
	vol := fmt.Sprintf("volume %.0f%%", a.cfg.Audio.MasterVolume*100)
	if a.cfg.Audio.Muted {
		vol = "muted"
	}
	if i := a.cfg.TrackIndex(st.Track); i >= 0 {
		return vol + "  " + a.cfg.Tracks[i].Name
	}
	return vol
}

func (a *App) drawMenu() {
	a.drawText("breathsim", 50, 50, 40, ColSelect)
	a.drawText("Select Pattern", 50, 100, 16, ColTextDim)

	y := 160
	for i, name := range a.Presets {
		desc := "from configuration"
		if p, ok := config.GetPreset(name); ok {
			desc = p.Description
		}
		if i == a.Selected {
			a.drawText(fmt.Sprintf("> %-10s %s", name, desc), 50, y, 20, ColSelect)
		} else {
			a.drawText(fmt.Sprintf("  %-10s %s", name, desc), 50, y, 20, ColText)
		}
		y += 28
	}

	a.drawText("ARROWS: NAVIGATE  ENTER: SELECT  Q: QUIT", 50, rl.GetScreenHeight()-40, 14, ColTextDim)
}

func (a *App) drawConfig() {
	name := a.preset
	if name == "" {
		name = "custom"
	}
	a.drawText("breathsim", 50, 50, 40, ColTextDim)
	a.drawText(name, 50, 100, 20, ColAccent)
	a.drawText("stage durations in seconds", 50, 128, 14, ColTextDim)

	y := 180
	for i, key := range stageNames {
		line := fmt.Sprintf("%-12s %5.1f", key, *a.stage(i))
		if i == a.ParamSel {
			a.drawText("> "+line, 50, y, 20, ColSelect)
		} else {
			a.drawText("  "+line, 50, y, 20, ColText)
		}
		y += 28
	}

	a.drawText("ARROWS: ADJUST  ENTER: START  ESC: BACK", 50, rl.GetScreenHeight()-40, 14, ColTextDim)
}
