package viz

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"go.uber.org/zap"

	"github.com/san-kum/breathsim/internal/audio"
	"github.com/san-kum/breathsim/internal/config"
	"github.com/san-kum/breathsim/internal/cycle"
	"github.com/san-kum/breathsim/internal/render"
	"github.com/san-kum/breathsim/internal/sim"
)

const (
	defaultCols     = 48
	defaultRows     = 20
	sidebarWidth    = 44
	historyCapacity = 240
	volumeStep      = 0.05
	frameInterval   = time.Second / 60
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(sidebarWidth)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171"))
)

// Audio is what the TUI needs from the audio engine.
type Audio interface {
	sim.AudioDriver
	Apply(c audio.Config) error
	Stats() audio.Stats
}

type TickMsg time.Time

// ConfigMsg carries a reloaded configuration into the program.
type ConfigMsg struct{ Config *config.Config }

type Options struct {
	Config *config.Config
	// Audio may be nil for a silent session.
	Audio  Audio
	Logger *zap.Logger
	Rand   *rand.Rand
	Preset string
	// Paused starts the session stopped.
	Paused bool
}

// history is shared by every copy of the model.
type history struct {
	expansion []float64
}

func (h *history) OnFrame(f render.Frame) {
	h.expansion = append(h.expansion, f.State.Expansion())
	if len(h.expansion) > historyCapacity {
		h.expansion = h.expansion[len(h.expansion)-historyCapacity:]
	}
}

// Model hosts a breathing loop in the terminal.
type Model struct {
	cfg     *config.Config
	audio   Audio
	log     *zap.Logger
	loop    *sim.Loop
	pump    *sim.PumpScheduler
	surface *Surface
	hist    *history

	theme    Theme
	preset   string
	paused   bool
	status   string
	showHelp bool
}

func NewModel(opts Options) (Model, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg = cfg.Clone()
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	m := Model{
		cfg:     cfg,
		audio:   opts.Audio,
		log:     log.Named("tui"),
		pump:    sim.NewPumpScheduler(),
		surface: NewSurface(defaultCols, defaultRows),
		hist:    &history{},
		theme:   matchTheme(cfg.Theme),
		preset:  opts.Preset,
		paused:  opts.Paused,
	}

	w, h := m.surface.Canvas().Pixels()
	loop, err := sim.New(cfg.Settings(), sim.Options{
		Scheduler: m.pump,
		Audio:     opts.Audio,
		Surface:   m.surface,
		Rand:      opts.Rand,
		Logger:    log,
		Width:     float64(w),
		Height:    float64(h),
	})
	if err != nil {
		return Model{}, err
	}
	loop.AddObserver(m.hist)
	m.loop = loop
	m.applyAudio()
	return m, nil
}

// Loop exposes the hosted loop.
func (m Model) Loop() *sim.Loop { return m.loop }

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	if !m.paused {
		m.loop.Start()
	}
	return tick()
}

// Update handles input events and pumps the loop's frame requests.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case ConfigMsg:
		m.applyConfig(msg.Config)
	case TickMsg:
		m.pump.Fire(time.Time(msg))
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.loop.Stop()
		return m, tea.Quit
	case " ":
		m.loop.Toggle()
	case "r":
		m.loop.Restart()
	case "m":
		m.cfg.Audio.Muted = !m.cfg.Audio.Muted
		m.applyAudio()
	case "a":
		m.cfg.Audio.Enabled = !m.cfg.Audio.Enabled
		m.applyAudio()
	case "+", "=":
		m.cfg.Audio.MasterVolume = math.Min(1, m.cfg.Audio.MasterVolume+volumeStep)
		m.applyAudio()
	case "-", "_":
		m.cfg.Audio.MasterVolume = math.Max(0, m.cfg.Audio.MasterVolume-volumeStep)
		m.applyAudio()
	case "k":
		m.cfg.Audio.Track = m.cfg.NextTrack()
		m.applyAudio()
	case "c":
		m.cfg.Counter = string(m.cfg.CounterMode().Next())
		m.applySettings()
	case "n":
		m.preset = config.NextPreset(m.preset)
		if err := m.cfg.ApplyPreset(m.preset); err == nil {
			m.applySettings()
		}
	case "t":
		m.theme = NextTheme(m.theme.Name)
		m.cfg.Theme = m.theme.Breath
		m.applySettings()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	cols := max(width-sidebarWidth-6, 10)
	rows := max(height-3, 5)
	m.surface.Resize(cols, rows)
	w, h := m.surface.Canvas().Pixels()
	m.loop.Resize(float64(w), float64(h))
}

func (m *Model) applySettings() {
	if err := m.loop.SetConfig(m.cfg.Settings()); err != nil {
		m.status = err.Error()
		m.log.Warn("settings rejected", zap.Error(err))
		return
	}
	m.status = ""
}

func (m *Model) applyAudio() {
	if m.audio == nil {
		return
	}
	if err := m.audio.Apply(m.cfg.AudioConfig()); err != nil {
		m.status = err.Error()
		m.log.Debug("audio apply", zap.Error(err))
		return
	}
	m.status = ""
}

// applyConfig takes a reloaded file. The running preset name no longer
// applies once durations come from disk.
func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if err := cfg.Validate(); err != nil {
		m.status = err.Error()
		m.log.Warn("config rejected", zap.Error(err))
		return
	}
	m.cfg = cfg.Clone()
	m.theme = matchTheme(cfg.Theme)
	m.preset = ""
	m.applySettings()
	m.applyAudio()
	m.log.Info("config applied")
}

func matchTheme(t render.Theme) Theme {
	for _, th := range Themes {
		if th.Breath == t {
			return th
		}
	}
	return GetTheme("", t)
}

// View renders the canvas and the side panel.
func (m Model) View() string {
	f := m.surface.Frame()
	canvasView := canvasStyle.Render(m.surface.Canvas().String())

	var s strings.Builder
	s.WriteString(GradientText("BREATHSIM", m.theme.Breath.InhaleColor, m.theme.Breath.ExhaleColor) + "\n")
	if m.loop.Running() {
		s.WriteString(StatusRunning.Render("● BREATHING") + "\n\n")
	} else {
		s.WriteString(StatusPaused.Render("❚❚ PAUSED") + "\n\n")
	}

	text := lipgloss.NewStyle().Foreground(lipgloss.Color(f.Phase.Color.Hex())).Bold(true)
	phase := strings.ToUpper(f.Phase.Value)
	if f.Counter.Visible && f.Counter.Value != "" {
		phase += "  " + f.Counter.Value
	}
	s.WriteString(text.Render(phase) + "\n")
	s.WriteString(ProgressBar(f.State.Progress, 30, f.BlobFill.Hex()) + "\n")
	s.WriteString(SparklineChart(m.hist.expansion, 30, 0, 1, string(m.theme.Primary())) + "\n")

	if len(m.hist.expansion) > 1 {
		chart := asciigraph.Plot(m.hist.expansion, asciigraph.Height(4), asciigraph.Width(30), asciigraph.LowerBound(0), asciigraph.UpperBound(1), asciigraph.Caption("Expansion"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	d := m.cfg.CycleDurations()
	s.WriteString(MetricLabel.Render("Pattern") + MetricValue.Render(pattern(m.cfg, m.preset)) + "\n")
	s.WriteString(MetricLabel.Render("Breaths") + MetricValue.Render(fmt.Sprint(breaths(m.loop.Elapsed(), d))) + "\n")
	s.WriteString(MetricLabel.Render("Particles") + MetricValue.Render(fmt.Sprint(len(f.Particles))) + "\n")
	s.WriteString(MetricLabel.Render("Theme") + MetricValue.Render(m.theme.Name) + "\n")
	s.WriteString(MetricLabel.Render("Counter") + MetricValue.Render(string(m.cfg.CounterMode())) + "\n")
	s.WriteString(MetricLabel.Render("Audio") + m.audioLine() + "\n")

	if m.status != "" {
		s.WriteString("\n" + errStyle.Render(m.status) + "\n")
	}

	s.WriteString(helpStyle.Render(Separator(30) + "\nSP:Pause R:Restart Q:Quit\nN:Preset T:Theme C:Counter\nA:Audio M:Mute +/-:Vol K:Track ?:Help"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Restart the cycle        ║
║  N        - Next breathing preset    ║
║  T        - Cycle colour themes      ║
║  C        - Counter: timer/breaths   ║
║  A        - Toggle audio             ║
║  M        - Mute                     ║
║  +/-      - Master volume            ║
║  K        - Next music track         ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

func (m Model) audioLine() string {
	a := m.cfg.Audio
	if m.audio == nil || !a.Enabled {
		return Subtle.Render("off")
	}
	st := m.audio.Stats()
	if !st.Available {
		return StatusMuted.Render("no output device")
	}
	vol := fmt.Sprintf("%3.0f%%", a.MasterVolume*100)
	if a.Muted {
		vol = StatusMuted.Render("muted")
	} else {
		vol = MetricValue.Render(vol)
	}
	track := Subtle.Render("no music")
	if i := m.cfg.TrackIndex(st.Track); i >= 0 {
		track = Subtle.Render(m.cfg.Tracks[i].Name)
	}
	return vol + " " + track
}

func pattern(cfg *config.Config, preset string) string {
	p := fmt.Sprintf("%g-%g-%g-%g", cfg.Inhale, cfg.HoldFull, cfg.Exhale, cfg.HoldEmpty)
	if preset != "" {
		p += " (" + preset + ")"
	}
	return p
}

func breaths(elapsed float64, d cycle.Durations) int {
	if d.Length() <= 0 {
		return 0
	}
	return int(elapsed / d.Length())
}

// NewProgram wraps a Model or an App in a full-screen program.
func NewProgram(m tea.Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}
