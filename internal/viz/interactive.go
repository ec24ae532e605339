package viz

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/breathsim/internal/config"
)

const (
	stateMenu = iota
	stateConfig
	stateSim
)

const (
	customPreset = "custom"
	stageStep    = 0.5
)

var stageNames = []string{"inhale", "hold_full", "exhale", "hold_empty"}

var (
	menuTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#60a5fa"))
	menuCursor = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e0f2fe"))
	menuDetail = lipgloss.NewStyle().Foreground(lipgloss.Color("#93c5fd"))
	menuIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#475569"))
	menuKey    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#38bdf8"))
)

// App walks through preset selection and stage tuning before handing the
// terminal to a live Model.
type App struct {
	state, cursor int
	presets       []string
	selected      string
	paramCursor   int
	editing       bool
	editBuf       string
	opts          Options
	cfg           *config.Config
	live          Model
	err           error
	width, height int
}

func NewApp(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &App{
		state:   stateMenu,
		presets: append([]string{customPreset}, config.ListPresets()...),
		opts:    opts,
		cfg:     cfg.Clone(),
	}
}

func (m App) Init() tea.Cmd { return nil }

func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.state == stateSim {
			return m.forward(msg)
		}
	case ConfigMsg:
		if m.state == stateSim {
			return m.forward(msg)
		}
		if msg.Config != nil {
			m.cfg = msg.Config.Clone()
		}
	default:
		if m.state == stateSim {
			return m.forward(msg)
		}
	}
	return m, nil
}

func (m App) forward(msg tea.Msg) (App, tea.Cmd) {
	next, cmd := m.live.Update(msg)
	m.live = next.(Model)
	return m, cmd
}

func (m App) handleKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		return m.forward(msg)
	}
	return m, nil
}

func (m App) menuKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k", "down", "j":
		m.cursor = moveCursor(m.cursor, key, len(m.presets))
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		if m.selected != customPreset {
			m.cfg.ApplyPreset(m.selected)
		}
		m.state, m.paramCursor = stateConfig, 0
	}
	return m, nil
}

func (m App) configKey(msg tea.KeyMsg) (App, tea.Cmd) {
	if m.editing {
		m.editKey(msg.String())
		return m, nil
	}
	switch key := msg.String(); key {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k", "down", "j":
		m.paramCursor = moveCursor(m.paramCursor, key, len(stageNames))
	case "enter", " ":
		m.editing, m.editBuf = true, fmt.Sprintf("%g", m.stage(m.paramCursor))
	case "left", "h":
		m.setStage(m.paramCursor, m.stage(m.paramCursor)-stageStep)
	case "right", "l":
		m.setStage(m.paramCursor, m.stage(m.paramCursor)+stageStep)
	case "s":
		return m.start()
	}
	return m, nil
}

// editKey handles typing a stage value in seconds.
func (m *App) editKey(key string) {
	switch key {
	case "enter":
		if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
			m.setStage(m.paramCursor, v)
		}
		m.editing, m.editBuf = false, ""
	case "esc":
		m.editing, m.editBuf = false, ""
	case "backspace":
		if n := len(m.editBuf); n > 0 {
			m.editBuf = m.editBuf[:n-1]
		}
	default:
		if len(key) == 1 && strings.ContainsAny(key, "0123456789.") {
			m.editBuf += key
		}
	}
}

func moveCursor(cur int, key string, n int) int {
	if key == "up" || key == "k" {
		return max(cur-1, 0)
	}
	return min(cur+1, n-1)
}

func (m *App) stagePtr(i int) *float64 {
	switch i {
	case 0:
		return &m.cfg.Inhale
	case 1:
		return &m.cfg.HoldFull
	case 2:
		return &m.cfg.Exhale
	default:
		return &m.cfg.HoldEmpty
	}
}

func (m *App) stage(i int) float64 { return *m.stagePtr(i) }

// setStage clamps to the configurable range. Inhale and exhale keep at
// least one step.
func (m *App) setStage(i int, v float64) {
	lo := 0.0
	if i == 0 || i == 2 {
		lo = stageStep
	}
	*m.stagePtr(i) = math.Min(config.MaxStage, math.Max(lo, v))
}

func (m App) start() (App, tea.Cmd) {
	opts := m.opts
	opts.Config = m.cfg
	if m.selected != customPreset {
		opts.Preset = m.selected
	}
	live, err := NewModel(opts)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.live = live
	m.state = stateSim
	cmd := m.live.Init()
	if m.width > 0 {
		m.live.resize(m.width, m.height)
	}
	return m, cmd
}

func (m App) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return ""
}

const indent = "    "

func heading(b *strings.Builder, title, sub string) {
	fmt.Fprintf(b, "\n\n%s%s\n%s%s\n%s%s\n\n", indent, menuTitle.Render(title), indent, Subtle.Render(sub), indent, Separator(25))
}

func menuRow(b *strings.Builder, selected bool, label, detail string) {
	label = fmt.Sprintf("%-10s", label)
	if selected {
		fmt.Fprintf(b, "%s%s %s  %s\n", indent, menuCursor.Render("●"), menuCursor.Render(label), menuDetail.Render(detail))
		return
	}
	fmt.Fprintf(b, "%s  %s  %s\n", indent, menuIdle.Render(label), menuIdle.Render(detail))
}

func (m App) viewMenu() string {
	var b strings.Builder
	heading(&b, "BREATHSIM", "guided breathing")
	for i, name := range m.presets {
		desc := "from configuration"
		if p, ok := config.GetPreset(name); ok {
			desc = p.Description
		}
		menuRow(&b, i == m.cursor, name, desc)
	}
	b.WriteString("\n" + indent + hints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m App) viewConfig() string {
	var b strings.Builder
	heading(&b, strings.ToUpper(m.selected), "stage durations in seconds")
	for i, name := range stageNames {
		val := fmt.Sprintf("%6.1f", m.stage(i))
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%6s", m.editBuf+"_")
		}
		menuRow(&b, i == m.paramCursor, name, val)
	}
	if m.err != nil {
		b.WriteString("\n" + indent + errStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + indent + hints("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back") + "\n")
	return b.String()
}

func hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(menuKey.Render(pairs[i]) + menuIdle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}
