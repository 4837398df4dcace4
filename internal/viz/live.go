package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ballsim/internal/metrics"
	"github.com/san-kum/ballsim/internal/world"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 300
	maxPerFrame     = 64
	frameInterval   = time.Second / 30
)

type TickMsg time.Time

type Options struct {
	// StepsPerFrame is the number of world steps per rendered frame.
	StepsPerFrame int
	// Limit stops stepping after this many steps; zero runs until quit.
	Limit int
	Theme string
	View  View
}

// Model steps a world and renders it with Bubble Tea.
type Model struct {
	world    *world.World
	half     float64
	canvas   *Canvas
	camera   *Camera
	theme    Theme
	styles   styles
	running  bool
	perFrame int
	limit    int

	energyHistory []float64
	minSep        float64
	rate          float64
	lastTick      time.Time
	lastSteps     int

	recording bool
	frames    [][][]rune
	status    string
}

func NewModel(w *world.World, opts Options) Model {
	cfg := w.Config()
	perFrame := opts.StepsPerFrame
	if perFrame < 1 {
		perFrame = 1
	}
	camera := NewCamera()
	camera.View = opts.View
	theme := GetTheme(opts.Theme)

	m := Model{
		world:         w,
		half:          cfg.HalfExtent,
		canvas:        NewCanvas(width, height),
		camera:        camera,
		theme:         theme,
		styles:        newStyles(theme),
		running:       true,
		perFrame:      perFrame,
		limit:         opts.Limit,
		energyHistory: make([]float64, 0, historyCapacity),
		minSep:        math.Inf(1),
	}
	m.draw()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "v":
			m.camera.View = m.camera.View.Next()
		case "+", "=":
			m.perFrame = min(maxPerFrame, m.perFrame*2)
		case "-", "_":
			m.perFrame = max(1, m.perFrame/2)
		case "left", "h":
			m.camera.Orbit(-0.1)
		case "right", "l":
			m.camera.Orbit(0.1)
		case "z":
			m.camera.ZoomIn()
		case "Z":
			m.camera.ZoomOut()
		case "t":
			m.theme = nextTheme(m.theme.Name)
			m.styles = newStyles(m.theme)
		case "g":
			m.toggleRecording()
		}
		m.draw()
	case TickMsg:
		if m.running {
			m.step(time.Time(msg))
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

// step advances the world by one frame worth of steps and samples metrics.
func (m *Model) step(now time.Time) {
	n := m.perFrame
	if m.limit > 0 {
		n = min(n, m.limit-m.world.Steps())
	}
	if n <= 0 {
		m.running = false
		return
	}
	for i := 0; i < n; i++ {
		m.world.Step()
	}

	if !m.lastTick.IsZero() {
		if secs := now.Sub(m.lastTick).Seconds(); secs > 0 {
			m.rate = float64(m.world.Steps()-m.lastSteps) / secs
		}
	}
	m.lastTick = now
	m.lastSteps = m.world.Steps()

	m.energyHistory = append(m.energyHistory, metrics.KineticEnergy(m.world.Velocities()))
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
	m.minSep = metrics.MinSeparation(m.world.Positions(), m.world.Grid())
}

func (m *Model) draw() {
	m.canvas.Clear()
	dw, dh := m.canvas.Dots()
	if m.camera.View == ViewOrbit {
		m.camera.DrawDomain(m.canvas, m.half)
	} else {
		m.canvas.DrawBorder()
	}
	for _, p := range m.world.Positions() {
		if x, y, ok := m.camera.Project(p, m.half, dw, dh); ok {
			m.canvas.Set(x, y)
		}
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	st := m.styles
	cfg := m.world.Config()
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(fmt.Sprintf("BALLSIM  %d balls", cfg.Balls)) + "\n")

	status := st.status.Render("RUNNING")
	if !m.running {
		status = st.paused.Render("PAUSED")
	}
	if m.recording {
		status += st.paused.Render(fmt.Sprintf("  REC %d", len(m.frames)))
	}
	s.WriteString(status + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	s.WriteString(st.row("Step", fmt.Sprintf("%d", m.world.Steps())))
	s.WriteString(st.row("Time", fmt.Sprintf("%.3fs", m.world.Time())))
	s.WriteString(st.row("Steps/s", fmt.Sprintf("%.0f", m.rate)))
	s.WriteString(st.row("Steps/frame", fmt.Sprintf("%d", m.perFrame)))
	energy := 0.0
	if len(m.energyHistory) > 0 {
		energy = m.energyHistory[len(m.energyHistory)-1]
	}
	s.WriteString(st.row("Energy", fmt.Sprintf("%.4f", energy)))
	s.WriteString(st.row("Min sep", formatSeparation(m.minSep, cfg.Diameter())))
	s.WriteString(st.row("View", m.camera.View.String()))
	s.WriteString(st.row("Backend", m.world.Backend().Name()))
	if m.limit > 0 {
		s.WriteString(st.row("Progress", ProgressBar(float64(m.world.Steps())/float64(m.limit), 16)))
	}
	if m.status != "" {
		s.WriteString("\n" + st.value.Render(m.status) + "\n")
	}

	s.WriteString(st.help.Render("SP:Pause V:View +/-:Speed\n←→:Orbit Z:Zoom T:Theme\nG:Record Q:Quit"))
	statsView := st.stats.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

func formatSeparation(d, diameter float64) string {
	if math.IsInf(d, 1) {
		return "-"
	}
	return fmt.Sprintf("%.4f (%.1f%% D)", d, 100*d/diameter)
}

// Run shows w in the terminal until the user quits.
func Run(w *world.World, opts Options) error {
	_, err := tea.NewProgram(NewModel(w, opts), tea.WithAltScreen()).Run()
	return err
}
