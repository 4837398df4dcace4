package gui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/ballsim/internal/config"
	"github.com/san-kum/ballsim/internal/metrics"
	"github.com/san-kum/ballsim/internal/world"
)

const (
	screenW      = 1280
	screenH      = 720
	maxTelemetry = 200
	maxPerFrame  = 64
)

// Theme Colors (Monochrome Hyper-Minimalist)
var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColGrid    = rl.NewColor(30, 30, 30, 255)
)

type App struct {
	base *config.Config
	log  *logrus.Entry

	World     *world.World
	Preset    string
	Camera    rl.Camera3D
	Running   bool
	InMenu    bool
	Presets   []string
	Selected  int
	PerFrame  int
	Orbit     bool
	Telemetry []float64
	MinSep    float64
	Font      rl.Font
	Err       string
}

// initWindow initializes the Raylib window, sets the target FPS to 60, and
// disables the default exit key. The window owns the OpenGL context used by
// the opengl backend.
func initWindow() {
	rl.InitWindow(screenW, screenH, "ballsim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// loadFont loads Liberation Mono when installed and falls back to the raylib
// default font.
func loadFont() rl.Font {
	font := rl.LoadFontEx("/usr/share/fonts/liberation/LiberationMono-Regular.ttf", 32, nil, 0)
	if font.Texture.ID == 0 {
		return rl.GetFontDefault()
	}
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

// Run opens the viewer window. With interactive set it starts in the preset
// menu; otherwise cfg is simulated immediately. It blocks until the window is
// closed.
func Run(cfg *config.Config, log *logrus.Entry, interactive bool) error {
	initWindow()
	defer rl.CloseWindow()

	app := &App{
		base:      cfg,
		log:       log,
		Presets:   config.ListPresets(),
		InMenu:    interactive,
		PerFrame:  1,
		Orbit:     true,
		Telemetry: make([]float64, 0, maxTelemetry),
		MinSep:    math.Inf(1),
		Font:      loadFont(),
	}
	defer app.closeWorld()

	if !interactive {
		if err := app.start(cfg, "custom"); err != nil {
			return err
		}
	}
	app.RunLoop()
	return nil
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

// start replaces the current world with one built from cfg.
func (a *App) start(cfg *config.Config, name string) error {
	a.closeWorld()
	w, err := world.New(cfg, world.WithLogger(a.log))
	if err != nil {
		return err
	}

	a.World = w
	a.Preset = name
	a.Running = true
	a.InMenu = false
	a.Err = ""
	a.Telemetry = a.Telemetry[:0]
	a.MinSep = math.Inf(1)

	d := float32(cfg.HalfExtent * 3)
	a.Camera = rl.NewCamera3D(
		rl.NewVector3(d, d*0.6, d),
		rl.NewVector3(0, 0, 0),
		rl.NewVector3(0, 1, 0),
		45.0,
		rl.CameraPerspective,
	)
	return nil
}

// startPreset runs a preset with the backend and worker settings of the base
// config.
func (a *App) startPreset(name string) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return
	}
	cfg.Backend = a.base.Backend
	cfg.Workers = a.base.Workers
	if err := a.start(cfg, name); err != nil {
		a.Err = err.Error()
		a.InMenu = true
		a.log.WithError(err).Warn("preset failed to start")
	}
}

func (a *App) closeWorld() {
	if a.World != nil {
		a.World.Close()
		a.World = nil
	}
}

// Update handles input and advances the simulation. It returns false when the
// viewer should exit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return false
	}

	if a.InMenu {
		if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
			a.Selected = (a.Selected + 1) % len(a.Presets)
		}
		if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
			a.Selected = (a.Selected + len(a.Presets) - 1) % len(a.Presets)
		}
		if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
			a.startPreset(a.Presets[a.Selected])
		}
		return true
	}

	if rl.IsKeyPressed(rl.KeyEscape) {
		a.closeWorld()
		a.InMenu = true
		return true
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Running = !a.Running
	}
	if rl.IsKeyPressed(rl.KeyO) {
		a.Orbit = !a.Orbit
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		a.PerFrame = min(maxPerFrame, a.PerFrame*2)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		a.PerFrame = max(1, a.PerFrame/2)
	}
	if rl.IsKeyPressed(rl.KeyR) {
		cfg := a.World.Config()
		if err := a.start(&cfg, a.Preset); err != nil {
			a.Err = err.Error()
			a.InMenu = true
			return true
		}
	}

	if a.Orbit {
		rl.UpdateCamera(&a.Camera, rl.CameraOrbital)
	}
	wheel := rl.GetMouseWheelMove()
	if wheel != 0 {
		zoom := wheel * 3.0
		diff := rl.Vector3Subtract(a.Camera.Target, a.Camera.Position)
		if rl.Vector3Length(diff) > 5.0 || zoom < 0 {
			dir := rl.Vector3Normalize(diff)
			a.Camera.Position = rl.Vector3Add(a.Camera.Position, rl.Vector3Scale(dir, zoom))
		}
	}

	if a.Running {
		for i := 0; i < a.PerFrame; i++ {
			a.World.Step()
		}
		a.pushTelemetry(metrics.KineticEnergy(a.World.Velocities()))
		if a.World.Steps()%30 < a.PerFrame {
			a.MinSep = metrics.MinSeparation(a.World.Positions(), a.World.Grid())
		}
	}
	return true
}

func (a *App) pushTelemetry(v float64) {
	a.Telemetry = append(a.Telemetry, v)
	if len(a.Telemetry) > maxTelemetry {
		a.Telemetry = a.Telemetry[1:]
	}
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if a.InMenu {
		a.drawMenu()
	} else {
		a.drawSim()
		a.DrawHUD()
	}

	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	cfg := a.World.Config()
	a.drawText("ballsim", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s  %d balls  %s", a.Preset, cfg.Balls, a.World.Backend().Name()), 150, 34, 16, ColText)

	a.DrawTelemetry()

	status := "RUNNING"
	col := ColSelect
	if !a.Running {
		status = "PAUSED"
		col = ColTextDim
	}
	a.drawText(status, 1150, 30, 16, col)

	a.drawText(fmt.Sprintf("step %d   t %.2fs   %d steps/frame", a.World.Steps(), a.World.Time(), a.PerFrame), 30, 70, 14, ColText)
	if !math.IsInf(a.MinSep, 1) {
		a.drawText(fmt.Sprintf("min separation %.4f (D %.2f)", a.MinSep, cfg.Diameter()), 30, 90, 14, ColText)
	}

	a.drawText("[SPACE] PAUSE  [R] RESET  [O] ORBIT  [+/-] SPEED  [ESC] MENU  [Q] QUIT", 640, 680, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 680, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}

	rectX, rectY := 30, 600
	width, height := 400, 60

	minVal, maxVal := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := float32(rectX) + (float32(i)/float32(len(a.Telemetry)))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("KE: %.3e", a.Telemetry[len(a.Telemetry)-1]), rectX+width+10, rectY+height-10, 14, ColText)
}

func (a *App) drawMenu() {
	a.drawText("ballsim", 50, 50, 40, ColSelect)
	a.drawText("Select Preset", 50, 100, 16, ColTextDim)

	y := 160
	for i, name := range a.Presets {
		cfg := config.GetPreset(name)
		line := fmt.Sprintf("%-10s %6d balls  box %.0f", name, cfg.Balls, 2*cfg.HalfExtent)
		if i == a.Selected {
			a.drawText("> "+line, 50, y, 20, ColSelect)
		} else {
			a.drawText("  "+line, 50, y, 20, ColText)
		}
		y += 28
	}

	if a.Err != "" {
		a.drawText(a.Err, 50, y+20, 14, rl.Red)
	}
	a.drawText("ARROWS: NAVIGATE  ENTER: SELECT  Q: QUIT", 850, 680, 14, ColTextDim)
}

func vec(p mgl64.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(p[0]), float32(p[1]), float32(p[2]))
}
