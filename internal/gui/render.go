package gui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func (a *App) drawSim() {
	rl.BeginMode3D(a.Camera)
	a.renderFloor()
	a.renderDomain()
	a.renderBalls()
	rl.EndMode3D()
}

// renderBalls draws one sphere per ball, shaded from blue to red by speed
// relative to the fastest ball.
func (a *App) renderBalls() {
	cfg := a.World.Config()
	vel := a.World.Velocities()

	fastest := 0.0
	for _, v := range vel {
		fastest = math.Max(fastest, v.Len())
	}

	radius := float32(cfg.Radius)
	for i, p := range a.World.Positions() {
		rl.DrawSphereEx(vec(p), radius, 6, 8, speedColor(vel[i].Len(), fastest))
	}
}

func speedColor(speed, fastest float64) rl.Color {
	t := 0.0
	if fastest > 0 {
		t = speed / fastest
	}
	return rl.ColorFromHSV(float32(240*(1-t)), 0.7, 0.95)
}

func (a *App) renderDomain() {
	side := float32(2 * a.World.Config().HalfExtent)
	rl.DrawCubeWires(rl.NewVector3(0, 0, 0), side, side, side, rl.ColorAlpha(rl.Gray, 0.5))
}

// renderFloor draws the grid cells on the floor of the domain.
func (a *App) renderFloor() {
	g := a.World.Grid()
	cfg := a.World.Config()
	floor := float32(-cfg.HalfExtent)
	origin := float32(g.Origin())
	cell := float32(g.CellSize())
	end := origin + cell*float32(g.Size())

	for i := 0; i <= g.Size(); i++ {
		pos := origin + float32(i)*cell
		rl.DrawLine3D(rl.NewVector3(pos, floor, origin), rl.NewVector3(pos, floor, end), ColGrid)
		rl.DrawLine3D(rl.NewVector3(origin, floor, pos), rl.NewVector3(end, floor, pos), ColGrid)
	}
}
