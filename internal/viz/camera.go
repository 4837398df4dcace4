package viz

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type View int

const (
	ViewSide View = iota
	ViewTop
	ViewOrbit
	numViews
)

func (v View) String() string {
	switch v {
	case ViewSide:
		return "side (x-y)"
	case ViewTop:
		return "top (x-z)"
	case ViewOrbit:
		return "orbit"
	}
	return "unknown"
}

func (v View) Next() View { return (v + 1) % numViews }

// ParseView accepts side, top or orbit.
func ParseView(s string) (View, error) {
	switch s {
	case "side", "":
		return ViewSide, nil
	case "top":
		return ViewTop, nil
	case "orbit":
		return ViewOrbit, nil
	}
	return ViewSide, fmt.Errorf("unknown view %q", s)
}

// Camera projects world coordinates of a cubic domain onto canvas dots.
type Camera struct {
	View       View
	Yaw, Pitch float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{View: ViewSide, Yaw: math.Pi / 6, Pitch: math.Pi / 8, Zoom: 1}
}

func (c *Camera) Orbit(d float64) { c.Yaw = math.Mod(c.Yaw+d, 2*math.Pi) }
func (c *Camera) ZoomIn()         { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()        { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// plane returns the screen-plane coordinates of p and the half width of the
// region that must fit on screen.
func (c *Camera) plane(p mgl64.Vec3, half float64) (u, v, extent float64) {
	switch c.View {
	case ViewTop:
		return p[0], p[2], half
	case ViewOrbit:
		rot := mgl64.Rotate3DX(c.Pitch).Mul3(mgl64.Rotate3DY(c.Yaw))
		r := rot.Mul3x1(p)
		return r[0], r[1], half * math.Sqrt(3)
	default:
		return p[0], p[1], half
	}
}

// Project maps p, inside the cube [-half, half]³, to a dot of a dw x dh
// canvas. The projection keeps a square aspect, centered horizontally. ok is
// false when the point falls off the canvas.
func (c *Camera) Project(p mgl64.Vec3, half float64, dw, dh int) (x, y int, ok bool) {
	u, v, extent := c.plane(p, half)
	extent /= c.Zoom

	side := dw
	if dh < side {
		side = dh
	}
	off := (dw - side) / 2
	scale := float64(side-1) / 2

	x = off + int(math.Round((u/extent+1)*scale))
	y = int(math.Round((1 - v/extent) * scale))
	ok = x >= off && x < off+side && y >= 0 && y < side
	return x, y, ok
}

var cubeEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// DrawDomain outlines the walls of the cube [-half, half]³.
func (c *Camera) DrawDomain(cv *Canvas, half float64) {
	dw, dh := cv.Dots()
	var corners [8][2]int
	for i := range corners {
		p := mgl64.Vec3{-half, -half, -half}
		for a := 0; a < 3; a++ {
			if i&(1<<a) != 0 {
				p[a] = half
			}
		}
		corners[i][0], corners[i][1], _ = c.Project(p, half, dw, dh)
	}
	for _, e := range cubeEdges {
		a, b := corners[e[0]], corners[e[1]]
		cv.DrawLine(a[0], a[1], b[0], b[1])
	}
}
