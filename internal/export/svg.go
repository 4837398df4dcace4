package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/ballsim/internal/viz"
)

// FrameSVG draws one frame as an SVG image of size x size pixels: the domain
// [-half, half]³ outlined and one circle per ball, projected through cam.
func FrameSVG(w io.Writer, pos []mgl64.Vec3, half, radius float64, cam *viz.Camera, size int) error {
	if size < 2 {
		return fmt.Errorf("svg size must be at least 2, got %d", size)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size))

	sb.WriteString(`<g stroke="#444466" stroke-width="1" fill="none">` + "\n")
	for _, e := range domainEdges(half) {
		x0, y0, _ := cam.Project(e[0], half, size, size)
		x1, y1, _ := cam.Project(e[1], half, size, size)
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d"/>`+"\n", x0, y0, x1, y1))
	}
	sb.WriteString("</g>\n")

	r := radius / (2 * half) * float64(size) * cam.Zoom
	if cam.View == viz.ViewOrbit {
		r /= math.Sqrt(3)
	}
	r = math.Max(r, 0.5)

	sb.WriteString(`<g fill="#00ffff" fill-opacity="0.8">` + "\n")
	for _, p := range pos {
		x, y, ok := cam.Project(p, half, size, size)
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%d" cy="%d" r="%.2f"/>`+"\n", x, y, r))
	}
	sb.WriteString("</g>\n</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func domainEdges(half float64) [][2]mgl64.Vec3 {
	corner := func(i int) mgl64.Vec3 {
		p := mgl64.Vec3{-half, -half, -half}
		for a := 0; a < 3; a++ {
			if i&(1<<a) != 0 {
				p[a] = half
			}
		}
		return p
	}

	edges := make([][2]mgl64.Vec3, 0, 12)
	for i := 0; i < 8; i++ {
		for a := 0; a < 3; a++ {
			if i&(1<<a) == 0 {
				edges = append(edges, [2]mgl64.Vec3{corner(i), corner(i | 1<<a)})
			}
		}
	}
	return edges
}
