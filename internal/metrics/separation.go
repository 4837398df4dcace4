package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/ballsim/internal/grid"
)

// MinSeparation returns the smallest center distance between two balls
// whose cells in g are neighbors, or +Inf when there is no such pair.
func MinSeparation(pos []mgl64.Vec3, g *grid.Grid) float64 {
	size := g.Size()
	next := g.Next()
	best := math.Inf(1)

	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			for z := 0; z < size; z++ {
				head := g.Head(x, y, z)
				if head == grid.Empty {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					for dy := -1; dy <= 1; dy++ {
						for dz := -1; dz <= 1; dz++ {
							nx, ny, nz := x+dx, y+dy, z+dz
							if nx < 0 || ny < 0 || nz < 0 || nx >= size || ny >= size || nz >= size {
								continue
							}
							other := g.Head(nx, ny, nz)
							for i := head; i >= 0; i = next[i] {
								for j := other; j >= 0; j = next[j] {
									if j <= i {
										continue
									}
									d2 := pos[i].Sub(pos[j]).LenSqr()
									if d2 < best {
										best = d2
									}
								}
							}
						}
					}
				}
			}
		}
	}
	return math.Sqrt(best)
}

// Separation reports the smallest neighbor distance seen over all
// observations.
type Separation struct {
	name  string
	value float64
}

func NewSeparation() *Separation {
	return &Separation{name: "min_separation", value: math.Inf(1)}
}

func (s *Separation) Name() string { return s.name }

func (s *Separation) Observe(pos, vel []mgl64.Vec3, g *grid.Grid) {
	s.value = math.Min(s.value, MinSeparation(pos, g))
}

func (s *Separation) Value() float64 { return s.value }

func (s *Separation) Reset() { s.value = math.Inf(1) }

// Penetration reports the largest overlap D - d between two balls seen over
// all observations.
type Penetration struct {
	name     string
	diameter float64
	value    float64
}

func NewPenetration(diameter float64) *Penetration {
	return &Penetration{name: "max_penetration", diameter: diameter}
}

func (p *Penetration) Name() string { return p.name }

func (p *Penetration) Observe(pos, vel []mgl64.Vec3, g *grid.Grid) {
	d := MinSeparation(pos, g)
	if d < p.diameter {
		p.value = math.Max(p.value, p.diameter-d)
	}
}

func (p *Penetration) Value() float64 { return p.value }

func (p *Penetration) Reset() { p.value = 0 }
