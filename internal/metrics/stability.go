package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/ballsim/internal/grid"
)

// AllFinite reports whether no component of pos or vel is NaN or Inf.
func AllFinite(pos, vel []mgl64.Vec3) bool {
	for _, s := range [][]mgl64.Vec3{pos, vel} {
		for _, v := range s {
			for a := 0; a < 3; a++ {
				if math.IsNaN(v[a]) || math.IsInf(v[a], 0) {
					return false
				}
			}
		}
	}
	return true
}

// InBounds reports whether every component of pos lies in [lo, hi].
func InBounds(pos []mgl64.Vec3, lo, hi float64) bool {
	for _, p := range pos {
		for a := 0; a < 3; a++ {
			if p[a] < lo || p[a] > hi {
				return false
			}
		}
	}
	return true
}

// Stability is the fraction of observations whose state was finite and
// inside the walls.
type Stability struct {
	name       string
	lo, hi     float64
	violations int
	samples    int
}

func NewStability(lo, hi float64) *Stability {
	return &Stability{
		name: "stability",
		lo:   lo,
		hi:   hi,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(pos, vel []mgl64.Vec3, g *grid.Grid) {
	s.samples++
	if !AllFinite(pos, vel) || !InBounds(pos, s.lo, s.hi) {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
