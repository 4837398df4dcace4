package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Balls is the simulated population. Index i is the identity of a ball for
// the lifetime of the slices.
type Balls struct {
	Pos  []mgl64.Vec3
	Prev []mgl64.Vec3
	Vel  []mgl64.Vec3
}

func NewBalls(n int) *Balls {
	return &Balls{
		Pos:  make([]mgl64.Vec3, n),
		Prev: make([]mgl64.Vec3, n),
		Vel:  make([]mgl64.Vec3, n),
	}
}

func (b *Balls) Len() int { return len(b.Pos) }

// Clone returns a deep copy.
func (b *Balls) Clone() *Balls {
	c := NewBalls(b.Len())
	copy(c.Pos, b.Pos)
	copy(c.Prev, b.Prev)
	copy(c.Vel, b.Vel)
	return c
}

// IsValid reports whether every position and velocity is finite.
func (b *Balls) IsValid() bool {
	for i := range b.Pos {
		for a := 0; a < 3; a++ {
			if !finite(b.Pos[i][a]) || !finite(b.Vel[i][a]) {
				return false
			}
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Params are the constants shared by all kernels of one world.
type Params struct {
	Gravity  float64
	Dt       float64
	Diameter float64
	// Lo and Hi bound every position component.
	Lo, Hi float64
	// Exchange enables the normal velocity exchange in ResolvePair.
	Exchange bool
}
