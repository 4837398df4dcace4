package metrics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/ballsim/internal/grid"
)

// Metric accumulates a scalar over observations of the ball state. The grid
// passed to Observe was built from pos during the same step.
type Metric interface {
	Name() string
	Observe(pos, vel []mgl64.Vec3, g *grid.Grid)
	Value() float64
	Reset()
}

// Defaults returns the metrics recorded for every run.
func Defaults(gravity, floor, diameter, lo, hi float64) []Metric {
	return []Metric{
		NewEnergy(),
		NewEnergyDrift(gravity, floor),
		NewSeparation(),
		NewPenetration(diameter),
		NewStability(lo, hi),
	}
}
