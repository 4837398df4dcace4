package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/ballsim/internal/grid"
)

// KineticEnergy returns the mean of ½|v|² over all balls.
func KineticEnergy(vel []mgl64.Vec3) float64 {
	if len(vel) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vel {
		sum += v.Dot(v)
	}
	return 0.5 * sum / float64(len(vel))
}

// PotentialEnergy returns the mean of g·(y - floor) over all balls.
func PotentialEnergy(pos []mgl64.Vec3, gravity, floor float64) float64 {
	if len(pos) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range pos {
		sum += p[1] - floor
	}
	return gravity * sum / float64(len(pos))
}

// Energy reports the mean kinetic energy per ball at the last observation.
type Energy struct {
	name    string
	value   float64
	samples int
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(pos, vel []mgl64.Vec3, g *grid.Grid) {
	e.value = KineticEnergy(vel)
	e.samples++
}

func (e *Energy) Value() float64 {
	return e.value
}

func (e *Energy) Reset() {
	e.value = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative change of mean mechanical energy
// against the first observation.
type EnergyDrift struct {
	name          string
	gravity       float64
	floor         float64
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(gravity, floor float64) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		gravity: gravity,
		floor:   floor,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(pos, vel []mgl64.Vec3, g *grid.Grid) {
	energy := KineticEnergy(vel) + PotentialEnergy(pos, e.gravity, e.floor)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
