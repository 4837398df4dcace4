package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/ballsim/internal/grid"
)

func testGrid(pos []mgl64.Vec3) *grid.Grid {
	g := grid.New(10, 1, -5, len(pos))
	g.Rebuild(pos)
	return g
}

func TestKineticEnergy(t *testing.T) {
	vel := []mgl64.Vec3{{1, 0, 0}, {0, 2, 0}, {0, 0, 0}}

	expected := 0.5 * (1 + 4) / 3
	if got := KineticEnergy(vel); math.Abs(got-expected) > 1e-12 {
		t.Errorf("expected kinetic energy %f, got %f", expected, got)
	}
	if got := KineticEnergy(nil); got != 0 {
		t.Errorf("expected zero energy for no balls, got %f", got)
	}
}

func TestEnergyReset(t *testing.T) {
	m := NewEnergy()
	pos := []mgl64.Vec3{{0, 0, 0}}
	vel := []mgl64.Vec3{{1, 1, 1}}

	m.Observe(pos, vel, testGrid(pos))
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", m.Value())
	}
}

func TestEnergyDriftFreeFall(t *testing.T) {
	const g, dt = 10.0, 0.001
	m := NewEnergyDrift(g, -5)

	pos := []mgl64.Vec3{{0, 4, 0}}
	vel := []mgl64.Vec3{{0, 0, 0}}
	grd := testGrid(pos)

	// Exact free fall conserves mechanical energy.
	for i := 0; i < 100; i++ {
		tm := float64(i) * dt
		pos[0][1] = 4 - 0.5*g*tm*tm
		vel[0][1] = -g * tm
		m.Observe(pos, vel, grd)
	}
	if m.Value() > 1e-9 {
		t.Errorf("expected no drift for exact free fall, got %g", m.Value())
	}

	vel[0][1] = -50
	m.Observe(pos, vel, grd)
	if m.Value() == 0 {
		t.Error("expected drift after injecting energy")
	}
}

func TestStability(t *testing.T) {
	m := NewStability(-1, 1)
	if m.Value() != 1 {
		t.Errorf("expected 1 before observations, got %f", m.Value())
	}

	pos := []mgl64.Vec3{{0, 0, 0}}
	vel := []mgl64.Vec3{{0, 0, 0}}
	g := testGrid(pos)
	m.Observe(pos, vel, g)

	vel[0][2] = math.NaN()
	m.Observe(pos, vel, g)

	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected stability 0.5, got %f", m.Value())
	}
}

func TestAllFiniteAndInBounds(t *testing.T) {
	tests := []struct {
		name   string
		pos    mgl64.Vec3
		vel    mgl64.Vec3
		finite bool
		inside bool
	}{
		{"origin", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}, true, true},
		{"on wall", mgl64.Vec3{1, -1, 0}, mgl64.Vec3{0, 0, 0}, true, true},
		{"outside", mgl64.Vec3{0, 0, 1.5}, mgl64.Vec3{0, 0, 0}, true, false},
		{"nan velocity", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{math.NaN(), 0, 0}, false, true},
		{"inf position", mgl64.Vec3{math.Inf(1), 0, 0}, mgl64.Vec3{0, 0, 0}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := []mgl64.Vec3{tt.pos}
			vel := []mgl64.Vec3{tt.vel}
			if got := AllFinite(pos, vel); got != tt.finite {
				t.Errorf("expected finite=%v, got %v", tt.finite, got)
			}
			if got := InBounds(pos, -1, 1); got != tt.inside {
				t.Errorf("expected inside=%v, got %v", tt.inside, got)
			}
		})
	}
}
