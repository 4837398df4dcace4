package physics

import "github.com/go-gl/mathgl/mgl64"

// Integrate advances balls [start, end) by one step. Gravity acts along -y.
// The previous position is saved before the move so Rederive can recover the
// realized velocity after collisions.
func Integrate(b *Balls, start, end int, p Params) {
	g := p.Gravity * p.Dt
	for i := start; i < end; i++ {
		b.Vel[i][1] -= g
		b.Prev[i] = b.Pos[i]
		b.Pos[i] = clamp(b.Pos[i].Add(b.Vel[i].Mul(p.Dt)), p.Lo, p.Hi)
	}
}

// Confine clamps the positions of balls [start, end) to [p.Lo, p.Hi] on
// every axis. Collision correction can push a ball resting on a wall past
// it; Confine runs after the last collision pass of a step.
func Confine(b *Balls, start, end int, p Params) {
	for i := start; i < end; i++ {
		b.Pos[i] = clamp(b.Pos[i], p.Lo, p.Hi)
	}
}

func clamp(v mgl64.Vec3, lo, hi float64) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.Clamp(v[0], lo, hi),
		mgl64.Clamp(v[1], lo, hi),
		mgl64.Clamp(v[2], lo, hi),
	}
}

// Rederive sets the velocity of balls [start, end) to the finite difference
// of their position over the last step.
func Rederive(b *Balls, start, end int, dt float64) {
	inv := 1 / dt
	for i := start; i < end; i++ {
		b.Vel[i] = b.Pos[i].Sub(b.Prev[i]).Mul(inv)
	}
}
