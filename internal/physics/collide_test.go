package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDiameter = 0.8
	tol          = 1e-12
)

func testParams() Params {
	return Params{
		Gravity:  10,
		Dt:       1.0 / 600,
		Diameter: testDiameter,
		Lo:       -15.6,
		Hi:       15.6,
		Exchange: true,
	}
}

func pairOf(a, b, va, vb mgl64.Vec3) *Balls {
	bs := NewBalls(2)
	bs.Pos[0], bs.Pos[1] = a, b
	bs.Vel[0], bs.Vel[1] = va, vb
	return bs
}

func TestResolvePairHeadOn(t *testing.T) {
	const eps = 0.05
	const v = 1.5
	half := (testDiameter - eps) / 2
	b := pairOf(
		mgl64.Vec3{half, 0, 0}, mgl64.Vec3{-half, 0, 0},
		mgl64.Vec3{-v, 0, 0}, mgl64.Vec3{v, 0, 0},
	)

	require.True(t, ResolvePair(b, 0, 1, testParams()))

	assert.InDelta(t, testDiameter, b.Pos[0][0]-b.Pos[1][0], tol)
	assert.InDelta(t, testDiameter/2, b.Pos[0][0], tol)
	assert.InDelta(t, -testDiameter/2, b.Pos[1][0], tol)
	assert.InDelta(t, v, b.Vel[0][0], tol)
	assert.InDelta(t, -v, b.Vel[1][0], tol)
	for _, i := range []int{0, 1} {
		for _, a := range []int{1, 2} {
			assert.Zero(t, b.Pos[i][a])
			assert.Zero(t, b.Vel[i][a])
		}
	}
}

func TestResolvePairTangentialUntouched(t *testing.T) {
	b := pairOf(
		mgl64.Vec3{0.3, 0, 0}, mgl64.Vec3{-0.3, 0, 0},
		mgl64.Vec3{-1, 2, 0}, mgl64.Vec3{1, 0, -3},
	)

	require.True(t, ResolvePair(b, 0, 1, testParams()))

	assert.InDelta(t, 1.0, b.Vel[0][0], tol)
	assert.InDelta(t, 2.0, b.Vel[0][1], tol)
	assert.InDelta(t, -1.0, b.Vel[1][0], tol)
	assert.InDelta(t, -3.0, b.Vel[1][2], tol)
}

func TestResolvePairNoExchange(t *testing.T) {
	p := testParams()
	p.Exchange = false
	b := pairOf(
		mgl64.Vec3{0.3, 0, 0}, mgl64.Vec3{-0.3, 0, 0},
		mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 0, 0},
	)

	require.True(t, ResolvePair(b, 0, 1, p))
	assert.InDelta(t, testDiameter, b.Pos[0][0]-b.Pos[1][0], tol)
	assert.Equal(t, mgl64.Vec3{-1, 0, 0}, b.Vel[0])
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, b.Vel[1])
}

func TestResolvePairSkips(t *testing.T) {
	tests := []struct {
		name string
		a, b mgl64.Vec3
	}{
		{"separated", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 0}},
		{"separated diagonal", mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0, 0, 0}},
		{"exactly touching", mgl64.Vec3{testDiameter, 0, 0}, mgl64.Vec3{0, 0, 0}},
		{"coincident", mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			va, vb := mgl64.Vec3{1, 2, 3}, mgl64.Vec3{-4, 5, -6}
			b := pairOf(tt.a, tt.b, va, vb)
			before := b.Clone()

			assert.False(t, ResolvePair(b, 0, 1, testParams()))
			assert.False(t, ResolvePair(b, 1, 0, testParams()))
			assert.Equal(t, before, b)
		})
	}
}

func TestResolvePairConservesMomentum(t *testing.T) {
	b := pairOf(
		mgl64.Vec3{0.1, 0.2, -0.1}, mgl64.Vec3{-0.2, -0.1, 0.25},
		mgl64.Vec3{0.4, -1, 2}, mgl64.Vec3{-3, 0.5, 0.25},
	)
	momentum := b.Vel[0].Add(b.Vel[1])
	center := b.Pos[0].Add(b.Pos[1])

	require.True(t, ResolvePair(b, 0, 1, testParams()))

	assert.True(t, momentum.ApproxEqualThreshold(b.Vel[0].Add(b.Vel[1]), tol))
	assert.True(t, center.ApproxEqualThreshold(b.Pos[0].Add(b.Pos[1]), tol))
	assert.InDelta(t, testDiameter, b.Pos[0].Sub(b.Pos[1]).Len(), tol)
}

func TestResolveCells(t *testing.T) {
	// Chain 0 -> 1 -> 2 in one cell, chain 3 in another.
	b := NewBalls(4)
	b.Pos[0] = mgl64.Vec3{0, 0, 0}
	b.Pos[1] = mgl64.Vec3{0.5, 0, 0}
	b.Pos[2] = mgl64.Vec3{5, 0, 0}
	b.Pos[3] = mgl64.Vec3{5.4, 0, 0}
	next := []int32{1, 2, -1, -1}

	assert.Equal(t, 1, ResolveCells(b, next, 0, 0, true, testParams()))
	assert.InDelta(t, testDiameter, b.Pos[1][0]-b.Pos[0][0], tol)

	assert.Equal(t, 1, ResolveCells(b, next, 0, 3, false, testParams()))
	assert.InDelta(t, testDiameter, b.Pos[3][0]-b.Pos[2][0], tol)

	assert.Equal(t, 0, ResolveCells(b, next, -1, 3, false, testParams()))
	assert.Equal(t, 0, ResolveCells(b, next, 3, -1, false, testParams()))
}

func TestOverlap(t *testing.T) {
	pos := []mgl64.Vec3{{0, 0, 0}, {0.5, 0, 0}, {2, 0, 0}}
	assert.InDelta(t, 0.3, Overlap(pos, 0, 1, testDiameter), tol)
	assert.Zero(t, Overlap(pos, 0, 2, testDiameter))
}
