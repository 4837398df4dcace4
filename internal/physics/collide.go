package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ResolvePair separates balls i and j when they overlap. Both are pushed
// apart along the line of centers by half the overlap and, with p.Exchange,
// their velocity components along that line are swapped. Coincident centers
// have no normal and are left alone, as are pairs at a non-finite distance.
// It reports whether a correction was applied.
func ResolvePair(b *Balls, i, j int32, p Params) bool {
	normal := b.Pos[i].Sub(b.Pos[j])
	d2 := normal.Dot(normal)
	if !(d2 > 0 && d2 < p.Diameter*p.Diameter) {
		return false
	}

	d := math.Sqrt(d2)
	normal = normal.Mul(1 / d)
	dx := normal.Mul((p.Diameter - d) / 2)
	b.Pos[i] = b.Pos[i].Add(dx)
	b.Pos[j] = b.Pos[j].Sub(dx)

	if p.Exchange {
		vi := b.Vel[i].Dot(normal)
		vj := b.Vel[j].Dot(normal)
		dv := normal.Mul(vi - vj)
		b.Vel[i] = b.Vel[i].Sub(dv)
		b.Vel[j] = b.Vel[j].Add(dv)
	}
	return true
}

// ResolveCells checks every ball of chain a against every ball of chain c.
// With same set, a and c are the same chain and each unordered pair is
// checked once. next holds the chain links. It returns the number of pairs
// corrected.
func ResolveCells(b *Balls, next []int32, a, c int32, same bool, p Params) int {
	n := 0
	for i := a; i >= 0; i = next[i] {
		j := c
		if same {
			j = next[i]
		}
		for ; j >= 0; j = next[j] {
			if ResolvePair(b, i, j, p) {
				n++
			}
		}
	}
	return n
}

// Overlap returns how far balls i and j interpenetrate, or 0.
func Overlap(pos []mgl64.Vec3, i, j int, diameter float64) float64 {
	d := pos[i].Sub(pos[j]).Len()
	if d >= diameter {
		return 0
	}
	return diameter - d
}
