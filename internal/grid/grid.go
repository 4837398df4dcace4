// Package grid implements the uniform spatial hash used by the collision
// broad phase.
//
// The grid is a cube of size³ cells. Each cell holds the head of an intrusive
// singly linked list of ball indices; the links live in a per-ball next slice,
// so a rebuild allocates nothing. With a cell edge of at least one ball
// diameter, two balls can only overlap when their cells differ by at most one
// along every axis.
package grid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Empty terminates a chain and marks an empty cell.
const Empty int32 = -1

type Grid struct {
	size   int
	cell   float64
	origin float64
	heads  []int32
	next   []int32
}

// New allocates a grid of size³ cells with the given edge length. origin is
// the minimum coordinate of the domain along every axis.
func New(size int, cell, origin float64, balls int) *Grid {
	g := &Grid{
		size:   size,
		cell:   cell,
		origin: origin,
		heads:  make([]int32, size*size*size),
		next:   make([]int32, balls),
	}
	g.clear()
	for i := range g.next {
		g.next[i] = Empty
	}
	return g
}

func (g *Grid) Size() int         { return g.size }
func (g *Grid) CellSize() float64 { return g.cell }
func (g *Grid) Origin() float64   { return g.origin }
func (g *Grid) Heads() []int32    { return g.heads }
func (g *Grid) Next() []int32     { return g.next }

// Index flattens a cell coordinate into the heads slice.
func (g *Grid) Index(x, y, z int) int {
	return (x*g.size+y)*g.size + z
}

func (g *Grid) Head(x, y, z int) int32 {
	return g.heads[g.Index(x, y, z)]
}

// CellOf maps a position to its cell coordinate. Positions outside the domain
// are clamped onto the boundary cells.
func (g *Grid) CellOf(p mgl64.Vec3) [3]int {
	var c [3]int
	for a := 0; a < 3; a++ {
		v := int(math.Floor((p[a] - g.origin) / g.cell))
		if v < 0 {
			v = 0
		} else if v >= g.size {
			v = g.size - 1
		}
		c[a] = v
	}
	return c
}

// Rebuild discards every chain and reinserts all balls in index order. Each
// ball is pushed onto the front of its cell's chain.
func (g *Grid) Rebuild(pos []mgl64.Vec3) {
	g.clear()
	for i := range pos {
		c := g.CellOf(pos[i])
		k := g.Index(c[0], c[1], c[2])
		g.next[i] = g.heads[k]
		g.heads[k] = int32(i)
	}
}

// Chain returns the ball indices of one cell in chain order.
func (g *Grid) Chain(x, y, z int) []int32 {
	var out []int32
	for i := g.Head(x, y, z); i != Empty; i = g.next[i] {
		out = append(out, i)
	}
	return out
}

func (g *Grid) clear() {
	for i := range g.heads {
		g.heads[i] = Empty
	}
}
