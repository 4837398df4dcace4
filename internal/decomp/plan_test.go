package decomp

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSizes = []int{1, 2, 3, 4, 5, 8, 9, 16, 32}

func TestOffsetsOrder(t *testing.T) {
	offs := Offsets()
	assert.Equal(t, Offset{-1, -1, -1}, offs[0])
	assert.Equal(t, Offset{0, 0, 0}, offs[13])
	assert.Equal(t, Offset{1, 0, 0}, offs[14])
	assert.Equal(t, Offset{1, 1, 1}, offs[26])

	seen := map[Offset]bool{}
	for _, o := range offs {
		seen[o] = true
	}
	assert.Len(t, seen, NumOffsets)
}

func TestNewPlanShapes(t *testing.T) {
	tests := []struct {
		name   string
		off    Offset
		target [3]int
		stride [3]int
		start  [3]int
		end    [3]int
	}{
		{"self", Offset{0, 0, 0}, [3]int{0, 0, 0}, [3]int{1, 1, 1}, [3]int{0, 0, 0}, [3]int{8, 8, 8}},
		{"+x", Offset{1, 0, 0}, [3]int{1, 0, 0}, [3]int{2, 1, 1}, [3]int{0, 0, 0}, [3]int{7, 8, 8}},
		{"-x", Offset{-1, 0, 0}, [3]int{1, 0, 0}, [3]int{2, 1, 1}, [3]int{1, 0, 0}, [3]int{7, 8, 8}},
		{"-y", Offset{0, -1, 0}, [3]int{0, 1, 0}, [3]int{1, 2, 1}, [3]int{0, 1, 0}, [3]int{8, 7, 8}},
		{"+z", Offset{0, 0, 1}, [3]int{0, 0, 1}, [3]int{1, 1, 2}, [3]int{0, 0, 0}, [3]int{8, 8, 7}},
		{"xy same sign", Offset{-1, -1, 0}, [3]int{1, 1, 0}, [3]int{1, 2, 1}, [3]int{0, 1, 0}, [3]int{7, 7, 8}},
		{"xy mixed sign", Offset{1, -1, 0}, [3]int{-1, 1, 0}, [3]int{1, 2, 1}, [3]int{1, 1, 0}, [3]int{8, 7, 8}},
		{"yz mixed sign", Offset{0, 1, -1}, [3]int{0, -1, 1}, [3]int{1, 1, 2}, [3]int{0, 1, 1}, [3]int{8, 8, 7}},
		{"xz", Offset{1, 0, 1}, [3]int{1, 0, 1}, [3]int{1, 1, 2}, [3]int{0, 0, 0}, [3]int{7, 8, 7}},
		{"corner", Offset{1, -1, -1}, [3]int{-1, 1, 1}, [3]int{1, 1, 2}, [3]int{1, 0, 1}, [3]int{8, 7, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlan(tt.off, 8)
			assert.Equal(t, tt.target, p.Target, "target")
			assert.Equal(t, tt.stride, p.Stride, "stride")
			assert.Equal(t, tt.start, p.Start, "start")
			assert.Equal(t, tt.end, p.End, "end")
			assert.Equal(t, tt.off.Nonzero() == 0, p.Self())
		})
	}
}

// owners simulates the partition arithmetic of one pass and records which
// worker touches each cell, as near or far member of a pair.
func owners(t *testing.T, p Plan, workers int) map[[3]int][]int {
	t.Helper()
	touched := map[[3]int][]int{}
	for w := 0; w < workers; w++ {
		p.Visit(w, workers, func(near, far [3]int) {
			for _, c := range [][3]int{near, far} {
				for a := 0; a < 3; a++ {
					require.True(t, c[a] >= 0 && c[a] < p.Size, "cell %v outside grid of %d", c, p.Size)
				}
			}
			touched[near] = append(touched[near], w)
			if far != near {
				touched[far] = append(touched[far], w)
			}
		})
	}
	return touched
}

func TestPartitionRaceFreedom(t *testing.T) {
	for _, size := range testSizes {
		for _, off := range Offsets() {
			p := NewPlan(off, size)
			for workers := 1; workers <= 8; workers++ {
				name := fmt.Sprintf("size=%d off=%v P=%d", size, off, workers)
				for cell, ws := range owners(t, p, workers) {
					// A cell belongs to at most one pair per pass, which
					// implies that no two workers share it.
					require.Len(t, ws, 1, "%s: cell %v touched by workers %v", name, cell, ws)
				}
			}
		}
	}
}

func TestSweepCoversEveryNeighborPairOnce(t *testing.T) {
	type pair struct{ a, b [3]int }
	canonical := func(a, b [3]int) pair {
		for i := 0; i < 3; i++ {
			if a[i] != b[i] {
				if a[i] > b[i] {
					a, b = b, a
				}
				break
			}
		}
		return pair{a, b}
	}

	for _, size := range testSizes {
		visits := map[pair]int{}
		for _, p := range Plans(size) {
			p.Visit(0, 1, func(near, far [3]int) {
				visits[canonical(near, far)]++
			})
		}

		expected := 0
		for x := 0; x < size; x++ {
			for y := 0; y < size; y++ {
				for z := 0; z < size; z++ {
					a := [3]int{x, y, z}
					for _, off := range Offsets() {
						b := [3]int{x + off.DX, y + off.DY, z + off.DZ}
						if b[0] < 0 || b[1] < 0 || b[2] < 0 || b[0] >= size || b[1] >= size || b[2] >= size {
							continue
						}
						key := canonical(a, b)
						if a != b && key.a != a {
							continue
						}
						expected++
						assert.Equal(t, 1, visits[key], "size %d pair %v", size, key)
					}
				}
			}
		}
		assert.Len(t, visits, expected, "size %d", size)
	}
}

func TestSpanSplitsPrimaryAxis(t *testing.T) {
	for _, size := range testSizes {
		for _, p := range Plans(size) {
			for workers := 1; workers <= 8; workers++ {
				total := 0
				prev := p.Start[0]
				for w := 0; w < workers; w++ {
					lo, hi := p.Span(w, workers)
					assert.Equal(t, prev, lo)
					prev = hi
					for x := lo; x < hi; x += p.Stride[0] {
						total++
					}
				}
				assert.Equal(t, p.Count(0), total)
			}
		}
	}
}

func TestCells(t *testing.T) {
	assert.Equal(t, 512, NewPlan(Offset{}, 8).Cells())
	assert.Equal(t, 4*8*8, NewPlan(Offset{1, 0, 0}, 8).Cells())
	assert.Equal(t, 3*8*8, NewPlan(Offset{-1, 0, 0}, 8).Cells())
	assert.Equal(t, 0, NewPlan(Offset{0, 0, -1}, 1).Cells())
}
