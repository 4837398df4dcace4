package decomp

// NumOffsets is the number of passes in a full broad-phase sweep.
const NumOffsets = 27

// Offset is a relative cell offset with components in {-1, 0, 1}.
type Offset struct {
	DX, DY, DZ int
}

func (o Offset) components() [3]int { return [3]int{o.DX, o.DY, o.DZ} }

// Nonzero returns the number of non-zero components.
func (o Offset) Nonzero() int {
	n := 0
	for _, d := range o.components() {
		if d != 0 {
			n++
		}
	}
	return n
}

// Offsets lists the 27 offsets with x varying fastest.
func Offsets() [NumOffsets]Offset {
	var out [NumOffsets]Offset
	for i := range out {
		out[i] = Offset{DX: i%3 - 1, DY: i/3%3 - 1, DZ: i/9 - 1}
	}
	return out
}

// Plan is the iteration space of one pass. Near cells are the coordinates
// c with Start[a] <= c[a] < End[a] and c[a] ≡ Start[a] (mod Stride[a]); the
// partner of near cell c is c + Target.
type Plan struct {
	Offset Offset
	Target [3]int
	Stride [3]int
	Start  [3]int
	End    [3]int
	Size   int
}

// NewPlan derives the pass for off on a grid of size³ cells.
func NewPlan(off Offset, size int) Plan {
	p := Plan{
		Offset: off,
		Stride: [3]int{1, 1, 1},
		Size:   size,
	}

	d := off.components()
	k := -1
	for a := 2; a >= 0; a-- {
		if d[a] != 0 {
			k = a
			break
		}
	}

	phase := 0
	if k >= 0 {
		for a := 0; a < 3; a++ {
			p.Target[a] = d[a] * d[k]
		}
		p.Stride[k] = 2
		if d[k] < 0 {
			phase = 1
		}
	}

	for a := 0; a < 3; a++ {
		t := p.Target[a]
		lo, hi := 0, size
		if t < 0 {
			lo = -t
		} else {
			hi = size - t
		}
		if a == k && lo%2 != phase {
			lo++
		}
		p.Start[a] = lo
		p.End[a] = hi
	}
	return p
}

// Plans precomputes every pass of a sweep in [Offsets] order.
func Plans(size int) [NumOffsets]Plan {
	var out [NumOffsets]Plan
	for i, off := range Offsets() {
		out[i] = NewPlan(off, size)
	}
	return out
}

// Self reports whether the pass pairs every cell with itself.
func (p Plan) Self() bool {
	return p.Target == [3]int{}
}

// Count returns the number of near coordinates along axis.
func (p Plan) Count(axis int) int {
	n := p.End[axis] - p.Start[axis]
	if n <= 0 {
		return 0
	}
	s := p.Stride[axis]
	return (n + s - 1) / s
}

// Cells returns the number of near cells in the pass.
func (p Plan) Cells() int {
	return p.Count(0) * p.Count(1) * p.Count(2)
}

// Span returns the x range [lo, hi) walked by worker when the pass is split
// among workers. Ranges of distinct workers are contiguous and disjoint.
func (p Plan) Span(worker, workers int) (lo, hi int) {
	n := p.Count(0)
	s := p.Stride[0]
	lo = p.Start[0] + worker*n/workers*s
	hi = p.Start[0] + (worker+1)*n/workers*s
	return lo, hi
}

// Visit calls fn for every near/far cell pair owned by worker, in x, y, z
// loop order.
func (p Plan) Visit(worker, workers int, fn func(near, far [3]int)) {
	lo, hi := p.Span(worker, workers)
	t := p.Target
	for x := lo; x < hi; x += p.Stride[0] {
		for y := p.Start[1]; y < p.End[1]; y += p.Stride[1] {
			for z := p.Start[2]; z < p.End[2]; z += p.Stride[2] {
				fn([3]int{x, y, z}, [3]int{x + t[0], y + t[1], z + t[2]})
			}
		}
	}
}
