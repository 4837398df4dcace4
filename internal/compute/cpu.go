package compute

import (
	"fmt"

	"github.com/san-kum/ballsim/internal/decomp"
	"github.com/san-kum/ballsim/internal/grid"
	"github.com/san-kum/ballsim/internal/physics"
	"github.com/san-kum/ballsim/internal/workers"
)

// CPUBackend runs every phase on a fixed pool of goroutines that mutate the
// ball slices in place. Collision passes rely on the partition plans for
// exclusivity; nothing is locked per ball or per cell.
type CPUBackend struct {
	workers int
	pool    *workers.Pool
	params  physics.Params
}

func NewCPUBackend(workers int) *CPUBackend {
	return &CPUBackend{workers: workers}
}

func (c *CPUBackend) Name() string    { return fmt.Sprintf("cpu (%d workers)", c.workers) }
func (c *CPUBackend) Available() bool { return true }

func (c *CPUBackend) Init(b *physics.Balls, g *grid.Grid, p physics.Params) error {
	pool, err := workers.New(c.workers)
	if err != nil {
		return err
	}
	c.pool = pool
	c.params = p
	return nil
}

func (c *CPUBackend) Integrate(b *physics.Balls) {
	p := c.params
	c.pool.For(b.Len(), func(start, end int) {
		physics.Integrate(b, start, end, p)
	})
}

func (c *CPUBackend) Collide(b *physics.Balls, g *grid.Grid, plans []decomp.Plan) {
	for i := range plans {
		plan := &plans[i]
		c.pool.Run(func(worker int) {
			resolvePlan(b, g, plan, worker, c.pool.Size(), c.params)
		})
	}
	p := c.params
	c.pool.For(b.Len(), func(start, end int) {
		physics.Confine(b, start, end, p)
	})
}

func (c *CPUBackend) Rederive(b *physics.Balls) {
	dt := c.params.Dt
	c.pool.For(b.Len(), func(start, end int) {
		physics.Rederive(b, start, end, dt)
	})
}

func (c *CPUBackend) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

// resolvePlan resolves the share of plan owned by worker. It is the loop
// form of decomp.Plan.Visit.
func resolvePlan(b *physics.Balls, g *grid.Grid, plan *decomp.Plan, worker, workers int, p physics.Params) {
	heads := g.Heads()
	next := g.Next()
	same := plan.Self()
	t := plan.Target
	lo, hi := plan.Span(worker, workers)

	for x := lo; x < hi; x += plan.Stride[0] {
		for y := plan.Start[1]; y < plan.End[1]; y += plan.Stride[1] {
			for z := plan.Start[2]; z < plan.End[2]; z += plan.Stride[2] {
				near := heads[g.Index(x, y, z)]
				if near == grid.Empty {
					continue
				}
				far := heads[g.Index(x+t[0], y+t[1], z+t[2])]
				physics.ResolveCells(b, next, near, far, same, p)
			}
		}
	}
}
