package world

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/ballsim/internal/compute"
	"github.com/san-kum/ballsim/internal/config"
	"github.com/san-kum/ballsim/internal/decomp"
	"github.com/san-kum/ballsim/internal/grid"
	"github.com/san-kum/ballsim/internal/physics"
)

type World struct {
	cfg     config.Config
	params  physics.Params
	balls   *physics.Balls
	grid    *grid.Grid
	plans   []decomp.Plan
	backend compute.Backend
	log     *logrus.Entry

	steps  int
	closed bool
}

type Option func(*options)

type options struct {
	backend compute.Backend
	log     *logrus.Entry
	pos     []mgl64.Vec3
	vel     []mgl64.Vec3
}

// WithBackend runs the world on backend instead of the one named by the
// config. The world takes ownership and closes it.
func WithBackend(b compute.Backend) Option {
	return func(o *options) { o.backend = b }
}

func WithLogger(log *logrus.Entry) Option {
	return func(o *options) { o.log = log }
}

// WithBalls replaces the lattice with explicit initial positions and
// velocities. Both slices must hold cfg.Balls entries; they are copied.
func WithBalls(pos, vel []mgl64.Vec3) Option {
	return func(o *options) {
		o.pos = pos
		o.vel = vel
	}
}

// New validates cfg, seeds the balls, builds the grid and partition plans and
// starts the backend.
func New(cfg *config.Config, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logrus.NewEntry(logrus.StandardLogger())
	}

	lo, hi := cfg.Bounds()
	w := &World{
		cfg: *cfg,
		params: physics.Params{
			Gravity:  cfg.Gravity,
			Dt:       cfg.Dt(),
			Diameter: cfg.Diameter(),
			Lo:       lo,
			Hi:       hi,
			Exchange: cfg.ExchangeVelocity(),
		},
		log: o.log,
	}

	if o.pos != nil || o.vel != nil {
		balls, err := explicitBalls(cfg, o.pos, o.vel)
		if err != nil {
			return nil, err
		}
		w.balls = balls
	} else {
		w.balls = Lattice(cfg)
	}

	size := cfg.GridSize()
	w.grid = grid.New(size, cfg.Cell(), -cfg.HalfExtent, cfg.Balls)
	w.grid.Rebuild(w.balls.Pos)
	plans := decomp.Plans(size)
	w.plans = plans[:]

	backend := o.backend
	if backend == nil {
		var err error
		backend, err = compute.New(cfg.Backend, cfg.WorkerCount())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBackendInit, err)
		}
	}
	if err := backend.Init(w.balls, w.grid, w.params); err != nil {
		backend.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendInit, backend.Name(), err)
	}
	w.backend = backend

	w.log.WithFields(logrus.Fields{
		"balls":    cfg.Balls,
		"grid":     size,
		"cell":     cfg.Cell(),
		"backend":  backend.Name(),
		"response": cfg.Response,
	}).Info("world initialized")
	return w, nil
}

// Lattice places cfg.Balls balls on a cubic lattice centered in the domain,
// x varying fastest, with velocity components drawn uniformly from
// [-MaxSpeed, MaxSpeed) using cfg.Seed.
func Lattice(cfg *config.Config) *physics.Balls {
	b := physics.NewBalls(cfg.Balls)
	side := cfg.LatticeSide()
	mid := float64(side-1) / 2
	rng := rand.New(rand.NewSource(cfg.Seed))

	for i := range b.Pos {
		b.Pos[i] = mgl64.Vec3{
			(float64(i%side) - mid) * cfg.Spacing,
			(float64(i/side%side) - mid) * cfg.Spacing,
			(float64(i/(side*side)) - mid) * cfg.Spacing,
		}
		b.Prev[i] = b.Pos[i]
		for a := 0; a < 3; a++ {
			b.Vel[i][a] = (2*rng.Float64() - 1) * cfg.MaxSpeed
		}
	}
	return b
}

func explicitBalls(cfg *config.Config, pos, vel []mgl64.Vec3) (*physics.Balls, error) {
	if len(pos) != cfg.Balls || len(vel) != cfg.Balls {
		return nil, fmt.Errorf("%w: got %d positions and %d velocities for %d balls",
			ErrInitialState, len(pos), len(vel), cfg.Balls)
	}
	b := physics.NewBalls(cfg.Balls)
	copy(b.Pos, pos)
	copy(b.Prev, pos)
	copy(b.Vel, vel)
	if !b.IsValid() {
		return nil, fmt.Errorf("%w: non-finite component", ErrInitialState)
	}
	lo, hi := cfg.Bounds()
	for i, p := range b.Pos {
		for a := 0; a < 3; a++ {
			if p[a] < lo || p[a] > hi {
				return nil, fmt.Errorf("%w: ball %d at %v is outside [%g, %g]", ErrInitialState, i, p, lo, hi)
			}
		}
	}
	return b, nil
}

// Step advances the world by exactly one timestep.
func (w *World) Step() {
	if w.closed {
		panic("world: step on closed world")
	}

	w.backend.Integrate(w.balls)
	w.grid.Rebuild(w.balls.Pos)
	w.backend.Collide(w.balls, w.grid, w.plans)
	if w.cfg.RederiveVelocity() {
		w.backend.Rederive(w.balls)
	}
	w.steps++

	if w.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		w.log.WithField("step", w.steps).Trace("step complete")
	}
}

// Positions returns the live position slice. Callers must not modify it.
func (w *World) Positions() []mgl64.Vec3 { return w.balls.Pos }

// Velocities returns the live velocity slice. Callers must not modify it.
func (w *World) Velocities() []mgl64.Vec3 { return w.balls.Vel }

func (w *World) Grid() *grid.Grid         { return w.grid }
func (w *World) Config() config.Config    { return w.cfg }
func (w *World) Steps() int               { return w.steps }
func (w *World) Time() float64            { return float64(w.steps) * w.params.Dt }
func (w *World) Bounds() (lo, hi float64) { return w.params.Lo, w.params.Hi }
func (w *World) Backend() compute.Backend { return w.backend }
func (w *World) Params() physics.Params   { return w.params }
func (w *World) Snapshot() *physics.Balls { return w.balls.Clone() }

// Close stops the backend. Stepping a closed world panics.
func (w *World) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.backend.Close()
	w.log.WithField("steps", w.steps).Debug("world closed")
}
