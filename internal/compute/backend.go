package compute

import (
	"errors"
	"fmt"

	"github.com/san-kum/ballsim/internal/decomp"
	"github.com/san-kum/ballsim/internal/grid"
	"github.com/san-kum/ballsim/internal/physics"
)

// ErrUnavailable is returned when a backend cannot run on this build or host.
var ErrUnavailable = errors.New("compute: backend unavailable")

// Backend runs the kernel phases of a step. Every method blocks until
// the phase is complete and its results are visible in the host slices.
type Backend interface {
	Name() string
	Available() bool
	// Init prepares the backend for balls and grid; it must be called once
	// before any other phase.
	Init(b *physics.Balls, g *grid.Grid, p physics.Params) error
	Integrate(b *physics.Balls)
	// Collide executes every plan in order, each as its own barrier, using
	// the chains of g built from the current positions, then clamps every
	// position back inside the walls.
	Collide(b *physics.Balls, g *grid.Grid, plans []decomp.Plan)
	Rederive(b *physics.Balls)
	Close()
}

// New returns the backend registered under name.
func New(name string, workers int) (Backend, error) {
	switch name {
	case "", "cpu":
		return NewCPUBackend(workers), nil
	case "opengl", "gl":
		return NewOpenGLBackend(), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrUnavailable, name)
	}
}
