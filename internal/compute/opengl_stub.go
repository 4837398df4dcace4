//go:build !opengl

package compute

import (
	"fmt"

	"github.com/san-kum/ballsim/internal/decomp"
	"github.com/san-kum/ballsim/internal/grid"
	"github.com/san-kum/ballsim/internal/physics"
)

// OpenGLBackend is unavailable without the opengl build tag.
type OpenGLBackend struct{}

func NewOpenGLBackend() *OpenGLBackend { return &OpenGLBackend{} }

func (c *OpenGLBackend) Name() string    { return "opengl (not built)" }
func (c *OpenGLBackend) Available() bool { return false }

func (c *OpenGLBackend) Init(b *physics.Balls, g *grid.Grid, p physics.Params) error {
	return fmt.Errorf("%w: rebuild with -tags opengl", ErrUnavailable)
}

func (c *OpenGLBackend) Integrate(b *physics.Balls)                                  {}
func (c *OpenGLBackend) Collide(b *physics.Balls, g *grid.Grid, plans []decomp.Plan) {}
func (c *OpenGLBackend) Rederive(b *physics.Balls)                                   {}
func (c *OpenGLBackend) Close()                                                      {}
