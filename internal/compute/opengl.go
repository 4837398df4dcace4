//go:build opengl

package compute

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/ballsim/internal/decomp"
	"github.com/san-kum/ballsim/internal/grid"
	"github.com/san-kum/ballsim/internal/physics"
)

var (
	//go:embed shaders/integrate.comp
	integrateSource string
	//go:embed shaders/resolve.comp
	resolveSource string
	//go:embed shaders/confine.comp
	confineSource string
	//go:embed shaders/rederive.comp
	rederiveSource string
)

const (
	bindPos = iota
	bindPrev
	bindVel
	bindNext
	bindHeads
)

// OpenGLBackend runs the kernels as compute shaders. Ball state lives in
// shader storage buffers as vec4 float32 and is copied back to the host
// slices after every phase. It needs a current OpenGL 4.3 context.
type OpenGLBackend struct {
	integrate uint32
	resolve   uint32
	confine   uint32
	rederive  uint32
	buffers   [5]uint32

	n       int32
	cells   int
	params  physics.Params
	staging []float32
	ready   bool
}

func NewOpenGLBackend() *OpenGLBackend {
	return &OpenGLBackend{}
}

func (c *OpenGLBackend) Name() string    { return "opengl" }
func (c *OpenGLBackend) Available() bool { return true }

func (c *OpenGLBackend) Init(b *physics.Balls, g *grid.Grid, p physics.Params) error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("%w: failed to init opengl: %v", ErrUnavailable, err)
	}
	if gl.GetString(gl.VERSION) == nil {
		return fmt.Errorf("%w: no current opengl context", ErrUnavailable)
	}

	programs, err := buildPrograms(
		[]string{integrateSource, resolveSource, confineSource, rederiveSource},
		createComputeProgram, gl.DeleteProgram)
	if err != nil {
		return err
	}
	c.integrate, c.resolve, c.confine, c.rederive = programs[0], programs[1], programs[2], programs[3]

	c.n = int32(b.Len())
	c.cells = len(g.Heads())
	c.params = p
	c.staging = make([]float32, 4*b.Len())

	gl.GenBuffers(int32(len(c.buffers)), &c.buffers[0])
	for _, slot := range []int{bindPos, bindPrev, bindVel} {
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, c.buffers[slot])
		gl.BufferData(gl.SHADER_STORAGE_BUFFER, len(c.staging)*4, nil, gl.DYNAMIC_DRAW)
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(slot), c.buffers[slot])
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, c.buffers[bindNext])
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, b.Len()*4, nil, gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindNext, c.buffers[bindNext])
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, c.buffers[bindHeads])
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, c.cells*4, nil, gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindHeads, c.buffers[bindHeads])

	c.upload(bindPos, b.Pos)
	c.upload(bindPrev, b.Prev)
	c.upload(bindVel, b.Vel)
	c.ready = true
	return nil
}

func (c *OpenGLBackend) Integrate(b *physics.Balls) {
	if !c.ready {
		return
	}
	gl.UseProgram(c.integrate)
	setInt(c.integrate, "n", c.n)
	setFloat(c.integrate, "dt", c.params.Dt)
	setFloat(c.integrate, "gravity", c.params.Gravity)
	setFloat(c.integrate, "lo", c.params.Lo)
	setFloat(c.integrate, "hi", c.params.Hi)
	gl.DispatchCompute(uint32((c.n+255)/256), 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

	c.download(bindPos, b.Pos)
	c.download(bindPrev, b.Prev)
	c.download(bindVel, b.Vel)
}

func (c *OpenGLBackend) Collide(b *physics.Balls, g *grid.Grid, plans []decomp.Plan) {
	if !c.ready {
		return
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, c.buffers[bindNext])
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(g.Next())*4, gl.Ptr(g.Next()))
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, c.buffers[bindHeads])
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(g.Heads())*4, gl.Ptr(g.Heads()))
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

	gl.UseProgram(c.resolve)
	setInt(c.resolve, "size", int32(g.Size()))
	setFloat(c.resolve, "diameter", c.params.Diameter)
	exchange := int32(0)
	if c.params.Exchange {
		exchange = 1
	}
	setInt(c.resolve, "exchange", exchange)

	for i := range plans {
		plan := &plans[i]
		cells := plan.Cells()
		if cells == 0 {
			continue
		}
		setIVec3(c.resolve, "target", plan.Target)
		setIVec3(c.resolve, "stride", plan.Stride)
		setIVec3(c.resolve, "start", plan.Start)
		setIVec3(c.resolve, "count", [3]int{plan.Count(0), plan.Count(1), plan.Count(2)})
		gl.DispatchCompute(uint32((cells+63)/64), 1, 1)
		gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)
	}

	gl.UseProgram(c.confine)
	setInt(c.confine, "n", c.n)
	setFloat(c.confine, "lo", c.params.Lo)
	setFloat(c.confine, "hi", c.params.Hi)
	gl.DispatchCompute(uint32((c.n+255)/256), 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

	c.download(bindPos, b.Pos)
	c.download(bindVel, b.Vel)
}

func (c *OpenGLBackend) Rederive(b *physics.Balls) {
	if !c.ready {
		return
	}
	gl.UseProgram(c.rederive)
	setInt(c.rederive, "n", c.n)
	setFloat(c.rederive, "dt", c.params.Dt)
	gl.DispatchCompute(uint32((c.n+255)/256), 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

	c.download(bindVel, b.Vel)
}

func (c *OpenGLBackend) Close() {
	if !c.ready {
		return
	}
	gl.DeleteBuffers(int32(len(c.buffers)), &c.buffers[0])
	gl.DeleteProgram(c.integrate)
	gl.DeleteProgram(c.resolve)
	gl.DeleteProgram(c.confine)
	gl.DeleteProgram(c.rederive)
	c.ready = false
}

func (c *OpenGLBackend) upload(slot int, v []mgl64.Vec3) {
	for i, p := range v {
		c.staging[4*i] = float32(p[0])
		c.staging[4*i+1] = float32(p[1])
		c.staging[4*i+2] = float32(p[2])
		c.staging[4*i+3] = 0
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, c.buffers[slot])
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(c.staging)*4, gl.Ptr(c.staging))
}

func (c *OpenGLBackend) download(slot int, v []mgl64.Vec3) {
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, c.buffers[slot])
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(c.staging)*4, gl.Ptr(c.staging))
	for i := range v {
		v[i] = mgl64.Vec3{
			float64(c.staging[4*i]),
			float64(c.staging[4*i+1]),
			float64(c.staging[4*i+2]),
		}
	}
}

func setInt(program uint32, name string, v int32) {
	gl.Uniform1i(gl.GetUniformLocation(program, gl.Str(name+"\x00")), v)
}

func setFloat(program uint32, name string, v float64) {
	gl.Uniform1f(gl.GetUniformLocation(program, gl.Str(name+"\x00")), float32(v))
}

func setIVec3(program uint32, name string, v [3]int) {
	gl.Uniform3i(gl.GetUniformLocation(program, gl.Str(name+"\x00")), int32(v[0]), int32(v[1]), int32(v[2]))
}

func createComputeProgram(source string) (uint32, error) {
	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile compute shader: %v", log)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)
	// the program keeps the compiled code after link
	gl.DeleteShader(shader)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program: %v", log)
	}

	return program, nil
}
