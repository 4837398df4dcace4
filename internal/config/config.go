package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBalls          = 4096
	DefaultRadius         = 0.4
	DefaultHalfExtent     = 16.0
	DefaultStepsPerSecond = 600
	DefaultGravity        = 10.0
	DefaultSeed           = 1
	DefaultMaxSpeed       = 1.0
	DefaultSpacing        = 1.0
	DefaultSteps          = 10 * DefaultStepsPerSecond
)

// Collision response policies.
const (
	// ResponseFull corrects positions, exchanges normal velocities and
	// re-derives velocity from the positional change after every step.
	ResponseFull = "full"
	// ResponsePositional corrects positions and re-derives velocity.
	ResponsePositional = "positional"
	// ResponseAnalytic corrects positions and exchanges normal velocities;
	// velocity is carried over without re-derivation.
	ResponseAnalytic = "analytic"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Balls          int       `yaml:"balls"`
	Radius         float64   `yaml:"radius"`
	HalfExtent     float64   `yaml:"half_extent"`
	CellSize       float64   `yaml:"cell_size"`
	StepsPerSecond int       `yaml:"steps_per_second"`
	Gravity        float64   `yaml:"gravity"`
	Workers        int       `yaml:"workers"`
	Seed           int64     `yaml:"seed"`
	MaxSpeed       float64   `yaml:"max_speed"`
	Spacing        float64   `yaml:"spacing"`
	Response       string    `yaml:"response"`
	Backend        string    `yaml:"backend"`
	Run            RunConfig `yaml:"run"`
}

type RunConfig struct {
	Steps       int `yaml:"steps"`
	ExportEvery int `yaml:"export_every"`
}

func DefaultConfig() *Config {
	return &Config{
		Balls:          DefaultBalls,
		Radius:         DefaultRadius,
		HalfExtent:     DefaultHalfExtent,
		StepsPerSecond: DefaultStepsPerSecond,
		Gravity:        DefaultGravity,
		Seed:           DefaultSeed,
		MaxSpeed:       DefaultMaxSpeed,
		Spacing:        DefaultSpacing,
		Response:       ResponseFull,
		Backend:        "cpu",
		Run: RunConfig{
			Steps: DefaultSteps,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Diameter() float64 { return 2 * c.Radius }
func (c *Config) Dt() float64       { return 1 / float64(c.StepsPerSecond) }

// Cell returns the grid cell edge; zero selects the ball diameter.
func (c *Config) Cell() float64 {
	if c.CellSize <= 0 {
		return c.Diameter()
	}
	return c.CellSize
}

// GridSize is the number of cells along each axis of the domain.
func (c *Config) GridSize() int {
	return int(math.Ceil(2 * c.HalfExtent / c.Cell()))
}

// Bounds returns the range every ball center is clamped to.
func (c *Config) Bounds() (lo, hi float64) {
	return c.Radius - c.HalfExtent, c.HalfExtent - c.Radius
}

// WorkerCount resolves the configured worker count, defaulting to one per CPU.
func (c *Config) WorkerCount() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// LatticeSide is the number of balls per edge of the initial cubic lattice.
func (c *Config) LatticeSide() int {
	side := int(math.Round(math.Cbrt(float64(c.Balls))))
	for side*side*side < c.Balls {
		side++
	}
	return side
}

// RederiveVelocity reports whether the response policy recomputes velocity
// from the positional change.
func (c *Config) RederiveVelocity() bool { return c.Response != ResponseAnalytic }

// ExchangeVelocity reports whether the response policy swaps normal
// velocity components.
func (c *Config) ExchangeVelocity() bool { return c.Response != ResponsePositional }

func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	switch {
	case c.Balls < 1:
		return invalid("balls must be positive, got %d", c.Balls)
	case c.Radius <= 0:
		return invalid("radius must be positive, got %g", c.Radius)
	case c.HalfExtent <= c.Radius:
		return invalid("half_extent %g must exceed radius %g", c.HalfExtent, c.Radius)
	case c.CellSize != 0 && c.CellSize < c.Diameter():
		return invalid("cell_size %g is smaller than the diameter %g", c.CellSize, c.Diameter())
	case c.StepsPerSecond <= 0:
		return invalid("steps_per_second must be positive, got %d", c.StepsPerSecond)
	case c.Gravity < 0 || math.IsNaN(c.Gravity) || math.IsInf(c.Gravity, 0):
		return invalid("gravity must be finite and non-negative, got %g", c.Gravity)
	case c.MaxSpeed < 0 || math.IsNaN(c.MaxSpeed) || math.IsInf(c.MaxSpeed, 0):
		return invalid("max_speed must be finite and non-negative, got %g", c.MaxSpeed)
	case c.Spacing < c.Diameter():
		return invalid("spacing %g would overlap balls of diameter %g", c.Spacing, c.Diameter())
	case c.Run.Steps < 0 || c.Run.ExportEvery < 0:
		return invalid("run steps and export_every must not be negative")
	}

	switch c.Response {
	case ResponseFull, ResponsePositional, ResponseAnalytic:
	default:
		return invalid("unknown response %q", c.Response)
	}

	extent := float64(c.LatticeSide()-1)*c.Spacing + c.Diameter()
	if extent > 2*c.HalfExtent {
		return invalid("lattice of %d balls spans %g, domain is only %g wide", c.Balls, extent, 2*c.HalfExtent)
	}
	return nil
}
