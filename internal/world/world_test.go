package world

import (
	"context"
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ballsim/internal/compute"
	"github.com/san-kum/ballsim/internal/config"
	"github.com/san-kum/ballsim/internal/metrics"
	"github.com/san-kum/ballsim/internal/workers"
)

func tinyConfig() *config.Config {
	cfg := config.GetPreset("tiny")
	cfg.Workers = 2
	return cfg
}

var _ = Describe("New", func() {
	It("rejects an invalid config", func() {
		cfg := tinyConfig()
		cfg.Radius = 0

		_, err := New(cfg)
		Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
	})

	It("rejects an unknown backend", func() {
		cfg := tinyConfig()
		cfg.Backend = "cuda"

		_, err := New(cfg)
		Expect(errors.Is(err, ErrBackendInit)).To(BeTrue())
		Expect(errors.Is(err, compute.ErrUnavailable)).To(BeTrue())
	})

	It("surfaces a pool size error from the backend", func() {
		_, err := New(tinyConfig(), WithBackend(compute.NewCPUBackend(0)))
		Expect(errors.Is(err, ErrBackendInit)).To(BeTrue())
		Expect(errors.Is(err, workers.ErrPoolSize)).To(BeTrue())
	})

	It("rejects explicit balls of the wrong length", func() {
		cfg := tinyConfig()
		_, err := New(cfg, WithBalls(make([]mgl64.Vec3, 2), make([]mgl64.Vec3, 2)))
		Expect(errors.Is(err, ErrInitialState)).To(BeTrue())
	})

	It("rejects explicit balls outside the walls", func() {
		cfg := tinyConfig()
		cfg.Balls = 2
		lo, _ := cfg.Bounds()
		_, err := New(cfg, WithBalls(
			[]mgl64.Vec3{{0, 0, 0}, {0, lo - 0.1, 0}},
			make([]mgl64.Vec3, 2)))
		Expect(errors.Is(err, ErrInitialState)).To(BeTrue())
	})

	Context("with the default lattice", func() {
		var (
			cfg *config.Config
			w   *World
		)

		BeforeEach(func() {
			cfg = config.GetPreset("small")
			cfg.Workers = 4
			var err error
			w, err = New(cfg)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			w.Close()
		})

		It("seeds every ball inside the walls without overlap", func() {
			lo, hi := w.Bounds()
			Expect(w.Positions()).To(HaveLen(cfg.Balls))
			Expect(metrics.InBounds(w.Positions(), lo, hi)).To(BeTrue())
			Expect(metrics.MinSeparation(w.Positions(), w.Grid())).To(BeNumerically(">=", cfg.Diameter()))
		})

		It("centers the lattice", func() {
			var sum mgl64.Vec3
			for _, p := range w.Positions() {
				sum = sum.Add(p)
			}
			Expect(sum.Len() / float64(cfg.Balls)).To(BeNumerically("<", 1e-9))
		})

		It("bounds initial velocities by max speed", func() {
			for _, v := range w.Velocities() {
				for a := 0; a < 3; a++ {
					Expect(v[a]).To(BeNumerically(">=", -cfg.MaxSpeed))
					Expect(v[a]).To(BeNumerically("<", cfg.MaxSpeed))
				}
			}
		})

		It("is reproducible for a seed", func() {
			other, err := New(cfg)
			Expect(err).NotTo(HaveOccurred())
			defer other.Close()
			Expect(other.Velocities()).To(Equal(w.Velocities()))
		})

		It("advances time by one fixed step", func() {
			w.Step()
			w.Step()
			Expect(w.Steps()).To(Equal(2))
			Expect(w.Time()).To(BeNumerically("~", 2*cfg.Dt(), 1e-15))
		})

		It("keeps every ball in exactly one chain", func() {
			for i := 0; i < 10; i++ {
				w.Step()
			}
			g := w.Grid()
			seen := make([]int, cfg.Balls)
			size := g.Size()
			for x := 0; x < size; x++ {
				for y := 0; y < size; y++ {
					for z := 0; z < size; z++ {
						for _, i := range g.Chain(x, y, z) {
							seen[i]++
						}
					}
				}
			}
			for i, n := range seen {
				Expect(n).To(Equal(1), "ball %d", i)
			}
		})

		It("panics when stepped after Close", func() {
			w.Close()
			Expect(func() { w.Step() }).To(Panic())
		})
	})
})

var _ = Describe("Step", func() {
	twoBalls := func(response string, pos, vel []mgl64.Vec3) *World {
		cfg := tinyConfig()
		cfg.Balls = 2
		cfg.Gravity = 0
		cfg.Response = response
		w, err := New(cfg, WithBalls(pos, vel))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(w.Close)
		return w
	}

	It("separates a head-on overlapping pair to exactly one diameter", func() {
		w := twoBalls(config.ResponseAnalytic,
			[]mgl64.Vec3{{-0.3, 0, 0}, {0.3, 0, 0}},
			[]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}})

		w.Step()

		pos, vel := w.Positions(), w.Velocities()
		Expect(pos[1].Sub(pos[0]).Len()).To(BeNumerically("~", 0.8, 1e-12))
		Expect(pos[0][1]).To(BeNumerically("~", 0, 1e-15))
		Expect(vel[0][0]).To(BeNumerically("~", -1, 1e-12))
		Expect(vel[1][0]).To(BeNumerically("~", 1, 1e-12))
	})

	It("leaves a separated pair alone", func() {
		w := twoBalls(config.ResponseFull,
			[]mgl64.Vec3{{-1, 0, 0}, {1, 0, 0}},
			[]mgl64.Vec3{{0, 0, 0}, {0, 0, 0}})

		w.Step()

		Expect(w.Positions()[0]).To(Equal(mgl64.Vec3{-1, 0, 0}))
		Expect(w.Positions()[1]).To(Equal(mgl64.Vec3{1, 0, 0}))
	})

	It("re-derives velocity from the corrected displacement", func() {
		w := twoBalls(config.ResponseFull,
			[]mgl64.Vec3{{-0.3, 0, 0}, {0.3, 0, 0}},
			[]mgl64.Vec3{{0, 0, 0}, {0, 0, 0}})

		w.Step()

		dt := w.Params().Dt
		Expect(w.Velocities()[0][0]).To(BeNumerically("~", -0.1/dt, 1e-9))
		Expect(w.Velocities()[1][0]).To(BeNumerically("~", 0.1/dt, 1e-9))
	})

	It("clamps a ball driven into a wall", func() {
		cfg := tinyConfig()
		cfg.Balls = 1
		lo, hi := cfg.Bounds()
		w, err := New(cfg, WithBalls(
			[]mgl64.Vec3{{hi - 0.01, 0, 0}},
			[]mgl64.Vec3{{100, 0, 0}}))
		Expect(err).NotTo(HaveOccurred())
		defer w.Close()

		w.Step()

		Expect(w.Positions()[0][0]).To(Equal(hi))
		Expect(w.Positions()[0][0]).To(BeNumerically(">=", lo))
	})
})

var _ = Describe("Floor contact", func() {
	DescribeTable("keeps an overlapping stack on the floor inside the walls",
		func(response string) {
			cfg := tinyConfig()
			cfg.Balls = 2
			cfg.Response = response
			lo, hi := cfg.Bounds()
			w, err := New(cfg, WithBalls(
				[]mgl64.Vec3{{0, lo, 0}, {0, lo + 0.5, 0}},
				make([]mgl64.Vec3, 2)))
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(w.Close)

			for i := 0; i < 50; i++ {
				w.Step()
				Expect(metrics.InBounds(w.Positions(), lo, hi)).To(BeTrue(), "step %d", i+1)
			}
			Expect(w.Positions()[0][1]).To(Equal(lo))
		},
		Entry("full", config.ResponseFull),
		Entry("positional", config.ResponsePositional),
		Entry("analytic", config.ResponseAnalytic),
	)

	It("stays inside the walls while the small preset settles", func() {
		cfg := config.GetPreset("small")
		cfg.Workers = 4
		w, err := New(cfg)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(w.Close)

		lo, hi := w.Bounds()
		stability := metrics.NewStability(lo, hi)
		r := NewRunner(w)
		r.AddMetric(stability)
		r.ObserveEvery(100)

		res, err := r.Run(context.Background(), 3000)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Steps).To(Equal(3000))
		Expect(stability.Value()).To(Equal(1.0))
		Expect(metrics.InBounds(w.Positions(), lo, hi)).To(BeTrue())
	})
})

var _ = Describe("Parallel execution", func() {
	run := func(workerCount int) *World {
		cfg := config.GetPreset("dense")
		cfg.Balls = 1000
		cfg.HalfExtent = 6
		cfg.Workers = workerCount
		w, err := New(cfg)
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 30; i++ {
			w.Step()
		}
		DeferCleanup(w.Close)
		return w
	}

	It("matches a single worker bit for bit", func() {
		ref := run(1)
		for _, p := range []int{2, 4, 8} {
			w := run(p)
			Expect(w.Positions()).To(Equal(ref.Positions()), "%d workers", p)
			Expect(w.Velocities()).To(Equal(ref.Velocities()), "%d workers", p)
		}
	})

	It("never produces NaN or Inf", func() {
		w := run(4)
		lo, hi := w.Bounds()
		Expect(metrics.AllFinite(w.Positions(), w.Velocities())).To(BeTrue())
		Expect(metrics.InBounds(w.Positions(), lo, hi)).To(BeTrue())
		for _, p := range w.Positions() {
			Expect(math.IsNaN(p[0])).To(BeFalse())
		}
	})
})
