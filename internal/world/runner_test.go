package world

import (
	"context"
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ballsim/internal/metrics"
)

var _ = Describe("Runner", func() {
	var w *World

	BeforeEach(func() {
		var err error
		w, err = New(tinyConfig())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(w.Close)
	})

	It("runs the requested number of steps", func() {
		r := NewRunner(w)
		r.AddMetric(metrics.NewEnergy())

		res, err := r.Run(context.Background(), 12)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Steps).To(Equal(12))
		Expect(w.Steps()).To(Equal(12))
		Expect(res.SimTime).To(BeNumerically("~", 12*w.Params().Dt, 1e-12))
		Expect(res.Metrics).To(HaveKey("energy"))
	})

	It("observes the start, every k-th step and the end", func() {
		var at []int
		r := NewRunner(w)
		r.ObserveEvery(4)
		r.AddObserver(ObserverFunc(func(w *World) error {
			at = append(at, w.Steps())
			return nil
		}))

		_, err := r.Run(context.Background(), 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(at).To(Equal([]int{0, 4, 8, 10}))
	})

	It("does not observe the last step twice", func() {
		var at []int
		r := NewRunner(w)
		r.ObserveEvery(5)
		r.AddObserver(ObserverFunc(func(w *World) error {
			at = append(at, w.Steps())
			return nil
		}))

		_, err := r.Run(context.Background(), 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(at).To(Equal([]int{0, 5, 10}))
	})

	It("stops when the context is canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		r := NewRunner(w)
		r.ObserveEvery(1)
		r.AddObserver(ObserverFunc(func(w *World) error {
			if w.Steps() == 3 {
				cancel()
			}
			return nil
		}))

		res, err := r.Run(ctx, 100)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(res.Steps).To(Equal(3))
	})

	It("returns observer failures", func() {
		boom := errors.New("disk full")
		r := NewRunner(w)
		r.AddObserver(ObserverFunc(func(w *World) error { return boom }))

		_, err := r.Run(context.Background(), 1)
		Expect(errors.Is(err, boom)).To(BeTrue())
	})

	It("reports a non-finite state as unstable", func() {
		cfg := tinyConfig()
		cfg.Balls = 1
		bad, err := New(cfg, WithBalls([]mgl64.Vec3{{0, 0, 0}}, []mgl64.Vec3{{0, 0, 0}}))
		Expect(err).NotTo(HaveOccurred())
		defer bad.Close()
		bad.balls.Vel[0][0] = math.NaN()

		_, err = NewRunner(bad).Run(context.Background(), 1)
		var stepErr *StepError
		Expect(errors.As(err, &stepErr)).To(BeTrue())
		Expect(stepErr.Step).To(Equal(1))
		Expect(errors.Is(err, ErrUnstable)).To(BeTrue())
	})

	It("rejects a negative step count", func() {
		_, err := NewRunner(w).Run(context.Background(), -1)
		Expect(err).To(HaveOccurred())
	})
})
