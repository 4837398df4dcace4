package world

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/ballsim/internal/metrics"
)

// Observer is notified at every observation point of a run.
type Observer interface {
	OnStep(w *World) error
}

type ObserverFunc func(w *World) error

func (f ObserverFunc) OnStep(w *World) error { return f(w) }

type Result struct {
	Steps          int                `json:"steps"`
	SimTime        float64            `json:"sim_time"`
	Elapsed        time.Duration      `json:"elapsed"`
	StepsPerSecond float64            `json:"steps_per_second"`
	Metrics        map[string]float64 `json:"metrics"`
}

// Runner drives a World through a fixed number of steps. Metrics and
// observers see the initial state, every k-th step when ObserveEvery is set,
// and the final state.
type Runner struct {
	world     *World
	metrics   []metrics.Metric
	observers []Observer
	every     int
}

func NewRunner(w *World) *Runner {
	return &Runner{
		world:     w,
		metrics:   make([]metrics.Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (r *Runner) AddMetric(m metrics.Metric) { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer)     { r.observers = append(r.observers, o) }
func (r *Runner) ObserveEvery(k int)         { r.every = k }

// Run steps the world steps times. It stops early when ctx is done, an
// observer fails, or the state becomes non-finite; the partial result is
// returned with the error.
func (r *Runner) Run(ctx context.Context, steps int) (*Result, error) {
	if steps < 0 {
		return nil, fmt.Errorf("steps must not be negative, got %d", steps)
	}

	w := r.world
	for _, m := range r.metrics {
		m.Reset()
	}

	result := &Result{Metrics: make(map[string]float64)}
	start := time.Now()
	finish := func() *Result {
		result.Elapsed = time.Since(start)
		result.SimTime = float64(result.Steps) * w.params.Dt
		if secs := result.Elapsed.Seconds(); secs > 0 {
			result.StepsPerSecond = float64(result.Steps) / secs
		}
		for _, m := range r.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
		return result
	}

	if err := r.observe(); err != nil {
		return finish(), err
	}

	observed := true
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return finish(), ctx.Err()
		default:
		}

		w.Step()
		result.Steps++
		observed = false

		if !metrics.AllFinite(w.balls.Pos, w.balls.Vel) {
			err := &StepError{Step: w.steps, Time: w.Time(), Wrapped: ErrUnstable}
			return finish(), err
		}

		if r.every > 0 && w.steps%r.every == 0 {
			if err := r.observe(); err != nil {
				return finish(), err
			}
			observed = true
		}
	}

	if !observed {
		if err := r.observe(); err != nil {
			return finish(), err
		}
	}

	res := finish()
	w.log.WithFields(logrus.Fields{
		"steps":   res.Steps,
		"elapsed": res.Elapsed,
		"rate":    fmt.Sprintf("%.1f steps/s", res.StepsPerSecond),
	}).Debug("run complete")
	return res, nil
}

func (r *Runner) observe() error {
	w := r.world
	for _, m := range r.metrics {
		m.Observe(w.balls.Pos, w.balls.Vel, w.grid)
	}
	for _, o := range r.observers {
		if err := o.OnStep(w); err != nil {
			return fmt.Errorf("observer at step %d: %w", w.steps, err)
		}
	}
	return nil
}
