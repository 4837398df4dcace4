package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ballsim/internal/config"
	"github.com/san-kum/ballsim/internal/metrics"
	"github.com/san-kum/ballsim/internal/storage"
	"github.com/san-kum/ballsim/internal/world"
)

// Scenario defines a scripted sequence of runs sharing one base configuration.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Preset      string         `yaml:"preset"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep overrides the base configuration for one run. Zero fields keep
// the base value.
type ScenarioStep struct {
	Name     string `yaml:"name"`
	Balls    int    `yaml:"balls"`
	Workers  int    `yaml:"workers"`
	Response string `yaml:"response"`
	Backend  string `yaml:"backend"`
	Seed     int64  `yaml:"seed"`
	RunSteps int    `yaml:"run_steps"`
	// Trials repeats the step with consecutive seeds starting at Seed.
	Trials int    `yaml:"trials"`
	SaveAs string `yaml:"save_as"`
}

// TrialResult is the outcome of one trial of a step.
type TrialResult struct {
	Step   string
	Seed   int64
	RunID  string
	Result *world.Result
	// Stable is set when the run finished and every observation was finite
	// and inside the walls.
	Stable bool
	Err    error
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	return &scenario, nil
}

// Base returns the configuration every step starts from.
func (s *Scenario) Base() (*config.Config, error) {
	if s.Preset == "" {
		return config.DefaultConfig(), nil
	}
	cfg := config.GetPreset(s.Preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", s.Preset)
	}
	return cfg, nil
}

// Apply returns a copy of base with the step's overrides applied.
func (st ScenarioStep) Apply(base *config.Config) *config.Config {
	cfg := *base
	if st.Balls > 0 {
		cfg.Balls = st.Balls
	}
	if st.Workers > 0 {
		cfg.Workers = st.Workers
	}
	if st.Response != "" {
		cfg.Response = st.Response
	}
	if st.Backend != "" {
		cfg.Backend = st.Backend
	}
	if st.Seed != 0 {
		cfg.Seed = st.Seed
	}
	if st.RunSteps > 0 {
		cfg.Run.Steps = st.RunSteps
	}
	return &cfg
}

// Runner executes scenarios. When Store is set, steps with SaveAs are
// recorded.
type Runner struct {
	Store *storage.Store
	Log   *logrus.Entry
}

// Run executes every step of the scenario in order. A step whose
// configuration is invalid aborts the scenario; a failing trial is reported in
// its TrialResult and the scenario continues.
func (r *Runner) Run(ctx context.Context, s *Scenario) ([]TrialResult, error) {
	log := r.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	base, err := s.Base()
	if err != nil {
		return nil, err
	}

	results := make([]TrialResult, 0, len(s.Steps))
	for i, step := range s.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		cfg := step.Apply(base)
		if err := cfg.Validate(); err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}

		trials := max(1, step.Trials)
		for trial := 0; trial < trials; trial++ {
			c := *cfg
			c.Seed = cfg.Seed + int64(trial)

			log.WithFields(logrus.Fields{
				"scenario": s.Name,
				"step":     name,
				"trial":    trial + 1,
				"seed":     c.Seed,
			}).Info("running step")

			res := r.runTrial(ctx, &c, step.SaveAs, log.WithField("step", name))
			res.Step = name
			results = append(results, res)

			if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
				return results, res.Err
			}
		}
	}

	return results, nil
}

func (r *Runner) runTrial(ctx context.Context, cfg *config.Config, saveAs string, log *logrus.Entry) TrialResult {
	res := TrialResult{Seed: cfg.Seed}

	w, err := world.New(cfg, world.WithLogger(log))
	if err != nil {
		res.Err = err
		return res
	}
	defer w.Close()

	runner := world.NewRunner(w)
	lo, hi := w.Bounds()
	for _, m := range metrics.Defaults(cfg.Gravity, lo, cfg.Diameter(), lo, hi) {
		runner.AddMetric(m)
	}
	runner.ObserveEvery(cfg.Run.ExportEvery)

	var rec *storage.Recorder
	if r.Store != nil && saveAs != "" {
		rec, err = r.Store.Create(storage.RunMetadata{Name: saveAs, Backend: w.Backend().Name(), Config: *cfg})
		if err != nil {
			res.Err = err
			return res
		}
		res.RunID = rec.ID()
		runner.AddObserver(world.ObserverFunc(func(cur *world.World) error {
			return rec.Frame(cur.Time(), cur.Positions())
		}))
	}

	res.Result, res.Err = runner.Run(ctx, cfg.Run.Steps)
	if rec != nil && res.Result != nil {
		if err := rec.Finish(res.Result.Steps, res.Result.SimTime, res.Result.Elapsed, res.Result.Metrics); err != nil {
			res.Err = errors.Join(res.Err, err)
		}
	}
	res.Stable = res.Err == nil && res.Result.Metrics["stability"] == 1
	return res
}

// Stats counts stable and unstable trials.
func Stats(results []TrialResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
