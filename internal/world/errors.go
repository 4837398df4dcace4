package world

import "errors"

var (
	// ErrBackendInit indicates the execution backend could not be started.
	ErrBackendInit = errors.New("world: backend initialization failed")

	// ErrInitialState indicates explicit initial balls that do not match the
	// configuration.
	ErrInitialState = errors.New("world: invalid initial state")

	// ErrUnstable indicates a non-finite position or velocity after a step.
	ErrUnstable = errors.New("world: simulation unstable (NaN or Inf detected)")
)

// StepError wraps an error with the step it was detected at.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return e.Wrapped.Error()
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
