// Package world owns a running ball simulation: the ball state, the spatial
// grid, the precomputed partition plans and the execution backend.
//
// A World is created once from a validated config and advanced one fixed
// timestep at a time:
//
//	w, err := world.New(cfg)
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//	for i := 0; i < steps; i++ {
//		w.Step()
//	}
//
// Each step integrates every ball, rebuilds the grid, runs the 27 collision
// passes and, depending on the response policy, re-derives velocities from
// the realized displacement. A World is not safe for concurrent use; the
// parallelism lives inside Step.
//
// Runner wraps a World with a batch loop that feeds metrics and observers
// and honors context cancellation between steps.
package world
