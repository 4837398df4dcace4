// Package physics holds the per-ball kernels of the ball simulation.
//
// State is kept as a structure of arrays in [Balls]. The kernels operate on
// index ranges so that callers can split work across goroutines:
//
//   - [Integrate]: semi-implicit Euler step under gravity with a positional
//     clamp at the walls
//   - [ResolvePair] and [ResolveCells]: positional correction and normal
//     velocity exchange for overlapping equal-mass spheres
//   - [Confine]: wall clamp applied after the collision passes
//   - [Rederive]: velocity recovered from the realized positional change
//
// None of the kernels synchronize. Concurrent callers must work on disjoint
// balls.
package physics
