// Package compute provides the execution backends that run the simulation
// kernels of one step.
//
// Two backends implement [Backend]:
//
//   - cpu: a persistent [workers.Pool] executes integration, the 27
//     collision passes with a closing wall clamp, and velocity
//     re-derivation directly on the shared ball slices
//   - opengl: the same kernels as OpenGL 4.3 compute shaders; one shader
//     invocation per near cell of a pass, with the partition plans computed
//     on the host
//
// The OpenGL backend needs a current GL context (the gui package provides
// one) and is compiled only with the opengl build tag:
//
//	go build -tags opengl ./cmd/ballsim
//
// Both backends walk the passes in the same order with the same plans, so
// they differ only by floating-point precision.
package compute
