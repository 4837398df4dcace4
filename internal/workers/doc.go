// Package workers provides a fixed-size pool of persistent goroutines with a
// blocking fan-out/fan-in primitive over the worker index space.
//
// Every [Pool.Run] call dispatches a new generation: each worker invokes the
// supplied function exactly once with its own index, and Run returns only
// after all of them have finished. The pool does not synchronize access to
// anything the function touches; callers partition their data so that
// concurrent workers never alias.
//
//	pool, err := workers.New(runtime.NumCPU())
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//	pool.For(len(xs), func(start, end int) {
//		for i := start; i < end; i++ {
//			xs[i] *= 2
//		}
//	})
package workers
