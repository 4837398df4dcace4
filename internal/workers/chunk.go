package workers

// Chunk returns the half-open range [start, end) of [0, n) owned by worker
// when n items are split into workers contiguous pieces. Consecutive workers
// get adjacent ranges and the union covers [0, n) exactly.
func Chunk(worker, workers, n int) (start, end int) {
	return worker * n / workers, (worker + 1) * n / workers
}
