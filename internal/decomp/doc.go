// Package decomp partitions the collision broad phase into race-free passes.
//
// A full sweep visits the 27 relative cell offsets of the 3×3×3
// neighborhood. For each offset a [Plan] describes which cell pairs
// (near, near+Target) the pass visits and how the primary axis is divided
// among workers.
//
// The driving axis of a non-zero offset (the highest-index non-zero
// component) is walked with stride 2, so every near cell of a pass has the
// same parity on that axis and every far cell the opposite parity. Together
// with Target being a translation, this means a cell takes part in at most
// one pair per pass, which is what lets workers mutate the balls of their
// cells without locks. The two signs of an offset select the two parities,
// so across all 27 passes every unordered pair of neighboring cells is
// visited exactly once and every cell is paired with itself exactly once.
package decomp
