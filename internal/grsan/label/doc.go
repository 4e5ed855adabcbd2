// Package label implements the label table of the gradient runtime.
//
// A label is a small integer naming a node in the provenance DAG of tainted
// values. Label 0 means "untainted, no derivative information". Every other
// label stores the two operand labels that produced it, the opcode, a pair of
// local derivatives and the last concrete value observed for it.
//
// # Allocation
//
// Ids are handed out by a single atomic counter, so allocation is lock-free
// and ids grow monotonically within a run:
//
//	t := label.NewTable(label.MaxLabels)
//	l, ok := t.Alloc()          // 1, true
//	t.Set(l, label.Info{...})
//
// The table is preallocated and never grows. When the id space is exhausted
// Alloc reports false; the runtime turns that into a fatal error.
//
// # Thread Safety
//
// Alloc is safe for concurrent use. Writing a label's metadata after
// allocating it is not synchronized: a goroutine must only read a label it
// learned about through a data dependency on its allocator. This holds for
// all runtime call patterns (a label id flows from Combine's return value to
// the next instrumented operation) but is not a general guarantee.
//
// Reset is NOT thread-safe and must only be called between replays.
package label
