// Package engine implements the gradient runtime: label allocation, shadow
// memory I/O, derivative propagation, branch and argument recording, and
// the run lifecycle (flush, fini, fatal errors).
//
// # Runtime
//
// All state of one instrumented run lives in a Runtime: the label table,
// the shadow region, the branch and argument logs and the flags. There is
// no package-level state, so several runtimes can replay different inputs
// in parallel (the collect phase does exactly that).
//
// # Labels and Derivatives
//
// A label names one node of the provenance DAG. Seed labels are created on
// input bytes with unit derivatives. Every instrumented binary operation
// with at least one tainted operand calls a Combine method, which applies
// the rule of the opcode (package deriv) and allocates a new label carrying
// the result pair, the concrete value and the location.
//
//	l := rt.CreateSeedLabel("input_byte")
//	rt.SetLabel(l, addr, 1)
//	sum := rt.CombineInt(l, 0, x, 250, deriv.W32, opcode.Add, "main.go:12")
//
// # Branches
//
// Comparisons with a tainted operand are appended to the branch log with
// the operand derivatives at that moment. With branch barriers enabled the
// comparison is also sampled one derivative step away in each direction;
// a direction that flips the outcome is zeroed on both operand labels.
//
// # Fatal Errors
//
// Invariant violations (label exhaustion, log overflow, a shadow union of
// two different labels, an invalid predicate) are fatal: the runtime prints
// one "FATAL: grsan: ..." line to stderr, runs the die callbacks (the dumps)
// and exits with status 1. Tests replace the exit with WithExit.
//
// # Thread Safety
//
// Combine, CreateSeedLabel, SetLabel and the recorders may be called from
// any goroutine. Id and log index allocation is atomic; metadata is written
// once after allocation and read by whoever learns the id through a data
// dependency. Flush, Fini and Close must not run concurrently with anything
// else.
package engine
