// Package grsan is a gradient sanitizer runtime: dynamic taint tracking
// extended with forward-mode derivatives, used to steer mutation fuzzing
// toward numeric boundary bugs such as integer overflows.
//
// # Quick Start
//
// Every byte of application memory carries a label. Seed labels are created
// on input bytes; every arithmetic operation on labeled values calls a
// Combine function, which creates a new label holding the derivative of the
// result with respect to the seed:
//
//	rt, err := grsan.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer rt.Close()
//
//	x := input[3]
//	lx := grsan.CreateLabel(rt, "input_byte")
//	grsan.SetLabel(rt, lx, grsan.Addr(&input[3]), 1)
//
//	lsum := grsan.Combine(rt, lx, uint32(x), 0, uint32(250), grsan.Add, "")
//	info, _ := grsan.Info(rt, lsum)
//	// info.Value == 250 + x, info.PosDydx == 1
//
// # API Overview
//
// The package provides functions for:
//   - Runtime lifecycle: [New], [Init], [Default], [Fini], [Flush]
//   - Labels and shadow memory: [CreateLabel], [SetLabel], [AddLabel],
//     [GetLabel], [ReadLabel], [Load], [Store], [Memcpy]
//   - Derivative propagation: [Combine], [CombineFloat], [CombineWide],
//     [CombineUnsupported]
//   - Branch and argument records: [RecordBranch], [RecordBranchFloat],
//     [RecordBranchWide], [RecordArg]
//   - Version and derivative policy: [Version], [PolicyOf], [EnvPolicy]
//
// # How Derivatives Are Computed
//
// Each label holds two local derivatives, for a unit step down (NegDydx)
// and a unit step up (PosDydx) of the seed byte. Add, Sub, Mul and the
// divisions use the chain, product and quotient rules at the concrete
// operand values. Remainders, shifts and bitwise operations, which are not
// differentiable, use finite differences: the operands are moved by their
// own derivatives and the first sample that changes the result is kept.
// Operations without a rule get NaN derivatives.
//
// # Branch Barriers
//
// With GRSAN_BRANCH_BARRIERS=1, every recorded integer comparison checks
// whether stepping an operand by its derivative flips the outcome. If it
// does, that direction is zeroed on the operand's label, so the search does
// not follow a gradient across a branch it cannot see.
//
// # Configuration
//
// The runtime reads GRSAN_* environment variables (see the config package
// for the full list). The most useful ones:
//
//	GRSAN_DISABLE_LOGGING=1      performance mode, no records or dumps
//	GRSAN_GRADIENT_LOGFILE=path  CSV dump of every label at Fini
//	GRSAN_BRANCH_LOGFILE=path    CSV dump of every branch record
//	GRSAN_FUNC_LOGFILE=path      CSV dump of every argument record
//	GRSAN_BRANCH_BARRIERS=1      enable branch barriers
//	GRSAN_STRICT=1               make division by zero fatal
//
// # Thread Safety
//
// Combine, CreateLabel, SetLabel and the record functions are safe for
// concurrent use on one Runtime. Flush is not.
package grsan
