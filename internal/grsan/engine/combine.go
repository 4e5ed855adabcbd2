package engine

import (
	"math"

	"github.com/kolkov/grsan/internal/grsan/callsite"
	"github.com/kolkov/grsan/internal/grsan/deriv"
	"github.com/kolkov/grsan/internal/grsan/label"
	"github.com/kolkov/grsan/internal/grsan/opcode"
)

func (rt *Runtime) pair(l label.Label) deriv.Pair {
	neg, pos := rt.table.Derivatives(l)
	return deriv.Pair{Neg: neg, Pos: pos}
}

// CombineInt propagates derivatives through an integer operation of width
// w and returns the label of its result. Untainted operands (both labels 0)
// produce label 0 without touching the table.
//
// This is the hot path of instrumented integer code: it runs for every
// arithmetic instruction with at least one tainted operand.
//
// Algorithm:
//
//  1. Both labels 0: return 0
//  2. Width other than 8, 16, 32 or 64: label the result as unsupported
//  3. ReuseLabels with both operand derivatives zero: return the tainted
//     operand's label
//  4. Tainted divisor of a division or remainder: append an argument
//     record
//  5. Apply the opcode's rule (analytic for Add, Sub, Mul and Div;
//     finite differences otherwise)
//  6. ReuseLabels with an unchanged operand derivative: return that
//     operand's label; otherwise allocate a new one
//
// Parameters:
//   - l1, l2: operand labels (0 for a constant operand)
//   - x1, x2: concrete operand values, zero-extended to 64 bits
//   - w: operand width; signed opcodes read x1, x2 as two's complement
//   - loc: source location; empty means the instrumented caller's file:line
//
// Thread Safety: Safe for concurrent calls. Operand metadata is read
// without locks, so the operand labels must not be written concurrently.
// Branch barriers writing the same labels from another goroutine race.
//
// Performance: The analytic rules are a few float operations. Sampled
// rules evaluate the operation up to 2*Samples times. An empty loc costs
// a runtime.Caller lookup.
func (rt *Runtime) CombineInt(l1, l2 label.Label, x1, x2 uint64, w deriv.Width, op opcode.Opcode, loc string) label.Label {
	if l1 == 0 && l2 == 0 {
		return 0
	}
	if !w.Valid() {
		return rt.unsupportedLabel(l1, l2, op, rt.location(loc))
	}
	d1, d2 := rt.pair(l1), rt.pair(l2)
	if rt.flags.ReuseLabels && d1.IsZero() && d2.IsZero() {
		if l1 != 0 {
			return l1
		}
		return l2
	}
	if l2 != 0 && deriv.RecordsDivisor(op) {
		fileID := uint64(callsite.Caller(rt.callerSkip))
		rt.recordArg(fileID, uint32(op), 0, l2, w.Float(x2, op.IsSigned()), loc)
	}
	res := deriv.Int(op, w, x1, x2, d1, d2, rt.rules)
	return rt.result(l1, l2, d1, d2, op, res, rt.location(loc))
}

// CombineFloat is CombineInt for floating point operands.
func (rt *Runtime) CombineFloat(l1, l2 label.Label, x1, x2 float64, op opcode.Opcode, loc string) label.Label {
	if l1 == 0 && l2 == 0 {
		return 0
	}
	d1, d2 := rt.pair(l1), rt.pair(l2)
	if rt.flags.ReuseLabels && d1.IsZero() && d2.IsZero() {
		if l1 != 0 {
			return l1
		}
		return l2
	}
	if l2 != 0 && deriv.RecordsDivisor(op) {
		fileID := uint64(callsite.Caller(rt.callerSkip))
		rt.recordArg(fileID, uint32(op), 0, l2, x2, loc)
	}
	res := deriv.Float(op, x1, x2, d1, d2, rt.rules)
	return rt.result(l1, l2, d1, d2, op, res, rt.location(loc))
}

// CombineUnsupported labels the result of an operation on operand types the
// runtime cannot follow (128-bit integers, mixed kinds). It always
// allocates a fresh label with NaN derivatives.
func (rt *Runtime) CombineUnsupported(l1, l2 label.Label, op opcode.Opcode, loc string) label.Label {
	if l1 == 0 && l2 == 0 {
		return 0
	}
	return rt.unsupportedLabel(l1, l2, op, rt.location(loc))
}

func (rt *Runtime) unsupportedLabel(l1, l2 label.Label, op opcode.Opcode, loc string) label.Label {
	rt.unsupported.Add(1)
	res := deriv.Unsupported()
	return rt.alloc(label.Info{
		L1:       l1,
		L2:       l2,
		Opcode:   op,
		NegDydx:  res.D.Neg,
		PosDydx:  res.D.Pos,
		Value:    math.NaN(),
		Location: loc,
	})
}

// result turns a rule result into a label, reusing an operand label when
// reuse is enabled and the derivatives did not change.
func (rt *Runtime) result(l1, l2 label.Label, d1, d2 deriv.Pair, op opcode.Opcode, res deriv.Result, loc string) label.Label {
	if res.DivByZero && rt.flags.Strict {
		rt.Fatalf(fatalDivByZero, op, loc)
		return 0
	}
	if !res.Supported {
		rt.unsupported.Add(1)
	}
	if rt.flags.ReuseLabels {
		if l1 != 0 && res.D.Equal(d1) {
			return l1
		}
		if l2 != 0 && res.D.Equal(d2) {
			return l2
		}
	}
	return rt.alloc(label.Info{
		L1:        l1,
		L2:        l2,
		Opcode:    op,
		NegDydx:   res.D.Neg,
		PosDydx:   res.D.Pos,
		Value:     res.Value,
		Location:  loc,
		Supported: res.Supported,
	})
}

// location returns loc, or the instrumented caller's "file:line" when loc
// is empty. It must be called directly from an exported entry point.
func (rt *Runtime) location(loc string) string {
	if loc != "" {
		return loc
	}
	return callsite.Location(callsite.Caller(rt.callerSkip + 1))
}
