package deriv

import (
	"math"

	"github.com/kolkov/grsan/internal/grsan/opcode"
)

// Float applies the rule of op to floating point operands.
func Float(op opcode.Opcode, x1, x2 float64, d1, d2 Pair, opts Options) Result {
	switch op {
	case opcode.FAdd:
		return Result{D: Pair{Neg: d1.Neg + d2.Neg, Pos: d1.Pos + d2.Pos}, Value: x1 + x2, Supported: true}
	case opcode.FSub:
		return Result{D: Pair{Neg: d1.Neg - d2.Neg, Pos: d1.Pos - d2.Pos}, Value: x1 - x2, Supported: true}
	case opcode.FMul:
		return Result{
			D:         Pair{Neg: x1*d2.Neg + x2*d1.Neg, Pos: x1*d2.Pos + x2*d1.Pos},
			Value:     x1 * x2,
			Supported: true,
		}
	case opcode.FDiv:
		if x2 == 0 {
			return Result{D: nanPair(), Value: math.NaN(), Supported: true, DivByZero: true}
		}
		return Result{D: quotient(x1, x2, d1, d2), Value: x1 / x2, Supported: true}
	case opcode.FRem:
		// A single unit sample per direction.
		y := math.Mod(x1, x2)
		return Result{
			D: Pair{
				Neg: y - math.Mod(x1-d1.Neg, x2-d2.Neg),
				Pos: math.Mod(x1+d1.Pos, x2+d2.Pos) - y,
			},
			Value:     y,
			Supported: true,
			DivByZero: x2 == 0,
		}
	}
	return Result{D: opts.fallback(), Value: math.NaN()}
}
