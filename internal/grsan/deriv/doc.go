// Package deriv holds the derivative rules of the gradient runtime.
//
// Every instrumented binary operation carries two local derivatives per
// operand: the change of the operand for a unit negative and a unit positive
// perturbation of the input byte it depends on. The rules here combine the
// operand pairs into the pair of the result.
//
// # Rule Kinds
//
// Closed form rules (Add, Sub, Mul, division) are exact at the concrete
// operand values. Operations without a useful closed form (remainder, shifts,
// bitwise logic) are estimated by finite differences: the operands are moved
// by step*d in each direction and the change of the result is divided by the
// step. The first estimate that departs from zero wins, so flat regions of
// a bitwise function do not hide a nonzero slope a few steps away.
//
// Remainder samples unit steps 1..Samples. Shifts and bitwise logic sample
// power-of-two steps 1, 2, 4, ... because their slopes change at bit
// boundaries.
//
// # Integer Semantics
//
// Integer operands arrive as raw bits plus a Width. Results wrap at the
// width exactly like the instrumented machine operation. The concrete value
// recorded for a result (Result.Value) is:
//
//   - 8 and 16-bit Add, Sub, Mul: the exact, unwrapped result of the
//     unsigned operands, so the distance past an overflow is observable
//   - SDiv, SRem, AShr: the signed reading of the wrapped result
//   - UDiv, URem, LShr: the unsigned reading
//   - everything else: unsigned at 8/16 bits, signed at 32/64 bits
//
// This package is pure: no allocation, no shared state, safe for concurrent
// use.
package deriv
