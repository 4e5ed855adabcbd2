package deriv

import (
	"math"
	"math/bits"

	"github.com/kolkov/grsan/internal/grsan/opcode"
)

// Barrier samples an integer comparison at v-d and v+d for both operands.
// When a direction flips the outcome cond, that direction's component is
// zeroed on both operands: the branch bounds how far the input may move.
// It reports false for a non-integer predicate.
func Barrier(pred opcode.Predicate, w Width, lv, rv uint64, lhs, rhs Pair, cond bool) (Pair, Pair, bool) {
	if !pred.IsInt() {
		return lhs, rhs, false
	}
	cmp := func(a, b uint64) int {
		if pred.IsSigned() {
			x, y := w.SignExtend(a), w.SignExtend(b)
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
		x, y := w.Trunc(a), w.Trunc(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}

	if pred.Ordering(cmp(lv-barrierDelta(lhs.Neg), rv-barrierDelta(rhs.Neg))) != cond {
		lhs.Neg, rhs.Neg = 0, 0
	}
	if pred.Ordering(cmp(lv+barrierDelta(lhs.Pos), rv+barrierDelta(rhs.Pos))) != cond {
		lhs.Pos, rhs.Pos = 0, 0
	}
	return lhs, rhs, true
}

// barrierDelta converts one derivative component to an integer step.
// NaN does not move the operand.
func barrierDelta(d float64) uint64 {
	if math.IsNaN(d) {
		return 0
	}
	return delta(1, d)
}

// Uint128 is a 128-bit integer operand.
type Uint128 struct {
	Hi, Lo uint64
}

func (u Uint128) add(d int64) Uint128 {
	hi := uint64(0)
	if d < 0 {
		hi = math.MaxUint64
	}
	lo, carry := bits.Add64(u.Lo, uint64(d), 0)
	hi, _ = bits.Add64(u.Hi, hi, carry)
	return Uint128{Hi: hi, Lo: lo}
}

func (u Uint128) sub(d int64) Uint128 {
	return u.add(-d)
}

func (u Uint128) cmp(v Uint128, signed bool) int {
	if u.Hi != v.Hi {
		if signed {
			if int64(u.Hi) < int64(v.Hi) {
				return -1
			}
			return 1
		}
		if u.Hi < v.Hi {
			return -1
		}
		return 1
	}
	switch {
	case u.Lo < v.Lo:
		return -1
	case u.Lo > v.Lo:
		return 1
	}
	return 0
}

// Float returns u as an unsigned float64.
func (u Uint128) Float() float64 {
	return float64(u.Hi)*(1<<64) + float64(u.Lo)
}

// BarrierWide is Barrier for 128-bit operands.
func BarrierWide(pred opcode.Predicate, lv, rv Uint128, lhs, rhs Pair, cond bool) (Pair, Pair, bool) {
	if !pred.IsInt() {
		return lhs, rhs, false
	}
	signed := pred.IsSigned()
	step := func(d float64) int64 { return int64(barrierDelta(d)) }

	if pred.Ordering(lv.sub(step(lhs.Neg)).cmp(rv.sub(step(rhs.Neg)), signed)) != cond {
		lhs.Neg, rhs.Neg = 0, 0
	}
	if pred.Ordering(lv.add(step(lhs.Pos)).cmp(rv.add(step(rhs.Pos)), signed)) != cond {
		lhs.Pos, rhs.Pos = 0, 0
	}
	return lhs, rhs, true
}
