package deriv

import (
	"fmt"
	"math"

	"github.com/kolkov/grsan/internal/grsan/opcode"
)

// Width is the bit width of an integer operation.
type Width uint8

// Supported integer widths.
const (
	W8  Width = 8
	W16 Width = 16
	W32 Width = 32
	W64 Width = 64
)

// Valid reports whether w is one of the supported widths.
func (w Width) Valid() bool {
	switch w {
	case W8, W16, W32, W64:
		return true
	}
	return false
}

func (w Width) String() string {
	return fmt.Sprintf("i%d", uint8(w))
}

// Mask returns the value mask of w.
func (w Width) Mask() uint64 {
	if w >= W64 {
		return math.MaxUint64
	}
	return uint64(1)<<w - 1
}

// Trunc wraps v to w bits.
func (w Width) Trunc(v uint64) uint64 {
	return v & w.Mask()
}

// SignExtend reads the low w bits of v as a two's complement number.
func (w Width) SignExtend(v uint64) int64 {
	shift := 64 - uint(w)
	return int64(v<<shift) >> shift
}

// Float converts the low w bits of v to float64, signed or unsigned.
func (w Width) Float(v uint64, signed bool) float64 {
	if signed {
		return float64(w.SignExtend(v))
	}
	return float64(w.Trunc(v))
}

// signedView reports how op reads its operands and result at width w.
func signedView(op opcode.Opcode, w Width) bool {
	switch op {
	case opcode.SDiv, opcode.SRem, opcode.AShr:
		return true
	case opcode.UDiv, opcode.URem, opcode.LShr:
		return false
	}
	return w >= W32
}

// Eval performs op on a and b at width w and returns the wrapped result.
// It reports false for division by zero and for opcodes it does not
// implement.
func Eval(op opcode.Opcode, w Width, a, b uint64) (uint64, bool) {
	a, b = w.Trunc(a), w.Trunc(b)
	var r uint64
	switch op {
	case opcode.Add:
		r = a + b
	case opcode.Sub:
		r = a - b
	case opcode.Mul:
		r = a * b
	case opcode.UDiv:
		if b == 0 {
			return 0, false
		}
		r = a / b
	case opcode.URem:
		if b == 0 {
			return 0, false
		}
		r = a % b
	case opcode.SDiv:
		if b == 0 {
			return 0, false
		}
		r = uint64(w.SignExtend(a) / w.SignExtend(b))
	case opcode.SRem:
		if b == 0 {
			return 0, false
		}
		r = uint64(w.SignExtend(a) % w.SignExtend(b))
	case opcode.Shl:
		if b >= uint64(w) {
			return 0, true
		}
		r = a << b
	case opcode.LShr:
		if b >= uint64(w) {
			return 0, true
		}
		r = a >> b
	case opcode.AShr:
		if b >= uint64(w) {
			b = uint64(w) - 1
		}
		r = uint64(w.SignExtend(a) >> b)
	case opcode.And:
		r = a & b
	case opcode.Or:
		r = a | b
	case opcode.Xor:
		r = a ^ b
	default:
		return 0, false
	}
	return w.Trunc(r), true
}

// Value returns the concrete value recorded for op(a, b) at width w.
// It is NaN when the operation is undefined or not implemented.
func Value(op opcode.Opcode, w Width, a, b uint64) float64 {
	if w < W32 {
		x1, x2 := float64(w.Trunc(a)), float64(w.Trunc(b))
		switch op {
		case opcode.Add:
			return x1 + x2
		case opcode.Sub:
			return x1 - x2
		case opcode.Mul:
			return x1 * x2
		}
	}
	r, ok := Eval(op, w, a, b)
	if !ok {
		return math.NaN()
	}
	return w.Float(r, signedView(op, w))
}

// delta converts step*d into an integer perturbation. The conversion
// truncates toward zero through int64.
func delta(step int, d float64) uint64 {
	return uint64(int64(float64(step) * d))
}
