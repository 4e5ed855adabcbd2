package deriv

import (
	"math"

	"github.com/kolkov/grsan/internal/grsan/opcode"
)

// flatEps is the band inside which a finite-difference estimate still
// counts as zero and the next sample may replace it.
const flatEps = 1e-5

// Pair is the local derivative of a value for a unit negative (Neg) and a
// unit positive (Pos) perturbation of its input.
type Pair struct {
	Neg, Pos float64
}

// Unit is the derivative pair of a seed label.
var Unit = Pair{Neg: 1, Pos: 1}

// IsZero reports whether both components are exactly zero.
func (p Pair) IsZero() bool {
	return p.Neg == 0 && p.Pos == 0
}

// HasNaN reports whether either component is NaN.
func (p Pair) HasNaN() bool {
	return math.IsNaN(p.Neg) || math.IsNaN(p.Pos)
}

// Equal compares pairs component-wise (NaN never equals NaN).
func (p Pair) Equal(q Pair) bool {
	return p.Neg == q.Neg && p.Pos == q.Pos
}

func nanPair() Pair {
	return Pair{Neg: math.NaN(), Pos: math.NaN()}
}

func constPair(v float64) Pair {
	return Pair{Neg: v, Pos: v}
}

// Options tunes the rules.
type Options struct {
	// Samples is the number of finite-difference samples per direction.
	Samples int
	// DefaultNaN makes opcodes without a rule produce NaN instead of 0.
	DefaultNaN bool
	// GEPDefault and SelectDefault pick 1.0 (true) or 0.0 (false) for
	// address computation and select.
	GEPDefault    bool
	SelectDefault bool
}

// DefaultOptions returns the runtime defaults.
func DefaultOptions() Options {
	return Options{
		Samples:       4,
		DefaultNaN:    true,
		GEPDefault:    true,
		SelectDefault: true,
	}
}

func (o Options) samples() int {
	if o.Samples < 1 {
		return 1
	}
	return o.Samples
}

func (o Options) fallback() Pair {
	if o.DefaultNaN {
		return nanPair()
	}
	return Pair{}
}

// Result is the outcome of one rule application.
type Result struct {
	D         Pair
	Value     float64
	Supported bool
	// DivByZero is set when the concrete divisor was zero.
	DivByZero bool
}

// RecordsDivisor reports whether a tainted second operand of op is logged
// as a derivative-loss argument.
func RecordsDivisor(op opcode.Opcode) bool {
	switch op {
	case opcode.UDiv, opcode.SDiv, opcode.FDiv, opcode.URem, opcode.SRem, opcode.FRem:
		return true
	}
	return false
}

// Unsupported is the result for operand types the runtime cannot follow
// (128-bit integers, mismatched kinds).
func Unsupported() Result {
	return Result{D: nanPair(), Value: math.NaN()}
}

type intOp struct {
	op     opcode.Opcode
	w      Width
	x1, x2 uint64
	d1, d2 Pair
	opts   Options
}

func (c *intOp) f(v uint64) float64 {
	return c.w.Float(v, signedView(c.op, c.w))
}

type intRule func(c *intOp) Result

var intRules = map[opcode.Opcode]intRule{
	opcode.Add:           addRule,
	opcode.Sub:           subRule,
	opcode.Mul:           mulRule,
	opcode.UDiv:          divRule,
	opcode.SDiv:          divRule,
	opcode.URem:          unitSampled,
	opcode.SRem:          unitSampled,
	opcode.Shl:           bitSampled,
	opcode.LShr:          bitSampled,
	opcode.AShr:          bitSampled,
	opcode.And:           bitSampled,
	opcode.Or:            bitSampled,
	opcode.Xor:           bitSampled,
	opcode.GetElementPtr: gepRule,
	opcode.Select:        selectRule,
}

// Int applies the rule of op to integer operands x1, x2 of width w with
// operand derivatives d1, d2.
func Int(op opcode.Opcode, w Width, x1, x2 uint64, d1, d2 Pair, opts Options) Result {
	c := &intOp{op: op, w: w, x1: x1, x2: x2, d1: d1, d2: d2, opts: opts}
	rule, ok := intRules[op]
	if !ok {
		return Result{D: opts.fallback(), Value: math.NaN()}
	}
	return rule(c)
}

func addRule(c *intOp) Result {
	return Result{
		D:         Pair{Neg: c.d1.Neg + c.d2.Neg, Pos: c.d1.Pos + c.d2.Pos},
		Value:     Value(c.op, c.w, c.x1, c.x2),
		Supported: true,
	}
}

func subRule(c *intOp) Result {
	return Result{
		D:         Pair{Neg: c.d1.Neg - c.d2.Neg, Pos: c.d1.Pos - c.d2.Pos},
		Value:     Value(c.op, c.w, c.x1, c.x2),
		Supported: true,
	}
}

func mulRule(c *intOp) Result {
	x1, x2 := c.f(c.x1), c.f(c.x2)
	return Result{
		D:         Pair{Neg: x1*c.d2.Neg + x2*c.d1.Neg, Pos: x1*c.d2.Pos + x2*c.d1.Pos},
		Value:     Value(c.op, c.w, c.x1, c.x2),
		Supported: true,
	}
}

// divRule is the quotient rule (x2*d1 - x1*d2) / x2^2.
func divRule(c *intOp) Result {
	if c.w.Trunc(c.x2) == 0 {
		return Result{D: nanPair(), Value: math.NaN(), Supported: true, DivByZero: true}
	}
	x1, x2 := c.f(c.x1), c.f(c.x2)
	return Result{
		D:         quotient(x1, x2, c.d1, c.d2),
		Value:     Value(c.op, c.w, c.x1, c.x2),
		Supported: true,
	}
}

func quotient(x1, x2 float64, d1, d2 Pair) Pair {
	den := x2 * x2
	return Pair{
		Neg: (x2*d1.Neg - x1*d2.Neg) / den,
		Pos: (x2*d1.Pos - x1*d2.Pos) / den,
	}
}

func unitSampled(c *intOp) Result {
	return sampled(c, func(smp int) int { return smp })
}

func bitSampled(c *intOp) Result {
	return sampled(c, func(smp int) int { return 1 << (smp - 1) })
}

// sampled estimates both derivatives by finite differences. step maps the
// sample number (1-based) to the perturbation size.
//
// Algorithm:
//
//  1. Evaluate the operation at (x1, x2); a zero divisor gives NaN
//  2. NaN operand derivatives propagate as NaN
//  3. For smp in 1..Samples, while a direction is still within flatEps
//     of zero: move each operand by step(smp) scaled by its own derivative
//     in that direction, re-evaluate and take the difference quotient
//  4. Samples that hit a zero divisor are skipped
//
// A direction stops sampling at its first non-flat estimate, so a step
// function that grows lets bit operations find a change that unit steps
// miss.
//
// Thread Safety: Pure; safe for concurrent use.
//
// Performance: At most 2*Samples evaluations of the operation, no
// allocations.
func sampled(c *intOp, step func(int) int) Result {
	y, ok := Eval(c.op, c.w, c.x1, c.x2)
	if !ok {
		return Result{D: nanPair(), Value: math.NaN(), Supported: true, DivByZero: true}
	}
	res := Result{Value: Value(c.op, c.w, c.x1, c.x2), Supported: true}
	if c.d1.HasNaN() || c.d2.HasNaN() {
		res.D = nanPair()
		return res
	}

	fy := c.f(y)
	for smp := 1; smp <= c.opts.samples(); smp++ {
		s := step(smp)
		if math.Abs(res.D.Neg) < flatEps {
			a := c.x1 - delta(s, c.d1.Neg)
			b := c.x2 - delta(s, c.d2.Neg)
			if ny, ok := Eval(c.op, c.w, a, b); ok {
				res.D.Neg = (fy - c.f(ny)) / float64(s)
			}
		}
		if math.Abs(res.D.Pos) < flatEps {
			a := c.x1 + delta(s, c.d1.Pos)
			b := c.x2 + delta(s, c.d2.Pos)
			if py, ok := Eval(c.op, c.w, a, b); ok {
				res.D.Pos = (c.f(py) - fy) / float64(s)
			}
		}
	}
	return res
}

func gepRule(c *intOp) Result {
	d := 0.0
	if c.opts.GEPDefault {
		d = 1
	}
	return Result{D: constPair(d), Value: math.NaN(), Supported: true}
}

func selectRule(c *intOp) Result {
	d := 0.0
	if c.opts.SelectDefault {
		d = 1
	}
	return Result{D: constPair(d), Value: math.NaN(), Supported: true}
}
