package targets

import (
	"github.com/kolkov/grsan/grsan"
)

func init() {
	Register(Target{
		Name:        "overflow",
		Description: "adds 250 to input[3] and checks the sum against the byte range",
		Run:         Overflow,
		Sample:      []byte{0, 0, 0, 0},
	})
	Register(Target{
		Name:        "intdemo",
		Description: "scales input[0] by 4, takes it mod 4 and multiplies it by 1..4",
		Run:         IntDemo,
		Sample:      []byte{1},
	})
	Register(Target{
		Name:        "checksum",
		Description: "sums input bytes into a 16-bit checksum and divides by the last byte",
		Run:         Checksum,
		Sample:      []byte{1, 2, 3, 4, 5, 6, 7, 8},
	})
}

// Overflow computes input[3] + 250 in 32 bits. A sum above 255 would no
// longer fit the byte it is stored back into.
func Overflow(rt *grsan.Runtime, data []byte) {
	if len(data) < 4 {
		return
	}
	x := uint32(data[3])
	lx := grsan.Load(rt, grsan.Addr(&data[3]), 1)

	sum := x + 250
	lsum := grsan.Combine(rt, lx, x, 0, uint32(250), grsan.Add, "")

	grsan.RecordBranch(rt, lsum, 0, sum, uint32(255), grsan.BranchSite{
		Pred: grsan.ICmpUGT,
		Cond: sum > 255,
	})
	if sum > 255 {
		grsan.Unimplemented(rt, "overflow_handler")
	}
}

// IntDemo is a small integer program with a branch, a remainder and a loop
// of multiplications on one tainted byte.
func IntDemo(rt *grsan.Runtime, data []byte) {
	if len(data) < 1 {
		return
	}
	x := int32(data[0])
	lx := grsan.Load(rt, grsan.Addr(&data[0]), 1)

	grsan.RecordBranch(rt, lx, 0, x, int32(0), grsan.BranchSite{Pred: grsan.ICmpSGT, Cond: x > 0})
	if x <= 0 {
		return
	}
	y := 4 * x
	ly := grsan.Combine(rt, 0, int32(4), lx, x, grsan.Mul, "")

	grsan.Combine(rt, ly, y, 0, int32(4), grsan.SRem, "")

	loop, lloop := y, ly
	for i := int32(1); i < 5; i++ {
		lloop = grsan.Combine(rt, lloop, loop, 0, i, grsan.Mul, "")
		loop *= i
	}
}

// Checksum folds every input byte into a 16-bit sum and divides it by the
// last byte. A zero last byte divides by zero.
func Checksum(rt *grsan.Runtime, data []byte) {
	if len(data) == 0 {
		return
	}
	var sum uint16
	var lsum grsan.Label
	for i := range data {
		b := uint16(data[i])
		lb := grsan.Load(rt, grsan.Addr(&data[i]), 1)
		lsum = grsan.Combine(rt, lsum, sum, lb, b, grsan.Add, "")
		sum += b
	}

	last := len(data) - 1
	d := uint16(data[last])
	ld := grsan.Load(rt, grsan.Addr(&data[last]), 1)
	grsan.RecordBranch(rt, ld, 0, d, uint16(0), grsan.BranchSite{Pred: grsan.ICmpEQ, Cond: d == 0})
	if d == 0 {
		return
	}
	grsan.Combine(rt, lsum, sum, ld, d, grsan.UDiv, "")
}
