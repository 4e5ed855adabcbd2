package deriv

import (
	"math"
	"testing"

	"github.com/kolkov/grsan/internal/grsan/opcode"
)

func TestBarrier(t *testing.T) {
	tests := []struct {
		name     string
		pred     opcode.Predicate
		w        Width
		lv, rv   uint64
		cond     bool
		wantLHS  Pair
		wantRHS  Pair
		rhsInput Pair
	}{
		// x == 5 with x = 5: moving x either way breaks equality.
		{"eq-pins", opcode.ICmpEQ, W32, 5, 5, true, Pair{}, Pair{}, Pair{}},
		{"ult-inside", opcode.ICmpULT, W32, 3, 10, true, Unit, Pair{}, Pair{}},
		{"slt-edge", opcode.ICmpSLT, W8, 0xff, 0, true, Pair{Neg: 1}, Pair{}, Pair{}},
		{"ult-unsigned-view", opcode.ICmpULT, W8, 0xff, 0, false, Unit, Pair{}, Pair{}},
		{"ne-both-move", opcode.ICmpNE, W32, 5, 6, true, Unit, Unit, Unit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lhs, rhs, ok := Barrier(tt.pred, tt.w, tt.lv, tt.rv, Unit, tt.rhsInput, tt.cond)
			if !ok {
				t.Fatal("Barrier() rejected predicate")
			}
			if !lhs.Equal(tt.wantLHS) {
				t.Errorf("lhs = %+v, want %+v", lhs, tt.wantLHS)
			}
			if !rhs.Equal(tt.wantRHS) {
				t.Errorf("rhs = %+v, want %+v", rhs, tt.wantRHS)
			}
		})
	}
}

func TestBarrierInvalidPredicate(t *testing.T) {
	if _, _, ok := Barrier(opcode.FCmpOEQ, W32, 1, 1, Unit, Unit, true); ok {
		t.Error("Barrier(fcmp) accepted")
	}
	if _, _, ok := BarrierWide(opcode.Predicate(99), Uint128{}, Uint128{}, Unit, Unit, true); ok {
		t.Error("BarrierWide(99) accepted")
	}
}

func TestBarrierNaNDoesNotMove(t *testing.T) {
	nan := Pair{Neg: math.NaN(), Pos: math.NaN()}
	lhs, _, _ := Barrier(opcode.ICmpEQ, W32, 5, 5, nan, Pair{}, true)
	if !lhs.HasNaN() {
		t.Errorf("lhs = %+v, want NaN kept", lhs)
	}
}

func TestBarrierWide(t *testing.T) {
	lv := Uint128{Hi: 0, Lo: math.MaxUint64}
	rv := Uint128{Hi: 1, Lo: 0}

	// lv+1 carries into Hi and becomes equal to rv.
	lhs, _, ok := BarrierWide(opcode.ICmpEQ, lv, rv, Unit, Pair{}, false)
	if !ok {
		t.Fatal("BarrierWide() rejected eq")
	}
	if !lhs.Equal(Pair{Neg: 1}) {
		t.Errorf("lhs = %+v, want {1 0}", lhs)
	}

	neg := Uint128{Hi: math.MaxUint64, Lo: math.MaxUint64} // -1
	lhs, _, _ = BarrierWide(opcode.ICmpSLT, neg, Uint128{}, Unit, Pair{}, true)
	if !lhs.Equal(Pair{Neg: 1}) {
		t.Errorf("signed lhs = %+v, want {1 0}", lhs)
	}
}

func TestUint128Float(t *testing.T) {
	if got := (Uint128{Hi: 1}).Float(); got != math.Pow(2, 64) {
		t.Errorf("Float() = %v", got)
	}
}
