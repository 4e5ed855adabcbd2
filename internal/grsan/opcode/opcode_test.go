package opcode

import "testing"

// TestOpcodeNumbering pins the tags the instrumentation pass emits.
func TestOpcodeNumbering(t *testing.T) {
	tests := []struct {
		op   Opcode
		want uint16
		name string
	}{
		{Add, 11, "Add"},
		{FAdd, 12, "FAdd"},
		{SDiv, 18, "SDiv"},
		{URem, 20, "URem"},
		{Shl, 23, "Shl"},
		{Xor, 28, "Xor"},
		{GetElementPtr, 32, "GetElementPtr"},
		{ICmp, 51, "ICmp"},
		{Select, 55, "Select"},
		{LandingPad, 64, "LandingPad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if uint16(tt.op) != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, uint16(tt.op), tt.want)
			}
			if tt.op.String() != tt.name {
				t.Errorf("String() = %q, want %q", tt.op.String(), tt.name)
			}
			got, ok := Parse(tt.name)
			if !ok || got != tt.op {
				t.Errorf("Parse(%q) = %v, %v", tt.name, got, ok)
			}
		})
	}
}

func TestOpcodeUnknown(t *testing.T) {
	if Opcode(200).String() != "Unknown" {
		t.Errorf("Opcode(200).String() = %q", Opcode(200).String())
	}
	if Opcode(200).Valid() {
		t.Error("Opcode(200) reported valid")
	}
	if _, ok := Parse(""); ok {
		t.Error("Parse(\"\") succeeded")
	}
}

func TestPredicateOrdering(t *testing.T) {
	tests := []struct {
		p             Predicate
		lt, eq, gt    bool
		signed, isInt bool
	}{
		{ICmpEQ, false, true, false, false, true},
		{ICmpNE, true, false, true, false, true},
		{ICmpUGT, false, false, true, false, true},
		{ICmpUGE, false, true, true, false, true},
		{ICmpULT, true, false, false, false, true},
		{ICmpULE, true, true, false, false, true},
		{ICmpSGT, false, false, true, true, true},
		{ICmpSLE, true, true, false, true, true},
		{FCmpOEQ, false, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			if got := tt.p.Ordering(-1); got != tt.lt {
				t.Errorf("Ordering(-1) = %v, want %v", got, tt.lt)
			}
			if got := tt.p.Ordering(0); got != tt.eq {
				t.Errorf("Ordering(0) = %v, want %v", got, tt.eq)
			}
			if got := tt.p.Ordering(1); got != tt.gt {
				t.Errorf("Ordering(1) = %v, want %v", got, tt.gt)
			}
			if tt.p.IsSigned() != tt.signed {
				t.Errorf("IsSigned() = %v", tt.p.IsSigned())
			}
			if tt.p.IsInt() != tt.isInt {
				t.Errorf("IsInt() = %v", tt.p.IsInt())
			}
		})
	}
}
