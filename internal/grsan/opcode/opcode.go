// Package opcode defines the closed set of operation and predicate tags that
// instrumented code passes to the gradient runtime.
//
// The numeric values follow the LLVM instruction numbering
// (include/llvm/IR/Instruction.def and InstrTypes.h) because the
// instrumentation pass emits those tags verbatim. Only a subset of the
// opcodes has a derivative rule; the rest exist so that labels produced by
// them can still be named in dumps and diagnostics.
package opcode

// Opcode tags the operation that produced a label.
type Opcode uint16

// Operation tags. Zero means "no operation" (seed labels).
const (
	None Opcode = iota
	Ret
	Br
	Switch
	IndirectBr
	Invoke
	Resume
	Unreachable
	CleanupRet
	CatchRet
	CatchSwitch

	Add
	FAdd
	Sub
	FSub
	Mul
	FMul
	UDiv
	SDiv
	FDiv
	URem
	SRem
	FRem

	Shl
	LShr
	AShr
	And
	Or
	Xor

	Alloca
	Load
	Store
	GetElementPtr
	Fence
	AtomicCmpXchg
	AtomicRMW

	Trunc
	ZExt
	SExt
	FPToUI
	FPToSI
	UIToFP
	SIToFP
	FPTrunc
	FPExt
	PtrToInt
	IntToPtr
	BitCast
	AddrSpaceCast

	CleanupPad
	CatchPad

	ICmp
	FCmp
	PHI
	Call
	Select
	UserOp1
	UserOp2
	VAArg
	ExtractElement
	InsertElement
	ShuffleVector
	ExtractValue
	InsertValue
	LandingPad

	numOpcodes
)

var names = [numOpcodes]string{
	"", "Ret", "Br", "Switch", "IndirectBr", "Invoke", "Resume", "Unreachable",
	"CleanupRet", "CatchRet", "CatchSwitch",
	"Add", "FAdd", "Sub", "FSub", "Mul", "FMul", "UDiv", "SDiv", "FDiv",
	"URem", "SRem", "FRem",
	"Shl", "LShr", "AShr", "And", "Or", "Xor",
	"Alloca", "Load", "Store", "GetElementPtr", "Fence", "AtomicCmpXchg", "AtomicRMW",
	"Trunc", "ZExt", "SExt", "FPToUI", "FPToSI", "UIToFP", "SIToFP", "FPTrunc",
	"FPExt", "PtrToInt", "IntToPtr", "BitCast", "AddrSpaceCast",
	"CleanupPad", "CatchPad",
	"ICmp", "FCmp", "PHI", "Call", "Select", "UserOp1", "UserOp2", "VAArg",
	"ExtractElement", "InsertElement", "ShuffleVector", "ExtractValue",
	"InsertValue", "LandingPad",
}

// String returns the LLVM-style name of the opcode ("" for None,
// "Unknown" for values outside the enumeration).
func (o Opcode) String() string {
	if o >= numOpcodes {
		return "Unknown"
	}
	return names[o]
}

// Valid reports whether o is inside the enumeration.
func (o Opcode) Valid() bool {
	return o < numOpcodes
}

// IsFloat reports whether o is one of the floating point arithmetic opcodes.
func (o Opcode) IsFloat() bool {
	switch o {
	case FAdd, FSub, FMul, FDiv, FRem:
		return true
	}
	return false
}

// IsSigned reports whether o interprets its integer operands as signed.
func (o Opcode) IsSigned() bool {
	switch o {
	case SDiv, SRem, AShr:
		return true
	}
	return false
}

// Parse returns the opcode with the given name.
func Parse(name string) (Opcode, bool) {
	for i, n := range names {
		if n == name && i != 0 {
			return Opcode(i), true
		}
	}
	return None, false
}
