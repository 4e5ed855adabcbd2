package opcode

import "fmt"

// Predicate is a comparison predicate (llvm::CmpInst::Predicate).
type Predicate uint32

// Floating point predicates.
const (
	FCmpFalse Predicate = iota
	FCmpOEQ
	FCmpOGT
	FCmpOGE
	FCmpOLT
	FCmpOLE
	FCmpONE
	FCmpORD
	FCmpUNO
	FCmpUEQ
	FCmpUGT
	FCmpUGE
	FCmpULT
	FCmpULE
	FCmpUNE
	FCmpTrue
)

// Integer predicates.
const (
	ICmpEQ Predicate = iota + 32
	ICmpNE
	ICmpUGT
	ICmpUGE
	ICmpULT
	ICmpULE
	ICmpSGT
	ICmpSGE
	ICmpSLT
	ICmpSLE
)

var predicateNames = map[Predicate]string{
	FCmpFalse: "false", FCmpOEQ: "oeq", FCmpOGT: "ogt", FCmpOGE: "oge",
	FCmpOLT: "olt", FCmpOLE: "ole", FCmpONE: "one", FCmpORD: "ord",
	FCmpUNO: "uno", FCmpUEQ: "ueq", FCmpUGT: "ugt", FCmpUGE: "uge",
	FCmpULT: "ult", FCmpULE: "ule", FCmpUNE: "une", FCmpTrue: "true",
	ICmpEQ: "eq", ICmpNE: "ne", ICmpUGT: "ugt", ICmpUGE: "uge",
	ICmpULT: "ult", ICmpULE: "ule", ICmpSGT: "sgt", ICmpSGE: "sge",
	ICmpSLT: "slt", ICmpSLE: "sle",
}

func (p Predicate) String() string {
	if n, ok := predicateNames[p]; ok {
		return n
	}
	return fmt.Sprintf("pred(%d)", uint32(p))
}

// IsInt reports whether p is an integer comparison predicate.
func (p Predicate) IsInt() bool {
	return p >= ICmpEQ && p <= ICmpSLE
}

// IsSigned reports whether p compares integers as signed values.
func (p Predicate) IsSigned() bool {
	return p >= ICmpSGT && p <= ICmpSLE
}

// Ordering evaluates p on the result of a three-way comparison
// (c < 0, c == 0, c > 0). It is only meaningful for integer predicates.
func (p Predicate) Ordering(c int) bool {
	switch p {
	case ICmpEQ:
		return c == 0
	case ICmpNE:
		return c != 0
	case ICmpUGT, ICmpSGT:
		return c > 0
	case ICmpUGE, ICmpSGE:
		return c >= 0
	case ICmpULT, ICmpSLT:
		return c < 0
	case ICmpULE, ICmpSLE:
		return c <= 0
	}
	return false
}
