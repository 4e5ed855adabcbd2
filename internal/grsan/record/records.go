package record

import (
	"github.com/kolkov/grsan/internal/grsan/label"
	"github.com/kolkov/grsan/internal/grsan/opcode"
)

// Branch is one tainted comparison observed during a run. Derivatives are
// copied from the label table when the branch executes.
type Branch struct {
	FileID   uint64
	InstID   uint64
	LHS, RHS label.Label
	LHSVal   float64
	RHSVal   float64
	LHSNeg   float64
	LHSPos   float64
	RHSNeg   float64
	RHSPos   float64
	Pred     opcode.Predicate
	Cond     bool
	IsPtr    uint16
	Location string
}

// Zero reports whether the comparison carried no gradient at all.
func (b *Branch) Zero() bool {
	return b.LHSNeg == 0 && b.LHSPos == 0 && b.RHSNeg == 0 && b.RHSPos == 0
}

// Arg is one tainted value passed to a function or used as a divisor.
type Arg struct {
	FileID   uint64
	InstID   uint32
	ArgIndex uint32
	Label    label.Label
	Value    float64
	Neg, Pos float64
	Location string
}

// Default capacities.
const (
	DefaultBranchRecords = 1 << 20
	DefaultArgRecords    = 65535
)

// Inst ids used by the runtime for argument records it creates itself.
// Divisor records use the opcode number as inst id.
const (
	InstMemcpy uint32 = 6
)
