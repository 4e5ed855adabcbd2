package engine

import (
	"github.com/kolkov/grsan/internal/grsan/deriv"
	"github.com/kolkov/grsan/internal/grsan/label"
	"github.com/kolkov/grsan/internal/grsan/opcode"
	"github.com/kolkov/grsan/internal/grsan/record"
)

// BranchSite describes one instrumented comparison.
type BranchSite struct {
	FileID   uint64
	InstID   uint64
	Pred     opcode.Predicate
	Cond     bool // Outcome observed in this run.
	IsPtr    uint16
	Location string
}

// RecordBranch records an integer comparison of width w. Nothing happens
// when neither operand is tainted. Performance mode skips the record but
// not the barrier.
//
// The record keeps the operand derivatives seen at the branch. With
// BranchBarriers on, both operands are then moved together by their own
// derivatives, once down and once up. A direction that flips the outcome
// has that component zeroed on both operands, in place in the label table.
//
// Parameters:
//   - lhs, rhs: operand labels
//   - lv, rv: concrete operand values, zero-extended to 64 bits
//   - w: operand width
//   - site: source position, predicate and observed outcome
//
// Thread Safety: Appending the record is safe for concurrent calls. The
// barrier writes the operand labels' metadata without locks; a barrier on
// a label in use by another goroutine races with it.
//
// Performance: One record append (an atomic add and a copy) plus, with
// barriers on, two comparisons. Fatal when the record log is
// full or the predicate is not an integer predicate.
func (rt *Runtime) RecordBranch(lhs, rhs label.Label, lv, rv uint64, w deriv.Width, site BranchSite) {
	if lhs == 0 && rhs == 0 {
		return
	}
	signed := site.Pred.IsSigned()
	rt.appendBranch(lhs, rhs, w.Float(lv, signed), w.Float(rv, signed), site)

	if !rt.flags.BranchBarriers {
		return
	}
	ln, rn, ok := deriv.Barrier(site.Pred, w, lv, rv, rt.pair(lhs), rt.pair(rhs), site.Cond)
	if !ok {
		rt.Fatalf(fatalPredicate, site.Pred)
		return
	}
	rt.applyBarrier(lhs, rhs, ln, rn)
}

// RecordBranchWide records a 128-bit integer comparison.
func (rt *Runtime) RecordBranchWide(lhs, rhs label.Label, lv, rv deriv.Uint128, site BranchSite) {
	if lhs == 0 && rhs == 0 {
		return
	}
	rt.appendBranch(lhs, rhs, lv.Float(), rv.Float(), site)

	if !rt.flags.BranchBarriers {
		return
	}
	ln, rn, ok := deriv.BarrierWide(site.Pred, lv, rv, rt.pair(lhs), rt.pair(rhs), site.Cond)
	if !ok {
		rt.Fatalf(fatalPredicate, site.Pred)
		return
	}
	rt.applyBarrier(lhs, rhs, ln, rn)
}

// RecordBranchFloat records a floating point comparison. Float comparisons
// have no barrier.
func (rt *Runtime) RecordBranchFloat(lhs, rhs label.Label, lv, rv float64, site BranchSite) {
	if lhs == 0 && rhs == 0 {
		return
	}
	rt.appendBranch(lhs, rhs, lv, rv, site)
}

func (rt *Runtime) appendBranch(lhs, rhs label.Label, lv, rv float64, site BranchSite) {
	if rt.flags.PerfMode() {
		return
	}
	ld, rd := rt.pair(lhs), rt.pair(rhs)
	ok := rt.branches.Append(record.Branch{
		FileID:   site.FileID,
		InstID:   site.InstID,
		LHS:      lhs,
		RHS:      rhs,
		LHSVal:   lv,
		RHSVal:   rv,
		LHSNeg:   ld.Neg,
		LHSPos:   ld.Pos,
		RHSNeg:   rd.Neg,
		RHSPos:   rd.Pos,
		Pred:     site.Pred,
		Cond:     site.Cond,
		IsPtr:    site.IsPtr,
		Location: site.Location,
	})
	if !ok {
		rt.Fatalf(fatalBranchLog, rt.branches.Cap())
	}
}

// applyBarrier writes barrier results back. Label 0 has no table entry and
// is never written.
func (rt *Runtime) applyBarrier(lhs, rhs label.Label, ln, rn deriv.Pair) {
	if lhs != 0 {
		info := rt.table.Ref(lhs)
		info.NegDydx, info.PosDydx = ln.Neg, ln.Pos
	}
	if rhs != 0 {
		info := rt.table.Ref(rhs)
		info.NegDydx, info.PosDydx = rn.Neg, rn.Pos
	}
}

// RecordArg records a tainted value passed to a function. It is skipped
// entirely in performance mode.
func (rt *Runtime) RecordArg(fileID uint64, instID, argIndex uint32, l label.Label, v float64, loc string) {
	rt.recordArg(fileID, instID, argIndex, l, v, loc)
}

func (rt *Runtime) recordArg(fileID uint64, instID, argIndex uint32, l label.Label, v float64, loc string) {
	if rt.flags.PerfMode() {
		return
	}
	d := rt.pair(l)
	ok := rt.args.Append(record.Arg{
		FileID:   fileID,
		InstID:   instID,
		ArgIndex: argIndex,
		Label:    l,
		Value:    v,
		Neg:      d.Neg,
		Pos:      d.Pos,
		Location: loc,
	})
	if !ok {
		rt.Fatalf(fatalArgLog, rt.args.Cap())
	}
}
