package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/grsan/internal/grsan/config"
	"github.com/kolkov/grsan/internal/grsan/deriv"
	"github.com/kolkov/grsan/internal/grsan/label"
	"github.com/kolkov/grsan/internal/grsan/opcode"
)

func TestRecordBranch(t *testing.T) {
	rt := newTestRuntime(t)
	x := rt.CreateSeedLabel("x")

	rt.RecordBranch(0, 0, 1, 2, deriv.W32, BranchSite{Pred: opcode.ICmpEQ})
	assert.Empty(t, rt.Branches(), "untainted comparison recorded")

	rt.RecordBranch(x, 0, 0xfe, 3, deriv.W8, BranchSite{FileID: 9, InstID: 4, Pred: opcode.ICmpSGT, Location: "cmp"})
	rt.RecordBranchFloat(0, x, 1.5, 2.5, BranchSite{Pred: opcode.FCmpOLT, Cond: true})
	rt.RecordBranchWide(x, 0, deriv.Uint128{Lo: 7}, deriv.Uint128{Lo: 8}, BranchSite{Pred: opcode.ICmpULT, Cond: true})

	brs := rt.Branches()
	require.Len(t, brs, 3)
	assert.Equal(t, -2.0, brs[0].LHSVal, "signed predicate reads a signed value")
	assert.Equal(t, uint64(9), brs[0].FileID)
	assert.Equal(t, 1.0, brs[0].LHSNeg)
	assert.True(t, brs[0].RHSNeg == 0 && brs[0].RHSPos == 0)
	assert.Equal(t, x, brs[1].RHS)
	assert.Equal(t, 1.5, brs[1].LHSVal)
	assert.Equal(t, 8.0, brs[2].RHSVal)
}

// TestBranchBarrierEquality pins x == 5 with x = 5: the record keeps the
// derivatives seen at the branch, the label loses both directions.
func TestBranchBarrierEquality(t *testing.T) {
	rt := newTestRuntime(t, func(f *config.Flags) { f.BranchBarriers = true })
	x := rt.CreateSeedLabel("x")

	rt.RecordBranch(x, 0, 5, 5, deriv.W32, BranchSite{Pred: opcode.ICmpEQ, Cond: true, Location: "eq"})

	brs := rt.Branches()
	require.Len(t, brs, 1)
	assert.Equal(t, 1.0, brs[0].LHSNeg)
	assert.Equal(t, 1.0, brs[0].LHSPos)

	info, _ := rt.Info(x)
	assert.Equal(t, 0.0, info.NegDydx)
	assert.Equal(t, 0.0, info.PosDydx)
	assert.Equal(t, "x", info.Location, "barrier keeps the location")

	// Label 0 never gains an entry.
	_, ok := rt.Info(label.Label(0))
	assert.False(t, ok)
}

// TestBranchBarrierEqualityNegative pins x == 5 with x = 6: only the
// downward sample reaches 5, so only the negative component is cut.
func TestBranchBarrierEqualityNegative(t *testing.T) {
	rt := newTestRuntime(t, func(f *config.Flags) { f.BranchBarriers = true })
	x := rt.CreateSeedLabel("x")

	rt.RecordBranch(x, 0, 6, 5, deriv.W32, BranchSite{Pred: opcode.ICmpEQ, Cond: false, Location: "eq"})

	brs := rt.Branches()
	require.Len(t, brs, 1)
	assert.Equal(t, 1.0, brs[0].LHSNeg)
	assert.Equal(t, 1.0, brs[0].LHSPos)

	info, _ := rt.Info(x)
	assert.Equal(t, 0.0, info.NegDydx)
	assert.Equal(t, 1.0, info.PosDydx)
}

func TestBranchBarrierOneSided(t *testing.T) {
	rt := newTestRuntime(t, func(f *config.Flags) { f.BranchBarriers = true })
	x := rt.CreateSeedLabel("x")
	y := rt.CreateSeedLabel("y")

	// x = 9 < y = 10: moving up makes both 10 and 11, still less; moving
	// down keeps it too. Nothing changes.
	rt.RecordBranch(x, y, 9, 10, deriv.W32, BranchSite{Pred: opcode.ICmpULT, Cond: true})
	info, _ := rt.Info(x)
	assert.Equal(t, 1.0, info.PosDydx)

	// x = 9 < 10 (constant): moving up by one hits the bound.
	rt.RecordBranch(x, 0, 9, 10, deriv.W32, BranchSite{Pred: opcode.ICmpULT, Cond: true})
	info, _ = rt.Info(x)
	assert.Equal(t, 1.0, info.NegDydx)
	assert.Equal(t, 0.0, info.PosDydx)
}

func TestBranchBarrierInvalidPredicate(t *testing.T) {
	rt := newTestRuntime(t, func(f *config.Flags) { f.BranchBarriers = true })
	x := rt.CreateSeedLabel("x")

	out := rt.expectFatal(t, func() {
		rt.RecordBranch(x, 0, 1, 1, deriv.W32, BranchSite{Pred: opcode.FCmpOEQ})
	})
	assert.Contains(t, out, "invalid branch cmp predicate 1")
}

func TestBranchLogOverflow(t *testing.T) {
	rt := newTestRuntime(t, func(f *config.Flags) { f.BranchRecords = 2 })
	x := rt.CreateSeedLabel("x")

	site := BranchSite{Pred: opcode.ICmpEQ}
	rt.RecordBranch(x, 0, 1, 1, deriv.W32, site)
	rt.RecordBranch(x, 0, 1, 1, deriv.W32, site)
	out := rt.expectFatal(t, func() { rt.RecordBranch(x, 0, 1, 1, deriv.W32, site) })
	assert.Contains(t, out, "out of branch record space (2 records)")
}

func TestArgLogOverflow(t *testing.T) {
	rt := newTestRuntime(t, func(f *config.Flags) { f.ArgRecords = 1 })
	x := rt.CreateSeedLabel("x")

	rt.RecordArg(1, 2, 0, x, 3, "f")
	out := rt.expectFatal(t, func() { rt.RecordArg(1, 2, 1, x, 3, "f") })
	assert.Contains(t, out, "out of function argument record space")
}
