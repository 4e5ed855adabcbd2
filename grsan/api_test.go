package grsan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var buf = make([]byte, 16)

func newRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestCombineWidth(t *testing.T) {
	rt := newRuntime(t)
	l := CreateLabel(rt, "x")

	// 8-bit addition keeps the unwrapped value, so 300 is observable.
	l8 := Combine(rt, l, uint8(200), 0, uint8(100), Add, "w8")
	info, ok := Info(rt, l8)
	require.True(t, ok)
	assert.Equal(t, 300.0, info.Value)

	// 32-bit subtraction wraps and reads signed.
	l32 := Combine(rt, l, int32(1), 0, int32(3), Sub, "w32")
	info, _ = Info(rt, l32)
	assert.Equal(t, -2.0, info.Value)

	assert.Equal(t, Label(0), Combine(rt, 0, 1, 0, 2, Add, ""))
}

func TestCombineDefaultLocation(t *testing.T) {
	rt := newRuntime(t)
	l := CreateLabel(rt, "x")

	sum := Combine(rt, l, 1, 0, 2, Add, "")
	info, _ := Info(rt, sum)
	assert.True(t, strings.HasPrefix(info.Location, "api_test.go:"), info.Location)

	f := CombineFloat(rt, l, 1.5, 0, 2.0, FMul, "")
	info, _ = Info(rt, f)
	assert.True(t, strings.HasPrefix(info.Location, "api_test.go:"), info.Location)
	assert.Equal(t, 2.0, info.PosDydx)
}

func TestCombineWide(t *testing.T) {
	rt := newRuntime(t)
	l := CreateLabel(rt, "x")

	wide := CombineWide(rt, l, Uint128{Lo: 1}, 0, Uint128{Lo: 2}, Add, "wide.go:1")
	require.NotEqual(t, l, wide)
	info, _ := Info(rt, wide)
	assert.False(t, info.Supported)
	assert.True(t, info.PosDydx != info.PosDydx, "derivative should be NaN")

	mixed := CombineUnsupported(rt, l, 0, FAdd, "mixed.go:1")
	assert.NotEqual(t, wide, mixed)
}

func TestRecordBranchFillsSite(t *testing.T) {
	rt := newRuntime(t)
	l := CreateLabel(rt, "x")

	RecordBranch(rt, l, 0, uint32(3), uint32(7), BranchSite{Pred: ICmpULT, Cond: true})
	RecordBranchFloat(rt, 0, 0, 1.0, 2.0, BranchSite{Pred: FCmpOLT})

	branches := rt.Branches()
	require.Len(t, branches, 1)
	assert.NotZero(t, branches[0].FileID)
	assert.True(t, strings.HasPrefix(branches[0].Location, "api_test.go:"), branches[0].Location)
	assert.Equal(t, 3.0, branches[0].LHSVal)
}

func TestShadowRoundTrip(t *testing.T) {
	rt := newRuntime(t)
	l := CreateLabel(rt, "x")

	SetLabel(rt, l, Addr(&buf[0]), 4)
	AddLabel(rt, l, Addr(&buf[0]), 4)
	assert.Equal(t, l, GetLabel(rt, Addr(&buf[2])))
	assert.Equal(t, l, ReadLabel(rt, Addr(&buf[0]), 4))

	Memcpy(rt, Addr(&buf[8]), Addr(&buf[0]), 4, 0, 0, 0, "copy.go:1")
	assert.Equal(t, l, Load(rt, Addr(&buf[8]), 4))

	Store(rt, Addr(&buf[8]), 4, 0)
	assert.Equal(t, Label(0), Load(rt, Addr(&buf[8]), 4))

	require.NoError(t, Flush(rt))
	assert.Equal(t, Label(0), GetLabel(rt, Addr(&buf[0])))
	assert.Equal(t, Label(1), CreateLabel(rt, "again"))
}

func TestRecordArg(t *testing.T) {
	rt := newRuntime(t)
	l := CreateLabel(rt, "x")

	RecordArg(rt, 42, 1, l, 3, "call.go:1")
	RecordArg(rt, 42, 2, 0, 3, "call.go:1")

	args := rt.Args()
	require.Len(t, args, 1)
	assert.Equal(t, uint32(42), args[0].InstID)
	assert.NotZero(t, args[0].FileID)
}

func TestInitFini(t *testing.T) {
	rt, err := Init()
	require.NoError(t, err)
	again, err := Init()
	require.NoError(t, err)
	assert.Same(t, rt, again)
	assert.Same(t, rt, Default())

	require.NoError(t, Fini())
	assert.Nil(t, Default())
	assert.NoError(t, Fini())
}

func TestPolicy(t *testing.T) {
	t.Setenv("GRSAN_SAMPLES", "2")
	t.Setenv("GRSAN_BRANCH_BARRIERS", "true")
	t.Setenv("GRSAN_DISABLE_LOGGING", "1")

	want := Policy{
		Samples:        2,
		DefaultNaN:     true,
		GEPDefault:     true,
		SelectDefault:  true,
		BranchBarriers: true,
		PerfMode:       true,
	}
	got, err := EnvPolicy()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "samples=2 default-nan=true gep=true select=true reuse=false barriers=true perf=true", got.String())

	assert.Equal(t, want, PolicyOf(newRuntime(t)))
}
