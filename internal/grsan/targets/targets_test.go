package targets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/grsan/grsan"
	"github.com/kolkov/grsan/internal/grsan/opcode"
	"github.com/kolkov/grsan/internal/grsan/search"
)

func newRuntime(t *testing.T) *grsan.Runtime {
	t.Helper()
	rt, err := grsan.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"checksum", "intdemo", "overflow"}, Names())

	tg, err := Lookup("overflow")
	require.NoError(t, err)
	assert.NotNil(t, tg.Run)
	assert.NotEmpty(t, tg.Sample)

	_, err = Lookup("nope")
	assert.ErrorContains(t, err, `unknown target "nope"`)

	assert.Panics(t, func() { Register(Target{Name: "overflow"}) })
}

func TestOverflow(t *testing.T) {
	rt := newRuntime(t)
	data := []byte{0, 0, 0, 6}

	snap, err := search.Replay(rt, Overflow, data, 3, search.SeedInputByte)
	require.NoError(t, err)
	require.Equal(t, 2, snap.Len())

	sum, _ := snap.Get(2)
	assert.Equal(t, opcode.Add, sum.Opcode)
	assert.Equal(t, 256.0, sum.Value)
	assert.Equal(t, 1.0, sum.PosDydx)

	branches := rt.Branches()
	require.Len(t, branches, 1)
	assert.True(t, branches[0].Cond)
	assert.Equal(t, 256.0, branches[0].LHSVal)
	assert.Equal(t, uint64(1), rt.Stats().Unimplemented)

	// Other bytes never reach a tainted operation.
	snap, err = search.Replay(rt, Overflow, data, 0, search.SeedInputByte)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())
}

func TestIntDemo(t *testing.T) {
	rt := newRuntime(t)
	data := []byte{1}

	snap, err := search.Replay(rt, IntDemo, data, 0, search.SeedInputByte)
	require.NoError(t, err)
	require.Equal(t, 7, snap.Len())

	y, _ := snap.Get(2)
	assert.Equal(t, opcode.Mul, y.Opcode)
	assert.Equal(t, 4.0, y.PosDydx)

	loop, _ := snap.Get(7)
	assert.Equal(t, 96.0, loop.Value)
	assert.Equal(t, 96.0, loop.PosDydx)
	assert.Equal(t, 96.0, loop.NegDydx)

	// A non-positive input stops after the branch.
	data[0] = 0
	snap, err = search.Replay(rt, IntDemo, data, 0, search.SeedInputByte)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())
}

func TestChecksum(t *testing.T) {
	rt := newRuntime(t)
	data := []byte{1, 2, 3, 4}

	snap, err := search.Replay(rt, Checksum, data, 3, search.SeedInputByte)
	require.NoError(t, err)
	// Seed, the sum with the last byte, and the division by it.
	require.Equal(t, 3, snap.Len())

	div, _ := snap.Get(3)
	assert.Equal(t, opcode.UDiv, div.Opcode)
	assert.Equal(t, 2.0, div.Value)

	// The tainted divisor is recorded.
	args := rt.Args()
	require.Len(t, args, 1)
	assert.Equal(t, uint32(opcode.UDiv), args[0].InstID)
	assert.Equal(t, 4.0, args[0].Value)
}
