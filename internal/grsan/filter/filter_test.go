package filter

import (
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/grsan/internal/grsan/label"
	"github.com/kolkov/grsan/internal/grsan/opcode"
)

func newLogger() (*log.Logger, *memory.Handler) {
	h := memory.New()
	return &log.Logger{Handler: h, Level: log.InfoLevel}, h
}

// overflowSnapshot is x (seed) and x + 250.
func overflowSnapshot() *label.Snapshot {
	return &label.Snapshot{Infos: []label.Info{
		{},
		{NegDydx: 1, PosDydx: 1, Location: "x"},
		{L1: 1, Opcode: opcode.Add, NegDydx: 1, PosDydx: 1, Value: 250, Location: "target.go:9"},
	}}
}

func TestIntOverflow(t *testing.T) {
	logger, h := newLogger()
	list := NewList(0)

	inputs := []Input{
		{SrcID: 0, Snapshot: &label.Snapshot{Infos: []label.Info{{}, {NegDydx: 1, PosDydx: 1}}}},
		{SrcID: 3, Snapshot: overflowSnapshot()},
	}
	found := Run(logger, inputs, list, IntOverflow)

	require.Equal(t, 1, found)
	targets := list.Targets()
	require.Len(t, targets, 1)
	assert.Equal(t, 3, targets[0].SrcID)
	assert.Equal(t, label.Label(2), targets[0].SinkID)
	assert.Equal(t, opcode.Add, targets[0].Opcode)
	assert.Equal(t, "int_overflow", targets[0].Filter)
	assert.Equal(t, 7.0, targets[0].Loss(5, 250))

	// Input 0 only holds its seed and is skipped; input 3 logs both labels.
	require.Len(t, h.Entries, 2)
	assert.Equal(t, "FILTER", h.Entries[1].Message)
	assert.Equal(t, "Add", h.Entries[1].Fields.Get("opcode"))
	assert.Equal(t, 250.0, h.Entries[1].Fields.Get("f_val"))
}

func TestMultipleFilters(t *testing.T) {
	logger, _ := newLogger()
	list := NewList(10)
	seeds := Filter{
		Name:  "seeds",
		Match: func(info *label.Info) bool { return info.IsSeed() },
		Loss:  func(x, _ float64) float64 { return x },
	}

	found := Run(logger, []Input{{SrcID: 1, Snapshot: overflowSnapshot()}}, list, IntOverflow, seeds)
	assert.Equal(t, 2, found)
	assert.Equal(t, 2, list.Len())
}

// TestListWraps verifies a full list keeps the newest targets and counts
// overwrites.
func TestListWraps(t *testing.T) {
	list := NewList(3)
	for i := 0; i < 5; i++ {
		list.Add(Target{SrcID: i})
	}

	assert.Equal(t, 2, list.Errors)
	assert.Equal(t, 3, list.Len())
	var got []int
	for _, tg := range list.Targets() {
		got = append(got, tg.SrcID)
	}
	assert.Equal(t, []int{2, 3, 4}, got)
	assert.ErrorIs(t, list.Err(), ErrCapacity)
	assert.NoError(t, NewList(1).Err())
}
