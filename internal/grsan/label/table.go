package label

import (
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/bits-and-blooms/bitset"

	"github.com/kolkov/grsan/internal/grsan/opcode"
)

// Label identifies a node in the taint/derivative provenance DAG.
type Label uint16

// MaxLabels is the largest id a table can hand out.
const MaxLabels = math.MaxUint16

// Info is the metadata stored per label.
type Info struct {
	L1, L2  Label         // Operand labels (0 if none).
	Opcode  opcode.Opcode // Operation that produced the label.
	NegDydx float64       // Derivative for a unit negative perturbation.
	PosDydx float64       // Derivative for a unit positive perturbation.
	// Value is the last concrete result observed for this label (f(x)).
	// NaN when the runtime could not compute it.
	Value     float64
	Location  string
	Supported bool
}

// IsSeed reports whether the label was created directly on input bytes.
func (i *Info) IsSeed() bool {
	return i.L1 == 0 && i.L2 == 0
}

// Table is a fixed-capacity, append-only store of label metadata.
type Table struct {
	last  atomic.Uint32
	max   uint32
	infos []Info // len max+1, index 0 unused
}

// NewTable preallocates a table able to hold ids 1..max.
// max is clamped to MaxLabels.
func NewTable(max int) *Table {
	if max <= 0 || max > MaxLabels {
		max = MaxLabels
	}
	return &Table{
		max:   uint32(max),
		infos: make([]Info, max+1),
	}
}

// Alloc reserves the next label id. It reports false when the id space is
// exhausted; the counter is left past the end so every later call fails too.
//
// Every Combine call that creates a label goes through Alloc, so it runs
// once per tainted arithmetic operation in instrumented code.
//
// Algorithm:
//
//  1. Atomically increment the last-label counter
//  2. If the new id is above max, report exhaustion
//  3. Otherwise return the id; its slot in infos is zero until Set
//
// Thread Safety: Safe for concurrent calls. Ids are unique across
// goroutines; the caller owns the slot of the returned id until Set.
//
// Performance: One atomic add, no locks.
//
// Zero Allocations: infos is sized by NewTable.
//
//go:nosplit
func (t *Table) Alloc() (Label, bool) {
	id := t.last.Add(1)
	if id > t.max {
		return 0, false
	}
	return Label(id), true
}

// Set stores metadata for an allocated label.
func (t *Table) Set(l Label, info Info) {
	t.infos[l] = info
}

// Ref returns a pointer to the stored metadata of l for in-place updates
// (branch barriers). l must be a valid nonzero id.
func (t *Table) Ref(l Label) *Info {
	return &t.infos[l]
}

// Get returns the metadata of l. Label 0 and ids outside the table return
// the zero Info and false.
func (t *Table) Get(l Label) (Info, bool) {
	if l == 0 || uint32(l) > t.max {
		return Info{}, false
	}
	return t.infos[l], true
}

// Derivatives returns the derivative pair of l; label 0 has none.
//
//go:nosplit
func (t *Table) Derivatives(l Label) (neg, pos float64) {
	if l == 0 {
		return 0, 0
	}
	info := &t.infos[l]
	return info.NegDydx, info.PosDydx
}

// Count returns the number of labels allocated so far (capped at the
// table capacity).
func (t *Table) Count() int {
	n := t.last.Load()
	if n > t.max {
		n = t.max
	}
	return int(n)
}

// Cap returns the largest id the table can hold.
func (t *Table) Cap() int {
	return int(t.max)
}

// Reset zeroes all metadata and rewinds the id counter.
func (t *Table) Reset() {
	clear(t.infos)
	t.last.Store(0)
}

// Contains reports whether addr points into the table's storage.
func (t *Table) Contains(addr uintptr) bool {
	if len(t.infos) == 0 {
		return false
	}
	start := uintptr(unsafe.Pointer(&t.infos[0]))
	end := start + uintptr(len(t.infos))*unsafe.Sizeof(t.infos[0])
	return addr >= start && addr < end
}

// HasLabel reports whether elem occurs in the provenance of l.
func (t *Table) HasLabel(l, elem Label) bool {
	found := false
	t.walk(l, func(cur Label, _ *Info) bool {
		if cur == elem {
			found = true
			return false
		}
		return true
	})
	return found
}

// HasLabelWithDesc reports whether a seed label with the given description
// occurs in the provenance of l.
func (t *Table) HasLabelWithDesc(l Label, desc string) bool {
	found := false
	t.walk(l, func(_ Label, info *Info) bool {
		if info.IsSeed() && info.Location == desc {
			found = true
			return false
		}
		return true
	})
	return found
}

// walk visits every label reachable from root through L1/L2 exactly once,
// iteratively. visit returns false to stop the walk.
func (t *Table) walk(root Label, visit func(Label, *Info) bool) {
	if root == 0 || uint32(root) > t.max {
		return
	}
	seen := bitset.New(uint(t.Count()) + 1)
	stack := []Label{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == 0 || seen.Test(uint(cur)) {
			continue
		}
		seen.Set(uint(cur))
		info := &t.infos[cur]
		if !visit(cur, info) {
			return
		}
		stack = append(stack, info.L2, info.L1)
	}
}
