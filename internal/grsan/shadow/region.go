package shadow

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/kolkov/grsan/internal/grsan/label"
)

const (
	// SlotShift is log2 of the slot width (labels are 2 bytes).
	SlotShift = 1

	// DefaultBits is the default width of the address window.
	DefaultBits = 26

	// MinBits and MaxBits bound the configurable window.
	MinBits = 12
	MaxBits = 40
)

type addrRange struct {
	start, end uintptr
}

// Region is the shadow store of one runtime.
type Region struct {
	bits uint
	mask uintptr
	mem  []byte

	// consts holds sorted, immutable []addrRange snapshots.
	consts  atomic.Pointer[[]addrRange]
	constMu sync.Mutex

	// excluded reports addresses that must never be translated
	// (for example the label table storage).
	excluded func(uintptr) bool
}

// NewRegion maps a shadow region covering a window of 2^bits application
// bytes.
func NewRegion(bits uint) (*Region, error) {
	if bits < MinBits || bits > MaxBits {
		return nil, errors.Errorf("shadow: window of %d bits outside [%d, %d]", bits, MinBits, MaxBits)
	}
	r := &Region{
		bits: bits,
		mask: uintptr(1)<<bits - 1,
	}
	mem, err := mapRegion(r.size())
	if err != nil {
		return nil, err
	}
	r.mem = mem
	empty := []addrRange{}
	r.consts.Store(&empty)
	return r, nil
}

func (r *Region) size() int {
	return (1 << r.bits) << SlotShift
}

// Exclude registers a predicate for addresses that belong to runtime
// storage. SlotFor panics on them.
func (r *Region) Exclude(fn func(uintptr) bool) {
	r.excluded = fn
}

// Bits returns the width of the address window.
func (r *Region) Bits() uint {
	return r.bits
}

// Mask returns the application address mask.
func (r *Region) Mask() uintptr {
	return r.mask
}

// Base returns the address of the first slot.
func (r *Region) Base() uintptr {
	return uintptr(unsafe.Pointer(&r.mem[0]))
}

// Contains reports whether addr lies inside the shadow region itself.
func (r *Region) Contains(addr uintptr) bool {
	base := r.Base()
	return addr >= base && addr < base+uintptr(len(r.mem))
}

// SlotFor translates an application address to the address of its slot.
// It panics when addr already points into runtime storage: translating a
// shadow address twice is always an instrumentation bug.
func (r *Region) SlotFor(addr uintptr) uintptr {
	if r.Contains(addr) || (r.excluded != nil && r.excluded(addr)) {
		panic(fmt.Sprintf("shadow: address 0x%x is runtime storage", addr))
	}
	return r.Base() + (addr&r.mask)<<SlotShift
}

// offset returns the slot index of addr inside mem.
func (r *Region) offset(addr uintptr) uintptr {
	return r.SlotFor(addr) - r.Base()
}

// slot returns a pointer to the label slot of addr. The slot pointer is
// always 2-byte aligned: the region is page aligned and offsets are even.
func (r *Region) slot(off uintptr) *label.Label {
	return (*label.Label)(unsafe.Pointer(&r.mem[off]))
}

// next advances a slot offset by one application byte, wrapping at the end
// of the window the way the mask does.
func (r *Region) next(off uintptr) uintptr {
	off += 1 << SlotShift
	if off >= uintptr(len(r.mem)) {
		off = 0
	}
	return off
}

// Get returns the label of a single application byte.
func (r *Region) Get(addr uintptr) label.Label {
	return *r.slot(r.offset(addr))
}

// Labels copies the slot labels of [addr, addr+size) into dst and returns it.
func (r *Region) Labels(addr uintptr, size uintptr, dst []label.Label) []label.Label {
	dst = dst[:0]
	off := r.offset(addr)
	for ; size != 0; size-- {
		dst = append(dst, *r.slot(off))
		off = r.next(off)
	}
	return dst
}

// Set writes l to every slot covering [addr, addr+size). Slots that already
// hold l are not written, which keeps shared zero pages shared.
func (r *Region) Set(l label.Label, addr uintptr, size uintptr) {
	off := r.offset(addr)
	for ; size != 0; size-- {
		p := r.slot(off)
		if *p != l {
			*p = l
		}
		off = r.next(off)
	}
}

// Zero clears the slots covering [addr, addr+size) in bulk.
func (r *Region) Zero(addr uintptr, size uintptr) {
	off := r.offset(addr)
	n := size << SlotShift
	for n > 0 {
		end := off + n
		if end > uintptr(len(r.mem)) {
			end = uintptr(len(r.mem))
		}
		clear(r.mem[off:end])
		n -= end - off
		off = 0
	}
}

// Copy copies the slots of [src, src+size) over those of [dst, dst+size).
// Overlapping ranges behave like memmove.
func (r *Region) Copy(dst, src uintptr, size uintptr) {
	if size == 0 || dst == src {
		return
	}
	tmp := r.Labels(src, size, make([]label.Label, 0, size))
	off := r.offset(dst)
	for _, l := range tmp {
		*r.slot(off) = l
		off = r.next(off)
	}
}

// MarkConstant registers [addr, addr+size) as constant-only memory.
func (r *Region) MarkConstant(addr uintptr, size uintptr) {
	if size == 0 {
		return
	}
	r.constMu.Lock()
	defer r.constMu.Unlock()

	old := *r.consts.Load()
	all := make([]addrRange, 0, len(old)+1)
	all = append(all, old...)
	all = append(all, addrRange{start: addr, end: addr + size})
	ranges := mergeRanges(all)
	r.consts.Store(&ranges)
}

// mergeRanges sorts ranges by start and coalesces overlapping or adjacent
// ones. The result is disjoint, so IsConstant only needs the nearest range
// starting at or below an address.
func mergeRanges(ranges []addrRange) []addrRange {
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })
	out := ranges[:0]
	for _, rg := range ranges {
		if n := len(out); n > 0 && rg.start <= out[n-1].end {
			if rg.end > out[n-1].end {
				out[n-1].end = rg.end
			}
			continue
		}
		out = append(out, rg)
	}
	return out
}

// IsConstant reports whether [addr, addr+size) lies entirely inside the
// registered constant memory.
func (r *Region) IsConstant(addr uintptr, size uintptr) bool {
	ranges := *r.consts.Load()
	i := sort.Search(len(ranges), func(i int) bool { return ranges[i].start > addr })
	if i == 0 {
		return false
	}
	rg := ranges[i-1]
	return addr >= rg.start && addr+size <= rg.end
}

// Reset discards every label by remapping the region. Constant ranges are
// kept: they describe the program, not the run.
func (r *Region) Reset() error {
	mem, err := remapRegion(r.mem)
	if err != nil {
		return err
	}
	r.mem = mem
	return nil
}

// Close releases the region. The Region must not be used afterwards.
func (r *Region) Close() error {
	if r.mem == nil {
		return nil
	}
	err := unmapRegion(r.mem)
	r.mem = nil
	return err
}
