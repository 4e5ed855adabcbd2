// Package shadow implements the shadow memory of the gradient runtime.
//
// Shadow memory is a byte-for-byte parallel address space: every addressable
// application byte owns a fixed-size slot that holds its current label.
//
// # Addressing
//
// The slot of an application address is computed without allocation or
// lookup:
//
//	slot = base + ((addr & mask) << 1)
//
// mask keeps the low ShadowBits bits of the address and the shift accounts for
// the 2-byte label width. The mask is fixed at startup (GRSAN_SHADOW_BITS) so
// platforms with a different address-space layout can pick a window that
// covers their heap. Addresses that differ only above the mask alias to the
// same slot; pick a window wide enough for the program under test.
//
// # Memory Layout
//
// On Linux the region is an anonymous MAP_NORESERVE mapping, so untouched
// pages cost nothing and all-zero pages stay shared. Reset unmaps and remaps
// the region, which returns every page to the kernel in one call. Other
// platforms fall back to a heap slice.
//
// # Constant Memory
//
// Ranges registered with MarkConstant (read-only globals, code) are reported
// by IsConstant; the runtime reads them as label 0 whatever their slots
// contain.
//
// # Thread Safety
//
// Slot reads and writes are plain memory accesses, exactly like the
// application accesses they shadow. Concurrent writers to the same bytes race
// in the shadow as they race in the program. MarkConstant and IsConstant are safe
// for concurrent use. Reset is NOT thread-safe.
package shadow
