package engine

import (
	"github.com/kolkov/grsan/internal/grsan/callsite"
	"github.com/kolkov/grsan/internal/grsan/label"
	"github.com/kolkov/grsan/internal/grsan/record"
)

// SetLabel labels every byte of [addr, addr+size) with l.
func (rt *Runtime) SetLabel(l label.Label, addr, size uintptr) {
	rt.shadow.Set(l, addr, size)
}

// AddLabel asserts that every byte of [addr, addr+size) already carries l.
// A different label on any byte is fatal.
func (rt *Runtime) AddLabel(l label.Label, addr, size uintptr) {
	for i := uintptr(0); i < size; i++ {
		if got := rt.shadow.Get(addr + i); got != l {
			rt.Fatalf(fatalAlreadyLabel, addr+i, got, l)
			return
		}
	}
}

// GetLabel returns the label of the byte at addr.
func (rt *Runtime) GetLabel(addr uintptr) label.Label {
	return rt.LoadShadow(addr, 1)
}

// LoadShadow returns the label of the value stored at [addr, addr+size):
// 0 for an empty range or constant memory, otherwise the union of the
// byte labels.
func (rt *Runtime) LoadShadow(addr, size uintptr) label.Label {
	if size == 0 || rt.shadow.IsConstant(addr, size) {
		return 0
	}
	if size == 1 {
		return rt.shadow.Get(addr)
	}
	var buf [16]label.Label
	return rt.UnionLoad(rt.shadow.Labels(addr, size, buf[:0]))
}

// ReadLabel is LoadShadow under its ABI name.
func (rt *Runtime) ReadLabel(addr, size uintptr) label.Label {
	return rt.LoadShadow(addr, size)
}

// StoreShadow labels a stored value. Label 0 clears the range in bulk.
func (rt *Runtime) StoreShadow(addr, size uintptr, l label.Label) {
	if l == 0 {
		rt.shadow.Zero(addr, size)
		return
	}
	rt.shadow.Set(l, addr, size)
}

// MarkConstant registers read-only memory whose loads are never tainted.
func (rt *Runtime) MarkConstant(addr, size uintptr) {
	rt.shadow.MarkConstant(addr, size)
}

// Memcpy copies the shadow of n bytes from src to dst. Tainted pointer and
// length arguments are recorded.
func (rt *Runtime) Memcpy(dst, src, n uintptr, ldst, lsrc, ln label.Label, loc string) {
	if ldst != 0 || lsrc != 0 || ln != 0 {
		fileID := uint64(callsite.Caller(rt.callerSkip))
		if ldst != 0 {
			rt.recordArg(fileID, record.InstMemcpy, 0, ldst, 0, loc)
		}
		if lsrc != 0 {
			rt.recordArg(fileID, record.InstMemcpy, 1, lsrc, 0, loc)
		}
		if ln != 0 {
			rt.recordArg(fileID, record.InstMemcpy, 2, ln, float64(n), loc)
		}
	}
	rt.shadow.Copy(dst, src, n)
}
