package shadow

import (
	"unsafe"

	"github.com/kolkov/grsan/internal/grsan/label"
)

func tableAddr(tbl *label.Table) uintptr {
	return uintptr(unsafe.Pointer(tbl.Ref(1)))
}
