// Package grsan provides the instrumentation ABI of the gradient sanitizer.
//
// See doc.go for detailed documentation and examples.
package grsan

import (
	"sync"
	"unsafe"

	"golang.org/x/exp/constraints"

	"github.com/kolkov/grsan/internal/grsan/callsite"
	"github.com/kolkov/grsan/internal/grsan/deriv"
	"github.com/kolkov/grsan/internal/grsan/engine"
	"github.com/kolkov/grsan/internal/grsan/label"
	"github.com/kolkov/grsan/internal/grsan/opcode"
)

type (
	// Label identifies a tainted value. Label 0 is untainted.
	Label = label.Label

	// LabelInfo is the metadata of a label.
	LabelInfo = label.Info

	// Runtime is one instrumented run: label table, shadow memory and logs.
	Runtime = engine.Runtime

	// Option configures a Runtime.
	Option = engine.Option

	// Opcode names the operation passed to the Combine functions.
	Opcode = opcode.Opcode

	// Predicate is the comparison predicate of a branch.
	Predicate = opcode.Predicate

	// Uint128 is a 128-bit integer operand.
	Uint128 = deriv.Uint128

	// BranchSite describes an instrumented comparison.
	BranchSite = engine.BranchSite
)

// Runtime options.
var (
	WithLogger = engine.WithLogger
	WithStderr = engine.WithStderr
	WithExit   = engine.WithExit
)

// Binary operations.
const (
	Add  = opcode.Add
	FAdd = opcode.FAdd
	Sub  = opcode.Sub
	FSub = opcode.FSub
	Mul  = opcode.Mul
	FMul = opcode.FMul
	UDiv = opcode.UDiv
	SDiv = opcode.SDiv
	FDiv = opcode.FDiv
	URem = opcode.URem
	SRem = opcode.SRem
	FRem = opcode.FRem
	Shl  = opcode.Shl
	LShr = opcode.LShr
	AShr = opcode.AShr
	And  = opcode.And
	Or   = opcode.Or
	Xor  = opcode.Xor

	GetElementPtr = opcode.GetElementPtr
	Select        = opcode.Select
)

// Comparison predicates.
const (
	ICmpEQ  = opcode.ICmpEQ
	ICmpNE  = opcode.ICmpNE
	ICmpUGT = opcode.ICmpUGT
	ICmpUGE = opcode.ICmpUGE
	ICmpULT = opcode.ICmpULT
	ICmpULE = opcode.ICmpULE
	ICmpSGT = opcode.ICmpSGT
	ICmpSGE = opcode.ICmpSGE
	ICmpSLT = opcode.ICmpSLT
	ICmpSLE = opcode.ICmpSLE

	FCmpOEQ = opcode.FCmpOEQ
	FCmpOGT = opcode.FCmpOGT
	FCmpOGE = opcode.FCmpOGE
	FCmpOLT = opcode.FCmpOLT
	FCmpOLE = opcode.FCmpOLE
	FCmpONE = opcode.FCmpONE
)

// New creates a runtime for code instrumented through this package.
// Configuration is read from the GRSAN_* environment variables.
func New(opts ...Option) (*Runtime, error) {
	return engine.New(append([]Option{engine.WithCallerSkip(1)}, opts...)...)
}

var (
	stdMu sync.Mutex
	std   *Runtime
)

// Init creates the process-wide runtime returned by Default.
//
// Init is safe to call multiple times (subsequent calls return the same
// runtime).
func Init(opts ...Option) (*Runtime, error) {
	stdMu.Lock()
	defer stdMu.Unlock()
	if std != nil {
		return std, nil
	}
	rt, err := New(opts...)
	if err != nil {
		return nil, err
	}
	std = rt
	return rt, nil
}

// Default returns the runtime created by Init, or nil.
func Default() *Runtime {
	stdMu.Lock()
	defer stdMu.Unlock()
	return std
}

// Fini writes the dumps of the process-wide runtime and releases it.
//
// For manual instrumentation, use defer:
//
//	func main() {
//		rt, _ := grsan.Init()
//		defer grsan.Fini()
//		// ... rest of program
//	}
func Fini() error {
	stdMu.Lock()
	rt := std
	std = nil
	stdMu.Unlock()
	if rt == nil {
		return nil
	}
	if err := rt.Fini(); err != nil {
		_ = rt.Close()
		return err
	}
	return rt.Close()
}

// Addr returns the address of *p for the shadow functions.
func Addr[T any](p *T) uintptr {
	return uintptr(unsafe.Pointer(p))
}

func widthOf[T constraints.Integer]() deriv.Width {
	var v T
	return deriv.Width(unsafe.Sizeof(v) * 8)
}

// CreateLabel creates a seed label for input data described by desc.
func CreateLabel(rt *Runtime, desc string) Label {
	return rt.CreateSeedLabel(desc)
}

// SetLabel labels size bytes at addr with l.
func SetLabel(rt *Runtime, l Label, addr, size uintptr) {
	rt.SetLabel(l, addr, size)
}

// AddLabel asserts that size bytes at addr already carry l.
func AddLabel(rt *Runtime, l Label, addr, size uintptr) {
	rt.AddLabel(l, addr, size)
}

// GetLabel returns the label of the byte at addr.
func GetLabel(rt *Runtime, addr uintptr) Label {
	return rt.GetLabel(addr)
}

// ReadLabel returns the label of a size-byte value at addr.
func ReadLabel(rt *Runtime, addr, size uintptr) Label {
	return rt.ReadLabel(addr, size)
}

// Load returns the label of a size-byte load from addr.
func Load(rt *Runtime, addr, size uintptr) Label {
	return rt.LoadShadow(addr, size)
}

// Store labels a size-byte store to addr.
func Store(rt *Runtime, addr, size uintptr, l Label) {
	rt.StoreShadow(addr, size, l)
}

// UnionLoad folds per-byte labels of one value.
func UnionLoad(rt *Runtime, ls []Label) Label {
	return rt.UnionLoad(ls)
}

// MarkConstant registers read-only memory.
func MarkConstant(rt *Runtime, addr, size uintptr) {
	rt.MarkConstant(addr, size)
}

// Info returns the metadata of l.
func Info(rt *Runtime, l Label) (LabelInfo, bool) {
	return rt.Info(l)
}

// Combine propagates derivatives through an integer operation. The width
// is the size of T. An empty loc is replaced by the caller's file:line.
//
// Example (automatic instrumentation):
//
//	// Original code:
//	z := x + y
//
//	// Instrumented code:
//	lz := grsan.Combine(rt, lx, x, ly, y, grsan.Add, "")
//	z := x + y
func Combine[T constraints.Integer](rt *Runtime, l1 Label, v1 T, l2 Label, v2 T, op Opcode, loc string) Label {
	return rt.CombineInt(l1, l2, uint64(v1), uint64(v2), widthOf[T](), op, loc)
}

// CombineFloat is Combine for floating point operands.
func CombineFloat[T constraints.Float](rt *Runtime, l1 Label, v1 T, l2 Label, v2 T, op Opcode, loc string) Label {
	return rt.CombineFloat(l1, l2, float64(v1), float64(v2), op, loc)
}

// CombineWide labels a 128-bit integer operation. Derivatives are not
// followed through 128-bit arithmetic; the result is an unsupported label.
func CombineWide(rt *Runtime, l1 Label, v1 Uint128, l2 Label, v2 Uint128, op Opcode, loc string) Label {
	return rt.CombineUnsupported(l1, l2, op, loc)
}

// CombineUnsupported labels an operation on operand types the runtime
// cannot follow, such as mixed integer and float operands.
func CombineUnsupported(rt *Runtime, l1, l2 Label, op Opcode, loc string) Label {
	return rt.CombineUnsupported(l1, l2, op, loc)
}

func branchSite(site BranchSite) BranchSite {
	if site.FileID == 0 || site.Location == "" {
		pc := callsite.Caller(1)
		if site.FileID == 0 {
			site.FileID = uint64(pc)
		}
		if site.Location == "" {
			site.Location = callsite.Location(pc)
		}
	}
	return site
}

// RecordBranch records an integer comparison of two possibly tainted
// operands. A zero FileID or empty Location in site is filled in from the
// caller.
func RecordBranch[T constraints.Integer](rt *Runtime, lhs, rhs Label, lv, rv T, site BranchSite) {
	if lhs == 0 && rhs == 0 {
		return
	}
	rt.RecordBranch(lhs, rhs, uint64(lv), uint64(rv), widthOf[T](), branchSite(site))
}

// RecordBranchFloat records a floating point comparison.
func RecordBranchFloat[T constraints.Float](rt *Runtime, lhs, rhs Label, lv, rv T, site BranchSite) {
	if lhs == 0 && rhs == 0 {
		return
	}
	rt.RecordBranchFloat(lhs, rhs, float64(lv), float64(rv), branchSite(site))
}

// RecordBranchWide records a 128-bit integer comparison.
func RecordBranchWide(rt *Runtime, lhs, rhs Label, lv, rv Uint128, site BranchSite) {
	if lhs == 0 && rhs == 0 {
		return
	}
	rt.RecordBranchWide(lhs, rhs, lv, rv, branchSite(site))
}

// RecordArg records a tainted argument of a call. The caller's return
// address is used as file id.
func RecordArg(rt *Runtime, instID, argIndex uint32, l Label, v float64, loc string) {
	if l == 0 {
		return
	}
	rt.RecordArg(uint64(callsite.Caller(0)), instID, argIndex, l, v, loc)
}

// Memcpy copies the shadow of n bytes from src to dst and records tainted
// pointer and length arguments.
func Memcpy(rt *Runtime, dst, src, n uintptr, ldst, lsrc, ln Label, loc string) {
	rt.Memcpy(dst, src, n, ldst, lsrc, ln, loc)
}

// Unimplemented reports a call to a function that was not instrumented.
func Unimplemented(rt *Runtime, fname string) {
	rt.Unimplemented(fname)
}

// NonzeroLabel reports that instrumented code observed a nonzero label.
func NonzeroLabel(rt *Runtime) {
	rt.NonzeroLabel()
}

// VarargWrapper reports an indirect call to an uninstrumented vararg
// function.
func VarargWrapper(rt *Runtime, fname string) {
	rt.VarargWrapper(fname)
}

// Flush discards every label and record of the current run.
func Flush(rt *Runtime) error {
	return rt.Flush()
}
