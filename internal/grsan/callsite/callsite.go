// Package callsite identifies the instrumented code that calls into the
// runtime.
//
// Argument records carry the return address of the instrumented call as
// their file id, and labels created without an explicit location fall back
// to the caller's "file:line". Both are derived from program counters
// captured with runtime.Callers.
//
// Stacks captured for fatal diagnostics are deduplicated in a depot keyed
// by an FNV-1a hash of the program counters, so a hot call site costs one
// map lookup after its first capture.
//
// Thread Safety: all functions are safe for concurrent use.
package callsite

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"unsafe"
)

// MaxFrames is the depth of a captured stack.
const MaxFrames = 8

// Stack is a fixed-size captured stack.
type Stack struct {
	PC [MaxFrames]uintptr
}

var (
	depot     sync.Map // uint64 hash -> *Stack
	locations sync.Map // uintptr pc -> string
)

// Caller returns the program counter of the caller skip frames above the
// function that calls Caller (skip 0 is that function's caller).
func Caller(skip int) uintptr {
	var pcs [1]uintptr
	if runtime.Callers(skip+3, pcs[:]) == 0 {
		return 0
	}
	return pcs[0]
}

// Location returns "file.go:line" for pc, or "" when pc is unknown.
// Results are cached per pc.
func Location(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	if v, ok := locations.Load(pc); ok {
		return v.(string)
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ := frames.Next()
	loc := ""
	if frame.File != "" {
		loc = fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
	}
	locations.Store(pc, loc)
	return loc
}

// Capture stores the current stack, starting skip frames above the caller
// of Capture, and returns its hash (0 if no frames were available).
func Capture(skip int) uint64 {
	var pcs [MaxFrames]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return 0
	}
	hash := hashStack(pcs[:n])
	if _, exists := depot.Load(hash); exists {
		return hash
	}
	depot.Store(hash, &Stack{PC: pcs})
	return hash
}

// Get returns the stack stored under hash, or nil.
func Get(hash uint64) *Stack {
	if hash == 0 {
		return nil
	}
	v, ok := depot.Load(hash)
	if !ok {
		return nil
	}
	return v.(*Stack)
}

func hashStack(pcs []uintptr) uint64 {
	h := fnv.New64a()
	for _, pc := range pcs {
		//nolint:gosec // reading the pc value as bytes
		b := (*[8]byte)(unsafe.Pointer(&pc))[:]
		_, _ = h.Write(b)
	}
	return h.Sum64()
}

// Format renders the stack one frame per line pair, skipping runtime and
// grsan-internal frames.
func (s *Stack) Format() string {
	if s == nil {
		return "  <unknown>\n"
	}
	frames := runtime.CallersFrames(trimZero(s.PC[:]))

	var buf strings.Builder
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}
		if !skipFrame(frame.Function) {
			fmt.Fprintf(&buf, "  %s()\n", frame.Function)
			fmt.Fprintf(&buf, "      %s:%d\n", frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	if buf.Len() == 0 {
		return "  <runtime internal>\n"
	}
	return buf.String()
}

func trimZero(pcs []uintptr) []uintptr {
	for i, pc := range pcs {
		if pc == 0 {
			return pcs[:i]
		}
	}
	return pcs
}

func skipFrame(fn string) bool {
	return strings.HasPrefix(fn, "runtime.") ||
		strings.Contains(fn, "/internal/grsan/engine.")
}

// Reset clears the depot and the location cache (tests only).
func Reset() {
	depot.Range(func(k, _ any) bool {
		depot.Delete(k)
		return true
	})
	locations.Range(func(k, _ any) bool {
		locations.Delete(k)
		return true
	})
}

// Stats returns the number of unique stacks stored.
func Stats() int {
	n := 0
	depot.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
