package search

import (
	"testing"
	"unsafe"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"

	"github.com/kolkov/grsan/internal/grsan/config"
	"github.com/kolkov/grsan/internal/grsan/deriv"
	"github.com/kolkov/grsan/internal/grsan/engine"
	"github.com/kolkov/grsan/internal/grsan/opcode"
)

func addr(b *byte) uintptr {
	return uintptr(unsafe.Pointer(b))
}

// overflowTarget adds 250 to data[3] in 32 bits, the classic "byte plus
// constant" bug shape.
func overflowTarget(rt *engine.Runtime, data []byte) {
	if len(data) < 4 {
		return
	}
	l := rt.LoadShadow(addr(&data[3]), 1)
	rt.CombineInt(l, 0, uint64(data[3]), 250, deriv.W32, opcode.Add, "overflow.go:12")
}

// switchTarget adds below 4 and subtracts from 4 on.
func switchTarget(rt *engine.Runtime, data []byte) {
	l := rt.LoadShadow(addr(&data[0]), 1)
	x := uint64(data[0])
	if x < 4 {
		rt.CombineInt(l, 0, x, 250, deriv.W32, opcode.Add, "switch.go:7")
		return
	}
	rt.CombineInt(l, 0, x, 250, deriv.W32, opcode.Sub, "switch.go:10")
}

// zeroTarget multiplies by zero: f(x) is 0 and so is its derivative.
func zeroTarget(rt *engine.Runtime, data []byte) {
	l := rt.LoadShadow(addr(&data[0]), 1)
	rt.CombineInt(l, 0, uint64(data[0]), 0, deriv.W32, opcode.Mul, "zero.go:4")
}

// negativeTarget computes x - 100, negative for every byte value below 100.
func negativeTarget(rt *engine.Runtime, data []byte) {
	l := rt.LoadShadow(addr(&data[0]), 1)
	rt.CombineInt(l, 0, uint64(data[0]), 100, deriv.W32, opcode.Sub, "neg.go:4")
}

func newLogger() (*log.Logger, *memory.Handler) {
	h := memory.New()
	return &log.Logger{Handler: h, Level: log.DebugLevel}, h
}

func runtimeFactory(t *testing.T, logger log.Interface) NewRuntime {
	t.Helper()
	return func() (*engine.Runtime, error) {
		flags := config.Default()
		flags.ShadowBits = 20
		return engine.New(engine.WithConfig(flags), engine.WithLogger(logger))
	}
}

func newRuntime(t *testing.T, logger log.Interface) *engine.Runtime {
	t.Helper()
	rt, err := runtimeFactory(t, logger)()
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func entries(h *memory.Handler, msg string) []*log.Entry {
	var out []*log.Entry
	for _, e := range h.Entries {
		if e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}
