package engine

import (
	"bytes"
	"fmt"
	"testing"
	"unsafe"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"

	"github.com/kolkov/grsan/internal/grsan/config"
)

type exitCode int

// heap keeps test buffers reachable and off the goroutine stack, so their
// addresses stay fixed.
var heap [][]byte

func buffer(n int) ([]byte, uintptr) {
	b := make([]byte, n)
	heap = append(heap, b)
	return b, uintptr(unsafe.Pointer(&b[0]))
}

type testRuntime struct {
	*Runtime
	stderr *bytes.Buffer
	logs   *memory.Handler
}

func newTestRuntime(t *testing.T, mutate ...func(*config.Flags)) *testRuntime {
	t.Helper()
	flags := config.Default()
	flags.ShadowBits = 20
	for _, m := range mutate {
		m(&flags)
	}

	stderr := &bytes.Buffer{}
	logs := memory.New()
	rt, err := New(
		WithConfig(flags),
		WithStderr(stderr),
		WithLogger(&log.Logger{Handler: logs, Level: log.DebugLevel}),
		WithExit(func(code int) { panic(exitCode(code)) }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return &testRuntime{Runtime: rt, stderr: stderr, logs: logs}
}

// expectFatal runs fn and returns the fatal diagnostic it produced.
func (rt *testRuntime) expectFatal(t *testing.T, fn func()) string {
	t.Helper()
	func() {
		defer func() {
			r := recover()
			code, ok := r.(exitCode)
			if !ok {
				panic(fmt.Sprintf("expected fatal exit, got %v", r))
			}
			if code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
		}()
		fn()
	}()
	return rt.stderr.String()
}
