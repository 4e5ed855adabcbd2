package engine

import (
	"fmt"

	"github.com/kolkov/grsan/internal/grsan/callsite"
)

// Fatal conditions.
const (
	fatalOutOfLabels  = "out of labels (max %d)"
	fatalBranchLog    = "out of branch record space (%d records)"
	fatalArgLog       = "out of function argument record space (%d records)"
	fatalUnion        = "shadow union of labels %d and %d"
	fatalAlreadyLabel = "address 0x%x already labeled %d, want %d"
	fatalPredicate    = "invalid branch cmp predicate %d"
	fatalDivByZero    = "division by zero (%s) at %s"
)

// OnDie registers fn to run once when the runtime dies.
func (rt *Runtime) OnDie(fn func()) {
	rt.dieMu.Lock()
	defer rt.dieMu.Unlock()
	rt.onDie = append(rt.onDie, fn)
}

// Fatalf reports an unrecoverable condition and terminates the run: one
// diagnostic line on stderr, the die callbacks, then exit status 1.
//
//nolint:errcheck // stderr output
func (rt *Runtime) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(rt.stderr, "FATAL: grsan: %s\n", msg)

	if st := callsite.Get(callsite.Capture(1)); st != nil {
		rt.log.WithField("stack", st.Format()).Debug("fatal")
	}

	rt.dieMu.Lock()
	callbacks := append([]func(){}, rt.onDie...)
	rt.dieMu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
	rt.exit(1)
}
