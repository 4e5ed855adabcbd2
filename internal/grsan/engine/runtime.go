package engine

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kolkov/grsan/internal/grsan/config"
	"github.com/kolkov/grsan/internal/grsan/deriv"
	"github.com/kolkov/grsan/internal/grsan/label"
	"github.com/kolkov/grsan/internal/grsan/record"
	"github.com/kolkov/grsan/internal/grsan/shadow"
)

// Stats counts runtime events since the last Flush.
type Stats struct {
	Labels        int    // Labels allocated.
	Unsupported   uint64 // Labels produced by operations without a rule.
	Branches      int    // Branch records.
	Args          int    // Argument records.
	Unimplemented uint64 // Calls to uninstrumented functions.
}

// Runtime is the state of one instrumented run.
type Runtime struct {
	flags    config.Flags
	flagsSet bool
	rules    deriv.Options
	id       string

	table    *label.Table
	shadow   *shadow.Region
	branches *record.Log[record.Branch]
	args     *record.Log[record.Arg]

	unsupported   atomic.Uint64
	unimplemented atomic.Uint64

	log        log.Interface
	stderr     io.Writer
	exit       func(code int)
	callerSkip int

	dieMu     sync.Mutex
	onDie     []func()
	dumpOnce  sync.Once
	closeOnce sync.Once
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithConfig sets the flags. Without it the flags are read from the
// environment.
func WithConfig(f config.Flags) Option {
	return func(rt *Runtime) {
		rt.flags = f
		rt.flagsSet = true
	}
}

// WithLogger sets the structured logger.
func WithLogger(l log.Interface) Option {
	return func(rt *Runtime) {
		rt.log = l
	}
}

// WithStderr redirects fatal diagnostics.
func WithStderr(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stderr = w
	}
}

// WithExit replaces os.Exit on fatal errors. The function must not return
// normally (tests panic).
func WithExit(exit func(code int)) Option {
	return func(rt *Runtime) {
		rt.exit = exit
	}
}

// WithCallerSkip sets how many wrapper frames sit between instrumented code
// and the runtime methods, for default locations and argument file ids.
func WithCallerSkip(n int) Option {
	return func(rt *Runtime) {
		rt.callerSkip = n
	}
}

// New creates a runtime and maps its shadow region.
func New(opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		log:    log.Log,
		stderr: os.Stderr,
		exit:   os.Exit,
		id:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if !rt.flagsSet {
		f, err := config.Load()
		if err != nil {
			return nil, err
		}
		rt.flags = f
	}
	if err := rt.flags.Validate(); err != nil {
		return nil, err
	}
	rt.rules = rt.flags.Rules()

	region, err := shadow.NewRegion(rt.flags.ShadowBits)
	if err != nil {
		return nil, errors.Wrap(err, "engine: map shadow")
	}
	rt.shadow = region
	rt.table = label.NewTable(rt.flags.MaxLabels)
	rt.shadow.Exclude(rt.table.Contains)
	rt.branches = record.NewLog[record.Branch](rt.flags.BranchRecords)
	rt.args = record.NewLog[record.Arg](rt.flags.ArgRecords)
	rt.log = rt.log.WithField("run", rt.id)

	if !rt.flags.PerfMode() {
		rt.OnDie(rt.dumpOnDie)
	}
	return rt, nil
}

// ID returns the run id attached to every log entry of this runtime.
func (rt *Runtime) ID() string {
	return rt.id
}

// Flags returns the active flags.
func (rt *Runtime) Flags() config.Flags {
	return rt.flags
}

// Logger returns the run logger.
func (rt *Runtime) Logger() log.Interface {
	return rt.log
}

// Table exposes the label table (read-only use).
func (rt *Runtime) Table() *label.Table {
	return rt.table
}

// Shadow exposes the shadow region.
func (rt *Runtime) Shadow() *shadow.Region {
	return rt.shadow
}

// Branches returns the branch records of the current run.
func (rt *Runtime) Branches() []record.Branch {
	return rt.branches.Records()
}

// Args returns the argument records of the current run.
func (rt *Runtime) Args() []record.Arg {
	return rt.args.Records()
}

// Stats returns event counters since the last Flush.
func (rt *Runtime) Stats() Stats {
	return Stats{
		Labels:        rt.table.Count(),
		Unsupported:   rt.unsupported.Load(),
		Branches:      rt.branches.Len(),
		Args:          rt.args.Len(),
		Unimplemented: rt.unimplemented.Load(),
	}
}

// Flush resets the run: the shadow region is remapped, the label table and
// both logs are zeroed and every counter restarts, so the next seed label
// is 1 again.
func (rt *Runtime) Flush() error {
	if err := rt.shadow.Reset(); err != nil {
		return errors.Wrap(err, "engine: flush shadow")
	}
	rt.table.Reset()
	rt.branches.Reset()
	rt.args.Reset()
	rt.unsupported.Store(0)
	rt.unimplemented.Store(0)
	rt.dumpOnce = sync.Once{}
	return nil
}

// Snapshot copies the label table of the current run.
func (rt *Runtime) Snapshot() *label.Snapshot {
	return rt.table.Snapshot()
}

// Close releases the shadow region.
func (rt *Runtime) Close() error {
	var err error
	rt.closeOnce.Do(func() {
		err = rt.shadow.Close()
	})
	return err
}
