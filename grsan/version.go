package grsan

import (
	"fmt"

	"github.com/kolkov/grsan/internal/grsan/config"
)

// Version is the runtime version.
const Version = "0.1.0"

// Policy is the derivative policy a runtime propagates labels with.
type Policy struct {
	Samples        int
	DefaultNaN     bool
	GEPDefault     bool
	SelectDefault  bool
	ReuseLabels    bool
	BranchBarriers bool
	PerfMode       bool
}

func policyOf(f config.Flags) Policy {
	return Policy{
		Samples:        f.Samples,
		DefaultNaN:     f.DefaultNaN,
		GEPDefault:     f.GEPDefault,
		SelectDefault:  f.SelectDefault,
		ReuseLabels:    f.ReuseLabels,
		BranchBarriers: f.BranchBarriers,
		PerfMode:       f.PerfMode(),
	}
}

// PolicyOf returns the policy rt runs with.
func PolicyOf(rt *Runtime) Policy {
	return policyOf(rt.Flags())
}

// EnvPolicy returns the policy a runtime created now would run with, as
// read from the GRSAN_* environment.
func EnvPolicy() (Policy, error) {
	f, err := config.Load()
	if err != nil {
		return Policy{}, err
	}
	return policyOf(f), nil
}

func (p Policy) String() string {
	return fmt.Sprintf("samples=%d default-nan=%t gep=%t select=%t reuse=%t barriers=%t perf=%t",
		p.Samples, p.DefaultNaN, p.GEPDefault, p.SelectDefault, p.ReuseLabels, p.BranchBarriers, p.PerfMode)
}
