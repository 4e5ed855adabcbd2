package search

import (
	"unsafe"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/kolkov/grsan/internal/grsan/engine"
	"github.com/kolkov/grsan/internal/grsan/filter"
	"github.com/kolkov/grsan/internal/grsan/label"
	"github.com/kolkov/grsan/internal/grsan/metrics"
)

// Seed descriptions.
const (
	SeedInputByte = "input_byte"
	SeedX         = "x"
)

// Search defaults.
const (
	DefaultEpochs       = 50
	DefaultLearningRate = 2.0
)

// Target is a program under test. It reads data and calls the runtime for
// every tainted operation.
type Target func(rt *engine.Runtime, data []byte)

// NewRuntime creates a fresh runtime. Collect calls it once per worker.
type NewRuntime func() (*engine.Runtime, error)

// Options configures a search.
type Options struct {
	Epochs       int
	LearningRate float64
	Workers      int
	Capacity     int // Target list capacity.
	Filters      []filter.Filter

	Logger  log.Interface
	Metrics *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.Epochs <= 0 {
		o.Epochs = DefaultEpochs
	}
	if o.LearningRate == 0 {
		o.LearningRate = DefaultLearningRate
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Capacity <= 0 {
		o.Capacity = filter.DefaultCapacity
	}
	if len(o.Filters) == 0 {
		o.Filters = []filter.Filter{filter.IntOverflow}
	}
	if o.Logger == nil {
		o.Logger = log.Log
	}
	return o
}

// Replay runs target once on data in a flushed runtime. When idx is not
// negative, byte idx is seeded with a label described by desc first.
func Replay(rt *engine.Runtime, target Target, data []byte, idx int, desc string) (*label.Snapshot, error) {
	if idx >= len(data) {
		return nil, errors.Errorf("byte index %d outside input of %d bytes", idx, len(data))
	}
	if err := rt.Flush(); err != nil {
		return nil, err
	}
	if idx >= 0 {
		l := rt.CreateSeedLabel(desc)
		rt.SetLabel(l, uintptr(unsafe.Pointer(&data[idx])), 1)
	}
	target(rt, data)
	return rt.Snapshot(), nil
}
