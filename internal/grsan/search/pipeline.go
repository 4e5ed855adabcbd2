package search

import (
	"bytes"
	"context"

	"github.com/pkg/errors"

	"github.com/kolkov/grsan/internal/grsan/filter"
)

// Pipeline collects gradients for every byte of data, filters the label
// snapshots into targets and optimizes every target in turn. The targets
// share one copy of the input, so each starts from the bytes the previous
// ones left behind.
func Pipeline(ctx context.Context, newRuntime NewRuntime, target Target, data []byte, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	if len(data) == 0 {
		return nil, errors.New("empty input")
	}

	inputs, err := Collect(ctx, newRuntime, target, data, opts)
	if err != nil {
		return nil, errors.Wrap(err, "collect")
	}

	list := filter.NewList(opts.Capacity)
	found := filter.Run(opts.Logger, inputs, list, opts.Filters...)
	if opts.Metrics != nil {
		opts.Metrics.Targets.Add(float64(found))
	}
	opts.Logger.WithField("count", list.Len()).Info("BugTargets")
	if err := list.Err(); err != nil {
		opts.Logger.WithError(err).Warn("ERROROverflowBugTargets")
	}

	report := newReport(data, inputs, list)

	rt, err := newRuntime()
	if err != nil {
		return report, err
	}
	defer rt.Close()
	report.Run = rt.ID()

	buf := bytes.Clone(data)
	for _, tgt := range list.Targets() {
		res, err := Optimize(ctx, rt, target, buf, tgt, opts)
		if res != nil {
			report.add(res)
		}
		if err != nil {
			return report, err
		}
	}
	report.Output = buf
	return report, rt.Fini()
}
