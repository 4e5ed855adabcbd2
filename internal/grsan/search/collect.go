package search

import (
	"bytes"
	"context"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	"github.com/kolkov/grsan/internal/grsan/filter"
)

// Collect replays target once per byte of data and returns the snapshot of
// every replay, indexed by byte offset. Bytes are spread over opts.Workers
// goroutines; each worker owns its own runtime and copy of the input.
func Collect(ctx context.Context, newRuntime NewRuntime, target Target, data []byte, opts Options) ([]filter.Input, error) {
	opts = opts.withDefaults()
	workers := min(opts.Workers, len(data))
	inputs := make([]filter.Input, len(data))

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			buf := bytes.Clone(data)
			for i := w; i < len(buf); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				snap, err := Replay(rt, target, buf, i, SeedInputByte)
				if err != nil {
					return err
				}
				inputs[i] = filter.Input{SrcID: i, Snapshot: snap}
				opts.Metrics.Replay(snap.Len())
				opts.Logger.WithFields(log.Fields{
					"num_labels": snap.Len(),
					"iter":       i,
					"total_iter": len(buf),
				}).Debug("COLLECT")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inputs, nil
}
