package search

import (
	"context"
	"math"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/kolkov/grsan/internal/grsan/engine"
	"github.com/kolkov/grsan/internal/grsan/filter"
)

// ErrOpcodeMismatch means the sink label of a target no longer holds the
// opcode it was selected for: the replay took a different path.
var ErrOpcodeMismatch = errors.New("sink opcode changed")

// Step is one optimizer epoch.
type Step struct {
	Epoch     int     `yaml:"epoch"`
	X         uint8   `yaml:"x"`
	FX        float64 `yaml:"f_x"`
	NegDydx   float64 `yaml:"ndx"`
	PosDydx   float64 `yaml:"pdx"`
	Loss      float64 `yaml:"loss"`
	NewX      uint8   `yaml:"new_x"`
	NonFinite bool    `yaml:"nonfinite,omitempty"`
}

// Result is the outcome of optimizing one target. Err is set when the
// target was abandoned (ErrOpcodeMismatch); the search itself goes on.
type Result struct {
	Target filter.Target
	Steps  []Step
	Err    error
}

// BestLoss returns the smallest finite loss over all steps, or NaN.
func (r *Result) BestLoss() float64 {
	best := math.NaN()
	for _, s := range r.Steps {
		if math.IsNaN(s.Loss) || math.IsInf(s.Loss, 0) {
			continue
		}
		if math.IsNaN(best) || s.Loss < best {
			best = s.Loss
		}
	}
	return best
}

// newtonStep moves x against the sign of f'(x)/f(x). The byte wraps the
// way a narrowing conversion does. A non-finite update leaves x unchanged.
func newtonStep(x uint8, fx, pdx, lr float64) (uint8, bool) {
	second := -math.Ceil(pdx / fx)
	next := float64(x) - lr*second
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return x, false
	}
	return uint8(int64(math.Mod(next, 256))), true
}

// Optimize runs Newton steps on byte tgt.SrcID of data for opts.Epochs
// epochs, replaying target each epoch. data is updated in place. There is
// no early stop.
func Optimize(ctx context.Context, rt *engine.Runtime, target Target, data []byte, tgt filter.Target, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	loss := tgt.Loss
	if loss == nil {
		loss = filter.ByteOverflowLoss
	}
	logger := opts.Logger.WithFields(log.Fields{
		"src_id":  tgt.SrcID,
		"sink_id": tgt.SinkID,
	})

	res := &Result{Target: tgt}
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		snap, err := Replay(rt, target, data, tgt.SrcID, SeedX)
		if err != nil {
			return res, errors.Wrapf(err, "epoch %d", epoch)
		}
		opts.Metrics.Replay(snap.Len())
		if opts.Metrics != nil {
			opts.Metrics.Epochs.Inc()
		}

		info, _ := snap.Get(tgt.SinkID)
		if info.Opcode != tgt.Opcode {
			logger.WithFields(log.Fields{
				"want": tgt.Opcode.String(),
				"got":  info.Opcode.String(),
			}).Info("FAILED OPCODECHECK")
			if opts.Metrics != nil {
				opts.Metrics.Mismatches.Inc()
			}
			res.Err = errors.Wrapf(ErrOpcodeMismatch, "label %d at epoch %d: %s, want %s",
				tgt.SinkID, epoch, info.Opcode, tgt.Opcode)
			return res, nil
		}

		x := data[tgt.SrcID]
		next, ok := newtonStep(x, info.Value, info.PosDydx, opts.LearningRate)
		step := Step{
			Epoch:     epoch,
			X:         x,
			FX:        info.Value,
			NegDydx:   info.NegDydx,
			PosDydx:   info.PosDydx,
			Loss:      loss(float64(x), info.Value),
			NewX:      next,
			NonFinite: !ok,
		}
		if !ok && opts.Metrics != nil {
			opts.Metrics.NonFinite.Inc()
		}
		res.Steps = append(res.Steps, step)
		data[tgt.SrcID] = next

		logger.WithFields(log.Fields{
			"old_x":  step.X,
			"f_x":    step.FX,
			"ndx":    step.NegDydx,
			"pdx":    step.PosDydx,
			"loss":   step.Loss,
			"new_x":  step.NewX,
			"epoch":  epoch,
			"epochs": opts.Epochs,
		}).Info("OPT")
	}
	return res, nil
}
