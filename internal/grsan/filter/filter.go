// Package filter selects optimization targets (input byte, sink label)
// from the label snapshots of the collect phase.
package filter

import (
	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/kolkov/grsan/internal/grsan/label"
	"github.com/kolkov/grsan/internal/grsan/opcode"
)

// DefaultCapacity is the default size of a target list.
const DefaultCapacity = 1000

// LossFunc scores a sink value f(x) observed with input byte value x.
// Smaller is closer to the bug.
type LossFunc func(x, fx float64) float64

// ByteOverflowLoss is the distance of fx from overflowing a byte, plus one.
func ByteOverflowLoss(_, fx float64) float64 {
	return 257 - fx
}

// ErrCapacity reports that a list overflowed and lost targets.
var ErrCapacity = errors.New("filter: target list capacity exceeded")

// Target is one (input byte, sink label) pair worth optimizing.
type Target struct {
	SrcID  int           // Offset of the input byte.
	SinkID label.Label   // Label whose value the loss reads.
	Opcode opcode.Opcode // Opcode of the sink when it was found.
	Loss   LossFunc
	Filter string // Name of the filter that selected it.
}

// Func decides whether a label is a target.
type Func func(info *label.Info) bool

// Filter is a named Func with the loss used to optimize its targets.
type Filter struct {
	Name  string
	Match Func
	Loss  LossFunc
}

// IntOverflow flags every integer addition as a potential overflow.
var IntOverflow = Filter{
	Name:  "int_overflow",
	Match: func(info *label.Info) bool { return info.Opcode == opcode.Add },
	Loss:  ByteOverflowLoss,
}

// Input is the snapshot of the run that seeded input byte SrcID.
type Input struct {
	SrcID    int
	Snapshot *label.Snapshot
}

// List is a bounded target list. Once full, new targets overwrite the
// oldest ones and Errors counts every overwrite.
type List struct {
	targets []Target
	next    int
	wrapped bool
	Errors  int
}

// NewList creates a list holding at most capacity targets.
func NewList(capacity int) *List {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &List{targets: make([]Target, 0, capacity)}
}

// Add appends t.
func (l *List) Add(t Target) {
	if !l.wrapped && len(l.targets) < cap(l.targets) {
		l.targets = append(l.targets, t)
		return
	}
	l.wrapped = true
	l.Errors++
	l.targets[l.next] = t
	l.next = (l.next + 1) % len(l.targets)
}

// Len returns the number of targets held.
func (l *List) Len() int {
	return len(l.targets)
}

// Err returns ErrCapacity once a target has been overwritten.
func (l *List) Err() error {
	if l.Errors > 0 {
		return errors.Wrapf(ErrCapacity, "%d targets overwritten", l.Errors)
	}
	return nil
}

// Targets returns the held targets, oldest first.
func (l *List) Targets() []Target {
	out := make([]Target, 0, len(l.targets))
	out = append(out, l.targets[l.next:]...)
	return append(out, l.targets[:l.next]...)
}

// Run scans every label of every input with the given filters and appends
// matches to list. One FILTER entry is logged per scanned label. Inputs
// whose run produced at most one label (the seed) carry no computation
// and are skipped.
func Run(logger log.Interface, inputs []Input, list *List, filters ...Filter) int {
	found := 0
	for _, in := range inputs {
		snap := in.Snapshot
		if snap.Len() <= 1 {
			continue
		}
		for l := 1; l <= snap.Len(); l++ {
			info := &snap.Infos[l]
			for _, f := range filters {
				if !f.Match(info) {
					continue
				}
				list.Add(Target{
					SrcID:  in.SrcID,
					SinkID: label.Label(l),
					Opcode: info.Opcode,
					Loss:   f.Loss,
					Filter: f.Name,
				})
				found++
			}
			Log(logger, in.SrcID, label.Label(l), info)
		}
	}
	return found
}

// Log emits the FILTER entry of one label.
func Log(logger log.Interface, srcID int, l label.Label, info *label.Info) {
	logger.WithFields(log.Fields{
		"iter":     srcID,
		"label":    l,
		"ndx":      info.NegDydx,
		"pdx":      info.PosDydx,
		"location": info.Location,
		"f_val":    info.Value,
		"opcode":   info.Opcode.String(),
	}).Info("FILTER")
}
