package engine

import (
	"github.com/kolkov/grsan/internal/grsan/deriv"
	"github.com/kolkov/grsan/internal/grsan/label"
)

// alloc reserves a label and stores info. Running out of labels is fatal.
func (rt *Runtime) alloc(info label.Info) label.Label {
	l, ok := rt.table.Alloc()
	if !ok {
		rt.Fatalf(fatalOutOfLabels, rt.table.Cap())
		return 0
	}
	rt.table.Set(l, info)
	return l
}

// CreateSeedLabel allocates a label for input data described by desc. Seed
// labels have no operands and unit derivatives.
func (rt *Runtime) CreateSeedLabel(desc string) label.Label {
	return rt.alloc(label.Info{
		NegDydx:   deriv.Unit.Neg,
		PosDydx:   deriv.Unit.Pos,
		Location:  desc,
		Supported: true,
	})
}

// Info returns the attributes of l. Label 0 and ids never allocated in this
// run return the zero Info and false.
func (rt *Runtime) Info(l label.Label) (label.Info, bool) {
	if int(l) > rt.table.Count() {
		return label.Info{}, false
	}
	return rt.table.Get(l)
}

// LabelCount returns the number of labels allocated in this run.
func (rt *Runtime) LabelCount() int {
	return rt.table.Count()
}

// HasLabel reports whether elem occurs in the provenance of l.
func (rt *Runtime) HasLabel(l, elem label.Label) bool {
	return rt.table.HasLabel(l, elem)
}

// HasLabelWithDesc reports whether a seed label described by desc occurs in
// the provenance of l.
func (rt *Runtime) HasLabelWithDesc(l label.Label, desc string) bool {
	return rt.table.HasLabelWithDesc(l, desc)
}

// UnionLoad folds the labels of a multi-byte load. All labels must be
// equal; anything else means uninstrumented code mixed two values and is
// fatal.
func (rt *Runtime) UnionLoad(ls []label.Label) label.Label {
	if len(ls) == 0 {
		return 0
	}
	l := ls[0]
	for _, next := range ls[1:] {
		if next != l {
			rt.log.WithField("label", l).WithField("next_label", next).
				Error("non-instrumented union via union_load")
			rt.Fatalf(fatalUnion, l, next)
			return 0
		}
	}
	return l
}
