package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/kolkov/grsan/internal/grsan/label"
)

// CSV headers of the three dumps.
var (
	LabelHeader  = []string{"label", "ndx", "pdx", "location", "f_val", "opcode"}
	BranchHeader = []string{
		"file_id", "inst_id", "lhs_label", "rhs_label", "lhs_val", "rhs_val",
		"lhs_ndx", "lhs_pdx", "rhs_ndx", "rhs_pdx", "cond_val", "zero", "is_ptr", "location",
	}
	ArgHeader = []string{"file_id", "inst_id", "arg_ind", "label", "val", "ndx", "pdx", "location"}
)

func ff(v float64) string {
	return fmt.Sprintf("%f", v)
}

// fval formats a label value. Integer values are written as integers;
// fractional and non-finite values fall back to ff.
func fval(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1<<63 {
		return strconv.FormatInt(int64(v), 10)
	}
	return ff(v)
}

func fb(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func fu[T ~uint16 | ~uint32 | ~uint64](v T) string {
	return strconv.FormatUint(uint64(v), 10)
}

// WriteLabels dumps labels 1..Len() of a snapshot. Label 0 is never written.
func WriteLabels(w io.Writer, snap *label.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(LabelHeader); err != nil {
		return err
	}
	for l := 1; l <= snap.Len(); l++ {
		info := &snap.Infos[l]
		if err := cw.Write([]string{
			strconv.Itoa(l),
			ff(info.NegDydx),
			ff(info.PosDydx),
			info.Location,
			fval(info.Value),
			info.Opcode.String(),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBranches dumps branch records in execution order.
func WriteBranches(w io.Writer, recs []Branch) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(BranchHeader); err != nil {
		return err
	}
	for i := range recs {
		b := &recs[i]
		if err := cw.Write([]string{
			fu(b.FileID),
			fu(b.InstID),
			fu(b.LHS),
			fu(b.RHS),
			ff(b.LHSVal),
			ff(b.RHSVal),
			ff(b.LHSNeg),
			ff(b.LHSPos),
			ff(b.RHSNeg),
			ff(b.RHSPos),
			fb(b.Cond),
			fb(b.Zero()),
			fu(b.IsPtr),
			b.Location,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteArgs dumps argument records in execution order.
func WriteArgs(w io.Writer, recs []Arg) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ArgHeader); err != nil {
		return err
	}
	for i := range recs {
		a := &recs[i]
		if err := cw.Write([]string{
			fu(a.FileID),
			fu(a.InstID),
			fu(a.ArgIndex),
			fu(a.Label),
			ff(a.Value),
			ff(a.Neg),
			ff(a.Pos),
			a.Location,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
