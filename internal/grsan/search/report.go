package search

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/kolkov/grsan/internal/grsan/filter"
)

// Report summarizes a pipeline run.
type Report struct {
	Run          string         `yaml:"run"`
	InputSize    int            `yaml:"input_size"`
	Labels       int            `yaml:"labels"`
	TargetErrors int            `yaml:"target_errors,omitempty"`
	Targets      []TargetReport `yaml:"targets"`
	Output       []byte         `yaml:"output,flow"`
}

// TargetReport is the optimization record of one target.
type TargetReport struct {
	SrcID    int     `yaml:"src_id"`
	SinkID   uint16  `yaml:"sink_id"`
	Opcode   string  `yaml:"opcode"`
	Filter   string  `yaml:"filter"`
	Start    uint8   `yaml:"start"`
	Final    uint8   `yaml:"final"`
	BestLoss float64 `yaml:"best_loss"`
	Error    string  `yaml:"error,omitempty"`
	Steps    []Step  `yaml:"steps,omitempty"`
}

func newReport(data []byte, inputs []filter.Input, list *filter.List) *Report {
	r := &Report{
		InputSize:    len(data),
		TargetErrors: list.Errors,
	}
	for _, in := range inputs {
		r.Labels += in.Snapshot.Len()
	}
	return r
}

func (r *Report) add(res *Result) {
	tr := TargetReport{
		SrcID:    res.Target.SrcID,
		SinkID:   uint16(res.Target.SinkID),
		Opcode:   res.Target.Opcode.String(),
		Filter:   res.Target.Filter,
		BestLoss: res.BestLoss(),
		Steps:    res.Steps,
	}
	if n := len(res.Steps); n > 0 {
		tr.Start = res.Steps[0].X
		tr.Final = res.Steps[n-1].NewX
	}
	if res.Err != nil {
		tr.Error = res.Err.Error()
	}
	r.Targets = append(r.Targets, tr)
}

// Reached returns the targets whose loss dropped to 1 or below at some
// epoch, i.e. the sink value got past the byte range.
func (r *Report) Reached() []TargetReport {
	var out []TargetReport
	for _, t := range r.Targets {
		if !math.IsNaN(t.BestLoss) && t.BestLoss <= 1 {
			out = append(out, t)
		}
	}
	return out
}

// Write encodes the report as YAML.
func (r *Report) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, "failed to encode report")
	}
	return enc.Close()
}
