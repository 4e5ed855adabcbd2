package engine

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/kolkov/grsan/internal/grsan/record"
)

// Fini writes the configured dumps. It runs at most once per run (a later
// fatal error does not dump again) and is a no-op in performance mode.
func (rt *Runtime) Fini() error {
	if rt.flags.PerfMode() {
		return nil
	}
	var err error
	rt.dumpOnce.Do(func() {
		err = rt.dumpFiles()
	})
	return err
}

func (rt *Runtime) dumpOnDie() {
	if err := rt.Fini(); err != nil {
		rt.log.WithError(err).Error("dump on die")
	}
}

func (rt *Runtime) dumpFiles() error {
	dumps := []struct {
		path  string
		write func(io.Writer) error
	}{
		{rt.flags.GradientLogfile, rt.DumpLabels},
		{rt.flags.BranchLogfile, rt.DumpBranches},
		{rt.flags.FuncLogfile, rt.DumpArgs},
	}
	for _, d := range dumps {
		if d.path == "" {
			continue
		}
		if err := writeFile(d.path, d.write); err != nil {
			return err
		}
		rt.log.WithField("path", d.path).Debug("dumped")
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "engine: unable to open %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "engine: unable to write %s", path)
	}
	return f.Close()
}

// DumpLabels writes the label dump of the current run.
func (rt *Runtime) DumpLabels(w io.Writer) error {
	return record.WriteLabels(w, rt.table.Snapshot())
}

// DumpBranches writes the branch dump of the current run.
func (rt *Runtime) DumpBranches(w io.Writer) error {
	return record.WriteBranches(w, rt.branches.Records())
}

// DumpArgs writes the function argument dump of the current run.
func (rt *Runtime) DumpArgs(w io.Writer) error {
	return record.WriteArgs(w, rt.args.Records())
}
