package main

import (
	"context"
	"os"
	"strings"
	"sync/atomic"

	"github.com/apex/log"
	"github.com/caarlos0/ctrlc"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kolkov/grsan/grsan"
	"github.com/kolkov/grsan/internal/grsan/engine"
	"github.com/kolkov/grsan/internal/grsan/targets"
)

// addTargetFlag registers --target on cmd.
func addTargetFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("target", "t", "", "replay target (one of: "+joinNames()+")")
	cmd.MarkFlagRequired("target")
}

// bindFlags binds every flag of cmd to the viper key "<cmd>.<flag>", so
// GRSAN_<CMD>_<FLAG> and the config file can set them too.
func bindFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		viper.BindPFlag(cmd.Name()+"."+f.Name, f)
	})
}

func joinNames() string {
	return strings.Join(targets.Names(), ", ")
}

// loadInput resolves the target and reads the input file. Without an input
// file the target's sample input is used.
func loadInput(name string, args []string) (targets.Target, []byte, error) {
	tg, err := targets.Lookup(name)
	if err != nil {
		return targets.Target{}, nil, err
	}
	if len(args) == 0 {
		log.WithField("target", tg.Name).Debug("no input given, using sample")
		return tg, append([]byte(nil), tg.Sample...), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return tg, nil, errors.Wrap(err, "failed to read input")
	}
	if len(data) == 0 {
		return tg, nil, errors.Errorf("input %s is empty", args[0])
	}
	return tg, data, nil
}

// runtimes creates runtimes for the search and remembers the latest one,
// so an interrupted search can still dump it.
type runtimes struct {
	last        atomic.Pointer[engine.Runtime]
	interrupted atomic.Bool
}

func (r *runtimes) New() (*engine.Runtime, error) {
	rt, err := grsan.New(grsan.WithLogger(log.Log))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create runtime")
	}
	r.last.Store(rt)
	return rt, nil
}

func (r *runtimes) dump() {
	if rt := r.last.Load(); rt != nil {
		if err := rt.Fini(); err != nil {
			log.WithError(err).Error("dump")
		}
	}
}

// release closes rt once the command is done with it. After Ctrl-C the
// task goroutine may still be replaying into rt's shadow region, so the
// region stays mapped until the process exits.
func (r *runtimes) release(rt *engine.Runtime) {
	if r.interrupted.Load() {
		log.Debug("interrupted, leaving shadow region mapped")
		return
	}
	if err := rt.Close(); err != nil {
		log.WithError(err).Warn("close runtime")
	}
}

// runTask runs a task until it returns or a signal arrives.
var runTask = ctrlc.Default.Run

// interruptible runs fn until it returns or the user presses Ctrl-C. On
// Ctrl-C the context passed to fn is canceled and the dumps of the latest
// runtime are written.
func interruptible(rts *runtimes, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runTask(ctx, func() error {
		return fn(ctx)
	}); err != nil {
		if errors.As(err, &ctrlc.ErrorCtrlC{}) {
			rts.interrupted.Store(true)
			cancel()
			log.Warn("Interrupted, writing dumps...")
			rts.dump()
			return nil
		}
		return err
	}
	return nil
}
