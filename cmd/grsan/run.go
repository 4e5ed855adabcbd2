package main

import (
	"context"
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kolkov/grsan/internal/grsan/engine"
	"github.com/kolkov/grsan/internal/grsan/search"
)

func init() {
	rootCmd.AddCommand(runCmd)

	addTargetFlag(runCmd)
	runCmd.Flags().IntP("byte-idx", "b", -1, "input byte to seed (negative: none)")
	bindFlags(runCmd)
	viper.BindEnv("run.byte-idx", "LIBFUZZER_BYTE_IDX")
}

var runCmd = &cobra.Command{
	Use:   "run --target NAME [--byte-idx N] [INPUT]",
	Short: "Replay a target once",
	Long: `Replay a target once on INPUT, optionally seeding one byte.

The dumps configured with GRSAN_GRADIENT_LOGFILE, GRSAN_BRANCH_LOGFILE and
GRSAN_FUNC_LOGFILE are written when the replay ends.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tg, data, err := loadInput(viper.GetString("run.target"), args)
		if err != nil {
			return err
		}
		idx := viper.GetInt("run.byte-idx")

		rts := &runtimes{}
		rt, err := rts.New()
		if err != nil {
			return err
		}
		defer rts.release(rt)

		return interruptible(rts, func(context.Context) error {
			if _, err := search.Replay(rt, tg.Run, data, idx, search.SeedInputByte); err != nil {
				return err
			}
			if err := rt.Fini(); err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), tg.Name, len(data), rt.Stats())
			return nil
		})
	},
}

// printStats prints a one-line summary of a replay.
func printStats(w io.Writer, name string, size int, st engine.Stats) {
	log.WithFields(log.Fields{
		"target":      name,
		"labels":      st.Labels,
		"unsupported": st.Unsupported,
		"branches":    st.Branches,
		"args":        st.Args,
	}).Debug("replay done")
	fmt.Fprintf(w, "%s: %s input, %s labels, %s branches, %s args\n",
		name,
		humanize.Bytes(uint64(size)),
		humanize.Comma(int64(st.Labels)),
		humanize.Comma(int64(st.Branches)),
		humanize.Comma(int64(st.Args)))
}
