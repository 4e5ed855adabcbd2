package main

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kolkov/grsan/internal/grsan/filter"
	"github.com/kolkov/grsan/internal/grsan/search"
)

func init() {
	rootCmd.AddCommand(collectCmd)

	addTargetFlag(collectCmd)
	collectCmd.Flags().IntP("workers", "j", 1, "parallel replays (one runtime each)")
	bindFlags(collectCmd)
}

var collectCmd = &cobra.Command{
	Use:   "collect --target NAME [--workers N] [INPUT]",
	Short: "Collect the gradients of every input byte",
	Long: `Replay the target once per input byte, seeding that byte, and log a
FILTER line for every label of every replay.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tg, data, err := loadInput(viper.GetString("collect.target"), args)
		if err != nil {
			return err
		}
		opts := search.Options{
			Workers: viper.GetInt("collect.workers"),
			Logger:  log.Log,
		}

		rts := &runtimes{}
		return interruptible(rts, func(ctx context.Context) error {
			inputs, err := search.Collect(ctx, rts.New, tg.Run, data, opts)
			if err != nil {
				return err
			}
			list := filter.NewList(filter.DefaultCapacity)
			filter.Run(log.Log, inputs, list, filter.IntOverflow)

			labels := 0
			for _, in := range inputs {
				labels += in.Snapshot.Len()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s replays, %s labels, %s targets\n",
				tg.Name,
				humanize.Comma(int64(len(inputs))),
				humanize.Comma(int64(labels)),
				humanize.Comma(int64(list.Len())))
			if err := list.Err(); err != nil {
				log.WithError(err).Warn("target list overflowed")
			}
			return nil
		})
	},
}
