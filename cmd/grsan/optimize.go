package main

import (
	"context"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kolkov/grsan/internal/grsan/metrics"
	"github.com/kolkov/grsan/internal/grsan/search"
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	addTargetFlag(optimizeCmd)
	optimizeCmd.Flags().IntP("epochs", "e", search.DefaultEpochs, "optimizer epochs per target")
	optimizeCmd.Flags().Float64("lr", search.DefaultLearningRate, "learning rate")
	optimizeCmd.Flags().IntP("workers", "j", 1, "parallel replays in the collect phase")
	optimizeCmd.Flags().StringP("report", "r", "", "write a YAML report to this file")
	optimizeCmd.Flags().String("metrics", "", "write Prometheus metrics to this textfile")
	optimizeCmd.Flags().StringP("output", "o", "", "write the optimized input to this file")
	bindFlags(optimizeCmd)
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize --target NAME [--epochs N] [--lr F] [--report FILE] [--metrics FILE] [INPUT]",
	Short: "Search for inputs that trigger numeric bugs",
	Long: `Collect gradients for every input byte, select targets with the integer
overflow filter and run Newton steps on each target byte.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tg, data, err := loadInput(viper.GetString("optimize.target"), args)
		if err != nil {
			return err
		}
		m := metrics.New()
		opts := search.Options{
			Epochs:       viper.GetInt("optimize.epochs"),
			LearningRate: viper.GetFloat64("optimize.lr"),
			Workers:      viper.GetInt("optimize.workers"),
			Logger:       log.WithField("target", tg.Name),
			Metrics:      m,
		}

		rts := &runtimes{}
		return interruptible(rts, func(ctx context.Context) error {
			report, err := search.Pipeline(ctx, rts.New, tg.Run, data, opts)
			if err != nil {
				return err
			}
			if err := writeOutputs(report, m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s targets, %s reached the byte boundary\n",
				tg.Name,
				humanize.Comma(int64(len(report.Targets))),
				humanize.Comma(int64(len(report.Reached()))))
			return nil
		})
	},
}

func writeOutputs(report *search.Report, m *metrics.Metrics) error {
	if path := viper.GetString("optimize.report"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "failed to create report")
		}
		defer f.Close()
		if err := report.Write(f); err != nil {
			return err
		}
		log.WithField("path", path).Info("Wrote report")
	}
	if path := viper.GetString("optimize.metrics"); path != "" {
		if err := m.WriteTextfile(path); err != nil {
			return err
		}
	}
	if path := viper.GetString("optimize.output"); path != "" {
		if err := os.WriteFile(path, report.Output, 0o644); err != nil {
			return errors.Wrap(err, "failed to write optimized input")
		}
	}
	return nil
}
