package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kolkov/grsan/internal/grsan/label"
	"github.com/kolkov/grsan/internal/grsan/search"
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	addTargetFlag(inspectCmd)
	inspectCmd.Flags().IntP("byte-idx", "b", 0, "input byte to seed")
	bindFlags(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect --target NAME [--byte-idx N] [INPUT]",
	Short: "Print the label table of one replay",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tg, data, err := loadInput(viper.GetString("inspect.target"), args)
		if err != nil {
			return err
		}

		rts := &runtimes{}
		rt, err := rts.New()
		if err != nil {
			return err
		}
		defer rts.release(rt)

		return interruptible(rts, func(context.Context) error {
			snap, err := search.Replay(rt, tg.Run, data, viper.GetInt("inspect.byte-idx"), search.SeedInputByte)
			if err != nil {
				return err
			}
			renderLabels(cmd.OutOrStdout(), snap)
			return rt.Fini()
		})
	},
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// renderLabels prints every label of snap as a table.
func renderLabels(w io.Writer, snap *label.Snapshot) {
	data := [][]string{}
	for l := 1; l <= snap.Len(); l++ {
		info := snap.Infos[l]
		data = append(data, []string{
			strconv.Itoa(l),
			strconv.Itoa(int(info.L1)),
			strconv.Itoa(int(info.L2)),
			info.Opcode.String(),
			formatFloat(info.NegDydx),
			formatFloat(info.PosDydx),
			formatFloat(info.Value),
			info.Location,
			fmt.Sprint(info.Supported),
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Label", "L1", "L2", "Opcode", "NegDydx", "PosDydx", "Value", "Location", "Supported"})
	table.AppendBulk(data)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.Render()
}
