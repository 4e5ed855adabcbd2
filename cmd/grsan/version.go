package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kolkov/grsan/grsan"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the derivative policy of new runtimes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := grsan.EnvPolicy()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "grsan version %s\npolicy: %s\n", grsan.Version, policy)
		return nil
	},
}
