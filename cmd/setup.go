// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup <dataplane>",
	Short: "Create and start a dataplane's sandbox and bridge it to the host",
	Long: `Ensures the sandbox dp-<name> exists and runs, then creates a veth pair
dp<id>/host0, moves host0 into the sandbox and tags dp<id> with the
alternate name dp-<name>. Running it again on a connected dataplane
changes nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator()
		if err != nil {
			return err
		}
		res, err := orch.Connect(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], res.Outcome)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
