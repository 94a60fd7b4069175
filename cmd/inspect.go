// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <dataplane>",
	Short: "Print the interfaces inside a dataplane's sandbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator()
		if err != nil {
			return err
		}
		state, err := orch.Snapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if inspectJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(state.Interfaces())
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tINDEX\tTYPE\tSTATE\tMTU\tADDRESSES")
		for _, iface := range state.Interfaces() {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\n",
				iface.Name, iface.Index, iface.Type, iface.OperState, iface.MTU, strings.Join(iface.Addresses, ","))
		}
		return tw.Flush()
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print JSON")
	rootCmd.AddCommand(inspectCmd)
}
