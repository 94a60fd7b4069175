// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"grimm.is/dplink/internal/unit"
)

type listEntry struct {
	Name     string `json:"name"`
	ID       uint32 `json:"id"`
	Sandbox  string `json:"sandbox"`
	HostLink string `json:"host_link"`
	AltName  string `json:"altname"`
	Unit     string `json:"unit"`
}

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the configured dataplanes and the names derived from them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := loadDataplanes()
		if err != nil {
			return err
		}

		entries := make([]listEntry, 0, list.Len())
		for _, dp := range list.All() {
			entries = append(entries, listEntry{
				Name:     dp.Name,
				ID:       dp.ID,
				Sandbox:  dp.SandboxName(),
				HostLink: dp.HostLinkName(),
				AltName:  dp.AltName(),
				Unit:     unit.InstanceName(dp.Name),
			})
		}

		if listJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tID\tSANDBOX\tHOST LINK\tALTNAME\tUNIT")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", e.Name, e.ID, e.Sandbox, e.HostLink, e.AltName, e.Unit)
		}
		return tw.Flush()
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")
	rootCmd.AddCommand(listCmd)
}
