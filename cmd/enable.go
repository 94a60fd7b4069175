// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"github.com/spf13/cobra"
)

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Install the unit template and enable and start every dataplane",
	Long: `Installs dataplane@.service if it changed, reloads systemd, then enables and
starts dataplane@<name>.service for each configured dataplane in order. The
first failure stops the batch.

Instances are enabled for the running system only (under /run) unless
--persistent is given.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator()
		if err != nil {
			return err
		}
		return orch.EnableAll(cmd.Context())
	},
}

func init() {
	enableCmd.Flags().BoolVar(&opts.persistent, "persistent", false, "link instances under /etc so they survive a reboot (default: /run only)")
	rootCmd.AddCommand(enableCmd)
}
