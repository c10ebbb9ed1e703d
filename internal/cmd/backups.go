package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karol/relayfix/internal/display"
)

// NewBackupsCommand creates the backups command group.
func NewBackupsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "Manage backups of the message handler",
	}
	cmd.AddCommand(newBackupsListCommand())
	cmd.AddCommand(newBackupsPruneCommand())
	return cmd
}

func newBackupsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List backups, newest first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			display.Backups(cmd.OutOrStdout(), a.orch.Backups.List(""))
			return nil
		},
	}
}

func newBackupsPruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "prune",
		Short:        "Delete backups older than a number of days",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			days, _ := cmd.Flags().GetInt("days")
			deleted, err := a.orch.Backups.Prune(days, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d backup(s)\n", deleted)
			return nil
		},
	}
	cmd.Flags().Int("days", 30, "Delete backups strictly older than this many days")
	return cmd
}
