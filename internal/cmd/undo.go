package cmd

import (
	"github.com/spf13/cobra"

	"github.com/karol/relayfix/internal/display"
	"github.com/karol/relayfix/internal/orchestrator"
)

// NewUndoCommand creates the undo subcommand.
func NewUndoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Restore the newest backup of the message handler",
		Long: `Restore Relaybot's message handler from the newest backup taken by a
previous fix, then restart the relaybot service.

Exit code: 0 on success, 1 when no backup exists or restore fails.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			noRestart, _ := cmd.Flags().GetBool("no-restart")
			deleteBackup, _ := cmd.Flags().GetBool("delete-backup")

			res, err := a.orch.Undo(cmd.Context(), orchestrator.UndoOptions{
				NoRestart:    noRestart || a.cfg.NoRestart,
				DeleteBackup: deleteBackup,
			})
			if err != nil {
				return err
			}
			display.UndoSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().Bool("no-restart", false, "Skip restarting the relaybot service")
	cmd.Flags().Bool("delete-backup", false, "Delete the backup after restoring it")

	return cmd
}
