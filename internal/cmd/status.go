package cmd

import (
	"github.com/spf13/cobra"

	"github.com/karol/relayfix/internal/display"
)

// NewStatusCommand creates the status subcommand.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show install, patch, backup and service state",
		Long: `Read-only aggregate view: where Relaybot is installed, whether the
patch is in place, which backups exist and whether the service is active.

Exit code: always 0 unless an unexpected error occurs.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			res := a.orch.Status(cmd.Context())
			display.StatusSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}
}
