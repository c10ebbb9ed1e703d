package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/karol/relayfix/internal/display"
	"github.com/karol/relayfix/internal/guide"
	"github.com/karol/relayfix/internal/models"
	"github.com/karol/relayfix/internal/orchestrator"
)

// NewFixCommand creates the fix subcommand.
func NewFixCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Apply the attachment forwarding patch",
		Long: `Detect, back up, patch and verify Relaybot's message handler, then
restart the relaybot service.

The patch is applied in memory and written back atomically only after
verification, so the handler file is never left partially patched. On any
failure the pre-patch backup is restored automatically.

Exit code: 0 on success or when already fixed, 1 on handled failure.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			noRestart, _ := cmd.Flags().GetBool("no-restart")
			noBackup, _ := cmd.Flags().GetBool("no-backup")
			force, _ := cmd.Flags().GetBool("force")

			out := cmd.OutOrStdout()
			res, err := a.orch.Fix(cmd.Context(), orchestrator.FixOptions{
				NoRestart: noRestart || a.cfg.NoRestart,
				NoBackup:  noBackup || a.cfg.NoBackup,
				Force:     force,
			})
			if res != nil && res.Report != nil {
				display.Report(out, res.Report)
			}
			if res != nil {
				display.FixSummary(out, res)
				for _, warning := range res.Warnings {
					if strings.Contains(warning, "restart") {
						guide.Render(out, guide.RestartFailed)
						break
					}
				}
			}
			if err != nil {
				switch models.CodeOf(err) {
				case models.CodeInstallNotFound:
					guide.Render(out, guide.InstallNotFound)
				case models.CodeFileNotFound:
					guide.Render(out, guide.FileNotFound)
				}
			}
			return err
		},
	}

	cmd.Flags().Bool("no-restart", false, "Skip restarting the relaybot service")
	cmd.Flags().Bool("no-backup", false, "Skip the pre-patch backup (disables rollback)")
	cmd.Flags().Bool("force", false, "Re-apply even when the patch looks present")

	return cmd
}
