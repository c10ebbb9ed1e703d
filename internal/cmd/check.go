package cmd

import (
	"github.com/spf13/cobra"

	"github.com/karol/relayfix/internal/display"
	"github.com/karol/relayfix/internal/guide"
	"github.com/karol/relayfix/internal/models"
)

// NewCheckCommand creates the check subcommand.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Detect whether Relaybot needs the attachment forwarding patch",
		Long: `Locate the Relaybot installation, read its message handler fresh from
disk and report which patch markers are present.

Exit code: 0 when no problem is detected, 1 when a problem is detected.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			report := a.orch.Detector.Detect(cmd.Context())
			out := cmd.OutOrStdout()
			display.Report(out, report)

			switch report.Status {
			case models.StatusNotFound:
				guide.Render(out, guide.InstallNotFound)
				return models.NewError(models.CodeInstallNotFound, "no Relaybot installation found")
			case models.StatusFileNotFound:
				guide.Render(out, guide.FileNotFound)
				return models.NewError(models.CodeFileNotFound, "message handler file not found")
			}
			if report.Problem {
				return models.NewError(models.CodeNotFixed, "Relaybot needs the attachment forwarding patch (run `relayfix fix`)")
			}
			return nil
		},
	}
}
