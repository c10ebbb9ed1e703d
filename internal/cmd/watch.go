package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karol/relayfix/internal/display"
	"github.com/karol/relayfix/internal/models"
	"github.com/karol/relayfix/internal/watch"
)

// NewWatchCommand creates the watch subcommand.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-run detection whenever the message handler changes",
		Long: `Watch Relaybot's message handler and report patch drift as it happens,
for example after an npm upgrade rewrites the file. Read-only; never
patches. Runs until interrupted.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			report := a.orch.Detector.Detect(cmd.Context())
			display.Report(out, report)
			if report.TargetFile == "" {
				return models.NewError(models.CodeFileNotFound, "nothing to watch: message handler not resolved")
			}

			fmt.Fprintf(out, "\nwatching %s (Ctrl-C to stop)\n", report.TargetFile)
			return watch.Run(cmd.Context(), report.TargetFile, func() {
				fmt.Fprintln(out, "\nhandler file changed:")
				display.Report(out, a.orch.Detector.Detect(cmd.Context()))
			})
		},
	}
}
