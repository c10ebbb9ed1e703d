package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history subcommand.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "history",
		Short:        "List recent fix/undo runs",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			if a.journ == nil {
				fmt.Fprintln(out, "run history is disabled (journal_path is empty)")
				return nil
			}

			limit, _ := cmd.Flags().GetInt("limit")
			entries, err := a.journ.Recent(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "no recorded runs")
				return nil
			}
			for _, e := range entries {
				result := "ok"
				if !e.Success {
					result = "failed"
				}
				fmt.Fprintf(out, "%s  %-5s %-6s %s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"), e.Command, result, e.Message)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	return cmd
}
