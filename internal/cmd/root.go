// Package cmd wires the relayfix CLI: the four core commands (check, fix,
// undo, status) plus history, watch and backup management.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for relayfix.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relayfix",
		Short: "Repair Relaybot's missing attachment forwarding",
		Long: `relayfix inspects an installed Relaybot for the attachment forwarding
fragment in its message handler and, when missing, inserts it with a
pre-patch backup, post-patch verification and automatic rollback.

Exit codes: 0 success or no problem, 1 handled failure or problem
detected, 2 unexpected error.`,
		Version:      Version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: ~/.config/relayfix/config.yaml)")
	cmd.PersistentFlags().Bool("verbose", false, "Show debug output")

	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewFixCommand())
	cmd.AddCommand(NewUndoCommand())
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewBackupsCommand())

	return cmd
}
