// Package shell abstracts external command execution so that collaborators
// (systemctl, npm, which) can be faked in tests.
package shell

import (
	"context"
	"os/exec"
)

// CommandRunner abstracts shell command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, command string) (output string, err error)
}

// Runner executes commands via the system shell.
type Runner struct {
	WorkDir string // working directory for commands (empty = current dir)
}

// NewRunner creates a CommandRunner that executes real shell commands.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes a command via sh -c and returns combined stdout/stderr.
func (r *Runner) Run(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if r.WorkDir != "" {
		cmd.Dir = r.WorkDir
	}
	output, err := cmd.CombinedOutput()
	return string(output), err
}
