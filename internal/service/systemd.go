// Package service models the external service supervisor as a narrow
// capability interface. The production implementation shells out to
// systemctl; tests substitute an in-memory fake.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/karol/relayfix/internal/models"
	"github.com/karol/relayfix/internal/shell"
)

// Status is a point-in-time view of the managed unit.
type Status struct {
	Active bool
	Since  string // supervisor-formatted activation timestamp, may be empty
}

// Supervisor is everything the orchestrator needs from the host's service
// manager.
type Supervisor interface {
	Status(ctx context.Context) (Status, error)
	Restart(ctx context.Context) error
	Exists(ctx context.Context) bool
}

// Systemd drives a single systemd unit through systemctl.
type Systemd struct {
	Unit   string
	Runner shell.CommandRunner
}

// NewSystemd creates a Supervisor for the given unit name (without the
// ".service" suffix).
func NewSystemd(unit string, runner shell.CommandRunner) *Systemd {
	return &Systemd{Unit: unit, Runner: runner}
}

// Status queries `systemctl is-active` plus the activation timestamp.
// is-active exits non-zero for inactive units, which is a valid answer, not
// an error; only an empty output is treated as a failure.
func (s *Systemd) Status(ctx context.Context) (Status, error) {
	out, err := s.Runner.Run(ctx, "systemctl is-active "+s.Unit)
	state := strings.TrimSpace(out)
	if state == "" && err != nil {
		return Status{}, models.WrapError(models.CodeServiceError, err, "cannot query %s", s.Unit)
	}

	st := Status{Active: state == "active"}
	if since, err := s.Runner.Run(ctx, "systemctl show "+s.Unit+" --property=ActiveEnterTimestamp --value"); err == nil {
		st.Since = strings.TrimSpace(since)
	}
	return st, nil
}

// Restart restarts the unit.
func (s *Systemd) Restart(ctx context.Context) error {
	if out, err := s.Runner.Run(ctx, "systemctl restart "+s.Unit); err != nil {
		return models.WrapError(models.CodeServiceError, err, "restart of %s failed: %s", s.Unit, strings.TrimSpace(out))
	}
	return nil
}

// Exists reports whether the unit is known to systemd.
func (s *Systemd) Exists(ctx context.Context) bool {
	_, err := s.Runner.Run(ctx, "systemctl cat "+s.Unit)
	return err == nil
}

// WaitReady polls the supervisor until the unit reports active, at the given
// interval, up to timeout. It never blocks indefinitely; a timeout yields
// false, which callers treat as a warning rather than an error because the
// file-level patch has already succeeded by the time this runs.
func WaitReady(ctx context.Context, sup Supervisor, interval, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if st, err := sup.Status(ctx); err == nil && st.Active {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
