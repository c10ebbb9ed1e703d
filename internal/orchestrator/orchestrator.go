// Package orchestrator sequences the detect / backup / patch / verify /
// restart flow and its undo counterpart.
//
// The target file is accessed without any lock discipline toward other
// processes: Relaybot itself, or an administrator, could rewrite the file
// between detection and patch. That race is accepted and mitigated only by
// the mandatory pre-patch backup and the engine's pre-write verification. A
// flock-based run lock does prevent two relayfix invocations from
// interleaving with each other.
package orchestrator

import (
	"context"
	"time"

	"github.com/karol/relayfix/internal/backup"
	"github.com/karol/relayfix/internal/detect"
	"github.com/karol/relayfix/internal/fsutil"
	"github.com/karol/relayfix/internal/journal"
	"github.com/karol/relayfix/internal/logger"
	"github.com/karol/relayfix/internal/models"
	"github.com/karol/relayfix/internal/patch"
	"github.com/karol/relayfix/internal/service"
)

// Readiness poll parameters for the post-restart wait.
const (
	readyPollInterval = 1 * time.Second
	readyPollTimeout  = 30 * time.Second
)

// Orchestrator owns one instance of each collaborator per invocation; there
// are no process-wide singletons.
type Orchestrator struct {
	Detector *detect.Detector
	Backups  *backup.Store
	Engine   *patch.Engine
	Service  service.Supervisor
	Journal  *journal.Journal // optional; nil disables history
	Log      *logger.Logger
	LockPath string // empty disables the run lock (tests)

	// PruneDays > 0 prunes backups older than that many days after a
	// successful fix.
	PruneDays int
}

// FixOptions mirrors the fix command's flags.
type FixOptions struct {
	NoRestart bool
	NoBackup  bool
	Force     bool
}

// UndoOptions mirrors the undo command's flags.
type UndoOptions struct {
	NoRestart    bool
	DeleteBackup bool
}

// FixResult summarizes one fix invocation for rendering.
type FixResult struct {
	Report       *models.DetectionReport
	Outcome      *models.PatchOutcome
	AlreadyFixed bool
	Restarted    bool
	Warnings     []string
}

// UndoResult summarizes one undo invocation.
type UndoResult struct {
	RestoredFrom string
	Deleted      bool
	Restarted    bool
	Warnings     []string
}

// StatusResult is the read-only aggregate behind the status command.
type StatusResult struct {
	Report        *models.DetectionReport
	Backups       []*models.BackupRecord
	ServiceExists bool
	ServiceStatus service.Status
	History       []journal.Entry
}

// Fix runs detect, backup, patch, re-detect and optional restart. Any stage
// failure after the engine took a backup has already been rolled back by the
// engine itself.
func (o *Orchestrator) Fix(ctx context.Context, opts FixOptions) (*FixResult, error) {
	unlock, err := o.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	res := &FixResult{}
	report := o.Detector.Detect(ctx)
	res.Report = report

	switch report.Status {
	case models.StatusNotFound:
		return res, o.recordFix(res, models.NewError(models.CodeInstallNotFound, "no Relaybot installation found"))
	case models.StatusFileNotFound:
		return res, o.recordFix(res, models.NewError(models.CodeFileNotFound, "message handler file not found"))
	}

	if !report.Problem && !opts.Force {
		// Success as a no-op: the patch is already in place.
		res.AlreadyFixed = true
		return res, o.recordFix(res, nil)
	}

	outcome := o.Engine.Apply(report, patch.Options{NoBackup: opts.NoBackup, Force: opts.Force})
	res.Outcome = outcome
	if !outcome.Success {
		return res, o.recordFix(res, outcome.FirstError())
	}

	// Re-read from disk; Apply's in-memory verification does not cover an
	// external modification racing the write.
	confirm := o.Detector.Detect(ctx)
	if confirm.Problem {
		failure := models.NewError(models.CodePatchFailed, "post-patch verification failed")
		if outcome.BackupPath != "" {
			if rerr := o.Backups.Restore(outcome.BackupPath, report.TargetFile); rerr != nil {
				o.Log.Warn("rollback after failed verification failed: %v", rerr)
			}
		}
		res.Outcome = &models.PatchOutcome{
			Success:    false,
			Message:    failure.Message,
			BackupPath: outcome.BackupPath,
			Errors:     []*models.Error{failure},
		}
		return res, o.recordFix(res, failure)
	}

	if o.PruneDays > 0 {
		if n, err := o.Backups.Prune(o.PruneDays, report.TargetFile); err != nil {
			o.Log.Warn("backup pruning failed: %v", err)
		} else if n > 0 {
			o.Log.Info("pruned %d backup(s) older than %d days", n, o.PruneDays)
		}
	}

	if !opts.NoRestart {
		res.Restarted, res.Warnings = o.restart(ctx, res.Warnings)
	}

	return res, o.recordFix(res, nil)
}

// Undo restores the newest backup of the target file.
func (o *Orchestrator) Undo(ctx context.Context, opts UndoOptions) (*UndoResult, error) {
	unlock, err := o.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	report := o.Detector.Detect(ctx)
	if report.TargetFile == "" {
		err := models.NewError(models.CodeFileNotFound, "cannot undo: message handler file not resolved")
		o.recordUndo("", err)
		return nil, err
	}

	records := o.Backups.List(report.TargetFile)
	if len(records) == 0 {
		err := models.NewError(models.CodeBackupNotFound, "no backups exist for %s", report.TargetFile)
		o.recordUndo("", err)
		return nil, err
	}

	newest := records[0]
	if err := o.Backups.Restore(newest.Path, report.TargetFile); err != nil {
		o.recordUndo(newest.Path, err)
		return nil, err
	}

	res := &UndoResult{RestoredFrom: newest.Path}
	if opts.DeleteBackup {
		if err := o.Backups.Delete(newest.Path); err != nil {
			res.Warnings = append(res.Warnings, "restored, but could not delete backup: "+err.Error())
		} else {
			res.Deleted = true
		}
	}

	if !opts.NoRestart {
		res.Restarted, res.Warnings = o.restart(ctx, res.Warnings)
	}

	o.recordUndo(newest.Path, nil)
	return res, nil
}

// Status gathers the read-only aggregate view. It never takes the run lock.
func (o *Orchestrator) Status(ctx context.Context) *StatusResult {
	res := &StatusResult{Report: o.Detector.Detect(ctx)}
	if res.Report.TargetFile != "" {
		res.Backups = o.Backups.List(res.Report.TargetFile)
	} else {
		res.Backups = o.Backups.List("")
	}
	if o.Service != nil {
		res.ServiceExists = o.Service.Exists(ctx)
		if res.ServiceExists {
			if st, err := o.Service.Status(ctx); err == nil {
				res.ServiceStatus = st
			}
		}
	}
	if o.Journal != nil {
		if entries, err := o.Journal.Recent(5); err == nil {
			res.History = entries
		}
	}
	return res
}

// restart triggers the supervisor and polls for readiness. Failures are
// downgraded to warnings: the file-level patch already succeeded.
func (o *Orchestrator) restart(ctx context.Context, warnings []string) (bool, []string) {
	if o.Service == nil || !o.Service.Exists(ctx) {
		return false, append(warnings, "relaybot service not found; restart it manually if needed")
	}
	if err := o.Service.Restart(ctx); err != nil {
		return false, append(warnings,
			"service restart failed: "+err.Error()+" (run `systemctl restart relaybot` manually)")
	}
	if !service.WaitReady(ctx, o.Service, readyPollInterval, readyPollTimeout) {
		return true, append(warnings, "service restarted but did not report active within 30s")
	}
	return true, warnings
}

func (o *Orchestrator) acquireLock() (func(), error) {
	if o.LockPath == "" {
		return func() {}, nil
	}
	lock := fsutil.NewRunLock(o.LockPath)
	acquired, err := lock.TryAcquire()
	if err != nil {
		return nil, models.WrapError(models.CodeLocked, err, "cannot acquire run lock")
	}
	if !acquired {
		return nil, models.NewError(models.CodeLocked, "another relayfix invocation is already running")
	}
	return func() {
		if err := lock.Release(); err != nil {
			o.Log.Warn("releasing run lock failed: %v", err)
		}
	}, nil
}

func (o *Orchestrator) recordFix(res *FixResult, failure *models.Error) error {
	msg := "patched"
	backupPath := ""
	version := ""
	if res.Report != nil {
		version = res.Report.Version
	}
	if res.Outcome != nil {
		backupPath = res.Outcome.BackupPath
	}
	switch {
	case failure != nil:
		msg = failure.Error()
	case res.AlreadyFixed:
		msg = "already fixed"
	}
	o.record(journal.Entry{
		Command:    "fix",
		Success:    failure == nil,
		Message:    msg,
		BackupPath: backupPath,
		AppVersion: version,
	})
	if failure != nil {
		return failure
	}
	return nil
}

func (o *Orchestrator) recordUndo(backupPath string, failure error) {
	msg := "restored"
	if failure != nil {
		msg = failure.Error()
	}
	o.record(journal.Entry{
		Command:    "undo",
		Success:    failure == nil,
		Message:    msg,
		BackupPath: backupPath,
	})
}

func (o *Orchestrator) record(e journal.Entry) {
	if o.Journal == nil {
		return
	}
	if e.RunID == "" {
		e.RunID = journal.NewRunID()
	}
	if err := o.Journal.Record(e); err != nil {
		o.Log.Warn("journal write failed: %v", err)
	}
}
