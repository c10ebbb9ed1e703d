package patch

import (
	"os"

	"github.com/karol/relayfix/internal/backup"
	"github.com/karol/relayfix/internal/detect"
	"github.com/karol/relayfix/internal/fsutil"
	"github.com/karol/relayfix/internal/logger"
	"github.com/karol/relayfix/internal/models"
)

// Options controls one Apply call.
type Options struct {
	// NoBackup skips the pre-patch backup. With it set the caller explicitly
	// accepts that a failed apply cannot be rolled back.
	NoBackup bool

	// Force is the upstream "--force" override: the engine trusts the
	// report's Problem flag unless the caller forces a re-apply.
	Force bool
}

// Engine applies the attachment-forwarding patch. It owns no state beyond
// its collaborators; construct one per invocation.
type Engine struct {
	Backups *backup.Store
	Log     *logger.Logger
}

// NewEngine creates an Engine that takes pre-patch backups in store.
func NewEngine(store *backup.Store, log *logger.Logger) *Engine {
	return &Engine{Backups: store, Log: log}
}

// Apply patches the file named by the report. The modified text is written
// back only after all insertions and the self-verification pass, so the file
// on disk is never left partially patched. If a backup was taken in this call
// and any later step fails, the backup is restored before returning.
func (e *Engine) Apply(report *models.DetectionReport, opts Options) *models.PatchOutcome {
	if report == nil || report.TargetFile == "" {
		return failure(models.NewError(models.CodeFileNotFound, "detection report carries no target file"), "")
	}
	if !report.Problem && !opts.Force {
		return failure(models.NewError(models.CodeAlreadyFixed, "target file already carries the patch"), "")
	}
	if _, err := os.Stat(report.TargetFile); err != nil {
		// The file may have disappeared between detection and apply.
		return failure(models.WrapError(models.CodeFileNotFound, err, "target file %s is gone", report.TargetFile), "")
	}
	data, err := os.ReadFile(report.TargetFile)
	if err != nil {
		return failure(models.WrapError(models.CodePermissionDenied, err, "cannot read %s", report.TargetFile), "")
	}

	backupPath := ""
	if !opts.NoBackup {
		rec, err := e.Backups.Create(report.TargetFile)
		if err != nil {
			te, ok := err.(*models.Error)
			if !ok {
				te = models.WrapError(models.CodePermissionDenied, err, "backup failed")
			}
			return failure(te, "")
		}
		backupPath = rec.Path
	}

	text := string(data)

	patched, perr := insertImport(text)
	if perr != nil {
		return e.rollback(perr, report.TargetFile, backupPath)
	}
	patched, perr = insertLogic(patched)
	if perr != nil {
		return e.rollback(perr, report.TargetFile, backupPath)
	}

	// Self-verify before any byte reaches disk. The attribution marker check
	// ensures we are looking at our own patch, not a coincidental hand edit.
	if !detect.HasImportMarker(patched) ||
		!detect.HasLogicMarker(patched) ||
		!detect.HasCallMarker(patched) ||
		!detect.HasAttributionMarker(patched) {
		return e.rollback(models.NewError(models.CodePatchFailed, "verification failed"), report.TargetFile, backupPath)
	}

	if err := fsutil.AtomicWrite(report.TargetFile, []byte(patched), 0644); err != nil {
		return e.rollback(models.WrapError(models.CodePermissionDenied, err, "cannot write %s", report.TargetFile), report.TargetFile, backupPath)
	}

	return &models.PatchOutcome{
		Success:    true,
		Message:    "attachment forwarding patch applied",
		BackupPath: backupPath,
	}
}

// rollback restores the backup taken earlier in this call, if any. A restore
// failure is logged but never masks the original failure.
func (e *Engine) rollback(cause *models.Error, targetFile, backupPath string) *models.PatchOutcome {
	if backupPath != "" {
		if err := e.Backups.Restore(backupPath, targetFile); err != nil && e.Log != nil {
			e.Log.Warn("rollback of %s from %s failed: %v", targetFile, backupPath, err)
		}
	}
	return failure(cause, backupPath)
}

func failure(err *models.Error, backupPath string) *models.PatchOutcome {
	return &models.PatchOutcome{
		Success:    false,
		Message:    err.Message,
		BackupPath: backupPath,
		Errors:     []*models.Error{err},
	}
}
