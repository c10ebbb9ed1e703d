// Package backup implements timestamped copy/restore/list/prune for the
// single file relayfix manages. Backups are flat byte-exact copies in one
// dedicated directory; there is no diffing or version control.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/karol/relayfix/internal/fsutil"
	"github.com/karol/relayfix/internal/models"
)

// stampLayout is an ISO 8601 timestamp with colons replaced so the stamp is
// a valid filename everywhere. Nanoseconds are appended as a fixed-width
// field so same-second backups still sort correctly.
const stampLayout = "2006-01-02T15-04-05"

// backupNameRe matches "<base>.backup-<stamp>-<nanos>Z[-<suffix>]".
var backupNameRe = regexp.MustCompile(`^(.+)\.backup-(\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2})-(\d{9})Z(?:-[0-9a-f]{8})?$`)

// Store owns one flat backup directory. All records it hands out are derived
// from directory contents at call time; nothing is cached.
type Store struct {
	Dir string

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewStore creates a Store over dir. The directory is created on demand by
// the first Create call.
func NewStore(dir string) *Store {
	return &Store{Dir: dir, now: time.Now}
}

// Create writes a byte-exact timestamped copy of path into the backup
// directory and returns its record.
func (s *Store) Create(path string) (*models.BackupRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.WrapError(models.CodeFileNotFound, err, "cannot back up %s", path)
		}
		return nil, models.WrapError(models.CodePermissionDenied, err, "cannot stat %s", path)
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return nil, models.WrapError(models.CodePermissionDenied, err, "cannot create backup directory %s", s.Dir)
	}

	createdAt := s.now()
	name := backupName(filepath.Base(path), createdAt)
	dst := filepath.Join(s.Dir, name)
	// A nanosecond collision is practically impossible but an overwrite of an
	// existing backup never is acceptable, so disambiguate with a suffix.
	if _, err := os.Stat(dst); err == nil {
		dst = dst + "-" + uuid.NewString()[:8]
	}

	if err := fsutil.CopyFile(path, dst); err != nil {
		return nil, models.WrapError(models.CodePermissionDenied, err, "cannot write backup %s", dst)
	}

	return &models.BackupRecord{
		Path:         dst,
		OriginalPath: path,
		CreatedAt:    createdAt,
		SizeBytes:    info.Size(),
	}, nil
}

// Restore overwrites targetPath byte-exact with the contents of backupPath.
func (s *Store) Restore(backupPath, targetPath string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return models.WrapError(models.CodeBackupNotFound, err, "backup %s not found", backupPath)
	}
	if err := fsutil.CopyFile(backupPath, targetPath); err != nil {
		return models.WrapError(models.CodePermissionDenied, err, "cannot restore %s to %s", backupPath, targetPath)
	}
	return nil
}

// List scans the backup directory and returns records sorted newest-first.
// When originalPath is non-empty only backups of that file's base name are
// returned. Listing is best-effort: entries that cannot be read are skipped,
// and names with unparsable timestamps fall back to file modification time.
func (s *Store) List(originalPath string) []*models.BackupRecord {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil
	}

	baseFilter := ""
	if originalPath != "" {
		baseFilter = filepath.Base(originalPath)
	}

	var records []*models.BackupRecord
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base, createdAt, ok := parseBackupName(entry.Name())
		if !ok {
			continue
		}
		if baseFilter != "" && base != baseFilter {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if createdAt.IsZero() {
			createdAt = info.ModTime()
		}
		records = append(records, &models.BackupRecord{
			Path:         filepath.Join(s.Dir, entry.Name()),
			OriginalPath: base,
			CreatedAt:    createdAt,
			SizeBytes:    info.Size(),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].Path > records[j].Path
	})
	return records
}

// Delete removes a backup. Deleting a nonexistent backup is a no-op.
func (s *Store) Delete(backupPath string) error {
	err := os.Remove(backupPath)
	if err != nil && !os.IsNotExist(err) {
		return models.WrapError(models.CodePermissionDenied, err, "cannot delete backup %s", backupPath)
	}
	return nil
}

// Prune deletes every backup strictly older than maxAgeDays and returns the
// count removed. originalPath filters like List.
func (s *Store) Prune(maxAgeDays int, originalPath string) (int, error) {
	cutoff := s.now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)
	deleted := 0
	for _, rec := range s.List(originalPath) {
		if !rec.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.Delete(rec.Path); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// backupName builds "<base>.backup-<stamp>-<nanos>Z" from the original base
// name and creation time (rendered in UTC).
func backupName(base string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s.backup-%s-%09dZ", base, t.Format(stampLayout), t.Nanosecond())
}

// parseBackupName extracts the original base name and creation timestamp. A
// non-backup name returns ok=false; a backup name whose stamp does not parse
// returns ok=true with a zero time so the caller can fall back to file
// metadata.
func parseBackupName(name string) (base string, createdAt time.Time, ok bool) {
	m := backupNameRe.FindStringSubmatch(name)
	if m == nil {
		return "", time.Time{}, false
	}
	base = m[1]
	t, err := time.ParseInLocation(stampLayout, m[2], time.UTC)
	if err != nil {
		return base, time.Time{}, true
	}
	nanos, err := strconv.Atoi(m[3])
	if err != nil {
		return base, time.Time{}, true
	}
	return base, t.Add(time.Duration(nanos) * time.Nanosecond), true
}
