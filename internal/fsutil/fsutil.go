// Package fsutil provides atomic file writes and the single-run process lock.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// AtomicWrite writes data to path using a temp file in the same directory
// followed by a rename, so readers never observe a partial write. If path
// already exists its permission bits are preserved; otherwise perm is used.
// On any failure the original file is left unchanged.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}

	// Rename is atomic within one filesystem, which the same-directory temp
	// file guarantees.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	tmp = nil
	return nil
}

// CopyFile copies src to dst byte-exact, creating dst's directory on demand
// and carrying over src's permission bits.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	return AtomicWrite(dst, data, info.Mode().Perm())
}

// RunLock guards mutating invocations (fix/undo) so two processes cannot
// interleave writes to the same target file.
type RunLock struct {
	flock *flock.Flock
	path  string
}

// NewRunLock creates a lock backed by the given lock file path.
func NewRunLock(path string) *RunLock {
	return &RunLock{flock: flock.New(path), path: path}
}

// TryAcquire attempts to take the lock without blocking. Returns false when
// another invocation holds it.
func (l *RunLock) TryAcquire() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	return acquired, nil
}

// Release drops the lock. Safe to call when the lock was never acquired.
func (l *RunLock) Release() error {
	return l.flock.Unlock()
}
