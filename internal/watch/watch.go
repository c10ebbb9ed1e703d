// Package watch re-runs detection whenever the managed handler file changes
// on disk. Watching is read-only; it never patches.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the burst of events an editor or npm upgrade
// produces for a single logical change.
const debounceWindow = 500 * time.Millisecond

// Run watches the file at path and invokes onChange after each (debounced)
// modification. The file's directory is watched rather than the file itself
// so atomic replace-by-rename updates keep being observed. Blocks until ctx
// is cancelled.
func Run(ctx context.Context, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != absPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			onChange()
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
