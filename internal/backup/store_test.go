package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karol/relayfix/internal/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCreateAndRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "backups"))

	original := filepath.Join(dir, "message.js")
	writeFile(t, original, "original contents\n")

	rec, err := store.Create(original)
	require.NoError(t, err)
	assert.Equal(t, original, rec.OriginalPath)
	assert.Equal(t, int64(len("original contents\n")), rec.SizeBytes)

	// Mutate, then restore: the file must match its state at create time.
	writeFile(t, original, "mutated\n")
	require.NoError(t, store.Restore(rec.Path, original))

	data, err := os.ReadFile(original)
	require.NoError(t, err)
	assert.Equal(t, "original contents\n", string(data))
}

func TestCreateMissingOriginal(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Create(filepath.Join(t.TempDir(), "absent.js"))
	require.Error(t, err)
	assert.Equal(t, models.CodeFileNotFound, models.CodeOf(err))
}

func TestRestoreMissingBackup(t *testing.T) {
	store := NewStore(t.TempDir())
	err := store.Restore(filepath.Join(store.Dir, "nope"), filepath.Join(t.TempDir(), "target"))
	require.Error(t, err)
	assert.Equal(t, models.CodeBackupNotFound, models.CodeOf(err))
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "backups"))

	original := filepath.Join(dir, "message.js")
	writeFile(t, original, "v\n")

	// Three backups at three distinct injected timestamps, created out of
	// order to prove the sort is by timestamp, not directory order.
	base := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		stamp := base.Add(offset)
		store.now = func() time.Time { return stamp }
		_, err := store.Create(original)
		require.NoError(t, err)
	}

	records := store.List(original)
	require.Len(t, records, 3)
	assert.Equal(t, base.Add(2*time.Hour), records[0].CreatedAt)
	assert.Equal(t, base.Add(time.Hour), records[1].CreatedAt)
	assert.Equal(t, base, records[2].CreatedAt)
}

func TestListFiltersByBaseName(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "backups"))

	one := filepath.Join(dir, "message.js")
	other := filepath.Join(dir, "router.js")
	writeFile(t, one, "a\n")
	writeFile(t, other, "b\n")

	_, err := store.Create(one)
	require.NoError(t, err)
	_, err = store.Create(other)
	require.NoError(t, err)

	assert.Len(t, store.List(one), 1)
	assert.Len(t, store.List(""), 2)
}

func TestListSkipsForeignFiles(t *testing.T) {
	store := NewStore(t.TempDir())
	writeFile(t, filepath.Join(store.Dir, "README"), "not a backup\n")
	assert.Empty(t, store.List(""))
}

// Two backups inside the same nanosecond must not collide.
func TestCreateSameTimestampDisambiguates(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "backups"))

	original := filepath.Join(dir, "message.js")
	writeFile(t, original, "x\n")

	frozen := time.Date(2026, 8, 27, 10, 0, 0, 123456789, time.UTC)
	store.now = func() time.Time { return frozen }

	first, err := store.Create(original)
	require.NoError(t, err)
	second, err := store.Create(original)
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.Len(t, store.List(original), 2)
}

func TestDeleteIdempotent(t *testing.T) {
	store := NewStore(t.TempDir())
	assert.NoError(t, store.Delete(filepath.Join(store.Dir, "never-existed")))
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "backups"))

	original := filepath.Join(dir, "message.js")
	writeFile(t, original, "x\n")

	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	ages := []time.Duration{
		45 * 24 * time.Hour, // prunable
		31 * 24 * time.Hour, // prunable
		29 * 24 * time.Hour, // kept
		time.Hour,           // kept
	}
	for _, age := range ages {
		stamp := now.Add(-age)
		store.now = func() time.Time { return stamp }
		_, err := store.Create(original)
		require.NoError(t, err)
	}

	store.now = func() time.Time { return now }
	deleted, err := store.Prune(30, original)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Len(t, store.List(original), 2)
}

func TestParseBackupName(t *testing.T) {
	base, ts, ok := parseBackupName("message.js.backup-2026-08-27T10-15-30-123456789Z")
	require.True(t, ok)
	assert.Equal(t, "message.js", base)
	assert.Equal(t, time.Date(2026, 8, 27, 10, 15, 30, 123456789, time.UTC), ts)

	// Disambiguation suffix still parses.
	base, ts, ok = parseBackupName("message.js.backup-2026-08-27T10-15-30-123456789Z-ab12cd34")
	require.True(t, ok)
	assert.Equal(t, "message.js", base)
	assert.False(t, ts.IsZero())

	_, _, ok = parseBackupName("message.js")
	assert.False(t, ok)
}
