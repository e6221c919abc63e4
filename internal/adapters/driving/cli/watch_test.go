package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchCmd_Once(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("beta"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.md"), []byte("no"), 0o600))

	out, err := execute("watch", "--once", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 2 files")
	assert.Equal(t, []string{"a.txt", "b.txt"}, ts.documents.ingestedNames())
}

func TestWatchCmd_UsesSettingsDir(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte("gamma"), 0o600))
	ts.settings.settings.Watch.Dir = dir

	out, err := execute("watch", "--once")

	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 1 files")
}

func TestWatchCmd_NoDir(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("watch", "--once")

	assert.EqualError(t, err, "no folder given and watch.dir is not set")
}

func TestWatchCmd_MissingDir(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("watch", "--once", filepath.Join(t.TempDir(), "nope"))

	assert.Error(t, err)
}
