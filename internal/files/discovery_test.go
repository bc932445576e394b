package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, mod time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestFindWorkbooks_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, dir, "old.xlsx", now.Add(-2*time.Hour))
	newest := touch(t, dir, "new.xlsx", now)
	touch(t, dir, "notes.txt", now)
	touch(t, dir, "~$new.xlsx", now) // Excel lock file
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	d := NewDiscovery(nil, "", nil)
	files, err := d.FindWorkbooks(dir)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, newest, files[0].Path, "newest workbook first")
}

func TestResolve_FirstCandidateDirectoryWins(t *testing.T) {
	empty := t.TempDir()
	populated := t.TempDir()
	want := touch(t, populated, "index.xlsx", time.Now())

	d := NewDiscovery(nil, "", []string{filepath.Join(empty, "missing"), empty, populated})
	info, ok := d.Resolve()

	require.True(t, ok)
	assert.Equal(t, want, info.Path)
}

func TestResolve_NoWorkbookAnywhere(t *testing.T) {
	d := NewDiscovery(nil, "", []string{t.TempDir(), filepath.Join(t.TempDir(), "missing")})
	_, ok := d.Resolve()
	assert.False(t, ok)
}

func TestResolve_PinnedWorkbookWins(t *testing.T) {
	dir := t.TempDir()
	pinned := touch(t, dir, "pinned.xlsx", time.Now())
	touch(t, dir, "other.xlsx", time.Now().Add(time.Hour))

	d := NewDiscovery(nil, pinned, []string{dir})
	info, ok := d.Resolve()

	require.True(t, ok)
	assert.Equal(t, pinned, info.Path)
}

func TestResolve_MissingPinFallsBackToDirectories(t *testing.T) {
	dir := t.TempDir()
	want := touch(t, dir, "index.xlsx", time.Now())

	d := NewDiscovery(nil, filepath.Join(dir, "gone.xlsx"), []string{dir})
	info, ok := d.Resolve()

	require.True(t, ok)
	assert.Equal(t, want, info.Path)
}
