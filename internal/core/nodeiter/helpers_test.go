package nodeiter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ning0612/dataexporter/internal/filesystem"
	"github.com/Ning0612/dataexporter/internal/filesystem/memfs"
)

const (
	storageHome     filesystem.StorageID = "home::u1"
	storageExternal filesystem.StorageID = "smb::share"
)

// newMountedTree builds /u1/files with a.txt on the home storage and an
// externally mounted folder ext holding b.txt
func newMountedTree(t *testing.T) *memfs.FS {
	t.Helper()

	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/u1/files", storageHome))
	require.NoError(t, fs.WriteFile("/u1/files/a.txt", 3, storageHome))
	require.NoError(t, fs.MkdirAll("/u1/files/ext", storageExternal))
	require.NoError(t, fs.WriteFile("/u1/files/ext/b.txt", 5, storageExternal))
	require.NoError(t, fs.AddUser("u1", "/u1/files"))
	return fs
}

// newDeepTree builds a home tree with nested folders and an external mount
// holding a folder of home-storage nodes, which must still be pruned
func newDeepTree(t *testing.T) *memfs.FS {
	t.Helper()

	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/u1/files/docs/2024", storageHome))
	require.NoError(t, fs.MkdirAll("/u1/files/photos", storageHome))
	require.NoError(t, fs.WriteFile("/u1/files/readme.md", 1, storageHome))
	require.NoError(t, fs.WriteFile("/u1/files/docs/cv.pdf", 1, storageHome))
	require.NoError(t, fs.WriteFile("/u1/files/docs/2024/tax.pdf", 1, storageHome))
	require.NoError(t, fs.WriteFile("/u1/files/photos/cat.jpg", 1, storageHome))
	require.NoError(t, fs.MkdirAll("/u1/files/mnt", storageExternal))
	require.NoError(t, fs.WriteFile("/u1/files/mnt/remote.txt", 1, storageExternal))
	require.NoError(t, fs.MkdirAll("/u1/files/mnt/nested", storageHome))
	require.NoError(t, fs.WriteFile("/u1/files/mnt/nested/hidden.txt", 1, storageHome))
	require.NoError(t, fs.MkdirAll("/u1/files_trashbin/files", storageHome))
	require.NoError(t, fs.AddUser("u1", "/u1/files"))
	return fs
}

// collect drains a walker into relative paths
func collect(t *testing.T, w *Walker, base filesystem.Folder) []string {
	t.Helper()

	var paths []string
	for w.Next(context.Background()) {
		rel, err := base.RelativePath(w.Key())
		require.NoError(t, err)
		paths = append(paths, rel)
	}
	require.NoError(t, w.Err())
	return paths
}

func userWalker(t *testing.T, fs *memfs.FS, mode Mode) (*Walker, filesystem.Folder) {
	t.Helper()

	w, base, err := NewFactory(fs).UserFolderIterator(context.Background(), "u1", mode)
	require.NoError(t, err)
	return w, base
}
