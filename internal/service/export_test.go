package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/dataexporter/internal/config"
	"github.com/Ning0612/dataexporter/internal/domain"
	"github.com/Ning0612/dataexporter/internal/export"
	"github.com/Ning0612/dataexporter/internal/filesystem/memfs"
	"github.com/Ning0612/dataexporter/internal/lock"
	"github.com/Ning0612/dataexporter/internal/progress"
	"github.com/Ning0612/dataexporter/internal/state"
	"github.com/Ning0612/dataexporter/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		OriginServer: "https://cloud.example.com",
		Filesystem:   config.FilesystemConfig{Type: config.BackendLocal, DataDir: dir},
		State:        config.StateConfig{DataDir: filepath.Join(dir, "state")},
		Lock:         config.LockConfig{Dir: filepath.Join(dir, "locks")},
		Output:       config.OutputConfig{Format: config.FormatJSON},
	}
}

func newTestTree(t *testing.T, withTrash bool) *memfs.FS {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/u1/files/docs", "home::u1"))
	require.NoError(t, fs.WriteFile("/u1/files/a.txt", 1, "home::u1"))
	require.NoError(t, fs.WriteFile("/u1/files/docs/b.txt", 2, "home::u1"))
	require.NoError(t, fs.MkdirAll("/u1/files/ext", "smb::share"))
	require.NoError(t, fs.WriteFile("/u1/files/ext/c.txt", 3, "smb::share"))
	if withTrash {
		require.NoError(t, fs.MkdirAll("/u1/files_trashbin/files", "home::u1"))
		require.NoError(t, fs.WriteFile("/u1/files_trashbin/files/old.txt.d1", 4, "home::u1"))
	}
	require.NoError(t, fs.AddUser("u1", "/u1/files"))
	return fs
}

func newTestService(t *testing.T, fs *memfs.FS) *ExportService {
	t.Helper()
	svc, err := NewExportServiceWithRoot(testConfig(t), fs)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func paths(files []domain.File) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestExport_Files(t *testing.T) {
	svc := newTestService(t, newTestTree(t, true))
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	m, err := svc.Export(context.Background(), ExportRequest{UserID: "u1"})
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "u1", m.Metadata.User.UserID)
	assert.Equal(t, "https://cloud.example.com", m.Metadata.OriginServer)
	assert.Equal(t, fixed, m.Metadata.Date)
	assert.Equal(t, []string{"", "a.txt", "docs", "docs/b.txt"}, paths(m.Files))
	assert.Nil(t, m.TrashBin)

	history, err := svc.History("u1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, m.ID, history[0].RunID)
	assert.Equal(t, state.StatusSuccess, history[0].Status)
	assert.Equal(t, 4, history[0].Records)
	assert.Equal(t, string(export.ScopeFiles), history[0].Scope)
}

func TestExport_All(t *testing.T) {
	svc := newTestService(t, newTestTree(t, true))

	m, err := svc.Export(context.Background(), ExportRequest{UserID: "u1", Scope: export.ScopeAll})
	require.NoError(t, err)
	assert.Len(t, m.Files, 4)
	assert.Equal(t, []string{"", "old.txt.d1"}, paths(m.TrashBin))
}

func TestExport_AllWithoutTrashBin(t *testing.T) {
	svc := newTestService(t, newTestTree(t, false))

	m, err := svc.Export(context.Background(), ExportRequest{UserID: "u1", Scope: export.ScopeAll})
	require.NoError(t, err)
	assert.Len(t, m.Files, 4)
	assert.Empty(t, m.TrashBin)
}

func TestExport_TrashBinMissing(t *testing.T) {
	svc := newTestService(t, newTestTree(t, false))

	_, err := svc.Export(context.Background(), ExportRequest{UserID: "u1", Scope: export.ScopeTrashBin})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	history, err := svc.History("u1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, state.StatusFailed, history[0].Status)
	assert.NotEmpty(t, history[0].Error)
}

func TestExport_UnknownUser(t *testing.T) {
	svc := newTestService(t, newTestTree(t, true))

	_, err := svc.Export(context.Background(), ExportRequest{UserID: "nobody"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestExport_EmptyUser(t *testing.T) {
	svc := newTestService(t, newTestTree(t, true))

	_, err := svc.Export(context.Background(), ExportRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestExport_PartialOnWalkError(t *testing.T) {
	fs := newTestTree(t, true)
	boom := errors.New("disk gone")
	require.NoError(t, fs.FailChildren("/u1/files/docs", boom))
	svc := newTestService(t, fs)

	m, err := svc.Export(context.Background(), ExportRequest{UserID: "u1"})
	require.ErrorIs(t, err, boom)
	require.NotNil(t, m)
	assert.Equal(t, []string{"", "a.txt", "docs"}, paths(m.Files))

	last, err := svc.LastSuccess("u1")
	require.NoError(t, err)
	assert.Nil(t, last)

	history, err := svc.History("", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, state.StatusPartial, history[0].Status)
	assert.Equal(t, 3, history[0].Records)
}

func TestExport_LockHeld(t *testing.T) {
	svc := newTestService(t, newTestTree(t, true))

	held, err := lock.NewFileLock(svc.config.Lock.Dir, "u1")
	require.NoError(t, err)
	require.NoError(t, held.Acquire("other-run"))
	defer held.Release()

	_, err = svc.Export(context.Background(), ExportRequest{UserID: "u1"})
	assert.ErrorIs(t, err, domain.ErrExportInProgress)

	history, err := svc.History("u1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestExport_ReleasesLock(t *testing.T) {
	svc := newTestService(t, newTestTree(t, true))

	_, err := svc.Export(context.Background(), ExportRequest{UserID: "u1"})
	require.NoError(t, err)

	l, err := lock.NewFileLock(svc.config.Lock.Dir, "u1")
	require.NoError(t, err)
	assert.False(t, l.IsLocked())

	_, err = svc.Export(context.Background(), ExportRequest{UserID: "u1"})
	require.NoError(t, err)

	last, err := svc.LastSuccess("u1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, state.StatusSuccess, last.Status)
}

func TestExport_Progress(t *testing.T) {
	svc := newTestService(t, newTestTree(t, true))

	var visited int
	svc.SetProgressReporter(progress.NewCallbackReporter(func(u progress.Update) {
		if u.Type == progress.UpdateVisit {
			visited++
		}
	}))

	_, err := svc.Export(context.Background(), ExportRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 4, visited)
}

func TestExport_Cancelled(t *testing.T) {
	svc := newTestService(t, newTestTree(t, true))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Export(ctx, ExportRequest{UserID: "u1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewExportService_LocalBackend(t *testing.T) {
	cfg := testConfig(t)
	testutil.WriteTree(t, cfg.Filesystem.DataDir, testutil.Tree{
		"u1/files/a.txt":      "hello",
		"u1/files/docs/":      "",
		"u1/files/docs/b.txt": "world",
	})

	svc, err := NewExportService(cfg)
	require.NoError(t, err)
	defer svc.Close()

	m, err := svc.Export(context.Background(), ExportRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "a.txt", "docs", "docs/b.txt"}, paths(m.Files))
}

func TestOpenBackend(t *testing.T) {
	_, _, err := OpenBackend(config.FilesystemConfig{Type: "ftp"})
	assert.ErrorIs(t, err, domain.ErrBackendNotSupported)

	_, _, err = OpenBackend(config.FilesystemConfig{Type: config.BackendLocal, DataDir: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	root, closer, err := OpenBackend(config.FilesystemConfig{Type: config.BackendSQLite, Database: ":memory:"})
	require.NoError(t, err)
	assert.NotNil(t, root)
	assert.NoError(t, closer.Close())
}
