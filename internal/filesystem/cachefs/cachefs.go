// Package cachefs serves nodes from an SQLite file cache table, the way an
// ownCloud server answers metadata queries without touching storage.
package cachefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Ning0612/dataexporter/internal/domain"
	"github.com/Ning0612/dataexporter/internal/filesystem"
)

// Entry is one row of the file cache
type Entry struct {
	// Path is absolute and clean, e.g. "/u1/files/a.txt"
	Path        string
	Type        domain.NodeType
	ETag        string
	Permissions domain.Permissions
	Size        int64
	Storage     filesystem.StorageID
}

// FS is a filesystem.RootFolder backed by SQLite
type FS struct {
	db *sql.DB
}

var _ filesystem.RootFolder = (*FS)(nil)

// Open opens (and initializes) the cache at dsn. ":memory:" works for
// tests because the pool is limited to one connection.
func Open(dsn string) (*FS, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: database dsn cannot be empty", domain.ErrInvalidArgument)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	f := &FS{db: db}
	if err := f.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return f, nil
}

func (f *FS) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS filecache (
		path TEXT PRIMARY KEY,
		parent TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		etag TEXT NOT NULL DEFAULT '',
		permissions INTEGER NOT NULL DEFAULT 0,
		size INTEGER NOT NULL DEFAULT 0,
		storage TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_filecache_parent ON filecache(parent, name);

	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		home TEXT NOT NULL
	);
	`

	_, err := f.db.Exec(schema)
	return err
}

// Put inserts or replaces entries in one transaction. Every entry but "/"
// needs an existing parent folder, either already stored or earlier in
// entries.
func (f *FS) Put(ctx context.Context, entries ...Entry) error {
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if err := putEntry(ctx, tx, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entries: %w", err)
	}
	return nil
}

func putEntry(ctx context.Context, tx *sql.Tx, e Entry) error {
	if !strings.HasPrefix(e.Path, filesystem.Separator) || path.Clean(e.Path) != e.Path {
		return fmt.Errorf("%w: %q is not an absolute clean path", domain.ErrInvalidPath, e.Path)
	}

	parent, name := "", ""
	if p, ok := filesystem.ParentPath(e.Path); ok {
		parent, name = p, path.Base(e.Path)

		var typ string
		err := tx.QueryRowContext(ctx, `SELECT type FROM filecache WHERE path = ?`, parent).Scan(&typ)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: parent of %s", domain.ErrNotFound, e.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to look up parent of %s: %w", e.Path, err)
		}
		if typ != domain.NodeTypeFolder.String() {
			return fmt.Errorf("%w: parent of %s is not a folder", domain.ErrInvalidArgument, e.Path)
		}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO filecache (path, parent, name, type, etag, permissions, size, storage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			type = excluded.type,
			etag = excluded.etag,
			permissions = excluded.permissions,
			size = excluded.size,
			storage = excluded.storage
	`, e.Path, parent, name, e.Type.String(), e.ETag, int(e.Permissions), e.Size, string(e.Storage))
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", e.Path, err)
	}
	return nil
}

// AddUser maps userID to the folder at home
func (f *FS) AddUser(ctx context.Context, userID, home string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id cannot be empty", domain.ErrInvalidArgument)
	}

	n, err := f.lookup(ctx, home)
	if err != nil {
		return err
	}
	if !filesystem.IsFolder(n) {
		return fmt.Errorf("%w: home %s is not a folder", domain.ErrInvalidArgument, home)
	}

	_, err = f.db.ExecContext(ctx, `
		INSERT INTO users (user_id, home) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET home = excluded.home
	`, userID, home)
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", userID, err)
	}
	return nil
}

// UserFolder implements filesystem.RootFolder
func (f *FS) UserFolder(ctx context.Context, userID string) (filesystem.Folder, error) {
	var home string
	err := f.db.QueryRowContext(ctx, `SELECT home FROM users WHERE user_id = ?`, userID).Scan(&home)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %s: %w", userID, err)
	}

	n, err := f.lookup(ctx, home)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: home of %s is gone", domain.ErrUserNotFound, userID)
		}
		return nil, err
	}
	folder, ok := n.(filesystem.Folder)
	if !ok {
		return nil, fmt.Errorf("%w: home of %s is not a folder", domain.ErrUserNotFound, userID)
	}
	return folder, nil
}

// Close closes the database connection
func (f *FS) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}

const selectColumns = `SELECT path, type, etag, permissions, size, storage FROM filecache`

type rowScanner interface {
	Scan(dest ...any) error
}

func (f *FS) scan(row rowScanner) (filesystem.Node, error) {
	var (
		r       record
		typ     string
		perms   int
		storage string
	)
	if err := row.Scan(&r.path, &typ, &r.etag, &perms, &r.size, &storage); err != nil {
		return nil, err
	}

	t, err := domain.ParseNodeType(typ)
	if err != nil {
		return nil, fmt.Errorf("corrupt row %s: %w", r.path, err)
	}
	r.permissions = domain.Permissions(perms)
	r.storage = filesystem.StorageID(storage)

	if t == domain.NodeTypeFolder {
		return &folderNode{record: r, fs: f}, nil
	}
	return &fileNode{record: r}, nil
}

func (f *FS) lookup(ctx context.Context, p string) (filesystem.Node, error) {
	n, err := f.scan(f.db.QueryRowContext(ctx, selectColumns+` WHERE path = ?`, p))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, p)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", p, err)
	}
	return n, nil
}

func (f *FS) children(ctx context.Context, parent string) ([]filesystem.Node, error) {
	rows, err := f.db.QueryContext(ctx, selectColumns+` WHERE parent = ? ORDER BY name`, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", parent, err)
	}
	defer rows.Close()

	var nodes []filesystem.Node
	for rows.Next() {
		n, err := f.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child of %s: %w", parent, err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating children of %s: %w", parent, err)
	}
	return nodes, nil
}
