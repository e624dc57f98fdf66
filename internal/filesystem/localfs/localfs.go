// Package localfs serves an ownCloud style data directory from disk.
//
// A data directory holds one folder per user:
//
//	<data_dir>/<user>/files
//	<data_dir>/<user>/files_trashbin/files
//
// Nodes are addressed by virtual paths rooted at the data directory, so the
// home of user u1 is "/u1/files".
//
// Symbolic links are never followed. A link is reported as a file on
// LinkStorage, so the storage boundary condition of a walk prunes it like
// any other mount point and neither the link nor its target is exported.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Ning0612/dataexporter/internal/core/checksum"
	"github.com/Ning0612/dataexporter/internal/domain"
	"github.com/Ning0612/dataexporter/internal/filesystem"
)

// ETagMode selects how file ETags are derived
type ETagMode string

const (
	// ETagStat hashes size, modification time and mode
	ETagStat ETagMode = "stat"
	// ETagContent hashes file content, falling back to ETagStat above the
	// calculator's size limit
	ETagContent ETagMode = "content"
)

// LinkStorage is the storage of every symbolic link
const LinkStorage filesystem.StorageID = "local::symlink"

// HomeFolder is the name of the folder holding a user's files
const HomeFolder = "files"

// Options configures a local FS
type Options struct {
	ETag       ETagMode
	Algorithm  checksum.Algorithm
	Calculator checksum.Calculator
}

// DefaultOptions uses stat ETags hashed with md5
func DefaultOptions() Options {
	return Options{
		ETag:      ETagStat,
		Algorithm: checksum.MD5,
	}
}

// FS is a filesystem.RootFolder over a data directory
type FS struct {
	root string
	opts Options
}

var _ filesystem.RootFolder = (*FS)(nil)

// New opens dataDir, which must be an existing directory
func New(dataDir string, opts Options) (*FS, error) {
	absRoot, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("data directory %s: %w", absRoot, mapError(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: data directory %s is not a folder", domain.ErrInvalidArgument, absRoot)
	}

	if opts.ETag == "" {
		opts.ETag = ETagStat
	}
	if opts.ETag != ETagStat && opts.ETag != ETagContent {
		return nil, fmt.Errorf("%w: unknown etag mode %q", domain.ErrInvalidArgument, opts.ETag)
	}
	if opts.Algorithm == "" {
		opts.Algorithm = checksum.MD5
	}
	if !checksum.IsSupported(opts.Algorithm) {
		return nil, fmt.Errorf("%w: %s", checksum.ErrUnsupportedAlgorithm, opts.Algorithm)
	}
	if opts.Calculator == nil {
		opts.Calculator = checksum.NewDefaultCalculator()
	}

	return &FS{root: absRoot, opts: opts}, nil
}

// Root returns the absolute data directory
func (f *FS) Root() string {
	return f.root
}

// UserFolder returns /<userID>/files
func (f *FS) UserFolder(ctx context.Context, userID string) (filesystem.Folder, error) {
	if !validUserID(userID) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUserNotFound, userID)
	}

	n, err := f.stat(ctx, path.Join(filesystem.Separator, userID, HomeFolder))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
		}
		return nil, err
	}

	folder, ok := n.(filesystem.Folder)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	return folder, nil
}

func validUserID(userID string) bool {
	if userID == "" || userID == "." || userID == ".." {
		return false
	}
	return !strings.ContainsAny(userID, `/\`)
}

// hostPath maps a virtual path into the data directory
func (f *FS) hostPath(virtual string) string {
	return filepath.Join(f.root, filepath.FromSlash(strings.TrimPrefix(virtual, filesystem.Separator)))
}

// stat builds the node at a virtual path. Symlinks are not followed.
func (f *FS) stat(ctx context.Context, virtual string) (filesystem.Node, error) {
	host := f.hostPath(virtual)
	info, err := os.Lstat(host)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", virtual, mapError(err))
	}
	return f.newNode(ctx, virtual, host, info)
}

func (f *FS) newNode(ctx context.Context, virtual, host string, info fs.FileInfo) (filesystem.Node, error) {
	base := entry{
		fs:      f,
		path:    virtual,
		host:    host,
		info:    info,
		storage: storageID(host, info),
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		base.storage = LinkStorage
	}

	if info.IsDir() {
		etag, err := checksum.StatETag(f.opts.Algorithm, info.Size(), info.ModTime(), info.Mode())
		if err != nil {
			return nil, err
		}
		base.etag = etag
		return &folderNode{entry: base}, nil
	}

	etag, err := f.fileETag(ctx, host, info)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", virtual, err)
	}
	base.etag = etag
	return &fileNode{entry: base}, nil
}

func (f *FS) fileETag(ctx context.Context, host string, info fs.FileInfo) (string, error) {
	if f.opts.ETag == ETagContent && info.Mode().IsRegular() {
		file, err := os.Open(host)
		if err != nil {
			return "", mapError(err)
		}
		defer file.Close()

		etag, err := checksum.ContentETag(ctx, f.opts.Calculator, file, f.opts.Algorithm)
		if err == nil {
			return etag, nil
		}
		if !errors.Is(err, checksum.ErrTooLarge) {
			return "", err
		}
	}
	return checksum.StatETag(f.opts.Algorithm, info.Size(), info.ModTime(), info.Mode())
}

// permissions derives the ownCloud bitmask from the owner mode bits
func permissions(info fs.FileInfo) domain.Permissions {
	mode := info.Mode().Perm()

	var p domain.Permissions
	if mode&0400 != 0 {
		p |= domain.PermissionRead | domain.PermissionShare
	}
	if mode&0200 != 0 {
		p |= domain.PermissionUpdate | domain.PermissionDelete
		if info.IsDir() {
			p |= domain.PermissionCreate
		}
	}
	return p
}

// mapError converts OS errors to domain errors
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: %v", domain.ErrAlreadyExists, err)
	default:
		return err
	}
}
