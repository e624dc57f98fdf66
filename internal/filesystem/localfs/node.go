package localfs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/Ning0612/dataexporter/internal/domain"
	"github.com/Ning0612/dataexporter/internal/filesystem"
)

type entry struct {
	fs      *FS
	path    string
	host    string
	info    fs.FileInfo
	etag    string
	storage filesystem.StorageID
}

func (e *entry) Path() string { return e.path }

func (e *entry) Name() string {
	if e.path == filesystem.Separator {
		return ""
	}
	return path.Base(e.path)
}

func (e *entry) ETag() string { return e.etag }

func (e *entry) Permissions() domain.Permissions { return permissions(e.info) }

func (e *entry) Storage() filesystem.StorageID { return e.storage }

type fileNode struct {
	entry
}

func (n *fileNode) Type() domain.NodeType { return domain.NodeTypeFile }

func (n *fileNode) Size() int64 { return n.info.Size() }

type folderNode struct {
	entry
}

func (n *folderNode) Type() domain.NodeType { return domain.NodeTypeFolder }

// Children reads the directory. An entry that cannot be inspected fails
// the whole listing.
func (n *folderNode) Children(ctx context.Context) ([]filesystem.Node, error) {
	entries, err := os.ReadDir(n.host)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", n.path, mapError(err))
	}

	children := make([]filesystem.Node, 0, len(entries))
	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Join(n.path, de.Name()), mapError(err))
		}

		child, err := n.fs.newNode(ctx, path.Join(n.path, de.Name()), filepath.Join(n.host, de.Name()), info)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func (n *folderNode) Get(ctx context.Context, relPath string) (filesystem.Node, error) {
	if err := filesystem.ValidateRelPath(relPath); err != nil {
		return nil, err
	}
	return n.fs.stat(ctx, filesystem.Join(n.path, relPath))
}

func (n *folderNode) Parent(ctx context.Context) (filesystem.Folder, error) {
	parentPath, ok := filesystem.ParentPath(n.path)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no parent", domain.ErrNotFound, n.path)
	}
	parent, err := n.fs.stat(ctx, parentPath)
	if err != nil {
		return nil, err
	}
	folder, ok := parent.(filesystem.Folder)
	if !ok {
		return nil, fmt.Errorf("%w: parent %s is not a folder", domain.ErrInvalidArgument, parentPath)
	}
	return folder, nil
}

func (n *folderNode) RelativePath(absPath string) (string, error) {
	return filesystem.RelativePath(n.path, absPath)
}
