package cachefs

import (
	"context"
	"fmt"
	"path"

	"github.com/Ning0612/dataexporter/internal/domain"
	"github.com/Ning0612/dataexporter/internal/filesystem"
)

type record struct {
	path        string
	etag        string
	permissions domain.Permissions
	size        int64
	storage     filesystem.StorageID
}

func (r *record) Path() string { return r.path }

func (r *record) Name() string {
	if r.path == filesystem.Separator {
		return ""
	}
	return path.Base(r.path)
}

func (r *record) ETag() string                    { return r.etag }
func (r *record) Permissions() domain.Permissions { return r.permissions }
func (r *record) Storage() filesystem.StorageID   { return r.storage }

type fileNode struct {
	record
}

func (n *fileNode) Type() domain.NodeType { return domain.NodeTypeFile }
func (n *fileNode) Size() int64           { return n.size }

type folderNode struct {
	record
	fs *FS
}

func (n *folderNode) Type() domain.NodeType { return domain.NodeTypeFolder }

func (n *folderNode) Children(ctx context.Context) ([]filesystem.Node, error) {
	return n.fs.children(ctx, n.path)
}

func (n *folderNode) Get(ctx context.Context, relPath string) (filesystem.Node, error) {
	if err := filesystem.ValidateRelPath(relPath); err != nil {
		return nil, err
	}
	return n.fs.lookup(ctx, filesystem.Join(n.path, relPath))
}

func (n *folderNode) Parent(ctx context.Context) (filesystem.Folder, error) {
	parentPath, ok := filesystem.ParentPath(n.path)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no parent", domain.ErrNotFound, n.path)
	}
	parent, err := n.fs.lookup(ctx, parentPath)
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
