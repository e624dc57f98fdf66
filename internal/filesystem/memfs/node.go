package memfs

import (
	"context"
	"fmt"
	"path"

	"github.com/Ning0612/dataexporter/internal/domain"
	"github.com/Ning0612/dataexporter/internal/filesystem"
)

type fileNode struct {
	fs *FS
	e  *entry
}

func (n *fileNode) Path() string { return n.e.path }

func (n *fileNode) Name() string {
	if n.e.path == filesystem.Separator {
		return ""
	}
	return path.Base(n.e.path)
}

func (n *fileNode) Type() domain.NodeType { return n.e.typ }

func (n *fileNode) ETag() string {
	n.fs.mu.RLock()
	defer n.fs.mu.RUnlock()
	return n.e.etag
}

func (n *fileNode) Permissions() domain.Permissions {
	n.fs.mu.RLock()
	defer n.fs.mu.RUnlock()
	return n.e.permissions
}

func (n *fileNode) Storage() filesystem.StorageID { return n.e.storage }

func (n *fileNode) Size() int64 { return n.e.size }

type folderNode struct {
	fileNode
}

func (n *folderNode) Children(ctx context.Context) ([]filesystem.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.fs.mu.RLock()
	defer n.fs.mu.RUnlock()

	if n.e.childErr != nil {
		return nil, n.e.childErr
	}

	children := make([]filesystem.Node, 0, len(n.e.children))
	for _, child := range n.e.children {
		children = append(children, n.fs.wrap(child))
	}
	return children, nil
}

func (n *folderNode) Get(ctx context.Context, relPath string) (filesystem.Node, error) {
	if err := filesystem.ValidateRelPath(relPath); err != nil {
		return nil, err
	}
	return n.fs.node(filesystem.Join(n.e.path, relPath))
}

func (n *folderNode) Parent(ctx context.Context) (filesystem.Folder, error) {
	parentPath, ok := filesystem.ParentPath(n.e.path)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no parent", domain.ErrNotFound, n.e.path)
	}
	parent, err := n.fs.node(parentPath)
	if err != nil {
		return nil, err
	}
	return parent.(*folderNode), nil
}

func (n *folderNode) RelativePath(absPath string) (string, error) {
	return filesystem.RelativePath(n.e.path, absPath)
}
