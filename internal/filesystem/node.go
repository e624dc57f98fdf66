// Package filesystem defines the read-only node surface the exporter walks.
//
// Backends (memfs, localfs, cachefs) hand out transient Node values; callers
// must not keep them beyond the traversal that produced them.
package filesystem

import (
	"context"

	"github.com/Ning0612/dataexporter/internal/domain"
)

// StorageID identifies the storage (volume) a node lives on.
// Nodes of a folder may come from another storage when it is mounted there.
type StorageID string

// Node is a single entry of a storage tree
type Node interface {
	// Path is the absolute, slash separated path, e.g. "/u1/files/a.txt"
	Path() string

	// Name is the last element of Path
	Name() string

	Type() domain.NodeType
	ETag() string
	Permissions() domain.Permissions
	Storage() StorageID
}

// File is a Node holding content
type File interface {
	Node
	Size() int64
}

// Folder is a Node holding children
type Folder interface {
	Node

	// Children lists the direct children. Order is backend specific.
	Children(ctx context.Context) ([]Node, error)

	// Get resolves a path relative to this folder.
	// Returns domain.ErrNotFound if nothing exists there.
	Get(ctx context.Context, relPath string) (Node, error)

	// Parent returns the enclosing folder.
	// Returns domain.ErrNotFound for the top of the tree.
	Parent(ctx context.Context) (Folder, error)

	// RelativePath strips this folder's path from absPath.
	// Returns domain.ErrInvalidPath if absPath is not inside the folder.
	RelativePath(absPath string) (string, error)
}

// RootFolder resolves users to their home folders
type RootFolder interface {
	// UserFolder returns the "files" folder of a user.
	// Returns domain.ErrUserNotFound for unknown users.
	UserFolder(ctx context.Context, userID string) (Folder, error)
}

// IsFolder reports whether n can be descended into
func IsFolder(n Node) bool {
	if n == nil {
		return false
	}
	_, ok := n.(Folder)
	return ok && n.Type() == domain.NodeTypeFolder
}
