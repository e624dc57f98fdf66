// Package memfs is an in-memory filesystem tree used as a fake backend.
package memfs

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/Ning0612/dataexporter/internal/domain"
	"github.com/Ning0612/dataexporter/internal/filesystem"
)

// entry is the stored state of a node
type entry struct {
	path        string
	typ         domain.NodeType
	etag        string
	permissions domain.Permissions
	storage     filesystem.StorageID
	size        int64
	children    map[string]*entry
	childErr    error
}

// FS is an in-memory tree. It is safe for concurrent setup, but walking it
// while it is modified gives undefined results, like any other backend.
type FS struct {
	mu    sync.RWMutex
	root  *entry
	users map[string]string // user ID -> home path
	etags int
}

// New creates an empty tree whose root "/" lives on storage "root"
func New() *FS {
	return &FS{
		root: &entry{
			path:        filesystem.Separator,
			typ:         domain.NodeTypeFolder,
			etag:        "root",
			permissions: domain.PermissionAll,
			storage:     "root",
			children:    make(map[string]*entry),
		},
		users: make(map[string]string),
	}
}

// AddUser registers a user whose home folder is home (e.g. "/u1/files").
// The folder must already exist.
func (fs *FS) AddUser(userID, home string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	e, err := fs.lookupLocked(home)
	if err != nil {
		return err
	}
	if e.typ != domain.NodeTypeFolder {
		return fmt.Errorf("%w: home %s is not a folder", domain.ErrInvalidArgument, home)
	}
	fs.users[userID] = home
	return nil
}

// MkdirAll creates p and any missing parents. New folders are placed on
// storage; existing ones are left untouched.
func (fs *FS) MkdirAll(p string, storage filesystem.StorageID) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_, err := fs.mkdirAllLocked(p, storage)
	return err
}

// WriteFile creates or replaces the file at p on storage.
// The parent folder must exist.
func (fs *FS) WriteFile(p string, size int64, storage filesystem.StorageID) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parentPath, _ := filesystem.ParentPath(p)
	parent, err := fs.lookupLocked(parentPath)
	if err != nil {
		return err
	}
	if parent.typ != domain.NodeTypeFolder {
		return fmt.Errorf("%w: %s is not a folder", domain.ErrInvalidArgument, parentPath)
	}

	name := path.Base(p)
	if existing, ok := parent.children[name]; ok && existing.typ == domain.NodeTypeFolder {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, p)
	}
	parent.children[name] = &entry{
		path:        p,
		typ:         domain.NodeTypeFile,
		etag:        fs.nextETag(),
		permissions: domain.PermissionRead | domain.PermissionUpdate | domain.PermissionDelete | domain.PermissionShare,
		storage:     storage,
		size:        size,
	}
	return nil
}

// SetETag overrides the ETag of an existing node
func (fs *FS) SetETag(p, etag string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	e, err := fs.lookupLocked(p)
	if err != nil {
		return err
	}
	e.etag = etag
	return nil
}

// SetPermissions overrides the permission bitmask of an existing node
func (fs *FS) SetPermissions(p string, perms domain.Permissions) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	e, err := fs.lookupLocked(p)
	if err != nil {
		return err
	}
	e.permissions = perms
	return nil
}

// FailChildren makes listing the folder at p return err
func (fs *FS) FailChildren(p string, err error) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	e, lookupErr := fs.lookupLocked(p)
	if lookupErr != nil {
		return lookupErr
	}
	e.childErr = err
	return nil
}

// Remove deletes the node at p and its subtree
func (fs *FS) Remove(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parentPath, ok := filesystem.ParentPath(p)
	if !ok {
		return fmt.Errorf("%w: cannot remove root", domain.ErrInvalidArgument)
	}
	parent, err := fs.lookupLocked(parentPath)
	if err != nil {
		return err
	}
	name := path.Base(p)
	if _, ok := parent.children[name]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, p)
	}
	delete(parent.children, name)
	return nil
}

// UserFolder implements filesystem.RootFolder
func (fs *FS) UserFolder(ctx context.Context, userID string) (filesystem.Folder, error) {
	fs.mu.RLock()
	home, ok := fs.users[userID]
	fs.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}

	n, err := fs.node(home)
	if err != nil {
		return nil, err
	}
	folder, ok := n.(*folderNode)
	if !ok {
		return nil, fmt.Errorf("%w: home of %s is not a folder", domain.ErrInvalidArgument, userID)
	}
	return folder, nil
}

// Stat returns the node at an absolute path
func (fs *FS) Stat(p string) (filesystem.Node, error) {
	return fs.node(p)
}

func (fs *FS) node(p string) (filesystem.Node, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	e, err := fs.lookupLocked(p)
	if err != nil {
		return nil, err
	}
	return fs.wrap(e), nil
}

func (fs *FS) wrap(e *entry) filesystem.Node {
	if e.typ == domain.NodeTypeFolder {
		return &folderNode{fileNode: fileNode{fs: fs, e: e}}
	}
	return &fileNode{fs: fs, e: e}
}

func (fs *FS) lookupLocked(p string) (*entry, error) {
	if !strings.HasPrefix(p, filesystem.Separator) {
		return nil, fmt.Errorf("%w: %s is not absolute", domain.ErrNotFound, p)
	}

	current := fs.root
	for _, name := range strings.Split(strings.Trim(p, filesystem.Separator), filesystem.Separator) {
		if name == "" {
			continue
		}
		child, ok := current.children[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, p)
		}
		current = child
	}
	return current, nil
}

func (fs *FS) mkdirAllLocked(p string, storage filesystem.StorageID) (*entry, error) {
	current := fs.root
	currentPath := ""
	for _, name := range strings.Split(strings.Trim(p, filesystem.Separator), filesystem.Separator) {
		if name == "" {
			continue
		}
		currentPath += filesystem.Separator + name

		child, ok := current.children[name]
		if !ok {
			child = &entry{
				path:        currentPath,
				typ:         domain.NodeTypeFolder,
				etag:        fs.nextETag(),
				permissions: domain.PermissionAll,
				storage:     storage,
				children:    make(map[string]*entry),
			}
			current.children[name] = child
		} else if child.typ != domain.NodeTypeFolder {
			return nil, fmt.Errorf("%w: %s is a file", domain.ErrAlreadyExists, currentPath)
		}
		current = child
	}
	return current, nil
}

func (fs *FS) nextETag() string {
	fs.etags++
	return fmt.Sprintf("etag-%04d", fs.etags)
}
