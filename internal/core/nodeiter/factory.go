package nodeiter

import (
	"context"
	"fmt"

	"github.com/Ning0612/dataexporter/internal/domain"
	"github.com/Ning0612/dataexporter/internal/filesystem"
	"github.com/Ning0612/dataexporter/internal/logger"
)

// TrashBinPath is the trash bin location relative to a user's home parent
const TrashBinPath = "files_trashbin/files"

// Factory builds walkers over a user's folders. Every walker it returns is
// confined to the storage of the folder it starts from.
type Factory struct {
	root   filesystem.RootFolder
	logger logger.Logger
}

// NewFactory creates a factory resolving users through root
func NewFactory(root filesystem.RootFolder) *Factory {
	return &Factory{root: root}
}

// SetLogger replaces the factory's logger
func (f *Factory) SetLogger(l logger.Logger) {
	f.logger = l
}

func (f *Factory) log() logger.Logger {
	if f.logger != nil {
		return f.logger
	}
	return logger.With("component", "nodeiter")
}

// UserFolderIterator returns a walker over the user's home folder and the
// folder itself, which callers need to compute relative paths.
//
// Returns domain.ErrUserNotFound for unknown users.
func (f *Factory) UserFolderIterator(ctx context.Context, userID string, mode Mode) (*Walker, filesystem.Folder, error) {
	userFolder, err := f.root.UserFolder(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return f.build(userFolder, mode)
}

// TrashBinIterator returns a walker over the user's trash bin and the trash
// bin folder.
//
// Returns domain.ErrNotFound if the trash bin does not exist and
// domain.ErrInvalidArgument if it is not a folder.
func (f *Factory) TrashBinIterator(ctx context.Context, userID string, mode Mode) (*Walker, filesystem.Folder, error) {
	userFolder, err := f.root.UserFolder(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	home, err := userFolder.Parent(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving home of %s: %w", userID, err)
	}

	node, err := home.Get(ctx, TrashBinPath)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving trash bin of %s: %w", userID, err)
	}

	trashBin, ok := node.(filesystem.Folder)
	if !ok || !filesystem.IsFolder(node) {
		return nil, nil, fmt.Errorf("%w: trash bin %s is not a folder", domain.ErrInvalidArgument, node.Path())
	}
	return f.build(trashBin, mode)
}

// build attaches the storage boundary of base and wraps it in a walker
func (f *Factory) build(base filesystem.Folder, mode Mode) (*Walker, filesystem.Folder, error) {
	it, err := NewNodeIterator(base, NewDifferentStorage(base.Storage()))
	if err != nil {
		return nil, nil, err
	}

	f.log().Debug("walker ready",
		"base", base.Path(),
		"storage", string(base.Storage()),
		"mode", mode.String())

	return NewWalker(it, mode), base, nil
}
