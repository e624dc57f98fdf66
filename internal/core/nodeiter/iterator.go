// Package nodeiter walks filesystem trees for export.
//
// A NodeIterator knows how to expand a folder into the children that pass
// its skip conditions; a Walker turns that into a lazy depth-first sequence
// in a chosen order; a Factory builds both for a user's home or trash bin.
package nodeiter

import (
	"context"
	"fmt"
	"sort"

	"github.com/Ning0612/dataexporter/internal/domain"
	"github.com/Ning0612/dataexporter/internal/filesystem"
)

// NodeIterator expands folders of a tree rooted at a single folder.
// Its skip conditions are fixed at construction.
type NodeIterator struct {
	root       filesystem.Folder
	conditions []SkipCondition
}

// NewNodeIterator creates an iterator over the tree below root.
// Nothing is read until a Walker asks for children.
func NewNodeIterator(root filesystem.Node, conditions ...SkipCondition) (*NodeIterator, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: no root node", domain.ErrNotFound)
	}
	folder, ok := root.(filesystem.Folder)
	if !ok || root.Type() != domain.NodeTypeFolder {
		return nil, fmt.Errorf("%w: only folders can be passed to iterator, got %s",
			domain.ErrInvalidArgument, root.Path())
	}

	for _, c := range conditions {
		if c == nil {
			return nil, fmt.Errorf("%w: nil skip condition", domain.ErrInvalidArgument)
		}
	}

	return &NodeIterator{
		root:       folder,
		conditions: append([]SkipCondition(nil), conditions...),
	}, nil
}

// WithSkipCondition returns a copy of the iterator with one more condition.
// A node is skipped if any condition matches it.
func (it *NodeIterator) WithSkipCondition(c SkipCondition) *NodeIterator {
	conditions := make([]SkipCondition, 0, len(it.conditions)+1)
	conditions = append(conditions, it.conditions...)
	if c != nil {
		conditions = append(conditions, c)
	}
	return &NodeIterator{root: it.root, conditions: conditions}
}

// Root returns the folder the iterator starts from
func (it *NodeIterator) Root() filesystem.Folder {
	return it.root
}

// Conditions returns the registered skip conditions
func (it *NodeIterator) Conditions() []SkipCondition {
	return append([]SkipCondition(nil), it.conditions...)
}

// Skip reports whether node is excluded by any skip condition
func (it *NodeIterator) Skip(node filesystem.Node) bool {
	return anyMatches(it.conditions, node)
}

// Children lists the children of folder that pass the skip conditions,
// sorted by path so repeated walks over an unchanged tree agree.
func (it *NodeIterator) Children(ctx context.Context, folder filesystem.Folder) ([]filesystem.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	children, err := folder.Children(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", folder.Path(), err)
	}

	kept := make([]filesystem.Node, 0, len(children))
	for _, child := range children {
		if it.Skip(child) {
			continue
		}
		kept = append(kept, child)
	}

	sort.Slice(kept, func(i, j int) bool {
		return kept[i].Path() < kept[j].Path()
	})
	return kept, nil
}
