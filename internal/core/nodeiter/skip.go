package nodeiter

import "github.com/Ning0612/dataexporter/internal/filesystem"

// SkipCondition decides whether a node is left out of a traversal.
// A skipped folder is not descended into.
type SkipCondition interface {
	Matches(node filesystem.Node) bool
}

// SkipConditionFunc adapts a plain function to SkipCondition
type SkipConditionFunc func(node filesystem.Node) bool

// Matches implements SkipCondition
func (f SkipConditionFunc) Matches(node filesystem.Node) bool {
	return f(node)
}

// DifferentStorage skips every node that does not live on a fixed storage.
// It keeps a walk on the storage it started in, pruning mounted external
// storages.
type DifferentStorage struct {
	storage filesystem.StorageID
}

// NewDifferentStorage creates a condition that keeps only nodes on storage
func NewDifferentStorage(storage filesystem.StorageID) *DifferentStorage {
	return &DifferentStorage{storage: storage}
}

// Matches implements SkipCondition
func (c *DifferentStorage) Matches(node filesystem.Node) bool {
	return node.Storage() != c.storage
}

// Storage returns the storage nodes must live on to be kept
func (c *DifferentStorage) Storage() filesystem.StorageID {
	return c.storage
}

// anyMatches reports whether at least one condition matches node
func anyMatches(conditions []SkipCondition, node filesystem.Node) bool {
	for _, c := range conditions {
		if c.Matches(node) {
			return true
		}
	}
	return false
}
