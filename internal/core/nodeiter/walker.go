package nodeiter

import (
	"context"
	"iter"

	"github.com/Ning0612/dataexporter/internal/filesystem"
)

// Mode selects where a folder appears relative to its children
type Mode int

const (
	// SelfFirst yields a folder before its children
	SelfFirst Mode = iota
	// ChildFirst yields a folder after all of its children
	ChildFirst
)

// String returns the name of the mode
func (m Mode) String() string {
	switch m {
	case SelfFirst:
		return "self_first"
	case ChildFirst:
		return "child_first"
	default:
		return "unknown"
	}
}

// frame is one folder whose children are being visited
type frame struct {
	folder   filesystem.Folder
	children []filesystem.Node
	next     int
	expanded bool
}

// Walker is a forward-only depth-first walk over a NodeIterator's tree.
// It is not restartable: build a new one per walk. Stopping early needs no
// cleanup.
//
//	for w.Next(ctx) {
//		key, node := w.Key(), w.Node()
//	}
//	if err := w.Err(); err != nil { ... }
type Walker struct {
	it      *NodeIterator
	mode    Mode
	stack   []*frame
	current filesystem.Node
	started bool
	done    bool
	err     error
}

// NewWalker creates a walker over it in the given order
func NewWalker(it *NodeIterator, mode Mode) *Walker {
	return &Walker{it: it, mode: mode}
}

// Iterator returns the NodeIterator the walker expands folders with
func (w *Walker) Iterator() *NodeIterator {
	return w.it
}

// Mode returns the traversal order
func (w *Walker) Mode() Mode {
	return w.mode
}

// Next advances to the next node. It returns false when the walk is over or
// failed; Err tells the two apart.
func (w *Walker) Next(ctx context.Context) bool {
	if w.done {
		return false
	}
	if !w.started {
		w.started = true
		w.stack = append(w.stack, &frame{folder: w.it.Root()})
		if w.mode == SelfFirst {
			w.current = w.it.Root()
			return true
		}
	}

	var ok bool
	if w.mode == ChildFirst {
		ok = w.nextChildFirst(ctx)
	} else {
		ok = w.nextSelfFirst(ctx)
	}
	if !ok {
		w.done = true
		w.current = nil
		w.stack = nil
	}
	return ok
}

// nextSelfFirst yields folders as soon as they are reached and pushes a
// frame so their children follow
func (w *Walker) nextSelfFirst(ctx context.Context) bool {
	for len(w.stack) > 0 {
		top := w.stack[len(w.stack)-1]
		if !w.expand(ctx, top) {
			return false
		}
		if top.next >= len(top.children) {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}

		node := top.children[top.next]
		top.next++
		if folder, ok := node.(filesystem.Folder); ok && filesystem.IsFolder(node) {
			w.stack = append(w.stack, &frame{folder: folder})
		}
		w.current = node
		return true
	}
	return false
}

// nextChildFirst descends as deep as possible and yields a folder once its
// frame is exhausted
func (w *Walker) nextChildFirst(ctx context.Context) bool {
	for len(w.stack) > 0 {
		top := w.stack[len(w.stack)-1]
		if !w.expand(ctx, top) {
			return false
		}
		if top.next >= len(top.children) {
			w.stack = w.stack[:len(w.stack)-1]
			w.current = top.folder
			return true
		}

		node := top.children[top.next]
		top.next++
		if folder, ok := node.(filesystem.Folder); ok && filesystem.IsFolder(node) {
			w.stack = append(w.stack, &frame{folder: folder})
			continue
		}
		w.current = node
		return true
	}
	return false
}

// expand lists the children of f once. On failure the error is kept and
// the walk ends.
func (w *Walker) expand(ctx context.Context, f *frame) bool {
	if f.expanded {
		return true
	}
	children, err := w.it.Children(ctx, f.folder)
	if err != nil {
		w.err = err
		return false
	}
	f.children = children
	f.expanded = true
	return true
}

// Node returns the node Next stopped at
func (w *Walker) Node() filesystem.Node {
	return w.current
}

// Key returns the full path of the current node
func (w *Walker) Key() string {
	if w.current == nil {
		return ""
	}
	return w.current.Path()
}

// Err returns the error that ended the walk, if any
func (w *Walker) Err() error {
	return w.err
}

// All adapts the walker to a range-over-func sequence keyed by full path.
// Check Err after the loop.
func (w *Walker) All(ctx context.Context) iter.Seq2[string, filesystem.Node] {
	return func(yield func(string, filesystem.Node) bool) {
		for w.Next(ctx) {
			if !yield(w.Key(), w.Node()) {
				return
			}
		}
	}
}
