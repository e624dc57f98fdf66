package domain

import "fmt"

// NodeType discriminates files from folders
type NodeType int

const (
	NodeTypeFile NodeType = iota
	NodeTypeFolder
)

// String returns the name used in exported records
func (t NodeType) String() string {
	switch t {
	case NodeTypeFile:
		return "file"
	case NodeTypeFolder:
		return "folder"
	default:
		return "unknown"
	}
}

// ParseNodeType is the inverse of NodeType.String
func ParseNodeType(s string) (NodeType, error) {
	switch s {
	case "file":
		return NodeTypeFile, nil
	case "folder":
		return NodeTypeFolder, nil
	default:
		return 0, fmt.Errorf("%w: node type %q", ErrInvalidArgument, s)
	}
}

// Permissions is the ownCloud permission bitmask of a node
type Permissions int

const (
	PermissionRead   Permissions = 1
	PermissionUpdate Permissions = 2
	PermissionCreate Permissions = 4
	PermissionDelete Permissions = 8
	PermissionShare  Permissions = 16
	PermissionAll    Permissions = 31
)

// Has reports whether every bit of p is set
func (p Permissions) Has(bits Permissions) bool {
	return p&bits == bits
}

// File is the exported metadata record for a single node
type File struct {
	// Path is relative to the base folder of the export ("" for the base itself)
	Path string `json:"path" yaml:"path"`

	// ETag changes whenever the node's content or metadata changes
	ETag string `json:"etag" yaml:"etag"`

	// Permissions is the ownCloud permission bitmask
	Permissions Permissions `json:"permissions" yaml:"permissions"`

	// Type is "file" or "folder"
	Type string `json:"type" yaml:"type"`
}

// IsDir returns true if the record describes a folder
func (f File) IsDir() bool {
	return f.Type == NodeTypeFolder.String()
}

// IsFile returns true if the record describes a regular file
func (f File) IsFile() bool {
	return f.Type == NodeTypeFile.String()
}
