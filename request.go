package namefs

import "github.com/google/uuid"

// NodeRequest describes one node to create in a tree. It is produced by the
// request loaders (files, CLI) and consumed by the tree's Apply.
type NodeRequest struct {
	Path   string          // Path from the root, components joined by the path separator
	Type   NodeRequestType // Kind of node to create
	UUID   uuid.UUID       // Identity to assign to the new node
	Target string          // Symlinks only: path of the node the link points at
	Perms  uint32          // i.e. 0755
	Source []byte          // Files only: raw JSON source definition, nil for zero bytes
}

// NodeRequestType valid types are FileNodeType "file", DirNodeType "dir" and
// SymlinkNodeType "symlink"
type NodeRequestType string

const (
	FileNodeType    NodeRequestType = "file"
	DirNodeType     NodeRequestType = "dir"
	SymlinkNodeType NodeRequestType = "symlink"
)

// Valid reports whether t is one of the known node types
func (t NodeRequestType) Valid() bool {
	switch t {
	case FileNodeType, DirNodeType, SymlinkNodeType:
		return true
	}
	return false
}
