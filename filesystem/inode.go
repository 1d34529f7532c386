package filesystem

import (
	"os"
	"sync"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
)

// Inode holds the fuse wire attributes of a node
type Inode struct {
	// Low-level fuse wire protocol attributes; Only access directly if
	// handling locks manually
	fuseAttr *fuse.Attr
	mu       sync.RWMutex
}

func NewInode(attr *fuse.Attr) *Inode {
	return &Inode{fuseAttr: attr}
}

// CopyAttr returns a thread-safe copy of the inode's attributes
func (n *Inode) CopyAttr() fuse.Attr {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return *n.fuseAttr
}

// touch marks a metadata change (rename, move)
func (n *Inode) touch() {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := time.Now()
	n.fuseAttr.Ctime = uint64(now.Unix())
	n.fuseAttr.Ctimensec = uint32(now.Nanosecond())
}

// newDefaultAttr returns the default attributes for a new node
func newDefaultAttr(ino uint64, typ SysAttrType, perms uint32) *fuse.Attr {
	now := time.Now()
	return &fuse.Attr{
		Ino:   ino,
		Mode:  uint32(typ) | perms,
		Nlink: 1,
		Owner: fuse.Owner{
			Uid: uint32(os.Getuid()),
			Gid: uint32(os.Getgid()),
		},
		Atime:     uint64(now.Unix()),
		Mtime:     uint64(now.Unix()),
		Ctime:     uint64(now.Unix()),
		Atimensec: uint32(now.Nanosecond()),
		Mtimensec: uint32(now.Nanosecond()),
		Ctimensec: uint32(now.Nanosecond()),
		Blksize:   4096, // preferred size for fs ops
	}
}
