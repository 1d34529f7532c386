package filesystem

import "syscall"

// SysAttrType is the file type part of an inode's mode
type SysAttrType uint32

const (
	DirAttr     SysAttrType = syscall.S_IFDIR
	FileAttr    SysAttrType = syscall.S_IFREG
	SymlinkAttr SysAttrType = syscall.S_IFLNK
)

// Default permission bits when a request does not carry any
const (
	DefaultDirPerms  = 0o755
	DefaultFilePerms = 0o644
	DefaultLinkPerms = 0o777
)

// maxReadPrealloc caps the buffer File.Read allocates up front
const maxReadPrealloc = 4096
