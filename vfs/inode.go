package vfs

import (
	"sync"
	"sync/atomic"
)

// InodeOperations is the capability group a filesystem attaches to every
// directory inode it hands back to the VFS. It is the "dynamic dispatch
// site" named in the design notes for lookup/create/mkdir/rmdir.
type InodeOperations interface {
	// Lookup resolves `name` as a single path component inside `dir`. A
	// miss must be reported as ErrNotFound, never as nil/nil.
	Lookup(dir *Inode, name string) (*Inode, *Errno)

	// Create makes a new regular file named `name` inside `dir` and returns
	// its inode. Never called if `name` already resolves.
	Create(dir *Inode, name string, mode Mode) (*Inode, *Errno)

	// Mkdir makes a new subdirectory named `name` inside `dir`.
	Mkdir(dir *Inode, name string, mode Mode) (*Inode, *Errno)

	// Unlink removes the non-directory entry named `name` from `dir`.
	Unlink(dir *Inode, name string) *Errno

	// Rmdir removes the empty subdirectory named `name` from `dir`.
	Rmdir(dir *Inode, name string) *Errno

	// Readdir returns every entry in `dir`, including "." and "..".
	Readdir(dir *Inode) ([]DirEntry, *Errno)

	// SetAttr applies attribute changes (currently: permission bits only)
	// to `inode`. Filesystems that can't represent a requested bit silently
	// ignore it rather than failing, per spec's non-enforcement stance.
	SetAttr(inode *Inode, mode Mode) *Errno
}

// FileOperations is the capability group attached to an open file. It is
// the dynamic dispatch site for read/write/open/release/seek.
type FileOperations interface {
	// Open is invoked once when a file is opened through this inode, after
	// the VFS has allocated the OpenFile record. It may only be called on a
	// regular (non-directory) inode.
	Open(file *OpenFile) *Errno

	// Read fills buf starting at file.Position and returns the number of
	// bytes actually read, which may be less than len(buf) at EOF.
	Read(file *OpenFile, buf []byte) (int, *Errno)

	// Write stores buf starting at file.Position and returns the number of
	// bytes actually written.
	Write(file *OpenFile, buf []byte) (int, *Errno)

	// Seek repositions file.Position per whence and returns the new
	// position.
	Seek(file *OpenFile, offset int64, whence Whence) (int64, *Errno)

	// Release frees any filesystem-private state attached to the file. It
	// is called exactly once, when the last descriptor referencing the
	// OpenFile is closed.
	Release(file *OpenFile) *Errno
}

// Inode represents one filesystem object: a file or a directory. Inodes are
// shared between every dentry that points to them and every OpenFile that
// references them; RefCount tracks both.
type Inode struct {
	mu sync.Mutex

	Number uint64
	Type   FileType
	Mode   Mode
	UID    uint32
	GID    uint32

	NLink  uint32
	Size   int64
	Blocks int64

	AccessedAt int64 // unix nanoseconds; avoids importing time into hot paths
	ModifiedAt int64
	ChangedAt  int64

	SuperBlock *SuperBlock
	InodeOps   InodeOperations
	FileOps    FileOperations

	// Private is filesystem-specific state, e.g. the fat package's *inodeInfo.
	Private any

	refCount int32
}

func NewInode(sb *SuperBlock, number uint64, typ FileType) *Inode {
	return &Inode{
		Number:     number,
		Type:       typ,
		NLink:      1,
		SuperBlock: sb,
		refCount:   1,
	}
}

func (ino *Inode) Get() *Inode {
	atomic.AddInt32(&ino.refCount, 1)
	return ino
}

// Put drops a reference. It returns true if this was the last reference.
func (ino *Inode) Put() bool {
	return atomic.AddInt32(&ino.refCount, -1) == 0
}

func (ino *Inode) RefCount() int32 {
	return atomic.LoadInt32(&ino.refCount)
}

func (ino *Inode) IsDir() bool {
	return ino.Type == FileTypeDirectory
}

func (ino *Inode) Stat() Stat {
	ino.mu.Lock()
	defer ino.mu.Unlock()

	return Stat{
		InodeNumber: ino.Number,
		Type:        ino.Type,
		Mode:        ino.Mode,
		UID:         ino.UID,
		GID:         ino.GID,
		NLink:       ino.NLink,
		Size:        ino.Size,
		Blocks:      ino.Blocks,
	}
}

// SetSize updates the authoritative size field under the inode's own lock,
// per the concurrency rule that mutable inode fields are updated under the
// owning superblock's region (here realized per-inode, which is sufficient
// since distinct inodes never share mutable state).
func (ino *Inode) SetSize(size int64) {
	ino.mu.Lock()
	ino.Size = size
	ino.mu.Unlock()
}
