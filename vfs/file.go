package vfs

import (
	"sync"
	"sync/atomic"

	"github.com/boljen/go-bitmap"
)

// OpenFile represents a single opened handle: a dentry/inode pair, an
// operation table, the mode it was opened with, and its own position.
type OpenFile struct {
	Dentry   *Dentry
	Inode    *Inode
	FileOps  FileOperations
	Flags    OpenFlags
	Mode     Mode
	Position int64
	OwnerPID int

	// Private is filesystem-specific open-file state; fat and ramfs leave it nil.
	Private any

	refCount int32
}

func (f *OpenFile) Get() *OpenFile {
	atomic.AddInt32(&f.refCount, 1)
	return f
}

func (f *OpenFile) Put() bool {
	return atomic.AddInt32(&f.refCount, -1) == 0
}

// FileTable is the process-wide table mapping small non-negative integers to
// open files, with a parallel used bitmap -- this spec's single global
// descriptor table.
type FileTable struct {
	mu    sync.Mutex
	used  bitmap.Bitmap
	slots []*OpenFile
	size  int
}

func NewFileTable(size int) *FileTable {
	return &FileTable{
		used:  bitmap.New(size),
		slots: make([]*OpenFile, size),
		size:  size,
	}
}

// Alloc scans the bitmap for the first free slot, marks it used, stores
// `file` there, and returns its index. It fails with ErrNoMemory if the
// table is exhausted.
func (t *FileTable) Alloc(file *OpenFile) (int, *Errno) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := 0; i < t.size; i++ {
		if !t.used.Get(i) {
			t.used.Set(i, true)
			t.slots[i] = file
			return i, nil
		}
	}
	return -1, NewErrno(ErrNoMemory)
}

// Free clears both the bitmap bit and the slot pointer for fd.
func (t *FileTable) Free(fd int) *Errno {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd < 0 || fd >= t.size || !t.used.Get(fd) {
		return NewErrno(ErrBadFileDescriptor)
	}
	t.used.Set(fd, false)
	t.slots[fd] = nil
	return nil
}

// Get returns the slot pointer only if the bitmap bit is set.
func (t *FileTable) Get(fd int) (*OpenFile, *Errno) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd < 0 || fd >= t.size || !t.used.Get(fd) {
		return nil, NewErrno(ErrBadFileDescriptor)
	}
	return t.slots[fd], nil
}

// Count returns the number of currently-used slots, used by tests asserting
// that open/close pairs return the live FD count to its starting value.
func (t *FileTable) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for i := 0; i < t.size; i++ {
		if t.used.Get(i) {
			n++
		}
	}
	return n
}
