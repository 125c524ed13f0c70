// Package ramfs is a minimal in-memory filesystem. Its only purpose is to
// prove that vfs.VFS dispatches polymorphically: any filesystem that
// implements the VFS operation tables can be mounted, not just fat.
package ramfs

import (
	"sync"
	"time"

	"github.com/go-vfskit/vfskit/vfs"
)

// FileSystemType is the registrable descriptor for ramfs.
var FileSystemType = &vfs.FileSystemType{
	Name:  "ramfs",
	Mount: mount,
	Kill:  kill,
}

type node struct {
	mu       sync.Mutex
	typ      vfs.FileType
	mode     vfs.Mode
	data     []byte
	children map[string]*node
	inode    *vfs.Inode
}

type fsState struct {
	mu      sync.Mutex
	nextIno uint64
	root    *node
}

func mount(flags vfs.MountFlags, data any) (*vfs.SuperBlock, *vfs.Errno) {
	state := &fsState{nextIno: 1}
	sb := &vfs.SuperBlock{
		BlockSize: 4096,
		Magic:     0x72616d66, // "ramf"
		Flags:     flags,
	}

	rootNode := &node{
		typ:      vfs.FileTypeDirectory,
		mode:     vfs.ModePermMask,
		children: make(map[string]*node),
	}
	rootInode := newInode(sb, state, rootNode)
	rootNode.inode = rootInode

	sb.Root = vfs.NewRootDentry("/", rootInode)
	sb.Private = state
	return sb, nil
}

func kill(sb *vfs.SuperBlock) *vfs.Errno {
	return nil
}

func newInode(sb *vfs.SuperBlock, state *fsState, n *node) *vfs.Inode {
	state.mu.Lock()
	number := state.nextIno
	state.nextIno++
	state.mu.Unlock()

	ino := vfs.NewInode(sb, number, n.typ)
	ino.Mode = n.mode
	ino.InodeOps = opsInstance
	ino.FileOps = opsInstance
	ino.Private = n
	now := time.Now().UnixNano()
	ino.AccessedAt, ino.ModifiedAt, ino.ChangedAt = now, now, now
	if n.typ == vfs.FileTypeRegular {
		ino.SetSize(int64(len(n.data)))
	}
	return ino
}

// operations implements both vfs.InodeOperations and vfs.FileOperations; a
// single value can carry both tables since ramfs needs no other state.
type operations struct{}

var opsInstance = &operations{}

func nodeOf(ino *vfs.Inode) *node {
	return ino.Private.(*node)
}

func (*operations) Lookup(dir *vfs.Inode, name string) (*vfs.Inode, *vfs.Errno) {
	n := nodeOf(dir)
	n.mu.Lock()
	defer n.mu.Unlock()

	child, ok := n.children[name]
	if !ok {
		return nil, vfs.NewErrno(vfs.ErrNotFound)
	}
	return child.inode, nil
}

func (*operations) Create(dir *vfs.Inode, name string, mode vfs.Mode) (*vfs.Inode, *vfs.Errno) {
	n := nodeOf(dir)
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.children[name]; exists {
		return nil, vfs.NewErrno(vfs.ErrExists)
	}

	child := &node{typ: vfs.FileTypeRegular, mode: mode}
	childInode := newInode(dir.SuperBlock, dir.SuperBlock.Private.(*fsState), child)
	child.inode = childInode
	n.children[name] = child
	return childInode, nil
}

func (*operations) Mkdir(dir *vfs.Inode, name string, mode vfs.Mode) (*vfs.Inode, *vfs.Errno) {
	n := nodeOf(dir)
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.children[name]; exists {
		return nil, vfs.NewErrno(vfs.ErrExists)
	}

	child := &node{typ: vfs.FileTypeDirectory, mode: mode, children: make(map[string]*node)}
	childInode := newInode(dir.SuperBlock, dir.SuperBlock.Private.(*fsState), child)
	child.inode = childInode
	n.children[name] = child
	return childInode, nil
}

func (*operations) Unlink(dir *vfs.Inode, name string) *vfs.Errno {
	n := nodeOf(dir)
	n.mu.Lock()
	defer n.mu.Unlock()

	child, exists := n.children[name]
	if !exists {
		return vfs.NewErrno(vfs.ErrNotFound)
	}
	if child.typ == vfs.FileTypeDirectory {
		return vfs.NewErrno(vfs.ErrIsADirectory)
	}
	delete(n.children, name)
	return nil
}

func (*operations) Rmdir(dir *vfs.Inode, name string) *vfs.Errno {
	n := nodeOf(dir)
	n.mu.Lock()
	defer n.mu.Unlock()

	child, exists := n.children[name]
	if !exists {
		return vfs.NewErrno(vfs.ErrNotFound)
	}
	if child.typ != vfs.FileTypeDirectory {
		return vfs.NewErrno(vfs.ErrNotADirectory)
	}
	if len(child.children) != 0 {
		return vfs.NewErrno(vfs.ErrNotEmpty)
	}
	delete(n.children, name)
	return nil
}

func (*operations) Readdir(dir *vfs.Inode) ([]vfs.DirEntry, *vfs.Errno) {
	n := nodeOf(dir)
	n.mu.Lock()
	defer n.mu.Unlock()

	entries := make([]vfs.DirEntry, 0, len(n.children)+2)
	entries = append(entries,
		vfs.DirEntry{Name: ".", InodeNumber: dir.Number, Type: vfs.FileTypeDirectory},
		vfs.DirEntry{Name: "..", InodeNumber: dir.Number, Type: vfs.FileTypeDirectory},
	)
	for name, child := range n.children {
		entries = append(entries, vfs.DirEntry{
			Name:        name,
			InodeNumber: child.inode.Number,
			Type:        child.typ,
		})
	}
	return entries, nil
}

func (*operations) SetAttr(ino *vfs.Inode, mode vfs.Mode) *vfs.Errno {
	n := nodeOf(ino)
	n.mu.Lock()
	n.mode = mode
	n.mu.Unlock()
	ino.Mode = mode
	return nil
}

func (*operations) Open(file *vfs.OpenFile) *vfs.Errno {
	return nil
}

func (*operations) Read(file *vfs.OpenFile, buf []byte) (int, *vfs.Errno) {
	n := nodeOf(file.Inode)
	n.mu.Lock()
	defer n.mu.Unlock()

	if file.Position >= int64(len(n.data)) {
		return 0, nil
	}
	count := copy(buf, n.data[file.Position:])
	return count, nil
}

func (*operations) Write(file *vfs.OpenFile, buf []byte) (int, *vfs.Errno) {
	n := nodeOf(file.Inode)
	n.mu.Lock()
	defer n.mu.Unlock()

	end := file.Position + int64(len(buf))
	if end > int64(len(n.data)) {
		grown := make([]byte, end)
		copy(grown, n.data)
		n.data = grown
	}
	copy(n.data[file.Position:end], buf)
	file.Inode.SetSize(int64(len(n.data)))
	return len(buf), nil
}

func (*operations) Seek(file *vfs.OpenFile, offset int64, whence vfs.Whence) (int64, *vfs.Errno) {
	n := nodeOf(file.Inode)
	var base int64
	switch whence {
	case vfs.SeekSet:
		base = 0
	case vfs.SeekCur:
		base = file.Position
	case vfs.SeekEnd:
		n.mu.Lock()
		base = int64(len(n.data))
		n.mu.Unlock()
	default:
		return 0, vfs.NewErrno(vfs.ErrInvalidArgument)
	}

	newPos := base + offset
	if newPos < 0 {
		return 0, vfs.NewErrno(vfs.ErrInvalidArgument)
	}
	return newPos, nil
}

func (*operations) Release(file *vfs.OpenFile) *vfs.Errno {
	return nil
}
