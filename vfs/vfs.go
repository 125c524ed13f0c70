// Package vfs implements the virtual file system dispatcher: the
// filesystem-type registry, the mount table, the dentry/inode/file caches,
// path resolution, and the public file-handle API that concrete
// filesystems (fat, ramfs) plug into.
package vfs

import (
	"sync"
	"sync/atomic"
)

// Stats accumulates per-call counters across the lifetime of a VFS context.
type Stats struct {
	OpenCalls  int64
	ReadCalls  int64
	ReadBytes  int64
	WriteCalls int64
	WriteBytes int64
}

// VFS is the "VFS context" design note made concrete: a single value holding
// every process-wide table, constructed by New and torn down by Shutdown.
// There is no hidden global instance; callers hold this explicitly.
type VFS struct {
	mu sync.Mutex // guards root/rootMount during mount/unmount of "/"

	registry  *registry
	mounts    *mountTable
	files     *FileTable
	root      *Dentry
	rootMount *Mount

	stats      Stats
	initalized bool
}

// New constructs a VFS context with an empty dentry cache (a single root
// dentry named "/" whose parent is itself) and a file-descriptor table of
// the given size, all free. Repeated construction is cheap and always
// succeeds, mirroring "repeated initialize is a no-op and succeeds".
func New(fdTableSize int) *VFS {
	root := NewRootDentry("/", nil)
	return &VFS{
		registry:   newRegistry(),
		mounts:     newMountTable(),
		files:      NewFileTable(fdTableSize),
		root:       root,
		initalized: true,
	}
}

// Shutdown closes all descriptors, unmounts all filesystems leaf-first, frees
// the root dentry, and resets the initialized flag.
func (v *VFS) Shutdown() *Errno {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.initalized {
		return nil
	}

	for fd := 0; fd < v.files.size; fd++ {
		if file, errno := v.files.Get(fd); errno == nil {
			v.closeOpenFile(file)
			v.files.Free(fd)
		}
	}

	for _, m := range v.mounts.all() {
		v.unmountLocked(m)
	}

	v.root = nil
	v.rootMount = nil
	v.initalized = false
	return nil
}

func (v *VFS) Stats() Stats {
	return Stats{
		OpenCalls:  atomic.LoadInt64(&v.stats.OpenCalls),
		ReadCalls:  atomic.LoadInt64(&v.stats.ReadCalls),
		ReadBytes:  atomic.LoadInt64(&v.stats.ReadBytes),
		WriteCalls: atomic.LoadInt64(&v.stats.WriteCalls),
		WriteBytes: atomic.LoadInt64(&v.stats.WriteBytes),
	}
}

// RegisterFileSystem adds a filesystem type to the registry, keyed by name.
func (v *VFS) RegisterFileSystem(fst *FileSystemType) *Errno {
	return v.registry.register(fst)
}

// UnregisterFileSystem removes a filesystem type. It fails with ErrBusy if
// the type still has live mounts.
func (v *VFS) UnregisterFileSystem(name string) *Errno {
	return v.registry.unregister(name)
}

// Mount attaches a new filesystem instance at mountPath.
func (v *VFS) Mount(deviceName, mountPath, fsName string, flags MountFlags, data any) *Errno {
	fst, errno := v.registry.get(fsName)
	if errno != nil {
		return errno
	}

	sb, errno := fst.Mount(flags, data)
	if errno != nil {
		return errno
	}

	m := &Mount{
		SuperBlock: sb,
		Root:       sb.Root,
		DeviceName: deviceName,
		Path:       mountPath,
		Flags:      flags,
		refCount:   1,
	}
	sb.Type = fst

	v.mu.Lock()
	defer v.mu.Unlock()

	if mountPath == "/" {
		if v.rootMount != nil {
			fst.Kill(sb)
			return NewErrnof(ErrExists, "root filesystem is already mounted")
		}
		v.rootMount = m
		v.root = sb.Root
		sb.Root.isRoot = true
		atomic.AddInt32(&fst.liveSBs, 1)
		v.mounts.insert(m)
		return nil
	}

	mountPointDentry, lookupErr := resolve(v.root, splitPath(mountPath))
	if lookupErr != nil {
		fst.Kill(sb)
		return lookupErr
	}

	// resolve crosses into a mounted root, so a path that is already a mount
	// point comes back as that mount's root dentry.
	if mountPointDentry.Mounted != nil || mountPointDentry.IsRoot() {
		fst.Kill(sb)
		return NewErrnof(ErrBusy, "%q is already a mount point", mountPath)
	}

	m.MountPoint = mountPointDentry
	mountPointDentry.Mounted = m
	atomic.AddInt32(&fst.liveSBs, 1)
	v.mounts.insert(m)
	return nil
}

// Unmount detaches the filesystem mounted at path.
func (v *VFS) Unmount(path string) *Errno {
	m := v.mounts.findByPath(path)
	if m == nil {
		return NewErrnof(ErrNotFound, "no filesystem mounted at %q", path)
	}
	if atomic.LoadInt32(&m.refCount) > 1 {
		return NewErrnof(ErrBusy, "mount %q is busy", path)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.unmountLocked(m)
}

func (v *VFS) unmountLocked(m *Mount) *Errno {
	v.mounts.remove(m)
	if m.MountPoint != nil {
		m.MountPoint.Mounted = nil
	}
	if m == v.rootMount {
		v.rootMount = nil
	}

	errno := m.SuperBlock.Type.Kill(m.SuperBlock)
	atomic.AddInt32(&m.SuperBlock.Type.liveSBs, -1)
	return errno
}

func (v *VFS) closeOpenFile(file *OpenFile) {
	if file.Put() {
		file.FileOps.Release(file)
	}
}
