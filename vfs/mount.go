package vfs

import "sync"

// Mount binds a superblock's root dentry to a dentry in a parent filesystem.
type Mount struct {
	MountPoint *Dentry // dentry in the parent FS this mount is grafted onto
	Root       *Dentry // root dentry of the mounted FS
	SuperBlock *SuperBlock
	Parent     *Mount

	DeviceName string
	Path       string
	Flags      MountFlags

	next     *Mount
	refCount int32
}

func (m *Mount) IsRootMount() bool {
	return m.Parent == nil
}

// mountTable is the VFS's mount list, guarded by its own mutex per the
// concurrency model.
type mountTable struct {
	mu    sync.Mutex
	first *Mount
}

func newMountTable() *mountTable {
	return &mountTable{}
}

func (mt *mountTable) insert(m *Mount) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	m.next = mt.first
	mt.first = m
}

func (mt *mountTable) remove(m *Mount) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if mt.first == m {
		mt.first = m.next
		return
	}
	for cur := mt.first; cur != nil; cur = cur.next {
		if cur.next == m {
			cur.next = m.next
			return
		}
	}
}

// findByPath returns the mount whose Path exactly matches, or nil.
func (mt *mountTable) findByPath(path string) *Mount {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	for cur := mt.first; cur != nil; cur = cur.next {
		if cur.Path == path {
			return cur
		}
	}
	return nil
}

// findByMountPoint returns the mount grafted onto the given dentry, or nil.
func (mt *mountTable) findByMountPoint(d *Dentry) *Mount {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	for cur := mt.first; cur != nil; cur = cur.next {
		if cur.MountPoint == d {
			return cur
		}
	}
	return nil
}

// all returns a snapshot of every mount, leaf-mounted-last entries first so
// that unmounting in the returned order tears down leaves before parents.
func (mt *mountTable) all() []*Mount {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	var out []*Mount
	for cur := mt.first; cur != nil; cur = cur.next {
		out = append(out, cur)
	}
	return out
}
