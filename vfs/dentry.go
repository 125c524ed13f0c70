package vfs

import "sync/atomic"

// MaxNameLength bounds a single path component, matching the FAT 8.3-derived
// short name plus reconstructed long name headroom.
const MaxNameLength = 255

// Dentry is a cached (name, parent, inode) triple: one node in the
// path-resolution tree. Only hits are cached: a failed lookup leaves no
// dentry behind, so repeating it invokes the filesystem's Lookup again. The
// only dentry with a nil Inode is the placeholder root New creates before
// anything is mounted on "/".
type Dentry struct {
	Name   string
	Inode  *Inode
	Parent *Dentry

	firstChild *Dentry
	nextSib    *Dentry

	// Mounted, if non-nil, is the mount whose root should be substituted for
	// this dentry during path resolution -- "subsequent lookups through it
	// cross into the mounted root" per the mount algorithm.
	Mounted *Mount

	isRoot   bool
	refCount int32
}

// NewRootDentry creates a dentry whose parent is itself, represented as the
// explicit "no parent" tag the design notes call for rather than a literal
// pointer cycle.
func NewRootDentry(name string, inode *Inode) *Dentry {
	return &Dentry{Name: name, Inode: inode, isRoot: true, refCount: 1}
}

// NewDentry creates a non-root dentry and links it as a child of parent.
func NewDentry(parent *Dentry, name string, inode *Inode) *Dentry {
	d := &Dentry{Name: name, Inode: inode, Parent: parent, refCount: 1}
	parent.addChild(d)
	return d
}

func (d *Dentry) IsRoot() bool {
	return d.isRoot
}

func (d *Dentry) Get() *Dentry {
	atomic.AddInt32(&d.refCount, 1)
	return d
}

func (d *Dentry) Put() bool {
	return atomic.AddInt32(&d.refCount, -1) == 0
}

func (d *Dentry) addChild(child *Dentry) {
	child.nextSib = d.firstChild
	d.firstChild = child
}

// removeChild unlinks child from d's sibling list. It is a no-op if child
// isn't actually a child of d.
func (d *Dentry) removeChild(child *Dentry) {
	if d.firstChild == child {
		d.firstChild = child.nextSib
		child.nextSib = nil
		return
	}
	for cur := d.firstChild; cur != nil; cur = cur.nextSib {
		if cur.nextSib == child {
			cur.nextSib = child.nextSib
			child.nextSib = nil
			return
		}
	}
}

// Detach removes d from its parent's child list, used when evicting a
// dentry after Rmdir/Unlink.
func (d *Dentry) Detach() {
	if d.Parent != nil {
		d.Parent.removeChild(d)
		d.Parent = nil
	}
}

// lookupChild scans the cached children of d for one named `name`. It
// returns nil on a cache miss; the caller is responsible for invoking the
// filesystem's Lookup operation and inserting the result.
func (d *Dentry) lookupChild(name string) *Dentry {
	for cur := d.firstChild; cur != nil; cur = cur.nextSib {
		if cur.Name == name {
			return cur
		}
	}
	return nil
}

// Children returns a snapshot slice of d's cached children, for callers that
// need to walk an entire subtree.
func (d *Dentry) Children() []*Dentry {
	var out []*Dentry
	for cur := d.firstChild; cur != nil; cur = cur.nextSib {
		out = append(out, cur)
	}
	return out
}
