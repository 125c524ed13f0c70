package vfs

import "strings"

// maxLookupDepth is the defensive depth cap mentioned in the path lookup
// algorithm: resolution terminates if it ever walks more components than
// this, guarding against a corrupted or cyclic dentry cache.
const maxLookupDepth = 1024

// splitPath breaks a path into its non-empty components, using "/" as the
// sole separator.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// crossMounts follows d.Mounted, if set, to the mounted filesystem's root --
// repeatedly, in case of a mount stacked directly on another mount's root.
func crossMounts(d *Dentry) *Dentry {
	for d.Mounted != nil {
		d = d.Mounted.Root
	}
	return d
}

// resolve walks `components` starting from `start`, consulting the dentry
// cache at each step and falling back to the current inode's Lookup
// operation on a miss. It is iterative and terminates on an empty
// remainder, a lookup miss, or the defensive depth cap.
func resolve(start *Dentry, components []string) (*Dentry, *Errno) {
	current := crossMounts(start)

	for depth, name := range components {
		if depth >= maxLookupDepth {
			return nil, NewErrnof(ErrInvalidArgument, "path resolution exceeded depth cap of %d", maxLookupDepth)
		}

		if name == "." {
			continue
		}
		if name == ".." {
			if current.Parent != nil {
				current = current.Parent
			}
			current = crossMounts(current)
			continue
		}

		child := current.lookupChild(name)
		if child == nil {
			if current.Inode == nil || !current.Inode.IsDir() {
				return nil, NewErrno(ErrNotADirectory)
			}
			inode, errno := current.Inode.InodeOps.Lookup(current.Inode, name)
			if errno != nil {
				return nil, errno
			}
			child = NewDentry(current, name, inode)
		}

		current = crossMounts(child)
	}

	return current, nil
}

// Lookup resolves an absolute or relative path to a dentry. Relative paths
// are resolved from the VFS root, since this spec keeps a single global
// working context rather than a per-process cwd.
func (v *VFS) Lookup(path string) (*Dentry, *Errno) {
	components := splitPath(path)
	return resolve(v.root, components)
}

// lookupParentAndName splits path into the dentry of its parent directory
// and the final path component, resolving the parent but not the leaf.
func (v *VFS) lookupParentAndName(path string) (*Dentry, string, *Errno) {
	components := splitPath(path)
	if len(components) == 0 {
		return nil, "", NewErrnof(ErrInvalidArgument, "empty path")
	}

	leaf := components[len(components)-1]
	parent, errno := resolve(v.root, components[:len(components)-1])
	if errno != nil {
		return nil, "", errno
	}
	return parent, leaf, nil
}
