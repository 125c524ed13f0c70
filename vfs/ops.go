package vfs

import "sync/atomic"

// Open resolves path, creating the target if it's missing and O_CREAT is
// set, and returns a file descriptor for it.
func (v *VFS) Open(path string, flags OpenFlags, mode Mode) (int, *Errno) {
	dentry, errno := v.Lookup(path)
	if errno != nil {
		if errno.Code != ErrNotFound || !flags.Create() {
			return -1, errno
		}

		parent, name, perr := v.lookupParentAndName(path)
		if perr != nil {
			return -1, perr
		}
		if parent.Inode == nil || !parent.Inode.IsDir() {
			return -1, NewErrno(ErrNotADirectory)
		}

		inode, cerr := parent.Inode.InodeOps.Create(parent.Inode, name, mode)
		if cerr != nil {
			return -1, cerr
		}
		dentry = NewDentry(parent, name, inode)
	} else if flags.Create() && flags.Exclusive() {
		return -1, NewErrno(ErrExists)
	}

	if dentry.Inode == nil {
		return -1, NewErrno(ErrNotFound)
	}
	if flags.Directory() && !dentry.Inode.IsDir() {
		return -1, NewErrno(ErrNotADirectory)
	}
	if dentry.Inode.IsDir() && flags.Writable() {
		return -1, NewErrno(ErrIsADirectory)
	}

	file := &OpenFile{
		Dentry:   dentry,
		Inode:    dentry.Inode,
		FileOps:  dentry.Inode.FileOps,
		Flags:    flags,
		Mode:     mode,
		refCount: 1,
	}

	if !dentry.Inode.IsDir() {
		if openErr := file.FileOps.Open(file); openErr != nil {
			return -1, openErr
		}
	}

	fd, allocErr := v.files.Alloc(file)
	if allocErr != nil {
		return -1, allocErr
	}

	atomic.AddInt64(&v.stats.OpenCalls, 1)
	return fd, nil
}

// Close releases the descriptor fd. The underlying OpenFile is freed only
// once its own reference count reaches zero.
func (v *VFS) Close(fd int) *Errno {
	file, errno := v.files.Get(fd)
	if errno != nil {
		return errno
	}
	v.closeOpenFile(file)
	return v.files.Free(fd)
}

// Read dispatches to the file-op table, requiring a readable mode.
func (v *VFS) Read(fd int, buf []byte) (int, *Errno) {
	file, errno := v.files.Get(fd)
	if errno != nil {
		return 0, errno
	}
	if !file.Flags.Readable() {
		return 0, NewErrno(ErrPermission)
	}

	n, rerr := file.FileOps.Read(file, buf)
	if rerr != nil {
		return n, rerr
	}
	file.Position += int64(n)

	atomic.AddInt64(&v.stats.ReadCalls, 1)
	atomic.AddInt64(&v.stats.ReadBytes, int64(n))
	return n, nil
}

// Write dispatches to the file-op table, requiring a writable mode.
func (v *VFS) Write(fd int, buf []byte) (int, *Errno) {
	file, errno := v.files.Get(fd)
	if errno != nil {
		return 0, errno
	}
	if !file.Flags.Writable() {
		return 0, NewErrno(ErrPermission)
	}
	if file.Flags.Append() {
		file.Position = file.Inode.Stat().Size
	}

	n, werr := file.FileOps.Write(file, buf)
	if werr != nil {
		return n, werr
	}
	file.Position += int64(n)

	atomic.AddInt64(&v.stats.WriteCalls, 1)
	atomic.AddInt64(&v.stats.WriteBytes, int64(n))
	return n, nil
}

// Seek updates position per whence, with no bounds clamp beyond what the
// file-op implementation enforces.
func (v *VFS) Seek(fd int, offset int64, whence Whence) (int64, *Errno) {
	file, errno := v.files.Get(fd)
	if errno != nil {
		return 0, errno
	}

	pos, serr := file.FileOps.Seek(file, offset, whence)
	if serr != nil {
		return 0, serr
	}
	file.Position = pos
	return pos, nil
}

// Mkdir creates a new directory at path.
func (v *VFS) Mkdir(path string, mode Mode) *Errno {
	if _, errno := v.Lookup(path); errno == nil {
		return NewErrno(ErrExists)
	}

	parent, name, errno := v.lookupParentAndName(path)
	if errno != nil {
		return errno
	}
	if parent.Inode == nil || !parent.Inode.IsDir() {
		return NewErrno(ErrNotADirectory)
	}

	inode, merr := parent.Inode.InodeOps.Mkdir(parent.Inode, name, mode)
	if merr != nil {
		return merr
	}
	NewDentry(parent, name, inode)
	return nil
}

// Rmdir removes the empty directory at path.
func (v *VFS) Rmdir(path string) *Errno {
	dentry, errno := v.Lookup(path)
	if errno != nil {
		return errno
	}
	if dentry.Inode == nil || !dentry.Inode.IsDir() {
		return NewErrno(ErrNotADirectory)
	}
	if dentry.IsRoot() {
		return NewErrnof(ErrInvalidArgument, "cannot remove the root directory")
	}

	parent := dentry.Parent
	rerr := parent.Inode.InodeOps.Rmdir(parent.Inode, dentry.Name)
	if rerr != nil {
		return rerr
	}
	dentry.Detach()
	return nil
}

// Unlink removes the non-directory entry at path.
func (v *VFS) Unlink(path string) *Errno {
	dentry, errno := v.Lookup(path)
	if errno != nil {
		return errno
	}
	if dentry.Inode != nil && dentry.Inode.IsDir() {
		return NewErrno(ErrIsADirectory)
	}

	parent := dentry.Parent
	uerr := parent.Inode.InodeOps.Unlink(parent.Inode, dentry.Name)
	if uerr != nil {
		return uerr
	}
	dentry.Detach()
	return nil
}

// Opendir opens path as a directory stream and returns a descriptor for it.
func (v *VFS) Opendir(path string) (int, *Errno) {
	return v.Open(path, O_RDONLY|O_DIRECTORY, 0)
}

// Readdir returns the next directory entry from the stream opened at fd, or
// ErrNotFound once the stream is exhausted.
func (v *VFS) Readdir(fd int) (DirEntry, *Errno) {
	file, errno := v.files.Get(fd)
	if errno != nil {
		return DirEntry{}, errno
	}
	if !file.Inode.IsDir() {
		return DirEntry{}, NewErrno(ErrNotADirectory)
	}

	entries, rerr := file.Inode.InodeOps.Readdir(file.Inode)
	if rerr != nil {
		return DirEntry{}, rerr
	}

	cursor := int(file.Position)
	if cursor >= len(entries) {
		return DirEntry{}, NewErrno(ErrNotFound)
	}
	file.Position++
	return entries[cursor], nil
}

// Closedir closes a directory stream descriptor.
func (v *VFS) Closedir(fd int) *Errno {
	return v.Close(fd)
}

// Stat resolves path and returns its metadata.
func (v *VFS) Stat(path string) (Stat, *Errno) {
	dentry, errno := v.Lookup(path)
	if errno != nil {
		return Stat{}, errno
	}
	if dentry.Inode == nil {
		return Stat{}, NewErrno(ErrNotFound)
	}
	return dentry.Inode.Stat(), nil
}

// Fstat returns the metadata of the file open at fd.
func (v *VFS) Fstat(fd int) (Stat, *Errno) {
	file, errno := v.files.Get(fd)
	if errno != nil {
		return Stat{}, errno
	}
	return file.Inode.Stat(), nil
}

// Chmod resolves path and applies mode's permission bits.
func (v *VFS) Chmod(path string, mode Mode) *Errno {
	dentry, errno := v.Lookup(path)
	if errno != nil {
		return errno
	}
	return dentry.Inode.InodeOps.SetAttr(dentry.Inode, mode)
}

// OpenFileCount returns the number of live file-descriptor slots, used by
// tests asserting balance across open/close pairs.
func (v *VFS) OpenFileCount() int {
	return v.files.Count()
}
