package fat

import (
	"time"

	"github.com/go-vfskit/vfskit/vfs"
)

// inodeInfo is the FAT-specific state attached to every vfs.Inode's
// Private field: enough to locate the entry that describes this object
// inside its parent directory, and (for directories) where its own entry
// stream lives.
type inodeInfo struct {
	vol *volume

	firstCluster uint32 // data cluster (file) or directory cluster (non-root dir)
	isRoot       bool

	// parentDir/parentSlot locate the 32-byte entry that describes this
	// object, so SetAttr/Write/Unlink can rewrite or delete it. Unused for
	// the root directory, which has no parent entry of its own.
	parentDir  dirRef
	parentSlot int
}

// dotEntryName/dotDotEntryName are the raw 11-byte name fields for the "."
// and ".." self/parent entries written at offsets 0 and 32 of every newly
// created directory's first cluster.
var (
	dotEntryName    = [11]byte{'.', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
	dotDotEntryName = [11]byte{'.', '.', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
)

var operations = &fatOperations{}

// fatOperations implements vfs.InodeOperations and vfs.FileOperations. One
// instance is shared by every inode and open file across every mounted FAT
// volume; all per-object state lives in inodeInfo, not here.
type fatOperations struct{}

func (v *volume) rootInode(sb *vfs.SuperBlock) (*vfs.Inode, *vfs.Errno) {
	ino := vfs.NewInode(sb, v.allocInodeNumber(), vfs.FileTypeDirectory)
	ino.Mode = vfs.ModePermMask
	ino.InodeOps = operations
	ino.FileOps = operations
	ino.Private = &inodeInfo{vol: v, isRoot: true}
	return ino, nil
}

func (v *volume) newInodeFromDirent(sb *vfs.SuperBlock, parent dirRef, d dirent) *vfs.Inode {
	typ := vfs.FileTypeRegular
	if d.isDirectory() {
		typ = vfs.FileTypeDirectory
	}

	ino := vfs.NewInode(sb, v.allocInodeNumber(), typ)
	ino.Mode = vfs.ModePermMask
	if d.attrs&AttrReadOnly != 0 {
		ino.Mode &^= vfs.ModeUserWrite | vfs.ModeGroupWrite | vfs.ModeOtherWrite
	}
	ino.Size = int64(d.size)
	ino.ModifiedAt = d.modTime.UnixNano()
	ino.InodeOps = operations
	ino.FileOps = operations
	ino.Private = &inodeInfo{
		vol:          v,
		firstCluster: d.firstCluster,
		parentDir:    parent,
		parentSlot:   d.slot,
	}
	return ino
}

func (info *inodeInfo) direntRef(ino *vfs.Inode) dirRef {
	if ino.IsDir() {
		if info.isRoot {
			return info.vol.rootDirRef()
		}
		return dirRef{cluster: info.firstCluster}
	}
	return dirRef{}
}

func (o *fatOperations) Lookup(dir *vfs.Inode, name string) (*vfs.Inode, *vfs.Errno) {
	info := dir.Private.(*inodeInfo)
	vol := info.vol

	ref := info.direntRef(dir)
	data, errno := vol.readDirBytes(ref)
	if errno != nil {
		return nil, errno
	}

	longNames := reconstructLongNames(data)
	for _, d := range listDirents(data) {
		if nameFrom83(d.name) == name {
			return vol.newInodeFromDirent(dir.SuperBlock, ref, d), nil
		}
		if longName, ok := longNames[d.slot]; ok && longName == name {
			return vol.newInodeFromDirent(dir.SuperBlock, ref, d), nil
		}
	}
	return nil, vfs.NewErrnof(vfs.ErrNotFound, "no such entry %q", name)
}

func (o *fatOperations) Create(dir *vfs.Inode, name string, mode vfs.Mode) (*vfs.Inode, *vfs.Errno) {
	attrs := uint8(AttrArchive)
	if mode&vfs.ModeUserWrite == 0 {
		attrs |= AttrReadOnly
	}
	return o.createEntry(dir, name, attrs)
}

func (o *fatOperations) Mkdir(dir *vfs.Inode, name string, mode vfs.Mode) (*vfs.Inode, *vfs.Errno) {
	return o.createEntry(dir, name, AttrDirectory)
}

func (o *fatOperations) createEntry(dir *vfs.Inode, name string, attrs uint8) (*vfs.Inode, *vfs.Errno) {
	info := dir.Private.(*inodeInfo)
	vol := info.vol
	ref := info.direntRef(dir)

	rawName, errno := nameTo83(name)
	if errno != nil {
		return nil, errno
	}

	data, errno := vol.readDirBytes(ref)
	if errno != nil {
		return nil, errno
	}
	for _, d := range listDirents(data) {
		if nameFrom83(d.name) == name {
			return nil, vfs.NewErrnof(vfs.ErrExists, "entry %q already exists", name)
		}
	}

	// Every new entry gets a cluster marked EOF, per spec.md's creation
	// algorithm -- a zero-length file still owns a cluster to write into.
	firstCluster, errno := vol.fat.allocate()
	if errno != nil {
		return nil, errno
	}
	sector, errno := vol.bs.clusterToSector(firstCluster)
	if errno != nil {
		return nil, errno
	}

	clusterBuf := make([]byte, vol.bs.BytesPerCluster)
	if attrs&AttrDirectory != 0 {
		parentCluster := uint32(0)
		if !info.isRoot {
			parentCluster = info.firstCluster
		}
		now := time.Now()
		dot := dirent{name: dotEntryName, attrs: AttrDirectory, firstCluster: firstCluster, modTime: now}
		dotdot := dirent{name: dotDotEntryName, attrs: AttrDirectory, firstCluster: parentCluster, modTime: now}
		encodeDirent(dot, clusterBuf[0:direntSize])
		encodeDirent(dotdot, clusterBuf[direntSize:2*direntSize])
	}
	if err := vol.dev.WriteAt(sector, clusterBuf); err != nil {
		return nil, vfs.NewErrnof(vfs.ErrIO, "zeroing new directory cluster: %v", err)
	}

	slot := findFreeSlot(data)
	if slot < 0 {
		var newData []byte
		ref, newData, errno = vol.growDir(ref, data)
		if errno != nil {
			return nil, errno
		}
		data = newData
		slot = findFreeSlot(data)
		if slot < 0 {
			return nil, vfs.NewErrnof(vfs.ErrIO, "directory grew but no free slot found")
		}
	}

	d := dirent{
		name:         rawName,
		attrs:        attrs,
		firstCluster: firstCluster,
		modTime:      time.Now(),
		slot:         slot,
	}
	encodeDirent(d, data[slot*direntSize:(slot+1)*direntSize])
	if errno := vol.writeDirBytes(ref, data); errno != nil {
		return nil, errno
	}
	if errno := vol.fat.flush(); errno != nil {
		return nil, errno
	}

	return vol.newInodeFromDirent(dir.SuperBlock, ref, d), nil
}

func (o *fatOperations) Unlink(dir *vfs.Inode, name string) *vfs.Errno {
	return o.removeEntry(dir, name, false)
}

func (o *fatOperations) Rmdir(dir *vfs.Inode, name string) *vfs.Errno {
	return o.removeEntry(dir, name, true)
}

func (o *fatOperations) removeEntry(dir *vfs.Inode, name string, wantDir bool) *vfs.Errno {
	info := dir.Private.(*inodeInfo)
	vol := info.vol
	ref := info.direntRef(dir)

	data, errno := vol.readDirBytes(ref)
	if errno != nil {
		return errno
	}

	var target *dirent
	for _, d := range listDirents(data) {
		d := d
		if nameFrom83(d.name) == name {
			target = &d
			break
		}
	}
	if target == nil {
		return vfs.NewErrnof(vfs.ErrNotFound, "no such entry %q", name)
	}

	if wantDir && !target.isDirectory() {
		return vfs.NewErrnof(vfs.ErrNotADirectory, "%q is not a directory", name)
	}
	if !wantDir && target.isDirectory() {
		return vfs.NewErrnof(vfs.ErrIsADirectory, "%q is a directory", name)
	}

	if wantDir {
		childData, errno := vol.readDirBytes(dirRef{cluster: target.firstCluster})
		if errno != nil {
			return errno
		}
		entries := listDirents(childData)
		for _, e := range entries {
			n := nameFrom83(e.name)
			if n != "." && n != ".." {
				return vfs.NewErrnof(vfs.ErrNotEmpty, "directory %q is not empty", name)
			}
		}
	}

	if target.firstCluster != 0 {
		if errno := vol.fat.free(target.firstCluster); errno != nil {
			return errno
		}
	}

	markDeleted(data[target.slot*direntSize : (target.slot+1)*direntSize])
	if errno := vol.writeDirBytes(ref, data); errno != nil {
		return errno
	}
	return vol.fat.flush()
}

func (o *fatOperations) Readdir(dir *vfs.Inode) ([]vfs.DirEntry, *vfs.Errno) {
	info := dir.Private.(*inodeInfo)
	vol := info.vol
	ref := info.direntRef(dir)

	data, errno := vol.readDirBytes(ref)
	if errno != nil {
		return nil, errno
	}

	longNames := reconstructLongNames(data)
	out := []vfs.DirEntry{
		{Name: ".", InodeNumber: dir.Number, Type: vfs.FileTypeDirectory},
		{Name: "..", InodeNumber: dir.Number, Type: vfs.FileTypeDirectory},
	}
	for _, d := range listDirents(data) {
		typ := vfs.FileTypeRegular
		if d.isDirectory() {
			typ = vfs.FileTypeDirectory
		}
		name := nameFrom83(d.name)
		if longName, ok := longNames[d.slot]; ok {
			name = longName
		}
		out = append(out, vfs.DirEntry{
			Name: name,
			Type: typ,
		})
	}
	return out, nil
}

func (o *fatOperations) SetAttr(inode *vfs.Inode, mode vfs.Mode) *vfs.Errno {
	info := inode.Private.(*inodeInfo)
	if info.isRoot {
		inode.Mode = mode
		return nil
	}

	vol := info.vol
	data, errno := vol.readDirBytes(info.parentDir)
	if errno != nil {
		return errno
	}
	buf := data[info.parentSlot*direntSize : (info.parentSlot+1)*direntSize]
	d := decodeDirent(buf, info.parentSlot)
	if mode&vfs.ModeUserWrite == 0 {
		d.attrs |= AttrReadOnly
	} else {
		d.attrs &^= AttrReadOnly
	}
	encodeDirent(d, buf)
	if errno := vol.writeDirBytes(info.parentDir, data); errno != nil {
		return errno
	}

	inode.Mode = mode
	return nil
}
