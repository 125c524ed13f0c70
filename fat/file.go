package fat

import (
	"time"

	"github.com/go-vfskit/vfskit/vfs"
)

func (o *fatOperations) Open(file *vfs.OpenFile) *vfs.Errno {
	info := file.Inode.Private.(*inodeInfo)
	if file.Flags.Truncate() && file.Flags.Writable() {
		return o.truncateToZero(file.Inode, info)
	}
	return nil
}

func (o *fatOperations) truncateToZero(ino *vfs.Inode, info *inodeInfo) *vfs.Errno {
	vol := info.vol
	if info.firstCluster != 0 {
		if errno := vol.fat.free(info.firstCluster); errno != nil {
			return errno
		}
		info.firstCluster = 0
	}
	ino.SetSize(0)
	return o.syncDirentSize(ino, info)
}

func (o *fatOperations) Read(file *vfs.OpenFile, buf []byte) (int, *vfs.Errno) {
	info := file.Inode.Private.(*inodeInfo)
	vol := info.vol

	size := file.Inode.Stat().Size
	if file.Position >= size {
		return 0, nil
	}

	remaining := size - file.Position
	toRead := int64(len(buf))
	if toRead > remaining {
		toRead = remaining
	}

	if info.firstCluster == 0 {
		return 0, nil
	}

	clusters, errno := vol.fat.chain(info.firstCluster)
	if errno != nil {
		return 0, errno
	}

	bytesPerCluster := int64(vol.bs.BytesPerCluster)
	var n int64
	for n < toRead {
		absolute := file.Position + n
		clusterIdx := int(absolute / bytesPerCluster)
		offsetInCluster := absolute % bytesPerCluster
		if clusterIdx >= len(clusters) {
			break
		}

		sector, errno := vol.bs.clusterToSector(clusters[clusterIdx])
		if errno != nil {
			return int(n), errno
		}
		clusterBuf := make([]byte, bytesPerCluster)
		if err := vol.dev.ReadAt(sector, clusterBuf); err != nil {
			return int(n), vfs.NewErrnof(vfs.ErrIO, "reading file cluster: %v", err)
		}

		chunk := bytesPerCluster - offsetInCluster
		remainingToRead := toRead - n
		if chunk > remainingToRead {
			chunk = remainingToRead
		}
		copy(buf[n:n+chunk], clusterBuf[offsetInCluster:offsetInCluster+chunk])
		n += chunk
	}

	return int(n), nil
}

func (o *fatOperations) Write(file *vfs.OpenFile, buf []byte) (int, *vfs.Errno) {
	info := file.Inode.Private.(*inodeInfo)
	vol := info.vol

	if file.Flags.Append() {
		file.Position = file.Inode.Stat().Size
	}

	bytesPerCluster := int64(vol.bs.BytesPerCluster)
	endPosition := file.Position + int64(len(buf))

	clustersNeeded := int((endPosition + bytesPerCluster - 1) / bytesPerCluster)
	if clustersNeeded == 0 {
		clustersNeeded = 1
	}

	var clusters []uint32
	var errno *vfs.Errno
	if info.firstCluster == 0 {
		first, errno := vol.fat.allocate()
		if errno != nil {
			return 0, errno
		}
		info.firstCluster = first
		clusters = []uint32{first}
	} else {
		clusters, errno = vol.fat.chain(info.firstCluster)
		if errno != nil {
			return 0, errno
		}
	}

	for len(clusters) < clustersNeeded {
		next, errno := vol.fat.extend(clusters[len(clusters)-1])
		if errno != nil {
			return 0, errno
		}
		clusters = append(clusters, next)
	}

	var n int64
	toWrite := int64(len(buf))
	for n < toWrite {
		absolute := file.Position + n
		clusterIdx := int(absolute / bytesPerCluster)
		offsetInCluster := absolute % bytesPerCluster

		sector, errno := vol.bs.clusterToSector(clusters[clusterIdx])
		if errno != nil {
			return int(n), errno
		}

		clusterBuf := make([]byte, bytesPerCluster)
		if err := vol.dev.ReadAt(sector, clusterBuf); err != nil {
			return int(n), vfs.NewErrnof(vfs.ErrIO, "reading cluster before partial write: %v", err)
		}

		chunk := bytesPerCluster - offsetInCluster
		remainingToWrite := toWrite - n
		if chunk > remainingToWrite {
			chunk = remainingToWrite
		}
		copy(clusterBuf[offsetInCluster:offsetInCluster+chunk], buf[n:n+chunk])

		if err := vol.dev.WriteAt(sector, clusterBuf); err != nil {
			return int(n), vfs.NewErrnof(vfs.ErrIO, "writing cluster: %v", err)
		}
		n += chunk
	}

	if file.Position+n > file.Inode.Stat().Size {
		file.Inode.SetSize(file.Position + n)
	}

	if errno := vol.fat.flush(); errno != nil {
		return int(n), errno
	}
	if errno := o.syncDirentSize(file.Inode, info); errno != nil {
		return int(n), errno
	}

	return int(n), nil
}

// syncDirentSize writes the inode's current size and first cluster back to
// its parent directory entry. The root directory has no entry of its own
// and is skipped.
func (o *fatOperations) syncDirentSize(ino *vfs.Inode, info *inodeInfo) *vfs.Errno {
	if info.isRoot {
		return nil
	}

	vol := info.vol
	data, errno := vol.readDirBytes(info.parentDir)
	if errno != nil {
		return errno
	}
	buf := data[info.parentSlot*direntSize : (info.parentSlot+1)*direntSize]
	d := decodeDirent(buf, info.parentSlot)
	d.size = uint32(ino.Stat().Size)
	d.firstCluster = info.firstCluster
	d.modTime = time.Now()
	encodeDirent(d, buf)
	return vol.writeDirBytes(info.parentDir, data)
}

func (o *fatOperations) Seek(file *vfs.OpenFile, offset int64, whence vfs.Whence) (int64, *vfs.Errno) {
	var base int64
	switch whence {
	case vfs.SeekSet:
		base = 0
	case vfs.SeekCur:
		base = file.Position
	case vfs.SeekEnd:
		base = file.Inode.Stat().Size
	default:
		return 0, vfs.NewErrnof(vfs.ErrInvalidArgument, "invalid whence %d", whence)
	}

	newPos := base + offset
	if newPos < 0 {
		return 0, vfs.NewErrnof(vfs.ErrInvalidArgument, "seek would produce negative position")
	}
	file.Position = newPos
	return newPos, nil
}

func (o *fatOperations) Release(file *vfs.OpenFile) *vfs.Errno {
	return nil
}
