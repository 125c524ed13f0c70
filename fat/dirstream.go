package fat

import "github.com/go-vfskit/vfskit/vfs"

// dirRef locates a directory's entry stream: either the fixed root region
// (FAT16 root only) or a cluster chain (every other directory, and the
// FAT32 root).
type dirRef struct {
	fixedRootSector int64 // sector of the fixed FAT16 root region; 0 if chain-based
	fixedRootCount  int   // sector count of the fixed root region
	cluster         uint32
}

func (v *volume) rootDirRef() dirRef {
	if v.bs.Variant == VariantFAT32 {
		return dirRef{cluster: v.bs.RootCluster}
	}
	rootSector := int64(v.bs.ReservedSectors + v.bs.NumFATs*v.bs.FATSizeSectors)
	return dirRef{fixedRootSector: rootSector, fixedRootCount: v.bs.RootDirSectors}
}

func (r dirRef) isFixedRoot() bool {
	return r.fixedRootCount > 0
}

// readDirBytes reads a directory's entire entry stream into memory.
func (v *volume) readDirBytes(ref dirRef) ([]byte, *vfs.Errno) {
	if ref.isFixedRoot() {
		buf := make([]byte, ref.fixedRootCount*v.bs.BytesPerSector)
		if err := v.dev.ReadAt(ref.fixedRootSector, buf); err != nil {
			return nil, vfs.NewErrnof(vfs.ErrIO, "reading root directory: %v", err)
		}
		return buf, nil
	}

	clusters, errno := v.fat.chain(ref.cluster)
	if errno != nil {
		return nil, errno
	}

	buf := make([]byte, 0, len(clusters)*v.bs.BytesPerCluster)
	for _, c := range clusters {
		sector, errno := v.bs.clusterToSector(c)
		if errno != nil {
			return nil, errno
		}
		clusterBuf := make([]byte, v.bs.BytesPerCluster)
		if err := v.dev.ReadAt(sector, clusterBuf); err != nil {
			return nil, vfs.NewErrnof(vfs.ErrIO, "reading directory cluster %d: %v", c, err)
		}
		buf = append(buf, clusterBuf...)
	}
	return buf, nil
}

// writeDirBytes writes an unchanged-size directory buffer back to its
// backing sectors or clusters.
func (v *volume) writeDirBytes(ref dirRef, data []byte) *vfs.Errno {
	if ref.isFixedRoot() {
		if err := v.dev.WriteAt(ref.fixedRootSector, data); err != nil {
			return vfs.NewErrnof(vfs.ErrIO, "writing root directory: %v", err)
		}
		return nil
	}

	clusters, errno := v.fat.chain(ref.cluster)
	if errno != nil {
		return errno
	}
	if len(clusters)*v.bs.BytesPerCluster != len(data) {
		return vfs.NewErrnof(vfs.ErrIO, "directory buffer size mismatch on write")
	}

	for i, c := range clusters {
		sector, errno := v.bs.clusterToSector(c)
		if errno != nil {
			return errno
		}
		start := i * v.bs.BytesPerCluster
		if err := v.dev.WriteAt(sector, data[start:start+v.bs.BytesPerCluster]); err != nil {
			return vfs.NewErrnof(vfs.ErrIO, "writing directory cluster %d: %v", c, err)
		}
	}
	return nil
}

// growDir appends one more cluster to a chain-based directory, zeroing it,
// and returns the updated full buffer. Fixed FAT16 roots cannot grow: per
// spec this is a fixed-capacity region and callers get ErrNoSpace.
func (v *volume) growDir(ref dirRef, data []byte) (dirRef, []byte, *vfs.Errno) {
	if ref.isFixedRoot() {
		return ref, nil, vfs.NewErrnof(vfs.ErrNoSpace, "root directory is full")
	}

	clusters, errno := v.fat.chain(ref.cluster)
	if errno != nil {
		return ref, nil, errno
	}
	last := clusters[len(clusters)-1]

	next, errno := v.fat.extend(last)
	if errno != nil {
		return ref, nil, errno
	}

	zeroed := make([]byte, v.bs.BytesPerCluster)
	sector, errno := v.bs.clusterToSector(next)
	if errno != nil {
		return ref, nil, errno
	}
	if err := v.dev.WriteAt(sector, zeroed); err != nil {
		return ref, nil, vfs.NewErrnof(vfs.ErrIO, "zeroing new directory cluster: %v", err)
	}

	return ref, append(data, zeroed...), nil
}

// listDirents decodes every live (non-free-terminated) entry in a
// directory's byte stream, skipping deleted slots and long-name parts.
func listDirents(data []byte) []dirent {
	var out []dirent
	for slot := 0; (slot+1)*direntSize <= len(data); slot++ {
		buf := data[slot*direntSize : (slot+1)*direntSize]
		if isFreeDirentByte(buf[0]) {
			break
		}
		if isDeletedDirentByte(buf[0]) {
			continue
		}
		d := decodeDirent(buf, slot)
		if d.isLongNamePart() || d.isVolumeLabel() {
			continue
		}
		out = append(out, d)
	}
	return out
}

// findFreeSlot returns the index of the first free or deleted slot in data,
// or -1 if none exists (the directory must grow).
func findFreeSlot(data []byte) int {
	for slot := 0; (slot+1)*direntSize <= len(data); slot++ {
		b := data[slot*direntSize]
		if isFreeDirentByte(b) || isDeletedDirentByte(b) {
			return slot
		}
	}
	return -1
}
