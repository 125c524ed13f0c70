// Package fat implements a VFS filesystem driver for FAT16 and FAT32
// volumes: boot-sector parsing, the in-memory FAT table cache, cluster-chain
// traversal and allocation, 8.3 directory entry I/O, and the VFS operation
// tables that plug a mounted volume into vfs.VFS.
package fat

// Directory entry attribute bits, per the on-disk format.
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20

	// AttrLongName is the composite value {READ_ONLY, HIDDEN, SYSTEM,
	// VOLUME_ID} all set, marking a long-filename component. Entries with
	// all four bits set are read only by the long-name reconstruction in
	// lfn.go and never surface as directory entries of their own.
	AttrLongName = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID
)

// Directory entry name-byte sentinels.
const (
	direntFreeMarker      = 0x00 // end of directory; scanning stops
	direntDeletedMarker   = 0xE5 // deleted entry, skip
	direntEscapedE5Marker = 0x05 // real first byte of name is 0xE5
)
