package fat

import (
	"sync"

	"github.com/go-vfskit/vfskit/blockdev"
	"github.com/go-vfskit/vfskit/vfs"
)

// FileSystemType registers this driver under the name "fat" with a
// vfs.VFS. Mount data must be a blockdev.Device.
var FileSystemType = &vfs.FileSystemType{
	Name:  "fat",
	Mount: mount,
	Kill:  kill,
}

// volume holds everything a mounted FAT filesystem needs beyond what
// vfs.SuperBlock already tracks: the device, parsed boot sector, and FAT
// table cache. One volume backs one SuperBlock.Private.
type volume struct {
	mu  sync.Mutex
	dev blockdev.Device
	bs  *BootSector
	fat *table

	nextInode uint64
}

func mount(flags vfs.MountFlags, data any) (*vfs.SuperBlock, *vfs.Errno) {
	dev, ok := data.(blockdev.Device)
	if !ok {
		return nil, vfs.NewErrnof(vfs.ErrInvalidArgument, "fat mount requires a blockdev.Device, got %T", data)
	}

	bootBuf := make([]byte, bootSectorSize)
	if err := dev.ReadAt(0, bootBuf); err != nil {
		return nil, vfs.NewErrnof(vfs.ErrIO, "reading boot sector: %v", err)
	}

	bs, errno := parseBootSector(bootBuf)
	if errno != nil {
		return nil, errno
	}

	fatTable, errno := loadTable(dev, bs)
	if errno != nil {
		return nil, errno
	}

	vol := &volume{
		dev:       dev,
		bs:        bs,
		fat:       fatTable,
		nextInode: 1,
	}

	sb := &vfs.SuperBlock{
		BlockSize: bs.BytesPerCluster,
		Magic:     uint32(bootSignature),
		Flags:     flags,
		Private:   vol,
	}

	rootInode, errno := vol.rootInode(sb)
	if errno != nil {
		return nil, errno
	}

	sb.Root = vfs.NewRootDentry("/", rootInode)
	return sb, nil
}

func kill(sb *vfs.SuperBlock) *vfs.Errno {
	vol := sb.Private.(*volume)
	vol.mu.Lock()
	defer vol.mu.Unlock()
	return vol.fat.flush()
}

// allocInodeNumber hands out a monotonically increasing synthetic inode
// number. FAT has no native inode numbering, so one is invented per
// mounted volume. Every call returns a new number, so two separate lookups
// of the same directory entry yield inodes with different numbers.
func (v *volume) allocInodeNumber() uint64 {
	n := v.nextInode
	v.nextInode++
	return n
}
