package fat

import (
	"encoding/binary"
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/hashicorp/go-multierror"

	"github.com/go-vfskit/vfskit/blockdev"
	"github.com/go-vfskit/vfskit/vfs"
)

const (
	fat16EntrySize = 2
	fat32EntrySize = 4

	fat32ClusterMask = 0x0FFFFFFF
)

// clusterEOFMarker is the value written when terminating a chain. Readers
// treat any value >= the variant's "end of chain" threshold as EOF, per
// spec.md's cluster-chain traversal rule.
const clusterEOFMarker = 0x0FFFFFFF

// table is the in-memory cache of FAT #0, mirrored to every other FAT copy
// on flush. Entries are cached as uint32 regardless of on-disk width so
// FAT16 and FAT32 share one representation internally.
type table struct {
	bs  *BootSector
	dev blockdev.Device

	entries []uint32
	dirty   bitmap.Bitmap
}

func loadTable(dev blockdev.Device, bs *BootSector) (*table, *vfs.Errno) {
	t := &table{
		bs:      bs,
		dev:     dev,
		entries: make([]uint32, bs.TotalClusters+2),
		dirty:   bitmap.New(int(bs.TotalClusters + 2)),
	}

	entrySize := t.entrySize()
	fatBytes := bs.FATSizeSectors * bs.BytesPerSector
	raw := make([]byte, fatBytes)

	startSector := int64(bs.ReservedSectors)
	if err := readSectors(dev, startSector, raw); err != nil {
		return nil, vfs.NewErrnof(vfs.ErrIO, "reading FAT: %v", err)
	}

	for i := range t.entries {
		off := i * entrySize
		if off+entrySize > len(raw) {
			break
		}
		if entrySize == fat16EntrySize {
			t.entries[i] = uint32(binary.LittleEndian.Uint16(raw[off : off+2]))
		} else {
			t.entries[i] = binary.LittleEndian.Uint32(raw[off:off+4]) & fat32ClusterMask
		}
	}

	return t, nil
}

func (t *table) entrySize() int {
	if t.bs.Variant == VariantFAT32 {
		return fat32EntrySize
	}
	return fat16EntrySize
}

func (t *table) isEndOfChain(entry uint32) bool {
	if t.bs.Variant == VariantFAT32 {
		return entry >= 0x0FFFFFF8
	}
	return entry >= 0xFFF8
}

func (t *table) isFree(entry uint32) bool {
	return entry == 0
}

// get returns the next cluster in the chain after cluster, or an end-of-chain
// flag.
func (t *table) get(cluster uint32) (next uint32, eof bool, errno *vfs.Errno) {
	if int64(cluster) < 2 || int64(cluster) >= int64(len(t.entries)) {
		return 0, false, vfs.NewErrnof(vfs.ErrIO, "cluster %d out of range", cluster)
	}
	entry := t.entries[cluster]
	if t.isEndOfChain(entry) {
		return 0, true, nil
	}
	return entry, false, nil
}

func (t *table) set(cluster, value uint32) {
	t.entries[cluster] = value
	t.dirty.Set(int(cluster), true)
}

// chain returns the full ordered cluster list starting at start.
func (t *table) chain(start uint32) ([]uint32, *vfs.Errno) {
	var out []uint32
	cur := start
	seen := make(map[uint32]bool)
	for {
		if seen[cur] {
			return nil, vfs.NewErrnof(vfs.ErrIO, "cluster chain loop detected at cluster %d", cur)
		}
		seen[cur] = true
		out = append(out, cur)

		next, eof, errno := t.get(cur)
		if errno != nil {
			return nil, errno
		}
		if eof {
			break
		}
		cur = next
	}
	return out, nil
}

// allocate finds a free cluster via linear scan starting at cluster 2 (no
// FSInfo hint), marks it end-of-chain, and returns it. Returns ErrNoSpace
// when the volume is full.
func (t *table) allocate() (uint32, *vfs.Errno) {
	total := uint32(len(t.entries))
	for candidate := uint32(2); candidate < total; candidate++ {
		if t.isFree(t.entries[candidate]) {
			t.set(candidate, clusterEOFMarker)
			return candidate, nil
		}
	}
	return 0, vfs.NewErrnof(vfs.ErrNoSpace, "no free clusters available")
}

// extend appends a newly-allocated cluster to the chain ending at last.
func (t *table) extend(last uint32) (uint32, *vfs.Errno) {
	next, errno := t.allocate()
	if errno != nil {
		return 0, errno
	}
	t.set(last, next)
	return next, nil
}

// free releases every cluster in the chain starting at start.
func (t *table) free(start uint32) *vfs.Errno {
	clusters, errno := t.chain(start)
	if errno != nil {
		return errno
	}
	for _, c := range clusters {
		t.set(c, 0)
	}
	return nil
}

// flush writes every dirty entry to all NumFATs mirrors. Per spec, a
// mirror write failure is collected and reported but does not abort
// writes to the remaining mirrors.
func (t *table) flush() *vfs.Errno {
	entrySize := t.entrySize()
	fatBytes := t.bs.FATSizeSectors * t.bs.BytesPerSector
	raw := make([]byte, fatBytes)

	startSector := int64(t.bs.ReservedSectors)
	if err := readSectors(t.dev, startSector, raw); err != nil {
		return vfs.NewErrnof(vfs.ErrIO, "reading FAT before flush: %v", err)
	}

	for i, v := range t.entries {
		if !t.dirty.Get(i) {
			continue
		}
		off := i * entrySize
		if off+entrySize > len(raw) {
			continue
		}
		if entrySize == fat16EntrySize {
			binary.LittleEndian.PutUint16(raw[off:off+2], uint16(v))
		} else {
			existing := binary.LittleEndian.Uint32(raw[off : off+4])
			merged := (v & fat32ClusterMask) | (existing &^ fat32ClusterMask)
			binary.LittleEndian.PutUint32(raw[off:off+4], merged)
		}
	}

	var merr *multierror.Error
	for mirror := 0; mirror < t.bs.NumFATs; mirror++ {
		sector := startSector + int64(mirror*t.bs.FATSizeSectors)
		if err := writeSectors(t.dev, sector, raw); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("mirror %d: %w", mirror, err))
		}
	}

	if merr == nil {
		t.dirty = bitmap.New(len(t.entries))
		return nil
	}
	return vfs.NewErrnof(vfs.ErrIO, "flushing FAT mirrors: %v", merr.ErrorOrNil())
}

func readSectors(dev blockdev.Device, sector int64, buf []byte) error {
	return dev.ReadAt(sector, buf)
}

func writeSectors(dev blockdev.Device, sector int64, buf []byte) error {
	return dev.WriteAt(sector, buf)
}
