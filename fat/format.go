package fat

import (
	"encoding/binary"
	"io"

	"github.com/noxer/bytewriter"

	"github.com/go-vfskit/vfskit/blockdev"
	"github.com/go-vfskit/vfskit/vfs"
)

// FormatOptions controls the geometry of a freshly formatted volume. Zero
// values for SectorsPerCluster/NumFATs/RootEntryCount fall back to
// conservative defaults (1, 2 and defaultRootEntryCount).
type FormatOptions struct {
	Variant           Variant
	SectorsPerCluster int
	NumFATs           int
	RootEntryCount    int // FAT16 only; ignored for FAT32
	VolumeLabel       string
}

const defaultRootEntryCount = 512

// Format writes a fresh boot sector, zeroed FAT mirrors, and an empty root
// directory to dev, turning it into a mountable FAT volume. It fails with
// ErrInvalidArgument, before writing anything, when the geometry yields a
// cluster count that mounting would not classify as the requested variant.
// It does not mount the result; callers pass the same device to
// vfs.VFS.Mount afterward.
func Format(dev blockdev.Device, opts FormatOptions) *vfs.Errno {
	if opts.SectorsPerCluster == 0 {
		opts.SectorsPerCluster = 1
	}
	if opts.NumFATs == 0 {
		opts.NumFATs = 2
	}
	if opts.RootEntryCount == 0 {
		opts.RootEntryCount = defaultRootEntryCount
	}

	bytesPerSector := dev.SectorSize()
	totalSectors := dev.SectorCount()

	reservedSectors := 1
	if opts.Variant == VariantFAT32 {
		reservedSectors = 32
	}

	rootDirSectors := 0
	if opts.Variant != VariantFAT32 {
		rootDirSectors = ((opts.RootEntryCount * direntSize) + bytesPerSector - 1) / bytesPerSector
	}

	entrySize := fat16EntrySize
	if opts.Variant == VariantFAT32 {
		entrySize = fat32EntrySize
	}

	fatSizeSectors := 1
	for iter := 0; iter < 8; iter++ {
		dataSectors := totalSectors - int64(reservedSectors+rootDirSectors) - int64(opts.NumFATs*fatSizeSectors)
		if dataSectors < 0 {
			dataSectors = 0
		}
		clusters := dataSectors / int64(opts.SectorsPerCluster)
		needed := int((clusters*int64(entrySize) + int64(bytesPerSector) - 1) / int64(bytesPerSector))
		if needed < 1 {
			needed = 1
		}
		if needed == fatSizeSectors {
			break
		}
		fatSizeSectors = needed
	}

	clusters := (totalSectors - int64(reservedSectors+rootDirSectors) - int64(opts.NumFATs*fatSizeSectors)) / int64(opts.SectorsPerCluster)
	if opts.Variant == VariantFAT32 && clusters < 65525 || opts.Variant != VariantFAT32 && (clusters < 4085 || clusters >= 65525) {
		return vfs.NewErrnof(vfs.ErrInvalidArgument, "geometry yields %d clusters, outside the range of the requested FAT variant", clusters)
	}

	rootCluster := uint32(2)

	boot := make([]byte, bytesPerSector)
	encodeBootSector(boot, opts, bytesPerSector, reservedSectors, fatSizeSectors, totalSectors, rootCluster)
	if err := dev.WriteAt(0, boot); err != nil {
		return vfs.NewErrnof(vfs.ErrIO, "writing boot sector: %v", err)
	}

	fatBytes := fatSizeSectors * bytesPerSector
	fatBuf := make([]byte, fatBytes)
	writer := bytewriter.New(fatBuf)
	writeReservedFATEntries(writer, opts.Variant)

	if opts.Variant == VariantFAT32 {
		// Root directory occupies cluster 2, so mark it end-of-chain up front.
		markClusterEndOfChain(fatBuf, 2, opts.Variant)
	}

	for mirror := 0; mirror < opts.NumFATs; mirror++ {
		sector := int64(reservedSectors + mirror*fatSizeSectors)
		if err := dev.WriteAt(sector, fatBuf); err != nil {
			return vfs.NewErrnof(vfs.ErrIO, "writing FAT mirror %d: %v", mirror, err)
		}
	}

	if opts.Variant == VariantFAT32 {
		rootSector := int64(reservedSectors) + int64(opts.NumFATs*fatSizeSectors) + int64(rootCluster-2)*int64(opts.SectorsPerCluster)
		zeroed := make([]byte, opts.SectorsPerCluster*bytesPerSector)
		if err := dev.WriteAt(rootSector, zeroed); err != nil {
			return vfs.NewErrnof(vfs.ErrIO, "zeroing FAT32 root directory cluster: %v", err)
		}
	} else {
		rootSector := int64(reservedSectors + opts.NumFATs*fatSizeSectors)
		zeroed := make([]byte, rootDirSectors*bytesPerSector)
		if err := dev.WriteAt(rootSector, zeroed); err != nil {
			return vfs.NewErrnof(vfs.ErrIO, "zeroing root directory region: %v", err)
		}
	}

	return nil
}

func writeReservedFATEntries(w io.Writer, variant Variant) {
	if variant == VariantFAT32 {
		binary.Write(w, binary.LittleEndian, uint32(0x0FFFFFF8))
		binary.Write(w, binary.LittleEndian, uint32(0x0FFFFFFF))
		return
	}
	binary.Write(w, binary.LittleEndian, uint16(0xFFF8))
	binary.Write(w, binary.LittleEndian, uint16(0xFFFF))
}

func markClusterEndOfChain(fatBuf []byte, cluster uint32, variant Variant) {
	entrySize := fat16EntrySize
	if variant == VariantFAT32 {
		entrySize = fat32EntrySize
	}
	off := int(cluster) * entrySize
	if off+entrySize > len(fatBuf) {
		return
	}
	if variant == VariantFAT32 {
		binary.LittleEndian.PutUint32(fatBuf[off:off+4], 0x0FFFFFFF)
	} else {
		binary.LittleEndian.PutUint16(fatBuf[off:off+2], 0xFFFF)
	}
}

func encodeBootSector(buf []byte, opts FormatOptions, bytesPerSector, reservedSectors, fatSizeSectors int, totalSectors int64, rootCluster uint32) {
	buf[0], buf[1], buf[2] = 0xEB, 0x3C, 0x90
	copy(buf[3:11], "VFSKIT1 ")

	binary.LittleEndian.PutUint16(buf[11:13], uint16(bytesPerSector))
	buf[13] = byte(opts.SectorsPerCluster)
	binary.LittleEndian.PutUint16(buf[14:16], uint16(reservedSectors))
	buf[16] = byte(opts.NumFATs)

	rootEntries := opts.RootEntryCount
	if opts.Variant == VariantFAT32 {
		rootEntries = 0
	}
	binary.LittleEndian.PutUint16(buf[17:19], uint16(rootEntries))

	if totalSectors < 0x10000 {
		binary.LittleEndian.PutUint16(buf[19:21], uint16(totalSectors))
	} else {
		binary.LittleEndian.PutUint32(buf[32:36], uint32(totalSectors))
	}

	buf[21] = 0xF8 // fixed disk

	if opts.Variant == VariantFAT32 {
		binary.LittleEndian.PutUint32(buf[36:40], uint32(fatSizeSectors))
		binary.LittleEndian.PutUint32(buf[44:48], rootCluster)
		binary.LittleEndian.PutUint16(buf[48:50], 1) // FSInfo sector
		binary.LittleEndian.PutUint16(buf[50:52], 6) // backup boot sector
	} else {
		binary.LittleEndian.PutUint16(buf[22:24], uint16(fatSizeSectors))
	}

	binary.LittleEndian.PutUint16(buf[bootSignatureOffset:bootSignatureOffset+2], bootSignature)
}
