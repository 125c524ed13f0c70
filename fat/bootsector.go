package fat

import (
	"encoding/binary"

	"github.com/go-vfskit/vfskit/vfs"
)

// Variant distinguishes the two FAT table entry widths this driver
// supports. FAT12 is detected but rejected at mount, per spec.
type Variant int

const (
	VariantFAT16 Variant = 16
	VariantFAT32 Variant = 32
)

const bootSectorSize = 512
const bootSignatureOffset = 510
const bootSignature = 0xAA55

// rawBootSector is the on-disk Microsoft BPB layout, byte for byte. Field
// offsets match spec.md's external interface table exactly.
type rawBootSector struct {
	JmpBoot         [3]byte
	OEMName         [8]byte
	BytesPerSector  uint16
	SecPerCluster   uint8
	ReservedSectors uint16
	NumFATs         uint8
	RootEntryCount  uint16
	TotalSectors16  uint16
	Media           uint8
	FATSize16       uint16
	SecPerTrack     uint16
	NumHeads        uint16
	HiddenSectors   uint32
	TotalSectors32  uint32

	// FAT32-only extended BPB fields.
	FATSize32      uint32
	ExtFlags       uint16
	FSVersion      uint16
	RootCluster    uint32
	FSInfoSector   uint16
	BackupBootSec  uint16
}

// BootSector is the fully parsed, derived-field-enriched boot sector.
type BootSector struct {
	raw rawBootSector

	Variant           Variant
	BytesPerSector    int
	SectorsPerCluster int
	ReservedSectors   int
	NumFATs           int
	RootEntryCount    int
	FATSizeSectors    int
	TotalSectors      int64
	RootDirSectors    int
	FirstDataSector   int64
	TotalClusters     int64
	RootCluster       uint32 // FAT32 only
	BytesPerCluster   int
}

// parseBootSector reads 512 raw bytes and validates them per spec.md
// §4.2.1, then computes every derived field per the FAT-variant-determination
// rule in §4.2.1/§4.2.2.
func parseBootSector(data []byte) (*BootSector, *vfs.Errno) {
	if len(data) < bootSectorSize {
		return nil, vfs.NewErrnof(vfs.ErrIO, "boot sector read returned only %d bytes", len(data))
	}

	signature := binary.LittleEndian.Uint16(data[bootSignatureOffset : bootSignatureOffset+2])
	if signature != bootSignature {
		return nil, vfs.NewErrnof(vfs.ErrIO, "bad boot sector signature 0x%04x", signature)
	}

	var raw rawBootSector
	raw.BytesPerSector = binary.LittleEndian.Uint16(data[11:13])
	raw.SecPerCluster = data[13]
	raw.ReservedSectors = binary.LittleEndian.Uint16(data[14:16])
	raw.NumFATs = data[16]
	raw.RootEntryCount = binary.LittleEndian.Uint16(data[17:19])
	raw.TotalSectors16 = binary.LittleEndian.Uint16(data[19:21])
	raw.Media = data[21]
	raw.FATSize16 = binary.LittleEndian.Uint16(data[22:24])
	raw.SecPerTrack = binary.LittleEndian.Uint16(data[24:26])
	raw.NumHeads = binary.LittleEndian.Uint16(data[26:28])
	raw.HiddenSectors = binary.LittleEndian.Uint32(data[28:32])
	raw.TotalSectors32 = binary.LittleEndian.Uint32(data[32:36])
	raw.FATSize32 = binary.LittleEndian.Uint32(data[36:40])
	raw.ExtFlags = binary.LittleEndian.Uint16(data[40:42])
	raw.FSVersion = binary.LittleEndian.Uint16(data[42:44])
	raw.RootCluster = binary.LittleEndian.Uint32(data[44:48])
	raw.FSInfoSector = binary.LittleEndian.Uint16(data[48:50])
	raw.BackupBootSec = binary.LittleEndian.Uint16(data[50:52])

	if err := validateBootSector(&raw); err != nil {
		return nil, err
	}

	bs := &BootSector{
		raw:               raw,
		BytesPerSector:    int(raw.BytesPerSector),
		SectorsPerCluster: int(raw.SecPerCluster),
		ReservedSectors:   int(raw.ReservedSectors),
		NumFATs:           int(raw.NumFATs),
		RootEntryCount:    int(raw.RootEntryCount),
	}

	bs.RootDirSectors = ((bs.RootEntryCount * 32) + (bs.BytesPerSector - 1)) / bs.BytesPerSector

	if raw.FATSize16 != 0 {
		bs.FATSizeSectors = int(raw.FATSize16)
	} else {
		bs.FATSizeSectors = int(raw.FATSize32)
	}

	if raw.TotalSectors16 != 0 {
		bs.TotalSectors = int64(raw.TotalSectors16)
	} else {
		bs.TotalSectors = int64(raw.TotalSectors32)
	}

	dataSectors := bs.TotalSectors -
		int64(bs.ReservedSectors+bs.NumFATs*bs.FATSizeSectors+bs.RootDirSectors)
	bs.TotalClusters = dataSectors / int64(bs.SectorsPerCluster)

	switch {
	case bs.TotalClusters < 4085:
		return nil, vfs.NewErrnof(vfs.ErrNotSupported, "FAT12 volumes are not supported")
	case bs.TotalClusters < 65525:
		bs.Variant = VariantFAT16
	default:
		bs.Variant = VariantFAT32
		bs.RootCluster = raw.RootCluster
	}

	bs.FirstDataSector = int64(bs.ReservedSectors+bs.NumFATs*bs.FATSizeSectors) + int64(bs.RootDirSectors)
	bs.BytesPerCluster = bs.BytesPerSector * bs.SectorsPerCluster
	return bs, nil
}

func validateBootSector(raw *rawBootSector) *vfs.Errno {
	switch raw.BytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		return vfs.NewErrnof(vfs.ErrIO, "invalid bytes-per-sector: %d", raw.BytesPerSector)
	}

	if raw.SecPerCluster == 0 || (raw.SecPerCluster&(raw.SecPerCluster-1)) != 0 {
		return vfs.NewErrnof(vfs.ErrIO, "sectors-per-cluster must be a positive power of two, got %d", raw.SecPerCluster)
	}

	if raw.ReservedSectors == 0 {
		return vfs.NewErrnof(vfs.ErrIO, "reserved sector count must be non-zero")
	}

	if raw.NumFATs == 0 {
		return vfs.NewErrnof(vfs.ErrIO, "FAT count must be non-zero")
	}

	return nil
}

// IsValidBootSector reports whether data parses as a well-formed boot
// sector, without returning the parsed result.
func IsValidBootSector(data []byte) bool {
	_, errno := parseBootSector(data)
	return errno == nil
}

// clusterToSector maps a cluster number to its first sector on the device.
// Invalid (< 2) clusters return an error.
func (bs *BootSector) clusterToSector(cluster uint32) (int64, *vfs.Errno) {
	if cluster < 2 {
		return 0, vfs.NewErrnof(vfs.ErrInvalidArgument, "cluster %d is reserved, never a valid chain member", cluster)
	}
	return bs.FirstDataSector + int64(cluster-2)*int64(bs.SectorsPerCluster), nil
}
