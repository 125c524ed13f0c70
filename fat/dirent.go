package fat

import (
	"encoding/binary"
	"time"
)

const direntSize = 32

// dirent is the decoded form of a 32-byte FAT directory entry.
type dirent struct {
	name         [11]byte
	attrs        uint8
	firstCluster uint32
	size         uint32

	modTime time.Time

	// slot is this entry's index within its parent directory's entry
	// stream, needed when writing the entry back.
	slot int
}

func (d *dirent) isDirectory() bool {
	return d.attrs&AttrDirectory != 0
}

func (d *dirent) isVolumeLabel() bool {
	return d.attrs&AttrVolumeID != 0
}

func (d *dirent) isLongNamePart() bool {
	return d.attrs&AttrLongName == AttrLongName
}

func decodeDirent(buf []byte, slot int) dirent {
	var d dirent
	copy(d.name[:], buf[0:11])
	d.attrs = buf[11]

	clusterHigh := binary.LittleEndian.Uint16(buf[20:22])
	clusterLow := binary.LittleEndian.Uint16(buf[26:28])
	d.firstCluster = uint32(clusterHigh)<<16 | uint32(clusterLow)

	d.size = binary.LittleEndian.Uint32(buf[28:32])

	date := binary.LittleEndian.Uint16(buf[24:26])
	timeField := binary.LittleEndian.Uint16(buf[22:24])
	d.modTime = fatTimeToGo(date, timeField)

	d.slot = slot
	return d
}

func encodeDirent(d dirent, buf []byte) {
	for i := range buf[:direntSize] {
		buf[i] = 0
	}
	copy(buf[0:11], d.name[:])
	buf[11] = d.attrs

	clusterHigh := uint16(d.firstCluster >> 16)
	clusterLow := uint16(d.firstCluster & 0xFFFF)
	binary.LittleEndian.PutUint16(buf[20:22], clusterHigh)
	binary.LittleEndian.PutUint16(buf[26:28], clusterLow)

	binary.LittleEndian.PutUint32(buf[28:32], d.size)

	date, timeField := goTimeToFAT(d.modTime)
	binary.LittleEndian.PutUint16(buf[24:26], date)
	binary.LittleEndian.PutUint16(buf[22:24], timeField)
}

// markDeleted sets the name's first byte to the deleted-entry sentinel,
// matching the in-place delete behavior other FAT drivers use: the slot
// is reusable but the rest of the entry is left untouched until reuse.
func markDeleted(buf []byte) {
	buf[0] = direntDeletedMarker
}

func isFreeDirentByte(b byte) bool {
	return b == direntFreeMarker
}

func isDeletedDirentByte(b byte) bool {
	return b == direntDeletedMarker
}

// fatTimeToGo decodes the packed MS-DOS date/time pair into a time.Time.
// Bit layout per spec: date = yyyyyyy mmmm ddddd (year bias 1980); time =
// hhhhh mmmmmm sssss (seconds in 2-second units).
func fatTimeToGo(date, timeField uint16) time.Time {
	year := int(date>>9) + 1980
	month := int((date >> 5) & 0xF)
	day := int(date & 0x1F)

	hour := int(timeField >> 11)
	minute := int((timeField >> 5) & 0x3F)
	second := int(timeField&0x1F) * 2

	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
}

func goTimeToFAT(t time.Time) (date, timeField uint16) {
	if t.IsZero() {
		t = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	year := t.Year() - 1980
	if year < 0 {
		year = 0
	}
	date = uint16(year)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
	timeField = uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second()/2)
	return date, timeField
}
