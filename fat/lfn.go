package fat

import "encoding/binary"

// longNameEntry is one 32-byte VFAT long-name directory entry: up to 13
// UTF-16 characters of a name fragment, plus a sequence number and a
// checksum over the short name it decorates.
type longNameEntry struct {
	sequence  uint8
	name1     [5]uint16
	checksum  uint8
	name2     [6]uint16
	name3     [2]uint16
}

const lfnLastEntryFlag = 0x40

func decodeLongNameEntry(buf []byte) longNameEntry {
	var e longNameEntry
	e.sequence = buf[0]
	for i := 0; i < 5; i++ {
		e.name1[i] = binary.LittleEndian.Uint16(buf[1+i*2 : 3+i*2])
	}
	e.checksum = buf[13]
	for i := 0; i < 6; i++ {
		e.name2[i] = binary.LittleEndian.Uint16(buf[14+i*2 : 16+i*2])
	}
	for i := 0; i < 2; i++ {
		e.name3[i] = binary.LittleEndian.Uint16(buf[28+i*2 : 30+i*2])
	}
	return e
}

func (e longNameEntry) chars() []uint16 {
	out := make([]uint16, 0, 13)
	out = append(out, e.name1[:]...)
	out = append(out, e.name2[:]...)
	out = append(out, e.name3[:]...)
	return out
}

func shortNameChecksum(raw [11]byte) uint8 {
	var sum uint8
	for _, b := range raw {
		sum = ((sum & 1) << 7) + (sum >> 1) + b
	}
	return sum
}

// reconstructLongNames scans a directory's raw entry stream and returns,
// for every short entry slot preceded by a valid run of long-name parts, the
// reconstructed UTF-16-decoded name. This is read-only: the driver never
// writes long-name entries itself, per scope.
func reconstructLongNames(data []byte) map[int]string {
	names := make(map[int]string)

	var pending []longNameEntry
	for slot := 0; (slot+1)*direntSize <= len(data); slot++ {
		buf := data[slot*direntSize : (slot+1)*direntSize]
		if isFreeDirentByte(buf[0]) {
			break
		}
		if isDeletedDirentByte(buf[0]) {
			pending = nil
			continue
		}

		attrs := buf[11]
		if attrs&AttrLongName == AttrLongName {
			pending = append(pending, decodeLongNameEntry(buf))
			continue
		}

		if len(pending) == 0 {
			continue
		}

		d := decodeDirent(buf, slot)
		if name, ok := assembleLongName(pending, shortNameChecksum(d.name)); ok {
			names[slot] = name
		}
		pending = nil
	}

	return names
}

// assembleLongName takes a run of long-name parts in on-disk order
// (descending sequence number, the 0x40-flagged part first), puts them into
// name order, checks that the sequence numbers run 1..n with the last part
// flagged, validates each entry's checksum against the short name it
// decorates, and decodes the UTF-16 characters. It reports false if the
// run is inconsistent, in which case the caller falls back to the short
// name.
func assembleLongName(parts []longNameEntry, expectedChecksum uint8) (string, bool) {
	ordered := make([]longNameEntry, len(parts))
	copy(ordered, parts)
	// Entries appear highest-sequence-first on disk (the 0x40-flagged part
	// comes first); reverse into name order.
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}

	if ordered[len(ordered)-1].sequence&lfnLastEntryFlag == 0 {
		return "", false
	}

	var units []uint16
	for i, part := range ordered {
		if part.checksum != expectedChecksum {
			return "", false
		}
		if int(part.sequence&^lfnLastEntryFlag) != i+1 {
			return "", false
		}
		units = append(units, part.chars()...)
	}

	runes := make([]rune, 0, len(units))
	for _, u := range units {
		if u == 0x0000 || u == 0xFFFF {
			break
		}
		runes = append(runes, rune(u))
	}
	if len(runes) == 0 {
		return "", false
	}
	return string(runes), true
}
