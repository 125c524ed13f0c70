package fat

import (
	"strings"

	"github.com/go-vfskit/vfskit/vfs"
)

// asciiUpper/asciiLower case-fold only plain ASCII letters, byte by byte.
// 8.3 names are raw OEM-codepage bytes, not UTF-8, so strings.ToUpper's
// rune-aware case folding would corrupt any byte >= 0x80 -- including the
// 0x05/0xE5 escape byte this package relies on.
func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// nameTo83 converts a user-supplied filename into the fixed 8.3 on-disk
// form: 8 bytes of name, 3 bytes of extension, both space-padded, both
// upper-cased. Names longer than the 8/3 halves are truncated, not
// rejected -- e.g. "verylongfilename.extension" becomes "VERYLONGEXT".
func nameTo83(name string) ([11]byte, *vfs.Errno) {
	var out [11]byte
	for i := range out {
		out[i] = ' '
	}

	if name == "" || name == "." || name == ".." {
		return out, vfs.NewErrnof(vfs.ErrInvalidArgument, "invalid name %q", name)
	}
	if strings.ContainsAny(name, "\x00/\\") {
		return out, vfs.NewErrnof(vfs.ErrInvalidArgument, "name %q contains invalid characters", name)
	}

	base := name
	ext := ""
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		base = name[:idx]
		ext = name[idx+1:]
	}

	if len(base) == 0 {
		return out, vfs.NewErrnof(vfs.ErrInvalidArgument, "invalid name %q", name)
	}

	if len(base) > 8 {
		base = base[:8]
	}
	if len(ext) > 3 {
		ext = ext[:3]
	}

	base = asciiUpper(base)
	ext = asciiUpper(ext)

	copy(out[0:8], base)
	copy(out[8:11], ext)

	// A leading 0xE5 in the on-disk byte means "deleted"; names that start
	// with that byte literally are stored with 0x05 substituted.
	if out[0] == direntDeletedMarker {
		out[0] = direntEscapedE5Marker
	}

	return out, nil
}

// nameFrom83 reconstructs the display name from the fixed 11-byte field.
func nameFrom83(raw [11]byte) string {
	name := make([]byte, 11)
	copy(name, raw[:])
	if name[0] == direntEscapedE5Marker {
		name[0] = direntDeletedMarker
	}

	base := strings.TrimRight(string(name[0:8]), " ")
	ext := strings.TrimRight(string(name[8:11]), " ")

	base = asciiLower(base)
	ext = asciiLower(ext)

	if ext == "" {
		return base
	}
	return base + "." + ext
}
