// Package compression shrinks FAT volume images for use as compact test
// fixtures; internal/vfstest decompresses them.
//
// A freshly formatted FAT volume is mostly zero-filled clusters, so
// run-length encoding the raw image first and then gzipping the result
// compresses dramatically better than gzip alone: a 1.44 MiB floppy image
// with a handful of files on it reduces to a few hundred bytes. This
// document refers strictly to the RLE8 scheme used by the Microsoft BMP
// file format: if a byte B occurs N times where N >= 2, B is written
// twice, followed by a third (unsigned) byte giving how many additional
// times B occurred. For example:
//
//	WXXXXXXXXXXXXXXXYZZ
//	W XX 13 Y ZZ 0
//
// This represents runs of up to 257 bytes in three bytes; longer runs are
// split into multiple three-byte groups (300 "X" becomes "XX 255 XX 41").
// A byte that occurs exactly twice costs one byte more than storing it
// raw, since the scheme always emits the trailing repeat count.
package compression
