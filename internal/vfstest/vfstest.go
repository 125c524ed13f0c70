// Package vfstest holds test helpers: synthetic block devices, a
// pre-formatted FAT volume builder, and a loader for compressed disk image
// fixtures.
package vfstest

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-vfskit/vfskit/blockdev"
	"github.com/go-vfskit/vfskit/fat"
	"github.com/go-vfskit/vfskit/utilities/compression"
)

// RandomDevice returns a blank device of the given geometry filled with
// random bytes, useful for asserting that formatting overwrites everything
// it's supposed to.
func RandomDevice(t *testing.T, sectorCount int64, sectorSize int) *blockdev.MemDevice {
	data := make([]byte, sectorCount*int64(sectorSize))
	_, err := rand.Read(data)
	require.NoError(t, err)

	dev, err := blockdev.NewMemDevice(data, sectorSize)
	require.NoError(t, err)
	return dev
}

// FormattedDevice builds a blank device and formats it as a FAT volume per
// opts, failing the test on any error.
func FormattedDevice(t *testing.T, sectorCount int64, sectorSize int, opts fat.FormatOptions) *blockdev.MemDevice {
	dev, err := blockdev.NewBlankMemDevice(sectorCount, sectorSize)
	require.NoError(t, err)

	errno := fat.Format(dev, opts)
	require.Nil(t, errno, "formatting fixture device: %v", errno)
	return dev
}

// LoadCompressedImage decompresses an RLE8+gzip fixture image into a block
// device with the given sector size. Compressed fixtures keep the checked-in
// test corpus small; see utilities/compression for the encoding.
func LoadCompressedImage(t *testing.T, compressedImageBytes []byte, sectorSize int, totalSectors int64) *blockdev.MemDevice {
	require.Greater(t, len(compressedImageBytes), 0, "compressed image fixture is empty")

	imageBytes, err := compression.DecompressImageToBytes(bytes.NewReader(compressedImageBytes))
	require.NoError(t, err)
	require.EqualValues(t, totalSectors*int64(sectorSize), len(imageBytes), "uncompressed image is wrong size")

	dev, err := blockdev.NewMemDevice(imageBytes, sectorSize)
	require.NoError(t, err)
	return dev
}
