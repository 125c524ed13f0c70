package blockdev_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-vfskit/vfskit/blockdev"
)

func TestFileDevice_CreateThenReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")

	dev, err := blockdev.CreateFileDevice(path, 16, 512)
	require.NoError(t, err)
	require.EqualValues(t, 512, dev.SectorSize())
	require.EqualValues(t, 16, dev.SectorCount())

	payload := make([]byte, 512)
	copy(payload, "hello disk")
	require.NoError(t, dev.WriteAt(2, payload))
	require.NoError(t, dev.Close())

	reopened, err := blockdev.OpenFileDevice(path, 512)
	require.NoError(t, err)
	defer reopened.Close()

	readBack := make([]byte, 512)
	require.NoError(t, reopened.ReadAt(2, readBack))
	require.Equal(t, payload, readBack)
}

func TestFileDevice_OpenRejectsMisalignedLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	dev, err := blockdev.CreateFileDevice(path, 1, 500)
	require.NoError(t, err)
	require.NoError(t, dev.Close())

	_, err = blockdev.OpenFileDevice(path, 512)
	require.Error(t, err)
}

func TestFileDevice_RejectsOutOfBoundsAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.bin")
	dev, err := blockdev.CreateFileDevice(path, 2, 512)
	require.NoError(t, err)
	defer dev.Close()

	buf := make([]byte, 512)
	require.Error(t, dev.ReadAt(5, buf))
	require.Error(t, dev.WriteAt(5, buf))
}
