package vfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-vfskit/vfskit/ramfs"
	"github.com/go-vfskit/vfskit/vfs"
)

func TestRegisterFileSystem_DuplicateNameRejected(t *testing.T) {
	v := vfs.New(8)
	require.Nil(t, v.RegisterFileSystem(ramfs.FileSystemType))

	errno := v.RegisterFileSystem(ramfs.FileSystemType)
	require.NotNil(t, errno)
	require.Equal(t, vfs.ErrExists, errno.Code)
}

func TestUnregisterFileSystem_BusyWhileMounted(t *testing.T) {
	v := vfs.New(8)
	require.Nil(t, v.RegisterFileSystem(ramfs.FileSystemType))
	require.Nil(t, v.Mount("", "/", "ramfs", 0, nil))

	errno := v.UnregisterFileSystem("ramfs")
	require.NotNil(t, errno)
	require.Equal(t, vfs.ErrBusy, errno.Code)
}

func TestMount_RootTwiceRejected(t *testing.T) {
	v := vfs.New(8)
	require.Nil(t, v.RegisterFileSystem(ramfs.FileSystemType))
	require.Nil(t, v.Mount("", "/", "ramfs", 0, nil))

	errno := v.Mount("", "/", "ramfs", 0, nil)
	require.NotNil(t, errno)
	require.Equal(t, vfs.ErrExists, errno.Code)
}

func TestMount_UnknownFileSystemName(t *testing.T) {
	v := vfs.New(8)
	errno := v.Mount("", "/", "nonexistent", 0, nil)
	require.NotNil(t, errno)
	require.Equal(t, vfs.ErrNotFound, errno.Code)
}

func TestStats_TrackOpenReadWrite(t *testing.T) {
	v := vfs.New(8)
	require.Nil(t, v.RegisterFileSystem(ramfs.FileSystemType))
	require.Nil(t, v.Mount("", "/", "ramfs", 0, nil))

	fd, errno := v.Open("/f.txt", vfs.O_RDWR|vfs.O_CREAT, vfs.ModePermMask)
	require.Nil(t, errno)
	_, errno = v.Write(fd, []byte("data"))
	require.Nil(t, errno)
	_, errno = v.Seek(fd, 0, vfs.SeekSet)
	require.Nil(t, errno)
	buf := make([]byte, 4)
	_, errno = v.Read(fd, buf)
	require.Nil(t, errno)
	require.Nil(t, v.Close(fd))

	stats := v.Stats()
	require.EqualValues(t, 1, stats.OpenCalls)
	require.EqualValues(t, 1, stats.WriteCalls)
	require.EqualValues(t, 1, stats.ReadCalls)
	require.EqualValues(t, 4, stats.WriteBytes)
	require.EqualValues(t, 4, stats.ReadBytes)
}

func TestShutdown_ClosesOpenFilesAndUnmounts(t *testing.T) {
	v := vfs.New(8)
	require.Nil(t, v.RegisterFileSystem(ramfs.FileSystemType))
	require.Nil(t, v.Mount("", "/", "ramfs", 0, nil))

	fd, errno := v.Open("/x.txt", vfs.O_RDWR|vfs.O_CREAT, vfs.ModePermMask)
	require.Nil(t, errno)
	_ = fd

	require.Nil(t, v.Shutdown())
	require.Zero(t, v.OpenFileCount())
}

func TestShutdown_IsIdempotent(t *testing.T) {
	v := vfs.New(8)
	require.Nil(t, v.Shutdown())
	require.Nil(t, v.Shutdown())
}
