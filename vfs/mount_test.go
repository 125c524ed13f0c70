package vfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-vfskit/vfskit/ramfs"
	"github.com/go-vfskit/vfskit/vfs"
)

func TestMount_SubpathCrossesIntoMountedRoot(t *testing.T) {
	v := vfs.New(8)
	require.Nil(t, v.RegisterFileSystem(ramfs.FileSystemType))
	require.Nil(t, v.Mount("", "/", "ramfs", 0, nil))
	require.Nil(t, v.Mkdir("/mnt", vfs.ModePermMask))

	require.Nil(t, v.Mount("", "/mnt", "ramfs", 0, nil))

	fd, errno := v.Open("/mnt/inner.txt", vfs.O_RDWR|vfs.O_CREAT, vfs.ModePermMask)
	require.Nil(t, errno)
	require.Nil(t, v.Close(fd))

	// The file lives in the mounted filesystem's own root, and resolving
	// /mnt/inner.txt again crosses into that root and finds it.
	_, errno = v.Stat("/mnt/inner.txt")
	require.Nil(t, errno)
}

func TestMount_AlreadyMountedPointRejected(t *testing.T) {
	v := vfs.New(8)
	require.Nil(t, v.RegisterFileSystem(ramfs.FileSystemType))
	require.Nil(t, v.Mount("", "/", "ramfs", 0, nil))
	require.Nil(t, v.Mkdir("/mnt", vfs.ModePermMask))
	require.Nil(t, v.Mount("", "/mnt", "ramfs", 0, nil))

	errno := v.Mount("", "/mnt", "ramfs", 0, nil)
	require.NotNil(t, errno)
	require.Equal(t, vfs.ErrBusy, errno.Code)
}

func TestUnmount_UnknownPathFails(t *testing.T) {
	v := vfs.New(8)
	errno := v.Unmount("/nope")
	require.NotNil(t, errno)
	require.Equal(t, vfs.ErrNotFound, errno.Code)
}

func TestUnmount_DetachesMountPoint(t *testing.T) {
	v := vfs.New(8)
	require.Nil(t, v.RegisterFileSystem(ramfs.FileSystemType))
	require.Nil(t, v.Mount("", "/", "ramfs", 0, nil))
	require.Nil(t, v.Mkdir("/mnt", vfs.ModePermMask))
	require.Nil(t, v.Mount("", "/mnt", "ramfs", 0, nil))

	require.Nil(t, v.Unmount("/mnt"))

	// Re-mounting at the same point must now succeed again.
	require.Nil(t, v.Mount("", "/mnt", "ramfs", 0, nil))
}
