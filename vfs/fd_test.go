package vfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-vfskit/vfskit/ramfs"
	"github.com/go-vfskit/vfskit/vfs"
)

func TestFD_ExhaustionReturnsErrNoMemory(t *testing.T) {
	v := vfs.New(2)
	require.Nil(t, v.RegisterFileSystem(ramfs.FileSystemType))
	require.Nil(t, v.Mount("", "/", "ramfs", 0, nil))

	_, errno := v.Open("/a.txt", vfs.O_RDWR|vfs.O_CREAT, vfs.ModePermMask)
	require.Nil(t, errno)
	_, errno = v.Open("/b.txt", vfs.O_RDWR|vfs.O_CREAT, vfs.ModePermMask)
	require.Nil(t, errno)

	_, errno = v.Open("/c.txt", vfs.O_RDWR|vfs.O_CREAT, vfs.ModePermMask)
	require.NotNil(t, errno)
	require.Equal(t, vfs.ErrNoMemory, errno.Code)
}

func TestFD_FreedSlotIsReused(t *testing.T) {
	v := vfs.New(1)
	require.Nil(t, v.RegisterFileSystem(ramfs.FileSystemType))
	require.Nil(t, v.Mount("", "/", "ramfs", 0, nil))

	fd1, errno := v.Open("/a.txt", vfs.O_RDWR|vfs.O_CREAT, vfs.ModePermMask)
	require.Nil(t, errno)
	require.Nil(t, v.Close(fd1))

	fd2, errno := v.Open("/b.txt", vfs.O_RDWR|vfs.O_CREAT, vfs.ModePermMask)
	require.Nil(t, errno)
	require.Equal(t, fd1, fd2)
}

func TestFD_CloseUnknownFDFails(t *testing.T) {
	v := vfs.New(4)
	errno := v.Close(99)
	require.NotNil(t, errno)
	require.Equal(t, vfs.ErrBadFileDescriptor, errno.Code)
}

func TestFD_ReadRequiresReadablePermission(t *testing.T) {
	v := vfs.New(4)
	require.Nil(t, v.RegisterFileSystem(ramfs.FileSystemType))
	require.Nil(t, v.Mount("", "/", "ramfs", 0, nil))

	fd, errno := v.Open("/wo.txt", vfs.O_WRONLY|vfs.O_CREAT, vfs.ModePermMask)
	require.Nil(t, errno)

	buf := make([]byte, 4)
	_, errno = v.Read(fd, buf)
	require.NotNil(t, errno)
	require.Equal(t, vfs.ErrPermission, errno.Code)
}

func TestFD_WriteRequiresWritablePermission(t *testing.T) {
	v := vfs.New(4)
	require.Nil(t, v.RegisterFileSystem(ramfs.FileSystemType))
	require.Nil(t, v.Mount("", "/", "ramfs", 0, nil))

	fd, errno := v.Open("/ro.txt", vfs.O_RDONLY|vfs.O_CREAT, vfs.ModePermMask)
	require.Nil(t, errno)

	_, errno = v.Write(fd, []byte("x"))
	require.NotNil(t, errno)
	require.Equal(t, vfs.ErrPermission, errno.Code)
}

func TestFD_OpenFileCountTracksBalance(t *testing.T) {
	v := vfs.New(4)
	require.Nil(t, v.RegisterFileSystem(ramfs.FileSystemType))
	require.Nil(t, v.Mount("", "/", "ramfs", 0, nil))

	require.Zero(t, v.OpenFileCount())
	fd, errno := v.Open("/n.txt", vfs.O_RDWR|vfs.O_CREAT, vfs.ModePermMask)
	require.Nil(t, errno)
	require.Equal(t, 1, v.OpenFileCount())
	require.Nil(t, v.Close(fd))
	require.Zero(t, v.OpenFileCount())
}
