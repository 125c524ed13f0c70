package fat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-vfskit/vfskit/vfs"
)

func openFileFor(t *testing.T, vol *volume, ino *vfs.Inode, flags vfs.OpenFlags) *vfs.OpenFile {
	t.Helper()
	file := &vfs.OpenFile{
		Inode: ino,
		Flags: flags,
	}
	require.Nil(t, operations.Open(file))
	return file
}

func TestFileWriteRead_SingleCluster(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	ino, errno := operations.Create(root, "A.TXT", vfs.ModePermMask)
	require.Nil(t, errno)

	file := openFileFor(t, vol, ino, vfs.O_RDWR)
	n, errno := operations.Write(file, []byte("abc"))
	require.Nil(t, errno)
	require.Equal(t, 3, n)
	require.EqualValues(t, 3, ino.Stat().Size)

	file.Position = 0
	buf := make([]byte, 16)
	n, errno = operations.Read(file, buf)
	require.Nil(t, errno)
	require.Equal(t, "abc", string(buf[:n]))
}

func TestFileWrite_ExtendsAcrossClusters(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	ino, errno := operations.Create(root, "BIG.BIN", vfs.ModePermMask)
	require.Nil(t, errno)

	file := openFileFor(t, vol, ino, vfs.O_RDWR)
	content := make([]byte, 1500) // spans multiple 512-byte clusters
	for i := range content {
		content[i] = byte(i)
	}
	n, errno := operations.Write(file, content)
	require.Nil(t, errno)
	require.Equal(t, len(content), n)

	file.Position = 0
	buf := make([]byte, len(content))
	n, errno = operations.Read(file, buf)
	require.Nil(t, errno)
	require.Equal(t, content, buf[:n])
}

func TestFileRead_PastEOFReturnsZero(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	ino, errno := operations.Create(root, "EMPTY.TXT", vfs.ModePermMask)
	require.Nil(t, errno)
	file := openFileFor(t, vol, ino, vfs.O_RDONLY)

	buf := make([]byte, 16)
	n, errno := operations.Read(file, buf)
	require.Nil(t, errno)
	require.Zero(t, n)
}

func TestFileSeek_SetCurEnd(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	ino, errno := operations.Create(root, "S.TXT", vfs.ModePermMask)
	require.Nil(t, errno)
	file := openFileFor(t, vol, ino, vfs.O_RDWR)
	_, errno = operations.Write(file, []byte("0123456789"))
	require.Nil(t, errno)

	pos, errno := operations.Seek(file, 3, vfs.SeekSet)
	require.Nil(t, errno)
	require.EqualValues(t, 3, pos)

	pos, errno = operations.Seek(file, 2, vfs.SeekCur)
	require.Nil(t, errno)
	require.EqualValues(t, 5, pos)

	pos, errno = operations.Seek(file, 0, vfs.SeekEnd)
	require.Nil(t, errno)
	require.EqualValues(t, 10, pos)
}

func TestFileSeek_RejectsNegativeResult(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	ino, errno := operations.Create(root, "N.TXT", vfs.ModePermMask)
	require.Nil(t, errno)
	file := openFileFor(t, vol, ino, vfs.O_RDWR)

	_, errno = operations.Seek(file, -1, vfs.SeekSet)
	require.NotNil(t, errno)
}

func TestFileOpen_TruncateFreesClusters(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	ino, errno := operations.Create(root, "T.TXT", vfs.ModePermMask)
	require.Nil(t, errno)
	file := openFileFor(t, vol, ino, vfs.O_RDWR)
	_, errno = operations.Write(file, []byte("some content"))
	require.Nil(t, errno)
	firstCluster := ino.Private.(*inodeInfo).firstCluster
	require.NotZero(t, firstCluster)

	truncFile := &vfs.OpenFile{Inode: ino, Flags: vfs.O_RDWR | vfs.O_TRUNC}
	require.Nil(t, operations.Open(truncFile))
	require.Zero(t, ino.Stat().Size)
	require.True(t, vol.fat.isFree(vol.fat.entries[firstCluster]))
}

func TestFileRelease_NoError(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	ino, errno := operations.Create(root, "R.TXT", vfs.ModePermMask)
	require.Nil(t, errno)
	file := openFileFor(t, vol, ino, vfs.O_RDONLY)
	require.Nil(t, operations.Release(file))
}
