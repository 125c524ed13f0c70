package fat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-vfskit/vfskit/vfs"
)

func TestRootInode_IsDirectoryWithOperationsWired(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}

	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)
	require.True(t, root.IsDir())
	require.Same(t, operations, root.InodeOps)
	require.Same(t, operations, root.FileOps)

	info := root.Private.(*inodeInfo)
	require.True(t, info.isRoot)
}

func TestLookup_MissingEntryReturnsNotFound(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	_, errno = operations.Lookup(root, "NOPE.TXT")
	require.NotNil(t, errno)
	require.Equal(t, vfs.ErrNotFound, errno.Code)
}

func TestCreateThenLookup_FindsEntry(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	created, errno := operations.Create(root, "HELLO.TXT", vfs.ModePermMask)
	require.Nil(t, errno)
	require.False(t, created.IsDir())

	found, errno := operations.Lookup(root, "HELLO.TXT")
	require.Nil(t, errno)
	require.Equal(t, created.Private.(*inodeInfo).parentSlot, found.Private.(*inodeInfo).parentSlot)
}

func TestCreate_DuplicateNameRejected(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	_, errno = operations.Create(root, "DUP.TXT", vfs.ModePermMask)
	require.Nil(t, errno)

	_, errno = operations.Create(root, "DUP.TXT", vfs.ModePermMask)
	require.NotNil(t, errno)
	require.Equal(t, vfs.ErrExists, errno.Code)
}

func TestCreate_ReadOnlyModeSetsAttr(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	mode := vfs.ModePermMask &^ vfs.ModeUserWrite
	created, errno := operations.Create(root, "RO.TXT", mode)
	require.Nil(t, errno)
	require.Zero(t, created.Mode&vfs.ModeUserWrite)
}

func TestMkdir_CreatesDirectoryInode(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	dir, errno := operations.Mkdir(root, "SUBDIR", vfs.ModePermMask)
	require.Nil(t, errno)
	require.True(t, dir.IsDir())

	info := dir.Private.(*inodeInfo)
	require.NotZero(t, info.firstCluster)
}

func TestCreate_AllocatesClusterAndSetsArchiveAttr(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	created, errno := operations.Create(root, "NEW.TXT", vfs.ModePermMask)
	require.Nil(t, errno)

	info := created.Private.(*inodeInfo)
	require.NotZero(t, info.firstCluster)

	data, errno := vol.readDirBytes(vol.rootDirRef())
	require.Nil(t, errno)
	var found bool
	for _, d := range listDirents(data) {
		if nameFrom83(d.name) == "new.txt" {
			found = true
			require.NotZero(t, d.attrs&AttrArchive)
		}
	}
	require.True(t, found)
}

func TestMkdir_WritesDotAndDotDotEntriesOnDisk(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	dir, errno := operations.Mkdir(root, "SUBDIR", vfs.ModePermMask)
	require.Nil(t, errno)
	info := dir.Private.(*inodeInfo)

	data, errno := vol.readDirBytes(dirRef{cluster: info.firstCluster})
	require.Nil(t, errno)

	dot := decodeDirent(data[0:direntSize], 0)
	dotdot := decodeDirent(data[direntSize:2*direntSize], 1)

	require.Equal(t, ".", nameFrom83(dot.name))
	require.Equal(t, info.firstCluster, dot.firstCluster)
	require.Equal(t, "..", nameFrom83(dotdot.name))
	require.Zero(t, dotdot.firstCluster)
}

func TestRmdir_NonExistentFails(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	errno = operations.Rmdir(root, "NOPE")
	require.NotNil(t, errno)
}

func TestSetAttr_RootTogglesInodeModeDirectly(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	newMode := vfs.ModePermMask &^ vfs.ModeUserWrite
	require.Nil(t, operations.SetAttr(root, newMode))
	require.Equal(t, newMode, root.Mode)
}

func TestReaddir_RootIncludesDotEntries(t *testing.T) {
	vol, _ := mountedVolume(t, VariantFAT16)
	sb := &vfs.SuperBlock{Private: vol}
	root, errno := vol.rootInode(sb)
	require.Nil(t, errno)

	_, errno = operations.Create(root, "A.TXT", vfs.ModePermMask)
	require.Nil(t, errno)

	entries, errno := operations.Readdir(root)
	require.Nil(t, errno)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	require.Contains(t, names, ".")
	require.Contains(t, names, "..")
	require.Contains(t, names, "a.txt")
}
