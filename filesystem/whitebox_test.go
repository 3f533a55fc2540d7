package filesystem

import (
	"math/bits"
	"path/filepath"
	"testing"

	"github.com/elias-chen/simplefs/layout"
	"github.com/stretchr/testify/require"
)

func popcount(bitmapBytes []byte, bitCount uint32) uint32 {
	total := uint32(0)
	for i := uint32(0); i < bitCount; i += 8 {
		b := bitmapBytes[i/8]
		remaining := bitCount - i
		if remaining >= 8 {
			total += uint32(bits.OnesCount8(b))
		} else {
			// Partial trailing byte: only count the meaningful low bits.
			mask := byte(1<<remaining) - 1
			total += uint32(bits.OnesCount8(b & mask))
		}
	}
	return total
}

func newTestFileSystem(t *testing.T) *FileSystem {
	geom := layout.DefaultGeometry()
	path := filepath.Join(t.TempDir(), "disk.img")
	fs, err := Open(path, geom)
	require.NoError(t, err)
	t.Cleanup(func() { fs.Close() })
	require.NoError(t, fs.FormatDisk())
	return fs
}

// assertCoreInvariants checks the on-disk bookkeeping against the
// filesystem's internal state, which only a same-package test can reach
// directly: free counters must match bitmap population, every live
// directory entry must reference an allocated regular-file inode, every
// block pointer drawn from all live inodes must be unique and marked
// allocated, and the root directory's own inode must still be in place.
func assertCoreInvariants(t *testing.T, fs *FileSystem) {
	t.Helper()

	geom := fs.cache.Geometry

	inodesSet := popcount([]byte(fs.cache.InodeBitmap), geom.MaxFiles)
	require.EqualValues(t, geom.MaxFiles-fs.cache.Superblock.FreeInodeCount, inodesSet,
		"free inode count does not match the inode bitmap's population")

	blocksSet := popcount([]byte(fs.cache.DataBitmap), geom.DataBlocks())
	require.EqualValues(t, geom.DataBlocks()-fs.cache.Superblock.FreeDataCount, blocksSet,
		"free data count does not match the data bitmap's population")

	scan, err := fs.scanDirectoryLocked()
	require.NoError(t, err)

	seenBlocks := make(map[uint32]bool)
	for slot := uint32(0); slot < scan.count; slot++ {
		entry := fs.dirEntryAt(scan.block, slot)
		if entry.Inode == 0 {
			continue
		}
		require.True(t, fs.cache.InodeBitmap.Get(int(entry.Inode)), "directory entry references unallocated inode %d", entry.Inode)

		inode, err := fs.readInodeLocked(entry.Inode)
		require.NoError(t, err)
		require.Equal(t, layout.InodeTypeFile, inode.Type, "directory entry references non-file inode %d", entry.Inode)

		for _, b := range inode.Blocks {
			if b == 0 {
				continue
			}
			require.False(t, seenBlocks[b], "block %d referenced by more than one inode", b)
			seenBlocks[b] = true

			relative := b - geom.DataStartBlock()
			require.True(t, fs.cache.DataBitmap.Get(int(relative)), "block %d not marked allocated in the data bitmap", b)
		}
	}

	require.True(t, fs.cache.InodeBitmap.Get(0), "root directory inode not allocated")
	rootInode, err := fs.readInodeLocked(0)
	require.NoError(t, err)
	require.Equal(t, layout.InodeTypeDir, rootInode.Type)
	require.EqualValues(t, geom.DataStartBlock(), rootInode.Blocks[0])
}

func TestInvariants_AfterFormat(t *testing.T) {
	fs := newTestFileSystem(t)
	assertCoreInvariants(t, fs)
}

func TestInvariants_AfterCreateWriteDelete(t *testing.T) {
	fs := newTestFileSystem(t)

	require.NoError(t, fs.CreateFile("a"))
	assertCoreInvariants(t, fs)

	_, err := fs.WriteFile("a", []byte("hello world"))
	require.NoError(t, err)
	assertCoreInvariants(t, fs)

	require.NoError(t, fs.CreateFile("b"))
	_, err = fs.WriteFile("b", make([]byte, 3000))
	require.NoError(t, err)
	assertCoreInvariants(t, fs)

	require.NoError(t, fs.DeleteFile("a"))
	assertCoreInvariants(t, fs)

	require.NoError(t, fs.DeleteFile("b"))
	assertCoreInvariants(t, fs)
}

func TestInvariants_AfterCopy(t *testing.T) {
	fs := newTestFileSystem(t)

	require.NoError(t, fs.CreateFile("a"))
	_, err := fs.WriteFile("a", []byte("payload"))
	require.NoError(t, err)

	_, err = fs.CopyFile("a", "b")
	require.NoError(t, err)
	assertCoreInvariants(t, fs)
}
