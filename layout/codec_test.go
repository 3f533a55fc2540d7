package layout_test

import (
	"testing"

	"github.com/elias-chen/simplefs/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInode_RoundTripsThroughMarshalBinary(t *testing.T) {
	in := layout.Inode{
		Size:   1234,
		Type:   layout.InodeTypeFile,
		Links:  1,
		Blocks: [layout.DirectPointers]uint32{7, 8, 9, 0, 0, 0, 0, 0},
	}

	data := in.MarshalBinary()
	require.Len(t, data, layout.InodeRecordSize)

	got := layout.UnmarshalInode(data)
	assert.Equal(t, in, got)
}

func TestInode_ZeroValueRoundTrips(t *testing.T) {
	var in layout.Inode
	got := layout.UnmarshalInode(in.MarshalBinary())
	assert.Equal(t, in, got)
	assert.True(t, got.Type == layout.InodeTypeFree)
}

func TestInodeType_IsDirectory(t *testing.T) {
	assert.False(t, layout.InodeTypeFree.IsDirectory())
	assert.False(t, layout.InodeTypeFile.IsDirectory())
	assert.True(t, layout.InodeTypeDir.IsDirectory())
}

func TestNewDirEntry_TruncatesAndZeroTerminates(t *testing.T) {
	entry := layout.NewDirEntry(5, "a-name-longer-than-eight-bytes", 8)

	assert.EqualValues(t, 5, entry.Inode)
	assert.Equal(t, "a-name-", entry.NameString(), "visible bytes are maxNameLen-1")
	assert.Zero(t, entry.Name[7], "byte at maxNameLen-1 stays zero-terminated")
}

func TestNewDirEntry_ShortNameLeavesRemainderZeroed(t *testing.T) {
	entry := layout.NewDirEntry(9, "hi", 32)

	assert.Equal(t, "hi", entry.NameString())
	for i := 2; i < len(entry.Name); i++ {
		assert.Zero(t, entry.Name[i])
	}
}

func TestDirEntry_RoundTripsThroughMarshalBinary(t *testing.T) {
	entry := layout.NewDirEntry(3, "readme.txt", 32)

	data := entry.MarshalBinary()
	require.Len(t, data, layout.DirEntryRecordSize)

	got := layout.UnmarshalDirEntry(data)
	assert.Equal(t, entry, got)
	assert.Equal(t, "readme.txt", got.NameString())
}

func TestSuperblock_RoundTripsThroughMarshalBinary(t *testing.T) {
	sb := layout.Superblock{
		Magic:          layout.Magic,
		TotalBlocks:    4096,
		InodeBlocks:    128,
		DataBlocks:     3965,
		FreeInodeCount: 127,
		FreeDataCount:  3964,
		State:          layout.StateMounted,
	}

	const blockSize = 512
	data := sb.MarshalBinary(blockSize)
	require.Len(t, data, blockSize)

	got := layout.UnmarshalSuperblock(data)
	assert.Equal(t, sb, got)
}

func TestSuperblock_MarshalBinaryZeroPadsRemainder(t *testing.T) {
	sb := layout.Superblock{Magic: layout.Magic}
	data := sb.MarshalBinary(64)

	for i := 26; i < len(data); i++ {
		assert.Zero(t, data[i], "byte %d past the meaningful fields should be zero", i)
	}
}
