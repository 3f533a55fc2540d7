package layout_test

import (
	"testing"

	"github.com/elias-chen/simplefs/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGeometry_Validates(t *testing.T) {
	require.NoError(t, layout.DefaultGeometry().Validate())
}

func TestGeometry_DataStartAndDataBlocks(t *testing.T) {
	geom := layout.DefaultGeometry()

	assert.EqualValues(t, layout.InodeStartBlock+geom.InodeBlocks, geom.DataStartBlock())
	assert.EqualValues(t, geom.DiskBlocks-geom.DataStartBlock(), geom.DataBlocks())
}

func TestGeometry_DiskSizeBytes(t *testing.T) {
	geom := layout.DefaultGeometry()
	assert.EqualValues(t, int64(geom.BlockSize)*int64(geom.DiskBlocks), geom.DiskSizeBytes())
}

func TestGeometry_InodeBlockAndOffsetForWrapAcrossBlocks(t *testing.T) {
	geom := layout.DefaultGeometry()
	perBlock := geom.InodesPerBlock()
	require.Greater(t, perBlock, uint32(0))

	// The last inode in the first inode block.
	last := perBlock - 1
	assert.EqualValues(t, layout.InodeStartBlock, geom.InodeBlockFor(last))
	assert.EqualValues(t, last*layout.InodeRecordSize, geom.InodeOffsetFor(last))

	// The first inode in the second inode block.
	first := perBlock
	assert.EqualValues(t, layout.InodeStartBlock+1, geom.InodeBlockFor(first))
	assert.EqualValues(t, 0, geom.InodeOffsetFor(first))
}

func TestGeometry_Validate_RejectsBlockSizeSmallerThanOneInode(t *testing.T) {
	geom := layout.DefaultGeometry()
	geom.BlockSize = layout.InodeRecordSize - 1

	assert.Error(t, geom.Validate())
}

func TestGeometry_Validate_RejectsInodeRegionLeavingNoDataBlocks(t *testing.T) {
	geom := layout.DefaultGeometry()
	geom.InodeBlocks = geom.DiskBlocks

	assert.Error(t, geom.Validate())
}

func TestGeometry_Validate_RejectsMaxFilesExceedingInodeTableCapacity(t *testing.T) {
	geom := layout.DefaultGeometry()
	geom.MaxFiles = geom.InodeBlocks*geom.InodesPerBlock() + 1

	assert.Error(t, geom.Validate())
}

func TestGeometry_Validate_RejectsMaxFilesExceedingBitmapCapacity(t *testing.T) {
	geom := layout.DefaultGeometry()
	// A big enough inode table that only the bitmap-capacity check can fire.
	geom.InodeBlocks = 400
	geom.MaxFiles = geom.BlockSize*8 + 1

	assert.Error(t, geom.Validate())
}

func TestGeometry_Validate_RejectsDataBlocksExceedingBitmapCapacity(t *testing.T) {
	geom := layout.Geometry{
		Name:           "oversized",
		BlockSize:      512,
		DiskBlocks:     1 << 20,
		InodeBlocks:    128,
		MaxFiles:       128,
		MaxFilenameLen: 32,
	}

	assert.Error(t, geom.Validate())
}
