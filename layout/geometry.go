// Package layout defines the on-disk geometry of the simulated filesystem
// (superblock, bitmaps, inode table, data region) and the binary codec for
// the three fixed-size records that make it up: Superblock, Inode, and
// DirEntry.
package layout

import "fmt"

// Fixed block positions. These never move regardless of Geometry, mirroring
// SUPERBLOCK_BLOCK / INODE_BITMAP_BLOCK / DATA_BITMAP_BLOCK / INODE_START_BLOCK
// in the C reference.
const (
	SuperblockBlock  uint32 = 0
	InodeBitmapBlock uint32 = 1
	DataBitmapBlock  uint32 = 2
	InodeStartBlock  uint32 = 3
)

// Magic identifies a formatted superblock.
const Magic uint32 = 0x12345678

// Geometry is the set of size parameters a disk image is created with. The
// canonical reference values are exposed as DefaultGeometry.
type Geometry struct {
	Name           string
	BlockSize      uint32
	DiskBlocks     uint32
	InodeBlocks    uint32
	MaxFiles       uint32
	MaxFilenameLen uint32
}

// DefaultGeometry is the canonical 2 MiB layout: 512-byte blocks, 4096
// blocks total, 128 inode blocks, 128 inode slots.
func DefaultGeometry() Geometry {
	return Geometry{
		Name:           "default",
		BlockSize:      512,
		DiskBlocks:     4096,
		InodeBlocks:    128,
		MaxFiles:       128,
		MaxFilenameLen: 32,
	}
}

// DataStartBlock is the absolute block index of the first data block.
func (g Geometry) DataStartBlock() uint32 {
	return InodeStartBlock + g.InodeBlocks
}

// DataBlocks is the number of blocks available to the data region.
func (g Geometry) DataBlocks() uint32 {
	return g.DiskBlocks - g.DataStartBlock()
}

// DiskSizeBytes is the exact size the backing image file must be.
func (g Geometry) DiskSizeBytes() int64 {
	return int64(g.BlockSize) * int64(g.DiskBlocks)
}

// InodesPerBlock is the number of fixed-size inode records packed into one
// block.
func (g Geometry) InodesPerBlock() uint32 {
	return g.BlockSize / InodeRecordSize
}

// DirEntriesPerBlock is the number of fixed-size directory entries packed
// into one block, and therefore the root directory's capacity.
func (g Geometry) DirEntriesPerBlock() uint32 {
	return g.BlockSize / DirEntryRecordSize
}

// InodeBlockFor returns the absolute block index holding inode i.
func (g Geometry) InodeBlockFor(i uint32) uint32 {
	return InodeStartBlock + i/g.InodesPerBlock()
}

// InodeOffsetFor returns the byte offset of inode i within its block.
func (g Geometry) InodeOffsetFor(i uint32) uint32 {
	return (i % g.InodesPerBlock()) * InodeRecordSize
}

// Validate reports whether the geometry can host the fixed-size records this
// package defines: the inode table must have room for MaxFiles inodes, and a
// single block must be able to hold the inode and data bitmaps bit-for-bit.
func (g Geometry) Validate() error {
	if g.BlockSize < InodeRecordSize {
		return fmt.Errorf("block size %d must be large enough to hold one inode record (%d bytes)", g.BlockSize, InodeRecordSize)
	}
	if g.DataStartBlock() >= g.DiskBlocks {
		return fmt.Errorf("inode region (%d blocks) leaves no room for data blocks", g.InodeBlocks)
	}
	if g.MaxFiles > g.InodeBlocks*g.InodesPerBlock() {
		return fmt.Errorf(
			"max files %d exceeds inode table capacity (%d blocks * %d/block)",
			g.MaxFiles, g.InodeBlocks, g.InodesPerBlock(),
		)
	}
	if g.MaxFiles > g.BlockSize*8 {
		return fmt.Errorf("max files %d exceeds one bitmap block's bit capacity (%d)", g.MaxFiles, g.BlockSize*8)
	}
	if g.DataBlocks() > g.BlockSize*8 {
		return fmt.Errorf("data blocks %d exceeds one bitmap block's bit capacity (%d)", g.DataBlocks(), g.BlockSize*8)
	}
	return nil
}
