package layout

import (
	"github.com/boljen/go-bitmap"
	"github.com/elias-chen/simplefs/blockdev"
	"github.com/elias-chen/simplefs/errors"
)

// Cache is the in-memory mirror of the superblock and both bitmaps, kept
// write-through to the backing device. It is not itself safe for concurrent
// use; callers (filesystem.FileSystem) serialize access with their own lock.
type Cache struct {
	Geometry    Geometry
	Superblock  Superblock
	InodeBitmap bitmap.Bitmap
	DataBitmap  bitmap.Bitmap
	// Formatted is false if the superblock's magic didn't match on Load. Every
	// field above is meaningless until a Format call succeeds.
	Formatted bool
}

// NewCache allocates bitmap caches sized to exactly one block each: only the
// first MaxFiles (respectively DataBlocks) bits are ever meaningful.
func NewCache(geom Geometry) *Cache {
	return &Cache{
		Geometry:    geom,
		InodeBitmap: bitmap.New(int(geom.BlockSize) * 8),
		DataBitmap:  bitmap.New(int(geom.BlockSize) * 8),
	}
}

// Load reads the superblock from dev. If its magic doesn't match, Formatted
// is set false and the bitmap caches are left as whatever NewCache produced
// (all-zero) until a Format call completes; callers must check Formatted
// before trusting InodeBitmap/DataBitmap. If the magic matches, both bitmap
// blocks are read in too.
func (c *Cache) Load(dev *blockdev.Device) error {
	block := make([]byte, c.Geometry.BlockSize)
	if err := dev.ReadBlock(SuperblockBlock, block); err != nil {
		return err
	}
	c.Superblock = UnmarshalSuperblock(block)

	if c.Superblock.Magic != Magic {
		c.Formatted = false
		return nil
	}

	inodeBitmapBlock := make([]byte, c.Geometry.BlockSize)
	if err := dev.ReadBlock(InodeBitmapBlock, inodeBitmapBlock); err != nil {
		return err
	}
	c.InodeBitmap = bitmap.Bitmap(inodeBitmapBlock)

	dataBitmapBlock := make([]byte, c.Geometry.BlockSize)
	if err := dev.ReadBlock(DataBitmapBlock, dataBitmapBlock); err != nil {
		return err
	}
	c.DataBitmap = bitmap.Bitmap(dataBitmapBlock)

	c.Formatted = true
	return nil
}

// Format unconditionally reinitializes on-disk state: a fresh superblock,
// both bitmaps with only the root directory's bit set, the root inode, and an
// empty root directory block.
func (c *Cache) Format(dev *blockdev.Device) error {
	geom := c.Geometry

	c.Superblock = Superblock{
		Magic:          Magic,
		TotalBlocks:    geom.DiskBlocks,
		InodeBlocks:    geom.InodeBlocks,
		DataBlocks:     geom.DataBlocks(),
		FreeInodeCount: geom.MaxFiles - 1,
		FreeDataCount:  geom.DataBlocks() - 1,
		State:          StateMounted,
	}
	if err := dev.WriteBlock(SuperblockBlock, c.Superblock.MarshalBinary(geom.BlockSize)); err != nil {
		return err
	}

	c.InodeBitmap = bitmap.New(int(geom.BlockSize) * 8)
	c.InodeBitmap.Set(0, true)
	if err := dev.WriteBlock(InodeBitmapBlock, []byte(c.InodeBitmap)); err != nil {
		return err
	}

	c.DataBitmap = bitmap.New(int(geom.BlockSize) * 8)
	c.DataBitmap.Set(0, true)
	if err := dev.WriteBlock(DataBitmapBlock, []byte(c.DataBitmap)); err != nil {
		return err
	}

	rootInode := Inode{Type: InodeTypeDir, Links: 1, Size: 0}
	rootInode.Blocks[0] = geom.DataStartBlock()
	if err := c.writeInodeRaw(dev, 0, rootInode); err != nil {
		return err
	}

	emptyBlock := make([]byte, geom.BlockSize)
	if err := dev.WriteBlock(geom.DataStartBlock(), emptyBlock); err != nil {
		return err
	}

	c.Formatted = true
	return nil
}

// writeInodeRaw performs the read-modify-write of a single inode slot into
// its shared block, used directly by Format (the filesystem package does the
// same thing for every subsequent inode write).
func (c *Cache) writeInodeRaw(dev *blockdev.Device, i uint32, in Inode) error {
	geom := c.Geometry
	blockIdx := geom.InodeBlockFor(i)
	block := make([]byte, geom.BlockSize)
	if err := dev.ReadBlock(blockIdx, block); err != nil {
		return err
	}

	offset := geom.InodeOffsetFor(i)
	copy(block[offset:offset+InodeRecordSize], in.MarshalBinary())
	return dev.WriteBlock(blockIdx, block)
}

// PersistSuperblock writes the current superblock to disk. Every allocator
// mutation calls this immediately after updating the relevant bitmap block.
func (c *Cache) PersistSuperblock(dev *blockdev.Device) error {
	return dev.WriteBlock(SuperblockBlock, c.Superblock.MarshalBinary(c.Geometry.BlockSize))
}

// PersistInodeBitmap writes the cached inode bitmap block to disk.
func (c *Cache) PersistInodeBitmap(dev *blockdev.Device) error {
	return dev.WriteBlock(InodeBitmapBlock, []byte(c.InodeBitmap))
}

// PersistDataBitmap writes the cached data bitmap block to disk.
func (c *Cache) PersistDataBitmap(dev *blockdev.Device) error {
	return dev.WriteBlock(DataBitmapBlock, []byte(c.DataBitmap))
}

// RequireFormatted returns ErrUnformatted if the cache hasn't been through a
// successful Load (with matching magic) or Format.
func (c *Cache) RequireFormatted() error {
	if !c.Formatted {
		return errors.ErrUnformatted
	}
	return nil
}
