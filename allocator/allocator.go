// Package allocator implements the inode and data-block bitmap allocators:
// first-fit bitmap scans that persist both the bitmap block and the
// superblock's free counters before returning.
package allocator

import (
	"github.com/elias-chen/simplefs/blockdev"
	"github.com/elias-chen/simplefs/errors"
	"github.com/elias-chen/simplefs/layout"
)

// InodeAllocator hands out inode slot indices from the shared metadata cache.
type InodeAllocator struct {
	cache *layout.Cache
	dev   *blockdev.Device
}

// NewInodeAllocator builds an allocator over the given cache and device. Both
// are shared with the rest of the filesystem engine and assumed to already be
// protected by the caller's lock.
func NewInodeAllocator(cache *layout.Cache, dev *blockdev.Device) *InodeAllocator {
	return &InodeAllocator{cache: cache, dev: dev}
}

// Allocate finds the lowest-numbered free inode slot, marks it allocated, and
// persists the inode bitmap and superblock before returning its index.
func (a *InodeAllocator) Allocate() (uint32, error) {
	if a.cache.Superblock.FreeInodeCount == 0 {
		return 0, errors.ErrNoSpace
	}

	maxFiles := a.cache.Geometry.MaxFiles
	for i := uint32(0); i < maxFiles; i++ {
		if a.cache.InodeBitmap.Get(int(i)) {
			continue
		}

		a.cache.InodeBitmap.Set(int(i), true)
		a.cache.Superblock.FreeInodeCount--

		if err := a.cache.PersistInodeBitmap(a.dev); err != nil {
			return 0, err
		}
		if err := a.cache.PersistSuperblock(a.dev); err != nil {
			return 0, err
		}
		return i, nil
	}

	return 0, errors.ErrNoSpace
}

// Free clears inode slot i and persists the inode bitmap and superblock.
// Out-of-range indexes are silently ignored. The inode record itself is left
// untouched; the bitmap bit alone is the liveness witness.
func (a *InodeAllocator) Free(i uint32) error {
	if i >= a.cache.Geometry.MaxFiles {
		return nil
	}

	a.cache.InodeBitmap.Set(int(i), false)
	a.cache.Superblock.FreeInodeCount++

	if err := a.cache.PersistInodeBitmap(a.dev); err != nil {
		return err
	}
	return a.cache.PersistSuperblock(a.dev)
}

// BlockAllocator hands out absolute data-block indices from the shared
// metadata cache.
type BlockAllocator struct {
	cache *layout.Cache
	dev   *blockdev.Device
}

// NewBlockAllocator builds an allocator over the given cache and device.
func NewBlockAllocator(cache *layout.Cache, dev *blockdev.Device) *BlockAllocator {
	return &BlockAllocator{cache: cache, dev: dev}
}

// Allocate finds the lowest-numbered free data block, marks it allocated, and
// persists the data bitmap and superblock before returning its ABSOLUTE block
// index (DataStartBlock + relative bit index).
func (a *BlockAllocator) Allocate() (uint32, error) {
	if a.cache.Superblock.FreeDataCount == 0 {
		return 0, errors.ErrNoSpace
	}

	dataBlocks := a.cache.Geometry.DataBlocks()
	for j := uint32(0); j < dataBlocks; j++ {
		if a.cache.DataBitmap.Get(int(j)) {
			continue
		}

		a.cache.DataBitmap.Set(int(j), true)
		a.cache.Superblock.FreeDataCount--

		if err := a.cache.PersistDataBitmap(a.dev); err != nil {
			return 0, err
		}
		if err := a.cache.PersistSuperblock(a.dev); err != nil {
			return 0, err
		}
		return a.cache.Geometry.DataStartBlock() + j, nil
	}

	return 0, errors.ErrNoSpace
}

// Free releases an absolute data-block index and persists the data bitmap and
// superblock. Indexes outside the data region are silently ignored.
func (a *BlockAllocator) Free(absoluteBlock uint32) error {
	dataStart := a.cache.Geometry.DataStartBlock()
	if absoluteBlock < dataStart || absoluteBlock >= a.cache.Geometry.DiskBlocks {
		return nil
	}

	relative := absoluteBlock - dataStart
	a.cache.DataBitmap.Set(int(relative), false)
	a.cache.Superblock.FreeDataCount++

	if err := a.cache.PersistDataBitmap(a.dev); err != nil {
		return err
	}
	return a.cache.PersistSuperblock(a.dev)
}
