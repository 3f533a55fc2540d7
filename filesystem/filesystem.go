// Package filesystem implements the inode and directory engine on top of the
// block device, on-disk layout, and allocators: create, delete, read, write,
// copy, list, format, and the disk-info observer. Every public method except
// Path (which returns a value fixed at Open) acquires FileSystem's single
// mutex on entry and releases it on every exit path, serializing all
// mutating and reading work.
package filesystem

import (
	"github.com/elias-chen/simplefs/allocator"
	"github.com/elias-chen/simplefs/blockdev"
	"github.com/elias-chen/simplefs/errors"
	"github.com/elias-chen/simplefs/layout"
	"sync"
)

// FileSystem is the process-wide handle: the backing image, the cached
// superblock/bitmaps, and the allocators built on top of them.
type FileSystem struct {
	mu     sync.Mutex
	path   string
	dev    *blockdev.Device
	cache  *layout.Cache
	inodes *allocator.InodeAllocator
	blocks *allocator.BlockAllocator
}

// Open opens (or creates) the image at path with the given geometry and
// loads its metadata cache. It does not format the image; callers must call
// FormatDisk on a fresh or corrupted image before any other operation will
// succeed.
func Open(path string, geom layout.Geometry) (*FileSystem, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}

	dev, err := blockdev.Open(path, geom.BlockSize, geom.DiskBlocks)
	if err != nil {
		return nil, err
	}

	fs, err := OpenWithDevice(dev, geom)
	if err != nil {
		dev.Close()
		return nil, err
	}
	fs.path = path
	return fs, nil
}

// OpenWithDevice builds a FileSystem over an already-open block device,
// letting callers supply an in-memory device (blockdev.OpenMemory) instead
// of a file-backed one.
func OpenWithDevice(dev *blockdev.Device, geom layout.Geometry) (*FileSystem, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}

	cache := layout.NewCache(geom)
	if err := cache.Load(dev); err != nil {
		return nil, err
	}

	return &FileSystem{
		dev:    dev,
		cache:  cache,
		inodes: allocator.NewInodeAllocator(cache, dev),
		blocks: allocator.NewBlockAllocator(cache, dev),
	}, nil
}

// Close releases the backing device. The filesystem must not be used again
// afterward.
func (fs *FileSystem) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.dev.Close()
}

// Geometry returns the geometry the filesystem was opened with.
func (fs *FileSystem) Geometry() layout.Geometry {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.cache.Geometry
}

// Path returns the backing image's path.
func (fs *FileSystem) Path() string {
	return fs.path
}

// FormatDisk unconditionally reinitializes the image: fresh superblock, both
// bitmaps with only the root directory's bit set, the root inode, and an
// empty root directory block.
func (fs *FileSystem) FormatDisk() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.cache.Format(fs.dev)
}

// DiskInfo is what ShowDiskInfo reports: a pure snapshot of the cached
// superblock plus the live directory entry count.
type DiskInfo struct {
	Formatted      bool
	TotalBlocks    uint32
	MaxFiles       uint32
	DataBlocks     uint32
	FreeInodeCount uint32
	FreeDataCount  uint32
	FileCount      uint32
}

// ShowDiskInfo reads the cached superblock and reports the state/total/free
// summary, supplemented with the live file count.
func (fs *FileSystem) ShowDiskInfo() (DiskInfo, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.cache.RequireFormatted(); err != nil {
		return DiskInfo{}, err
	}

	scan, err := fs.scanDirectoryLocked()
	if err != nil {
		return DiskInfo{}, err
	}

	return DiskInfo{
		Formatted:      true,
		TotalBlocks:    fs.cache.Superblock.TotalBlocks,
		MaxFiles:       fs.cache.Geometry.MaxFiles,
		DataBlocks:     fs.cache.Superblock.DataBlocks,
		FreeInodeCount: fs.cache.Superblock.FreeInodeCount,
		FreeDataCount:  fs.cache.Superblock.FreeDataCount,
		FileCount:      uint32(len(scan.byName)),
	}, nil
}

// DirectoryListing is one entry returned by ListDirectory.
type DirectoryListing struct {
	Name string
	Type layout.InodeType
	Size uint32
}

// ListDirectory returns every live entry in the root directory.
func (fs *FileSystem) ListDirectory() ([]DirectoryListing, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.cache.RequireFormatted(); err != nil {
		return nil, err
	}
	return fs.listDirectoryLocked()
}

// CreateFile creates an empty regular file named name in the root directory.
func (fs *FileSystem) CreateFile(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.cache.RequireFormatted(); err != nil {
		return err
	}
	return fs.createFileLocked(name)
}

// DeleteFile removes name from the root directory, freeing its inode and all
// of its data blocks.
func (fs *FileSystem) DeleteFile(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.cache.RequireFormatted(); err != nil {
		return err
	}
	return fs.deleteFileLocked(name)
}

// ReadFile returns up to maxBytes bytes of name's contents.
func (fs *FileSystem) ReadFile(name string, maxBytes uint32) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.cache.RequireFormatted(); err != nil {
		return nil, err
	}
	return fs.readFileLocked(name, maxBytes)
}

// WriteFile truncates name and replaces its contents with data, up to
// MaxFileSize bytes; any remainder is silently discarded. It returns the
// number of bytes actually written.
func (fs *FileSystem) WriteFile(name string, data []byte) (uint32, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.cache.RequireFormatted(); err != nil {
		return 0, err
	}
	return fs.writeFileLocked(name, data)
}

// CopyFile copies src's contents into a newly created file dst. If the copy
// produces fewer bytes than were read from src, the partial destination is
// removed and ErrIOShort is returned.
func (fs *FileSystem) CopyFile(src, dst string) (uint32, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.cache.RequireFormatted(); err != nil {
		return 0, err
	}

	scan, err := fs.scanDirectoryLocked()
	if err != nil {
		return 0, err
	}
	if _, exists := scan.byName[dst]; exists {
		return 0, errors.ErrAlreadyExists
	}

	srcSlot, ok := scan.byName[src]
	if !ok {
		return 0, errors.ErrNotFound
	}
	srcEntry := fs.dirEntryAt(scan.block, srcSlot)
	srcInode, err := fs.readInodeLocked(srcEntry.Inode)
	if err != nil {
		return 0, err
	}
	if srcInode.Type != layout.InodeTypeFile {
		return 0, errors.ErrNotRegular
	}

	data, err := fs.readInodeDataLocked(srcInode, layout.MaxFileSize(fs.cache.Geometry))
	if err != nil {
		return 0, err
	}

	if err := fs.createFileLocked(dst); err != nil {
		return 0, err
	}

	written, err := fs.writeFileLocked(dst, data)
	if err != nil {
		return written, err
	}
	if int(written) != len(data) {
		fs.deleteFileLocked(dst)
		return written, errors.ErrIOShort
	}
	return written, nil
}
