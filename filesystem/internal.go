package filesystem

import (
	"github.com/elias-chen/simplefs/errors"
	"github.com/elias-chen/simplefs/layout"
)

// dirScan is the result of one pass over the root directory block: which
// names are live, where the first free slot is, and the raw block bytes so
// callers can mutate and write it back without a second read.
type dirScan struct {
	block     []byte
	count     uint32
	byName    map[string]uint32
	firstFree int32 // -1 if the directory has no free slot
}

func (fs *FileSystem) readInodeLocked(i uint32) (layout.Inode, error) {
	geom := fs.cache.Geometry
	blockIdx := geom.InodeBlockFor(i)
	block := make([]byte, geom.BlockSize)
	if err := fs.dev.ReadBlock(blockIdx, block); err != nil {
		return layout.Inode{}, err
	}

	offset := geom.InodeOffsetFor(i)
	return layout.UnmarshalInode(block[offset : offset+layout.InodeRecordSize]), nil
}

// writeInodeLocked performs the read-modify-write of a single inode slot
// within its shared block.
func (fs *FileSystem) writeInodeLocked(i uint32, in layout.Inode) error {
	geom := fs.cache.Geometry
	blockIdx := geom.InodeBlockFor(i)
	block := make([]byte, geom.BlockSize)
	if err := fs.dev.ReadBlock(blockIdx, block); err != nil {
		return err
	}

	offset := geom.InodeOffsetFor(i)
	copy(block[offset:offset+layout.InodeRecordSize], in.MarshalBinary())
	return fs.dev.WriteBlock(blockIdx, block)
}

func (fs *FileSystem) dirEntryAt(block []byte, slot uint32) layout.DirEntry {
	offset := slot * layout.DirEntryRecordSize
	return layout.UnmarshalDirEntry(block[offset : offset+layout.DirEntryRecordSize])
}

func (fs *FileSystem) setDirEntryAt(block []byte, slot uint32, entry layout.DirEntry) {
	offset := slot * layout.DirEntryRecordSize
	copy(block[offset:offset+layout.DirEntryRecordSize], entry.MarshalBinary())
}

// scanDirectoryLocked reads the single root directory block once and indexes
// its live entries by name, recording the first free slot seen along the
// way, matching create_file's requirement to find both in one scan.
func (fs *FileSystem) scanDirectoryLocked() (dirScan, error) {
	geom := fs.cache.Geometry
	block := make([]byte, geom.BlockSize)
	if err := fs.dev.ReadBlock(geom.DataStartBlock(), block); err != nil {
		return dirScan{}, err
	}

	count := geom.DirEntriesPerBlock()
	scan := dirScan{block: block, count: count, byName: make(map[string]uint32, count), firstFree: -1}

	for slot := uint32(0); slot < count; slot++ {
		entry := fs.dirEntryAt(block, slot)
		if entry.Inode == 0 {
			if scan.firstFree < 0 {
				scan.firstFree = int32(slot)
			}
			continue
		}
		scan.byName[entry.NameString()] = slot
	}
	return scan, nil
}

func (fs *FileSystem) writeDirBlockLocked(block []byte) error {
	return fs.dev.WriteBlock(fs.cache.Geometry.DataStartBlock(), block)
}

func (fs *FileSystem) listDirectoryLocked() ([]DirectoryListing, error) {
	scan, err := fs.scanDirectoryLocked()
	if err != nil {
		return nil, err
	}

	listings := make([]DirectoryListing, 0, len(scan.byName))
	for slot := uint32(0); slot < scan.count; slot++ {
		entry := fs.dirEntryAt(scan.block, slot)
		if entry.Inode == 0 {
			continue
		}
		inode, err := fs.readInodeLocked(entry.Inode)
		if err != nil {
			return nil, err
		}
		listings = append(listings, DirectoryListing{
			Name: entry.NameString(),
			Type: inode.Type,
			Size: inode.Size,
		})
	}
	return listings, nil
}

func (fs *FileSystem) createFileLocked(name string) error {
	scan, err := fs.scanDirectoryLocked()
	if err != nil {
		return err
	}
	if _, exists := scan.byName[name]; exists {
		return errors.ErrAlreadyExists
	}
	if scan.firstFree < 0 {
		return errors.ErrDirectoryFull
	}

	i, err := fs.inodes.Allocate()
	if err != nil {
		return err
	}

	if err := fs.writeInodeLocked(i, layout.Inode{Type: layout.InodeTypeFile, Links: 1}); err != nil {
		return err
	}

	entry := layout.NewDirEntry(i, name, fs.cache.Geometry.MaxFilenameLen)
	fs.setDirEntryAt(scan.block, uint32(scan.firstFree), entry)
	return fs.writeDirBlockLocked(scan.block)
}

func (fs *FileSystem) deleteFileLocked(name string) error {
	scan, err := fs.scanDirectoryLocked()
	if err != nil {
		return err
	}
	slot, ok := scan.byName[name]
	if !ok {
		return errors.ErrNotFound
	}

	entry := fs.dirEntryAt(scan.block, slot)
	inode, err := fs.readInodeLocked(entry.Inode)
	if err != nil {
		return err
	}

	// Walk all 8 pointer slots rather than stopping at the first zero: a
	// single read-then-clear pass is the only safe way to free every block a
	// write may have assigned.
	for k := 0; k < layout.DirectPointers; k++ {
		if inode.Blocks[k] != 0 {
			if err := fs.blocks.Free(inode.Blocks[k]); err != nil {
				return err
			}
		}
	}

	if err := fs.inodes.Free(entry.Inode); err != nil {
		return err
	}

	fs.setDirEntryAt(scan.block, slot, layout.DirEntry{})
	return fs.writeDirBlockLocked(scan.block)
}

func (fs *FileSystem) readInodeDataLocked(inode layout.Inode, maxBytes uint32) ([]byte, error) {
	toRead := inode.Size
	if maxBytes < toRead {
		toRead = maxBytes
	}

	geom := fs.cache.Geometry
	out := make([]byte, 0, toRead)
	remaining := toRead

	for k := 0; k < layout.DirectPointers && remaining > 0; k++ {
		if inode.Blocks[k] == 0 {
			break
		}

		block := make([]byte, geom.BlockSize)
		if err := fs.dev.ReadBlock(inode.Blocks[k], block); err != nil {
			return nil, err
		}

		n := remaining
		if n > geom.BlockSize {
			n = geom.BlockSize
		}
		out = append(out, block[:n]...)
		remaining -= n
	}
	return out, nil
}

func (fs *FileSystem) readFileLocked(name string, maxBytes uint32) ([]byte, error) {
	scan, err := fs.scanDirectoryLocked()
	if err != nil {
		return nil, err
	}
	slot, ok := scan.byName[name]
	if !ok {
		return nil, errors.ErrNotFound
	}

	entry := fs.dirEntryAt(scan.block, slot)
	inode, err := fs.readInodeLocked(entry.Inode)
	if err != nil {
		return nil, err
	}
	if inode.Type != layout.InodeTypeFile {
		return nil, errors.ErrNotRegular
	}

	return fs.readInodeDataLocked(inode, maxBytes)
}

// writeFileLocked truncates name's existing blocks (freeing all of them,
// even on a subsequent partial-allocation failure) and writes the new
// contents. Allocation failure partway through stops the write; blocks
// already written stay assigned, and the file ends up at the truncated size
// that was actually achieved.
func (fs *FileSystem) writeFileLocked(name string, data []byte) (uint32, error) {
	scan, err := fs.scanDirectoryLocked()
	if err != nil {
		return 0, err
	}
	slot, ok := scan.byName[name]
	if !ok {
		return 0, errors.ErrNotFound
	}

	entry := fs.dirEntryAt(scan.block, slot)
	inode, err := fs.readInodeLocked(entry.Inode)
	if err != nil {
		return 0, err
	}
	if inode.Type != layout.InodeTypeFile {
		return 0, errors.ErrNotRegular
	}

	for k := 0; k < layout.DirectPointers; k++ {
		if inode.Blocks[k] != 0 {
			if err := fs.blocks.Free(inode.Blocks[k]); err != nil {
				return 0, err
			}
			inode.Blocks[k] = 0
		}
	}

	geom := fs.cache.Geometry
	remaining := uint32(len(data))
	written := uint32(0)

	for k := 0; k < layout.DirectPointers && remaining > 0; k++ {
		blockIdx, err := fs.blocks.Allocate()
		if err != nil {
			break
		}

		buf := make([]byte, geom.BlockSize)
		n := remaining
		if n > geom.BlockSize {
			n = geom.BlockSize
		}
		copy(buf, data[written:written+n])

		if err := fs.dev.WriteBlock(blockIdx, buf); err != nil {
			return written, err
		}

		inode.Blocks[k] = blockIdx
		written += n
		remaining -= n
	}

	inode.Size = written
	if err := fs.writeInodeLocked(entry.Inode, inode); err != nil {
		return written, err
	}
	return written, nil
}
