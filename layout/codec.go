package layout

import (
	"bytes"
	"encoding/binary"

	"github.com/noxer/bytewriter"
)

// InodeType distinguishes what an inode slot holds.
type InodeType uint16

const (
	InodeTypeFree InodeType = 0
	InodeTypeFile InodeType = 1
	InodeTypeDir  InodeType = 2
)

// IsDirectory reports whether this type is the root directory's type.
func (t InodeType) IsDirectory() bool {
	return t == InodeTypeDir
}

// DirectPointers is the number of direct block pointers an inode carries.
// There are no indirect blocks, so this also bounds the maximum file size.
const DirectPointers = 8

// InodeRecordSize is the fixed on-disk size of one inode: size(4) + type(2) +
// links(2) + 8 direct pointers(4 each) = 40 bytes.
const InodeRecordSize = 4 + 2 + 2 + DirectPointers*4

// MaxFileSize is the largest payload an inode can address: 8 direct blocks.
func MaxFileSize(geom Geometry) uint32 {
	return DirectPointers * geom.BlockSize
}

// Inode is the in-memory form of one 40-byte on-disk inode record.
type Inode struct {
	Size   uint32
	Type   InodeType
	Links  uint16
	Blocks [DirectPointers]uint32
}

// MarshalBinary encodes the inode into exactly InodeRecordSize bytes,
// little-endian.
func (in Inode) MarshalBinary() []byte {
	buf := make([]byte, InodeRecordSize)
	w := bytewriter.New(buf)
	binary.Write(w, binary.LittleEndian, in.Size)
	binary.Write(w, binary.LittleEndian, uint16(in.Type))
	binary.Write(w, binary.LittleEndian, in.Links)
	binary.Write(w, binary.LittleEndian, in.Blocks)
	return buf
}

// UnmarshalInode decodes a 40-byte on-disk inode record.
func UnmarshalInode(data []byte) Inode {
	r := bytes.NewReader(data)
	var in Inode
	var rawType uint16
	binary.Read(r, binary.LittleEndian, &in.Size)
	binary.Read(r, binary.LittleEndian, &rawType)
	binary.Read(r, binary.LittleEndian, &in.Links)
	binary.Read(r, binary.LittleEndian, &in.Blocks)
	in.Type = InodeType(rawType)
	return in
}

// DirEntryRecordSize is the fixed on-disk size of one directory entry:
// inode index(4) + name(32) = 36 bytes.
const DirEntryRecordSize = 4 + 32

// DirEntry is the in-memory form of one 36-byte directory entry. Inode == 0
// means the slot is empty.
type DirEntry struct {
	Inode uint32
	Name  [32]byte
}

// NewDirEntry builds a directory entry, truncating name to maxNameLen-1
// visible bytes and always zero-terminating it.
func NewDirEntry(inode uint32, name string, maxNameLen uint32) DirEntry {
	var entry DirEntry
	entry.Inode = inode

	visible := int(maxNameLen) - 1
	if visible > len(entry.Name)-1 {
		visible = len(entry.Name) - 1
	}
	nameBytes := []byte(name)
	if len(nameBytes) > visible {
		nameBytes = nameBytes[:visible]
	}
	copy(entry.Name[:], nameBytes)
	// The remainder of entry.Name is already zero from the zero value.
	return entry
}

// NameString returns the entry's name as a Go string, stopping at the first
// zero byte.
func (d DirEntry) NameString() string {
	n := bytes.IndexByte(d.Name[:], 0)
	if n < 0 {
		n = len(d.Name)
	}
	return string(d.Name[:n])
}

// MarshalBinary encodes the directory entry into exactly DirEntryRecordSize
// bytes, little-endian.
func (d DirEntry) MarshalBinary() []byte {
	buf := make([]byte, DirEntryRecordSize)
	w := bytewriter.New(buf)
	binary.Write(w, binary.LittleEndian, d.Inode)
	binary.Write(w, binary.LittleEndian, d.Name)
	return buf
}

// UnmarshalDirEntry decodes a 36-byte on-disk directory entry.
func UnmarshalDirEntry(data []byte) DirEntry {
	r := bytes.NewReader(data)
	var entry DirEntry
	binary.Read(r, binary.LittleEndian, &entry.Inode)
	binary.Read(r, binary.LittleEndian, &entry.Name)
	return entry
}

// State values for Superblock.State.
const (
	StateUnmounted uint16 = 0
	StateMounted   uint16 = 1
)

// Superblock is the in-memory mirror of block SuperblockBlock.
type Superblock struct {
	Magic          uint32
	TotalBlocks    uint32
	InodeBlocks    uint32
	DataBlocks     uint32
	FreeInodeCount uint32
	FreeDataCount  uint32
	State          uint16
}

// MarshalBinary encodes the superblock into exactly blockSize bytes,
// little-endian, zero-padded after the meaningful fields.
func (sb Superblock) MarshalBinary(blockSize uint32) []byte {
	buf := make([]byte, blockSize)
	w := bytewriter.New(buf)
	binary.Write(w, binary.LittleEndian, sb.Magic)
	binary.Write(w, binary.LittleEndian, sb.TotalBlocks)
	binary.Write(w, binary.LittleEndian, sb.InodeBlocks)
	binary.Write(w, binary.LittleEndian, sb.DataBlocks)
	binary.Write(w, binary.LittleEndian, sb.FreeInodeCount)
	binary.Write(w, binary.LittleEndian, sb.FreeDataCount)
	binary.Write(w, binary.LittleEndian, sb.State)
	return buf
}

// UnmarshalSuperblock decodes a superblock from a block-sized byte slice.
func UnmarshalSuperblock(block []byte) Superblock {
	r := bytes.NewReader(block)
	var sb Superblock
	binary.Read(r, binary.LittleEndian, &sb.Magic)
	binary.Read(r, binary.LittleEndian, &sb.TotalBlocks)
	binary.Read(r, binary.LittleEndian, &sb.InodeBlocks)
	binary.Read(r, binary.LittleEndian, &sb.DataBlocks)
	binary.Read(r, binary.LittleEndian, &sb.FreeInodeCount)
	binary.Read(r, binary.LittleEndian, &sb.FreeDataCount)
	binary.Read(r, binary.LittleEndian, &sb.State)
	return sb
}
