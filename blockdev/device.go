// Package blockdev maps a fixed number of fixed-size blocks onto a backing
// store. It is the only path by which the rest of the module touches the
// host filesystem; every higher-level operation is expressed in whole block
// reads and writes. The backing store is either a real file (Open) or an
// in-memory buffer (OpenMemory), so tests can exercise the exact same code
// path without touching disk.
package blockdev

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/elias-chen/simplefs/errors"
	"github.com/xaionaro-go/bytesextra"
)

// backend is the minimal surface Device needs from its storage: random
// access reads/writes, a durability barrier, and a way to release it.
// *os.File satisfies this directly.
type backend interface {
	io.ReaderAt
	io.WriterAt
	Sync() error
	Close() error
}

// Device is a block-addressable view of a fixed-size backing store.
type Device struct {
	store       backend
	blockSize   uint32
	totalBlocks uint32
}

// Open opens path as a block device with the given geometry. If the file
// already exists it's opened read/write in place; otherwise it's created and
// extended to exactly blockSize*totalBlocks bytes, mirroring disk_init's
// fseek-then-fputc idiom from the C reference.
func Open(path string, blockSize, totalBlocks uint32) (*Device, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("open image %q: %w", path, err)
		}

		file, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return nil, fmt.Errorf("create image %q: %w", path, err)
		}

		size := int64(blockSize) * int64(totalBlocks)
		if _, err := file.WriteAt([]byte{0}, size-1); err != nil {
			file.Close()
			return nil, fmt.Errorf("extend image %q to %d bytes: %w", path, size, err)
		}
	}

	return &Device{store: file, blockSize: blockSize, totalBlocks: totalBlocks}, nil
}

// OpenMemory builds a block device entirely in memory, already extended to
// blockSize*totalBlocks zero bytes. It's a drop-in replacement for Open in
// tests that want to exercise the block/allocator/filesystem layers without
// touching the host disk.
func OpenMemory(blockSize, totalBlocks uint32) *Device {
	size := int64(blockSize) * int64(totalBlocks)
	buf := make([]byte, size)
	rws := bytesextra.NewReadWriteSeeker(buf)

	return &Device{
		store:       &memoryBackend{rws: rws},
		blockSize:   blockSize,
		totalBlocks: totalBlocks,
	}
}

// memoryBackend adapts an io.ReadWriteSeeker (bytesextra's in-memory buffer)
// to the ReaderAt/WriterAt shape the rest of Device relies on, serializing
// the seek-then-read/write pairs with a mutex since Seek isn't atomic with
// the I/O that follows it.
type memoryBackend struct {
	mu  sync.Mutex
	rws io.ReadWriteSeeker
}

func (m *memoryBackend) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.rws.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(m.rws, p)
}

func (m *memoryBackend) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.rws.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return m.rws.Write(p)
}

func (m *memoryBackend) Sync() error {
	return nil
}

func (m *memoryBackend) Close() error {
	return nil
}

// Close flushes and releases the backing store.
func (d *Device) Close() error {
	return d.store.Close()
}

// BlockSize returns the size of a single block, in bytes.
func (d *Device) BlockSize() uint32 {
	return d.blockSize
}

// TotalBlocks returns the number of addressable blocks on the device.
func (d *Device) TotalBlocks() uint32 {
	return d.totalBlocks
}

func (d *Device) checkIndex(n uint32) error {
	if n >= d.totalBlocks {
		return errors.ErrInvalidIndex.WithMessage(
			fmt.Sprintf("block %d not in [0, %d)", n, d.totalBlocks),
		)
	}
	return nil
}

// ReadBlock fills buf with exactly BlockSize bytes read from block n.
func (d *Device) ReadBlock(n uint32, buf []byte) error {
	if err := d.checkIndex(n); err != nil {
		return err
	}
	if uint32(len(buf)) != d.blockSize {
		return errors.ErrInvalidIndex.WithMessage(
			fmt.Sprintf("buffer must be exactly %d bytes, got %d", d.blockSize, len(buf)),
		)
	}

	offset := int64(n) * int64(d.blockSize)
	read, err := d.store.ReadAt(buf, offset)
	if err != nil {
		return errors.ErrIOShort.Wrap(err)
	}
	if uint32(read) != d.blockSize {
		return errors.ErrIOShort.WithMessage(
			fmt.Sprintf("short read of block %d: got %d of %d bytes", n, read, d.blockSize),
		)
	}
	return nil
}

// WriteBlock writes exactly BlockSize bytes to block n and flushes, so that a
// subsequent read on any goroutine observes the write.
func (d *Device) WriteBlock(n uint32, buf []byte) error {
	if err := d.checkIndex(n); err != nil {
		return err
	}
	if uint32(len(buf)) != d.blockSize {
		return errors.ErrInvalidIndex.WithMessage(
			fmt.Sprintf("buffer must be exactly %d bytes, got %d", d.blockSize, len(buf)),
		)
	}

	offset := int64(n) * int64(d.blockSize)
	written, err := d.store.WriteAt(buf, offset)
	if err != nil {
		return errors.ErrIOShort.Wrap(err)
	}
	if uint32(written) != d.blockSize {
		return errors.ErrIOShort.WithMessage(
			fmt.Sprintf("short write of block %d: wrote %d of %d bytes", n, written, d.blockSize),
		)
	}
	return d.store.Sync()
}
