// Package disktest provides shared helpers for building disposable,
// formatted filesystem images in tests: temp-file backed images instead of
// hand-rolling setup in every test.
package disktest

import (
	"crypto/rand"
	"path/filepath"
	"testing"

	"github.com/elias-chen/simplefs/blockdev"
	"github.com/elias-chen/simplefs/filesystem"
	"github.com/elias-chen/simplefs/layout"
	"github.com/stretchr/testify/require"
)

// NewFormattedFileSystem creates a freshly formatted filesystem backed by a
// temporary image file using the default geometry. The filesystem is closed
// automatically when the test completes.
func NewFormattedFileSystem(t *testing.T) *filesystem.FileSystem {
	return NewFormattedFileSystemWithGeometry(t, layout.DefaultGeometry())
}

// NewFormattedFileSystemWithGeometry is like NewFormattedFileSystem but lets
// the caller choose the geometry, e.g. a smaller one to exercise
// DirectoryFull/NoSpace boundaries cheaply.
func NewFormattedFileSystemWithGeometry(t *testing.T, geom layout.Geometry) *filesystem.FileSystem {
	t.Helper()

	path := filepath.Join(t.TempDir(), "disk.img")
	fs, err := filesystem.Open(path, geom)
	require.NoError(t, err)
	t.Cleanup(func() { fs.Close() })

	require.NoError(t, fs.FormatDisk())
	return fs
}

// NewUnformattedFileSystem opens a filesystem handle over a brand-new, empty
// image without formatting it, for exercising the unformatted error path.
func NewUnformattedFileSystem(t *testing.T) *filesystem.FileSystem {
	t.Helper()

	path := filepath.Join(t.TempDir(), "disk.img")
	fs, err := filesystem.Open(path, layout.DefaultGeometry())
	require.NoError(t, err)
	t.Cleanup(func() { fs.Close() })
	return fs
}

// NewFormattedMemoryFileSystem is like NewFormattedFileSystem but backs the
// image with an in-memory buffer instead of a temp file, for tests that
// create many short-lived filesystems and don't want per-test disk I/O.
func NewFormattedMemoryFileSystem(t *testing.T, geom layout.Geometry) *filesystem.FileSystem {
	t.Helper()

	dev := blockdev.OpenMemory(geom.BlockSize, geom.DiskBlocks)
	fs, err := filesystem.OpenWithDevice(dev, geom)
	require.NoError(t, err)
	t.Cleanup(func() { fs.Close() })

	require.NoError(t, fs.FormatDisk())
	return fs
}

// RandomBytes returns n pseudo-random bytes, useful as file payloads in
// round-trip tests.
func RandomBytes(t *testing.T, n int) []byte {
	t.Helper()

	buf := make([]byte, n)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return buf
}
