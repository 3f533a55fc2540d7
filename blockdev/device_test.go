package blockdev_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/elias-chen/simplefs/blockdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBlockSize = 512
const testTotalBlocks = 16

func openTestDevice(t *testing.T) *blockdev.Device {
	path := filepath.Join(t.TempDir(), "disk.img")
	dev, err := blockdev.Open(path, testBlockSize, testTotalBlocks)
	require.NoError(t, err)
	t.Cleanup(func() { dev.Close() })
	return dev
}

func TestOpen_CreatesImageOfExactSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	dev, err := blockdev.Open(path, testBlockSize, testTotalBlocks)
	require.NoError(t, err)
	t.Cleanup(func() { dev.Close() })

	assert.EqualValues(t, testBlockSize, dev.BlockSize())
	assert.EqualValues(t, testTotalBlocks, dev.TotalBlocks())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, testBlockSize*testTotalBlocks, info.Size())
}

func TestWriteThenReadBlock_RoundTrips(t *testing.T) {
	dev := openTestDevice(t)

	payload := make([]byte, testBlockSize)
	for i := range payload {
		payload[i] = byte(i)
	}

	require.NoError(t, dev.WriteBlock(3, payload))

	readBack := make([]byte, testBlockSize)
	require.NoError(t, dev.ReadBlock(3, readBack))
	assert.Equal(t, payload, readBack)
}

func TestReadBlock_OutOfRangeFails(t *testing.T) {
	dev := openTestDevice(t)
	buf := make([]byte, testBlockSize)
	err := dev.ReadBlock(testTotalBlocks, buf)
	assert.Error(t, err)
}

func TestWriteBlock_WrongSizeBufferFails(t *testing.T) {
	dev := openTestDevice(t)
	err := dev.WriteBlock(0, make([]byte, testBlockSize-1))
	assert.Error(t, err)
}

func TestOpenMemory_WriteThenReadBlockRoundTrips(t *testing.T) {
	dev := blockdev.OpenMemory(testBlockSize, testTotalBlocks)
	t.Cleanup(func() { dev.Close() })

	payload := make([]byte, testBlockSize)
	for i := range payload {
		payload[i] = byte(i * 3)
	}
	require.NoError(t, dev.WriteBlock(7, payload))

	readBack := make([]byte, testBlockSize)
	require.NoError(t, dev.ReadBlock(7, readBack))
	assert.Equal(t, payload, readBack)
}

func TestOpenMemory_StartsZeroed(t *testing.T) {
	dev := blockdev.OpenMemory(testBlockSize, testTotalBlocks)
	t.Cleanup(func() { dev.Close() })

	buf := make([]byte, testBlockSize)
	require.NoError(t, dev.ReadBlock(0, buf))
	assert.Equal(t, make([]byte, testBlockSize), buf)
}

func TestReopen_PreservesContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	dev, err := blockdev.Open(path, testBlockSize, testTotalBlocks)
	require.NoError(t, err)

	payload := make([]byte, testBlockSize)
	payload[0] = 0xAB
	require.NoError(t, dev.WriteBlock(5, payload))
	require.NoError(t, dev.Close())

	dev2, err := blockdev.Open(path, testBlockSize, testTotalBlocks)
	require.NoError(t, err)
	defer dev2.Close()

	readBack := make([]byte, testBlockSize)
	require.NoError(t, dev2.ReadBlock(5, readBack))
	assert.EqualValues(t, 0xAB, readBack[0])
}
