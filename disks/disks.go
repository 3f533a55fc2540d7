// Package disks holds the named disk geometry presets the simplefsd command
// line accepts through --geometry, loaded from an embedded CSV table.
package disks

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/elias-chen/simplefs/layout"
	"github.com/gocarina/gocsv"
)

// preset is the CSV row shape; it is converted to a layout.Geometry once
// loaded so the rest of the module never has to know about the CSV tags.
type preset struct {
	Name           string `csv:"name"`
	BlockSize      uint32 `csv:"block_size"`
	DiskBlocks     uint32 `csv:"disk_blocks"`
	InodeBlocks    uint32 `csv:"inode_blocks"`
	MaxFiles       uint32 `csv:"max_files"`
	MaxFilenameLen uint32 `csv:"max_filename_len"`
}

func (p preset) geometry() layout.Geometry {
	return layout.Geometry{
		Name:           p.Name,
		BlockSize:      p.BlockSize,
		DiskBlocks:     p.DiskBlocks,
		InodeBlocks:    p.InodeBlocks,
		MaxFiles:       p.MaxFiles,
		MaxFilenameLen: p.MaxFilenameLen,
	}
}

//go:embed presets.csv
var presetsCSV string

var presets map[string]layout.Geometry

func init() {
	presets = make(map[string]layout.Geometry)

	reader := strings.NewReader(presetsCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row preset) error {
		if _, exists := presets[row.Name]; exists {
			return fmt.Errorf("duplicate geometry preset %q", row.Name)
		}
		presets[row.Name] = row.geometry()
		return nil
	})
	if err != nil && err != io.EOF {
		panic(err)
	}
}

// Resolve looks up a named geometry preset.
func Resolve(name string) (layout.Geometry, error) {
	geom, ok := presets[name]
	if !ok {
		return layout.Geometry{}, fmt.Errorf("no geometry preset named %q", name)
	}
	return geom, nil
}

// Names returns every preset name, for use in --geometry's help text.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}
