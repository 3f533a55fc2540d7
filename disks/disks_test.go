package disks_test

import (
	"testing"

	"github.com/elias-chen/simplefs/disks"
	"github.com/elias-chen/simplefs/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_DefaultMatchesLayoutDefault(t *testing.T) {
	geom, err := disks.Resolve("default")
	require.NoError(t, err)
	assert.Equal(t, layout.DefaultGeometry(), geom)
}

func TestResolve_UnknownNameFails(t *testing.T) {
	_, err := disks.Resolve("nonexistent")
	assert.Error(t, err)
}

func TestResolve_EveryPresetValidates(t *testing.T) {
	for _, name := range disks.Names() {
		geom, err := disks.Resolve(name)
		require.NoError(t, err)
		assert.NoError(t, geom.Validate(), "preset %q failed geometry validation", name)
	}
}
