package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvill/cultural-archiver-sub005/feature"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  addr: ":9100"
dataDir: /var/lib/artworks
cluster:
  radius: 60
colors:
  neon: "#39ff14"
defaultView:
  longitude: -0.1276
  latitude: 51.5072
  zoom: 10
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, "/var/lib/artworks", cfg.DataDir)
	assert.Equal(t, 60.0, cfg.Cluster.Radius)
	// Unset fields keep their defaults.
	assert.Equal(t, Default().MaxLoadedIndexes, cfg.MaxLoadedIndexes)
	assert.Equal(t, Default().Cluster.MinPoints, cfg.Cluster.MinPoints)
	assert.Equal(t, 51.5072, cfg.DefaultView.Latitude)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: a: mapping"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestColorTableMergesOverDefaults(t *testing.T) {
	cfg := Default()
	cfg.Colors = map[string]string{
		"mural": "#112233", // override
		"neon":  "#39ff14", // addition
	}

	table := cfg.ColorTable()
	assert.Equal(t, "#112233", table.Color("mural"))
	assert.Equal(t, "#39ff14", table.Color("neon"))
	assert.Equal(t, feature.DefaultColors["sculpture"], table.Color("sculpture"))
	assert.Equal(t, feature.DefaultColor, table.Color("unknown"))
	assert.LessOrEqual(t, len(table), feature.MaxColorEntries)
}
