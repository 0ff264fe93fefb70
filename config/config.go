// Package config loads the server's YAML configuration. Every field has a
// working default so the server runs with no config file at all.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/funvill/cultural-archiver-sub005/feature"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	// DataDir is where compressed artwork snapshots live.
	DataDir string `yaml:"dataDir"`

	// MaxLoadedIndexes bounds how many artwork sets stay resident.
	MaxLoadedIndexes int `yaml:"maxLoadedIndexes"`

	Cluster struct {
		Radius    float64 `yaml:"radius"`
		MinPoints int     `yaml:"minPoints"`
	} `yaml:"cluster"`

	// Colors maps artwork categories to marker hex colors. Merged over
	// the built-in palette and capped at feature.MaxColorEntries.
	Colors map[string]string `yaml:"colors"`

	DefaultView struct {
		Longitude float64 `yaml:"longitude"`
		Latitude  float64 `yaml:"latitude"`
		Zoom      float64 `yaml:"zoom"`
	} `yaml:"defaultView"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8000"
	cfg.DataDir = "data/artworks"
	cfg.MaxLoadedIndexes = 4
	cfg.Cluster.Radius = 40
	cfg.Cluster.MinPoints = 2
	// Vancouver, where the catalogue started.
	cfg.DefaultView.Longitude = -123.1207
	cfg.DefaultView.Latitude = 49.2827
	cfg.DefaultView.Zoom = 12
	return cfg
}

// Load reads a YAML config file over the defaults. A missing path (or an
// empty argument) just returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = Default().Server.Addr
	}
	if cfg.DataDir == "" {
		cfg.DataDir = Default().DataDir
	}
	if cfg.MaxLoadedIndexes <= 0 {
		cfg.MaxLoadedIndexes = Default().MaxLoadedIndexes
	}
	return cfg, nil
}

// ColorTable merges the configured colors over the built-in palette,
// capped to the table limit.
func (c *Config) ColorTable() feature.ColorTable {
	merged := make(feature.ColorTable, len(feature.DefaultColors)+len(c.Colors))
	for k, v := range feature.DefaultColors {
		merged[k] = v
	}
	for k, v := range c.Colors {
		merged[k] = v
	}
	return merged.Capped()
}
