// Package config holds YAML-backed defaults for the core's build
// parameters, resource limits, and cache/metrics toggles. Every field has a
// sane zero-config default; a config file only needs to name the fields it
// wants to override.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/corvusdb/corvus/internal/index"
)

// IndexDefaults bundles the default build-time hyperparameters for every
// index family, applied whenever a caller omits a field.
type IndexDefaults struct {
	Seed int64 `yaml:"seed"`

	RPLSHL int `yaml:"rp_lsh_l"`
	RPLSHH int `yaml:"rp_lsh_h"`
	RPLSHP int `yaml:"rp_lsh_p"`

	HNSWM              int `yaml:"hnsw_m"`
	HNSWEfConstruction int `yaml:"hnsw_ef_construction"`
	HNSWEfSearch       int `yaml:"hnsw_ef_search"`
}

// Limits bundles configurable resource ceilings. They are loaded and checked
// by Validate, but nothing else reads them: internal/validation and
// internal/store enforce their own built-in constants (k <= 100, dimension
// <= 4096, chunk text <= 10,000 characters), and no per-library chunk count
// limit is enforced.
type Limits struct {
	KMax             int `yaml:"k_max"`
	MaxDimension     int `yaml:"max_dimension"`
	MaxChunksPerLib  int `yaml:"max_chunks_per_library"`
	MaxChunkTextSize int `yaml:"max_chunk_text_size"`
}

// CacheConfig toggles and sizes the result cache.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled"`
	Capacity int  `yaml:"capacity"`
}

// MetricsConfig toggles Prometheus metrics collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// HybridConfig toggles and tunes the keyword co-index / RRF fusion path.
type HybridConfig struct {
	Enabled     bool `yaml:"enabled"`
	RRFConstant int  `yaml:"rrf_constant"`
}

// LoggingConfig mirrors internal/logging.Config so it can be YAML-loaded
// alongside everything else without internal/config importing internal/logging.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	FilePath      string `yaml:"file_path"`
	MaxSizeMB     int    `yaml:"max_size_mb"`
	MaxFiles      int    `yaml:"max_files"`
	WriteToStderr bool   `yaml:"write_to_stderr"`
}

// Config is the full set of tunables the core reads at startup.
type Config struct {
	Index   IndexDefaults `yaml:"index"`
	Limits  Limits        `yaml:"limits"`
	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
	Hybrid  HybridConfig  `yaml:"hybrid"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the built-in configuration used when no config file is
// present. Its index parameters match the index family's own internal
// defaults except the seed: 42 here, while internal/index replaces a zero
// seed with 1.
func Default() *Config {
	return &Config{
		Index: IndexDefaults{
			Seed:               42,
			RPLSHL:             8,
			RPLSHH:             12,
			RPLSHP:             4,
			HNSWM:              16,
			HNSWEfConstruction: 200,
			HNSWEfSearch:       50,
		},
		Limits: Limits{
			KMax:             100,
			MaxDimension:     4096,
			MaxChunksPerLib:  1_000_000,
			MaxChunkTextSize: 10_000,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: 1024,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Hybrid: HybridConfig{
			Enabled:     true,
			RRFConstant: 60,
		},
		Logging: LoggingConfig{
			Level:         "info",
			MaxSizeMB:     10,
			MaxFiles:      5,
			WriteToStderr: true,
		},
	}
}

// Load reads a YAML config file at path, falling back to Default() for any
// field the file doesn't set. A missing file is not an error — it simply
// means Default() is returned unmodified.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects a config whose values could never build a usable index
// or could let a request exhaust memory.
func (c *Config) Validate() error {
	if c.Limits.KMax < 1 {
		return fmt.Errorf("limits.k_max must be >= 1, got %d", c.Limits.KMax)
	}
	if c.Limits.MaxDimension < 1 {
		return fmt.Errorf("limits.max_dimension must be >= 1, got %d", c.Limits.MaxDimension)
	}
	if c.Index.RPLSHL < 1 || c.Index.RPLSHH < 1 {
		return fmt.Errorf("index.rp_lsh_l and index.rp_lsh_h must be >= 1")
	}
	if c.Index.RPLSHH > 64 {
		return fmt.Errorf("index.rp_lsh_h must be <= 64, got %d", c.Index.RPLSHH)
	}
	if c.Index.HNSWM < 1 {
		return fmt.Errorf("index.hnsw_m must be >= 1, got %d", c.Index.HNSWM)
	}
	if c.Cache.Enabled && c.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be >= 1 when cache.enabled is true")
	}
	return nil
}

// ParamsFor fills an index.Params from the configured defaults for typ,
// leaving fields the type doesn't use at their zero value.
func (c *Config) ParamsFor(typ index.Type) index.Params {
	p := index.Params{Seed: c.Index.Seed}
	switch typ {
	case index.RPLSH:
		p.L, p.H, p.P = c.Index.RPLSHL, c.Index.RPLSHH, c.Index.RPLSHP
	case index.Hierarchical:
		p.M, p.EfConstruction, p.EfSearch = c.Index.HNSWM, c.Index.HNSWEfConstruction, c.Index.HNSWEfSearch
	}
	return p
}

// DefaultPath returns the conventional config file location, ~/.corvus/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".corvus", "config.yaml")
}
