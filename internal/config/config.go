// Package config handles TOML configuration loading with environment
// variable substitution.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/vmunix/omm/internal/encode"
	"github.com/vmunix/omm/internal/media"
)

// Config is the root configuration structure.
type Config struct {
	LogLevel  string          `toml:"log_level"`
	Database  DatabaseConfig  `toml:"database"`
	Library   LibraryConfig   `toml:"library"`
	Standards StandardsConfig `toml:"standards"`
	Encoding  encode.Settings `toml:"encoding"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LibraryConfig describes what to scan. Zero values for the tuning
// knobs defer to the scanner's own defaults.
type LibraryConfig struct {
	Roots         []string `toml:"roots"`
	Extensions    []string `toml:"extensions"`
	ScanThreads   int      `toml:"scan_threads"`
	MinFileSizeMB int      `toml:"min_file_size_mb"`
	ExtrasMarkers []string `toml:"extras_markers"`
}

// MinFileSizeBytes converts the configured megabyte threshold.
func (l LibraryConfig) MinFileSizeBytes() int64 {
	return int64(l.MinFileSizeMB) << 20
}

// StandardsConfig holds the compliance yardstick in flat keys, one
// min/max pair per resolution tier.
type StandardsConfig struct {
	MinimumTier        string               `toml:"minimum_tier"`
	PreferredCodec     string               `toml:"preferred_codec"`
	BitDepthPreference media.BitDepthPolicy `toml:"bit_depth_preference"`

	BitrateMinLowRes int `toml:"bitrate_min_low_res"`
	BitrateMaxLowRes int `toml:"bitrate_max_low_res"`
	BitrateMin720p   int `toml:"bitrate_min_720p"`
	BitrateMax720p   int `toml:"bitrate_max_720p"`
	BitrateMin1080p  int `toml:"bitrate_min_1080p"`
	BitrateMax1080p  int `toml:"bitrate_max_1080p"`
	BitrateMin1440p  int `toml:"bitrate_min_1440p"`
	BitrateMax1440p  int `toml:"bitrate_max_1440p"`
	BitrateMin4K     int `toml:"bitrate_min_4k"`
	BitrateMax4K     int `toml:"bitrate_max_4k"`
}

// Defaults returns the stock configuration. Load decodes on top of
// this, so a config file only needs the keys it changes.
func Defaults() *Config {
	std := media.DefaultStandards()
	return &Config{
		LogLevel: "info",
		Database: DatabaseConfig{Path: "./data/omm.db"},
		Standards: StandardsConfig{
			MinimumTier:        std.MinimumTier.String(),
			PreferredCodec:     std.RequiredCodec,
			BitDepthPreference: std.BitDepth,
			BitrateMinLowRes:   std.Windows[media.TierLowRes].MinKbps,
			BitrateMaxLowRes:   std.Windows[media.TierLowRes].MaxKbps,
			BitrateMin720p:     std.Windows[media.Tier720p].MinKbps,
			BitrateMax720p:     std.Windows[media.Tier720p].MaxKbps,
			BitrateMin1080p:    std.Windows[media.Tier1080p].MinKbps,
			BitrateMax1080p:    std.Windows[media.Tier1080p].MaxKbps,
			BitrateMin1440p:    std.Windows[media.Tier1440p].MinKbps,
			BitrateMax1440p:    std.Windows[media.Tier1440p].MaxKbps,
			BitrateMin4K:       std.Windows[media.Tier4K].MinKbps,
			BitrateMax4K:       std.Windows[media.Tier4K].MaxKbps,
		},
		Encoding: encode.Default(),
	}
}

// Load reads the configuration file: environment references are
// substituted, the result is decoded over Defaults, and the outcome is
// validated. Unresolved references or validation problems come back as
// a *ConfigError.
func Load(path string) (*Config, error) {
	cfg, missing, err := decode(path)
	if err != nil {
		return nil, err
	}
	cerr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cerr.HasErrors() {
		return nil, cerr
	}
	return cfg, nil
}

// LoadWithoutValidation parses the file but skips semantic validation.
// Tooling that inspects half-built configs uses this; unresolved
// environment references still fail.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, missing, err := decode(path)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}
	return cfg, nil
}

func decode(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}
	content, missing := substituteEnvVars(string(data))

	cfg := Defaults()
	if _, err := toml.Decode(content, cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, missing, nil
}

// MediaStandards builds the classification yardstick from the standards
// section. Per-tier targets come from the encoding section so that the
// classifier and the encoder agree on what a tier should look like.
func (c *Config) MediaStandards() media.Standards {
	s := c.Standards
	set := c.EncodeSettings()
	return media.Standards{
		Windows: map[media.Tier]media.BitrateWindow{
			media.TierLowRes: {MinKbps: s.BitrateMinLowRes, MaxKbps: s.BitrateMaxLowRes, TargetKbps: set.TargetBitrateLowRes},
			media.Tier720p:   {MinKbps: s.BitrateMin720p, MaxKbps: s.BitrateMax720p, TargetKbps: set.TargetBitrate720p},
			media.Tier1080p:  {MinKbps: s.BitrateMin1080p, MaxKbps: s.BitrateMax1080p, TargetKbps: set.TargetBitrate1080p},
			media.Tier1440p:  {MinKbps: s.BitrateMin1440p, MaxKbps: s.BitrateMax1440p, TargetKbps: set.TargetBitrate1440p},
			media.Tier4K:     {MinKbps: s.BitrateMin4K, MaxKbps: s.BitrateMax4K, TargetKbps: set.TargetBitrate4K},
		},
		RequiredCodec: s.PreferredCodec,
		BitDepth:      s.BitDepthPreference,
		MinimumTier:   media.ParseTier(s.MinimumTier),
	}
}

// EncodeSettings returns the encoding section with any legacy nested
// tier tables folded onto the flat keys.
func (c *Config) EncodeSettings() encode.Settings {
	set := c.Encoding
	set.Normalize()
	return set
}
