package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. NPM_LENS_INDEX_MAX_FILES.
const EnvPrefix = "NPM_LENS"

// Config holds all server settings.
type Config struct {
	// Root is the default project root. Empty means detect from the working directory.
	Root   string       `mapstructure:"root"`
	Index  IndexConfig  `mapstructure:"index"`
	Read   ReadConfig   `mapstructure:"read"`
	Symbol SymbolConfig `mapstructure:"symbol"`
	Search SearchConfig `mapstructure:"search"`
	Log    LogConfig    `mapstructure:"log"`
}

// IndexConfig bounds the work done when indexing one package.
type IndexConfig struct {
	MaxFiles     int      `mapstructure:"max_files"`
	MaxFileBytes int64    `mapstructure:"max_file_bytes"`
	Ignore       []string `mapstructure:"ignore"` // extra gitignore-style patterns
}

type ReadConfig struct {
	MaxLines int `mapstructure:"max_lines"`
}

type SymbolConfig struct {
	Padding int `mapstructure:"padding"`
}

type SearchConfig struct {
	MaxResults int `mapstructure:"max_results"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			MaxFiles:     3000,
			MaxFileBytes: 5 << 20,
		},
		Read:   ReadConfig{MaxLines: 2000},
		Symbol: SymbolConfig{Padding: 10},
		Search: SearchConfig{MaxResults: 100},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers every key with v so env overrides are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("root", d.Root)
	v.SetDefault("index.max_files", d.Index.MaxFiles)
	v.SetDefault("index.max_file_bytes", d.Index.MaxFileBytes)
	v.SetDefault("index.ignore", d.Index.Ignore)
	v.SetDefault("read.max_lines", d.Read.MaxLines)
	v.SetDefault("symbol.padding", d.Symbol.Padding)
	v.SetDefault("search.max_results", d.Search.MaxResults)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads configuration into a Config. Values come from, in increasing precedence:
// defaults, the config file, NPM_LENS_* environment variables, and flags already bound to v.
// A missing config file is not an error unless path names it explicitly.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("npm-lens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "npm-lens"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects limits that would make the server useless.
func (c *Config) Validate() error {
	switch {
	case c.Index.MaxFiles <= 0:
		return fmt.Errorf("index.max_files must be positive, got %d", c.Index.MaxFiles)
	case c.Index.MaxFileBytes <= 0:
		return fmt.Errorf("index.max_file_bytes must be positive, got %d", c.Index.MaxFileBytes)
	case c.Read.MaxLines <= 0:
		return fmt.Errorf("read.max_lines must be positive, got %d", c.Read.MaxLines)
	case c.Symbol.Padding < 0:
		return fmt.Errorf("symbol.padding must not be negative, got %d", c.Symbol.Padding)
	case c.Search.MaxResults <= 0:
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	return nil
}
