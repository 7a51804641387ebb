// Package config loads generator settings from delegen.toml, DELEGEN_*
// environment variables and built-in defaults, in increasing precedence:
// defaults < file < environment. Command-line flags are applied on top by the
// caller.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"martianoff/delegen/internal/cache"
	"martianoff/delegen/internal/delegate/prefixer"
	"martianoff/delegen/internal/delegate/resolver"
	"martianoff/delegen/internal/syntax"
)

// FileName is the project configuration file searched for by Discover.
const FileName = "delegen.toml"

// DefaultRoot is the path forwarded calls are anchored under.
const DefaultRoot = "::delegate_trait::__private"

// Config is the complete generator configuration.
type Config struct {
	Prefix   PrefixConfig   `mapstructure:"prefix"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Source   SourceConfig   `mapstructure:"source"`
	Cache    CacheConfig    `mapstructure:"cache"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-"`
}

// PrefixConfig controls path re-anchoring in emitted code.
type PrefixConfig struct {
	Root      string   `mapstructure:"root"`
	Externals []string `mapstructure:"externals"`
}

// ResolverConfig controls interface resolution.
type ResolverConfig struct {
	StrictAliases bool `mapstructure:"strict_aliases"`
}

// SourceConfig controls where interface sources are read from.
type SourceConfig struct {
	// Dir is the directory relative source paths are resolved against.
	Dir string `mapstructure:"dir"`
	// Rev reads sources from a git revision instead of the working tree.
	Rev string `mapstructure:"rev"`
}

// CacheConfig controls the on-disk expansion cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// SetDefaults registers default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("prefix.root", DefaultRoot)
	v.SetDefault("prefix.externals", []string{})
	v.SetDefault("resolver.strict_aliases", false)
	v.SetDefault("source.dir", "")
	v.SetDefault("source.rev", "")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.dir", "")
}

// Discover walks up from start looking for FileName and returns its path,
// or "" when none exists.
func Discover(start string) string {
	dir := start
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// NewViper builds a viper instance with defaults, environment binding and
// the given configuration file. An empty file skips file loading.
func NewViper(file string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("DELEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", file)
		}
	}
	return v, nil
}

// Unmarshal decodes v into a Config.
func Unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	cfg.File = v.ConfigFileUsed()
	return &cfg, nil
}

// Load discovers the configuration file from start and returns the merged configuration.
func Load(start string) (*Config, error) {
	v, err := NewViper(Discover(start))
	if err != nil {
		return nil, err
	}
	return Unmarshal(v)
}

// BaseDir returns the directory relative paths in the configuration refer
// to: the configuration file's directory, or fallback when there is none.
func (c *Config) BaseDir(fallback string) string {
	if c.File != "" {
		return filepath.Dir(c.File)
	}
	return fallback
}

// SourceDir returns the directory source paths are resolved against.
func (c *Config) SourceDir(fallback string) string {
	if c.Source.Dir == "" {
		return fallback
	}
	if filepath.IsAbs(c.Source.Dir) {
		return c.Source.Dir
	}
	return filepath.Join(c.BaseDir(fallback), c.Source.Dir)
}

// Prefixer builds the path prefixer described by the configuration.
func (c *Config) Prefixer() (*prefixer.Prefixer, error) {
	root := &syntax.Path{}
	if strings.TrimSpace(c.Prefix.Root) != "" {
		var err error
		if root, err = syntax.ParsePath(c.Prefix.Root); err != nil {
			return nil, errors.Wrapf(err, "invalid prefix.root %q", c.Prefix.Root)
		}
	}
	return prefixer.New(root, c.Prefix.Externals), nil
}

// ResolverOptions returns the resolver settings.
func (c *Config) ResolverOptions() resolver.Options {
	return resolver.Options{StrictAliases: c.Resolver.StrictAliases}
}

// OpenCache opens the disk cache, or returns nil when caching is disabled.
func (c *Config) OpenCache() (*cache.DiskCache, error) {
	if !c.Cache.Enabled {
		return nil, nil
	}
	dir := c.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cache.DefaultDir("delegen"); err != nil {
			return nil, err
		}
	}
	return cache.Open(dir)
}
