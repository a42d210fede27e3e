package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/recera/vuec/internal/cache"
	"github.com/recera/vuec/pkg/compiler"
	"github.com/recera/vuec/pkg/compiler/parser"
)

// FileName is the name of the project configuration file
const FileName = "vuec.yaml"

// ErrInvalid is wrapped by every validation error
var ErrInvalid = errors.New("invalid configuration")

// Config represents the vuec.yaml configuration
type Config struct {
	// Directory scanned for .vue files
	SrcDir string `yaml:"srcDir,omitempty"`

	// Directory compiled modules are written to
	OutDir string `yaml:"outDir,omitempty"`

	// Compiler options
	Compiler *CompilerConfig `yaml:"compiler,omitempty"`

	// Artifact cache
	Cache *CacheConfig `yaml:"cache,omitempty"`

	// Development server configuration
	Serve *ServeConfig `yaml:"serve,omitempty"`

	// Logging
	Log *LogConfig `yaml:"log,omitempty"`
}

// CompilerConfig mirrors compiler.Options
type CompilerConfig struct {
	// Production selects inline render functions
	Production bool `yaml:"production"`

	// Whitespace is "condense" or "preserve"
	Whitespace string `yaml:"whitespace,omitempty"`

	// Whether static subtrees are hoisted
	HoistStatic *bool `yaml:"hoistStatic,omitempty"`

	// Whether event handlers are cached
	CacheHandlers *bool `yaml:"cacheHandlers,omitempty"`

	// Whether source maps are written next to the modules
	SourceMap bool `yaml:"sourceMap"`

	// Number of files compiled in parallel, 0 for one per CPU
	Jobs int `yaml:"jobs,omitempty"`
}

// CacheConfig contains artifact cache configuration
type CacheConfig struct {
	// Whether the cache is used
	Enabled bool `yaml:"enabled"`

	// Cache directory, defaults to $HOME/.cache/vuec
	Dir string `yaml:"dir,omitempty"`

	// Maximum size in megabytes
	MaxSizeMB int64 `yaml:"maxSizeMB,omitempty"`

	// Maximum entry age, e.g. "168h"
	MaxAge string `yaml:"maxAge,omitempty"`

	// Eviction strategy: "lru" | "lfu" | "fifo"
	Strategy string `yaml:"strategy,omitempty"`
}

// ServeConfig contains development server configuration
type ServeConfig struct {
	// Server port
	Port int `yaml:"port,omitempty"`

	// Server host
	Host string `yaml:"host,omitempty"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	// Level is a zerolog level name
	Level string `yaml:"level,omitempty"`

	// Format is "console" or "json"
	Format string `yaml:"format,omitempty"`
}

// Load loads configuration from vuec.yaml in projectPath. A missing file
// yields the defaults.
func Load(projectPath string) (*Config, error) {
	configPath := filepath.Join(projectPath, FileName)

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return &config, nil
}

// Save saves configuration to vuec.yaml in projectPath
func Save(config *Config, projectPath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(projectPath, FileName), data, 0644)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	on := true
	hoist, handlers := on, on
	return &Config{
		SrcDir: "src",
		OutDir: "dist",
		Compiler: &CompilerConfig{
			Production:    false,
			Whitespace:    string(parser.Condense),
			HoistStatic:   &hoist,
			CacheHandlers: &handlers,
			SourceMap:     false,
		},
		Cache: &CacheConfig{
			Enabled:   true,
			MaxSizeMB: 256,
			MaxAge:    "168h",
			Strategy:  "lru",
		},
		Serve: &ServeConfig{
			Port: 5173,
			Host: "localhost",
		},
		Log: &LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// applyDefaults applies default values to missing configuration
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.SrcDir == "" {
		config.SrcDir = defaults.SrcDir
	}
	if config.OutDir == "" {
		config.OutDir = defaults.OutDir
	}

	if config.Compiler == nil {
		config.Compiler = defaults.Compiler
	} else {
		if config.Compiler.Whitespace == "" {
			config.Compiler.Whitespace = defaults.Compiler.Whitespace
		}
		if config.Compiler.HoistStatic == nil {
			config.Compiler.HoistStatic = defaults.Compiler.HoistStatic
		}
		if config.Compiler.CacheHandlers == nil {
			config.Compiler.CacheHandlers = defaults.Compiler.CacheHandlers
		}
	}

	if config.Cache == nil {
		config.Cache = defaults.Cache
	} else {
		if config.Cache.MaxSizeMB == 0 {
			config.Cache.MaxSizeMB = defaults.Cache.MaxSizeMB
		}
		if config.Cache.MaxAge == "" {
			config.Cache.MaxAge = defaults.Cache.MaxAge
		}
		if config.Cache.Strategy == "" {
			config.Cache.Strategy = defaults.Cache.Strategy
		}
	}

	if config.Serve == nil {
		config.Serve = defaults.Serve
	} else {
		if config.Serve.Port == 0 {
			config.Serve.Port = defaults.Serve.Port
		}
		if config.Serve.Host == "" {
			config.Serve.Host = defaults.Serve.Host
		}
	}

	if config.Log == nil {
		config.Log = defaults.Log
	} else {
		if config.Log.Level == "" {
			config.Log.Level = defaults.Log.Level
		}
		if config.Log.Format == "" {
			config.Log.Format = defaults.Log.Format
		}
	}
}

// Validate checks values that cannot be defaulted. It expects a config
// that went through applyDefaults.
func (c *Config) Validate() error {
	switch parser.WhitespaceMode(c.Compiler.Whitespace) {
	case parser.Condense, parser.Preserve:
	default:
		return fmt.Errorf("%w: compiler.whitespace must be %q or %q, got %q", ErrInvalid, parser.Condense, parser.Preserve, c.Compiler.Whitespace)
	}
	if c.Compiler.Jobs < 0 {
		return fmt.Errorf("%w: compiler.jobs must not be negative", ErrInvalid)
	}
	if _, err := time.ParseDuration(c.Cache.MaxAge); err != nil {
		return fmt.Errorf("%w: cache.maxAge: %v", ErrInvalid, err)
	}
	if c.Cache.MaxSizeMB < 0 {
		return fmt.Errorf("%w: cache.maxSizeMB must not be negative", ErrInvalid)
	}
	if _, err := cache.ParseStrategy(c.Cache.Strategy); err != nil {
		return fmt.Errorf("%w: cache.strategy: %v", ErrInvalid, err)
	}
	if c.Serve.Port < 1 || c.Serve.Port > 65535 {
		return fmt.Errorf("%w: serve.port %d out of range", ErrInvalid, c.Serve.Port)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log.format must be \"console\" or \"json\", got %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// CompilerOptions returns the compiler options the configuration selects
func (c *Config) CompilerOptions() compiler.Options {
	opts := compiler.DefaultOptions()
	opts.IsProduction = c.Compiler.Production
	opts.Whitespace = parser.WhitespaceMode(c.Compiler.Whitespace)
	opts.HoistStatic = c.Compiler.HoistStatic == nil || *c.Compiler.HoistStatic
	opts.CacheHandlers = c.Compiler.CacheHandlers == nil || *c.Compiler.CacheHandlers
	opts.SourceMap = c.Compiler.SourceMap
	return opts
}

// CacheConfig returns the cache configuration rooted at the project
func (c *Config) CacheConfig() cache.Config {
	cfg := cache.DefaultConfig()
	if c.Cache.Dir != "" {
		cfg.Dir = c.Cache.Dir
	}
	cfg.MaxSize = c.Cache.MaxSizeMB << 20
	if d, err := time.ParseDuration(c.Cache.MaxAge); err == nil {
		cfg.MaxAge = d
	}
	cfg.Strategy, _ = cache.ParseStrategy(c.Cache.Strategy)
	return cfg
}
