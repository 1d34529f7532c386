package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/brettbedarf/namefs/internal/util"
	"github.com/brettbedarf/namefs/names"
	"gopkg.in/yaml.v3"
)

// Verbosity values accepted by [ConfigOverride.LogLvl], as on the CLI
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl = util.InfoLevel

	// DefaultNameDelimiter separates full-name components
	DefaultNameDelimiter = names.DefaultDelimiter

	// DefaultPathSeparator may never appear in a base name
	DefaultPathSeparator = '/'

	// DefaultReadRetries is the number of attempts per unit in File.Read
	DefaultReadRetries = 3
)

// Config contains runtime configuration values for a node tree.
type Config struct {
	LogLvl        util.LogLevel // Internal log level (Default info)
	NameDelimiter rune          // Delimiter of full names built by the tree (Default '.')
	PathSeparator rune          // Separator of request paths; forbidden in base names (Default '/')
	ReadRetries   int           // Attempts per unit before File.Read fails (Default 3)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	LogLvl        *int    `yaml:"verbose,omitempty" json:"verbose,omitempty"` // 1 (error) .. 5 (trace)
	NameDelimiter *string `yaml:"name_delimiter,omitempty" json:"name_delimiter,omitempty"`
	PathSeparator *string `yaml:"path_separator,omitempty" json:"path_separator,omitempty"`
	ReadRetries   *int    `yaml:"read_retries,omitempty" json:"read_retries,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLvl:        DefaultLogLvl,
		NameDelimiter: DefaultNameDelimiter,
		PathSeparator: DefaultPathSeparator,
		ReadRetries:   DefaultReadRetries,
	}
}

// NewConfig returns the defaults with override applied; override may be nil.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = verbosityToLevel(*override.LogLvl)
	}
	if override.NameDelimiter != nil {
		c.NameDelimiter = singleRune(*override.NameDelimiter)
	}
	if override.PathSeparator != nil {
		c.PathSeparator = singleRune(*override.PathSeparator)
	}
	if override.ReadRetries != nil {
		c.ReadRetries = *override.ReadRetries
	}
}

// Validate reports settings no tree can run with.
func (c *Config) Validate() error {
	if err := names.ValidateDelimiter(c.NameDelimiter); err != nil {
		return fmt.Errorf("name_delimiter: %w", err)
	}
	if err := names.ValidateDelimiter(c.PathSeparator); err != nil {
		return fmt.Errorf("path_separator: %w", err)
	}
	if c.ReadRetries < 1 {
		return fmt.Errorf("read_retries must be at least 1, got %d", c.ReadRetries)
	}
	return nil
}

// verbosityToLevel clamps v to 1..5 and maps it to a util.LogLevel
func verbosityToLevel(v int) util.LogLevel {
	v = max(ErrorVerbose, min(TraceVerbose, v))
	lvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return lvls[v-1]
}

// singleRune returns s's only rune, or 0 (rejected by Validate) otherwise
func singleRune(s string) rune {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError {
		return 0
	}
	return r
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new validated Config by merging file overrides
// with defaults.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg := NewConfig(override)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
