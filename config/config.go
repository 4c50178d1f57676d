// config holds the settings of a download run. Values come from the
// defaults, an optional YAML file and the environment, in that order;
// command line flags are merged on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/handsomefox/kemonodl/filter"
	"gopkg.in/yaml.v3"
)

const (
	DefaultOutputDir    = "./download"
	DefaultConcurrency  = 4
	DefaultStallTimeout = 10 * time.Second
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the configuration of a download run.
type Config struct {
	OutputDir    string
	Concurrency  int
	StallTimeout time.Duration
	Progress     bool
	Verbose      bool
	Filters      Filters
}

// Filters holds the raw regular expressions of the title and file name filters.
type Filters struct {
	TitleWhitelist []string `yaml:"title_whitelist"`
	TitleBlacklist []string `yaml:"title_blacklist"`
	FileWhitelist  []string `yaml:"file_whitelist"`
	FileBlacklist  []string `yaml:"file_blacklist"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		OutputDir:    DefaultOutputDir,
		Concurrency:  DefaultConcurrency,
		StallTimeout: DefaultStallTimeout,
	}
}

// yamlConfig is used for YAML unmarshaling with a string stall timeout.
type yamlConfig struct {
	OutputDir    string  `yaml:"output_dir"`
	Concurrency  int     `yaml:"concurrency"`
	StallTimeout string  `yaml:"stall_timeout"`
	Progress     bool    `yaml:"progress"`
	Verbose      bool    `yaml:"verbose"`
	Filters      Filters `yaml:"filters"`
}

// LoadFile loads configuration from a YAML file on top of the defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: couldn't read config file(name=%s)", err, path)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("%w: couldn't parse config file(name=%s)", err, path)
	}

	cfg := Default()
	if yc.OutputDir != "" {
		cfg.OutputDir = yc.OutputDir
	}
	if yc.Concurrency != 0 {
		cfg.Concurrency = yc.Concurrency
	}
	if yc.StallTimeout != "" {
		d, err := time.ParseDuration(yc.StallTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("%w: couldn't parse stall_timeout", err)
		}
		cfg.StallTimeout = d
	}
	cfg.Progress = yc.Progress
	cfg.Verbose = yc.Verbose
	cfg.Filters = yc.Filters

	return cfg, nil
}

// LoadFromEnv overrides values from KEMONODL_ environment variables.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("KEMONODL_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("KEMONODL_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: couldn't parse KEMONODL_CONCURRENCY", err)
		}
		c.Concurrency = n
	}
	if v := os.Getenv("KEMONODL_STALL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: couldn't parse KEMONODL_STALL_TIMEOUT", err)
		}
		c.StallTimeout = d
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored; pattern lists are appended.
func (c Config) Merge(override Config) Config {
	if override.OutputDir != "" {
		c.OutputDir = override.OutputDir
	}
	if override.Concurrency != 0 {
		c.Concurrency = override.Concurrency
	}
	if override.StallTimeout != 0 {
		c.StallTimeout = override.StallTimeout
	}
	if override.Progress {
		c.Progress = true
	}
	if override.Verbose {
		c.Verbose = true
	}
	c.Filters = Filters{
		TitleWhitelist: concat(c.Filters.TitleWhitelist, override.Filters.TitleWhitelist),
		TitleBlacklist: concat(c.Filters.TitleBlacklist, override.Filters.TitleBlacklist),
		FileWhitelist:  concat(c.Filters.FileWhitelist, override.Filters.FileWhitelist),
		FileBlacklist:  concat(c.Filters.FileBlacklist, override.Filters.FileBlacklist),
	}
	return c
}

func concat(a, b []string) []string {
	if len(a) == 0 {
		return b
	}
	return append(append(make([]string, 0, len(a)+len(b)), a...), b...)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalid)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be positive (got %d)", ErrInvalid, c.Concurrency)
	}
	if c.StallTimeout <= 0 {
		return fmt.Errorf("%w: stall timeout must be positive (got %s)", ErrInvalid, c.StallTimeout)
	}
	if _, err := c.Filters.Compile(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}
	return nil
}

// Compile compiles every pattern list.
func (f Filters) Compile() (filter.Filters, error) {
	title, err := filter.NewPair(f.TitleWhitelist, f.TitleBlacklist)
	if err != nil {
		return filter.Filters{}, fmt.Errorf("%w: title filter", err)
	}
	file, err := filter.NewPair(f.FileWhitelist, f.FileBlacklist)
	if err != nil {
		return filter.Filters{}, fmt.Errorf("%w: file filter", err)
	}
	return filter.Filters{Title: title, File: file}, nil
}
