package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vietanhduong/ndktrace/pkg/syms"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// NDK root. Empty means the first discovered installation.
	NDK string `yaml:"ndk"`
	// Unstripped library file or the directory holding the build output.
	Libraries string `yaml:"libraries"`
	// Extra install locations scanned for NDKs after the built-in ones.
	SearchPaths []string `yaml:"searchPaths"`
	// Bound for a single tool invocation, e.g. "10s". Zero disables it.
	Timeout time.Duration `yaml:"timeout"`
	// One of none, simplified, templates, full.
	Demangle string `yaml:"demangle"`
}

func Default() *Config {
	return &Config{
		Timeout:  syms.DEFAULT_TIMEOUT,
		Demangle: strings.ToLower(string(syms.DemangleNone)),
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if _, err := syms.ParseDemangleType(c.Demangle); err != nil {
		return fmt.Errorf("demangle: %w", err)
	}
	for i, p := range c.SearchPaths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("searchPaths[%d] is empty", i)
		}
	}
	return nil
}

// Options converts the resolver settings. Validate must have passed.
func (c *Config) Options() *syms.Options {
	opts := syms.DefaultOptions()
	opts.Timeout = c.Timeout
	if dt, err := syms.ParseDemangleType(c.Demangle); err == nil {
		opts.DemangleType = dt
	}
	return opts
}
