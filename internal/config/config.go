// Package config loads and validates the optional .subproc YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deixis/subproc"
)

// DefaultMaxOutput caps each captured stream when the file sets no limit.
const DefaultMaxOutput = 1 << 20 // 1 MB

// Config holds the parsed .subproc configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version      int               `yaml:"version"`
	RawTimeout   string            `yaml:"timeout"`    // e.g. "30s"; empty disables the deadline
	RawMaxOutput int               `yaml:"max_output"` // bytes per stream
	RawGrace     string            `yaml:"grace"`      // drain window after a timeout kill
	RawReap      string            `yaml:"reap"`       // best-effort reap wait
	Shell        string            `yaml:"shell"`      // shell binary for script runs
	Env          map[string]string `yaml:"env"`        // default environment overrides
}

// Timeout returns the configured default deadline. Zero means no deadline.
func (c *Config) Timeout() time.Duration {
	return c.duration(c.RawTimeout, 0)
}

// MaxOutputBytes returns the per-stream output cap.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// Grace returns the configured drain grace window.
func (c *Config) Grace() time.Duration {
	return c.duration(c.RawGrace, subproc.DefaultGrace)
}

// Reap returns the configured reap wait.
func (c *Config) Reap() time.Duration {
	return c.duration(c.RawReap, subproc.DefaultReap)
}

// ShellPath returns the configured shell binary.
func (c *Config) ShellPath() string {
	if c.Shell != "" {
		return c.Shell
	}
	return subproc.DefaultShell
}

func (c *Config) duration(raw string, def time.Duration) time.Duration {
	if raw != "" {
		d, err := time.ParseDuration(raw)
		if err == nil && d > 0 {
			return d
		}
	}
	return def
}

// Executor builds an Executor from the configuration.
func (c *Config) Executor() *subproc.Executor {
	return &subproc.Executor{
		Grace:     c.Grace(),
		Reap:      c.Reap(),
		MaxOutput: c.MaxOutputBytes(),
		Shell:     c.ShellPath(),
	}
}

// Load reads the .subproc file, discovered by walking upward from dir.
// If no file exists anywhere up the tree, a default Config is returned.
func Load(dir string) (*Config, error) {
	path, err := find(dir)
	if err != nil {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// find walks upward from dir looking for a .subproc file.
func find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, ".subproc")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf(".subproc not found")
		}
		dir = parent
	}
}
