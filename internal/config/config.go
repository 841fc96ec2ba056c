// Package config provides configuration management for linkwatch using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files and environment variable
// overrides with a LINKWATCH_ prefix. It manages the linked-package table,
// mirror polling options, publish settings, and the development reload server.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	lwerrors "github.com/conneroisu/linkwatch/internal/errors"
)

// Defaults fixed by the watch protocol.
const (
	DefaultPollIntervalMs = 500
	DefaultExcludeMarker  = "node_modules"
)

type Config struct {
	Packages []PackageConfig `yaml:"packages" mapstructure:"packages"`
	Watch    WatchConfig     `yaml:"watch" mapstructure:"watch"`
	Publish  PublishConfig   `yaml:"publish" mapstructure:"publish"`
	Reload   ReloadConfig    `yaml:"reload" mapstructure:"reload"`
	Log      LogConfig       `yaml:"log" mapstructure:"log"`
}

// PackageConfig declares one linked package: the directory that is watched in
// place and the canonical source directory its files are mirrored from.
// Declaration order matters: classification scans roots in this order and the
// first containing root wins.
type PackageConfig struct {
	Name   string `yaml:"name" mapstructure:"name"`
	Root   string `yaml:"root" mapstructure:"root"`
	Source string `yaml:"source" mapstructure:"source"`
}

type WatchConfig struct {
	PollIntervalMs int    `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	ExcludeMarker  string `yaml:"exclude_marker" mapstructure:"exclude_marker"`
}

type PublishConfig struct {
	BuildDir    string `yaml:"build_dir" mapstructure:"build_dir"`
	Destination string `yaml:"destination" mapstructure:"destination"`
}

type ReloadConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Port    int    `yaml:"port" mapstructure:"port"`
	Host    string `yaml:"host" mapstructure:"host"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Watch.PollIntervalMs == 0 {
		config.Watch.PollIntervalMs = DefaultPollIntervalMs
	}
	if config.Watch.ExcludeMarker == "" {
		config.Watch.ExcludeMarker = DefaultExcludeMarker
	}
	if config.Reload.Port == 0 {
		config.Reload.Port = 7332
	}
	if config.Reload.Host == "" {
		config.Reload.Host = "localhost"
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// ResolvedRoot is one entry in the immutable watch-root table produced at
// startup. Root and Source are absolute paths verified to exist.
type ResolvedRoot struct {
	Name   string
	Root   string
	Source string
}

// ResolveRoots turns the configured package table into the immutable root
// table used for classification and mirroring. Any package whose root or
// source cannot be resolved to a real directory aborts startup: the root set
// must be fully known before classification can be trusted.
func (c *Config) ResolveRoots() ([]ResolvedRoot, error) {
	roots := make([]ResolvedRoot, 0, len(c.Packages))

	for _, pkg := range c.Packages {
		root, err := resolveDir(pkg.Root)
		if err != nil {
			return nil, lwerrors.NewConfigError("unresolved_watch_root",
				fmt.Sprintf("package %q: watch root %q cannot be resolved", pkg.Name, pkg.Root), err)
		}

		source, err := resolveDir(pkg.Source)
		if err != nil {
			return nil, lwerrors.NewConfigError("unresolved_watch_root",
				fmt.Sprintf("package %q: source directory %q cannot be resolved", pkg.Name, pkg.Source), err)
		}

		roots = append(roots, ResolvedRoot{Name: pkg.Name, Root: root, Source: source})
	}

	return roots, nil
}

func resolveDir(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}

	return abs, nil
}
