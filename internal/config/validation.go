package config

import (
	"fmt"
	"strings"

	lwerrors "github.com/conneroisu/linkwatch/internal/errors"
)

// Validate checks the configuration for structural problems before any
// filesystem resolution happens.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Packages))

	for i, pkg := range c.Packages {
		if strings.TrimSpace(pkg.Name) == "" {
			return lwerrors.NewConfigError("invalid_package",
				fmt.Sprintf("packages[%d]: name must not be empty", i), nil)
		}
		if seen[pkg.Name] {
			return lwerrors.NewConfigError("invalid_package",
				fmt.Sprintf("packages[%d]: duplicate package name %q", i, pkg.Name), nil)
		}
		seen[pkg.Name] = true

		if pkg.Root == "" {
			return lwerrors.NewConfigError("invalid_package",
				fmt.Sprintf("package %q: root must be set", pkg.Name), nil)
		}
		if pkg.Source == "" {
			return lwerrors.NewConfigError("invalid_package",
				fmt.Sprintf("package %q: source must be set", pkg.Name), nil)
		}
	}

	if c.Watch.PollIntervalMs < 0 {
		return lwerrors.NewConfigError("invalid_watch",
			fmt.Sprintf("watch.poll_interval_ms must not be negative, got %d", c.Watch.PollIntervalMs), nil)
	}

	if strings.ContainsRune(c.Watch.ExcludeMarker, '/') {
		return lwerrors.NewConfigError("invalid_watch",
			fmt.Sprintf("watch.exclude_marker must be a single path segment, got %q", c.Watch.ExcludeMarker), nil)
	}

	if c.Reload.Port < 0 || c.Reload.Port > 65535 {
		return lwerrors.NewConfigError("invalid_reload",
			fmt.Sprintf("reload.port must be between 0 and 65535, got %d", c.Reload.Port), nil)
	}

	if c.Publish.Destination != "" && c.Publish.BuildDir == "" {
		return lwerrors.NewConfigError("invalid_publish",
			"publish.build_dir must be set when publish.destination is configured", nil)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return lwerrors.NewConfigError("invalid_log",
			fmt.Sprintf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level), nil)
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return lwerrors.NewConfigError("invalid_log",
			fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format), nil)
	}

	return nil
}
