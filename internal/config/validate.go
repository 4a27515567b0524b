package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSync() error {
	if c.Sync.Source == "" || c.Sync.Target == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/catalogsync/config.toml"
		}
		return fmt.Errorf("sync.source and sync.target are required. Edit %s (create with 'catalogsync-cli config init')", defaultPath)
	}
	if c.Sync.Source == c.Sync.Target {
		return errors.New("sync.source and sync.target must name different catalogs")
	}
	for _, name := range []string{c.Sync.Source, c.Sync.Target} {
		path, ok := c.Catalogs[name]
		if !ok || path == "" {
			return fmt.Errorf("catalogs.%s must be set", name)
		}
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.Concurrency < 1 {
		return errors.New("search.concurrency must be at least 1")
	}
	if c.Search.TimeoutSeconds < 1 {
		return errors.New("search.timeout_seconds must be at least 1")
	}
	if (c.Search.Endpoint == "") != (c.Search.Index == "") {
		return errors.New("search.endpoint and search.index must be set together")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}
	return nil
}
