package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvConfigPath names the environment variable that overrides the config location
const EnvConfigPath = "CATALOGSYNC_CONFIG"

// EnvSearchAPIKey names the environment variable that supplies search.api_key
const EnvSearchAPIKey = "CATALOGSYNC_SEARCH_API_KEY"

// Sync selects the pair database and the ordered catalog pair of a session.
type Sync struct {
	Database string `toml:"database"`
	Source   string `toml:"source"`
	Target   string `toml:"target"`
}

// Search contains configuration for the candidate ranking service.
type Search struct {
	Endpoint       string `toml:"endpoint"`
	Index          string `toml:"index"`
	APIKey         string `toml:"api_key"`
	APIVersion     string `toml:"api_version"`
	ScoringProfile string `toml:"scoring_profile"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Concurrency    int    `toml:"concurrency"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// Config is the top-level configuration.
type Config struct {
	Sync Sync `toml:"sync"`
	// Catalogs maps catalog names to their SQLite database files
	Catalogs map[string]string `toml:"catalogs"`
	Search   Search            `toml:"search"`
	Logging  Logging           `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/catalogsync/config.toml")
}

// Load locates, parses, and validates a configuration file. An empty path
// falls back to CATALOGSYNC_CONFIG, then to the default location. It returns
// the resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

// CatalogPath returns the database file of a named catalog.
func (c *Config) CatalogPath(name string) (string, error) {
	path, ok := c.Catalogs[name]
	if !ok {
		return "", fmt.Errorf("catalog %q is not defined in [catalogs]", name)
	}
	return path, nil
}

// SearchEnabled reports whether a ranking service is configured.
func (c *Config) SearchEnabled() bool {
	return c.Search.Endpoint != "" && c.Search.Index != ""
}

func (c *Config) normalize() error {
	var err error
	if c.Sync.Database, err = expandPath(c.Sync.Database); err != nil {
		return err
	}
	c.Sync.Source = strings.TrimSpace(c.Sync.Source)
	c.Sync.Target = strings.TrimSpace(c.Sync.Target)

	for name, path := range c.Catalogs {
		expanded, err := expandPath(path)
		if err != nil {
			return fmt.Errorf("catalogs.%s: %w", name, err)
		}
		c.Catalogs[name] = expanded
	}

	c.Search.Endpoint = strings.TrimRight(strings.TrimSpace(c.Search.Endpoint), "/")
	c.Search.Index = strings.TrimSpace(c.Search.Index)
	c.Search.APIKey = strings.TrimSpace(c.Search.APIKey)
	if c.Search.APIKey == "" {
		if value, ok := os.LookupEnv(EnvSearchAPIKey); ok {
			c.Search.APIKey = strings.TrimSpace(value)
		}
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
		return err
	}
	return nil
}

// ExpandPath expands a leading ~ and returns an absolute path. Blank input
// stays blank.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
