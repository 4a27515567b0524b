package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogsync/internal/config"
)

func writeConfig(t *testing.T, cfg map[string]any) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func validConfig() map[string]any {
	return map[string]any{
		"sync": map[string]any{
			"database": "~/sync/pairs.db",
			"source":   "sk",
			"target":   "cz",
		},
		"catalogs": map[string]any{
			"sk": "~/catalogs/sk.db",
			"cz": "/srv/catalogs/cz.db",
		},
	}
}

func TestLoadExpandsPathsAndAppliesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvSearchAPIKey, "")

	path := writeConfig(t, validConfig())
	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)

	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, filepath.Join(home, "sync", "pairs.db"), cfg.Sync.Database)
	assert.Equal(t, filepath.Join(home, "catalogs", "sk.db"), cfg.Catalogs["sk"])
	assert.Equal(t, "/srv/catalogs/cz.db", cfg.Catalogs["cz"])

	defaults := config.Default()
	assert.Equal(t, defaults.Search.Concurrency, cfg.Search.Concurrency)
	assert.Equal(t, defaults.Search.APIVersion, cfg.Search.APIVersion)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.False(t, cfg.SearchEnabled())

	source, err := cfg.CatalogPath("sk")
	require.NoError(t, err)
	assert.Equal(t, cfg.Catalogs["sk"], source)
	_, err = cfg.CatalogPath("pl")
	assert.Error(t, err)
}

func TestLoadUsesEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, validConfig())
	t.Setenv(config.EnvConfigPath, path)
	t.Setenv(config.EnvSearchAPIKey, " env-key ")

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, "env-key", cfg.Search.APIKey)
}

func TestLoadFileAPIKeyWinsOverEnvironment(t *testing.T) {
	t.Setenv(config.EnvSearchAPIKey, "env-key")
	raw := validConfig()
	raw["search"] = map[string]any{
		"endpoint": "https://search.example.net/",
		"index":    "items",
		"api_key":  "file-key",
	}

	cfg, _, _, err := config.Load(writeConfig(t, raw))
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.Search.APIKey)
	assert.Equal(t, "https://search.example.net", cfg.Search.Endpoint)
	assert.True(t, cfg.SearchEnabled())
}

func TestLoadMissingFileFailsValidation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvConfigPath, "")

	_, _, _, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync.source")
}

func TestLoadRejectsDirectory(t *testing.T) {
	_, _, _, err := config.Load(t.TempDir())
	assert.ErrorContains(t, err, "is a directory")
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sync\nsource = "), 0o600))

	_, _, _, err := config.Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"same catalogs", func(c *config.Config) { c.Sync.Target = c.Sync.Source }, "different catalogs"},
		{"undefined target", func(c *config.Config) { delete(c.Catalogs, "cz") }, "catalogs.cz"},
		{"zero concurrency", func(c *config.Config) { c.Search.Concurrency = 0 }, "concurrency"},
		{"zero timeout", func(c *config.Config) { c.Search.TimeoutSeconds = 0 }, "timeout_seconds"},
		{"endpoint without index", func(c *config.Config) { c.Search.Endpoint = "https://x" }, "set together"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Sync.Source = "sk"
			cfg.Sync.Target = "cz"
			cfg.Catalogs = map[string]string{"sk": "/a.db", "cz": "/b.db"}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path))

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "sk", cfg.Sync.Source)
	assert.Equal(t, "cz", cfg.Sync.Target)
	assert.Equal(t, 5, cfg.Search.Concurrency)
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := config.ExpandPath("~/catalogs/../catalogs/sk.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "catalogs", "sk.db"), got)

	got, err = config.ExpandPath("  ")
	require.NoError(t, err)
	assert.Empty(t, got)
}
