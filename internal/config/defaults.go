package config

const (
	defaultLogLevel       = "info"
	defaultLogFormat      = "text"
	defaultAPIVersion     = "2024-11-01-preview"
	defaultScoringProfile = "priority_search"
	defaultSearchTimeout  = 10
	defaultConcurrency    = 5
)

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Sync: Sync{
			Database: "~/.local/share/catalogsync/sync.db",
		},
		Catalogs: map[string]string{},
		Search: Search{
			APIVersion:     defaultAPIVersion,
			ScoringProfile: defaultScoringProfile,
			TimeoutSeconds: defaultSearchTimeout,
			Concurrency:    defaultConcurrency,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
