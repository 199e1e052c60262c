package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:       "~/.config/pagetrail",
			SQLiteFile: "pagetrail.db",
		},
		Capture: CaptureConfig{
			ExcludeIncognito: true,
			ExcludedPatterns: DefaultExcludedPatterns(),
			DenylistDomains:  DefaultDenylistDomains(),
		},
		Search: SearchConfig{
			DebounceMillis: 300,
			MaxResults:     100,
		},
		Daemon: DaemonConfig{
			Host:      "127.0.0.1",
			Port:      8742,
			AuthToken: "",
		},
		Sync: SyncConfig{
			BackendURL:        "",
			Table:             "page_history",
			SpreadsheetSuffix: "_pagetrail",
			DebounceSeconds:   5,
			RequestsPerSecond: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultExcludedPatterns returns URL patterns that are never recorded:
// browser-internal schemes and extension pages.
func DefaultExcludedPatterns() []string {
	return []string{
		`^chrome://`,
		`^chrome-extension://`,
		`^about:`,
		`^edge:`,
		`^brave:`,
	}
}
