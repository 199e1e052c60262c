package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// StatusCommand — show history totals, database info, and sync state.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// SearchCommand — search recorded pages by keyword, ranked by relevance
// and recency.
type SearchCommand struct {
	Limit  int `long:"limit" description:"Maximum results to display" default:"100"`
	Offset int `long:"offset" description:"Skip first N results" default:"0"`

	globals *GlobalFlags
	version string
}

// AddCommand — manually record a page visit.
type AddCommand struct {
	URL       string `long:"url" description:"URL to record (required)"`
	Title     string `long:"title" description:"Page title (falls back to URL)"`
	Timestamp int64  `long:"timestamp" description:"Visit time as epoch milliseconds (default: now)"`

	globals *GlobalFlags
	version string
}

// ServeCommand — start the local ingest daemon (HTTP service for browser
// extensions).
type ServeCommand struct {
	Port     int    `long:"port" description:"Override daemon port"`
	LogLevel string `long:"log-level" description:"Override log level"`

	globals *GlobalFlags
	version string
}

// SyncCommand — push/pull history to the cloud backend or export to a
// Google spreadsheet.
type SyncCommand struct {
	Enable  bool `long:"enable" description:"Turn sync on"`
	Disable bool `long:"disable" description:"Turn sync off"`
	Push    bool `long:"push" description:"Upload local history to the backend"`
	Pull    bool `long:"pull" description:"Fetch cloud history and merge new URLs"`
	Sheets  bool `long:"sheets" description:"Export history to a Google spreadsheet"`

	globals *GlobalFlags
	version string
}

// PurgeCommand — delete ALL recorded history with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
}
