package cli

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pagetrail/pagetrail/internal/config"
	"github.com/pagetrail/pagetrail/internal/kv"
	"github.com/pagetrail/pagetrail/internal/store"
)

// Environment variables holding sync credentials. Secrets never live in the
// config file; a .env file is honored when present (loaded in main).
const (
	EnvBackendToken = "PAGETRAIL_BACKEND_TOKEN"
	EnvSheetsToken  = "PAGETRAIL_SHEETS_TOKEN"
)

// app bundles everything a subcommand needs after bootstrap.
type app struct {
	cfg    *config.Config
	kv     *kv.SQLiteStore
	db     *sql.DB
	store  *store.HistoryStore
	dbPath string
}

func (a *app) close() {
	a.kv.Close()
	a.db.Close()
}

// loadConfig resolves the config path from globals and loads (or creates) it.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		return config.LoadOrCreateAt(globals.Config)
	}
	return config.LoadOrCreate()
}

// openApp loads config and opens the store stack.
func openApp(globals *GlobalFlags) (*app, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}

	kvs, db, err := kv.Open(dbPath)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		kv:     kvs,
		db:     db,
		store:  store.New(kvs, nil),
		dbPath: dbPath,
	}, nil
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int with comma separators.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
		if len(s) > remainder {
			result.WriteString(",")
		}
	}
	for i := remainder; i < len(s); i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// formatRelativeTime renders an epoch-ms timestamp as "2 hours ago".
func formatRelativeTime(millis int64, now time.Time) string {
	if millis <= 0 {
		return "unknown"
	}

	diff := now.Sub(time.UnixMilli(millis))
	if diff < 0 {
		return "just now"
	}

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/(24*30)), "month")
	default:
		return plural(int(diff.Hours()/(24*365)), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// fileSize returns the size of a file, or 0 when unavailable.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
