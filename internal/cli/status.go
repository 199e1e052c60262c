package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/pagetrail/pagetrail/internal/config"
	"github.com/pagetrail/pagetrail/internal/kv"
	"github.com/pagetrail/pagetrail/internal/store"
	syncsvc "github.com/pagetrail/pagetrail/internal/sync"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string            `json:"version"`
	DatabasePath      string            `json:"database_path"`
	DatabaseSizeBytes int64             `json:"database_size_bytes"`
	TotalRecords      int               `json:"total_records"`
	TotalVisits       int               `json:"total_visits"`
	OldestVisit       string            `json:"oldest_visit,omitempty"`
	NewestVisit       string            `json:"newest_visit,omitempty"`
	TopDomains        []domainCountJSON `json:"top_domains"`
	SyncEnabled       bool              `json:"sync_enabled"`
	DaemonRunning     bool              `json:"daemon_running"`
}

type domainCountJSON struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	a, err := openApp(c.globals)
	if err != nil {
		return err
	}
	defer a.close()

	return c.executeWithStore(a.store, a.kv, a.cfg, a.dbPath)
}

// executeWithStore runs status against provided stores (for testing).
func (c *StatusCommand) executeWithStore(s *store.HistoryStore, kvs kv.Store, cfg *config.Config, dbPath string) error {
	ctx := context.Background()
	snapshot := s.ReadAll(ctx)

	out := statusJSON{
		Version:      c.version,
		DatabasePath: dbPath,
		TotalRecords: len(snapshot),
		SyncEnabled:  syncsvc.NewFlag(kvs).Enabled(ctx),
	}
	out.DatabaseSizeBytes = fileSize(dbPath)

	byDomain := map[string]int{}
	var oldest, newest int64
	for _, rec := range snapshot {
		out.TotalVisits += rec.VisitCount
		byDomain[rec.Domain] += rec.VisitCount
		if oldest == 0 || rec.LastVisited < oldest {
			oldest = rec.LastVisited
		}
		if rec.LastVisited > newest {
			newest = rec.LastVisited
		}
	}
	if len(snapshot) > 0 {
		out.OldestVisit = time.UnixMilli(oldest).UTC().Format(time.RFC3339)
		out.NewestVisit = time.UnixMilli(newest).UTC().Format(time.RFC3339)
	}

	out.TopDomains = topDomains(byDomain, 10)
	out.DaemonRunning = checkDaemon(cfg)

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return c.printHuman(out)
}

func (c *StatusCommand) printHuman(out statusJSON) error {
	fmt.Println("Pagetrail Status")
	fmt.Println("================")
	fmt.Printf("Version:       %s\n", out.Version)
	fmt.Printf("Database:      %s (%s)\n", out.DatabasePath, formatBytes(out.DatabaseSizeBytes))
	fmt.Printf("Pages:         %s\n", formatNumber(out.TotalRecords))
	fmt.Printf("Visits:        %s\n", formatNumber(out.TotalVisits))

	if out.TotalRecords > 0 {
		fmt.Printf("Oldest:        %s\n", out.OldestVisit)
		fmt.Printf("Newest:        %s\n", out.NewestVisit)
	}

	if len(out.TopDomains) > 0 {
		fmt.Println()
		fmt.Println("Top Domains:")
		for _, d := range out.TopDomains {
			fmt.Printf("  %-28s %s\n", d.Domain, formatNumber(d.Count))
		}
	}

	fmt.Println()
	if out.SyncEnabled {
		fmt.Println("Sync:          enabled")
	} else {
		fmt.Println("Sync:          disabled")
	}
	if out.DaemonRunning {
		fmt.Println("Daemon:        running")
	} else {
		fmt.Println("Daemon:        not running")
	}

	return nil
}

// topDomains returns the n most-visited domains, ties broken alphabetically.
func topDomains(byDomain map[string]int, n int) []domainCountJSON {
	domains := make([]domainCountJSON, 0, len(byDomain))
	for domain, count := range byDomain {
		domains = append(domains, domainCountJSON{Domain: domain, Count: count})
	}
	sort.Slice(domains, func(i, j int) bool {
		if domains[i].Count != domains[j].Count {
			return domains[i].Count > domains[j].Count
		}
		return domains[i].Domain < domains[j].Domain
	})
	if len(domains) > n {
		domains = domains[:n]
	}
	return domains
}

// checkDaemon attempts an HTTP GET to the configured daemon endpoint.
// Returns true if the daemon responds within 1 second.
func checkDaemon(cfg *config.Config) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	url := fmt.Sprintf("http://%s:%d/status", cfg.Daemon.Host, cfg.Daemon.Port)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	if cfg.Daemon.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Daemon.AuthToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
