package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pagetrail/pagetrail/internal/config"
	"github.com/pagetrail/pagetrail/internal/store"
	"github.com/pagetrail/pagetrail/internal/visit"
)

// Execute implements the go-flags Commander interface for AddCommand.
func (c *AddCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for add command")
	}

	a, err := openApp(c.globals)
	if err != nil {
		return err
	}
	defer a.close()

	return c.executeWithStore(a.store, a.cfg)
}

// executeWithStore runs the add logic against a provided store (used by tests).
func (c *AddCommand) executeWithStore(s *store.HistoryStore, cfg *config.Config) error {
	processor := visit.NewProcessor(s, cfg.CompiledExclusions(), cfg.Capture.DenylistDomains, nil)

	ctx := context.Background()
	recorded := processor.Process(ctx, visit.PageVisit{
		Title:     c.Title,
		URL:       c.URL,
		Timestamp: c.Timestamp,
	})
	if !recorded {
		return fmt.Errorf("visit was not recorded: %s is filtered or invalid", c.URL)
	}

	rec, found := s.ReadOne(ctx, c.URL)
	if !found {
		return fmt.Errorf("record not found after upsert: %s", c.URL)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Printf("Recorded visit to %s\n", rec.URL)
	fmt.Printf("  Title:   %s\n", rec.Title)
	fmt.Printf("  Domain:  %s\n", rec.Domain)
	fmt.Printf("  Visits:  %d\n", rec.VisitCount)
	fmt.Printf("  Last:    %s\n", time.UnixMilli(rec.LastVisited).Format(time.RFC3339))

	return nil
}
