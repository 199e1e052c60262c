package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	syncsvc "github.com/pagetrail/pagetrail/internal/sync"
)

// Execute implements the go-flags Commander interface for SyncCommand.
func (c *SyncCommand) Execute(args []string) error {
	if !c.Enable && !c.Disable && !c.Push && !c.Pull && !c.Sheets {
		return fmt.Errorf("nothing to do: pass --enable, --disable, --push, --pull, or --sheets")
	}
	if c.Enable && c.Disable {
		return fmt.Errorf("--enable and --disable are mutually exclusive")
	}

	a, err := openApp(c.globals)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if c.Sheets {
		return c.exportSheets(ctx, a)
	}

	if a.cfg.Sync.BackendURL == "" {
		return fmt.Errorf("sync backend is not configured: set sync.backend_url in the config file")
	}

	session, err := syncsvc.NewSession(ctx, a.kv, os.Getenv(EnvBackendToken))
	if err != nil {
		return fmt.Errorf("init sync session: %w", err)
	}
	client := syncsvc.NewBackendClient(
		a.cfg.Sync.BackendURL, a.cfg.Sync.Table, session, a.cfg.Sync.RequestsPerSecond)
	service := syncsvc.NewService(
		a.store, client, syncsvc.NewFlag(a.kv),
		time.Duration(a.cfg.Sync.DebounceSeconds)*time.Second, nil)
	defer service.Stop()

	return c.executeWithService(ctx, service)
}

// executeWithService runs the backend sync actions against an already-built
// service. Split out so tests can inject a service backed by a fake server.
func (c *SyncCommand) executeWithService(ctx context.Context, service *syncsvc.Service) error {
	if c.Enable {
		if err := service.Enable(ctx); err != nil {
			return fmt.Errorf("enable sync: %w", err)
		}
		c.printResult("enabled", map[string]any{"enabled": true})
	}
	if c.Disable {
		if err := service.Disable(ctx); err != nil {
			return fmt.Errorf("disable sync: %w", err)
		}
		c.printResult("disabled", map[string]any{"enabled": false})
	}

	if c.Push {
		pushed, err := service.Push(ctx)
		if err != nil {
			return fmt.Errorf("push: %w", err)
		}
		c.printResult(
			fmt.Sprintf("pushed %s %s", formatNumber(pushed), pageWord(pushed)),
			map[string]any{"pushed": pushed})
	}
	if c.Pull {
		fetched, merged, err := service.Pull(ctx)
		if err != nil {
			return fmt.Errorf("pull: %w", err)
		}
		c.printResult(
			fmt.Sprintf("fetched %s %s, merged %s new",
				formatNumber(fetched), pageWord(fetched), formatNumber(merged)),
			map[string]any{"fetched": fetched, "merged": merged})
	}
	return nil
}

func (c *SyncCommand) exportSheets(ctx context.Context, a *app) error {
	token := os.Getenv(EnvSheetsToken)
	if token == "" {
		return fmt.Errorf("%s is not set: a Google OAuth access token is required for --sheets", EnvSheetsToken)
	}

	session, err := syncsvc.NewSession(ctx, a.kv, token)
	if err != nil {
		return fmt.Errorf("init sync session: %w", err)
	}

	snapshot := a.store.ReadAll(ctx)

	exporter := syncsvc.NewSheetsExporter(session, a.cfg.Sync.SpreadsheetSuffix)
	exported, err := exporter.Export(ctx, snapshot)
	if err != nil {
		return fmt.Errorf("export to sheets: %w", err)
	}

	c.printResult(
		fmt.Sprintf("exported %s %s to Google Sheets", formatNumber(exported), pageWord(exported)),
		map[string]any{"exported": exported})
	return nil
}

func (c *SyncCommand) printResult(human string, payload map[string]any) {
	if c.globals != nil && c.globals.JSON {
		out, _ := json.MarshalIndent(payload, "", "  ")
		fmt.Println(string(out))
		return
	}
	fmt.Printf("Sync: %s\n", human)
}
