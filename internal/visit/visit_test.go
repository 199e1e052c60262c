package visit

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagetrail/pagetrail/internal/config"
	"github.com/pagetrail/pagetrail/internal/kv"
	"github.com/pagetrail/pagetrail/internal/store"
)

func testProcessor(t *testing.T) (*Processor, *store.HistoryStore) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runner := kv.NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	kvs, err := kv.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { kvs.Close() })

	s := store.New(kvs, nil)
	cfg := config.DefaultConfig()
	p := NewProcessor(s, cfg.CompiledExclusions(), cfg.Capture.DenylistDomains, nil)
	return p, s
}

func TestProcess_AcceptsAndStoresVisit(t *testing.T) {
	p, s := testProcessor(t)
	ctx := context.Background()

	ok := p.Process(ctx, PageVisit{
		Title:     "Go Programming Language",
		URL:       "https://go.dev/",
		Timestamp: 12345,
	})
	require.True(t, ok)

	rec, found := s.ReadOne(ctx, "https://go.dev/")
	require.True(t, found)
	assert.Equal(t, "go.dev", rec.Domain)
	assert.Equal(t, int64(12345), rec.LastVisited)
	assert.Equal(t, 1, rec.VisitCount)
}

func TestProcess_ZeroTimestampMeansNow(t *testing.T) {
	p, s := testProcessor(t)
	p.now = func() int64 { return 777 }

	require.True(t, p.Process(context.Background(), PageVisit{
		Title: "A", URL: "https://a.com/",
	}))

	rec, _ := s.ReadOne(context.Background(), "https://a.com/")
	assert.Equal(t, int64(777), rec.LastVisited)
}

func TestProcess_FiltersNonHTTPSchemes(t *testing.T) {
	p, s := testProcessor(t)
	ctx := context.Background()

	assert.False(t, p.Process(ctx, PageVisit{Title: "Settings", URL: "chrome://settings"}))
	assert.False(t, p.Process(ctx, PageVisit{Title: "Blank", URL: "about:blank"}))
	assert.False(t, p.Process(ctx, PageVisit{Title: "FTP", URL: "ftp://files.example.com/"}))
	assert.False(t, p.Process(ctx, PageVisit{Title: "Empty"}))

	assert.Empty(t, s.ReadAll(ctx))
}

func TestProcess_FiltersExcludedPatterns(t *testing.T) {
	p, s := testProcessor(t)
	ctx := context.Background()

	// http-scheme URL that still matches a configured exclusion pattern.
	cfg := config.DefaultConfig()
	cfg.Capture.ExcludedPatterns = append(cfg.Capture.ExcludedPatterns, `^https://internal\.corp/`)
	p.exclusions = cfg.CompiledExclusions()

	assert.False(t, p.Process(ctx, PageVisit{Title: "Wiki", URL: "https://internal.corp/wiki"}))
	assert.Empty(t, s.ReadAll(ctx))
}

func TestProcess_FiltersIncognito(t *testing.T) {
	p, s := testProcessor(t)
	ctx := context.Background()

	assert.False(t, p.Process(ctx, PageVisit{
		Title: "Secret", URL: "https://example.com/", Incognito: true,
	}))
	assert.Empty(t, s.ReadAll(ctx))
}

func TestProcess_FiltersDenylistedDomains(t *testing.T) {
	p, s := testProcessor(t)
	ctx := context.Background()

	assert.False(t, p.Process(ctx, PageVisit{
		Title: "Chase Online", URL: "https://chase.com/login",
	}))
	assert.Empty(t, s.ReadAll(ctx))
}

func TestProcess_EmptyTitleFallsBackToURL(t *testing.T) {
	p, s := testProcessor(t)
	ctx := context.Background()

	require.True(t, p.Process(ctx, PageVisit{URL: "https://example.com/page", Timestamp: 1}))

	rec, found := s.ReadOne(ctx, "https://example.com/page")
	require.True(t, found)
	assert.Equal(t, "https://example.com/page", rec.Title)
}

func TestProcess_NotifiesAfterAcceptedVisit(t *testing.T) {
	p, _ := testProcessor(t)
	ctx := context.Background()

	var notified int
	p.OnRecorded(func() { notified++ })

	require.True(t, p.Process(ctx, PageVisit{Title: "A", URL: "https://a.com/", Timestamp: 1}))
	assert.Equal(t, 1, notified)

	// Filtered visits do not notify.
	p.Process(ctx, PageVisit{Title: "X", URL: "chrome://x"})
	assert.Equal(t, 1, notified)
}
