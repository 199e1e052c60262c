package cli

import (
	"bytes"
	"database/sql"
	"io"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/pagetrail/pagetrail/internal/kv"
	"github.com/pagetrail/pagetrail/internal/store"
)

// newTestStore creates a migrated in-memory history store for command tests.
func newTestStore(t *testing.T) (*store.HistoryStore, *kv.SQLiteStore) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runner := kv.NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	kvs, err := kv.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { kvs.Close() })

	return store.New(kvs, nil), kvs
}

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}
