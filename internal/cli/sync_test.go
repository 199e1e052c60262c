package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagetrail/pagetrail/internal/record"
	syncsvc "github.com/pagetrail/pagetrail/internal/sync"
)

// newSyncService wires a sync service against a throwaway backend.
func newSyncService(t *testing.T) (*syncsvc.Service, *int) {
	t.Helper()

	pushes := new(int)
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/page_history", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			*pushes++
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode([]syncsvc.Row{}))
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	s, kvs := newTestStore(t)
	seedPages(t, s, record.Candidate{Title: "A", URL: "https://a.example.com", Domain: "a.example.com", Timestamp: 1_000})

	session, err := syncsvc.NewSession(context.Background(), kvs, "secret")
	require.NoError(t, err)

	client := syncsvc.NewBackendClient(server.URL, "page_history", session, 100)
	service := syncsvc.NewService(s, client, syncsvc.NewFlag(kvs), 10*time.Millisecond, nil)
	t.Cleanup(service.Stop)
	return service, pushes
}

func TestSyncCommand_EnableThenPush(t *testing.T) {
	service, pushes := newSyncService(t)

	cmd := &SyncCommand{Enable: true, Push: true, globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithService(context.Background(), service))
	})

	assert.Contains(t, output, "Sync: enabled")
	assert.Contains(t, output, "pushed 1 page")
	assert.Equal(t, 1, *pushes)
}

func TestSyncCommand_PushRequiresEnabledFlag(t *testing.T) {
	service, pushes := newSyncService(t)

	cmd := &SyncCommand{Push: true, globals: &GlobalFlags{}}
	err := cmd.executeWithService(context.Background(), service)
	require.Error(t, err)
	assert.Zero(t, *pushes)
}

func TestSyncCommand_Disable(t *testing.T) {
	service, _ := newSyncService(t)
	ctx := context.Background()
	require.NoError(t, service.Enable(ctx))

	cmd := &SyncCommand{Disable: true, globals: &GlobalFlags{}}
	captureOutput(t, func() {
		require.NoError(t, cmd.executeWithService(ctx, service))
	})

	assert.False(t, service.Enabled(ctx))
}

func TestSyncCommand_PullReportsCounts(t *testing.T) {
	service, _ := newSyncService(t)
	ctx := context.Background()
	require.NoError(t, service.Enable(ctx))

	cmd := &SyncCommand{Pull: true, globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithService(ctx, service))
	})

	var out map[string]int
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, 0, out["fetched"])
	assert.Equal(t, 0, out["merged"])
}
