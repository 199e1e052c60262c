package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagetrail/pagetrail/internal/schedule"
	"github.com/pagetrail/pagetrail/internal/store"
)

// Service coordinates push and pull between the local history store and the
// backend. It reads snapshots via ReadAll and merges remote records through
// the store's import path; it never writes the history blob itself.
type Service struct {
	store    *store.HistoryStore
	client   *BackendClient
	flag     *Flag
	debounce *schedule.Debouncer
	log      *slog.Logger
}

// NewService creates a sync service. debounceDelay coalesces background
// pushes after bursts of page visits. If logger is nil, slog.Default() is
// used.
func NewService(s *store.HistoryStore, client *BackendClient, flag *Flag, debounceDelay time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    s,
		client:   client,
		flag:     flag,
		debounce: schedule.NewDebouncer(debounceDelay),
		log:      logger,
	}
}

// Enable switches sync on.
func (s *Service) Enable(ctx context.Context) error { return s.flag.Set(ctx, true) }

// Disable switches sync off and cancels any pending background push.
func (s *Service) Disable(ctx context.Context) error {
	s.debounce.Stop()
	return s.flag.Set(ctx, false)
}

// Enabled reports the persisted sync flag.
func (s *Service) Enabled(ctx context.Context) bool { return s.flag.Enabled(ctx) }

// Push uploads the full local snapshot to the backend. Returns the number of
// records pushed.
func (s *Service) Push(ctx context.Context) (int, error) {
	if !s.flag.Enabled(ctx) {
		return 0, fmt.Errorf("sync is not enabled")
	}

	snapshot := s.store.ReadAll(ctx)
	if len(snapshot) == 0 {
		return 0, nil
	}

	rows := make([]Row, 0, len(snapshot))
	for _, rec := range snapshot {
		if !rec.Valid() {
			continue
		}
		rows = append(rows, RowFromRecord(s.client.session, rec))
	}

	if err := s.client.UpsertRows(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Pull fetches this session's rows from the backend and imports those whose
// URLs are absent locally. Local records always win; imported records keep
// their cloud visit counts. Returns (fetched, merged).
func (s *Service) Pull(ctx context.Context) (int, int, error) {
	if !s.flag.Enabled(ctx) {
		return 0, 0, fmt.Errorf("sync is not enabled")
	}

	rows, err := s.client.FetchRows(ctx)
	if err != nil {
		return 0, 0, err
	}

	merged := 0
	for _, row := range rows {
		if s.store.Import(ctx, row.Record()) {
			merged++
		}
	}
	return len(rows), merged, nil
}

// NotifyVisit schedules a debounced background push. Bursts of visits
// coalesce into one upload; failures are logged and swallowed so tracking
// is never affected.
func (s *Service) NotifyVisit() {
	s.debounce.Schedule(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if !s.flag.Enabled(ctx) {
			return
		}
		if n, err := s.Push(ctx); err != nil {
			s.log.Warn("background sync failed", "error", err)
		} else {
			s.log.Debug("background sync completed", "records", n)
		}
	})
}

// Stop cancels any pending background push.
func (s *Service) Stop() { s.debounce.Stop() }
