// Package store owns the canonical URL → visit record mapping. Records are
// deduplicated by exact URL string, persisted wholesale as one JSON blob in
// the kv layer, and never mutated by anyone else.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/pagetrail/pagetrail/internal/kv"
	"github.com/pagetrail/pagetrail/internal/record"
)

// HistoryStore is the sole writer of persisted visit data. Every public
// operation degrades instead of failing: a bad record or a storage fault is
// logged and surfaces as false / an empty mapping / an absent record, so a
// glitch never breaks tracking or search.
//
// All mutations are serialized through a single mutex so at most one write
// to the persisted blob is in flight at a time.
type HistoryStore struct {
	mu  sync.Mutex
	kv  kv.Store
	log *slog.Logger
}

// New creates a HistoryStore over the given kv store. If logger is nil,
// slog.Default() is used.
func New(kvs kv.Store, logger *slog.Logger) *HistoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStore{kv: kvs, log: logger}
}

// Upsert records one page visit. If a record with this exact URL exists, its
// title is replaced, lastVisited is set to the candidate timestamp, and
// visitCount is incremented by 1; otherwise a new record starts at
// visitCount 1. The full mapping is rewritten to storage before returning.
// Returns false (leaving prior state unchanged) on malformed input or a
// persistence fault.
func (s *HistoryStore) Upsert(ctx context.Context, cand record.Candidate) bool {
	if cand.URL == "" || cand.Title == "" || cand.Domain == "" {
		s.log.Error("rejecting malformed visit candidate",
			"url", cand.URL, "title", cand.Title, "domain", cand.Domain)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.load(ctx)

	if existing, ok := history[cand.URL]; ok {
		existing.Title = cand.Title
		existing.LastVisited = cand.Timestamp
		existing.VisitCount++
		history[cand.URL] = existing
	} else {
		history[cand.URL] = record.VisitRecord{
			Title:       cand.Title,
			URL:         cand.URL,
			Domain:      cand.Domain,
			LastVisited: cand.Timestamp,
			VisitCount:  1,
		}
	}

	return s.save(ctx, history)
}

// Import inserts a fully-formed record only if its URL is absent, keeping
// the incoming visit count intact. Existing local records always win. Used
// by cloud-sync pulls; returns true if the record was added.
func (s *HistoryStore) Import(ctx context.Context, rec record.VisitRecord) bool {
	if !rec.Valid() {
		s.log.Warn("skipping invalid imported record", "url", rec.URL)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.load(ctx)
	if _, ok := history[rec.URL]; ok {
		return false
	}
	if rec.VisitCount < 1 {
		rec.VisitCount = 1
	}
	history[rec.URL] = rec

	return s.save(ctx, history)
}

// ReadAll returns a snapshot of the full current mapping. Missing or
// structurally invalid persisted data reads as empty history, not an error.
// The returned map is the caller's copy; mutating it has no effect on the
// store.
func (s *HistoryStore) ReadAll(ctx context.Context) map[string]record.VisitRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// ReadOne looks up a single record by exact URL.
func (s *HistoryStore) ReadOne(ctx context.Context, url string) (record.VisitRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.load(ctx)[url]
	return rec, ok
}

// Clear irreversibly deletes all records. Confirmation prompts are a UI
// concern and do not belong here.
func (s *HistoryStore) Clear(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, kv.KeyPageHistory); err != nil {
		s.log.Error("clearing history", "error", err)
		return false
	}
	return true
}

// load reads and decodes the history blob. Callers must hold s.mu.
func (s *HistoryStore) load(ctx context.Context) map[string]record.VisitRecord {
	data, err := s.kv.Get(ctx, kv.KeyPageHistory)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Error("reading history blob", "error", err)
		}
		return map[string]record.VisitRecord{}
	}

	var history map[string]record.VisitRecord
	if err := json.Unmarshal(data, &history); err != nil {
		// Corrupt blob: treat as no history rather than an error. The bytes
		// are left in place until the next successful write replaces them.
		s.log.Warn("history blob is not a valid mapping, treating as empty", "error", err)
		return map[string]record.VisitRecord{}
	}
	if history == nil {
		return map[string]record.VisitRecord{}
	}

	return history
}

// save encodes and writes the full mapping. Callers must hold s.mu.
func (s *HistoryStore) save(ctx context.Context, history map[string]record.VisitRecord) bool {
	data, err := json.Marshal(history)
	if err != nil {
		s.log.Error("encoding history blob", "error", err)
		return false
	}
	if err := s.kv.Put(ctx, kv.KeyPageHistory, data); err != nil {
		s.log.Error("writing history blob", "error", err)
		return false
	}
	return true
}
