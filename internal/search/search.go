// Package search ranks a snapshot of visit records against a free-text
// query. The engine is pure: it holds no state between calls and never
// touches the store, it only scores the snapshot it is handed.
package search

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pagetrail/pagetrail/internal/record"
)

// Relevance bonuses. All are additive: a title that matches exactly also
// starts with and contains the query, so it collects all three title
// bonuses. That layering is observable in ranking order and is kept as-is.
const (
	bonusTitleExact     = 1000
	bonusTitlePrefix    = 500
	bonusTitleContains  = 100
	bonusDomainPrefix   = 50
	bonusDomainContains = 25

	visitBonusPerVisit = 5
	visitBonusCap      = 50

	recencyWindowDays = 30
)

// Result is one matching record with its relevance score. Score is 0 for
// empty-query listings, where no scoring is computed.
type Result struct {
	record.VisitRecord
	Score float64 `json:"score"`
}

// Engine scores snapshots against queries. The zero value is not usable;
// construct with New.
type Engine struct {
	log *slog.Logger
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's notion of "now" for the recency bonus.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a search engine. If logger is nil, slog.Default() is used.
func New(logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{log: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search matches records whose title or domain contains the query
// (case-insensitive substring, no tokenization) and returns them sorted by
// score descending, ties by lastVisited descending. An empty or
// whitespace-only query returns every record sorted by recency with no
// scoring. The full list is returned; display caps belong to the caller.
func (e *Engine) Search(query string, records map[string]record.VisitRecord) []Result {
	if records == nil {
		e.log.Warn("search called with nil snapshot")
		return []Result{}
	}

	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return e.byRecency(records)
	}

	nowMillis := e.now().UnixMilli()
	results := make([]Result, 0, len(records))

	for _, rec := range records {
		if !rec.Valid() {
			e.log.Warn("skipping invalid record in snapshot", "url", rec.URL)
			continue
		}

		title := strings.ToLower(rec.Title)
		domain := strings.ToLower(rec.Domain)

		if !strings.Contains(title, normalized) && !strings.Contains(domain, normalized) {
			continue
		}

		results = append(results, Result{
			VisitRecord: rec,
			Score:       score(normalized, title, domain, rec, nowMillis),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].LastVisited != results[j].LastVisited {
			return results[i].LastVisited > results[j].LastVisited
		}
		return results[i].URL < results[j].URL
	})

	return results
}

// score computes the additive relevance score for one matched record.
func score(query, title, domain string, rec record.VisitRecord, nowMillis int64) float64 {
	var s float64

	if title == query {
		s += bonusTitleExact
	}
	if strings.HasPrefix(title, query) {
		s += bonusTitlePrefix
	}
	if strings.Contains(title, query) {
		s += bonusTitleContains
	}
	if strings.HasPrefix(domain, query) {
		s += bonusDomainPrefix
	}
	if strings.Contains(domain, query) {
		s += bonusDomainContains
	}

	// Visit-count bonus, capped so heavily revisited pages cannot dominate.
	visitBonus := rec.VisitCount * visitBonusPerVisit
	if visitBonus > visitBonusCap {
		visitBonus = visitBonusCap
	}
	s += float64(visitBonus)

	// Recency bonus within a 30-day window, at most 10 points.
	ageDays := float64(nowMillis-rec.LastVisited) / float64(24*time.Hour/time.Millisecond)
	if ageDays < recencyWindowDays {
		s += (recencyWindowDays - ageDays) / 3
	}

	return s
}

// byRecency returns all records sorted by lastVisited descending, URL
// ascending as the stable tiebreak.
func (e *Engine) byRecency(records map[string]record.VisitRecord) []Result {
	results := make([]Result, 0, len(records))
	for _, rec := range records {
		results = append(results, Result{VisitRecord: rec})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].LastVisited != results[j].LastVisited {
			return results[i].LastVisited > results[j].LastVisited
		}
		return results[i].URL < results[j].URL
	})

	return results
}
