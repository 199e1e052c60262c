// Package visit turns raw page-load notifications into stored history
// records. It applies the capture filters (scheme, exclusion patterns,
// sensitive-domain denylist, incognito) before handing a validated candidate
// to the store, and never lets a bad event break the caller.
package visit

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/pagetrail/pagetrail/internal/record"
	"github.com/pagetrail/pagetrail/internal/store"
)

// PageVisit is one raw page-load notification, as delivered by a browser
// extension or the CLI.
type PageVisit struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Incognito bool   `json:"incognito"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds; 0 means "now"
}

// Processor filters and records page visits.
type Processor struct {
	store      *store.HistoryStore
	exclusions []*regexp.Regexp
	denylist   map[string]struct{}
	log        *slog.Logger
	now        func() int64

	// onRecorded, if set, is poked after every accepted visit. Wired to the
	// debounced background-sync trigger.
	onRecorded func()
}

// NewProcessor creates a Processor. If logger is nil, slog.Default() is used.
func NewProcessor(s *store.HistoryStore, exclusions []*regexp.Regexp, denylistDomains []string, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	denylist := make(map[string]struct{}, len(denylistDomains))
	for _, d := range denylistDomains {
		denylist[d] = struct{}{}
	}
	return &Processor{
		store:      s,
		exclusions: exclusions,
		denylist:   denylist,
		log:        logger,
		now:        func() int64 { return time.Now().UnixMilli() },
	}
}

// OnRecorded registers a callback invoked after each accepted visit.
func (p *Processor) OnRecorded(fn func()) {
	p.onRecorded = fn
}

// Process filters and records one page visit. Returns true if the visit was
// accepted and stored. Filtered-out visits and internal faults both return
// false; neither is an error the caller has to handle.
func (p *Processor) Process(ctx context.Context, v PageVisit) bool {
	if v.URL == "" {
		return false
	}

	if !record.ValidScheme(v.URL) {
		return false
	}

	if p.isExcluded(v.URL) {
		p.log.Debug("skipping excluded url", "url", v.URL)
		return false
	}

	if v.Incognito {
		return false
	}

	ts := v.Timestamp
	if ts == 0 {
		ts = p.now()
	}

	cand, err := record.New(v.Title, v.URL, ts)
	if err != nil {
		p.log.Warn("rejecting page visit", "url", v.URL, "error", err)
		return false
	}

	if _, denied := p.denylist[cand.Domain]; denied {
		p.log.Debug("skipping denylisted domain", "domain", cand.Domain)
		return false
	}

	if !p.store.Upsert(ctx, cand) {
		return false
	}

	if p.onRecorded != nil {
		p.onRecorded()
	}
	return true
}

// isExcluded checks the URL against the configured exclusion patterns.
func (p *Processor) isExcluded(url string) bool {
	for _, re := range p.exclusions {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}
