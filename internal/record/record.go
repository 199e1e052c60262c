// Package record defines the visit record stored for each distinct URL and
// the shared validation that turns raw page data into a storable candidate.
// Both the store and the search engine work with these types so they agree
// on what a valid record looks like.
package record

import (
	"errors"
	"net/url"
	"strings"
)

// Title length caps. Titles longer than MaxTitleLen are truncated to 197
// characters plus an ellipsis; URL fallbacks use the shorter cap.
const (
	MaxTitleLen       = 200
	maxURLFallbackLen = 100
)

// VisitRecord is the accumulated history for one distinct URL. The JSON
// field names are a persistence contract and must not change.
type VisitRecord struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Domain      string `json:"domain"`
	LastVisited int64  `json:"lastVisited"` // epoch milliseconds
	VisitCount  int    `json:"visitCount"`
}

// Valid reports whether a record is structurally usable. Entries read back
// from storage or a remote source can be missing fields; they are skipped
// rather than repaired.
func (r VisitRecord) Valid() bool {
	return r.URL != "" && r.Title != "" && r.Domain != ""
}

// Candidate is one validated page visit ready to be upserted.
type Candidate struct {
	Title     string
	URL       string
	Domain    string
	Timestamp int64 // epoch milliseconds
}

var (
	ErrEmptyURL   = errors.New("record: empty url")
	ErrBadScheme  = errors.New("record: url is not http or https")
	ErrNoDomain   = errors.New("record: url yields no domain")
	ErrEmptyTitle = errors.New("record: empty title")
)

// New builds a Candidate from raw page data. The title is sanitized with a
// URL fallback, the domain is derived from the URL, and the timestamp is
// taken as-is. Returns an error if the URL is not http(s) or no domain can
// be extracted.
func New(title, rawURL string, timestamp int64) (Candidate, error) {
	if rawURL == "" {
		return Candidate{}, ErrEmptyURL
	}
	if !ValidScheme(rawURL) {
		return Candidate{}, ErrBadScheme
	}

	domain := ExtractDomain(rawURL)
	if domain == "" {
		return Candidate{}, ErrNoDomain
	}

	clean := SanitizeTitle(title, rawURL)
	if clean == "" {
		return Candidate{}, ErrEmptyTitle
	}

	return Candidate{
		Title:     clean,
		URL:       rawURL,
		Domain:    domain,
		Timestamp: timestamp,
	}, nil
}

// ValidScheme reports whether a URL is plain http or https. Browser-internal
// schemes (chrome://, about:, ...) fail this check before any pattern rules
// are consulted.
func ValidScheme(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

// ExtractDomain pulls the hostname from a URL string, or "" if it cannot
// be parsed.
func ExtractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// SanitizeTitle trims a page title and caps its length, falling back to the
// URL (itself capped) when the title is empty or whitespace.
func SanitizeTitle(title, rawURL string) string {
	clean := strings.TrimSpace(title)
	if clean != "" {
		return truncate(clean, MaxTitleLen)
	}
	if rawURL != "" {
		return truncate(rawURL, maxURLFallbackLen)
	}
	return "Untitled Page"
}

// truncate caps s at max characters, replacing the tail with an ellipsis.
// Counting runes rather than bytes keeps multibyte titles valid UTF-8.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
