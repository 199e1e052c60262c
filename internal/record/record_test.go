package record

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ValidCandidate(t *testing.T) {
	c, err := New("Hacker News", "https://news.ycombinator.com/", 1700000000000)
	require.NoError(t, err)

	assert.Equal(t, "Hacker News", c.Title)
	assert.Equal(t, "https://news.ycombinator.com/", c.URL)
	assert.Equal(t, "news.ycombinator.com", c.Domain)
	assert.Equal(t, int64(1700000000000), c.Timestamp)
}

func TestNew_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		url     string
		wantErr error
	}{
		{"empty url", "Title", "", ErrEmptyURL},
		{"chrome scheme", "Settings", "chrome://settings", ErrBadScheme},
		{"ftp scheme", "Files", "ftp://example.com/", ErrBadScheme},
		{"no host", "Broken", "https:///path-only", ErrNoDomain},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.title, tc.url, 1)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSanitizeTitle_TruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("a", 250)
	got := SanitizeTitle(long, "https://example.com")

	assert.Len(t, got, MaxTitleLen)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("a", 197), got[:197])
}

func TestSanitizeTitle_TruncatesMultibyteOnRuneBoundaries(t *testing.T) {
	long := strings.Repeat("é", 250)
	got := SanitizeTitle(long, "https://example.com")

	assert.True(t, utf8.ValidString(got), "truncated title must remain valid UTF-8")
	assert.Equal(t, MaxTitleLen, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("é", 197), strings.TrimSuffix(got, "..."))
}

func TestSanitizeTitle_FallsBackToURL(t *testing.T) {
	assert.Equal(t, "https://example.com/page", SanitizeTitle("", "https://example.com/page"))
	assert.Equal(t, "https://example.com/page", SanitizeTitle("   ", "https://example.com/page"))

	longURL := "https://example.com/" + strings.Repeat("x", 120)
	got := SanitizeTitle("", longURL)
	assert.Len(t, got, 100)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestSanitizeTitle_ExactCapKept(t *testing.T) {
	exact := strings.Repeat("b", MaxTitleLen)
	assert.Equal(t, exact, SanitizeTitle(exact, ""))
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.example.com/page", "www.example.com"},
		{"http://blog.test.org/post/123", "blog.test.org"},
		{"https://example.com:8080/x", "example.com"},
		{"://not-a-url", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, ExtractDomain(tc.url), "domain for %s", tc.url)
	}
}

func TestValidScheme(t *testing.T) {
	assert.True(t, ValidScheme("http://a.com"))
	assert.True(t, ValidScheme("https://a.com"))
	assert.False(t, ValidScheme("chrome://extensions"))
	assert.False(t, ValidScheme("about:blank"))
}

func TestVisitRecord_Valid(t *testing.T) {
	ok := VisitRecord{Title: "t", URL: "https://a.com", Domain: "a.com"}
	assert.True(t, ok.Valid())

	assert.False(t, VisitRecord{URL: "https://a.com", Domain: "a.com"}.Valid())
	assert.False(t, VisitRecord{Title: "t", Domain: "a.com"}.Valid())
	assert.False(t, VisitRecord{Title: "t", URL: "https://a.com"}.Valid())
}
