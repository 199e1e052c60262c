package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/pagetrail/pagetrail/internal/record"
)

// Row is the wire shape of one history record in the backend table.
type Row struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Domain      string `json:"domain"`
	LastVisited string `json:"last_visited"` // RFC3339
	VisitCount  int    `json:"visit_count"`
}

// RowFromRecord converts a local record to its wire shape for a session.
func RowFromRecord(session Session, rec record.VisitRecord) Row {
	return Row{
		UserID:      session.ClientID,
		Title:       rec.Title,
		URL:         rec.URL,
		Domain:      rec.Domain,
		LastVisited: time.UnixMilli(rec.LastVisited).UTC().Format(time.RFC3339),
		VisitCount:  rec.VisitCount,
	}
}

// Record converts a fetched row back to a local record. Rows with broken
// timestamps keep a zero lastVisited rather than failing the pull.
func (r Row) Record() record.VisitRecord {
	var millis int64
	if t, err := time.Parse(time.RFC3339, r.LastVisited); err == nil {
		millis = t.UnixMilli()
	}
	return record.VisitRecord{
		Title:       r.Title,
		URL:         r.URL,
		Domain:      r.Domain,
		LastVisited: millis,
		VisitCount:  r.VisitCount,
	}
}

// BackendClient talks to a PostgREST-style table endpoint. Outbound calls
// are rate-limited and bounded by the HTTP client timeout.
type BackendClient struct {
	baseURL string
	table   string
	session Session
	http    *http.Client
	limiter *rate.Limiter
}

// NewBackendClient creates a client for {baseURL}/rest/v1/{table}.
func NewBackendClient(baseURL, table string, session Session, requestsPerSecond int) *BackendClient {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 4
	}
	return &BackendClient{
		baseURL: baseURL,
		table:   table,
		session: session,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// UpsertRows pushes rows in one batch. Conflicts on (user_id, url) merge
// into the existing row, mirroring the store's upsert-by-URL identity.
func (c *BackendClient) UpsertRows(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s?on_conflict=user_id,url", c.baseURL, c.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates")
	c.authorize(req)

	resp, err := c.do(ctx, req)
	if err != nil {
		return fmt.Errorf("upsert rows: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upsert rows: backend returned %s", resp.Status)
	}
	return nil
}

// FetchRows retrieves all rows belonging to this session, most recent first.
func (c *BackendClient) FetchRows(ctx context.Context) ([]Row, error) {
	query := url.Values{}
	query.Set("user_id", "eq."+c.session.ClientID)
	query.Set("order", "last_visited.desc")

	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, c.table, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	c.authorize(req)

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch rows: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rows: backend returned %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read fetch response: %w", err)
	}

	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode fetch response: %w", err)
	}
	return rows, nil
}

func (c *BackendClient) authorize(req *http.Request) {
	if c.session.Token != "" {
		req.Header.Set("apikey", c.session.Token)
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}
}

func (c *BackendClient) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.http.Do(req)
}
