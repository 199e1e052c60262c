package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/pagetrail/pagetrail/internal/record"
)

// Google API endpoints, overridable for tests.
const (
	defaultSheetsAPI   = "https://sheets.googleapis.com/v4/spreadsheets"
	defaultDriveAPI    = "https://www.googleapis.com/drive/v3/files"
	defaultUserInfoAPI = "https://www.googleapis.com/oauth2/v2/userinfo"
)

const sheetTabName = "Page History"

var sheetHeader = []string{"Title", "URL", "Domain", "Last Visited", "Visit Count"}

// SheetsExporter writes the full history snapshot to a per-user Google
// spreadsheet. Export is one-way; nothing is read back into the store.
// The OAuth access token is supplied externally via the Session.
type SheetsExporter struct {
	session Session
	suffix  string
	http    *http.Client

	sheetsAPI   string
	driveAPI    string
	userInfoAPI string
}

// NewSheetsExporter creates an exporter. The spreadsheet is named
// "<user>_<suffix>" after the authenticated user's email local part.
func NewSheetsExporter(session Session, suffix string) *SheetsExporter {
	return &SheetsExporter{
		session:     session,
		suffix:      suffix,
		http:        &http.Client{Timeout: 30 * time.Second},
		sheetsAPI:   defaultSheetsAPI,
		driveAPI:    defaultDriveAPI,
		userInfoAPI: defaultUserInfoAPI,
	}
}

// Export finds or creates the spreadsheet and rewrites all rows from the
// snapshot, most recent visit first, under a frozen header row. Returns the
// number of exported records.
func (e *SheetsExporter) Export(ctx context.Context, snapshot map[string]record.VisitRecord) (int, error) {
	if e.session.Token == "" {
		return 0, fmt.Errorf("sheets export: no access token in session")
	}

	email, err := e.userEmail(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve user email: %w", err)
	}

	spreadsheetID, err := e.findOrCreateSpreadsheet(ctx, spreadsheetName(email, e.suffix))
	if err != nil {
		return 0, fmt.Errorf("find or create spreadsheet: %w", err)
	}

	records := make([]record.VisitRecord, 0, len(snapshot))
	for _, rec := range snapshot {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].LastVisited > records[j].LastVisited
	})

	values := make([][]interface{}, 0, len(records)+1)
	header := make([]interface{}, len(sheetHeader))
	for i, h := range sheetHeader {
		header[i] = h
	}
	values = append(values, header)
	for _, rec := range records {
		values = append(values, []interface{}{
			rec.Title,
			rec.URL,
			rec.Domain,
			time.UnixMilli(rec.LastVisited).UTC().Format(time.RFC3339),
			rec.VisitCount,
		})
	}

	if err := e.writeValues(ctx, spreadsheetID, values); err != nil {
		return 0, fmt.Errorf("write rows: %w", err)
	}
	return len(records), nil
}

// spreadsheetName derives the per-user sheet name from an email address.
func spreadsheetName(email, suffix string) string {
	user := email
	for i := range email {
		if email[i] == '@' {
			user = email[:i]
			break
		}
	}
	return user + suffix
}

func (e *SheetsExporter) userEmail(ctx context.Context) (string, error) {
	var out struct {
		Email string `json:"email"`
	}
	if err := e.getJSON(ctx, e.userInfoAPI, &out); err != nil {
		return "", err
	}
	if out.Email == "" {
		return "", fmt.Errorf("userinfo response had no email")
	}
	return out.Email, nil
}

// findOrCreateSpreadsheet looks the sheet up by name via the Drive files
// query API and creates it (with a frozen header row) when absent.
func (e *SheetsExporter) findOrCreateSpreadsheet(ctx context.Context, name string) (string, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf(
		"name='%s' and mimeType='application/vnd.google-apps.spreadsheet' and trashed=false", name))

	var found struct {
		Files []struct {
			ID string `json:"id"`
		} `json:"files"`
	}
	if err := e.getJSON(ctx, e.driveAPI+"?"+query.Encode(), &found); err != nil {
		return "", err
	}
	if len(found.Files) > 0 {
		return found.Files[0].ID, nil
	}

	create := map[string]interface{}{
		"properties": map[string]interface{}{"title": name},
		"sheets": []interface{}{
			map[string]interface{}{
				"properties": map[string]interface{}{
					"title": sheetTabName,
					"gridProperties": map[string]interface{}{
						"frozenRowCount": 1,
					},
				},
			},
		},
	}

	var created struct {
		SpreadsheetID string `json:"spreadsheetId"`
	}
	if err := e.postJSON(ctx, e.sheetsAPI, create, &created); err != nil {
		return "", err
	}
	if created.SpreadsheetID == "" {
		return "", fmt.Errorf("create spreadsheet returned no id")
	}
	return created.SpreadsheetID, nil
}

// writeValues rewrites the sheet range A1:E<n> in RAW input mode.
func (e *SheetsExporter) writeValues(ctx context.Context, spreadsheetID string, values [][]interface{}) error {
	rng := fmt.Sprintf("%s!A1:E%d", sheetTabName, len(values))
	endpoint := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW",
		e.sheetsAPI, spreadsheetID, url.PathEscape(rng))

	body, err := json.Marshal(map[string]interface{}{"values": values})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.session.Token)

	resp, err := e.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sheets API returned %s", resp.Status)
	}
	return nil
}

func (e *SheetsExporter) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+e.session.Token)

	resp, err := e.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned %s", endpoint, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (e *SheetsExporter) postJSON(ctx context.Context, endpoint string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.session.Token)

	resp, err := e.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s returned %s", endpoint, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
