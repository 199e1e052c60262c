package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pagetrail/pagetrail/internal/search"
	"github.com/pagetrail/pagetrail/internal/store"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
	a, err := openApp(c.globals)
	if err != nil {
		return err
	}
	defer a.close()

	return c.executeWithStore(a.store, args)
}

// executeWithStore runs the search against a provided store (for testing).
func (c *SearchCommand) executeWithStore(s *store.HistoryStore, args []string) error {
	query := strings.Join(args, " ")

	ctx := context.Background()
	snapshot := s.ReadAll(ctx)

	engine := search.New(nil)
	results := engine.Search(query, snapshot)

	total := len(results)
	if c.Offset > 0 {
		if c.Offset >= len(results) {
			results = nil
		} else {
			results = results[c.Offset:]
		}
	}
	if c.Limit > 0 && len(results) > c.Limit {
		results = results[:c.Limit]
	}

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(query, total, results)
	}
	return c.printHuman(query, total, results)
}

func (c *SearchCommand) printHuman(query string, total int, results []search.Result) error {
	if len(results) == 0 {
		if query != "" {
			fmt.Printf("No results found for %q\n", query)
		} else {
			fmt.Println("No pages recorded yet")
		}
		return nil
	}

	resultWord := "results"
	if total == 1 {
		resultWord = "result"
	}
	if query != "" {
		fmt.Printf("Found %d %s for %q\n\n", total, resultWord, query)
	} else {
		fmt.Printf("%d recorded %s\n\n", total, pageWord(total))
	}

	now := time.Now()
	for i, r := range results {
		fmt.Printf("%d. %s — %s\n", i+1+c.Offset, r.Title, r.Domain)
		fmt.Printf("   %s\n", r.URL)

		meta := formatRelativeTime(r.LastVisited, now)
		meta += " · " + plural2(r.VisitCount, "visit")
		if query != "" {
			meta += fmt.Sprintf(" · score %.1f", r.Score)
		}
		fmt.Printf("   %s\n", meta)

		if i < len(results)-1 {
			fmt.Println()
		}
	}

	return nil
}

func pageWord(n int) string {
	if n == 1 {
		return "page"
	}
	return "pages"
}

func plural2(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

type jsonResult struct {
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Domain      string  `json:"domain"`
	LastVisited int64   `json:"lastVisited"`
	VisitCount  int     `json:"visitCount"`
	Score       float64 `json:"score"`
}

type jsonSearchOutput struct {
	Count   int          `json:"count"`
	Total   int          `json:"total"`
	Query   string       `json:"query"`
	Results []jsonResult `json:"results"`
}

func (c *SearchCommand) printJSON(query string, total int, results []search.Result) error {
	out := jsonSearchOutput{
		Count:   len(results),
		Total:   total,
		Query:   query,
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		out.Results[i] = jsonResult{
			URL:         r.URL,
			Title:       r.Title,
			Domain:      r.Domain,
			LastVisited: r.LastVisited,
			VisitCount:  r.VisitCount,
			Score:       r.Score,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
